//go:build linux

package localdevice

import (
	"context"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Enumerate lists /dev/video* devices that report a Video Capture
// capability (not only Metadata Capture) via `v4l2-ctl --all`, and scores
// their advertised formats via `v4l2-ctl --list-formats-ext`.
func Enumerate(ctx context.Context) ([]Device, error) {
	paths, err := filepath.Glob("/dev/video*")
	if err != nil {
		return nil, err
	}

	var devices []Device
	for _, path := range paths {
		if !hasVideoCapture(ctx, path) {
			continue
		}

		formats := listFormats(ctx, path)
		dev := Device{Path: path, Name: cardType(ctx, path), Formats: formats}
		if best, ok := BestFormat(formats); ok {
			dev.BestFormat = best
		}
		devices = append(devices, dev)
	}

	return devices, nil
}

// hasVideoCapture runs `v4l2-ctl --all` against path and checks the device
// caps for "Video Capture", excluding devices that only advertise
// "Metadata Capture".
func hasVideoCapture(ctx context.Context, path string) bool {
	out, err := exec.CommandContext(ctx, "v4l2-ctl", "-d", path, "--all").CombinedOutput()
	if err != nil {
		return false
	}

	inCaps := false
	for _, line := range strings.Split(string(out), "\n") {
		if key, _, ok := splitFirstColon(line); ok {
			// Capability names are listed one per line, without a colon,
			// under the "Device Caps" header; any other header ends the block.
			inCaps = strings.TrimSpace(key) == "Device Caps"
			continue
		}
		if inCaps && strings.TrimSpace(line) == "Video Capture" {
			return true
		}
	}
	return false
}

// cardType runs `v4l2-ctl --info` against path and returns the human
// readable "Card type" value, or empty string if it can't be determined.
func cardType(ctx context.Context, path string) string {
	out, err := exec.CommandContext(ctx, "v4l2-ctl", "-d", path, "--info").CombinedOutput()
	if err != nil {
		return ""
	}

	for _, line := range strings.Split(string(out), "\n") {
		key, value, ok := splitFirstColon(line)
		if !ok {
			continue
		}
		if strings.Contains(key, "Card type") {
			return value
		}
	}
	return ""
}

// splitFirstColon splits line on its first colon only, trimming both
// sides, matching v4l2-ctl's "Key   : Value" output format.
func splitFirstColon(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
}

var formatHeaderPattern = regexp.MustCompile(`\[\d+\]:\s+'(\w+)'`)
var sizePattern = regexp.MustCompile(`(\d+)x(\d+)`)
var fpsPattern = regexp.MustCompile(`\(([\d.]+)\s+fps\)`)

// listFormats parses `v4l2-ctl --list-formats-ext` output into a flat list
// of pixel-format/resolution/fps combinations.
func listFormats(ctx context.Context, path string) []Format {
	out, err := exec.CommandContext(ctx, "v4l2-ctl", "-d", path, "--list-formats-ext").CombinedOutput()
	if err != nil {
		return nil
	}

	var formats []Format
	currentPixelFormat := ""
	currentWidth, currentHeight := 0, 0

	for _, line := range strings.Split(string(out), "\n") {
		trimmed := strings.TrimSpace(line)

		if m := formatHeaderPattern.FindStringSubmatch(trimmed); len(m) == 2 {
			currentPixelFormat = normalizePixelFormat(m[1])
			continue
		}

		if m := sizePattern.FindStringSubmatch(trimmed); len(m) == 3 && strings.HasPrefix(trimmed, "Size:") {
			currentWidth, _ = strconv.Atoi(m[1])
			currentHeight, _ = strconv.Atoi(m[2])
			continue
		}

		if m := fpsPattern.FindStringSubmatch(trimmed); len(m) == 2 && currentPixelFormat != "" && currentWidth > 0 {
			fps, _ := strconv.Atoi(strings.SplitN(m[1], ".", 2)[0])
			formats = append(formats, Format{
				PixelFormat: currentPixelFormat,
				Width:       currentWidth,
				Height:      currentHeight,
				FPS:         fps,
			})
		}
	}

	return formats
}

func normalizePixelFormat(raw string) string {
	upper := strings.ToUpper(raw)
	if strings.Contains(upper, "MJPG") || strings.Contains(upper, "MJPEG") {
		return "MJPEG"
	}
	return upper
}
