//go:build windows

package localdevice

import (
	"context"
	"os/exec"
	"regexp"
	"strings"

	"github.com/jmylchreest/camerad/internal/util"
)

var dshowNamePattern = regexp.MustCompile(`"([^"]+)"`)

// Enumerate shells out to the transcoder's `-list_devices true -f dshow
// -i dummy` diagnostic and parses quoted device names between the
// "DirectShow video devices" and "DirectShow audio devices" section
// markers.
func Enumerate(ctx context.Context) ([]Device, error) {
	binary, err := util.FindBinary("ffmpeg", "CAMERAD_FFMPEG_BINARY")
	if err != nil {
		return nil, err
	}

	// ffmpeg exits non-zero for this diagnostic invocation; the device
	// list is on stderr regardless.
	out, _ := exec.CommandContext(ctx, binary, "-hide_banner", "-list_devices", "true", "-f", "dshow", "-i", "dummy").CombinedOutput()

	section := parseSection(string(out), "DirectShow video devices", "DirectShow audio devices")

	var names []string
	for _, m := range dshowNamePattern.FindAllStringSubmatch(section, -1) {
		names = append(names, m[1])
	}

	devices := make([]Device, 0, len(names))
	for i, name := range names {
		devices = append(devices, Device{Name: name, Index: i})
	}
	return devices, nil
}
