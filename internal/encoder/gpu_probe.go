// Package encoder selects a transcoder encoder and builds its argv, and
// probes the host for usable hardware acceleration.
package encoder

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Vendor identifies the detected GPU vendor.
type Vendor string

const (
	VendorNone         Vendor = "None"
	VendorNvidia       Vendor = "Nvidia"
	VendorIntel        Vendor = "Intel"
	VendorAmd          Vendor = "Amd"
	VendorVideoToolbox Vendor = "VideoToolbox"
	VendorVaApi        Vendor = "VaApi"
)

// hwEncoderNames enumerates every hardware encoder name the probe checks
// for in `ffmpeg -encoders` output: the two codec families (h264, hevc) across the
// five vendor backends the selector knows about.
var hwEncoderNames = []string{
	"h264_nvenc", "hevc_nvenc",
	"h264_qsv", "hevc_qsv",
	"h264_amf", "hevc_amf",
	"h264_vaapi", "hevc_vaapi",
	"h264_videotoolbox", "hevc_videotoolbox",
}

// preferredByVendor maps a detected vendor to the h264 encoder the
// selector prefers when that vendor is present in the available set.
var preferredByVendor = map[Vendor]string{
	VendorNvidia:       "h264_nvenc",
	VendorIntel:        "h264_qsv",
	VendorAmd:          "h264_amf",
	VendorVaApi:        "h264_vaapi",
	VendorVideoToolbox: "h264_videotoolbox",
}

// Probe is the result of detecting GPU encoder availability on the host.
type Probe struct {
	Vendor    Vendor
	Available map[string]bool // hw encoder name -> present in ffmpeg -encoders
	Preferred string          // "" if no vendor-matched encoder is available
}

// ProbeGPU runs the three-step GPU detection: enumerate hardware encoders
// the local ffmpeg build exposes, detect the GPU vendor, then pick the
// preferred encoder for that vendor iff it is also in the available set.
func ProbeGPU(ctx context.Context, ffmpegPath string) (*Probe, error) {
	available, err := availableHWEncoders(ctx, ffmpegPath)
	if err != nil {
		return nil, err
	}

	vendor := detectVendor(ctx)

	preferred := ""
	if candidate, ok := preferredByVendor[vendor]; ok && available[candidate] {
		preferred = candidate
	}

	return &Probe{
		Vendor:    vendor,
		Available: available,
		Preferred: preferred,
	}, nil
}

// availableHWEncoders runs `ffmpeg -encoders -hide_banner` and records
// which of the known hardware encoder names are present in the output.
func availableHWEncoders(ctx context.Context, ffmpegPath string) (map[string]bool, error) {
	cmd := exec.CommandContext(ctx, ffmpegPath, "-encoders", "-hide_banner")
	output, err := cmd.Output()
	if err != nil {
		return nil, err
	}

	text := string(output)
	found := make(map[string]bool, len(hwEncoderNames))
	for _, name := range hwEncoderNames {
		found[name] = strings.Contains(text, name)
	}
	return found, nil
}

// detectVendor walks the vendor detection order: nvidia-smi, then a
// platform scan for Intel/AMD GPUs, then platform-native backends.
func detectVendor(ctx context.Context) Vendor {
	if commandSucceeds(ctx, "nvidia-smi", "--query-gpu=name", "--format=csv,noheader") {
		return VendorNvidia
	}

	if scanText := gpuScanText(ctx); scanText != "" {
		lower := strings.ToLower(scanText)
		if strings.Contains(lower, "intel") {
			return VendorIntel
		}
		if strings.Contains(lower, "amd") || strings.Contains(lower, "radeon") {
			return VendorAmd
		}
	}

	switch runtime.GOOS {
	case "darwin":
		return VendorVideoToolbox
	case "linux":
		if hasRenderNode() {
			return VendorVaApi
		}
	}

	return VendorNone
}

// gpuScanText returns the output of the platform's GPU enumeration
// command, or empty string if unavailable.
func gpuScanText(ctx context.Context) string {
	switch runtime.GOOS {
	case "windows":
		out, err := exec.CommandContext(ctx, "wmic", "path", "win32_VideoController", "get", "name").Output()
		if err != nil {
			return ""
		}
		return string(out)
	default:
		out, err := exec.CommandContext(ctx, "lspci").Output()
		if err != nil {
			return ""
		}
		return string(out)
	}
}

func commandSucceeds(ctx context.Context, name string, args ...string) bool {
	return exec.CommandContext(ctx, name, args...).Run() == nil
}

// hasRenderNode reports whether a DRI render node exists, indicating a
// VA-API capable GPU is present.
func hasRenderNode() bool {
	for _, node := range []string{"/dev/dri/renderD128", "/dev/dri/renderD129"} {
		if _, err := os.Stat(node); err == nil {
			return true
		}
	}
	return false
}

// hwDeviceInitArgs returns the ffmpeg hardware-device initialization
// flags a candidate encoder needs before it can be used, or nil if the
// encoder requires none.
func hwDeviceInitArgs(encoderName string) []string {
	switch encoderName {
	case "h264_qsv", "hevc_qsv":
		return []string{"-init_hw_device", "qsv=hw", "-filter_hw_device", "hw"}
	case "h264_vaapi", "hevc_vaapi":
		return []string{"-init_hw_device", "vaapi=va:/dev/dri/renderD128", "-filter_hw_device", "va"}
	default:
		return nil
	}
}

// FunctionalTest runs a short synthetic encode through the candidate
// encoder and returns true iff ffmpeg exits zero and the output contains
// a "frame=" progress marker.
func FunctionalTest(ctx context.Context, ffmpegPath, encoderName string) bool {
	args := []string{
		"-hide_banner",
		"-f", "lavfi", "-i", "testsrc=size=320x240:rate=30",
	}
	args = append(args, hwDeviceInitArgs(encoderName)...)
	args = append(args,
		"-frames:v", "10",
		"-c:v", encoderName,
		"-f", "null", "-",
	)

	cmd := exec.CommandContext(ctx, ffmpegPath, args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return false
	}
	return strings.Contains(string(output), "frame=")
}
