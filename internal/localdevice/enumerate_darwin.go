//go:build darwin

package localdevice

import (
	"context"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/jmylchreest/camerad/internal/util"
)

var avfoundationLinePattern = regexp.MustCompile(`\[(\d+)\]\s+(.+)`)

// Enumerate shells out to the transcoder's `-f avfoundation -list_devices
// true` diagnostic and parses "[n] name" lines between the AVFoundation
// video and audio device section markers.
func Enumerate(ctx context.Context) ([]Device, error) {
	binary, err := util.FindBinary("ffmpeg", "CAMERAD_FFMPEG_BINARY")
	if err != nil {
		return nil, err
	}

	out, _ := exec.CommandContext(ctx, binary, "-hide_banner", "-f", "avfoundation", "-list_devices", "true", "-i", "").CombinedOutput()

	section := parseSection(string(out), "AVFoundation video devices", "AVFoundation audio devices")

	devices := make([]Device, 0)
	for _, line := range strings.Split(section, "\n") {
		m := avfoundationLinePattern.FindStringSubmatch(strings.TrimSpace(line))
		if len(m) != 3 {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		devices = append(devices, Device{Name: strings.TrimSpace(m[2]), Index: idx})
	}
	return devices, nil
}
