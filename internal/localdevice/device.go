// Package localdevice enumerates locally attached UVC capture devices and
// picks each one's best capture format.
package localdevice

import "fmt"

// Format is one capture format/resolution/frame-rate combination a device
// advertises.
type Format struct {
	PixelFormat string
	Width       int
	Height      int
	FPS         int
}

// score ranks formats by the enumerator's selection policy: MJPEG is
// strongly preferred over other pixel formats, then resolution, then
// frame rate.
func (f Format) score() int {
	s := 0
	if f.PixelFormat == "MJPEG" {
		s += 10000
	}
	s += (f.Width * f.Height) / 1000
	s += f.FPS
	return s
}

// BestFormat returns the highest-scoring format in formats.
func BestFormat(formats []Format) (Format, bool) {
	if len(formats) == 0 {
		return Format{}, false
	}
	best := formats[0]
	for _, f := range formats[1:] {
		if f.score() > best.score() {
			best = f
		}
	}
	return best, true
}

// Device is one enumerated local capture device, identified by whichever
// locator its platform's transcoder input format requires.
type Device struct {
	Path        string // Linux: /dev/videoN
	Name        string // Windows/macOS: device name
	Index       int    // Windows/macOS: device index, when name lookup is ambiguous
	Formats     []Format
	BestFormat  Format
}

func (d Device) String() string {
	if d.Path != "" {
		return d.Path
	}
	return fmt.Sprintf("%s (#%d)", d.Name, d.Index)
}
