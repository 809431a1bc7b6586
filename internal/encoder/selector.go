package encoder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jmylchreest/camerad/internal/domain"
	"github.com/jmylchreest/camerad/internal/models"
)

// Purpose distinguishes the two output profiles the selector builds argv
// for: a live HLS stream or a finished recording.
type Purpose int

const (
	Streaming Purpose = iota
	Recording
)

const defaultFPS = 30

// Selection is the outcome of Select: which encoder was chosen and the
// argv fragment (codec + bitrate + gop + quality flags) to splice into the
// transcoder command line between the input and output arguments.
type Selection struct {
	EncoderName string
	UsedGPU     bool
	Args        []string
}

// Select is a pure function: given the encoder settings, the purpose, the
// camera's fps (0 means unknown and falls back to 30), and whether the
// configured GPU encoder passed its functional test, it returns the exact
// argv fragment to use. Byte-identical inputs always yield byte-identical
// output.
func Select(settings *models.EncoderSettings, purpose Purpose, fps int, gpuFunctional bool) (*Selection, error) {
	if fps <= 0 {
		fps = defaultFPS
	}

	switch settings.EncoderMode {
	case models.EncoderModeCpuOnly:
		return cpuSelection(settings, purpose, fps), nil

	case models.EncoderModeGpuOnly:
		if settings.GPUEncoder == nil || *settings.GPUEncoder == "" {
			return nil, domain.New(domain.KindValidation, "encoder mode is GpuOnly but no gpu_encoder is configured")
		}
		return gpuSelection(*settings.GPUEncoder, settings, purpose, fps), nil

	case models.EncoderModeAuto:
		if settings.GPUEncoder != nil && *settings.GPUEncoder != "" && gpuFunctional {
			return gpuSelection(*settings.GPUEncoder, settings, purpose, fps), nil
		}
		return cpuSelection(settings, purpose, fps), nil

	default:
		return nil, domain.New(domain.KindValidation, fmt.Sprintf("unknown encoder mode %q", settings.EncoderMode))
	}
}

func cpuSelection(settings *models.EncoderSettings, purpose Purpose, fps int) *Selection {
	name := settings.CPUEncoder
	if name == "" {
		name = "libx264"
	}

	args := []string{"-c:v", name}

	if purpose == Streaming {
		args = append(args,
			"-preset", "ultrafast",
			"-tune", "zerolatency",
			"-b:v", "4M", "-maxrate", "4M", "-bufsize", "4M",
			"-g", strconv.Itoa(fps*2),
			"-bf", "0",
			"-sc_threshold", "0",
			"-force_key_frames", "expr:gte(t,n_forced*2)",
		)
	} else {
		args = append(args,
			"-preset", "medium",
			"-b:v", "8M",
			"-crf", strconv.Itoa(settings.Quality),
			"-g", "120",
		)
	}

	return &Selection{EncoderName: name, UsedGPU: false, Args: args}
}

func gpuSelection(name string, settings *models.EncoderSettings, purpose Purpose, fps int) *Selection {
	args := []string{"-c:v", name}

	preset := gpuPreset(name)

	if purpose == Streaming {
		args = append(args,
			"-b:v", "4M", "-maxrate", "4M", "-bufsize", "4M",
			"-g", strconv.Itoa(fps*2),
			"-bf", "0",
			"-force_key_frames", "expr:gte(t,n_forced*2)",
		)
	} else {
		args = append(args, "-preset", preset, "-b:v", "8M")
		args = append(args, gpuQualityFlag(name, settings.Quality)...)
		args = append(args, "-g", "120")
	}

	return &Selection{EncoderName: name, UsedGPU: true, Args: args}
}

// gpuPreset returns the recording preset name for a GPU encoder backend.
func gpuPreset(encoderName string) string {
	switch {
	case strings.HasSuffix(encoderName, "_nvenc"):
		return "p4"
	default:
		return "balanced"
	}
}

// gpuQualityFlag returns the backend-specific quality flag(s) for the
// recording profile, threading the configured quality value through as
// CQ/QP/global_quality depending on which the backend supports.
func gpuQualityFlag(encoderName string, quality int) []string {
	q := strconv.Itoa(quality)
	switch {
	case strings.HasSuffix(encoderName, "_nvenc"):
		return []string{"-rc", "vbr", "-cq", q}
	case strings.HasSuffix(encoderName, "_qsv"):
		return []string{"-global_quality", q}
	case strings.HasSuffix(encoderName, "_vaapi"):
		return []string{"-qp", q}
	case strings.HasSuffix(encoderName, "_amf"):
		return []string{"-qp_i", q, "-qp_p", q}
	case strings.HasSuffix(encoderName, "_videotoolbox"):
		return []string{"-q:v", q}
	default:
		return nil
	}
}
