package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jmylchreest/camerad/internal/service"
)

// PTZHandler handles pan-tilt-zoom and camera time-sync endpoints.
type PTZHandler struct {
	svc *service.Service
}

// NewPTZHandler creates a new PTZ/time-sync handler.
func NewPTZHandler(svc *service.Service) *PTZHandler {
	return &PTZHandler{svc: svc}
}

// Register registers the PTZ and time-sync routes with the API.
func (h *PTZHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "checkPTZCapabilities",
		Method:      "GET",
		Path:        "/api/v1/cameras/{id}/ptz",
		Summary:     "Check PTZ capability",
		Description: "Reports whether a camera supports pan-tilt-zoom.",
		Tags:        []string{"PTZ"},
	}, h.CheckPTZCapabilities)

	huma.Register(api, huma.Operation{
		OperationID: "movePTZ",
		Method:      "POST",
		Path:        "/api/v1/cameras/{id}/ptz/move",
		Summary:     "Move PTZ",
		Description: "Issues a continuous PTZ move with pan/tilt/zoom velocities in [-1.0, 1.0].",
		Tags:        []string{"PTZ"},
	}, h.MovePTZ)

	huma.Register(api, huma.Operation{
		OperationID: "stopPTZ",
		Method:      "POST",
		Path:        "/api/v1/cameras/{id}/ptz/stop",
		Summary:     "Stop PTZ",
		Description: "Stops any in-progress PTZ move.",
		Tags:        []string{"PTZ"},
	}, h.StopPTZ)

	huma.Register(api, huma.Operation{
		OperationID: "getCameraTime",
		Method:      "GET",
		Path:        "/api/v1/cameras/{id}/time",
		Summary:     "Get camera time",
		Description: "Reads the camera's onboard clock.",
		Tags:        []string{"Time Sync"},
	}, h.GetCameraTime)

	huma.Register(api, huma.Operation{
		OperationID: "syncCameraTime",
		Method:      "POST",
		Path:        "/api/v1/cameras/{id}/time/sync",
		Summary:     "Sync camera time",
		Description: "Sets the camera's clock to the host's UTC time and verifies the result.",
		Tags:        []string{"Time Sync"},
	}, h.SyncCameraTime)
}

// CheckPTZCapabilitiesInput is the input for the PTZ capability check.
type CheckPTZCapabilitiesInput struct {
	ID uint `path:"id" doc:"Camera ID"`
}

// CheckPTZCapabilitiesOutput is the output for the PTZ capability check.
type CheckPTZCapabilitiesOutput struct {
	Body struct {
		SupportsPTZ bool `json:"supports_ptz"`
	}
}

// CheckPTZCapabilities reports whether a camera supports PTZ.
func (h *PTZHandler) CheckPTZCapabilities(ctx context.Context, input *CheckPTZCapabilitiesInput) (*CheckPTZCapabilitiesOutput, error) {
	supported, err := h.svc.CheckPTZCapabilities(ctx, input.ID)
	if err != nil {
		return nil, mapServiceError("checking PTZ capabilities", err)
	}
	resp := &CheckPTZCapabilitiesOutput{}
	resp.Body.SupportsPTZ = supported
	return resp, nil
}

// MovePTZInput is the input for a PTZ move.
type MovePTZInput struct {
	ID   uint `path:"id" doc:"Camera ID"`
	Body struct {
		X    float64 `json:"x" doc:"Pan velocity, -1.0 to 1.0"`
		Y    float64 `json:"y" doc:"Tilt velocity, -1.0 to 1.0"`
		Zoom float64 `json:"zoom" doc:"Zoom velocity, -1.0 to 1.0"`
	}
}

// MovePTZOutput is the output for a PTZ move.
type MovePTZOutput struct{}

// MovePTZ issues a continuous PTZ move.
func (h *PTZHandler) MovePTZ(ctx context.Context, input *MovePTZInput) (*MovePTZOutput, error) {
	if err := h.svc.MovePTZ(ctx, input.ID, input.Body.X, input.Body.Y, input.Body.Zoom); err != nil {
		return nil, mapServiceError("moving PTZ", err)
	}
	return &MovePTZOutput{}, nil
}

// StopPTZInput is the input for stopping a PTZ move.
type StopPTZInput struct {
	ID uint `path:"id" doc:"Camera ID"`
}

// StopPTZOutput is the output for stopping a PTZ move.
type StopPTZOutput struct{}

// StopPTZ stops any in-progress PTZ move.
func (h *PTZHandler) StopPTZ(ctx context.Context, input *StopPTZInput) (*StopPTZOutput, error) {
	if err := h.svc.StopPTZ(ctx, input.ID); err != nil {
		return nil, mapServiceError("stopping PTZ", err)
	}
	return &StopPTZOutput{}, nil
}

// GetCameraTimeInput is the input for reading a camera's clock.
type GetCameraTimeInput struct {
	ID uint `path:"id" doc:"Camera ID"`
}

// GetCameraTimeOutput is the output for reading a camera's clock.
type GetCameraTimeOutput struct {
	Body struct {
		Time time.Time `json:"time"`
	}
}

// GetCameraTime reads the camera's onboard clock.
func (h *PTZHandler) GetCameraTime(ctx context.Context, input *GetCameraTimeInput) (*GetCameraTimeOutput, error) {
	t, err := h.svc.GetCameraTime(ctx, input.ID)
	if err != nil {
		return nil, mapServiceError("getting camera time", err)
	}
	resp := &GetCameraTimeOutput{}
	resp.Body.Time = t
	return resp, nil
}

// SyncCameraTimeInput is the input for syncing a camera's clock.
type SyncCameraTimeInput struct {
	ID uint `path:"id" doc:"Camera ID"`
}

// SyncCameraTimeOutput is the output for syncing a camera's clock.
type SyncCameraTimeOutput struct {
	Body *service.TimeSyncResult
}

// SyncCameraTime sets the camera's clock to the host's UTC time.
func (h *PTZHandler) SyncCameraTime(ctx context.Context, input *SyncCameraTimeInput) (*SyncCameraTimeOutput, error) {
	result, err := h.svc.SyncCameraTime(ctx, input.ID)
	if err != nil {
		return nil, mapServiceError("syncing camera time", err)
	}
	return &SyncCameraTimeOutput{Body: result}, nil
}
