package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jmylchreest/camerad/internal/encoder"
	"github.com/jmylchreest/camerad/internal/models"
	"github.com/jmylchreest/camerad/internal/service"
)

// EncoderHandler handles encoder settings and GPU detection endpoints.
type EncoderHandler struct {
	svc *service.Service
}

// NewEncoderHandler creates a new encoder settings handler.
func NewEncoderHandler(svc *service.Service) *EncoderHandler {
	return &EncoderHandler{svc: svc}
}

// Register registers the encoder settings routes with the API.
func (h *EncoderHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "detectGPU",
		Method:      "POST",
		Path:        "/api/v1/encoder/detect-gpu",
		Summary:     "Detect GPU",
		Description: "Probes for a usable hardware encoder vendor and available encoder names.",
		Tags:        []string{"Encoder"},
	}, h.DetectGPU)

	huma.Register(api, huma.Operation{
		OperationID: "getEncoderSettings",
		Method:      "GET",
		Path:        "/api/v1/encoder/settings",
		Summary:     "Get encoder settings",
		Description: "Returns the singleton encoder settings row.",
		Tags:        []string{"Encoder"},
	}, h.GetEncoderSettings)

	huma.Register(api, huma.Operation{
		OperationID: "updateEncoderSettings",
		Method:      "PATCH",
		Path:        "/api/v1/encoder/settings",
		Summary:     "Update encoder settings",
		Description: "Applies a partial update to the singleton encoder settings row.",
		Tags:        []string{"Encoder"},
	}, h.UpdateEncoderSettings)
}

// DetectGPUInput is the input for GPU detection.
type DetectGPUInput struct{}

// DetectGPUOutput is the output for GPU detection.
type DetectGPUOutput struct {
	Body *encoder.Probe
}

// DetectGPU probes for a usable hardware encoder.
func (h *EncoderHandler) DetectGPU(ctx context.Context, input *DetectGPUInput) (*DetectGPUOutput, error) {
	probe, err := h.svc.DetectGPU(ctx)
	if err != nil {
		return nil, mapServiceError("detecting GPU", err)
	}
	return &DetectGPUOutput{Body: probe}, nil
}

// GetEncoderSettingsInput is the input for reading encoder settings.
type GetEncoderSettingsInput struct{}

// GetEncoderSettingsOutput is the output for reading encoder settings.
type GetEncoderSettingsOutput struct {
	Body *models.EncoderSettings
}

// GetEncoderSettings returns the singleton encoder settings row.
func (h *EncoderHandler) GetEncoderSettings(ctx context.Context, input *GetEncoderSettingsInput) (*GetEncoderSettingsOutput, error) {
	settings, err := h.svc.GetEncoderSettings(ctx)
	if err != nil {
		return nil, mapServiceError("getting encoder settings", err)
	}
	return &GetEncoderSettingsOutput{Body: settings}, nil
}

// UpdateEncoderSettingsInput is the input for updating encoder settings.
type UpdateEncoderSettingsInput struct {
	Body models.EncoderSettingsPatch
}

// UpdateEncoderSettingsOutput is the output for updating encoder settings.
type UpdateEncoderSettingsOutput struct {
	Body *models.EncoderSettings
}

// UpdateEncoderSettings applies a partial update to the encoder settings row.
func (h *EncoderHandler) UpdateEncoderSettings(ctx context.Context, input *UpdateEncoderSettingsInput) (*UpdateEncoderSettingsOutput, error) {
	settings, err := h.svc.UpdateEncoderSettings(ctx, &input.Body)
	if err != nil {
		return nil, mapServiceError("updating encoder settings", err)
	}
	return &UpdateEncoderSettingsOutput{Body: settings}, nil
}
