package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jmylchreest/camerad/internal/service"
)

// StreamHandler handles live-stream lifecycle endpoints.
type StreamHandler struct {
	svc *service.Service
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(svc *service.Service) *StreamHandler {
	return &StreamHandler{svc: svc}
}

// Register registers the stream routes with the API.
func (h *StreamHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "startStream",
		Method:      "POST",
		Path:        "/api/v1/cameras/{id}/stream/start",
		Summary:     "Start stream",
		Description: "Starts (or returns the existing) live HLS stream for a camera.",
		Tags:        []string{"Streaming"},
	}, h.StartStream)

	huma.Register(api, huma.Operation{
		OperationID: "stopStream",
		Method:      "POST",
		Path:        "/api/v1/cameras/{id}/stream/stop",
		Summary:     "Stop stream",
		Description: "Stops a camera's live stream and any concurrent recording.",
		Tags:        []string{"Streaming"},
	}, h.StopStream)
}

// StartStreamInput is the input for starting a stream.
type StartStreamInput struct {
	ID uint `path:"id" doc:"Camera ID"`
}

// StartStreamOutput is the output for starting a stream.
type StartStreamOutput struct {
	Body struct {
		StreamURL string `json:"streamUrl"`
	}
}

// StartStream starts a camera's live HLS stream.
func (h *StreamHandler) StartStream(ctx context.Context, input *StartStreamInput) (*StartStreamOutput, error) {
	url, err := h.svc.StartStream(ctx, input.ID)
	if err != nil {
		return nil, mapServiceError("starting stream", err)
	}
	resp := &StartStreamOutput{}
	resp.Body.StreamURL = url
	return resp, nil
}

// StopStreamInput is the input for stopping a stream.
type StopStreamInput struct {
	ID uint `path:"id" doc:"Camera ID"`
}

// StopStreamOutput is the output for stopping a stream.
type StopStreamOutput struct {
	Body struct {
		Success bool `json:"success"`
	}
}

// StopStream stops a camera's live stream.
func (h *StreamHandler) StopStream(ctx context.Context, input *StopStreamInput) (*StopStreamOutput, error) {
	if err := h.svc.StopStream(ctx, input.ID); err != nil {
		return nil, mapServiceError("stopping stream", err)
	}
	resp := &StopStreamOutput{}
	resp.Body.Success = true
	return resp, nil
}
