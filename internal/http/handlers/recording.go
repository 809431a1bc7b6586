package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jmylchreest/camerad/internal/models"
	"github.com/jmylchreest/camerad/internal/service"
)

// RecordingHandler handles recording lifecycle and listing endpoints.
type RecordingHandler struct {
	svc *service.Service
}

// NewRecordingHandler creates a new recording handler.
func NewRecordingHandler(svc *service.Service) *RecordingHandler {
	return &RecordingHandler{svc: svc}
}

// Register registers the recording routes with the API.
func (h *RecordingHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "startRecording",
		Method:      "POST",
		Path:        "/api/v1/cameras/{id}/recording/start",
		Summary:     "Start recording",
		Description: "Starts a recording for a camera. Fails fast if one is already in progress.",
		Tags:        []string{"Recordings"},
	}, h.StartRecording)

	huma.Register(api, huma.Operation{
		OperationID: "stopRecording",
		Method:      "POST",
		Path:        "/api/v1/cameras/{id}/recording/stop",
		Summary:     "Stop recording",
		Description: "Stops a camera's in-progress recording and finalizes it.",
		Tags:        []string{"Recordings"},
	}, h.StopRecording)

	huma.Register(api, huma.Operation{
		OperationID: "getRecordings",
		Method:      "GET",
		Path:        "/api/v1/recordings",
		Summary:     "List recordings",
		Description: "Returns every recording row, including in-flight ones.",
		Tags:        []string{"Recordings"},
	}, h.GetRecordings)

	huma.Register(api, huma.Operation{
		OperationID: "deleteRecording",
		Method:      "DELETE",
		Path:        "/api/v1/recordings/{id}",
		Summary:     "Delete recording",
		Description: "Deletes a recording row.",
		Tags:        []string{"Recordings"},
	}, h.DeleteRecording)

	huma.Register(api, huma.Operation{
		OperationID: "getRecordingCameras",
		Method:      "GET",
		Path:        "/api/v1/recordings/active-cameras",
		Summary:     "List actively-recording cameras",
		Description: "Returns the camera ids with a recording currently in progress.",
		Tags:        []string{"Recordings"},
	}, h.GetRecordingCameras)
}

// StartRecordingInput is the input for starting a recording.
type StartRecordingInput struct {
	ID   uint `path:"id" doc:"Camera ID"`
	Body struct {
		TargetFPS *int `json:"target_fps,omitempty"`
	}
}

// StartRecordingOutput is the output for starting a recording.
type StartRecordingOutput struct{}

// StartRecording starts a camera recording.
func (h *RecordingHandler) StartRecording(ctx context.Context, input *StartRecordingInput) (*StartRecordingOutput, error) {
	if err := h.svc.StartRecording(ctx, input.ID, input.Body.TargetFPS); err != nil {
		return nil, mapServiceError("starting recording", err)
	}
	return &StartRecordingOutput{}, nil
}

// StopRecordingInput is the input for stopping a recording.
type StopRecordingInput struct {
	ID uint `path:"id" doc:"Camera ID"`
}

// StopRecordingOutput is the output for stopping a recording.
type StopRecordingOutput struct{}

// StopRecording stops a camera's in-progress recording.
func (h *RecordingHandler) StopRecording(ctx context.Context, input *StopRecordingInput) (*StopRecordingOutput, error) {
	if err := h.svc.StopRecording(ctx, input.ID); err != nil {
		return nil, mapServiceError("stopping recording", err)
	}
	return &StopRecordingOutput{}, nil
}

// GetRecordingsInput is the input for listing recordings.
type GetRecordingsInput struct{}

// GetRecordingsOutput is the output for listing recordings.
type GetRecordingsOutput struct {
	Body struct {
		Recordings []*models.Recording `json:"recordings"`
	}
}

// GetRecordings returns every recording row.
func (h *RecordingHandler) GetRecordings(ctx context.Context, input *GetRecordingsInput) (*GetRecordingsOutput, error) {
	recordings, err := h.svc.GetRecordings(ctx)
	if err != nil {
		return nil, mapServiceError("listing recordings", err)
	}
	resp := &GetRecordingsOutput{}
	resp.Body.Recordings = recordings
	return resp, nil
}

// DeleteRecordingInput is the input for deleting a recording.
type DeleteRecordingInput struct {
	ID uint `path:"id" doc:"Recording ID"`
}

// DeleteRecordingOutput is the output for deleting a recording.
type DeleteRecordingOutput struct{}

// DeleteRecording deletes a recording row.
func (h *RecordingHandler) DeleteRecording(ctx context.Context, input *DeleteRecordingInput) (*DeleteRecordingOutput, error) {
	if err := h.svc.DeleteRecording(ctx, input.ID); err != nil {
		return nil, mapServiceError("deleting recording", err)
	}
	return &DeleteRecordingOutput{}, nil
}

// GetRecordingCamerasInput is the input for listing actively-recording cameras.
type GetRecordingCamerasInput struct{}

// GetRecordingCamerasOutput is the output for listing actively-recording cameras.
type GetRecordingCamerasOutput struct {
	Body struct {
		CameraIDs []uint `json:"camera_ids"`
	}
}

// GetRecordingCameras returns the camera ids with an in-flight recording.
func (h *RecordingHandler) GetRecordingCameras(ctx context.Context, input *GetRecordingCamerasInput) (*GetRecordingCamerasOutput, error) {
	ids, err := h.svc.GetRecordingCameras(ctx)
	if err != nil {
		return nil, mapServiceError("listing actively-recording cameras", err)
	}
	resp := &GetRecordingCamerasOutput{}
	resp.Body.CameraIDs = ids
	return resp, nil
}
