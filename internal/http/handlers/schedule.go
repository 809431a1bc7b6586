package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jmylchreest/camerad/internal/models"
	"github.com/jmylchreest/camerad/internal/service"
)

// ScheduleHandler handles recording schedule CRUD and toggle endpoints.
type ScheduleHandler struct {
	svc *service.Service
}

// NewScheduleHandler creates a new recording schedule handler.
func NewScheduleHandler(svc *service.Service) *ScheduleHandler {
	return &ScheduleHandler{svc: svc}
}

// Register registers the recording schedule routes with the API.
func (h *ScheduleHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "getRecordingSchedules",
		Method:      "GET",
		Path:        "/api/v1/schedules",
		Summary:     "List recording schedules",
		Tags:        []string{"Recording Schedules"},
	}, h.GetRecordingSchedules)

	huma.Register(api, huma.Operation{
		OperationID: "addRecordingSchedule",
		Method:      "POST",
		Path:        "/api/v1/schedules",
		Summary:     "Add recording schedule",
		Description: "Accepts a 5-field or 6-field cron expression; it is canonicalized to 6 fields before being stored.",
		Tags:        []string{"Recording Schedules"},
	}, h.AddRecordingSchedule)

	huma.Register(api, huma.Operation{
		OperationID: "updateRecordingSchedule",
		Method:      "PATCH",
		Path:        "/api/v1/schedules/{id}",
		Summary:     "Update recording schedule",
		Tags:        []string{"Recording Schedules"},
	}, h.UpdateRecordingSchedule)

	huma.Register(api, huma.Operation{
		OperationID: "deleteRecordingSchedule",
		Method:      "DELETE",
		Path:        "/api/v1/schedules/{id}",
		Summary:     "Delete recording schedule",
		Tags:        []string{"Recording Schedules"},
	}, h.DeleteRecordingSchedule)

	huma.Register(api, huma.Operation{
		OperationID: "toggleRecordingSchedule",
		Method:      "POST",
		Path:        "/api/v1/schedules/{id}/toggle",
		Summary:     "Toggle recording schedule",
		Tags:        []string{"Recording Schedules"},
	}, h.ToggleSchedule)
}

// GetRecordingSchedulesInput is the input for listing recording schedules.
type GetRecordingSchedulesInput struct{}

// GetRecordingSchedulesOutput is the output for listing recording schedules.
type GetRecordingSchedulesOutput struct {
	Body struct {
		Schedules []*models.RecordingSchedule `json:"schedules"`
	}
}

// GetRecordingSchedules returns every recording schedule.
func (h *ScheduleHandler) GetRecordingSchedules(ctx context.Context, input *GetRecordingSchedulesInput) (*GetRecordingSchedulesOutput, error) {
	schedules, err := h.svc.GetRecordingSchedules(ctx)
	if err != nil {
		return nil, mapServiceError("listing recording schedules", err)
	}
	resp := &GetRecordingSchedulesOutput{}
	resp.Body.Schedules = schedules
	return resp, nil
}

// AddRecordingScheduleInput is the input for adding a recording schedule.
type AddRecordingScheduleInput struct {
	Body models.NewRecordingSchedule
}

// AddRecordingScheduleOutput is the output for adding a recording schedule.
type AddRecordingScheduleOutput struct {
	Body *models.RecordingSchedule
}

// AddRecordingSchedule creates a new recording schedule and arms it if enabled.
func (h *ScheduleHandler) AddRecordingSchedule(ctx context.Context, input *AddRecordingScheduleInput) (*AddRecordingScheduleOutput, error) {
	sched, err := h.svc.AddRecordingSchedule(ctx, &input.Body)
	if err != nil {
		return nil, mapServiceError("adding recording schedule", err)
	}
	return &AddRecordingScheduleOutput{Body: sched}, nil
}

// UpdateRecordingScheduleInput is the input for updating a recording schedule.
type UpdateRecordingScheduleInput struct {
	ID   uint `path:"id" doc:"Schedule ID"`
	Body models.RecordingSchedulePatch
}

// UpdateRecordingScheduleOutput is the output for updating a recording schedule.
type UpdateRecordingScheduleOutput struct {
	Body *models.RecordingSchedule
}

// UpdateRecordingSchedule applies a partial update and re-arms the schedule.
func (h *ScheduleHandler) UpdateRecordingSchedule(ctx context.Context, input *UpdateRecordingScheduleInput) (*UpdateRecordingScheduleOutput, error) {
	sched, err := h.svc.UpdateRecordingSchedule(ctx, input.ID, &input.Body)
	if err != nil {
		return nil, mapServiceError("updating recording schedule", err)
	}
	return &UpdateRecordingScheduleOutput{Body: sched}, nil
}

// DeleteRecordingScheduleInput is the input for deleting a recording schedule.
type DeleteRecordingScheduleInput struct {
	ID uint `path:"id" doc:"Schedule ID"`
}

// DeleteRecordingScheduleOutput is the output for deleting a recording schedule.
type DeleteRecordingScheduleOutput struct{}

// DeleteRecordingSchedule removes a recording schedule and disarms it.
func (h *ScheduleHandler) DeleteRecordingSchedule(ctx context.Context, input *DeleteRecordingScheduleInput) (*DeleteRecordingScheduleOutput, error) {
	if err := h.svc.DeleteRecordingSchedule(ctx, input.ID); err != nil {
		return nil, mapServiceError("deleting recording schedule", err)
	}
	return &DeleteRecordingScheduleOutput{}, nil
}

// ToggleScheduleInput is the input for toggling a recording schedule.
type ToggleScheduleInput struct {
	ID   uint `path:"id" doc:"Schedule ID"`
	Body struct {
		Enabled bool `json:"enabled"`
	}
}

// ToggleScheduleOutput is the output for toggling a recording schedule.
type ToggleScheduleOutput struct {
	Body *models.RecordingSchedule
}

// ToggleSchedule enables or disables a recording schedule.
func (h *ScheduleHandler) ToggleSchedule(ctx context.Context, input *ToggleScheduleInput) (*ToggleScheduleOutput, error) {
	sched, err := h.svc.ToggleSchedule(ctx, input.ID, input.Body.Enabled)
	if err != nil {
		return nil, mapServiceError("toggling recording schedule", err)
	}
	return &ToggleScheduleOutput{Body: sched}, nil
}
