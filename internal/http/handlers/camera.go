package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jmylchreest/camerad/internal/models"
	"github.com/jmylchreest/camerad/internal/service"
)

// CameraHandler handles camera CRUD and discovery endpoints.
type CameraHandler struct {
	svc *service.Service
}

// NewCameraHandler creates a new camera handler.
func NewCameraHandler(svc *service.Service) *CameraHandler {
	return &CameraHandler{svc: svc}
}

// Register registers the camera routes with the API.
func (h *CameraHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "getCameras",
		Method:      "GET",
		Path:        "/api/v1/cameras",
		Summary:     "List cameras",
		Description: "Returns every registered camera.",
		Tags:        []string{"Cameras"},
	}, h.GetCameras)

	huma.Register(api, huma.Operation{
		OperationID: "addCamera",
		Method:      "POST",
		Path:        "/api/v1/cameras",
		Summary:     "Add camera",
		Description: "Registers a new camera.",
		Tags:        []string{"Cameras"},
	}, h.AddCamera)

	huma.Register(api, huma.Operation{
		OperationID: "deleteCamera",
		Method:      "DELETE",
		Path:        "/api/v1/cameras/{id}",
		Summary:     "Delete camera",
		Description: "Removes a camera. Does not stop any live stream or recording for it.",
		Tags:        []string{"Cameras"},
	}, h.DeleteCamera)

	huma.Register(api, huma.Operation{
		OperationID: "discoverCameras",
		Method:      "POST",
		Path:        "/api/v1/cameras/discover",
		Summary:     "Discover cameras",
		Description: "Runs best-effort ONVIF WS-Discovery and local UVC enumeration.",
		Tags:        []string{"Cameras"},
	}, h.DiscoverCameras)
}

// GetCamerasInput is the input for listing cameras.
type GetCamerasInput struct{}

// GetCamerasOutput is the output for listing cameras.
type GetCamerasOutput struct {
	Body struct {
		Cameras []*models.Camera `json:"cameras"`
	}
}

// GetCameras returns every registered camera.
func (h *CameraHandler) GetCameras(ctx context.Context, input *GetCamerasInput) (*GetCamerasOutput, error) {
	cameras, err := h.svc.GetCameras(ctx)
	if err != nil {
		return nil, mapServiceError("listing cameras", err)
	}
	resp := &GetCamerasOutput{}
	resp.Body.Cameras = cameras
	return resp, nil
}

// AddCameraInput is the input for adding a camera.
type AddCameraInput struct {
	Body models.NewCamera
}

// AddCameraOutput is the output for adding a camera.
type AddCameraOutput struct {
	Body *models.Camera
}

// AddCamera registers a new camera.
func (h *CameraHandler) AddCamera(ctx context.Context, input *AddCameraInput) (*AddCameraOutput, error) {
	camera, err := h.svc.AddCamera(ctx, &input.Body)
	if err != nil {
		return nil, mapServiceError("adding camera", err)
	}
	return &AddCameraOutput{Body: camera}, nil
}

// DeleteCameraInput is the input for deleting a camera.
type DeleteCameraInput struct {
	ID uint `path:"id" doc:"Camera ID"`
}

// DeleteCameraOutput is the output for deleting a camera.
type DeleteCameraOutput struct{}

// DeleteCamera removes a camera.
func (h *CameraHandler) DeleteCamera(ctx context.Context, input *DeleteCameraInput) (*DeleteCameraOutput, error) {
	if err := h.svc.DeleteCamera(ctx, input.ID); err != nil {
		return nil, mapServiceError("deleting camera", err)
	}
	return &DeleteCameraOutput{}, nil
}

// DiscoverCamerasInput is the input for camera discovery.
type DiscoverCamerasInput struct{}

// DiscoverCamerasOutput is the output for camera discovery.
type DiscoverCamerasOutput struct {
	Body struct {
		Cameras []*models.NewCamera `json:"cameras"`
	}
}

// DiscoverCameras runs best-effort discovery across every registered plugin.
func (h *CameraHandler) DiscoverCameras(ctx context.Context, input *DiscoverCamerasInput) (*DiscoverCamerasOutput, error) {
	resp := &DiscoverCamerasOutput{}
	resp.Body.Cameras = h.svc.DiscoverCameras(ctx)
	return resp, nil
}
