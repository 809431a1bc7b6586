package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/jmylchreest/camerad/internal/config"
)

// StaticHandler serves HLS segments and finished recordings straight off
// disk. The actual request handling is done by raw Chi handlers
// (RegisterChiRoutes); the Huma operations registered here exist only so
// the routes appear in the OpenAPI spec.
type StaticHandler struct {
	streamFS    http.Handler
	recordingFS http.Handler
}

// NewStaticHandler creates a new static file handler over the configured
// stream and recording directories.
func NewStaticHandler(storage config.StorageConfig) *StaticHandler {
	return &StaticHandler{
		streamFS:    http.FileServer(http.Dir(storage.StreamPath())),
		recordingFS: http.FileServer(http.Dir(storage.RecordingPath())),
	}
}

// StreamSegmentInput is the input for the documentation-only stream segment operation.
type StreamSegmentInput struct {
	CameraID string `path:"camera_id"`
	File     string `path:"file"`
}

// RecordingFileInput is the input for the documentation-only recording file operation.
type RecordingFileInput struct {
	File string `path:"file"`
}

// Register registers documentation-only Huma operations for the streaming
// and recording file routes. This handler should never actually run these
// because Chi serves the routes directly via RegisterChiRoutes.
func (h *StaticHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "getStreamSegment",
		Method:      "GET",
		Path:        "/streams/{camera_id}/{file}",
		Summary:     "Fetch HLS playlist or segment",
		Description: "Served directly from disk by a raw Chi handler; documented here for discoverability only.",
		Tags:        []string{"Streaming"},
	}, h.streamDocsHandler)

	huma.Register(api, huma.Operation{
		OperationID: "getRecordingFile",
		Method:      "GET",
		Path:        "/recordings/{file}",
		Summary:     "Fetch a finished recording or thumbnail",
		Description: "Served directly from disk by a raw Chi handler; documented here for discoverability only.",
		Tags:        []string{"Recordings"},
	}, h.recordingDocsHandler)
}

func (h *StaticHandler) streamDocsHandler(ctx context.Context, input *StreamSegmentInput) (*huma.StreamResponse, error) {
	return nil, huma.Error500InternalServerError("this endpoint is handled by a raw Chi handler")
}

func (h *StaticHandler) recordingDocsHandler(ctx context.Context, input *RecordingFileInput) (*huma.StreamResponse, error) {
	return nil, huma.Error500InternalServerError("this endpoint is handled by a raw Chi handler")
}

// RegisterChiRoutes registers the streaming and recording file routes as
// raw Chi handlers so CORS headers can be set before the body is written.
func (h *StaticHandler) RegisterChiRoutes(router chi.Router) {
	router.Get("/streams/*", h.serveStreams)
	router.Get("/recordings/*", h.serveRecordings)
}

func (h *StaticHandler) serveStreams(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	http.StripPrefix("/streams/", h.streamFS).ServeHTTP(w, r)
}

func (h *StaticHandler) serveRecordings(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	http.StripPrefix("/recordings/", h.recordingFS).ServeHTTP(w, r)
}

// setCORSHeaders sets the permissive CORS headers the external interface
// contract requires for the file server.
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Range")
	w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
}
