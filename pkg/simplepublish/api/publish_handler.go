package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/simple-publish/pkg/simplepublish"
)

// Staged uploads are capped well below provider limits so an oversized
// file fails at the edge, not mid-pipeline.
const maxAssetBytes = 100 << 20 // 100 MB

// PublishHandler handles document publication API endpoints using pkg/simplepublish
type PublishHandler struct {
	service simplepublish.Service
	assets  simplepublish.AssetStore
}

func NewPublishHandler(service simplepublish.Service, assets simplepublish.AssetStore) *PublishHandler {
	return &PublishHandler{
		service: service,
		assets:  assets,
	}
}

// Routes returns the router for publication endpoints
func (h *PublishHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/assets", h.StageAsset)
	r.Post("/documents/publish", h.PublishDocument)
	r.Post("/documents/drafts", h.SaveDraft)
	r.Post("/documents/validate", h.ValidateDocument)
	r.Get("/documents/{document_id}", h.GetDocument)
	return r
}

// StageAssetResponse represents the response after staging a blob
type StageAssetResponse struct {
	LocalID string `json:"local_id"`
}

// PublishResponse represents the response after a pipeline run
type PublishResponse struct {
	Document *simplepublish.ContentDocument `json:"document"`
	Progress []ProgressEvent                `json:"progress"`
}

// ProgressEvent is one progress report captured during a run
type ProgressEvent struct {
	Percent int    `json:"percent"`
	Message string `json:"message"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
}

// ErrorResponse carries the classified failure back to the editor UI
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// StageAsset stages one uploaded blob and returns its local reference key
func (h *PublishHandler) StageAsset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAssetBytes); err != nil {
		slog.Error("Failed to parse multipart form", "error", err)
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Missing file field", "error", err)
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAssetBytes))
	if err != nil {
		slog.Error("Failed to read upload", "error", err)
		http.Error(w, "failed to read upload", http.StatusBadRequest)
		return
	}

	localID, err := h.assets.Put(r.Context(), simplepublish.Blob{
		Data:     data,
		MimeType: header.Header.Get("Content-Type"),
		FileName: header.Filename,
	})
	if err != nil {
		slog.Error("Failed to stage asset", "error", err)
		http.Error(w, "failed to stage asset", http.StatusInternalServerError)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, StageAssetResponse{LocalID: localID})
}

// PublishDocument runs the full publication pipeline
func (h *PublishHandler) PublishDocument(w http.ResponseWriter, r *http.Request) {
	h.runPipeline(w, r, h.service.Publish)
}

// SaveDraft resolves assets and persists without publication work
func (h *PublishHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	h.runPipeline(w, r, h.service.SaveDraft)
}

type pipelineRun func(ctx context.Context, doc *simplepublish.ContentDocument, onProgress simplepublish.ProgressFunc) (*simplepublish.ContentDocument, error)

func (h *PublishHandler) runPipeline(w http.ResponseWriter, r *http.Request, run pipelineRun) {
	var doc simplepublish.ContentDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		slog.Error("Failed to decode request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var events []ProgressEvent
	stored, err := run(r.Context(), &doc, func(percent int, message string, current, total int) {
		events = append(events, ProgressEvent{
			Percent: percent,
			Message: message,
			Current: current,
			Total:   total,
		})
	})
	if err != nil {
		slog.Error("Pipeline run failed", "document_id", doc.ID, "error", err)
		render.Status(r, statusForError(err))
		render.JSON(w, r, ErrorResponse{
			Error:   err.Error(),
			Message: simplepublish.UserMessage(err),
		})
		return
	}

	render.JSON(w, r, PublishResponse{Document: stored, Progress: events})
}

// statusForError maps a pipeline failure onto an HTTP status.
func statusForError(err error) int {
	var verr *simplepublish.ValidationError
	if errors.As(err, &verr) {
		return http.StatusUnprocessableEntity
	}

	var perr *simplepublish.ProviderError
	if errors.As(err, &perr) {
		switch perr.Kind {
		case simplepublish.ProviderErrorAuth:
			return http.StatusBadGateway
		case simplepublish.ProviderErrorQuota:
			return http.StatusRequestEntityTooLarge
		case simplepublish.ProviderErrorNetwork:
			return http.StatusGatewayTimeout
		}
	}

	return http.StatusInternalServerError
}

// GetDocument fetches a stored document
func (h *PublishHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "document_id"))
	if err != nil {
		slog.Error("Invalid document ID", "error", err)
		http.Error(w, "invalid document ID", http.StatusBadRequest)
		return
	}

	doc, err := h.service.GetDocument(r.Context(), id)
	if err != nil {
		if errors.Is(err, simplepublish.ErrDocumentNotFound) {
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to get document", "document_id", id, "error", err)
		http.Error(w, "failed to get document", http.StatusInternalServerError)
		return
	}

	render.JSON(w, r, doc)
}

// ValidateDocument checks publication completeness without persisting
func (h *PublishHandler) ValidateDocument(w http.ResponseWriter, r *http.Request) {
	var doc simplepublish.ContentDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		slog.Error("Failed to decode request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.ValidateDocument(&doc); err != nil {
		var verr *simplepublish.ValidationError
		if errors.As(err, &verr) {
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, map[string]any{"valid": false, "issues": verr.Issues})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	render.JSON(w, r, map[string]any{"valid": true})
}
