package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"hybridrag/internal/ingest"
	"hybridrag/internal/service"
)

const (
	maxBodyBytes   = 8 << 20
	maxUploadBytes = 32 << 20
)

// Handler implements the retrieval API endpoints.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// NewHandler creates a Handler over svc.
func NewHandler(svc *service.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger.With("component", "http-handler")}
}

type indexRequest struct {
	Documents []string `json:"documents"`
}

type queryRequest struct {
	Query string `json:"query"`
	TopK  *int   `json:"top_k"`
}

// Index appends the posted documents to the corpus.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Documents == nil {
		h.writeError(w, http.StatusBadRequest, "documents is required")
		return
	}
	report := h.svc.IngestTexts(r.Context(), req.Documents)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"count":             report.Documents,
		"total":             report.Total,
		"semantic_fallback": report.SemanticFallback,
	})
}

// Query ranks the corpus against the posted query.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !h.decode(w, r, &req) {
		return
	}
	topK := h.svc.DefaultTopK()
	if req.TopK != nil {
		topK = *req.TopK
	}
	h.writeJSON(w, http.StatusOK, h.svc.Query(r.Context(), req.Query, topK))
}

// Upload indexes the text of multipart files sent in the "files" field.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		h.writeError(w, http.StatusBadRequest, "no files uploaded")
		return
	}
	uploads := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			h.logger.Error("upload_processing_failed", "file", fh.Filename, "error", err)
			h.writeError(w, http.StatusInternalServerError, "failed to process uploaded files")
			return
		}
		uploads = append(uploads, service.Upload{Name: fh.Filename, Data: data})
	}

	report, err := h.svc.IngestUploads(r.Context(), uploads)
	switch {
	case errors.Is(err, ingest.ErrUnsupportedType), errors.Is(err, service.ErrNoContent), errors.Is(err, ingest.ErrNoFiles):
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.logger.Error("upload_processing_failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to process uploaded files")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"files": report.Files, "documents": report.Documents})
}

// Feedback records a relevance judgement.
func (h *Handler) Feedback(w http.ResponseWriter, r *http.Request) {
	var fb service.Feedback
	if !h.decode(w, r, &fb) {
		return
	}
	h.svc.RecordFeedback(r.Context(), fb)
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

// Health reports liveness and corpus state.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	stats := h.svc.Stats()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"documents":        stats.Documents,
		"ready":            stats.Ready,
		"semantic_enabled": stats.SemanticEnabled,
	})
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
