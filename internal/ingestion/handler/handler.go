// Package handler exposes asynchronous ingestion over HTTP: events are
// validated, published to the ingest topic and acknowledged with 202 before
// they reach the index.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
)

const maxBodyBytes = 2 << 20

// Publisher accepts a validated event. *publisher.Publisher satisfies it.
type Publisher interface {
	Publish(ctx context.Context, event *ingestion.IngestEvent) (*ingestion.IngestResponse, error)
}

type Handler struct {
	publisher Publisher
	logger    *slog.Logger
}

func New(pub Publisher) *Handler {
	return &Handler{
		publisher: pub,
		logger:    slog.Default().With("component", "ingestion-handler"),
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/ingest", h.Ingest)
}

func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var event ingestion.IngestEvent
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		h.writeError(w, r, fmt.Errorf("decoding ingest event: %w: %v", apperrors.ErrInvalidInput, err))
		return
	}
	if err := validator.ValidateIngestEvent(&event); err != nil {
		h.writeError(w, r, err)
		return
	}

	resp, err := h.publisher.Publish(ctx, &event)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	log.Info("ingest event accepted", "doc_id", resp.DocumentID, "op", resp.Op)
	h.writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	body := map[string]any{"error": err.Error()}
	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		body["fields"] = verr.Fields
	}
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("ingestion failed", "error", err)
		body["error"] = "ingestion failed"
	}
	h.writeJSON(w, status, body)
}
