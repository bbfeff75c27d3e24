package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/paginator"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
)

const maxBodyBytes = 2 << 20

type Handler struct {
	engine        *indexer.Engine
	defaultStatus index.Status
	pageSize      int
	maxBatch      int
	logger        *slog.Logger
}

// SearchResponse is the body of GET /api/v1/search. Page and TotalPages are
// set only when a page was requested.
type SearchResponse struct {
	*indexer.SearchResult
	Page       int `json:"page,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
}

type MatchResponse struct {
	DocumentID int          `json:"document_id"`
	Words      []string     `json:"words"`
	Status     index.Status `json:"status"`
}

type FrequenciesResponse struct {
	DocumentID  int                `json:"document_id"`
	Frequencies map[string]float64 `json:"frequencies"`
}

type RemoveResponse struct {
	DocumentID int  `json:"document_id"`
	Removed    bool `json:"removed"`
}

type BatchRequest struct {
	Queries []string `json:"queries"`
	Joined  bool     `json:"joined"`
}

type BatchResponse struct {
	Results [][]ranker.ScoredDoc `json:"results,omitempty"`
	Joined  []ranker.ScoredDoc   `json:"joined,omitempty"`
}

type DedupResponse struct {
	Removed []int `json:"removed"`
}

func New(engine *indexer.Engine, defaultStatus index.Status, pageSize, maxBatch int) *Handler {
	return &Handler{
		engine:        engine,
		defaultStatus: defaultStatus,
		pageSize:      pageSize,
		maxBatch:      maxBatch,
		logger:        slog.Default().With("component", "search-handler"),
	}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/documents/{id}/match", h.Match)
	mux.HandleFunc("GET /api/v1/documents/{id}/frequencies", h.Frequencies)
	mux.HandleFunc("POST /api/v1/documents", h.AddDocument)
	mux.HandleFunc("DELETE /api/v1/documents/{id}", h.RemoveDocument)
	mux.HandleFunc("POST /api/v1/batch", h.Batch)
	mux.HandleFunc("POST /api/v1/dedup", h.Dedup)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := r.URL.Query()

	status := h.defaultStatus
	if s := params.Get("status"); s != "" {
		parsed, err := index.ParseStatus(s)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		status = parsed
	}
	parallel, err := boolParam(r, "parallel")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.engine.Search(ctx, params.Get("q"), status, parallel)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := SearchResponse{SearchResult: result}

	if p := params.Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			h.writeError(w, r, apperrors.InvalidInput("page must be a positive integer"))
			return
		}
		pages := paginator.Paginate(result.Results, h.pageSize)
		page, ok := paginator.Page(result.Results, h.pageSize, n-1)
		if len(pages) == 0 && n == 1 {
			page, ok = result.Results, true
		}
		if !ok {
			h.writeError(w, r, apperrors.OutOfRange(n, len(pages)))
			return
		}
		copied := *result
		copied.Results = page
		resp = SearchResponse{SearchResult: &copied, Page: n, TotalPages: len(pages)}
	}

	logger.FromContext(ctx).Info("search completed",
		"query", result.Query,
		"status", status.String(),
		"returned", len(result.Results),
		"cache_hit", result.CacheHit,
	)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Match(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	parallel, err := boolParam(r, "parallel")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	words, status, err := h.engine.Match(r.URL.Query().Get("q"), id, parallel)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, MatchResponse{DocumentID: id, Words: words, Status: status})
}

func (h *Handler) Frequencies(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, FrequenciesResponse{
		DocumentID:  id,
		Frequencies: h.engine.WordFrequencies(id),
	})
}

func (h *Handler) AddDocument(w http.ResponseWriter, r *http.Request) {
	var req ingestion.DocumentRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := validator.ValidateDocumentRequest(&req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.engine.AddDocument(r.Context(), *req.ID, req.Text, req.Status, req.Ratings, indexer.SourceHTTP); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, ingestion.DocumentResponse{
		DocumentID: *req.ID,
		Status:     "indexed",
	})
}

func (h *Handler) RemoveDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	parallel, err := boolParam(r, "parallel")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	removed := h.engine.RemoveDocument(r.Context(), id, parallel, indexer.SourceHTTP)
	h.writeJSON(w, http.StatusOK, RemoveResponse{DocumentID: id, Removed: removed})
}

func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if h.maxBatch > 0 && len(req.Queries) > h.maxBatch {
		h.writeError(w, r, apperrors.InvalidInput("at most %d queries per batch", h.maxBatch))
		return
	}

	ctx := r.Context()
	if req.Joined {
		joined, err := h.engine.ProcessQueriesJoined(ctx, req.Queries)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusOK, BatchResponse{Joined: joined})
		return
	}
	results, err := h.engine.ProcessQueries(ctx, req.Queries)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, BatchResponse{Results: results})
}

func (h *Handler) Dedup(w http.ResponseWriter, r *http.Request) {
	removed := h.engine.RemoveDuplicates(r.Context())
	if removed == nil {
		removed = []int{}
	}
	h.writeJSON(w, http.StatusOK, DedupResponse{Removed: removed})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.engine.Stats())
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding request body: %w: %v", apperrors.ErrInvalidInput, err)
	}
	return nil
}

func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		return 0, apperrors.InvalidInput("document id %q is not an integer", r.PathValue("id"))
	}
	return id, nil
}

func boolParam(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, apperrors.InvalidInput("%s must be a boolean, got %q", name, v)
	}
	return b, nil
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
	if kind := apperrors.KindOf(err); kind != apperrors.KindUnknown {
		body["kind"] = kind.String()
	}
	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		body["fields"] = verr.Fields
	}
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
	}
	h.writeJSON(w, status, body)
}
