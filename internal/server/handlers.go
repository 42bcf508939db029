package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/pairrank/pairrank/internal/apperr"
	"github.com/pairrank/pairrank/internal/model"
	"github.com/pairrank/pairrank/internal/registry"
	"github.com/pairrank/pairrank/internal/storage"
)

// Handlers holds the dependencies shared by every request handler.
// Handlers hold no state of their own: they validate the request, call
// through to the registry/list, and shape the response.
type Handlers struct {
	registry            *registry.Registry
	store               storage.Store
	logger              *slog.Logger
	version             string
	maxRequestBodyBytes int64
}

// HandlersDeps are the dependencies needed to build a Handlers.
type HandlersDeps struct {
	Registry            *registry.Registry
	Store               storage.Store // nil in ephemeral mode.
	Logger              *slog.Logger
	Version             string
	MaxRequestBodyBytes int64
}

// NewHandlers constructs the Handlers for a server.
func NewHandlers(deps HandlersDeps) *Handlers {
	return &Handlers{
		registry:            deps.Registry,
		store:               deps.Store,
		logger:              deps.Logger,
		version:             deps.Version,
		maxRequestBodyBytes: deps.MaxRequestBodyBytes,
	}
}

type listIDRequest struct {
	ListID string `json:"list_id"`
}

// HandleHealth answers GET /api/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := model.HealthStatus{
		Status:      "ok",
		DBConnected: false,
		MemoryMode:  h.store == nil,
	}
	if h.store != nil {
		status.DBConnected = h.store.Ping(r.Context()) == nil
	}
	writeJSON(w, http.StatusOK, status)
}

// HandleListTasks answers POST /api/tasks.
func (h *Handlers) HandleListTasks(w http.ResponseWriter, r *http.Request) {
	var req listIDRequest
	if err := decodeJSON(r, &req, h.maxRequestBodyBytes); err != nil {
		writeError(w, r, apperr.InvalidArgument("invalid request body: %v", err))
		return
	}

	list, err := h.registry.Get(req.ListID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, list.ListTasks())
}

type deleteTaskRequest struct {
	ListID  string `json:"list_id"`
	Content string `json:"content"`
}

// HandleDeleteTask answers POST /api/tasks/delete.
func (h *Handlers) HandleDeleteTask(w http.ResponseWriter, r *http.Request) {
	var req deleteTaskRequest
	if err := decodeJSON(r, &req, h.maxRequestBodyBytes); err != nil {
		writeError(w, r, apperr.InvalidArgument("invalid request body: %v", err))
		return
	}

	list, err := h.registry.Get(req.ListID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := list.DeleteItem(r.Context(), req.Content); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, okResponse)
}

// HandleListComparisons answers POST /api/comparisons/content.
func (h *Handlers) HandleListComparisons(w http.ResponseWriter, r *http.Request) {
	var req listIDRequest
	if err := decodeJSON(r, &req, h.maxRequestBodyBytes); err != nil {
		writeError(w, r, apperr.InvalidArgument("invalid request body: %v", err))
		return
	}

	list, err := h.registry.Get(req.ListID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, comparisonsResponse{Comparisons: list.ListComparisons()})
}

type addComparisonRequest struct {
	ListID string `json:"list_id"`
	TaskA  string `json:"task_a_content"`
	TaskB  string `json:"task_b_content"`
	Winner string `json:"winner_content"`
}

// HandleAddComparison answers POST /api/comparisons/add.
func (h *Handlers) HandleAddComparison(w http.ResponseWriter, r *http.Request) {
	var req addComparisonRequest
	if err := decodeJSON(r, &req, h.maxRequestBodyBytes); err != nil {
		writeError(w, r, apperr.InvalidArgument("invalid request body: %v", err))
		return
	}

	list, err := h.registry.Get(req.ListID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if _, err := list.AddComparison(r.Context(), req.TaskA, req.TaskB, req.Winner); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, okResponse)
}

// HandleRankings answers POST /api/rankings.
func (h *Handlers) HandleRankings(w http.ResponseWriter, r *http.Request) {
	var req listIDRequest
	if err := decodeJSON(r, &req, h.maxRequestBodyBytes); err != nil {
		writeError(w, r, apperr.InvalidArgument("invalid request body: %v", err))
		return
	}

	list, err := h.registry.Get(req.ListID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, list.Rankings())
}

type comparisonsResponse struct {
	Comparisons []model.Comparison `json:"comparisons"`
}

type okResponseBody struct {
	OK bool `json:"ok"`
}

var okResponse = okResponseBody{OK: true}

// Ready reports whether the server's dependencies are available: always
// true in ephemeral mode, otherwise whether the store answers a ping.
// Not part of the wire contract.
func (h *Handlers) Ready(ctx context.Context) bool {
	if h.store == nil {
		return true
	}
	return h.store.Ping(ctx) == nil
}
