package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Strob0t/professor/internal/domain"
	"github.com/Strob0t/professor/internal/domain/research"
	"github.com/Strob0t/professor/internal/service"
)

// Handlers holds the research task API handlers.
type Handlers struct {
	Research *service.ResearchService
}

type startRequest struct {
	Topic          *string `json:"topic"`
	ResponseStyle  string  `json:"response_style"`
	IncludeSources *bool   `json:"include_sources"`
}

type startResponse struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type notReadyResponse struct {
	Error    string          `json:"error"`
	Status   research.Status `json:"status"`
	Progress int             `json:"progress"`
}

type resultResponse struct {
	TaskID         string            `json:"task_id"`
	Result         string            `json:"result"`
	Metadata       research.Metadata `json:"metadata"`
	Topic          string            `json:"topic"`
	ResponseStyle  research.Style    `json:"response_style"`
	IncludeSources bool              `json:"include_sources"`
}

type listResponse struct {
	ActiveTasks int                   `json:"active_tasks"`
	Tasks       []service.TaskSummary `json:"tasks"`
}

const msgTaskNotFound = "Task not found"

// StartResearch handles POST /api/research.
func (h *Handlers) StartResearch(w http.ResponseWriter, r *http.Request) {
	body, ok := readJSON[startRequest](w, r, maxRequestBodySize)
	if !ok {
		return
	}
	if body.Topic == nil {
		writeError(w, http.StatusBadRequest, "Topic is required")
		return
	}
	if strings.TrimSpace(*body.Topic) == "" {
		writeError(w, http.StatusBadRequest, "Topic cannot be empty")
		return
	}

	req := research.Request{
		Topic:          *body.Topic,
		Style:          research.Style(body.ResponseStyle),
		IncludeSources: true,
	}
	if body.IncludeSources != nil {
		req.IncludeSources = *body.IncludeSources
	}

	t, err := h.Research.Start(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err, msgTaskNotFound)
		return
	}
	writeJSON(w, http.StatusOK, startResponse{
		TaskID:  t.ID(),
		Status:  "started",
		Message: "Research task started successfully",
	})
}

// GetStatus handles GET /api/research/{id}/status.
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Research.Status(urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err, msgTaskNotFound)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// GetResult handles GET /api/research/{id}/result.
func (h *Handlers) GetResult(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Research.Result(urlParam(r, "id"))
	if errors.Is(err, domain.ErrNotReady) {
		writeJSON(w, http.StatusAccepted, notReadyResponse{
			Error:    "Task not completed yet",
			Status:   snap.Status,
			Progress: snap.Progress,
		})
		return
	}
	if err != nil {
		writeDomainError(w, r, err, msgTaskNotFound)
		return
	}
	writeJSON(w, http.StatusOK, resultResponse{
		TaskID:         snap.TaskID,
		Result:         snap.Result,
		Metadata:       snap.Metadata,
		Topic:          snap.Topic,
		ResponseStyle:  snap.ResponseStyle,
		IncludeSources: snap.IncludeSources,
	})
}

// ListTasks handles GET /api/tasks.
func (h *Handlers) ListTasks(w http.ResponseWriter, _ *http.Request) {
	tasks := h.Research.List()
	writeJSON(w, http.StatusOK, listResponse{ActiveTasks: len(tasks), Tasks: tasks})
}

// Health handles GET /api/health.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Research.Health())
}
