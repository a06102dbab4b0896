package handler

import (
	"encoding/json"
	"net/http"

	"github.com/dailyroster/rosterd/internal/api/request"
	"github.com/dailyroster/rosterd/internal/api/response"
	"github.com/dailyroster/rosterd/internal/model"
	"github.com/dailyroster/rosterd/internal/scheduler"
)

// PhaseHandler exposes the manual phase re-run hook for operational
// recovery
type PhaseHandler struct {
	scheduler *scheduler.Scheduler
}

// NewPhaseHandler creates a new phase handler
func NewPhaseHandler(sched *scheduler.Scheduler) *PhaseHandler {
	return &PhaseHandler{
		scheduler: sched,
	}
}

// Run handles POST /api/v1/phases/run
func (h *PhaseHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req request.RunPhaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	date, err := model.ParseDate(req.Date)
	if err != nil {
		WriteError(w, NewInvalidRequestError("invalid date"))
		return
	}
	phase, err := scheduler.ParsePhase(req.Phase)
	if err != nil {
		WriteError(w, NewInvalidRequestError(err.Error()))
		return
	}

	if err := h.scheduler.RunPhase(r.Context(), date, phase); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{
		"date":  string(date),
		"phase": string(phase),
	})
}
