package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dailyroster/rosterd/internal/api/middleware"
	"github.com/dailyroster/rosterd/internal/api/request"
	"github.com/dailyroster/rosterd/internal/api/response"
	"github.com/dailyroster/rosterd/internal/model"
	"github.com/dailyroster/rosterd/internal/services/roster"
)

// RosterHandler handles roster management endpoints
type RosterHandler struct {
	rosterService *roster.Service
}

// NewRosterHandler creates a new roster handler
func NewRosterHandler(rosterService *roster.Service) *RosterHandler {
	return &RosterHandler{
		rosterService: rosterService,
	}
}

// Get handles GET /api/v1/roster
func (h *RosterHandler) Get(w http.ResponseWriter, r *http.Request) {
	players, err := h.rosterService.ListPlayers(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	hosts, err := h.rosterService.ListHosts(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := response.RosterResponse{
		Players: make([]response.PlayerResponse, 0, len(players)),
		Hosts:   make([]response.HostResponse, 0, len(hosts)),
	}
	for _, p := range players {
		resp.Players = append(resp.Players, response.PlayerResponseFrom(p))
	}
	for _, host := range hosts {
		resp.Hosts = append(resp.Hosts, response.HostResponseFrom(host))
	}

	response.JSON(w, http.StatusOK, resp)
}

// AddPlayer handles POST /api/v1/roster/players
func (h *RosterHandler) AddPlayer(w http.ResponseWriter, r *http.Request) {
	var req request.AddPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		WriteError(w, NewInvalidRequestError("name, email and password are required"))
		return
	}

	session := middleware.MustGetSession(r.Context())
	player, err := h.rosterService.AddPlayer(r.Context(), session, req.Name, req.Email, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.PlayerResponseFrom(player))
}

// RemovePlayer handles DELETE /api/v1/roster/players/{email}
func (h *RosterHandler) RemovePlayer(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	if err := h.rosterService.RemovePlayer(r.Context(), session, mux.Vars(r)["email"]); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// PromoteHost handles POST /api/v1/roster/hosts
func (h *RosterHandler) PromoteHost(w http.ResponseWriter, r *http.Request) {
	var req request.PromoteHostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		WriteError(w, NewInvalidRequestError("email and password are required"))
		return
	}

	session := middleware.MustGetSession(r.Context())
	host, err := h.rosterService.PromoteToHost(r.Context(), session, req.Email, model.Role(req.Role), req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.HostResponseFrom(host))
}

// RemoveHost handles DELETE /api/v1/roster/hosts/{email}
func (h *RosterHandler) RemoveHost(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	if err := h.rosterService.RemoveHost(r.Context(), session, mux.Vars(r)["email"]); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}
