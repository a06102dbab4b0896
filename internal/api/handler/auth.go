package handler

import (
	"encoding/json"
	"net/http"

	"github.com/dailyroster/rosterd/internal/api/middleware"
	"github.com/dailyroster/rosterd/internal/api/request"
	"github.com/dailyroster/rosterd/internal/api/response"
	"github.com/dailyroster/rosterd/internal/services/auth"
)

// AuthHandler handles login and logout
type AuthHandler struct {
	authService *auth.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// LoginPlayer handles POST /api/v1/auth/player/login
func (h *AuthHandler) LoginPlayer(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		WriteError(w, NewInvalidRequestError("email and password are required"))
		return
	}

	session, err := h.authService.LoginPlayer(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionResponseFrom(session))
}

// LoginHost handles POST /api/v1/auth/host/login
func (h *AuthHandler) LoginHost(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		WriteError(w, NewInvalidRequestError("email and password are required"))
		return
	}

	session, err := h.authService.LoginHost(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionResponseFrom(session))
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	h.authService.Logout(session.Token)
	response.NoContent(w)
}
