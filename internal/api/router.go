package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dailyroster/rosterd/internal/api/handler"
	"github.com/dailyroster/rosterd/internal/api/middleware"
	"github.com/dailyroster/rosterd/internal/scheduler"
	"github.com/dailyroster/rosterd/internal/services/attendance"
	"github.com/dailyroster/rosterd/internal/services/auth"
	"github.com/dailyroster/rosterd/internal/services/roster"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger            *slog.Logger
	AuthService       *auth.Service
	RosterService     *roster.Service
	AttendanceService *attendance.Service
	Scheduler         *scheduler.Scheduler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.AuthService)
	attendanceHandler := handler.NewAttendanceHandler(cfg.AttendanceService)
	rosterHandler := handler.NewRosterHandler(cfg.RosterService)
	phaseHandler := handler.NewPhaseHandler(cfg.Scheduler)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	hostMiddleware := middleware.RequireHost()
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Login routes (no auth required)
	api.HandleFunc("/auth/player/login", authHandler.LoginPlayer).Methods(http.MethodPost)
	api.HandleFunc("/auth/host/login", authHandler.LoginHost).Methods(http.MethodPost)

	// Logout requires a live session
	logout := api.PathPrefix("/auth").Subrouter()
	logout.Use(authMiddleware)
	logout.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)

	// Day routes: submission and own-entry view for any session
	days := api.PathPrefix("/days").Subrouter()
	days.Use(authMiddleware)
	days.HandleFunc("/{date}/availability", attendanceHandler.SubmitAvailability).Methods(http.MethodPut)
	days.HandleFunc("/{date}/availability", attendanceHandler.GetOwnEntry).Methods(http.MethodGet)

	// Host-only day routes
	hostDays := api.PathPrefix("/days").Subrouter()
	hostDays.Use(authMiddleware, hostMiddleware)
	hostDays.HandleFunc("/{date}", attendanceHandler.GetDaySheet).Methods(http.MethodGet)
	hostDays.HandleFunc("/{date}/players/{email}/attendance", attendanceHandler.MarkAttendance).Methods(http.MethodPut)

	// Roster management (host or cohost; finer rules in the service)
	rosterRoutes := api.PathPrefix("/roster").Subrouter()
	rosterRoutes.Use(authMiddleware, hostMiddleware)
	rosterRoutes.HandleFunc("", rosterHandler.Get).Methods(http.MethodGet)
	rosterRoutes.HandleFunc("/players", rosterHandler.AddPlayer).Methods(http.MethodPost)
	rosterRoutes.HandleFunc("/players/{email}", rosterHandler.RemovePlayer).Methods(http.MethodDelete)
	rosterRoutes.HandleFunc("/hosts", rosterHandler.PromoteHost).Methods(http.MethodPost)
	rosterRoutes.HandleFunc("/hosts/{email}", rosterHandler.RemoveHost).Methods(http.MethodDelete)

	// Manual phase re-run for operational recovery
	phases := api.PathPrefix("/phases").Subrouter()
	phases.Use(authMiddleware, hostMiddleware)
	phases.HandleFunc("/run", phaseHandler.Run).Methods(http.MethodPost)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
