package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dailyroster/rosterd/internal/api/middleware"
	"github.com/dailyroster/rosterd/internal/api/request"
	"github.com/dailyroster/rosterd/internal/api/response"
	"github.com/dailyroster/rosterd/internal/model"
	"github.com/dailyroster/rosterd/internal/services/attendance"
)

// AttendanceHandler handles availability submission, attendance
// marking and day views
type AttendanceHandler struct {
	attendanceService *attendance.Service
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(attendanceService *attendance.Service) *AttendanceHandler {
	return &AttendanceHandler{
		attendanceService: attendanceService,
	}
}

// SubmitAvailability handles PUT /api/v1/days/{date}/availability
func (h *AttendanceHandler) SubmitAvailability(w http.ResponseWriter, r *http.Request) {
	date, err := model.ParseDate(mux.Vars(r)["date"])
	if err != nil {
		WriteError(w, NewInvalidRequestError("invalid date"))
		return
	}

	var req request.SubmitAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	availability, err := model.ParseAvailability(req.Availability)
	if err != nil {
		WriteError(w, err)
		return
	}

	session := middleware.MustGetSession(r.Context())
	if err := h.attendanceService.Submit(r.Context(), session, date, availability, req.Reason); err != nil {
		WriteError(w, err)
		return
	}

	entry, err := h.attendanceService.Entry(r.Context(), date, session.Identity)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.EntryResponseFrom(entry))
}

// MarkAttendance handles PUT /api/v1/days/{date}/players/{email}/attendance
func (h *AttendanceHandler) MarkAttendance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	date, err := model.ParseDate(vars["date"])
	if err != nil {
		WriteError(w, NewInvalidRequestError("invalid date"))
		return
	}
	player := model.NormalizeIdentity(vars["email"])

	var req request.MarkAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	attended, err := model.ParseAttendance(req.Attended)
	if err != nil {
		WriteError(w, err)
		return
	}

	session := middleware.MustGetSession(r.Context())
	if err := h.attendanceService.Mark(r.Context(), session, date, player, attended); err != nil {
		WriteError(w, err)
		return
	}

	entry, err := h.attendanceService.Entry(r.Context(), date, player)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.EntryResponseFrom(entry))
}

// GetOwnEntry handles GET /api/v1/days/{date}/availability
func (h *AttendanceHandler) GetOwnEntry(w http.ResponseWriter, r *http.Request) {
	date, err := model.ParseDate(mux.Vars(r)["date"])
	if err != nil {
		WriteError(w, NewInvalidRequestError("invalid date"))
		return
	}

	session := middleware.MustGetSession(r.Context())
	entry, err := h.attendanceService.Entry(r.Context(), date, session.Identity)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.EntryResponseFrom(entry))
}

// GetDaySheet handles GET /api/v1/days/{date}
func (h *AttendanceHandler) GetDaySheet(w http.ResponseWriter, r *http.Request) {
	date, err := model.ParseDate(mux.Vars(r)["date"])
	if err != nil {
		WriteError(w, NewInvalidRequestError("invalid date"))
		return
	}

	entries, err := h.attendanceService.ListEntries(r.Context(), date)
	if err != nil {
		WriteError(w, err)
		return
	}

	sheet := response.DaySheetResponse{
		Date:      string(date),
		Entries:   make([]response.EntryResponse, 0, len(entries)),
		Confirmed: []string{},
	}
	for _, e := range entries {
		sheet.Entries = append(sheet.Entries, response.EntryResponseFrom(e))
		if e.Availability == model.AvailabilityYes {
			sheet.Confirmed = append(sheet.Confirmed, string(e.Player))
		}
	}

	response.JSON(w, http.StatusOK, sheet)
}
