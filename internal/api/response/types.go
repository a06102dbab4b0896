package response

import (
	"time"

	"github.com/dailyroster/rosterd/internal/model"
	"github.com/dailyroster/rosterd/internal/services/auth"
)

// SessionResponse is returned on login
type SessionResponse struct {
	Token     string    `json:"token"`
	Identity  string    `json:"identity"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionResponseFrom builds a SessionResponse from a session
func SessionResponseFrom(s *auth.Session) SessionResponse {
	return SessionResponse{
		Token:     s.Token,
		Identity:  string(s.Identity),
		Role:      string(s.Role),
		ExpiresAt: s.ExpiresAt,
	}
}

// PlayerResponse is the external view of a roster member
type PlayerResponse struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Warnings        int    `json:"warnings"`
	MissedDays      int    `json:"missed_days"`
	InvalidDeclines int    `json:"invalid_declines"`
	AutoRemove      bool   `json:"auto_remove"`
}

// PlayerResponseFrom builds a PlayerResponse from a player
func PlayerResponseFrom(p *model.Player) PlayerResponse {
	return PlayerResponse{
		Name:            p.Name,
		Email:           string(p.Email),
		Warnings:        p.Warnings,
		MissedDays:      p.MissedDays,
		InvalidDeclines: p.InvalidDeclines,
		AutoRemove:      p.AutoRemove,
	}
}

// HostResponse is the external view of a host record
type HostResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// HostResponseFrom builds a HostResponse from a host
func HostResponseFrom(h *model.Host) HostResponse {
	return HostResponse{
		Name:  h.Name,
		Email: string(h.Email),
		Role:  string(h.Role),
	}
}

// RosterResponse lists players and hosts
type RosterResponse struct {
	Players []PlayerResponse `json:"players"`
	Hosts   []HostResponse   `json:"hosts"`
}

// EntryResponse is the external view of an attendance entry
type EntryResponse struct {
	Date          string `json:"date"`
	Player        string `json:"player"`
	Availability  string `json:"availability"`
	DeclineReason string `json:"decline_reason,omitempty"`
	Attended      string `json:"attended"`
	MarkedBy      string `json:"marked_by,omitempty"`
	State         string `json:"state"`
}

// EntryResponseFrom builds an EntryResponse from an entry
func EntryResponseFrom(e *model.AttendanceEntry) EntryResponse {
	return EntryResponse{
		Date:          string(e.Date),
		Player:        string(e.Player),
		Availability:  string(e.Availability),
		DeclineReason: e.DeclineReason,
		Attended:      string(e.Attended),
		MarkedBy:      string(e.MarkedBy),
		State:         string(e.State),
	}
}

// DaySheetResponse is the full view of one cycle date
type DaySheetResponse struct {
	Date      string          `json:"date"`
	Entries   []EntryResponse `json:"entries"`
	Confirmed []string        `json:"confirmed"`
}
