package scheduler

import (
	"fmt"
	"time"
)

// Phase names one of the daily cycle transitions
type Phase string

const (
	// PhaseEntryCreation populates entries for the next cycle date
	PhaseEntryCreation Phase = "entry_creation"
	// PhaseReminder nudges players still on the untouched default
	PhaseReminder Phase = "reminder"
	// PhaseLock is the hard submission cutoff; the summary is emitted
	// immediately after lock within the same firing
	PhaseLock Phase = "lock"
	// PhaseSummary re-emits the confirmed list on its own (manual re-runs)
	PhaseSummary Phase = "summary"
	// PhasePolicySweep runs the warning engine over the date's locked entries
	PhasePolicySweep Phase = "policy_sweep"
	// PhaseResolution finalizes attended fields for the date
	PhaseResolution Phase = "resolution"
)

// ParsePhase parses a phase name from an external caller
func ParsePhase(s string) (Phase, error) {
	switch Phase(s) {
	case PhaseEntryCreation, PhaseReminder, PhaseLock, PhaseSummary,
		PhasePolicySweep, PhaseResolution:
		return Phase(s), nil
	}
	return "", fmt.Errorf("unknown phase %q", s)
}

// TimeOfDay is a wall-clock offset within the roster timezone
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses an HH:MM string
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// String formats the offset as HH:MM
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On anchors the offset to the given day in its location
func (t TimeOfDay) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, day.Location())
}

// NextAfter returns the next occurrence of the offset strictly after now
func (t TimeOfDay) NextAfter(now time.Time) time.Time {
	next := t.On(now)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
