package model

import "time"

// Availability is a player's stated intent for a cycle date.
type Availability string

const (
	AvailabilityUnset Availability = ""
	AvailabilityYes   Availability = "yes"
	AvailabilityNo    Availability = "no"
)

// Attendance is the resolved outcome for a cycle date.
type Attendance string

const (
	AttendanceUnset Attendance = ""
	AttendanceYes   Attendance = "yes"
	AttendanceNo    Attendance = "no"
)

// ParseAvailability parses a yes/no string from an external caller.
func ParseAvailability(s string) (Availability, error) {
	switch Availability(s) {
	case AvailabilityYes, AvailabilityNo:
		return Availability(s), nil
	}
	return AvailabilityUnset, ErrInvalidAvailability
}

// ParseAttendance parses a yes/no string from an external caller.
func ParseAttendance(s string) (Attendance, error) {
	switch Attendance(s) {
	case AttendanceYes, AttendanceNo:
		return Attendance(s), nil
	}
	return AttendanceUnset, ErrInvalidAttendance
}

// EntryState tracks an entry through its daily lifecycle.
type EntryState string

const (
	// EntryCreated means the entry holds the optimistic default and the
	// player has not submitted yet.
	EntryCreated EntryState = "created"
	// EntrySubmitted means the player explicitly chose before cutoff.
	EntrySubmitted EntryState = "submitted"
	// EntryAutoDeclined means the cutoff passed with no submission.
	EntryAutoDeclined EntryState = "auto_declined"
	// EntryLocked means availability is immutable for the date.
	EntryLocked EntryState = "locked"
	// EntryResolved means the attended field has been finalized.
	EntryResolved EntryState = "resolved"
)

// AutoDeclineReason is the system-generated reason applied when the
// cutoff passes without a submission. The policy engine also treats it
// as a "no-reason" sentinel when counting invalid declines.
const AutoDeclineReason = "no response before cutoff"

// AttendanceEntry is one player's record for one cycle date. The
// (Date, Player) key never moves once created; only mutable fields
// change.
type AttendanceEntry struct {
	Date   Date
	Player Identity

	Availability  Availability
	DeclineReason string
	Attended      Attendance
	// MarkedBy is set when a host explicitly marked Attended;
	// resolution leaves it empty.
	MarkedBy Identity

	State EntryState
	// WarningApplied guards the policy sweep so an entry can produce at
	// most one warning across re-runs.
	WarningApplied bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PastCutoff reports whether the lock phase has fired for this entry.
func (e *AttendanceEntry) PastCutoff() bool {
	switch e.State {
	case EntryAutoDeclined, EntryLocked, EntryResolved:
		return true
	}
	return false
}

// EffectiveAttendance is the attendance outcome assuming the resolution
// default: an unmarked entry mirrors stated availability.
func (e *AttendanceEntry) EffectiveAttendance() Attendance {
	if e.Attended != AttendanceUnset {
		return e.Attended
	}
	if e.Availability == AvailabilityYes {
		return AttendanceYes
	}
	return AttendanceNo
}

// QuorumState is the per-date ephemeral dedup state for the
// availability-threshold watch. It is reset daily by virtue of being
// keyed by date.
type QuorumState struct {
	Date Date
	// LastCount is the Yes-count observed on the previous tick.
	LastCount int
	// ReachedSent records that the quorum notification went out; the
	// watch fires it at most once per date.
	ReachedSent bool
}
