package model

import "errors"

// Common errors used across the application
var (
	// Roster errors
	ErrPlayerNotFound = errors.New("player not found")
	ErrPlayerExists   = errors.New("player already exists")
	ErrHostNotFound   = errors.New("host not found")
	ErrHostExists     = errors.New("host already exists")

	// Entry errors
	ErrEntryNotFound = errors.New("attendance entry not found")

	// Validation errors
	ErrReasonRequired      = errors.New("decline reason is required")
	ErrInvalidIdentity     = errors.New("invalid identity")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidAvailability = errors.New("availability must be yes or no")
	ErrInvalidAttendance   = errors.New("attendance must be yes or no")

	// Workflow errors
	ErrCutoffPassed     = errors.New("submission cutoff has passed for this date")
	ErrNotLocked        = errors.New("availability not yet finalized for this date")
	ErrMarkWindowClosed = errors.New("attendance marking window has closed")

	// Permission errors
	ErrPermission = errors.New("role insufficient for this action")
	ErrSelfTarget = errors.New("cannot remove your own record")
)
