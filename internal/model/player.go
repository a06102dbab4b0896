package model

import (
	"strings"
	"time"
)

// Identity is the case-insensitive unique key for players and hosts.
// Always stored normalized; use NormalizeIdentity at input boundaries.
type Identity string

// NormalizeIdentity lowercases and trims an identity so lookups are
// case-insensitive on names/emails (never on passwords).
func NormalizeIdentity(s string) Identity {
	return Identity(strings.ToLower(strings.TrimSpace(s)))
}

// Role is the capability level attached to a session or host record.
type Role string

const (
	RolePlayer Role = "player"
	RoleCoHost Role = "cohost"
	RoleHost   Role = "host"
)

// CanManageRoster reports whether the role may add/remove players and
// promote hosts.
func (r Role) CanManageRoster() bool {
	return r == RoleHost || r == RoleCoHost
}

// IsAdmin reports whether the role carries full admin rights. Only a
// full Host may remove another host.
func (r Role) IsAdmin() bool {
	return r == RoleHost
}

// Player is a roster member subject to the daily attendance cycle.
// Reputation fields are owned by the policy engine; identity and
// credential fields by admin actions.
type Player struct {
	Name         string
	Email        Identity
	PasswordHash string // bcrypt hash

	// Warnings is cumulative and never resets.
	Warnings int
	// MissedDays and InvalidDeclines are recomputed for PolicyMonth;
	// they reset when the month rolls over.
	MissedDays      int
	InvalidDeclines int
	PolicyMonth     Month
	// AutoRemove is sticky once set; it flags the player for explicit
	// admin removal and is never cleared by automation.
	AutoRemove bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Host is a roster member with marking and management rights. A host
// is always also present as a Player for attendance purposes, with an
// independently owned credential.
type Host struct {
	Name         string
	Email        Identity
	PasswordHash string
	Role         Role // RoleHost or RoleCoHost

	CreatedAt time.Time
	UpdatedAt time.Time
}
