package storage

import (
	"context"

	"github.com/dailyroster/rosterd/internal/model"
)

// Store defines the interface for data persistence.
//
// Update* methods apply the mutate closure under per-key
// read-modify-write atomicity so partial field updates never clobber
// concurrently-written fields outside the update set. A closure
// returning an error aborts the update and surfaces that error.
type Store interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, email model.Identity) (*model.Player, error)
	UpdatePlayer(ctx context.Context, email model.Identity, mutate func(*model.Player) error) error
	DeletePlayer(ctx context.Context, email model.Identity) error
	ListPlayers(ctx context.Context) ([]*model.Player, error)

	// Host operations
	SaveHost(ctx context.Context, host *model.Host) error
	GetHost(ctx context.Context, email model.Identity) (*model.Host, error)
	DeleteHost(ctx context.Context, email model.Identity) error
	ListHosts(ctx context.Context) ([]*model.Host, error)

	// Attendance entry operations, keyed by (date, player)
	SaveEntry(ctx context.Context, entry *model.AttendanceEntry) error
	GetEntry(ctx context.Context, date model.Date, player model.Identity) (*model.AttendanceEntry, error)
	UpdateEntry(ctx context.Context, date model.Date, player model.Identity, mutate func(*model.AttendanceEntry) error) error
	ListEntriesForDate(ctx context.Context, date model.Date) ([]*model.AttendanceEntry, error)
	ListEntriesForMonth(ctx context.Context, player model.Identity, month model.Month) ([]*model.AttendanceEntry, error)

	// Quorum watch dedup state, scoped per date. GetQuorumState returns
	// a zero-valued state (never an error result) for an unseen date.
	GetQuorumState(ctx context.Context, date model.Date) (*model.QuorumState, error)
	SaveQuorumState(ctx context.Context, state *model.QuorumState) error
}
