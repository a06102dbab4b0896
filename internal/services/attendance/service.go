package attendance

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dailyroster/rosterd/internal/dependencies/clock"
	"github.com/dailyroster/rosterd/internal/model"
	"github.com/dailyroster/rosterd/internal/services/auth"
	"github.com/dailyroster/rosterd/internal/storage"
)

// Config holds attendance workflow settings
type Config struct {
	// MarkWindow bounds how long after a cycle date's end hosts may
	// still mark attendance. Zero means no deadline, matching the
	// historically observed behavior.
	MarkWindow time.Duration
}

// Service drives the per-entry lifecycle:
// Created -> Submitted | AutoDeclined -> Locked -> Resolved.
type Service struct {
	store    storage.Store
	clock    clock.Clock
	location *time.Location
	logger   *slog.Logger
	cfg      Config
}

// New creates a new attendance Service
func New(store storage.Store, clk clock.Clock, loc *time.Location, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		clock:    clk,
		location: loc,
		logger:   logger,
		cfg:      cfg,
	}
}

// CreateEntries creates one entry per roster player for the date with
// the optimistic Yes default. Idempotent: existing (date, player)
// pairs are left untouched. Returns the number created.
func (s *Service) CreateEntries(ctx context.Context, date model.Date) (int, error) {
	players, err := s.store.ListPlayers(ctx)
	if err != nil {
		return 0, err
	}

	now := s.clock.Now()
	created := 0
	for _, player := range players {
		_, err := s.store.GetEntry(ctx, date, player.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, model.ErrEntryNotFound) {
			return created, err
		}

		entry := &model.AttendanceEntry{
			Date:         date,
			Player:       player.Email,
			Availability: model.AvailabilityYes,
			State:        model.EntryCreated,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.store.SaveEntry(ctx, entry); err != nil {
			return created, err
		}
		created++
	}

	return created, nil
}

// Submit records a player's explicit availability choice for their own
// entry. A decline requires a non-empty reason; flipping back to Yes
// clears any prior reason. Rejected once the cutoff has passed.
func (s *Service) Submit(ctx context.Context, actor *auth.Session, date model.Date, availability model.Availability, reason string) error {
	if availability != model.AvailabilityYes && availability != model.AvailabilityNo {
		return model.ErrInvalidAvailability
	}

	reason = strings.TrimSpace(reason)
	if availability == model.AvailabilityNo && reason == "" {
		return model.ErrReasonRequired
	}

	now := s.clock.Now()
	return s.store.UpdateEntry(ctx, date, actor.Identity, func(entry *model.AttendanceEntry) error {
		if entry.PastCutoff() {
			return model.ErrCutoffPassed
		}

		entry.Availability = availability
		if availability == model.AvailabilityYes {
			entry.DeclineReason = ""
		} else {
			entry.DeclineReason = reason
		}
		entry.State = model.EntrySubmitted
		entry.UpdatedAt = now
		return nil
	})
}

// Mark sets the attended field on a player's entry. Host or CoHost
// only, and only after the entry's availability has been finalized by
// the lock phase. Last write wins; a later mark overwrites an earlier
// one.
func (s *Service) Mark(ctx context.Context, actor *auth.Session, date model.Date, player model.Identity, attended model.Attendance) error {
	if !actor.IsHost() {
		return model.ErrPermission
	}
	if attended != model.AttendanceYes && attended != model.AttendanceNo {
		return model.ErrInvalidAttendance
	}
	if s.cfg.MarkWindow > 0 {
		deadline := date.Time(s.location).AddDate(0, 0, 1).Add(s.cfg.MarkWindow)
		if s.clock.Now().After(deadline) {
			return model.ErrMarkWindowClosed
		}
	}

	now := s.clock.Now()
	return s.store.UpdateEntry(ctx, date, player, func(entry *model.AttendanceEntry) error {
		if !entry.PastCutoff() {
			return model.ErrNotLocked
		}

		entry.Attended = attended
		entry.MarkedBy = actor.Identity
		entry.UpdatedAt = now
		return nil
	})
}

// Lock is the hard submission cutoff. Entries never submitted are
// auto-declined with the system reason; submitted ones move to Locked.
// Idempotent on re-run. Returns the identities that were auto-declined
// by this call.
func (s *Service) Lock(ctx context.Context, date model.Date) ([]model.Identity, error) {
	entries, err := s.store.ListEntriesForDate(ctx, date)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var autoDeclined []model.Identity
	for _, e := range entries {
		if e.PastCutoff() {
			continue
		}

		declined := false
		err := s.store.UpdateEntry(ctx, date, e.Player, func(entry *model.AttendanceEntry) error {
			switch entry.State {
			case model.EntryCreated:
				entry.Availability = model.AvailabilityNo
				entry.DeclineReason = model.AutoDeclineReason
				entry.State = model.EntryAutoDeclined
				declined = true
			case model.EntrySubmitted:
				entry.State = model.EntryLocked
			default:
				// Already past cutoff, racing phase re-run
				return nil
			}
			entry.UpdatedAt = now
			return nil
		})
		if err != nil {
			return autoDeclined, err
		}
		if declined {
			autoDeclined = append(autoDeclined, e.Player)
		}
	}

	s.logger.Info("date locked",
		slog.String("date", string(date)),
		slog.Int("auto_declined", len(autoDeclined)),
	)
	return autoDeclined, nil
}

// Resolve finalizes each entry's attended field. Entries never marked
// by a host default to mirroring their stated availability. Already
// resolved entries are untouched, so the automatic path can't reverse
// a host's later correction.
func (s *Service) Resolve(ctx context.Context, date model.Date) error {
	entries, err := s.store.ListEntriesForDate(ctx, date)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	for _, e := range entries {
		if e.State == model.EntryResolved || !e.PastCutoff() {
			continue
		}

		err := s.store.UpdateEntry(ctx, date, e.Player, func(entry *model.AttendanceEntry) error {
			if entry.State == model.EntryResolved || !entry.PastCutoff() {
				return nil
			}
			if entry.Attended == model.AttendanceUnset {
				entry.Attended = entry.EffectiveAttendance()
			}
			entry.State = model.EntryResolved
			entry.UpdatedAt = now
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// Entry fetches a single entry
func (s *Service) Entry(ctx context.Context, date model.Date, player model.Identity) (*model.AttendanceEntry, error) {
	return s.store.GetEntry(ctx, date, player)
}

// ListEntries returns the full day sheet for a date
func (s *Service) ListEntries(ctx context.Context, date model.Date) ([]*model.AttendanceEntry, error) {
	return s.store.ListEntriesForDate(ctx, date)
}

// ConfirmedPlayers returns identities with availability Yes for a date
func (s *Service) ConfirmedPlayers(ctx context.Context, date model.Date) ([]model.Identity, error) {
	entries, err := s.store.ListEntriesForDate(ctx, date)
	if err != nil {
		return nil, err
	}
	var confirmed []model.Identity
	for _, e := range entries {
		if e.Availability == model.AvailabilityYes {
			confirmed = append(confirmed, e.Player)
		}
	}
	return confirmed, nil
}

// PendingPlayers returns identities still on the untouched default for
// a date, i.e. those who should receive a reminder.
func (s *Service) PendingPlayers(ctx context.Context, date model.Date) ([]model.Identity, error) {
	entries, err := s.store.ListEntriesForDate(ctx, date)
	if err != nil {
		return nil, err
	}
	var pending []model.Identity
	for _, e := range entries {
		if e.State == model.EntryCreated {
			pending = append(pending, e.Player)
		}
	}
	return pending, nil
}
