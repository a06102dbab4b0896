package policy

import (
	"context"
	"log/slog"

	"github.com/dailyroster/rosterd/internal/dependencies/clock"
	"github.com/dailyroster/rosterd/internal/model"
	"github.com/dailyroster/rosterd/internal/notify"
	"github.com/dailyroster/rosterd/internal/storage"
)

// Config holds the policy thresholds
type Config struct {
	// WarningThreshold flags a player when cumulative warnings reach it
	WarningThreshold int
	// MissedDaysThreshold flags a player when monthly missed days exceed it
	MissedDaysThreshold int
	// InvalidDeclineThreshold flags a player when monthly invalid
	// declines reach it
	InvalidDeclineThreshold int
}

// DefaultConfig returns the default policy thresholds
func DefaultConfig() Config {
	return Config{
		WarningThreshold:        5,
		MissedDaysThreshold:     15,
		InvalidDeclineThreshold: 10,
	}
}

// Service applies the reputation rules over a date's locked entries:
// one cumulative warning per Yes-availability no-show, monthly
// missed-day and invalid-decline recounts, and the sticky auto-remove
// flag once any threshold is breached.
type Service struct {
	store    storage.Store
	notifier notify.Notifier
	clock    clock.Clock
	logger   *slog.Logger
	cfg      Config
}

// New creates a new policy Service
func New(store storage.Store, notifier notify.Notifier, clk clock.Clock, cfg Config, logger *slog.Logger) *Service {
	def := DefaultConfig()
	if cfg.WarningThreshold == 0 {
		cfg.WarningThreshold = def.WarningThreshold
	}
	if cfg.MissedDaysThreshold == 0 {
		cfg.MissedDaysThreshold = def.MissedDaysThreshold
	}
	if cfg.InvalidDeclineThreshold == 0 {
		cfg.InvalidDeclineThreshold = def.InvalidDeclineThreshold
	}
	return &Service{
		store:    store,
		notifier: notifier,
		clock:    clk,
		logger:   logger,
		cfg:      cfg,
	}
}

// Sweep applies the policy rules over a date's locked entries. Safe to
// re-run: each entry produces at most one warning ever, and the
// monthly counters are full recomputes rather than increments.
func (s *Service) Sweep(ctx context.Context, date model.Date) error {
	entries, err := s.store.ListEntriesForDate(ctx, date)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.PastCutoff() {
			// Sweep only covers entries the lock phase has finalized
			continue
		}

		if err := s.applyWarningRule(ctx, entry); err != nil {
			return err
		}
		if err := s.recomputeMonthly(ctx, entry.Player, date.Month()); err != nil {
			return err
		}
	}

	return nil
}

// applyWarningRule increments the cumulative warning count iff the
// player said Yes and did not attend. No other combination warns; in
// particular a decline never warns regardless of actual attendance.
func (s *Service) applyWarningRule(ctx context.Context, entry *model.AttendanceEntry) error {
	warns := entry.Availability == model.AvailabilityYes &&
		entry.EffectiveAttendance() == model.AttendanceNo
	if !warns || entry.WarningApplied {
		return nil
	}

	// Claim the entry first so a re-run can never double-warn
	claimed := false
	err := s.store.UpdateEntry(ctx, entry.Date, entry.Player, func(e *model.AttendanceEntry) error {
		if e.WarningApplied {
			return nil
		}
		e.WarningApplied = true
		claimed = true
		return nil
	})
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	var warnings int
	err = s.store.UpdatePlayer(ctx, entry.Player, func(p *model.Player) error {
		p.Warnings++
		p.UpdatedAt = s.clock.Now()
		warnings = p.Warnings
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("warning issued",
		slog.String("player", string(entry.Player)),
		slog.String("date", string(entry.Date)),
		slog.Int("warnings", warnings),
	)

	event := notify.NewEvent(notify.EventWarningIssued, entry.Date,
		[]model.Identity{entry.Player},
		notify.WarningPayload{Player: entry.Player, Warnings: warnings},
		s.clock.Now(),
	)
	if err := s.notifier.Send(ctx, event); err != nil {
		// Best-effort delivery; the warning itself is already recorded
		s.logger.Warn("warning notification failed", slog.String("error", err.Error()))
	}
	return nil
}

// recomputeMonthly recounts the month-scoped counters from the entry
// history and applies the sticky auto-remove flag when any threshold
// is breached.
func (s *Service) recomputeMonthly(ctx context.Context, player model.Identity, month model.Month) error {
	entries, err := s.store.ListEntriesForMonth(ctx, player, month)
	if err != nil {
		return err
	}

	missed, invalid := 0, 0
	for _, e := range entries {
		if !e.PastCutoff() {
			continue
		}
		if e.EffectiveAttendance() == model.AttendanceNo {
			missed++
		}
		// Submission enforces a reason, but count the sentinel and
		// empty reasons all the same
		if e.Availability == model.AvailabilityNo &&
			(e.DeclineReason == "" || e.DeclineReason == model.AutoDeclineReason) {
			invalid++
		}
	}

	flagged := false
	var warnings int
	err = s.store.UpdatePlayer(ctx, player, func(p *model.Player) error {
		p.MissedDays = missed
		p.InvalidDeclines = invalid
		p.PolicyMonth = month
		warnings = p.Warnings

		breach := p.Warnings >= s.cfg.WarningThreshold ||
			missed > s.cfg.MissedDaysThreshold ||
			invalid >= s.cfg.InvalidDeclineThreshold
		if breach && !p.AutoRemove {
			p.AutoRemove = true
			flagged = true
		}
		p.UpdatedAt = s.clock.Now()
		return nil
	})
	if err != nil {
		return err
	}

	if flagged {
		s.logger.Warn("player flagged for removal",
			slog.String("player", string(player)),
			slog.Int("warnings", warnings),
			slog.Int("missed_days", missed),
			slog.Int("invalid_declines", invalid),
		)

		recipients, err := s.hostIdentities(ctx)
		if err != nil {
			return err
		}
		event := notify.NewEvent(notify.EventAutoRemoveFlagged, model.Date(string(month)+"-01"),
			recipients,
			notify.WarningPayload{Player: player, Warnings: warnings},
			s.clock.Now(),
		)
		if err := s.notifier.Send(ctx, event); err != nil {
			s.logger.Warn("auto-remove notification failed", slog.String("error", err.Error()))
		}
	}

	return nil
}

func (s *Service) hostIdentities(ctx context.Context) ([]model.Identity, error) {
	hosts, err := s.store.ListHosts(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]model.Identity, len(hosts))
	for i, h := range hosts {
		ids[i] = h.Email
	}
	return ids, nil
}
