package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dailyroster/rosterd/internal/dependencies/clock"
	"github.com/dailyroster/rosterd/internal/model"
	"github.com/dailyroster/rosterd/internal/notify"
	"github.com/dailyroster/rosterd/internal/services/attendance"
	"github.com/dailyroster/rosterd/internal/services/policy"
	"github.com/dailyroster/rosterd/internal/storage"
)

// Config holds the scheduler's phase offsets and retry behavior. All
// offsets are wall-clock times in Location.
type Config struct {
	Location *time.Location

	EntryCreationAt TimeOfDay // entries for the next date
	ReminderAt      TimeOfDay // nudge unsubmitted players
	LockAt          TimeOfDay // cutoff + summary for the next date
	PolicySweepAt   TimeOfDay // warning engine over today's entries
	ResolutionAt    TimeOfDay // finalize yesterday's attended fields

	// Quorum is the Yes-count that triggers the threshold watch
	Quorum int
	// QuorumTick is the watch interval
	QuorumTick time.Duration

	// RetryAttempts and RetryDelay bound transient store/notifier
	// failures within one phase firing; a still-failing phase waits
	// for its next scheduled firing or a manual re-run.
	RetryAttempts int
	RetryDelay    time.Duration
	// OpTimeout caps each attempt
	OpTimeout time.Duration
}

// DefaultConfig returns the canonical daily cycle
func DefaultConfig(loc *time.Location) Config {
	return Config{
		Location:        loc,
		EntryCreationAt: TimeOfDay{8, 0},
		ReminderAt:      TimeOfDay{21, 0},
		LockAt:          TimeOfDay{22, 30},
		PolicySweepAt:   TimeOfDay{23, 0},
		ResolutionAt:    TimeOfDay{0, 1},
		Quorum:          4,
		QuorumTick:      10 * time.Minute,
		RetryAttempts:   3,
		RetryDelay:      2 * time.Second,
		OpTimeout:       10 * time.Second,
	}
}

// SessionCleaner sweeps expired sessions between phase firings
type SessionCleaner interface {
	CleanExpiredSessions()
}

// Scheduler drives the six daily phase transitions and the
// availability-threshold watch. Effects on a given date's entry set
// are serialized through a per-date critical section; a failed phase
// logs and waits for the next firing, never blocking later phases.
type Scheduler struct {
	attendance *attendance.Service
	policy     *policy.Service
	store      storage.Store
	notifier   notify.Notifier
	cleaner    SessionCleaner
	clock      clock.Clock
	logger     *slog.Logger
	cfg        Config

	mu        sync.Mutex
	dateLocks map[model.Date]*sync.Mutex
}

// New creates a new Scheduler
func New(
	attendanceService *attendance.Service,
	policyService *policy.Service,
	store storage.Store,
	notifier notify.Notifier,
	cleaner SessionCleaner,
	clk clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		attendance: attendanceService,
		policy:     policyService,
		store:      store,
		notifier:   notifier,
		cleaner:    cleaner,
		clock:      clk,
		logger:     logger,
		cfg:        cfg,
		dateLocks:  make(map[model.Date]*sync.Mutex),
	}
}

// Run starts all phase timers and the quorum watch, blocking until ctx
// is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup

	phases := []struct {
		phase Phase
		at    TimeOfDay
	}{
		{PhaseEntryCreation, s.cfg.EntryCreationAt},
		{PhaseReminder, s.cfg.ReminderAt},
		{PhaseLock, s.cfg.LockAt},
		{PhasePolicySweep, s.cfg.PolicySweepAt},
		{PhaseResolution, s.cfg.ResolutionAt},
	}

	for _, p := range phases {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.phaseLoop(ctx, p.phase, p.at)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.watchQuorum(ctx)
	}()

	if s.cleaner != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.sessionSweepLoop(ctx)
		}()
	}

	s.logger.Info("scheduler started",
		slog.String("timezone", s.cfg.Location.String()),
		slog.Int("quorum", s.cfg.Quorum),
	)
	wg.Wait()
}

// phaseLoop fires one phase at its daily offset until ctx is cancelled
func (s *Scheduler) phaseLoop(ctx context.Context, phase Phase, at TimeOfDay) {
	for {
		now := clock.NowIn(s.clock, s.cfg.Location)
		next := at.NextAfter(now)

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		date := s.cycleDate(phase)
		if err := s.RunPhase(ctx, date, phase); err != nil {
			// Never abort: retry happens on the next scheduled firing
			// or through a manual re-run.
			s.logger.Error("phase failed",
				slog.String("phase", string(phase)),
				slog.String("date", string(date)),
				slog.String("error", err.Error()),
			)
		}
	}
}

// cycleDate maps a firing instant to the cycle date the phase concerns.
// Creation, reminder and lock prepare the NEXT session date; the policy
// sweep covers the current date's locked entries; resolution finalizes
// the previous date shortly after its midnight.
func (s *Scheduler) cycleDate(phase Phase) model.Date {
	today := model.DateOf(clock.NowIn(s.clock, s.cfg.Location))
	switch phase {
	case PhaseEntryCreation, PhaseReminder, PhaseLock, PhaseSummary:
		return today.Next()
	case PhaseResolution:
		return today.Prev()
	default:
		return today
	}
}

// RunPhase executes one phase for an explicit date. It is the manual
// re-run hook for operational recovery and the path every scheduled
// firing takes. Transient store/notifier failures are retried with
// bounded backoff; terminal errors surface immediately.
func (s *Scheduler) RunPhase(ctx context.Context, date model.Date, phase Phase) error {
	lock := s.dateLock(date)
	lock.Lock()
	defer lock.Unlock()

	s.logger.Info("running phase",
		slog.String("phase", string(phase)),
		slog.String("date", string(date)),
	)

	switch phase {
	case PhaseEntryCreation:
		return s.withRetry(ctx, func(ctx context.Context) error {
			created, err := s.attendance.CreateEntries(ctx, date)
			if err != nil {
				return err
			}
			s.logger.Info("entries created",
				slog.String("date", string(date)),
				slog.Int("created", created),
			)
			return nil
		})

	case PhaseReminder:
		return s.withRetry(ctx, func(ctx context.Context) error {
			return s.remind(ctx, date)
		})

	case PhaseLock:
		if err := s.withRetry(ctx, func(ctx context.Context) error {
			return s.lock(ctx, date)
		}); err != nil {
			return err
		}
		// Summary is ordered strictly after lock within the same firing
		return s.withRetry(ctx, func(ctx context.Context) error {
			return s.summarize(ctx, date)
		})

	case PhaseSummary:
		return s.withRetry(ctx, func(ctx context.Context) error {
			return s.summarize(ctx, date)
		})

	case PhasePolicySweep:
		return s.withRetry(ctx, func(ctx context.Context) error {
			return s.policy.Sweep(ctx, date)
		})

	case PhaseResolution:
		return s.withRetry(ctx, func(ctx context.Context) error {
			return s.attendance.Resolve(ctx, date)
		})

	default:
		return fmt.Errorf("unknown phase %q", phase)
	}
}

// remind notifies every player whose entry is still on the untouched
// default. Players who already submitted are never re-notified.
func (s *Scheduler) remind(ctx context.Context, date model.Date) error {
	pending, err := s.attendance.PendingPlayers(ctx, date)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	event := notify.NewEvent(notify.EventReminder, date, pending, nil, s.clock.Now())
	return s.notifier.Send(ctx, event)
}

// lock fires the cutoff and notifies anyone who was auto-declined
func (s *Scheduler) lock(ctx context.Context, date model.Date) error {
	declined, err := s.attendance.Lock(ctx, date)
	if err != nil {
		return err
	}
	if len(declined) == 0 {
		return nil
	}

	event := notify.NewEvent(notify.EventAutoDeclined, date, declined, nil, s.clock.Now())
	return s.notifier.Send(ctx, event)
}

// summarize emits one notification with the final confirmed list
func (s *Scheduler) summarize(ctx context.Context, date model.Date) error {
	confirmed, err := s.attendance.ConfirmedPlayers(ctx, date)
	if err != nil {
		return err
	}

	players, err := s.store.ListPlayers(ctx)
	if err != nil {
		return err
	}
	recipients := make([]model.Identity, len(players))
	for i, p := range players {
		recipients[i] = p.Email
	}

	event := notify.NewEvent(notify.EventDailySummary, date, recipients,
		notify.SummaryPayload{Confirmed: confirmed}, s.clock.Now())
	return s.notifier.Send(ctx, event)
}

// watchQuorum polls the upcoming date's Yes-count on a fixed interval
func (s *Scheduler) watchQuorum(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.QuorumTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		date := model.DateOf(clock.NowIn(s.clock, s.cfg.Location)).Next()
		if err := s.CheckQuorum(ctx, date); err != nil {
			s.logger.Warn("quorum check failed",
				slog.String("date", string(date)),
				slog.String("error", err.Error()),
			)
		}
	}
}

// CheckQuorum recomputes the Yes-count for a date and fires the
// quorum-reached notification at most once per date, plus an opt-out
// notification whenever the count later decreases, even while it still
// meets quorum. LastCount keeps repeated ticks at the same count quiet.
// Only the per-date dedup state is written, never the entries
// themselves.
func (s *Scheduler) CheckQuorum(ctx context.Context, date model.Date) error {
	opCtx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	defer cancel()

	confirmed, err := s.attendance.ConfirmedPlayers(opCtx, date)
	if err != nil {
		return err
	}
	count := len(confirmed)

	state, err := s.store.GetQuorumState(opCtx, date)
	if err != nil {
		return err
	}

	switch {
	case !state.ReachedSent && count >= s.cfg.Quorum:
		event := notify.NewEvent(notify.EventQuorumReached, date, confirmed,
			notify.QuorumPayload{Count: count, Quorum: s.cfg.Quorum}, s.clock.Now())
		if err := s.notifier.Send(opCtx, event); err != nil {
			return err
		}
		state.ReachedSent = true

	case state.ReachedSent && count < state.LastCount:
		event := notify.NewEvent(notify.EventQuorumLost, date, confirmed,
			notify.QuorumPayload{Count: count, Quorum: s.cfg.Quorum}, s.clock.Now())
		if err := s.notifier.Send(opCtx, event); err != nil {
			return err
		}
	}

	state.LastCount = count
	return s.store.SaveQuorumState(opCtx, state)
}

// sessionSweepLoop periodically evicts expired sessions
func (s *Scheduler) sessionSweepLoop(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleaner.CleanExpiredSessions()
		}
	}
}

// dateLock returns the critical-section mutex for a date. Idle locks
// past the resolution horizon are evicted on the way so the map does
// not accumulate one entry per day forever.
func (s *Scheduler) dateLock(date model.Date) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	horizon := model.DateOf(clock.NowIn(s.clock, s.cfg.Location)).Prev().Prev()
	for d, l := range s.dateLocks {
		if d < horizon && d != date && l.TryLock() {
			l.Unlock()
			delete(s.dateLocks, d)
		}
	}

	lock, ok := s.dateLocks[date]
	if !ok {
		lock = &sync.Mutex{}
		s.dateLocks[date] = lock
	}
	return lock
}

// withRetry runs fn with a per-attempt timeout, retrying transient
// failures with doubling delay. Terminal domain errors are returned
// immediately and never retried.
func (s *Scheduler) withRetry(ctx context.Context, fn func(context.Context) error) error {
	delay := s.cfg.RetryDelay
	var err error

	for attempt := 0; attempt <= s.cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		opCtx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
		err = fn(opCtx)
		cancel()

		if err == nil || isTerminal(err) {
			return err
		}

		s.logger.Warn("transient failure, retrying",
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()),
		)
	}

	return err
}

// isTerminal reports whether an error is a domain outcome that retrying
// can never fix
func isTerminal(err error) bool {
	for _, sentinel := range []error{
		model.ErrPlayerNotFound,
		model.ErrHostNotFound,
		model.ErrEntryNotFound,
		model.ErrReasonRequired,
		model.ErrInvalidIdentity,
		model.ErrInvalidDate,
		model.ErrInvalidAvailability,
		model.ErrInvalidAttendance,
		model.ErrCutoffPassed,
		model.ErrNotLocked,
		model.ErrMarkWindowClosed,
		model.ErrPermission,
		model.ErrSelfTarget,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
