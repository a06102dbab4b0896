package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/dailyroster/rosterd/internal/dependencies/mocks"
	"github.com/dailyroster/rosterd/internal/model"
	"github.com/dailyroster/rosterd/internal/notify"
	"github.com/dailyroster/rosterd/internal/services/attendance"
	"github.com/dailyroster/rosterd/internal/services/auth"
	"github.com/dailyroster/rosterd/internal/services/policy"
	"github.com/dailyroster/rosterd/internal/storage/memory"
	"github.com/dailyroster/rosterd/internal/testutil"
)

const testDate = model.Date("2024-01-02")

type SchedulerSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	recorder   *notify.Recorder
	attendance *attendance.Service
	scheduler  *Scheduler
	ctx        context.Context
}

func TestSchedulerSuite(t *testing.T) {
	suite.Run(t, new(SchedulerSuite))
}

func (s *SchedulerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.recorder = notify.NewRecorder()
	logger := testutil.NopLogger()

	s.attendance = attendance.New(s.storage, s.clock, time.UTC, attendance.Config{}, logger)
	policyService := policy.New(s.storage, s.recorder, s.clock, policy.DefaultConfig(), logger)

	cfg := DefaultConfig(time.UTC)
	cfg.Quorum = 2
	cfg.RetryDelay = time.Millisecond
	cfg.OpTimeout = time.Second

	s.scheduler = New(s.attendance, policyService, s.storage, s.recorder, nil, s.clock, cfg, logger)
	s.ctx = context.Background()
}

func (s *SchedulerSuite) seedPlayers(emails ...model.Identity) {
	for _, email := range emails {
		s.Require().NoError(s.storage.SavePlayer(s.ctx, &model.Player{
			Email:       email,
			PolicyMonth: "2024-01",
		}))
	}
}

func (s *SchedulerSuite) submit(player model.Identity, availability model.Availability, reason string) {
	actor := &auth.Session{Token: "sess_t", Identity: player, Role: model.RolePlayer}
	s.Require().NoError(s.attendance.Submit(s.ctx, actor, testDate, availability, reason))
}

// Phase tests

func (s *SchedulerSuite) TestEntryCreationPhase() {
	s.seedPlayers("alice@example.com", "bob@example.com")

	s.Require().NoError(s.scheduler.RunPhase(s.ctx, testDate, PhaseEntryCreation))

	entries, err := s.storage.ListEntriesForDate(s.ctx, testDate)
	s.Require().NoError(err)
	s.Len(entries, 2)
}

func (s *SchedulerSuite) TestReminderTargetsOnlyPending() {
	s.seedPlayers("alice@example.com", "bob@example.com")
	s.Require().NoError(s.scheduler.RunPhase(s.ctx, testDate, PhaseEntryCreation))
	s.submit("alice@example.com", model.AvailabilityYes, "")

	s.Require().NoError(s.scheduler.RunPhase(s.ctx, testDate, PhaseReminder))

	events := s.recorder.OfKind(notify.EventReminder)
	s.Require().Len(events, 1)
	s.Equal([]model.Identity{"bob@example.com"}, events[0].Recipients)
}

func (s *SchedulerSuite) TestReminderSkippedWhenNobodyPending() {
	s.seedPlayers("alice@example.com")
	s.Require().NoError(s.scheduler.RunPhase(s.ctx, testDate, PhaseEntryCreation))
	s.submit("alice@example.com", model.AvailabilityYes, "")

	s.Require().NoError(s.scheduler.RunPhase(s.ctx, testDate, PhaseReminder))

	s.Empty(s.recorder.OfKind(notify.EventReminder))
}

func (s *SchedulerSuite) TestLockPhaseEmitsDeclineAndSummary() {
	s.seedPlayers("alice@example.com", "bob@example.com")
	s.Require().NoError(s.scheduler.RunPhase(s.ctx, testDate, PhaseEntryCreation))
	s.submit("alice@example.com", model.AvailabilityYes, "")

	s.Require().NoError(s.scheduler.RunPhase(s.ctx, testDate, PhaseLock))

	declined := s.recorder.OfKind(notify.EventAutoDeclined)
	s.Require().Len(declined, 1)
	s.Equal([]model.Identity{"bob@example.com"}, declined[0].Recipients)

	summaries := s.recorder.OfKind(notify.EventDailySummary)
	s.Require().Len(summaries, 1)
	payload := summaries[0].Payload.(notify.SummaryPayload)
	s.Equal([]model.Identity{"alice@example.com"}, payload.Confirmed)
	// Everyone gets the summary, not just confirmed players
	s.Len(summaries[0].Recipients, 2)
}

func (s *SchedulerSuite) TestSummaryOrderedAfterLock() {
	s.seedPlayers("alice@example.com")
	s.Require().NoError(s.scheduler.RunPhase(s.ctx, testDate, PhaseEntryCreation))

	s.Require().NoError(s.scheduler.RunPhase(s.ctx, testDate, PhaseLock))

	events := s.recorder.Events()
	s.Require().Len(events, 2)
	s.Equal(notify.EventAutoDeclined, events[0].Kind)
	s.Equal(notify.EventDailySummary, events[1].Kind)
}

func (s *SchedulerSuite) TestPolicySweepPhase() {
	s.seedPlayers("alice@example.com")
	s.Require().NoError(s.storage.SaveEntry(s.ctx, &model.AttendanceEntry{
		Date:         testDate,
		Player:       "alice@example.com",
		Availability: model.AvailabilityYes,
		Attended:     model.AttendanceNo,
		State:        model.EntryLocked,
	}))

	s.Require().NoError(s.scheduler.RunPhase(s.ctx, testDate, PhasePolicySweep))

	p, _ := s.storage.GetPlayer(s.ctx, "alice@example.com")
	s.Equal(1, p.Warnings)
}

func (s *SchedulerSuite) TestResolutionPhase() {
	s.seedPlayers("alice@example.com")
	s.Require().NoError(s.scheduler.RunPhase(s.ctx, testDate, PhaseEntryCreation))
	s.Require().NoError(s.scheduler.RunPhase(s.ctx, testDate, PhaseLock))

	s.Require().NoError(s.scheduler.RunPhase(s.ctx, testDate, PhaseResolution))

	entry, _ := s.storage.GetEntry(s.ctx, testDate, "alice@example.com")
	s.Equal(model.EntryResolved, entry.State)
	s.Equal(model.AttendanceNo, entry.Attended)
}

func (s *SchedulerSuite) TestRunPhaseRejectsUnknownPhase() {
	s.Error(s.scheduler.RunPhase(s.ctx, testDate, Phase("teardown")))
}

// Cycle date mapping tests

func (s *SchedulerSuite) TestCycleDateMapping() {
	// Clock is on 2024-01-01
	s.Equal(model.Date("2024-01-02"), s.scheduler.cycleDate(PhaseEntryCreation))
	s.Equal(model.Date("2024-01-02"), s.scheduler.cycleDate(PhaseReminder))
	s.Equal(model.Date("2024-01-02"), s.scheduler.cycleDate(PhaseLock))
	s.Equal(model.Date("2024-01-01"), s.scheduler.cycleDate(PhasePolicySweep))
	s.Equal(model.Date("2023-12-31"), s.scheduler.cycleDate(PhaseResolution))
}

// Quorum watch tests

func (s *SchedulerSuite) TestQuorumReachedFiresOnce() {
	s.seedPlayers("alice@example.com", "bob@example.com")
	s.Require().NoError(s.scheduler.RunPhase(s.ctx, testDate, PhaseEntryCreation))
	s.submit("alice@example.com", model.AvailabilityYes, "")
	s.submit("bob@example.com", model.AvailabilityYes, "")

	s.Require().NoError(s.scheduler.CheckQuorum(s.ctx, testDate))
	s.Require().NoError(s.scheduler.CheckQuorum(s.ctx, testDate))

	events := s.recorder.OfKind(notify.EventQuorumReached)
	s.Require().Len(events, 1)
	payload := events[0].Payload.(notify.QuorumPayload)
	s.Equal(2, payload.Count)
	s.Equal(2, payload.Quorum)
}

func (s *SchedulerSuite) TestQuorumNotFiredBelowThreshold() {
	s.seedPlayers("alice@example.com", "bob@example.com")
	s.Require().NoError(s.scheduler.RunPhase(s.ctx, testDate, PhaseEntryCreation))
	s.submit("alice@example.com", model.AvailabilityYes, "")
	s.submit("bob@example.com", model.AvailabilityNo, "travelling")

	s.Require().NoError(s.scheduler.CheckQuorum(s.ctx, testDate))

	s.Empty(s.recorder.OfKind(notify.EventQuorumReached))
}

func (s *SchedulerSuite) TestQuorumLostFiresOnDrop() {
	s.seedPlayers("alice@example.com", "bob@example.com")
	s.Require().NoError(s.scheduler.RunPhase(s.ctx, testDate, PhaseEntryCreation))
	s.submit("alice@example.com", model.AvailabilityYes, "")
	s.submit("bob@example.com", model.AvailabilityYes, "")
	s.Require().NoError(s.scheduler.CheckQuorum(s.ctx, testDate))

	// Bob opts out, dropping the count below quorum
	s.submit("bob@example.com", model.AvailabilityNo, "travelling")
	s.Require().NoError(s.scheduler.CheckQuorum(s.ctx, testDate))

	lost := s.recorder.OfKind(notify.EventQuorumLost)
	s.Require().Len(lost, 1)
	payload := lost[0].Payload.(notify.QuorumPayload)
	s.Equal(1, payload.Count)

	// A repeat check below quorum stays quiet
	s.Require().NoError(s.scheduler.CheckQuorum(s.ctx, testDate))
	s.Len(s.recorder.OfKind(notify.EventQuorumLost), 1)
}

func (s *SchedulerSuite) TestQuorumOptOutNotifiesWhileStillAtQuorum() {
	s.scheduler.cfg.Quorum = 4
	s.seedPlayers("a@example.com", "b@example.com", "c@example.com",
		"d@example.com", "e@example.com")
	s.Require().NoError(s.scheduler.RunPhase(s.ctx, testDate, PhaseEntryCreation))
	s.submit("e@example.com", model.AvailabilityNo, "travelling")

	// Four Yes responses hit quorum
	s.Require().NoError(s.scheduler.CheckQuorum(s.ctx, testDate))
	s.Len(s.recorder.OfKind(notify.EventQuorumReached), 1)

	// A fifth Yes stays quiet
	s.submit("e@example.com", model.AvailabilityYes, "")
	s.Require().NoError(s.scheduler.CheckQuorum(s.ctx, testDate))
	s.Empty(s.recorder.OfKind(notify.EventQuorumLost))

	// One of the five flips to No. The count is back at quorum but it
	// decreased, so the opt-out notifies, exactly once.
	s.submit("a@example.com", model.AvailabilityNo, "travelling")
	s.Require().NoError(s.scheduler.CheckQuorum(s.ctx, testDate))
	s.Require().NoError(s.scheduler.CheckQuorum(s.ctx, testDate))

	lost := s.recorder.OfKind(notify.EventQuorumLost)
	s.Require().Len(lost, 1)
	payload := lost[0].Payload.(notify.QuorumPayload)
	s.Equal(4, payload.Count)
}

func (s *SchedulerSuite) TestQuorumDoesNotRefireAfterRecovery() {
	s.seedPlayers("alice@example.com", "bob@example.com")
	s.Require().NoError(s.scheduler.RunPhase(s.ctx, testDate, PhaseEntryCreation))
	s.submit("alice@example.com", model.AvailabilityYes, "")
	s.submit("bob@example.com", model.AvailabilityYes, "")
	s.Require().NoError(s.scheduler.CheckQuorum(s.ctx, testDate))

	s.submit("bob@example.com", model.AvailabilityNo, "travelling")
	s.Require().NoError(s.scheduler.CheckQuorum(s.ctx, testDate))

	s.submit("bob@example.com", model.AvailabilityYes, "")
	s.Require().NoError(s.scheduler.CheckQuorum(s.ctx, testDate))

	// Reached stays once per date across the dip and recovery
	s.Len(s.recorder.OfKind(notify.EventQuorumReached), 1)
}

func (s *SchedulerSuite) TestDateLockEvictsStaleDates() {
	s.scheduler.dateLock("2023-12-20")
	s.scheduler.dateLock(testDate)

	s.NotContains(s.scheduler.dateLocks, model.Date("2023-12-20"))
	s.Contains(s.scheduler.dateLocks, testDate)

	// A lock still held by a running phase is never evicted
	held := s.scheduler.dateLock("2023-12-21")
	held.Lock()
	s.scheduler.dateLock(testDate)
	s.Contains(s.scheduler.dateLocks, model.Date("2023-12-21"))

	held.Unlock()
	s.scheduler.dateLock(testDate)
	s.NotContains(s.scheduler.dateLocks, model.Date("2023-12-21"))
}

// Retry tests

type flakyNotifier struct {
	failures int
	sent     []notify.Event
}

func (f *flakyNotifier) Send(ctx context.Context, event notify.Event) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("temporarily unavailable")
	}
	f.sent = append(f.sent, event)
	return nil
}

func (s *SchedulerSuite) TestPhaseRetriesTransientNotifierFailure() {
	flaky := &flakyNotifier{failures: 2}

	cfg := DefaultConfig(time.UTC)
	cfg.RetryDelay = time.Millisecond
	cfg.OpTimeout = time.Second
	policyService := policy.New(s.storage, flaky, s.clock, policy.DefaultConfig(), testutil.NopLogger())
	sched := New(s.attendance, policyService, s.storage, flaky, nil, s.clock, cfg, testutil.NopLogger())

	s.seedPlayers("alice@example.com")
	s.Require().NoError(sched.RunPhase(s.ctx, testDate, PhaseEntryCreation))

	s.Require().NoError(sched.RunPhase(s.ctx, testDate, PhaseReminder))
	s.Require().Len(flaky.sent, 1)
	s.Equal(notify.EventReminder, flaky.sent[0].Kind)
}

func (s *SchedulerSuite) TestPhaseGivesUpAfterRetriesExhausted() {
	flaky := &flakyNotifier{failures: 100}

	cfg := DefaultConfig(time.UTC)
	cfg.RetryAttempts = 2
	cfg.RetryDelay = time.Millisecond
	cfg.OpTimeout = time.Second
	policyService := policy.New(s.storage, flaky, s.clock, policy.DefaultConfig(), testutil.NopLogger())
	sched := New(s.attendance, policyService, s.storage, flaky, nil, s.clock, cfg, testutil.NopLogger())

	s.seedPlayers("alice@example.com")
	s.Require().NoError(sched.RunPhase(s.ctx, testDate, PhaseEntryCreation))

	s.Error(sched.RunPhase(s.ctx, testDate, PhaseReminder))
	s.Empty(flaky.sent)
}

func (s *SchedulerSuite) TestIsTerminal() {
	s.True(isTerminal(model.ErrEntryNotFound))
	s.True(isTerminal(model.ErrCutoffPassed))
	s.False(isTerminal(errors.New("connection refused")))
	s.False(isTerminal(context.DeadlineExceeded))
}
