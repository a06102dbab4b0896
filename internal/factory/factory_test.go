package factory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/dailyroster/rosterd/internal/model"
	"github.com/dailyroster/rosterd/internal/notify"
	"github.com/dailyroster/rosterd/internal/scheduler"
)

type LifecycleSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestLifecycleSuite(t *testing.T) {
	suite.Run(t, new(LifecycleSuite))
}

func (s *LifecycleSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

func (s *LifecycleSuite) TestNewRejectsUnknownStorageType() {
	_, err := New(Config{StorageType: "postgres", Location: time.UTC})
	s.Error(err)
}

// TestFullDayCycle walks one cycle date through every phase the way
// the timers would fire it, driving the mock clock along.
func (s *LifecycleSuite) TestFullDayCycle() {
	hostSession, err := s.app.SeedHost(s.ctx, "host@example.com", model.RoleHost, "hostpass")
	s.Require().NoError(err)

	aliceSession, err := s.app.SeedPlayer(s.ctx, "alice@example.com", "password123")
	s.Require().NoError(err)
	_, err = s.app.SeedPlayer(s.ctx, "bob@example.com", "password123")
	s.Require().NoError(err)
	carolSession, err := s.app.SeedPlayer(s.ctx, "carol@example.com", "password123")
	s.Require().NoError(err)

	// Morning of Jan 1: entries for Jan 2 appear with the Yes default
	date := model.Date("2024-01-02")
	s.Require().NoError(s.app.Scheduler.RunPhase(s.ctx, date, scheduler.PhaseEntryCreation))

	entries, err := s.app.AttendanceService.ListEntries(s.ctx, date)
	s.Require().NoError(err)
	s.Len(entries, 4)

	// Alice confirms, Carol declines with a reason, Bob stays silent
	s.Require().NoError(s.app.AttendanceService.Submit(s.ctx, aliceSession, date, model.AvailabilityYes, ""))
	s.Require().NoError(s.app.AttendanceService.Submit(s.ctx, carolSession, date, model.AvailabilityNo, "travelling"))

	// Evening reminder goes to Bob and the silent host only
	s.app.MockClock.Set(time.Date(2024, 1, 1, 21, 0, 0, 0, time.UTC))
	s.Require().NoError(s.app.Scheduler.RunPhase(s.ctx, date, scheduler.PhaseReminder))

	reminders := s.app.Recorder.OfKind(notify.EventReminder)
	s.Require().Len(reminders, 1)
	s.ElementsMatch([]model.Identity{"bob@example.com", "host@example.com"}, reminders[0].Recipients)

	// Cutoff: Bob and the host are auto-declined, everyone gets a summary
	s.app.MockClock.Set(time.Date(2024, 1, 1, 22, 30, 0, 0, time.UTC))
	s.Require().NoError(s.app.Scheduler.RunPhase(s.ctx, date, scheduler.PhaseLock))

	declined := s.app.Recorder.OfKind(notify.EventAutoDeclined)
	s.Require().Len(declined, 1)
	s.ElementsMatch([]model.Identity{"bob@example.com", "host@example.com"}, declined[0].Recipients)

	summaries := s.app.Recorder.OfKind(notify.EventDailySummary)
	s.Require().Len(summaries, 1)
	s.Equal([]model.Identity{"alice@example.com"}, summaries[0].Payload.(notify.SummaryPayload).Confirmed)

	// Alice's confirmation is now immutable
	err = s.app.AttendanceService.Submit(s.ctx, aliceSession, date, model.AvailabilityNo, "changed my mind")
	s.ErrorIs(err, model.ErrCutoffPassed)

	// The host marks Alice a no-show after the session
	s.app.MockClock.Set(time.Date(2024, 1, 2, 22, 45, 0, 0, time.UTC))
	s.Require().NoError(s.app.AttendanceService.Mark(s.ctx, hostSession, date, "alice@example.com", model.AttendanceNo))

	// Policy sweep: Alice said Yes and no-showed, so she is warned
	s.app.MockClock.Set(time.Date(2024, 1, 2, 23, 0, 0, 0, time.UTC))
	s.Require().NoError(s.app.Scheduler.RunPhase(s.ctx, date, scheduler.PhasePolicySweep))

	alice, err := s.app.Store.GetPlayer(s.ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal(1, alice.Warnings)

	// Carol declined with a reason: neither warned nor invalid
	carol, err := s.app.Store.GetPlayer(s.ctx, "carol@example.com")
	s.Require().NoError(err)
	s.Equal(0, carol.Warnings)
	s.Equal(0, carol.InvalidDeclines)
	s.Equal(1, carol.MissedDays)

	// Bob's auto-decline counts as an invalid decline
	bob, err := s.app.Store.GetPlayer(s.ctx, "bob@example.com")
	s.Require().NoError(err)
	s.Equal(0, bob.Warnings)
	s.Equal(1, bob.InvalidDeclines)

	// Resolution shortly after midnight finalizes every entry
	s.app.MockClock.Set(time.Date(2024, 1, 3, 0, 1, 0, 0, time.UTC))
	s.Require().NoError(s.app.Scheduler.RunPhase(s.ctx, date, scheduler.PhaseResolution))

	entries, err = s.app.AttendanceService.ListEntries(s.ctx, date)
	s.Require().NoError(err)
	for _, e := range entries {
		s.Equal(model.EntryResolved, e.State)
	}

	got, err := s.app.AttendanceService.Entry(s.ctx, date, "alice@example.com")
	s.Require().NoError(err)
	s.Equal(model.AttendanceNo, got.Attended)
	s.Equal(model.Identity("host@example.com"), got.MarkedBy)

	// Re-running the sweep after resolution never double-warns
	s.Require().NoError(s.app.Scheduler.RunPhase(s.ctx, date, scheduler.PhasePolicySweep))
	alice, _ = s.app.Store.GetPlayer(s.ctx, "alice@example.com")
	s.Equal(1, alice.Warnings)
}

func (s *LifecycleSuite) TestQuorumWatchAcrossSubmissions() {
	playerEmails := []string{"p1@example.com", "p2@example.com", "p3@example.com", "p4@example.com"}
	for _, email := range playerEmails {
		_, err := s.app.SeedPlayer(s.ctx, email, "password123")
		s.Require().NoError(err)
	}

	date := model.Date("2024-01-02")
	s.Require().NoError(s.app.Scheduler.RunPhase(s.ctx, date, scheduler.PhaseEntryCreation))

	// All four default to Yes, which meets the default quorum of 4
	s.Require().NoError(s.app.Scheduler.CheckQuorum(s.ctx, date))
	s.Len(s.app.Recorder.OfKind(notify.EventQuorumReached), 1)

	// One player opts out
	session, err := s.app.AuthService.LoginPlayer(s.ctx, "p1@example.com", "password123")
	s.Require().NoError(err)
	s.Require().NoError(s.app.AttendanceService.Submit(s.ctx, session, date, model.AvailabilityNo, "travelling"))

	s.Require().NoError(s.app.Scheduler.CheckQuorum(s.ctx, date))
	s.Len(s.app.Recorder.OfKind(notify.EventQuorumLost), 1)
}
