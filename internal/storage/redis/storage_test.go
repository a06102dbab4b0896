package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/dailyroster/rosterd/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.QuorumStateTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

// Player tests

func (s *StorageSuite) TestSaveAndGetPlayer() {
	player := &model.Player{
		Name:        "Alice",
		Email:       "alice@example.com",
		Warnings:    2,
		PolicyMonth: "2024-03",
		CreatedAt:   time.Now().UTC(),
	}
	s.Require().NoError(s.storage.SavePlayer(s.ctx, player))

	got, err := s.storage.GetPlayer(s.ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal("Alice", got.Name)
	s.Equal(2, got.Warnings)
	s.Equal(model.Month("2024-03"), got.PolicyMonth)
}

func (s *StorageSuite) TestGetPlayerNotFound() {
	_, err := s.storage.GetPlayer(s.ctx, "nobody@example.com")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestUpdatePlayer() {
	player := &model.Player{Email: "alice@example.com"}
	s.Require().NoError(s.storage.SavePlayer(s.ctx, player))

	err := s.storage.UpdatePlayer(s.ctx, "alice@example.com", func(p *model.Player) error {
		p.Warnings++
		p.AutoRemove = true
		return nil
	})
	s.Require().NoError(err)

	got, _ := s.storage.GetPlayer(s.ctx, "alice@example.com")
	s.Equal(1, got.Warnings)
	s.True(got.AutoRemove)
}

func (s *StorageSuite) TestUpdatePlayerNotFound() {
	err := s.storage.UpdatePlayer(s.ctx, "nobody@example.com", func(p *model.Player) error {
		return nil
	})
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestUpdatePlayerMutateErrorAbortsWrite() {
	player := &model.Player{Email: "alice@example.com", Warnings: 1}
	s.Require().NoError(s.storage.SavePlayer(s.ctx, player))

	err := s.storage.UpdatePlayer(s.ctx, "alice@example.com", func(p *model.Player) error {
		p.Warnings = 99
		return model.ErrPermission
	})
	s.ErrorIs(err, model.ErrPermission)

	got, _ := s.storage.GetPlayer(s.ctx, "alice@example.com")
	s.Equal(1, got.Warnings)
}

func (s *StorageSuite) TestDeletePlayerRemovesFromIndex() {
	s.Require().NoError(s.storage.SavePlayer(s.ctx, &model.Player{Email: "alice@example.com"}))
	s.Require().NoError(s.storage.SavePlayer(s.ctx, &model.Player{Email: "bob@example.com"}))

	s.Require().NoError(s.storage.DeletePlayer(s.ctx, "alice@example.com"))

	players, err := s.storage.ListPlayers(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(players, 1)
	s.Equal(model.Identity("bob@example.com"), players[0].Email)
}

func (s *StorageSuite) TestDeletePlayerNotFound() {
	s.ErrorIs(s.storage.DeletePlayer(s.ctx, "nobody@example.com"), model.ErrPlayerNotFound)
}

// Host tests

func (s *StorageSuite) TestSaveAndGetHost() {
	host := &model.Host{Email: "host@example.com", Role: model.RoleCoHost}
	s.Require().NoError(s.storage.SaveHost(s.ctx, host))

	got, err := s.storage.GetHost(s.ctx, "host@example.com")
	s.Require().NoError(err)
	s.Equal(model.RoleCoHost, got.Role)
}

func (s *StorageSuite) TestDeleteHostKeepsPlayer() {
	s.Require().NoError(s.storage.SavePlayer(s.ctx, &model.Player{Email: "host@example.com"}))
	s.Require().NoError(s.storage.SaveHost(s.ctx, &model.Host{Email: "host@example.com"}))

	s.Require().NoError(s.storage.DeleteHost(s.ctx, "host@example.com"))

	_, err := s.storage.GetHost(s.ctx, "host@example.com")
	s.ErrorIs(err, model.ErrHostNotFound)

	_, err = s.storage.GetPlayer(s.ctx, "host@example.com")
	s.NoError(err)
}

func (s *StorageSuite) TestListHosts() {
	s.Require().NoError(s.storage.SaveHost(s.ctx, &model.Host{Email: "a@example.com", Role: model.RoleHost}))
	s.Require().NoError(s.storage.SaveHost(s.ctx, &model.Host{Email: "b@example.com", Role: model.RoleCoHost}))

	hosts, err := s.storage.ListHosts(s.ctx)
	s.Require().NoError(err)
	s.Len(hosts, 2)
}

// Entry tests

func (s *StorageSuite) TestSaveAndGetEntry() {
	entry := &model.AttendanceEntry{
		Date:          "2024-03-15",
		Player:        "alice@example.com",
		Availability:  model.AvailabilityNo,
		DeclineReason: "travelling",
		State:         model.EntrySubmitted,
	}
	s.Require().NoError(s.storage.SaveEntry(s.ctx, entry))

	got, err := s.storage.GetEntry(s.ctx, "2024-03-15", "alice@example.com")
	s.Require().NoError(err)
	s.Equal(model.AvailabilityNo, got.Availability)
	s.Equal("travelling", got.DeclineReason)
	s.Equal(model.EntrySubmitted, got.State)
}

func (s *StorageSuite) TestGetEntryNotFound() {
	_, err := s.storage.GetEntry(s.ctx, "2024-03-15", "nobody@example.com")
	s.ErrorIs(err, model.ErrEntryNotFound)
}

func (s *StorageSuite) TestUpdateEntry() {
	entry := &model.AttendanceEntry{
		Date:   "2024-03-15",
		Player: "alice@example.com",
		State:  model.EntryLocked,
	}
	s.Require().NoError(s.storage.SaveEntry(s.ctx, entry))

	err := s.storage.UpdateEntry(s.ctx, "2024-03-15", "alice@example.com", func(e *model.AttendanceEntry) error {
		e.Attended = model.AttendanceNo
		e.WarningApplied = true
		return nil
	})
	s.Require().NoError(err)

	got, _ := s.storage.GetEntry(s.ctx, "2024-03-15", "alice@example.com")
	s.Equal(model.AttendanceNo, got.Attended)
	s.True(got.WarningApplied)
}

func (s *StorageSuite) TestListEntriesForDate() {
	for _, player := range []model.Identity{"alice@example.com", "bob@example.com"} {
		s.Require().NoError(s.storage.SaveEntry(s.ctx, &model.AttendanceEntry{
			Date: "2024-03-15", Player: player,
		}))
	}
	s.Require().NoError(s.storage.SaveEntry(s.ctx, &model.AttendanceEntry{
		Date: "2024-03-16", Player: "alice@example.com",
	}))

	entries, err := s.storage.ListEntriesForDate(s.ctx, "2024-03-15")
	s.Require().NoError(err)
	s.Len(entries, 2)
}

func (s *StorageSuite) TestListEntriesForMonth() {
	for _, date := range []model.Date{"2024-03-01", "2024-03-20", "2024-04-01"} {
		s.Require().NoError(s.storage.SaveEntry(s.ctx, &model.AttendanceEntry{
			Date: date, Player: "alice@example.com",
		}))
	}

	entries, err := s.storage.ListEntriesForMonth(s.ctx, "alice@example.com", "2024-03")
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(model.Date("2024-03-01"), entries[0].Date)
	s.Equal(model.Date("2024-03-20"), entries[1].Date)
}

func (s *StorageSuite) TestEntryTTLExpires() {
	s.storage.cfg.EntryTTL = time.Minute

	entry := &model.AttendanceEntry{Date: "2024-03-15", Player: "alice@example.com"}
	s.Require().NoError(s.storage.SaveEntry(s.ctx, entry))

	s.mini.FastForward(2 * time.Minute)

	_, err := s.storage.GetEntry(s.ctx, "2024-03-15", "alice@example.com")
	s.ErrorIs(err, model.ErrEntryNotFound)
}

// Quorum state tests

func (s *StorageSuite) TestQuorumStateZeroValueForUnseenDate() {
	state, err := s.storage.GetQuorumState(s.ctx, "2024-03-15")
	s.Require().NoError(err)
	s.Equal(model.Date("2024-03-15"), state.Date)
	s.False(state.ReachedSent)
}

func (s *StorageSuite) TestSaveAndGetQuorumState() {
	state := &model.QuorumState{Date: "2024-03-15", LastCount: 5, ReachedSent: true}
	s.Require().NoError(s.storage.SaveQuorumState(s.ctx, state))

	got, err := s.storage.GetQuorumState(s.ctx, "2024-03-15")
	s.Require().NoError(err)
	s.Equal(5, got.LastCount)
	s.True(got.ReachedSent)
}

func (s *StorageSuite) TestQuorumStateExpires() {
	state := &model.QuorumState{Date: "2024-03-15", LastCount: 5, ReachedSent: true}
	s.Require().NoError(s.storage.SaveQuorumState(s.ctx, state))

	s.mini.FastForward(2 * time.Hour)

	got, err := s.storage.GetQuorumState(s.ctx, "2024-03-15")
	s.Require().NoError(err)
	s.False(got.ReachedSent)
}
