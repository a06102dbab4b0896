package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/dailyroster/rosterd/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

// Player tests

func (s *StorageSuite) TestSaveAndGetPlayer() {
	player := &model.Player{
		Name:      "Alice",
		Email:     "alice@example.com",
		CreatedAt: time.Now(),
	}
	s.Require().NoError(s.storage.SavePlayer(s.ctx, player))

	got, err := s.storage.GetPlayer(s.ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal("Alice", got.Name)
}

func (s *StorageSuite) TestGetPlayerNotFound() {
	_, err := s.storage.GetPlayer(s.ctx, "nobody@example.com")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestGetPlayerReturnsCopy() {
	player := &model.Player{Email: "alice@example.com", Warnings: 1}
	s.Require().NoError(s.storage.SavePlayer(s.ctx, player))

	got, _ := s.storage.GetPlayer(s.ctx, "alice@example.com")
	got.Warnings = 99

	again, _ := s.storage.GetPlayer(s.ctx, "alice@example.com")
	s.Equal(1, again.Warnings)
}

func (s *StorageSuite) TestUpdatePlayer() {
	player := &model.Player{Email: "alice@example.com"}
	s.Require().NoError(s.storage.SavePlayer(s.ctx, player))

	err := s.storage.UpdatePlayer(s.ctx, "alice@example.com", func(p *model.Player) error {
		p.Warnings++
		return nil
	})
	s.Require().NoError(err)

	got, _ := s.storage.GetPlayer(s.ctx, "alice@example.com")
	s.Equal(1, got.Warnings)
}

func (s *StorageSuite) TestUpdatePlayerMutateErrorAbortsWrite() {
	player := &model.Player{Email: "alice@example.com", Warnings: 1}
	s.Require().NoError(s.storage.SavePlayer(s.ctx, player))

	boom := errors.New("boom")
	err := s.storage.UpdatePlayer(s.ctx, "alice@example.com", func(p *model.Player) error {
		p.Warnings = 99
		return boom
	})
	s.ErrorIs(err, boom)

	got, _ := s.storage.GetPlayer(s.ctx, "alice@example.com")
	s.Equal(1, got.Warnings)
}

func (s *StorageSuite) TestUpdatePlayerNotFound() {
	err := s.storage.UpdatePlayer(s.ctx, "nobody@example.com", func(p *model.Player) error {
		return nil
	})
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestDeletePlayer() {
	s.Require().NoError(s.storage.SavePlayer(s.ctx, &model.Player{Email: "alice@example.com"}))

	s.Require().NoError(s.storage.DeletePlayer(s.ctx, "alice@example.com"))

	_, err := s.storage.GetPlayer(s.ctx, "alice@example.com")
	s.ErrorIs(err, model.ErrPlayerNotFound)

	s.ErrorIs(s.storage.DeletePlayer(s.ctx, "alice@example.com"), model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestListPlayersSorted() {
	for _, email := range []model.Identity{"carol@example.com", "alice@example.com", "bob@example.com"} {
		s.Require().NoError(s.storage.SavePlayer(s.ctx, &model.Player{Email: email}))
	}

	players, err := s.storage.ListPlayers(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(players, 3)
	s.Equal(model.Identity("alice@example.com"), players[0].Email)
	s.Equal(model.Identity("bob@example.com"), players[1].Email)
	s.Equal(model.Identity("carol@example.com"), players[2].Email)
}

// Host tests

func (s *StorageSuite) TestSaveAndGetHost() {
	host := &model.Host{Email: "host@example.com", Role: model.RoleHost}
	s.Require().NoError(s.storage.SaveHost(s.ctx, host))

	got, err := s.storage.GetHost(s.ctx, "host@example.com")
	s.Require().NoError(err)
	s.Equal(model.RoleHost, got.Role)
}

func (s *StorageSuite) TestGetHostNotFound() {
	_, err := s.storage.GetHost(s.ctx, "nobody@example.com")
	s.ErrorIs(err, model.ErrHostNotFound)
}

func (s *StorageSuite) TestDeleteHost() {
	s.Require().NoError(s.storage.SaveHost(s.ctx, &model.Host{Email: "host@example.com"}))
	s.Require().NoError(s.storage.DeleteHost(s.ctx, "host@example.com"))

	_, err := s.storage.GetHost(s.ctx, "host@example.com")
	s.ErrorIs(err, model.ErrHostNotFound)
}

// Entry tests

func (s *StorageSuite) TestSaveAndGetEntry() {
	entry := &model.AttendanceEntry{
		Date:         "2024-03-15",
		Player:       "alice@example.com",
		Availability: model.AvailabilityYes,
		State:        model.EntryCreated,
	}
	s.Require().NoError(s.storage.SaveEntry(s.ctx, entry))

	got, err := s.storage.GetEntry(s.ctx, "2024-03-15", "alice@example.com")
	s.Require().NoError(err)
	s.Equal(model.AvailabilityYes, got.Availability)
}

func (s *StorageSuite) TestGetEntryNotFound() {
	_, err := s.storage.GetEntry(s.ctx, "2024-03-15", "nobody@example.com")
	s.ErrorIs(err, model.ErrEntryNotFound)
}

func (s *StorageSuite) TestUpdateEntry() {
	entry := &model.AttendanceEntry{
		Date:   "2024-03-15",
		Player: "alice@example.com",
		State:  model.EntryCreated,
	}
	s.Require().NoError(s.storage.SaveEntry(s.ctx, entry))

	err := s.storage.UpdateEntry(s.ctx, "2024-03-15", "alice@example.com", func(e *model.AttendanceEntry) error {
		e.State = model.EntryLocked
		return nil
	})
	s.Require().NoError(err)

	got, _ := s.storage.GetEntry(s.ctx, "2024-03-15", "alice@example.com")
	s.Equal(model.EntryLocked, got.State)
}

func (s *StorageSuite) TestListEntriesForDate() {
	for _, player := range []model.Identity{"bob@example.com", "alice@example.com"} {
		s.Require().NoError(s.storage.SaveEntry(s.ctx, &model.AttendanceEntry{
			Date: "2024-03-15", Player: player,
		}))
	}
	s.Require().NoError(s.storage.SaveEntry(s.ctx, &model.AttendanceEntry{
		Date: "2024-03-16", Player: "alice@example.com",
	}))

	entries, err := s.storage.ListEntriesForDate(s.ctx, "2024-03-15")
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(model.Identity("alice@example.com"), entries[0].Player)
	s.Equal(model.Identity("bob@example.com"), entries[1].Player)
}

func (s *StorageSuite) TestListEntriesForMonth() {
	for _, date := range []model.Date{"2024-03-02", "2024-03-01", "2024-04-01"} {
		s.Require().NoError(s.storage.SaveEntry(s.ctx, &model.AttendanceEntry{
			Date: date, Player: "alice@example.com",
		}))
	}
	s.Require().NoError(s.storage.SaveEntry(s.ctx, &model.AttendanceEntry{
		Date: "2024-03-01", Player: "bob@example.com",
	}))

	entries, err := s.storage.ListEntriesForMonth(s.ctx, "alice@example.com", "2024-03")
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(model.Date("2024-03-01"), entries[0].Date)
	s.Equal(model.Date("2024-03-02"), entries[1].Date)
}

// Quorum state tests

func (s *StorageSuite) TestQuorumStateZeroValueForUnseenDate() {
	state, err := s.storage.GetQuorumState(s.ctx, "2024-03-15")
	s.Require().NoError(err)
	s.Equal(model.Date("2024-03-15"), state.Date)
	s.Equal(0, state.LastCount)
	s.False(state.ReachedSent)
}

func (s *StorageSuite) TestSaveAndGetQuorumState() {
	state := &model.QuorumState{Date: "2024-03-15", LastCount: 4, ReachedSent: true}
	s.Require().NoError(s.storage.SaveQuorumState(s.ctx, state))

	got, err := s.storage.GetQuorumState(s.ctx, "2024-03-15")
	s.Require().NoError(err)
	s.Equal(4, got.LastCount)
	s.True(got.ReachedSent)
}
