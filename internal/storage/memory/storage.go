package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dailyroster/rosterd/internal/model"
	"github.com/dailyroster/rosterd/internal/storage"
)

// Storage is an in-memory implementation of the store interface.
// All operations run under a single mutex, which trivially provides
// the per-key read-modify-write atomicity the interface requires.
type Storage struct {
	mu sync.RWMutex

	players map[model.Identity]*model.Player
	hosts   map[model.Identity]*model.Host
	entries map[entryKey]*model.AttendanceEntry
	quorum  map[model.Date]*model.QuorumState
}

type entryKey struct {
	date   model.Date
	player model.Identity
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players: make(map[model.Identity]*model.Player),
		hosts:   make(map[model.Identity]*model.Host),
		entries: make(map[entryKey]*model.AttendanceEntry),
		quorum:  make(map[model.Date]*model.QuorumState),
	}
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *player
	s.players[player.Email] = &cp
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, email model.Identity) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[email]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	cp := *player
	return &cp, nil
}

func (s *Storage) UpdatePlayer(ctx context.Context, email model.Identity, mutate func(*model.Player) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[email]
	if !ok {
		return model.ErrPlayerNotFound
	}
	cp := *player
	if err := mutate(&cp); err != nil {
		return err
	}
	s.players[email] = &cp
	return nil
}

func (s *Storage) DeletePlayer(ctx context.Context, email model.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[email]; !ok {
		return model.ErrPlayerNotFound
	}
	delete(s.players, email)
	return nil
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	players := make([]*model.Player, 0, len(s.players))
	for _, p := range s.players {
		cp := *p
		players = append(players, &cp)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].Email < players[j].Email })
	return players, nil
}

// Host operations

func (s *Storage) SaveHost(ctx context.Context, host *model.Host) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *host
	s.hosts[host.Email] = &cp
	return nil
}

func (s *Storage) GetHost(ctx context.Context, email model.Identity) (*model.Host, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	host, ok := s.hosts[email]
	if !ok {
		return nil, model.ErrHostNotFound
	}
	cp := *host
	return &cp, nil
}

func (s *Storage) DeleteHost(ctx context.Context, email model.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hosts[email]; !ok {
		return model.ErrHostNotFound
	}
	delete(s.hosts, email)
	return nil
}

func (s *Storage) ListHosts(ctx context.Context) ([]*model.Host, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hosts := make([]*model.Host, 0, len(s.hosts))
	for _, h := range s.hosts {
		cp := *h
		hosts = append(hosts, &cp)
	}
	sort.Slice(hosts, func(i, j int) bool { return hosts[i].Email < hosts[j].Email })
	return hosts, nil
}

// Attendance entry operations

func (s *Storage) SaveEntry(ctx context.Context, entry *model.AttendanceEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *entry
	s.entries[entryKey{entry.Date, entry.Player}] = &cp
	return nil
}

func (s *Storage) GetEntry(ctx context.Context, date model.Date, player model.Identity) (*model.AttendanceEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[entryKey{date, player}]
	if !ok {
		return nil, model.ErrEntryNotFound
	}
	cp := *entry
	return &cp, nil
}

func (s *Storage) UpdateEntry(ctx context.Context, date model.Date, player model.Identity, mutate func(*model.AttendanceEntry) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[entryKey{date, player}]
	if !ok {
		return model.ErrEntryNotFound
	}
	cp := *entry
	if err := mutate(&cp); err != nil {
		return err
	}
	s.entries[entryKey{date, player}] = &cp
	return nil
}

func (s *Storage) ListEntriesForDate(ctx context.Context, date model.Date) ([]*model.AttendanceEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var entries []*model.AttendanceEntry
	for k, e := range s.entries {
		if k.date == date {
			cp := *e
			entries = append(entries, &cp)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Player < entries[j].Player })
	return entries, nil
}

func (s *Storage) ListEntriesForMonth(ctx context.Context, player model.Identity, month model.Month) ([]*model.AttendanceEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var entries []*model.AttendanceEntry
	for k, e := range s.entries {
		if k.player == player && k.date.Month() == month {
			cp := *e
			entries = append(entries, &cp)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })
	return entries, nil
}

// Quorum state operations

func (s *Storage) GetQuorumState(ctx context.Context, date model.Date) (*model.QuorumState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.quorum[date]
	if !ok {
		return &model.QuorumState{Date: date}, nil
	}
	cp := *state
	return &cp, nil
}

func (s *Storage) SaveQuorumState(ctx context.Context, state *model.QuorumState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *state
	s.quorum[state.Date] = &cp
	return nil
}
