package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dailyroster/rosterd/internal/model"
	"github.com/dailyroster/rosterd/internal/storage"
)

// maxTxRetries bounds optimistic-lock retries on contended keys
const maxTxRetries = 5

// Storage is a Redis-backed implementation of the store interface.
// Records are JSON blobs; per-key read-modify-write atomicity comes
// from WATCH + MULTI/EXEC with bounded retries.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	// Pipeline keeps the record and the roster index in step
	pipe := s.client.Pipeline()
	pipe.Set(ctx, playerKey(player.Email), data, 0)
	pipe.SAdd(ctx, playerIndexKey(), string(player.Email))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetPlayer(ctx context.Context, email model.Identity) (*model.Player, error) {
	data, err := s.client.Get(ctx, playerKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) UpdatePlayer(ctx context.Context, email model.Identity, mutate func(*model.Player) error) error {
	key := playerKey(email)

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return model.ErrPlayerNotFound
				}
				return err
			}

			var player model.Player
			if err := json.Unmarshal(data, &player); err != nil {
				return err
			}
			if err := mutate(&player); err != nil {
				return err
			}

			updated, err := json.Marshal(&player)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, updated, 0)
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}

	return fmt.Errorf("update player %s: too many optimistic lock retries", email)
}

func (s *Storage) DeletePlayer(ctx context.Context, email model.Identity) error {
	deleted, err := s.client.Del(ctx, playerKey(email)).Result()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return model.ErrPlayerNotFound
	}
	return s.client.SRem(ctx, playerIndexKey(), string(email)).Err()
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	emails, err := s.client.SMembers(ctx, playerIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	players := make([]*model.Player, 0, len(emails))
	for _, email := range emails {
		player, err := s.GetPlayer(ctx, model.Identity(email))
		if errors.Is(err, model.ErrPlayerNotFound) {
			// Index can lag a delete; skip
			continue
		}
		if err != nil {
			return nil, err
		}
		players = append(players, player)
	}
	return players, nil
}

// Host operations

func (s *Storage) SaveHost(ctx context.Context, host *model.Host) error {
	data, err := json.Marshal(host)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, hostKey(host.Email), data, 0)
	pipe.SAdd(ctx, hostIndexKey(), string(host.Email))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetHost(ctx context.Context, email model.Identity) (*model.Host, error) {
	data, err := s.client.Get(ctx, hostKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrHostNotFound
		}
		return nil, err
	}

	var host model.Host
	if err := json.Unmarshal(data, &host); err != nil {
		return nil, err
	}
	return &host, nil
}

func (s *Storage) DeleteHost(ctx context.Context, email model.Identity) error {
	deleted, err := s.client.Del(ctx, hostKey(email)).Result()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return model.ErrHostNotFound
	}
	return s.client.SRem(ctx, hostIndexKey(), string(email)).Err()
}

func (s *Storage) ListHosts(ctx context.Context) ([]*model.Host, error) {
	emails, err := s.client.SMembers(ctx, hostIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	hosts := make([]*model.Host, 0, len(emails))
	for _, email := range emails {
		host, err := s.GetHost(ctx, model.Identity(email))
		if errors.Is(err, model.ErrHostNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		hosts = append(hosts, host)
	}
	return hosts, nil
}

// Attendance entry operations

func (s *Storage) SaveEntry(ctx context.Context, entry *model.AttendanceEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, entryKey(entry.Date, entry.Player), data, s.cfg.EntryTTL)
	pipe.SAdd(ctx, entriesForDateIndexKey(entry.Date), string(entry.Player))
	if s.cfg.EntryTTL > 0 {
		pipe.Expire(ctx, entriesForDateIndexKey(entry.Date), s.cfg.EntryTTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetEntry(ctx context.Context, date model.Date, player model.Identity) (*model.AttendanceEntry, error) {
	data, err := s.client.Get(ctx, entryKey(date, player)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrEntryNotFound
		}
		return nil, err
	}

	var entry model.AttendanceEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Storage) UpdateEntry(ctx context.Context, date model.Date, player model.Identity, mutate func(*model.AttendanceEntry) error) error {
	key := entryKey(date, player)

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return model.ErrEntryNotFound
				}
				return err
			}

			var entry model.AttendanceEntry
			if err := json.Unmarshal(data, &entry); err != nil {
				return err
			}
			if err := mutate(&entry); err != nil {
				return err
			}

			updated, err := json.Marshal(&entry)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, updated, s.cfg.EntryTTL)
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}

	return fmt.Errorf("update entry %s/%s: too many optimistic lock retries", date, player)
}

func (s *Storage) ListEntriesForDate(ctx context.Context, date model.Date) ([]*model.AttendanceEntry, error) {
	players, err := s.client.SMembers(ctx, entriesForDateIndexKey(date)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]*model.AttendanceEntry, 0, len(players))
	for _, player := range players {
		entry, err := s.GetEntry(ctx, date, model.Identity(player))
		if errors.Is(err, model.ErrEntryNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Storage) ListEntriesForMonth(ctx context.Context, player model.Identity, month model.Month) ([]*model.AttendanceEntry, error) {
	days, err := month.Days()
	if err != nil {
		return nil, err
	}
	var entries []*model.AttendanceEntry
	for _, date := range days {
		entry, err := s.GetEntry(ctx, date, player)
		if errors.Is(err, model.ErrEntryNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Quorum state operations

func (s *Storage) GetQuorumState(ctx context.Context, date model.Date) (*model.QuorumState, error) {
	data, err := s.client.Get(ctx, quorumStateKey(date)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &model.QuorumState{Date: date}, nil
		}
		return nil, err
	}

	var state model.QuorumState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *Storage) SaveQuorumState(ctx context.Context, state *model.QuorumState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, quorumStateKey(state.Date), data, s.cfg.QuorumStateTTL).Err()
}
