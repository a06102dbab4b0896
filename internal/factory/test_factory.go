package factory

import (
	"context"
	"time"

	"github.com/dailyroster/rosterd/internal/dependencies/mocks"
	"github.com/dailyroster/rosterd/internal/model"
	"github.com/dailyroster/rosterd/internal/notify"
	"github.com/dailyroster/rosterd/internal/scheduler"
	"github.com/dailyroster/rosterd/internal/services/auth"
	"github.com/dailyroster/rosterd/internal/storage/memory"
	"github.com/dailyroster/rosterd/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
	Recorder  *notify.Recorder
}

// NewTestApp creates an App configured for testing with mocked
// dependencies: in-memory storage, a fixed clock and a recording
// notifier.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	recorder := notify.NewRecorder()
	logger := testutil.NopLogger()

	cfg := Config{
		Location:   time.UTC,
		AuthConfig: auth.DefaultConfig(),
	}
	schedCfg := scheduler.DefaultConfig(time.UTC)
	schedCfg.RetryDelay = time.Millisecond
	schedCfg.OpTimeout = time.Second

	app := newWithDependencies(store, mockClock, recorder, cfg, schedCfg, logger)

	return &TestApp{
		App:       app,
		MockClock: mockClock,
		Recorder:  recorder,
	}
}

// SeedHost creates a host (and matching player) with the given role and
// returns a live session for it.
func (t *TestApp) SeedHost(ctx context.Context, email string, role model.Role, password string) (*auth.Session, error) {
	hash, err := auth.HashCredential(password)
	if err != nil {
		return nil, err
	}

	now := t.MockClock.Now()
	identity := model.NormalizeIdentity(email)

	player := &model.Player{
		Name:         string(identity),
		Email:        identity,
		PasswordHash: hash,
		PolicyMonth:  model.MonthOf(now),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := t.Store.SavePlayer(ctx, player); err != nil {
		return nil, err
	}

	host := &model.Host{
		Name:         string(identity),
		Email:        identity,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := t.Store.SaveHost(ctx, host); err != nil {
		return nil, err
	}

	return t.AuthService.LoginHost(ctx, email, password)
}

// SeedPlayer creates a player and returns a live session for it
func (t *TestApp) SeedPlayer(ctx context.Context, email, password string) (*auth.Session, error) {
	hash, err := auth.HashCredential(password)
	if err != nil {
		return nil, err
	}

	now := t.MockClock.Now()
	identity := model.NormalizeIdentity(email)
	player := &model.Player{
		Name:         string(identity),
		Email:        identity,
		PasswordHash: hash,
		PolicyMonth:  model.MonthOf(now),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := t.Store.SavePlayer(ctx, player); err != nil {
		return nil, err
	}

	return t.AuthService.LoginPlayer(ctx, email, password)
}
