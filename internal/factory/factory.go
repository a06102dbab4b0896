package factory

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/dailyroster/rosterd/internal/dependencies/clock"
	"github.com/dailyroster/rosterd/internal/notify"
	"github.com/dailyroster/rosterd/internal/scheduler"
	"github.com/dailyroster/rosterd/internal/services/attendance"
	"github.com/dailyroster/rosterd/internal/services/auth"
	"github.com/dailyroster/rosterd/internal/services/policy"
	"github.com/dailyroster/rosterd/internal/services/roster"
	"github.com/dailyroster/rosterd/internal/storage"
	"github.com/dailyroster/rosterd/internal/storage/memory"
	redisstorage "github.com/dailyroster/rosterd/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Store storage.Store

	// External dependencies
	Clock    clock.Clock
	Notifier notify.Notifier

	// Services
	AuthService       *auth.Service
	RosterService     *roster.Service
	AttendanceService *attendance.Service
	PolicyService     *policy.Service
	Scheduler         *scheduler.Scheduler
}

// Config holds configuration for the application factory
type Config struct {
	// Location is the roster timezone all phase offsets anchor to
	Location *time.Location
	// AuthConfig holds configuration for the auth service (optional)
	AuthConfig auth.Config
	// AttendanceConfig holds workflow settings (optional)
	AttendanceConfig attendance.Config
	// PolicyConfig holds the reputation thresholds (optional)
	PolicyConfig policy.Config
	// SchedulerConfig holds phase offsets; zero value uses
	// scheduler.DefaultConfig for Location
	SchedulerConfig scheduler.Config
	// Notifier delivers outbound events (optional, defaults to logging)
	Notifier notify.Notifier
	// Logger is the application logger (optional)
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	// Create storage based on type
	var store storage.Store
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger)
	}

	schedCfg := cfg.SchedulerConfig
	if schedCfg.Location == nil {
		schedCfg = scheduler.DefaultConfig(cfg.Location)
	}

	return newWithDependencies(store, clock.New(), notifier, cfg, schedCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Store,
	clk clock.Clock,
	notifier notify.Notifier,
	cfg Config,
	schedCfg scheduler.Config,
	logger *slog.Logger,
) *App {
	authService := auth.New(store, clk, cfg.AuthConfig, logger)
	rosterService := roster.New(store, clk, authService, logger)
	attendanceService := attendance.New(store, clk, schedCfg.Location, cfg.AttendanceConfig, logger)
	policyService := policy.New(store, notifier, clk, cfg.PolicyConfig, logger)
	sched := scheduler.New(attendanceService, policyService, store, notifier, authService, clk, schedCfg, logger)

	return &App{
		Store:             store,
		Clock:             clk,
		Notifier:          notifier,
		AuthService:       authService,
		RosterService:     rosterService,
		AttendanceService: attendanceService,
		PolicyService:     policyService,
		Scheduler:         sched,
	}
}
