package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dailyroster/rosterd/internal/dependencies/clock"
	"github.com/dailyroster/rosterd/internal/model"
	"github.com/dailyroster/rosterd/internal/storage"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
)

// Session represents an authenticated session bound to an identity and
// role. Sessions are process-local ephemeral state; they expire after a
// fixed idle timeout, refreshed by any authorized action.
type Session struct {
	Token    string
	Identity model.Identity
	Role     model.Role
	IssuedAt time.Time
	// ExpiresAt is IssuedAt/last-use plus the idle timeout.
	ExpiresAt time.Time
}

// IsHost reports whether the session carries host or co-host rights
func (s *Session) IsHost() bool {
	return s.Role.CanManageRoster()
}

// Service handles credential verification and session lifecycle
type Service struct {
	store  storage.Store
	clock  clock.Clock
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	idleTimeout time.Duration
}

// Config holds configuration for the auth service
type Config struct {
	IdleTimeout time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		IdleTimeout: 30 * time.Minute,
	}
}

// New creates a new auth Service
func New(store storage.Store, clk clock.Clock, cfg Config, logger *slog.Logger) *Service {
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultConfig().IdleTimeout
	}
	return &Service{
		store:       store,
		clock:       clk,
		logger:      logger,
		sessions:    make(map[string]*Session),
		idleTimeout: cfg.IdleTimeout,
	}
}

// HashCredential produces a salted one-way hash for storage. bcrypt
// embeds its salt in the hash.
func HashCredential(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// verify checks a password against a stored hash. Exact on the
// password, no case folding.
func verify(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// LoginPlayer authenticates a player credential and creates a session.
// Identity matching is case-insensitive; the password is not.
func (s *Service) LoginPlayer(ctx context.Context, email, password string) (*Session, error) {
	player, err := s.store.GetPlayer(ctx, model.NormalizeIdentity(email))
	if err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := verify(player.PasswordHash, password); err != nil {
		return nil, err
	}

	return s.createSession(player.Email, model.RolePlayer), nil
}

// LoginHost authenticates a host credential and creates a session with
// the host's role (Host or CoHost). The host credential is independent
// of the player credential even when the identities coincide.
func (s *Service) LoginHost(ctx context.Context, email, password string) (*Session, error) {
	host, err := s.store.GetHost(ctx, model.NormalizeIdentity(email))
	if err != nil {
		if errors.Is(err, model.ErrHostNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := verify(host.PasswordHash, password); err != nil {
		return nil, err
	}

	return s.createSession(host.Email, host.Role), nil
}

// ValidateSession checks a session token and, when valid, refreshes
// its idle timeout.
func (s *Service) ValidateSession(token string) (*Session, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return nil, ErrInvalidSession
	}

	if now.After(session.ExpiresAt) {
		delete(s.sessions, token)
		return nil, ErrInvalidSession
	}

	session.ExpiresAt = now.Add(s.idleTimeout)
	cp := *session
	return &cp, nil
}

// Logout removes a session
func (s *Service) Logout(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// InvalidateIdentity drops every session for an identity. Called when
// a player or host record is removed.
func (s *Service) InvalidateIdentity(identity model.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, session := range s.sessions {
		if session.Identity == identity {
			delete(s.sessions, token)
		}
	}
}

// InvalidateHostSessions drops only host/cohost sessions for an
// identity, leaving any player session intact. Called when a host
// record is removed but the player record survives.
func (s *Service) InvalidateHostSessions(identity model.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, session := range s.sessions {
		if session.Identity == identity && session.Role.CanManageRoster() {
			delete(s.sessions, token)
		}
	}
}

// CleanExpiredSessions removes expired sessions (call periodically)
func (s *Service) CleanExpiredSessions() {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
}

// createSession creates and registers a new session
func (s *Service) createSession(identity model.Identity, role model.Role) *Session {
	now := s.clock.Now()

	session := &Session{
		Token:     generateToken(),
		Identity:  identity,
		Role:      role,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.idleTimeout),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()

	s.logger.Info("session created",
		slog.String("identity", string(identity)),
		slog.String("role", string(role)),
	)

	cp := *session
	return &cp
}

// generateToken generates a random session token
func generateToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return "sess_" + base64.RawURLEncoding.EncodeToString(b)
}
