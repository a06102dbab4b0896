package roster

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/dailyroster/rosterd/internal/dependencies/clock"
	"github.com/dailyroster/rosterd/internal/model"
	"github.com/dailyroster/rosterd/internal/services/auth"
	"github.com/dailyroster/rosterd/internal/storage"
)

// SessionRevoker drops live sessions for removed identities
type SessionRevoker interface {
	InvalidateIdentity(identity model.Identity)
	InvalidateHostSessions(identity model.Identity)
}

// Service manages the player and host roster. All mutations are gated
// by the actor's role; see the per-method rules.
type Service struct {
	store   storage.Store
	clock   clock.Clock
	revoker SessionRevoker
	logger  *slog.Logger
}

// New creates a new roster Service
func New(store storage.Store, clk clock.Clock, revoker SessionRevoker, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		clock:   clk,
		revoker: revoker,
		logger:  logger,
	}
}

// AddPlayer creates a roster member. Requires Host or CoHost.
func (s *Service) AddPlayer(ctx context.Context, actor *auth.Session, name, email, password string) (*model.Player, error) {
	if !actor.Role.CanManageRoster() {
		return nil, model.ErrPermission
	}

	identity := model.NormalizeIdentity(email)
	if identity == "" || !strings.Contains(string(identity), "@") {
		return nil, model.ErrInvalidIdentity
	}

	if _, err := s.store.GetPlayer(ctx, identity); err == nil {
		return nil, model.ErrPlayerExists
	} else if !errors.Is(err, model.ErrPlayerNotFound) {
		return nil, err
	}

	hash, err := auth.HashCredential(password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	player := &model.Player{
		Name:         name,
		Email:        identity,
		PasswordHash: hash,
		PolicyMonth:  model.MonthOf(now),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.SavePlayer(ctx, player); err != nil {
		return nil, err
	}

	s.logger.Info("player added",
		slog.String("player", string(identity)),
		slog.String("by", string(actor.Identity)),
	)
	return player, nil
}

// RemovePlayer deletes a roster member. Requires Host or CoHost; no
// identity may remove its own record.
func (s *Service) RemovePlayer(ctx context.Context, actor *auth.Session, email string) error {
	if !actor.Role.CanManageRoster() {
		return model.ErrPermission
	}

	identity := model.NormalizeIdentity(email)
	if identity == actor.Identity {
		return model.ErrSelfTarget
	}

	if err := s.store.DeletePlayer(ctx, identity); err != nil {
		return err
	}

	s.revoker.InvalidateIdentity(identity)

	s.logger.Info("player removed",
		slog.String("player", string(identity)),
		slog.String("by", string(actor.Identity)),
	)
	return nil
}

// PromoteToHost grants an existing player a host record with the given
// role and an independent credential. Requires Host or CoHost.
func (s *Service) PromoteToHost(ctx context.Context, actor *auth.Session, email string, role model.Role, password string) (*model.Host, error) {
	if !actor.Role.CanManageRoster() {
		return nil, model.ErrPermission
	}
	if role != model.RoleHost && role != model.RoleCoHost {
		return nil, model.ErrInvalidIdentity
	}

	identity := model.NormalizeIdentity(email)

	// Hosts are always also present as players
	player, err := s.store.GetPlayer(ctx, identity)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.GetHost(ctx, identity); err == nil {
		return nil, model.ErrHostExists
	} else if !errors.Is(err, model.ErrHostNotFound) {
		return nil, err
	}

	hash, err := auth.HashCredential(password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	host := &model.Host{
		Name:         player.Name,
		Email:        identity,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.SaveHost(ctx, host); err != nil {
		return nil, err
	}

	s.logger.Info("host promoted",
		slog.String("host", string(identity)),
		slog.String("role", string(role)),
		slog.String("by", string(actor.Identity)),
	)
	return host, nil
}

// RemoveHost deletes a host record. Only a full Host may remove a
// host; a CoHost is explicitly forbidden, and nobody removes their own
// record. The player record survives.
func (s *Service) RemoveHost(ctx context.Context, actor *auth.Session, email string) error {
	if !actor.Role.IsAdmin() {
		return model.ErrPermission
	}

	identity := model.NormalizeIdentity(email)
	if identity == actor.Identity {
		return model.ErrSelfTarget
	}

	if err := s.store.DeleteHost(ctx, identity); err != nil {
		return err
	}

	s.revoker.InvalidateHostSessions(identity)

	s.logger.Info("host removed",
		slog.String("host", string(identity)),
		slog.String("by", string(actor.Identity)),
	)
	return nil
}

// ListPlayers returns the full player roster
func (s *Service) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	return s.store.ListPlayers(ctx)
}

// ListHosts returns all host records
func (s *Service) ListHosts(ctx context.Context) ([]*model.Host, error) {
	return s.store.ListHosts(ctx)
}
