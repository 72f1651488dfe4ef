package service

import (
	"context"

	"my-race-engineer/internal/logger"
	"my-race-engineer/internal/metrics"
	"my-race-engineer/internal/repository"

	"github.com/google/uuid"
)

type linkStore interface {
	ListLinksForUser(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]repository.LinkWithEvent, error)
	CountLinksForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	SetUserDriverLinkStatus(ctx context.Context, userID, driverID uuid.UUID, status repository.LinkStatus) (*repository.UserDriverLink, error)
}

type userChecker interface {
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
}

// LinkService exposes a user's match links and records their
// confirm/reject decisions.
type LinkService struct {
	linkRepo    linkStore
	profileRepo userChecker
	metrics     *metrics.MatchingMetrics
	cache       DiscoveryCache
}

// NewLinkService creates a new link service. A nil cache disables
// discovery invalidation.
func NewLinkService(linkRepo linkStore, profileRepo userChecker, m *metrics.MatchingMetrics, cache DiscoveryCache) *LinkService {
	return &LinkService{
		linkRepo:    linkRepo,
		profileRepo: profileRepo,
		metrics:     m,
		cache:       cache,
	}
}

// ListUserLinks returns a page of the user's links with their event
// context, plus the total count.
func (s *LinkService) ListUserLinks(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]repository.LinkWithEvent, int64, error) {
	exists, err := s.profileRepo.UserExists(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	if !exists {
		return nil, 0, ErrUserNotFound
	}

	links, err := s.linkRepo.ListLinksForUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.linkRepo.CountLinksForUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	return links, total, nil
}

// SetLinkStatus records a user's confirm or reject decision about a
// driver. Repeating the same decision is idempotent. Returns
// db.ErrNotFound when no link evidence ties the user to the driver.
func (s *LinkService) SetLinkStatus(ctx context.Context, userID, driverID uuid.UUID, status repository.LinkStatus) (*repository.UserDriverLink, error) {
	if !status.IsUserDecision() {
		return nil, ErrInvalidStatus
	}

	link, err := s.linkRepo.SetUserDriverLinkStatus(ctx, userID, driverID, status)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLinkDecision(string(status))
	s.invalidate(ctx, userID)

	logger.Info().
		Str("user_id", userID.String()).
		Str("driver_id", driverID.String()).
		Str("status", string(status)).
		Msg("recorded link decision")

	return link, nil
}

func (s *LinkService) invalidate(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		logger.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to invalidate discovery cache")
	}
}
