package service

import (
	"context"
	"errors"
	"strings"

	"my-race-engineer/internal/db"
	"my-race-engineer/internal/logger"
	"my-race-engineer/internal/matching"
	"my-race-engineer/internal/repository"

	"github.com/google/uuid"
)

type profileAccessor interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*repository.RacerProfile, error)
	Upsert(ctx context.Context, params repository.UpsertRacerProfileParams) (*repository.RacerProfile, error)
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
}

type rematcher interface {
	RematchUser(ctx context.Context, userID uuid.UUID) (*RematchStats, error)
}

// ProfileService manages racer profiles: the user's stated driver name
// and transponder. Edits re-run matching so the new identity picks up
// any entries it now matches.
type ProfileService struct {
	profileRepo profileAccessor
	rematch     rematcher
	cache       DiscoveryCache
}

// NewProfileService creates a new profile service. A nil cache disables
// discovery invalidation.
func NewProfileService(profileRepo profileAccessor, rematch rematcher, cache DiscoveryCache) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		rematch:     rematch,
		cache:       cache,
	}
}

// GetProfile returns the user's racer profile. Distinguishes an unknown
// user (ErrUserNotFound) from a user who has not set one up yet
// (ErrNoDriverProfile).
func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*repository.RacerProfile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		exists, exErr := s.profileRepo.UserExists(ctx, userID)
		if exErr != nil {
			return nil, exErr
		}
		if !exists {
			return nil, ErrUserNotFound
		}
		return nil, ErrNoDriverProfile
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// UpdateProfile stores the user's driver name and transponder, caching
// the normalized name alongside, then re-runs matching for the user.
// The rematch stats are nil when the rematch pass failed; the profile
// write itself is never rolled back for that.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, driverName, transponder string) (*repository.RacerProfile, *RematchStats, error) {
	exists, err := s.profileRepo.UserExists(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if !exists {
		return nil, nil, ErrUserNotFound
	}

	driverName = strings.TrimSpace(driverName)

	profile, err := s.profileRepo.Upsert(ctx, repository.UpsertRacerProfileParams{
		UserID:            userID,
		DriverName:        driverName,
		NormalizedName:    matching.NormalizeName(driverName),
		TransponderNumber: matching.NormalizeTransponder(transponder),
	})
	if err != nil {
		return nil, nil, err
	}

	stats, err := s.rematch.RematchUser(ctx, userID)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID.String()).Msg("rematch after profile update failed")
		stats = nil
	}

	s.invalidate(ctx, userID)

	logger.Info().
		Str("user_id", userID.String()).
		Str("driver_name", driverName).
		Msg("updated racer profile")

	return profile, stats, nil
}

func (s *ProfileService) invalidate(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		logger.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to invalidate discovery cache")
	}
}
