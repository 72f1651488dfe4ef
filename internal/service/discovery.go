package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"my-race-engineer/internal/db"
	"my-race-engineer/internal/identity"
	"my-race-engineer/internal/logger"
	"my-race-engineer/internal/matching"
	"my-race-engineer/internal/metrics"
	"my-race-engineer/internal/repository"

	"github.com/google/uuid"
)

// ParticipationSource tags where a discovered participation came from.
type ParticipationSource string

const (
	// SourceLink means a persisted event-driver link produced the row.
	SourceLink ParticipationSource = "link"
	// SourceEntry means a name-equality scan over raw entries produced
	// the row; no link has been persisted yet.
	SourceEntry ParticipationSource = "entry"
)

// DiscoveredEvent is one event the user appears to have raced in.
type DiscoveredEvent struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	EventDate time.Time `json:"event_date"`
	Track     string    `json:"track"`
}

// ParticipationDetail explains why an event was discovered for the user.
type ParticipationDetail struct {
	EventID         uuid.UUID             `json:"event_id"`
	DriverID        uuid.UUID             `json:"driver_id"`
	Source          ParticipationSource   `json:"source"`
	MatchType       identity.MatchType    `json:"match_type"`
	SimilarityScore float64               `json:"similarity_score"`
	Status          repository.LinkStatus `json:"status"`
}

// DiscoveryResult is the aggregated participation view for one user.
type DiscoveryResult struct {
	HasDriverProfile bool                  `json:"has_driver_profile"`
	Events           []DiscoveredEvent     `json:"events"`
	Participations   []ParticipationDetail `json:"participations"`
}

// DiscoveryCache caches discovery results per user. Implemented by
// cache.DiscoveryCache; a nil cache disables caching.
type DiscoveryCache interface {
	Get(ctx context.Context, userID uuid.UUID, dest any) (bool, error)
	Set(ctx context.Context, userID uuid.UUID, value any) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

type profileReader interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*repository.RacerProfile, error)
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
}

type linkReader interface {
	ListLinksForUser(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]repository.LinkWithEvent, error)
}

type entryReader interface {
	FindByNormalizedDriverName(ctx context.Context, normalizedName string) ([]repository.EntryParticipation, error)
}

// DiscoveryService aggregates a user's event participation from
// persisted links and, for events ingested before the user signed up,
// from raw entries whose driver name equals the user's.
type DiscoveryService struct {
	profileRepo profileReader
	linkRepo    linkReader
	entryRepo   entryReader
	metrics     *metrics.MatchingMetrics
	cache       DiscoveryCache
}

// NewDiscoveryService creates a new discovery service. A nil cache
// disables result caching.
func NewDiscoveryService(profileRepo profileReader, linkRepo linkReader, entryRepo entryReader, m *metrics.MatchingMetrics, cache DiscoveryCache) *DiscoveryService {
	return &DiscoveryService{
		profileRepo: profileRepo,
		linkRepo:    linkRepo,
		entryRepo:   entryRepo,
		metrics:     m,
		cache:       cache,
	}
}

// DiscoverEvents returns every event the user participated in, each
// reported exactly once. Links win over entry-name fallback for the
// same event. A user without a racer profile gets an empty result so
// the client can render profile setup guidance; an unknown user gets
// ErrUserNotFound.
func (s *DiscoveryService) DiscoverEvents(ctx context.Context, userID uuid.UUID) (*DiscoveryResult, error) {
	if s.cache == nil {
		s.metrics.RecordDiscovery(metrics.CacheOff)
		return s.discoverEvents(ctx, userID)
	}

	var cached DiscoveryResult
	found, err := s.cache.Get(ctx, userID, &cached)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID.String()).Msg("discovery cache read failed")
	}
	if found {
		s.metrics.RecordDiscovery(metrics.CacheHit)
		return &cached, nil
	}
	s.metrics.RecordDiscovery(metrics.CacheMiss)

	result, err := s.discoverEvents(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, userID, result); err != nil {
		logger.Warn().Err(err).Str("user_id", userID.String()).Msg("discovery cache write failed")
	}

	return result, nil
}

func (s *DiscoveryService) discoverEvents(ctx context.Context, userID uuid.UUID) (*DiscoveryResult, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		exists, exErr := s.profileRepo.UserExists(ctx, userID)
		if exErr != nil {
			return nil, exErr
		}
		if !exists {
			return nil, ErrUserNotFound
		}
		return &DiscoveryResult{
			HasDriverProfile: false,
			Events:           []DiscoveredEvent{},
			Participations:   []ParticipationDetail{},
		}, nil
	}
	if err != nil {
		return nil, err
	}

	links, err := s.linkRepo.ListLinksForUser(ctx, userID, 0, 0)
	if err != nil {
		return nil, err
	}

	result := &DiscoveryResult{
		HasDriverProfile: true,
		Events:           []DiscoveredEvent{},
		Participations:   []ParticipationDetail{},
	}

	covered := make(map[uuid.UUID]bool)
	for _, l := range links {
		if !covered[l.EventID] {
			covered[l.EventID] = true
			result.Events = append(result.Events, DiscoveredEvent{
				ID:        l.EventID,
				Name:      l.EventName,
				Slug:      l.EventSlug,
				EventDate: l.EventDate,
				Track:     l.Track,
			})
		}
		result.Participations = append(result.Participations, ParticipationDetail{
			EventID:         l.EventID,
			DriverID:        l.DriverID,
			Source:          SourceLink,
			MatchType:       l.MatchType,
			SimilarityScore: l.SimilarityScore,
			Status:          l.Status,
		})
	}

	normalized := derefString(profile.NormalizedName)
	if normalized == "" {
		normalized = matching.NormalizeName(profile.DriverName)
	}

	if normalized != "" {
		entries, err := s.entryRepo.FindByNormalizedDriverName(ctx, normalized)
		if err != nil {
			return nil, err
		}

		for _, e := range entries {
			if covered[e.EventID] {
				continue
			}
			covered[e.EventID] = true

			result.Events = append(result.Events, DiscoveredEvent{
				ID:        e.EventID,
				Name:      e.EventName,
				Slug:      e.EventSlug,
				EventDate: e.EventDate,
				Track:     e.Track,
			})
			result.Participations = append(result.Participations, ParticipationDetail{
				EventID:         e.EventID,
				DriverID:        e.DriverID,
				Source:          SourceEntry,
				MatchType:       identity.MatchTypeExact,
				SimilarityScore: 1.0,
				Status:          repository.LinkStatusSuggested,
			})
		}
	}

	sort.Slice(result.Events, func(i, j int) bool {
		return result.Events[i].EventDate.After(result.Events[j].EventDate)
	})

	return result, nil
}
