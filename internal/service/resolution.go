package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"my-race-engineer/internal/db"
	"my-race-engineer/internal/identity"
	"my-race-engineer/internal/logger"
	"my-race-engineer/internal/matching"
	"my-race-engineer/internal/metrics"
	"my-race-engineer/internal/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// IngestDriver is one competitor in an ingested result sheet.
type IngestDriver struct {
	SourceDriverID string
	DisplayName    string
	Transponder    string
}

// IngestEntry is one class entry in an ingested result sheet.
type IngestEntry struct {
	SourceDriverID string
	ClassName      string
	Transponder    string
}

// IngestRequest is a full event result sheet from an upstream timing
// system: the event, its competitors, and their class entries.
type IngestRequest struct {
	SourceEventID string
	EventName     string
	EventDate     time.Time
	Track         string
	Drivers       []IngestDriver
	Entries       []IngestEntry
}

// IngestSummary reports what an ingest run persisted.
type IngestSummary struct {
	EventID         uuid.UUID `json:"event_id"`
	EventSlug       string    `json:"event_slug"`
	DriversUpserted int       `json:"drivers_upserted"`
	EntriesUpserted int       `json:"entries_upserted"`
	ProfilesScanned int       `json:"profiles_scanned"`
	LinksCreated    int       `json:"links_created"`
	LinksUpdated    int       `json:"links_updated"`
	LinksUnchanged  int       `json:"links_unchanged"`
}

// EvaluationResult reports a single user-driver match evaluation.
type EvaluationResult struct {
	Matched         bool
	MatchType       identity.MatchType
	SimilarityScore float64
	Classification  matching.MatchClass
	Outcome         repository.UpsertOutcome
	Link            *repository.EventDriverLink
}

// RematchStats reports what a rematch pass did for one user.
type RematchStats struct {
	UserID              uuid.UUID `json:"user_id"`
	CandidatesEvaluated int       `json:"candidates_evaluated"`
	LinksCreated        int       `json:"links_created"`
	LinksUpdated        int       `json:"links_updated"`
}

type profileStore interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*repository.RacerProfile, error)
	ListAll(ctx context.Context) ([]repository.RacerProfile, error)
	ListUpdatedSince(ctx context.Context, since time.Time) ([]repository.RacerProfile, error)
}

type driverStore interface {
	UpsertBySourceID(ctx context.Context, params repository.UpsertDriverParams) (*repository.Driver, error)
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Driver, error)
}

type eventStore interface {
	UpsertBySourceID(ctx context.Context, params repository.UpsertEventParams) (*repository.Event, error)
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Event, error)
}

type entryStore interface {
	Upsert(ctx context.Context, params repository.UpsertEntryParams) (*repository.EventEntry, error)
	ListUnlinkedForUser(ctx context.Context, userID uuid.UUID) ([]repository.EntryCandidate, error)
}

type linkWriter interface {
	UpsertEventDriverLink(ctx context.Context, params repository.UpsertEventDriverLinkParams) (*repository.EventDriverLink, repository.UpsertOutcome, error)
}

// ResolutionService runs the identity resolution pipeline: ingesting
// result sheets, evaluating user-driver matches, and persisting links.
type ResolutionService struct {
	profileRepo profileStore
	driverRepo  driverStore
	eventRepo   eventStore
	entryRepo   entryStore
	linkRepo    linkWriter
	matcher     *identity.Matcher
	metrics     *metrics.MatchingMetrics
	cache       DiscoveryCache
}

// NewResolutionService creates a new resolution service. A nil cache
// disables discovery invalidation.
func NewResolutionService(
	profileRepo profileStore,
	driverRepo driverStore,
	eventRepo eventStore,
	entryRepo entryStore,
	linkRepo linkWriter,
	matcher *identity.Matcher,
	m *metrics.MatchingMetrics,
	cache DiscoveryCache,
) *ResolutionService {
	return &ResolutionService{
		profileRepo: profileRepo,
		driverRepo:  driverRepo,
		eventRepo:   eventRepo,
		entryRepo:   entryRepo,
		linkRepo:    linkRepo,
		matcher:     matcher,
		metrics:     m,
		cache:       cache,
	}
}

// IngestEventResults persists an event result sheet and evaluates every
// racer profile against its drivers, recording links for every match.
// Re-ingesting the same sheet is idempotent.
func (s *ResolutionService) IngestEventResults(ctx context.Context, req IngestRequest) (*IngestSummary, error) {
	eventSlug := slug.Make(fmt.Sprintf("%s %s", req.EventName, req.EventDate.Format("2006-01-02")))

	event, err := s.eventRepo.UpsertBySourceID(ctx, repository.UpsertEventParams{
		SourceEventID: req.SourceEventID,
		Name:          req.EventName,
		Slug:          eventSlug,
		EventDate:     req.EventDate,
		Track:         req.Track,
	})
	if err != nil {
		return nil, err
	}

	drivers := make(map[string]*repository.Driver, len(req.Drivers))
	for _, d := range req.Drivers {
		driver, err := s.driverRepo.UpsertBySourceID(ctx, repository.UpsertDriverParams{
			SourceDriverID:     d.SourceDriverID,
			DisplayName:        d.DisplayName,
			NormalizedName:     matching.NormalizeName(d.DisplayName),
			DefaultTransponder: matching.NormalizeTransponder(d.Transponder),
		})
		if err != nil {
			return nil, err
		}
		drivers[d.SourceDriverID] = driver
	}

	// Transponders recorded on entries take precedence over the
	// driver's default when evaluating matches for this event.
	entryTransponders := make(map[string]string, len(req.Entries))
	entriesUpserted := 0
	for _, e := range req.Entries {
		driver, ok := drivers[e.SourceDriverID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownDriverRef, e.SourceDriverID)
		}

		transponder := matching.NormalizeTransponder(e.Transponder)
		if _, err := s.entryRepo.Upsert(ctx, repository.UpsertEntryParams{
			EventID:           event.ID,
			DriverID:          driver.ID,
			ClassName:         e.ClassName,
			TransponderNumber: transponder,
		}); err != nil {
			return nil, err
		}
		entriesUpserted++

		if transponder != "" && entryTransponders[e.SourceDriverID] == "" {
			entryTransponders[e.SourceDriverID] = transponder
		}
	}

	profiles, err := s.profileRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	summary := &IngestSummary{
		EventID:         event.ID,
		EventSlug:       event.Slug,
		DriversUpserted: len(drivers),
		EntriesUpserted: entriesUpserted,
		ProfilesScanned: len(profiles),
	}

	touched := make(map[uuid.UUID]bool)
	for i := range profiles {
		user := userIdentityFromProfile(&profiles[i])
		for _, d := range req.Drivers {
			driver := drivers[d.SourceDriverID]
			record := identity.DriverRecord{
				DriverID:          driver.ID,
				DisplayName:       driver.DisplayName,
				NormalizedName:    driver.NormalizedName,
				TransponderNumber: firstNonEmpty(entryTransponders[d.SourceDriverID], derefString(driver.DefaultTransponder)),
			}

			result := s.matcher.Match(user, record)
			if result == nil {
				s.metrics.RecordEvaluation(metrics.OutcomeNone)
				continue
			}
			s.recordEvaluation(result)

			_, outcome, err := s.linkRepo.UpsertEventDriverLink(ctx, repository.UpsertEventDriverLinkParams{
				UserID:          user.UserID,
				EventID:         event.ID,
				DriverID:        driver.ID,
				MatchType:       result.MatchType,
				SimilarityScore: result.SimilarityScore,
			})
			if err != nil {
				return nil, err
			}
			s.metrics.RecordLinkUpsert(string(outcome))
			summary.countUpsert(outcome)
			touched[user.UserID] = true
		}
	}

	s.invalidateUsers(ctx, touched)
	s.metrics.RecordIngest()

	logger.Info().
		Str("event_id", event.ID.String()).
		Str("slug", event.Slug).
		Int("drivers", summary.DriversUpserted).
		Int("entries", summary.EntriesUpserted).
		Int("links_created", summary.LinksCreated).
		Int("links_updated", summary.LinksUpdated).
		Msg("ingested event results")

	return summary, nil
}

// EvaluateAndPersist runs one user-driver evaluation for an event and
// persists the link when the pair matches. A non-match is a valid
// outcome, not an error.
func (s *ResolutionService) EvaluateAndPersist(ctx context.Context, userID, eventID, driverID uuid.UUID) (*EvaluationResult, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNoDriverProfile
	}
	if err != nil {
		return nil, err
	}

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("loading driver: %w", err)
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("loading event: %w", err)
	}

	user := userIdentityFromProfile(profile)
	record := identity.DriverRecord{
		DriverID:          driver.ID,
		DisplayName:       driver.DisplayName,
		NormalizedName:    driver.NormalizedName,
		TransponderNumber: derefString(driver.DefaultTransponder),
	}

	result := s.matcher.Match(user, record)
	if result == nil {
		s.metrics.RecordEvaluation(metrics.OutcomeNone)
		return &EvaluationResult{Matched: false, Classification: matching.ClassNoMatch}, nil
	}
	s.recordEvaluation(result)

	link, outcome, err := s.linkRepo.UpsertEventDriverLink(ctx, repository.UpsertEventDriverLinkParams{
		UserID:          userID,
		EventID:         event.ID,
		DriverID:        driver.ID,
		MatchType:       result.MatchType,
		SimilarityScore: result.SimilarityScore,
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLinkUpsert(string(outcome))
	s.invalidateUser(ctx, userID)

	return &EvaluationResult{
		Matched:         true,
		MatchType:       result.MatchType,
		SimilarityScore: result.SimilarityScore,
		Classification:  s.matcher.Config().Classify(result.SimilarityScore),
		Outcome:         outcome,
		Link:            link,
	}, nil
}

// RematchUser re-evaluates every entry the user has no link for yet.
// Called after profile edits and by the periodic sweep so profiles
// created after ingestion still pick up their history.
func (s *ResolutionService) RematchUser(ctx context.Context, userID uuid.UUID) (*RematchStats, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNoDriverProfile
	}
	if err != nil {
		return nil, err
	}

	candidates, err := s.entryRepo.ListUnlinkedForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user := userIdentityFromProfile(profile)
	stats := &RematchStats{UserID: userID}

	for _, c := range candidates {
		stats.CandidatesEvaluated++

		record := identity.DriverRecord{
			DriverID:          c.DriverID,
			DisplayName:       c.DriverDisplayName,
			NormalizedName:    c.DriverNormalizedName,
			TransponderNumber: firstNonEmpty(derefString(c.EntryTransponder), derefString(c.DriverTransponder)),
		}

		result := s.matcher.Match(user, record)
		if result == nil {
			s.metrics.RecordEvaluation(metrics.OutcomeNone)
			continue
		}
		s.recordEvaluation(result)

		_, outcome, err := s.linkRepo.UpsertEventDriverLink(ctx, repository.UpsertEventDriverLinkParams{
			UserID:          userID,
			EventID:         c.EventID,
			DriverID:        c.DriverID,
			MatchType:       result.MatchType,
			SimilarityScore: result.SimilarityScore,
		})
		if err != nil {
			return nil, err
		}
		s.metrics.RecordLinkUpsert(string(outcome))
		switch outcome {
		case repository.UpsertCreated:
			stats.LinksCreated++
		case repository.UpsertUpdated:
			stats.LinksUpdated++
		}
	}

	if stats.LinksCreated > 0 || stats.LinksUpdated > 0 {
		s.invalidateUser(ctx, userID)
	}

	return stats, nil
}

// RematchSweep runs RematchUser for profiles updated since the given
// time, or for every profile when since is zero.
func (s *ResolutionService) RematchSweep(ctx context.Context, since time.Time) ([]RematchStats, error) {
	var profiles []repository.RacerProfile
	var err error
	if since.IsZero() {
		profiles, err = s.profileRepo.ListAll(ctx)
	} else {
		profiles, err = s.profileRepo.ListUpdatedSince(ctx, since)
	}
	if err != nil {
		return nil, err
	}

	results := make([]RematchStats, 0, len(profiles))
	for _, p := range profiles {
		stats, err := s.RematchUser(ctx, p.UserID)
		if err != nil {
			logger.Warn().Err(err).Str("user_id", p.UserID.String()).Msg("rematch failed for user")
			continue
		}
		results = append(results, *stats)
	}

	return results, nil
}

func (s *ResolutionService) recordEvaluation(result *identity.MatchResult) {
	switch result.MatchType {
	case identity.MatchTypeTransponder:
		s.metrics.RecordEvaluation(metrics.OutcomeTransponder)
	case identity.MatchTypeExact:
		s.metrics.RecordEvaluation(metrics.OutcomeExact)
	case identity.MatchTypeFuzzy:
		s.metrics.RecordEvaluation(metrics.OutcomeFuzzy)
		s.metrics.ObserveSimilarity(result.SimilarityScore)
	}
}

func (s *ResolutionService) invalidateUser(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		logger.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to invalidate discovery cache")
	}
}

func (s *ResolutionService) invalidateUsers(ctx context.Context, userIDs map[uuid.UUID]bool) {
	for userID := range userIDs {
		s.invalidateUser(ctx, userID)
	}
}

func (sum *IngestSummary) countUpsert(outcome repository.UpsertOutcome) {
	switch outcome {
	case repository.UpsertCreated:
		sum.LinksCreated++
	case repository.UpsertUpdated:
		sum.LinksUpdated++
	case repository.UpsertUnchanged:
		sum.LinksUnchanged++
	}
}

func userIdentityFromProfile(p *repository.RacerProfile) identity.UserIdentity {
	return identity.UserIdentity{
		UserID:            p.UserID,
		DriverName:        p.DriverName,
		NormalizedName:    derefString(p.NormalizedName),
		TransponderNumber: derefString(p.TransponderNumber),
	}
}

func derefString(s *string) string {
	if s != nil {
		return *s
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
