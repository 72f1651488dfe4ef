package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"my-race-engineer/internal/db"
	"my-race-engineer/internal/identity"
	"my-race-engineer/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeProfileReader struct {
	profile  *repository.RacerProfile
	exists   bool
	getCalls int
	err      error
}

func (f *fakeProfileReader) GetByUserID(ctx context.Context, userID uuid.UUID) (*repository.RacerProfile, error) {
	f.getCalls++
	if f.err != nil {
		return nil, f.err
	}
	if f.profile == nil || f.profile.UserID != userID {
		return nil, db.ErrNotFound
	}
	return f.profile, nil
}

func (f *fakeProfileReader) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	return f.exists, nil
}

type fakeLinkReader struct {
	links []repository.LinkWithEvent
	err   error
}

func (f *fakeLinkReader) ListLinksForUser(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]repository.LinkWithEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.links, nil
}

type fakeEntryReader struct {
	entries  []repository.EntryParticipation
	lastName string
	err      error
}

func (f *fakeEntryReader) FindByNormalizedDriverName(ctx context.Context, normalizedName string) ([]repository.EntryParticipation, error) {
	f.lastName = normalizedName
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

type fakeCache struct {
	stored      map[uuid.UUID][]byte
	setCalls    int
	invalidated []uuid.UUID
	getErr      error
	setErr      error
}

func newFakeCache() *fakeCache {
	return &fakeCache{stored: make(map[uuid.UUID][]byte)}
}

func (f *fakeCache) Get(ctx context.Context, userID uuid.UUID, dest any) (bool, error) {
	if f.getErr != nil {
		return false, f.getErr
	}
	payload, ok := f.stored[userID]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(payload, dest)
}

func (f *fakeCache) Set(ctx context.Context, userID uuid.UUID, value any) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.setCalls++
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.stored[userID] = payload
	return nil
}

func (f *fakeCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	f.invalidated = append(f.invalidated, userID)
	delete(f.stored, userID)
	return nil
}

func linkWithEvent(userID, eventID, driverID uuid.UUID, name string, date time.Time, matchType identity.MatchType, score float64, status repository.LinkStatus) repository.LinkWithEvent {
	return repository.LinkWithEvent{
		EventDriverLink: repository.EventDriverLink{
			ID:              uuid.New(),
			UserID:          userID,
			EventID:         eventID,
			DriverID:        driverID,
			MatchType:       matchType,
			MatchPriority:   identity.MatchPriority(matchType),
			SimilarityScore: score,
		},
		EventName: name,
		EventSlug: "slug-" + eventID.String()[:8],
		EventDate: date,
		Status:    status,
	}
}

func TestDiscoverEvents_UnknownUser(t *testing.T) {
	svc := NewDiscoveryService(&fakeProfileReader{exists: false}, &fakeLinkReader{}, &fakeEntryReader{}, newTestMetrics(), nil)

	result, err := svc.DiscoverEvents(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Nil(t, result)
}

func TestDiscoverEvents_NoProfileReturnsEmptyResult(t *testing.T) {
	entries := &fakeEntryReader{}
	svc := NewDiscoveryService(&fakeProfileReader{exists: true}, &fakeLinkReader{}, entries, newTestMetrics(), nil)

	result, err := svc.DiscoverEvents(context.Background(), uuid.New())
	assert.NoError(t, err)
	if assert.NotNil(t, result) {
		assert.False(t, result.HasDriverProfile)
		assert.Empty(t, result.Events)
		assert.Empty(t, result.Participations)
	}
	assert.Empty(t, entries.lastName, "entry fallback should not run without a profile")
}

func TestDiscoverEvents_LinksDeduplicateEvents(t *testing.T) {
	userID := uuid.New()
	eventID := uuid.New()
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	profiles := &fakeProfileReader{
		profile: &repository.RacerProfile{UserID: userID, DriverName: "Jayson Brenton"},
		exists:  true,
	}
	links := &fakeLinkReader{links: []repository.LinkWithEvent{
		linkWithEvent(userID, eventID, uuid.New(), "Club Race Round 5", date, identity.MatchTypeExact, 1.0, repository.LinkStatusConfirmed),
		linkWithEvent(userID, eventID, uuid.New(), "Club Race Round 5", date, identity.MatchTypeFuzzy, 0.86, repository.LinkStatusSuggested),
	}}
	svc := NewDiscoveryService(profiles, links, &fakeEntryReader{}, newTestMetrics(), nil)

	result, err := svc.DiscoverEvents(context.Background(), userID)
	assert.NoError(t, err)
	assert.True(t, result.HasDriverProfile)
	assert.Len(t, result.Events, 1)
	assert.Len(t, result.Participations, 2)
	assert.Equal(t, SourceLink, result.Participations[0].Source)
	assert.Equal(t, repository.LinkStatusConfirmed, result.Participations[0].Status)
	assert.Equal(t, repository.LinkStatusSuggested, result.Participations[1].Status)
}

func TestDiscoverEvents_EntryFallbackForUncoveredEvents(t *testing.T) {
	userID := uuid.New()
	eventID := uuid.New()
	driverID := uuid.New()

	// Events ingested before the user signed up have no links; the
	// roster scan must still surface them.
	profiles := &fakeProfileReader{
		profile: &repository.RacerProfile{UserID: userID, DriverName: "Jayson Brenton"},
		exists:  true,
	}
	entries := &fakeEntryReader{entries: []repository.EntryParticipation{
		{
			EventID:   eventID,
			EventName: "Summer Series Round 2",
			EventSlug: "summer-series-round-2",
			EventDate: time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC),
			DriverID:  driverID,
			ClassName: "Mod Buggy",
		},
	}}
	svc := NewDiscoveryService(profiles, &fakeLinkReader{}, entries, newTestMetrics(), nil)

	result, err := svc.DiscoverEvents(context.Background(), userID)
	assert.NoError(t, err)
	assert.Equal(t, "JAYSON BRENTON", entries.lastName)
	assert.Len(t, result.Events, 1)
	assert.Equal(t, "Summer Series Round 2", result.Events[0].Name)

	if assert.Len(t, result.Participations, 1) {
		p := result.Participations[0]
		assert.Equal(t, SourceEntry, p.Source)
		assert.Equal(t, identity.MatchTypeExact, p.MatchType)
		assert.Equal(t, 1.0, p.SimilarityScore)
		assert.Equal(t, repository.LinkStatusSuggested, p.Status)
	}
}

func TestDiscoverEvents_LinkWinsOverEntryFallback(t *testing.T) {
	userID := uuid.New()
	eventID := uuid.New()
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	profiles := &fakeProfileReader{
		profile: &repository.RacerProfile{UserID: userID, DriverName: "Jayson Brenton"},
		exists:  true,
	}
	links := &fakeLinkReader{links: []repository.LinkWithEvent{
		linkWithEvent(userID, eventID, uuid.New(), "Club Race Round 5", date, identity.MatchTypeTransponder, 1.0, repository.LinkStatusConfirmed),
	}}
	entries := &fakeEntryReader{entries: []repository.EntryParticipation{
		{EventID: eventID, EventName: "Club Race Round 5", EventDate: date, DriverID: uuid.New()},
	}}
	svc := NewDiscoveryService(profiles, links, entries, newTestMetrics(), nil)

	result, err := svc.DiscoverEvents(context.Background(), userID)
	assert.NoError(t, err)
	assert.Len(t, result.Events, 1)
	if assert.Len(t, result.Participations, 1) {
		assert.Equal(t, SourceLink, result.Participations[0].Source)
		assert.Equal(t, identity.MatchTypeTransponder, result.Participations[0].MatchType)
	}
}

func TestDiscoverEvents_SortsEventsNewestFirst(t *testing.T) {
	userID := uuid.New()
	oldEvent := uuid.New()
	newEvent := uuid.New()

	profiles := &fakeProfileReader{
		profile: &repository.RacerProfile{UserID: userID, DriverName: "Jayson Brenton"},
		exists:  true,
	}
	links := &fakeLinkReader{links: []repository.LinkWithEvent{
		linkWithEvent(userID, oldEvent, uuid.New(), "Old Race", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), identity.MatchTypeExact, 1.0, repository.LinkStatusSuggested),
	}}
	entries := &fakeEntryReader{entries: []repository.EntryParticipation{
		{EventID: newEvent, EventName: "New Race", EventDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), DriverID: uuid.New()},
	}}
	svc := NewDiscoveryService(profiles, links, entries, newTestMetrics(), nil)

	result, err := svc.DiscoverEvents(context.Background(), userID)
	assert.NoError(t, err)
	if assert.Len(t, result.Events, 2) {
		assert.Equal(t, "New Race", result.Events[0].Name)
		assert.Equal(t, "Old Race", result.Events[1].Name)
	}
}

func TestDiscoverEvents_CacheHitSkipsRepositories(t *testing.T) {
	userID := uuid.New()
	cache := newFakeCache()
	cached := &DiscoveryResult{
		HasDriverProfile: true,
		Events:           []DiscoveredEvent{{ID: uuid.New(), Name: "Cached Race"}},
		Participations:   []ParticipationDetail{},
	}
	payload, err := json.Marshal(cached)
	assert.NoError(t, err)
	cache.stored[userID] = payload

	profiles := &fakeProfileReader{exists: true}
	svc := NewDiscoveryService(profiles, &fakeLinkReader{}, &fakeEntryReader{}, newTestMetrics(), cache)

	result, err := svc.DiscoverEvents(context.Background(), userID)
	assert.NoError(t, err)
	if assert.Len(t, result.Events, 1) {
		assert.Equal(t, "Cached Race", result.Events[0].Name)
	}
	assert.Equal(t, 0, profiles.getCalls)
}

func TestDiscoverEvents_CacheMissPopulates(t *testing.T) {
	userID := uuid.New()
	cache := newFakeCache()
	profiles := &fakeProfileReader{
		profile: &repository.RacerProfile{UserID: userID, DriverName: "Jayson Brenton"},
		exists:  true,
	}
	svc := NewDiscoveryService(profiles, &fakeLinkReader{}, &fakeEntryReader{}, newTestMetrics(), cache)

	_, err := svc.DiscoverEvents(context.Background(), userID)
	assert.NoError(t, err)
	assert.Equal(t, 1, cache.setCalls)
	assert.Equal(t, 1, profiles.getCalls)

	_, err = svc.DiscoverEvents(context.Background(), userID)
	assert.NoError(t, err)
	assert.Equal(t, 1, profiles.getCalls, "second call should be served from cache")
}

func TestDiscoverEvents_CacheErrorFallsThroughToRepositories(t *testing.T) {
	userID := uuid.New()
	cache := newFakeCache()
	cache.getErr = assert.AnError
	profiles := &fakeProfileReader{
		profile: &repository.RacerProfile{UserID: userID, DriverName: "Jayson Brenton"},
		exists:  true,
	}
	svc := NewDiscoveryService(profiles, &fakeLinkReader{}, &fakeEntryReader{}, newTestMetrics(), cache)

	result, err := svc.DiscoverEvents(context.Background(), userID)
	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, 1, profiles.getCalls)
}
