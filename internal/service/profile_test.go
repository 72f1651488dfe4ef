package service

import (
	"context"
	"testing"

	"my-race-engineer/internal/db"
	"my-race-engineer/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeProfileAccessor struct {
	profile    *repository.RacerProfile
	exists     bool
	lastUpsert *repository.UpsertRacerProfileParams
	err        error
}

func (f *fakeProfileAccessor) GetByUserID(ctx context.Context, userID uuid.UUID) (*repository.RacerProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.profile == nil || f.profile.UserID != userID {
		return nil, db.ErrNotFound
	}
	return f.profile, nil
}

func (f *fakeProfileAccessor) Upsert(ctx context.Context, params repository.UpsertRacerProfileParams) (*repository.RacerProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastUpsert = &params

	profile := &repository.RacerProfile{
		UserID:     params.UserID,
		DriverName: params.DriverName,
	}
	if params.NormalizedName != "" {
		profile.NormalizedName = stringPtr(params.NormalizedName)
	}
	if params.TransponderNumber != "" {
		profile.TransponderNumber = stringPtr(params.TransponderNumber)
	}
	f.profile = profile
	return profile, nil
}

func (f *fakeProfileAccessor) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	return f.exists, nil
}

type fakeRematcher struct {
	stats *RematchStats
	calls int
	err   error
}

func (f *fakeRematcher) RematchUser(ctx context.Context, userID uuid.UUID) (*RematchStats, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.stats != nil {
		return f.stats, nil
	}
	return &RematchStats{UserID: userID}, nil
}

func TestGetProfile_UnknownUser(t *testing.T) {
	svc := NewProfileService(&fakeProfileAccessor{exists: false}, &fakeRematcher{}, nil)

	profile, err := svc.GetProfile(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Nil(t, profile)
}

func TestGetProfile_UserWithoutProfile(t *testing.T) {
	svc := NewProfileService(&fakeProfileAccessor{exists: true}, &fakeRematcher{}, nil)

	profile, err := svc.GetProfile(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNoDriverProfile)
	assert.Nil(t, profile)
}

func TestGetProfile_Found(t *testing.T) {
	userID := uuid.New()
	repo := &fakeProfileAccessor{
		profile: &repository.RacerProfile{UserID: userID, DriverName: "Jayson Brenton"},
		exists:  true,
	}
	svc := NewProfileService(repo, &fakeRematcher{}, nil)

	profile, err := svc.GetProfile(context.Background(), userID)
	assert.NoError(t, err)
	if assert.NotNil(t, profile) {
		assert.Equal(t, "Jayson Brenton", profile.DriverName)
	}
}

func TestUpdateProfile_NormalizesAndRematches(t *testing.T) {
	userID := uuid.New()
	repo := &fakeProfileAccessor{exists: true}
	rematch := &fakeRematcher{stats: &RematchStats{UserID: userID, LinksCreated: 3}}
	cache := newFakeCache()
	svc := NewProfileService(repo, rematch, cache)

	profile, stats, err := svc.UpdateProfile(context.Background(), userID, "  Jayson Brenton ", " 7712345 ")
	assert.NoError(t, err)
	assert.NotNil(t, profile)
	if assert.NotNil(t, stats) {
		assert.Equal(t, 3, stats.LinksCreated)
	}

	if assert.NotNil(t, repo.lastUpsert) {
		assert.Equal(t, "Jayson Brenton", repo.lastUpsert.DriverName)
		assert.Equal(t, "JAYSON BRENTON", repo.lastUpsert.NormalizedName)
		assert.Equal(t, "7712345", repo.lastUpsert.TransponderNumber)
	}
	assert.Equal(t, 1, rematch.calls)
	assert.Equal(t, []uuid.UUID{userID}, cache.invalidated)
}

func TestUpdateProfile_MalformedTransponderDegradesToNameOnly(t *testing.T) {
	userID := uuid.New()
	repo := &fakeProfileAccessor{exists: true}
	svc := NewProfileService(repo, &fakeRematcher{}, nil)

	_, _, err := svc.UpdateProfile(context.Background(), userID, "Jayson Brenton", "12AB34")
	assert.NoError(t, err)
	if assert.NotNil(t, repo.lastUpsert) {
		assert.Empty(t, repo.lastUpsert.TransponderNumber)
	}
}

func TestUpdateProfile_UnknownUser(t *testing.T) {
	svc := NewProfileService(&fakeProfileAccessor{exists: false}, &fakeRematcher{}, nil)

	profile, stats, err := svc.UpdateProfile(context.Background(), uuid.New(), "Jayson Brenton", "")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Nil(t, profile)
	assert.Nil(t, stats)
}

func TestUpdateProfile_RematchFailureStillSavesProfile(t *testing.T) {
	userID := uuid.New()
	repo := &fakeProfileAccessor{exists: true}
	rematch := &fakeRematcher{err: assert.AnError}
	svc := NewProfileService(repo, rematch, nil)

	profile, stats, err := svc.UpdateProfile(context.Background(), userID, "Jayson Brenton", "")
	assert.NoError(t, err)
	assert.NotNil(t, profile)
	assert.Nil(t, stats)
	assert.Equal(t, 1, rematch.calls)
}
