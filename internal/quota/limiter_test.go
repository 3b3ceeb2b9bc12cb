package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"quartier-watch/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeStore struct {
	postCount   int64
	countErr    error
	latestAlert *models.Alert
	latestErr   error
	sinceSeen   time.Time
}

func (f *fakeStore) CountPostsByAuthorSince(ctx context.Context, authorID uuid.UUID, since time.Time) (int64, error) {
	f.sinceSeen = since
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.postCount, nil
}

func (f *fakeStore) GetLatestAlertByAuthor(ctx context.Context, authorID uuid.UUID) (*models.Alert, error) {
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	return f.latestAlert, nil
}

type fixedPolicy struct {
	settings models.SystemSettings
}

func (p fixedPolicy) Current() models.SystemSettings { return p.settings }

func policyWith(maxPosts, cooldownMinutes int) fixedPolicy {
	return fixedPolicy{settings: models.SystemSettings{
		MaxPostsPerDay:       maxPosts,
		AlertCooldownMinutes: cooldownMinutes,
	}}
}

func TestPostQuotaBelowLimit(t *testing.T) {
	store := &fakeStore{postCount: 10}
	limiter := NewLimiter(store, policyWith(50, 30))

	result := limiter.CheckPostQuota(context.Background(), uuid.New())
	assert.True(t, result.Allowed)
	assert.Equal(t, 10, result.Used)
	assert.Equal(t, 50, result.Limit)
	assert.Equal(t, 40, result.Remaining)
}

func TestPostQuotaAtLimit(t *testing.T) {
	store := &fakeStore{postCount: 50}
	limiter := NewLimiter(store, policyWith(50, 30))

	result := limiter.CheckPostQuota(context.Background(), uuid.New())
	assert.False(t, result.Allowed)
	assert.Equal(t, 50, result.Used)
	assert.Equal(t, 0, result.Remaining)
}

func TestPostQuotaWindowStartsAtLocalMidnight(t *testing.T) {
	store := &fakeStore{}
	limiter := NewLimiter(store, policyWith(50, 30))

	now := time.Date(2025, 6, 15, 14, 37, 22, 0, time.Local)
	limiter.now = func() time.Time { return now }

	limiter.CheckPostQuota(context.Background(), uuid.New())
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.Local), store.sinceSeen)
}

func TestPostQuotaFailsOpenOnStoreError(t *testing.T) {
	store := &fakeStore{countErr: errors.New("connection reset")}
	limiter := NewLimiter(store, policyWith(50, 30))

	result := limiter.CheckPostQuota(context.Background(), uuid.New())
	assert.True(t, result.Allowed)
	assert.Equal(t, 50, result.Remaining)
}

func TestPostQuotaDefaultsWhenLimitUnset(t *testing.T) {
	store := &fakeStore{postCount: 49}
	limiter := NewLimiter(store, policyWith(0, 30))

	result := limiter.CheckPostQuota(context.Background(), uuid.New())
	assert.True(t, result.Allowed)
	assert.Equal(t, 50, result.Limit)
}

func TestCooldownBlocksInsideWindow(t *testing.T) {
	now := time.Now()
	store := &fakeStore{latestAlert: &models.Alert{CreatedAt: now.Add(-10 * time.Minute)}}
	limiter := NewLimiter(store, policyWith(50, 30))
	limiter.now = func() time.Time { return now }

	result := limiter.CheckAlertCooldown(context.Background(), uuid.New())
	assert.False(t, result.Allowed)
	assert.Equal(t, 20, result.MinutesRemaining)
}

func TestCooldownRoundsRemainingUp(t *testing.T) {
	now := time.Now()
	// 29m30s elapsed of a 30m window: 30s left must report 1 minute.
	store := &fakeStore{latestAlert: &models.Alert{CreatedAt: now.Add(-29*time.Minute - 30*time.Second)}}
	limiter := NewLimiter(store, policyWith(50, 30))
	limiter.now = func() time.Time { return now }

	result := limiter.CheckAlertCooldown(context.Background(), uuid.New())
	assert.False(t, result.Allowed)
	assert.Equal(t, 1, result.MinutesRemaining)
}

func TestCooldownAllowsAfterWindow(t *testing.T) {
	now := time.Now()
	store := &fakeStore{latestAlert: &models.Alert{CreatedAt: now.Add(-30 * time.Minute)}}
	limiter := NewLimiter(store, policyWith(50, 30))
	limiter.now = func() time.Time { return now }

	result := limiter.CheckAlertCooldown(context.Background(), uuid.New())
	assert.True(t, result.Allowed)
	assert.Equal(t, 0, result.MinutesRemaining)
}

func TestCooldownAllowsFirstAlert(t *testing.T) {
	limiter := NewLimiter(&fakeStore{}, policyWith(50, 30))

	result := limiter.CheckAlertCooldown(context.Background(), uuid.New())
	assert.True(t, result.Allowed)
}

func TestCooldownFailsOpenOnStoreError(t *testing.T) {
	store := &fakeStore{latestErr: errors.New("no reachable servers")}
	limiter := NewLimiter(store, policyWith(50, 30))

	result := limiter.CheckAlertCooldown(context.Background(), uuid.New())
	assert.True(t, result.Allowed)
}

func TestCooldownDisabledWhenZero(t *testing.T) {
	now := time.Now()
	store := &fakeStore{latestAlert: &models.Alert{CreatedAt: now}}
	limiter := NewLimiter(store, policyWith(50, 0))

	result := limiter.CheckAlertCooldown(context.Background(), uuid.New())
	assert.True(t, result.Allowed)
}
