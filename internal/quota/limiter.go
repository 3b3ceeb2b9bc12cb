// internal/quota/limiter.go
package quota

import (
	"context"
	"log"
	"math"
	"time"

	"quartier-watch/internal/models"

	"github.com/google/uuid"
)

// checkTimeout bounds every store read performed during a check.
const checkTimeout = 2 * time.Second

// Store is the persistence the limiter reads.
type Store interface {
	CountPostsByAuthorSince(ctx context.Context, authorID uuid.UUID, since time.Time) (int64, error)
	GetLatestAlertByAuthor(ctx context.Context, authorID uuid.UUID) (*models.Alert, error)
}

// Policy supplies the current limits. Satisfied by settings.Gate.
type Policy interface {
	Current() models.SystemSettings
}

// PostQuotaResult reports one daily-quota check.
type PostQuotaResult struct {
	Allowed   bool `json:"allowed"`
	Used      int  `json:"used"`
	Limit     int  `json:"limit"`
	Remaining int  `json:"remaining"`
}

// CooldownResult reports one alert-cooldown check.
type CooldownResult struct {
	Allowed          bool `json:"allowed"`
	MinutesRemaining int  `json:"minutesRemaining"`
}

// Limiter enforces the daily post quota and the alert cooldown. Both
// checks fail open: when the store cannot answer, the action is allowed
// rather than punishing the user for an infrastructure fault.
type Limiter struct {
	store  Store
	policy Policy

	// now is swappable for tests.
	now func() time.Time
}

func NewLimiter(store Store, policy Policy) *Limiter {
	return &Limiter{
		store:  store,
		policy: policy,
		now:    time.Now,
	}
}

// CheckPostQuota counts the author's posts since local midnight against
// the configured daily maximum.
func (l *Limiter) CheckPostQuota(ctx context.Context, authorID uuid.UUID) PostQuotaResult {
	limit := l.policy.Current().MaxPostsPerDay
	if limit <= 0 {
		limit = 50
	}

	now := l.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	cctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	used64, err := l.store.CountPostsByAuthorSince(cctx, authorID, dayStart)
	if err != nil {
		log.Printf("Quota: post count failed for %s, allowing: %v", authorID, err)
		return PostQuotaResult{Allowed: true, Used: 0, Limit: limit, Remaining: limit}
	}

	used := int(used64)
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return PostQuotaResult{
		Allowed:   used < limit,
		Used:      used,
		Limit:     limit,
		Remaining: remaining,
	}
}

// CheckAlertCooldown compares the author's most recent alert against the
// configured cooldown window. Remaining time is rounded up so the result
// never claims zero minutes while the cooldown is still active.
func (l *Limiter) CheckAlertCooldown(ctx context.Context, authorID uuid.UUID) CooldownResult {
	cooldown := l.policy.Current().AlertCooldownMinutes
	if cooldown <= 0 {
		return CooldownResult{Allowed: true}
	}

	cctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	latest, err := l.store.GetLatestAlertByAuthor(cctx, authorID)
	if err != nil {
		log.Printf("Quota: latest alert lookup failed for %s, allowing: %v", authorID, err)
		return CooldownResult{Allowed: true}
	}
	if latest == nil {
		return CooldownResult{Allowed: true}
	}

	window := time.Duration(cooldown) * time.Minute
	elapsed := l.now().Sub(latest.CreatedAt)
	if elapsed >= window {
		return CooldownResult{Allowed: true}
	}

	minutes := int(math.Ceil((window - elapsed).Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	return CooldownResult{Allowed: false, MinutesRemaining: minutes}
}
