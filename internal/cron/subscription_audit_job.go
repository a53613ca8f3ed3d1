package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/handyhub/handyhub-backend/pkg/logger"
)

const subscriptionAuditAgeDays = 180

type SubscriptionAuditJobParams struct {
	Logger     *logger.Logger
	Repository subscriptionAuditRepo
	MaxAgeDays int
}

type subscriptionAuditRepo interface {
	CountStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewSubscriptionAuditJob reports how many push subscriptions have not been
// re-registered for a long time. It only observes; pruning stays
// delivery-driven (a dead endpoint is removed when the push service reports
// it gone).
func NewSubscriptionAuditJob(params SubscriptionAuditJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("subscriptions repository required")
	}
	maxAge := params.MaxAgeDays
	if maxAge <= 0 {
		maxAge = subscriptionAuditAgeDays
	}
	return &subscriptionAuditJob{
		logg:   params.Logger,
		repo:   params.Repository,
		maxAge: maxAge,
		now:    time.Now,
	}, nil
}

type subscriptionAuditJob struct {
	logg   *logger.Logger
	repo   subscriptionAuditRepo
	maxAge int
	now    func() time.Time
}

func (j *subscriptionAuditJob) Name() string { return "subscription-audit" }

func (j *subscriptionAuditJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.maxAge) * 24 * time.Hour)
	stale, err := j.repo.CountStale(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("subscription audit: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"max_age_days": j.maxAge,
		"stale_count":  stale,
	})
	j.logg.Info(logCtx, "subscription audit complete")
	return nil
}
