package push

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/handyhub/handyhub-backend/pkg/db/models"
)

// Repository exposes persistence helpers for push subscriptions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, sub *models.PushSubscription) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PushSubscription, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
	DeleteByUserEndpoint(ctx context.Context, userID uuid.UUID, endpoint string) (int64, error)
	CountStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a push subscription repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// Upsert registers a device endpoint, refreshing the encryption keys in place
// when the (user_id, endpoint) pair already exists.
func (r *repositoryImpl) Upsert(ctx context.Context, sub *models.PushSubscription) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "endpoint"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"p256dh":     sub.P256dh,
				"auth":       sub.Auth,
				"audience":   sub.Audience,
				"updated_at": gorm.Expr("now()"),
			}),
		}).
		Create(sub).Error
}

func (r *repositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PushSubscription, error) {
	var subs []models.PushSubscription
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *repositoryImpl) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.PushSubscription{}).Error
}

func (r *repositoryImpl) DeleteByUserEndpoint(ctx context.Context, userID uuid.UUID, endpoint string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND endpoint = ?", userID, endpoint).
		Delete(&models.PushSubscription{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) CountStale(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PushSubscription{}).
		Where("updated_at < ?", cutoff).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
