package push

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/handyhub/handyhub-backend/pkg/db/models"
	"github.com/handyhub/handyhub-backend/pkg/enums"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("HANDYHUB_DB_DSN")
	if dsn == "" {
		t.Skip("HANDYHUB_DB_DSN is not set")
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	return conn
}

func TestUpsertRefreshesKeysInPlace(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()
	endpoint := "https://push.example/" + uuid.NewString()

	first := &models.PushSubscription{
		UserID:   userID,
		Audience: enums.AudienceCustomer,
		Endpoint: endpoint,
		P256dh:   "key-one",
		Auth:     "auth-one",
	}
	if err := repo.Upsert(ctx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	t.Cleanup(func() {
		db.Where("user_id = ?", userID).Delete(&models.PushSubscription{})
	})

	second := &models.PushSubscription{
		UserID:   userID,
		Audience: enums.AudienceCustomer,
		Endpoint: endpoint,
		P256dh:   "key-two",
		Auth:     "auth-two",
	}
	if err := repo.Upsert(ctx, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	subs, err := repo.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected one row after upsert, got %d", len(subs))
	}
	if subs[0].P256dh != "key-two" || subs[0].Auth != "auth-two" {
		t.Fatalf("expected refreshed keys, got %+v", subs[0])
	}
}

func TestDeleteByUserEndpoint(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()
	endpoint := "https://push.example/" + uuid.NewString()

	sub := &models.PushSubscription{
		UserID:   userID,
		Audience: enums.AudienceProfessional,
		Endpoint: endpoint,
		P256dh:   "key",
		Auth:     "auth",
	}
	if err := repo.Upsert(ctx, sub); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	removed, err := repo.DeleteByUserEndpoint(ctx, userID, endpoint)
	if err != nil {
		t.Fatalf("DeleteByUserEndpoint: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 row removed, got %d", removed)
	}

	removed, err = repo.DeleteByUserEndpoint(ctx, userID, endpoint)
	if err != nil {
		t.Fatalf("second DeleteByUserEndpoint: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected 0 rows on repeat delete, got %d", removed)
	}
}

func TestCountStale(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	if _, err := repo.CountStale(ctx, time.Now().Add(-365*24*time.Hour)); err != nil {
		t.Fatalf("CountStale: %v", err)
	}
}
