package push

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/handyhub/handyhub-backend/pkg/db/models"
	"github.com/handyhub/handyhub-backend/pkg/enums"
	pkgerrors "github.com/handyhub/handyhub-backend/pkg/errors"
)

type fakeRepo struct {
	mu        sync.Mutex
	subs      []models.PushSubscription
	deleted   []uuid.UUID
	upserted  []*models.PushSubscription
	listErr   error
	listCalls int
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Upsert(ctx context.Context, sub *models.PushSubscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, sub)
	return nil
}

func (f *fakeRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PushSubscription, error) {
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.subs, nil
}

func (f *fakeRepo) DeleteByID(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRepo) DeleteByUserEndpoint(ctx context.Context, userID uuid.UUID, endpoint string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subs {
		if sub.UserID == userID && sub.Endpoint == endpoint {
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeRepo) CountStale(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type fakeTransport struct {
	mu         sync.Mutex
	byEndpoint map[string]Delivery
	payloads   [][]byte
}

func (f *fakeTransport) Send(ctx context.Context, sub models.PushSubscription, payload []byte) Delivery {
	f.mu.Lock()
	f.payloads = append(f.payloads, payload)
	f.mu.Unlock()
	if delivery, ok := f.byEndpoint[sub.Endpoint]; ok {
		return delivery
	}
	return Delivery{Outcome: enums.DeliveryOutcomeDelivered, StatusCode: http.StatusCreated}
}

func newTestService(t *testing.T, repo Repository, transport Transport) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:           repo,
		Transport:      transport,
		AttemptTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func subscription(userID uuid.UUID, endpoint string) models.PushSubscription {
	return models.PushSubscription{
		ID:       uuid.New(),
		UserID:   userID,
		Audience: enums.AudienceCustomer,
		Endpoint: endpoint,
		P256dh:   "p256dh-key",
		Auth:     "auth-key",
	}
}

func TestSendRejectsCrossUserTarget(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(t, repo, &fakeTransport{})

	_, err := svc.Send(context.Background(), SendParams{
		SenderID: uuid.New(),
		TargetID: uuid.New(),
		Message:  Message{Title: "hi", Body: "there"},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden error, got %v", err)
	}
	if typed.Message() != "Forbidden: you can only send notifications to yourself" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
	if repo.listCalls != 0 || len(repo.upserted) != 0 || len(repo.deleted) != 0 {
		t.Fatalf("rejected send touched storage: %d reads, %d upserts, %d deletes",
			repo.listCalls, len(repo.upserted), len(repo.deleted))
	}
}

func TestSendSelfTargetSucceeds(t *testing.T) {
	userID := uuid.New()
	repo := &fakeRepo{subs: []models.PushSubscription{subscription(userID, "https://push.example/a")}}
	svc := newTestService(t, repo, &fakeTransport{})

	result, err := svc.Send(context.Background(), SendParams{
		SenderID: userID,
		TargetID: userID,
		Message:  Message{Title: "hi", Body: "there"},
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if result.Message != "Push notifications sent" {
		t.Fatalf("unexpected message %q", result.Message)
	}
	if result.Successful != 1 || result.Failed != 0 {
		t.Fatalf("unexpected counts: %+v", result)
	}
}

func TestDispatchNoSubscriptions(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakeTransport{})

	result, err := svc.DispatchToUser(context.Background(), uuid.New(), Message{Title: "hi", Body: "there"})
	if err != nil {
		t.Fatalf("DispatchToUser: %v", err)
	}
	if result.Message != "No subscriptions found for user" {
		t.Fatalf("unexpected message %q", result.Message)
	}
	if result.Successful != 0 || result.Failed != 0 {
		t.Fatalf("unexpected counts: %+v", result)
	}
}

func TestDispatchAllSettledAggregation(t *testing.T) {
	userID := uuid.New()
	goneSub := subscription(userID, "https://push.example/gone")
	repo := &fakeRepo{subs: []models.PushSubscription{
		subscription(userID, "https://push.example/ok"),
		goneSub,
		subscription(userID, "https://push.example/flaky"),
	}}
	transport := &fakeTransport{byEndpoint: map[string]Delivery{
		"https://push.example/gone":  {Outcome: enums.DeliveryOutcomeGone, StatusCode: http.StatusGone},
		"https://push.example/flaky": {Outcome: enums.DeliveryOutcomeTransient, StatusCode: http.StatusBadGateway},
	}}
	svc := newTestService(t, repo, transport)

	result, err := svc.DispatchToUser(context.Background(), userID, Message{Title: "hi", Body: "there"})
	if err != nil {
		t.Fatalf("DispatchToUser: %v", err)
	}
	if result.Successful != 1 {
		t.Fatalf("expected 1 successful, got %d", result.Successful)
	}
	if result.Failed != 2 {
		t.Fatalf("expected 2 failed, got %d", result.Failed)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != goneSub.ID {
		t.Fatalf("expected gone subscription pruned, got %v", repo.deleted)
	}
}

func TestDispatchAppliesPayloadDefaults(t *testing.T) {
	userID := uuid.New()
	repo := &fakeRepo{subs: []models.PushSubscription{subscription(userID, "https://push.example/a")}}
	transport := &fakeTransport{}
	svc := newTestService(t, repo, transport)

	if _, err := svc.DispatchToUser(context.Background(), userID, Message{Title: "hi", Body: "there"}); err != nil {
		t.Fatalf("DispatchToUser: %v", err)
	}

	if len(transport.payloads) != 1 {
		t.Fatalf("expected one payload, got %d", len(transport.payloads))
	}
	var decoded Message
	if err := json.Unmarshal(transport.payloads[0], &decoded); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if decoded.Icon != "/pwa-192x192.png" {
		t.Fatalf("unexpected icon %q", decoded.Icon)
	}
	if decoded.URL != "/" {
		t.Fatalf("unexpected url %q", decoded.URL)
	}
}

func TestDispatchWithoutTransportFails(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, nil)

	_, err := svc.DispatchToUser(context.Background(), uuid.New(), Message{Title: "hi", Body: "there"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestDispatchValidatesMessageBounds(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(t, repo, &fakeTransport{})
	longTitle := make([]byte, 201)
	for i := range longTitle {
		longTitle[i] = 'a'
	}

	_, err := svc.DispatchToUser(context.Background(), uuid.New(), Message{Title: string(longTitle), Body: "there"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.listCalls != 0 {
		t.Fatalf("invalid message reached storage: %d reads", repo.listCalls)
	}
}

func TestDispatchCountsRunesNotBytes(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakeTransport{})
	title := strings.Repeat("日", 200)
	body := strings.Repeat("本", 1000)

	result, err := svc.DispatchToUser(context.Background(), uuid.New(), Message{Title: title, Body: body})
	if err != nil {
		t.Fatalf("DispatchToUser: %v", err)
	}
	if result.Message != "No subscriptions found for user" {
		t.Fatalf("unexpected message %q", result.Message)
	}
}

func TestDispatchRejectsMalformedLinks(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakeTransport{})

	for name, msg := range map[string]Message{
		"icon": {Title: "hi", Body: "there", Icon: "not a url at all"},
		"url":  {Title: "hi", Body: "there", URL: "also ::: not[ a url"},
	} {
		_, err := svc.DispatchToUser(context.Background(), uuid.New(), msg)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestDispatchAcceptsRelativeLinks(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakeTransport{})

	_, err := svc.DispatchToUser(context.Background(), uuid.New(), Message{
		Title: "hi",
		Body:  "there",
		Icon:  "/pwa-192x192.png",
		URL:   "/",
	})
	if err != nil {
		t.Fatalf("DispatchToUser: %v", err)
	}
}

func TestDispatchStorageFailureIsInternal(t *testing.T) {
	repo := &fakeRepo{listErr: errors.New("connection refused")}
	svc := newTestService(t, repo, &fakeTransport{})

	_, err := svc.DispatchToUser(context.Background(), uuid.New(), Message{Title: "hi", Body: "there"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestSubscribeValidation(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakeTransport{})

	_, err := svc.Subscribe(context.Background(), SubscribeParams{
		UserID:   uuid.New(),
		Audience: enums.AudienceCustomer,
		Endpoint: "",
		P256dh:   "p",
		Auth:     "a",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUnsubscribeUnknownEndpoint(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakeTransport{})

	err := svc.Unsubscribe(context.Background(), uuid.New(), "https://push.example/missing")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}
