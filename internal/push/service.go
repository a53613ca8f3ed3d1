package push

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/handyhub/handyhub-backend/pkg/config"
	"github.com/handyhub/handyhub-backend/pkg/db/models"
	"github.com/handyhub/handyhub-backend/pkg/enums"
	pkgerrors "github.com/handyhub/handyhub-backend/pkg/errors"
	"github.com/handyhub/handyhub-backend/pkg/logger"
	"github.com/handyhub/handyhub-backend/pkg/metrics"
)

const (
	defaultIcon = "/pwa-192x192.png"
	defaultURL  = "/"

	sentMessage    = "Push notifications sent"
	noSubsMessage  = "No subscriptions found for user"
	selfOnlyDenial = "Forbidden: you can only send notifications to yourself"
)

// Service exposes subscription registry and dispatch operations.
type Service interface {
	Subscribe(ctx context.Context, params SubscribeParams) (*models.PushSubscription, error)
	Unsubscribe(ctx context.Context, userID uuid.UUID, endpoint string) error
	Send(ctx context.Context, params SendParams) (*SendResult, error)
	DispatchToUser(ctx context.Context, userID uuid.UUID, msg Message) (*SendResult, error)
}

// SubscribeParams registers one browser endpoint for a user.
type SubscribeParams struct {
	UserID   uuid.UUID
	Audience enums.Audience
	Endpoint string
	P256dh   string
	Auth     string
}

// Message is the displayable payload pushed to every device of the target user.
type Message struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Icon  string         `json:"icon"`
	URL   string         `json:"url"`
	Data  map[string]any `json:"data,omitempty"`
}

// SendParams carries a relay request from an authenticated sender.
type SendParams struct {
	SenderID uuid.UUID
	TargetID uuid.UUID
	Message  Message
}

// SendResult aggregates the settled outcome of a fan-out.
type SendResult struct {
	Message    string `json:"message"`
	Successful int    `json:"successful"`
	Failed     int    `json:"failed"`
}

// ServiceParams wires the dispatcher dependencies. Transport may be nil when
// push credentials are absent; dispatch then fails with a server error while
// the registry endpoints keep working.
type ServiceParams struct {
	Repo           Repository
	Transport      Transport
	Config         config.WebPushConfig
	Metrics        *metrics.PushMetrics
	Logger         *logger.Logger
	AttemptTimeout time.Duration
}

type service struct {
	repo           Repository
	transport      Transport
	metrics        *metrics.PushMetrics
	logg           *logger.Logger
	attemptTimeout time.Duration
}

// NewService wires push dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "push repository required")
	}
	timeout := params.AttemptTimeout
	if timeout <= 0 {
		timeout = params.Config.AttemptTimeout
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &service{
		repo:           params.Repo,
		transport:      params.Transport,
		metrics:        params.Metrics,
		logg:           params.Logger,
		attemptTimeout: timeout,
	}, nil
}

func (s *service) Subscribe(ctx context.Context, params SubscribeParams) (*models.PushSubscription, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !params.Audience.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid audience")
	}
	if strings.TrimSpace(params.Endpoint) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "endpoint required")
	}
	if strings.TrimSpace(params.P256dh) == "" || strings.TrimSpace(params.Auth) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription keys required")
	}

	sub := &models.PushSubscription{
		UserID:   params.UserID,
		Audience: params.Audience,
		Endpoint: strings.TrimSpace(params.Endpoint),
		P256dh:   params.P256dh,
		Auth:     params.Auth,
	}
	if err := s.repo.Upsert(ctx, sub); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "register subscription")
	}
	return sub, nil
}

func (s *service) Unsubscribe(ctx context.Context, userID uuid.UUID, endpoint string) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if strings.TrimSpace(endpoint) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "endpoint required")
	}

	removed, err := s.repo.DeleteByUserEndpoint(ctx, userID, strings.TrimSpace(endpoint))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove subscription")
	}
	if removed == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
	}
	return nil
}

// Send relays a notification on behalf of an authenticated user. Callers may
// only target themselves; the sender identity comes from verified claims, so
// a mismatch is an authorization failure rather than a validation one.
func (s *service) Send(ctx context.Context, params SendParams) (*SendResult, error) {
	if params.SenderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing sender identity")
	}
	if params.TargetID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "userId required")
	}
	if params.SenderID != params.TargetID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, selfOnlyDenial)
	}
	return s.DispatchToUser(ctx, params.TargetID, params.Message)
}

// DispatchToUser fans a message out to every registered endpoint of the user
// and waits for all attempts to settle.
func (s *service) DispatchToUser(ctx context.Context, userID uuid.UUID, msg Message) (*SendResult, error) {
	if s.transport == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "push credentials not configured")
	}
	if err := validateMessage(msg); err != nil {
		return nil, err
	}

	subs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load subscriptions")
	}
	if len(subs) == 0 {
		return &SendResult{Message: noSubsMessage}, nil
	}

	payload, err := json.Marshal(applyDefaults(msg))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode payload")
	}

	deliveries := s.fanOut(ctx, subs, payload)

	result := &SendResult{Message: sentMessage}
	for i, delivery := range deliveries {
		if delivery.Outcome == enums.DeliveryOutcomeDelivered {
			result.Successful++
			continue
		}
		result.Failed++
		if delivery.Outcome == enums.DeliveryOutcomeGone {
			s.prune(ctx, subs[i])
		}
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id":    userID.String(),
			"successful": result.Successful,
			"failed":     result.Failed,
		})
		s.logg.Info(logCtx, "push dispatch settled")
	}
	return result, nil
}

// fanOut runs one attempt per subscription concurrently. Every attempt gets
// its own deadline so one slow push service cannot stall the batch, and all
// attempts settle before the aggregate is computed.
func (s *service) fanOut(ctx context.Context, subs []models.PushSubscription, payload []byte) []Delivery {
	deliveries := make([]Delivery, len(subs))
	var wg sync.WaitGroup
	for i, sub := range subs {
		wg.Add(1)
		go func(i int, sub models.PushSubscription) {
			defer wg.Done()
			attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
			defer cancel()

			start := time.Now()
			delivery := s.transport.Send(attemptCtx, sub, payload)
			deliveries[i] = delivery
			s.metrics.ObserveDelivery(string(delivery.Outcome), time.Since(start))
		}(i, sub)
	}
	wg.Wait()
	return deliveries
}

// prune removes an endpoint the push service reported gone. Failure to prune
// is logged but never fails the dispatch; the next send retries the delete.
func (s *service) prune(ctx context.Context, sub models.PushSubscription) {
	if err := s.repo.DeleteByID(ctx, sub.ID); err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "pruning gone subscription failed", err)
		}
		return
	}
	s.metrics.IncPruned()
}

func validateMessage(msg Message) error {
	title := strings.TrimSpace(msg.Title)
	if title == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if utf8.RuneCountInString(title) > 200 {
		return pkgerrors.New(pkgerrors.CodeValidation, "title must be at most 200 characters")
	}
	body := strings.TrimSpace(msg.Body)
	if body == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "body required")
	}
	if utf8.RuneCountInString(body) > 1000 {
		return pkgerrors.New(pkgerrors.CodeValidation, "body must be at most 1000 characters")
	}
	if err := validateLink("icon", msg.Icon); err != nil {
		return err
	}
	return validateLink("url", msg.URL)
}

// validateLink accepts absolute URLs and path-absolute values so the relay's
// relative defaults stay legal.
func validateLink(field, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if _, err := url.ParseRequestURI(value); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, field+" must be a valid url")
	}
	return nil
}

func applyDefaults(msg Message) Message {
	if strings.TrimSpace(msg.Icon) == "" {
		msg.Icon = defaultIcon
	}
	if strings.TrimSpace(msg.URL) == "" {
		msg.URL = defaultURL
	}
	return msg
}
