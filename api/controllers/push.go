package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/handyhub/handyhub-backend/api/middleware"
	"github.com/handyhub/handyhub-backend/api/responses"
	"github.com/handyhub/handyhub-backend/api/validators"
	"github.com/handyhub/handyhub-backend/internal/push"
	"github.com/handyhub/handyhub-backend/pkg/enums"
	pkgerrors "github.com/handyhub/handyhub-backend/pkg/errors"
	"github.com/handyhub/handyhub-backend/pkg/logger"
)

type registerPushSubscriptionRequest struct {
	Endpoint       string   `json:"endpoint" validate:"required,url"`
	ExpirationTime *float64 `json:"expirationTime"`
	Keys           struct {
		P256dh string `json:"p256dh" validate:"required"`
		Auth   string `json:"auth" validate:"required"`
	} `json:"keys"`
}

type removePushSubscriptionRequest struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
}

type sendPushRequest struct {
	UserID string         `json:"userId" validate:"required,uuid"`
	Title  string         `json:"title" validate:"required,max=200"`
	Body   string         `json:"body" validate:"required,max=1000"`
	Icon   string         `json:"icon" validate:"omitempty,uri"`
	URL    string         `json:"url" validate:"omitempty,uri"`
	Data   map[string]any `json:"data" validate:"omitempty"`
}

// RegisterPushSubscription stores or refreshes the caller's browser endpoint.
func RegisterPushSubscription(svc push.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "push service unavailable"))
			return
		}

		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body registerPushSubscriptionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		audience := enums.Audience(middleware.AudienceFromContext(r.Context()))
		sub, err := svc.Subscribe(r.Context(), push.SubscribeParams{
			UserID:   userID,
			Audience: audience,
			Endpoint: body.Endpoint,
			P256dh:   body.Keys.P256dh,
			Auth:     body.Keys.Auth,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sub)
	}
}

// RemovePushSubscription deletes one of the caller's registered endpoints.
func RemovePushSubscription(svc push.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "push service unavailable"))
			return
		}

		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body removePushSubscriptionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Unsubscribe(r.Context(), userID, body.Endpoint); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"removed": true})
	}
}

// SendPushNotification relays a push to every device of the target user. The
// target must be the authenticated caller.
func SendPushNotification(svc push.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "push service unavailable"))
			return
		}

		senderID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body sendPushRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		targetID, err := uuid.Parse(body.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid userId"))
			return
		}

		result, err := svc.Send(r.Context(), push.SendParams{
			SenderID: senderID,
			TargetID: targetID,
			Message: push.Message{
				Title: body.Title,
				Body:  body.Body,
				Icon:  body.Icon,
				URL:   body.URL,
				Data:  body.Data,
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
