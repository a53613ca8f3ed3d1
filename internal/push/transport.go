package push

import (
	"context"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/handyhub/handyhub-backend/pkg/config"
	"github.com/handyhub/handyhub-backend/pkg/db/models"
	"github.com/handyhub/handyhub-backend/pkg/enums"
	pkgerrors "github.com/handyhub/handyhub-backend/pkg/errors"
)

// Delivery is the classified result of one push attempt.
type Delivery struct {
	Outcome    enums.DeliveryOutcome
	StatusCode int
	Err        error
}

// Transport delivers an encrypted payload to a single subscription endpoint.
type Transport interface {
	Send(ctx context.Context, sub models.PushSubscription, payload []byte) Delivery
}

type webPushTransport struct {
	cfg config.WebPushConfig
}

// NewWebPushTransport builds the Web Push transport. It fails when the VAPID
// keypair is not configured so callers can surface a server-side error
// instead of silently dropping deliveries.
func NewWebPushTransport(cfg config.WebPushConfig) (Transport, error) {
	if !cfg.Configured() {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "vapid keys not configured")
	}
	return &webPushTransport{cfg: cfg}, nil
}

func (t *webPushTransport) Send(ctx context.Context, sub models.PushSubscription, payload []byte) Delivery {
	target := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, target, &webpush.Options{
		Subscriber:      t.cfg.Subscriber,
		VAPIDPublicKey:  t.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: t.cfg.VAPIDPrivateKey,
		TTL:             t.cfg.TTLSeconds(),
	})
	if err != nil {
		return Delivery{Outcome: enums.DeliveryOutcomeTransient, Err: err}
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	return classifyStatus(resp.StatusCode)
}

// classifyStatus maps a push service response onto a delivery outcome. Gone
// and NotFound both mean the endpoint will never accept another delivery.
func classifyStatus(status int) Delivery {
	switch {
	case status >= 200 && status < 300:
		return Delivery{Outcome: enums.DeliveryOutcomeDelivered, StatusCode: status}
	case status == http.StatusGone || status == http.StatusNotFound:
		return Delivery{Outcome: enums.DeliveryOutcomeGone, StatusCode: status}
	default:
		return Delivery{Outcome: enums.DeliveryOutcomeTransient, StatusCode: status}
	}
}
