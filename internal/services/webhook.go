package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-redis/redis_rate/v10"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"

	"bitquest/internal/interfaces"
	"bitquest/internal/models"
)

const BITREFILL_SIGNATURE_HEADER = "X-Bitrefill-Signature"

// VerifierHeaderPresence only requires the signature header to be present.
// Bitrefill has not published a verification scheme for the signature value;
// TODO: verify the HMAC once the provider documents the signing key exchange.
type VerifierHeaderPresence struct {
	HeaderName string
}

func (v *VerifierHeaderPresence) Verify(header http.Header, body []byte) error {
	if header.Get(v.HeaderName) == "" {
		return errors.New("missing webhook signature")
	}
	return nil
}

type BitrefillWebhookPayload struct {
	OrderID  string                 `json:"orderId"`
	Status   string                 `json:"status"`
	Expired  bool                   `json:"expired,omitempty"`
	GiftCard map[string]interface{} `json:"giftCard,omitempty"`
}

// WebhookLedger dedups provider deliveries per (orderId, status). A mark that
// fails to stick to an applied update must be cleared so retries get through.
type WebhookLedger interface {
	MarkDelivered(ctx context.Context, orderID string, status string) (bool, error)
	ClearDelivered(ctx context.Context, orderID string, status string) error
}

// ServiceWebhook authenticates, dedups and applies provider webhooks.
type ServiceWebhook struct {
	container  *do.Injector
	deliveries WebhookLedger
	verifier   interfaces.WebhookVerifier
	limiter    interfaces.Limiter
	reward     *ServiceReward
}

func NewServiceWebhook(container *do.Injector) (*ServiceWebhook, error) {
	deliveries, err := do.Invoke[WebhookLedger](container)
	if err != nil {
		return nil, err
	}

	verifier, err := do.Invoke[interfaces.WebhookVerifier](container)
	if err != nil {
		return nil, err
	}

	limiter, err := do.Invoke[interfaces.Limiter](container)
	if err != nil {
		return nil, err
	}

	reward, err := do.Invoke[*ServiceReward](container)
	if err != nil {
		return nil, err
	}

	return &ServiceWebhook{container, deliveries, verifier, limiter, reward}, nil
}

// HandleBitrefill processes one delivery. Replays of an (order, status) pair
// already seen return a nil order and no error.
func (service *ServiceWebhook) HandleBitrefill(ctx context.Context, header http.Header, body []byte) (*models.GiftCardOrder, error) {
	if err := service.limiter.Allow(ctx, LimitKeyWebhook(), redis_rate.PerMinute(WEBHOOK_RATE_LIMIT_PER_MINUTE)); err != nil {
		return nil, errorx.Wrap(err, errorx.RateLimiting)
	}

	if err := service.verifier.Verify(header, body); err != nil {
		return nil, errorx.Wrap(err, errorx.Authn)
	}

	var payload BitrefillWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errorx.Wrap(errors.New("malformed webhook payload"), errorx.Validation)
	}
	if payload.OrderID == "" {
		return nil, errorx.Wrap(errors.New("missing order id"), errorx.Validation)
	}

	status := orderStatusOf(&GiftCardOrderResponse{Status: payload.Status, Expired: payload.Expired})

	first, err := service.deliveries.MarkDelivered(ctx, payload.OrderID, string(status))
	if err != nil {
		return nil, err
	}
	if !first {
		return nil, nil
	}

	var metadata map[string]interface{}
	if payload.GiftCard != nil {
		metadata = map[string]interface{}{"gift_card": payload.GiftCard}
	}

	order, err := service.reward.ApplyOrderUpdate(ctx, payload.OrderID, status, metadata)
	if err != nil {
		// the delivery did not take effect; let the provider's retry through
		//nolint:errcheck
		service.deliveries.ClearDelivered(ctx, payload.OrderID, string(status))
		return nil, err
	}

	return order, nil
}
