package redis_store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"bitquest/internal/models"
)

const (
	NAVIGATION_SESSION_TTL = 6 * time.Hour
	WEBHOOK_DEDUP_TTL      = 24 * time.Hour
)

func dbKeyNavigationSession(userID int64) string {
	return fmt.Sprintf("navigation:session:%d", userID)
}

func dbKeyWebhookDelivery(orderID string, status string) string {
	return fmt.Sprintf("webhook:bitrefill:%s:%s", orderID, status)
}

func GetNavigationSession(ctx context.Context, client redis.UniversalClient, userID int64) (*models.NavigationSession, error) {
	raw, err := client.Get(ctx, dbKeyNavigationSession(userID)).Bytes()
	if err != nil {
		return nil, err
	}

	var session models.NavigationSession
	err = msgpack.Unmarshal(raw, &session)
	if err != nil {
		return nil, err
	}

	return &session, nil
}

func SetNavigationSession(ctx context.Context, client redis.UniversalClient, userID int64, session *models.NavigationSession) error {
	session.UpdatedAt = time.Now()
	raw, err := msgpack.Marshal(session)
	if err != nil {
		return err
	}

	return client.Set(ctx, dbKeyNavigationSession(userID), raw, NAVIGATION_SESSION_TTL).Err()
}

func ClearNavigationSession(ctx context.Context, client redis.UniversalClient, userID int64) error {
	return client.Del(ctx, dbKeyNavigationSession(userID)).Err()
}

// MarkWebhookDelivered records one (orderId, status) delivery and reports
// whether this is the first time it was seen. Duplicate and out-of-order
// re-deliveries come back false and must be treated as no-ops.
func MarkWebhookDelivered(ctx context.Context, client redis.UniversalClient, orderID string, status string) (bool, error) {
	return client.SetNX(ctx, dbKeyWebhookDelivery(orderID, status), time.Now().Unix(), WEBHOOK_DEDUP_TTL).Result()
}

// ClearWebhookDelivered drops the dedup mark so the provider's retry of a
// delivery that failed to apply is processed again instead of swallowed.
func ClearWebhookDelivered(ctx context.Context, client redis.UniversalClient, orderID string, status string) error {
	return client.Del(ctx, dbKeyWebhookDelivery(orderID, status)).Err()
}

// LedgerWebhook adapts the delivery dedup functions to the seam the webhook
// service consumes.
type LedgerWebhook struct {
	client redis.UniversalClient
}

func NewLedgerWebhook(client redis.UniversalClient) *LedgerWebhook {
	return &LedgerWebhook{client}
}

func (ledger *LedgerWebhook) MarkDelivered(ctx context.Context, orderID string, status string) (bool, error) {
	return MarkWebhookDelivered(ctx, ledger.client, orderID, status)
}

func (ledger *LedgerWebhook) ClearDelivered(ctx context.Context, orderID string, status string) error {
	return ClearWebhookDelivered(ctx, ledger.client, orderID, status)
}
