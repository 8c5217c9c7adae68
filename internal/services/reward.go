package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"

	"bitquest/internal/interfaces"
	"bitquest/internal/models"
	"bitquest/internal/pkg/caching"
)

type ServiceReward struct {
	container     *do.Injector
	locksmith     interfaces.Locksmith
	collections   CollectionStore
	orders        OrderStore
	giftCard      GiftCardAPI
	cache         caching.Cache
	serviceConfig ConfigSource
	webhookURL    string
}

func NewServiceReward(container *do.Injector) (*ServiceReward, error) {
	locksmith, err := do.Invoke[interfaces.Locksmith](container)
	if err != nil {
		return nil, err
	}

	collections, err := do.Invoke[CollectionStore](container)
	if err != nil {
		return nil, err
	}

	orders, err := do.Invoke[OrderStore](container)
	if err != nil {
		return nil, err
	}

	giftCard, err := do.Invoke[GiftCardAPI](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	serviceConfig, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	vs := do.MustInvokeNamed[map[string]string](container, "envs")

	return &ServiceReward{container, locksmith, collections, orders, giftCard, cache, serviceConfig, vs["BITREFILL_WEBHOOK_URL"]}, nil
}

// PendingRewards summarizes what the user can redeem right now.
type PendingRewards struct {
	Collections  []models.Collection `json:"collections"`
	TotalValue   int                 `json:"total_value"`
	MinimumCount int                 `json:"minimum_count"`
	CanRedeem    bool                `json:"can_redeem"`
}

func (service *ServiceReward) GetPendingRewards(ctx context.Context, userID int64) (*PendingRewards, error) {
	callback := func() (*PendingRewards, error) {
		pending, err := service.collections.PendingByUser(ctx, userID)
		if err != nil && err != sql.ErrNoRows {
			return nil, err
		}

		minimum, _ := service.serviceConfig.GetIntConfig(ctx, CONFIG_MIN_COLLECTIONS_TO_REDEEM, DEFAULT_MIN_COLLECTIONS_TO_REDEEM)

		return &PendingRewards{
			Collections:  pending,
			TotalValue:   totalValueOf(pending),
			MinimumCount: minimum,
			CanRedeem:    len(pending) >= minimum,
		}, nil
	}

	return caching.UseCache(ctx, service.cache, DBKeyUserPendingRewards(userID), CACHE_TTL_15_SECONDS, callback)
}

// Redeem converts the user's pending collections into one gift card order and
// synchronously drives the order to a terminal state or the poll budget. A
// non-success outcome keeps every collection pending, so the user can retry
// without losing value.
func (service *ServiceReward) Redeem(ctx context.Context, userID int64, email string) (*models.GiftCardOrder, error) {
	mutex := service.locksmith.NewMutex(LockKeyUserRedemption(userID))
	if err := mutex.TryLockContext(ctx); err != nil {
		return nil, errorx.Wrap(ErrRedemptionLocked, errorx.Invalid)
	}
	//nolint:errcheck
	defer mutex.UnlockContext(ctx)

	pending, err := service.collections.PendingByUser(ctx, userID)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, errorx.Wrap(ErrNoPendingCollections, errorx.Validation)
	}

	minimum, _ := service.serviceConfig.GetIntConfig(ctx, CONFIG_MIN_COLLECTIONS_TO_REDEEM, DEFAULT_MIN_COLLECTIONS_TO_REDEEM)
	if len(pending) < minimum {
		return nil, errorx.Wrap(ErrInsufficientCollections, errorx.Validation)
	}

	productID, _ := service.serviceConfig.GetStringConfig(ctx, CONFIG_GIFT_CARD_PRODUCT_ID, DEFAULT_GIFT_CARD_PRODUCT_ID)
	currency, _ := service.serviceConfig.GetStringConfig(ctx, CONFIG_GIFT_CARD_CURRENCY, DEFAULT_GIFT_CARD_CURRENCY)

	resp, err := service.giftCard.CreateOrder(ctx, GiftCardOrderRequest{
		ProductID:  productID,
		Value:      totalValueOf(pending),
		Currency:   currency,
		Email:      email,
		WebhookURL: service.webhookURL,
	})
	if err != nil {
		return nil, errorx.Wrap(ErrOrderSubmission, errorx.Service)
	}

	ids := make([]string, len(pending))
	for i, collection := range pending {
		ids[i] = collection.ID
	}

	order := &models.GiftCardOrder{
		OrderID:       resp.ID,
		UserID:        userID,
		Value:         resp.Value,
		Currency:      currency,
		Status:        orderStatusOf(resp),
		CollectionIDs: ids,
	}
	if err := service.orders.Insert(ctx, order); err != nil {
		return nil, err
	}

	if order.Status == models.OrderStatusUnpaid && service.hasBalanceFor(ctx, order.Value) {
		// best effort; the poll below observes whether it worked
		//nolint:errcheck
		service.giftCard.PurchaseWithBalance(ctx, order.OrderID)
	}

	return service.pollOrder(ctx, order)
}

// hasBalanceFor is advisory only: when the balance cannot be read the
// purchase is still attempted and the poll loop reports the truth.
func (service *ServiceReward) hasBalanceFor(ctx context.Context, value int) bool {
	balance, err := service.giftCard.GetAccountBalance(ctx)
	if err != nil {
		return true
	}

	return balance.Balance >= float64(value)
}

func (service *ServiceReward) pollOrder(ctx context.Context, order *models.GiftCardOrder) (*models.GiftCardOrder, error) {
	intervalInSeconds, _ := service.serviceConfig.GetIntConfig(ctx, CONFIG_ORDER_POLL_INTERVAL_IN_SECONDS, DEFAULT_ORDER_POLL_INTERVAL_IN_SECONDS)
	maxAttempts, _ := service.serviceConfig.GetIntConfig(ctx, CONFIG_ORDER_POLL_MAX_ATTEMPTS, DEFAULT_ORDER_POLL_MAX_ATTEMPTS)
	interval := time.Duration(intervalInSeconds) * time.Second

	if order.Status == models.OrderStatusSuccess {
		return order, service.finalizeOrder(ctx, order)
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return order, ctx.Err()
		case <-time.After(interval):
		}

		resp, err := service.giftCard.GetOrder(ctx, order.OrderID)
		if err != nil {
			continue
		}

		status := orderStatusOf(resp)
		if status != order.Status {
			order.Status = status
			if err := service.orders.Update(ctx, order); err != nil {
				return order, err
			}
		}

		switch {
		case status == models.OrderStatusSuccess:
			return order, service.finalizeOrder(ctx, order)
		case status.Terminal():
			return order, errorx.Wrap(ErrOrderFailed, errorx.Service)
		}
	}

	return order, errorx.Wrap(ErrOrderPollTimeout, errorx.Service)
}

func (service *ServiceReward) finalizeOrder(ctx context.Context, order *models.GiftCardOrder) error {
	if err := service.collections.MarkRedeemed(ctx, order.CollectionIDs); err != nil {
		return err
	}

	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyUserPendingRewards(order.UserID))
	return nil
}

// ApplyOrderUpdate ingests an order status reported out-of-band, either by a
// provider webhook or the reconciliation job. Terminal orders never move
// again, so late or duplicate updates are no-ops. Extra provider payload, the
// delivered gift-card code in particular, is kept on the order's metadata.
func (service *ServiceReward) ApplyOrderUpdate(ctx context.Context, orderID string, status models.OrderStatus, metadata map[string]interface{}) (*models.GiftCardOrder, error) {
	order, err := service.orders.GetByID(ctx, orderID)
	if err == sql.ErrNoRows {
		return nil, errorx.Wrap(ErrOrderNotFound, errorx.NotExist)
	}
	if err != nil {
		return nil, err
	}

	if order.Status.Terminal() || order.Status == status {
		return order, nil
	}

	order.Status = status
	for key, value := range metadata {
		if order.Metadata == nil {
			order.Metadata = map[string]interface{}{}
		}
		order.Metadata[key] = value
	}
	if err := service.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	if status == models.OrderStatusSuccess {
		if err := service.finalizeOrder(ctx, order); err != nil {
			return nil, err
		}
	}

	return order, nil
}

// ReconcileStaleOrders re-checks non-terminal orders that have not been
// updated since the cutoff. It backs up both the in-request poll loop and
// missed webhooks.
func (service *ServiceReward) ReconcileStaleOrders(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	stale, err := service.orders.Stale(ctx, time.Now().Add(-olderThan), limit)
	if err != nil && err != sql.ErrNoRows {
		return 0, err
	}

	reconciled := 0
	for _, order := range stale {
		resp, err := service.giftCard.GetOrder(ctx, order.OrderID)
		if err != nil {
			continue
		}

		status := orderStatusOf(resp)
		if status == order.Status {
			continue
		}

		if _, err := service.ApplyOrderUpdate(ctx, order.OrderID, status, nil); err != nil {
			continue
		}
		reconciled++
	}

	return reconciled, nil
}

func totalValueOf(collections []models.Collection) int {
	total := 0
	for _, collection := range collections {
		if collection.Chest != nil {
			total += collection.Chest.Value
		}
	}
	return total
}

func orderStatusOf(resp *GiftCardOrderResponse) models.OrderStatus {
	if resp.Expired {
		return models.OrderStatusExpired
	}

	switch status := models.OrderStatus(resp.Status); status {
	case models.OrderStatusUnpaid, models.OrderStatusPaid, models.OrderStatusSuccess, models.OrderStatusError, models.OrderStatusExpired:
		return status
	default:
		return models.OrderStatusUnpaid
	}
}
