package datastore

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"bitquest/internal/models"
)

func CreateTableGiftCardOrder(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.GiftCardOrder)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.GiftCardOrder)(nil)).Index("index_gift_card_order_user_id").IfNotExists().Column("user_id").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.GiftCardOrder)(nil)).Index("index_gift_card_order_status").IfNotExists().Column("status").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertGiftCardOrder(ctx context.Context, db *bun.DB, order *models.GiftCardOrder) error {
	_, err := db.NewInsert().Model(order).Exec(ctx)
	if err != nil {
		return err
	}
	return nil
}

func GetGiftCardOrderByID(ctx context.Context, db *bun.DB, orderID string) (*models.GiftCardOrder, error) {
	var order models.GiftCardOrder
	err := db.NewSelect().Model(&order).Where("order_id = ?", orderID).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &order, nil
}

func UpdateGiftCardOrderStatus(ctx context.Context, db *bun.DB, orderID string, status models.OrderStatus) error {
	_, err := db.NewUpdate().Model((*models.GiftCardOrder)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now()).
		Where("order_id = ?", orderID).
		Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func UpdateGiftCardOrder(ctx context.Context, db *bun.DB, order *models.GiftCardOrder) error {
	order.UpdatedAt = time.Now()
	_, err := db.NewUpdate().Model(order).WherePK().Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

// GetStaleGiftCardOrders returns orders still non-terminal whose last update
// is older than the cutoff. The reconciliation job re-checks these against the
// provider.
func GetStaleGiftCardOrders(ctx context.Context, db *bun.DB, cutoff time.Time, limit int) ([]models.GiftCardOrder, error) {
	var orders []models.GiftCardOrder
	err := db.NewSelect().Model(&orders).
		Where("status NOT IN (?)", bun.In([]models.OrderStatus{models.OrderStatusSuccess, models.OrderStatusError, models.OrderStatusExpired})).
		Where("updated_at < ?", cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return orders, nil
}
