package datastore

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"bitquest/internal/models"
)

// Store types wrap the package functions with a bound *bun.DB so services can
// depend on small interfaces instead of the database handle.

type StoreChest struct {
	db *bun.DB
}

func NewStoreChest(db *bun.DB) *StoreChest {
	return &StoreChest{db}
}

func (store *StoreChest) Insert(ctx context.Context, chest *models.Chest) error {
	return InsertChest(ctx, store.db, chest)
}

func (store *StoreChest) GetByID(ctx context.Context, id string) (*models.Chest, error) {
	return GetChestByID(ctx, store.db, id)
}

func (store *StoreChest) ListWithUserCollections(ctx context.Context, userID int64) ([]models.Chest, error) {
	return GetChestsWithUserCollections(ctx, store.db, userID)
}

type StoreCollection struct {
	db *bun.DB
}

func NewStoreCollection(db *bun.DB) *StoreCollection {
	return &StoreCollection{db}
}

func (store *StoreCollection) Insert(ctx context.Context, collection *models.Collection) (bool, error) {
	return InsertCollection(ctx, store.db, collection)
}

func (store *StoreCollection) PendingByUser(ctx context.Context, userID int64) ([]models.Collection, error) {
	return GetPendingCollectionsByUserID(ctx, store.db, userID)
}

func (store *StoreCollection) ByUser(ctx context.Context, userID int64) ([]models.Collection, error) {
	return GetCollectionsByUserID(ctx, store.db, userID)
}

func (store *StoreCollection) MarkRedeemed(ctx context.Context, ids []string) error {
	return MarkCollectionsRedeemed(ctx, store.db, ids)
}

type StoreOrder struct {
	db *bun.DB
}

func NewStoreOrder(db *bun.DB) *StoreOrder {
	return &StoreOrder{db}
}

func (store *StoreOrder) Insert(ctx context.Context, order *models.GiftCardOrder) error {
	return InsertGiftCardOrder(ctx, store.db, order)
}

func (store *StoreOrder) GetByID(ctx context.Context, orderID string) (*models.GiftCardOrder, error) {
	return GetGiftCardOrderByID(ctx, store.db, orderID)
}

func (store *StoreOrder) Update(ctx context.Context, order *models.GiftCardOrder) error {
	return UpdateGiftCardOrder(ctx, store.db, order)
}

func (store *StoreOrder) UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	return UpdateGiftCardOrderStatus(ctx, store.db, orderID, status)
}

func (store *StoreOrder) Stale(ctx context.Context, cutoff time.Time, limit int) ([]models.GiftCardOrder, error) {
	return GetStaleGiftCardOrders(ctx, store.db, cutoff, limit)
}
