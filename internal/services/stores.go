package services

import (
	"context"
	"time"

	"bitquest/internal/models"
)

// Consumer-side views of the datastore. Production wires datastore.Store*
// implementations; tests swap in fixtures.

type ChestStore interface {
	Insert(ctx context.Context, chest *models.Chest) error
	GetByID(ctx context.Context, id string) (*models.Chest, error)
	ListWithUserCollections(ctx context.Context, userID int64) ([]models.Chest, error)
}

type CollectionStore interface {
	Insert(ctx context.Context, collection *models.Collection) (bool, error)
	PendingByUser(ctx context.Context, userID int64) ([]models.Collection, error)
	ByUser(ctx context.Context, userID int64) ([]models.Collection, error)
	MarkRedeemed(ctx context.Context, ids []string) error
}

type OrderStore interface {
	Insert(ctx context.Context, order *models.GiftCardOrder) error
	GetByID(ctx context.Context, orderID string) (*models.GiftCardOrder, error)
	Update(ctx context.Context, order *models.GiftCardOrder) error
	UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus) error
	Stale(ctx context.Context, cutoff time.Time, limit int) ([]models.GiftCardOrder, error)
}
