package models

import (
	"time"

	"github.com/uptrace/bun"
)

type OrderStatus string

const (
	OrderStatusUnpaid  OrderStatus = "unpaid"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusSuccess OrderStatus = "success"
	OrderStatusError   OrderStatus = "error"
	OrderStatusExpired OrderStatus = "expired"
)

// Terminal reports whether no further status transition can happen.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusSuccess || s == OrderStatusError || s == OrderStatusExpired
}

// GiftCardOrder is the audit record of one external redemption order. It is
// written before the first status poll so a crashed poll loop can be picked up
// by the reconciliation job. CollectionIDs are the pending collections that
// funded the order; they are flipped to redeemed only on terminal success.
type GiftCardOrder struct {
	bun.BaseModel `bun:"table:gift_card_order"`
	OrderID       string                 `bun:"order_id,pk" json:"order_id"`
	UserID        int64                  `bun:"user_id" json:"user_id"`
	Value         int                    `bun:"value" json:"value"`
	Currency      string                 `bun:"currency" json:"currency"`
	Status        OrderStatus            `bun:"status" json:"status"`
	CollectionIDs []string               `bun:"collection_ids,type:jsonb" json:"collection_ids"`
	Metadata      map[string]interface{} `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time              `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time              `bun:"updated_at" json:"updated_at"`
}
