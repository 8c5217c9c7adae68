package models

import (
	"time"

	"github.com/uptrace/bun"
)

type CollectionStatus string

const (
	CollectionStatusPending  CollectionStatus = "pending"
	CollectionStatusRedeemed CollectionStatus = "redeemed"
)

// Collection is a user's claim on a chest. At most one row exists per
// (chest_id, user_id) pair; the unique index backing that is what makes
// collect-once atomic. Status only ever moves pending -> redeemed.
type Collection struct {
	bun.BaseModel `bun:"table:collection"`
	ID            string           `bun:"id,pk" json:"id"`
	ChestID       string           `bun:"chest_id" json:"chest_id"`
	UserID        int64            `bun:"user_id" json:"user_id"`
	Status        CollectionStatus `bun:"status" json:"status"`
	CreatedAt     time.Time        `bun:"created_at,default:current_timestamp" json:"created_at"`
	RedeemedAt    *time.Time       `bun:"redeemed_at,nullzero" json:"redeemed_at,omitempty"`

	Chest *Chest `bun:"rel:belongs-to,join:chest_id=id" json:"chest,omitempty"`
}
