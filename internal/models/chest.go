package models

import (
	"time"

	"github.com/uptrace/bun"

	"bitquest/internal/geo"
)

type ChestRarity string

const (
	ChestRarityCommon ChestRarity = "common"
	ChestRarityRare   ChestRarity = "rare"
	ChestRarityEpic   ChestRarity = "epic"
)

func (r ChestRarity) Valid() bool {
	switch r {
	case ChestRarityCommon, ChestRarityRare, ChestRarityEpic:
		return true
	default:
		return false
	}
}

// Chest is a location-anchored collectible. Rows are immutable after insert;
// distance and collected state are computed per query and never stored.
type Chest struct {
	bun.BaseModel `bun:"table:chest"`
	ID            string         `bun:"id,pk" json:"id"`
	Location      geo.Coordinate `bun:"location,type:jsonb" json:"location"`
	Rarity        ChestRarity    `bun:"rarity" json:"rarity"`
	Value         int            `bun:"value" json:"value"`
	ModelRef      string         `bun:"model_ref" json:"model"`
	CreatedAt     time.Time      `bun:"created_at,default:current_timestamp" json:"created_at"`

	Collections []*Collection `bun:"rel:has-many,join:id=chest_id" json:"-"`
}

// ChestView is the request-scoped nearby result: a chest plus the caller's
// distance to it and whether the caller already collected it. Synthesized
// chests are regenerated on every query, so their ids are not stable across
// requests.
type ChestView struct {
	Chest
	Distance    float64 `json:"distance"`
	IsCollected bool    `json:"isCollected"`
	Generated   bool    `json:"generated"`
}
