package models

import (
	"time"

	"bitquest/internal/geo"
)

// NavigationSession is the redis-resident guidance state for one user: the
// explicitly selected target and the "keep my selection" override latch. The
// latch is one-way for the lifetime of the session; only clearing the whole
// session resets it.
type NavigationSession struct {
	SelectedChestID string          `msgpack:"selected_chest_id" json:"selected_chest_id"`
	SelectedTarget  *geo.Coordinate `msgpack:"selected_target" json:"selected_target,omitempty"`
	Override        bool            `msgpack:"override" json:"override"`
	UpdatedAt       time.Time       `msgpack:"updated_at" json:"updated_at"`
}
