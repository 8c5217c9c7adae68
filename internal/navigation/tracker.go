// Package navigation turns a stream of live location/heading samples into AR
// guidance toward chest targets: distance, bearing and the signed angle to
// rotate a directional indicator by.
package navigation

import (
	"context"
	"sync"

	"bitquest/internal/geo"
)

const (
	// NearThresholdMeters is where the UI switches to "you are close" state.
	NearThresholdMeters = 50.0
	// VeryNearThresholdMeters is where the collect interaction unlocks.
	VeryNearThresholdMeters = 5.0
)

// Sample is one sensor reading. Heading is nil when the device reports no
// orientation; guidance then carries no relative angle instead of a fake 0,
// so the arrow is hidden rather than pointing somewhere wrong.
type Sample struct {
	Location geo.Coordinate
	Heading  *float64
}

type Target struct {
	ChestID  string         `json:"chestId"`
	Location geo.Coordinate `json:"location"`
}

type Guidance struct {
	Target        Target   `json:"target"`
	Distance      float64  `json:"distance"`
	Bearing       float64  `json:"bearing"`
	RelativeAngle *float64 `json:"relative_angle,omitempty"`
	Near          bool     `json:"near"`
	VeryNear      bool     `json:"very_near"`
}

// Update is the guidance recomputed for one sample. Closest is the nearest
// candidate target; Selected is the user's explicit pick when it differs from
// Closest. After Override, Closest is dropped and only Selected is tracked.
type Update struct {
	Closest  *Guidance `json:"closest,omitempty"`
	Selected *Guidance `json:"selected,omitempty"`
}

// Tracker tracks up to two concurrent targets for one guidance session. Safe
// for concurrent use; sensor callbacks and UI actions arrive on different
// goroutines.
type Tracker struct {
	mu         sync.Mutex
	candidates []Target
	selected   *Target
	override   bool
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// SetCandidates replaces the pool the closest target is picked from, normally
// the latest nearby-chest response.
func (t *Tracker) SetCandidates(targets []Target) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.candidates = make([]Target, len(targets))
	copy(t.candidates, targets)
}

func (t *Tracker) Select(target Target) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.selected = &target
}

// Override latches "continue to the selected target" for the rest of the
// session. It never reverts; a new session needs a new Tracker.
func (t *Tracker) Override() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.selected != nil {
		t.override = true
	}
}

func (t *Tracker) Overridden() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.override
}

// Update recomputes guidance for one sample.
func (t *Tracker) Update(sample Sample) Update {
	t.mu.Lock()
	defer t.mu.Unlock()

	var update Update

	if t.selected != nil {
		g := guidanceFor(sample, *t.selected)
		update.Selected = &g
	}

	if t.override {
		return update
	}

	closest := closestOf(sample.Location, t.candidates)
	if closest == nil {
		return update
	}

	if t.selected != nil && closest.ChestID == t.selected.ChestID {
		update.Closest = update.Selected
		update.Selected = nil
		return update
	}

	g := guidanceFor(sample, *closest)
	update.Closest = &g
	return update
}

// Run consumes samples until ctx is cancelled or the channel closes, emitting
// one Update per sample. The returned channel is closed on exit so no further
// guidance leaks after the caller walks away.
func (t *Tracker) Run(ctx context.Context, samples <-chan Sample) <-chan Update {
	out := make(chan Update)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case sample, ok := <-samples:
				if !ok {
					return
				}
				select {
				case out <- t.Update(sample):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

func guidanceFor(sample Sample, target Target) Guidance {
	distance := geo.DistanceMeters(sample.Location, target.Location)
	bearing := geo.BearingDegrees(sample.Location, target.Location)

	g := Guidance{
		Target:   target,
		Distance: distance,
		Bearing:  bearing,
		Near:     distance <= NearThresholdMeters,
		VeryNear: distance <= VeryNearThresholdMeters,
	}

	if sample.Heading != nil {
		angle := geo.RelativeAngle(bearing, *sample.Heading)
		g.RelativeAngle = &angle
	}

	return g
}

func closestOf(from geo.Coordinate, targets []Target) *Target {
	var best *Target
	bestDistance := 0.0

	for i := range targets {
		d := geo.DistanceMeters(from, targets[i].Location)
		if best == nil || d < bestDistance {
			best = &targets[i]
			bestDistance = d
		}
	}

	return best
}
