package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"bitquest/internal/geo"
	"bitquest/internal/models"
)

var testOrigin = geo.Coordinate{Latitude: 40.7580, Longitude: -73.9855}

func newTestServiceChest(t *testing.T, chests *fakeChestStore, collections *fakeCollectionStore, config map[string]string) *ServiceChest {
	t.Helper()

	generator, err := NewChestGenerator(rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}

	return &ServiceChest{
		chests:        chests,
		collections:   collections,
		cache:         noopCache{},
		limiter:       &fakeLimiter{},
		serviceConfig: &staticConfig{values: config},
		generator:     generator,
	}
}

func TestFindNearbySynthesizesToTarget(t *testing.T) {
	service := newTestServiceChest(t, newFakeChestStore(), &fakeCollectionStore{}, nil)

	views, err := service.FindNearby(context.Background(), 1, testOrigin, -1)
	if err != nil {
		t.Fatal(err)
	}

	if len(views) != DEFAULT_NEARBY_TARGET_CHEST_COUNT {
		t.Fatalf("got %d chests, expected %d", len(views), DEFAULT_NEARBY_TARGET_CHEST_COUNT)
	}

	for i, view := range views {
		if !view.Generated {
			t.Errorf("chest %d: expected synthesized", i)
		}
		if !IsGeneratedChestID(view.ID) {
			t.Errorf("chest %d: id %q lacks the synthesized prefix", i, view.ID)
		}
		if !view.Rarity.Valid() {
			t.Errorf("chest %d: invalid rarity %q", i, view.Rarity)
		}
		if view.Distance > DEFAULT_NEARBY_RADIUS_IN_METERS+1 {
			t.Errorf("chest %d: distance %v outside radius", i, view.Distance)
		}
		if i > 0 && views[i-1].Distance > view.Distance {
			t.Errorf("chests not sorted by distance at %d", i)
		}

		values := rarityValues[view.Rarity]
		if view.Value < values.min || view.Value > values.max {
			t.Errorf("chest %d: value %d outside %q range", i, view.Value, view.Rarity)
		}
	}
}

func TestFindNearbyGuaranteedChest(t *testing.T) {
	service := newTestServiceChest(t, newFakeChestStore(), &fakeCollectionStore{}, nil)

	views, err := service.FindNearby(context.Background(), 1, testOrigin, -1)
	if err != nil {
		t.Fatal(err)
	}

	found := false
	for _, view := range views {
		if view.Rarity == models.ChestRarityEpic && view.Value == GUARANTEED_CHEST_VALUE && math.Abs(view.Distance-GUARANTEED_CHEST_DISTANCE_IN_METERS) < 1 {
			found = true
		}
	}
	if !found {
		t.Error("expected a guaranteed epic chest a short walk away")
	}

	service = newTestServiceChest(t, newFakeChestStore(), &fakeCollectionStore{}, map[string]string{
		CONFIG_GUARANTEED_CHEST_ENABLED: "false",
	})
	views, err = service.FindNearby(context.Background(), 1, testOrigin, -1)
	if err != nil {
		t.Fatal(err)
	}
	for _, view := range views {
		if view.Value == GUARANTEED_CHEST_VALUE && math.Abs(view.Distance-GUARANTEED_CHEST_DISTANCE_IN_METERS) < 1 {
			t.Error("guaranteed chest present despite being disabled")
		}
	}
}

func TestFindNearbyAnonymous(t *testing.T) {
	chests := newFakeChestStore()
	collections := &fakeCollectionStore{}
	chests.collections = collections
	chests.Insert(context.Background(), &models.Chest{ID: "c1", Location: geo.DestinationPoint(testOrigin, 90, 100), Rarity: models.ChestRarityCommon, Value: 100})

	service := newTestServiceChest(t, chests, collections, nil)
	if _, err := service.Collect(context.Background(), 2, "c1"); err != nil {
		t.Fatal(err)
	}

	// the collector sees the chest flagged, an anonymous caller does not
	views, err := service.FindNearby(context.Background(), 2, testOrigin, -1)
	if err != nil {
		t.Fatal(err)
	}
	for _, view := range views {
		if view.ID == "c1" && !view.IsCollected {
			t.Error("collector's own chest not flagged as collected")
		}
	}

	views, err = service.FindNearby(context.Background(), 0, testOrigin, -1)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, view := range views {
		if view.ID == "c1" {
			found = true
			if view.IsCollected {
				t.Error("anonymous caller saw another user's collection state")
			}
		}
	}
	if !found {
		t.Error("persisted chest missing from anonymous response")
	}
}

func TestFindNearbyGuaranteedChestKeepsSlot(t *testing.T) {
	chests := newFakeChestStore()
	for i := 0; i < DEFAULT_NEARBY_TARGET_CHEST_COUNT+2; i++ {
		chests.Insert(context.Background(), &models.Chest{
			ID:       fmt.Sprintf("c%d", i),
			Location: geo.DestinationPoint(testOrigin, float64(i*30), 100+float64(i)*50),
			Rarity:   models.ChestRarityCommon,
			Value:    100,
		})
	}

	service := newTestServiceChest(t, chests, &fakeCollectionStore{}, nil)
	views, err := service.FindNearby(context.Background(), 1, testOrigin, -1)
	if err != nil {
		t.Fatal(err)
	}

	if len(views) != DEFAULT_NEARBY_TARGET_CHEST_COUNT {
		t.Fatalf("got %d chests, expected %d", len(views), DEFAULT_NEARBY_TARGET_CHEST_COUNT)
	}

	found := false
	for _, view := range views {
		if view.Generated && view.Value == GUARANTEED_CHEST_VALUE {
			found = true
		}
	}
	if !found {
		t.Error("guaranteed chest crowded out by persisted chests")
	}
}

func TestFindNearbyRadiusFilter(t *testing.T) {
	chests := newFakeChestStore()
	inside := models.Chest{ID: "inside", Location: geo.DestinationPoint(testOrigin, 90, 500), Rarity: models.ChestRarityCommon, Value: 100}
	outside := models.Chest{ID: "outside", Location: geo.DestinationPoint(testOrigin, 90, 2000), Rarity: models.ChestRarityRare, Value: 400}
	chests.Insert(context.Background(), &inside)
	chests.Insert(context.Background(), &outside)

	service := newTestServiceChest(t, chests, &fakeCollectionStore{}, nil)
	views, err := service.FindNearby(context.Background(), 1, testOrigin, -1)
	if err != nil {
		t.Fatal(err)
	}

	var sawInside, sawOutside bool
	for _, view := range views {
		switch view.ID {
		case "inside":
			sawInside = true
			if view.Generated {
				t.Error("persisted chest flagged as synthesized")
			}
		case "outside":
			sawOutside = true
		}
	}
	if !sawInside {
		t.Error("chest within radius missing from response")
	}
	if sawOutside {
		t.Error("chest beyond radius leaked into response")
	}
}

func TestFindNearbyInvalidCoordinates(t *testing.T) {
	service := newTestServiceChest(t, newFakeChestStore(), &fakeCollectionStore{}, nil)

	_, err := service.FindNearby(context.Background(), 1, geo.Coordinate{Latitude: 91, Longitude: 0}, -1)
	if err == nil {
		t.Fatal("expected validation error for out-of-range latitude")
	}
}

func TestCollectTwice(t *testing.T) {
	chests := newFakeChestStore()
	chests.Insert(context.Background(), &models.Chest{ID: "c1", Location: testOrigin, Rarity: models.ChestRarityCommon, Value: 100})

	service := newTestServiceChest(t, chests, &fakeCollectionStore{}, nil)

	collection, err := service.Collect(context.Background(), 1, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if collection.Status != models.CollectionStatusPending {
		t.Errorf("new collection status = %q, expected pending", collection.Status)
	}

	_, err = service.Collect(context.Background(), 1, "c1")
	if !errors.Is(err, ErrAlreadyCollected) {
		t.Fatalf("second collect: got %v, expected ErrAlreadyCollected", err)
	}

	// a different user can still collect the same chest
	if _, err := service.Collect(context.Background(), 2, "c1"); err != nil {
		t.Fatalf("collect by another user: %v", err)
	}
}

func TestCollectUnknownChest(t *testing.T) {
	service := newTestServiceChest(t, newFakeChestStore(), &fakeCollectionStore{}, nil)

	_, err := service.Collect(context.Background(), 1, "missing")
	if !errors.Is(err, ErrChestNotFound) {
		t.Fatalf("got %v, expected ErrChestNotFound", err)
	}
}

func TestCollectSynthesizedChestNotCollectible(t *testing.T) {
	service := newTestServiceChest(t, newFakeChestStore(), &fakeCollectionStore{}, nil)

	_, err := service.Collect(context.Background(), 1, GeneratedChestID())
	if !errors.Is(err, ErrChestNotFound) {
		t.Fatalf("got %v, expected ErrChestNotFound for a synthesized id", err)
	}
}

func TestCollectRateLimited(t *testing.T) {
	chests := newFakeChestStore()
	chests.Insert(context.Background(), &models.Chest{ID: "c1", Location: testOrigin, Rarity: models.ChestRarityCommon, Value: 100})

	service := newTestServiceChest(t, chests, &fakeCollectionStore{}, nil)
	service.limiter = &fakeLimiter{deny: true}

	if _, err := service.Collect(context.Background(), 1, "c1"); err == nil {
		t.Fatal("expected rate limit error")
	}
}

func TestSpawnAhead(t *testing.T) {
	chests := newFakeChestStore()
	service := newTestServiceChest(t, chests, &fakeCollectionStore{}, nil)

	chest, err := service.SpawnAhead(context.Background(), 1, testOrigin, 90)
	if err != nil {
		t.Fatal(err)
	}

	if IsGeneratedChestID(chest.ID) {
		t.Errorf("spawned chest id %q should be a persisted id", chest.ID)
	}

	distance := geo.DistanceMeters(testOrigin, chest.Location)
	if math.Abs(distance-DEFAULT_SPAWN_AHEAD_DISTANCE_IN_METERS) > 0.1 {
		t.Errorf("spawned %vm away, expected %vm", distance, DEFAULT_SPAWN_AHEAD_DISTANCE_IN_METERS)
	}

	bearing := geo.BearingDegrees(testOrigin, chest.Location)
	if math.Abs(bearing-90) > 0.5 {
		t.Errorf("spawned at bearing %v, expected 90", bearing)
	}

	if _, err := chests.GetByID(context.Background(), chest.ID); err != nil {
		t.Fatalf("spawned chest was not persisted: %v", err)
	}
}

func TestFindNearbyRadiusZero(t *testing.T) {
	chests := newFakeChestStore()
	chests.Insert(context.Background(), &models.Chest{ID: "c1", Location: geo.DestinationPoint(testOrigin, 0, 100), Rarity: models.ChestRarityCommon, Value: 100})

	service := newTestServiceChest(t, chests, &fakeCollectionStore{}, map[string]string{
		CONFIG_GUARANTEED_CHEST_ENABLED: "false",
	})

	views, err := service.FindNearby(context.Background(), 1, testOrigin, 0)
	if err != nil {
		t.Fatal(err)
	}

	if len(views) != DEFAULT_NEARBY_TARGET_CHEST_COUNT {
		t.Fatalf("got %d chests, expected %d", len(views), DEFAULT_NEARBY_TARGET_CHEST_COUNT)
	}
	for i, view := range views {
		if !view.Generated {
			t.Errorf("chest %d: persisted chest included despite zero radius", i)
		}
		if view.Distance > 0.1 {
			t.Errorf("chest %d: %vm away, expected at the user's feet", i, view.Distance)
		}
	}
}
