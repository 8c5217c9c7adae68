package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/go-redis/redis_rate/v10"
	"github.com/google/uuid"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"

	"bitquest/internal/geo"
	"bitquest/internal/interfaces"
	"bitquest/internal/models"
	"bitquest/internal/pkg/caching"
)

type ServiceChest struct {
	container     *do.Injector
	chests        ChestStore
	collections   CollectionStore
	cache         caching.Cache
	limiter       interfaces.Limiter
	serviceConfig ConfigSource
	generator     *ChestGenerator
}

func NewServiceChest(container *do.Injector) (*ServiceChest, error) {
	chests, err := do.Invoke[ChestStore](container)
	if err != nil {
		return nil, err
	}

	collections, err := do.Invoke[CollectionStore](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	limiter, err := do.Invoke[interfaces.Limiter](container)
	if err != nil {
		return nil, err
	}

	serviceConfig, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	generator, err := do.Invoke[*ChestGenerator](container)
	if err != nil {
		return nil, err
	}

	return &ServiceChest{container, chests, collections, cache, limiter, serviceConfig, generator}, nil
}

// FindNearby returns chests within radius meters of location, padded with
// synthesized chests up to the configured target count so the map is never
// empty. A negative radius means "use the configured default"; zero is honored
// literally and degenerates to synthesized chests at the user's feet.
// Persisted chests the user already collected stay in the response flagged as
// collected.
func (service *ServiceChest) FindNearby(ctx context.Context, userID int64, location geo.Coordinate, radius float64) ([]models.ChestView, error) {
	if !location.Valid() {
		return nil, errorx.Wrap(errors.New("invalid coordinates"), errorx.Validation)
	}

	if radius < 0 {
		configured, _ := service.serviceConfig.GetIntConfig(ctx, CONFIG_NEARBY_RADIUS_IN_METERS, DEFAULT_NEARBY_RADIUS_IN_METERS)
		radius = float64(configured)
	}

	targetCount, _ := service.serviceConfig.GetIntConfig(ctx, CONFIG_NEARBY_TARGET_CHEST_COUNT, DEFAULT_NEARBY_TARGET_CHEST_COUNT)
	guaranteed, _ := service.serviceConfig.GetBoolConfig(ctx, CONFIG_GUARANTEED_CHEST_ENABLED, true)

	chests, err := service.chests.ListWithUserCollections(ctx, userID)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	seen := map[string]bool{}
	views := make([]models.ChestView, 0, targetCount)
	for _, chest := range chests {
		if seen[chest.ID] {
			continue
		}

		distance := geo.DistanceMeters(location, chest.Location)
		if distance > radius {
			continue
		}

		seen[chest.ID] = true
		views = append(views, models.ChestView{
			Chest:       chest,
			Distance:    distance,
			IsCollected: len(chest.Collections) > 0,
		})
	}

	// the guaranteed chest takes one of the target slots and is resorted with
	// everything else
	if guaranteed {
		chest := service.generator.GuaranteedChest(location)
		views = append(views, models.ChestView{
			Chest:     chest,
			Distance:  geo.DistanceMeters(location, chest.Location),
			Generated: true,
		})
	}

	for len(views) < targetCount {
		chest := service.generator.Generate(location, radius)
		views = append(views, models.ChestView{
			Chest:     chest,
			Distance:  geo.DistanceMeters(location, chest.Location),
			Generated: true,
		})
	}

	sort.Slice(views, func(i, j int) bool {
		return views[i].Distance < views[j].Distance
	})

	if len(views) > targetCount {
		views = views[:targetCount]
	}

	return views, nil
}

// Collect claims a persisted chest for the user. Synthesized chests are not
// collectible; their ids resolve to not-found. The conditional insert on
// (chest_id, user_id) makes retries and races collapse into
// ErrAlreadyCollected.
func (service *ServiceChest) Collect(ctx context.Context, userID int64, chestID string) (*models.Collection, error) {
	if err := service.limiter.Allow(ctx, LimitKeyUserCollect(userID), redis_rate.PerMinute(COLLECT_RATE_LIMIT_PER_MINUTE)); err != nil {
		return nil, errorx.Wrap(err, errorx.RateLimiting)
	}

	_, err := service.chests.GetByID(ctx, chestID)
	if err == sql.ErrNoRows {
		return nil, errorx.Wrap(ErrChestNotFound, errorx.NotExist)
	}
	if err != nil {
		return nil, err
	}

	collection := &models.Collection{
		ID:      uuid.NewString(),
		ChestID: chestID,
		UserID:  userID,
		Status:  models.CollectionStatusPending,
	}

	inserted, err := service.collections.Insert(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, errorx.Wrap(ErrAlreadyCollected, errorx.Invalid)
	}

	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyUserPendingRewards(userID))

	return collection, nil
}

// SpawnAhead drops a persisted chest a short walk ahead of the user in the
// direction they are facing, so AR demos always have a collectible target.
func (service *ServiceChest) SpawnAhead(ctx context.Context, userID int64, location geo.Coordinate, heading float64) (*models.Chest, error) {
	if !location.Valid() {
		return nil, errorx.Wrap(errors.New("invalid coordinates"), errorx.Validation)
	}

	distance, _ := service.serviceConfig.GetIntConfig(ctx, CONFIG_SPAWN_AHEAD_DISTANCE_IN_METERS, DEFAULT_SPAWN_AHEAD_DISTANCE_IN_METERS)

	chest := service.generator.Generate(location, 0)
	chest.ID = uuid.NewString()
	chest.Location = geo.DestinationPoint(location, heading, float64(distance))

	if err := service.chests.Insert(ctx, &chest); err != nil {
		return nil, err
	}

	return &chest, nil
}

func (service *ServiceChest) GetCollectionHistory(ctx context.Context, userID int64) ([]models.Collection, error) {
	collections, err := service.collections.ByUser(ctx, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return collections, err
}
