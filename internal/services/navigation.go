package services

import (
	"context"
	"errors"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"

	"bitquest/internal/datastore/redis_store"
	"bitquest/internal/geo"
	"bitquest/internal/models"
	"bitquest/internal/navigation"
)

// ServiceNavigation keeps per-user guidance sessions in redis and answers
// guidance queries against them. The heavy lifting is in the navigation
// package; this service only persists the selection and the override latch
// between requests.
type ServiceNavigation struct {
	container *do.Injector
	redisDB   redis.UniversalClient
}

func NewServiceNavigation(container *do.Injector) (*ServiceNavigation, error) {
	redisDB, err := do.InvokeNamed[redis.UniversalClient](container, "redis-db")
	if err != nil {
		return nil, err
	}

	return &ServiceNavigation{container, redisDB}, nil
}

func (service *ServiceNavigation) SelectTarget(ctx context.Context, userID int64, chestID string, target geo.Coordinate) error {
	if !target.Valid() {
		return errorx.Wrap(errors.New("invalid coordinates"), errorx.Validation)
	}

	session, err := redis_store.GetNavigationSession(ctx, service.redisDB, userID)
	if err != nil && err != redis.Nil {
		return err
	}
	if session == nil {
		session = &models.NavigationSession{}
	}

	session.SelectedChestID = chestID
	session.SelectedTarget = &target
	return redis_store.SetNavigationSession(ctx, service.redisDB, userID, session)
}

// Override latches "keep my selected target" for the rest of the session.
func (service *ServiceNavigation) Override(ctx context.Context, userID int64) error {
	session, err := redis_store.GetNavigationSession(ctx, service.redisDB, userID)
	if err == redis.Nil {
		return errorx.Wrap(ErrNoNavigationTarget, errorx.Validation)
	}
	if err != nil {
		return err
	}
	if session.SelectedChestID == "" {
		return errorx.Wrap(ErrNoNavigationTarget, errorx.Validation)
	}

	session.Override = true
	return redis_store.SetNavigationSession(ctx, service.redisDB, userID, session)
}

// Guide computes one guidance update for the sample against the caller's
// candidate targets plus whatever the session has selected.
func (service *ServiceNavigation) Guide(ctx context.Context, userID int64, sample navigation.Sample, candidates []navigation.Target) (*navigation.Update, error) {
	if !sample.Location.Valid() {
		return nil, errorx.Wrap(errors.New("invalid coordinates"), errorx.Validation)
	}

	session, err := redis_store.GetNavigationSession(ctx, service.redisDB, userID)
	if err != nil && err != redis.Nil {
		return nil, err
	}

	tracker := navigation.NewTracker()
	tracker.SetCandidates(candidates)

	if session != nil && session.SelectedChestID != "" && session.SelectedTarget != nil {
		tracker.Select(navigation.Target{
			ChestID:  session.SelectedChestID,
			Location: *session.SelectedTarget,
		})
		if session.Override {
			tracker.Override()
		}
	}

	update := tracker.Update(sample)
	return &update, nil
}

func (service *ServiceNavigation) Clear(ctx context.Context, userID int64) error {
	return redis_store.ClearNavigationSession(ctx, service.redisDB, userID)
}
