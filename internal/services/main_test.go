package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/go-redis/redis_rate/v10"

	"bitquest/internal/interfaces"
	"bitquest/internal/models"
)

// In-memory doubles for the seams the services depend on.

type fakeChestStore struct {
	mu          sync.Mutex
	chests      map[string]models.Chest
	collections *fakeCollectionStore
}

func newFakeChestStore() *fakeChestStore {
	return &fakeChestStore{chests: map[string]models.Chest{}}
}

func (store *fakeChestStore) Insert(ctx context.Context, chest *models.Chest) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if _, ok := store.chests[chest.ID]; !ok {
		store.chests[chest.ID] = *chest
	}
	return nil
}

func (store *fakeChestStore) GetByID(ctx context.Context, id string) (*models.Chest, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	chest, ok := store.chests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &chest, nil
}

func (store *fakeChestStore) ListWithUserCollections(ctx context.Context, userID int64) ([]models.Chest, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	ids := make([]string, 0, len(store.chests))
	for id := range store.chests {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	chests := make([]models.Chest, 0, len(ids))
	for _, id := range ids {
		chest := store.chests[id]
		// a zero userID is an anonymous caller and gets no collections joined
		if userID != 0 && store.collections != nil {
			for _, collection := range store.collections.collections {
				if collection.ChestID == chest.ID && collection.UserID == userID {
					c := collection
					chest.Collections = append(chest.Collections, &c)
				}
			}
		}
		chests = append(chests, chest)
	}
	return chests, nil
}

type fakeCollectionStore struct {
	mu          sync.Mutex
	collections []models.Collection
}

func (store *fakeCollectionStore) Insert(ctx context.Context, collection *models.Collection) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, existing := range store.collections {
		if existing.ChestID == collection.ChestID && existing.UserID == collection.UserID {
			return false, nil
		}
	}
	collection.CreatedAt = time.Now()
	store.collections = append(store.collections, *collection)
	return true, nil
}

func (store *fakeCollectionStore) PendingByUser(ctx context.Context, userID int64) ([]models.Collection, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	var pending []models.Collection
	for _, collection := range store.collections {
		if collection.UserID == userID && collection.Status == models.CollectionStatusPending {
			pending = append(pending, collection)
		}
	}
	return pending, nil
}

func (store *fakeCollectionStore) ByUser(ctx context.Context, userID int64) ([]models.Collection, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	var out []models.Collection
	for _, collection := range store.collections {
		if collection.UserID == userID {
			out = append(out, collection)
		}
	}
	return out, nil
}

func (store *fakeCollectionStore) MarkRedeemed(ctx context.Context, ids []string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	now := time.Now()
	for _, id := range ids {
		for i := range store.collections {
			if store.collections[i].ID == id && store.collections[i].Status == models.CollectionStatusPending {
				store.collections[i].Status = models.CollectionStatusRedeemed
				store.collections[i].RedeemedAt = &now
			}
		}
	}
	return nil
}

func (store *fakeCollectionStore) statusOf(id string) models.CollectionStatus {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, collection := range store.collections {
		if collection.ID == id {
			return collection.Status
		}
	}
	return ""
}

type fakeOrderStore struct {
	mu     sync.Mutex
	orders map[string]models.GiftCardOrder
	stale  []models.GiftCardOrder
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: map[string]models.GiftCardOrder{}}
}

func (store *fakeOrderStore) Insert(ctx context.Context, order *models.GiftCardOrder) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.orders[order.OrderID] = *order
	return nil
}

func (store *fakeOrderStore) GetByID(ctx context.Context, orderID string) (*models.GiftCardOrder, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	order, ok := store.orders[orderID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &order, nil
}

func (store *fakeOrderStore) Update(ctx context.Context, order *models.GiftCardOrder) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.orders[order.OrderID] = *order
	return nil
}

func (store *fakeOrderStore) UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	order := store.orders[orderID]
	order.Status = status
	store.orders[orderID] = order
	return nil
}

func (store *fakeOrderStore) Stale(ctx context.Context, cutoff time.Time, limit int) ([]models.GiftCardOrder, error) {
	return store.stale, nil
}

type fakeGiftCardAPI struct {
	mu            sync.Mutex
	createErr     error
	createResp    *GiftCardOrderResponse
	balanceResp   *AccountBalance
	pollStatuses  []models.OrderStatus
	lastCreate    GiftCardOrderRequest
	createCalls   int
	getCalls      int
	purchaseCalls int
}

func (api *fakeGiftCardAPI) CreateOrder(ctx context.Context, req GiftCardOrderRequest) (*GiftCardOrderResponse, error) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.createCalls++
	api.lastCreate = req
	if api.createErr != nil {
		return nil, api.createErr
	}
	if api.createResp != nil {
		return api.createResp, nil
	}
	return &GiftCardOrderResponse{ID: "order-1", Status: string(models.OrderStatusUnpaid), Value: req.Value, Currency: req.Currency}, nil
}

func (api *fakeGiftCardAPI) GetOrder(ctx context.Context, orderID string) (*GiftCardOrderResponse, error) {
	api.mu.Lock()
	defer api.mu.Unlock()
	if api.getCalls >= len(api.pollStatuses) {
		return nil, errors.New("no scripted status left")
	}
	status := api.pollStatuses[api.getCalls]
	api.getCalls++
	return &GiftCardOrderResponse{ID: orderID, Status: string(status)}, nil
}

func (api *fakeGiftCardAPI) PurchaseWithBalance(ctx context.Context, orderID string) (*GiftCardOrderResponse, error) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.purchaseCalls++
	return &GiftCardOrderResponse{ID: orderID, Status: string(models.OrderStatusPaid)}, nil
}

func (api *fakeGiftCardAPI) GetAccountBalance(ctx context.Context) (*AccountBalance, error) {
	api.mu.Lock()
	defer api.mu.Unlock()
	if api.balanceResp != nil {
		return api.balanceResp, nil
	}
	return &AccountBalance{Balance: 10000, Currency: "USD"}, nil
}

type noopCache struct{}

func (noopCache) Get(ctx context.Context, key string, target any) error {
	return cache.ErrCacheMiss
}

func (noopCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return nil
}

func (noopCache) Delete(ctx context.Context, key string) error {
	return nil
}

type fakeLimiter struct {
	deny bool
}

func (l *fakeLimiter) Allow(ctx context.Context, key string, limit redis_rate.Limit) error {
	if l.deny {
		return errors.New("rate limit exceeded")
	}
	return nil
}

type fakeMutex struct {
	locksmith *fakeLocksmith
	name      string
}

func (m *fakeMutex) TryLockContext(ctx context.Context) error {
	m.locksmith.mu.Lock()
	defer m.locksmith.mu.Unlock()
	if m.locksmith.held[m.name] {
		return errors.New("lock already taken")
	}
	m.locksmith.held[m.name] = true
	return nil
}

func (m *fakeMutex) UnlockContext(ctx context.Context) (bool, error) {
	m.locksmith.mu.Lock()
	defer m.locksmith.mu.Unlock()
	delete(m.locksmith.held, m.name)
	return true, nil
}

type fakeLocksmith struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLocksmith() *fakeLocksmith {
	return &fakeLocksmith{held: map[string]bool{}}
}

func (l *fakeLocksmith) NewMutex(name string) interfaces.Mutex {
	return &fakeMutex{locksmith: l, name: name}
}

type fakeWebhookLedger struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeWebhookLedger() *fakeWebhookLedger {
	return &fakeWebhookLedger{seen: map[string]bool{}}
}

func (l *fakeWebhookLedger) MarkDelivered(ctx context.Context, orderID string, status string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := orderID + ":" + status
	if l.seen[key] {
		return false, nil
	}
	l.seen[key] = true
	return true, nil
}

func (l *fakeWebhookLedger) ClearDelivered(ctx context.Context, orderID string, status string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.seen, orderID+":"+status)
	return nil
}

// staticConfig serves overrides from a map and falls back to the caller's
// default, like the real config service does on a missing row.
type staticConfig struct {
	values map[string]string
}

func (c *staticConfig) GetStringConfig(ctx context.Context, key string, defaultValue string) (string, error) {
	if v, ok := c.values[key]; ok {
		return v, nil
	}
	return defaultValue, nil
}

func (c *staticConfig) GetIntConfig(ctx context.Context, key string, defaultValue int) (int, error) {
	if v, ok := c.values[key]; ok {
		return strconv.Atoi(v)
	}
	return defaultValue, nil
}

func (c *staticConfig) GetBoolConfig(ctx context.Context, key string, defaultValue bool) (bool, error) {
	if v, ok := c.values[key]; ok {
		return v == "true", nil
	}
	return defaultValue, nil
}
