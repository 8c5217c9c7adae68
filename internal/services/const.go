package services

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrChestNotFound = errors.New("chest not found")
var ErrAlreadyCollected = errors.New("chest already collected")
var ErrNoPendingCollections = errors.New("no pending collections")
var ErrInsufficientCollections = errors.New("not enough collections for redemption")
var ErrRedemptionLocked = errors.New("redemption already in progress")
var ErrOrderSubmission = errors.New("gift card order submission failed")
var ErrOrderFailed = errors.New("gift card order failed")
var ErrOrderPollTimeout = errors.New("gift card order polling timed out")
var ErrOrderNotFound = errors.New("gift card order not found")
var ErrNoNavigationTarget = errors.New("no navigation target selected")

const (
	CONFIG_MIN_COLLECTIONS_TO_REDEEM       = "MIN_COLLECTIONS_TO_REDEEM"
	CONFIG_NEARBY_RADIUS_IN_METERS         = "NEARBY_RADIUS_IN_METERS"
	CONFIG_NEARBY_TARGET_CHEST_COUNT       = "NEARBY_TARGET_CHEST_COUNT"
	CONFIG_GUARANTEED_CHEST_ENABLED        = "GUARANTEED_CHEST_ENABLED"
	CONFIG_ORDER_POLL_INTERVAL_IN_SECONDS  = "ORDER_POLL_INTERVAL_IN_SECONDS"
	CONFIG_ORDER_POLL_MAX_ATTEMPTS         = "ORDER_POLL_MAX_ATTEMPTS"
	CONFIG_GIFT_CARD_PRODUCT_ID            = "GIFT_CARD_PRODUCT_ID"
	CONFIG_GIFT_CARD_CURRENCY              = "GIFT_CARD_CURRENCY"
	CONFIG_SPAWN_AHEAD_DISTANCE_IN_METERS  = "SPAWN_AHEAD_DISTANCE_IN_METERS"

	DEFAULT_MIN_COLLECTIONS_TO_REDEEM      = 3
	DEFAULT_NEARBY_RADIUS_IN_METERS        = 1000
	DEFAULT_NEARBY_TARGET_CHEST_COUNT      = 8
	DEFAULT_ORDER_POLL_INTERVAL_IN_SECONDS = 2
	DEFAULT_ORDER_POLL_MAX_ATTEMPTS        = 10
	DEFAULT_SPAWN_AHEAD_DISTANCE_IN_METERS = 5
	DEFAULT_GIFT_CARD_PRODUCT_ID           = "amazon_us"
	DEFAULT_GIFT_CARD_CURRENCY             = "USD"

	// the onboarding chest every nearby query carries: 20m northeast, epic
	GUARANTEED_CHEST_DISTANCE_IN_METERS = 20
	GUARANTEED_CHEST_BEARING_DEGREES    = 45
	GUARANTEED_CHEST_VALUE              = 1500

	DEFAULT_CHEST_MODEL = "chest.glb"

	COLLECT_RATE_LIMIT_PER_MINUTE = 30
	WEBHOOK_RATE_LIMIT_PER_MINUTE = 600

	BITREFILL_API_BASE_URL = "https://api.bitrefill.com/v1"

	CACHE_TTL_15_SECONDS = 15 * time.Second
	CACHE_TTL_1_MIN      = 1 * time.Minute
	CACHE_TTL_5_MINS     = 5 * time.Minute
)

func LockKeyUserRedemption(userID int64) string {
	return fmt.Sprintf("lock:user-redeem:%d", userID)
}

// db
func DBKeyConfig(key string) string {
	return fmt.Sprintf("config:%s", strings.ToLower(key))
}

func DBKeyAllChests() string {
	return "chests:all"
}

func DBKeyUserPendingRewards(userID int64) string {
	return fmt.Sprintf("user:pending_rewards:%d", userID)
}

func LimitKeyUserCollect(userID int64) string {
	return fmt.Sprintf("limit:collect:%d", userID)
}

func LimitKeyWebhook() string {
	return "limit:webhook:bitrefill"
}
