package interfaces

import (
	"context"
	"net/http"

	"github.com/go-redis/redis_rate/v10"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) error
}

// Mutex is the slice of redsync.Mutex the services rely on.
type Mutex interface {
	TryLockContext(ctx context.Context) error
	UnlockContext(ctx context.Context) (bool, error)
}

// Locksmith hands out named distributed mutexes (redsync in production,
// in-memory in tests).
type Locksmith interface {
	NewMutex(name string) Mutex
}

// WebhookVerifier authenticates an incoming provider webhook before its
// payload is trusted. Bitrefill has not published a signature scheme yet, so
// the default implementation only checks header presence; swap in a real
// verifier before production.
type WebhookVerifier interface {
	Verify(header http.Header, body []byte) error
}
