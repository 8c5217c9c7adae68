// Package locking wraps redsync behind the interfaces.Locksmith seam so
// services that serialize on a distributed mutex stay testable without redis.
package locking

import (
	"github.com/go-redsync/redsync/v4"

	"bitquest/internal/interfaces"
)

type LocksmithRedsync struct {
	rs *redsync.Redsync
}

func NewLocksmith(rs *redsync.Redsync) (*LocksmithRedsync, error) {
	return &LocksmithRedsync{rs}, nil
}

func (l *LocksmithRedsync) NewMutex(name string) interfaces.Mutex {
	return l.rs.NewMutex(name)
}
