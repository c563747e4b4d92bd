package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 50 * time.Millisecond

// Locker serializes credentialed operations
type Locker interface {
	// Lock blocks until the region is free or ctx is done
	Lock(ctx context.Context) (unlock func(), err error)
}

// RegionLock guards the credentialed region within this process and, when a
// lock file is configured, across every gitkey process of the user: the
// global git config they all rewrite is shared.
type RegionLock struct {
	sem  chan struct{}
	path string
}

var _ Locker = (*RegionLock)(nil)

// NewRegionLock creates a RegionLock. An empty path disables the
// cross-process file lock.
func NewRegionLock(path string) *RegionLock {
	return &RegionLock{sem: make(chan struct{}, 1), path: path}
}

func (l *RegionLock) Lock(ctx context.Context) (func(), error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if l.path == "" {
		return func() { <-l.sem }, nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		<-l.sem
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	fl := flock.New(l.path)
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		<-l.sem
		if err == nil {
			err = fmt.Errorf("lock %s is held by another process", l.path)
		}
		return nil, fmt.Errorf("failed to lock %s: %w", l.path, err)
	}

	return func() {
		_ = fl.Unlock()
		<-l.sem
	}, nil
}
