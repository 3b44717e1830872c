package customerlock

import (
	"context"
	"sync"
)

type localEntry struct {
	sem  chan struct{}
	refs int
}

// LocalLocker is an in-process keyed mutex. It only serializes requests
// served by the same process.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[int64]*localEntry
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[int64]*localEntry)}
}

func (l *LocalLocker) Lock(ctx context.Context, customerIDs ...int64) (func(), error) {
	ids := normalizeIDs(customerIDs)
	releases := make([]func(), 0, len(ids))
	for _, id := range ids {
		release, err := l.acquire(ctx, id)
		if err != nil {
			releaseAll(releases)()
			return nil, err
		}
		releases = append(releases, release)
	}

	var once sync.Once
	unlock := releaseAll(releases)
	return func() { once.Do(unlock) }, nil
}

func (l *LocalLocker) acquire(ctx context.Context, id int64) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &localEntry{sem: make(chan struct{}, 1)}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
		return func() {
			<-entry.sem
			l.unref(id, entry)
		}, nil
	case <-ctx.Done():
		l.unref(id, entry)
		return nil, ctx.Err()
	}
}

func (l *LocalLocker) unref(id int64, entry *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, id)
	}
}

func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
