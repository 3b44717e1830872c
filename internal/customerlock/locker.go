// Package customerlock serializes writes that touch a customer's invoices.
package customerlock

import (
	"context"
	"errors"
	"sort"
)

var ErrLockTimeout = errors.New("customer_lock_timeout")

// Locker acquires exclusive access to one or more customers. The returned
// release func must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, customerIDs ...int64) (release func(), err error)
}

// normalizeIDs sorts and dedupes ids so every caller acquires in the same order.
func normalizeIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	uniq := out[:0]
	for i, id := range out {
		if i > 0 && out[i-1] == id {
			continue
		}
		uniq = append(uniq, id)
	}
	return uniq
}

func releaseAll(releases []func()) func() {
	return func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
}
