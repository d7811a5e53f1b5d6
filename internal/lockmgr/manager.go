// Package lockmgr provides per-account locks with ordered acquisition and bounded waits.
package lockmgr

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/go-petr/pet-ledger/internal/domain"
)

type lock struct {
	sem  *semaphore.Weighted
	refs int
}

// Manager hands out one exclusive lock per account ID.
//
// Locks are created on first use and dropped once nobody holds or waits for them.
type Manager struct {
	mu      sync.Mutex
	locks   map[int64]*lock
	timeout time.Duration
}

// New returns a Manager whose acquisitions wait at most timeout. Zero means no bound
// other than the caller's context.
func New(timeout time.Duration) *Manager {
	return &Manager{
		locks:   make(map[int64]*lock),
		timeout: timeout,
	}
}

// Acquire locks every given account in ascending ID order and returns a func that
// releases them. Duplicate IDs are locked once.
//
// When the wait bound expires the already held locks are released and the returned error
// matches domain.ErrConcurrencyConflict. Cancellation of ctx itself returns ctx.Err().
func (m *Manager) Acquire(ctx context.Context, ids ...int64) (func(), error) {
	ordered := sortedUnique(ids)

	waitCtx := ctx
	if m.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	held := make([]int64, 0, len(ordered))

	for _, id := range ordered {
		l := m.ref(id)

		if err := l.sem.Acquire(waitCtx, 1); err != nil {
			m.unref(id)
			m.release(held)

			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			if errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: lock wait timeout on account %d", domain.ErrConcurrencyConflict, id)
			}

			return nil, err
		}

		held = append(held, id)
	}

	var once sync.Once

	return func() {
		once.Do(func() { m.release(held) })
	}, nil
}

// Len returns the number of accounts currently locked or waited on.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.locks)
}

func (m *Manager) ref(id int64) *lock {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[id]
	if !ok {
		l = &lock{sem: semaphore.NewWeighted(1)}
		m.locks[id] = l
	}

	l.refs++

	return l
}

func (m *Manager) unref(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l := m.locks[id]

	l.refs--
	if l.refs == 0 {
		delete(m.locks, id)
	}
}

// release unlocks in reverse acquisition order.
func (m *Manager) release(ids []int64) {
	for i := len(ids) - 1; i >= 0; i-- {
		m.mu.Lock()
		l := m.locks[ids[i]]
		m.mu.Unlock()

		l.sem.Release(1)
		m.unref(ids[i])
	}
}

func sortedUnique(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))

	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		out = append(out, id)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}
