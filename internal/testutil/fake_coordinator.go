package testutil

import (
	"context"
	"sync"
)

// FakeCoordinator is an in-memory Coordinator used by concurrency
// property tests that need a linearisable atomic counter without a
// real Redis instance. Every method is safe for concurrent use.
type FakeCoordinator struct {
	mu    sync.Mutex
	stock map[string]int
	marks map[string]map[string]bool

	// Unavailable, when true, makes every call return ErrUnavailable,
	// simulating an FC outage for transient-failure test scenarios.
	Unavailable bool
}

// ErrUnavailable is returned by FakeCoordinator methods when
// Unavailable is set.
var ErrUnavailable = fakeErr("coordinator unavailable")

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

func NewFakeCoordinator() *FakeCoordinator {
	return &FakeCoordinator{
		stock: make(map[string]int),
		marks: make(map[string]map[string]bool),
	}
}

func (f *FakeCoordinator) SetStock(ctx context.Context, saleID string, n int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Unavailable {
		return ErrUnavailable
	}
	f.stock[saleID] = n
	return nil
}

func (f *FakeCoordinator) GetStock(ctx context.Context, saleID string) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Unavailable {
		return 0, false, ErrUnavailable
	}
	v, ok := f.stock[saleID]
	return v, ok, nil
}

func (f *FakeCoordinator) DecrStock(ctx context.Context, saleID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Unavailable {
		return 0, ErrUnavailable
	}
	f.stock[saleID]--
	return f.stock[saleID], nil
}

func (f *FakeCoordinator) IncrStock(ctx context.Context, saleID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Unavailable {
		return 0, ErrUnavailable
	}
	f.stock[saleID]++
	return f.stock[saleID], nil
}

func (f *FakeCoordinator) HasMark(ctx context.Context, saleID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Unavailable {
		return false, ErrUnavailable
	}
	return f.marks[saleID][userID], nil
}

func (f *FakeCoordinator) SetMark(ctx context.Context, saleID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Unavailable {
		return ErrUnavailable
	}
	if f.marks[saleID] == nil {
		f.marks[saleID] = make(map[string]bool)
	}
	f.marks[saleID][userID] = true
	return nil
}

func (f *FakeCoordinator) ClearMark(ctx context.Context, saleID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Unavailable {
		return ErrUnavailable
	}
	delete(f.marks[saleID], userID)
	return nil
}

func (f *FakeCoordinator) Reset(ctx context.Context, saleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Unavailable {
		return ErrUnavailable
	}
	delete(f.stock, saleID)
	delete(f.marks, saleID)
	return nil
}

func (f *FakeCoordinator) Ping(ctx context.Context) error {
	if f.Unavailable {
		return ErrUnavailable
	}
	return nil
}

// Stock returns the current counter value for assertions.
func (f *FakeCoordinator) Stock(saleID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stock[saleID]
}
