package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/frayhan94/flash-sale-ordering-system/internal/domain"
	"github.com/google/uuid"
)

// FakeOrderLog is an in-memory OrderLog used by concurrency property
// tests. InsertOrder enforces the same uniqueness constraint a real
// DOL would via its (sale_id, user_id) unique index.
type FakeOrderLog struct {
	mu     sync.Mutex
	sales  map[string]domain.Sale
	orders map[string]map[string]domain.Order // saleID -> userID -> order

	// FailNextInsert, when non-nil, is returned by the next InsertOrder
	// call and then cleared, simulating a single injected DOL failure.
	FailNextInsert error
}

func NewFakeOrderLog() *FakeOrderLog {
	return &FakeOrderLog{
		sales:  make(map[string]domain.Sale),
		orders: make(map[string]map[string]domain.Order),
	}
}

// PutSale seeds a sale for tests to reference.
func (f *FakeOrderLog) PutSale(sale domain.Sale) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sales[sale.ID] = sale
}

func (f *FakeOrderLog) GetSale(ctx context.Context, saleID string) (domain.Sale, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sales[saleID]
	return s, ok, nil
}

func (f *FakeOrderLog) CountSuccess(ctx context.Context, saleID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, o := range f.orders[saleID] {
		if o.Status == domain.OrderSuccess {
			n++
		}
	}
	return n, nil
}

func (f *FakeOrderLog) CountFailed(ctx context.Context, saleID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, o := range f.orders[saleID] {
		if o.Status == domain.OrderFailed {
			n++
		}
	}
	return n, nil
}

func (f *FakeOrderLog) ListSuccessUsers(ctx context.Context, saleID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var users []string
	for userID, o := range f.orders[saleID] {
		if o.Status == domain.OrderSuccess {
			users = append(users, userID)
		}
	}
	return users, nil
}

func (f *FakeOrderLog) InsertOrder(ctx context.Context, saleID, userID string, status domain.OrderStatus) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailNextInsert != nil {
		err := f.FailNextInsert
		f.FailNextInsert = nil
		return domain.Order{}, err
	}

	if f.orders[saleID] == nil {
		f.orders[saleID] = make(map[string]domain.Order)
	}
	if _, ok := f.orders[saleID][userID]; ok {
		return domain.Order{}, domain.ErrDuplicateOrder
	}

	order := domain.Order{
		ID:        uuid.NewString(),
		SaleID:    saleID,
		UserID:    userID,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	f.orders[saleID][userID] = order
	return order, nil
}

func (f *FakeOrderLog) GetSuccessOrder(ctx context.Context, saleID, userID string) (domain.Order, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[saleID][userID]
	if !ok || o.Status != domain.OrderSuccess {
		return domain.Order{}, false, nil
	}
	return o, true, nil
}

func (f *FakeOrderLog) DeleteOrders(ctx context.Context, saleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.orders, saleID)
	return nil
}

func (f *FakeOrderLog) SetTotalStock(ctx context.Context, saleID string, n int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sales[saleID]
	if !ok {
		return domain.ErrSaleNotFound
	}
	s.TotalStock = n
	f.sales[saleID] = s
	return nil
}

func (f *FakeOrderLog) UpdateWindow(ctx context.Context, saleID string, start, end *time.Time) (domain.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sales[saleID]
	if !ok {
		return domain.Sale{}, domain.ErrSaleNotFound
	}
	if start != nil {
		s.StartTime = *start
	}
	if end != nil {
		s.EndTime = *end
	}
	f.sales[saleID] = s
	return s, nil
}

func (f *FakeOrderLog) Ping(ctx context.Context) error {
	return nil
}
