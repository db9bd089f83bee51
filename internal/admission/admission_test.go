package admission_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/frayhan94/flash-sale-ordering-system/internal/admission"
	"github.com/frayhan94/flash-sale-ordering-system/internal/clock"
	"github.com/frayhan94/flash-sale-ordering-system/internal/domain"
	"github.com/frayhan94/flash-sale-ordering-system/internal/reconcile"
	"github.com/frayhan94/flash-sale-ordering-system/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReconcileHarness(fc *testutil.FakeCoordinator, dol *testutil.FakeOrderLog) *reconcile.Service {
	return reconcile.NewService(fc, dol, nil)
}

func statusAfter(fc *testutil.FakeCoordinator, dol *testutil.FakeOrderLog, saleID string, now time.Time) (admission.SaleStatusView, error) {
	svc := admission.NewService(fc, dol, clock.NewFixed(now))
	return svc.GetSaleStatus(context.Background(), saleID)
}

const saleID = "flash-sale-1"

func newFixture(t *testing.T, totalStock int, now time.Time) (*admission.Service, *testutil.FakeCoordinator, *testutil.FakeOrderLog) {
	t.Helper()
	fc := testutil.NewFakeCoordinator()
	dol := testutil.NewFakeOrderLog()

	dol.PutSale(domain.Sale{
		ID:         saleID,
		Name:       "Flash Sale",
		StartTime:  now.Add(-time.Hour),
		EndTime:    now.Add(time.Hour),
		TotalStock: totalStock,
	})
	require.NoError(t, fc.SetStock(context.Background(), saleID, totalStock))

	svc := admission.NewService(fc, dol, clock.NewFixed(now))
	return svc, fc, dol
}

// Scenario 1: exact sellout.
func TestPurchase_ExactSellout(t *testing.T) {
	now := time.Now().UTC()
	svc, fc, dol := newFixture(t, 100, now)

	var success, soldOut int32
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 500; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := svc.Purchase(context.Background(), admission.PurchaseInput{
				UserID: fmt.Sprintf("user-%d", i),
				SaleID: saleID,
			})
			require.NoError(t, err)
			mu.Lock()
			defer mu.Unlock()
			switch out.Result {
			case domain.ResultSuccess:
				success++
			case domain.ResultSoldOut:
				soldOut++
			}
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 100, success)
	assert.EqualValues(t, 400, soldOut)

	count, err := dol.CountSuccess(context.Background(), saleID)
	require.NoError(t, err)
	assert.Equal(t, 100, count)
	assert.Equal(t, 0, fc.Stock(saleID))
}

// Scenario 2: one-per-customer under concurrency.
func TestPurchase_OnePerCustomerUnderConcurrency(t *testing.T) {
	now := time.Now().UTC()
	svc, fc, _ := newFixture(t, 10, now)

	var success, already int32
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := svc.Purchase(context.Background(), admission.PurchaseInput{UserID: "u", SaleID: saleID})
			require.NoError(t, err)
			mu.Lock()
			defer mu.Unlock()
			switch out.Result {
			case domain.ResultSuccess:
				success++
			case domain.ResultAlreadyPurchased:
				already++
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, success)
	assert.EqualValues(t, 199, already)
	assert.Equal(t, 9, fc.Stock(saleID))
}

// Scenario 3: sale not active.
func TestPurchase_SaleNotActive(t *testing.T) {
	now := time.Now().UTC()
	fc := testutil.NewFakeCoordinator()
	dol := testutil.NewFakeOrderLog()
	dol.PutSale(domain.Sale{
		ID:         saleID,
		StartTime:  now.Add(time.Hour),
		EndTime:    now.Add(2 * time.Hour),
		TotalStock: 5,
	})
	require.NoError(t, fc.SetStock(context.Background(), saleID, 5))
	svc := admission.NewService(fc, dol, clock.NewFixed(now))

	out, err := svc.Purchase(context.Background(), admission.PurchaseInput{UserID: "a", SaleID: saleID})
	require.NoError(t, err)
	assert.Equal(t, domain.ResultSaleNotActive, out.Result)
	assert.Equal(t, domain.SaleUpcoming, out.SubStatus)
	assert.Equal(t, 5, fc.Stock(saleID))
}

// Scenario 4: DOL failure rollback.
func TestPurchase_DOLFailureRollback(t *testing.T) {
	now := time.Now().UTC()
	svc, fc, dol := newFixture(t, 5, now)

	dol.FailNextInsert = domain.ErrFatalDurable

	out, err := svc.Purchase(context.Background(), admission.PurchaseInput{UserID: "a", SaleID: saleID})
	require.NoError(t, err)
	assert.Equal(t, domain.ResultError, out.Result)
	assert.Equal(t, 5, fc.Stock(saleID))

	count, err := dol.CountSuccess(context.Background(), saleID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	hasMark, err := fc.HasMark(context.Background(), saleID, "a")
	require.NoError(t, err)
	assert.False(t, hasMark)
}

// Scenario 5: FC wipe and recovery.
func TestRecoverUserMarks_AfterFCWipe(t *testing.T) {
	now := time.Now().UTC()
	svc, fc, dol := newFixture(t, 100, now)

	winners := map[string]bool{}
	var wg sync.WaitGroup
	var mu sync.Mutex
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", i)
			out, err := svc.Purchase(context.Background(), admission.PurchaseInput{UserID: userID, SaleID: saleID})
			require.NoError(t, err)
			if out.Result == domain.ResultSuccess {
				mu.Lock()
				winners[userID] = true
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	require.Len(t, winners, 100)

	require.NoError(t, fc.Reset(context.Background(), saleID))

	rec := newReconcileHarness(fc, dol)
	initialized, err := rec.InitStock(context.Background(), saleID)
	require.NoError(t, err)
	assert.Equal(t, 0, initialized)

	restored, err := rec.RecoverUserMarks(context.Background(), saleID)
	require.NoError(t, err)
	assert.Equal(t, 100, restored)

	for userID := range winners {
		has, err := fc.HasMark(context.Background(), saleID, userID)
		require.NoError(t, err)
		assert.True(t, has)
	}

	out, err := svc.Purchase(context.Background(), admission.PurchaseInput{UserID: "user-0", SaleID: saleID})
	require.NoError(t, err)
	assert.Equal(t, domain.ResultAlreadyPurchased, out.Result)
}

// Scenario 6: reset idempotence.
func TestReset_Idempotent(t *testing.T) {
	now := time.Now().UTC()
	_, fc, dol := newFixture(t, 10, now)

	rec := newReconcileHarness(fc, dol)
	require.NoError(t, rec.Reset(context.Background(), saleID, 50))
	first, err := statusAfter(fc, dol, saleID, now)
	require.NoError(t, err)

	require.NoError(t, rec.Reset(context.Background(), saleID, 50))
	second, err := statusAfter(fc, dol, saleID, now)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
