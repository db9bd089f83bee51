package admin_test

import (
	"context"
	"testing"
	"time"

	"github.com/frayhan94/flash-sale-ordering-system/internal/admin"
	"github.com/frayhan94/flash-sale-ordering-system/internal/domain"
	"github.com/frayhan94/flash-sale-ordering-system/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateWindow(t *testing.T) {
	dol := testutil.NewFakeOrderLog()
	now := time.Now().UTC()
	dol.PutSale(domain.Sale{ID: "s1", StartTime: now, EndTime: now.Add(time.Hour), TotalStock: 10})

	svc := admin.NewService(dol)
	newEnd := now.Add(48 * time.Hour)
	sale, err := svc.UpdateWindow(context.Background(), "s1", nil, &newEnd)

	require.NoError(t, err)
	assert.Equal(t, newEnd, sale.EndTime)
}

func TestUpdateWindow_MissingSale(t *testing.T) {
	dol := testutil.NewFakeOrderLog()
	svc := admin.NewService(dol)

	_, err := svc.UpdateWindow(context.Background(), "missing", nil, nil)
	assert.ErrorIs(t, err, domain.ErrSaleNotFound)
}

func TestSetTotalStock_RejectsNegative(t *testing.T) {
	dol := testutil.NewFakeOrderLog()
	svc := admin.NewService(dol)

	err := svc.SetTotalStock(context.Background(), "s1", -5)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSetTotalStock(t *testing.T) {
	dol := testutil.NewFakeOrderLog()
	dol.PutSale(domain.Sale{ID: "s1", TotalStock: 10})
	svc := admin.NewService(dol)

	require.NoError(t, svc.SetTotalStock(context.Background(), "s1", 200))

	sale, found, err := dol.GetSale(context.Background(), "s1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 200, sale.TotalStock)
}
