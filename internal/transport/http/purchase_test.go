package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/frayhan94/flash-sale-ordering-system/internal/admission"
	"github.com/frayhan94/flash-sale-ordering-system/internal/domain"
	transporthttp "github.com/frayhan94/flash-sale-ordering-system/internal/transport/http"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdmission satisfies transporthttp.AdmissionService with
// canned responses so handler tests don't need a live FC/DOL.
type fakeAdmission struct {
	purchaseOut admission.PurchaseOutcome
	purchaseErr error
	userOut     admission.UserPurchase
	userErr     error
	statusOut   admission.SaleStatusView
	statusErr   error
	statsOut    admission.Stats
	statsErr    error
}

func (f *fakeAdmission) Purchase(ctx context.Context, in admission.PurchaseInput) (admission.PurchaseOutcome, error) {
	return f.purchaseOut, f.purchaseErr
}

func (f *fakeAdmission) GetUserPurchase(ctx context.Context, saleID, userID string) (admission.UserPurchase, error) {
	return f.userOut, f.userErr
}

func (f *fakeAdmission) GetSaleStatus(ctx context.Context, saleID string) (admission.SaleStatusView, error) {
	return f.statusOut, f.statusErr
}

func (f *fakeAdmission) GetStats(ctx context.Context, saleID string) (admission.Stats, error) {
	return f.statsOut, f.statsErr
}

func TestHandlePurchase_Success(t *testing.T) {
	remaining := 41
	svc := &fakeAdmission{purchaseOut: admission.PurchaseOutcome{
		Result:         domain.ResultSuccess,
		Message:        "purchase accepted",
		Order:          &domain.Order{ID: "o1", SaleID: "s1", UserID: "u1", Status: domain.OrderSuccess},
		RemainingStock: &remaining,
	}}

	body, _ := json.Marshal(map[string]string{"user_id": "u1", "sale_id": "s1"})
	req := httptest.NewRequest("POST", "/purchase", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	transporthttp.HandlePurchase(svc, "default-sale").ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "SUCCESS", resp["result"])
	assert.EqualValues(t, 41, resp["remaining_stock"])
}

func TestHandlePurchase_SoldOutMapsTo410(t *testing.T) {
	svc := &fakeAdmission{purchaseOut: admission.PurchaseOutcome{Result: domain.ResultSoldOut, Message: "sold out"}}

	body, _ := json.Marshal(map[string]string{"user_id": "u1"})
	req := httptest.NewRequest("POST", "/purchase", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	transporthttp.HandlePurchase(svc, "default-sale").ServeHTTP(rec, req)

	assert.Equal(t, 410, rec.Code)
}

func TestHandlePurchase_AlreadyPurchasedMapsTo409(t *testing.T) {
	svc := &fakeAdmission{purchaseOut: admission.PurchaseOutcome{Result: domain.ResultAlreadyPurchased}}

	body, _ := json.Marshal(map[string]string{"user_id": "u1"})
	req := httptest.NewRequest("POST", "/purchase", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	transporthttp.HandlePurchase(svc, "default-sale").ServeHTTP(rec, req)

	assert.Equal(t, 409, rec.Code)
}

func TestHandlePurchase_InvalidBody(t *testing.T) {
	svc := &fakeAdmission{}
	req := httptest.NewRequest("POST", "/purchase", bytes.NewReader([]byte(`{"user_id": 5}`)))
	rec := httptest.NewRecorder()

	transporthttp.HandlePurchase(svc, "default-sale").ServeHTTP(rec, req)

	assert.Equal(t, 400, rec.Code)
}

func TestHandlePurchase_DomainErrorMapsToNotFound(t *testing.T) {
	svc := &fakeAdmission{purchaseErr: domain.ErrSaleNotFound}
	body, _ := json.Marshal(map[string]string{"user_id": "u1", "sale_id": "missing"})
	req := httptest.NewRequest("POST", "/purchase", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	transporthttp.HandlePurchase(svc, "default-sale").ServeHTTP(rec, req)

	assert.Equal(t, 404, rec.Code)
}

func TestHandleGetUserPurchase(t *testing.T) {
	svc := &fakeAdmission{userOut: admission.UserPurchase{
		Purchased: true,
		Order:     &domain.Order{ID: "o1", UserID: "u1"},
	}}

	req := httptest.NewRequest("GET", "/user/u1", nil)
	req = mux.SetURLVars(req, map[string]string{"user_id": "u1"})
	rec := httptest.NewRecorder()

	transporthttp.HandleGetUserPurchase(svc, "default-sale").ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	var resp admission.UserPurchase
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Purchased)
}

func TestHandleGetSaleStatus(t *testing.T) {
	svc := &fakeAdmission{statusOut: admission.SaleStatusView{
		SaleID:         "s1",
		Status:         domain.SaleActive,
		RemainingStock: 10,
		TotalStock:     100,
		StartTime:      time.Now(),
		EndTime:        time.Now().Add(time.Hour),
	}}

	req := httptest.NewRequest("GET", "/sale/s1", nil)
	req = mux.SetURLVars(req, map[string]string{"sale_id": "s1"})
	rec := httptest.NewRecorder()

	transporthttp.HandleGetSaleStatus(svc).ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	var resp admission.SaleStatusView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.SaleActive, resp.Status)
}

func TestHandleGetStats(t *testing.T) {
	svc := &fakeAdmission{statsOut: admission.Stats{SuccessCount: 5, FailedCount: 0, TotalCount: 5}}

	req := httptest.NewRequest("GET", "/stats/s1", nil)
	req = mux.SetURLVars(req, map[string]string{"sale_id": "s1"})
	rec := httptest.NewRecorder()

	transporthttp.HandleGetStats(svc).ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	var resp admission.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp.SuccessCount)
}
