package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	transporthttp "github.com/frayhan94/flash-sale-ordering-system/internal/transport/http"
	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestCORS_AllowedOrigin(t *testing.T) {
	h := transporthttp.CORS([]string{"https://shop.example.com"}, okHandler())

	req := httptest.NewRequest("GET", "/sale/s1", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://shop.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, 200, rec.Code)
}

func TestCORS_DisallowedOriginNoHeader(t *testing.T) {
	h := transporthttp.CORS([]string{"https://shop.example.com"}, okHandler())

	req := httptest.NewRequest("GET", "/sale/s1", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, 200, rec.Code)
}

func TestCORS_PreflightForbiddenWhenNotAllowed(t *testing.T) {
	h := transporthttp.CORS([]string{"https://shop.example.com"}, okHandler())

	req := httptest.NewRequest("OPTIONS", "/purchase", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, 403, rec.Code)
}

func TestCORS_PreflightAllowed(t *testing.T) {
	h := transporthttp.CORS([]string{"*"}, okHandler())

	req := httptest.NewRequest("OPTIONS", "/purchase", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, 204, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
