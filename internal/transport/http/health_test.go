package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	transporthttp "github.com/frayhan94/flash-sale-ordering-system/internal/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func TestHandleHealth_AllUp(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()

	transporthttp.HandleHealth(fakePinger{}, fakePinger{}).ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	var resp map[string]map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["fc"]["status"])
	assert.Equal(t, "ok", resp["dol"]["status"])
}

func TestHandleHealth_OneDown(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()

	transporthttp.HandleHealth(fakePinger{err: errors.New("refused")}, fakePinger{}).ServeHTTP(rec, req)

	assert.Equal(t, 503, rec.Code)
}
