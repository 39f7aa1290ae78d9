package handler_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCatalog(t *testing.T, ts *testServer) {
	t.Helper()
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/products", nil, "").Code)
}

// 追加 → 9回増やす → 10回減らすと空になる
func TestCart_Flow(t *testing.T) {
	ts := newTestServer(t)
	seedCatalog(t, ts)

	rec := ts.do(t, http.MethodPost, "/cart", map[string]int64{"product_id": 101}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for i := 0; i < 9; i++ {
		require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/cart/101/increment", nil, "").Code)
	}

	rec = ts.do(t, http.MethodGet, "/cart", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[cartBody](t, rec)
	require.Len(t, body.Lines, 1)
	assert.Equal(t, int64(10), body.Lines[0].Quantity)
	assert.True(t, decimal.RequireFromString("2999.9").Equal(body.Summary.Total), body.Summary.Total.String())
	assert.Equal(t, 1, body.Summary.Count)

	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/cart/101/decrement", nil, "").Code)
	}
	body = decode[cartBody](t, ts.do(t, http.MethodGet, "/cart", nil, ""))
	assert.Empty(t, body.Lines)
	assert.True(t, body.Summary.Total.IsZero())
}

func TestCart_StockLimits(t *testing.T) {
	ts := newTestServer(t)
	seedCatalog(t, ts)

	// 在庫2に5個 → 2個
	rec := ts.do(t, http.MethodPost, "/cart", map[string]int64{"product_id": 7, "quantity": 5}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), decode[struct {
		Quantity int64 `json:"quantity"`
	}](t, rec).Quantity)

	// 上限でのincrementは何もしない
	rec = ts.do(t, http.MethodPost, "/cart/7/increment", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), decode[cartBody](t, rec).Lines[0].Quantity)

	// 在庫0
	rec = ts.do(t, http.MethodPost, "/cart", map[string]int64{"product_id": 8}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "out of stock", decode[errorBody](t, rec).Error)
}

func TestCart_BadRequests(t *testing.T) {
	ts := newTestServer(t)
	seedCatalog(t, ts)

	rec := ts.do(t, http.MethodPost, "/cart", map[string]int64{"product_id": 0}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "must be greater than 0", decode[errorBody](t, rec).Fields["product_id"])

	rec = ts.do(t, http.MethodPost, "/cart", map[string]int64{"product_id": 101, "quantity": -1}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/cart", map[string]int64{"product_id": 555}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/cart/x/increment", nil, "").Code)

	// 無い明細の操作はエラーにしない
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/cart/101/decrement", nil, "").Code)
}

func TestCart_Clear(t *testing.T) {
	ts := newTestServer(t)
	seedCatalog(t, ts)

	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/cart", map[string]int64{"product_id": 101}, "").Code)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/cart", map[string]int64{"product_id": 7}, "").Code)

	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, "/cart", nil, "").Code)
	assert.Empty(t, decode[cartBody](t, ts.do(t, http.MethodGet, "/cart", nil, "")).Lines)
}

// 接続直後に今の中身、変更後に新しい中身が流れてくる
func TestCart_Stream(t *testing.T) {
	ts := newTestServer(t)
	seedCatalog(t, ts)

	srv := httptest.NewServer(ts.e)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/cart/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan cartBody, 4)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			data, ok := strings.CutPrefix(sc.Text(), "data: ")
			if !ok {
				continue
			}
			var b cartBody
			if json.Unmarshal([]byte(data), &b) == nil {
				events <- b
			}
		}
	}()

	first := <-events
	assert.Empty(t, first.Lines)

	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/cart", map[string]int64{"product_id": 101}, "").Code)

	select {
	case next := <-events:
		require.Len(t, next.Lines, 1)
		assert.Equal(t, int64(101), next.Lines[0].ID)
	case <-ctx.Done():
		t.Fatal("no event after add")
	}
}
