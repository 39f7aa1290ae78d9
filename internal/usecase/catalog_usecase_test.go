package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"sparkshop/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type emission struct {
	items []model.Product
	err   error
}

func collect(ctx context.Context, u *CatalogUsecase) []emission {
	var out []emission
	for items, err := range u.FetchCatalog(ctx) {
		out = append(out, emission{items: items, err: err})
	}
	return out
}

// 空のキャッシュ → リモートを1回読み、保存した内容がリモートと同じになる
func TestFetchCatalog_EmptyCacheFetchesAndPersists(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	remote := []model.Product{
		productWithChildren(2, "beauty", "9.99", 10),
		productWithChildren(1, "groceries", "12.3456", 0),
		smartDevice(),
	}
	env.source.On("FetchAll", mock.Anything).Return(remote, nil).Once()

	got := collect(ctx, env.catalog)

	// キャッシュの中身（空）が1回だけ流れる
	require.Len(t, got, 1)
	assert.NoError(t, got[0].err)
	assert.Empty(t, got[0].items)
	env.source.AssertNumberOfCalls(t, "FetchAll", 1)

	cached, err := env.products.ListWithDetails(ctx)
	require.NoError(t, err)
	want := normalizeProducts([]model.Product{remote[1], remote[0], remote[2]})
	assert.Equal(t, want, normalizeProducts(cached))

	// 価格は丸めずに保存される
	require.Len(t, cached, 3)
	for i, p := range cached {
		assert.True(t, want[i].Price.Equal(p.Price), "product %d: %s", p.ID, p.Price)
	}
	assert.Equal(t, "12.3456", cached[0].Price.String())
}

// キャッシュがあればリモートは読まない
func TestFetchCatalog_PopulatedCacheSkipsRemote(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.products.SaveWithRelations(ctx, smartDevice()))

	got := collect(ctx, env.catalog)

	require.Len(t, got, 1)
	assert.NoError(t, got[0].err)
	require.Len(t, got[0].items, 1)
	assert.Equal(t, int64(101), got[0].items[0].ID)
	env.source.AssertNotCalled(t, "FetchAll", mock.Anything)
}

// 通信失敗はエラーを渡し、キャッシュは触らない
func TestFetchCatalog_RemoteFailureLeavesCacheUntouched(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.source.On("FetchAll", mock.Anything).Return(nil, errors.New("dial tcp: connection refused"))

	got := collect(ctx, env.catalog)

	require.Len(t, got, 2)
	assert.NoError(t, got[0].err)
	assert.Empty(t, got[0].items)
	require.Error(t, got[1].err)
	assert.Nil(t, got[1].items)
	assert.True(t, errors.Is(got[1].err, ErrCatalogUnavailable))

	he, ok := AsHTTPError(got[1].err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, he.Status)

	n, err := env.products.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

// 1件でも不正なら全体を失敗にして何も書かない
func TestFetchCatalog_InvalidRecordFailsWholeBatch(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	bad := productWithChildren(2, "beauty", "1.00", 1)
	bad.Price = decimal.RequireFromString("-1")
	env.source.On("FetchAll", mock.Anything).Return([]model.Product{smartDevice(), bad}, nil)

	got := collect(ctx, env.catalog)

	require.Len(t, got, 2)
	require.Error(t, got[1].err)
	assert.True(t, errors.Is(got[1].err, ErrInvalidCatalog))

	n, err := env.products.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

// 空の応答は正常（リトライしない）。次の呼び出しでまた読む
func TestFetchCatalog_EmptyRemoteIsValid(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.source.On("FetchAll", mock.Anything).Return([]model.Product{}, nil)

	got := collect(ctx, env.catalog)
	require.Len(t, got, 1)
	assert.NoError(t, got[0].err)

	_ = collect(ctx, env.catalog)
	env.source.AssertNumberOfCalls(t, "FetchAll", 2)
}

// 最初の1回で止めたらリモートは読まない
func TestFetchCatalog_StopAfterSnapshot(t *testing.T) {
	env := newTestEnv(t)

	for range env.catalog.FetchCatalog(context.Background()) {
		break
	}
	env.source.AssertNotCalled(t, "FetchAll", mock.Anything)
}

func TestSync_ReturnsCount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.source.On("FetchAll", mock.Anything).Return([]model.Product{smartDevice(), productWithChildren(5, "beauty", "3", 3)}, nil)

	n, err := env.catalog.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

// 保存済みの商品はリモートの内容で上書きされる
func TestSync_OverwritesExisting(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.products.SaveWithRelations(ctx, productWithChildren(101, "old", "1", 1)))

	fresh := smartDevice()
	env.source.On("FetchAll", mock.Anything).Return([]model.Product{fresh}, nil)

	_, err := env.catalog.Sync(ctx)
	require.NoError(t, err)

	got, err := env.catalog.GetProduct(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, "Premium Smart Device", got.Title)
	assert.Nil(t, got.Dimensions)
	assert.Empty(t, got.Reviews)
}

func TestResetCatalog(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.products.SaveWithRelations(ctx, productWithChildren(1, "beauty", "1", 1)))

	ch, cancel := env.broker.Subscribe("catalog")
	defer cancel()

	require.NoError(t, env.catalog.ResetCatalog(ctx))

	waitFor(t, ch)
	n, err := env.products.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	// 空になったので次はリモートを読む
	env.source.On("FetchAll", mock.Anything).Return([]model.Product{smartDevice()}, nil).Once()
	_ = collect(ctx, env.catalog)
	env.source.AssertNumberOfCalls(t, "FetchAll", 1)
}

// 取得した結果は購読側に届く
func TestObserveCatalog(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	env := newTestEnv(t)
	env.source.On("FetchAll", mock.Anything).Return([]model.Product{smartDevice()}, nil)

	snaps := make(chan []model.Product, 10)
	unsubscribe, err := env.catalog.ObserveCatalog(ctx, func(items []model.Product) { snaps <- items })
	require.NoError(t, err)
	defer unsubscribe()

	assert.Empty(t, waitFor(t, snaps))

	_ = collect(ctx, env.catalog)

	items := waitFor(t, snaps)
	require.Len(t, items, 1)
	assert.Equal(t, int64(101), items[0].ID)
}

func TestListProductsAndCategories(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	for _, p := range []model.Product{
		productWithChildren(1, "beauty", "1", 1),
		productWithChildren(2, "groceries", "1", 1),
		productWithChildren(3, "Beauty", "1", 1),
	} {
		require.NoError(t, env.products.SaveWithRelations(ctx, p))
	}

	items, err := env.catalog.ListProducts(ctx, "beauty")
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = env.catalog.ListProducts(ctx, "All")
	require.NoError(t, err)
	assert.Len(t, items, 3)

	cats, err := env.catalog.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"All", "beauty", "groceries"}, cats)
}

func TestGetProduct_Errors(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.catalog.GetProduct(context.Background(), 0)
	he, ok := AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)

	_, err = env.catalog.GetProduct(context.Background(), 404)
	he, ok = AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Status)
}
