package usecase

import (
	"context"
	"testing"
	"time"

	"sparkshop/internal/domain/model"
	"sparkshop/internal/infra/db/dbtest"
	"sparkshop/internal/infra/notify"
	infraRepo "sparkshop/internal/infra/repository"
	"sparkshop/internal/logger"
	"sparkshop/internal/metrics"
	repo "sparkshop/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

type sourceMock struct{ mock.Mock }

func (m *sourceMock) FetchAll(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Error(1)
}

type testEnv struct {
	products repo.ProductRepository
	lines    repo.CartLineRepository
	tx       repo.TransactionManager
	broker   *notify.MemoryBroker
	source   *sourceMock
	catalog  *CatalogUsecase
	cart     *CartUsecase
	checkout *CheckoutUsecase
}

// sqlite（メモリ、接続1本）で組み立てる
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithDB(dbtest.Open(t))
}

// sqlite（ファイル、本番と同じプール設定）で組み立てる
func newFileTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithDB(dbtest.OpenFile(t))
}

func newTestEnvWithDB(gdb *gorm.DB) *testEnv {
	return newTestEnvWith(
		infraRepo.NewProductGormRepository(gdb),
		infraRepo.NewCartGormRepository(gdb),
		infraRepo.NewTxManagerGorm(gdb),
	)
}

func newTestEnvWith(products repo.ProductRepository, lines repo.CartLineRepository, tx repo.TransactionManager) *testEnv {
	env := &testEnv{
		products: products,
		lines:    lines,
		tx:       tx,
		broker:   notify.NewMemoryBroker(),
		source:   new(sourceMock),
	}
	m := metrics.New(nil)
	env.catalog = NewCatalogUsecase(env.products, env.tx, env.source, env.broker, m, logger.Nop())
	env.cart = NewCartUsecase(env.lines, env.products, env.tx, env.broker, m, logger.Nop())
	env.checkout = NewCheckoutUsecase(env.cart)
	return env
}

// WithinTxでfnをそのまま呼ぶ（モックのリポジトリを渡す用）
type txStub struct {
	products repo.ProductRepository
	lines    repo.CartLineRepository
}

func (s txStub) WithinTx(_ context.Context, fn func(r repo.TxRepos) error) error {
	return fn(s)
}

func (s txStub) Products() repo.ProductRepository   { return s.products }
func (s txStub) CartLines() repo.CartLineRepository { return s.lines }

// シナリオで使う商品
func smartDevice() model.Product {
	return model.Product{
		ID:        101,
		Title:     "Premium Smart Device",
		Category:  "smartphones",
		Price:     decimal.RequireFromString("299.99"),
		Stock:     50,
		Tags:      []string{},
		Images:    []string{},
		Thumbnail: "https://img/101.png",
		Reviews:   []model.Review{},
	}
}

func productWithChildren(id int64, category string, price string, stock int64) model.Product {
	return model.Product{
		ID:                   id,
		Title:                "Product " + category,
		Description:          "description",
		Category:             category,
		Price:                decimal.RequireFromString(price),
		DiscountPercentage:   12.5,
		Rating:               4.2,
		Stock:                stock,
		Tags:                 []string{category, "sale"},
		Brand:                "Brand",
		SKU:                  "SKU",
		Weight:               3,
		WarrantyInformation:  "1 year",
		ShippingInformation:  "1 week",
		AvailabilityStatus:   "In Stock",
		ReturnPolicy:         "30 days",
		MinimumOrderQuantity: 2,
		Images:               []string{"https://img/a.png", "https://img/b.png"},
		Thumbnail:            "https://img/t.png",
		Dimensions:           &model.Dimensions{ProductID: id, Width: 1.5, Height: 2.5, Depth: 3.5},
		Meta:                 &model.Meta{ProductID: id, Barcode: "9780201379624", QRCode: "https://qr", CreatedAt: "2024-05-23T08:56:21.618Z", UpdatedAt: "2024-05-23T08:56:21.618Z"},
		Reviews: []model.Review{
			{ProductID: id, Rating: 5, Comment: "Great", Date: "2024-05-23", ReviewerName: "A", ReviewerEmail: "a@example.com"},
			{ProductID: id, Rating: 2, Comment: "Meh", Date: "2024-05-24", ReviewerName: "B", ReviewerEmail: "b@example.com"},
		},
	}
}

// DBが付ける値（時刻・レビューID）をそろえて比べられるようにする。
// decimalは値を変えずに内部表現だけそろえる（丸めない）
func normalizeProducts(items []model.Product) []model.Product {
	out := make([]model.Product, 0, len(items))
	for _, p := range items {
		p.CreatedAt = time.Time{}
		p.UpdatedAt = time.Time{}
		p.Price = decimal.RequireFromString(p.Price.String())
		reviews := make([]model.Review, 0, len(p.Reviews))
		for _, r := range p.Reviews {
			r.ID = 0
			reviews = append(reviews, r)
		}
		p.Reviews = reviews
		out = append(out, p)
	}
	return out
}

// 非同期の通知を待つ
func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	var zero T
	return zero
}
