package usecase

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"time"

	"sparkshop/internal/domain/model"
	"sparkshop/internal/infra/notify"
	"sparkshop/internal/logger"
	"sparkshop/internal/metrics"
	repo "sparkshop/internal/repository"
	"sparkshop/internal/validator"
)

// リモートカタログの読み取り
type CatalogSource interface {
	FetchAll(ctx context.Context) ([]model.Product, error)
}

// カタログキャッシュとリモートの同期。
// キャッシュが空のときだけリモートを読む（TTLなし、同時取得の重複排除なし）。
type CatalogUsecase struct {
	products repo.ProductRepository
	tx       repo.TransactionManager
	source   CatalogSource
	broker   notify.Broker
	metrics  *metrics.Metrics
	log      *logger.Logger
}

// DI
func NewCatalogUsecase(
	products repo.ProductRepository,
	tx repo.TransactionManager,
	source CatalogSource,
	broker notify.Broker,
	m *metrics.Metrics,
	log *logger.Logger,
) *CatalogUsecase {
	if log == nil {
		log = logger.Nop()
	}
	return &CatalogUsecase{
		products: products,
		tx:       tx,
		source:   source,
		broker:   broker,
		metrics:  m,
		log:      log,
	}
}

// キャッシュの中身をまず1回渡す。
// 空だったときだけリモートを読んで保存し、失敗したときだけエラーを1回渡す。
// 保存した結果は渡さない（ObserveCatalogか読み直しで見る）。
func (u *CatalogUsecase) FetchCatalog(ctx context.Context) iter.Seq2[[]model.Product, error] {
	return func(yield func([]model.Product, error) bool) {
		cached, err := u.products.ListWithDetails(ctx)
		if err != nil {
			yield(nil, dbError(err))
			return
		}
		if !yield(cached, nil) {
			return
		}
		if len(cached) > 0 {
			return
		}

		if _, err := u.Sync(ctx); err != nil {
			yield(nil, err)
		}
	}
}

// リモートを読んでキャッシュに書く。保存した件数を返す。
// 1件でも不正があれば何も書かない。
func (u *CatalogUsecase) Sync(ctx context.Context) (int, error) {
	start := time.Now()
	u.log.Info(ctx, "catalog fetch started")

	items, err := u.source.FetchAll(ctx)
	if err != nil {
		u.metrics.ObserveFetch(metrics.ResultError, time.Since(start))
		u.log.Error(ctx, "catalog fetch failed", err)
		return 0, WrapHTTPError(http.StatusBadGateway, "catalog unavailable", errors.Join(ErrCatalogUnavailable, err))
	}

	if err := validateProducts(items); err != nil {
		u.metrics.ObserveFetch(metrics.ResultError, time.Since(start))
		u.log.Error(ctx, "catalog rejected", err, "count", len(items))
		return 0, WrapHTTPError(http.StatusBadGateway, "invalid catalog", err)
	}

	//全件で1トランザクション、商品ごとに入れ子のトランザクション
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		for _, p := range items {
			if err := r.Products().SaveWithRelations(ctx, p); err != nil {
				return fmt.Errorf("save product %d: %w", p.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		u.metrics.ObserveFetch(metrics.ResultError, time.Since(start))
		u.log.Error(ctx, "catalog persist failed", err)
		return 0, dbError(err)
	}

	u.metrics.ObserveFetch(metrics.ResultOK, time.Since(start))
	u.refreshProductsGauge(ctx)
	u.publish(ctx)
	u.log.Info(ctx, "catalog fetch finished", "count", len(items), "elapsed_ms", time.Since(start).Milliseconds())
	return len(items), nil
}

// キャッシュを空にする（次のFetchCatalogでリモートを読む）
func (u *CatalogUsecase) ResetCatalog(ctx context.Context) error {
	if err := u.products.DeleteAll(ctx); err != nil {
		return dbError(err)
	}
	u.metrics.SetProducts(0)
	u.publish(ctx)
	u.log.Info(ctx, "catalog cache reset")
	return nil
}

// 今のキャッシュを渡し、以降は変更のたびに渡す
func (u *CatalogUsecase) ObserveCatalog(ctx context.Context, fn func([]model.Product)) (Unsubscribe, error) {
	return observe(ctx, u.broker, notify.TopicCatalog, u.log, u.listAll, fn)
}

// カテゴリで絞った一覧（空か"All"なら全件）
func (u *CatalogUsecase) ListProducts(ctx context.Context, category string) ([]model.Product, error) {
	all, err := u.listAll(ctx)
	if err != nil {
		return nil, err
	}
	return model.FilterByCategory(all, category), nil
}

func (u *CatalogUsecase) GetProduct(ctx context.Context, id int64) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	p, err := u.products.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, WrapHTTPError(http.StatusNotFound, "product not found", err)
	}
	if err != nil {
		return model.Product{}, dbError(err)
	}
	return p, nil
}

// "All"を先頭にしたカテゴリ一覧
func (u *CatalogUsecase) Categories(ctx context.Context) ([]string, error) {
	all, err := u.listAll(ctx)
	if err != nil {
		return nil, err
	}
	return model.Categories(all), nil
}

func (u *CatalogUsecase) listAll(ctx context.Context) ([]model.Product, error) {
	items, err := u.products.ListWithDetails(ctx)
	if err != nil {
		return nil, dbError(err)
	}
	return items, nil
}

func (u *CatalogUsecase) refreshProductsGauge(ctx context.Context) {
	n, err := u.products.Count(ctx)
	if err != nil {
		u.log.Warn(ctx, "count products failed", "error", err.Error())
		return
	}
	u.metrics.SetProducts(int(n))
}

func (u *CatalogUsecase) publish(ctx context.Context) {
	if err := u.broker.Publish(ctx, notify.TopicCatalog); err != nil {
		u.log.Warn(ctx, "publish catalog change failed", "error", err.Error())
	}
}

func validateProducts(items []model.Product) error {
	for i, p := range items {
		if err := validator.Struct(p); err != nil {
			return fmt.Errorf("%w: record %d (id=%d): %w", ErrInvalidCatalog, i, p.ID, err)
		}
	}
	return nil
}
