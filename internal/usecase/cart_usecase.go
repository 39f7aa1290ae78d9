package usecase

import (
	"context"
	"errors"
	"net/http"

	"sparkshop/internal/domain/model"
	"sparkshop/internal/infra/notify"
	"sparkshop/internal/logger"
	"sparkshop/internal/metrics"
	repo "sparkshop/internal/repository"
)

// カート操作（商品IDごとに1明細、数量は 1 <= quantity <= 在庫スナップショット）
// 読み→計算→書きは商品IDごとに直列化する。別の商品どうしは並行に動く。
// プロセス内はkeyedMutex、プロセス間は行ロック（SELECT ... FOR UPDATE）で守る。
type CartUsecase struct {
	lines    repo.CartLineRepository
	products repo.ProductRepository
	tx       repo.TransactionManager
	broker   notify.Broker
	metrics  *metrics.Metrics
	log      *logger.Logger
	locks    *keyedMutex
}

// DI
func NewCartUsecase(
	lines repo.CartLineRepository,
	products repo.ProductRepository,
	tx repo.TransactionManager,
	broker notify.Broker,
	m *metrics.Metrics,
	log *logger.Logger,
) *CartUsecase {
	if log == nil {
		log = logger.Nop()
	}
	return &CartUsecase{
		lines:    lines,
		products: products,
		tx:       tx,
		broker:   broker,
		metrics:  m,
		log:      log,
		locks:    newKeyedMutex(),
	}
}

// 追加の入力。Quantityは新規のときだけ使う（0なら1）
type AddCartInput struct {
	Product  model.Product
	Quantity int64
}

const (
	opAdd       = "add"
	opIncrement = "increment"
	opDecrement = "decrement"
	opClear     = "clear"
)

// トランザクション内の結果
type cartOutcome int

const (
	outcomeChanged cartOutcome = iota
	outcomeNoop
)

// 無ければ min(Quantity, 在庫) で作る。
// あれば1つ増やす（上限は作成時の在庫スナップショット）。
func (u *CartUsecase) AddOrIncrement(ctx context.Context, in AddCartInput) (model.CartLine, error) {
	if in.Product.ID <= 0 {
		return model.CartLine{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 0 {
		return model.CartLine{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}
	qty := in.Quantity
	if qty == 0 {
		qty = 1
	}

	unlock := u.locks.Lock(in.Product.ID)
	defer unlock()

	var (
		line    model.CartLine
		outcome cartOutcome
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		lines := r.CartLines()

		current, err := lines.LockByID(ctx, in.Product.ID)
		if errors.Is(err, repo.ErrNotFound) {
			line, err = insertLine(ctx, lines, in.Product, qty)
			return err
		}
		if err != nil {
			return err
		}

		next := min(current.Quantity+1, current.Stock)
		if next == current.Quantity {
			line, outcome = current, outcomeNoop
			return nil
		}
		err = lines.UpdateQuantity(ctx, current.ID, next)
		// 読んだ後にClearで消えていたら新しく作る
		if errors.Is(err, repo.ErrNotFound) {
			line, err = insertLine(ctx, lines, in.Product, qty)
			return err
		}
		if err != nil {
			return err
		}
		current.Quantity = next
		line = current
		return nil
	})

	switch {
	case errors.Is(err, ErrOutOfStock):
		u.metrics.IncCartOp(opAdd, metrics.ResultNoop)
		return model.CartLine{}, WrapHTTPError(http.StatusBadRequest, "out of stock", err)
	case err != nil:
		return model.CartLine{}, u.fail(ctx, opAdd, err)
	case outcome == outcomeNoop:
		u.metrics.IncCartOp(opAdd, metrics.ResultNoop)
		return line, nil
	}
	u.done(ctx, opAdd)
	return line, nil
}

// 価格・在庫をスナップショットして新しい明細を作る
func insertLine(ctx context.Context, lines repo.CartLineRepository, p model.Product, qty int64) (model.CartLine, error) {
	if p.Stock < 1 {
		return model.CartLine{}, ErrOutOfStock
	}
	return lines.Insert(ctx, model.CartLine{
		ID:        p.ID,
		Title:     p.Title,
		Thumbnail: p.Thumbnail,
		Price:     p.Price,
		Stock:     p.Stock,
		Quantity:  min(qty, p.Stock),
	})
}

// キャッシュ上の商品をIDで引いて追加する
func (u *CartUsecase) AddProduct(ctx context.Context, productID int64, quantity int64) (model.CartLine, error) {
	if productID <= 0 {
		return model.CartLine{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.CartLine{}, WrapHTTPError(http.StatusNotFound, "product not found", err)
	}
	if err != nil {
		return model.CartLine{}, dbError(err)
	}

	return u.AddOrIncrement(ctx, AddCartInput{Product: p, Quantity: quantity})
}

// 在庫スナップショット未満なら1つ増やす。明細が無い/上限のときは何もしない
func (u *CartUsecase) Increment(ctx context.Context, productID int64) error {
	return u.mutate(ctx, opIncrement, productID, func(lines repo.CartLineRepository, current model.CartLine) (cartOutcome, error) {
		if current.Quantity >= current.Stock {
			return outcomeNoop, nil
		}
		return outcomeChanged, lines.UpdateQuantity(ctx, productID, current.Quantity+1)
	})
}

// 1つ減らす。1のときは明細ごと消す。明細が無いときは何もしない
func (u *CartUsecase) Decrement(ctx context.Context, productID int64) error {
	return u.mutate(ctx, opDecrement, productID, func(lines repo.CartLineRepository, current model.CartLine) (cartOutcome, error) {
		if current.Quantity <= 1 {
			return outcomeChanged, lines.DeleteByID(ctx, productID)
		}
		return outcomeChanged, lines.UpdateQuantity(ctx, productID, current.Quantity-1)
	})
}

// 既存の明細に対する読み→書き。
// 明細が無い（途中でClearされた場合を含む）ときは何もしない
func (u *CartUsecase) mutate(
	ctx context.Context,
	op string,
	productID int64,
	apply func(lines repo.CartLineRepository, current model.CartLine) (cartOutcome, error),
) error {
	unlock := u.locks.Lock(productID)
	defer unlock()

	outcome := outcomeNoop
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		lines := r.CartLines()

		current, err := lines.LockByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		outcome, err = apply(lines, current)
		if errors.Is(err, repo.ErrNotFound) {
			outcome = outcomeNoop
			return nil
		}
		return err
	})
	if err != nil {
		return u.fail(ctx, op, err)
	}
	if outcome == outcomeNoop {
		u.noop(ctx, op, productID)
		return nil
	}
	u.done(ctx, op)
	return nil
}

// 全明細を消す（全体ロックは取らない）
func (u *CartUsecase) Clear(ctx context.Context) error {
	if err := u.lines.DeleteAll(ctx); err != nil {
		return u.fail(ctx, opClear, err)
	}
	u.done(ctx, opClear)
	return nil
}

// 明細を1件。無ければ ok=false
func (u *CartUsecase) Line(ctx context.Context, productID int64) (model.CartLine, bool, error) {
	line, err := u.lines.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.CartLine{}, false, nil
	}
	if err != nil {
		return model.CartLine{}, false, dbError(err)
	}
	return line, true, nil
}

// 追加順の全明細
func (u *CartUsecase) Lines(ctx context.Context) ([]model.CartLine, error) {
	lines, err := u.lines.ListAll(ctx)
	if err != nil {
		return nil, dbError(err)
	}
	return lines, nil
}

// 合計金額と行数（保存せず毎回計算）
func (u *CartUsecase) Summary(ctx context.Context) (model.CartSummary, error) {
	lines, err := u.Lines(ctx)
	if err != nil {
		return model.CartSummary{}, err
	}
	return model.Summarize(lines), nil
}

// 今の明細を渡し、以降は変更のたびに渡す
func (u *CartUsecase) Observe(ctx context.Context, fn func([]model.CartLine)) (Unsubscribe, error) {
	return observe(ctx, u.broker, notify.TopicCart, u.log, u.Lines, fn)
}

func (u *CartUsecase) done(ctx context.Context, op string) {
	u.metrics.IncCartOp(op, metrics.ResultOK)
	if err := u.broker.Publish(ctx, notify.TopicCart); err != nil {
		u.log.Warn(ctx, "publish cart change failed", "op", op, "error", err.Error())
	}
}

func (u *CartUsecase) noop(ctx context.Context, op string, productID int64) {
	u.metrics.IncCartOp(op, metrics.ResultNoop)
	u.log.Debug(ctx, "cart operation skipped", "op", op, "product_id", productID)
}

func (u *CartUsecase) fail(ctx context.Context, op string, err error) error {
	u.metrics.IncCartOp(op, metrics.ResultError)
	u.log.Error(ctx, "cart operation failed", err, "op", op)
	return dbError(err)
}
