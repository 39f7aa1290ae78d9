package repository

import (
	"context"

	"sparkshop/internal/domain/model"
)

// カート明細の保存先。キーは商品ID。
type CartLineRepository interface {
	FindByID(ctx context.Context, productID int64) (model.CartLine, error)
	// 行ロック付きで取得（WithinTxの中で使う）
	LockByID(ctx context.Context, productID int64) (model.CartLine, error)
	// 新規追加（Seqはリポジトリ側で採番）
	Insert(ctx context.Context, line model.CartLine) (model.CartLine, error)
	UpdateQuantity(ctx context.Context, productID int64, qty int64) error
	DeleteByID(ctx context.Context, productID int64) error
	DeleteAll(ctx context.Context) error
	// 追加順で全件
	ListAll(ctx context.Context) ([]model.CartLine, error)
}
