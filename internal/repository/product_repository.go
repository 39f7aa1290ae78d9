package repository

import (
	"context"
	"errors"

	"sparkshop/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// カタログキャッシュ（商品＋子テーブル）の永続化だけを約束。
type ProductRepository interface {
	// 子テーブル込みで全件（id昇順）
	ListWithDetails(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	Count(ctx context.Context) (int64, error)

	// 商品と子テーブルを1トランザクションで書き込む（商品は丸ごと上書き）
	SaveWithRelations(ctx context.Context, p model.Product) error

	// 全削除（子テーブルも消える）
	DeleteAll(ctx context.Context) error
}
