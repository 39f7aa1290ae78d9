package repository

import (
	"context"
	"errors"

	"sparkshop/internal/domain/model"
	repo "sparkshop/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// 明細を取得（キーは商品ID）
func (r *CartGormRepository) FindByID(ctx context.Context, productID int64) (model.CartLine, error) {
	var line model.CartLine

	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&line).Error

	return line, translateNotFound(err)
}

// SELECT ... FOR UPDATE で取得。
// 別プロセスの同じ明細への書き込みはコミットまで待たされる（sqliteはBEGIN IMMEDIATEで直列化）
func (r *CartGormRepository) LockByID(ctx context.Context, productID int64) (model.CartLine, error) {
	var line model.CartLine

	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", productID).
		First(&line).Error

	return line, translateNotFound(err)
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repo.ErrNotFound
	}
	return err
}

// 明細を新規作成。Seqは現在の最大+1
func (r *CartGormRepository) Insert(ctx context.Context, line model.CartLine) (model.CartLine, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxSeq int64
		if err := tx.Model(&model.CartLine{}).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&maxSeq).Error; err != nil {
			return err
		}

		line.Seq = maxSeq + 1
		return tx.Create(&line).Error
	})
	if err != nil {
		return model.CartLine{}, err
	}
	return line, nil
}

// 明細の数量を更新
func (r *CartGormRepository) UpdateQuantity(ctx context.Context, productID int64, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.CartLine{}).
		Where("id = ?", productID).
		Update("quantity", qty)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 明細を削除
func (r *CartGormRepository) DeleteByID(ctx context.Context, productID int64) error {
	res := r.db.WithContext(ctx).Delete(&model.CartLine{}, productID)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 明細を全削除
func (r *CartGormRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&model.CartLine{}).Error
}

// 追加順で一覧取得
func (r *CartGormRepository) ListAll(ctx context.Context) ([]model.CartLine, error) {
	var lines []model.CartLine

	if err := r.db.WithContext(ctx).
		Order("seq asc").
		Order("id asc").
		Find(&lines).Error; err != nil {
		return []model.CartLine{}, err
	}

	return lines, nil
}
