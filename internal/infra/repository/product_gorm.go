package repository

import (
	"context"
	"errors"

	"sparkshop/internal/domain/model"
	repo "sparkshop/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// 子テーブル込みで全件を返す
func (r *ProductGormRepository) ListWithDetails(ctx context.Context) ([]model.Product, error) {
	var products []model.Product

	err := r.db.WithContext(ctx).
		Preload("Dimensions").
		Preload("Meta").
		Preload("Reviews", func(tx *gorm.DB) *gorm.DB { return tx.Order("id asc") }).
		Order("id asc").
		Find(&products).Error
	if err != nil {
		return []model.Product{}, err
	}
	return products, nil
}

// IDで商品を取得
func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Preload("Dimensions").
		Preload("Meta").
		Preload("Reviews", func(tx *gorm.DB) *gorm.DB { return tx.Order("id asc") }).
		First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (r *ProductGormRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Product{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// 商品と子テーブルをまとめて書き込む。
// 既存の商品は丸ごと上書き（子テーブルは入れ替え）
func (r *ProductGormRepository) SaveWithRelations(ctx context.Context, p model.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dims := p.Dimensions
		meta := p.Meta
		reviews := p.Reviews

		//古い子テーブルを削除
		if err := deleteChildren(tx, p.ID); err != nil {
			return err
		}

		//商品本体をupsert（関連はここでは保存しない）
		base := p
		base.Dimensions = nil
		base.Meta = nil
		base.Reviews = nil
		if err := tx.
			Clauses(clause.OnConflict{UpdateAll: true}).
			Omit(clause.Associations).
			Create(&base).Error; err != nil {
			return err
		}

		if dims != nil {
			d := *dims
			d.ProductID = p.ID
			if err := tx.Create(&d).Error; err != nil {
				return err
			}
		}
		if meta != nil {
			m := *meta
			m.ProductID = p.ID
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
		}
		if len(reviews) > 0 {
			rows := make([]model.Review, 0, len(reviews))
			for _, rv := range reviews {
				rv.ID = 0
				rv.ProductID = p.ID
				rows = append(rows, rv)
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// 全削除（FKのcascadeに頼らず子から消す）
func (r *ProductGormRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&model.Review{}, &model.Meta{}, &model.Dimensions{}, &model.Product{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func deleteChildren(tx *gorm.DB, productID int64) error {
	if err := tx.Where("product_id = ?", productID).Delete(&model.Review{}).Error; err != nil {
		return err
	}
	if err := tx.Where("product_id = ?", productID).Delete(&model.Meta{}).Error; err != nil {
		return err
	}
	if err := tx.Where("product_id = ?", productID).Delete(&model.Dimensions{}).Error; err != nil {
		return err
	}
	return nil
}
