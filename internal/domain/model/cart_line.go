package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// カートの明細（1商品につき1行）
// IDは商品IDと同じ。価格・在庫は追加時点のスナップショットを保存し、
// 以降カタログが更新されても追従しない。
type CartLine struct {
	ID        int64           `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Title     string          `gorm:"type:varchar(255);not null" json:"title"`
	Thumbnail string          `gorm:"type:text" json:"thumbnail"`
	Price     decimal.Decimal `gorm:"type:numeric;not null" json:"price"`
	Stock     int64           `gorm:"not null" json:"stock"`
	Quantity  int64           `gorm:"not null" json:"quantity"`

	// 追加順（一覧表示の並び順を安定させる）
	Seq int64 `gorm:"not null;index" json:"-"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 明細の小計（price * quantity）
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(l.Quantity))
}

// カートの集計値。保存はせず、明細から毎回計算する。
type CartSummary struct {
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"` // 明細の行数
	Units int64           `json:"units"` // 数量の合計
}

// 明細一覧から集計する
func Summarize(lines []CartLine) CartSummary {
	total := decimal.Zero
	var units int64
	for _, l := range lines {
		total = total.Add(l.Subtotal())
		units += l.Quantity
	}
	return CartSummary{
		Total: total,
		Count: len(lines),
		Units: units,
	}
}
