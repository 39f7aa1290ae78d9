package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// カテゴリ絞り込みで「全件」を表すラベル
const CategoryAll = "All"

// カタログの商品（リモートから取得したものをそのままキャッシュする）
// IDはリモート側の識別子をそのまま使う（自動採番しない）
type Product struct {
	ID                   int64           `gorm:"primaryKey;autoIncrement:false" json:"id" validate:"gt=0"`
	Title                string          `gorm:"type:varchar(255);not null" json:"title" validate:"required"`
	Description          string          `gorm:"type:text" json:"description"`
	Category             string          `gorm:"type:varchar(100);not null;index" json:"category"`
	Price                decimal.Decimal `gorm:"type:numeric;not null" json:"price" validate:"gte=0"`
	DiscountPercentage   float64         `gorm:"not null;default:0" json:"discount_percentage"`
	Rating               float64         `gorm:"not null;default:0" json:"rating"`
	Stock                int64           `gorm:"not null" json:"stock" validate:"gte=0"`
	Tags                 []string        `gorm:"serializer:json;type:text" json:"tags"`
	Brand                string          `gorm:"type:varchar(255)" json:"brand"`
	SKU                  string          `gorm:"column:sku;type:varchar(100)" json:"sku"`
	Weight               float64         `gorm:"not null;default:0" json:"weight"`
	WarrantyInformation  string          `gorm:"type:text" json:"warranty_information"`
	ShippingInformation  string          `gorm:"type:text" json:"shipping_information"`
	AvailabilityStatus   string          `gorm:"type:varchar(50)" json:"availability_status"`
	ReturnPolicy         string          `gorm:"type:text" json:"return_policy"`
	MinimumOrderQuantity int64           `gorm:"not null;default:0" json:"minimum_order_quantity"`
	Images               []string        `gorm:"serializer:json;type:text" json:"images"`
	Thumbnail            string          `gorm:"type:text" json:"thumbnail"`

	// 子テーブル（商品削除でまとめて消える）
	Dimensions *Dimensions `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"dimensions,omitempty"`
	Meta       *Meta       `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"meta,omitempty"`
	Reviews    []Review    `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"reviews"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"-"`
}

// 商品の寸法
type Dimensions struct {
	ProductID int64   `gorm:"primaryKey;autoIncrement:false" json:"-"`
	Width     float64 `gorm:"not null;default:0" json:"width"`
	Height    float64 `gorm:"not null;default:0" json:"height"`
	Depth     float64 `gorm:"not null;default:0" json:"depth"`
}

// 商品のメタ情報（リモートの文字列をそのまま保存）
type Meta struct {
	ProductID int64  `gorm:"primaryKey;autoIncrement:false" json:"-"`
	Barcode   string `gorm:"type:varchar(255)" json:"barcode"`
	QRCode    string `gorm:"column:qr_code;type:text" json:"qr_code"`
	CreatedAt string `gorm:"column:remote_created_at;type:varchar(64)" json:"created_at"`
	UpdatedAt string `gorm:"column:remote_updated_at;type:varchar(64)" json:"updated_at"`
}

// 商品レビュー
type Review struct {
	ID            int64  `gorm:"primaryKey;autoIncrement" json:"-"`
	ProductID     int64  `gorm:"not null;index" json:"-"`
	Rating        int    `gorm:"not null;default:0" json:"rating"`
	Comment       string `gorm:"type:text" json:"comment"`
	Date          string `gorm:"type:varchar(64)" json:"date"`
	ReviewerName  string `gorm:"type:varchar(255)" json:"reviewer_name"`
	ReviewerEmail string `gorm:"type:varchar(255)" json:"reviewer_email"`
}

// 商品一覧からカテゴリ一覧を作る。
// 先頭は必ず"All"、以降は初出順で重複なし（大文字小文字は区別しない）
func Categories(products []Product) []string {
	out := []string{CategoryAll}
	seen := map[string]struct{}{strings.ToLower(CategoryAll): {}}

	for _, p := range products {
		c := strings.TrimSpace(p.Category)
		if c == "" {
			continue
		}
		key := strings.ToLower(c)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

// カテゴリで絞り込む。空文字と"All"は全件
func FilterByCategory(products []Product, category string) []Product {
	category = strings.TrimSpace(category)
	if category == "" || strings.EqualFold(category, CategoryAll) {
		return products
	}

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	return out
}
