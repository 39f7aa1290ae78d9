package remote

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// GET /products の1件分。
// 知らないフィールドは無視し、無いフィールドはゼロ値のまま。
type ProductDTO struct {
	ID                   int64           `json:"id"`
	Title                string          `json:"title"`
	Description          string          `json:"description"`
	Category             string          `json:"category"`
	Price                decimal.Decimal `json:"price"`
	DiscountPercentage   float64         `json:"discountPercentage"`
	Rating               Rating          `json:"rating"`
	Stock                int64           `json:"stock"`
	Tags                 []string        `json:"tags"`
	Brand                string          `json:"brand"`
	SKU                  string          `json:"sku"`
	Weight               float64         `json:"weight"`
	Dimensions           *DimensionsDTO  `json:"dimensions"`
	WarrantyInformation  string          `json:"warrantyInformation"`
	ShippingInformation  string          `json:"shippingInformation"`
	AvailabilityStatus   string          `json:"availabilityStatus"`
	Reviews              []ReviewDTO     `json:"reviews"`
	ReturnPolicy         string          `json:"returnPolicy"`
	MinimumOrderQuantity int64           `json:"minimumOrderQuantity"`
	Meta                 *MetaDTO        `json:"meta"`
	Images               []string        `json:"images"`
	Image                string          `json:"image"`
	Thumbnail            string          `json:"thumbnail"`
}

type DimensionsDTO struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
	Length float64 `json:"length"` // 旧API（depthの代わり）
}

type MetaDTO struct {
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
	Barcode   string `json:"barcode"`
	QRCode    string `json:"qrCode"`
}

type ReviewDTO struct {
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
	Date          string `json:"date"`
	ReviewerName  string `json:"reviewerName"`
	ReviewerEmail string `json:"reviewerEmail"`
}

// ratingは数値 or {"rate":4.1,"count":120} のどちらでも来る
type Rating struct {
	Rate  float64
	Count int64
}

func (r *Rating) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '{' {
		var obj struct {
			Rate  float64 `json:"rate"`
			Count int64   `json:"count"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		r.Rate = obj.Rate
		r.Count = obj.Count
		return nil
	}
	return json.Unmarshal(b, &r.Rate)
}

// 一覧レスポンス（{"products":[...]} 形式）
type productsEnvelope struct {
	Products *[]ProductDTO `json:"products"`
	Total    int           `json:"total"`
	Skip     int           `json:"skip"`
	Limit    int           `json:"limit"`
}
