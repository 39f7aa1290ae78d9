package remote

import (
	"sparkshop/internal/domain/model"
)

// リモートの1件をキャッシュ用の商品（本体＋寸法・メタ・レビュー）に分解する。
// 子はすべて商品IDで紐付ける。
func ToProduct(d ProductDTO) model.Product {
	images := d.Images
	if len(images) == 0 && d.Image != "" {
		images = []string{d.Image}
	}
	if images == nil {
		images = []string{}
	}

	thumbnail := d.Thumbnail
	if thumbnail == "" && len(images) > 0 {
		thumbnail = images[0]
	}

	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}

	p := model.Product{
		ID:                   d.ID,
		Title:                d.Title,
		Description:          d.Description,
		Category:             d.Category,
		Price:                d.Price,
		DiscountPercentage:   d.DiscountPercentage,
		Rating:               d.Rating.Rate,
		Stock:                d.Stock,
		Tags:                 tags,
		Brand:                d.Brand,
		SKU:                  d.SKU,
		Weight:               d.Weight,
		WarrantyInformation:  d.WarrantyInformation,
		ShippingInformation:  d.ShippingInformation,
		AvailabilityStatus:   d.AvailabilityStatus,
		ReturnPolicy:         d.ReturnPolicy,
		MinimumOrderQuantity: d.MinimumOrderQuantity,
		Images:               images,
		Thumbnail:            thumbnail,
		Reviews:              []model.Review{},
	}

	if d.Dimensions != nil {
		depth := d.Dimensions.Depth
		if depth == 0 {
			depth = d.Dimensions.Length
		}
		p.Dimensions = &model.Dimensions{
			ProductID: d.ID,
			Width:     d.Dimensions.Width,
			Height:    d.Dimensions.Height,
			Depth:     depth,
		}
	}

	if d.Meta != nil {
		p.Meta = &model.Meta{
			ProductID: d.ID,
			Barcode:   d.Meta.Barcode,
			QRCode:    d.Meta.QRCode,
			CreatedAt: d.Meta.CreatedAt,
			UpdatedAt: d.Meta.UpdatedAt,
		}
	}

	for _, r := range d.Reviews {
		p.Reviews = append(p.Reviews, model.Review{
			ProductID:     d.ID,
			Rating:        r.Rating,
			Comment:       r.Comment,
			Date:          r.Date,
			ReviewerName:  r.ReviewerName,
			ReviewerEmail: r.ReviewerEmail,
		})
	}

	return p
}

func ToProducts(items []ProductDTO) []model.Product {
	out := make([]model.Product, 0, len(items))
	for _, d := range items {
		out = append(out, ToProduct(d))
	}
	return out
}
