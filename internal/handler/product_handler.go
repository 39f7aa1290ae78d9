package handler

import (
	"net/http"
	"strconv"

	"sparkshop/internal/domain/model"
	"sparkshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /products と /catalog
type ProductHandler struct {
	uc *usecase.CatalogUsecase
}

// DI
func NewProductHandler(uc *usecase.CatalogUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

type productListResponse struct {
	Items    []model.Product `json:"items"`
	Category string          `json:"category"`
	Total    int             `json:"total"`
}

// 商品のルートを登録
func (h *ProductHandler) RegisterRoutes(e *echo.Echo, m ...echo.MiddlewareFunc) {
	g := e.Group("/products", m...)
	g.GET("", h.list)
	g.GET("/categories", h.categories)
	g.GET("/stream", h.stream)
	g.GET("/:id", h.detail)

	e.POST("/catalog/reset", h.reset, m...)
}

// キャッシュを返す。空ならリモートから取って保存してから返す
func (h *ProductHandler) list(c echo.Context) error {
	ctx := c.Request().Context()
	category := c.QueryParam("category")
	if category == "" {
		category = model.CategoryAll
	}

	var snapshot []model.Product
	for items, err := range h.uc.FetchCatalog(ctx) {
		if err != nil {
			return writeError(c, err)
		}
		snapshot = items
	}

	//取得した直後はキャッシュを読み直す
	if len(snapshot) == 0 {
		items, err := h.uc.ListProducts(ctx, model.CategoryAll)
		if err != nil {
			return writeError(c, err)
		}
		snapshot = items
	}

	items := model.FilterByCategory(snapshot, category)
	return c.JSON(http.StatusOK, productListResponse{
		Items:    items,
		Category: category,
		Total:    len(items),
	})
}

func (h *ProductHandler) categories(c echo.Context) error {
	out, err := h.uc.Categories(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	p, err := h.uc.GetProduct(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) reset(c echo.Context) error {
	if err := h.uc.ResetCatalog(c.Request().Context()); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// カタログの変更をSSEで流す
func (h *ProductHandler) stream(c echo.Context) error {
	ctx := c.Request().Context()
	category := c.QueryParam("category")

	snaps := newLatest[[]model.Product]()
	unsubscribe, err := h.uc.ObserveCatalog(ctx, snaps.put)
	if err != nil {
		return writeError(c, err)
	}
	defer unsubscribe()

	startSSE(c)
	for {
		select {
		case <-ctx.Done():
			return nil
		case items := <-snaps.ch:
			items = model.FilterByCategory(items, category)
			if err := writeSSE(c, "catalog", productListResponse{Items: items, Category: category, Total: len(items)}); err != nil {
				return nil
			}
		}
	}
}
