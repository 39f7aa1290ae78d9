package handler

import (
	"net/http"
	"strconv"

	"sparkshop/internal/domain/model"
	"sparkshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type AddCartRequest struct {
	ProductID int64 `json:"product_id" validate:"gt=0"`
	Quantity  int64 `json:"quantity" validate:"gte=0"`
}

type cartResponse struct {
	Lines   []model.CartLine  `json:"lines"`
	Summary model.CartSummary `json:"summary"`
}

func newCartResponse(lines []model.CartLine) cartResponse {
	if lines == nil {
		lines = []model.CartLine{}
	}
	return cartResponse{Lines: lines, Summary: model.Summarize(lines)}
}

// /cart を登録
func (h *CartHandler) RegisterRoutes(e *echo.Echo, m ...echo.MiddlewareFunc) {
	g := e.Group("/cart", m...)
	g.GET("", h.getCart)
	g.GET("/stream", h.stream)
	g.POST("", h.addToCart)
	g.POST("/:id/increment", h.increment)
	g.POST("/:id/decrement", h.decrement)
	g.DELETE("", h.clear)
}

func (h *CartHandler) getCart(c echo.Context) error {
	lines, err := h.uc.Lines(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newCartResponse(lines))
}

// 無ければ追加、あれば1つ増やす
func (h *CartHandler) addToCart(c echo.Context) error {
	var req AddCartRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	line, err := h.uc.AddProduct(c.Request().Context(), req.ProductID, req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, line)
}

func (h *CartHandler) increment(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}
	if err := h.uc.Increment(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return h.getCart(c)
}

func (h *CartHandler) decrement(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}
	if err := h.uc.Decrement(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return h.getCart(c)
}

func (h *CartHandler) clear(c echo.Context) error {
	if err := h.uc.Clear(c.Request().Context()); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// カートの変更をSSEで流す（接続直後に今の中身を1回）
func (h *CartHandler) stream(c echo.Context) error {
	ctx := c.Request().Context()

	snaps := newLatest[[]model.CartLine]()
	unsubscribe, err := h.uc.Observe(ctx, snaps.put)
	if err != nil {
		return writeError(c, err)
	}
	defer unsubscribe()

	startSSE(c)
	for {
		select {
		case <-ctx.Done():
			return nil
		case lines := <-snaps.ch:
			if err := writeSSE(c, "cart", newCartResponse(lines)); err != nil {
				return nil
			}
		}
	}
}

func parseID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
