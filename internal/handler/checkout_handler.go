package handler

import (
	"net/http"

	"sparkshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /checkout（確認と確定だけ）
type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

// DI
func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, m ...echo.MiddlewareFunc) {
	g := e.Group("/checkout", m...)
	g.GET("", h.summary)
	g.POST("", h.complete)
}

func (h *CheckoutHandler) summary(c echo.Context) error {
	out, err := h.uc.Summary(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CheckoutHandler) complete(c echo.Context) error {
	out, err := h.uc.Complete(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
