package server

import (
	"sparkshop/internal/config"
	"sparkshop/internal/handler"
	"sparkshop/internal/middleware"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ルート登録に必要なハンドラ一式
type Handlers struct {
	Health   *handler.HealthHandler
	Auth     *handler.AuthHandler
	Product  *handler.ProductHandler
	Cart     *handler.CartHandler
	Checkout *handler.CheckoutHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers, gatherer prometheus.Gatherer) {
	h.Health.RegisterRoutes(e)
	h.Auth.RegisterRoutes(e)

	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	// AUTH_REQUIRED のときだけカタログ・カートをログイン必須にする
	var guard []echo.MiddlewareFunc
	if cfg.Auth.Required {
		guard = append(guard, middleware.AuthJWT(cfg.Auth.JWTSecret))
	}

	h.Product.RegisterRoutes(e, guard...)
	h.Cart.RegisterRoutes(e, guard...)
	h.Checkout.RegisterRoutes(e, guard...)
}
