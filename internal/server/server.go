package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"sparkshop/internal/config"
	"sparkshop/internal/logger"
	"sparkshop/internal/middleware"
	"sparkshop/internal/validator"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 10 * time.Second

// echoを組み立てる
func New(cfg config.Config, log *logger.Logger, h Handlers, gatherer prometheus.Gatherer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = !cfg.App.IsProd()
	e.Validator = validator.EchoValidator{}

	e.Use(echomw.Recover())
	e.Use(middleware.RequestID(log))
	e.Use(middleware.RequestLog(log))

	RegisterRoutes(e, cfg, h, gatherer)
	return e
}

// ctxが終わるまで待ち受ける。終わったらshutdownする
func Start(ctx context.Context, e *echo.Echo, addr string, log *logger.Logger) error {
	// SSEの接続もctxの終了で閉じる
	e.Server.BaseContext = func(net.Listener) context.Context { return ctx }

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "http server listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info(ctx, "http server shutting down")
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
