package main

import (
	"context"
	"os/signal"
	"syscall"

	"sparkshop/internal/handler"
	infraRepo "sparkshop/internal/infra/repository"
	"sparkshop/internal/server"
	auth "sparkshop/internal/usecase/auth_usecase"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) (err error) {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, a.close()) }()

	//ローカル認証（bcrypt + JWT）
	issuer, err := auth.NewJWTIssuer(a.cfg.Auth.JWTSecret, a.cfg.Auth.JWTTTL)
	if err != nil {
		return err
	}
	authenticator := auth.NewLocalAuthenticator(
		infraRepo.NewUserGormRepository(a.db),
		auth.NewBcryptPasswordHasher(a.cfg.Auth.BcryptCost),
		auth.NewBcryptPasswordVerifier(),
		issuer,
		auth.UUIDGenerator{},
		auth.SystemClock{},
	)

	//Handler生成
	h := server.Handlers{
		Health:   handler.NewHealthHandler(pingDB(a)),
		Auth:     handler.NewAuthHandler(authenticator),
		Product:  handler.NewProductHandler(a.catalog),
		Cart:     handler.NewCartHandler(a.cart),
		Checkout: handler.NewCheckoutHandler(a.checkout),
	}
	e := server.New(a.cfg, a.log, h, a.registry)

	g, gctx := errgroup.WithContext(ctx)
	if a.redis != nil {
		if err := a.redis.Start(gctx); err != nil {
			return err
		}
	}
	g.Go(func() error {
		return server.Start(gctx, e, a.cfg.App.Addr(), a.log)
	})
	return g.Wait()
}

func pingDB(a *app) handler.Pinger {
	return func(ctx context.Context) error {
		sqlDB, err := a.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
