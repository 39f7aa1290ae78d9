package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"sparkshop/internal/config"
	"sparkshop/internal/infra/db"
	"sparkshop/internal/infra/notify"
	"sparkshop/internal/infra/remote"
	infraRepo "sparkshop/internal/infra/repository"
	"sparkshop/internal/logger"
	"sparkshop/internal/metrics"
	"sparkshop/internal/usecase"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// 組み立て済みの部品一式
type app struct {
	cfg      config.Config
	log      *logger.Logger
	db       *gorm.DB
	broker   notify.Broker
	redis    *notify.RedisBroker
	registry *prometheus.Registry

	catalog  *usecase.CatalogUsecase
	cart     *usecase.CartUsecase
	checkout *usecase.CheckoutUsecase
}

// .envは無くてもよい
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Options{
		ServiceName: appName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})

	//DB接続
	gdb, err := db.Connect(cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(gdb); err != nil {
		return nil, multierr.Append(err, db.Close(gdb))
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		db:       gdb,
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	//変更通知（REDIS_URLがあればプロセス間でも流す）
	if cfg.Redis.URL != "" {
		rb, err := notify.NewRedisBroker(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, multierr.Append(err, a.close())
		}
		a.redis = rb
		a.broker = rb
	} else {
		a.broker = notify.NewMemoryBroker()
	}

	m := metrics.New(a.registry)

	//Repository（GORM実装）
	productRepo := infraRepo.NewProductGormRepository(gdb)
	cartRepo := infraRepo.NewCartGormRepository(gdb)
	txm := infraRepo.NewTxManagerGorm(gdb)

	source := remote.NewCatalogClient(cfg.Catalog, &http.Client{Timeout: cfg.Catalog.Timeout})

	//Usecase
	a.catalog = usecase.NewCatalogUsecase(productRepo, txm, source, a.broker, m, log)
	a.cart = usecase.NewCartUsecase(cartRepo, productRepo, txm, a.broker, m, log)
	a.checkout = usecase.NewCheckoutUsecase(a.cart)

	return a, nil
}

func (a *app) close() error {
	var err error
	if a.redis != nil {
		err = multierr.Append(err, a.redis.Close())
	}
	if a.db != nil {
		err = multierr.Append(err, db.Close(a.db))
	}
	return err
}
