package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"sparkshop/internal/config"
	"sparkshop/internal/domain/model"
	"sparkshop/internal/handler"
	"sparkshop/internal/infra/db/dbtest"
	"sparkshop/internal/infra/notify"
	"sparkshop/internal/infra/remote"
	infraRepo "sparkshop/internal/infra/repository"
	"sparkshop/internal/logger"
	"sparkshop/internal/metrics"
	"sparkshop/internal/server"
	"sparkshop/internal/usecase"
	auth "sparkshop/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const catalogJSON = `{"products":[
  {"id":101,"title":"Premium Smart Device","category":"smartphones","price":299.99,"stock":50,
   "images":["https://img/101.png"],"thumbnail":"https://img/101-t.png",
   "dimensions":{"width":1,"height":2,"depth":3},
   "reviews":[{"rating":5,"comment":"Great","reviewerName":"A"}]},
  {"id":7,"title":"Lip Gloss","category":"beauty","price":5.5,"stock":2,"images":[]},
  {"id":8,"title":"Sold Out","category":"beauty","price":1,"stock":0}
],"total":3,"skip":0,"limit":30}`

type testServer struct {
	e           *echo.Echo
	remoteHits  *atomic.Int32
	remoteFails *atomic.Bool
}

type serverOption func(*config.Config)

func withAuthRequired() serverOption {
	return func(c *config.Config) { c.Auth.Required = true }
}

func withEnv(env string) serverOption {
	return func(c *config.Config) { c.App.Env = env }
}

// sqlite（メモリ）と偽のリモートでAPI全体を組み立てる
func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	ts := &testServer{remoteHits: &atomic.Int32{}, remoteFails: &atomic.Bool{}}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.remoteHits.Add(1)
		if ts.remoteFails.Load() {
			http.Error(w, "down", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(catalogJSON))
	}))
	t.Cleanup(upstream.Close)

	cfg := config.Config{
		Catalog: config.CatalogConfig{BaseURL: upstream.URL, Path: "/products", Timeout: 5 * time.Second},
		Auth:    config.AuthConfig{JWTSecret: "test-secret", JWTTTL: time.Minute, BcryptCost: 4},
	}
	for _, o := range opts {
		o(&cfg)
	}

	gdb := dbtest.Open(t)
	log := logger.Nop()
	broker := notify.NewMemoryBroker()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	productRepo := infraRepo.NewProductGormRepository(gdb)
	txm := infraRepo.NewTxManagerGorm(gdb)
	catalog := usecase.NewCatalogUsecase(productRepo, txm, remote.NewCatalogClient(cfg.Catalog, nil), broker, m, log)
	cart := usecase.NewCartUsecase(infraRepo.NewCartGormRepository(gdb), productRepo, txm, broker, m, log)

	issuer, err := auth.NewJWTIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
	require.NoError(t, err)
	authenticator := auth.NewLocalAuthenticator(
		infraRepo.NewUserGormRepository(gdb),
		auth.NewBcryptPasswordHasher(cfg.Auth.BcryptCost),
		auth.NewBcryptPasswordVerifier(),
		issuer,
		auth.UUIDGenerator{},
		auth.SystemClock{},
	)

	ts.e = server.New(cfg, log, server.Handlers{
		Health:   handler.NewHealthHandler(nil),
		Auth:     handler.NewAuthHandler(authenticator),
		Product:  handler.NewProductHandler(catalog),
		Cart:     handler.NewCartHandler(cart),
		Checkout: handler.NewCheckoutHandler(usecase.NewCheckoutUsecase(cart)),
	}, reg)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type productList struct {
	Items    []model.Product `json:"items"`
	Category string          `json:"category"`
	Total    int             `json:"total"`
}

type cartBody struct {
	Lines   []model.CartLine `json:"lines"`
	Summary struct {
		Total decimal.Decimal `json:"total"`
		Count int             `json:"count"`
		Units int64           `json:"units"`
	} `json:"summary"`
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}
