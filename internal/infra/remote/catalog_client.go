package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sparkshop/internal/config"
	"sparkshop/internal/domain/model"
)

// 2xx以外が返ってきた
var ErrUnexpectedStatus = errors.New("unexpected status from catalog")

// リモートカタログ（読み取り1本だけ）
type CatalogClient struct {
	baseURL string
	path    string
	http    *http.Client
}

// DI。timeoutは0以下なら60秒
func NewCatalogClient(cfg config.CatalogConfig, httpClient *http.Client) *CatalogClient {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	path := cfg.Path
	if path == "" {
		path = "/products"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return &CatalogClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		path:    path,
		http:    httpClient,
	}
}

// 商品一覧を取得する。
// {"products":[...]} と [...] のどちらの形でも受け付ける。
func (c *CatalogClient) FetchProducts(ctx context.Context) ([]ProductDTO, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.path, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read catalog body: %w", err)
	}

	return DecodeProducts(body)
}

// 取得してキャッシュ用の形にしたもの
func (c *CatalogClient) FetchAll(ctx context.Context) ([]model.Product, error) {
	items, err := c.FetchProducts(ctx)
	if err != nil {
		return nil, err
	}
	return ToProducts(items), nil
}

// レスポンスボディを商品一覧にする
func DecodeProducts(body []byte) ([]ProductDTO, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("decode catalog: empty body")
	}

	//配列そのまま
	if trimmed[0] == '[' {
		var items []ProductDTO
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode catalog: %w", err)
		}
		if items == nil {
			items = []ProductDTO{}
		}
		return items, nil
	}

	var env productsEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	//productsキーが無いものはカタログとして扱わない
	if env.Products == nil {
		return nil, errors.New("decode catalog: products field missing")
	}
	if *env.Products == nil {
		return []ProductDTO{}, nil
	}
	return *env.Products, nil
}
