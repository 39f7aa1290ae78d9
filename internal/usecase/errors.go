package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// 在庫0の商品はカートに入れられない
	ErrOutOfStock = errors.New("out of stock")
	// リモートカタログに届かない / 応答が読めない
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// リモートの商品に不正なものが混ざっていた
	ErrInvalidCatalog = errors.New("invalid catalog record")
)

// 呼び出し側（handler）にそのまま返せるエラー
type HTTPError struct {
	Status  int
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d: %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error { return e.Err }

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

// 元のエラーを残す版（errors.Isで判定できる）
func WrapHTTPError(status int, message string, err error) error {
	return &HTTPError{
		Status:  status,
		Message: message,
		Err:     err,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func dbError(err error) error {
	return WrapHTTPError(http.StatusInternalServerError, "db error", err)
}
