package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// server-sent eventsのヘッダを書く
func startSSE(c echo.Context) {
	h := c.Response().Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Flush()
}

// 1イベント書いてflushする
func writeSSE(c echo.Context, event string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Response(), "event: %s\ndata: %s\n\n", event, b); err != nil {
		return err
	}
	c.Response().Flush()
	return nil
}

// 最新のスナップショットだけを残して渡す（書き込みが遅くても購読側を止めない）
type latest[T any] struct {
	ch chan T
}

func newLatest[T any]() *latest[T] {
	return &latest[T]{ch: make(chan T, 1)}
}

// 送り手は1つだけ（observeの呼び出し）
func (l *latest[T]) put(v T) {
	select {
	case <-l.ch:
	default:
	}
	l.ch <- v
}
