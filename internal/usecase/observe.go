package usecase

import (
	"context"
	"sync"

	"sparkshop/internal/infra/notify"
	"sparkshop/internal/logger"
)

// 購読を解除する
type Unsubscribe func()

// 最初のスナップショットはこの場で渡し、以降は通知のたびに読み直して渡す。
// 通知は合流するので、連続した変更は1回の読み直しにまとまることがある。
func observe[T any](
	ctx context.Context,
	broker notify.Broker,
	topic notify.Topic,
	log *logger.Logger,
	load func(context.Context) (T, error),
	fn func(T),
) (Unsubscribe, error) {
	// 読む前に購読しておく（読んだ直後の変更を落とさない）
	ch, cancel := broker.Subscribe(topic)

	first, err := load(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	fn(first)

	done := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(done)
			cancel()
		})
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				stop()
				return
			case <-done:
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				snap, err := load(ctx)
				if err != nil {
					if ctx.Err() != nil {
						stop()
						return
					}
					log.Error(ctx, "reload snapshot failed", err, "topic", string(topic))
					continue
				}
				select {
				case <-done:
					return
				default:
				}
				fn(snap)
			}
		}
	}()

	return stop, nil
}
