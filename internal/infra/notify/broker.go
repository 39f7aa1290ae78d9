package notify

import (
	"context"
	"sync"
)

// 変更通知のトピック
type Topic string

const (
	TopicCatalog Topic = "catalog"
	TopicCart    Topic = "cart"
)

// 「変わった」ことだけを伝える。中身は購読側が読み直す。
// 通知は合流する（購読側が遅くても書き込み側は止まらない）
type Broker interface {
	Publish(ctx context.Context, topic Topic) error
	Subscribe(topic Topic) (<-chan struct{}, func())
}

// プロセス内だけで通知する
type MemoryBroker struct {
	mu   sync.Mutex
	next int
	subs map[Topic]map[int]chan struct{}
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: map[Topic]map[int]chan struct{}{}}
}

func (b *MemoryBroker) Publish(_ context.Context, topic Topic) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs[topic] {
		signal(ch)
	}
	return nil
}

// 戻り値のfuncで購読解除（chはcloseされる）
func (b *MemoryBroker) Subscribe(topic Topic) (<-chan struct{}, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++

	ch := make(chan struct{}, 1)
	if b.subs[topic] == nil {
		b.subs[topic] = map[int]chan struct{}{}
	}
	b.subs[topic][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[topic], id)
			close(ch)
		})
	}
	return ch, cancel
}

// バッファが埋まっていれば捨てる（未処理の通知が1つあれば十分）
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
