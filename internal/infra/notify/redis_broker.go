package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
)

const channelPrefix = "sparkshop:"

type publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// 複数プロセスで同じDB（postgres）を使うときの通知。
// 自プロセスの購読者にはその場で通知し、他プロセスへはredis pub/subで流す。
type RedisBroker struct {
	local      *MemoryBroker
	pub        publisher
	raw        *redis.Client
	instanceID string

	mu sync.Mutex
	ps *redis.PubSub
	wg sync.WaitGroup
}

// url例: redis://localhost:6379/0
func NewRedisBroker(ctx context.Context, url string) (*RedisBroker, error) {
	if url == "" {
		return nil, errors.New("redis url is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	b := newRedisBroker(raw)
	b.raw = raw
	return b, nil
}

func newRedisBroker(pub publisher) *RedisBroker {
	return &RedisBroker{
		local:      NewMemoryBroker(),
		pub:        pub,
		instanceID: uuid.NewString(),
	}
}

func (b *RedisBroker) Publish(ctx context.Context, topic Topic) error {
	if err := b.local.Publish(ctx, topic); err != nil {
		return err
	}
	if err := b.pub.Publish(ctx, channelName(topic), b.instanceID).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", topic, err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(topic Topic) (<-chan struct{}, func()) {
	return b.local.Subscribe(topic)
}

// 他プロセスからの通知を受け始める
func (b *RedisBroker) Start(ctx context.Context) error {
	if b.raw == nil {
		return errors.New("redis client not initialized")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ps != nil {
		return nil
	}

	ps := b.raw.Subscribe(ctx, channelName(TopicCatalog), channelName(TopicCart))
	// 購読が確定するまで待つ
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}
	b.ps = ps

	msgs := ps.Channel()
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for msg := range msgs {
			b.handleMessage(ctx, msg)
		}
	}()
	return nil
}

// 自分が出した通知は無視する（ローカルでは通知済み）
func (b *RedisBroker) handleMessage(ctx context.Context, msg *redis.Message) {
	if msg == nil || msg.Payload == b.instanceID {
		return
	}
	topic, ok := topicFromChannel(msg.Channel)
	if !ok {
		return
	}
	_ = b.local.Publish(ctx, topic)
}

func (b *RedisBroker) Close() error {
	b.mu.Lock()
	ps := b.ps
	b.ps = nil
	b.mu.Unlock()

	var err error
	if ps != nil {
		err = ps.Close()
		b.wg.Wait()
	}
	if b.raw != nil {
		err = multierr.Append(err, b.raw.Close())
	}
	return err
}

func channelName(topic Topic) string {
	return channelPrefix + string(topic)
}

func topicFromChannel(channel string) (Topic, bool) {
	if !strings.HasPrefix(channel, channelPrefix) {
		return "", false
	}
	switch t := Topic(strings.TrimPrefix(channel, channelPrefix)); t {
	case TopicCatalog, TopicCart:
		return t, true
	default:
		return "", false
	}
}
