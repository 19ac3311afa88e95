// Package redisbus shares notification state through Redis: events are
// published for other consumers and threshold claims are deduplicated
// across server instances.
package redisbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vncsmyrnk/busvote/internal/core/domain"
)

const EventsChannel = "busvote:events"

type Publisher struct {
	client  *redis.Client
	channel string
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client, channel: EventsChannel}
}

func (p *Publisher) Notify(ctx context.Context, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Ledger claims notification keys with SET NX so that only one instance
// sends a given notification.
type Ledger struct {
	client *redis.Client
	prefix string
}

func NewLedger(client *redis.Client) *Ledger {
	return &Ledger{client: client, prefix: "busvote:"}
}

func (l *Ledger) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.prefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return ok, nil
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// Subscribe signals every event published on the events channel until ctx
// is done. Bursts collapse into a single signal.
func (p *Publisher) Subscribe(ctx context.Context) <-chan struct{} {
	out := make(chan struct{}, 1)
	pubsub := p.client.Subscribe(ctx, p.channel)

	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()

	return out
}
