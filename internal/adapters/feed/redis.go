package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"eventlottery/internal/domain"
)

const channelPrefix = "eventlottery:changes:"

// Channel returns the pub/sub channel carrying changes for one event.
func Channel(eventID string) string {
	return channelPrefix + eventID
}

// Redis is a ChangeFeed over Redis pub/sub, so every API instance sees changes
// committed by any other.
type Redis struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedis(client *redis.Client, logger *slog.Logger) *Redis {
	return &Redis{client: client, logger: logger}
}

func (r *Redis) Publish(ctx context.Context, ev domain.ChangeEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	if err := r.client.Publish(ctx, Channel(ev.EventID), body).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscribe follows the event's channel until ctx is done. Like Local, the
// returned channel holds one pending change and coalesces the rest.
func (r *Redis) Subscribe(ctx context.Context, eventID string) (<-chan domain.ChangeEvent, error) {
	ps := r.client.Subscribe(ctx, Channel(eventID))
	// Wait for the subscription confirmation so no publish after return is missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	out := make(chan domain.ChangeEvent, 1)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				ev, err := decodeChange(msg.Payload)
				if err != nil {
					r.logger.Warn("dropping malformed change message", "channel", msg.Channel, "error", err)
					continue
				}
				select {
				case out <- ev:
				default:
				}
			}
		}
	}()
	return out, nil
}

func decodeChange(payload string) (domain.ChangeEvent, error) {
	var ev domain.ChangeEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return ev, err
	}
	if ev.EventID == "" {
		return ev, fmt.Errorf("change without event id")
	}
	return ev, nil
}

// NewRedisClient connects to addr and pings it. It returns an error instead of a
// client when the server is unreachable.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}
