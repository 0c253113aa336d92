package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Frame is an encoded envelope addressed to a room, as shipped between instances.
type Frame struct {
	Origin  string          `json:"origin"`
	Room    string          `json:"room"`
	Except  string          `json:"except,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// Broker relays frames between hub instances.
type Broker interface {
	Publish(ctx context.Context, f Frame) error
	Subscribe(ctx context.Context, handle func(Frame)) error
}

// RedisBroker uses a Redis pub/sub channel.
type RedisBroker struct {
	rdb     *redis.Client
	channel string
	logger  *logrus.Logger
}

func NewRedisBroker(rdb *redis.Client, channel string, logger *logrus.Logger) *RedisBroker {
	return &RedisBroker{rdb: rdb, channel: channel, logger: logger}
}

func (b *RedisBroker) Publish(ctx context.Context, f Frame) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context, handle func(Frame)) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer func() { _ = sub.Close() }()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var f Frame
			if err := json.Unmarshal([]byte(msg.Payload), &f); err != nil {
				if b.logger != nil {
					b.logger.WithError(err).Warn("drop malformed realtime frame")
				}
				continue
			}
			handle(f)
		}
	}
}
