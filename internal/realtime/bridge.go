package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// envelope wraps an event for cross-instance transport.
type envelope struct {
	InstanceID string          `json:"instance_id"`
	Channel    string          `json:"channel"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	At         time.Time       `json:"at"`
}

// Bridge republishes hub events over Redis Pub/Sub and injects events from
// other instances into the local hub, filtering its own publications by
// instance ID.
type Bridge struct {
	client     *redis.Client
	hub        *Hub
	channel    string
	instanceID string
	logger     *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBridge constructs a bridge over the given Redis client and local hub.
func NewBridge(client *redis.Client, hub *Hub, channel string, logger *zap.Logger) *Bridge {
	if channel == "" {
		channel = "jhs-sis:events"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		client:     client,
		hub:        hub,
		channel:    channel,
		instanceID: uuid.NewString(),
		logger:     logger,
	}
}

// Start launches the subscription loop feeding remote events into the hub.
func (b *Bridge) Start(ctx context.Context) {
	ctx, b.cancel = context.WithCancel(ctx)
	pubsub := b.client.Subscribe(ctx, b.channel)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer pubsub.Close()
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				b.handleMessage(ctx, msg)
			}
		}
	}()
}

// Publish sends the event to the local hub and to the Redis channel. A Redis
// failure degrades to local-only delivery and is logged, never surfaced.
func (b *Bridge) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		b.logger.Error("marshal event payload", zap.String("channel", event.Channel), zap.Error(err))
		return b.hub.Publish(ctx, event)
	}

	data, err := json.Marshal(envelope{
		InstanceID: b.instanceID,
		Channel:    event.Channel,
		Type:       event.Type,
		Payload:    payload,
		At:         event.At,
	})
	if err != nil {
		b.logger.Error("marshal event envelope", zap.String("channel", event.Channel), zap.Error(err))
		return b.hub.Publish(ctx, event)
	}

	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		b.logger.Warn("redis publish failed, delivering locally only", zap.Error(err))
	}

	return b.hub.Publish(ctx, event)
}

func (b *Bridge) handleMessage(ctx context.Context, msg *redis.Message) {
	var env envelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		b.logger.Error("unmarshal remote event", zap.Error(err))
		return
	}

	// Local subscribers already saw our own events.
	if env.InstanceID == b.instanceID {
		return
	}

	var payload interface{}
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			b.logger.Error("unmarshal remote payload", zap.Error(err))
			return
		}
	}

	if err := b.hub.Publish(ctx, Event{Channel: env.Channel, Type: env.Type, Payload: payload, At: env.At}); err != nil {
		b.logger.Warn("deliver remote event", zap.Error(err))
	}
}

// Close stops the subscription loop and waits for it to exit.
func (b *Bridge) Close() {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
}
