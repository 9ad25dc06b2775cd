package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/lmorales-dev/shopstream-backend/pkg/logger"
	redisclient "github.com/lmorales-dev/shopstream-backend/pkg/redis"
)

type channelPublisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// Publisher pushes events toward connected sellers through Redis pub/sub.
// Delivery is fire-and-forget: failures are logged, never surfaced, and
// events for offline sellers are simply lost.
type Publisher struct {
	redis channelPublisher
	logg  *logger.Logger
}

// NewPublisher constructs a realtime publisher.
func NewPublisher(redis channelPublisher, logg *logger.Logger) (*Publisher, error) {
	if redis == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Publisher{redis: redis, logg: logg}, nil
}

// Publish sends one event to the seller's channel.
func (p *Publisher) Publish(ctx context.Context, sellerID uuid.UUID, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logg.Warn(ctx, fmt.Sprintf("realtime: dropping unmarshalable %s event: %v", event, err))
		return
	}

	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		p.logg.Warn(ctx, fmt.Sprintf("realtime: dropping %s event: %v", event, err))
		return
	}

	channel := redisclient.SellerChannel(sellerID.String())
	if err := p.redis.Publish(ctx, channel, string(frame)); err != nil {
		p.logg.Warn(ctx, fmt.Sprintf("realtime: publish to %s failed: %v", channel, err))
	}
}
