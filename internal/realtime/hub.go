package realtime

import (
	"context"
	"fmt"
	"strings"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"github.com/lmorales-dev/shopstream-backend/pkg/logger"
	redisclient "github.com/lmorales-dev/shopstream-backend/pkg/redis"
)

// subscriberBuffer bounds each local subscriber queue. A slow consumer
// drops frames rather than blocking the fan-out loop.
const subscriberBuffer = 16

// Hub fans Redis pub/sub frames out to locally connected SSE subscribers.
// Every API instance runs one hub, so a seller connected anywhere receives
// events published from any instance.
type Hub struct {
	redis *redisclient.Client
	logg  *logger.Logger

	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{} // seller id -> subscriber channels
}

// NewHub constructs the fan-out hub.
func NewHub(redis *redisclient.Client, logg *logger.Logger) (*Hub, error) {
	if redis == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Hub{
		redis: redis,
		logg:  logg,
		subs:  map[string]map[chan []byte]struct{}{},
	}, nil
}

// Run consumes the seller channel pattern until ctx is canceled. Intended
// to run in its own goroutine for the life of the process.
func (h *Hub) Run(ctx context.Context) {
	pubsub := h.redis.PSubscribe(ctx, redisclient.SellerChannelPattern())
	defer func() {
		if err := pubsub.Close(); err != nil {
			h.logg.Warn(ctx, fmt.Sprintf("realtime: closing pubsub: %v", err))
		}
	}()

	h.logg.Info(ctx, "realtime hub subscribed to seller channels")

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			h.dispatch(msg)
		}
	}
}

// Subscribe registers a local consumer for the seller's events. The
// returned cancel func must be called when the consumer disconnects.
func (h *Hub) Subscribe(sellerID string) (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBuffer)

	h.mu.Lock()
	if h.subs[sellerID] == nil {
		h.subs[sellerID] = map[chan []byte]struct{}{}
	}
	h.subs[sellerID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[sellerID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, sellerID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *Hub) dispatch(msg *goredis.Message) {
	sellerID, ok := sellerIDFromChannel(msg.Channel)
	if !ok {
		return
	}
	h.deliver(sellerID, []byte(msg.Payload))
}

func (h *Hub) deliver(sellerID string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[sellerID] {
		select {
		case ch <- frame:
		default:
			// Subscriber is not draining; the event is lost for them.
		}
	}
}

func sellerIDFromChannel(channel string) (string, bool) {
	prefix := redisclient.SellerChannel("")
	if !strings.HasPrefix(channel, prefix) {
		return "", false
	}
	id := channel[len(prefix):]
	if id == "" {
		return "", false
	}
	return id, true
}
