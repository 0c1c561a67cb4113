package notify

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/agrosurplus/internal/eventbus"
)

const (
	// DefaultQueueSize — ёмкость очереди событий, ожидающих отправки.
	DefaultQueueSize = 256

	maxAttempts    = 3
	defaultBackoff = time.Second
)

type sender interface {
	Send(ctx context.Context, e eventbus.Event) (int, time.Duration, error)
}

// Forwarder принимает события из шины и отправляет их в webhook в фоне.
// Публикация не блокируется: при заполненной очереди событие отбрасывается.
type Forwarder struct {
	client  sender
	queue   chan eventbus.Event
	logger  *zap.Logger
	backoff time.Duration
}

// NewForwarder создаёт пересыльщик с очередью на size событий.
func NewForwarder(client *Client, size int, logger *zap.Logger) *Forwarder {
	if size <= 0 {
		size = DefaultQueueSize
	}

	return &Forwarder{
		client:  client,
		queue:   make(chan eventbus.Event, size),
		logger:  logger,
		backoff: defaultBackoff,
	}
}

// Handle ставит событие в очередь. Подходит как обработчик eventbus.Bus.Subscribe.
func (f *Forwarder) Handle(e eventbus.Event) {
	select {
	case f.queue <- e:
	default:
		f.logger.Warn("webhook queue is full, event dropped",
			zap.String("event", e.Type),
			zap.String("id", e.ID),
		)
	}
}

// Run отправляет события из очереди, пока не отменён ctx.
func (f *Forwarder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-f.queue:
			f.deliver(ctx, e)
		}
	}
}

func (f *Forwarder) deliver(ctx context.Context, e eventbus.Event) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		code, retryAfter, err := f.client.Send(ctx, e)
		if err == nil && code != http.StatusTooManyRequests {
			return
		}

		if err != nil {
			f.logger.Warn("webhook delivery failed",
				zap.String("event", e.Type),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}

		if attempt == maxAttempts {
			break
		}

		wait := f.backoff * time.Duration(attempt)
		if retryAfter > 0 {
			wait = retryAfter
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}

	f.logger.Error("webhook event dropped after retries",
		zap.String("event", e.Type),
		zap.String("id", e.ID),
	)
}
