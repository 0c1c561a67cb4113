// Package eventbus реализует внутрипроцессную шину доменных событий для наблюдателей в реальном времени.
package eventbus

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxSubscribers — потолок одновременных подписчиков по умолчанию.
const DefaultMaxSubscribers = 500

var (
	// ErrTooManySubscribers возвращается, когда достигнут потолок подписчиков.
	ErrTooManySubscribers = errors.New("too many event subscribers")
	// ErrClosed возвращается при подписке на закрытую шину.
	ErrClosed = errors.New("event bus closed")
)

// Event — доменное событие с серверной отметкой времени. Не сохраняется.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler получает события синхронно в горутине публикующего.
type Handler func(Event)

// Bus раздаёт события всем подписчикам, зарегистрированным на момент публикации.
// Буферизации и повторной доставки нет.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[uint64]Handler
	nextID      uint64
	limit       int
	closed      bool

	logger *zap.Logger
	now    func() time.Time
}

// New создаёт шину с потолком limit подписчиков; limit <= 0 означает DefaultMaxSubscribers.
func New(limit int, logger *zap.Logger) *Bus {
	if limit <= 0 {
		limit = DefaultMaxSubscribers
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Bus{
		subscribers: make(map[uint64]Handler),
		limit:       limit,
		logger:      logger,
		now:         time.Now,
	}
}

// Publish ставит отметку времени и вызывает каждого текущего подписчика.
// Паника в подписчике логируется и не мешает остальным.
func (b *Bus) Publish(eventType string, payload any) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	handlers := make([]Handler, 0, len(b.subscribers))
	for _, h := range b.subscribers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	evt := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Payload:   payload,
		Timestamp: b.now().UTC(),
	}

	for _, h := range handlers {
		b.deliver(h, evt)
	}
}

func (b *Bus) deliver(h Handler, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event subscriber panicked",
				zap.String("event", evt.Type),
				zap.Any("panic", r),
			)
		}
	}()
	h(evt)
}

// Subscribe регистрирует обработчик и возвращает функцию отписки.
// Отписка идемпотентна. События, опубликованные до подписки, не доставляются.
func (b *Bus) Subscribe(h Handler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}
	if len(b.subscribers) >= b.limit {
		return nil, ErrTooManySubscribers
	}

	id := b.nextID
	b.nextID++
	b.subscribers[id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, id)
			b.mu.Unlock()
		})
	}, nil
}

// Len возвращает число текущих подписчиков.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close отписывает всех; последующие публикации игнорируются.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.subscribers = make(map[uint64]Handler)
}
