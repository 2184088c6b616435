package events

import (
	"context"
	"fmt"
	"sync"

	"go-opsdesk/internal/features/booking"
	"go-opsdesk/internal/features/contact"
	"go-opsdesk/internal/features/conversation"
	"go-opsdesk/internal/features/form"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Payload is the context bag an event carries. Only the fields relevant to the
// trigger are populated; everything else stays nil.
type Payload struct {
	WorkspaceID  primitive.ObjectID
	Contact      *contact.Contact
	Booking      *booking.Booking
	Conversation *conversation.Conversation
	Submission   *form.Submission
	Extra        map[string]interface{}
}

// Event pairs a trigger name with its payload. Events are ephemeral: consumed
// once by each subscribed handler, never persisted or replayed.
type Event struct {
	Trigger string
	Payload Payload
}

type Handler func(ctx context.Context, evt Event) error

// Bus is the process-wide publish/subscribe primitive between domain
// operations and the automation dispatcher. Handlers run synchronously in
// registration order; a handler's failure never interrupts its siblings or
// the publisher. If nothing is subscribed at publish time the event is lost.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *zap.Logger
}

func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for a trigger. Subscriptions are expected to
// happen once at startup and live for the process lifetime.
func (b *Bus) Subscribe(trigger string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[trigger] = append(b.handlers[trigger], h)
}

// Publish invokes every handler registered for the event's trigger, in
// registration order. Handler errors and panics are logged and swallowed.
func (b *Bus) Publish(ctx context.Context, evt Event) {
	b.mu.RLock()
	handlers := b.handlers[evt.Trigger]
	b.mu.RUnlock()

	for i, h := range handlers {
		if err := b.invoke(ctx, h, evt); err != nil {
			b.logger.Error("event handler failed",
				zap.String("trigger", evt.Trigger),
				zap.Int("handler", i),
				zap.Error(err),
			)
		}
	}
}

// Emit is the fire-and-forget variant exposed to route handlers: the caller
// never awaits dispatch. The event is detached from the request context so a
// finished request cannot cancel in-flight automation.
func (b *Bus) Emit(evt Event) {
	go b.Publish(context.Background(), evt)
}

func (b *Bus) invoke(ctx context.Context, h Handler, evt Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, evt)
}
