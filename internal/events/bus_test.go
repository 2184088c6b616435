package events

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestPublishInvokesHandlersInRegistrationOrder(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var order []string
	bus.Subscribe("booking_created", func(ctx context.Context, evt Event) error {
		order = append(order, "first")
		return nil
	})
	bus.Subscribe("booking_created", func(ctx context.Context, evt Event) error {
		order = append(order, "second")
		return nil
	})

	bus.Publish(context.Background(), Event{Trigger: "booking_created"})

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("handlers ran out of order: %v", order)
	}
}

func TestPublishIsolatesFailingHandlers(t *testing.T) {
	bus := NewBus(zap.NewNop())

	ran := false
	bus.Subscribe("contact_created", func(ctx context.Context, evt Event) error {
		return errors.New("boom")
	})
	bus.Subscribe("contact_created", func(ctx context.Context, evt Event) error {
		panic("worse")
	})
	bus.Subscribe("contact_created", func(ctx context.Context, evt Event) error {
		ran = true
		return nil
	})

	bus.Publish(context.Background(), Event{Trigger: "contact_created"})

	if !ran {
		t.Error("handler after a failing sibling did not run")
	}
}

func TestPublishWithNoSubscribersIsANoOp(t *testing.T) {
	bus := NewBus(zap.NewNop())
	bus.Publish(context.Background(), Event{Trigger: "inventory_low"})
}
