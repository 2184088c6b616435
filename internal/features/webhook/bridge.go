package webhook

import (
	"context"

	"go-opsdesk/internal/events"
)

// busEventMap maps internal automation triggers onto the outbound webhook
// event vocabulary. Triggers without an external counterpart (reminders,
// critical-stock escalations) stay internal.
var busEventMap = map[string]string{
	"contact_created":   EventContactCreated,
	"booking_created":   EventBookingCreated,
	"booking_confirmed": EventBookingUpdated,
	"booking_completed": EventBookingUpdated,
	"inventory_low":     EventInventoryLow,
	"staff_reply":       EventMessageReceived,
}

// Bridge forwards bus events to the webhook fan-out so route handlers only
// publish once.
type Bridge struct {
	service WebhookService
}

func NewBridge(service WebhookService) *Bridge {
	return &Bridge{service: service}
}

func (b *Bridge) Subscribe(bus *events.Bus) {
	for trigger, event := range busEventMap {
		event := event
		bus.Subscribe(trigger, func(ctx context.Context, evt events.Event) error {
			b.service.Trigger(ctx, evt.Payload.WorkspaceID, event, b.payload(evt))
			return nil
		})
	}
}

// payload flattens the event context into the JSON body subscribers receive.
func (b *Bridge) payload(evt events.Event) map[string]interface{} {
	out := map[string]interface{}{
		"workspace_id": evt.Payload.WorkspaceID.Hex(),
	}
	if evt.Payload.Contact != nil {
		out["contact"] = evt.Payload.Contact
	}
	if evt.Payload.Booking != nil {
		out["booking"] = evt.Payload.Booking
	}
	if evt.Payload.Conversation != nil {
		out["conversation"] = evt.Payload.Conversation
	}
	if evt.Payload.Submission != nil {
		out["submission"] = evt.Payload.Submission
	}
	for k, v := range evt.Payload.Extra {
		out[k] = v
	}
	return out
}
