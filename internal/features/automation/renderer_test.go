package automation

import (
	"strings"
	"testing"
	"time"

	"go-opsdesk/internal/events"
	"go-opsdesk/internal/features/booking"
	"go-opsdesk/internal/features/contact"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRenderTemplateContactTokens(t *testing.T) {
	payload := events.Payload{
		Contact: &contact.Contact{FirstName: "Ada", LastName: "Lovelace"},
	}

	got := RenderTemplate("Hi {{firstName}} {{lastName}}!", payload, "")
	want := "Hi Ada Lovelace!"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderTemplateBookingTokens(t *testing.T) {
	start := time.Date(2026, time.March, 9, 15, 30, 0, 0, time.UTC)
	payload := events.Payload{
		Booking: &booking.Booking{ServiceType: "Haircut", StartTime: start},
	}

	got := RenderTemplate("{{serviceType}} on {{dateTime}}", payload, "")
	if !strings.HasPrefix(got, "Haircut on Monday, March 9, 2026") {
		t.Errorf("unexpected rendering: %q", got)
	}
	if strings.Contains(got, "{{") {
		t.Errorf("unresolved tokens remain: %q", got)
	}
}

func TestRenderTemplateLinks(t *testing.T) {
	workspaceID := primitive.NewObjectID()
	payload := events.Payload{WorkspaceID: workspaceID}

	got := RenderTemplate("Visit {{portalLink}} or {{workspaceLink}}", payload, "https://app.example.com")
	if !strings.Contains(got, "https://app.example.com/portal/"+workspaceID.Hex()) {
		t.Errorf("portal link not rendered: %q", got)
	}
	if !strings.Contains(got, "https://app.example.com/workspace/"+workspaceID.Hex()) {
		t.Errorf("workspace link not rendered: %q", got)
	}
}

func TestRenderTemplateUnknownTokenPreserved(t *testing.T) {
	payload := events.Payload{
		Contact: &contact.Contact{FirstName: "Ada"},
	}

	got := RenderTemplate("Hi {{firstName}}, your code is {{bogus}}", payload, "")
	if !strings.Contains(got, "{{bogus}}") {
		t.Errorf("unknown token must stay verbatim, got %q", got)
	}
	if strings.Contains(got, "{{firstName}}") {
		t.Errorf("known token must be replaced, got %q", got)
	}
}

func TestRenderTemplateMissingContext(t *testing.T) {
	// No contact in the payload: contact tokens stay verbatim instead of
	// rendering empty strings.
	got := RenderTemplate("Hi {{firstName}}", events.Payload{}, "")
	if got != "Hi {{firstName}}" {
		t.Errorf("got %q, want token preserved", got)
	}
}

func TestRenderTemplateEmpty(t *testing.T) {
	if got := RenderTemplate("", events.Payload{}, "https://x"); got != "" {
		t.Errorf("empty template must render empty, got %q", got)
	}
}
