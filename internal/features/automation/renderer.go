package automation

import (
	"fmt"
	"strings"

	"go-opsdesk/internal/events"
)

// RenderTemplate substitutes the fixed placeholder vocabulary into s using the
// event payload. Substitution is literal string replacement per known token;
// unmatched placeholders stay verbatim in the output.
func RenderTemplate(s string, payload events.Payload, portalBaseURL string) string {
	if s == "" {
		return s
	}

	if payload.Contact != nil {
		s = strings.ReplaceAll(s, "{{firstName}}", payload.Contact.FirstName)
		s = strings.ReplaceAll(s, "{{lastName}}", payload.Contact.LastName)
	}
	if payload.Booking != nil {
		s = strings.ReplaceAll(s, "{{serviceType}}", payload.Booking.ServiceType)
		s = strings.ReplaceAll(s, "{{dateTime}}", payload.Booking.StartTime.Format("Monday, January 2, 2006 at 3:04 PM"))
	}
	if !payload.WorkspaceID.IsZero() && portalBaseURL != "" {
		workspaceHex := payload.WorkspaceID.Hex()
		s = strings.ReplaceAll(s, "{{portalLink}}", fmt.Sprintf("%s/portal/%s", portalBaseURL, workspaceHex))
		s = strings.ReplaceAll(s, "{{workspaceLink}}", fmt.Sprintf("%s/workspace/%s", portalBaseURL, workspaceHex))
	}

	return s
}
