// Package notify composes and delivers per-participant settlement messages
// over WhatsApp. Delivery is best-effort: a missing phone number or missing
// credentials is a silent no-op, never a failure of the expense flow.
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"divvy/internal/core"
)

// Result reports the delivery outcome for one participant.
type Result struct {
	Name    string `json:"name"`
	Success bool   `json:"success"`
}

// Notifier delivers a settlement message to one participant.
type Notifier interface {
	// Notify returns true only when the message was handed off to the
	// delivery channel. All failure modes return false.
	Notify(ctx context.Context, p core.Participant, transfers []core.Transfer, month string) bool
}

const twilioAPIBase = "https://api.twilio.com"

// TwilioNotifier sends WhatsApp messages through the Twilio Messages API.
type TwilioNotifier struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	client     *http.Client
}

// NewTwilioNotifier builds a notifier. Empty credentials are allowed and
// turn every Notify call into a logged no-op.
func NewTwilioNotifier(accountSID, authToken, from string) *TwilioNotifier {
	return &TwilioNotifier{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    twilioAPIBase,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL points the notifier at a different API endpoint. Used in tests.
func (n *TwilioNotifier) WithBaseURL(base string) *TwilioNotifier {
	n.baseURL = strings.TrimRight(base, "/")
	return n
}

func (n *TwilioNotifier) Notify(ctx context.Context, p core.Participant, transfers []core.Transfer, month string) bool {
	if n.accountSID == "" || n.authToken == "" {
		slog.DebugContext(ctx, "Twilio credentials not configured, skipping notification",
			"recipient", p.Name)
		return false
	}
	if p.Phone == "" {
		slog.DebugContext(ctx, "No phone number, skipping notification",
			"recipient", p.Name)
		return false
	}

	body := Compose(p, transfers, month)

	form := url.Values{}
	form.Set("From", n.from)
	form.Set("To", core.WhatsAppAddress(p.Phone))
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", n.baseURL, n.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		slog.ErrorContext(ctx, "Failed to build notification request",
			"recipient", p.Name, "error", err)
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(n.accountSID, n.authToken)

	resp, err := n.client.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "Notification delivery failed",
			"recipient", p.Name, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.ErrorContext(ctx, "Notification rejected by API",
			"recipient", p.Name,
			"status_code", resp.StatusCode,
			"response", string(payload))
		return false
	}

	slog.InfoContext(ctx, "Notification sent", "recipient", p.Name, "success", true)
	return true
}

// Compose builds the settlement message for one participant. Creditors see
// who owes them, debtors see who to pay, settled participants get a short
// confirmation.
func Compose(p core.Participant, transfers []core.Transfer, month string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s! Your expense split for %s is ready.\n\n", p.Name, month)

	switch {
	case p.Balance > core.Epsilon:
		fmt.Fprintf(&b, "You get back %s.\n\nSettlement details:\n", core.FormatAmount(p.Balance))
		for _, t := range transfers {
			if t.To == p.Name {
				fmt.Fprintf(&b, "• %s owes you %s\n", t.From, core.FormatAmount(t.Amount))
			}
		}
	case p.Balance < -core.Epsilon:
		fmt.Fprintf(&b, "You owe %s.\n\nSettlement details:\n", core.FormatAmount(p.Balance))
		for _, t := range transfers {
			if t.From == p.Name {
				fmt.Fprintf(&b, "• Pay %s to %s\n", core.FormatAmount(t.Amount), t.To)
			}
		}
	default:
		b.WriteString("You're all settled up! No payments needed.\n")
	}

	b.WriteString("\nReply CONFIRM to acknowledge.")
	return b.String()
}
