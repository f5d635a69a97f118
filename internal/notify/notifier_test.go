package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"divvy/internal/core"
)

func TestComposeCreditor(t *testing.T) {
	msg := Compose(
		core.Participant{Name: "Carol", Balance: 30},
		[]core.Transfer{
			{From: "Alice", To: "Carol", Amount: 20},
			{From: "Bob", To: "Carol", Amount: 10},
			{From: "Alice", To: "Dave", Amount: 5}, // unrelated
		},
		"March 2026",
	)

	for _, want := range []string{
		"Hi Carol!",
		"March 2026",
		"You get back $30.00.",
		"• Alice owes you $20.00",
		"• Bob owes you $10.00",
		"Reply CONFIRM to acknowledge.",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "Dave") {
		t.Fatalf("message leaked unrelated transfer:\n%s", msg)
	}
}

func TestComposeDebtor(t *testing.T) {
	msg := Compose(
		core.Participant{Name: "Alice", Balance: -25},
		[]core.Transfer{{From: "Alice", To: "Carol", Amount: 25}},
		"March 2026",
	)

	if !strings.Contains(msg, "You owe $25.00.") {
		t.Fatalf("missing debt line:\n%s", msg)
	}
	if !strings.Contains(msg, "• Pay $25.00 to Carol") {
		t.Fatalf("missing payment instruction:\n%s", msg)
	}
}

func TestComposeSettled(t *testing.T) {
	// Balances within the tolerance read as settled.
	msg := Compose(core.Participant{Name: "Bob", Balance: 0.01}, nil, "March 2026")
	if !strings.Contains(msg, "all settled up") {
		t.Fatalf("expected settled message:\n%s", msg)
	}
}

func TestNotifySkipsWithoutCredentials(t *testing.T) {
	n := NewTwilioNotifier("", "", "whatsapp:+14155238886")
	ok := n.Notify(context.Background(), core.Participant{Name: "Alice", Phone: "5551234567"}, nil, "March 2026")
	if ok {
		t.Fatal("expected false without credentials")
	}
}

func TestNotifySkipsWithoutPhone(t *testing.T) {
	n := NewTwilioNotifier("AC123", "token", "whatsapp:+14155238886")
	if n.Notify(context.Background(), core.Participant{Name: "Alice"}, nil, "March 2026") {
		t.Fatal("expected false without phone number")
	}
}

func TestNotifyDelivers(t *testing.T) {
	var gotPath, gotTo, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if user, pass, ok := r.BasicAuth(); !ok || user != "AC123" || pass != "token" {
			t.Errorf("bad auth %q/%q", user, pass)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotTo = r.Form.Get("To")
		gotBody = r.Form.Get("Body")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	n := NewTwilioNotifier("AC123", "token", "whatsapp:+14155238886").WithBaseURL(srv.URL)
	ok := n.Notify(context.Background(),
		core.Participant{Name: "Alice", Phone: "5551234567", Balance: -10},
		[]core.Transfer{{From: "Alice", To: "Bob", Amount: 10}},
		"March 2026")

	if !ok {
		t.Fatal("expected delivery to succeed")
	}
	if gotPath != "/2010-04-01/Accounts/AC123/Messages.json" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotTo != "whatsapp:+15551234567" {
		t.Fatalf("To = %q", gotTo)
	}
	if !strings.Contains(gotBody, "You owe $10.00.") {
		t.Fatalf("body = %q", gotBody)
	}
}

func TestNotifyAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid number"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewTwilioNotifier("AC123", "token", "whatsapp:+14155238886").WithBaseURL(srv.URL)
	if n.Notify(context.Background(), core.Participant{Name: "Alice", Phone: "5551234567"}, nil, "March 2026") {
		t.Fatal("expected false on API error")
	}
}
