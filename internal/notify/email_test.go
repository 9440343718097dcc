package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ladislavh/terminwatch/internal/slot"
)

func TestNewEmailSenderRequiresCredentials(t *testing.T) {
	t.Parallel()
	if s := NewEmailSender("", "", "secret", "noreply@example.sk", "Watcher", nil); s != nil {
		t.Error("sender without API key should be nil")
	}
	if s := NewEmailSender("", "key", "", "noreply@example.sk", "Watcher", nil); s != nil {
		t.Error("sender without secret key should be nil")
	}
	if s := NewEmailSender("", "key", "secret", "", "Watcher", nil); s != nil {
		t.Error("sender without sender address should be nil")
	}
}

func TestEmailSendPostsMessage(t *testing.T) {
	t.Parallel()

	var (
		gotMethod string
		gotBody   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Messages":[{"Status":"success"}]}`))
	}))
	defer srv.Close()

	sender := NewEmailSender(srv.URL+"/v3", "key", "secret", "noreply@example.sk", "Watcher", nil)
	if sender == nil {
		t.Fatal("sender = nil with full credentials")
	}

	slots := []slot.Slot{{Date: "2025-12-30", Time: "09:00"}}
	err := sender.Send(context.Background(), "jana@example.sk",
		"MUDr. Jana Nováková", "https://www.navstevalekara.sk/lekari/x-d15313.html", slots)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method = %q, want POST", gotMethod)
	}
	for _, want := range []string{
		`"jana@example.sk"`,
		`"noreply@example.sk"`,
		"1 nový termín u MUDr. Jana Nováková",
		"2025-12-30",
	} {
		if !strings.Contains(gotBody, want) {
			t.Errorf("request body missing %q", want)
		}
	}
}

func TestEmailSendServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sender := NewEmailSender(srv.URL+"/v3", "key", "secret", "noreply@example.sk", "Watcher", nil)
	slots := []slot.Slot{{Date: "2025-12-30", Time: "09:00"}}
	err := sender.Send(context.Background(), "jana@example.sk",
		"MUDr. Jana Nováková", "https://example.sk", slots)
	if err == nil {
		t.Fatal("Send error = nil, want error on 500")
	}
}
