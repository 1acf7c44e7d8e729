package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func capturePayload(t *testing.T, got *map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestSlackSenderSkipsDuplicateTitle(t *testing.T) {
	var got map[string]string
	srv := capturePayload(t, &got)
	defer srv.Close()

	s := NewSlackSender(srv.URL)
	digest := "*Kalshi 15m bot run* `DRY_RUN`\nOpportunities: 2"
	if err := s.Send(context.Background(), "Kalshi 15m bot run", digest); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if got["text"] != digest {
		t.Fatalf("text = %q, want the digest unchanged", got["text"])
	}
}

func TestSlackSenderPrependsBoldTitle(t *testing.T) {
	var got map[string]string
	srv := capturePayload(t, &got)
	defer srv.Close()

	s := NewSlackSender(srv.URL)
	if err := s.Send(context.Background(), "Kalshi 15m bot error", "connection refused"); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if got["text"] != "*Kalshi 15m bot error*\nconnection refused" {
		t.Fatalf("text = %q, want bold title on its own line", got["text"])
	}
}

func TestSlackSenderWithoutWebhookIsNoOp(t *testing.T) {
	s := NewSlackSender("")
	if err := s.Send(context.Background(), "t", "m"); err != nil {
		t.Fatalf("Send() without webhook must be a no-op, got %v", err)
	}
}

func TestDiscordSenderWidensBoldMarkers(t *testing.T) {
	var got map[string]string
	srv := capturePayload(t, &got)
	defer srv.Close()

	d := NewDiscordSender(srv.URL)
	digest := "*Kalshi 15m bot run* `LIVE`\n*Highlights*\n- *BTC up?* (T) — YES 0.48"
	if err := d.Send(context.Background(), "Kalshi 15m bot run", digest); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if !strings.Contains(got["content"], "**Kalshi 15m bot run**") ||
		!strings.Contains(got["content"], "**Highlights**") ||
		!strings.Contains(got["content"], "**BTC up?**") {
		t.Fatalf("content = %q, want single-asterisk bold widened to double", got["content"])
	}
	if strings.Contains(got["content"], "***") {
		t.Fatalf("content = %q, bold markers widened twice", got["content"])
	}
}
