package kalshi

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/kalshi15m/internal/domain"
)

func testClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	c := NewClient(srv.URL, "/trade-api/v2", "test-key-id")
	if err := c.SetRSAPrivateKey(pemBytes); err != nil {
		t.Fatalf("SetRSAPrivateKey() error: %v", err)
	}
	return c
}

func TestSetRSAPrivateKeyPKCS1Fallback(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	c := NewClient("https://example.test", "/trade-api/v2", "k")
	if err := c.SetRSAPrivateKey(pemBytes); err != nil {
		t.Fatalf("SetRSAPrivateKey() rejected PKCS1 key: %v", err)
	}
}

func TestGetMarketsSignsAndPaginates(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, h := range []string{"KALSHI-ACCESS-KEY", "KALSHI-ACCESS-SIGNATURE", "KALSHI-ACCESS-TIMESTAMP"} {
			if r.Header.Get(h) == "" {
				t.Errorf("missing header %s", h)
			}
		}
		paths = append(paths, r.URL.Path)

		if r.URL.Query().Get("cursor") == "" {
			io.WriteString(w, `{"markets":[{"ticker":"KXBTC15M-A","title":"BTC up?","yes_ask_dollars":"0.4800"}],"cursor":"page2"}`)
			return
		}
		io.WriteString(w, `{"markets":[{"ticker":"KXBTC15M-B","title":"BTC down?"}],"cursor":""}`)
	}))
	defer srv.Close()

	c := testClient(t, srv)

	page, err := c.GetMarkets(context.Background(), "", "")
	if err != nil {
		t.Fatalf("GetMarkets() error: %v", err)
	}
	if len(page.Markets) != 1 || page.Markets[0].Ticker != "KXBTC15M-A" {
		t.Fatalf("unexpected first page: %+v", page)
	}
	if page.Cursor != "page2" {
		t.Fatalf("cursor = %q, want page2", page.Cursor)
	}

	page, err = c.GetMarkets(context.Background(), "", page.Cursor)
	if err != nil {
		t.Fatalf("GetMarkets(page2) error: %v", err)
	}
	if page.Cursor != "" {
		t.Fatalf("final cursor = %q, want empty", page.Cursor)
	}
	for _, p := range paths {
		if p != "/trade-api/v2/markets" {
			t.Fatalf("request path = %q, want /trade-api/v2/markets", p)
		}
	}
}

func TestGetSeriesAcceptsAlternatePayloadKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"market_series":[{"ticker":"KXBTC15M","frequency":"fifteen_min","category":"crypto"}]}`)
	}))
	defer srv.Close()

	page, err := testClient(t, srv).GetSeries(context.Background(), "crypto", "")
	if err != nil {
		t.Fatalf("GetSeries() error: %v", err)
	}
	if len(page.Series) != 1 || page.Series[0].Ticker != "KXBTC15M" {
		t.Fatalf("unexpected series page: %+v", page)
	}
}

func TestCheckStatusSentinels(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, domain.ErrUnauthorized},
		{"forbidden", http.StatusForbidden, domain.ErrUnauthorized},
		{"rate limited", http.StatusTooManyRequests, domain.ErrRateLimited},
		{"not found", http.StatusNotFound, domain.ErrNotFound},
		{"server error", http.StatusBadGateway, domain.ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, `{"code":"err","message":"nope"}`)
			}))
			defer srv.Close()

			_, err := testClient(t, srv).GetExchangeStatus(context.Background())
			if !errors.Is(err, tt.want) {
				t.Fatalf("error %v does not wrap %v", err, tt.want)
			}
		})
	}
}

func TestCheckStatusBadRequestIsBareAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"code":"insufficient_balance","message":"not enough funds"}`)
	}))
	defer srv.Close()

	_, err := testClient(t, srv).CreateOrder(context.Background(), CreateOrderRequest{Ticker: "T"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v is not an *APIError", err)
	}
	if apiErr.Code != "insufficient_balance" {
		t.Fatalf("code = %q", apiErr.Code)
	}
	if errors.Is(err, domain.ErrTransport) {
		t.Fatal("order-level 400 must not wrap ErrTransport")
	}
}

func testIntent(side domain.Side, price string) domain.OrderIntent {
	return domain.OrderIntent{
		ID:         uuid.New().String(),
		Ticker:     "KXBTC15M-26AUG3015-T64000",
		Side:       side,
		LimitPrice: decimal.RequireFromString(price),
		Count:      1,
		TIF:        domain.TIFFillOrKill,
	}
}

func TestSubmitterSendsSidePriceDollars(t *testing.T) {
	var got CreateOrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := decodeJSONBody(r, &got); err != nil {
			t.Errorf("decode order body: %v", err)
		}
		io.WriteString(w, `{"order":{"order_id":"ord-1","status":"executed"}}`)
	}))
	defer srv.Close()

	sub := NewSubmitter(testClient(t, srv), slog.New(slog.DiscardHandler))
	intent := testIntent(domain.SideNo, "0.49")
	outcome, err := sub.SubmitOrder(context.Background(), intent)
	if err != nil {
		t.Fatalf("SubmitOrder() error: %v", err)
	}

	if outcome.Status != domain.OutcomeFilled || outcome.OrderID != "ord-1" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if got.Action != "buy" || got.Type != "limit" || got.TimeInForce != "fill_or_kill" {
		t.Fatalf("unexpected order body: %+v", got)
	}
	if got.ClientOrderID != intent.ID {
		t.Fatalf("client_order_id = %q, want intent ID %q", got.ClientOrderID, intent.ID)
	}
	if got.NoPriceDollars != "0.4900" || got.YesPriceDollars != "" {
		t.Fatalf("price fields = yes %q / no %q, want no-side 0.4900 only", got.YesPriceDollars, got.NoPriceDollars)
	}
}

func TestSubmitterMapsRejectionToOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"code":"order_rejected","message":"self cross"}`)
	}))
	defer srv.Close()

	sub := NewSubmitter(testClient(t, srv), slog.New(slog.DiscardHandler))
	outcome, err := sub.SubmitOrder(context.Background(), testIntent(domain.SideYes, "0.96"))
	if err != nil {
		t.Fatalf("rejection must not be an error, got %v", err)
	}
	if outcome.Status != domain.OutcomeRejected {
		t.Fatalf("status = %s, want rejected", outcome.Status)
	}
	if outcome.Message == "" {
		t.Fatal("rejected outcome must carry the API message")
	}
}

func TestSubmitterImmediateCancelIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"order":{"order_id":"ord-2","status":"canceled"}}`)
	}))
	defer srv.Close()

	sub := NewSubmitter(testClient(t, srv), slog.New(slog.DiscardHandler))
	outcome, err := sub.SubmitOrder(context.Background(), testIntent(domain.SideYes, "0.96"))
	if err != nil {
		t.Fatalf("SubmitOrder() error: %v", err)
	}
	if outcome.Status != domain.OutcomeRejected {
		t.Fatalf("status = %s, want rejected for immediate cancel", outcome.Status)
	}
}

func TestSubmitterTransportFailureIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	sub := NewSubmitter(testClient(t, srv), slog.New(slog.DiscardHandler))
	_, err := sub.SubmitOrder(context.Background(), testIntent(domain.SideYes, "0.96"))
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("error %v does not wrap ErrTransport", err)
	}
}

func TestSimulatorIsDeterministic(t *testing.T) {
	sim := NewSimulator(slog.New(slog.DiscardHandler))
	intent := testIntent(domain.SideYes, "0.48")

	first, err := sim.SubmitOrder(context.Background(), intent)
	if err != nil {
		t.Fatalf("SubmitOrder() error: %v", err)
	}
	second, err := sim.SubmitOrder(context.Background(), intent)
	if err != nil {
		t.Fatalf("SubmitOrder() error: %v", err)
	}

	if first.Status != domain.OutcomeSimulatedFill {
		t.Fatalf("status = %s, want simulated fill", first.Status)
	}
	if first.OrderID != second.OrderID {
		t.Fatalf("simulator IDs diverge: %q vs %q", first.OrderID, second.OrderID)
	}
}

func decodeJSONBody(r *http.Request, v any) error {
	defer r.Body.Close()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
