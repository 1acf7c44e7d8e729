package kalshi

import (
	"encoding/json"
	"time"
)

// --------------------------------------------------------------------------
// Kalshi API DTOs
// --------------------------------------------------------------------------

// Market represents a market as returned by the Kalshi REST API. Dollar ask
// fields are decimal strings when present; the cent fields are the fallback
// on older payloads.
type Market struct {
	Ticker      string    `json:"ticker"`
	EventTicker string    `json:"event_ticker"`
	Title       string    `json:"title"`
	Subtitle    string    `json:"subtitle"`
	Status      string    `json:"status"` // "open", "closed", "settled"
	CloseTime   time.Time `json:"close_time"`
	OpenTime    time.Time `json:"open_time"`

	YesAskDollars string `json:"yes_ask_dollars"`
	NoAskDollars  string `json:"no_ask_dollars"`
	YesAsk        int64  `json:"yes_ask"` // cents
	NoAsk         int64  `json:"no_ask"`  // cents
	YesBid        int64  `json:"yes_bid"`
	NoBid         int64  `json:"no_bid"`

	Volume       int64 `json:"volume"`
	OpenInterest int64 `json:"open_interest"`
}

// Event is an event envelope; with_nested_markets=true populates Markets.
type Event struct {
	EventTicker string   `json:"event_ticker"`
	Title       string   `json:"title"`
	Subtitle    string   `json:"sub_title"`
	Category    string   `json:"category"`
	Markets     []Market `json:"markets"`
}

// Series describes a market series, e.g. the 15-minute BTC price series.
type Series struct {
	Ticker    string `json:"ticker"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	Frequency string `json:"frequency"`
}

// ExchangeStatus reports whether the exchange accepts orders right now.
type ExchangeStatus struct {
	ExchangeActive              bool       `json:"exchange_active"`
	TradingActive               bool       `json:"trading_active"`
	ExchangeEstimatedResumeTime *time.Time `json:"exchange_estimated_resume_time,omitempty"`
}

// Open reports whether both the exchange and trading are active.
func (s ExchangeStatus) Open() bool {
	return s.ExchangeActive && s.TradingActive
}

// CreateOrderRequest is the body for POST /portfolio/orders. Exactly one of
// YesPriceDollars/NoPriceDollars is set, as a 4-decimal string, matching the
// submitted side.
type CreateOrderRequest struct {
	Ticker          string `json:"ticker"`
	Side            string `json:"side"`   // "yes" or "no"
	Action          string `json:"action"` // always "buy"
	Type            string `json:"type"`   // always "limit"
	Count           int64  `json:"count"`
	TimeInForce     string `json:"time_in_force"`
	ClientOrderID   string `json:"client_order_id,omitempty"`
	YesPriceDollars string `json:"yes_price_dollars,omitempty"`
	NoPriceDollars  string `json:"no_price_dollars,omitempty"`
}

// CreateOrderResponse is the API response after placing an order. Some API
// versions nest the order, others return order_id at the top level.
type CreateOrderResponse struct {
	Order *struct {
		OrderID string `json:"order_id"`
		Status  string `json:"status"`
	} `json:"order"`
	OrderID string `json:"order_id"`
}

// ID returns the order ID wherever the payload put it.
func (r CreateOrderResponse) ID() string {
	if r.Order != nil && r.Order.OrderID != "" {
		return r.Order.OrderID
	}
	return r.OrderID
}

// ErrorResponse is a Kalshi API error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --------------------------------------------------------------------------
// Kalshi WebSocket DTOs
// --------------------------------------------------------------------------

// WSMessage is the envelope for Kalshi WebSocket messages.
type WSMessage struct {
	Type string          `json:"type"` // "ticker", "subscribed", "error", ...
	Msg  json.RawMessage `json:"msg"`
	SID  int64           `json:"sid"`
}

// TickerUpdate is a best-price update from the ticker channel. Prices are in
// cents.
type TickerUpdate struct {
	MarketTicker string `json:"market_ticker"`
	YesBid       int64  `json:"yes_bid"`
	YesAsk       int64  `json:"yes_ask"`
	NoBid        int64  `json:"no_bid"`
	Price        int64  `json:"price"`
	Timestamp    int64  `json:"ts"`
}

// NoAskCents derives the NO-side ask from the YES bid. In a binary market a
// resting YES bid at p cents is a NO offer at 100-p.
func (t TickerUpdate) NoAskCents() int64 {
	if t.YesBid <= 0 {
		return 0
	}
	return 100 - t.YesBid
}

// WSSubscribeCmd is the command sent to subscribe to WebSocket channels.
type WSSubscribeCmd struct {
	ID     int64             `json:"id"`
	Cmd    string            `json:"cmd"` // "subscribe" or "unsubscribe"
	Params WSSubscribeParams `json:"params"`
}

// WSSubscribeParams defines the subscription parameters.
type WSSubscribeParams struct {
	Channels []string `json:"channels"` // e.g. ["ticker"]
	Tickers  []string `json:"market_tickers"`
}
