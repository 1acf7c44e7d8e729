// Package kalshi provides the REST and WebSocket clients for the Kalshi
// exchange API, plus the order submitters used by the run engine.
package kalshi

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/kalshi15m/internal/domain"
)

// APIError is a non-2xx response from the Kalshi API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("kalshi: HTTP %d: %s (%s)", e.StatusCode, e.Message, e.Code)
}

// Client is the REST client for the Kalshi exchange API.
type Client struct {
	baseURL    string
	apiPrefix  string
	apiKeyID   string
	privateKey *rsa.PrivateKey
	httpClient *http.Client
}

// NewClient creates a new Kalshi REST client.
//
// baseURL is the exchange host, e.g. "https://api.elections.kalshi.com";
// apiPrefix is the versioned path prefix, e.g. "/trade-api/v2". The two are
// kept separate because the request signature covers the prefixed path.
func NewClient(baseURL, apiPrefix, apiKeyID string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiPrefix: apiPrefix,
		apiKeyID:  apiKeyID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetRSAPrivateKey loads an RSA private key from PEM-encoded bytes and
// configures the client for signed authentication. The input is normalized
// first so keys mangled by env-var transport (escaped newlines, stripped
// line breaks) still parse.
func (c *Client) SetRSAPrivateKey(pemBytes []byte) error {
	block, _ := pem.Decode([]byte(NormalizePEM(string(pemBytes))))
	if block == nil {
		return fmt.Errorf("kalshi: no PEM block found in private key")
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		// Try PKCS1 as fallback.
		pkcs1Key, pkcs1Err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if pkcs1Err != nil {
			return fmt.Errorf("kalshi: parse private key: %w (pkcs1: %v)", err, pkcs1Err)
		}
		c.privateKey = pkcs1Key
		return nil
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return fmt.Errorf("kalshi: expected RSA private key, got %T", key)
	}
	c.privateKey = rsaKey
	return nil
}

// MarketPage is one page of a cursor-paginated market listing.
type MarketPage struct {
	Markets []Market
	Cursor  string
}

// GetMarkets returns one page of open markets. An empty seriesTicker lists
// all markets; pass the returned cursor to fetch the next page, empty cursor
// means the listing is exhausted.
func (c *Client) GetMarkets(ctx context.Context, seriesTicker, cursor string) (MarketPage, error) {
	params := url.Values{}
	params.Set("status", "open")
	params.Set("limit", "1000")
	if seriesTicker != "" {
		params.Set("series_ticker", seriesTicker)
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	body, err := c.doSignedRequest(ctx, http.MethodGet, "/markets", params, nil)
	if err != nil {
		return MarketPage{}, fmt.Errorf("kalshi: get markets: %w", err)
	}

	var resp struct {
		Markets    []Market `json:"markets"`
		Cursor     string   `json:"cursor"`
		NextCursor string   `json:"next_cursor"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return MarketPage{}, fmt.Errorf("kalshi: decode markets: %w", err)
	}

	return MarketPage{Markets: resp.Markets, Cursor: firstNonEmpty(resp.Cursor, resp.NextCursor)}, nil
}

// EventPage is one page of a cursor-paginated event listing.
type EventPage struct {
	Events []Event
	Cursor string
}

// GetEvents returns one page of open events with their nested markets.
// seriesTicker narrows the listing when non-empty; minCloseTS (unix seconds,
// 0 disables) excludes events closing before it.
func (c *Client) GetEvents(ctx context.Context, seriesTicker string, minCloseTS int64, limit int, cursor string) (EventPage, error) {
	params := url.Values{}
	params.Set("status", "open")
	params.Set("with_nested_markets", "true")
	params.Set("limit", strconv.Itoa(limit))
	if seriesTicker != "" {
		params.Set("series_ticker", seriesTicker)
	}
	if minCloseTS > 0 {
		params.Set("min_close_ts", strconv.FormatInt(minCloseTS, 10))
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	body, err := c.doSignedRequest(ctx, http.MethodGet, "/events", params, nil)
	if err != nil {
		return EventPage{}, fmt.Errorf("kalshi: get events: %w", err)
	}

	var resp struct {
		Events     []Event `json:"events"`
		Cursor     string  `json:"cursor"`
		NextCursor string  `json:"next_cursor"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return EventPage{}, fmt.Errorf("kalshi: decode events: %w", err)
	}

	return EventPage{Events: resp.Events, Cursor: firstNonEmpty(resp.Cursor, resp.NextCursor)}, nil
}

// SeriesPage is one page of a cursor-paginated series listing.
type SeriesPage struct {
	Series []Series
	Cursor string
}

// GetSeries returns one page of market series for a category.
func (c *Client) GetSeries(ctx context.Context, category, cursor string) (SeriesPage, error) {
	params := url.Values{}
	params.Set("limit", "1000")
	if category != "" {
		params.Set("category", category)
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	body, err := c.doSignedRequest(ctx, http.MethodGet, "/series", params, nil)
	if err != nil {
		return SeriesPage{}, fmt.Errorf("kalshi: get series: %w", err)
	}

	// The payload key has shifted between API revisions.
	var resp struct {
		Series       []Series `json:"series"`
		MarketSeries []Series `json:"market_series"`
		Cursor       string   `json:"cursor"`
		NextCursor   string   `json:"next_cursor"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return SeriesPage{}, fmt.Errorf("kalshi: decode series: %w", err)
	}

	series := resp.Series
	if len(series) == 0 {
		series = resp.MarketSeries
	}
	return SeriesPage{Series: series, Cursor: firstNonEmpty(resp.Cursor, resp.NextCursor)}, nil
}

// GetExchangeStatus reports whether the exchange currently accepts trading.
func (c *Client) GetExchangeStatus(ctx context.Context) (ExchangeStatus, error) {
	body, err := c.doSignedRequest(ctx, http.MethodGet, "/exchange/status", nil, nil)
	if err != nil {
		return ExchangeStatus{}, fmt.Errorf("kalshi: exchange status: %w", err)
	}

	var status ExchangeStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return ExchangeStatus{}, fmt.Errorf("kalshi: decode exchange status: %w", err)
	}
	return status, nil
}

// CreateOrder submits a new order. Order-level rejections come back as an
// *APIError with a 4xx status; callers distinguish them from transport
// failures via errors.As.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (CreateOrderResponse, error) {
	body, err := c.doSignedRequest(ctx, http.MethodPost, "/portfolio/orders", nil, req)
	if err != nil {
		return CreateOrderResponse{}, fmt.Errorf("kalshi: create order: %w", err)
	}

	var resp CreateOrderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return CreateOrderResponse{}, fmt.Errorf("kalshi: decode order response: %w", err)
	}
	if resp.ID() == "" {
		return CreateOrderResponse{}, fmt.Errorf("kalshi: missing order_id in response")
	}
	return resp, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doSignedRequest builds, signs, sends, and reads an HTTP request against
// the Kalshi API. Network failures wrap domain.ErrTransport.
func (c *Client) doSignedRequest(ctx context.Context, method, path string, params url.Values, reqBody any) ([]byte, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonBody, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	fullPath := c.apiPrefix + path
	fullURL := c.baseURL + fullPath
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	// The signature covers the prefixed path without the query string.
	if err := c.signRequest(req, method, fullPath); err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %v: %w", err, domain.ErrTransport)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %v: %w", err, domain.ErrTransport)
	}

	if err := c.checkStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return respBody, nil
}

// signRequest adds RSA authentication headers. Kalshi uses a RSA-PSS-SHA256
// signature over the timestamp + method + path message string. Without a
// configured key the request goes out unauthenticated; market data endpoints
// are public, order submission is not.
func (c *Client) signRequest(req *http.Request, method, path string) error {
	if c.privateKey == nil {
		return nil
	}

	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	message := ts + method + path

	hash := sha256.Sum256([]byte(message))
	signature, err := rsa.SignPSS(rand.Reader, c.privateKey, crypto.SHA256, hash[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
	if err != nil {
		return fmt.Errorf("RSA sign: %w", err)
	}

	req.Header.Set("KALSHI-ACCESS-KEY", c.apiKeyID)
	req.Header.Set("KALSHI-ACCESS-SIGNATURE", base64.StdEncoding.EncodeToString(signature))
	req.Header.Set("KALSHI-ACCESS-TIMESTAMP", ts)

	return nil
}

// checkStatus maps non-2xx HTTP status codes: infrastructure-level failures
// (auth, rate limit, 5xx) wrap domain sentinels, everything else surfaces as
// a bare *APIError for the caller to interpret.
func (c *Client) checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr ErrorResponse
	_ = json.Unmarshal(body, &apiErr)
	err := &APIError{StatusCode: statusCode, Code: apiErr.Code, Message: apiErr.Message}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return fmt.Errorf("%v: %w", err, domain.ErrUnauthorized)
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%v: %w", err, domain.ErrRateLimited)
	case statusCode == http.StatusNotFound:
		return fmt.Errorf("%v: %w", err, domain.ErrNotFound)
	case statusCode >= 500:
		return fmt.Errorf("%v: %w", err, domain.ErrTransport)
	default:
		return err
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
