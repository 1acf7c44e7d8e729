package kalshi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/kalshi15m/internal/domain"
)

// Submitter places live orders through the REST client. A 4xx order-level
// response becomes a Rejected outcome; auth, rate-limit, and transport
// failures are returned as errors and abort the run.
type Submitter struct {
	client *Client
	logger *slog.Logger
}

// NewSubmitter creates a live order submitter.
func NewSubmitter(client *Client, logger *slog.Logger) *Submitter {
	return &Submitter{
		client: client,
		logger: logger.With(slog.String("component", "kalshi.submitter")),
	}
}

// SubmitOrder implements the engine order submitter contract.
func (s *Submitter) SubmitOrder(ctx context.Context, intent domain.OrderIntent) (domain.OrderOutcome, error) {
	req := CreateOrderRequest{
		Ticker:        intent.Ticker,
		Side:          string(intent.Side),
		Action:        "buy",
		Type:          "limit",
		Count:         intent.Count,
		TimeInForce:   string(intent.TIF),
		ClientOrderID: intent.ID,
	}
	price := intent.LimitPrice.StringFixed(4)
	if intent.Side == domain.SideYes {
		req.YesPriceDollars = price
	} else {
		req.NoPriceDollars = price
	}

	resp, err := s.client.CreateOrder(ctx, req)
	if err != nil {
		if msg, rejected := rejectionMessage(err); rejected {
			s.logger.Warn("order rejected",
				slog.String("ticker", intent.Ticker),
				slog.String("side", string(intent.Side)),
				slog.String("reason", msg))
			return domain.OrderOutcome{
				Intent:  intent,
				Status:  domain.OutcomeRejected,
				Message: msg,
			}, nil
		}
		return domain.OrderOutcome{}, err
	}

	// A fill-or-kill order the book could not fill comes back canceled.
	if resp.Order != nil && resp.Order.Status == "canceled" {
		s.logger.Warn("order immediately canceled",
			slog.String("ticker", intent.Ticker),
			slog.String("side", string(intent.Side)),
			slog.String("order_id", resp.ID()))
		return domain.OrderOutcome{
			Intent:  intent,
			Status:  domain.OutcomeRejected,
			OrderID: resp.ID(),
			Message: "order immediately canceled",
		}, nil
	}

	s.logger.Info("order placed",
		slog.String("ticker", intent.Ticker),
		slog.String("side", string(intent.Side)),
		slog.String("price", price),
		slog.String("order_id", resp.ID()))

	return domain.OrderOutcome{
		Intent:  intent,
		Status:  domain.OutcomeFilled,
		OrderID: resp.ID(),
	}, nil
}

// rejectionMessage reports whether err is an order-level rejection rather
// than an infrastructure failure. Auth, rate-limit, and 5xx responses carry
// a domain sentinel and are never rejections.
func rejectionMessage(err error) (string, bool) {
	if errors.Is(err, domain.ErrTransport) ||
		errors.Is(err, domain.ErrUnauthorized) ||
		errors.Is(err, domain.ErrRateLimited) {
		return "", false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		if apiErr.Code != "" {
			msg = fmt.Sprintf("%s (%s)", msg, apiErr.Code)
		}
		return msg, true
	}
	return "", false
}
