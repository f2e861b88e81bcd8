package payout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/polkiloo/cashout/internal/domain/model"
	"github.com/polkiloo/cashout/internal/pkg/money"
)

// Notifier hands finalized withdrawals to the payout channel.
type Notifier interface {
	Notify(ctx context.Context, payout model.Withdrawal) error
}

// NopNotifier drops every notification.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, model.Withdrawal) error { return nil }

// WebhookNotifier posts finalized withdrawals to an HTTP endpoint.
type WebhookNotifier struct {
	endpoint   *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// payload mirrors JSON body sent to the webhook.
type payload struct {
	Account     string     `json:"account"`
	Transaction string     `json:"transaction"`
	Amount      string     `json:"amount"`
	Currency    string     `json:"currency"`
	Destination string     `json:"destination"`
	Status      string     `json:"status"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
}

// NewWebhookNotifier creates webhook notifier with default timeout.
func NewWebhookNotifier(endpoint string, logger *slog.Logger) (*WebhookNotifier, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse payout webhook url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("payout webhook url must be absolute")
	}
	return &WebhookNotifier{
		endpoint: parsed,
		logger:   logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// Notify posts the payout; any non-2xx response is an error.
func (n *WebhookNotifier) Notify(ctx context.Context, p model.Withdrawal) error {
	body, err := json.Marshal(payload{
		Account:     p.AccountID,
		Transaction: p.Transaction.ID,
		Amount:      money.Format(p.Transaction.Amount, p.Currency),
		Currency:    p.Currency,
		Destination: p.Transaction.Destination,
		Status:      string(p.Transaction.Status),
		ReviewedAt:  p.Transaction.ReviewedAt,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		n.logger.Error("payout webhook rejected notification",
			slog.Int("status", resp.StatusCode),
			slog.String("transaction", p.Transaction.ID),
			slog.String("body", string(respBody)))
		return fmt.Errorf("payout webhook error: %s", resp.Status)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
