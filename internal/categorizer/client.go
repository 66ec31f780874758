package categorizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/baharkarakas/autotopup-backend/internal/models"
)

// Request is the body of POST /categorize.
type Request struct {
	Merchant        string          `json:"merchant"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	TransactionType string          `json:"transaction_type"`
}

type Response struct {
	Category string `json:"category"`
}

// Client calls a remote categorizer service. One attempt per call, bounded by the timeout.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Categorize returns models.ErrClassifierUnavailable for any transport failure, non-2xx status or unreadable body.
func (c *Client) Categorize(ctx context.Context, in Input) (string, error) {
	body, err := json.Marshal(Request{
		Merchant:        in.Merchant,
		Amount:          in.Amount,
		Description:     in.Description,
		TransactionType: string(in.Type),
	})
	if err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/categorize", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrClassifierUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("%w: status %d", models.ErrClassifierUnavailable, resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Category == "" {
		return "", fmt.Errorf("%w: bad response body", models.ErrClassifierUnavailable)
	}
	return out.Category, nil
}
