package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ordersvc/internal/controller/apperror"
	"ordersvc/internal/domain/order"
)

// Client talks to the payment gateway over HTTP.
type Client struct {
	BaseURL          string
	CreateSessionURL string
	HTTP             *http.Client
}

func New(baseURL string, sessionPath string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		BaseURL:          baseURL,
		CreateSessionURL: baseURL + sessionPath,
		HTTP:             httpClient,
	}
}

var _ order.PaymentClient = (*Client)(nil)

type sessionItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type createSessionReq struct {
	OrderID  string        `json:"order_id"`
	Currency string        `json:"currency"`
	Items    []sessionItem `json:"items"`
}

// CreateSession asks the gateway for a checkout session. The gateway owns the
// session shape, so the response body is passed through untouched.
func (c *Client) CreateSession(ctx context.Context, req order.PaymentSessionRequest) (order.PaymentSession, error) {
	body := createSessionReq{
		OrderID:  req.OrderID,
		Currency: req.Currency,
		Items:    make([]sessionItem, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		body.Items = append(body.Items, sessionItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	j, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	httpReq, _ := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.CreateSessionURL,
		bytes.NewReader(j),
	)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: payment gateway: %s", apperror.ErrUnavailable, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: payment gateway %s: %s", apperror.ErrUnavailable, resp.Status, string(raw))
	case resp.StatusCode/100 != 2:
		return nil, fmt.Errorf("payment gateway %s: %s", resp.Status, string(raw))
	}

	if !json.Valid(raw) {
		return nil, fmt.Errorf("payment gateway returned malformed session body")
	}

	return order.PaymentSession(raw), nil
}
