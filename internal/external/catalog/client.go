package catalog

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

// Client talks to the product catalog service over HTTP.
type Client struct {
	BaseURL          string
	ValidateProdsURL string
	HTTP             *http.Client
}

func New(baseURL string, validatePath string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{
		BaseURL:          baseURL,
		ValidateProdsURL: baseURL + validatePath,
		HTTP:             httpClient,
	}
}

var _ order.CatalogClient = (*Client)(nil)

type validateReq struct {
	ProductIDs []string `json:"product_ids"`
}

type productResp struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type validateResp struct {
	Products []productResp `json:"products"`
}

// ValidateProducts resolves product ids against the catalog. The response
// carries only the products the catalog knows about; callers detect missing
// ids by comparing against what they asked for.
func (c *Client) ValidateProducts(ctx context.Context, productIDs []string) ([]order.Product, error) {
	body := validateReq{ProductIDs: productIDs}

	j, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	httpReq, _ := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.ValidateProdsURL,
		bytes.NewReader(j),
	)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		// timeouts and connection failures are transient from the caller's view
		return nil, fmt.Errorf("%w: catalog: %s", apperror.ErrUnavailable, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", apperror.ErrProductNotFound, string(raw))
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: catalog %s: %s", apperror.ErrUnavailable, resp.Status, string(raw))
	case resp.StatusCode/100 != 2:
		return nil, fmt.Errorf("catalog %s: %s", resp.Status, string(raw))
	}

	var out validateResp
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}

	products := make([]order.Product, 0, len(out.Products))
	for _, p := range out.Products {
		products = append(products, order.Product{ID: p.ID, Name: p.Name, Price: p.Price})
	}
	return products, nil
}
