package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/erp/bridge/internal/domain/integration"
)

// maxResponseSize is the maximum accepted response size (10MB)
const maxResponseSize = 10 * 1024 * 1024

// WooCommerceAdapter implements integration.Storefront for WooCommerce
type WooCommerceAdapter struct {
	config     *WooCommerceConfig
	httpClient *http.Client
}

var _ integration.Storefront = (*WooCommerceAdapter)(nil)

// NewWooCommerceAdapter creates a new adapter with the given configuration
func NewWooCommerceAdapter(config *WooCommerceConfig) (*WooCommerceAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &WooCommerceAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout:   time.Duration(config.TimeoutSeconds) * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

// FindProductsBySKU implements integration.Storefront
func (a *WooCommerceAdapter) FindProductsBySKU(ctx context.Context, sku string) ([]integration.StorefrontProduct, error) {
	body, err := a.doRequest(ctx, http.MethodGet, "products", url.Values{"sku": {sku}}, nil)
	if err != nil {
		return nil, err
	}

	var products []integration.StorefrontProduct
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrStorefrontInvalidResponse, err)
	}
	return products, nil
}

// UpdateProductStock implements integration.Storefront
func (a *WooCommerceAdapter) UpdateProductStock(ctx context.Context, productID int64, quantity int64) error {
	update := wooStockUpdate{ManageStock: true, StockQuantity: quantity}
	endpoint := "products/" + strconv.FormatInt(productID, 10)
	_, err := a.doRequest(ctx, http.MethodPut, endpoint, nil, update)
	return err
}

// wooStockUpdate is the body of a product stock update
type wooStockUpdate struct {
	ManageStock   bool  `json:"manage_stock"`
	StockQuantity int64 `json:"stock_quantity"`
}

// doRequest sends an authenticated request. Credentials travel in the query
// string, which WooCommerce accepts over HTTPS.
func (a *WooCommerceAdapter) doRequest(ctx context.Context, method, endpoint string, query url.Values, payload any) ([]byte, error) {
	params := url.Values{}
	for k, v := range query {
		params[k] = v
	}
	params.Set("consumer_key", a.config.ConsumerKey)
	params.Set("consumer_secret", a.config.ConsumerSecret)

	reqURL := a.config.APIBase() + "/" + strings.TrimLeft(endpoint, "/") + "?" + params.Encode()

	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("woocommerce: failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("woocommerce: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrStorefrontUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("woocommerce: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: %s %s: HTTP %d", integration.ErrStorefrontRequestFailed, method, endpoint, resp.StatusCode)
	}

	return body, nil
}
