package off

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/allergyscan/backend/internal/domain"
	"golang.org/x/time/rate"
)

// Client handles communication with the Open Food Facts product API
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a new Open Food Facts API client
func NewClient(baseURL string) *Client {
	// OFF fair-use policy asks scan clients to stay under 100 product
	// queries per minute: 100/60 ≈ 1.67 requests/sec
	limiter := rate.NewLimiter(rate.Limit(1.67), 10) // burst of 10 requests

	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:     strings.TrimRight(baseURL, "/"),
		rateLimiter: limiter,
	}
}

// SetDebug enables or disables debug logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// productResponse is the OFF product endpoint envelope.
// Status 1 means found, 0 means unknown barcode.
type productResponse struct {
	Status  int        `json:"status"`
	Code    string     `json:"code"`
	Product offProduct `json:"product"`
}

// offProduct carries the product fields we consume. OFF records are
// crowd-sourced, so every field may be missing; the mapper applies fallbacks.
type offProduct struct {
	ProductName       string `json:"product_name"`
	ProductNameEn     string `json:"product_name_en"`
	GenericName       string `json:"generic_name"`
	Brands            string `json:"brands"`
	IngredientsText   string `json:"ingredients_text"`
	IngredientsTextEn string `json:"ingredients_text_en"`
	ImageURL          string `json:"image_url"`
}

// Fetch retrieves the product for a barcode from Open Food Facts
func (c *Client) Fetch(ctx context.Context, barcode string) (*domain.ProductSnapshot, error) {
	if c.debug {
		log.Printf("[OFF] Fetch called with barcode: %q", barcode)
	}

	reqURL := fmt.Sprintf("%s/product/%s.json", c.baseURL, url.PathEscape(barcode))

	// Retry up to 3 times for transient failures
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		// Wait for rate limiter
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			if c.debug {
				log.Printf("[OFF] Request error (attempt %d): %v", attempt, err)
			}
			lastErr = err
			if !sleepCtx(ctx, exponentialBackoff(attempt)) {
				return nil, ctx.Err()
			}
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		// 404 is a definitive answer, everything else non-200 is transient
		if resp.StatusCode == http.StatusNotFound {
			return nil, domain.ErrProductNotFound
		}
		if resp.StatusCode != http.StatusOK {
			if c.debug {
				log.Printf("[OFF] API error (attempt %d) - Status: %d", attempt, resp.StatusCode)
			}
			lastErr = fmt.Errorf("%w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
			if !sleepCtx(ctx, exponentialBackoff(attempt)) {
				return nil, ctx.Err()
			}
			continue
		}

		var productResp productResponse
		if err := json.Unmarshal(body, &productResp); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}

		if productResp.Status != 1 {
			if c.debug {
				log.Printf("[OFF] No product found for barcode: %q", barcode)
			}
			return nil, domain.ErrProductNotFound
		}

		if c.debug {
			log.Printf("[OFF] Found product %q for barcode: %q", productResp.Product.ProductName, barcode)
		}
		return mapToSnapshot(&productResp.Product), nil
	}

	return nil, lastErr
}

// doRequest executes an HTTP GET request with proper headers and error handling
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "AllergyScan/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	return resp, nil
}

// exponentialBackoff returns the wait before the next retry attempt
func exponentialBackoff(attempt int) time.Duration {
	return 500 * time.Millisecond << (attempt - 1)
}

// sleepCtx sleeps for d unless the context is cancelled first
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
