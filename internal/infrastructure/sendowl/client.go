package sendowl

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"downloads-report/internal/domain"
)

const DefaultBaseURL = "https://www.sendowl.com/api/v1"

// retryAttempts is the number of additional attempts after the first try.
const retryAttempts = 3

// Client talks to the order-management REST API. The Basic-auth header is
// built once and reused for every request of the session.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	auth      string
	cache     *ProductNameCache
	retryWait time.Duration
}

func NewClient(baseURL, apiKey, apiSecret string, timeout time.Duration, cache *ProductNameCache) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if cache == nil {
		cache = NewProductNameCache()
	}
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		HTTP:      &http.Client{Timeout: timeout},
		auth:      basicAuth(apiKey, apiSecret),
		cache:     cache,
		retryWait: 500 * time.Millisecond,
	}
}

// WithCredentials derives a client for a caller that supplies its own key and
// secret, sharing the transport and the product-name cache.
func (c *Client) WithCredentials(apiKey, apiSecret string) *Client {
	cp := *c
	cp.auth = basicAuth(apiKey, apiSecret)
	return &cp
}

func basicAuth(apiKey, apiSecret string) string {
	token := base64.StdEncoding.EncodeToString([]byte(apiKey + ":" + apiSecret))
	return "Basic " + token
}

// FetchOrder retrieves one order. 404 means the order does not exist; any
// other non-2xx status is an upstream fault carrying the body as detail.
func (c *Client) FetchOrder(ctx context.Context, orderID string) (domain.Order, error) {
	status, body, err := c.get(ctx, "/orders/"+url.PathEscape(orderID)+".json")
	if err != nil {
		return domain.Order{}, err
	}
	if status == http.StatusNotFound {
		return domain.Order{}, &NotFoundError{OrderID: orderID}
	}
	if status < 200 || status > 299 {
		return domain.Order{}, &UpstreamError{Status: status, Detail: detailFrom(body)}
	}
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.Order{}, &MalformedResponseError{Endpoint: "orders", Detail: err.Error()}
	}
	return NormalizeOrder(raw)
}

// FetchOrderDownloads retrieves the download history of an order. A 404 is a
// valid empty state, not a fault.
func (c *Client) FetchOrderDownloads(ctx context.Context, orderID string) ([]domain.DownloadRecord, error) {
	status, body, err := c.get(ctx, "/orders/"+url.PathEscape(orderID)+"/downloads.json")
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status < 200 || status > 299 {
		return nil, &UpstreamError{Status: status, Detail: detailFrom(body)}
	}
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &MalformedResponseError{Endpoint: "orders/downloads", Detail: err.Error()}
	}
	return NormalizeDownloads(raw), nil
}

// SearchOrdersByEmail lists the orders recorded for a buyer email.
func (c *Client) SearchOrdersByEmail(ctx context.Context, email string) ([]domain.Order, error) {
	status, body, err := c.get(ctx, "/orders/search.json?email="+url.QueryEscape(email))
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status < 200 || status > 299 {
		return nil, &UpstreamError{Status: status, Detail: detailFrom(body)}
	}
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &MalformedResponseError{Endpoint: "orders/search", Detail: err.Error()}
	}
	return NormalizeSearch(raw)
}

// LookupProductName resolves a product name for display. It is best-effort
// cosmetic enrichment: every failure yields a placeholder embedding the
// identifier, never an error. Successful lookups are memoized.
func (c *Client) LookupProductName(ctx context.Context, productID string) string {
	if productID == "" {
		return placeholderName(productID)
	}
	if name, ok := c.cache.Get(productID); ok {
		return name
	}
	status, body, err := c.get(ctx, "/products/"+url.PathEscape(productID)+".json")
	if err != nil || status < 200 || status > 299 {
		return placeholderName(productID)
	}
	var resp struct {
		Product struct {
			Name string `json:"name"`
		} `json:"product"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.Product.Name == "" {
		return placeholderName(productID)
	}
	c.cache.Put(productID, resp.Product.Name)
	return resp.Product.Name
}

func placeholderName(productID string) string {
	if productID == "" {
		productID = "?"
	}
	return "Produto " + productID
}

// get performs one authenticated GET, retrying server-side errors (500, 502,
// 503, 504) and transient network failures with exponential backoff. Client
// errors are returned as-is for the caller to interpret.
func (c *Client) get(ctx context.Context, path string) (int, []byte, error) {
	var status int
	var body []byte

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", c.auth)
		req.Header.Set("Accept", "application/json")
		resp, err := c.HTTP.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		status, body = resp.StatusCode, b
		switch resp.StatusCode {
		case http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return &UpstreamError{Status: resp.StatusCode, Detail: detailFrom(b)}
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	if c.retryWait > 0 {
		bo.InitialInterval = c.retryWait
	}
	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, retryAttempts), ctx))
	if err != nil {
		if isTimeout(err) {
			return 0, nil, &TimeoutError{Op: "GET " + path, Err: err}
		}
		var ue *UpstreamError
		if errors.As(err, &ue) {
			return ue.Status, nil, ue
		}
		return 0, nil, err
	}
	return status, body, nil
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// detailFrom keeps JSON bodies compact and falls back to raw text.
func detailFrom(body []byte) string {
	var v any
	if json.Unmarshal(body, &v) == nil && v != nil {
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return strings.TrimSpace(string(body))
}
