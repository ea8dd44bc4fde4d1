package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	apiPrefix         = "/api"
	productImageField = "productImage"
	maxResponseBody   = 8 << 20
	defaultTimeout    = 30 * time.Second
)

// HTTPConfig configures HTTPClient.
type HTTPConfig struct {
	// BaseURL is the server origin, e.g. http://localhost:5000. The /api
	// prefix is appended.
	BaseURL string
	Timeout time.Duration
	// RequestsPerSecond throttles outbound requests; zero disables throttling.
	RequestsPerSecond float64
}

// HTTPClient talks to the storefront REST API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter

	mu    sync.RWMutex
	token string
}

type dataEnvelope[T any] struct {
	Data T `json:"data"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(1, int(cfg.RequestsPerSecond)))
	}

	return &HTTPClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/") + apiPrefix,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}
}

// SetToken replaces the token attached to subsequent requests.
// An empty token makes authenticated calls fail with ErrAuthRequired.
func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *HTTPClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *HTTPClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) Register(ctx context.Context, creds models.Credentials) (*models.User, error) {
	var resp models.Session
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", creds, false, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *HTTPClient) Login(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	var resp models.Session
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", creds, false, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, &ServerError{StatusCode: http.StatusOK, Message: "login response carries no token"}
	}
	return &resp, nil
}

func (c *HTTPClient) ListProducts(ctx context.Context) ([]models.Product, error) {
	var resp dataEnvelope[[]models.Product]
	if err := c.doJSON(ctx, http.MethodGet, "/product", nil, false, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *HTTPClient) ListUserProducts(ctx context.Context) ([]models.Product, error) {
	var resp dataEnvelope[[]models.Product]
	if err := c.doJSON(ctx, http.MethodGet, "/product/userproducts", nil, true, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *HTTPClient) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var resp dataEnvelope[*models.Product]
	if err := c.doJSON(ctx, http.MethodGet, "/product/"+url.PathEscape(id), nil, false, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return resp.Data, nil
}

func (c *HTTPClient) CreateProduct(ctx context.Context, fields models.ProductFields, images []models.Image) (*models.Product, error) {
	return c.submitProduct(ctx, http.MethodPost, "/product/", fields, images)
}

func (c *HTTPClient) UpdateProduct(ctx context.Context, id string, fields models.ProductFields, image *models.Image) (*models.Product, error) {
	var images []models.Image
	if image != nil {
		images = []models.Image{*image}
	}
	return c.submitProduct(ctx, http.MethodPut, "/product/"+url.PathEscape(id), fields, images)
}

func (c *HTTPClient) DeleteProduct(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/product/"+url.PathEscape(id), nil, true, nil)
}

func (c *HTTPClient) GetCart(ctx context.Context) ([]models.CartItem, error) {
	var resp dataEnvelope[[]models.CartItem]
	if err := c.doJSON(ctx, http.MethodGet, "/cart/", nil, true, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *HTTPClient) AddToCart(ctx context.Context, productID string) ([]models.CartItem, error) {
	var resp dataEnvelope[[]models.CartItem]
	if err := c.doJSON(ctx, http.MethodPost, "/cart/"+url.PathEscape(productID), nil, true, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *HTTPClient) UpdateCartItem(ctx context.Context, productID string, quantity int) error {
	return c.doJSON(ctx, http.MethodPatch, "/cart/"+url.PathEscape(productID), quantityRequest{Quantity: quantity}, true, nil)
}

func (c *HTTPClient) DeleteCartItem(ctx context.Context, productID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/cart/"+url.PathEscape(productID), nil, true, nil)
}

func (c *HTTPClient) submitProduct(ctx context.Context, method, path string, fields models.ProductFields, images []models.Image) (*models.Product, error) {
	body, contentType, err := encodeProductForm(fields, images)
	if err != nil {
		return nil, fmt.Errorf("encode product form: %w", err)
	}

	req, err := c.newRequest(ctx, method, path, body, contentType, true)
	if err != nil {
		return nil, err
	}

	var resp dataEnvelope[*models.Product]
	if err := c.do(ctx, req, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("%s %s: empty product in response", method, path)
	}
	return resp.Data, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, payload any, authenticated bool, out any) error {
	var (
		body        io.Reader
		contentType string
	)
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	req, err := c.newRequest(ctx, method, path, body, contentType, authenticated)
	if err != nil {
		return err
	}
	return c.do(ctx, req, out)
}

// newRequest captures the token at call time. Authenticated requests without
// a token never reach the network.
func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string, authenticated bool) (*http.Request, error) {
	token := c.Token()
	if authenticated && token == "" {
		return nil, ErrAuthRequired
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set(common.AccessTokenHeaderName, token)
	}
	req.Header.Set(common.RequestIDHeaderName, uuid.NewString())

	return req, nil
}

func (c *HTTPClient) do(ctx context.Context, req *http.Request, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapStatus(resp.StatusCode, body)
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func mapStatus(code int, body []byte) error {
	msg := errorMessage(body)
	if msg == "" {
		msg = http.StatusText(code)
	}

	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	default:
		return &ServerError{StatusCode: code, Message: msg}
	}
}

// errorMessage pulls a human readable message out of an error payload.
// The API is not consistent about the key it uses.
func errorMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		for _, path := range []string{"message", "msg", "error"} {
			if r := gjson.GetBytes(body, path); r.Type == gjson.String && r.Str != "" {
				return r.Str
			}
		}
		return ""
	}
	return strings.TrimSpace(string(body))
}

func encodeProductForm(f models.ProductFields, images []models.Image) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	values := []struct{ key, value string }{
		{"name", f.Name},
		{"description", f.Description},
		{"price", f.Price.String()},
		{"inStock", strconv.Itoa(f.InStock)},
	}
	for _, v := range values {
		if err := w.WriteField(v.key, v.value); err != nil {
			return nil, "", err
		}
	}

	for _, img := range images {
		part, err := w.CreateFormFile(productImageField, img.Filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(img.Content); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
