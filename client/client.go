// Package client is a small HTTP client for the store API, used by tooling
// such as the checkout bench.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Kariqs/campus-store-api/models"
	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// ErrUnavailable is returned while the breaker is open.
var ErrUnavailable = errors.New("store api unavailable")

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string `json:"message"`
	Field      string `json:"field"`
	Product    string `json:"product"`
	Available  *int   `json:"available"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("store api: %d %s", e.StatusCode, e.Message)
}

// IsInsufficientStock reports whether err is a rejected order for lack of stock.
func IsInsufficientStock(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest && apiErr.Available != nil
}

type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30*time.Second).
			SetHeader("Accept", "application/json").
			SetHeader("Content-Type", "application/json"),
	}
	// Client errors are answers; only transport failures and 5xx count against the breaker.
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "store-api",
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(log.Fields{
				"circuit": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Info("Circuit breaker state changed")
		},
	})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken authenticates subsequent requests.
func (c *Client) SetToken(token string) {
	c.http.SetAuthToken(token)
}

type LoginResponse struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	Token   string `json:"token"`
}

// Login authenticates and keeps the returned token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/users/login", body, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

type PlaceOrderRequest struct {
	OrderItems      []models.OrderItem      `json:"orderItems"`
	ShippingAddress *models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                  `json:"paymentMethod,omitempty"`
}

func (c *Client) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, http.MethodPost, "/api/orders", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := c.do(ctx, http.MethodGet, "/api/products/"+id, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		req := c.http.R().SetContext(ctx).SetResult(result).SetError(&APIError{})
		if body != nil {
			req.SetBody(body)
		}
		resp, err := req.Execute(method, path)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return nil, apiError(resp)
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return err
	}

	resp := out.(*resty.Response)
	if resp.IsError() {
		return apiError(resp)
	}
	return nil
}

func apiError(resp *resty.Response) *APIError {
	apiErr, ok := resp.Error().(*APIError)
	if !ok || apiErr == nil {
		apiErr = &APIError{}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode())
	}
	apiErr.StatusCode = resp.StatusCode()
	return apiErr
}
