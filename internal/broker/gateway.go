package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// GatewayConfig holds settings for the brokerage REST gateway client.
type GatewayConfig struct {
	BaseURL            string
	TimeoutMs          int
	RateLimitPerMinute int
}

// Gateway is the REST client for the brokerage's quote and order
// endpoints. Quote fetches are rate-limited so a burst of news cannot
// exhaust the session's market-data allowance.
type Gateway struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

func NewGateway(cfg GatewayConfig) *Gateway {
	if cfg.TimeoutMs <= 0 {
		cfg.TimeoutMs = 5000
	}
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = 60
	}
	return &Gateway{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(float64(cfg.RateLimitPerMinute)/60), 1),
	}
}

// GetQuote fetches a one-shot snapshot for a symbol.
func (g *Gateway) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, NewBadSymbolError(symbol, "empty symbol")
	}
	if err := g.rateLimiter.Wait(ctx); err != nil {
		return nil, NewRateLimitError(symbol, "rate limit wait cancelled")
	}

	u := g.baseURL + "/marketdata/snapshot?symbol=" + url.QueryEscape(symbol)
	var quote Quote
	if err := g.getJSON(ctx, u, &quote); err != nil {
		return nil, NewNetworkError(symbol, "quote fetch failed", err)
	}
	return &quote, nil
}

// PlaceBracket submits a parent entry order with attached take-profit
// and stop-loss as one logical unit.
func (g *Gateway) PlaceBracket(ctx context.Context, intent OrderIntent) (PlaceResult, error) {
	var res PlaceResult
	if err := g.postJSON(ctx, g.baseURL+"/orders/bracket", intent, &res); err != nil {
		return res, NewNetworkError(intent.Symbol, "bracket submission failed", err)
	}
	return res, nil
}

// PlaceSimple submits a plain entry order without attached children.
func (g *Gateway) PlaceSimple(ctx context.Context, intent OrderIntent) (PlaceResult, error) {
	var res PlaceResult
	if err := g.postJSON(ctx, g.baseURL+"/orders", intent, &res); err != nil {
		return res, NewNetworkError(intent.Symbol, "order submission failed", err)
	}
	return res, nil
}

// Cancel requests cancellation of a working order.
func (g *Gateway) Cancel(ctx context.Context, orderID int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("%s/orders/%d", g.baseURL, orderID), nil)
	if err != nil {
		return err
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return NewNetworkError("", "cancel failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return NewRejectedError("", fmt.Sprintf("cancel returned %d", resp.StatusCode))
	}
	return nil
}

// Replace modifies the supplied fields of a working order.
func (g *Gateway) Replace(ctx context.Context, orderID int64, fields ReplaceFields) (PlaceResult, error) {
	var res PlaceResult
	u := fmt.Sprintf("%s/orders/%d", g.baseURL, orderID)
	if err := g.postJSON(ctx, u, fields, &res); err != nil {
		return res, NewNetworkError("", "replace failed", err)
	}
	return res, nil
}

func (g *Gateway) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return g.do(req, out)
}

func (g *Gateway) postJSON(ctx context.Context, u string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return g.do(req, out)
}

func (g *Gateway) do(req *http.Request, out any) error {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
