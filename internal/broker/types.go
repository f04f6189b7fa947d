// Package broker defines the surface of the external brokerage services
// the core consumes: one-shot quotes, order placement, and the typed
// vocabulary shared by both.
package broker

import (
	"context"
	"fmt"
)

// Order sides, entry types, and time-in-force values on the wire.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"

	EntryMarket = "MKT"
	EntryLimit  = "LMT"

	TIFDay = "DAY"
	TIFGTC = "GTC"
	TIFIOC = "IOC"
)

// Quote is a transient one-shot snapshot. Zero bid/ask means the field
// was missing upstream; callers must treat that as unusable, not free.
type Quote struct {
	Bid  float64 `json:"bid"`
	Ask  float64 `json:"ask"`
	Last float64 `json:"last"`
}

// Usable reports whether both sides of the book are present and sane.
func (q *Quote) Usable() bool {
	return q != nil && q.Bid > 0 && q.Ask > 0 && q.Ask >= q.Bid
}

// OrderIntent is a fully resolved bracket order ready for submission.
// Built once per qualifying signal and discarded after placement.
type OrderIntent struct {
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Qty        int     `json:"qty"`
	EntryType  string  `json:"entry_type"`
	LimitPrice float64 `json:"limit_price,omitempty"`
	TakeProfit float64 `json:"take_profit"`
	StopLoss   float64 `json:"stop_loss"`
	TIF        string  `json:"tif"`
	ClientID   string  `json:"client_id,omitempty"` // idempotency key
}

// PlaceResult is the broker's acknowledgement of a submission.
type PlaceResult struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
}

// ReplaceFields carries the modifiable fields of a working order.
// Nil means leave unchanged.
type ReplaceFields struct {
	Qty        *int     `json:"qty,omitempty"`
	LimitPrice *float64 `json:"limit_price,omitempty"`
	TIF        *string  `json:"tif,omitempty"`
}

// QuoteService fetches one-shot quotes. The core never caches results.
type QuoteService interface {
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
}

// OrderPlacer submits and manages orders at the brokerage.
type OrderPlacer interface {
	PlaceBracket(ctx context.Context, intent OrderIntent) (PlaceResult, error)
	PlaceSimple(ctx context.Context, intent OrderIntent) (PlaceResult, error)
	Cancel(ctx context.Context, orderID int64) error
	Replace(ctx context.Context, orderID int64, fields ReplaceFields) (PlaceResult, error)
}

// Error classifies brokerage failures so callers can distinguish
// retriable transport trouble from rejections.
type Error struct {
	Type    string // "network", "rate_limit", "rejected", "bad_symbol"
	Symbol  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error for %s: %s (%v)", e.Type, e.Symbol, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error for %s: %s", e.Type, e.Symbol, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func NewNetworkError(symbol, message string, cause error) *Error {
	return &Error{Type: "network", Symbol: symbol, Message: message, Cause: cause}
}

func NewRateLimitError(symbol, message string) *Error {
	return &Error{Type: "rate_limit", Symbol: symbol, Message: message}
}

func NewRejectedError(symbol, message string) *Error {
	return &Error{Type: "rejected", Symbol: symbol, Message: message}
}

func NewBadSymbolError(symbol, message string) *Error {
	return &Error{Type: "bad_symbol", Symbol: symbol, Message: message}
}
