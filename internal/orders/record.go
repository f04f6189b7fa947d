// Package orders covers the order lifecycle after submission: the
// bracket constructor, the broker's order records, the merge rule every
// consumer applies, and the event bus that feeds them.
package orders

import "strings"

// OrderRecord is the brokerage's view of a live order, keyed by OrderID
// and assembled from partial updates.
type OrderRecord struct {
	OrderID      int64   `json:"order_id"`
	Symbol       string  `json:"symbol,omitempty"`
	ConID        int64   `json:"con_id,omitempty"`
	Action       string  `json:"action,omitempty"`
	Qty          float64 `json:"qty,omitempty"`
	Type         string  `json:"type,omitempty"`
	LimitPrice   float64 `json:"limit_price,omitempty"`
	TIF          string  `json:"tif,omitempty"`
	Status       string  `json:"status,omitempty"`
	Filled       float64 `json:"filled,omitempty"`
	Remaining    float64 `json:"remaining,omitempty"`
	AvgFillPrice float64 `json:"avg_fill_price,omitempty"`
}

// OrderUpdate is a partial update off the event stream. Pointer fields
// distinguish "absent" from a genuine zero so the merge can preserve
// fields the update did not carry.
type OrderUpdate struct {
	OrderID      int64    `json:"order_id"`
	Symbol       *string  `json:"symbol,omitempty"`
	ConID        *int64   `json:"con_id,omitempty"`
	Action       *string  `json:"action,omitempty"`
	Qty          *float64 `json:"qty,omitempty"`
	Type         *string  `json:"type,omitempty"`
	LimitPrice   *float64 `json:"limit_price,omitempty"`
	TIF          *string  `json:"tif,omitempty"`
	Status       *string  `json:"status,omitempty"`
	Filled       *float64 `json:"filled,omitempty"`
	Remaining    *float64 `json:"remaining,omitempty"`
	AvgFillPrice *float64 `json:"avg_fill_price,omitempty"`
}

// IsTerminal reports whether a status means the order will see no more
// updates, so pollers may stop refreshing it. By convention, not
// enforced here.
func IsTerminal(status string) bool {
	s := strings.ToUpper(status)
	return s == "FILLED" || s == "CANCELLED" || s == "INACTIVE" ||
		strings.HasPrefix(s, "APICANCEL")
}
