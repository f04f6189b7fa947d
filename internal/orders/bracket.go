package orders

import (
	"github.com/catalystlab/autotrader/internal/broker"
	"github.com/catalystlab/autotrader/internal/catalyst"
)

// BracketParams carries everything needed to derive absolute bracket
// levels from a playbook entry and a fresh quote.
type BracketParams struct {
	Symbol          string
	Bias            catalyst.Bias
	EntryType       string // broker.EntryMarket or broker.EntryLimit
	Quote           broker.Quote
	StopDistance    float64
	TakeProfitDelta float64
	Qty             int
	TIF             string
	ClientID        string
}

// TouchPrice is the side of the book an entry would hit: the ask for a
// long, the bid for a short. Used both as the sizing reference and as
// the limit price for LMT entries.
func TouchPrice(q broker.Quote, bias catalyst.Bias) float64 {
	if bias == catalyst.Short {
		return q.Bid
	}
	return q.Ask
}

// BuildBracket derives absolute stop-loss and take-profit levels from
// the touch price and assembles the placement request. Long: stop below
// entry, target above; short inverts the signs. Only a single
// take-profit leg is constructed; ladder rungs past the first are the
// caller's to hold back for a future multi-leg extension.
func BuildBracket(p BracketParams) broker.OrderIntent {
	entry := TouchPrice(p.Quote, p.Bias)

	intent := broker.OrderIntent{
		Symbol:    p.Symbol,
		Qty:       p.Qty,
		EntryType: p.EntryType,
		TIF:       p.TIF,
		ClientID:  p.ClientID,
	}
	if p.EntryType == broker.EntryLimit {
		intent.LimitPrice = entry
	}

	if p.Bias == catalyst.Short {
		intent.Side = broker.SideSell
		intent.StopLoss = entry + p.StopDistance
		intent.TakeProfit = entry - p.TakeProfitDelta
	} else {
		intent.Side = broker.SideBuy
		intent.StopLoss = entry - p.StopDistance
		intent.TakeProfit = entry + p.TakeProfitDelta
	}
	return intent
}
