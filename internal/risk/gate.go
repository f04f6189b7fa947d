// Package risk holds the pre-trade checks between a classified signal
// and an order: the spread gate and the notional position sizer.
package risk

import (
	"context"

	"go.uber.org/zap"

	"github.com/catalystlab/autotrader/internal/broker"
	"github.com/catalystlab/autotrader/internal/observ"
)

// SpreadGate rejects signals whose bid/ask spread is too wide relative
// to the mid. Wide spread on a fresh headline usually means the market
// makers pulled, and fills there are the worst of the day.
type SpreadGate struct {
	quotes broker.QuoteService
	log    *zap.Logger
}

func NewSpreadGate(quotes broker.QuoteService, log *zap.Logger) *SpreadGate {
	return &SpreadGate{quotes: quotes, log: log}
}

// Passes fetches one quote and accepts iff bid>0, ask>0 and
// (ask-bid)/mid <= maxSpreadFraction. Every failure mode (fetch error,
// one-sided book, wide spread) is a silent reject, never an error: an
// unavailable quote source must suppress the trade, not crash the
// pipeline.
func (g *SpreadGate) Passes(ctx context.Context, symbol string, maxSpreadFraction float64) bool {
	quote, err := g.quotes.GetQuote(ctx, symbol)
	if err != nil {
		g.log.Debug("spread gate: quote fetch failed",
			zap.String("symbol", symbol), zap.Error(err))
		observ.IncCounter("risk_gate_rejects_total",
			map[string]string{"symbol": symbol, "reason": "fetch_failed"})
		return false
	}
	if quote.Bid <= 0 || quote.Ask <= 0 {
		observ.IncCounter("risk_gate_rejects_total",
			map[string]string{"symbol": symbol, "reason": "one_sided"})
		return false
	}

	mid := (quote.Bid + quote.Ask) / 2
	spread := (quote.Ask - quote.Bid) / mid
	if spread > maxSpreadFraction {
		g.log.Debug("spread gate: too wide",
			zap.String("symbol", symbol),
			zap.Float64("spread", spread),
			zap.Float64("max", maxSpreadFraction))
		observ.IncCounter("risk_gate_rejects_total",
			map[string]string{"symbol": symbol, "reason": "wide_spread"})
		return false
	}
	return true
}
