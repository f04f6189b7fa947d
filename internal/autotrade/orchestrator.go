// Package autotrade drives the news-to-order pipeline from filter
// through submission, one independent run per inbound news item.
package autotrade

import (
	"context"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/catalystlab/autotrader/internal/broker"
	"github.com/catalystlab/autotrader/internal/catalyst"
	"github.com/catalystlab/autotrader/internal/journal"
	"github.com/catalystlab/autotrader/internal/newsfeed"
	"github.com/catalystlab/autotrader/internal/observ"
	"github.com/catalystlab/autotrader/internal/orders"
	"github.com/catalystlab/autotrader/internal/risk"
	"github.com/catalystlab/autotrader/internal/symbols"
)

// Orchestrator consumes news items and submits bracket orders for the
// ones that survive every stage. Runs are fire-and-forget: nothing is
// serialized per symbol and repeated catalysts on the same symbol each
// fire their own bracket unless the optional cooldown is enabled.
type Orchestrator struct {
	settings   *Settings
	classifier *catalyst.Classifier
	playbook   *catalyst.Playbook
	quotes     broker.QuoteService
	placer     broker.OrderPlacer
	gate       *risk.SpreadGate
	journal    *journal.Journal
	log        *zap.Logger

	wg sync.WaitGroup
}

func New(
	settings *Settings,
	classifier *catalyst.Classifier,
	playbook *catalyst.Playbook,
	quotes broker.QuoteService,
	placer broker.OrderPlacer,
	jnl *journal.Journal,
	log *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		settings:   settings,
		classifier: classifier,
		playbook:   playbook,
		quotes:     quotes,
		placer:     placer,
		gate:       risk.NewSpreadGate(quotes, log),
		journal:    jnl,
		log:        log,
	}
}

// Settings exposes the runtime configuration surface.
func (o *Orchestrator) Settings() *Settings { return o.settings }

// Run consumes the feed until it closes or ctx is cancelled. Each item
// gets its own goroutine, so completion (and submission) order is not
// arrival order; that trade-off buys throughput on headline bursts.
func (o *Orchestrator) Run(ctx context.Context, items <-chan newsfeed.Item) {
	for {
		select {
		case <-ctx.Done():
			o.wg.Wait()
			return
		case item, ok := <-items:
			if !ok {
				o.wg.Wait()
				return
			}
			o.wg.Add(1)
			go func() {
				defer o.wg.Done()
				o.Handle(ctx, item)
			}()
		}
	}
}

// Handle runs the full pipeline for one news item. Every early return is
// an expected drop, not an error; a submission failure is logged and
// counted but never propagates.
func (o *Orchestrator) Handle(ctx context.Context, item newsfeed.Item) {
	observ.IncCounter("news_events_total", map[string]string{"provider": item.Provider})
	snap := o.settings.Snapshot()

	if !snap.providerAllowed(item.Provider) {
		o.drop(item, "provider_filtered")
		return
	}

	symbol, ok := symbols.Resolve(item, snap.Watchlist)
	if !ok {
		o.drop(item, "no_symbol")
		return
	}

	if snap.WatchlistOnly && !snap.Watchlist.Contains(symbol) {
		o.drop(item, "off_watchlist")
		return
	}

	key, ok := o.classifier.Classify(item.Headline)
	if !ok {
		o.drop(item, "no_catalyst")
		return
	}

	entry, ok := o.playbook.Resolve(key)
	if !ok {
		o.drop(item, "no_playbook")
		return
	}

	if snap.Cooldown > 0 {
		recent, err := o.journal.HasRecent(symbol, key, snap.Cooldown)
		if err != nil {
			o.log.Warn("cooldown check failed", zap.Error(err))
		} else if recent {
			o.drop(item, "cooldown")
			return
		}
	}

	if !o.gate.Passes(ctx, symbol, snap.MaxSpreadFrac) {
		o.drop(item, "risk_gate")
		return
	}

	quote, err := o.quotes.GetQuote(ctx, symbol)
	if err != nil || !quote.Usable() {
		o.drop(item, "no_quote")
		return
	}

	refPrice := orders.TouchPrice(*quote, entry.Bias)
	qty := risk.Size(snap.NotionalUSD, refPrice)
	if qty <= 0 {
		o.drop(item, "zero_qty")
		return
	}

	intent := orders.BuildBracket(orders.BracketParams{
		Symbol:          symbol,
		Bias:            entry.Bias,
		EntryType:       snap.EntryType,
		Quote:           *quote,
		StopDistance:    entry.StopDistance,
		TakeProfitDelta: entry.TakeProfits[0],
		Qty:             qty,
		TIF:             snap.TIF,
		ClientID:        ulid.Make().String(),
	})

	res, err := o.placer.PlaceBracket(ctx, intent)
	if err != nil {
		o.log.Error("bracket submission failed",
			zap.String("symbol", symbol),
			zap.String("catalyst", key),
			zap.Error(err))
		observ.IncCounter("order_submit_failures_total", map[string]string{"symbol": symbol})
		return
	}

	o.record(intent, res, key)
	o.log.Info("bracket submitted",
		zap.String("symbol", symbol),
		zap.String("catalyst", key),
		zap.String("side", intent.Side),
		zap.Int("qty", intent.Qty),
		zap.Float64("stop_loss", intent.StopLoss),
		zap.Float64("take_profit", intent.TakeProfit),
		zap.Int64("order_id", res.OrderID))
	observ.IncCounter("orders_submitted_total",
		map[string]string{"symbol": symbol, "catalyst": key})
}

// QuickTrade is the manual one-click entry point: no classification, the
// caller supplies the offsets. Unlike the automated path, failures are
// returned so the UI can show them.
func (o *Orchestrator) QuickTrade(ctx context.Context, symbol string, bias catalyst.Bias, stopOffset, takeProfitOffset float64) (broker.PlaceResult, error) {
	snap := o.settings.Snapshot()

	quote, err := o.quotes.GetQuote(ctx, symbol)
	if err != nil {
		return broker.PlaceResult{}, fmt.Errorf("quick trade quote: %w", err)
	}
	if !quote.Usable() {
		return broker.PlaceResult{}, fmt.Errorf("quick trade: no usable quote for %s", symbol)
	}

	qty := risk.Size(snap.NotionalUSD, orders.TouchPrice(*quote, bias))
	if qty <= 0 {
		return broker.PlaceResult{}, fmt.Errorf("quick trade: cannot size %s", symbol)
	}

	intent := orders.BuildBracket(orders.BracketParams{
		Symbol:          symbol,
		Bias:            bias,
		EntryType:       snap.EntryType,
		Quote:           *quote,
		StopDistance:    stopOffset,
		TakeProfitDelta: takeProfitOffset,
		Qty:             qty,
		TIF:             snap.TIF,
		ClientID:        ulid.Make().String(),
	})

	res, err := o.placer.PlaceBracket(ctx, intent)
	if err != nil {
		return res, fmt.Errorf("quick trade submit: %w", err)
	}
	o.record(intent, res, "manual")
	return res, nil
}

func (o *Orchestrator) record(intent broker.OrderIntent, res broker.PlaceResult, key string) {
	if o.journal == nil {
		return
	}
	if err := o.journal.Append(journal.Entry{
		ClientID: intent.ClientID,
		Intent:   intent,
		OrderID:  res.OrderID,
		Status:   res.Status,
		Catalyst: key,
	}); err != nil {
		o.log.Warn("journal append failed", zap.Error(err))
	}
}

func (o *Orchestrator) drop(item newsfeed.Item, stage string) {
	o.log.Debug("news item dropped",
		zap.String("article_id", item.ArticleID),
		zap.String("provider", item.Provider),
		zap.String("stage", stage))
	observ.IncCounter("pipeline_drops_total", map[string]string{"stage": stage})
}
