package orders

import (
	"testing"

	"github.com/catalystlab/autotrader/internal/broker"
	"github.com/catalystlab/autotrader/internal/catalyst"
)

func TestBuildBracketLong(t *testing.T) {
	intent := BuildBracket(BracketParams{
		Symbol:          "ACME",
		Bias:            catalyst.Long,
		EntryType:       broker.EntryMarket,
		Quote:           broker.Quote{Bid: 99.9, Ask: 100.0},
		StopDistance:    1.0,
		TakeProfitDelta: 1.5,
		Qty:             50,
		TIF:             broker.TIFDay,
	})

	if intent.Side != broker.SideBuy {
		t.Errorf("Side = %v, want BUY", intent.Side)
	}
	if intent.StopLoss != 99.0 {
		t.Errorf("StopLoss = %v, want 99.0", intent.StopLoss)
	}
	if intent.TakeProfit != 101.5 {
		t.Errorf("TakeProfit = %v, want 101.5", intent.TakeProfit)
	}
	if intent.LimitPrice != 0 {
		t.Errorf("MKT entry should not carry a limit price, got %v", intent.LimitPrice)
	}
}

func TestBuildBracketShort(t *testing.T) {
	intent := BuildBracket(BracketParams{
		Symbol:          "ACME",
		Bias:            catalyst.Short,
		EntryType:       broker.EntryMarket,
		Quote:           broker.Quote{Bid: 100.0, Ask: 100.1},
		StopDistance:    1.0,
		TakeProfitDelta: 1.5,
		Qty:             50,
		TIF:             broker.TIFDay,
	})

	if intent.Side != broker.SideSell {
		t.Errorf("Side = %v, want SELL", intent.Side)
	}
	if intent.StopLoss != 101.0 {
		t.Errorf("StopLoss = %v, want 101.0", intent.StopLoss)
	}
	if intent.TakeProfit != 98.5 {
		t.Errorf("TakeProfit = %v, want 98.5", intent.TakeProfit)
	}
}

func TestBuildBracketLimitEntry(t *testing.T) {
	q := broker.Quote{Bid: 49.9, Ask: 50.1}

	long := BuildBracket(BracketParams{
		Symbol: "ACME", Bias: catalyst.Long, EntryType: broker.EntryLimit,
		Quote: q, StopDistance: 1, TakeProfitDelta: 1, Qty: 10, TIF: broker.TIFDay,
	})
	if long.LimitPrice != 50.1 {
		t.Errorf("long LMT should rest at the ask, got %v", long.LimitPrice)
	}

	short := BuildBracket(BracketParams{
		Symbol: "ACME", Bias: catalyst.Short, EntryType: broker.EntryLimit,
		Quote: q, StopDistance: 1, TakeProfitDelta: 1, Qty: 10, TIF: broker.TIFDay,
	})
	if short.LimitPrice != 49.9 {
		t.Errorf("short LMT should rest at the bid, got %v", short.LimitPrice)
	}
}

func TestTouchPrice(t *testing.T) {
	q := broker.Quote{Bid: 49.9, Ask: 50.1}
	if got := TouchPrice(q, catalyst.Long); got != 50.1 {
		t.Errorf("long touch = %v, want ask", got)
	}
	if got := TouchPrice(q, catalyst.Short); got != 49.9 {
		t.Errorf("short touch = %v, want bid", got)
	}
}
