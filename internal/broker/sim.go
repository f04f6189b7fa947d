package broker

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// SimQuoteService serves simulated quotes for offline and paper runs.
// Prices random-walk around a base with a spread scaled to price level.
type SimQuoteService struct {
	mu     sync.Mutex
	bases  map[string]float64
	random *rand.Rand
}

func NewSimQuoteService() *SimQuoteService {
	return &SimQuoteService{
		bases: map[string]float64{
			"ACME": 50.00,
			"AAPL": 206.80,
			"NVDA": 450.00,
			"MSFT": 415.75,
		},
		random: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetBase adds or repositions a simulated symbol.
func (s *SimQuoteService) SetBase(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bases[strings.ToUpper(symbol)] = price
}

func (s *SimQuoteService) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	base, ok := s.bases[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return nil, NewBadSymbolError(symbol, "symbol not in sim universe")
	}

	// Per-minute random walk derived from ~2.5% daily volatility.
	move := s.random.NormFloat64() * 0.025 / math.Sqrt(390)
	mid := base * (1 + move)

	spreadPct := 0.0001 + s.random.Float64()*0.0004
	if base < 50 {
		spreadPct *= 2
	}
	half := mid * spreadPct / 2

	return &Quote{
		Bid:  roundTick(mid - half),
		Ask:  roundTick(mid + half),
		Last: roundTick(mid),
	}, nil
}

func roundTick(p float64) float64 {
	return math.Round(p*100) / 100
}

// SimPlacer acknowledges orders without touching a real broker. Order
// IDs increment from a fixed seed so paper-run logs are easy to follow.
type SimPlacer struct {
	nextID int64

	mu     sync.Mutex
	placed []OrderIntent
}

func NewSimPlacer() *SimPlacer {
	return &SimPlacer{nextID: 1000}
}

func (p *SimPlacer) PlaceBracket(ctx context.Context, intent OrderIntent) (PlaceResult, error) {
	return p.accept(intent)
}

func (p *SimPlacer) PlaceSimple(ctx context.Context, intent OrderIntent) (PlaceResult, error) {
	return p.accept(intent)
}

func (p *SimPlacer) Cancel(ctx context.Context, orderID int64) error { return nil }

func (p *SimPlacer) Replace(ctx context.Context, orderID int64, fields ReplaceFields) (PlaceResult, error) {
	return PlaceResult{OrderID: orderID, Status: "Submitted"}, nil
}

func (p *SimPlacer) accept(intent OrderIntent) (PlaceResult, error) {
	id := atomic.AddInt64(&p.nextID, 1)
	p.mu.Lock()
	p.placed = append(p.placed, intent)
	p.mu.Unlock()
	return PlaceResult{OrderID: id, Status: "PreSubmitted"}, nil
}

// Placed returns a copy of everything accepted so far; used by tests.
func (p *SimPlacer) Placed() []OrderIntent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]OrderIntent, len(p.placed))
	copy(out, p.placed)
	return out
}
