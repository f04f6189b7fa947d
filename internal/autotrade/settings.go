package autotrade

import (
	"strings"
	"sync"
	"time"

	"github.com/catalystlab/autotrader/internal/config"
	"github.com/catalystlab/autotrader/internal/symbols"
)

// Snapshot is an immutable copy of the runtime settings. Each pipeline
// run takes one at the start so a mid-run settings change cannot split a
// single decision across two configurations.
type Snapshot struct {
	Providers     map[string]struct{} // empty = accept all
	Watchlist     symbols.Watchlist
	WatchlistOnly bool
	NotionalUSD   float64
	MaxSpreadFrac float64
	EntryType     string
	TIF           string
	Cooldown      time.Duration // 0 = disabled (source behavior)
}

func (s Snapshot) providerAllowed(provider string) bool {
	if len(s.Providers) == 0 {
		return true
	}
	_, ok := s.Providers[strings.ToUpper(provider)]
	return ok
}

// Settings is the mutable configuration surface exposed to the
// presentation layer. All setters are safe for concurrent use.
type Settings struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewSettings(cfg config.Trading) *Settings {
	s := &Settings{}
	s.SetProviders(cfg.Providers)
	s.SetWatchlist(cfg.Watchlist)
	s.SetWatchlistOnly(cfg.WatchlistOnly)
	s.SetNotionalUSD(cfg.NotionalUSD)
	s.SetMaxSpreadFraction(cfg.MaxSpreadFrac)
	s.SetEntryType(cfg.EntryType)
	s.SetTIF(cfg.TIF)
	s.SetCooldown(time.Duration(cfg.CooldownSeconds) * time.Second)
	return s
}

func (s *Settings) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Settings) SetProviders(providers []string) {
	m := make(map[string]struct{}, len(providers))
	for _, p := range providers {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			m[p] = struct{}{}
		}
	}
	s.mu.Lock()
	s.snap.Providers = m
	s.mu.Unlock()
}

func (s *Settings) SetWatchlist(syms []string) {
	wl := symbols.NewWatchlist(syms)
	s.mu.Lock()
	s.snap.Watchlist = wl
	s.mu.Unlock()
}

func (s *Settings) SetWatchlistOnly(on bool) {
	s.mu.Lock()
	s.snap.WatchlistOnly = on
	s.mu.Unlock()
}

func (s *Settings) SetNotionalUSD(usd float64) {
	s.mu.Lock()
	s.snap.NotionalUSD = usd
	s.mu.Unlock()
}

func (s *Settings) SetMaxSpreadFraction(frac float64) {
	s.mu.Lock()
	s.snap.MaxSpreadFrac = frac
	s.mu.Unlock()
}

func (s *Settings) SetEntryType(entryType string) {
	s.mu.Lock()
	s.snap.EntryType = entryType
	s.mu.Unlock()
}

func (s *Settings) SetTIF(tif string) {
	s.mu.Lock()
	s.snap.TIF = tif
	s.mu.Unlock()
}

func (s *Settings) SetCooldown(d time.Duration) {
	s.mu.Lock()
	s.snap.Cooldown = d
	s.mu.Unlock()
}
