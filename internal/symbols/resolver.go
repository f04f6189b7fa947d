// Package symbols maps news items to instrument identifiers.
package symbols

import (
	"strings"

	"github.com/catalystlab/autotrader/internal/newsfeed"
)

// Watchlist is a set of uppercase ticker symbols.
type Watchlist map[string]struct{}

func NewWatchlist(symbols []string) Watchlist {
	w := make(Watchlist, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			w[s] = struct{}{}
		}
	}
	return w
}

func (w Watchlist) Contains(symbol string) bool {
	_, ok := w[strings.ToUpper(symbol)]
	return ok
}

func (w Watchlist) Symbols() []string {
	out := make([]string, 0, len(w))
	for s := range w {
		out = append(out, s)
	}
	return out
}

// Resolve returns the instrument a news item applies to. A symbol carried
// on the item wins. Provider-wide items fall back to scanning the
// headline for a watchlist symbol appearing as a standalone token.
// Deliberately conservative: never infers a symbol outside the watchlist.
func Resolve(item newsfeed.Item, watchlist Watchlist) (string, bool) {
	if s := strings.ToUpper(strings.TrimSpace(item.Symbol)); s != "" {
		return s, true
	}
	if item.Scope != newsfeed.ScopeProvider {
		return "", false
	}
	for sym := range watchlist {
		if containsToken(item.Headline, sym) {
			return sym, true
		}
	}
	return "", false
}

// containsToken reports whether sym appears in text bounded by
// non-alphabetic runes or the string edges. Case-insensitive, so "Acme
// beats" matches watchlist entry ACME but "MACMEX" does not.
func containsToken(text, sym string) bool {
	if sym == "" {
		return false
	}
	upper := strings.ToUpper(text)
	for start := 0; ; {
		i := strings.Index(upper[start:], sym)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(sym)
		leftOK := i == 0 || !isAlpha(upper[i-1])
		rightOK := end == len(upper) || !isAlpha(upper[end])
		if leftOK && rightOK {
			return true
		}
		start = i + 1
	}
}

func isAlpha(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
