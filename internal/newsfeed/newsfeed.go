package newsfeed

import (
	"context"
	"strings"
)

// Scope says whether an item arrived on a provider-wide or per-symbol
// subscription. Provider-wide items usually carry no symbol.
const (
	ScopeProvider = "provider"
	ScopeSymbol   = "symbol"
)

// Item is one inbound news event. Immutable once received.
type Item struct {
	Symbol    string `json:"symbol,omitempty"`
	Provider  string `json:"provider"`
	ArticleID string `json:"article_id"`
	Headline  string `json:"headline"`
	Time      string `json:"time"`
	TS        int64  `json:"ts"`
	Scope     string `json:"scope"`
}

// Source is a push feed of news items. Start returns the delivery
// channel; the channel closes after Close or context cancellation.
type Source interface {
	Start(ctx context.Context) (<-chan Item, error)
	Close() error
}

// Normalize uppercases the symbol and defaults the scope so downstream
// code can rely on both.
func Normalize(item Item) Item {
	item.Symbol = strings.ToUpper(strings.TrimSpace(item.Symbol))
	if item.Scope == "" {
		if item.Symbol != "" {
			item.Scope = ScopeSymbol
		} else {
			item.Scope = ScopeProvider
		}
	}
	return item
}
