package risk

import "math"

// Size converts a notional budget into a whole-share quantity:
// max(1, floor(notional/price)) for a positive reference price. A
// non-positive price returns 0, which callers must treat as "do not
// trade".
func Size(notionalUSD, referencePrice float64) int {
	if referencePrice <= 0 {
		return 0
	}
	qty := int(math.Floor(notionalUSD / referencePrice))
	if qty < 1 {
		qty = 1
	}
	return qty
}
