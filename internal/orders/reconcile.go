package orders

import "sync"

// Table is one consumer's reconciled copy of the order book, keyed by
// OrderID. Every consumer applies the identical merge rule, so two
// tables fed the same update sequence converge to the same state.
type Table struct {
	mu      sync.RWMutex
	records map[int64]OrderRecord
}

func NewTable() *Table {
	return &Table{records: map[int64]OrderRecord{}}
}

// Apply merges a partial update: fields present on the update overwrite,
// absent fields keep their current value; an unknown OrderID inserts a
// new record. Applying the same update twice is a no-op the second time.
// A nil update (unparseable bus payload) is ignored.
func (t *Table) Apply(update *OrderUpdate) {
	if update == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.records[update.OrderID]
	rec.OrderID = update.OrderID
	merge(&rec, update)
	t.records[update.OrderID] = rec
}

func merge(rec *OrderRecord, u *OrderUpdate) {
	if u.Symbol != nil {
		rec.Symbol = *u.Symbol
	}
	if u.ConID != nil {
		rec.ConID = *u.ConID
	}
	if u.Action != nil {
		rec.Action = *u.Action
	}
	if u.Qty != nil {
		rec.Qty = *u.Qty
	}
	if u.Type != nil {
		rec.Type = *u.Type
	}
	if u.LimitPrice != nil {
		rec.LimitPrice = *u.LimitPrice
	}
	if u.TIF != nil {
		rec.TIF = *u.TIF
	}
	if u.Status != nil {
		rec.Status = *u.Status
	}
	if u.Filled != nil {
		rec.Filled = *u.Filled
	}
	if u.Remaining != nil {
		rec.Remaining = *u.Remaining
	}
	if u.AvgFillPrice != nil {
		rec.AvgFillPrice = *u.AvgFillPrice
	}
}

// Load seeds the table from an authoritative open-orders fetch.
func (t *Table) Load(records []OrderRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, rec := range records {
		t.records[rec.OrderID] = rec
	}
}

// Get returns one record by ID.
func (t *Table) Get(orderID int64) (OrderRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.records[orderID]
	return rec, ok
}

// Snapshot returns a copy of the table for readers.
func (t *Table) Snapshot() map[int64]OrderRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[int64]OrderRecord, len(t.records))
	for id, rec := range t.records {
		out[id] = rec
	}
	return out
}

// Len returns the number of tracked orders.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}
