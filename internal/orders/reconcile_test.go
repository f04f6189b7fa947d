package orders

import (
	"reflect"
	"testing"
)

func strp(s string) *string    { return &s }
func f64p(f float64) *float64  { return &f }
func i64p(i int64) *int64      { return &i }

func TestTableApplyInsertAndMerge(t *testing.T) {
	tbl := NewTable()

	// First sighting inserts.
	tbl.Apply(&OrderUpdate{
		OrderID: 42,
		Symbol:  strp("ACME"),
		Action:  strp("BUY"),
		Qty:     f64p(99),
		Status:  strp("PreSubmitted"),
	})

	rec, ok := tbl.Get(42)
	if !ok {
		t.Fatal("record not inserted")
	}
	if rec.Symbol != "ACME" || rec.Qty != 99 || rec.Status != "PreSubmitted" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	// Partial update overwrites present fields, preserves absent ones.
	tbl.Apply(&OrderUpdate{
		OrderID:   42,
		Status:    strp("Filled"),
		Filled:    f64p(99),
		Remaining: f64p(0),
	})

	rec, _ = tbl.Get(42)
	if rec.Status != "Filled" || rec.Filled != 99 || rec.Remaining != 0 {
		t.Errorf("update fields not applied: %+v", rec)
	}
	if rec.Symbol != "ACME" || rec.Action != "BUY" || rec.Qty != 99 {
		t.Errorf("absent fields not preserved: %+v", rec)
	}
}

func TestTableApplyIdempotent(t *testing.T) {
	update := &OrderUpdate{
		OrderID: 7,
		Symbol:  strp("NVDA"),
		Status:  strp("Submitted"),
		ConID:   i64p(4815162342),
	}

	tbl := NewTable()
	tbl.Apply(update)
	once, _ := tbl.Get(7)

	tbl.Apply(update)
	twice, _ := tbl.Get(7)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("merge not idempotent: %+v vs %+v", once, twice)
	}
}

// Two reconcilers fed the identical sequence converge to identical
// tables, however many fields each update carries.
func TestTableConvergence(t *testing.T) {
	sequence := []*OrderUpdate{
		{OrderID: 1, Symbol: strp("ACME"), Action: strp("BUY"), Qty: f64p(99), Status: strp("PreSubmitted")},
		{OrderID: 2, Symbol: strp("NVDA"), Action: strp("SELL"), Qty: f64p(10), Status: strp("Submitted")},
		{OrderID: 1, Status: strp("Submitted")},
		{OrderID: 1, Filled: f64p(50), Remaining: f64p(49), Status: strp("Submitted")},
		nil, // unparseable payload tick: ignored by the reconciler
		{OrderID: 2, Status: strp("CANCELLED")},
		{OrderID: 1, Filled: f64p(99), Remaining: f64p(0), Status: strp("FILLED"), AvgFillPrice: f64p(50.12)},
	}

	a, b := NewTable(), NewTable()
	for _, u := range sequence {
		a.Apply(u)
		b.Apply(u)
	}

	if !reflect.DeepEqual(a.Snapshot(), b.Snapshot()) {
		t.Errorf("tables diverged:\n a=%+v\n b=%+v", a.Snapshot(), b.Snapshot())
	}
	if a.Len() != 2 {
		t.Errorf("Len() = %d, want 2", a.Len())
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tbl := NewTable()
	tbl.Apply(&OrderUpdate{OrderID: 1, Symbol: strp("ACME")})

	snap := tbl.Snapshot()
	snap[1] = OrderRecord{OrderID: 1, Symbol: "MUTATED"}

	rec, _ := tbl.Get(1)
	if rec.Symbol != "ACME" {
		t.Error("snapshot mutation leaked into table")
	}
}

func TestIsTerminal(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"FILLED", true},
		{"Filled", true},
		{"CANCELLED", true},
		{"INACTIVE", true},
		{"ApiCancelled", true},
		{"APICANCELPENDING", true},
		{"Submitted", false},
		{"PreSubmitted", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsTerminal(tt.status); got != tt.want {
			t.Errorf("IsTerminal(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
