package journal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/catalystlab/autotrader/internal/broker"
)

func TestAppendAndHasRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "orders.jsonl")
	jnl, err := New(path)
	if err != nil {
		t.Fatal(err)
	}

	err = jnl.Append(Entry{
		ClientID: "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		Intent:   broker.OrderIntent{Symbol: "ACME", Side: broker.SideBuy, Qty: 99},
		OrderID:  1001,
		Status:   "PreSubmitted",
		Catalyst: "earnings_beat_guide_up",
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	recent, err := jnl.HasRecent("ACME", "earnings_beat_guide_up", time.Minute)
	if err != nil {
		t.Fatalf("HasRecent() error = %v", err)
	}
	if !recent {
		t.Error("expected fresh entry inside window")
	}

	recent, _ = jnl.HasRecent("ACME", "fda_approval", time.Minute)
	if recent {
		t.Error("different catalyst should not match")
	}
	recent, _ = jnl.HasRecent("NVDA", "earnings_beat_guide_up", time.Minute)
	if recent {
		t.Error("different symbol should not match")
	}
}

func TestHasRecentMissingFile(t *testing.T) {
	jnl, err := New(filepath.Join(t.TempDir(), "orders.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	recent, err := jnl.HasRecent("ACME", "earnings_beat_guide_up", time.Minute)
	if err != nil {
		t.Fatalf("HasRecent() error = %v", err)
	}
	if recent {
		t.Error("missing journal file should report no recent orders")
	}
}

func TestHasRecentSkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.jsonl")
	jnl, err := New(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("{garbage\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := jnl.Append(Entry{
		Intent:   broker.OrderIntent{Symbol: "ACME"},
		Catalyst: "merger_acquisition",
	}); err != nil {
		t.Fatal(err)
	}

	recent, err := jnl.HasRecent("ACME", "merger_acquisition", time.Minute)
	if err != nil {
		t.Fatalf("HasRecent() error = %v", err)
	}
	if !recent {
		t.Error("corrupt line should be skipped, valid line still found")
	}
}
