// Package journal appends an audit trail of submitted orders to a JSONL
// file. The core keeps no pending-intent state; this is the only durable
// record of what the pipeline sent.
package journal

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/catalystlab/autotrader/internal/broker"
)

type Entry struct {
	ClientID string             `json:"client_id"`
	Intent   broker.OrderIntent `json:"intent"`
	OrderID  int64              `json:"order_id,omitempty"`
	Status   string             `json:"status,omitempty"`
	Catalyst string             `json:"catalyst,omitempty"`
	At       time.Time          `json:"at"`
}

type Journal struct {
	path string
}

func New(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return &Journal{path: path}, nil
}

// Append writes one submission record.
func (j *Journal) Append(entry Entry) error {
	entry.At = time.Now().UTC()
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(data, '\n'))
	return err
}

// HasRecent reports whether an order with the same symbol and catalyst
// was journaled inside the window. Used only when the optional cooldown
// is enabled; corrupt lines are skipped, not fatal.
func (j *Journal) HasRecent(symbol, catalystKey string, window time.Duration) (bool, error) {
	f, err := os.Open(j.path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	cutoff := time.Now().UTC().Add(-window)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		if entry.At.Before(cutoff) {
			continue
		}
		if entry.Intent.Symbol == symbol && entry.Catalyst == catalystKey {
			return true, nil
		}
	}
	return false, scanner.Err()
}
