package matchjson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"legistarevents/internal/logger"
	"legistarevents/internal/matchstate"
)

// Writer appends match records to a JSON lines file. Workers finish jobs out
// of order, so each batch is written ordered by match time and source id.
type Writer struct {
	mu   sync.Mutex
	file *os.File
}

// NewWriter creates a JSONL writer for match records.
func NewWriter(path string) (*Writer, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}

	logger.Infof("Match record JSON writer initialized: %s", path)
	return &Writer{file: f}, nil
}

// WriteRecords writes a batch of match records in a single append.
func (w *Writer) WriteRecords(_ context.Context, records []matchstate.Record) error {
	if len(records) == 0 {
		return nil
	}

	ordered := append([]matchstate.Record(nil), records...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].MatchedAt.Equal(ordered[j].MatchedAt) {
			return ordered[i].MatchedAt.Before(ordered[j].MatchedAt)
		}
		return ordered[i].SourceID < ordered[j].SourceID
	})

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, rec := range ordered {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to encode match record for %s: %w", rec.SourceID, err)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return fmt.Errorf("match record writer is closed")
	}
	if _, err := w.file.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write %d match records: %w", len(ordered), err)
	}
	return nil
}

// Close closes the output file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}
