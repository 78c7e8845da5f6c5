package eventjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"legistarevents/internal/logger"
	"legistarevents/pkg/models"
)

// Writer appends canonical events to a JSON lines file, one line per
// legistar_event_id. An event already written by this writer is skipped, so a
// meeting matched by several source documents lands once.
type Writer struct {
	mu      sync.Mutex
	file    *os.File
	written map[int]struct{}
}

// NewWriter creates a JSONL writer for canonical events.
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

	logger.Infof("Canonical event JSON writer initialized: %s", path)
	return &Writer{
		file:    f,
		written: make(map[int]struct{}),
	}, nil
}

// WriteEvents encodes the batch and appends it in a single write. On error
// nothing from the batch is recorded as written.
func (w *Writer) WriteEvents(events []*models.CanonicalEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return fmt.Errorf("canonical event writer is closed")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	batch := make(map[int]struct{}, len(events))
	skipped := 0
	for _, ev := range events {
		if ev == nil {
			continue
		}
		if _, ok := w.written[ev.LegistarEventID]; ok {
			skipped++
			continue
		}
		if _, ok := batch[ev.LegistarEventID]; ok {
			skipped++
			continue
		}
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("failed to encode canonical event %d (batch of %d): %w", ev.LegistarEventID, len(events), err)
		}
		batch[ev.LegistarEventID] = struct{}{}
	}
	if skipped > 0 {
		logger.Debugf("Skipped %d canonical events already written", skipped)
	}
	if buf.Len() == 0 {
		return nil
	}

	if _, err := w.file.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write %d canonical events: %w", len(batch), err)
	}
	for id := range batch {
		w.written[id] = struct{}{}
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
