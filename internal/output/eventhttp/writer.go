package eventhttp

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"legistarevents/pkg/models"
)

// Headers describing each posted batch.
const (
	HeaderEventCount = "X-Legistar-Event-Count"
	HeaderEventIDs   = "X-Legistar-Event-Ids"
)

// Writer posts canonical events to a remote HTTP endpoint. Retries are left to
// the pipeline's flush loop.
type Writer struct {
	url    string
	client *resty.Client
}

// Config configures the HTTP writer.
type Config struct {
	URL     string
	Timeout time.Duration
	Headers map[string]string
}

// NewWriter creates an HTTP writer.
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("http output URL is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeaders(cfg.Headers)
	return &Writer{url: cfg.URL, client: client}, nil
}

// WriteEvents posts a batch of canonical events as one JSON array, with the
// batch size and event ids in headers.
func (w *Writer) WriteEvents(events []*models.CanonicalEvent) error {
	batch := make([]*models.CanonicalEvent, 0, len(events))
	ids := make([]string, 0, len(events))
	for _, ev := range events {
		if ev == nil {
			continue
		}
		batch = append(batch, ev)
		ids = append(ids, strconv.Itoa(ev.LegistarEventID))
	}
	if len(batch) == 0 {
		return nil
	}

	resp, err := w.client.R().
		SetHeader(HeaderEventCount, strconv.Itoa(len(batch))).
		SetHeader(HeaderEventIDs, strings.Join(ids, ",")).
		SetBody(batch).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("post %d canonical events: %w", len(batch), err)
	}
	if resp.StatusCode() >= 300 {
		return fmt.Errorf("post %d canonical events (ids %s): status %s", len(batch), strings.Join(ids, ","), resp.Status())
	}
	return nil
}

// Close releases HTTP resources.
func (w *Writer) Close() error {
	w.client.GetClient().CloseIdleConnections()
	return nil
}
