package itemclickhouse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"legistarevents/pkg/models"
)

// Config configures the ClickHouse HTTP writer.
type Config struct {
	URL      string
	Database string
	Table    string
	Username string
	Password string
	Timeout  time.Duration
	Headers  map[string]string
}

// Row is one minutes item flattened with its event, for columnar storage.
type Row struct {
	EventID       int       `json:"legistar_event_id"`
	Body          string    `json:"body"`
	EventDatetime time.Time `json:"event_datetime"`
	ItemID        int       `json:"legistar_event_item_id"`
	Index         int       `json:"index"`
	Name          string    `json:"name"`
	Matter        *string   `json:"matter"`
	Decision      *string   `json:"decision"`
	Votes         int       `json:"votes"`
	Attachments   int       `json:"attachments"`
}

// Rows flattens events into one row per minutes item, keeping item order.
func Rows(events []*models.CanonicalEvent) []Row {
	var out []Row
	for _, ev := range events {
		if ev == nil {
			continue
		}
		for _, item := range ev.MinutesItems {
			out = append(out, Row{
				EventID:       ev.LegistarEventID,
				Body:          ev.Body,
				EventDatetime: ev.EventDatetime,
				ItemID:        item.LegistarEventItemID,
				Index:         item.Index,
				Name:          item.Name,
				Matter:        item.Matter,
				Decision:      item.Decision,
				Votes:         len(item.Votes),
				Attachments:   len(item.Attachments),
			})
		}
	}
	return out
}

// Writer sends minutes item rows to ClickHouse via HTTP JSONEachRow.
type Writer struct {
	endpoint string
	headers  map[string]string
	client   *http.Client
}

// NewWriter creates a ClickHouse HTTP writer.
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("clickhouse URL is empty")
	}
	if cfg.Database == "" {
		cfg.Database = "default"
	}
	if cfg.Table == "" {
		cfg.Table = "minutes_items"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	q := fmt.Sprintf("INSERT INTO %s.%s FORMAT JSONEachRow", quoteIdent(cfg.Database), quoteIdent(cfg.Table))
	base := strings.TrimRight(cfg.URL, "/")
	endpoint := base + "/?query=" + url.QueryEscape(q)

	headers := map[string]string{}
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	if cfg.Username != "" {
		headers["X-ClickHouse-User"] = cfg.Username
	}
	if cfg.Password != "" {
		headers["X-ClickHouse-Key"] = cfg.Password
	}

	return &Writer{
		endpoint: endpoint,
		headers:  headers,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// WriteEvents flattens and inserts a batch of canonical events.
func (w *Writer) WriteEvents(events []*models.CanonicalEvent) error {
	rows := Rows(events)
	if len(rows) == 0 {
		return nil
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("failed to marshal minutes item row: %w", err)
		}
	}

	req, err := http.NewRequest(http.MethodPost, w.endpoint, &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("clickhouse request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("clickhouse request failed with status %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}
	return nil
}

// Close releases resources.
func (w *Writer) Close() error {
	return nil
}

func quoteIdent(v string) string {
	if v == "" {
		return ""
	}
	v = strings.ReplaceAll(v, "`", "")
	return "`" + v + "`"
}
