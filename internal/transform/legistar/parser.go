// Package legistar decodes Legistar payloads and queued match jobs.
package legistar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"legistarevents/internal/logger"
	"legistarevents/pkg/models"
)

// ParseJob decodes one queued match job.
func ParseJob(data []byte) (*models.MatchJob, error) {
	var job models.MatchJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode match job: %w", err)
	}
	if strings.TrimSpace(job.SourceID) == "" {
		return nil, fmt.Errorf("match job has no source_id")
	}
	for i := range job.Events {
		warnIfSparse(&job.Events[i])
	}
	return &job, nil
}

// EncodeJob serializes a match job for the queue.
func EncodeJob(job *models.MatchJob) ([]byte, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("encode match job: %w", err)
	}
	return data, nil
}

// ParseEvents decodes either a JSON array of events or a single event object.
func ParseEvents(data []byte) ([]models.RawEvent, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty event payload")
	}

	var events []models.RawEvent
	if trimmed[0] == '{' {
		var ev models.RawEvent
		if err := json.Unmarshal(trimmed, &ev); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		events = append(events, ev)
	} else if err := json.Unmarshal(trimmed, &events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}

	for i := range events {
		warnIfSparse(&events[i])
	}
	return events, nil
}

// ParseTargets reads agenda item names, one per line. Blank lines and lines
// starting with # are skipped.
func ParseTargets(data []byte) []string {
	lines := strings.Split(string(data), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		v := strings.TrimRight(line, "\r")
		if strings.TrimSpace(v) == "" || strings.HasPrefix(strings.TrimSpace(v), "#") {
			continue
		}
		out = append(out, v)
	}
	return out
}

func warnIfSparse(ev *models.RawEvent) {
	if !ev.EventID.Present {
		logger.Warnf("Legistar event without EventId (body=%s)", ev.BodyName.Key())
		return
	}
	if len(ev.Items) == 0 {
		logger.Debugf("Legistar event %s has no event items", ev.EventID.Key())
	}
}
