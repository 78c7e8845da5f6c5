package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"legistarevents/internal/matcher"
	"legistarevents/internal/matchstate"
	"legistarevents/internal/pipeline"
	"legistarevents/internal/similarity"
	transform "legistarevents/internal/transform/legistar"
	"legistarevents/pkg/models"
)

// matchReport is the output of the match command.
type matchReport struct {
	SourceID string                 `json:"source_id,omitempty"`
	Match    models.MatchResult     `json:"match"`
	Event    *models.CanonicalEvent `json:"event"`
	Error    string                 `json:"error,omitempty"`
}

func runMatch(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("match", flag.ContinueOnError)
	eventsPath := fs.String("events", "", "JSON file with one raw event or an array of raw events")
	targetsPath := fs.String("targets-file", "", "File with one target name per line")
	targets := fs.String("targets", "", "Comma-separated target names")
	ignore := fs.String("ignore", "", "Comma-separated item names to drop")
	timezone := fs.String("timezone", "", "IANA time zone of event dates (default UTC)")
	sourceID := fs.String("source-id", "", "Optional identifier echoed in the output")
	output := fs.String("output", "", "Write the report to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(*eventsPath) == "" {
		fmt.Fprintln(os.Stderr, "match: -events is required")
		return 2
	}

	data, err := os.ReadFile(*eventsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read events: %v\n", err)
		return 1
	}
	events, err := transform.ParseEvents(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse events: %v\n", err)
		return 1
	}

	names := splitList(*targets)
	if strings.TrimSpace(*targetsPath) != "" {
		raw, err := os.ReadFile(*targetsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read targets: %v\n", err)
			return 1
		}
		names = append(names, transform.ParseTargets(raw)...)
	}

	loc := time.UTC
	if tz := strings.TrimSpace(*timezone); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid timezone: %v\n", err)
			return 2
		}
	}

	processor := pipeline.NewProcessor(matcher.New(similarity.TokenSet{}), nil, nil, loc)
	outcome, procErr := processor.Process(&models.MatchJob{
		SourceID:    *sourceID,
		Targets:     names,
		IgnoreNames: splitList(*ignore),
		Events:      events,
	})

	report := matchReport{SourceID: *sourceID, Match: outcome.Match, Event: outcome.Event}
	if procErr != nil {
		report.Error = fmt.Sprintf("%s: %v", pipeline.ErrorKind(procErr), procErr)
	}

	if strings.TrimSpace(*output) != "" {
		if err := writeJSONFile(*output, report); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
			return 1
		}
	} else {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintf(os.Stderr, "failed to encode report: %v\n", err)
			return 1
		}
	}

	if procErr != nil {
		return 1
	}
	return 0
}

func runHistory(args []string) int {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	configArg := fs.String("config", "", "Config file path")
	since := fs.Duration("since", 24*time.Hour, "How far back to list match outcomes")
	limit := fs.Int64("limit", 100, "Maximum number of records")
	sourceID := fs.String("source-id", "", "Show only the latest outcome for this source")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, _ := loadConfig(*configArg)
	store, err := stateStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect match state store: %v\n", err)
		return 1
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var records []matchstate.Record
	if id := strings.TrimSpace(*sourceID); id != "" {
		rec, err := store.Latest(ctx, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read match state: %v\n", err)
			return 1
		}
		if rec != nil {
			records = append(records, *rec)
		}
	} else {
		records, err = store.FetchSince(ctx, time.Now().Add(-*since), *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read match state: %v\n", err)
			return 1
		}
	}

	enc := json.NewEncoder(os.Stdout)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			fmt.Fprintf(os.Stderr, "failed to encode record: %v\n", err)
			return 1
		}
	}
	return 0
}

// parseWindow resolves the fetch window. Empty begin means now; empty end
// means begin + window.
func parseWindow(begin, end string, window time.Duration, loc *time.Location, now time.Time) (time.Time, time.Time, error) {
	start := now.In(loc)
	if strings.TrimSpace(begin) != "" {
		t, err := parseWindowTime(begin, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("begin: %w", err)
		}
		start = t
	}
	stop := start.Add(window)
	if strings.TrimSpace(end) != "" {
		t, err := parseWindowTime(end, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("end: %w", err)
		}
		stop = t
	}
	if !stop.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end %s is not after begin %s", stop.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return start, stop, nil
}

func parseWindowTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", raw, loc)
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		v := strings.TrimSpace(p)
		if v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func writeJSONFile(path string, v interface{}) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
