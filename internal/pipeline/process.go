package pipeline

import (
	"errors"
	"fmt"
	"time"

	"legistarevents/internal/matcher"
	"legistarevents/internal/normalizer"
	"legistarevents/pkg/models"
)

// Outcome is the result of processing one match job.
type Outcome struct {
	SourceID string
	Match    models.MatchResult
	Event    *models.CanonicalEvent
	Ignored  int
}

// Processor matches a job's candidates and normalizes the selected event.
type Processor struct {
	matcher  *matcher.Matcher
	targets  []string
	ignore   []string
	location *time.Location
}

// NewProcessor creates a processor. defaultTargets and defaultIgnore apply to
// jobs that carry none of their own.
func NewProcessor(m *matcher.Matcher, defaultTargets, defaultIgnore []string, loc *time.Location) *Processor {
	if m == nil {
		m = matcher.New(nil)
	}
	return &Processor{
		matcher:  m,
		targets:  append([]string(nil), defaultTargets...),
		ignore:   append([]string(nil), defaultIgnore...),
		location: loc,
	}
}

// Process runs one job. A job with no candidates yields an Outcome with a nil
// Event and no error. Candidates must carry distinct, non-null EventId values
// since match scores are keyed by them.
func (p *Processor) Process(job *models.MatchJob) (Outcome, error) {
	targets := job.Targets
	if len(targets) == 0 {
		targets = p.targets
	}
	ignore := job.IgnoreNames
	if len(ignore) == 0 {
		ignore = p.ignore
	}

	out := Outcome{SourceID: job.SourceID}
	if err := checkCandidates(job.Events); err != nil {
		out.Match = models.MatchResult{MatchScores: map[string]int{}}
		return out, &InvalidJobError{SourceID: job.SourceID, Err: err}
	}
	out.Match = p.matcher.Match(targets, job.Events)
	if out.Match.SelectedEvent == nil {
		return out, nil
	}

	ev, err := normalizer.New(normalizer.Config{IgnoreNames: ignore, Location: p.location}).Normalize(out.Match.SelectedEvent)
	if err != nil {
		return out, err
	}
	out.Event = ev
	out.Ignored = countIgnored(out.Match.SelectedEvent, ignore)
	return out, nil
}

// InvalidJobError rejects a job before matching.
type InvalidJobError struct {
	SourceID string
	Err      error
}

func (e *InvalidJobError) Error() string {
	return fmt.Sprintf("invalid match job %s: %v", e.SourceID, e.Err)
}

func (e *InvalidJobError) Unwrap() error {
	return e.Err
}

func checkCandidates(events []models.RawEvent) error {
	seen := make(map[string]int, len(events))
	for i := range events {
		id := events[i].EventID
		if id.IsNull() {
			return fmt.Errorf("candidate %d has no EventId", i)
		}
		key := id.Key()
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("candidates %d and %d share EventId %s", prev, i, key)
		}
		seen[key] = i
	}
	return nil
}

func countIgnored(ev *models.RawEvent, ignore []string) int {
	if len(ignore) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(ignore))
	for _, name := range ignore {
		set[name] = struct{}{}
	}
	n := 0
	for _, item := range ev.Items {
		if name, ok := item.DisplayName(); ok {
			if _, skip := set[name]; skip {
				n++
			}
		}
	}
	return n
}

// ErrorKind labels a normalization error for metrics and logs.
func ErrorKind(err error) string {
	var perr *normalizer.ParseError
	var merr *normalizer.MissingFieldError
	var ierr *normalizer.InvalidFieldError
	var jerr *InvalidJobError
	switch {
	case errors.As(err, &jerr):
		return "invalid_job"
	case errors.As(err, &perr):
		return "parse"
	case errors.As(err, &merr):
		return "missing_field"
	case errors.As(err, &ierr):
		return "invalid_field"
	default:
		return "other"
	}
}
