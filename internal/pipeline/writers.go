package pipeline

import (
	"context"

	"legistarevents/internal/matchstate"
	"legistarevents/pkg/models"
)

// JobSource yields encoded match jobs. Pop returns nil, nil when no job is
// ready yet.
type JobSource interface {
	Pop(ctx context.Context) ([]byte, error)
	Close() error
}

// EventWriter writes canonical events.
type EventWriter interface {
	WriteEvents(events []*models.CanonicalEvent) error
	Close() error
}

// MatchRecorder stores match outcomes.
type MatchRecorder interface {
	WriteRecords(ctx context.Context, records []matchstate.Record) error
	Close() error
}

// MultiRecorder writes match records to every recorder in order.
type MultiRecorder []MatchRecorder

// WriteRecords writes to each recorder and returns the first error.
func (m MultiRecorder) WriteRecords(ctx context.Context, records []matchstate.Record) error {
	var first error
	for _, r := range m {
		if err := r.WriteRecords(ctx, records); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close closes every recorder and returns the first error.
func (m MultiRecorder) Close() error {
	var first error
	for _, r := range m {
		if err := r.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
