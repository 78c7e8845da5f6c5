package models

import "time"

// MatchResult is the outcome of selecting one event for a list of agenda names.
// SelectedEvent is nil when there were no candidates.
type MatchResult struct {
	SelectedEvent *RawEvent      `json:"selected_event"`
	MatchScores   map[string]int `json:"match_scores"`
}

// MatchJob is one unit of work on the event queue.
type MatchJob struct {
	SourceID    string     `json:"source_id"`
	Targets     []string   `json:"targets"`
	IgnoreNames []string   `json:"ignore_names,omitempty"`
	Events      []RawEvent `json:"events"`
	RequestedAt time.Time  `json:"requested_at"`
}
