// Package matcher picks the Legistar event whose agenda best matches a list of
// agenda item names collected from another system.
package matcher

import (
	"strings"

	"legistarevents/internal/similarity"
	"legistarevents/pkg/models"
)

// Matcher selects the best candidate event for a list of target names.
type Matcher struct {
	scorer similarity.Scorer
}

// New creates a matcher. A nil scorer falls back to token-set similarity.
func New(scorer similarity.Scorer) *Matcher {
	if scorer == nil {
		scorer = similarity.TokenSet{}
	}
	return &Matcher{scorer: scorer}
}

// Match scores every candidate against targets and returns the first
// candidate holding the highest score.
//
// Targets are lower-cased before scoring; candidate display names are passed
// through untouched. A single candidate is returned with a score of 100
// without consulting the scorer. No candidates yields a nil selection and an
// empty score map. The selected event is a deep copy; candidates are never
// modified.
func (m *Matcher) Match(targets []string, candidates []models.RawEvent) models.MatchResult {
	switch len(candidates) {
	case 0:
		return models.MatchResult{MatchScores: map[string]int{}}
	case 1:
		selected := candidates[0].Clone()
		return models.MatchResult{
			SelectedEvent: &selected,
			MatchScores:   map[string]int{selected.EventID.Key(): 100},
		}
	}

	lowered := make([]string, len(targets))
	for i, t := range targets {
		lowered[i] = strings.ToLower(t)
	}

	scores := make(map[string]int, len(candidates))
	best := -1
	bestIdx := -1
	for i := range candidates {
		score := m.scorer.TokenSetRatio(lowered, candidates[i].DisplayNames())
		scores[candidates[i].EventID.Key()] = score
		if score > best {
			best = score
			bestIdx = i
		}
	}

	selected := candidates[bestIdx].Clone()
	return models.MatchResult{SelectedEvent: &selected, MatchScores: scores}
}
