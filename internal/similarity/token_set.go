// Package similarity scores how closely two collections of agenda strings agree.
package similarity

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Scorer compares two collections of strings and returns a score in [0,100].
// Implementations must be safe for concurrent use.
type Scorer interface {
	TokenSetRatio(a, b []string) int
}

// TokenSet scores collections by the overlap of their word sets.
type TokenSet struct{}

// TokenSetRatio splits both collections into word sets and compares the
// shared words against each side's remainder, keeping the best ratio.
func (TokenSet) TokenSetRatio(a, b []string) int {
	pa := process(strings.Join(a, " "))
	pb := process(strings.Join(b, " "))
	if pa == "" || pb == "" {
		return 0
	}

	ta := tokenSet(pa)
	tb := tokenSet(pb)

	var common, onlyA, onlyB []string
	for t := range ta {
		if _, ok := tb[t]; ok {
			common = append(common, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range tb {
		if _, ok := ta[t]; !ok {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	sect := strings.Join(common, " ")
	combinedA := strings.TrimSpace(sect + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(sect + " " + strings.Join(onlyB, " "))

	best := Ratio(sect, combinedA)
	if r := Ratio(sect, combinedB); r > best {
		best = r
	}
	if r := Ratio(combinedA, combinedB); r > best {
		best = r
	}
	return best
}

// Ratio is the edit-distance similarity of two strings in [0,100].
func Ratio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	dist := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * (1 - float64(dist)/float64(longest))))
}

// process lower-cases s and turns anything that is not a letter or digit
// into a space.
func process(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.TrimSpace(mapped)
}

func tokenSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, f := range strings.Fields(s) {
		out[f] = struct{}{}
	}
	return out
}
