// Package utils holds small cross-cutting helpers shared by the Entity
// Managers and the Command Boundary that don't warrant their own
// package.
package utils

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// RankByFuzzyMatch filters candidates to those fuzzy-matching term and
// orders survivors by fuzzysearch's relevance ranking, most relevant
// first. Used by the list_parts free-text filter (PartStore.List)
// when a caller supplies a non-empty search term; callers fall back to
// unfiltered, ID-ordered listing when term is empty.
func RankByFuzzyMatch(term string, candidates []string) []string {
	if term == "" {
		return candidates
	}
	matches := fuzzy.RankFindFold(term, candidates)
	sort.Sort(matches)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Target
	}
	return out
}

// MatchesFuzzy reports whether term fuzzy-matches candidate, case
// insensitively. Used for single-value filters where a full ranked
// pass over a slice is unnecessary.
func MatchesFuzzy(term, candidate string) bool {
	if term == "" {
		return true
	}
	return fuzzy.MatchFold(term, candidate)
}
