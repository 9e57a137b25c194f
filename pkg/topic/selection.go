package topic

import (
	"cmp"
	"slices"
)

// Rank returns a copy of candidates ordered by score, highest first. Ties
// keep their input order.
func Rank(candidates []Candidate) []Candidate {
	ranked := slices.Clone(candidates)
	slices.SortStableFunc(ranked, func(a, b Candidate) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return ranked
}

// Select picks the highest scored candidate. It reports false when there is
// nothing to pick.
func Select(fresh []Candidate) (Candidate, bool) {
	if len(fresh) == 0 {
		return Candidate{}, false
	}
	return Rank(fresh)[0], true
}
