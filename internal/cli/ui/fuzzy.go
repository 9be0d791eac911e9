package ui

import (
	"sort"
	"strings"
)

// DefaultMaxDistance is the largest edit distance Suggest reports.
const DefaultMaxDistance = 3

// Suggest returns up to max candidates within DefaultMaxDistance edits of
// target, closest first. Comparison ignores case.
//
//	Suggest("pyhton", []string{"typescript", "python"}, 3) // ["python"]
func Suggest(target string, candidates []string, max int) []string {
	type match struct {
		value    string
		distance int
	}
	var matches []match
	t := strings.ToLower(target)
	for _, c := range candidates {
		if d := LevenshteinDistance(t, strings.ToLower(c)); d <= DefaultMaxDistance {
			matches = append(matches, match{c, d})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	out := make([]string, 0, max)
	for i := 0; i < len(matches) && i < max; i++ {
		out = append(out, matches[i].value)
	}
	return out
}

// LevenshteinDistance is the minimum number of single-rune insertions,
// deletions or substitutions turning a into b.
func LevenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}
