package retrieval

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

type candidate struct {
	chunk int
	score float64
}

// closeMatches compares the question with every sentence unit by character
// sequence ratio and returns up to n candidates at or above cutoff, best first.
// Equal scores keep corpus order.
func closeMatches(question string, units [][]string, n int, cutoff float64) []candidate {
	m := difflib.NewMatcher(nil, nil)
	m.SetSeq2(runeStrings(strings.ToLower(question)))

	var found []candidate
	for i, chunkUnits := range units {
		for _, u := range chunkUnits {
			m.SetSeq1(runeStrings(u))
			if m.RealQuickRatio() < cutoff || m.QuickRatio() < cutoff {
				continue
			}
			if r := m.Ratio(); r >= cutoff {
				found = append(found, candidate{chunk: i, score: r})
			}
		}
	}

	sort.SliceStable(found, func(a, b int) bool { return found[a].score > found[b].score })
	if len(found) > n {
		found = found[:n]
	}
	return found
}

func runeStrings(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
