// Package design builds the comparison design: every (condition, replicate,
// bait, prey, decoy) group that can be scored.
package design

import (
	"sort"

	"github.com/TobiSchelling/secat/internal/sec"
)

type presenceKey struct {
	run       sec.Run
	proteinID string
}

// Enumerate crosses each query with every run in which both the bait and the
// prey have at least one filtered point. Runs missing either side are skipped
// for that query. Duplicate queries produce a single group.
func Enumerate(queries []sec.Query, filtered []sec.Point) []sec.GroupKey {
	present := make(map[presenceKey]bool)
	runSet := make(map[sec.Run]bool)
	for _, pt := range filtered {
		r := pt.Run()
		present[presenceKey{r, pt.ProteinID}] = true
		runSet[r] = true
	}

	runs := make([]sec.Run, 0, len(runSet))
	for r := range runSet {
		runs = append(runs, r)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Less(runs[j]) })

	seen := make(map[sec.GroupKey]bool)
	var keys []sec.GroupKey
	for _, r := range runs {
		for _, q := range queries {
			if !present[presenceKey{r, q.BaitID}] || !present[presenceKey{r, q.PreyID}] {
				continue
			}
			k := sec.GroupKey{
				ConditionID: r.ConditionID,
				ReplicateID: r.ReplicateID,
				BaitID:      q.BaitID,
				PreyID:      q.PreyID,
				Decoy:       q.Decoy,
			}
			if seen[k] {
				continue
			}
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}
