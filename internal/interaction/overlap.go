package interaction

import "sort"

// Intersection returns the sorted, de-duplicated fraction indices present in
// both a and b.
func Intersection(a, b []int) []int {
	inA := make(map[int]bool, len(a))
	for _, v := range a {
		inA[v] = true
	}
	seen := make(map[int]bool)
	var out []int
	for _, v := range b {
		if inA[v] && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

// LongestStretch returns the length of the longest run of consecutive
// integers in arr. A gap in the fraction numbering ends a run.
func LongestStretch(arr []int) int {
	set := make(map[int]bool, len(arr))
	for _, v := range arr {
		set[v] = true
	}

	longest := 0
	for v := range set {
		if set[v-1] {
			continue // not the start of a run
		}
		j := v
		for set[j] {
			j++
		}
		if j-v > longest {
			longest = j - v
		}
	}
	return longest
}
