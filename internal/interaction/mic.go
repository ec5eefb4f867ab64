package interaction

import (
	"math"
	"sort"
)

// micAlpha sets the grid budget B = n^alpha used by the MIC search.
const micAlpha = 0.6

// mic returns the maximal information coefficient of x and y, in [0, 1].
// The characteristic matrix is approximated by partitioning one axis into
// equal-frequency rows and optimizing the column boundaries on the other,
// in both orientations.
func mic(x, y []float64) float64 {
	n := len(x)
	if n < 2 || len(y) != n {
		return 0
	}
	b := math.Max(math.Pow(float64(n), micAlpha), 4)

	best := characteristicMax(x, y, b)
	if v := characteristicMax(y, x, b); v > best {
		best = v
	}
	return math.Min(best, 1)
}

func characteristicMax(x, y []float64, b float64) float64 {
	best := 0.0
	for rows := 2; rows <= int(b/2); rows++ {
		q, nq := equipartition(y, rows)
		if nq < 2 {
			continue
		}
		maxCols := int(b / float64(rows))
		mi := optimizeColumns(x, q, nq, maxCols)
		for cols := 2; cols <= maxCols; cols++ {
			v := mi[cols] / math.Log(math.Min(float64(rows), float64(cols)))
			if v > best {
				best = v
			}
		}
	}
	return best
}

// sortedIndex returns the permutation that orders v ascending, stable.
func sortedIndex(v []float64) []int {
	idx := make([]int, len(v))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return v[idx[i]] < v[idx[j]] })
	return idx
}

// equipartition assigns every point a row so that rows hold roughly equal
// numbers of points. Tied values always share a row. It returns the row of
// every point and the number of rows actually used.
func equipartition(y []float64, rows int) ([]int, int) {
	n := len(y)
	idx := sortedIndex(y)
	q := make([]int, n)

	desired := float64(n) / float64(rows)
	curr, h := 0, 0
	for i := 0; i < n; {
		s := 1
		for i+s < n && y[idx[i+s]] == y[idx[i]] {
			s++
		}
		if h != 0 && curr < rows-1 &&
			math.Abs(float64(h+s)-desired) >= math.Abs(float64(h)-desired) {
			curr++
			h = 0
			desired = float64(n-i) / float64(rows-curr)
		}
		for j := 0; j < s; j++ {
			q[idx[i+j]] = curr
		}
		i += s
		h += s
	}
	return q, curr + 1
}

// optimizeColumns finds, for every column count up to maxCols, the partition
// of x into columns that maximizes the mutual information with the fixed row
// assignment q. Column boundaries fall between distinct x values. The result
// is indexed by column count and is non-decreasing.
func optimizeColumns(x []float64, q []int, nq, maxCols int) []float64 {
	n := len(x)
	idx := sortedIndex(x)

	// cum[g][r]: points of row r among the first g groups of tied x values.
	cum := [][]int{make([]int, nq)}
	for i := 0; i < n; {
		s := 1
		for i+s < n && x[idx[i+s]] == x[idx[i]] {
			s++
		}
		next := append([]int(nil), cum[len(cum)-1]...)
		for j := 0; j < s; j++ {
			next[q[idx[i+j]]]++
		}
		cum = append(cum, next)
		i += s
	}
	k := len(cum) - 1
	total := float64(n)

	var hq float64
	for _, c := range cum[k] {
		if c > 0 {
			p := float64(c) / total
			hq -= p * math.Log(p)
		}
	}

	// cost is minus the contribution of the column spanning groups s..t-1
	// to the conditional entropy H(Q|P).
	cost := func(s, t int) float64 {
		tot := 0
		for r := 0; r < nq; r++ {
			tot += cum[t][r] - cum[s][r]
		}
		var sum float64
		for r := 0; r < nq; r++ {
			if c := cum[t][r] - cum[s][r]; c > 0 {
				sum += float64(c) / total * math.Log(float64(c)/float64(tot))
			}
		}
		return sum
	}

	negInf := math.Inf(-1)
	prev := make([]float64, k+1)
	prev[0] = negInf
	for t := 1; t <= k; t++ {
		prev[t] = cost(0, t)
	}

	mi := make([]float64, maxCols+1)
	for l := 2; l <= maxCols; l++ {
		cur := make([]float64, k+1)
		for t := range cur {
			cur[t] = negInf
		}
		for t := l; t <= k; t++ {
			for s := l - 1; s < t; s++ {
				if math.IsInf(prev[s], -1) {
					continue
				}
				if v := prev[s] + cost(s, t); v > cur[t] {
					cur[t] = v
				}
			}
		}
		if !math.IsInf(cur[k], -1) {
			mi[l] = math.Max(hq+cur[k], 0)
		}
		if mi[l] < mi[l-1] {
			mi[l] = mi[l-1]
		}
		prev = cur
	}
	return mi
}

// groupMIC averages the MIC of every bait row against every prey row.
func groupMIC(bait, prey [][]float64) *float64 {
	if len(bait) == 0 || len(prey) == 0 {
		return nil
	}
	var sum float64
	for _, b := range bait {
		for _, p := range prey {
			sum += mic(b, p)
		}
	}
	v := sum / float64(len(bait)*len(prey))
	return &v
}
