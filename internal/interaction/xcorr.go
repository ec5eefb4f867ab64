package interaction

import "gonum.org/v1/gonum/floats"

// correlation is the result of correlating two equal-length rows.
type correlation struct {
	magnitude float64 // zero-lag correlation divided by the row length
	apex      int     // peak position in the centered correlation window
}

// correlateSame returns the cross-correlation c[k] = sum_i a[i+k]*v[i] for the
// len(a) lags centered on zero, i.e. lags -len/2 .. len-1-len/2.
func correlateSame(a, v []float64) []float64 {
	n := len(a)
	half := n / 2
	out := make([]float64, n)
	for j := 0; j < n; j++ {
		k := j - half
		var sum float64
		for i := 0; i < n; i++ {
			if i+k < 0 || i+k >= n {
				continue
			}
			sum += a[i+k] * v[i]
		}
		out[j] = sum
	}
	return out
}

// correlate computes the normalized zero-lag magnitude and the apex of two
// z-scored rows of equal length.
func correlate(a, b []float64) correlation {
	c := correlateSame(a, b)
	return correlation{
		magnitude: floats.Dot(a, b) / float64(len(a)),
		apex:      floats.MaxIdx(c),
	}
}

// crossPairs correlates every row of a with every row of b. Nil rows are
// degenerate and contribute nothing.
func crossPairs(a, b [][]float64) []correlation {
	var out []correlation
	for _, ra := range a {
		if ra == nil {
			continue
		}
		for _, rb := range b {
			if rb == nil {
				continue
			}
			out = append(out, correlate(ra, rb))
		}
	}
	return out
}

// selfPairs correlates every unordered pair of distinct rows of a.
func selfPairs(a [][]float64) []correlation {
	var out []correlation
	for i := 0; i < len(a); i++ {
		if a[i] == nil {
			continue
		}
		for j := i + 1; j < len(a); j++ {
			if a[j] == nil {
				continue
			}
			out = append(out, correlate(a[i], a[j]))
		}
	}
	return out
}

// xcorrScores holds the cross-correlation features of a group.
type xcorrScores struct {
	shape, apex, shift *float64
}

// xcorr derives the correlation features. Shape and apex come from bait-vs-prey pairs, shift compares the
// bait-vs-prey apex against each protein's own apex structure.
func xcorr(bait, prey [][]float64) xcorrScores {
	bp := crossPairs(bait, prey)
	if len(bp) == 0 {
		return xcorrScores{}
	}

	mags := make([]float64, len(bp))
	apexes := make([]float64, len(bp))
	for i, c := range bp {
		mags[i] = c.magnitude
		apexes[i] = float64(c.apex)
	}
	shape := floats.Sum(mags) / float64(len(mags))
	apex := floats.Sum(apexes) / float64(len(apexes))

	s := xcorrScores{shape: &shape, apex: &apex}

	var shifts []float64
	for _, self := range [][]correlation{selfPairs(bait), selfPairs(prey)} {
		if len(self) == 0 {
			continue
		}
		var sum float64
		for _, c := range self {
			sum += float64(c.apex)
		}
		d := apex - sum/float64(len(self))
		if d < 0 {
			d = -d
		}
		shifts = append(shifts, d)
	}
	if len(shifts) > 0 {
		shift := floats.Max(shifts)
		s.shift = &shift
	}
	return s
}
