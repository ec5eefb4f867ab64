package interaction

import (
	"math"
	"testing"

	"github.com/TobiSchelling/secat/internal/sec"
)

const tol = 1e-9

var key = sec.GroupKey{ConditionID: "c", ReplicateID: "1", BaitID: "A", PreyID: "B"}

// trace returns points of one peptide starting at fraction first.
func trace(protein, peptide string, first int, values ...float64) []sec.Point {
	pts := make([]sec.Point, len(values))
	for i, v := range values {
		pts[i] = sec.Point{
			ConditionID: "c", ReplicateID: "1",
			ProteinID: protein, PeptideID: peptide,
			SecID: first + i, Intensity: v,
		}
	}
	return pts
}

func join(traces ...[]sec.Point) []sec.Point {
	var out []sec.Point
	for _, t := range traces {
		out = append(out, t...)
	}
	return out
}

// window spans fractions 1..5, the range of most fixtures below.
var window = Span{First: 1, Last: 5}

func params() sec.Params {
	p := sec.DefaultParams()
	p.MinimumPeptides = 1
	p.MinimumOverlap = 1
	return p
}

func near(a, b float64) bool { return math.Abs(a-b) < tol }

func TestLongestStretchPartialOverlap(t *testing.T) {
	inter := Intersection([]int{10, 11, 12, 13}, []int{12, 13, 14, 15})
	if len(inter) != 2 || inter[0] != 12 || inter[1] != 13 {
		t.Fatalf("expected intersection [12 13], got %v", inter)
	}
	if got := LongestStretch(inter); got != 2 {
		t.Errorf("expected longest overlap 2, got %d", got)
	}
}

func TestLongestStretchGap(t *testing.T) {
	if got := LongestStretch([]int{1, 2, 4, 5, 6, 9}); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
	if got := LongestStretch(nil); got != 0 {
		t.Errorf("expected 0 for empty input, got %d", got)
	}
}

func TestLongestStretchBounds(t *testing.T) {
	cases := [][]int{
		{1}, {3, 1, 2}, {5, 7, 9}, {1, 2, 3, 10, 11, 12, 13}, {40, 2, 41, 3, 42, 43},
	}
	for _, c := range cases {
		inter := Intersection(c, c)
		got := LongestStretch(inter)
		span := inter[len(inter)-1] - inter[0] + 1
		if got > len(inter) || got > span {
			t.Errorf("%v: longest %d exceeds cardinality %d or span %d", c, got, len(inter), span)
		}
	}
}

func TestIntersectionDeduplicates(t *testing.T) {
	got := Intersection([]int{3, 1, 1, 2}, []int{2, 2, 3, 4})
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("expected [2 3], got %v", got)
	}
}

func TestCorrelateSame(t *testing.T) {
	ones := []float64{1, 1, 1, 1}
	got := correlateSame(ones, ones)
	want := []float64{2, 3, 4, 3}
	for i := range want {
		if !near(got[i], want[i]) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestScoreNoSharedFractions(t *testing.T) {
	bait := trace("A", "a1", 10, 1, 2, 3)
	prey := trace("B", "b1", 20, 1, 2, 3)
	p := params()
	p.MinimumOverlap = 1
	p.MinimumPeptides = 1

	rec := Score(NewGroup(key, Span{First: 10, Last: 22}, bait, prey), p)
	if rec.Status != sec.StatusInsufficientSignal || !rec.Missing() {
		t.Errorf("expected missing insufficient_signal record, got %+v", rec)
	}
	if rec.GroupKey != key {
		t.Errorf("expected group key to be preserved, got %+v", rec.GroupKey)
	}
}

func TestScoreIdenticalTraces(t *testing.T) {
	bait := trace("A", "a1", 1, 1, 2, 3, 4, 5)
	prey := trace("B", "b1", 1, 1, 2, 3, 4, 5)

	rec := Score(NewGroup(key, window, bait, prey), params())
	if rec.Status != sec.StatusScored || rec.Features == nil {
		t.Fatalf("expected scored record, got %+v", rec)
	}
	f := rec.Features
	if f.XcorrShape == nil || !near(*f.XcorrShape, 1) {
		t.Errorf("expected xcorr_shape 1, got %v", f.XcorrShape)
	}
	if f.XcorrApex == nil || !near(*f.XcorrApex, 2) {
		t.Errorf("expected apex at center index 2, got %v", f.XcorrApex)
	}
	if f.XcorrShift != nil {
		t.Errorf("expected no shift without self pairs, got %v", *f.XcorrShift)
	}
	if f.MassRatio == nil || !near(*f.MassRatio, 1) {
		t.Errorf("expected mass ratio 1, got %v", f.MassRatio)
	}
	if f.MIC == nil || math.Abs(*f.MIC-0.970951) > 1e-5 {
		t.Errorf("expected mic ~0.97095, got %v", f.MIC)
	}
	if f.LongestOverlap != 5 || f.TotalIntersection != 5 {
		t.Errorf("expected overlap 5/5, got %d/%d", f.LongestOverlap, f.TotalIntersection)
	}
}

func TestScoreShiftFromSelfPairs(t *testing.T) {
	bait := join(
		trace("A", "a1", 1, 1, 2, 3, 4, 5),
		trace("A", "a2", 1, 2, 4, 6, 8, 10),
	)
	prey := trace("B", "b1", 1, 1, 2, 3, 4, 5)

	rec := Score(NewGroup(key, window, bait, prey), params())
	if rec.Features == nil || rec.Features.XcorrShift == nil {
		t.Fatalf("expected xcorr_shift, got %+v", rec)
	}
	if !near(*rec.Features.XcorrShift, 0) {
		t.Errorf("expected shift 0 for identical shapes, got %v", *rec.Features.XcorrShift)
	}
}

func TestScoreTooFewBaitPeptides(t *testing.T) {
	bait := join(
		trace("A", "a1", 1, 1, 2, 3, 4, 5),
		trace("A", "a2", 10, 1, 2, 3), // outside the shared fractions
	)
	prey := join(
		trace("B", "b1", 1, 1, 2, 3, 4, 5),
		trace("B", "b2", 1, 5, 4, 3, 2, 1),
	)
	p := params()
	p.MinimumPeptides = 2

	rec := Score(NewGroup(key, window, bait, prey), p)
	if rec.Status != sec.StatusInsufficientSignal || !rec.Missing() {
		t.Errorf("expected rejection with one bait peptide in the window, got %+v", rec)
	}
}

func TestScoreOverlapGate(t *testing.T) {
	bait := trace("A", "a1", 1, 1, 2, 3, 4, 5)
	prey := trace("B", "b1", 4, 1, 2, 3, 4, 5)
	p := params()

	p.MinimumOverlap = 2
	if rec := Score(NewGroup(key, window, bait, prey), p); rec.Missing() {
		t.Errorf("expected overlap of 2 to pass, got %+v", rec)
	}
	p.MinimumOverlap = 3
	if rec := Score(NewGroup(key, window, bait, prey), p); !rec.Missing() {
		t.Errorf("expected overlap of 2 to fail minimum 3, got %+v", rec)
	}
}

func TestScoreConstantRowIsMissingContribution(t *testing.T) {
	bait := trace("A", "a1", 1, 5, 5, 5, 5, 5)
	prey := trace("B", "b1", 1, 1, 2, 3, 4, 5)

	rec := Score(NewGroup(key, window, bait, prey), params())
	if rec.Status != sec.StatusScored {
		t.Fatalf("expected scored record, got %+v", rec)
	}
	f := rec.Features
	if f.XcorrShape != nil || f.XcorrApex != nil || f.XcorrShift != nil {
		t.Errorf("expected undefined correlation features, got %+v", f)
	}
	if f.MIC == nil || *f.MIC != 0 {
		t.Errorf("expected mic 0 for a constant row, got %v", f.MIC)
	}
	if f.MassRatio == nil || !near(*f.MassRatio, 0.6) {
		t.Errorf("expected mass ratio 0.6, got %v", f.MassRatio)
	}
}

func TestScoreSelfQuery(t *testing.T) {
	pts := join(
		trace("A", "a1", 1, 1, 3, 5, 3, 1),
		trace("A", "a2", 1, 2, 6, 9, 5, 2),
	)
	k := sec.GroupKey{ConditionID: "c", ReplicateID: "1", BaitID: "A", PreyID: "A"}
	rec := Score(NewGroup(k, window, pts, pts), params())
	if rec.Status != sec.StatusScored {
		t.Fatalf("expected bait==prey to be scored, got %+v", rec)
	}
	if !near(*rec.Features.MassRatio, 1) {
		t.Errorf("expected mass ratio 1, got %v", *rec.Features.MassRatio)
	}
}

func TestMassRatioRangeAndSymmetry(t *testing.T) {
	cases := [][2][][]float64{
		{{{2, 4, 6}}, {{1, 2, 3}}},
		{{{1, 0, 1}, {3, 3, 3}}, {{10, 20, 30}}},
		{{{0.5, 0.25}}, {{0.5, 0.25}}},
	}
	for i, c := range cases {
		ab := massRatio(c[0], c[1])
		ba := massRatio(c[1], c[0])
		if ab == nil || ba == nil {
			t.Fatalf("case %d: expected defined mass ratio", i)
		}
		if !(*ab > 0 && *ab <= 1) {
			t.Errorf("case %d: mass ratio %v outside (0,1]", i, *ab)
		}
		if !near(*ab, *ba) {
			t.Errorf("case %d: expected symmetric ratio, got %v and %v", i, *ab, *ba)
		}
	}
	if r := massRatio([][]float64{{2, 4, 6}}, [][]float64{{1, 2, 3}}); !near(*r, 0.5) {
		t.Errorf("expected 0.5, got %v", *r)
	}
	if r := massRatio([][]float64{{0, 0}}, [][]float64{{1, 2}}); r != nil {
		t.Errorf("expected undefined ratio for zero bait intensity, got %v", *r)
	}
}

func TestCombinedSNR(t *testing.T) {
	bait := [][]float64{{1, 2, 3}, {1, 1, 4}}
	prey := [][]float64{{7, 7, 7}, {2, 3, 4}}
	got := combinedSNR(bait, prey)
	if got == nil {
		t.Fatal("expected combined SNR")
	}
	if math.IsNaN(*got) || math.IsInf(*got, 0) {
		t.Errorf("expected finite SNR, got %v", *got)
	}
	if v := combinedSNR([][]float64{{1, 2, 3}}, nil); v != nil {
		t.Errorf("expected undefined SNR for a single pooled value, got %v", *v)
	}
}

func TestMIC(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6}
	if got := mic(x, x); !near(got, 1) {
		t.Errorf("expected mic(x, x) = 1, got %v", got)
	}
	if got := mic(x, []float64{3, 3, 3, 3, 3, 3}); got != 0 {
		t.Errorf("expected 0 against a constant, got %v", got)
	}
	y := []float64{2, 9, 1, 7, 3, 3}
	if a, b := mic(x, y), mic(y, x); !near(a, b) {
		t.Errorf("expected symmetric mic, got %v and %v", a, b)
	}
	if got := mic(x, y); got < 0 || got > 1 {
		t.Errorf("mic %v outside [0,1]", got)
	}
}

func TestMatrixFillsOnlyIntersection(t *testing.T) {
	pts := join(trace("A", "a1", 1, 1, 2, 3, 4, 5))
	m := newMatrix(pts, []int{2, 4}, Span{First: 1, Last: 6})
	want := []float64{0, 2, 0, 4, 0, 0}
	if len(m.rows) != 1 || len(m.rows[0]) != len(want) {
		t.Fatalf("expected 1x6 matrix, got %v", m.rows)
	}
	for i := range want {
		if m.rows[0][i] != want[i] {
			t.Errorf("cell %d: expected %v, got %v", i, want[i], m.rows[0][i])
		}
	}
	cols := m.columns([]int{2, 4})
	if cols[0][0] != 2 || cols[0][1] != 4 {
		t.Errorf("expected columns [2 4], got %v", cols[0])
	}
}

func TestMatrixWidensShortSpan(t *testing.T) {
	pts := trace("A", "a1", 1, 1, 2, 3, 4, 5)
	m := newMatrix(pts, []int{4, 5}, Span{First: 1, Last: 3})
	if m.first != 1 || len(m.rows[0]) != 5 {
		t.Errorf("expected columns 1..5, got first %d width %d", m.first, len(m.rows[0]))
	}
}

func TestFractionSpan(t *testing.T) {
	fractions := []sec.Fraction{
		{ConditionID: "c", ReplicateID: "1", SecID: 4},
		{ConditionID: "c", ReplicateID: "1", SecID: 9},
		{ConditionID: "d", ReplicateID: "1", SecID: 2},
	}
	if got := FractionSpan(fractions); got != (Span{First: 2, Last: 9}) {
		t.Errorf("expected span 2..9, got %+v", got)
	}
}

func TestScoreCorrelatesOverFullFractionRange(t *testing.T) {
	// Rising bait and falling prey share fractions 12..14. Inside that window
	// alone they look anti-correlated; over the run they peak together.
	bait := trace("A", "a1", 10, 1, 2, 3, 4, 5)
	prey := trace("B", "b1", 12, 5, 4, 3, 2, 1)

	rec := Score(NewGroup(key, Span{First: 1, Last: 30}, bait, prey), params())
	if rec.Status != sec.StatusScored {
		t.Fatalf("expected scored record, got %+v", rec)
	}
	f := rec.Features
	if f.XcorrShape == nil || *f.XcorrShape < 0.9 {
		t.Errorf("expected strong positive xcorr_shape, got %v", f.XcorrShape)
	}
	if f.XcorrApex == nil || !near(*f.XcorrApex, 15) {
		t.Errorf("expected apex at zero lag (15), got %v", f.XcorrApex)
	}
	if f.TotalIntersection != 3 || f.LongestOverlap != 3 {
		t.Errorf("expected overlap 3/3, got %d/%d", f.LongestOverlap, f.TotalIntersection)
	}

	narrow := Score(NewGroup(key, Span{First: 12, Last: 14}, bait, prey), params())
	if s := narrow.Features.XcorrShape; s == nil || *s > -0.99 {
		t.Errorf("expected anti-correlation inside the shared window only, got %v", s)
	}
}

func TestScoreSingleSharedFractionKeepsCorrelation(t *testing.T) {
	bait := trace("A", "a1", 3, 2, 4, 2)
	prey := trace("B", "b1", 5, 6, 3, 1)

	rec := Score(NewGroup(key, Span{First: 1, Last: 10}, bait, prey), params())
	if rec.Status != sec.StatusScored {
		t.Fatalf("expected scored record, got %+v", rec)
	}
	f := rec.Features
	if f.XcorrShape == nil || !near(*f.XcorrShape, 1) {
		t.Errorf("expected xcorr_shape 1 for aligned single-fraction rows, got %v", f.XcorrShape)
	}
	if f.XcorrApex == nil || !near(*f.XcorrApex, 5) {
		t.Errorf("expected apex at zero lag (5), got %v", f.XcorrApex)
	}
	if f.TotalIntersection != 1 {
		t.Errorf("expected one shared fraction, got %d", f.TotalIntersection)
	}
}
