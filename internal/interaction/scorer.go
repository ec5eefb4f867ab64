// Package interaction scores the co-elution of one bait/prey comparison group.
package interaction

import (
	"fmt"

	"github.com/TobiSchelling/secat/internal/sec"
)

// Row is one filtered chromatogram point tagged with its side of the query.
type Row struct {
	sec.Point
	IsBait bool
}

// Span is the inclusive range of fraction ids the intensity matrices are laid
// over.
type Span struct {
	First int
	Last  int
}

// FractionSpan returns the lowest to highest fraction id over all runs.
func FractionSpan(fractions []sec.Fraction) Span {
	if len(fractions) == 0 {
		return Span{}
	}
	s := Span{First: fractions[0].SecID, Last: fractions[0].SecID}
	for _, f := range fractions[1:] {
		s.First = min(s.First, f.SecID)
		s.Last = max(s.Last, f.SecID)
	}
	return s
}

// Group holds every filtered point of a bait and a prey protein in one run.
type Group struct {
	Key  sec.GroupKey
	Span Span
	Rows []Row
}

// NewGroup tags bait and prey points for key. When bait and prey are the
// same protein both sides carry the same points.
func NewGroup(key sec.GroupKey, span Span, bait, prey []sec.Point) Group {
	rows := make([]Row, 0, len(bait)+len(prey))
	for _, pt := range bait {
		rows = append(rows, Row{Point: pt, IsBait: true})
	}
	for _, pt := range prey {
		rows = append(rows, Row{Point: pt})
	}
	return Group{Key: key, Span: span, Rows: rows}
}

func (g Group) split() (bait, prey []sec.Point) {
	for _, r := range g.Rows {
		if r.IsBait {
			bait = append(bait, r.Point)
		} else {
			prey = append(prey, r.Point)
		}
	}
	return bait, prey
}

func secIDs(points []sec.Point) []int {
	ids := make([]int, len(points))
	for i, pt := range points {
		ids[i] = pt.SecID
	}
	return ids
}

// Score computes the features of one group. Groups that fail the overlap or
// peptide gates yield an insufficient_signal record without features.
func Score(g Group, p sec.Params) sec.ScoreRecord {
	rec := sec.ScoreRecord{GroupKey: g.Key}
	reject := func(format string, args ...any) sec.ScoreRecord {
		rec.Status = sec.StatusInsufficientSignal
		rec.Detail = fmt.Sprintf(format, args...)
		return rec
	}

	baitPoints, preyPoints := g.split()
	inter := Intersection(secIDs(baitPoints), secIDs(preyPoints))
	if len(inter) == 0 {
		return reject("no shared fractions")
	}
	longest := LongestStretch(inter)
	if longest < p.MinimumOverlap {
		return reject("overlap %d below %d", longest, p.MinimumOverlap)
	}

	bait := newMatrix(baitPoints, inter, g.Span)
	prey := newMatrix(preyPoints, inter, g.Span)
	if n := len(bait.peptides); n < p.MinimumPeptides {
		return reject("%d bait peptides below %d", n, p.MinimumPeptides)
	}
	if n := len(prey.peptides); n < p.MinimumPeptides {
		return reject("%d prey peptides below %d", n, p.MinimumPeptides)
	}

	xc := xcorr(bait.zscored(), prey.zscored())
	rec.Status = sec.StatusScored
	rec.Features = &sec.Features{
		XcorrShape:        xc.shape,
		XcorrShift:        xc.shift,
		XcorrApex:         xc.apex,
		MIC:               groupMIC(bait.columns(inter), prey.columns(inter)),
		MassRatio:         massRatio(bait.rows, prey.rows),
		SNR:               combinedSNR(bait.rows, prey.rows),
		LongestOverlap:    longest,
		TotalIntersection: len(inter),
	}
	return rec
}
