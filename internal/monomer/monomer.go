// Package monomer estimates the fraction at which each protein is expected to
// elute as a monomer in every run.
package monomer

import (
	"math"
	"sort"

	"github.com/TobiSchelling/secat/internal/sec"
)

// Key addresses a threshold by run and protein.
type Key struct {
	Run       sec.Run
	ProteinID string
}

// Thresholds maps (run, protein) to the monomer fraction index.
type Thresholds map[Key]int

// Lookup returns the threshold for a protein in a run.
func (t Thresholds) Lookup(run sec.Run, proteinID string) (int, bool) {
	v, ok := t[Key{Run: run, ProteinID: proteinID}]
	return v, ok
}

// Index builds a lookup table from a threshold list.
func Index(thresholds []sec.MonomerThreshold) Thresholds {
	t := make(Thresholds, len(thresholds))
	for _, m := range thresholds {
		t[Key{Run: sec.Run{ConditionID: m.ConditionID, ReplicateID: m.ReplicateID}, ProteinID: m.ProteinID}] = m.SecID
	}
	return t
}

// Calibration is the ordered fraction list of every run.
type Calibration map[sec.Run][]sec.Fraction

// NewCalibration groups fractions by run and sorts each run by fraction index.
func NewCalibration(fractions []sec.Fraction) Calibration {
	c := make(Calibration)
	for _, f := range fractions {
		c[f.Run()] = append(c[f.Run()], f)
	}
	for run := range c {
		fs := c[run]
		sort.Slice(fs, func(i, j int) bool { return fs[i].SecID < fs[j].SecID })
	}
	return c
}

// Runs returns the calibrated runs in sorted order.
func (c Calibration) Runs() []sec.Run {
	runs := make([]sec.Run, 0, len(c))
	for r := range c {
		runs = append(runs, r)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Less(runs[j]) })
	return runs
}

// Estimate computes one threshold per protein and run. The fraction whose
// calibrated weight is nearest to factor*MW is chosen (smallest index on ties)
// and then moved width/2 fractions earlier (integer division), stopping at the first
// fraction of the run.
func Estimate(proteins []sec.Protein, fractions []sec.Fraction, p sec.Params) []sec.MonomerThreshold {
	cal := NewCalibration(fractions)
	runs := cal.Runs()

	ordered := make([]sec.Protein, len(proteins))
	copy(ordered, proteins)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	shift := p.MonomerElutionWidth / 2

	out := make([]sec.MonomerThreshold, 0, len(runs)*len(ordered))
	for _, run := range runs {
		fs := cal[run]
		for _, protein := range ordered {
			pos := nearestFraction(fs, protein.MW*p.MonomerThresholdFactor)
			pos -= shift
			if pos < 0 {
				pos = 0
			}
			out = append(out, sec.MonomerThreshold{
				ConditionID: run.ConditionID,
				ReplicateID: run.ReplicateID,
				ProteinID:   protein.ID,
				SecID:       fs[pos].SecID,
			})
		}
	}
	return out
}

// nearestFraction returns the position in fs (sorted by SecID) whose SecMW
// is closest to target. The first position wins ties.
func nearestFraction(fs []sec.Fraction, target float64) int {
	best := 0
	bestDiff := math.Inf(1)
	for i, f := range fs {
		d := math.Abs(f.SecMW - target)
		if d < bestDiff {
			best = i
			bestDiff = d
		}
	}
	return best
}
