// Package chromatogram cleans raw peptide intensity traces before scoring.
package chromatogram

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/TobiSchelling/secat/internal/monomer"
	"github.com/TobiSchelling/secat/internal/sec"
)

// MinimumObservations is the smallest trace for which SNR is defined.
const MinimumObservations = 3

// Result holds the filtered points and what was removed on the way.
type Result struct {
	Points []sec.Point

	Traces          int // traces seen
	ShortTraces     int // fewer than MinimumObservations points
	LowSNRTraces    int // SNR undefined or below the minimum
	NonPositive     int // points removed after mean-centering
	MonomerMasked   int // points at or after the monomer threshold
	NoThreshold     int // points of proteins without a threshold in their run
	SurvivingTraces int
}

type traceKey struct {
	run       sec.Run
	proteinID string
	peptideID string
}

func (k traceKey) less(o traceKey) bool {
	if k.run != o.run {
		return k.run.Less(o.run)
	}
	if k.proteinID != o.proteinID {
		return k.proteinID < o.proteinID
	}
	return k.peptideID < o.peptideID
}

// Filter applies the trace filters in order: minimum observations, SNR,
// mean-centering, positivity and monomer masking. Surviving points keep their
// centered intensity. Output is ordered by run, protein, peptide and fraction.
func Filter(points []sec.Point, thresholds monomer.Thresholds, p sec.Params) Result {
	traces := make(map[traceKey][]sec.Point)
	for _, pt := range points {
		k := traceKey{run: pt.Run(), proteinID: pt.ProteinID, peptideID: pt.PeptideID}
		traces[k] = append(traces[k], pt)
	}

	keys := make([]traceKey, 0, len(traces))
	for k := range traces {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	r := Result{Traces: len(keys)}
	for _, k := range keys {
		trace := traces[k]
		if len(trace) < MinimumObservations {
			r.ShortTraces++
			continue
		}

		sort.Slice(trace, func(i, j int) bool { return trace[i].SecID < trace[j].SecID })
		values := make([]float64, len(trace))
		for i, pt := range trace {
			values[i] = pt.Intensity
		}
		snr, ok := SNR(values)
		if !ok || snr < p.MinimumPeptideSNR {
			r.LowSNRTraces++
			continue
		}

		threshold, hasThreshold := thresholds.Lookup(k.run, k.proteinID)
		mean := stat.Mean(values, nil)
		kept := 0
		for _, pt := range trace {
			pt.Intensity -= mean
			if pt.Intensity <= 0 {
				r.NonPositive++
				continue
			}
			if !hasThreshold {
				r.NoThreshold++
				continue
			}
			if pt.SecID >= threshold {
				r.MonomerMasked++
				continue
			}
			r.Points = append(r.Points, pt)
			kept++
		}
		if kept > 0 {
			r.SurvivingTraces++
		}
	}

	return r
}

// SNR returns mean over population standard deviation. It is undefined for
// fewer than MinimumObservations values and for constant traces.
func SNR(values []float64) (float64, bool) {
	if len(values) < MinimumObservations {
		return 0, false
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if !(std > 1e-12*math.Max(1, math.Abs(mean))) {
		return 0, false
	}
	return mean / std, true
}
