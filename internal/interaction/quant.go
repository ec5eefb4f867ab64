package interaction

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// massRatio compares the mean total intensity of bait and prey peptides.
// The ratio is folded into (0, 1] so it does not depend on labeling.
func massRatio(bait, prey [][]float64) *float64 {
	b, p := meanRowSum(bait), meanRowSum(prey)
	if !(b > 0) || !(p > 0) {
		return nil
	}
	r := b / p
	if r > 1 {
		r = 1 / r
	}
	return &r
}

func meanRowSum(rows [][]float64) float64 {
	if len(rows) == 0 {
		return 0
	}
	var sum float64
	for _, row := range rows {
		sum += floats.Sum(row)
	}
	return sum / float64(len(rows))
}

// combinedSNR pools the per-peptide SNR of bait and prey rows and returns
// their mean over population standard deviation.
func combinedSNR(bait, prey [][]float64) *float64 {
	var pooled []float64
	for _, rows := range [][][]float64{bait, prey} {
		for _, row := range rows {
			if v, ok := rowSNR(row); ok {
				pooled = append(pooled, v)
			}
		}
	}
	v, ok := rowSNR(pooled)
	if !ok {
		return nil
	}
	return &v
}

func rowSNR(row []float64) (float64, bool) {
	if len(row) < 2 {
		return 0, false
	}
	mean, std := stat.PopMeanStdDev(row, nil)
	if constant(mean, std) {
		return 0, false
	}
	return mean / std, true
}
