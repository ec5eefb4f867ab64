package interaction

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/TobiSchelling/secat/internal/sec"
)

// matrix is a dense peptide x fraction intensity table. Columns run from
// first to first+len(row)-1; cells without an observation hold zero.
type matrix struct {
	peptides []string
	first    int
	rows     [][]float64
}

// newMatrix builds the matrix of all peptides observed in the intersection,
// laid over every fraction of span. Only points whose fraction is in the
// intersection are filled. The span is widened if it misses an intersection
// fraction.
func newMatrix(points []sec.Point, intersection []int, span Span) matrix {
	if len(intersection) == 0 {
		return matrix{}
	}
	lo := min(span.First, intersection[0])
	hi := max(span.Last, intersection[len(intersection)-1])
	inter := make(map[int]bool, len(intersection))
	for _, v := range intersection {
		inter[v] = true
	}

	cells := make(map[string]map[int]float64)
	for _, pt := range points {
		if !inter[pt.SecID] {
			continue
		}
		m, ok := cells[pt.PeptideID]
		if !ok {
			m = make(map[int]float64)
			cells[pt.PeptideID] = m
		}
		m[pt.SecID] = pt.Intensity
	}

	peptides := make([]string, 0, len(cells))
	for id := range cells {
		peptides = append(peptides, id)
	}
	sort.Strings(peptides)

	width := hi - lo + 1
	rows := make([][]float64, len(peptides))
	for i, id := range peptides {
		row := make([]float64, width)
		for secID, v := range cells[id] {
			row[secID-lo] = v
		}
		rows[i] = row
	}
	return matrix{peptides: peptides, first: lo, rows: rows}
}

// columns returns a copy of the matrix restricted to the given fractions.
func (m matrix) columns(secIDs []int) [][]float64 {
	out := make([][]float64, len(m.rows))
	for i, row := range m.rows {
		sub := make([]float64, len(secIDs))
		for j, id := range secIDs {
			sub[j] = row[id-m.first]
		}
		out[i] = sub
	}
	return out
}

// spreadTolerance is the relative standard deviation below which a row counts
// as constant.
const spreadTolerance = 1e-12

// zscored returns every row scaled to zero mean and unit population variance.
// Rows with zero variance are returned as nil.
func (m matrix) zscored() [][]float64 {
	out := make([][]float64, len(m.rows))
	for i, row := range m.rows {
		out[i] = zscore(row)
	}
	return out
}

func zscore(row []float64) []float64 {
	mean, std := stat.PopMeanStdDev(row, nil)
	if constant(mean, std) {
		return nil
	}
	z := make([]float64, len(row))
	for i, v := range row {
		z[i] = (v - mean) / std
	}
	return z
}

// constant reports whether a row with the given mean and standard deviation
// has no usable spread.
func constant(mean, std float64) bool {
	return !(std > spreadTolerance*math.Max(1, math.Abs(mean)))
}
