package chromatogram

import "github.com/TobiSchelling/secat/internal/sec"

// IndexKey addresses all filtered points of one protein in one run.
type IndexKey struct {
	Run       sec.Run
	ProteinID string
}

// Index is a read-only view of the filtered table, shared by all workers.
type Index map[IndexKey][]sec.Point

// NewIndex groups filtered points by run and protein, keeping input order.
func NewIndex(points []sec.Point) Index {
	idx := make(Index)
	for _, pt := range points {
		k := IndexKey{Run: pt.Run(), ProteinID: pt.ProteinID}
		idx[k] = append(idx[k], pt)
	}
	return idx
}

// Points returns the filtered points of a protein in a run.
func (idx Index) Points(run sec.Run, proteinID string) []sec.Point {
	return idx[IndexKey{Run: run, ProteinID: proteinID}]
}
