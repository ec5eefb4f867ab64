package chromatogram

import (
	"sort"

	"github.com/TobiSchelling/secat/internal/sec"
)

// PeptideRank describes one peptide's standing within its protein.
type PeptideRank struct {
	ProteinID      string
	PeptideID      string
	TotalIntensity float64
	Rank           int // 1 = most intense
	PeptideCount   int // peptides observed for the protein
}

// RankPeptides ranks every protein's peptides by summed raw intensity over all
// runs, most intense first, peptide id breaking ties.
func RankPeptides(points []sec.Point) []PeptideRank {
	totals := make(map[string]map[string]float64)
	for _, pt := range points {
		m, ok := totals[pt.ProteinID]
		if !ok {
			m = make(map[string]float64)
			totals[pt.ProteinID] = m
		}
		m[pt.PeptideID] += pt.Intensity
	}

	proteins := make([]string, 0, len(totals))
	for id := range totals {
		proteins = append(proteins, id)
	}
	sort.Strings(proteins)

	var ranks []PeptideRank
	for _, proteinID := range proteins {
		peptides := totals[proteinID]
		ids := make([]string, 0, len(peptides))
		for id := range peptides {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			a, b := peptides[ids[i]], peptides[ids[j]]
			if a != b {
				return a > b
			}
			return ids[i] < ids[j]
		})
		for i, id := range ids {
			ranks = append(ranks, PeptideRank{
				ProteinID:      proteinID,
				PeptideID:      id,
				TotalIntensity: peptides[id],
				Rank:           i + 1,
				PeptideCount:   len(ids),
			})
		}
	}
	return ranks
}

// SelectPeptides keeps the MaximumPeptides most intense peptides of every
// protein that has at least MinimumPeptides peptides.
func SelectPeptides(points []sec.Point, p sec.Params) []sec.Point {
	type key struct{ protein, peptide string }
	keep := make(map[key]bool)
	for _, r := range RankPeptides(points) {
		if r.PeptideCount >= p.MinimumPeptides && r.Rank <= p.MaximumPeptides {
			keep[key{r.ProteinID, r.PeptideID}] = true
		}
	}

	out := make([]sec.Point, 0, len(points))
	for _, pt := range points {
		if keep[key{pt.ProteinID, pt.PeptideID}] {
			out = append(out, pt)
		}
	}
	return out
}
