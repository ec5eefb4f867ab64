package pipeline

import (
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/TobiSchelling/secat/internal/chromatogram"
	"github.com/TobiSchelling/secat/internal/design"
	"github.com/TobiSchelling/secat/internal/interaction"
	"github.com/TobiSchelling/secat/internal/monomer"
	"github.com/TobiSchelling/secat/internal/schedule"
	"github.com/TobiSchelling/secat/internal/sec"
)

// Input holds the tables a scoring run reads.
type Input struct {
	Proteins  []sec.Protein
	Fractions []sec.Fraction
	Points    []sec.Point
	Queries   []sec.Query
}

// Output holds the results of a scoring run and what each stage did.
type Output struct {
	Thresholds []sec.MonomerThreshold
	Selected   int // points left after peptide selection
	Filter     chromatogram.Result
	Design     []sec.GroupKey
	Records    []sec.ScoreRecord
	Duration   time.Duration
}

// Counts returns the number of records per status.
func (o *Output) Counts() map[sec.Status]int {
	c := make(map[sec.Status]int)
	for _, r := range o.Records {
		c[r.Status]++
	}
	return c
}

// Validate checks that every table is non-empty and well formed. Each
// peptide may be measured at most once per fraction of a run.
func (in Input) Validate() error {
	switch {
	case len(in.Proteins) == 0:
		return &sec.InputError{Table: "protein", Message: "no proteins"}
	case len(in.Fractions) == 0:
		return &sec.InputError{Table: "sec", Message: "no fractions"}
	case len(in.Points) == 0:
		return &sec.InputError{Table: "quantification", Message: "no intensities"}
	case len(in.Queries) == 0:
		return &sec.InputError{Table: "query", Message: "no queries"}
	}

	for _, p := range in.Proteins {
		if !(p.MW > 0) || math.IsInf(p.MW, 0) {
			return &sec.InputError{Table: "protein", Message: fmt.Sprintf("%s: invalid molecular weight %v", p.ID, p.MW)}
		}
	}

	type fractionKey struct {
		run   sec.Run
		secID int
	}
	known := make(map[fractionKey]bool, len(in.Fractions))
	for _, f := range in.Fractions {
		k := fractionKey{f.Run(), f.SecID}
		if known[k] {
			return &sec.InputError{Table: "sec", Message: fmt.Sprintf("%s: duplicate fraction %d", f.Run(), f.SecID)}
		}
		if math.IsNaN(f.SecMW) || math.IsInf(f.SecMW, 0) {
			return &sec.InputError{Table: "sec", Message: fmt.Sprintf("%s: invalid molecular weight for fraction %d", f.Run(), f.SecID)}
		}
		known[k] = true
	}

	type observationKey struct {
		fraction fractionKey
		peptide  string
	}
	seen := make(map[observationKey]bool, len(in.Points))
	for _, pt := range in.Points {
		obs := observationKey{fractionKey{pt.Run(), pt.SecID}, pt.PeptideID}
		if seen[obs] {
			return &sec.InputError{Table: "quantification", Message: fmt.Sprintf("%s %s: duplicate intensity in fraction %d", pt.Run(), pt.PeptideID, pt.SecID)}
		}
		seen[obs] = true
		if math.IsNaN(pt.Intensity) || math.IsInf(pt.Intensity, 0) || pt.Intensity < 0 {
			return &sec.InputError{Table: "quantification", Message: fmt.Sprintf("%s %s fraction %d: invalid intensity %v", pt.Run(), pt.PeptideID, pt.SecID, pt.Intensity)}
		}
		if !known[fractionKey{pt.Run(), pt.SecID}] {
			return &sec.InputError{Table: "quantification", Message: fmt.Sprintf("%s %s: unknown fraction %d", pt.Run(), pt.PeptideID, pt.SecID)}
		}
	}
	return nil
}

// Compute runs the scoring engine in memory: monomer thresholds, peptide
// selection, chromatogram filtering, design enumeration and chunked scoring.
// Configuration and input errors are returned before any scoring starts.
func Compute(in Input, p sec.Params, workers int) (*Output, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	out := &Output{}
	out.Thresholds = monomer.Estimate(in.Proteins, in.Fractions, p)
	log.WithField("thresholds", len(out.Thresholds)).Debug("Monomer thresholds estimated")

	selected := chromatogram.SelectPeptides(in.Points, p)
	out.Selected = len(selected)

	out.Filter = chromatogram.Filter(selected, monomer.Index(out.Thresholds), p)
	log.WithFields(log.Fields{
		"traces":    out.Filter.Traces,
		"surviving": out.Filter.SurvivingTraces,
		"points":    len(out.Filter.Points),
	}).Debug("Chromatograms filtered")

	out.Design = design.Enumerate(in.Queries, out.Filter.Points)
	chunks := len(schedule.Split(out.Design, p.ChunkSize))
	log.Infof("Total number of groups: %d. Split into %d chunks.", len(out.Design), chunks)

	records, err := schedule.New(p, interaction.FractionSpan(in.Fractions), workers).Run(out.Design, chromatogram.NewIndex(out.Filter.Points))
	if err != nil {
		return nil, fmt.Errorf("scoring: %w", err)
	}
	out.Records = records
	out.Duration = time.Since(start)
	return out, nil
}
