package pipeline

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/TobiSchelling/secat/internal/config"
	"github.com/TobiSchelling/secat/internal/database"
	"github.com/TobiSchelling/secat/internal/monomer"
	"github.com/TobiSchelling/secat/internal/sec"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	Steps  []StepResult
	Output *Output
}

// Failed returns the first failed step, or nil.
func (r *Result) Failed() *StepResult {
	for i := range r.Steps {
		if r.Steps[i].Err != nil {
			return &r.Steps[i]
		}
	}
	return nil
}

// Pipeline runs the scoring engine against the store.
type Pipeline struct {
	cfg *config.Config
	db  *database.DB
}

// New creates a new pipeline.
func New(cfg *config.Config, db *database.DB) *Pipeline {
	return &Pipeline{cfg: cfg, db: db}
}

// Run loads the input tables, scores every group and stores the results.
func (p *Pipeline) Run() *Result {
	r := &Result{}
	params := p.cfg.Scoring.Params()

	// Step 1: Load
	log.Println("Step 1/3: Loading input tables...")
	in, err := p.load()
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Load", Err: err})
		return r
	}
	r.Steps = append(r.Steps, StepResult{
		Name: "Load",
		Summary: fmt.Sprintf("%d proteins, %d fractions, %d intensities, %d queries",
			len(in.Proteins), len(in.Fractions), len(in.Points), len(in.Queries)),
	})

	// Step 2: Monomer thresholds, filtering, design and scoring in memory
	log.Println("Step 2/3: Scoring comparison groups...")
	out, err := Compute(*in, params, p.cfg.Scoring.Workers)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Score", Err: err})
		return r
	}
	r.Output = out
	f := out.Filter
	counts := out.Counts()
	r.Steps = append(r.Steps,
		StepResult{
			Name:    "Monomer",
			Summary: fmt.Sprintf("%d thresholds", len(out.Thresholds)),
		},
		StepResult{
			Name: "Filter",
			Summary: fmt.Sprintf("%d of %d traces kept (%d short, %d low SNR), %d points masked as monomer",
				f.SurvivingTraces, f.Traces, f.ShortTraces, f.LowSNRTraces, f.MonomerMasked),
		},
		StepResult{
			Name:    "Enumerate",
			Summary: fmt.Sprintf("%d comparison groups", len(out.Design)),
		},
		StepResult{
			Name: "Score",
			Summary: fmt.Sprintf("%d scored, %d insufficient signal, %d failed in %s",
				counts[sec.StatusScored], counts[sec.StatusInsufficientSignal], counts[sec.StatusFailed],
				out.Duration.Round(time.Millisecond)),
		},
	)

	// Step 3: Store
	log.Println("Step 3/3: Storing results...")
	r.Steps = append(r.Steps, p.store(out, params))
	return r
}

// DryRun shows what would be done without executing.
func (p *Pipeline) DryRun() *Result {
	r := &Result{}

	stats, err := p.db.GetStats()
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Load", Err: err})
		return r
	}
	r.Steps = append(r.Steps, StepResult{
		Name: "Load",
		Summary: fmt.Sprintf("[dry-run] %d proteins, %d runs, %d fractions, %d intensities, %d queries (%d decoys)",
			stats.Proteins, stats.Runs, stats.Fractions, stats.Quantifications, stats.Queries, stats.Decoys),
	})

	params := p.cfg.Scoring.Params()
	if err := params.Validate(); err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Score", Err: err})
		return r
	}
	r.Steps = append(r.Steps, StepResult{
		Name: "Score",
		Summary: fmt.Sprintf("[dry-run] Would score up to %d groups in chunks of %d",
			stats.Queries*stats.Runs, params.ChunkSize),
	})

	if stats.Scores > 0 {
		r.Steps = append(r.Steps, StepResult{
			Name:    "Store",
			Summary: fmt.Sprintf("[dry-run] Would replace %d existing score records", stats.Scores),
		})
	} else {
		r.Steps = append(r.Steps, StepResult{
			Name:    "Store",
			Summary: "[dry-run] Would store score records",
		})
	}

	return r
}

// Monomer estimates and stores monomer thresholds only.
func (p *Pipeline) Monomer() StepResult {
	params := p.cfg.Scoring.Params()
	if err := params.Validate(); err != nil {
		return StepResult{Name: "Monomer", Err: err}
	}
	proteins, err := p.db.GetProteins()
	if err != nil {
		return StepResult{Name: "Monomer", Err: fmt.Errorf("reading proteins: %w", err)}
	}
	fractions, err := p.db.GetFractions()
	if err != nil {
		return StepResult{Name: "Monomer", Err: fmt.Errorf("reading fractions: %w", err)}
	}
	if len(proteins) == 0 || len(fractions) == 0 {
		return StepResult{Name: "Monomer", Err: &sec.InputError{Table: "protein", Message: "no proteins or fractions imported"}}
	}

	thresholds := monomer.Estimate(proteins, fractions, params)
	if err := p.db.ReplaceMonomerThresholds(thresholds); err != nil {
		return StepResult{Name: "Monomer", Err: fmt.Errorf("storing thresholds: %w", err)}
	}
	return StepResult{
		Name: "Monomer",
		Summary: fmt.Sprintf("%d thresholds for %d proteins in %d runs",
			len(thresholds), len(proteins), len(monomer.NewCalibration(fractions).Runs())),
	}
}

func (p *Pipeline) load() (*Input, error) {
	var (
		in  Input
		err error
	)
	if in.Proteins, err = p.db.GetProteins(); err != nil {
		return nil, fmt.Errorf("reading proteins: %w", err)
	}
	if in.Fractions, err = p.db.GetFractions(); err != nil {
		return nil, fmt.Errorf("reading fractions: %w", err)
	}
	if in.Points, err = p.db.GetPoints(); err != nil {
		return nil, fmt.Errorf("reading intensities: %w", err)
	}
	if in.Queries, err = p.db.GetQueries(); err != nil {
		return nil, fmt.Errorf("reading queries: %w", err)
	}
	return &in, nil
}

func (p *Pipeline) store(out *Output, params sec.Params) StepResult {
	if err := p.db.ReplaceMonomerThresholds(out.Thresholds); err != nil {
		return StepResult{Name: "Store", Err: fmt.Errorf("storing thresholds: %w", err)}
	}
	if err := p.db.ReplaceScores(out.Records); err != nil {
		return StepResult{Name: "Store", Err: fmt.Errorf("storing scores: %w", err)}
	}
	counts := out.Counts()
	id, err := p.db.InsertScoreRun(database.ScoreRun{
		Params:            params,
		GroupCount:        len(out.Records),
		ScoredCount:       counts[sec.StatusScored],
		InsufficientCount: counts[sec.StatusInsufficientSignal],
		FailedCount:       counts[sec.StatusFailed],
		DurationMS:        out.Duration.Milliseconds(),
	})
	if err != nil {
		return StepResult{Name: "Store", Err: fmt.Errorf("storing run report: %w", err)}
	}
	return StepResult{
		Name:    "Store",
		Summary: fmt.Sprintf("Stored %d score records as run %d", len(out.Records), id),
	}
}
