package database

import "github.com/TobiSchelling/secat/internal/sec"

// SecRun maps one mass spectrometry run to its SEC fraction.
type SecRun struct {
	RunID string
	sec.Fraction
}

// Quantification is one peptide intensity measured in one run.
type Quantification struct {
	RunID     string
	ProteinID string
	PeptideID string
	Intensity float64
}

// ScoreFilter narrows a score listing. Empty fields match everything.
type ScoreFilter struct {
	ConditionID string
	ReplicateID string
	BaitID      string
	PreyID      string
	Status      sec.Status
	Limit       int
}

// ScoreRun holds metadata about a scoring run.
type ScoreRun struct {
	ID                int64
	GeneratedAt       *string
	Params            sec.Params
	GroupCount        int
	ScoredCount       int
	InsufficientCount int
	FailedCount       int
	DurationMS        int64
}

// RunSummary counts score records by status for one run.
type RunSummary struct {
	ConditionID  string
	ReplicateID  string
	Scored       int
	Insufficient int
	Failed       int
}

// Stats contains aggregate database statistics.
type Stats struct {
	Proteins          int
	Runs              int
	Fractions         int
	Peptides          int
	Quantifications   int
	Queries           int
	Decoys            int
	MonomerThresholds int
	Scores            int
	ScoredGroups      int
	ScoreRuns         int
}
