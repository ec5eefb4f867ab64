package sec

import (
	"fmt"
	"math"
	"strings"
)

// Params is the immutable run configuration handed to every stage and every
// kernel invocation.
type Params struct {
	MonomerThresholdFactor float64 `json:"monomer_threshold_factor"`
	MonomerElutionWidth    int     `json:"monomer_elution_width"`
	MinimumPeptides        int     `json:"minimum_peptides"`
	MaximumPeptides        int     `json:"maximum_peptides"`
	MinimumOverlap         int     `json:"minimum_overlap"`
	MinimumPeptideSNR      float64 `json:"minimum_peptide_snr"`
	ChunkSize              int     `json:"chunk_size"`
}

// DefaultParams returns the parameters used when nothing is configured.
func DefaultParams() Params {
	return Params{
		MonomerThresholdFactor: 2.0,
		MonomerElutionWidth:    4,
		MinimumPeptides:        1,
		MaximumPeptides:        3,
		MinimumOverlap:         1,
		MinimumPeptideSNR:      2.0,
		ChunkSize:              50000,
	}
}

// ConfigurationError reports invalid run parameters. It is fatal and raised
// before any scoring starts.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Field, e.Message)
}

// Validate checks every parameter and reports all problems at once.
func (p Params) Validate() error {
	var errs []string
	var fields []string
	add := func(field, msg string) {
		fields = append(fields, field)
		errs = append(errs, field+" "+msg)
	}

	if !(p.MonomerThresholdFactor > 0) || math.IsInf(p.MonomerThresholdFactor, 0) {
		add("monomer_threshold_factor", "must be a positive number")
	}
	if p.MonomerElutionWidth < 0 {
		add("monomer_elution_width", "must not be negative")
	}
	if p.MinimumPeptides < 1 {
		add("minimum_peptides", "must be at least 1")
	}
	if p.MaximumPeptides < 1 {
		add("maximum_peptides", "must be at least 1")
	} else if p.MaximumPeptides < p.MinimumPeptides {
		add("maximum_peptides", "must not be smaller than minimum_peptides")
	}
	if p.MinimumOverlap < 1 {
		add("minimum_overlap", "must be at least 1")
	}
	if math.IsNaN(p.MinimumPeptideSNR) || p.MinimumPeptideSNR < 0 {
		add("minimum_peptide_snr", "must not be negative")
	}
	if p.ChunkSize < 1 {
		add("chunk_size", "must be at least 1")
	}

	if len(errs) > 0 {
		return &ConfigurationError{
			Field:   strings.Join(fields, ", "),
			Message: strings.Join(errs, "; "),
		}
	}
	return nil
}

// InputError reports empty or malformed input tables. Like a configuration
// error it aborts the run before scoring.
type InputError struct {
	Table   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input in %s: %s", e.Table, e.Message)
}
