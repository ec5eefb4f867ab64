// Package sec holds the size-exclusion chromatography data model shared by the
// scoring packages and the store.
package sec

import "fmt"

// Protein is a protein with its molecular weight in Da.
type Protein struct {
	ID string
	MW float64
}

// Run identifies one (condition, replicate) SEC experiment.
type Run struct {
	ConditionID string
	ReplicateID string
}

func (r Run) String() string {
	return r.ConditionID + "/" + r.ReplicateID
}

// Less orders runs by condition, then replicate.
func (r Run) Less(o Run) bool {
	if r.ConditionID != o.ConditionID {
		return r.ConditionID < o.ConditionID
	}
	return r.ReplicateID < o.ReplicateID
}

// Fraction is one elution bin of a run with its calibrated molecular weight.
type Fraction struct {
	ConditionID string
	ReplicateID string
	SecID       int
	SecMW       float64
}

// Run returns the run the fraction belongs to.
func (f Fraction) Run() Run {
	return Run{ConditionID: f.ConditionID, ReplicateID: f.ReplicateID}
}

// Point is one peptide intensity observation in one fraction.
type Point struct {
	ConditionID string
	ReplicateID string
	ProteinID   string
	PeptideID   string
	SecID       int
	Intensity   float64
}

// Run returns the run the point was measured in.
func (p Point) Run() Run {
	return Run{ConditionID: p.ConditionID, ReplicateID: p.ReplicateID}
}

// MonomerThreshold is the first fraction at which a protein is expected to
// elute as a monomer.
type MonomerThreshold struct {
	ConditionID string
	ReplicateID string
	ProteinID   string
	SecID       int
}

// Query is a candidate bait/prey pair. Decoys are carried through unchanged.
type Query struct {
	BaitID string
	PreyID string
	Decoy  bool
}

// GroupKey identifies one comparison group, the unit of scoring.
type GroupKey struct {
	ConditionID string `json:"condition_id"`
	ReplicateID string `json:"replicate_id"`
	BaitID      string `json:"bait_id"`
	PreyID      string `json:"prey_id"`
	Decoy       bool   `json:"decoy"`
}

// Run returns the run of the group.
func (k GroupKey) Run() Run {
	return Run{ConditionID: k.ConditionID, ReplicateID: k.ReplicateID}
}

func (k GroupKey) String() string {
	d := ""
	if k.Decoy {
		d = " decoy"
	}
	return fmt.Sprintf("%s/%s %s~%s%s", k.ConditionID, k.ReplicateID, k.BaitID, k.PreyID, d)
}

// Less orders keys by condition, replicate, bait, prey and decoy flag.
func (k GroupKey) Less(o GroupKey) bool {
	if k.ConditionID != o.ConditionID {
		return k.ConditionID < o.ConditionID
	}
	if k.ReplicateID != o.ReplicateID {
		return k.ReplicateID < o.ReplicateID
	}
	if k.BaitID != o.BaitID {
		return k.BaitID < o.BaitID
	}
	if k.PreyID != o.PreyID {
		return k.PreyID < o.PreyID
	}
	return !k.Decoy && o.Decoy
}

// Status tells whether a group was scored.
type Status string

const (
	StatusScored             Status = "scored"
	StatusInsufficientSignal Status = "insufficient_signal"
	StatusFailed             Status = "failed"
)

// Features are the co-elution statistics of a scored group. A nil pointer
// means the statistic is undefined for this group.
type Features struct {
	XcorrShape        *float64 `json:"xcorr_shape"`
	XcorrShift        *float64 `json:"xcorr_shift"`
	XcorrApex         *float64 `json:"apex"`
	MIC               *float64 `json:"mic"`
	MassRatio         *float64 `json:"mass_ratio"`
	SNR               *float64 `json:"snr"`
	LongestOverlap    int      `json:"intersection"`
	TotalIntersection int      `json:"total_intersection"`
}

// ScoreRecord is the result for one comparison group. Features is nil unless
// Status is StatusScored.
type ScoreRecord struct {
	GroupKey
	Status   Status    `json:"status"`
	Features *Features `json:"features,omitempty"`
	Detail   string    `json:"detail,omitempty"`
}

// Missing reports whether the record carries no features.
func (r ScoreRecord) Missing() bool {
	return r.Features == nil
}
