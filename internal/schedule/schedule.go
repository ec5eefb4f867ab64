// Package schedule fans comparison groups out to a bounded worker pool and
// merges the results.
package schedule

import (
	"fmt"
	"runtime"
	"sort"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/TobiSchelling/secat/internal/chromatogram"
	"github.com/TobiSchelling/secat/internal/interaction"
	"github.com/TobiSchelling/secat/internal/sec"
)

// ScoreFunc scores one group. It must not retain or modify the group.
type ScoreFunc func(interaction.Group, sec.Params) sec.ScoreRecord

// Split cuts the design into contiguous chunks of at most size keys.
func Split(design []sec.GroupKey, size int) [][]sec.GroupKey {
	if size < 1 {
		size = 1
	}
	var chunks [][]sec.GroupKey
	for start := 0; start < len(design); start += size {
		end := min(start+size, len(design))
		chunks = append(chunks, design[start:end])
	}
	return chunks
}

// Scheduler scores a design chunk by chunk.
type Scheduler struct {
	Params  sec.Params
	Span    interaction.Span
	Workers int
	Score   ScoreFunc
}

// New returns a scheduler laying every group over span. It uses every
// available CPU when workers is zero.
func New(p sec.Params, span interaction.Span, workers int) *Scheduler {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Scheduler{Params: p, Span: span, Workers: workers, Score: interaction.Score}
}

// Run scores every key of the design against the filtered index and returns
// one record per key, sorted by key.
func (s *Scheduler) Run(design []sec.GroupKey, index chromatogram.Index) ([]sec.ScoreRecord, error) {
	chunks := Split(design, s.Params.ChunkSize)
	results := make([][]sec.ScoreRecord, len(chunks))
	for i, chunk := range chunks {
		log.WithFields(log.Fields{"groups": len(chunk), "workers": s.Workers}).
			Debugf("Processing chunk %d/%d", i+1, len(chunks))
		results[i] = s.runChunk(chunk, index)
	}
	return Aggregate(results, design)
}

func (s *Scheduler) runChunk(chunk []sec.GroupKey, index chromatogram.Index) []sec.ScoreRecord {
	score := s.Score
	if score == nil {
		score = interaction.Score
	}
	workers := s.Workers
	if workers < 1 {
		workers = 1
	}

	out := make([]sec.ScoreRecord, len(chunk))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, key := range chunk {
		i := i
		run := key.Run()
		group := interaction.NewGroup(key, s.Span,
			index.Points(run, key.BaitID),
			index.Points(run, key.PreyID))
		g.Go(func() error {
			out[i] = safeScore(score, group, s.Params)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors
	return out
}

// safeScore converts a panic in the kernel into a failed record for the group.
func safeScore(score ScoreFunc, g interaction.Group, p sec.Params) (rec sec.ScoreRecord) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("group", g.Key.String()).Warnf("Scoring failed: %v", r)
			rec = sec.ScoreRecord{
				GroupKey: g.Key,
				Status:   sec.StatusFailed,
				Detail:   fmt.Sprint(r),
			}
		}
	}()
	return score(g, p)
}

// Aggregate concatenates chunk results and checks that every design key has
// exactly one record. Records are returned sorted by key.
func Aggregate(chunks [][]sec.ScoreRecord, design []sec.GroupKey) ([]sec.ScoreRecord, error) {
	want := make(map[sec.GroupKey]bool, len(design))
	for _, k := range design {
		want[k] = true
	}

	var out []sec.ScoreRecord
	seen := make(map[sec.GroupKey]bool, len(design))
	for _, chunk := range chunks {
		for _, rec := range chunk {
			if !want[rec.GroupKey] {
				return nil, fmt.Errorf("aggregating: record for unknown group %s", rec.GroupKey)
			}
			if seen[rec.GroupKey] {
				return nil, fmt.Errorf("aggregating: duplicate record for group %s", rec.GroupKey)
			}
			seen[rec.GroupKey] = true
			out = append(out, rec)
		}
	}
	if len(out) != len(want) {
		return nil, fmt.Errorf("aggregating: %d records for %d groups", len(out), len(want))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].GroupKey.Less(out[j].GroupKey) })
	return out, nil
}
