package schedule

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"

	"github.com/TobiSchelling/secat/internal/chromatogram"
	"github.com/TobiSchelling/secat/internal/interaction"
	"github.com/TobiSchelling/secat/internal/sec"
)

// fixture builds a design of n proteins queried pairwise in one run, with
// shifted bell-shaped traces so groups get a mix of accepted and rejected.
func fixture(n int) ([]sec.GroupKey, chromatogram.Index) {
	var points []sec.Point
	for i := 0; i < n; i++ {
		protein := fmt.Sprintf("P%02d", i)
		for j, v := range []float64{1, 4, 9, 4, 1} {
			points = append(points, sec.Point{
				ConditionID: "c", ReplicateID: "1",
				ProteinID: protein, PeptideID: protein + "_1",
				SecID: i + j, Intensity: v + float64(i),
			})
		}
	}
	var design []sec.GroupKey
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			design = append(design, sec.GroupKey{
				ConditionID: "c", ReplicateID: "1",
				BaitID: fmt.Sprintf("P%02d", i), PreyID: fmt.Sprintf("P%02d", j),
			})
		}
	}
	return design, chromatogram.NewIndex(points)
}

// fixtureSpan covers every fraction of fixture(n).
func fixtureSpan(n int) interaction.Span {
	return interaction.Span{First: 0, Last: n + 3}
}

func testParams(chunk int) sec.Params {
	p := sec.DefaultParams()
	p.MinimumOverlap = 2
	p.ChunkSize = chunk
	return p
}

func TestSplit(t *testing.T) {
	design := make([]sec.GroupKey, 7)
	chunks := Split(design, 3)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 3 || len(chunks[2]) != 1 {
		t.Errorf("expected sizes 3,3,1, got %d,%d,%d", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
	if got := Split(nil, 3); len(got) != 0 {
		t.Errorf("expected no chunks for empty design, got %d", len(got))
	}
}

func TestRunOneRecordPerGroup(t *testing.T) {
	design, index := fixture(8)
	recs, err := New(testParams(5), fixtureSpan(8), 3).Run(design, index)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != len(design) {
		t.Fatalf("expected %d records, got %d", len(design), len(recs))
	}
	scored := 0
	for _, r := range recs {
		if !r.Missing() {
			scored++
		}
	}
	if scored == 0 || scored == len(recs) {
		t.Errorf("expected a mix of scored and rejected groups, got %d/%d scored", scored, len(recs))
	}
}

func TestChunkSizeAndWorkersDoNotChangeResults(t *testing.T) {
	design, index := fixture(10)
	base, err := New(testParams(1000), fixtureSpan(10), 1).Run(design, index)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want, _ := json.Marshal(base)

	for _, cfg := range []struct{ chunk, workers int }{{10, 1}, {10, 4}, {1, 8}, {7, 0}} {
		recs, err := New(testParams(cfg.chunk), fixtureSpan(10), cfg.workers).Run(design, index)
		if err != nil {
			t.Fatalf("chunk %d workers %d: unexpected error: %v", cfg.chunk, cfg.workers, err)
		}
		got, _ := json.Marshal(recs)
		if string(got) != string(want) {
			t.Errorf("chunk %d workers %d: results differ", cfg.chunk, cfg.workers)
		}
	}
}

func TestPanicYieldsFailedRecord(t *testing.T) {
	design, index := fixture(4)
	bad := design[1]
	s := New(testParams(2), fixtureSpan(4), 2)
	s.Score = func(g interaction.Group, p sec.Params) sec.ScoreRecord {
		if g.Key == bad {
			panic("boom")
		}
		return interaction.Score(g, p)
	}

	recs, err := s.Run(design, index)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != len(design) {
		t.Fatalf("expected %d records, got %d", len(design), len(recs))
	}
	for _, r := range recs {
		if r.GroupKey == bad {
			if r.Status != sec.StatusFailed || !r.Missing() || r.Detail != "boom" {
				t.Errorf("expected failed record for %s, got %+v", bad, r)
			}
		} else if r.Status == sec.StatusFailed {
			t.Errorf("sibling group %s should not fail", r.GroupKey)
		}
	}
}

func TestAggregateRejectsDuplicates(t *testing.T) {
	k := sec.GroupKey{ConditionID: "c", ReplicateID: "1", BaitID: "A", PreyID: "B"}
	rec := sec.ScoreRecord{GroupKey: k, Status: sec.StatusInsufficientSignal}
	if _, err := Aggregate([][]sec.ScoreRecord{{rec}, {rec}}, []sec.GroupKey{k}); err == nil {
		t.Error("expected error for duplicate record")
	}
	if _, err := Aggregate(nil, []sec.GroupKey{k}); err == nil {
		t.Error("expected error for missing record")
	}
}

func TestAggregateSortsByKey(t *testing.T) {
	a := sec.GroupKey{ConditionID: "c", ReplicateID: "1", BaitID: "A", PreyID: "B"}
	b := sec.GroupKey{ConditionID: "c", ReplicateID: "1", BaitID: "A", PreyID: "B", Decoy: true}
	c := sec.GroupKey{ConditionID: "d", ReplicateID: "1", BaitID: "A", PreyID: "B"}
	recs, err := Aggregate([][]sec.ScoreRecord{{{GroupKey: c}}, {{GroupKey: b}, {GroupKey: a}}}, []sec.GroupKey{a, b, c})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := []sec.GroupKey{recs[0].GroupKey, recs[1].GroupKey, recs[2].GroupKey}
	if !reflect.DeepEqual(got, []sec.GroupKey{a, b, c}) {
		t.Errorf("expected sorted keys, got %v", got)
	}
}
