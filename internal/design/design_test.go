package design

import (
	"testing"

	"github.com/TobiSchelling/secat/internal/sec"
)

func pt(cond, rep, protein string) sec.Point {
	return sec.Point{ConditionID: cond, ReplicateID: rep, ProteinID: protein, PeptideID: protein + "_pep", SecID: 1, Intensity: 1}
}

func TestEnumerateInnerJoin(t *testing.T) {
	filtered := []sec.Point{
		pt("c", "1", "A"), pt("c", "1", "B"),
		pt("c", "2", "A"), // B missing in replicate 2
		pt("d", "1", "A"), pt("d", "1", "B"), pt("d", "1", "C"),
	}
	queries := []sec.Query{
		{BaitID: "A", PreyID: "B"},
		{BaitID: "A", PreyID: "C", Decoy: true},
		{BaitID: "A", PreyID: "Z"}, // never observed
	}

	keys := Enumerate(queries, filtered)
	want := []sec.GroupKey{
		{ConditionID: "c", ReplicateID: "1", BaitID: "A", PreyID: "B"},
		{ConditionID: "d", ReplicateID: "1", BaitID: "A", PreyID: "B"},
		{ConditionID: "d", ReplicateID: "1", BaitID: "A", PreyID: "C", Decoy: true},
	}
	if len(keys) != len(want) {
		t.Fatalf("expected %d groups, got %d: %+v", len(want), len(keys), keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("group %d: expected %+v, got %+v", i, want[i], keys[i])
		}
	}
}

func TestEnumerateDeduplicatesQueries(t *testing.T) {
	filtered := []sec.Point{pt("c", "1", "A"), pt("c", "1", "B")}
	queries := []sec.Query{
		{BaitID: "A", PreyID: "B"},
		{BaitID: "A", PreyID: "B"},
		{BaitID: "A", PreyID: "B", Decoy: true},
	}
	keys := Enumerate(queries, filtered)
	if len(keys) != 2 {
		t.Errorf("expected 2 groups (target and decoy), got %d", len(keys))
	}
}

func TestEnumerateSelfQuery(t *testing.T) {
	filtered := []sec.Point{pt("c", "1", "A")}
	keys := Enumerate([]sec.Query{{BaitID: "A", PreyID: "A"}}, filtered)
	if len(keys) != 1 {
		t.Errorf("expected bait==prey query to be enumerated, got %d groups", len(keys))
	}
}

func TestEnumerateEmpty(t *testing.T) {
	if keys := Enumerate(nil, []sec.Point{pt("c", "1", "A")}); len(keys) != 0 {
		t.Errorf("expected no groups without queries, got %d", len(keys))
	}
	if keys := Enumerate([]sec.Query{{BaitID: "A", PreyID: "B"}}, nil); len(keys) != 0 {
		t.Errorf("expected no groups without data, got %d", len(keys))
	}
}
