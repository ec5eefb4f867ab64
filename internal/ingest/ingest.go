// Package ingest loads tab-separated input tables into the store.
package ingest

import (
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/TobiSchelling/secat/internal/database"
	"github.com/TobiSchelling/secat/internal/sec"
)

// Files names the input tables. Empty paths are skipped.
type Files struct {
	Proteins       string
	Sec            string
	Quantification string
	Queries        string
}

// Result holds the results of an import.
type Result struct {
	Proteins        int
	Fractions       int
	Quantifications int
	Missing         int // blank or NaN intensities, treated as absent
	Queries         int
}

// Importer loads input tables into the database.
type Importer struct {
	db *database.DB
}

// NewImporter creates a new importer.
func NewImporter(db *database.DB) *Importer {
	return &Importer{db: db}
}

// Import reads every named file and writes its rows to the store.
func (im *Importer) Import(files Files) (*Result, error) {
	r := &Result{}
	steps := []struct {
		path string
		load func(io.Reader, *Result) error
	}{
		{files.Proteins, im.loadProteins},
		{files.Sec, im.loadSec},
		{files.Quantification, im.loadQuantification},
		{files.Queries, im.loadQueries},
	}
	for _, s := range steps {
		if s.path == "" {
			continue
		}
		f, err := openFile(s.path)
		if err != nil {
			return nil, err
		}
		err = s.load(f, r)
		f.Close()
		if err != nil {
			return nil, err
		}
	}

	log.Printf("Import complete: %d proteins, %d fractions, %d intensities (%d missing), %d queries",
		r.Proteins, r.Fractions, r.Quantifications, r.Missing, r.Queries)
	return r, nil
}

func (im *Importer) loadProteins(rd io.Reader, r *Result) error {
	t, err := openTable("protein", rd, "protein_id", "protein_mw")
	if err != nil {
		return err
	}
	var proteins []sec.Protein
	for {
		rec, err := t.next()
		if err != nil {
			return err
		}
		if rec == nil {
			break
		}
		id, err := t.id(rec, "protein_id")
		if err != nil {
			return err
		}
		mw, err := t.number(rec, "protein_mw")
		if err != nil {
			return err
		}
		if mw <= 0 {
			return t.errorf("protein_mw must be positive, got %v", mw)
		}
		proteins = append(proteins, sec.Protein{ID: id, MW: mw})
	}
	if err := im.db.InsertProteins(proteins); err != nil {
		return fmt.Errorf("storing proteins: %w", err)
	}
	r.Proteins += len(proteins)
	return nil
}

func (im *Importer) loadSec(rd io.Reader, r *Result) error {
	t, err := openTable("sec", rd, "run_id", "condition_id", "replicate_id", "sec_id", "sec_mw")
	if err != nil {
		return err
	}
	var runs []database.SecRun
	for {
		rec, err := t.next()
		if err != nil {
			return err
		}
		if rec == nil {
			break
		}
		var s database.SecRun
		if s.RunID, err = t.id(rec, "run_id"); err != nil {
			return err
		}
		if s.ConditionID, err = t.id(rec, "condition_id"); err != nil {
			return err
		}
		if s.ReplicateID, err = t.id(rec, "replicate_id"); err != nil {
			return err
		}
		if s.SecID, err = t.integer(rec, "sec_id"); err != nil {
			return err
		}
		if s.SecMW, err = t.number(rec, "sec_mw"); err != nil {
			return err
		}
		runs = append(runs, s)
	}
	if err := im.db.InsertSecRuns(runs); err != nil {
		return fmt.Errorf("storing sec runs: %w", err)
	}
	r.Fractions += len(runs)
	return nil
}

func (im *Importer) loadQuantification(rd io.Reader, r *Result) error {
	t, err := openTable("quantification", rd, "run_id", "protein_id", "peptide_id")
	if err != nil {
		return err
	}
	intensityCol := "peptide_intensity"
	if !t.has(intensityCol) {
		intensityCol = "intensity"
	}
	if !t.has(intensityCol) {
		return &sec.InputError{Table: "quantification", Message: `missing column "peptide_intensity"`}
	}

	var quants []database.Quantification
	for {
		rec, err := t.next()
		if err != nil {
			return err
		}
		if rec == nil {
			break
		}
		raw := strings.ToLower(t.str(rec, intensityCol))
		if raw == "" || raw == "nan" || raw == "na" {
			r.Missing++
			continue
		}
		var q database.Quantification
		if q.RunID, err = t.id(rec, "run_id"); err != nil {
			return err
		}
		if q.ProteinID, err = t.id(rec, "protein_id"); err != nil {
			return err
		}
		if q.PeptideID, err = t.id(rec, "peptide_id"); err != nil {
			return err
		}
		if q.Intensity, err = t.number(rec, intensityCol); err != nil {
			return err
		}
		if q.Intensity < 0 {
			return t.errorf("negative intensity %v", q.Intensity)
		}
		quants = append(quants, q)
	}
	if err := im.db.InsertQuantifications(quants); err != nil {
		return fmt.Errorf("storing quantifications: %w", err)
	}
	r.Quantifications += len(quants)
	return nil
}

func (im *Importer) loadQueries(rd io.Reader, r *Result) error {
	t, err := openTable("query", rd, "bait_id", "prey_id")
	if err != nil {
		return err
	}
	var queries []sec.Query
	for {
		rec, err := t.next()
		if err != nil {
			return err
		}
		if rec == nil {
			break
		}
		var q sec.Query
		if q.BaitID, err = t.id(rec, "bait_id"); err != nil {
			return err
		}
		if q.PreyID, err = t.id(rec, "prey_id"); err != nil {
			return err
		}
		if q.Decoy, err = t.flag(rec, "decoy"); err != nil {
			return err
		}
		queries = append(queries, q)
	}
	if err := im.db.InsertQueries(queries); err != nil {
		return fmt.Errorf("storing queries: %w", err)
	}
	r.Queries += len(queries)
	return nil
}
