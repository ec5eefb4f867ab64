package database

import (
	"database/sql"
	"fmt"

	"github.com/TobiSchelling/secat/internal/sec"
)

// bulk runs query once per row inside a single transaction. A non-empty
// reset statement runs first in the same transaction.
func (db *DB) bulk(reset, query string, n int, args func(i int) []any) error {
	return db.withTx(func(tx *sql.Tx) error {
		if reset != "" {
			if _, err := tx.Exec(reset); err != nil {
				return err
			}
		}

		stmt, err := tx.Prepare(query)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i := 0; i < n; i++ {
			if _, err := stmt.Exec(args(i)...); err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}
		}
		return nil
	})
}

// InsertProteins inserts or replaces protein molecular weights.
func (db *DB) InsertProteins(proteins []sec.Protein) error {
	return db.bulk("",
		"INSERT OR REPLACE INTO PROTEIN (protein_id, protein_mw) VALUES (?, ?)",
		len(proteins), func(i int) []any {
			return []any{proteins[i].ID, proteins[i].MW}
		})
}

// InsertSecRuns inserts or replaces the run to fraction mapping.
func (db *DB) InsertSecRuns(runs []SecRun) error {
	return db.bulk("",
		`INSERT OR REPLACE INTO SEC (run_id, condition_id, replicate_id, sec_id, sec_mw)
		VALUES (?, ?, ?, ?, ?)`,
		len(runs), func(i int) []any {
			r := runs[i]
			return []any{r.RunID, r.ConditionID, r.ReplicateID, r.SecID, r.SecMW}
		})
}

// InsertQuantifications inserts or replaces peptide intensities.
func (db *DB) InsertQuantifications(quants []Quantification) error {
	return db.bulk("",
		`INSERT OR REPLACE INTO QUANTIFICATION (run_id, protein_id, peptide_id, peptide_intensity)
		VALUES (?, ?, ?, ?)`,
		len(quants), func(i int) []any {
			q := quants[i]
			return []any{q.RunID, q.ProteinID, q.PeptideID, q.Intensity}
		})
}

// InsertQueries inserts bait/prey queries, ignoring duplicates.
func (db *DB) InsertQueries(queries []sec.Query) error {
	return db.bulk("",
		"INSERT OR IGNORE INTO QUERY (bait_id, prey_id, decoy) VALUES (?, ?, ?)",
		len(queries), func(i int) []any {
			q := queries[i]
			return []any{q.BaitID, q.PreyID, q.Decoy}
		})
}

// GetProteins returns all proteins ordered by id.
func (db *DB) GetProteins() ([]sec.Protein, error) {
	rows, err := db.conn.Query("SELECT protein_id, protein_mw FROM PROTEIN ORDER BY protein_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var proteins []sec.Protein
	for rows.Next() {
		var p sec.Protein
		if err := rows.Scan(&p.ID, &p.MW); err != nil {
			return nil, err
		}
		proteins = append(proteins, p)
	}
	return proteins, rows.Err()
}

// GetFractions returns the calibrated fractions of every run.
func (db *DB) GetFractions() ([]sec.Fraction, error) {
	rows, err := db.conn.Query(
		`SELECT DISTINCT condition_id, replicate_id, sec_id, sec_mw FROM SEC
		ORDER BY condition_id, replicate_id, sec_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fractions []sec.Fraction
	for rows.Next() {
		var f sec.Fraction
		if err := rows.Scan(&f.ConditionID, &f.ReplicateID, &f.SecID, &f.SecMW); err != nil {
			return nil, err
		}
		fractions = append(fractions, f)
	}
	return fractions, rows.Err()
}

// GetPoints returns every peptide intensity joined with its fraction.
// Quantifications of unknown runs are skipped.
func (db *DB) GetPoints() ([]sec.Point, error) {
	rows, err := db.conn.Query(
		`SELECT SEC.condition_id, SEC.replicate_id, QUANTIFICATION.protein_id,
		QUANTIFICATION.peptide_id, SEC.sec_id, QUANTIFICATION.peptide_intensity
		FROM QUANTIFICATION INNER JOIN SEC ON QUANTIFICATION.run_id = SEC.run_id
		ORDER BY SEC.condition_id, SEC.replicate_id, QUANTIFICATION.protein_id,
		QUANTIFICATION.peptide_id, SEC.sec_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []sec.Point
	for rows.Next() {
		var p sec.Point
		if err := rows.Scan(&p.ConditionID, &p.ReplicateID, &p.ProteinID,
			&p.PeptideID, &p.SecID, &p.Intensity); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// GetQueries returns all queries in insertion order.
func (db *DB) GetQueries() ([]sec.Query, error) {
	rows, err := db.conn.Query("SELECT bait_id, prey_id, decoy FROM QUERY ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var queries []sec.Query
	for rows.Next() {
		var q sec.Query
		if err := rows.Scan(&q.BaitID, &q.PreyID, &q.Decoy); err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
	return queries, rows.Err()
}
