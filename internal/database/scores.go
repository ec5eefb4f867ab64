package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/TobiSchelling/secat/internal/sec"
)

// ReplaceMonomerThresholds replaces all stored thresholds.
func (db *DB) ReplaceMonomerThresholds(thresholds []sec.MonomerThreshold) error {
	return db.bulk("DELETE FROM MONOMER",
		`INSERT INTO MONOMER (condition_id, replicate_id, protein_id, sec_id)
		VALUES (?, ?, ?, ?)`,
		len(thresholds), func(i int) []any {
			m := thresholds[i]
			return []any{m.ConditionID, m.ReplicateID, m.ProteinID, m.SecID}
		})
}

// GetMonomerThresholds returns all stored thresholds.
func (db *DB) GetMonomerThresholds() ([]sec.MonomerThreshold, error) {
	rows, err := db.conn.Query(
		`SELECT condition_id, replicate_id, protein_id, sec_id FROM MONOMER
		ORDER BY condition_id, replicate_id, protein_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sec.MonomerThreshold
	for rows.Next() {
		var m sec.MonomerThreshold
		if err := rows.Scan(&m.ConditionID, &m.ReplicateID, &m.ProteinID, &m.SecID); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ReplaceScores replaces all stored score records in one transaction.
func (db *DB) ReplaceScores(records []sec.ScoreRecord) error {
	return db.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM FEATURE_SCORE"); err != nil {
			return err
		}
		stmt, err := tx.Prepare(`INSERT INTO FEATURE_SCORE
			(condition_id, replicate_id, bait_id, prey_id, decoy, status, detail,
			var_xcorr_shape, var_xcorr_shift, var_apex, var_mic, var_mass_ratio, var_snr,
			var_intersection, var_total_intersection)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range records {
			var detail *string
			if r.Detail != "" {
				detail = &r.Detail
			}
			f := r.Features
			if f == nil {
				f = &sec.Features{}
			}
			var inter, total *int
			if r.Features != nil {
				inter, total = &f.LongestOverlap, &f.TotalIntersection
			}
			if _, err := stmt.Exec(
				r.ConditionID, r.ReplicateID, r.BaitID, r.PreyID, r.Decoy, string(r.Status), detail,
				f.XcorrShape, f.XcorrShift, f.XcorrApex, f.MIC, f.MassRatio, f.SNR,
				inter, total,
			); err != nil {
				return fmt.Errorf("storing %s: %w", r.GroupKey, err)
			}
		}
		return nil
	})
}

const scoreColumns = `condition_id, replicate_id, bait_id, prey_id, decoy, status, detail,
	var_xcorr_shape, var_xcorr_shift, var_apex, var_mic, var_mass_ratio, var_snr,
	var_intersection, var_total_intersection`

// GetScores returns score records matching the filter, ordered by group key.
func (db *DB) GetScores(f ScoreFilter) ([]sec.ScoreRecord, error) {
	var where []string
	var args []any
	for _, c := range []struct {
		col, val string
	}{
		{"condition_id", f.ConditionID},
		{"replicate_id", f.ReplicateID},
		{"bait_id", f.BaitID},
		{"prey_id", f.PreyID},
		{"status", string(f.Status)},
	} {
		if c.val != "" {
			where = append(where, c.col+" = ?")
			args = append(args, c.val)
		}
	}

	query := "SELECT " + scoreColumns + " FROM FEATURE_SCORE"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY condition_id, replicate_id, bait_id, prey_id, decoy"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanScores(rows)
}

// TopScores returns the best scored target groups by xcorr_shape.
func (db *DB) TopScores(limit int) ([]sec.ScoreRecord, error) {
	rows, err := db.conn.Query(
		"SELECT "+scoreColumns+` FROM FEATURE_SCORE
		WHERE status = 'scored' AND decoy = 0 AND var_xcorr_shape IS NOT NULL
		ORDER BY var_xcorr_shape DESC, condition_id, replicate_id, bait_id, prey_id
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanScores(rows)
}

// GetRunSummaries counts score records by status for every run.
func (db *DB) GetRunSummaries() ([]RunSummary, error) {
	rows, err := db.conn.Query(
		`SELECT condition_id, replicate_id,
		SUM(status = 'scored'), SUM(status = 'insufficient_signal'), SUM(status = 'failed')
		FROM FEATURE_SCORE GROUP BY condition_id, replicate_id
		ORDER BY condition_id, replicate_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(&s.ConditionID, &s.ReplicateID, &s.Scored, &s.Insufficient, &s.Failed); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanScores(rows *sql.Rows) ([]sec.ScoreRecord, error) {
	var out []sec.ScoreRecord
	for rows.Next() {
		var (
			r            sec.ScoreRecord
			status       string
			detail       sql.NullString
			f            sec.Features
			inter, total sql.NullInt64
		)
		if err := rows.Scan(&r.ConditionID, &r.ReplicateID, &r.BaitID, &r.PreyID, &r.Decoy,
			&status, &detail,
			&f.XcorrShape, &f.XcorrShift, &f.XcorrApex, &f.MIC, &f.MassRatio, &f.SNR,
			&inter, &total); err != nil {
			return nil, err
		}
		r.Status = sec.Status(status)
		r.Detail = detail.String
		if r.Status == sec.StatusScored {
			f.LongestOverlap = int(inter.Int64)
			f.TotalIntersection = int(total.Int64)
			r.Features = &f
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
