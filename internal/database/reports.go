package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// InsertScoreRun records a finished scoring run.
func (db *DB) InsertScoreRun(r ScoreRun) (int64, error) {
	params, err := json.Marshal(r.Params)
	if err != nil {
		return 0, fmt.Errorf("encoding params: %w", err)
	}
	result, err := db.conn.Exec(
		`INSERT INTO score_runs
		(params, group_count, scored_count, insufficient_count, failed_count, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(params), r.GroupCount, r.ScoredCount, r.InsufficientCount, r.FailedCount, r.DurationMS,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetLatestScoreRun returns the most recent run report, or nil if none exist.
func (db *DB) GetLatestScoreRun() (*ScoreRun, error) {
	row := db.conn.QueryRow(
		`SELECT id, generated_at, params, group_count, scored_count, insufficient_count,
		failed_count, duration_ms FROM score_runs ORDER BY id DESC LIMIT 1`,
	)

	var (
		r      ScoreRun
		params string
	)
	if err := row.Scan(&r.ID, &r.GeneratedAt, &params, &r.GroupCount, &r.ScoredCount,
		&r.InsufficientCount, &r.FailedCount, &r.DurationMS); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(params), &r.Params); err != nil {
		return nil, fmt.Errorf("decoding params of run %d: %w", r.ID, err)
	}
	return &r, nil
}

// GetStats returns aggregate database statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM PROTEIN", &s.Proteins},
		{"SELECT COUNT(*) FROM (SELECT DISTINCT condition_id, replicate_id FROM SEC)", &s.Runs},
		{"SELECT COUNT(*) FROM SEC", &s.Fractions},
		{"SELECT COUNT(DISTINCT peptide_id) FROM QUANTIFICATION", &s.Peptides},
		{"SELECT COUNT(*) FROM QUANTIFICATION", &s.Quantifications},
		{"SELECT COUNT(*) FROM QUERY", &s.Queries},
		{"SELECT COUNT(*) FROM QUERY WHERE decoy = 1", &s.Decoys},
		{"SELECT COUNT(*) FROM MONOMER", &s.MonomerThresholds},
		{"SELECT COUNT(*) FROM FEATURE_SCORE", &s.Scores},
		{"SELECT COUNT(*) FROM FEATURE_SCORE WHERE status = 'scored'", &s.ScoredGroups},
		{"SELECT COUNT(*) FROM score_runs", &s.ScoreRuns},
	}

	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	return s, nil
}
