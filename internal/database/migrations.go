package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
// Version 1 matches the input tables written by SECAT preprocessing.
var migrations = []Migration{
	{
		Version:     1,
		Description: "input tables",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS PROTEIN (
    protein_id TEXT PRIMARY KEY,
    protein_mw REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS SEC (
    run_id TEXT PRIMARY KEY,
    condition_id TEXT NOT NULL,
    replicate_id TEXT NOT NULL,
    sec_id INTEGER NOT NULL,
    sec_mw REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS QUANTIFICATION (
    run_id TEXT NOT NULL,
    protein_id TEXT NOT NULL,
    peptide_id TEXT NOT NULL,
    peptide_intensity REAL NOT NULL,
    PRIMARY KEY (run_id, peptide_id)
);

CREATE TABLE IF NOT EXISTS QUERY (
    bait_id TEXT NOT NULL,
    prey_id TEXT NOT NULL,
    decoy INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (bait_id, prey_id, decoy)
);

CREATE INDEX IF NOT EXISTS idx_sec_run ON SEC(condition_id, replicate_id, sec_id);
CREATE INDEX IF NOT EXISTS idx_quantification_protein ON QUANTIFICATION(protein_id);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "monomer thresholds and feature scores",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS MONOMER (
    condition_id TEXT NOT NULL,
    replicate_id TEXT NOT NULL,
    protein_id TEXT NOT NULL,
    sec_id INTEGER NOT NULL,
    PRIMARY KEY (condition_id, replicate_id, protein_id)
);

CREATE TABLE IF NOT EXISTS FEATURE_SCORE (
    condition_id TEXT NOT NULL,
    replicate_id TEXT NOT NULL,
    bait_id TEXT NOT NULL,
    prey_id TEXT NOT NULL,
    decoy INTEGER NOT NULL,
    status TEXT NOT NULL CHECK(status IN ('scored', 'insufficient_signal', 'failed')),
    detail TEXT,
    var_xcorr_shape REAL,
    var_xcorr_shift REAL,
    var_apex REAL,
    var_mic REAL,
    var_mass_ratio REAL,
    var_snr REAL,
    var_intersection INTEGER,
    var_total_intersection INTEGER,
    PRIMARY KEY (condition_id, replicate_id, bait_id, prey_id, decoy)
);

CREATE INDEX IF NOT EXISTS idx_feature_score_pair ON FEATURE_SCORE(bait_id, prey_id);
`)
			return err
		},
	},
	{
		Version:     3,
		Description: "score run reports",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS score_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    generated_at TEXT DEFAULT (datetime('now')),
    params TEXT NOT NULL,
    group_count INTEGER DEFAULT 0,
    scored_count INTEGER DEFAULT 0,
    insufficient_count INTEGER DEFAULT 0,
    failed_count INTEGER DEFAULT 0,
    duration_ms INTEGER DEFAULT 0
);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
