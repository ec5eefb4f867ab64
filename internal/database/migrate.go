package database

import (
	"database/sql"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

// inputTables are the tables SECAT preprocessing writes. A file holding all of
// them already matches migration 1.
var inputTables = []string{"PROTEIN", "SEC", "QUANTIFICATION", "QUERY"}

// getSchemaVersion reads PRAGMA user_version from the database.
func getSchemaVersion(conn *sql.DB) (int, error) {
	var version int
	if err := conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// presentInputTables returns which input tables exist, matching names
// case-insensitively as SQLite does.
func presentInputTables(conn *sql.DB) (map[string]bool, error) {
	rows, err := conn.Query("SELECT name FROM sqlite_master WHERE type='table'")
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("listing tables: %w", err)
		}
		for _, t := range inputTables {
			if strings.EqualFold(name, t) {
				present[t] = true
			}
		}
	}
	return present, rows.Err()
}

// isLegacyDB reports whether an unversioned file is a complete SECAT
// preprocessing output.
func isLegacyDB(conn *sql.DB) (bool, error) {
	present, err := presentInputTables(conn)
	if err != nil {
		return false, err
	}
	if len(present) == 0 {
		return false, nil
	}

	var missing []string
	for _, t := range inputTables {
		if !present[t] {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		// migration 1 only creates what is absent, so existing rows survive
		log.WithField("missing", strings.Join(missing, ",")).
			Warn("Preprocessed database is incomplete, creating missing input tables")
		return false, nil
	}
	return true, nil
}

// migrate brings the schema to the latest version tracked in user_version.
func migrate(conn *sql.DB) error {
	current, err := getSchemaVersion(conn)
	if err != nil {
		return err
	}

	if current == 0 {
		legacy, err := isLegacyDB(conn)
		if err != nil {
			return err
		}
		if legacy {
			log.Info("Detected preprocessed SECAT database, stamping as version 1")
			if _, err := conn.Exec("PRAGMA user_version = 1"); err != nil {
				return fmt.Errorf("stamping preprocessed database: %w", err)
			}
			current = 1
		}
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		log.WithField("version", m.Version).Debugf("Applying migration: %s", m.Description)

		if err := applyMigration(conn, m); err != nil {
			return err
		}
	}
	return nil
}

// applyMigration runs one migration and records its version. user_version
// is written after the commit because modernc sqlite rejects it inside the
// transaction; every migration uses IF NOT EXISTS so a rerun is harmless.
func applyMigration(conn *sql.DB, m Migration) error {
	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", m.Version, err)
	}
	if err := m.Up(tx); err != nil {
		tx.Rollback()
		return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", m.Version, err)
	}

	if _, err := conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
		return fmt.Errorf("setting version %d: %w", m.Version, err)
	}
	return nil
}
