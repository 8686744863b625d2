package store

import "fmt"

// currentSchemaVersion is the latest schema version.
const currentSchemaVersion = 1

// Migrate runs forward migrations to bring the database schema up to date.
func (db *DB) Migrate() error {
	// Create the schema_version table if it does not exist.
	if _, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	version := 0
	row := db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1")
	if err := row.Scan(&version); err != nil {
		// No rows means version 0 (fresh database).
		version = 0
	}

	if version < 1 {
		if err := db.migrateV1(); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return nil
}

// migrateV1 creates all initial tables and indexes. Timestamps are unix
// seconds (UTC).
func (db *DB) migrateV1() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS feedback (
			id             TEXT PRIMARY KEY,
			trainee_id     TEXT NOT NULL,
			location       TEXT NOT NULL,
			training_batch TEXT NOT NULL,
			week_start     INTEGER NOT NULL,
			week_end       INTEGER NOT NULL,
			rating_score   INTEGER,
			open_text      TEXT NOT NULL,
			category_tags  TEXT,
			trainee_stage  TEXT NOT NULL DEFAULT 'unknown',
			created_at     INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS sentiment_annotations (
			feedback_id    TEXT PRIMARY KEY REFERENCES feedback(id) ON DELETE CASCADE,
			sentiment      TEXT NOT NULL,
			confidence     REAL NOT NULL,
			positive_score REAL NOT NULL,
			neutral_score  REAL NOT NULL,
			negative_score REAL NOT NULL,
			emotional_tone TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS category_assignments (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			feedback_id      TEXT NOT NULL REFERENCES feedback(id) ON DELETE CASCADE,
			position         INTEGER NOT NULL,
			category         TEXT NOT NULL,
			relevance_score  REAL NOT NULL,
			keywords_matched TEXT NOT NULL DEFAULT '[]'
		)`,

		`CREATE TABLE IF NOT EXISTS period_reports (
			id                      INTEGER PRIMARY KEY AUTOINCREMENT,
			week_start              INTEGER NOT NULL UNIQUE,
			week_end                INTEGER NOT NULL,
			overall_sentiment_score REAL NOT NULL,
			sentiment_change        REAL,
			heat_index              REAL NOT NULL,
			total_feedback_count    INTEGER NOT NULL,
			positive_count          INTEGER NOT NULL,
			neutral_count           INTEGER NOT NULL,
			negative_count          INTEGER NOT NULL,
			executive_summary       TEXT,
			report_data             TEXT,
			created_at              INTEGER NOT NULL,
			updated_at              INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS action_items (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			report_id        INTEGER NOT NULL REFERENCES period_reports(id) ON DELETE CASCADE,
			position         INTEGER NOT NULL,
			priority         TEXT NOT NULL,
			category         TEXT,
			title            TEXT NOT NULL,
			description      TEXT NOT NULL,
			assigned_to      TEXT,
			status           TEXT NOT NULL DEFAULT 'pending',
			confidence_score REAL,
			examples         TEXT NOT NULL DEFAULT '[]',
			created_at       INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS ingest_runs (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			run_at    INTEGER NOT NULL,
			source    TEXT NOT NULL,
			backend   TEXT NOT NULL,
			processed INTEGER NOT NULL,
			failed    INTEGER NOT NULL
		)`,

		// Indexes.
		`CREATE INDEX IF NOT EXISTS idx_feedback_week ON feedback(week_start)`,
		`CREATE INDEX IF NOT EXISTS idx_category_feedback ON category_assignments(feedback_id)`,
		`CREATE INDEX IF NOT EXISTS idx_category_name ON category_assignments(category)`,
		`CREATE INDEX IF NOT EXISTS idx_action_items_report ON action_items(report_id)`,
		`CREATE INDEX IF NOT EXISTS idx_action_items_status ON action_items(status)`,
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:40], err)
		}
	}

	// Set schema version.
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
		return err
	}

	return tx.Commit()
}
