package store

import (
	"context"
	"time"
)

// InsertIngestRun records a completed ingestion batch and returns its ID.
func (db *DB) InsertIngestRun(ctx context.Context, source, backend string, processed, failed int) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		"INSERT INTO ingest_runs (run_at, source, backend, processed, failed) VALUES (?, ?, ?, ?, ?)",
		time.Now().UTC().Unix(), source, backend, processed, failed,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// RecentIngestRuns returns the n most recent ingestion runs, newest first.
func (db *DB) RecentIngestRuns(ctx context.Context, n int) ([]IngestRun, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, run_at, source, backend, processed, failed FROM ingest_runs ORDER BY id DESC LIMIT ?",
		n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []IngestRun
	for rows.Next() {
		var r IngestRun
		var runAt int64
		if err := rows.Scan(&r.ID, &runAt, &r.Source, &r.Backend, &r.Processed, &r.Failed); err != nil {
			return nil, err
		}
		r.RunAt = time.Unix(runAt, 0).UTC()
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
