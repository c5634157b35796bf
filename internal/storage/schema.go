package storage

import (
	"database/sql"
	"fmt"
)

// Schema version tracking
const currentSchemaVersion = 1

// initializeSchema creates all tables for a new database
func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		if err := createSchemaVersionTable(tx); err != nil {
			return err
		}
		for _, create := range []func(*sql.Tx) error{
			createFilesTable,
			createNodesTable,
			createEdgesTable,
			createSnapshotTable,
			createHotspotHistoryTable,
		} {
			if err := create(tx); err != nil {
				return err
			}
		}
		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}
		db.logger.Info("Database schema initialized", "version", currentSchemaVersion)
		return nil
	})
}

// runMigrations brings an existing database to the current schema. The
// stored snapshot is derived data, so an incompatible file is rebuilt empty
// and refilled by the next index run.
func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}
	if version == currentSchemaVersion {
		db.logger.Debug("Database schema is up to date", "version", version)
		return nil
	}

	db.logger.Info("Rebuilding database schema", "from_version", version, "to_version", currentSchemaVersion)
	if err := db.WithTx(func(tx *sql.Tx) error {
		for _, table := range []string{"edges", "nodes", "files", "snapshot", "hotspot_history", "schema_version"} {
			if _, err := tx.Exec("DROP TABLE IF EXISTS " + table); err != nil {
				return fmt.Errorf("dropping %s: %w", table, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}
	return db.initializeSchema()
}

// getSchemaVersion gets the current schema version
func (db *DB) getSchemaVersion() (int, error) {
	var tableName string
	err := db.conn.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

func setSchemaVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

func createSchemaVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	return err
}

// createFilesTable creates the per-file ownership table
func createFilesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS files (
			path TEXT PRIMARY KEY,
			language TEXT NOT NULL DEFAULT '',
			node_count INTEGER NOT NULL DEFAULT 0,
			edge_count INTEGER NOT NULL DEFAULT 0
		)
	`)
	return err
}

// createNodesTable creates the nodes table. data holds the full JSON node;
// the other columns exist for lookups.
func createNodesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS nodes (
			id TEXT PRIMARY KEY,
			file TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			type TEXT NOT NULL,
			name TEXT NOT NULL,
			language TEXT NOT NULL,
			start_line INTEGER NOT NULL,
			data TEXT NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_nodes_file ON nodes(file, seq)",
		"CREATE INDEX IF NOT EXISTS idx_nodes_name ON nodes(name COLLATE NOCASE)",
		"CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes(type)",
	}
	for _, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return err
		}
	}
	return nil
}

// createEdgesTable creates the edges table. Bridge edges have an empty
// owning file.
func createEdgesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS edges (
			file TEXT NOT NULL,
			seq INTEGER NOT NULL,
			source TEXT NOT NULL,
			target TEXT NOT NULL,
			relation TEXT NOT NULL,
			is_bridge INTEGER NOT NULL DEFAULT 0,
			confidence REAL NOT NULL,
			context TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (file, seq)
		)
	`)
	if err != nil {
		return err
	}
	_, err = tx.Exec("CREATE INDEX IF NOT EXISTS idx_edges_relation ON edges(relation)")
	return err
}

// createSnapshotTable creates the single-row snapshot header
func createSnapshotTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS snapshot (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			saved_at TEXT NOT NULL,
			node_count INTEGER NOT NULL,
			edge_count INTEGER NOT NULL,
			file_count INTEGER NOT NULL
		)
	`)
	return err
}

// createHotspotHistoryTable records one score per symbol per index run.
// Rows survive SaveSnapshot so trends span runs.
func createHotspotHistoryTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS hotspot_history (
			node_id TEXT NOT NULL,
			sampled_at TEXT NOT NULL,
			score REAL NOT NULL,
			PRIMARY KEY (node_id, sampled_at)
		)
	`)
	if err != nil {
		return err
	}
	_, err = tx.Exec("CREATE INDEX IF NOT EXISTS idx_hotspot_history_at ON hotspot_history(sampled_at)")
	return err
}
