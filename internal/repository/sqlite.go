package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS boundary (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			sw_lat REAL,
			sw_lng REAL,
			ne_lat REAL,
			ne_lng REAL,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS entities (
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			label TEXT NOT NULL,
			status TEXT NOT NULL,
			latitude REAL,
			longitude REAL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (entity_type, entity_id)
		);

		CREATE TABLE IF NOT EXISTS geofence_alerts (
			id TEXT PRIMARY KEY,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			entity_label TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			alert_type TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			acknowledged_at DATETIME
		);

		CREATE INDEX IF NOT EXISTS idx_entities_status ON entities(status);
		CREATE INDEX IF NOT EXISTS idx_alerts_status ON geofence_alerts(status);
		CREATE INDEX IF NOT EXISTS idx_alerts_entity ON geofence_alerts(entity_type, entity_id);
		CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON geofence_alerts(created_at);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
