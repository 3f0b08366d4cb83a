package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS records (
	collection TEXT NOT NULL,
	username   TEXT NOT NULL,
	doc        BLOB NOT NULL,
	PRIMARY KEY (collection, username)
);`

// SQLiteDB wraps a single SQLite database shared by every collection. It keeps
// the RecordStore contract identical to the file layout while giving
// deployments one durable file instead of four.
type SQLiteDB struct {
	db *sql.DB
}

// OpenSQLite opens (creating if necessary) the database at path and ensures
// the records table exists.
func OpenSQLite(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnavailable, path, err)
	}
	// Collection saves are whole-table transactions; a single connection keeps
	// the driver from returning SQLITE_BUSY under concurrent savers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: init schema: %v", ErrUnavailable, err)
	}
	return &SQLiteDB{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Collection returns a RecordStore view over one collection.
func (s *SQLiteDB) Collection(c Collection) *SQLiteStore {
	return &SQLiteStore{db: s.db, collection: string(c)}
}

// SQLiteStore is the per-collection RecordStore over a shared SQLiteDB.
type SQLiteStore struct {
	db         *sql.DB
	collection string
}

// LoadAll reads every record in the collection. Query failures degrade to an
// empty collection, matching the file store's first-run behavior.
func (s *SQLiteStore) LoadAll(ctx context.Context) (map[string]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT username, doc FROM records WHERE collection = ?`, s.collection)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return map[string]json.RawMessage{}, nil
	}
	defer rows.Close()

	records := map[string]json.RawMessage{}
	for rows.Next() {
		var username string
		var doc []byte
		if err := rows.Scan(&username, &doc); err != nil {
			return map[string]json.RawMessage{}, nil
		}
		records[username] = json.RawMessage(doc)
	}
	if err := rows.Err(); err != nil {
		return map[string]json.RawMessage{}, nil
	}
	return records, nil
}

// SaveAll replaces the collection in one transaction.
func (s *SQLiteStore) SaveAll(ctx context.Context, records map[string]json.RawMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin save %s: %v", ErrUnavailable, s.collection, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM records WHERE collection = ?`, s.collection); err != nil {
		return fmt.Errorf("%w: clear %s: %v", ErrUnavailable, s.collection, err)
	}
	for username, doc := range records {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO records (collection, username, doc) VALUES (?, ?, ?)`,
			s.collection, username, []byte(doc)); err != nil {
			return fmt.Errorf("%w: insert %s/%s: %v", ErrUnavailable, s.collection, username, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit %s: %v", ErrUnavailable, s.collection, err)
	}
	return nil
}
