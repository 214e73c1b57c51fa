// Package store provides the SQLite persistence layer for lector:
// synthesized audio segments (write-once cache), conversion jobs,
// skipped fragments, and the voice catalog cache.
package store

import (
	"database/sql"

	"github.com/hazyhaar/lector/dbopen"
)

// Store is the lector database handle.
type Store struct {
	DB *sql.DB
}

// Open opens (or creates) the lector SQLite database at path, applies
// pragmas and the schema.
func Open(path string, opts ...dbopen.Option) (*Store, error) {
	allOpts := append([]dbopen.Option{
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(Schema),
	}, opts...)

	db, err := dbopen.Open(path, allOpts...)
	if err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}
