/* Copyright 2025 Vylite Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package database provides the on-device store for vylite. It is a thin
// wrapper around SQLite with a notes table and a system key-value table
// holding session and sync state.
package database

import (
	"database/sql"

	// the sqlite driver behind database/sql
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// DB is a handle to the local database. It represents either a connection
// or an open transaction, so store helpers can be used inside and outside
// of transactions alike.
type DB struct {
	conn *sql.DB
	tx   *sql.Tx
}

// Open initializes a database connection at the given path
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening database at %s", path)
	}

	// The store is accessed from one process; a single connection keeps
	// transactions from contending with the connection pool.
	conn.SetMaxOpenConns(1)

	return &DB{conn: conn}, nil
}

// Begin starts a transaction. The returned handle supports the same
// operations as a plain connection handle.
func (d *DB) Begin() (*DB, error) {
	if d.tx != nil {
		return nil, errors.New("already in a transaction")
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "beginning a transaction")
	}

	return &DB{conn: d.conn, tx: tx}, nil
}

// Commit commits the transaction
func (d *DB) Commit() error {
	if d.tx == nil {
		return errors.New("not in a transaction")
	}

	return d.tx.Commit()
}

// Rollback aborts the transaction. It is a no-op on a non-transaction handle
// so that deferred cleanup can call it unconditionally.
func (d *DB) Rollback() error {
	if d.tx == nil {
		return nil
	}

	return d.tx.Rollback()
}

// Close closes the underlying connection
func (d *DB) Close() error {
	return d.conn.Close()
}

// Exec executes a query without returning any rows
func (d *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	if d.tx != nil {
		return d.tx.Exec(query, args...)
	}

	return d.conn.Exec(query, args...)
}

// Query executes a query that returns rows
func (d *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	if d.tx != nil {
		return d.tx.Query(query, args...)
	}

	return d.conn.Query(query, args...)
}

// QueryRow executes a query that is expected to return at most one row
func (d *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	if d.tx != nil {
		return d.tx.QueryRow(query, args...)
	}

	return d.conn.QueryRow(query, args...)
}

// DoInTx runs fn inside a transaction, committing on success and rolling
// back on error. Used whenever more than one record is mutated as a
// logical unit.
func (d *DB) DoInTx(fn func(tx *DB) error) error {
	tx, err := d.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "committing a transaction")
	}

	return nil
}
