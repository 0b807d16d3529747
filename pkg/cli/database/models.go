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

package database

import (
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/vylite/vylite/pkg/cli/utils"
)

// Sync statuses of a note. A pending note holds local mutations that have
// not been confirmed persisted remotely.
const (
	SyncStatusPending = "pending"
	SyncStatusSynced  = "synced"
)

// Note represents a note in the local store
type Note struct {
	UUID         string         `json:"uuid"`
	Title        string         `json:"title"`
	Content      string         `json:"content"`
	CreatedAt    int64          `json:"created_at"`
	UpdatedAt    int64          `json:"updated_at"`
	LastModified string         `json:"last_modified"`
	SyncStatus   string         `json:"sync_status"`
	Deleted      bool           `json:"deleted"`
	UserID       sql.NullString `json:"user_id"`
	Embedding    sql.NullString `json:"embedding"`
}

// TitleFromContent derives a note title from the first line of its content
func TitleFromContent(content string) string {
	line := content
	if idx := strings.IndexByte(content, '\n'); idx >= 0 {
		line = content[:idx]
	}

	return strings.TrimSpace(line)
}

// NewNote constructs a note with the given content, owned by userID if
// non-empty. New notes are always pending.
func NewNote(uuid, content string, now time.Time, userID string) Note {
	n := Note{
		UUID:       uuid,
		Title:      TitleFromContent(content),
		Content:    content,
		CreatedAt:  now.UnixNano(),
		SyncStatus: SyncStatusPending,
	}
	n.Touch(now)

	if userID != "" {
		n.UserID = sql.NullString{String: userID, Valid: true}
	}

	return n
}

// Touch refreshes the note's modification timestamps and marks it pending
func (n *Note) Touch(now time.Time) {
	n.UpdatedAt = now.UnixNano()
	n.LastModified = utils.FormatTimestamp(now)
	n.SyncStatus = SyncStatusPending
}

// SetContent replaces the note content, re-deriving the title and
// refreshing the modification timestamps
func (n *Note) SetContent(content string, now time.Time) {
	n.Content = content
	n.Title = TitleFromContent(content)
	n.Touch(now)
}

// MarkDeleted soft-deletes the note. The record stays in the store as a
// pending tombstone until the deletion is confirmed pushed.
func (n *Note) MarkDeleted(now time.Time) {
	n.Deleted = true
	n.Touch(now)
}

// Insert inserts a new note
func (n Note) Insert(db *DB) error {
	_, err := db.Exec(`INSERT INTO notes
		(uuid, title, content, created_at, updated_at, last_modified, sync_status, deleted, user_id, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.UUID, n.Title, n.Content, n.CreatedAt, n.UpdatedAt, n.LastModified, n.SyncStatus, n.Deleted, n.UserID, n.Embedding)
	if err != nil {
		return errors.Wrapf(err, "inserting note with uuid %s", n.UUID)
	}

	return nil
}

// Update writes the full record over the existing row with the same uuid
func (n Note) Update(db *DB) error {
	_, err := db.Exec(`UPDATE notes
		SET title = ?, content = ?, created_at = ?, updated_at = ?, last_modified = ?, sync_status = ?, deleted = ?, user_id = ?, embedding = ?
		WHERE uuid = ?`,
		n.Title, n.Content, n.CreatedAt, n.UpdatedAt, n.LastModified, n.SyncStatus, n.Deleted, n.UserID, n.Embedding, n.UUID)
	if err != nil {
		return errors.Wrapf(err, "updating the note with uuid %s", n.UUID)
	}

	return nil
}

// Upsert inserts the record, replacing any existing row with the same uuid
func (n Note) Upsert(db *DB) error {
	_, err := db.Exec(`INSERT OR REPLACE INTO notes
		(uuid, title, content, created_at, updated_at, last_modified, sync_status, deleted, user_id, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.UUID, n.Title, n.Content, n.CreatedAt, n.UpdatedAt, n.LastModified, n.SyncStatus, n.Deleted, n.UserID, n.Embedding)
	if err != nil {
		return errors.Wrapf(err, "upserting note with uuid %s", n.UUID)
	}

	return nil
}

// UpdateUUID rewrites the identifier of the note. Used by the sync engine
// when recovering from an ownership conflict on a remote row.
func (n *Note) UpdateUUID(db *DB, newUUID string) error {
	_, err := db.Exec("UPDATE notes SET uuid = ? WHERE uuid = ?", newUUID, n.UUID)
	if err != nil {
		return errors.Wrapf(err, "updating note uuid from '%s' to '%s'", n.UUID, newUUID)
	}

	n.UUID = newUUID

	return nil
}

// Expunge hard-deletes the note from the local store
func (n Note) Expunge(db *DB) error {
	_, err := db.Exec("DELETE FROM notes WHERE uuid = ?", n.UUID)
	if err != nil {
		return errors.Wrap(err, "expunging a note locally")
	}

	return nil
}

const noteColumns = "uuid, title, content, created_at, updated_at, last_modified, sync_status, deleted, user_id, embedding"

func scanNote(scan func(dest ...interface{}) error) (Note, error) {
	var n Note
	err := scan(&n.UUID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt, &n.LastModified, &n.SyncStatus, &n.Deleted, &n.UserID, &n.Embedding)

	return n, err
}

// GetNote retrieves a note by its uuid. It returns sql.ErrNoRows if the
// note does not exist.
func GetNote(db *DB, uuid string) (Note, error) {
	row := db.QueryRow("SELECT "+noteColumns+" FROM notes WHERE uuid = ?", uuid)

	n, err := scanNote(row.Scan)
	if err == sql.ErrNoRows {
		return n, err
	}
	if err != nil {
		return n, errors.Wrapf(err, "getting note %s", uuid)
	}

	return n, nil
}

func listNotes(db *DB, query string, args ...interface{}) ([]Note, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying notes")
	}
	defer rows.Close()

	var ret []Note
	for rows.Next() {
		n, err := scanNote(rows.Scan)
		if err != nil {
			return nil, errors.Wrap(err, "scanning a note row")
		}

		ret = append(ret, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating note rows")
	}

	return ret, nil
}

// ListNotesByStatus returns all notes with the given sync status
func ListNotesByStatus(db *DB, status string) ([]Note, error) {
	return listNotes(db, "SELECT "+noteColumns+" FROM notes WHERE sync_status = ? ORDER BY updated_at", status)
}

// ListActiveNotes returns all non-deleted notes, most recently updated first
func ListActiveNotes(db *DB) ([]Note, error) {
	return listNotes(db, "SELECT "+noteColumns+" FROM notes WHERE NOT deleted ORDER BY updated_at DESC")
}

// ListMergeCandidates returns all non-deleted notes without an owner.
// Notes owned by a different account are deliberately excluded: reassigning
// them without that account's consent is a privacy hazard.
func ListMergeCandidates(db *DB) ([]Note, error) {
	return listNotes(db, "SELECT "+noteColumns+" FROM notes WHERE NOT deleted AND user_id IS NULL ORDER BY created_at")
}

// CountForeignNotes counts non-deleted notes owned by an account other than
// the given one. Surfaced in debug output only; foreign notes are never
// merged or pushed.
func CountForeignNotes(db *DB, activeUserID string) (int, error) {
	var count int
	err := db.QueryRow("SELECT count(*) FROM notes WHERE NOT deleted AND user_id IS NOT NULL AND user_id != ?", activeUserID).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "counting foreign notes")
	}

	return count, nil
}
