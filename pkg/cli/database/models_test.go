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
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/vylite/vylite/pkg/assert"
	"github.com/vylite/vylite/pkg/clock"
)

func TestTitleFromContent(t *testing.T) {
	testCases := []struct {
		content  string
		expected string
	}{
		{"hello world", "hello world"},
		{"first line\nsecond line", "first line"},
		{"  padded title  \nbody", "padded title"},
		{"", ""},
		{"\nbody only", ""},
	}

	for _, tc := range testCases {
		got := TitleFromContent(tc.content)
		assert.Equal(t, got, tc.expected, "title mismatch")
	}
}

func TestNewNote(t *testing.T) {
	c := clock.NewMock()
	now := c.Now()

	n := NewNote("n1-uuid", "es6 notes\nlet and const are block-scoped", now, "alice")

	assert.Equal(t, n.Title, "es6 notes", "title mismatch")
	assert.Equal(t, n.CreatedAt, now.UnixNano(), "created_at mismatch")
	assert.Equal(t, n.UpdatedAt, now.UnixNano(), "updated_at mismatch")
	assert.Equal(t, n.SyncStatus, SyncStatusPending, "new note should be pending")
	assert.Equal(t, n.UserID.Valid, true, "owner should be set")
	assert.Equal(t, n.UserID.String, "alice", "owner mismatch")

	orphan := NewNote("orphan-uuid", "offline note", now, "")
	assert.Equal(t, orphan.UserID.Valid, false, "ownerless note should have a null owner")
}

func TestTouch(t *testing.T) {
	c := clock.NewMock()
	n := NewNote("n1-uuid", "hello", c.Now(), "alice")
	n.SyncStatus = SyncStatusSynced

	c.Advance(time.Minute)
	n.Touch(c.Now())

	assert.Equal(t, n.UpdatedAt, c.Now().UnixNano(), "updated_at mismatch")
	assert.Equal(t, n.SyncStatus, SyncStatusPending, "touching should mark the note pending")
}

func TestInsertGet(t *testing.T) {
	db := InitTestDB(t)
	c := clock.NewMock()

	n := NewNote("n1-uuid", "hello\nworld", c.Now(), "alice")
	MustInsertNote(t, db, n)

	got, err := GetNote(db, "n1-uuid")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting the note"))
	}

	assert.DeepEqual(t, got, n, "note mismatch")
}

func TestGetNoteMissing(t *testing.T) {
	db := InitTestDB(t)

	_, err := GetNote(db, "no-such-uuid")
	assert.Equal(t, err, sql.ErrNoRows, "error mismatch")
}

func TestUpsert(t *testing.T) {
	db := InitTestDB(t)
	c := clock.NewMock()

	n := NewNote("n1-uuid", "original", c.Now(), "alice")
	MustInsertNote(t, db, n)

	c.Advance(time.Minute)
	n.SetContent("replaced", c.Now())
	n.SyncStatus = SyncStatusSynced
	if err := n.Upsert(db); err != nil {
		t.Fatal(errors.Wrap(err, "upserting"))
	}

	var count int
	MustScan(t, "counting notes", db.QueryRow("SELECT count(*) FROM notes"), &count)
	assert.Equal(t, count, 1, "upsert should not create a second row")

	got, err := GetNote(db, "n1-uuid")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting the note"))
	}
	assert.Equal(t, got.Content, "replaced", "content mismatch")
	assert.Equal(t, got.SyncStatus, SyncStatusSynced, "sync status mismatch")
}

func TestUpdateUUID(t *testing.T) {
	db := InitTestDB(t)
	c := clock.NewMock()

	n := NewNote("old-uuid", "hello", c.Now(), "alice")
	MustInsertNote(t, db, n)

	if err := n.UpdateUUID(db, "new-uuid"); err != nil {
		t.Fatal(errors.Wrap(err, "updating the uuid"))
	}

	assert.Equal(t, n.UUID, "new-uuid", "struct uuid should be updated")

	_, err := GetNote(db, "old-uuid")
	assert.Equal(t, err, sql.ErrNoRows, "old uuid should be gone")

	got, err := GetNote(db, "new-uuid")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting the note"))
	}
	assert.Equal(t, got.Content, "hello", "content should survive the identity change")
}

func TestListNotesByStatus(t *testing.T) {
	db := InitTestDB(t)
	c := clock.NewMock()

	pending := NewNote("pending-uuid", "pending", c.Now(), "alice")
	synced := NewNote("synced-uuid", "synced", c.Now(), "alice")
	synced.SyncStatus = SyncStatusSynced
	MustInsertNote(t, db, pending)
	MustInsertNote(t, db, synced)

	got, err := ListNotesByStatus(db, SyncStatusPending)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing"))
	}

	assert.Equal(t, len(got), 1, "count mismatch")
	assert.Equal(t, got[0].UUID, "pending-uuid", "uuid mismatch")
}

func TestListActiveNotes(t *testing.T) {
	db := InitTestDB(t)
	c := clock.NewMock()

	older := NewNote("older-uuid", "older", c.Now(), "alice")
	newer := NewNote("newer-uuid", "newer", c.Now().Add(time.Minute), "alice")
	deleted := NewNote("deleted-uuid", "deleted", c.Now(), "alice")
	deleted.MarkDeleted(c.Now())
	MustInsertNote(t, db, older)
	MustInsertNote(t, db, newer)
	MustInsertNote(t, db, deleted)

	got, err := ListActiveNotes(db)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing"))
	}

	assert.Equal(t, len(got), 2, "count mismatch")
	assert.Equal(t, got[0].UUID, "newer-uuid", "most recently updated note should come first")
	assert.Equal(t, got[1].UUID, "older-uuid", "ordering mismatch")
}

func TestListMergeCandidates(t *testing.T) {
	db := InitTestDB(t)
	c := clock.NewMock()

	second := NewNote("second-uuid", "second orphan", c.Now().Add(time.Minute), "")
	second.CreatedAt = c.Now().Add(time.Minute).UnixNano()
	first := NewNote("first-uuid", "first orphan", c.Now(), "")
	owned := NewNote("owned-uuid", "owned", c.Now(), "alice")
	deletedOrphan := NewNote("deleted-uuid", "deleted orphan", c.Now(), "")
	deletedOrphan.MarkDeleted(c.Now())

	for _, n := range []Note{second, first, owned, deletedOrphan} {
		MustInsertNote(t, db, n)
	}

	got, err := ListMergeCandidates(db)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing"))
	}

	assert.Equal(t, len(got), 2, "count mismatch")
	assert.Equal(t, got[0].UUID, "first-uuid", "candidates should be ordered by creation")
	assert.Equal(t, got[1].UUID, "second-uuid", "ordering mismatch")
}

func TestCountForeignNotes(t *testing.T) {
	db := InitTestDB(t)
	c := clock.NewMock()

	mine := NewNote("mine-uuid", "mine", c.Now(), "alice")
	theirs := NewNote("theirs-uuid", "theirs", c.Now(), "bob")
	orphan := NewNote("orphan-uuid", "orphan", c.Now(), "")

	for _, n := range []Note{mine, theirs, orphan} {
		MustInsertNote(t, db, n)
	}

	got, err := CountForeignNotes(db, "alice")
	if err != nil {
		t.Fatal(errors.Wrap(err, "counting"))
	}

	assert.Equal(t, got, 1, "foreign count mismatch")
}

func TestDoInTxRollback(t *testing.T) {
	db := InitTestDB(t)
	c := clock.NewMock()

	err := db.DoInTx(func(tx *DB) error {
		n := NewNote("n1-uuid", "hello", c.Now(), "alice")
		if err := n.Insert(tx); err != nil {
			return err
		}

		return errors.New("deliberate failure")
	})
	assert.Err(t, err, "transaction should have failed")

	var count int
	MustScan(t, "counting notes", db.QueryRow("SELECT count(*) FROM notes"), &count)
	assert.Equal(t, count, 0, "a failed transaction should leave no rows")
}
