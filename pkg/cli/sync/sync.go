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

// Package sync reconciles the local store with the remote store. Each cycle
// pushes pending local changes first, then pulls remote changes since the
// persisted watermark, resolving conflicts by last-write-wins on the whole
// record.
package sync

import (
	"database/sql"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/vylite/vylite/pkg/cli/client"
	"github.com/vylite/vylite/pkg/cli/consts"
	"github.com/vylite/vylite/pkg/cli/database"
	"github.com/vylite/vylite/pkg/cli/log"
	"github.com/vylite/vylite/pkg/cli/utils"
	"github.com/vylite/vylite/pkg/cli/utils/diff"
	"github.com/vylite/vylite/pkg/clock"
)

// Remote is the engine's view of the remote store gateway and the identity
// provider behind it. The production implementation wraps the HTTP client;
// tests substitute a fake.
type Remote interface {
	// GetPrincipal returns the authenticated account, or nil when signed out
	GetPrincipal() (*client.Principal, error)
	// UpsertNotes writes the given rows as one atomic batch
	UpsertNotes(rows []client.NoteRow) error
	// ListNotes returns rows with updated_at strictly greater than the given
	// timestamp, or all rows when it is empty
	ListNotes(updatedAfter string) ([]client.NoteRow, error)
}

// Result summarizes a sync cycle. Err holds a human-readable description of
// a recoverable failure; the cycle never raises one.
type Result struct {
	Pushed  int    `json:"pushed"`
	Pulled  int    `json:"pulled"`
	Skipped bool   `json:"skipped"`
	Err     string `json:"error,omitempty"`
}

// Engine orchestrates sync cycles between the local store and the remote
type Engine struct {
	db       *database.DB
	remote   Remote
	clock    clock.Clock
	inFlight int32
}

// NewEngine returns a sync engine over the given store and remote
func NewEngine(db *database.DB, remote Remote, c clock.Clock) *Engine {
	return &Engine{
		db:     db,
		remote: remote,
		clock:  c,
	}
}

// Run performs one sync cycle: push, then pull. Running while another cycle
// is in flight returns immediately with a skipped result. Signed-out runs
// are a no-op, not an error.
func (e *Engine) Run() Result {
	if !atomic.CompareAndSwapInt32(&e.inFlight, 0, 1) {
		log.Debug("sync already in flight, skipping\n")
		return Result{Skipped: true}
	}
	defer atomic.StoreInt32(&e.inFlight, 0)

	principal, err := e.remote.GetPrincipal()
	if err != nil {
		return Result{Err: errors.Wrap(err, "getting the current principal").Error()}
	}
	if principal == nil {
		log.Debug("not signed in, skipping sync\n")
		return Result{}
	}

	var ret Result
	var errMsgs []string

	pushed, err := e.push(principal)
	if err != nil {
		// pending records stay pending and are retried on the next cycle
		errMsgs = append(errMsgs, errors.Wrap(err, "push failed").Error())
	}
	ret.Pushed = pushed

	pulled, err := e.pull()
	if err != nil {
		errMsgs = append(errMsgs, errors.Wrap(err, "pull failed").Error())
	}
	ret.Pulled = pulled

	ret.Err = strings.Join(errMsgs, "; ")

	return ret
}

// push sends pending records owned by the principal to the remote in one
// batch and marks them synced on success.
func (e *Engine) push(principal *client.Principal) (int, error) {
	pending, err := database.ListNotesByStatus(e.db, database.SyncStatusPending)
	if err != nil {
		return 0, errors.Wrap(err, "listing pending notes")
	}
	if len(pending) == 0 {
		return 0, nil
	}

	// Only records explicitly owned by the active principal are pushed.
	// Orphans wait for the merge flow; foreign records are never touched.
	var own []database.Note
	for _, n := range pending {
		if n.UserID.Valid && n.UserID.String == principal.ID {
			own = append(own, n)
		}
	}
	if skipped := len(pending) - len(own); skipped > 0 {
		log.Debug("skipping %d pending notes not owned by %s\n", skipped, principal.ID)
	}
	if len(own) == 0 {
		return 0, nil
	}

	err = e.remote.UpsertNotes(toNoteRows(own))
	if uuids, ok := client.IsOwnershipConflict(err); ok {
		// A row id already exists remotely under a different owner. Give the
		// affected local records brand-new identities and retry exactly once.
		own, err = e.regenerateConflicting(own, uuids)
		if err != nil {
			return 0, errors.Wrap(err, "recovering from an ownership conflict")
		}
		if len(own) == 0 {
			return 0, nil
		}

		err = e.remote.UpsertNotes(toNoteRows(own))
	}
	if err != nil {
		return 0, err
	}

	err = e.db.DoInTx(func(tx *database.DB) error {
		for _, n := range own {
			// the guard on updated_at keeps a record edited mid-push pending
			if _, err := tx.Exec("UPDATE notes SET sync_status = ? WHERE uuid = ? AND updated_at = ?",
				database.SyncStatusSynced, n.UUID, n.UpdatedAt); err != nil {
				return errors.Wrapf(err, "marking note %s synced", n.UUID)
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(own), nil
}

// regenerateConflicting reassigns new uuids to the conflicting records. An
// empty uuid list from the server means the offender is unknown, in which
// case every record in the batch is regenerated. Conflicting tombstones are
// simply expunged: the remote row was never ours to delete.
func (e *Engine) regenerateConflicting(batch []database.Note, uuids []string) ([]database.Note, error) {
	conflicting := map[string]bool{}
	for _, id := range uuids {
		conflicting[id] = true
	}

	var ret []database.Note
	err := e.db.DoInTx(func(tx *database.DB) error {
		for _, n := range batch {
			if len(uuids) > 0 && !conflicting[n.UUID] {
				ret = append(ret, n)
				continue
			}

			if n.Deleted {
				log.Debug("dropping conflicting tombstone %s\n", n.UUID)
				if err := n.Expunge(tx); err != nil {
					return err
				}
				continue
			}

			newUUID, err := utils.GenerateUUID()
			if err != nil {
				return err
			}

			log.Debug("regenerating note id %s -> %s\n", n.UUID, newUUID)
			if err := n.UpdateUUID(tx, newUUID); err != nil {
				return err
			}

			ret = append(ret, n)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return ret, nil
}

// pull applies remote changes since the watermark to the local store and
// advances the watermark to the newest updated_at observed.
func (e *Engine) pull() (int, error) {
	watermark, err := database.GetSystemOptional(e.db, consts.SystemSyncWatermark)
	if err != nil {
		return 0, errors.Wrap(err, "reading the sync watermark")
	}

	rows, err := e.remote.ListNotes(watermark)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	var maxSeen time.Time
	if watermark != "" {
		if maxSeen, err = utils.ParseTimestamp(watermark); err != nil {
			return 0, errors.Wrap(err, "parsing the stored watermark")
		}
	}

	err = e.db.DoInTx(func(tx *database.DB) error {
		for _, row := range rows {
			remoteTime, err := utils.ParseTimestamp(row.UpdatedAt)
			if err != nil {
				return errors.Wrapf(err, "parsing updated_at of remote note %s", row.UUID)
			}
			if remoteTime.After(maxSeen) {
				maxSeen = remoteTime
			}

			if err := e.applyRemote(tx, row, remoteTime); err != nil {
				return err
			}
		}

		if watermark == "" || maxSeen.After(mustParseOrZero(watermark)) {
			if err := database.UpsertSystem(tx, consts.SystemSyncWatermark, utils.FormatTimestamp(maxSeen)); err != nil {
				return errors.Wrap(err, "advancing the sync watermark")
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(rows), nil
}

// applyRemote reconciles one remote row against the local store. The whole
// record with the later timestamp wins; ties favor the local copy.
func (e *Engine) applyRemote(tx *database.DB, row client.NoteRow, remoteTime time.Time) error {
	local, err := database.GetNote(tx, row.UUID)
	if err == sql.ErrNoRows {
		if row.Deleted {
			return nil
		}

		n, err := reconstructNote(row, remoteTime)
		if err != nil {
			return err
		}

		return n.Insert(tx)
	}
	if err != nil {
		return err
	}

	if remoteTime.UnixNano() <= local.UpdatedAt {
		log.Debug("local note %s is same-age-or-newer, keeping local copy\n", row.UUID)
		return nil
	}

	if row.Deleted {
		log.Debug("removing note %s per remote tombstone\n", row.UUID)
		return local.Expunge(tx)
	}

	if local.SyncStatus == database.SyncStatusPending && local.Content != row.Content {
		log.Debug("remote overwrites pending note %s:\n%s", row.UUID, diff.Summarize(local.Content, row.Content))
	}

	n, err := reconstructNote(row, remoteTime)
	if err != nil {
		return err
	}

	return n.Upsert(tx)
}

// reconstructNote builds the local record for a remote row. Records arriving
// from the server are synced by definition.
func reconstructNote(row client.NoteRow, remoteTime time.Time) (database.Note, error) {
	createdTime, err := utils.ParseTimestamp(row.CreatedAt)
	if err != nil {
		return database.Note{}, errors.Wrapf(err, "parsing created_at of remote note %s", row.UUID)
	}

	n := database.Note{
		UUID:         row.UUID,
		Title:        row.Title,
		Content:      row.Content,
		CreatedAt:    createdTime.UnixNano(),
		UpdatedAt:    remoteTime.UnixNano(),
		LastModified: row.UpdatedAt,
		SyncStatus:   database.SyncStatusSynced,
		Deleted:      false,
	}

	if row.UserID != "" {
		n.UserID = sql.NullString{String: row.UserID, Valid: true}
	}
	if len(row.Embedding) > 0 {
		n.Embedding = sql.NullString{String: string(row.Embedding), Valid: true}
	}

	return n, nil
}

func toNoteRows(notes []database.Note) []client.NoteRow {
	ret := make([]client.NoteRow, 0, len(notes))
	for _, n := range notes {
		row := client.NoteRow{
			UUID:      n.UUID,
			Title:     n.Title,
			Content:   n.Content,
			CreatedAt: utils.FormatTimestamp(time.Unix(0, n.CreatedAt)),
			UpdatedAt: utils.FormatTimestamp(time.Unix(0, n.UpdatedAt)),
			UserID:    n.UserID.String,
			Deleted:   n.Deleted,
		}
		if n.Embedding.Valid {
			row.Embedding = json.RawMessage(n.Embedding.String)
		}

		ret = append(ret, row)
	}

	return ret
}

func mustParseOrZero(s string) time.Time {
	t, err := utils.ParseTimestamp(s)
	if err != nil {
		return time.Time{}
	}

	return t
}
