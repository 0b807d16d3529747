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

package app

import (
	stderrors "errors"

	"github.com/pkg/errors"
	"github.com/vylite/vylite/pkg/server/database"
	"gorm.io/gorm"
)

// NoteUpsert is the parameters for writing a single note row. AddedOn and
// EditedOn are the logical timestamps assigned by the writing device, in
// unix nanoseconds.
type NoteUpsert struct {
	UUID      string
	Title     string
	Content   string
	AddedOn   int64
	EditedOn  int64
	Deleted   bool
	Embedding string
}

// UpsertNotes writes the given rows on behalf of the given user in a single
// transaction. A row id that already exists under a different account is an
// ownership conflict: the whole batch is discarded and an
// OwnershipConflictError listing every offending id is returned, so that no
// partial write is ever visible to other devices.
func (a *App) UpsertNotes(user database.User, rows []NoteUpsert) error {
	tx := a.DB.Begin()

	var conflicts []string
	for _, p := range rows {
		var existing database.Note
		err := tx.Where("uuid = ?", p.UUID).First(&existing).Error

		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			note := database.Note{
				UUID:      p.UUID,
				UserUUID:  user.UUID,
				Title:     p.Title,
				Body:      p.Content,
				AddedOn:   p.AddedOn,
				EditedOn:  p.EditedOn,
				Deleted:   p.Deleted,
				Embedding: p.Embedding,
			}
			if err := tx.Create(&note).Error; err != nil {
				tx.Rollback()
				return errors.Wrap(err, "inserting note")
			}

			continue
		}
		if err != nil {
			tx.Rollback()
			return errors.Wrap(err, "finding note")
		}

		if existing.UserUUID != user.UUID {
			conflicts = append(conflicts, p.UUID)
			continue
		}

		if err := tx.Model(&existing).Updates(map[string]interface{}{
			"title":     p.Title,
			"body":      p.Content,
			"added_on":  p.AddedOn,
			"edited_on": p.EditedOn,
			"deleted":   p.Deleted,
			"embedding": p.Embedding,
		}).Error; err != nil {
			tx.Rollback()
			return errors.Wrap(err, "updating note")
		}
	}

	if len(conflicts) > 0 {
		tx.Rollback()
		return &OwnershipConflictError{UUIDs: conflicts}
	}

	tx.Commit()

	return nil
}

// ListNotes returns the given user's note rows whose logical modification
// time is strictly greater than editedAfter, oldest first. An editedAfter
// of zero returns every row.
func (a *App) ListNotes(user database.User, editedAfter int64) ([]database.Note, error) {
	conn := a.DB.Where("user_uuid = ?", user.UUID)
	if editedAfter > 0 {
		conn = conn.Where("edited_on > ?", editedAfter)
	}

	notes := []database.Note{}
	if err := conn.Order("edited_on ASC").Find(&notes).Error; err != nil {
		return nil, errors.Wrap(err, "finding notes")
	}

	return notes, nil
}
