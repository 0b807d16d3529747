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

package controllers

import (
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/vylite/vylite/pkg/server/app"
	"github.com/vylite/vylite/pkg/server/context"
	"github.com/vylite/vylite/pkg/server/middleware"
	"github.com/vylite/vylite/pkg/server/presenters"
)

// NewSync creates a new Sync controller
func NewSync(app *app.App) *Sync {
	return &Sync{app: app}
}

// Sync is a controller for the note synchronization endpoints
type Sync struct {
	app *app.App
}

type upsertNotesPayload struct {
	Notes []presenters.Note `json:"notes"`
}

func toNoteUpsert(row presenters.Note) (app.NoteUpsert, error) {
	addedOn, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
	if err != nil {
		return app.NoteUpsert{}, errors.Wrapf(err, "parsing created_at of %s", row.UUID)
	}
	editedOn, err := time.Parse(time.RFC3339Nano, row.UpdatedAt)
	if err != nil {
		return app.NoteUpsert{}, errors.Wrapf(err, "parsing updated_at of %s", row.UUID)
	}

	return app.NoteUpsert{
		UUID:      row.UUID,
		Title:     row.Title,
		Content:   row.Content,
		AddedOn:   addedOn.UnixNano(),
		EditedOn:  editedOn.UnixNano(),
		Deleted:   row.Deleted,
		Embedding: string(row.Embedding),
	}, nil
}

// Upsert handles POST /v1/notes/upsert. The batch is applied atomically.
func (s *Sync) Upsert(w http.ResponseWriter, r *http.Request) {
	user := context.User(r.Context())
	if user == nil {
		middleware.RespondUnauthorized(w)
		return
	}

	var payload upsertNotesPayload
	if err := parseRequestData(r, &payload); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return
	}

	rows := make([]app.NoteUpsert, 0, len(payload.Notes))
	for _, row := range payload.Notes {
		p, err := toNoteUpsert(row)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		rows = append(rows, p)
	}

	if err := s.app.UpsertNotes(*user, rows); err != nil {
		handleJSONError(w, err, "upserting notes")
		return
	}

	respondJSON(w, http.StatusOK, struct{}{})
}

// List handles GET /v1/notes. The optional updated_at_gt parameter bounds
// the result to rows modified strictly after the given time.
func (s *Sync) List(w http.ResponseWriter, r *http.Request) {
	user := context.User(r.Context())
	if user == nil {
		middleware.RespondUnauthorized(w)
		return
	}

	var editedAfter int64
	if v := r.URL.Query().Get("updated_at_gt"); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid updated_at_gt"})
			return
		}

		editedAfter = t.UnixNano()
	}

	notes, err := s.app.ListNotes(*user, editedAfter)
	if err != nil {
		handleJSONError(w, err, "listing notes")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentNotes(notes))
}
