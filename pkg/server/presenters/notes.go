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

// Package presenters provides presentation data for responses
package presenters

import (
	"encoding/json"
	"time"

	"github.com/vylite/vylite/pkg/server/database"
)

// Note is the wire representation of a note. Timestamps are RFC3339 UTC
// strings carrying the logical record times. The embedding is an opaque
// payload round-tripped as-is.
type Note struct {
	UUID      string          `json:"uuid"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
	UserID    string          `json:"user_id"`
	Deleted   bool            `json:"deleted"`
	Embedding json.RawMessage `json:"embedding,omitempty"`
}

// FormatTime formats the given unix nanosecond timestamp for the wire
func FormatTime(unixNano int64) string {
	return time.Unix(0, unixNano).UTC().Format(time.RFC3339Nano)
}

// PresentNote presents the given note
func PresentNote(n database.Note) Note {
	ret := Note{
		UUID:      n.UUID,
		Title:     n.Title,
		Content:   n.Body,
		CreatedAt: FormatTime(n.AddedOn),
		UpdatedAt: FormatTime(n.EditedOn),
		UserID:    n.UserUUID,
		Deleted:   n.Deleted,
	}
	if n.Embedding != "" {
		ret.Embedding = json.RawMessage(n.Embedding)
	}

	return ret
}

// PresentNotes presents the given notes
func PresentNotes(notes []database.Note) []Note {
	ret := []Note{}
	for _, n := range notes {
		ret = append(ret, PresentNote(n))
	}

	return ret
}
