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
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/vylite/vylite/pkg/assert"
	"github.com/vylite/vylite/pkg/server/app"
	"github.com/vylite/vylite/pkg/server/presenters"
)

func noteRowJSON(uuid, title, content, createdAt, updatedAt string, deleted bool) string {
	return fmt.Sprintf(`{"uuid": %q, "title": %q, "content": %q, "created_at": %q, "updated_at": %q, "deleted": %t}`,
		uuid, title, content, createdAt, updatedAt, deleted)
}

func upsertBody(rows ...string) string {
	return fmt.Sprintf(`{"notes": [%s]}`, strings.Join(rows, ", "))
}

func TestUpsertAndListNotes(t *testing.T) {
	a := app.NewTest()
	server := MustNewServer(t, &a)
	defer server.Close()

	user, session := setupSession(t, a, "alice@example.com")

	body := upsertBody(
		noteRowJSON("n2-uuid", "css", "css\nflexbox", "2024-03-01T00:00:00Z", "2024-03-01T00:02:00Z", false),
		noteRowJSON("n1-uuid", "es6", "es6\nlet", "2024-03-01T00:00:00Z", "2024-03-01T00:01:00Z", true),
	)
	res := doReq(t, server, "POST", "/api/v1/notes/upsert", body, session.Key)
	assert.Equal(t, res.StatusCode, http.StatusOK, "upsert status mismatch")

	res = doReq(t, server, "GET", "/api/v1/notes", "", session.Key)
	assert.Equal(t, res.StatusCode, http.StatusOK, "list status mismatch")

	var got []presenters.Note
	mustDecode(t, res, &got)

	assert.Equal(t, len(got), 2, "count mismatch")
	assert.Equal(t, got[0].UUID, "n1-uuid", "rows should be ordered by modification time")
	assert.Equal(t, got[0].Title, "es6", "title mismatch")
	assert.Equal(t, got[0].Content, "es6\nlet", "content mismatch")
	assert.Equal(t, got[0].UpdatedAt, "2024-03-01T00:01:00Z", "updated_at mismatch")
	assert.Equal(t, got[0].UserID, user.UUID, "user id mismatch")
	assert.Equal(t, got[0].Deleted, true, "deleted flag mismatch")
	assert.Equal(t, got[1].UUID, "n2-uuid", "ordering mismatch")
}

func TestListNotesUpdatedAtGt(t *testing.T) {
	a := app.NewTest()
	server := MustNewServer(t, &a)
	defer server.Close()

	_, session := setupSession(t, a, "alice@example.com")

	body := upsertBody(
		noteRowJSON("n1-uuid", "one", "one", "2024-03-01T00:00:00Z", "2024-03-01T00:01:00Z", false),
		noteRowJSON("n2-uuid", "two", "two", "2024-03-01T00:00:00Z", "2024-03-01T00:02:00Z", false),
		noteRowJSON("n3-uuid", "three", "three", "2024-03-01T00:00:00Z", "2024-03-01T00:03:00Z", false),
	)
	res := doReq(t, server, "POST", "/api/v1/notes/upsert", body, session.Key)
	assert.Equal(t, res.StatusCode, http.StatusOK, "upsert status mismatch")

	// the bound is strict: the row at the bound itself is excluded
	path := "/api/v1/notes?updated_at_gt=" + url.QueryEscape("2024-03-01T00:01:00Z")
	res = doReq(t, server, "GET", path, "", session.Key)
	assert.Equal(t, res.StatusCode, http.StatusOK, "list status mismatch")

	var got []presenters.Note
	mustDecode(t, res, &got)
	assert.Equal(t, len(got), 2, "count mismatch")
	assert.Equal(t, got[0].UUID, "n2-uuid", "uuid mismatch")
	assert.Equal(t, got[1].UUID, "n3-uuid", "uuid mismatch")
}

func TestListNotesInvalidWatermark(t *testing.T) {
	a := app.NewTest()
	server := MustNewServer(t, &a)
	defer server.Close()

	_, session := setupSession(t, a, "alice@example.com")

	res := doReq(t, server, "GET", "/api/v1/notes?updated_at_gt=yesterday", "", session.Key)
	assert.Equal(t, res.StatusCode, http.StatusBadRequest, "status mismatch")
}

func TestListNotesScopedToCaller(t *testing.T) {
	a := app.NewTest()
	server := MustNewServer(t, &a)
	defer server.Close()

	_, aliceSession := setupSession(t, a, "alice@example.com")
	_, bobSession := setupSession(t, a, "bob@example.com")

	res := doReq(t, server, "POST", "/api/v1/notes/upsert",
		upsertBody(noteRowJSON("a1-uuid", "alice", "alice", "2024-03-01T00:00:00Z", "2024-03-01T00:01:00Z", false)),
		aliceSession.Key)
	assert.Equal(t, res.StatusCode, http.StatusOK, "alice upsert status mismatch")

	res = doReq(t, server, "POST", "/api/v1/notes/upsert",
		upsertBody(noteRowJSON("b1-uuid", "bob", "bob", "2024-03-01T00:00:00Z", "2024-03-01T00:01:00Z", false)),
		bobSession.Key)
	assert.Equal(t, res.StatusCode, http.StatusOK, "bob upsert status mismatch")

	res = doReq(t, server, "GET", "/api/v1/notes", "", bobSession.Key)
	assert.Equal(t, res.StatusCode, http.StatusOK, "list status mismatch")

	var got []presenters.Note
	mustDecode(t, res, &got)
	assert.Equal(t, len(got), 1, "count mismatch")
	assert.Equal(t, got[0].UUID, "b1-uuid", "bob should only see his own rows")
}

func TestListNotesEmpty(t *testing.T) {
	a := app.NewTest()
	server := MustNewServer(t, &a)
	defer server.Close()

	_, session := setupSession(t, a, "alice@example.com")

	res := doReq(t, server, "GET", "/api/v1/notes", "", session.Key)
	assert.Equal(t, res.StatusCode, http.StatusOK, "status mismatch")

	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading body"))
	}

	// an empty result is an empty array, never null
	assert.Equal(t, strings.TrimSpace(string(body)), "[]", "body mismatch")
}

func TestUpsertOwnershipConflict(t *testing.T) {
	a := app.NewTest()
	server := MustNewServer(t, &a)
	defer server.Close()

	_, aliceSession := setupSession(t, a, "alice@example.com")
	_, bobSession := setupSession(t, a, "bob@example.com")

	res := doReq(t, server, "POST", "/api/v1/notes/upsert",
		upsertBody(noteRowJSON("n1-uuid", "alice", "alice", "2024-03-01T00:00:00Z", "2024-03-01T00:01:00Z", false)),
		aliceSession.Key)
	assert.Equal(t, res.StatusCode, http.StatusOK, "alice upsert status mismatch")

	body := upsertBody(
		noteRowJSON("n1-uuid", "bob", "bob", "2024-03-01T00:00:00Z", "2024-03-01T00:02:00Z", false),
		noteRowJSON("n2-uuid", "bob", "bob", "2024-03-01T00:00:00Z", "2024-03-01T00:02:00Z", false),
	)
	res = doReq(t, server, "POST", "/api/v1/notes/upsert", body, bobSession.Key)
	assert.Equal(t, res.StatusCode, http.StatusConflict, "status mismatch")

	var got errorResponse
	mustDecode(t, res, &got)
	assert.Equal(t, got.Code, "ownership_conflict", "code mismatch")
	assert.DeepEqual(t, got.UUIDs, []string{"n1-uuid"}, "uuids mismatch")

	// the batch was atomic: the non-conflicting row was not written either
	res = doReq(t, server, "GET", "/api/v1/notes", "", bobSession.Key)
	var rows []presenters.Note
	mustDecode(t, res, &rows)
	assert.Equal(t, len(rows), 0, "no row of the failed batch should be visible")
}

func TestUpsertRequiresAuth(t *testing.T) {
	a := app.NewTest()
	server := MustNewServer(t, &a)
	defer server.Close()

	body := upsertBody(noteRowJSON("n1-uuid", "t", "t", "2024-03-01T00:00:00Z", "2024-03-01T00:01:00Z", false))
	res := doReq(t, server, "POST", "/api/v1/notes/upsert", body, "")
	assert.Equal(t, res.StatusCode, http.StatusUnauthorized, "status mismatch")
}

func TestUpsertInvalidTimestamp(t *testing.T) {
	a := app.NewTest()
	server := MustNewServer(t, &a)
	defer server.Close()

	_, session := setupSession(t, a, "alice@example.com")

	body := upsertBody(noteRowJSON("n1-uuid", "t", "t", "not-a-time", "2024-03-01T00:01:00Z", false))
	res := doReq(t, server, "POST", "/api/v1/notes/upsert", body, session.Key)
	assert.Equal(t, res.StatusCode, http.StatusBadRequest, "status mismatch")
}
