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

package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/vylite/vylite/pkg/assert"
	"github.com/vylite/vylite/pkg/server/app"
	"github.com/vylite/vylite/pkg/server/context"
	"github.com/vylite/vylite/pkg/server/database"
)

func setupUserWithSession(t *testing.T, a app.App) (database.User, database.Session) {
	t.Helper()

	user, err := a.CreateUser("alice@example.com", "correct-password")
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating user"))
	}

	session, err := a.CreateSession(user.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating session"))
	}

	return user, session
}

func TestAuthWithSession(t *testing.T) {
	a := app.NewTest()
	user, session := setupUserWithSession(t, a)

	r := mustMakeRequest(t)
	r.Header.Set("Authorization", fmt.Sprintf("Bearer %s", session.Key))

	got, ok, err := AuthWithSession(a.DB, r)
	assert.NoErr(t, err, "authenticating")
	assert.Equal(t, ok, true, "authentication should succeed")
	assert.Equal(t, got.UUID, user.UUID, "user mismatch")
}

func TestAuthWithSessionNoCredential(t *testing.T) {
	a := app.NewTest()
	setupUserWithSession(t, a)

	r := mustMakeRequest(t)

	_, ok, err := AuthWithSession(a.DB, r)
	assert.NoErr(t, err, "authenticating")
	assert.Equal(t, ok, false, "authentication should fail without a credential")
}

func TestAuthWithSessionUnknownKey(t *testing.T) {
	a := app.NewTest()
	setupUserWithSession(t, a)

	r := mustMakeRequest(t)
	r.Header.Set("Authorization", "Bearer no-such-key")

	_, ok, err := AuthWithSession(a.DB, r)
	assert.NoErr(t, err, "authenticating")
	assert.Equal(t, ok, false, "authentication should fail with an unknown key")
}

func TestAuthWithSessionExpired(t *testing.T) {
	a := app.NewTest()
	_, session := setupUserWithSession(t, a)

	expired := time.Now().Add(-time.Hour)
	if err := a.DB.Model(&session).Update("expires_at", expired).Error; err != nil {
		t.Fatal(errors.Wrap(err, "expiring session"))
	}

	r := mustMakeRequest(t)
	r.Header.Set("Authorization", fmt.Sprintf("Bearer %s", session.Key))

	_, ok, err := AuthWithSession(a.DB, r)
	assert.NoErr(t, err, "authenticating")
	assert.Equal(t, ok, false, "authentication should fail with an expired session")
}

func TestAuthMiddleware(t *testing.T) {
	a := app.NewTest()
	user, session := setupUserWithSession(t, a)

	var gotUser *database.User
	handler := Auth(a.DB, func(w http.ResponseWriter, r *http.Request) {
		gotUser = context.User(r.Context())
	})

	r := mustMakeRequest(t)
	r.Header.Set("Authorization", fmt.Sprintf("Bearer %s", session.Key))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, w.Code, http.StatusOK, "status mismatch")
	if gotUser == nil {
		t.Fatal("the handler should receive the resolved user")
	}
	assert.Equal(t, gotUser.UUID, user.UUID, "user mismatch")
}

func TestAuthMiddlewareUnauthorized(t *testing.T) {
	a := app.NewTest()

	called := false
	handler := Auth(a.DB, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	r := mustMakeRequest(t)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, w.Code, http.StatusUnauthorized, "status mismatch")
	assert.Equal(t, called, false, "the handler should not run for a guest")
}
