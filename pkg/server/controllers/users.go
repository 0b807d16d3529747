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

	"github.com/pkg/errors"
	"github.com/vylite/vylite/pkg/server/app"
	"github.com/vylite/vylite/pkg/server/context"
	"github.com/vylite/vylite/pkg/server/database"
	"github.com/vylite/vylite/pkg/server/middleware"
)

// NewUsers creates a new Users controller
func NewUsers(app *app.App) *Users {
	return &Users{app: app}
}

// Users is a user controller
type Users struct {
	app *app.App
}

// AuthForm is the form data for registering and signing in
type AuthForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Key       string            `json:"key"`
	ExpiresAt int64             `json:"expires_at"`
	User      principalResponse `json:"user"`
}

type principalResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func respondWithSession(w http.ResponseWriter, statusCode int, user *database.User, session *database.Session) {
	respondJSON(w, statusCode, sessionResponse{
		Key:       session.Key,
		ExpiresAt: session.ExpiresAt.Unix(),
		User: principalResponse{
			ID:    user.UUID,
			Email: user.Email,
		},
	})
}

// Register handles account creation. It signs the new account in so that
// the caller gets a session without a separate signin round trip.
func (u *Users) Register(w http.ResponseWriter, r *http.Request) {
	if u.app.DisableRegistration {
		handleJSONError(w, app.ErrRegistrationDisabled, "registration is disabled")
		return
	}

	var form AuthForm
	if err := parseRequestData(r, &form); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	user, err := u.app.CreateUser(form.Email, form.Password)
	if err != nil {
		handleJSONError(w, err, "creating user")
		return
	}

	session, err := u.app.SignIn(&user)
	if err != nil {
		handleJSONError(w, err, "signing in a user")
		return
	}

	respondWithSession(w, http.StatusCreated, &user, session)
}

// Login handles signin
func (u *Users) Login(w http.ResponseWriter, r *http.Request) {
	var form AuthForm
	if err := parseRequestData(r, &form); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	if form.Email == "" {
		handleJSONError(w, app.ErrEmailRequired, "email is not provided")
		return
	}
	if form.Password == "" {
		handleJSONError(w, app.ErrPasswordRequired, "password is not provided")
		return
	}

	user, err := u.app.Authenticate(form.Email, form.Password)
	if err != nil {
		// an unknown email is indistinguishable from a wrong password
		if err == app.ErrNotFound {
			err = app.ErrLoginInvalid
		}

		handleJSONError(w, err, "authenticating user")
		return
	}

	session, err := u.app.SignIn(user)
	if err != nil {
		handleJSONError(w, err, "signing in a user")
		return
	}

	respondWithSession(w, http.StatusOK, user, session)
}

// Logout handles signout by deleting the presented session
func (u *Users) Logout(w http.ResponseWriter, r *http.Request) {
	key, err := middleware.GetCredential(r)
	if err != nil {
		handleJSONError(w, errors.Wrap(err, "getting credentials"), "logging out")
		return
	}

	if key == "" {
		middleware.RespondUnauthorized(w)
		return
	}

	if err := u.app.DeleteSession(key); err != nil {
		handleJSONError(w, errors.Wrap(err, "deleting session"), "logging out")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me returns the principal of the presented session
func (u *Users) Me(w http.ResponseWriter, r *http.Request) {
	user := context.User(r.Context())
	if user == nil {
		middleware.RespondUnauthorized(w)
		return
	}

	respondJSON(w, http.StatusOK, principalResponse{
		ID:    user.UUID,
		Email: user.Email,
	})
}
