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
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/pkg/errors"
	"github.com/vylite/vylite/pkg/server/app"
	"github.com/vylite/vylite/pkg/server/log"
)

func parseRequestData(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return errors.Wrap(err, "decoding json payload")
	}

	return nil
}

func respondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.ErrorWrap(err, "encoding response")
	}
}

type errorResponse struct {
	Error string   `json:"error"`
	Code  string   `json:"code,omitempty"`
	UUIDs []string `json:"uuids,omitempty"`
}

// handleJSONError maps an application error to a status code and writes the
// error response
func handleJSONError(w http.ResponseWriter, err error, msg string) {
	var conflictErr *app.OwnershipConflictError
	if stderrors.As(err, &conflictErr) {
		respondJSON(w, http.StatusConflict, errorResponse{
			Error: "row owned by another account",
			Code:  "ownership_conflict",
			UUIDs: conflictErr.UUIDs,
		})
		return
	}

	var statusCode int
	switch errors.Cause(err) {
	case app.ErrLoginInvalid, app.ErrNotFound:
		statusCode = http.StatusUnauthorized
	case app.ErrEmailRequired, app.ErrPasswordRequired, app.ErrPasswordTooShort, app.ErrDuplicateEmail:
		statusCode = http.StatusBadRequest
	case app.ErrRegistrationDisabled:
		statusCode = http.StatusForbidden
	default:
		log.ErrorWrap(err, msg)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	respondJSON(w, statusCode, errorResponse{Error: err.Error()})
}
