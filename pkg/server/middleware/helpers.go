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

// Package middleware provides middleware for the server
package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/vylite/vylite/pkg/server/app"
	"github.com/vylite/vylite/pkg/server/log"
)

// Middleware wraps a handler with a chain of middleware
type Middleware func(h http.HandlerFunc, app *app.App, rateLimit bool) http.Handler

// APIMw is the middleware for the api handlers
func APIMw(h http.HandlerFunc, a *app.App, rateLimit bool) http.Handler {
	return ApplyLimit(h, rateLimit)
}

// Global applies a global middleware to the handler. It recovers from
// panics and logs every request.
func Global(h http.Handler) http.Handler {
	return logging(recovery(h))
}

func recovery(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.WithFields(log.Fields{
					"method": r.Method,
					"path":   r.URL.Path,
					"panic":  fmt.Sprintf("%v", rec),
				}).Error("recovered from panic")

				RespondInternalError(w)
			}
		}()

		h.ServeHTTP(w, r)
	})
}

func logging(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		h.ServeHTTP(w, r)

		log.WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"dur":    time.Since(start).String(),
		}).Debug("request")
	})
}

func getSessionKeyFromCookie(r *http.Request) (string, error) {
	c, err := r.Cookie("id")
	if err == http.ErrNoCookie {
		return "", nil
	} else if err != nil {
		return "", errors.Wrap(err, "reading cookie")
	}

	return c.Value, nil
}

func getSessionKeyFromAuth(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", nil
	}

	parts := strings.Fields(h)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.Errorf("invalid authorization header: %s", h)
	}

	return parts[1], nil
}

// GetCredential extracts the session credential from the request. The
// authorization header takes precedence over the session cookie.
func GetCredential(r *http.Request) (string, error) {
	key, err := getSessionKeyFromAuth(r)
	if err != nil {
		return "", errors.Wrap(err, "getting session key from the authorization header")
	}
	if key != "" {
		return key, nil
	}

	key, err = getSessionKeyFromCookie(r)
	if err != nil {
		return "", errors.Wrap(err, "getting session key from the cookie")
	}

	return key, nil
}

func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		log.ErrorWrap(err, "encoding error response")
	}
}

// RespondUnauthorized writes an unauthorized error response
func RespondUnauthorized(w http.ResponseWriter) {
	respondError(w, "unauthorized", http.StatusUnauthorized)
}

// RespondInternalError writes an internal server error response
func RespondInternalError(w http.ResponseWriter) {
	respondError(w, "internal server error", http.StatusInternalServerError)
}

// DoError logs the given error and responds with a generic message of the
// given status code
func DoError(w http.ResponseWriter, msg string, err error, statusCode int) {
	log.ErrorWrap(err, msg)
	respondError(w, msg, statusCode)
}
