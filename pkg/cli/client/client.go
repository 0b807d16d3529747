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

// Package client provides interfaces for interacting with the vylite server
// and the data structures for responses
package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/vylite/vylite/pkg/cli/context"
	"github.com/vylite/vylite/pkg/cli/log"
	"golang.org/x/time/rate"
)

// ErrInvalidLogin is an error for invalid credentials for login
var ErrInvalidLogin = errors.New("wrong credentials")

// ErrKind classifies an error response from the server. The sync engine
// branches on kinds, never on message text.
type ErrKind int

const (
	// KindOther is any error response not covered by a more specific kind
	KindOther ErrKind = iota
	// KindNotAuthenticated means the session is missing, expired or rejected
	KindNotAuthenticated
	// KindOwnershipConflict means an upserted row id already exists under a
	// different owner
	KindOwnershipConflict
)

// APIError represents an error response from the server
type APIError struct {
	StatusCode int
	Kind       ErrKind
	Message    string
	// UUIDs carries the row ids that caused an ownership conflict
	UUIDs []string
}

func (e *APIError) Error() string {
	return fmt.Sprintf(`response %d "%s"`, e.StatusCode, e.Message)
}

// IsOwnershipConflict reports whether the given error is an ownership
// conflict response, and returns the offending row ids if so.
func IsOwnershipConflict(err error) ([]string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Kind == KindOwnershipConflict {
		return apiErr.UUIDs, true
	}

	return nil, false
}

// IsNotAuthenticated reports whether the given error is an authentication
// rejection
func IsNotAuthenticated(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindNotAuthenticated
}

const (
	// clientRateLimitPerSecond is the max requests per second the client will make
	clientRateLimitPerSecond = 50
	// clientRateLimitBurst is the burst capacity for rate limiting
	clientRateLimitBurst = 100
	// transientRetryCount is how many times a request that failed at the
	// transport level is retried before the failure is reported
	transientRetryCount = 3
)

// rateLimitedTransport wraps an http.RoundTripper with rate limiting
type rateLimitedTransport struct {
	transport http.RoundTripper
	limiter   *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.transport.RoundTrip(req)
}

// NewRateLimitedHTTPClient creates an HTTP client with rate limiting
func NewRateLimitedHTTPClient() *http.Client {
	interval := time.Second / time.Duration(clientRateLimitPerSecond)

	transport := &rateLimitedTransport{
		transport: http.DefaultTransport,
		limiter:   rate.NewLimiter(rate.Every(interval), clientRateLimitBurst),
	}
	return &http.Client{
		Transport: transport,
	}
}

func getHTTPClient(ctx context.VyliteCtx) *http.Client {
	if ctx.HTTPClient != nil {
		return ctx.HTTPClient
	}

	return &http.Client{}
}

func getReq(ctx context.VyliteCtx, method, path, body string) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s%s", ctx.APIEndpoint, path)
	req, err := http.NewRequest(method, endpoint, strings.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "constructing http request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("CLI-Version", ctx.Version)

	if ctx.SessionKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", ctx.SessionKey))
	}

	return req, nil
}

// errorBody is the shape of an error payload from the server
type errorBody struct {
	Error string   `json:"error"`
	Code  string   `json:"code"`
	UUIDs []string `json:"uuids"`
}

// checkRespErr checks if the given http response indicates an error and
// converts it into a typed APIError.
func checkRespErr(res *http.Response) error {
	if res.StatusCode < 400 {
		return nil
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrapf(err, "server responded with %d but client could not read the response body", res.StatusCode)
	}

	apiErr := &APIError{
		StatusCode: res.StatusCode,
		Message:    strings.TrimRight(string(body), "\n"),
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != "" {
		apiErr.Message = eb.Error
		apiErr.UUIDs = eb.UUIDs

		if eb.Code == "ownership_conflict" {
			apiErr.Kind = KindOwnershipConflict
		}
	}

	if apiErr.Kind == KindOther && res.StatusCode == http.StatusUnauthorized {
		apiErr.Kind = KindNotAuthenticated
	}

	return apiErr
}

// doReq does a http request to the given path in the api endpoint. Failures
// at the transport level are retried with capped exponential backoff; error
// responses from the server are not retried here.
func doReq(ctx context.VyliteCtx, method, path, body string) (*http.Response, error) {
	log.Debug("HTTP %s %s\n", method, path)

	hc := getHTTPClient(ctx)

	var res *http.Response
	operation := func() error {
		req, err := getReq(ctx, method, path, body)
		if err != nil {
			return backoff.Permanent(err)
		}

		res, err = hc.Do(req)
		if err != nil {
			log.Debug("transport error, will retry: %v\n", err)
			return err
		}

		return nil
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), transientRetryCount)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, errors.Wrap(err, "making http request")
	}

	log.Debug("HTTP %d %s\n", res.StatusCode, res.Status)

	if err := checkRespErr(res); err != nil {
		return res, err
	}

	return res, nil
}

// doAuthorizedReq does a http request to the given path in the api endpoint
// as a user. The given path should include the preceding slash.
func doAuthorizedReq(ctx context.VyliteCtx, method, path, body string) (*http.Response, error) {
	if ctx.SessionKey == "" {
		return nil, errors.New("no session key found")
	}

	return doReq(ctx, method, path, body)
}

// Principal identifies the authenticated account
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// NoteRow is the wire representation of a note. Timestamps are RFC3339 UTC
// strings. The embedding is opaque to the client and round-tripped untouched.
type NoteRow struct {
	UUID      string          `json:"uuid"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
	UserID    string          `json:"user_id"`
	Deleted   bool            `json:"deleted"`
	Embedding json.RawMessage `json:"embedding,omitempty"`
}

// GetMe fetches the current principal. It returns a nil principal without
// an error when no session exists or the session is rejected, since running
// signed out is a normal condition rather than a failure.
func GetMe(ctx context.VyliteCtx) (*Principal, error) {
	if ctx.SessionKey == "" {
		return nil, nil
	}

	res, err := doAuthorizedReq(ctx, "GET", "/v1/me", "")
	if err != nil {
		if IsNotAuthenticated(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "getting the current principal")
	}

	var p Principal
	if err := json.NewDecoder(res.Body).Decode(&p); err != nil {
		return nil, errors.Wrap(err, "decoding payload")
	}

	return &p, nil
}

type upsertNotesPayload struct {
	Notes []NoteRow `json:"notes"`
}

// UpsertNotes sends the given rows to the server in a single batch. The
// server applies the batch atomically; a failure means no row was written.
func UpsertNotes(ctx context.VyliteCtx, rows []NoteRow) error {
	b, err := json.Marshal(upsertNotesPayload{Notes: rows})
	if err != nil {
		return errors.Wrap(err, "marshaling payload")
	}

	if _, err := doAuthorizedReq(ctx, "POST", "/v1/notes/upsert", string(b)); err != nil {
		return err
	}

	return nil
}

// ListNotes fetches the caller's rows whose updated_at is strictly greater
// than the given timestamp. An empty updatedAfter fetches everything.
func ListNotes(ctx context.VyliteCtx, updatedAfter string) ([]NoteRow, error) {
	path := "/v1/notes"
	if updatedAfter != "" {
		v := url.Values{}
		v.Set("updated_at_gt", updatedAfter)
		path = fmt.Sprintf("%s?%s", path, v.Encode())
	}

	res, err := doAuthorizedReq(ctx, "GET", path, "")
	if err != nil {
		return nil, err
	}

	var rows []NoteRow
	if err := json.NewDecoder(res.Body).Decode(&rows); err != nil {
		return nil, errors.Wrap(err, "decoding payload")
	}

	return rows, nil
}

// SigninPayload is a payload for /v1/signin
type SigninPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SigninResponse is a response from the signin and register endpoints
type SigninResponse struct {
	Key       string    `json:"key"`
	ExpiresAt int64     `json:"expires_at"`
	User      Principal `json:"user"`
}

// Signin requests a session token
func Signin(ctx context.VyliteCtx, email, password string) (SigninResponse, error) {
	b, err := json.Marshal(SigninPayload{Email: email, Password: password})
	if err != nil {
		return SigninResponse{}, errors.Wrap(err, "marshaling payload")
	}

	res, err := doReq(ctx, "POST", "/v1/signin", string(b))
	if err != nil {
		if IsNotAuthenticated(err) {
			return SigninResponse{}, ErrInvalidLogin
		}
		return SigninResponse{}, errors.Wrap(err, "making http request")
	}

	var resp SigninResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return SigninResponse{}, errors.Wrap(err, "decoding payload")
	}

	return resp, nil
}

// Register creates a new account and returns a session for it
func Register(ctx context.VyliteCtx, email, password string) (SigninResponse, error) {
	b, err := json.Marshal(SigninPayload{Email: email, Password: password})
	if err != nil {
		return SigninResponse{}, errors.Wrap(err, "marshaling payload")
	}

	res, err := doReq(ctx, "POST", "/v1/register", string(b))
	if err != nil {
		return SigninResponse{}, errors.Wrap(err, "making http request")
	}

	var resp SigninResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return SigninResponse{}, errors.Wrap(err, "decoding payload")
	}

	return resp, nil
}

// Signout deletes the session on the server side
func Signout(ctx context.VyliteCtx) error {
	if _, err := doAuthorizedReq(ctx, "POST", "/v1/signout", ""); err != nil {
		return errors.Wrap(err, "making http request")
	}

	return nil
}
