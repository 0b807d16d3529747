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

// Package merge decides what happens to ownerless local notes when an
// account signs in. Notes created while signed out carry no owner; on a
// fresh sign-in the user chooses to claim them into the account or leave
// them local-only. Notes owned by a different account are never touched.
package merge

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/vylite/vylite/pkg/cli/consts"
	"github.com/vylite/vylite/pkg/cli/database"
	"github.com/vylite/vylite/pkg/cli/log"
	"github.com/vylite/vylite/pkg/cli/sync"
	"github.com/vylite/vylite/pkg/cli/utils"
	"github.com/vylite/vylite/pkg/clock"
)

// State is the phase of the post-sign-in merge flow
type State int

const (
	// StateIdle means no merge decision is outstanding
	StateIdle State = iota
	// StateAwaitingDecision means orphan notes exist and the user has not
	// yet chosen to merge or skip
	StateAwaitingDecision
	// StateSyncing means a decision was made and the follow-up sync cycle
	// is running
	StateSyncing
)

func (s State) String() string {
	switch s {
	case StateAwaitingDecision:
		return "awaiting_merge_decision"
	case StateSyncing:
		return "syncing"
	default:
		return "idle"
	}
}

// Controller runs the merge flow against the local store and hands off to
// the sync engine once a decision is made.
type Controller struct {
	db     *database.DB
	engine *sync.Engine
	clock  clock.Clock
	state  State
}

// NewController returns a merge controller over the given store and engine
func NewController(db *database.DB, engine *sync.Engine, c clock.Clock) *Controller {
	return &Controller{
		db:     db,
		engine: engine,
		clock:  c,
		state:  StateIdle,
	}
}

// State returns the current phase of the merge flow
func (c *Controller) State() State {
	return c.state
}

// MarkFreshLogin records that an interactive sign-in just happened, arming
// the merge prompt for the next sync entry point.
func MarkFreshLogin(db *database.DB) error {
	return database.UpsertSystem(db, consts.SystemPendingFreshLogin, "1")
}

// ConsumeFreshLogin reports whether an interactive sign-in is pending a
// merge decision, and clears the flag. Subsequent calls return false until
// the next sign-in.
func ConsumeFreshLogin(db *database.DB) (bool, error) {
	val, err := database.GetSystemOptional(db, consts.SystemPendingFreshLogin)
	if err != nil {
		return false, errors.Wrap(err, "reading the fresh login flag")
	}
	if val == "" {
		return false, nil
	}

	if err := database.DeleteSystem(db, consts.SystemPendingFreshLogin); err != nil {
		return false, errors.Wrap(err, "clearing the fresh login flag")
	}

	return val == "1", nil
}

// DetectCandidates returns the ownerless notes eligible for merging and
// moves the controller to the awaiting-decision state when any exist.
func (c *Controller) DetectCandidates() ([]database.Note, error) {
	candidates, err := database.ListMergeCandidates(c.db)
	if err != nil {
		return nil, errors.Wrap(err, "listing merge candidates")
	}

	if len(candidates) > 0 {
		c.state = StateAwaitingDecision
	} else {
		c.state = StateIdle
	}

	return candidates, nil
}

// Merge claims every ownerless note for the given account and runs a sync
// cycle. Each claimed note receives a fresh identity so that it can never
// collide with a remote row that predates the sign-in. The claim is atomic:
// either every candidate is claimed or none is.
func (c *Controller) Merge(userID string) (sync.Result, error) {
	c.state = StateSyncing
	defer func() { c.state = StateIdle }()

	now := c.clock.Now()

	err := c.db.DoInTx(func(tx *database.DB) error {
		candidates, err := database.ListMergeCandidates(tx)
		if err != nil {
			return errors.Wrap(err, "listing merge candidates")
		}

		for _, n := range candidates {
			if err := claimNote(tx, n, userID, now); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return sync.Result{}, errors.Wrap(err, "claiming orphan notes")
	}

	return c.engine.Run(), nil
}

// Skip leaves ownerless notes as they are and runs a sync cycle for the
// account's own data
func (c *Controller) Skip() (sync.Result, error) {
	c.state = StateSyncing
	defer func() { c.state = StateIdle }()

	return c.engine.Run(), nil
}

// claimNote re-creates the note under a new uuid owned by userID and
// removes the orphan record.
func claimNote(tx *database.DB, n database.Note, userID string, now time.Time) error {
	newUUID, err := utils.GenerateUUID()
	if err != nil {
		return err
	}

	log.Debug("claiming orphan note %s as %s for %s\n", n.UUID, newUUID, userID)

	claimed := n
	claimed.UUID = newUUID
	claimed.UserID = sql.NullString{String: userID, Valid: true}
	claimed.Touch(now)

	if err := claimed.Insert(tx); err != nil {
		return err
	}
	if err := n.Expunge(tx); err != nil {
		return err
	}

	return nil
}
