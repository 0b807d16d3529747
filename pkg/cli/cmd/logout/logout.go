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

package logout

import (
	"database/sql"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vylite/vylite/pkg/cli/client"
	"github.com/vylite/vylite/pkg/cli/consts"
	"github.com/vylite/vylite/pkg/cli/context"
	"github.com/vylite/vylite/pkg/cli/database"
	"github.com/vylite/vylite/pkg/cli/infra"
	"github.com/vylite/vylite/pkg/cli/log"
)

// ErrNotLoggedIn is an error for logging out when not logged in
var ErrNotLoggedIn = errors.New("not logged in")

var example = `
  vylite logout`

// NewCmd returns a new logout command
func NewCmd(ctx context.VyliteCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "logout",
		Short:   "Logout from the server",
		Example: example,
		RunE:    newRun(ctx),
	}

	return cmd
}

// Do performs logout. Local notes are kept; only the session and account
// identity are discarded.
func Do(ctx context.VyliteCtx) error {
	db := ctx.DB

	var key string
	err := database.GetSystem(db, consts.SystemSessionKey, &key)
	if errors.Cause(err) == sql.ErrNoRows {
		return ErrNotLoggedIn
	} else if err != nil {
		return errors.Wrap(err, "getting session key")
	}

	ctx.SessionKey = key
	if err := client.Signout(ctx); err != nil && !client.IsNotAuthenticated(errors.Cause(err)) {
		return errors.Wrap(err, "requesting logout")
	}

	return db.DoInTx(func(tx *database.DB) error {
		for _, k := range []string{
			consts.SystemSessionKey,
			consts.SystemSessionKeyExpiry,
			consts.SystemAccountID,
			consts.SystemAccountEmail,
			consts.SystemPendingFreshLogin,
		} {
			if err := database.DeleteSystem(tx, k); err != nil {
				return errors.Wrapf(err, "deleting %s", k)
			}
		}

		return nil
	})
}

func newRun(ctx context.VyliteCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		err := Do(ctx)
		if err == ErrNotLoggedIn {
			log.Error("not logged in\n")
			return nil
		} else if err != nil {
			return errors.Wrap(err, "logging out")
		}

		log.Success("logged out\n")

		return nil
	}
}
