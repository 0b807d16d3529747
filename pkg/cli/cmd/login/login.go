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

package login

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vylite/vylite/pkg/cli/client"
	"github.com/vylite/vylite/pkg/cli/consts"
	"github.com/vylite/vylite/pkg/cli/context"
	"github.com/vylite/vylite/pkg/cli/database"
	"github.com/vylite/vylite/pkg/cli/infra"
	"github.com/vylite/vylite/pkg/cli/log"
	"github.com/vylite/vylite/pkg/cli/merge"
	"github.com/vylite/vylite/pkg/cli/output"
	"github.com/vylite/vylite/pkg/cli/sync"
	"github.com/vylite/vylite/pkg/cli/ui"
)

var registerFlag bool

var example = `
 * Log in to the configured server
 vylite login

 * Create a new account
 vylite login --register`

// NewCmd returns a new login command
func NewCmd(ctx context.VyliteCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "login",
		Short:   "Login to the server",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVar(&registerFlag, "register", false, "create a new account")

	return cmd
}

// getServerDisplayURL returns the server url for display
func getServerDisplayURL(ctx context.VyliteCtx) string {
	u, err := url.Parse(ctx.APIEndpoint)
	if err != nil {
		return ""
	}
	if u.Scheme == "" || u.Host == "" {
		return ""
	}

	return fmt.Sprintf("%s://%s", u.Scheme, u.Host)
}

// saveSession persists the session and account identity, and arms the merge
// prompt for the freshly signed-in account.
func saveSession(db *database.DB, resp client.SigninResponse, email string) error {
	return db.DoInTx(func(tx *database.DB) error {
		if err := database.UpsertSystem(tx, consts.SystemSessionKey, resp.Key); err != nil {
			return errors.Wrap(err, "saving session key")
		}
		if err := database.UpsertSystem(tx, consts.SystemSessionKeyExpiry, strconv.FormatInt(resp.ExpiresAt, 10)); err != nil {
			return errors.Wrap(err, "saving session key expiry")
		}
		if err := database.UpsertSystem(tx, consts.SystemAccountID, resp.User.ID); err != nil {
			return errors.Wrap(err, "saving account id")
		}
		if err := database.UpsertSystem(tx, consts.SystemAccountEmail, email); err != nil {
			return errors.Wrap(err, "saving account email")
		}

		// the watermark belongs to the previous account's pull history
		if err := database.DeleteSystem(tx, consts.SystemSyncWatermark); err != nil {
			return errors.Wrap(err, "clearing the sync watermark")
		}

		return merge.MarkFreshLogin(tx)
	})
}

func newRun(ctx context.VyliteCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if displayURL := getServerDisplayURL(ctx); displayURL != "" {
			log.Plainf("logging in to %s\n", displayURL)
		}

		var email, password string
		if err := ui.PromptInput("email", &email); err != nil {
			return errors.Wrap(err, "getting email input")
		}
		if email == "" {
			return errors.New("email is empty")
		}

		if err := ui.PromptPassword("password", &password); err != nil {
			return errors.Wrap(err, "getting password input")
		}
		if password == "" {
			return errors.New("password is empty")
		}

		var resp client.SigninResponse
		var err error
		if registerFlag {
			resp, err = client.Register(ctx, email, password)
		} else {
			resp, err = client.Signin(ctx, email, password)
		}
		if err == client.ErrInvalidLogin {
			log.Error("wrong credentials\n")
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "logging in")
		}

		if err := saveSession(ctx.DB, resp, email); err != nil {
			return errors.Wrap(err, "saving the session")
		}

		log.Successf("logged in as %s\n", email)

		// proceed with the merge decision and the first sync as the new account
		authed := ctx
		authed.SessionKey = resp.Key
		authed.SessionKeyExpiry = resp.ExpiresAt
		authed.AccountID = resp.User.ID
		authed.AccountEmail = email

		fresh, err := merge.ConsumeFreshLogin(ctx.DB)
		if err != nil {
			return errors.Wrap(err, "checking the fresh login flag")
		}

		engine := sync.NewEngineFromCtx(authed)

		var res sync.Result
		if fresh {
			res, err = merge.PromptAndRun(authed, engine)
			if err != nil {
				return errors.Wrap(err, "running the merge flow")
			}
		} else {
			res = engine.Run()
		}

		output.SyncResult(res)

		return nil
	}
}
