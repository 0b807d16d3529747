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

package remove

import (
	"database/sql"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vylite/vylite/pkg/cli/context"
	"github.com/vylite/vylite/pkg/cli/database"
	"github.com/vylite/vylite/pkg/cli/infra"
	"github.com/vylite/vylite/pkg/cli/log"
	"github.com/vylite/vylite/pkg/cli/sync"
	"github.com/vylite/vylite/pkg/cli/ui"
)

var yesFlag bool

var example = `
 * Remove a note
 vylite remove 3c1a3a3e

 * Remove without confirmation
 vylite remove 3c1a3a3e -y`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

// NewCmd returns a new remove command
func NewCmd(ctx context.VyliteCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove <note uuid>",
		Short:   "Remove a note",
		Aliases: []string{"rm", "d", "delete"},
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVarP(&yesFlag, "yes", "y", false, "remove without confirmation")

	return cmd
}

func newRun(ctx context.VyliteCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		noteUUID := args[0]

		n, err := database.GetNote(ctx.DB, noteUUID)
		if err == sql.ErrNoRows {
			return errors.Errorf("note %s not found", noteUUID)
		}
		if err != nil {
			return errors.Wrap(err, "finding the note")
		}
		if n.Deleted {
			return errors.Errorf("note %s is already deleted", noteUUID)
		}

		if !yesFlag {
			confirmed, err := ui.Confirm("remove this note", false)
			if err != nil {
				return errors.Wrap(err, "getting confirmation")
			}
			if !confirmed {
				log.Plainf("aborted\n")
				return nil
			}
		}

		// the record becomes a pending tombstone until the deletion is pushed
		n.MarkDeleted(ctx.Clock.Now())

		err = ctx.DB.DoInTx(func(tx *database.DB) error {
			return n.Update(tx)
		})
		if err != nil {
			return errors.Wrap(err, "removing the note")
		}

		log.Successf("removed %s\n", n.Title)

		sync.MaybeAutoSync(ctx)

		return nil
	}
}
