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

package edit

import (
	"database/sql"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vylite/vylite/pkg/cli/context"
	"github.com/vylite/vylite/pkg/cli/database"
	"github.com/vylite/vylite/pkg/cli/infra"
	"github.com/vylite/vylite/pkg/cli/log"
	"github.com/vylite/vylite/pkg/cli/output"
	"github.com/vylite/vylite/pkg/cli/sync"
	"github.com/vylite/vylite/pkg/cli/ui"
)

var contentFlag string

var example = `
 * Open an editor to modify the content of a note
 vylite edit 3c1a3a3e

 * Skip the editor by providing new content directly
 vylite edit 3c1a3a3e -c "new content"`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

// NewCmd returns a new edit command
func NewCmd(ctx context.VyliteCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "edit <note uuid>",
		Short:   "Edit a note",
		Aliases: []string{"e"},
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&contentFlag, "content", "c", "", "The new content for the note")

	return cmd
}

func getContent(ctx context.VyliteCtx, old string) (string, error) {
	if contentFlag != "" {
		return contentFlag, nil
	}

	fpath, err := ui.GetTmpContentPath(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting temporarily content file path")
	}

	if err := os.WriteFile(fpath, []byte(old), 0644); err != nil {
		return "", errors.Wrap(err, "preparing the content file")
	}

	c, err := ui.GetEditorInput(ctx, fpath)
	if err != nil {
		return "", errors.Wrap(err, "getting editor input")
	}

	return c, nil
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
			return errors.Errorf("note %s is deleted", noteUUID)
		}

		content, err := getContent(ctx, n.Content)
		if err != nil {
			return errors.Wrap(err, "getting content")
		}
		if content == "" {
			return errors.New("empty content")
		}
		if content == n.Content {
			log.Plainf("no change\n")
			return nil
		}

		n.SetContent(content, ctx.Clock.Now())

		err = ctx.DB.DoInTx(func(tx *database.DB) error {
			return n.Update(tx)
		})
		if err != nil {
			return errors.Wrap(err, "updating the note")
		}

		log.Successf("edited %s\n", n.Title)
		output.NoteInfo(n)

		sync.MaybeAutoSync(ctx)

		return nil
	}
}
