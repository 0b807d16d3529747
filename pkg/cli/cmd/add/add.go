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

package add

import (
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
	"github.com/vylite/vylite/pkg/cli/upgrade"
	"github.com/vylite/vylite/pkg/cli/utils"
)

var contentFlag string

var example = `
 * Open an editor to write content
 vylite add

 * Skip the editor by providing content directly
 vylite add -c "time is a part of the commit hash"

 * Send stdin content to a note
 echo "a branch is just a pointer to a commit" | vylite add
 # or
 vylite add << EOF
 pull is fetch with a merge
 EOF`

// NewCmd returns a new add command
func NewCmd(ctx context.VyliteCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add a new note",
		Aliases: []string{"a", "n", "new"},
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&contentFlag, "content", "c", "", "The new content for the note")

	return cmd
}

func getContent(ctx context.VyliteCtx) (string, error) {
	if contentFlag != "" {
		return contentFlag, nil
	}

	// check for piped content
	fInfo, _ := os.Stdin.Stat()
	if fInfo.Mode()&os.ModeCharDevice == 0 {
		c, err := ui.ReadStdInput()
		if err != nil {
			return "", errors.Wrap(err, "getting piped input")
		}
		return c, nil
	}

	fpath, err := ui.GetTmpContentPath(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting temporarily content file path")
	}

	c, err := ui.GetEditorInput(ctx, fpath)
	if err != nil {
		return "", errors.Wrap(err, "getting editor input")
	}

	return c, nil
}

func newRun(ctx context.VyliteCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		content, err := getContent(ctx)
		if err != nil {
			return errors.Wrap(err, "getting content")
		}
		if content == "" {
			return errors.New("empty content")
		}

		n, err := writeNote(ctx, content)
		if err != nil {
			return errors.Wrap(err, "writing the note")
		}

		log.Successf("added %s\n", n.Title)
		output.NoteInfo(n)

		sync.MaybeAutoSync(ctx)

		if err := upgrade.Check(ctx); err != nil {
			log.Error(errors.Wrap(err, "automatically checking updates").Error())
		}

		return nil
	}
}

func writeNote(ctx context.VyliteCtx, content string) (database.Note, error) {
	noteUUID, err := utils.GenerateUUID()
	if err != nil {
		return database.Note{}, errors.Wrap(err, "generating uuid")
	}

	// notes created while signed out are ownerless until merged
	n := database.NewNote(noteUUID, content, ctx.Clock.Now(), ctx.AccountID)

	err = ctx.DB.DoInTx(func(tx *database.DB) error {
		return n.Insert(tx)
	})
	if err != nil {
		return database.Note{}, errors.Wrap(err, "creating the note")
	}

	return n, nil
}
