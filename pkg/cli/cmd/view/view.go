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

package view

import (
	"database/sql"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vylite/vylite/pkg/cli/context"
	"github.com/vylite/vylite/pkg/cli/database"
	"github.com/vylite/vylite/pkg/cli/infra"
	"github.com/vylite/vylite/pkg/cli/output"
)

var contentOnlyFlag bool

var example = `
 * List all notes
 vylite view

 * View a note detail
 vylite view 3c1a3a3e

 * Print only the content of a note
 vylite view 3c1a3a3e --content-only`

// NewCmd returns a new view command
func NewCmd(ctx context.VyliteCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "view [note uuid]",
		Short:   "List notes or view a note detail",
		Aliases: []string{"v", "ls", "list"},
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVar(&contentOnlyFlag, "content-only", false, "print only the note content")

	return cmd
}

func newRun(ctx context.VyliteCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return listAll(ctx)
		}

		return viewOne(ctx, args[0])
	}
}

func listAll(ctx context.VyliteCtx) error {
	notes, err := database.ListActiveNotes(ctx.DB)
	if err != nil {
		return errors.Wrap(err, "listing notes")
	}

	for _, n := range notes {
		output.NoteLine(n)
	}

	return nil
}

func viewOne(ctx context.VyliteCtx, noteUUID string) error {
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

	if contentOnlyFlag {
		output.NoteContent(n)
		return nil
	}

	output.NoteInfo(n)

	return nil
}
