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

package sync

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vylite/vylite/pkg/cli/consts"
	"github.com/vylite/vylite/pkg/cli/context"
	"github.com/vylite/vylite/pkg/cli/database"
	"github.com/vylite/vylite/pkg/cli/infra"
	"github.com/vylite/vylite/pkg/cli/log"
	"github.com/vylite/vylite/pkg/cli/merge"
	"github.com/vylite/vylite/pkg/cli/output"
	"github.com/vylite/vylite/pkg/cli/scheduler"
	"github.com/vylite/vylite/pkg/cli/sync"
)

var fullFlag bool
var watchFlag bool

var example = `
 * Sync with the server
 vylite sync

 * Ignore the watermark and pull everything
 vylite sync --full

 * Keep syncing on an interval until interrupted
 vylite sync --watch`

// NewCmd returns a new sync command
func NewCmd(ctx context.VyliteCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sync",
		Short:   "Sync notes with the server",
		Aliases: []string{"s"},
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVarP(&fullFlag, "full", "f", false, "pull all records, ignoring the watermark")
	f.BoolVarP(&watchFlag, "watch", "w", false, "keep syncing on an interval until interrupted")

	return cmd
}

func newRun(ctx context.VyliteCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if ctx.SessionKey == "" {
			log.Error("not logged in\n")
			return nil
		}

		if fullFlag {
			if err := database.DeleteSystem(ctx.DB, consts.SystemSyncWatermark); err != nil {
				return errors.Wrap(err, "clearing the sync watermark")
			}
		}

		engine := sync.NewEngineFromCtx(ctx)

		fresh, err := merge.ConsumeFreshLogin(ctx.DB)
		if err != nil {
			return errors.Wrap(err, "checking the fresh login flag")
		}

		var res sync.Result
		if fresh {
			res, err = merge.PromptAndRun(ctx, engine)
			if err != nil {
				return errors.Wrap(err, "running the merge flow")
			}
		} else {
			res = engine.Run()
		}

		output.SyncResult(res)

		if !watchFlag {
			return nil
		}

		return watch(ctx, engine)
	}
}

// watch keeps running sync cycles on the configured interval until the
// process is interrupted
func watch(ctx context.VyliteCtx, engine *sync.Engine) error {
	s, err := scheduler.New(func() {
		output.SyncResult(engine.Run())
	}, ctx.SyncIntervalMinutes)
	if err != nil {
		return errors.Wrap(err, "creating the sync scheduler")
	}

	s.Start()
	defer s.Stop()

	log.Infof("syncing every %dm. press ctrl-c to stop.\n", ctx.SyncIntervalMinutes)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return nil
}
