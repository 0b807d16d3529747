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

package merge

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/vylite/vylite/pkg/cli/context"
	"github.com/vylite/vylite/pkg/cli/log"
	"github.com/vylite/vylite/pkg/cli/sync"
	"github.com/vylite/vylite/pkg/cli/ui"
)

// PromptAndRun drives the interactive merge decision after a sign-in and
// runs the follow-up sync cycle. When no ownerless notes exist, it goes
// straight to syncing.
func PromptAndRun(ctx context.VyliteCtx, engine *sync.Engine) (sync.Result, error) {
	ctl := NewController(ctx.DB, engine, ctx.Clock)

	candidates, err := ctl.DetectCandidates()
	if err != nil {
		return sync.Result{}, errors.Wrap(err, "detecting merge candidates")
	}

	if len(candidates) == 0 {
		return engine.Run(), nil
	}

	noun := "notes"
	if len(candidates) == 1 {
		noun = "note"
	}
	question := fmt.Sprintf("merge %d local %s into your account", len(candidates), noun)

	confirmed, err := ui.Confirm(question, true)
	if err != nil {
		return sync.Result{}, errors.Wrap(err, "getting the merge decision")
	}

	if !confirmed {
		log.Infof("leaving %d %s local-only\n", len(candidates), noun)
		return ctl.Skip()
	}

	return ctl.Merge(ctx.AccountID)
}
