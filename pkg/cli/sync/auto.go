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
	"github.com/vylite/vylite/pkg/cli/context"
	"github.com/vylite/vylite/pkg/cli/log"
)

// NewEngineFromCtx builds an engine wired to the configured server
func NewEngineFromCtx(ctx context.VyliteCtx) *Engine {
	return NewEngine(ctx.DB, NewRemote(ctx), ctx.Clock)
}

// MaybeAutoSync runs a sync cycle after a local mutation when auto sync is
// enabled. Failures do not fail the mutation; the change stays pending and
// is picked up by a later cycle.
func MaybeAutoSync(ctx context.VyliteCtx) {
	if !ctx.AutoSync {
		return
	}

	res := NewEngineFromCtx(ctx).Run()
	if res.Err != "" {
		log.Warnf("auto sync incomplete: %s\n", res.Err)
	} else {
		log.Debug("auto sync pushed %d, pulled %d\n", res.Pushed, res.Pulled)
	}
}
