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
	"github.com/vylite/vylite/pkg/cli/client"
	"github.com/vylite/vylite/pkg/cli/context"
)

// httpRemote implements Remote over the vylite server HTTP API
type httpRemote struct {
	ctx context.VyliteCtx
}

// NewRemote returns a Remote backed by the server at ctx.APIEndpoint
func NewRemote(ctx context.VyliteCtx) Remote {
	return &httpRemote{ctx: ctx}
}

func (r *httpRemote) GetPrincipal() (*client.Principal, error) {
	return client.GetMe(r.ctx)
}

func (r *httpRemote) UpsertNotes(rows []client.NoteRow) error {
	return client.UpsertNotes(r.ctx, rows)
}

func (r *httpRemote) ListNotes(updatedAfter string) ([]client.NoteRow, error) {
	return client.ListNotes(r.ctx, updatedAfter)
}
