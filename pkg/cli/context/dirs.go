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

package context

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/vylite/vylite/pkg/cli/consts"
)

// InitVyliteDirs creates, if necessary, the vylite directories under the
// config and data homes
func InitVyliteDirs(paths Paths) error {
	for _, base := range []string{paths.Config, paths.Data} {
		dir := fmt.Sprintf("%s/%s", base, consts.VyliteDirName)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "creating the directory %s", dir)
		}
	}

	return nil
}
