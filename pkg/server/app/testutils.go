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

package app

import (
	"fmt"
	"sync/atomic"

	"github.com/vylite/vylite/pkg/clock"
	"github.com/vylite/vylite/pkg/server/database"
)

var testDBCount uint64

// NewTest returns an app for a testing environment, backed by a throwaway
// in-memory database. Each call gets its own database so that tests do not
// observe each other's writes.
func NewTest() App {
	n := atomic.AddUint64(&testDBCount, 1)
	dbPath := fmt.Sprintf("file:vylite_test_%d?mode=memory&cache=shared", n)

	db := database.Open(dbPath)
	database.InitSchema(db)

	return App{
		DB:     db,
		Clock:  clock.New(),
		Port:   "3001",
		DBPath: dbPath,
	}
}
