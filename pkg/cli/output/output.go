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

// Package output provides functions to print informations on the terminal
// in a consistent manner
package output

import (
	"fmt"
	"time"

	"github.com/vylite/vylite/pkg/cli/database"
	"github.com/vylite/vylite/pkg/cli/log"
	"github.com/vylite/vylite/pkg/cli/sync"
)

// NoteInfo prints a note information
func NoteInfo(n database.Note) {
	log.Infof("title: %s\n", n.Title)
	log.Infof("created at: %s\n", time.Unix(0, n.CreatedAt).Format("Jan 2, 2006 3:04pm (MST)"))
	if n.UpdatedAt != n.CreatedAt {
		log.Infof("updated at: %s\n", time.Unix(0, n.UpdatedAt).Format("Jan 2, 2006 3:04pm (MST)"))
	}
	log.Infof("note uuid: %s\n", n.UUID)
	log.Infof("sync status: %s\n", n.SyncStatus)

	fmt.Printf("\n------------------------content------------------------\n")
	fmt.Printf("%s", n.Content)
	fmt.Printf("\n-------------------------------------------------------\n")
}

// NoteContent prints the content of a note
func NoteContent(n database.Note) {
	fmt.Printf("%s", n.Content)
}

// NoteLine prints a one-line summary of a note for listings
func NoteLine(n database.Note) {
	log.Plainf("%s %s\n", log.ColorYellow.Sprintf("(%s)", n.UUID[:8]), n.Title)
}

// SyncResult prints the outcome of a sync cycle
func SyncResult(res sync.Result) {
	if res.Skipped {
		log.Plainf("sync already in progress\n")
		return
	}
	if res.Err != "" {
		log.Warnf("sync incomplete: %s\n", res.Err)
	}

	log.Successf("pushed %d, pulled %d\n", res.Pushed, res.Pulled)
}
