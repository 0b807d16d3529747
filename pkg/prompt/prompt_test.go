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

package prompt

import (
	"strings"
	"testing"

	"github.com/vylite/vylite/pkg/assert"
)

func TestFormatQuestion(t *testing.T) {
	testCases := []struct {
		question   string
		optimistic bool
		expected   string
	}{
		{"merge notes", false, "merge notes (y/N)"},
		{"merge notes", true, "merge notes (Y/n)"},
	}

	for _, tc := range testCases {
		got := FormatQuestion(tc.question, tc.optimistic)
		assert.Equal(t, got, tc.expected, "formatted question mismatch")
	}
}

func TestReadYesNo(t *testing.T) {
	testCases := []struct {
		input      string
		optimistic bool
		expected   bool
	}{
		{"y\n", false, true},
		{"Y\n", false, true},
		{"n\n", false, false},
		{"\n", false, false},
		{"nonsense\n", false, false},
		{"\n", true, true},
		{"n\n", true, false},
		{"y\n", true, true},
	}

	for _, tc := range testCases {
		got, err := ReadYesNo(strings.NewReader(tc.input), tc.optimistic)
		assert.NoErr(t, err, "reading the response")
		assert.Equal(t, got, tc.expected, "parsed response mismatch")
	}
}
