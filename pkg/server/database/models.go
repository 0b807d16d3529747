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

package database

import (
	"time"
)

// Model is the base model definition
type Model struct {
	ID        int       `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// User is a model for a user
type User struct {
	Model
	UUID        string     `json:"uuid" gorm:"uniqueIndex;type:text"`
	Email       string     `gorm:"uniqueIndex"`
	Password    string     `json:"-"`
	LastLoginAt *time.Time `json:"-"`
}

// Session represents a user session
type Session struct {
	Model
	UserID     int    `gorm:"index"`
	Key        string `gorm:"index"`
	LastUsedAt time.Time
	ExpiresAt  time.Time
}

// Note is a model for a note. AddedOn and EditedOn carry the logical
// timestamps assigned by the writing device, in unix nanoseconds. They are
// distinct from the Model timestamps, which only record server-side
// bookkeeping. Conflict resolution and incremental fetching operate on
// EditedOn alone.
type Note struct {
	Model
	UUID      string `json:"uuid" gorm:"uniqueIndex;type:text"`
	UserUUID  string `json:"user_uuid" gorm:"index;type:text"`
	Title     string `json:"title"`
	Body      string `json:"content"`
	AddedOn   int64  `json:"added_on"`
	EditedOn  int64  `json:"edited_on" gorm:"index"`
	Deleted   bool   `json:"-" gorm:"default:false"`
	Embedding string `json:"-"`
}
