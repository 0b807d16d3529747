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
	stderrors "errors"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vylite/vylite/pkg/server/database"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CreateUser creates a new user and returns it
func (a *App) CreateUser(email, password string) (database.User, error) {
	if email == "" {
		return database.User{}, ErrEmailRequired
	}
	if password == "" {
		return database.User{}, ErrPasswordRequired
	}
	if len(password) < 8 {
		return database.User{}, ErrPasswordTooShort
	}

	tx := a.DB.Begin()

	var count int64
	if err := tx.Model(&database.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		tx.Rollback()
		return database.User{}, errors.Wrap(err, "counting users with the same email")
	}
	if count > 0 {
		tx.Rollback()
		return database.User{}, ErrDuplicateEmail
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		tx.Rollback()
		return database.User{}, errors.Wrap(err, "hashing password")
	}

	user := database.User{
		UUID:     uuid.New().String(),
		Email:    email,
		Password: string(hashed),
	}
	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		return database.User{}, errors.Wrap(err, "inserting user")
	}

	tx.Commit()

	return user, nil
}

// Authenticate authenticates the user credentials and returns the matching
// user record
func (a *App) Authenticate(email, password string) (*database.User, error) {
	var user database.User
	err := a.DB.Where("email = ?", email).First(&user).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "finding user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrLoginInvalid
	}

	return &user, nil
}

// SignIn signs in the given user by creating a new session
func (a *App) SignIn(user *database.User) (*database.Session, error) {
	session, err := a.CreateSession(user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "creating session")
	}

	now := a.Clock.Now()
	if err := a.DB.Model(user).Update("last_login_at", &now).Error; err != nil {
		return nil, errors.Wrap(err, "updating last login")
	}

	return &session, nil
}
