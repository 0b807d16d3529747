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

// Package infra provides operations and definitions for the
// local infrastructure for vylite
package infra

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vylite/vylite/pkg/cli/client"
	"github.com/vylite/vylite/pkg/cli/config"
	"github.com/vylite/vylite/pkg/cli/consts"
	"github.com/vylite/vylite/pkg/cli/context"
	"github.com/vylite/vylite/pkg/cli/database"
	"github.com/vylite/vylite/pkg/cli/log"
	"github.com/vylite/vylite/pkg/cli/utils"
	"github.com/vylite/vylite/pkg/clock"
	"github.com/vylite/vylite/pkg/dirs"
)

const (
	// DefaultAPIEndpoint is the default API endpoint used when none is configured
	DefaultAPIEndpoint = "http://localhost:3001/api"
	// DefaultSyncIntervalMinutes is the default interval for scheduled sync
	DefaultSyncIntervalMinutes = 5
)

// RunEFunc is a function type of vylite commands
type RunEFunc func(*cobra.Command, []string) error

func getDBPath(paths context.Paths, customPath string) string {
	if customPath != "" {
		return customPath
	}

	return fmt.Sprintf("%s/%s/%s", paths.Data, consts.VyliteDirName, consts.VyliteDBFileName)
}

// newBaseCtx creates a minimal context with paths and database connection.
// This base context is used for file and database initialization before
// being enriched with config values by setupCtx.
func newBaseCtx(versionTag, customDBPath string) (context.VyliteCtx, error) {
	paths := context.Paths{
		Home:   dirs.Home,
		Config: dirs.ConfigHome,
		Data:   dirs.DataHome,
	}

	if err := context.InitVyliteDirs(paths); err != nil {
		return context.VyliteCtx{}, errors.Wrap(err, "creating the vylite dirs")
	}

	dbPath := getDBPath(paths, customDBPath)

	db, err := database.Open(dbPath)
	if err != nil {
		return context.VyliteCtx{}, errors.Wrap(err, "connecting to db")
	}

	ctx := context.VyliteCtx{
		Paths:   paths,
		Version: versionTag,
		DB:      db,
	}

	return ctx, nil
}

// Init initializes the vylite environment and returns a new vylite context.
// apiEndpoint is used when creating a new config file.
func Init(versionTag, apiEndpoint, dbPath string) (*context.VyliteCtx, error) {
	ctx, err := newBaseCtx(versionTag, dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "initializing a context")
	}

	if err := initConfigFile(ctx, apiEndpoint); err != nil {
		return nil, errors.Wrap(err, "generating the config file")
	}

	if err := InitDB(ctx); err != nil {
		return nil, errors.Wrap(err, "initializing database")
	}
	if err := InitSystem(ctx); err != nil {
		return nil, errors.Wrap(err, "initializing system data")
	}

	ctx, err = setupCtx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "setting up the context")
	}

	log.Debug("context: %+v\n", context.Redact(ctx))

	return &ctx, nil
}

// setupCtx enriches the base context with values from config file and database.
// This is called after files and database have been initialized.
func setupCtx(ctx context.VyliteCtx) (context.VyliteCtx, error) {
	db := ctx.DB

	var sessionKey, accountID, accountEmail string
	var sessionKeyExpiry int64

	err := db.QueryRow("SELECT value FROM system WHERE key = ?", consts.SystemSessionKey).Scan(&sessionKey)
	if err != nil && err != sql.ErrNoRows {
		return ctx, errors.Wrap(err, "finding session key")
	}
	err = db.QueryRow("SELECT value FROM system WHERE key = ?", consts.SystemSessionKeyExpiry).Scan(&sessionKeyExpiry)
	if err != nil && err != sql.ErrNoRows {
		return ctx, errors.Wrap(err, "finding session key expiry")
	}
	err = db.QueryRow("SELECT value FROM system WHERE key = ?", consts.SystemAccountID).Scan(&accountID)
	if err != nil && err != sql.ErrNoRows {
		return ctx, errors.Wrap(err, "finding account id")
	}
	err = db.QueryRow("SELECT value FROM system WHERE key = ?", consts.SystemAccountEmail).Scan(&accountEmail)
	if err != nil && err != sql.ErrNoRows {
		return ctx, errors.Wrap(err, "finding account email")
	}

	cf, err := config.Read(ctx)
	if err != nil {
		return ctx, errors.Wrap(err, "reading config")
	}

	syncInterval := cf.SyncIntervalMinutes
	if syncInterval <= 0 {
		syncInterval = DefaultSyncIntervalMinutes
	}

	ret := context.VyliteCtx{
		Paths:               ctx.Paths,
		Version:             ctx.Version,
		DB:                  ctx.DB,
		SessionKey:          sessionKey,
		SessionKeyExpiry:    sessionKeyExpiry,
		AccountID:           accountID,
		AccountEmail:        accountEmail,
		APIEndpoint:         cf.APIEndpoint,
		Editor:              cf.Editor,
		AutoSync:            cf.AutoSync,
		SyncIntervalMinutes: syncInterval,
		EnableUpgradeCheck:  cf.EnableUpgradeCheck,
		Clock:               clock.New(),
		HTTPClient:          client.NewRateLimitedHTTPClient(),
	}

	return ret, nil
}

// InitDB creates the tables and indices if they do not exist yet
func InitDB(ctx context.VyliteCtx) error {
	log.Debug("initializing the database\n")

	if _, err := ctx.DB.Exec(database.GetDefaultSchemaSQL()); err != nil {
		return errors.Wrap(err, "running the schema sql")
	}

	return nil
}

func initSystemKV(db *database.DB, key string, val string) error {
	var count int
	if err := db.QueryRow("SELECT count(*) FROM system WHERE key = ?", key).Scan(&count); err != nil {
		return errors.Wrapf(err, "counting %s", key)
	}

	if count > 0 {
		return nil
	}

	if _, err := db.Exec("INSERT INTO system (key, value) VALUES (?, ?)", key, val); err != nil {
		return errors.Wrapf(err, "inserting %s %s", key, val)
	}

	return nil
}

// InitSystem inserts system data if missing
func InitSystem(ctx context.VyliteCtx) error {
	log.Debug("initializing the system\n")

	return ctx.DB.DoInTx(func(tx *database.DB) error {
		nowStr := strconv.FormatInt(time.Now().Unix(), 10)
		if err := initSystemKV(tx, consts.SystemLastUpgrade, nowStr); err != nil {
			return errors.Wrapf(err, "initializing system config for %s", consts.SystemLastUpgrade)
		}
		if err := initSystemKV(tx, consts.SystemSchema, "1"); err != nil {
			return errors.Wrapf(err, "initializing system config for %s", consts.SystemSchema)
		}

		return nil
	})
}

// getEditorCommand returns the system's editor command with appropriate flags,
// if necessary, to make the command wait until editor is close to exit.
func getEditorCommand() string {
	editor := os.Getenv("EDITOR")

	var ret string

	switch editor {
	case "atom":
		ret = "atom -w"
	case "subl":
		ret = "subl -n -w"
	case "code":
		ret = "code -n -w"
	case "mate":
		ret = "mate -w"
	case "vim":
		ret = "vim"
	case "nano":
		ret = "nano"
	case "emacs":
		ret = "emacs"
	case "nvim":
		ret = "nvim"
	default:
		ret = "vi"
	}

	return ret
}

// initConfigFile populates a new config file if it does not exist yet
func initConfigFile(ctx context.VyliteCtx, apiEndpoint string) error {
	path := config.GetPath(ctx)
	ok, err := utils.FileExists(path)
	if err != nil {
		return errors.Wrap(err, "checking if config exists")
	}
	if ok {
		return nil
	}

	editor := getEditorCommand()

	endpoint := apiEndpoint
	if endpoint == "" {
		endpoint = DefaultAPIEndpoint
	}

	cf := config.Config{
		Editor:              editor,
		APIEndpoint:         endpoint,
		AutoSync:            true,
		SyncIntervalMinutes: DefaultSyncIntervalMinutes,
		EnableUpgradeCheck:  true,
	}

	if err := config.Write(ctx, cf); err != nil {
		return errors.Wrap(err, "writing config")
	}

	return nil
}
