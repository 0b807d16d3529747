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

// Package upgrade checks for a newer release of the CLI
package upgrade

import (
	gocontext "context"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/github"
	"github.com/pkg/errors"
	"github.com/vylite/vylite/pkg/cli/consts"
	"github.com/vylite/vylite/pkg/cli/context"
	"github.com/vylite/vylite/pkg/cli/database"
	"github.com/vylite/vylite/pkg/cli/log"
)

const (
	repoOwner = "vylite"
	repoName  = "vylite"

	// upgradeCheckInterval is how long to wait between release checks
	upgradeCheckInterval = int64((7 * 24 * time.Hour) / time.Second)
)

func shouldCheck(ctx context.VyliteCtx) (bool, error) {
	if !ctx.EnableUpgradeCheck {
		return false, nil
	}

	val, err := database.GetSystemOptional(ctx.DB, consts.SystemLastUpgrade)
	if err != nil {
		return false, errors.Wrap(err, "reading the last upgrade check time")
	}
	if val == "" {
		return true, nil
	}

	last, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return false, errors.Wrap(err, "parsing the last upgrade check time")
	}

	return ctx.Clock.Now().Unix()-last >= upgradeCheckInterval, nil
}

// fetchLatestTag returns the tag name of the latest release
func fetchLatestTag() (string, error) {
	gh := github.NewClient(nil)

	release, _, err := gh.Repositories.GetLatestRelease(gocontext.Background(), repoOwner, repoName)
	if err != nil {
		return "", errors.Wrap(err, "fetching the latest release")
	}

	return release.GetTagName(), nil
}

// Check looks up the latest release and notifies the user if the running
// version is behind. Checks are throttled; most invocations are a no-op.
func Check(ctx context.VyliteCtx) error {
	ok, err := shouldCheck(ctx)
	if err != nil {
		return errors.Wrap(err, "deciding whether to check for an upgrade")
	}
	if !ok {
		return nil
	}

	tag, err := fetchLatestTag()
	if err != nil {
		return errors.Wrap(err, "checking for an upgrade")
	}

	latest := strings.TrimPrefix(tag, "v")
	current := strings.TrimPrefix(ctx.Version, "v")

	if latest != "" && latest != current {
		log.Infof("a newer version %s is available. please upgrade.\n", latest)
	}

	nowStr := strconv.FormatInt(ctx.Clock.Now().Unix(), 10)
	if err := database.UpsertSystem(ctx.DB, consts.SystemLastUpgrade, nowStr); err != nil {
		return errors.Wrap(err, "recording the upgrade check time")
	}

	return nil
}
