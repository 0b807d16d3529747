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

// Package config reads and writes the vylite configuration file
package config

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/vylite/vylite/pkg/cli/consts"
	"github.com/vylite/vylite/pkg/cli/context"
	"gopkg.in/yaml.v2"
)

// Config holds vylite configuration
type Config struct {
	Editor              string `yaml:"editor"`
	APIEndpoint         string `yaml:"apiEndpoint"`
	AutoSync            bool   `yaml:"autoSync"`
	SyncIntervalMinutes int    `yaml:"syncIntervalMinutes"`
	EnableUpgradeCheck  bool   `yaml:"enableUpgradeCheck"`
}

// GetPath returns the path to the vylite config file
func GetPath(ctx context.VyliteCtx) string {
	return fmt.Sprintf("%s/%s/%s", ctx.Paths.Config, consts.VyliteDirName, consts.ConfigFilename)
}

// Read reads the config file
func Read(ctx context.VyliteCtx) (Config, error) {
	var ret Config

	configPath := GetPath(ctx)
	b, err := os.ReadFile(configPath)
	if err != nil {
		return ret, errors.Wrap(err, "reading config file")
	}

	err = yaml.Unmarshal(b, &ret)
	if err != nil {
		return ret, errors.Wrap(err, "unmarshalling config")
	}

	return ret, nil
}

// Write writes the config to the config file
func Write(ctx context.VyliteCtx, cf Config) error {
	path := GetPath(ctx)

	b, err := yaml.Marshal(cf)
	if err != nil {
		return errors.Wrap(err, "marshalling config into YAML")
	}

	err = os.WriteFile(path, b, 0644)
	if err != nil {
		return errors.Wrap(err, "writing the config file")
	}

	return nil
}
