// Copyright 2025 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package script

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
)

// Config locates the user script.
type Config struct {
	FS       fs.FS  // A filesystem to load resources from.
	MainPath string // A path, relative to FS, that holds the entrypoint.

	ScriptPath string // An external filesystem path.
}

// Bind adds flags to the set.
func (c *Config) Bind(f *pflag.FlagSet) {
	f.StringVar(&c.ScriptPath, "script", "",
		"the path to a row-generator script, see the skew command help")
}

// Preflight validates the configuration.
func (c *Config) Preflight() error {
	if c.ScriptPath != "" {
		path, err := filepath.Abs(c.ScriptPath)
		if err != nil {
			return err
		}

		dir, path := filepath.Split(path)
		c.FS = os.DirFS(dir)
		c.MainPath = "/" + path
		c.ScriptPath = ""
	}

	return nil
}
