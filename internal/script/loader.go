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
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/cockroachdb/seghash/internal/sqltype"
	"github.com/dop251/goja"
	esbuild "github.com/evanw/esbuild/pkg/api"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// A JS function that produces the column values for one row. Values
// are returned in text form; a null element is a SQL NULL.
//
//	(index) => [ "42", "hello", null, ... ]
type rowJS func(index int64) ([]any, error)

// rowsJS is used in the API binding.
type rowsJS struct {
	// SQL type names, one per column of the distribution key.
	Columns []string `goja:"columns"`
	// Index to column values.
	Row rowJS `goja:"row"`
}

// Loader is responsible for the first-pass execution of the user
// script. It will load all required resources, parse, and execute the
// top-level API calls.
type Loader struct {
	fs           fs.FS                 // Used by require.
	requireStack []*url.URL            // Allows relative import paths.
	requireCache map[string]goja.Value // Keys are URLs.
	rows         *rowsJS               // Target of api.configureRows().
	rt           *goja.Runtime         // JS Runtime.
}

// NewLoader performs the initial script loading, parsing, and top-level
// api handling. It may return nil if there is no configuration.
func NewLoader(cfg *Config) (*Loader, error) {
	// Return an empty version if unconfigured.
	if cfg.FS == nil {
		return nil, nil
	}

	l := &Loader{
		fs:           cfg.FS,
		requireCache: make(map[string]goja.Value),
		rt:           goja.New(),
	}

	// Use a "goja" tag on struct fields to control name bindings.
	// Also uncapitalize for better style consistency.
	l.rt.SetFieldNameMapper(goja.TagFieldNameMapper("goja", true))

	// Set up top-level namespace.
	global := l.rt.GlobalObject()
	if err := global.Set("__require_cache", l.rt.ToValue(l.requireCache)); err != nil {
		return nil, err
	}
	if err := global.Set("console", console(l.rt)); err != nil {
		return nil, err
	}
	if err := global.Set("require", l.require); err != nil {
		return nil, err
	}

	// Populate an object that represents the API used by scripts.
	apiModule := l.rt.NewObject()
	l.requireCache["seghash@v1"] = apiModule
	if err := apiModule.Set("configureRows", l.configureRows); err != nil {
		return nil, err
	}
	if err := apiModule.Set("randomUUID", randomUUID); err != nil {
		return nil, err
	}

	// Load the main script into the runtime.
	main := url.URL{Scheme: "file", Path: cfg.MainPath}
	if _, err := l.require(main.String()); err != nil {
		return nil, err
	}

	return l, nil
}

// Bind validates the user configuration and creates the public facade
// around the JS callback.
func (l *Loader) Bind() (*UserScript, error) {
	bag := l.rows
	if bag == nil {
		return nil, errors.New("script did not call api.configureRows()")
	}
	if len(bag.Columns) == 0 {
		return nil, errors.New("configureRows(): at least one column required")
	}
	if bag.Row == nil {
		return nil, errors.New("configureRows(): row function required")
	}

	kinds := make([]sqltype.Kind, len(bag.Columns))
	for i, name := range bag.Columns {
		k, err := sqltype.ParseKind(name)
		if err != nil {
			return nil, errors.Wrapf(err, "configureRows().columns[%d]", i)
		}
		kinds[i] = k
	}

	return &UserScript{
		Columns: kinds,
		row:     bag.Row,
		rt:      l.rt,
	}, nil
}

// configureRows is exported to the JS runtime. We implement a
// last-one-wins approach if there are multiple calls.
func (l *Loader) configureRows(bag *rowsJS) error {
	l.rows = bag
	return nil
}

// require is exported to the JS runtime and implements a basic version
// of the NodeJS-style require() function. The referenced module
// contents are loaded, converted to ES5 in CommonJS packaging, and then
// executed.
func (l *Loader) require(module string) (goja.Value, error) {
	// Look for an exact-match (e.g. the API import).
	if found, ok := l.requireCache[module]; ok {
		return found, nil
	}

	// The required path is parsed as a URL, relative to the top of the
	// require stack.  This allows, for example, a script to be loaded
	// from an external source which then refers to sibling paths.
	var err error
	var source *url.URL
	if len(l.requireStack) == 0 {
		// We bootstrap the runtime with require("file:///<main.js>")
		source, err = url.Parse(module)
	} else {
		parent := l.requireStack[len(l.requireStack)-1]
		source, err = parent.Parse(module)
		// This is a bit of a hack for .ts files, since their import
		// strings don't generally include the .ts extension.
		if err == nil && path.Ext(parent.Path) == ".ts" && path.Ext(source.Path) == "" {
			source.Path += ".ts"
		}
	}
	if err != nil {
		return nil, err
	}

	// At this point, the source is an absolute URL, so we'll use it
	// as the key.  We perform a second lookup to see if the external
	// module has been previously required.
	key := source.String()
	if found, ok := l.requireCache[key]; ok {
		return found, nil
	}

	// Push the script's location onto the stack, pop when we're done.
	l.requireStack = append(l.requireStack, source)
	defer func() { l.requireStack = l.requireStack[:len(l.requireStack)-1] }()

	log.Debugf("loading user script %s", source)

	// Acquire the contents of the script.  A file:// URL is loaded from
	// the supplied fs.FS, while http(s):// makes the relevant request.
	var data []byte
	switch source.Scheme {
	case "file":
		f, err := l.fs.Open(source.Path[1:])
		if err != nil {
			return nil, errors.Wrap(err, source.Path)
		}
		defer f.Close()
		data, err = io.ReadAll(f)
		if err != nil {
			return nil, errors.Wrap(err, source.Path)
		}

	case "http", "https":
		resp, err := http.Get(source.String())
		if err != nil {
			return nil, err
		}
		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

	default:
		return nil, errors.Errorf("unsupported scheme %s", source.Scheme)
	}

	// These options will create a self-executing closure that provides
	// the expected ambient symbols for a CommonJS script. The header
	// assigns a stub object to the global __require_cache map to defuse
	// any cyclical module references. It then replaces that stub object
	// with the evaluated module exports to support resource imports.
	opts := esbuild.TransformOptions{
		Banner: fmt.Sprintf(`
__require_cache[%[1]q]=(()=>{
var exports = __require_cache[%[1]q] = {};
var module = {exports: exports};`, key),
		Footer:     "return module.exports;})()",
		Format:     esbuild.FormatCommonJS,
		Loader:     esbuild.LoaderDefault,
		Sourcefile: key,
		Target:     esbuild.ES2015,
	}
	// Source maps improve error messages from the JS runtime.
	if strings.HasSuffix(key, ".js") || strings.HasSuffix(key, ".ts") {
		opts.Sourcemap = esbuild.SourceMapInline
	}

	// Process the script or resource into the equivalent JS source.
	res := esbuild.Transform(string(data), opts)
	if len(res.Errors) > 0 {
		strs := esbuild.FormatMessages(res.Errors, esbuild.FormatMessagesOptions{TerminalWidth: 80})
		for _, str := range strs {
			log.Error(str)
		}
		return nil, errors.New("could not transform source, see log messages for details")
	}

	// Compile the source.
	prog, err := goja.Compile(key, string(res.Code), true)
	if err != nil {
		return nil, err
	}

	// Execute the program, which returns the module's exports. Note
	// that the assigment to l.requireCache happens via the
	// __require_cache binding in the script prelude.
	return l.rt.RunProgram(prog)
}

// randomUUID returns a string containing a random UUID. It is exported
// via the api object.
func randomUUID() string {
	return uuid.New().String()
}
