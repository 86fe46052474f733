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

// Package script contains support for loading row-generator scripts
// built as JavaScript programs. A script declares the column types of
// a distribution key and a function that produces the values for the
// Nth row, which lets a skew report replay the exact keys a site
// produces rather than synthetic ones.
package script

import (
	"context"
	"strconv"
	"sync"

	"github.com/cockroachdb/seghash/internal/sqltype"
	"github.com/dop251/goja"
	"github.com/pkg/errors"
)

// UserScript encapsulates a user-provided row generator expressed as a
// JavaScript program.
type UserScript struct {
	// The column types declared by api.configureRows().
	Columns []sqltype.Kind

	row  rowJS         // The user-provided callback.
	rt   *goja.Runtime // The JavaScript VM. See execJS.
	rtMu sync.Mutex    // Serialize access to the VM.
}

// Row invokes the user callback to produce the values of the given
// row. Calls are internally synchronized to ensure single-threaded
// access to the underlying JS VM.
func (s *UserScript) Row(ctx context.Context, index int64) ([]sqltype.Datum, error) {
	var raw []any
	if err := s.execJS(ctx, func() (err error) {
		raw, err = s.row(index)
		return err
	}); err != nil {
		return nil, err
	}

	if len(raw) != len(s.Columns) {
		return nil, errors.Errorf("row(%d) returned %d values, expecting %d columns",
			index, len(raw), len(s.Columns))
	}

	ret := make([]sqltype.Datum, len(raw))
	for i, v := range raw {
		d, err := datumOf(s.Columns[i], v)
		if err != nil {
			return nil, errors.Wrapf(err, "row(%d) value %d", index, i)
		}
		ret[i] = d
	}
	return ret, nil
}

// datumOf converts a value exported from the JS runtime. Scripts
// generally return strings, which pass through the usual literal
// parsing; numbers and booleans are accepted for convenience.
func datumOf(k sqltype.Kind, v any) (sqltype.Datum, error) {
	switch t := v.(type) {
	case nil:
		// JS null or undefined is a SQL NULL.
		return sqltype.Null(k), nil
	case string:
		return sqltype.Parse(k, t)
	case bool:
		return sqltype.Parse(k, strconv.FormatBool(t))
	case int64:
		return sqltype.Parse(k, strconv.FormatInt(t, 10))
	case float64:
		return sqltype.Parse(k, strconv.FormatFloat(t, 'f', -1, 64))
	default:
		return sqltype.Datum{}, errors.Errorf("unsupported value type %T for %s column", v, k)
	}
}

// execJS ensures that the callback has exclusive access to the JS VM.
// The JS execution will be interrupted when the context is canceled.
func (s *UserScript) execJS(ctx context.Context, fn func() error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.rtMu.Lock()
	s.rt.ClearInterrupt()
	go func() {
		<-ctx.Done()
		s.rt.Interrupt(ctx.Err())
		s.rtMu.Unlock()
	}()
	return fn()
}
