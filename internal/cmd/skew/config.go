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

package skew

import (
	"context"
	"math/rand/v2"

	"github.com/cockroachdb/seghash/internal/script"
	"github.com/cockroachdb/seghash/internal/sqltype"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

const (
	defaultRows    = 1_000_000
	defaultTypes   = "int8"
	defaultWorkers = 8

	// maxReportSegments bounds the per-segment tally each worker
	// carries. Clusters larger than this are out of scope for a
	// single-process report.
	maxReportSegments = 1 << 20
)

type config struct {
	kinds       []string // Column types of the synthetic key.
	metricsAddr string   // Serve prometheus metrics when set.
	nullRatio   float64  // Probability of a null column value.
	rate        int      // Rows per second, 0 for unlimited.
	rows        int64    // Total rows to hash.
	script      script.Config
	seed        uint64 // Generator seed, 0 to draw one.
	segments    int    // Cluster size.
	workers     int    // Concurrent hash sessions.

	keyless     bool           // Derived from kinds.
	parsedKinds []sqltype.Kind // Derived from kinds, or the script.
}

func (c *config) Bind(flags *pflag.FlagSet) {
	flags.StringVar(&c.metricsAddr, "metricsAddr", "",
		"a host:port on which to serve metrics and diagnostics")
	flags.Float64Var(&c.nullRatio, "nullRatio", 0,
		"the probability that a generated column value is null")
	flags.IntVar(&c.rate, "rateLimit", 0,
		"the number of rows per second to hash, or 0 for no limit")
	flags.Int64Var(&c.rows, "rows", defaultRows,
		"the number of rows to route")
	c.script.Bind(flags)
	flags.Uint64Var(&c.seed, "seed", 0,
		"the generator seed; 0 draws a random seed and logs it")
	flags.IntVar(&c.segments, "segments", 0,
		"the number of segment databases in the cluster")
	flags.StringSliceVar(&c.kinds, "types", nil,
		"the column types of the generated distribution key (default "+
			defaultTypes+"); the word none routes keyless rows")
	flags.IntVar(&c.workers, "workers", defaultWorkers,
		"the number of concurrent hash sessions")
}

// Diagnostic implements [diag.Diagnostic]. It reports the effective
// configuration after Preflight has applied defaults.
func (c *config) Diagnostic(context.Context) any {
	names := make([]string, len(c.parsedKinds))
	for i, k := range c.parsedKinds {
		names[i] = k.String()
	}
	return map[string]any{
		"keyless":   c.keyless,
		"nullRatio": c.nullRatio,
		"rateLimit": c.rate,
		"rows":      c.rows,
		"script":    c.script.MainPath,
		"seed":      c.seed,
		"segments":  c.segments,
		"types":     names,
		"workers":   c.workers,
	}
}

func (c *config) Preflight() error {
	if err := c.script.Preflight(); err != nil {
		return err
	}
	if c.script.FS != nil && c.kinds != nil {
		return errors.New("the --types flag cannot be combined with --script")
	}
	if c.kinds == nil {
		c.kinds = []string{defaultTypes}
	}
	if c.rows < 1 {
		c.rows = defaultRows
	}
	if c.workers < 1 {
		c.workers = defaultWorkers
	}
	if int64(c.workers) > c.rows {
		c.workers = int(c.rows)
	}
	if c.nullRatio < 0 || c.nullRatio > 1 {
		return errors.Errorf("nullRatio %f out of range [0, 1]", c.nullRatio)
	}
	if c.segments < 1 {
		return errors.New("the --segments flag is required")
	}
	if c.segments > maxReportSegments {
		return errors.Errorf("skew reports are limited to %d segments", maxReportSegments)
	}
	if c.seed == 0 {
		c.seed = rand.Uint64()
	}

	// The keyless mode measures the round-robin placement used by
	// tables with no distribution columns.
	if len(c.kinds) == 1 && c.kinds[0] == "none" {
		c.keyless = true
		c.parsedKinds = nil
		return nil
	}
	if c.script.FS == nil {
		c.parsedKinds = make([]sqltype.Kind, len(c.kinds))
		for i, name := range c.kinds {
			k, err := sqltype.ParseKind(name)
			if err != nil {
				return err
			}
			c.parsedKinds[i] = k
		}
	}
	return nil
}
