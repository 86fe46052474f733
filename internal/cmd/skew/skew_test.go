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
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testContext returns a stopper context that drains when the test
// ends.
func testContext(t *testing.T) *stopper.Context {
	t.Helper()
	ctx := stopper.WithContext(context.Background())
	t.Cleanup(func() {
		ctx.Stop(time.Second)
		_ = ctx.Wait()
	})
	return ctx
}

// runConfig preflights the configuration and routes all rows.
func runConfig(t *testing.T, cfg *config) (*report, error) {
	t.Helper()
	r := require.New(t)
	r.NoError(cfg.Preflight())
	runner, err := newRunner(cfg)
	r.NoError(err)
	return runner.Run(testContext(t))
}

func TestSkewDeterminism(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	first, err := runConfig(t, &config{
		rows: 10_000, seed: 7, segments: 8, workers: 4,
	})
	r.NoError(err)

	var total int64
	for _, n := range first.counts {
		total += n
	}
	a.Equal(int64(10_000), total)
	a.Equal(int64(10_000), first.total)

	// The same seed reproduces the same placements, regardless of
	// worker scheduling.
	again, err := runConfig(t, &config{
		rows: 10_000, seed: 7, segments: 8, workers: 4,
	})
	r.NoError(err)
	a.Equal(first.counts, again.counts)
}

func TestSkewConstantScript(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	cfg := &config{rows: 500, seed: 1, segments: 4, workers: 3}
	cfg.script.ScriptPath = "./testdata/constant.js"
	rep, err := runConfig(t, cfg)
	r.NoError(err)

	// int4 zero always lands on segment 1 of 4.
	a.Equal([]int64{0, 500, 0, 0}, rep.counts)
}

func TestSkewScriptError(t *testing.T) {
	a := assert.New(t)

	cfg := &config{rows: 500, seed: 1, segments: 4, workers: 2}
	cfg.script.ScriptPath = "./testdata/bad.js"
	_, err := runConfig(t, cfg)
	if a.Error(err) {
		a.Contains(err.Error(), "invalid int4 literal")
	}
}

func TestSkewKeyless(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	rep, err := runConfig(t, &config{
		kinds: []string{"none"}, rows: 4_000, seed: 3, segments: 4, workers: 4,
	})
	r.NoError(err)

	// Round-robin placement touches every segment; each worker routes
	// a contiguous block much larger than the cluster.
	var total int64
	for seg, n := range rep.counts {
		a.Positive(n, "segment %d", seg)
		total += n
	}
	a.Equal(int64(4_000), total)
	a.True(rep.keyless)
}

func TestSkewCommand(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	cmd := Command()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{
		"--segments", "4", "--rows", "1000", "--workers", "2", "--seed", "1",
	})
	r.NoError(cmd.ExecuteContext(testContext(t)))

	a.Contains(out.String(), "routed 1000 rows (key int8) into 4 segments")
	a.Contains(out.String(), "rows per segment:")
	a.Contains(out.String(), "seed 1")
	a.Contains(out.String(), "SEGMENT")
}

func TestPreflight(t *testing.T) {
	a := assert.New(t)

	// Defaults are backfilled and a seed is drawn.
	cfg := &config{segments: 4}
	a.NoError(cfg.Preflight())
	a.Equal(int64(defaultRows), cfg.rows)
	a.Equal(defaultWorkers, cfg.workers)
	a.NotZero(cfg.seed)
	a.Equal([]string{"int8"}, cfg.kinds)

	// Workers never outnumber rows.
	cfg = &config{segments: 4, rows: 3, workers: 16}
	a.NoError(cfg.Preflight())
	a.Equal(3, cfg.workers)

	cfg = &config{segments: 4, nullRatio: 1.5}
	a.ErrorContains(cfg.Preflight(), "out of range")

	cfg = &config{}
	a.ErrorContains(cfg.Preflight(), "--segments flag is required")

	cfg = &config{segments: maxReportSegments + 1}
	a.ErrorContains(cfg.Preflight(), "limited to")

	cfg = &config{segments: 4, kinds: []string{"int8"}}
	cfg.script.ScriptPath = "./testdata/constant.js"
	a.ErrorContains(cfg.Preflight(), "cannot be combined")

	cfg = &config{segments: 4, kinds: []string{"whatever"}}
	a.ErrorContains(cfg.Preflight(), "unknown type name")
}

func TestReportPrint(t *testing.T) {
	a := assert.New(t)

	rep := &report{
		counts:  []int64{250, 250, 250, 250},
		elapsed: time.Second,
		seed:    42,
		total:   1000,
	}
	rep.kinds = nil
	rep.keyless = true

	var out bytes.Buffer
	a.NoError(rep.print(&out))
	a.Contains(out.String(),
		"routed 1000 rows (key none) into 4 segments in 1s (1000 rows/sec), seed 42")
	a.Contains(out.String(), "min 250, mean 250.0, max 250, cv 0.00%")
	a.Regexp(`0\s+250\s+25\.00%`, out.String())

	// An empty report doesn't divide by zero.
	out.Reset()
	a.NoError((&report{}).print(&out))
	a.Contains(out.String(), "no rows routed")
}
