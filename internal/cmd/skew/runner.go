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
	"sync/atomic"
	"time"

	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/cockroachdb/seghash/internal/hasher"
	"github.com/cockroachdb/seghash/internal/script"
	"github.com/cockroachdb/seghash/internal/sqltype"
	"github.com/cockroachdb/seghash/internal/util/metrics"
	"github.com/cockroachdb/seghash/internal/workload"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type runner struct {
	cfg     *config
	limiter *rate.Limiter
	script  *script.UserScript // Non-nil when a script drives generation.
}

func newRunner(cfg *config) (*runner, error) {
	r := &runner{cfg: cfg}
	if cfg.rate > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(cfg.rate), 1)
	} else {
		r.limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if cfg.script.FS != nil {
		loader, err := script.NewLoader(&cfg.script)
		if err != nil {
			return nil, err
		}
		userScript, err := loader.Bind()
		if err != nil {
			return nil, err
		}
		r.script = userScript
		cfg.parsedKinds = userScript.Columns
	}
	return r, nil
}

// Run routes the configured number of rows and collects their
// placements. A graceful stop reports the rows routed so far.
func (r *runner) Run(ctx *stopper.Context) (*report, error) {
	defer log.Trace("runner has stopped")
	cfg := r.cfg

	log.Infof("routing %d rows into %d segment databases, seed %d",
		cfg.rows, cfg.segments, cfg.seed)

	// Write an occasional log message.
	const reportInterval = 5 * time.Second
	var total atomic.Int64
	done := make(chan struct{})
	defer close(done)
	ctx.Go(func(ctx *stopper.Context) error {
		reportTicker := time.NewTicker(reportInterval)
		defer reportTicker.Stop()
		var last int64
		for {
			select {
			case <-done:
				return nil
			case <-ctx.Stopping():
				return nil
			case <-reportTicker.C:
				cur := total.Load()
				log.Infof("routed %d rows (%.2f rps)",
					cur, float64(cur-last)/reportInterval.Seconds())
				last = cur
			}
		}
	})

	// Stripe the row space over the workers. Each worker owns an
	// independent hash session and tally, so the aggregate counts are
	// reproducible for a given seed regardless of scheduling.
	tallies := make([][]int64, cfg.workers)
	start := time.Now()
	eg, errCtx := errgroup.WithContext(ctx)
	chunk := cfg.rows / int64(cfg.workers)
	extra := cfg.rows % int64(cfg.workers)
	lo := int64(0)
	for w := 0; w < cfg.workers; w++ {
		hi := lo + chunk
		if int64(w) < extra {
			hi++
		}
		tallies[w] = make([]int64, cfg.segments)
		worker, batchLo := w, lo // Capture.
		eg.Go(func() error {
			return r.worker(errCtx, ctx, worker, batchLo, hi, tallies[worker], &total)
		})
		lo = hi
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	rep := &report{
		counts:  make([]int64, cfg.segments),
		elapsed: time.Since(start),
		keyless: cfg.keyless,
		kinds:   cfg.parsedKinds,
		seed:    cfg.seed,
	}
	for _, tally := range tallies {
		for seg, n := range tally {
			rep.counts[seg] += n
			rep.total += n
		}
	}
	return rep, nil
}

// worker routes rows [lo, hi) through its own hash session.
func (r *runner) worker(
	ctx context.Context,
	stop *stopper.Context,
	id int,
	lo, hi int64,
	tally []int64,
	total *atomic.Int64,
) error {
	cfg := r.cfg
	h, err := hasher.New(cfg.segments,
		hasher.WithRand(rand.New(rand.NewPCG(cfg.seed, uint64(id)))))
	if err != nil {
		return err
	}

	var src func(int64) ([]sqltype.Datum, error)
	if r.script != nil {
		src = func(i int64) ([]sqltype.Datum, error) { return r.script.Row(ctx, i) }
	} else {
		gen := workload.New(cfg.seed+uint64(id)+1,
			workload.WithKinds(cfg.parsedKinds...),
			workload.WithNullRatio(cfg.nullRatio))
		src = func(int64) ([]sqltype.Datum, error) { return gen.Row(), nil }
	}

	// Resolve the per-segment counters once; a vector lookup per row
	// would cost more than the hash itself.
	var segCounters []prometheus.Counter
	if cfg.segments <= maxSegmentMetrics {
		segCounters = make([]prometheus.Counter, cfg.segments)
		for seg := range segCounters {
			segCounters[seg] = segmentRows.WithLabelValues(metrics.SegmentValues(seg)...)
		}
	}

	for i := lo; i < hi; i++ {
		if stop.IsStopping() {
			return nil
		}
		// The limiter also surfaces cancellation when a sibling fails.
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
		row, err := src(i)
		if err != nil {
			return err
		}
		begin := time.Now()
		seg, err := h.Segment(row)
		if err != nil {
			return err
		}
		hashDuration.Observe(time.Since(begin).Seconds())
		tally[seg]++
		total.Add(1)
		rowsHashed.Inc()
		if segCounters != nil {
			segCounters[seg].Inc()
		}
	}
	return nil
}
