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
	"github.com/cockroachdb/seghash/internal/util/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// maxSegmentMetrics caps the cardinality of the per-segment counter
// vector. Larger clusters still report through the end-of-run summary.
const maxSegmentMetrics = 1024

var (
	hashDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "skew_hash_duration_seconds",
		Help:    "the length of time spent routing one row",
		Buckets: metrics.LatencyBuckets,
	})
	rowsHashed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skew_rows_hashed_total",
		Help: "the number of rows routed since startup",
	})
	segmentRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skew_segment_rows_total",
		Help: "the number of rows routed to each segment",
	}, metrics.SegmentLabels)
)
