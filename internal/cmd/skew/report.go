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
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cockroachdb/seghash/internal/sqltype"
)

// maxTableSegments bounds the per-segment listing; larger clusters get
// the summary statistics only.
const maxTableSegments = 256

// A report summarizes where the routed rows landed.
type report struct {
	counts  []int64
	elapsed time.Duration
	keyless bool
	kinds   []sqltype.Kind
	seed    uint64
	total   int64
}

// print writes a human-readable summary of the distribution.
func (rep *report) print(out io.Writer) error {
	segments := len(rep.counts)
	if segments == 0 || rep.total == 0 {
		_, err := fmt.Fprintln(out, "no rows routed")
		return err
	}

	key := "none"
	if !rep.keyless {
		names := make([]string, len(rep.kinds))
		for i, k := range rep.kinds {
			names[i] = k.String()
		}
		key = strings.Join(names, ",")
	}

	var rowRate float64
	if rep.elapsed > 0 {
		rowRate = float64(rep.total) / rep.elapsed.Seconds()
	}
	if _, err := fmt.Fprintf(out,
		"routed %d rows (key %s) into %d segments in %s (%.0f rows/sec), seed %d\n",
		rep.total, key, segments, rep.elapsed.Round(time.Millisecond),
		rowRate, rep.seed); err != nil {
		return err
	}

	minCount, maxCount := rep.counts[0], rep.counts[0]
	for _, n := range rep.counts[1:] {
		if n < minCount {
			minCount = n
		}
		if n > maxCount {
			maxCount = n
		}
	}
	mean := float64(rep.total) / float64(segments)
	var sumSq float64
	for _, n := range rep.counts {
		dev := float64(n) - mean
		sumSq += dev * dev
	}
	cv := math.Sqrt(sumSq/float64(segments)) / mean * 100
	if _, err := fmt.Fprintf(out,
		"rows per segment: min %d, mean %.1f, max %d, cv %.2f%%\n",
		minCount, mean, maxCount, cv); err != nil {
		return err
	}

	if segments > maxTableSegments {
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 1, 2, ' ', 0)
	fmt.Fprintln(w, "SEGMENT\tROWS\tSHARE")
	for seg, n := range rep.counts {
		fmt.Fprintf(w, "%d\t%d\t%.2f%%\n", seg, n, float64(n)/float64(rep.total)*100)
	}
	return w.Flush()
}
