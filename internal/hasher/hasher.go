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

// Package hasher assigns rows to worker segments.
//
// A Hasher is a single-row session: reset the accumulator, feed the
// canonical bytes of each distribution-key column through 32-bit FNV-1,
// then reduce the accumulated hash to a segment index. Rows fed the
// same key values land on the same segment in every process and every
// release; the canonical forms, the FNV-1 parameters, and the
// sentinel words are all frozen by that contract.
//
// Canonical forms are little-endian. The hash never crosses between
// machines of different byte orders: all hosts of one cluster encode
// rows identically, so the codec picks the order native to the
// platforms it runs on and documents it rather than paying for a swap
// on every column.
//
// Tables without a distribution key spread rows round-robin instead: a
// per-session counter, randomly seeded, is hashed in place of the key.
// Sessions that survive many rows (bulk loads) therefore cycle evenly
// across segments, while per-row sessions scatter randomly.
package hasher

import (
	"encoding/binary"
	"math/rand/v2"

	"github.com/cockroachdb/seghash/internal/sqltype"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// reduceAlg selects how an accumulated hash becomes a segment index.
type reduceAlg uint8

const (
	// reduceBitmask masks off the high bits. Valid only when the
	// segment count is a power of two, where it agrees with the
	// modulus.
	reduceBitmask reduceAlg = iota + 1
	// reduceLazyMod is the plain modulus.
	reduceLazyMod
)

// maxSegments bounds the segment count to what the reduction can
// address.
const maxSegments = int64(1) << 31

// rrUpper is the inclusive upper bound for seeding the round-robin
// counter. Keeping a margin below 2^32 lets long-lived sessions
// increment for billions of rows before wrapping.
const rrUpper uint32 = 0xA0B0C0D1

// A Hasher routes rows to a fixed number of segments. It is a
// single-goroutine session; concurrent loaders each carry their own.
type Hasher struct {
	segments int
	alg      reduceAlg
	hash     uint32
	rr       uint32
	buf      []byte
}

type options struct {
	src *rand.Rand
}

// Option configures a Hasher.
type Option func(*options)

// WithRand supplies the randomness for seeding the round-robin
// counter. Tests and replayable workloads pass a seeded source to make
// keyless placement deterministic; everything else lets New draw from
// the global generator.
func WithRand(src *rand.Rand) Option {
	return func(o *options) { o.src = src }
}

// New creates a session routing rows to segments [0, segments). The
// count must be in [1, 2^31].
func New(segments int, opts ...Option) (*Hasher, error) {
	if segments < 1 || int64(segments) > maxSegments {
		return nil, errors.Errorf("segment count %d out of range [1, 2^31]", segments)
	}
	var cfg options
	for _, o := range opts {
		o(&cfg)
	}
	h := &Hasher{segments: segments}
	if segments&(segments-1) == 0 {
		h.alg = reduceBitmask
	} else {
		h.alg = reduceLazyMod
	}
	if cfg.src != nil {
		h.rr = cfg.src.Uint32N(rrUpper + 1)
	} else {
		h.rr = rand.Uint32N(rrUpper + 1)
	}
	h.Reset()
	log.Tracef("hashing into %d segment databases", segments)
	return h, nil
}

// Reset returns the accumulator to the FNV-1 basis, ready for the next
// row. The round-robin counter is not reset; it advances for the life
// of the session.
func (h *Hasher) Reset() {
	h.hash = fnvBasis
}

// Hash folds one column value into the accumulator. A null datum of
// any type folds the null sentinel. On error the accumulator is
// unchanged; the caller can Reset and retry the row.
func (h *Hasher) Hash(d sqltype.Datum) error {
	buf, err := sqltype.AppendCanonical(h.buf[:0], d)
	if err != nil {
		return err
	}
	h.buf = buf
	h.hash = fnv1(h.hash, buf)
	return nil
}

// HashNull folds a null column into the accumulator. Equivalent to
// Hash of a null datum, for callers that track nullness out of band.
func (h *Hasher) HashNull() {
	h.buf = sqltype.AppendNull(h.buf[:0])
	h.hash = fnv1(h.hash, h.buf)
}

// HashNoKey folds the round-robin counter in place of a distribution
// key and advances it. Used once per row for tables distributed
// randomly.
func (h *Hasher) HashNoKey() {
	var rrbuf [4]byte
	binary.LittleEndian.PutUint32(rrbuf[:], h.rr)
	h.hash = fnv1(h.hash, rrbuf[:])
	h.rr++
}

// Sum32 returns the current accumulator value.
func (h *Hasher) Sum32() uint32 {
	return h.hash
}

// Segments returns the segment count the session reduces into.
func (h *Hasher) Segments() int {
	return h.segments
}

// Reduce maps the accumulated hash onto [0, segments).
func (h *Hasher) Reduce() int {
	if h.alg == reduceBitmask {
		return int(h.hash & (uint32(h.segments) - 1))
	}
	return int(h.hash % uint32(h.segments))
}

// Segment routes one row: the accumulator resets, every column of the
// key is folded in order, and the result reduces to a segment index.
// An empty key means the table has no distribution columns, so the row
// places round-robin.
func (h *Hasher) Segment(row []sqltype.Datum) (int, error) {
	h.Reset()
	if len(row) == 0 {
		h.HashNoKey()
		return h.Reduce(), nil
	}
	for _, d := range row {
		if err := h.Hash(d); err != nil {
			return 0, err
		}
	}
	return h.Reduce(), nil
}
