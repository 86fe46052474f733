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

// Package workload creates synthetic rows for exercising the
// distribution hash. Generation is deterministic for a given seed, so
// any skew report or test failure can be reproduced exactly.
package workload

import (
	"math/rand/v2"
	"net"
	"net/netip"

	"github.com/cockroachdb/apd"
	"github.com/cockroachdb/seghash/internal/sqltype"
	"github.com/google/uuid"
)

// A Generator produces random rows over a fixed column layout. It is
// single-goroutine; concurrent workers each carry their own, seeded
// distinctly.
type Generator struct {
	kinds     []sqltype.Kind
	nullRatio float64
	rng       *rand.Rand
}

// Option configures a Generator.
type Option func(*Generator)

// WithKinds sets the column layout of generated rows. The default is
// one column of every hashable kind.
func WithKinds(kinds ...sqltype.Kind) Option {
	return func(g *Generator) { g.kinds = kinds }
}

// WithNullRatio makes each generated column null with the given
// probability.
func WithNullRatio(ratio float64) Option {
	return func(g *Generator) { g.nullRatio = ratio }
}

// New constructs a Generator. Equal seeds produce equal row sequences.
func New(seed uint64, opts ...Option) *Generator {
	g := &Generator{
		kinds: sqltype.Kinds(),
		rng:   rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15)),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Kinds returns the column layout of generated rows.
func (g *Generator) Kinds() []sqltype.Kind {
	return g.kinds
}

// Row generates one row, one datum per configured kind.
func (g *Generator) Row() []sqltype.Datum {
	ret := make([]sqltype.Datum, len(g.kinds))
	for i, k := range g.kinds {
		ret[i] = g.Datum(k)
	}
	return ret
}

const letters = "abcdefghijklmnopqrstuvwxyz"

// word returns a short random identifier, occasionally with trailing
// blanks so the fixed-width trimming paths see realistic traffic.
func (g *Generator) word(maxLen int) string {
	buf := make([]byte, g.rng.IntN(maxLen)+1)
	for i := range buf {
		buf[i] = letters[g.rng.IntN(len(letters))]
	}
	if g.rng.IntN(8) == 0 {
		for i := g.rng.IntN(3) + 1; i > 0; i-- {
			buf = append(buf, ' ')
		}
	}
	return string(buf)
}

func (g *Generator) bytes(maxLen int) []byte {
	buf := make([]byte, g.rng.IntN(maxLen))
	for i := range buf {
		buf[i] = byte(g.rng.Uint32())
	}
	return buf
}

// Datum generates one value of the given kind, or a null datum per the
// configured ratio.
func (g *Generator) Datum(k sqltype.Kind) sqltype.Datum {
	if g.nullRatio > 0 && g.rng.Float64() < g.nullRatio {
		return sqltype.Null(k)
	}
	return sqltype.Datum{Kind: k, Value: g.value(k)}
}

func (g *Generator) value(k sqltype.Kind) any {
	rng := g.rng
	switch k {
	case sqltype.KindBool:
		return rng.IntN(2) == 0
	case sqltype.KindInt16:
		return int16(rng.Uint32())
	case sqltype.KindInt32:
		return int32(rng.Uint32())
	case sqltype.KindInt64:
		return int64(rng.Uint64())
	case sqltype.KindFloat32:
		return (rng.Float32() - 0.5) * 1e6
	case sqltype.KindFloat64:
		return (rng.Float64() - 0.5) * 1e9
	case sqltype.KindNumeric:
		// An occasional NaN keeps the sentinel path warm.
		if rng.IntN(64) == 0 {
			return sqltype.Numeric{NaN: true}
		}
		return sqltype.Numeric{
			Value: apd.New(rng.Int64N(1_000_000_000_000)-500_000_000_000, int32(rng.IntN(9)-4)),
		}
	case sqltype.KindChar:
		return letters[rng.IntN(len(letters))]
	case sqltype.KindBPChar, sqltype.KindText, sqltype.KindVarChar:
		return g.word(16)
	case sqltype.KindBytea:
		return g.bytes(24)
	case sqltype.KindName:
		return g.word(30)
	case sqltype.KindOid, sqltype.KindRegProc, sqltype.KindRegProcedure,
		sqltype.KindRegOper, sqltype.KindRegOperator, sqltype.KindRegClass,
		sqltype.KindRegType, sqltype.KindEnum:
		return sqltype.Oid(rng.Uint32())
	case sqltype.KindItemPointer:
		return sqltype.ItemPointer{
			Block:  rng.Uint32N(1 << 20),
			Offset: uint16(rng.Uint32N(1<<10) + 1),
		}
	case sqltype.KindTimestamp:
		return sqltype.Timestamp(rng.Int64N(2_000_000_000_000_000) - 1_000_000_000_000_000)
	case sqltype.KindTimestampTz:
		return sqltype.TimestampTz(rng.Int64N(2_000_000_000_000_000) - 1_000_000_000_000_000)
	case sqltype.KindDate:
		return sqltype.Date(rng.Int32N(40_000) - 20_000)
	case sqltype.KindTime:
		return sqltype.TimeOfDay(rng.Int64N(86_400_000_000))
	case sqltype.KindTimeTz:
		return sqltype.TimeTz{
			Micros:   rng.Int64N(86_400_000_000),
			ZoneSecs: int32(rng.IntN(27)-13) * 3600,
		}
	case sqltype.KindInterval:
		return sqltype.Interval{
			Micros: rng.Int64N(86_400_000_000),
			Days:   int32(rng.IntN(1000)),
			Months: int32(rng.IntN(24)),
		}
	case sqltype.KindAbsTime:
		return sqltype.AbsTime(rng.Int32N(2_000_000_000))
	case sqltype.KindRelTime:
		return sqltype.RelTime(rng.Int32N(2_000_000) - 1_000_000)
	case sqltype.KindTimeSpan:
		start := rng.Int32N(1_000_000_000)
		return sqltype.TimeSpan{
			Valid: true,
			Start: sqltype.AbsTime(start),
			End:   sqltype.AbsTime(start + rng.Int32N(1_000_000)),
		}
	case sqltype.KindInet, sqltype.KindCidr:
		if rng.IntN(2) == 0 {
			var a [4]byte
			for i := range a {
				a[i] = byte(rng.Uint32())
			}
			return netip.PrefixFrom(netip.AddrFrom4(a), rng.IntN(33))
		}
		var a [16]byte
		for i := range a {
			a[i] = byte(rng.Uint32())
		}
		return netip.PrefixFrom(netip.AddrFrom16(a), rng.IntN(129))
	case sqltype.KindMacAddr:
		hw := make(net.HardwareAddr, 6)
		for i := range hw {
			hw[i] = byte(rng.Uint32())
		}
		return hw
	case sqltype.KindBit, sqltype.KindVarBit:
		bits := rng.IntN(64) + 1
		n := (bits + 7) / 8
		buf := make([]byte, n)
		for i := range buf {
			buf[i] = byte(rng.Uint32())
		}
		// Pad bits are zero by contract.
		buf[n-1] &= 0xFF << (n*8 - bits)
		return sqltype.BitString{Bytes: buf, Bits: bits}
	case sqltype.KindArray:
		return sqltype.ArrayPayload(g.bytes(32))
	case sqltype.KindOidVector:
		vec := make([]sqltype.Oid, rng.IntN(8))
		for i := range vec {
			vec[i] = sqltype.Oid(rng.Uint32N(1 << 16))
		}
		return vec
	case sqltype.KindMoney:
		return sqltype.Money(rng.Int64N(1_000_000_000) - 500_000_000)
	case sqltype.KindUUID:
		var u uuid.UUID
		for i := range u {
			u[i] = byte(rng.Uint32())
		}
		return u
	case sqltype.KindComplex:
		return complex((rng.Float64()-0.5)*1e6, (rng.Float64()-0.5)*1e6)
	default:
		// Unreachable for hashable kinds; keep the generator total.
		return int64(rng.Uint64())
	}
}
