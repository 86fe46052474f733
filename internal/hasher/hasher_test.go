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

package hasher

import (
	"math"
	"math/rand/v2"
	"net"
	"net/netip"
	"testing"

	"github.com/cockroachdb/seghash/internal/sqltype"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func newHasher(t *testing.T, segments int) *Hasher {
	t.Helper()
	h, err := New(segments, WithRand(testRand()))
	require.NoError(t, err)
	return h
}

func numeric(t *testing.T, s string) sqltype.Numeric {
	t.Helper()
	n, err := sqltype.ParseNumeric(s)
	require.NoError(t, err)
	return n
}

// sum hashes a single datum on a fresh accumulator.
func sum(t *testing.T, h *Hasher, d sqltype.Datum) uint32 {
	t.Helper()
	h.Reset()
	require.NoError(t, h.Hash(d))
	return h.Sum32()
}

func TestFNV1(t *testing.T) {
	a := assert.New(t)

	a.Equal(fnvBasis, fnv1(fnvBasis, nil))
	// The published FNV-1 vector for "a".
	a.Equal(uint32(0x050C5D7E), fnv1(fnvBasis, []byte("a")))

	// The shift-add spelling must match the plain multiply.
	src := testRand()
	buf := make([]byte, 4096)
	for i := range buf {
		buf[i] = byte(src.Uint32())
	}
	want := fnvBasis
	for _, b := range buf {
		want = want*fnvPrime ^ uint32(b)
	}
	a.Equal(want, fnv1(fnvBasis, buf))
}

func TestGoldenVectors(t *testing.T) {
	negZero := math.Copysign(0, -1)

	tcs := []struct {
		name  string
		datum sqltype.Datum
		want  uint32
	}{
		// All integer widths collide on equal values.
		{"int2 7", sqltype.Datum{Kind: sqltype.KindInt16, Value: int16(7)}, 0x2D8BE688},
		{"int4 7", sqltype.Datum{Kind: sqltype.KindInt32, Value: int32(7)}, 0x2D8BE688},
		{"int8 7", sqltype.Datum{Kind: sqltype.KindInt64, Value: int64(7)}, 0x2D8BE688},
		{"int8 -1", sqltype.Datum{Kind: sqltype.KindInt64, Value: int64(-1)}, 0x35F2D18D},
		{"int2 300", sqltype.Datum{Kind: sqltype.KindInt16, Value: int16(300)}, 0xB636BD08},
		{"oid 300", sqltype.Datum{Kind: sqltype.KindOid, Value: sqltype.Oid(300)}, 0xB636BD08},
		{"oid 1259", sqltype.Datum{Kind: sqltype.KindOid, Value: sqltype.Oid(1259)}, 0x358FEE58},
		{"regclass 1259", sqltype.Datum{Kind: sqltype.KindRegClass, Value: sqltype.Oid(1259)}, 0x358FEE58},
		{"enum 1259", sqltype.Datum{Kind: sqltype.KindEnum, Value: sqltype.Oid(1259)}, 0x358FEE58},

		{"float4 2.25", sqltype.Datum{Kind: sqltype.KindFloat32, Value: float32(2.25)}, 0x3B95DBA5},
		{"float8 1.5", sqltype.Datum{Kind: sqltype.KindFloat64, Value: 1.5}, 0x53E29332},
		{"float8 zero", sqltype.Datum{Kind: sqltype.KindFloat64, Value: 0.0}, 0x9BE17165},
		{"float8 neg zero", sqltype.Datum{Kind: sqltype.KindFloat64, Value: negZero}, 0x9BE17165},

		{"numeric 1.23", sqltype.Datum{Kind: sqltype.KindNumeric, Value: numeric(t, "1.23")}, 0x70AFDF3E},
		{"numeric 1.2300", sqltype.Datum{Kind: sqltype.KindNumeric, Value: numeric(t, "1.2300")}, 0x70AFDF3E},
		{"numeric zero", sqltype.Datum{Kind: sqltype.KindNumeric, Value: numeric(t, "0")}, 0x811C9DC5},
		{"numeric wide", sqltype.Datum{Kind: sqltype.KindNumeric, Value: numeric(t, "123456789.123456789")}, 0x4D5901EC},
		{"numeric NaN", sqltype.Datum{Kind: sqltype.KindNumeric, Value: sqltype.Numeric{NaN: true}}, 0xB500380A},

		{"bool true", sqltype.Datum{Kind: sqltype.KindBool, Value: true}, 0x050C5D1E},
		{"bool false", sqltype.Datum{Kind: sqltype.KindBool, Value: false}, 0x050C5D1F},
		{"char x", sqltype.Datum{Kind: sqltype.KindChar, Value: byte('x')}, 0x050C5D67},

		{"text ab", sqltype.Datum{Kind: sqltype.KindText, Value: "ab"}, 0x70772D38},
		{"varchar ab blank", sqltype.Datum{Kind: sqltype.KindVarChar, Value: "ab "}, 0x70772D38},
		{"bpchar ab blanks", sqltype.Datum{Kind: sqltype.KindBPChar, Value: "ab   "}, 0x70772D38},
		{"text empty", sqltype.Datum{Kind: sqltype.KindText, Value: ""}, 0x811C9DC5},
		{"text one space", sqltype.Datum{Kind: sqltype.KindText, Value: " "}, 0x050C5D3F},
		{"name pg_class", sqltype.Datum{Kind: sqltype.KindName, Value: "pg_class"}, 0x8FFEFAB7},

		{"bytea", sqltype.Datum{Kind: sqltype.KindBytea, Value: []byte{1, 2, 3}}, 0x22AE7A2B},
		{"array payload", sqltype.Datum{Kind: sqltype.KindArray, Value: sqltype.ArrayPayload{1, 2, 3}}, 0x22AE7A2B},

		{"tid", sqltype.Datum{Kind: sqltype.KindItemPointer, Value: sqltype.ItemPointer{Block: 10, Offset: 3}}, 0xF9DFBCF2},

		{"timestamp epoch", sqltype.Datum{Kind: sqltype.KindTimestamp, Value: sqltype.Timestamp(0)}, 0x9BE17165},
		{"timestamptz -1us", sqltype.Datum{Kind: sqltype.KindTimestampTz, Value: sqltype.TimestampTz(-1)}, 0x35F2D18D},
		{"date epoch", sqltype.Datum{Kind: sqltype.KindDate, Value: sqltype.Date(0)}, 0x4B95F515},
		{"time noon", sqltype.Datum{Kind: sqltype.KindTime, Value: sqltype.TimeOfDay(43200000000)}, 0x65C1F9FC},
		{"timetz", sqltype.Datum{Kind: sqltype.KindTimeTz,
			Value: sqltype.TimeTz{Micros: 43200000000, ZoneSecs: -10800}}, 0x855E3F73},

		{"interval", sqltype.Datum{Kind: sqltype.KindInterval,
			Value: sqltype.Interval{Micros: 1000000, Days: 2}}, 0x758A3BC0},
		{"interval months ignored", sqltype.Datum{Kind: sqltype.KindInterval,
			Value: sqltype.Interval{Micros: 1000000, Days: 2, Months: 7}}, 0x758A3BC0},

		{"abstime", sqltype.Datum{Kind: sqltype.KindAbsTime, Value: sqltype.AbsTime(1000)}, 0x843FB6C6},
		{"abstime invalid", sqltype.Datum{Kind: sqltype.KindAbsTime,
			Value: sqltype.AbsTime(sqltype.AbsTimeInvalid)}, 0x7C1144CA},
		{"reltime invalid", sqltype.Datum{Kind: sqltype.KindRelTime,
			Value: sqltype.RelTime(sqltype.AbsTimeInvalid)}, 0x7C1144CA},
		{"tinterval by length", sqltype.Datum{Kind: sqltype.KindTimeSpan,
			Value: sqltype.TimeSpan{Valid: true, Start: 1000, End: 1500}}, 0x456A5A70},
		{"tinterval shifted", sqltype.Datum{Kind: sqltype.KindTimeSpan,
			Value: sqltype.TimeSpan{Valid: true, Start: 9000, End: 9500}}, 0x456A5A70},
		{"tinterval invalid", sqltype.Datum{Kind: sqltype.KindTimeSpan,
			Value: sqltype.TimeSpan{}}, 0x7C1144CA},

		{"inet host", sqltype.Datum{Kind: sqltype.KindInet,
			Value: netip.MustParsePrefix("192.168.1.1/32")}, 0xC0F286FD},
		{"cidr", sqltype.Datum{Kind: sqltype.KindCidr,
			Value: netip.MustParsePrefix("10.0.0.0/8")}, 0xFA22BCDD},
		{"macaddr", sqltype.Datum{Kind: sqltype.KindMacAddr,
			Value: net.HardwareAddr{0x08, 0x00, 0x2B, 0x01, 0x02, 0x03}}, 0xDD7FA32C},

		{"varbit", sqltype.Datum{Kind: sqltype.KindVarBit,
			Value: sqltype.BitString{Bytes: []byte{0xA0, 0xC0}, Bits: 10}}, 0xB177936D},
		{"oidvector", sqltype.Datum{Kind: sqltype.KindOidVector,
			Value: []sqltype.Oid{3, 5}}, 0x422D4093},
		{"money", sqltype.Datum{Kind: sqltype.KindMoney, Value: sqltype.Money(1234)}, 0x3C8EC41B},
		{"uuid", sqltype.Datum{Kind: sqltype.KindUUID,
			Value: uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")}, 0x3527EF16},
		{"complex", sqltype.Datum{Kind: sqltype.KindComplex, Value: complex(1.5, -2.5)}, 0xD0C681E6},

		{"null", sqltype.Null(sqltype.KindInt32), 0xF75A2F0A},
	}

	h := newHasher(t, 4)
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, sum(t, h, tc.datum))
		})
	}
}

// The concrete routing scenarios, accumulator and segment both pinned.
func TestScenarios(t *testing.T) {
	t.Run("int32 zero on four segments", func(t *testing.T) {
		a := assert.New(t)
		h := newHasher(t, 4)
		a.Equal(uint32(0x9BE17165), sum(t, h, sqltype.Datum{Kind: sqltype.KindInt32, Value: int32(0)}))
		a.Equal(1, h.Reduce())
	})

	t.Run("trailing blank text", func(t *testing.T) {
		a := assert.New(t)
		h := newHasher(t, 4)
		plain := sum(t, h, sqltype.Datum{Kind: sqltype.KindText, Value: "ab"})
		a.Equal(uint32(0x70772D38), plain)
		a.Equal(0, h.Reduce())
		a.Equal(plain, sum(t, h, sqltype.Datum{Kind: sqltype.KindText, Value: "ab "}))
	})

	t.Run("float NaN keeps its bits", func(t *testing.T) {
		a := assert.New(t)
		h := newHasher(t, 4)
		quiet := sum(t, h, sqltype.Datum{Kind: sqltype.KindFloat64,
			Value: math.Float64frombits(0x7FF8000000000001)})
		other := sum(t, h, sqltype.Datum{Kind: sqltype.KindFloat64,
			Value: math.Float64frombits(0x7FF8000000000099)})
		a.Equal(uint32(0x0F8D1C9D), quiet)
		a.Equal(uint32(0x023A6495), other)
		// Distinct float NaN payloads may land on distinct segments;
		// only the decimal type collapses NaNs.
		a.NotEqual(quiet, other)
	})

	t.Run("numeric NaN collapse", func(t *testing.T) {
		a := assert.New(t)
		h := newHasher(t, 4)
		a.Equal(uint32(0xB500380A), sum(t, h, sqltype.Datum{Kind: sqltype.KindNumeric,
			Value: sqltype.Numeric{NaN: true}}))
		a.Equal(2, h.Reduce())
	})

	t.Run("null of any type", func(t *testing.T) {
		a := assert.New(t)
		h := newHasher(t, 4)
		a.Equal(uint32(0xF75A2F0A), sum(t, h, sqltype.Null(sqltype.KindText)))
		a.Equal(2, h.Reduce())
	})

	t.Run("three segments uses modulus", func(t *testing.T) {
		a := assert.New(t)
		h := newHasher(t, 3)
		one := sum(t, h, sqltype.Datum{Kind: sqltype.KindInt32, Value: int32(1)})
		segOne := h.Reduce()
		four := sum(t, h, sqltype.Datum{Kind: sqltype.KindInt32, Value: int32(4)})
		segFour := h.Reduce()
		a.Equal(uint32(0x678C146A), one)
		a.Equal(uint32(0xCA8BFD79), four)
		a.NotEqual(one, four)
		a.Equal(0, segOne)
		a.Equal(1, segFour)
	})

	t.Run("inet and cidr share the network key", func(t *testing.T) {
		a := assert.New(t)
		h := newHasher(t, 4)
		prefix := netip.PrefixFrom(netip.MustParseAddr("192.168.1.1"), 24)
		inet := sum(t, h, sqltype.Datum{Kind: sqltype.KindInet, Value: prefix})
		a.Equal(uint32(0xAAC7F945), inet)
		a.Equal(1, h.Reduce())
		a.Equal(inet, sum(t, h, sqltype.Datum{Kind: sqltype.KindCidr, Value: prefix}))
	})
}

func TestMultiColumn(t *testing.T) {
	a := assert.New(t)
	h := newHasher(t, 4)

	int1 := sqltype.Datum{Kind: sqltype.KindInt32, Value: int32(1)}
	ab := sqltype.Datum{Kind: sqltype.KindText, Value: "ab"}

	seg, err := h.Segment([]sqltype.Datum{int1, ab})
	a.NoError(err)
	a.Equal(uint32(0x0002B2CF), h.Sum32())
	a.Equal(3, seg)

	// Column order is part of the key.
	seg, err = h.Segment([]sqltype.Datum{ab, int1})
	a.NoError(err)
	a.Equal(uint32(0x67B1F933), h.Sum32())
	a.Equal(3, seg)

	// Null columns participate like any other.
	seg, err = h.Segment([]sqltype.Datum{int1, sqltype.Null(sqltype.KindText)})
	a.NoError(err)
	a.Equal(uint32(0x69843775), h.Sum32())
	a.Equal(1, seg)
}

func TestNullCollapse(t *testing.T) {
	a := assert.New(t)
	h := newHasher(t, 16)

	h.Reset()
	h.HashNull()
	want := h.Sum32()

	for _, k := range sqltype.Kinds() {
		a.Equalf(want, sum(t, h, sqltype.Null(k)), "%s", k)
	}
}

func TestResetBehavior(t *testing.T) {
	a := assert.New(t)
	h := newHasher(t, 8)

	d := sqltype.Datum{Kind: sqltype.KindText, Value: "warmup"}
	require.NoError(t, h.Hash(d))
	h.Reset()
	a.Equal(fnvBasis, h.Sum32())

	// A reset session behaves like a fresh one.
	fresh := newHasher(t, 8)
	again := sqltype.Datum{Kind: sqltype.KindText, Value: "again"}
	require.NoError(t, h.Hash(again))
	require.NoError(t, fresh.Hash(again))
	a.Equal(fresh.Sum32(), h.Sum32())
}

func TestReductionAgreement(t *testing.T) {
	a := assert.New(t)
	d := sqltype.Datum{Kind: sqltype.KindUUID, Value: uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")}

	for _, n := range []int{1, 2, 4, 8, 64, 1024} {
		h := newHasher(t, n)
		seg, err := h.Segment([]sqltype.Datum{d})
		require.NoError(t, err)
		// The bitmask is just a faster modulus.
		a.Equal(int(h.Sum32()%uint32(n)), seg, "n=%d", n)
		a.Equal(int(h.Sum32()&uint32(n-1)), seg, "n=%d", n)
	}
	for _, n := range []int{3, 5, 7, 33, 1000} {
		h := newHasher(t, n)
		seg, err := h.Segment([]sqltype.Datum{d})
		require.NoError(t, err)
		a.Equal(int(h.Sum32()%uint32(n)), seg, "n=%d", n)
	}
}

func TestRange(t *testing.T) {
	a := assert.New(t)
	src := testRand()
	for _, n := range []int{1, 2, 3, 4, 5, 7, 8, 16, 100, 8191} {
		h := newHasher(t, n)
		for i := 0; i < 100; i++ {
			seg, err := h.Segment([]sqltype.Datum{
				{Kind: sqltype.KindInt64, Value: src.Int64()},
			})
			require.NoError(t, err)
			a.GreaterOrEqual(seg, 0)
			a.Less(seg, n)
		}
	}
}

func TestDeterminism(t *testing.T) {
	a := assert.New(t)
	row := []sqltype.Datum{
		{Kind: sqltype.KindInt64, Value: int64(8589934592)},
		{Kind: sqltype.KindText, Value: "determinism"},
		sqltype.Null(sqltype.KindNumeric),
		{Kind: sqltype.KindUUID, Value: uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")},
	}

	first := newHasher(t, 7)
	second := newHasher(t, 7)
	for i := 0; i < 10; i++ {
		s1, err := first.Segment(row)
		require.NoError(t, err)
		s2, err := second.Segment(row)
		require.NoError(t, err)
		a.Equal(s1, s2)
	}
}

func TestRoundRobin(t *testing.T) {
	t.Run("counter advances by one", func(t *testing.T) {
		a := assert.New(t)
		h := newHasher(t, 4)
		start := h.rr
		for i := 0; i < 10; i++ {
			h.Reset()
			h.HashNoKey()
			a.Equal(start+uint32(i)+1, h.rr)
		}
	})

	t.Run("pinned counter values", func(t *testing.T) {
		a := assert.New(t)
		h := newHasher(t, 4)
		h.rr = 7
		h.Reset()
		h.HashNoKey()
		a.Equal(uint32(0x93470E08), h.Sum32())
		a.Equal(uint32(8), h.rr)
		h.Reset()
		h.HashNoKey()
		a.Equal(uint32(0x54605ABD), h.Sum32())
	})

	t.Run("seeded sessions agree", func(t *testing.T) {
		a := assert.New(t)
		h1, err := New(4, WithRand(rand.New(rand.NewPCG(42, 42))))
		require.NoError(t, err)
		h2, err := New(4, WithRand(rand.New(rand.NewPCG(42, 42))))
		require.NoError(t, err)
		a.Equal(h1.rr, h2.rr)
		for i := 0; i < 5; i++ {
			s1, err := h1.Segment(nil)
			require.NoError(t, err)
			s2, err := h2.Segment(nil)
			require.NoError(t, err)
			a.Equal(s1, s2)
		}
	})

	t.Run("spreads across all segments", func(t *testing.T) {
		a := assert.New(t)
		h := newHasher(t, 4)
		var hit [4]int
		for i := 0; i < 4000; i++ {
			seg, err := h.Segment(nil)
			require.NoError(t, err)
			hit[seg]++
		}
		for seg, n := range hit {
			a.Positivef(n, "segment %d never chosen", seg)
		}
	})
}

func TestNewErrors(t *testing.T) {
	a := assert.New(t)

	for _, n := range []int{0, -1, -100} {
		_, err := New(n)
		a.ErrorContainsf(err, "out of range", "n=%d", n)
	}

	// The upper bound is 2^31; one past it must be rejected where the
	// platform can express it.
	over := maxSegments + 1
	if int64(int(over)) == over {
		_, err := New(int(over))
		a.ErrorContains(err, "out of range")
	}

	h, err := New(1)
	a.NoError(err)
	seg, err := h.Segment([]sqltype.Datum{{Kind: sqltype.KindInt32, Value: int32(99)}})
	a.NoError(err)
	a.Equal(0, seg)
}

func TestHashErrors(t *testing.T) {
	a := assert.New(t)
	h := newHasher(t, 4)

	require.NoError(t, h.Hash(sqltype.Datum{Kind: sqltype.KindInt32, Value: int32(1)}))
	before := h.Sum32()

	// A failed feed leaves the accumulator alone.
	err := h.Hash(sqltype.Datum{Kind: sqltype.KindInt32, Value: "one"})
	a.Error(err)
	a.Equal(before, h.Sum32())

	var unhashable *sqltype.UnhashableTypeError
	err = h.Hash(sqltype.Datum{Kind: sqltype.KindInvalid})
	a.ErrorAs(err, &unhashable)

	_, err = h.Segment([]sqltype.Datum{
		{Kind: sqltype.KindInt32, Value: int32(1)},
		{Kind: sqltype.KindInt32, Value: "two"},
	})
	a.Error(err)

	// The session recovers on the next row.
	seg, err := h.Segment([]sqltype.Datum{{Kind: sqltype.KindInt32, Value: int32(0)}})
	a.NoError(err)
	a.Equal(1, seg)
}
