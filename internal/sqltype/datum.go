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

package sqltype

import (
	"fmt"
	"time"

	"github.com/cockroachdb/apd"
)

// A Datum is one SQL value presented to the distribution hash: a Kind,
// a Go value of the Kind's associated type, and a null flag. When Null
// is set, Value is ignored and the Kind only documents the column type.
//
// The Go type expected in Value for each Kind:
//
//	Bool                       bool
//	Int16                      int16
//	Int32                      int32
//	Int64                      int64
//	Float32                    float32
//	Float64                    float64
//	Numeric                    Numeric
//	Char                       byte
//	BPChar, Text, VarChar      string
//	Bytea                      []byte
//	Name                       string
//	Oid, reg*, Enum            Oid
//	ItemPointer                ItemPointer
//	Timestamp                  Timestamp
//	TimestampTz                TimestampTz
//	Date                       Date
//	Time                       TimeOfDay
//	TimeTz                     TimeTz
//	Interval                   Interval
//	AbsTime                    AbsTime
//	RelTime                    RelTime
//	TimeSpan                   TimeSpan
//	Inet, Cidr                 netip.Prefix
//	MacAddr                    net.HardwareAddr
//	Bit, VarBit                BitString
//	Array                      ArrayPayload
//	OidVector                  []Oid
//	Money                      Money
//	UUID                       uuid.UUID
//	Complex                    complex128
type Datum struct {
	Kind  Kind
	Value any
	Null  bool
}

// Null returns a null Datum of the given Kind.
func Null(k Kind) Datum {
	return Datum{Kind: k, Null: true}
}

// String formats the Datum for trace output. It is not a round-trip
// format.
func (d Datum) String() string {
	if d.Null {
		return "null"
	}
	switch v := d.Value.(type) {
	case []byte:
		return fmt.Sprintf("%x", v)
	case string:
		return fmt.Sprintf("%q", v)
	default:
		return fmt.Sprintf("%v", d.Value)
	}
}

// Money is a currency amount in the smallest currency unit.
type Money int64

// pgEpochSecs is the Unix time of the PostgreSQL epoch,
// 2000-01-01 00:00:00 UTC. Timestamps and dates count from it.
const pgEpochSecs int64 = 946684800

// Timestamp is a timezone-naive timestamp, in microseconds relative to
// 2000-01-01 00:00:00.
type Timestamp int64

// TimestampFromTime converts t, read as UTC, to a Timestamp.
func TimestampFromTime(t time.Time) Timestamp {
	return Timestamp(t.Unix()*1_000_000 + int64(t.Nanosecond())/1_000 - pgEpochSecs*1_000_000)
}

// Time returns the timestamp as a UTC time.Time.
func (t Timestamp) Time() time.Time {
	micros := int64(t) + pgEpochSecs*1_000_000
	return time.Unix(floorDiv(micros, 1_000_000), mod(micros, 1_000_000)*1_000).UTC()
}

// TimestampTz is a timestamp with time zone. The value is an absolute
// instant in microseconds relative to 2000-01-01 00:00:00 UTC; the
// session zone it was entered in does not survive, so it hashes
// identically from any zone.
type TimestampTz int64

// TimestampTzFromTime converts an absolute instant to a TimestampTz.
func TimestampTzFromTime(t time.Time) TimestampTz {
	return TimestampTz(TimestampFromTime(t.UTC()))
}

// Time returns the instant as a UTC time.Time.
func (t TimestampTz) Time() time.Time {
	return Timestamp(t).Time()
}

// Date is a calendar date, in days relative to 2000-01-01. Dates before
// the epoch are negative.
type Date int32

// DateFromTime converts the calendar date of t, read as UTC, to a Date.
func DateFromTime(t time.Time) Date {
	return Date(floorDiv(t.Unix()-pgEpochSecs, 86400))
}

// Time returns midnight UTC on the date.
func (d Date) Time() time.Time {
	return time.Unix(int64(d)*86400+pgEpochSecs, 0).UTC()
}

// TimeOfDay is a time of day without zone, in microseconds since
// midnight.
type TimeOfDay int64

// TimeTz is a time of day with a fixed zone offset. ZoneSecs follows
// the POSIX sign convention: positive west of Greenwich, so 05:00-03
// carries ZoneSecs == 10800.
//
// Unlike timestamps, the zone is part of the value and of its hash:
// 12:00+00 and 09:00-03 name the same instant but hash differently.
// That mirrors the datatype's equality operator, which compares fields,
// so the hash-follows-equality contract still holds.
type TimeTz struct {
	Micros   int64
	ZoneSecs int32
}

// Interval is a span of time in the three independent units SQL
// intervals are stored in. Months never convert to days, nor days to
// hours, so '1 month' and '30 days' stay distinct values.
type Interval struct {
	Micros int64
	Days   int32
	Months int32
}

// AbsTime is the legacy absolute-time type: Unix seconds in an int32.
type AbsTime int32

// AbsTimeInvalid is the in-band marker for an invalid abstime or
// reltime value. All invalid values hash alike, regardless of type.
const AbsTimeInvalid = 0x7FFFFFFE

// RelTime is the legacy relative-time type: a span in whole seconds.
type RelTime int32

// TimeSpan is the legacy tinterval type, a pair of abstime endpoints.
// A span is invalid when Valid is unset or either endpoint is
// AbsTimeInvalid. Valid spans compare, and therefore hash, by length
// alone: [t, t+60] collides with [u, u+60] for any t and u.
type TimeSpan struct {
	Valid      bool
	Start, End AbsTime
}

// ItemPointer is a physical row address: heap block number and offset
// within the block.
type ItemPointer struct {
	Block  uint32
	Offset uint16
}

// BitString is a bit or varbit value. Bytes holds the bits packed
// MSB-first; Bits is the number of significant bits. Trailing pad bits
// in the last byte must be zero, which Parse and the workload generator
// guarantee and the canonicalizer re-masks rather than trusts.
type BitString struct {
	Bytes []byte
	Bits  int
}

// ArrayPayload is the serialized wire form of an array value. Arrays
// hash over this payload byte-for-byte, so producers must serialize
// equal arrays identically; the hash adds no element-level
// normalization of its own.
type ArrayPayload []byte

// Numeric is an arbitrary-precision decimal, plus the NaN flag the
// underlying decimal library does not model. NaN compares equal to NaN
// in SQL, so all NaNs hash alike.
type Numeric struct {
	NaN   bool
	Value *apd.Decimal
}

// ParseNumeric parses a decimal literal, accepting "NaN" in any case
// mix.
func ParseNumeric(s string) (Numeric, error) {
	if len(s) == 3 && (s[0] == 'n' || s[0] == 'N') && (s[1] == 'a' || s[1] == 'A') && (s[2] == 'n' || s[2] == 'N') {
		return Numeric{NaN: true}, nil
	}
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return Numeric{}, err
	}
	return Numeric{Value: d}, nil
}

// String implements fmt.Stringer.
func (n Numeric) String() string {
	if n.NaN {
		return "NaN"
	}
	return n.Value.Text('f')
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// mod returns the non-negative remainder of floorDiv.
func mod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}
