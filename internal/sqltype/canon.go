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
	"encoding/binary"
	"fmt"
	"math"
	"net"
	"net/netip"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Sentinel words stand in for values that have no bytes of their own.
// They are part of the wire contract: a row whose distribution column
// is null must land on the same segment from every process that ever
// hashes it, so these can never change.
const (
	// NullSentinel is fed to the hash in place of any null value,
	// regardless of type.
	NullSentinel uint32 = 0xF0F0F0F1
	// NaNSentinel is fed in place of a numeric NaN. SQL treats every
	// NaN as equal to every other, so they must all collide.
	NaNSentinel uint32 = 0xE0E0E0E1
	// InvalidTimeSentinel is fed in place of an invalid abstime,
	// reltime, or tinterval value.
	InvalidTimeSentinel uint32 = 0xD0D0D0D1
)

// An UnhashableTypeError reports an attempt to hash a datum whose Kind
// is outside the closed type set, which means the column could never
// have been a distribution key.
type UnhashableTypeError struct {
	Kind Kind
}

// Error implements error.
func (e *UnhashableTypeError) Error() string {
	return fmt.Sprintf("type %s is not hashable", e.Kind)
}

// An appendFunc serializes one non-null datum of a particular Kind onto
// buf. Implementations return buf unmodified alongside any error.
type appendFunc func(buf []byte, d Datum) ([]byte, error)

// appenders dispatches on Kind. Every hashable Kind has a row; adding a
// Kind without one is caught by TestDispatchComplete.
var appenders = [kindMax]appendFunc{
	KindBool:         appendBool,
	KindInt16:        appendInt16,
	KindInt32:        appendInt32,
	KindInt64:        appendInt64,
	KindFloat32:      appendFloat32,
	KindFloat64:      appendFloat64,
	KindNumeric:      appendNumeric,
	KindChar:         appendChar,
	KindBPChar:       appendString,
	KindText:         appendString,
	KindVarChar:      appendString,
	KindBytea:        appendBytea,
	KindName:         appendName,
	KindOid:          appendOidValue,
	KindRegProc:      appendOidValue,
	KindRegProcedure: appendOidValue,
	KindRegOper:      appendOidValue,
	KindRegOperator:  appendOidValue,
	KindRegClass:     appendOidValue,
	KindRegType:      appendOidValue,
	KindEnum:         appendOidValue,
	KindItemPointer:  appendItemPointer,
	KindTimestamp:    appendTimestamp,
	KindTimestampTz:  appendTimestampTz,
	KindDate:         appendDate,
	KindTime:         appendTimeOfDay,
	KindTimeTz:       appendTimeTz,
	KindInterval:     appendInterval,
	KindAbsTime:      appendAbsTime,
	KindRelTime:      appendRelTime,
	KindTimeSpan:     appendTimeSpan,
	KindInet:         appendPrefix,
	KindCidr:         appendPrefix,
	KindMacAddr:      appendMacAddr,
	KindBit:          appendBitString,
	KindVarBit:       appendBitString,
	KindArray:        appendArray,
	KindOidVector:    appendOidVector,
	KindMoney:        appendMoney,
	KindUUID:         appendUUID,
	KindComplex:      appendComplex,
}

// AppendCanonical appends the canonical byte form of d to buf and
// returns the extended slice. A null datum of any hashable Kind
// appends the null sentinel. The input buf is returned unmodified on
// error: an *UnhashableTypeError when d.Kind is outside the type set,
// or a value error when d.Value is not the Go type the Kind expects.
func AppendCanonical(buf []byte, d Datum) ([]byte, error) {
	if !d.Kind.Hashable() {
		return buf, errors.WithStack(&UnhashableTypeError{Kind: d.Kind})
	}
	if d.Null {
		return AppendNull(buf), nil
	}
	return appenders[d.Kind](buf, d)
}

// AppendNull appends the canonical form of a null value, which is the
// same for every type.
func AppendNull(buf []byte) []byte {
	return binary.LittleEndian.AppendUint32(buf, NullSentinel)
}

// valueErr reports a datum whose dynamic Go type does not match its
// Kind.
func valueErr(d Datum, want string) error {
	return errors.Errorf("%s datum holds %T, want %s", d.Kind, d.Value, want)
}

func appendBool(buf []byte, d Datum) ([]byte, error) {
	v, ok := d.Value.(bool)
	if !ok {
		return buf, valueErr(d, "bool")
	}
	if v {
		return append(buf, 1), nil
	}
	return append(buf, 0), nil
}

// appendWidened writes the common 8-byte form shared by every integer
// narrower than int8: the value sign-extends (or, for oids,
// zero-extends) to int64 first, so 7::int2, 7::int4 and 7::int8 all
// canonicalize identically and cross-width equality joins can share
// row placement.
func appendWidened(buf []byte, v int64) []byte {
	return binary.LittleEndian.AppendUint64(buf, uint64(v))
}

func appendInt16(buf []byte, d Datum) ([]byte, error) {
	v, ok := d.Value.(int16)
	if !ok {
		return buf, valueErr(d, "int16")
	}
	return appendWidened(buf, int64(v)), nil
}

func appendInt32(buf []byte, d Datum) ([]byte, error) {
	v, ok := d.Value.(int32)
	if !ok {
		return buf, valueErr(d, "int32")
	}
	return appendWidened(buf, int64(v)), nil
}

func appendInt64(buf []byte, d Datum) ([]byte, error) {
	v, ok := d.Value.(int64)
	if !ok {
		return buf, valueErr(d, "int64")
	}
	return appendWidened(buf, v), nil
}

func appendOidValue(buf []byte, d Datum) ([]byte, error) {
	v, ok := d.Value.(Oid)
	if !ok {
		return buf, valueErr(d, "sqltype.Oid")
	}
	// Zero-extend: oids are unsigned.
	return appendWidened(buf, int64(uint32(v))), nil
}

func appendFloat32(buf []byte, d Datum) ([]byte, error) {
	v, ok := d.Value.(float32)
	if !ok {
		return buf, valueErr(d, "float32")
	}
	if v == 0 {
		// Collapse -0 onto +0; they compare equal.
		v = 0
	}
	return binary.LittleEndian.AppendUint32(buf, math.Float32bits(v)), nil
}

func appendFloat64(buf []byte, d Datum) ([]byte, error) {
	v, ok := d.Value.(float64)
	if !ok {
		return buf, valueErr(d, "float64")
	}
	if v == 0 {
		v = 0
	}
	return binary.LittleEndian.AppendUint64(buf, math.Float64bits(v)), nil
}

// appendNumeric canonicalizes a decimal to its base-10000 significand
// digits, two bytes per digit, aligned on the decimal point. The sign,
// scale, and weight are all omitted: scale so that 1, 1.0, and 1.00
// collide as equality demands, and weight because leading and trailing
// zero digits are stripped instead. Stripping the weight is lossy
// across magnitudes (10000 and 0.0001 share the lone digit 1), an
// inherited quirk this format keeps for wire stability.
func appendNumeric(buf []byte, d Datum) ([]byte, error) {
	v, ok := d.Value.(Numeric)
	if !ok {
		return buf, valueErr(d, "sqltype.Numeric")
	}
	if v.NaN {
		return binary.LittleEndian.AppendUint32(buf, NaNSentinel), nil
	}
	if v.Value == nil {
		return buf, valueErr(d, "non-nil decimal")
	}
	if v.Value.Coeff.Sign() == 0 {
		// Zero has no digits at all, at any scale.
		return buf, nil
	}

	digits := v.Value.Coeff.String()
	// Number of digits left of the decimal point; may be negative for
	// values below one. Base-10000 digits align on the point, so the
	// first group is padded out to a multiple of four decimal digits.
	intd := len(digits) + int(v.Value.Exponent)
	lpad := (4 - ((intd%4)+4)%4) % 4
	ngroups := (lpad + len(digits) + 3) / 4

	groupAt := func(g int) uint16 {
		var val uint16
		for j := 0; j < 4; j++ {
			val *= 10
			if i := g*4 + j - lpad; i >= 0 && i < len(digits) {
				val += uint16(digits[i] - '0')
			}
		}
		return val
	}

	lo, hi := 0, ngroups
	for lo < hi && groupAt(lo) == 0 {
		lo++
	}
	for hi > lo && groupAt(hi-1) == 0 {
		hi--
	}
	for g := lo; g < hi; g++ {
		buf = binary.LittleEndian.AppendUint16(buf, groupAt(g))
	}
	return buf, nil
}

func appendChar(buf []byte, d Datum) ([]byte, error) {
	v, ok := d.Value.(byte)
	if !ok {
		return buf, valueErr(d, "byte")
	}
	return append(buf, v), nil
}

// trimBlanks drops trailing spaces, never going below one byte. A
// single space therefore keeps its byte while longer all-blank strings
// shrink to one, matching the equality rules of blank-padded text.
func trimBlanks(b []byte) []byte {
	for len(b) > 1 && b[len(b)-1] == ' ' {
		b = b[:len(b)-1]
	}
	return b
}

func appendString(buf []byte, d Datum) ([]byte, error) {
	v, ok := d.Value.(string)
	if !ok {
		return buf, valueErr(d, "string")
	}
	return append(buf, trimBlanks([]byte(v))...), nil
}

func appendBytea(buf []byte, d Datum) ([]byte, error) {
	v, ok := d.Value.([]byte)
	if !ok {
		return buf, valueErr(d, "[]byte")
	}
	// Binary strings keep trailing 0x20 bytes; they are data here.
	return append(buf, v...), nil
}

// appendName canonicalizes an identifier to the fixed 64-byte form
// names are stored in: truncated to 63 bytes and padded with NULs,
// then blank-trimmed like any other fixed-width string.
func appendName(buf []byte, d Datum) ([]byte, error) {
	v, ok := d.Value.(string)
	if !ok {
		return buf, valueErr(d, "string")
	}
	var name [64]byte
	copy(name[:63], v)
	return append(buf, trimBlanks(name[:])...), nil
}

// appendItemPointer lays the row address out as its three on-disk
// uint16 fields: the block number split high half first, then the
// offset.
func appendItemPointer(buf []byte, d Datum) ([]byte, error) {
	v, ok := d.Value.(ItemPointer)
	if !ok {
		return buf, valueErr(d, "sqltype.ItemPointer")
	}
	buf = binary.LittleEndian.AppendUint16(buf, uint16(v.Block>>16))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(v.Block))
	return binary.LittleEndian.AppendUint16(buf, v.Offset), nil
}

func appendTimestamp(buf []byte, d Datum) ([]byte, error) {
	v, ok := d.Value.(Timestamp)
	if !ok {
		return buf, valueErr(d, "sqltype.Timestamp")
	}
	return appendWidened(buf, int64(v)), nil
}

func appendTimestampTz(buf []byte, d Datum) ([]byte, error) {
	v, ok := d.Value.(TimestampTz)
	if !ok {
		return buf, valueErr(d, "sqltype.TimestampTz")
	}
	return appendWidened(buf, int64(v)), nil
}

func appendDate(buf []byte, d Datum) ([]byte, error) {
	v, ok := d.Value.(Date)
	if !ok {
		return buf, valueErr(d, "sqltype.Date")
	}
	return binary.LittleEndian.AppendUint32(buf, uint32(int32(v))), nil
}

func appendTimeOfDay(buf []byte, d Datum) ([]byte, error) {
	v, ok := d.Value.(TimeOfDay)
	if !ok {
		return buf, valueErr(d, "sqltype.TimeOfDay")
	}
	return appendWidened(buf, int64(v)), nil
}

// appendTimeTz writes the twelve meaningful bytes of a timetz value,
// micros then zone offset, leaving out the struct padding that would
// otherwise leak into the hash.
func appendTimeTz(buf []byte, d Datum) ([]byte, error) {
	v, ok := d.Value.(TimeTz)
	if !ok {
		return buf, valueErr(d, "sqltype.TimeTz")
	}
	buf = binary.LittleEndian.AppendUint64(buf, uint64(v.Micros))
	return binary.LittleEndian.AppendUint32(buf, uint32(v.ZoneSecs)), nil
}

// appendInterval writes micros and days. Months do not participate in
// the hash; the stored format has always covered only the first twelve
// bytes of the value, and changing that would reshuffle every interval
// key already placed.
func appendInterval(buf []byte, d Datum) ([]byte, error) {
	v, ok := d.Value.(Interval)
	if !ok {
		return buf, valueErr(d, "sqltype.Interval")
	}
	buf = binary.LittleEndian.AppendUint64(buf, uint64(v.Micros))
	return binary.LittleEndian.AppendUint32(buf, uint32(v.Days)), nil
}

func appendAbsTime(buf []byte, d Datum) ([]byte, error) {
	v, ok := d.Value.(AbsTime)
	if !ok {
		return buf, valueErr(d, "sqltype.AbsTime")
	}
	if v == AbsTimeInvalid {
		return binary.LittleEndian.AppendUint32(buf, InvalidTimeSentinel), nil
	}
	return binary.LittleEndian.AppendUint32(buf, uint32(int32(v))), nil
}

func appendRelTime(buf []byte, d Datum) ([]byte, error) {
	v, ok := d.Value.(RelTime)
	if !ok {
		return buf, valueErr(d, "sqltype.RelTime")
	}
	if v == AbsTimeInvalid {
		return binary.LittleEndian.AppendUint32(buf, InvalidTimeSentinel), nil
	}
	return binary.LittleEndian.AppendUint32(buf, uint32(int32(v))), nil
}

// appendTimeSpan hashes a valid span by its length alone, so spans of
// equal duration collide wherever they sit on the timeline. Invalid
// spans all take the sentinel.
func appendTimeSpan(buf []byte, d Datum) ([]byte, error) {
	v, ok := d.Value.(TimeSpan)
	if !ok {
		return buf, valueErr(d, "sqltype.TimeSpan")
	}
	if !v.Valid || v.Start == AbsTimeInvalid || v.End == AbsTimeInvalid {
		return binary.LittleEndian.AppendUint32(buf, InvalidTimeSentinel), nil
	}
	return binary.LittleEndian.AppendUint32(buf, uint32(int32(v.End)-int32(v.Start))), nil
}

// Address family bytes in the network key, after the on-disk inet
// format.
const (
	afInet  = 2
	afInet6 = 3
)

// appendPrefix builds the network key: family byte, masked bit count,
// then the address bytes at the family's full width. Inet and cidr
// values with the same address and mask share a key.
func appendPrefix(buf []byte, d Datum) ([]byte, error) {
	v, ok := d.Value.(netip.Prefix)
	if !ok {
		return buf, valueErr(d, "netip.Prefix")
	}
	if !v.IsValid() {
		return buf, errors.Errorf("%s datum holds an invalid prefix", d.Kind)
	}
	addr := v.Addr().Unmap()
	if addr.Is4() {
		a := addr.As4()
		buf = append(buf, afInet, byte(v.Bits()))
		return append(buf, a[:]...), nil
	}
	a := addr.As16()
	buf = append(buf, afInet6, byte(v.Bits()))
	return append(buf, a[:]...), nil
}

func appendMacAddr(buf []byte, d Datum) ([]byte, error) {
	v, ok := d.Value.(net.HardwareAddr)
	if !ok {
		return buf, valueErr(d, "net.HardwareAddr")
	}
	if len(v) != 6 {
		return buf, errors.Errorf("macaddr datum holds %d bytes, want 6", len(v))
	}
	return append(buf, v...), nil
}

// appendBitString writes the packed bit payload, re-masking the pad
// bits of the final byte to zero so equal bit strings canonicalize
// identically no matter how the producer left its padding.
func appendBitString(buf []byte, d Datum) ([]byte, error) {
	v, ok := d.Value.(BitString)
	if !ok {
		return buf, valueErr(d, "sqltype.BitString")
	}
	if v.Bits < 0 {
		return buf, errors.Errorf("bit string datum has negative length %d", v.Bits)
	}
	n := (v.Bits + 7) / 8
	if len(v.Bytes) < n {
		return buf, errors.Errorf("bit string datum has %d bytes for %d bits", len(v.Bytes), v.Bits)
	}
	if n == 0 {
		return buf, nil
	}
	buf = append(buf, v.Bytes[:n-1]...)
	if pad := n*8 - v.Bits; pad > 0 {
		return append(buf, v.Bytes[n-1]&(0xFF<<pad)), nil
	}
	return append(buf, v.Bytes[n-1]), nil
}

func appendArray(buf []byte, d Datum) ([]byte, error) {
	v, ok := d.Value.(ArrayPayload)
	if !ok {
		return buf, valueErr(d, "sqltype.ArrayPayload")
	}
	return append(buf, v...), nil
}

func appendOidVector(buf []byte, d Datum) ([]byte, error) {
	v, ok := d.Value.([]Oid)
	if !ok {
		return buf, valueErr(d, "[]sqltype.Oid")
	}
	for _, o := range v {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(o))
	}
	return buf, nil
}

func appendMoney(buf []byte, d Datum) ([]byte, error) {
	v, ok := d.Value.(Money)
	if !ok {
		return buf, valueErr(d, "sqltype.Money")
	}
	return appendWidened(buf, int64(v)), nil
}

func appendUUID(buf []byte, d Datum) ([]byte, error) {
	v, ok := d.Value.(uuid.UUID)
	if !ok {
		return buf, valueErr(d, "uuid.UUID")
	}
	return append(buf, v[:]...), nil
}

// appendComplex folds the signed zero of each part independently, then
// writes real and imaginary as consecutive float64 bit patterns.
func appendComplex(buf []byte, d Datum) ([]byte, error) {
	v, ok := d.Value.(complex128)
	if !ok {
		return buf, valueErr(d, "complex128")
	}
	re, im := real(v), imag(v)
	if re == 0 {
		re = 0
	}
	if im == 0 {
		im = 0
	}
	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(re))
	return binary.LittleEndian.AppendUint64(buf, math.Float64bits(im)), nil
}
