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
	"encoding/hex"
	"net"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Parse converts the text form of a value to a Datum of the given
// Kind. It accepts the common literal shapes for each type, not the
// full SQL input grammar. Parse never produces a null Datum; SQL null
// has no text form, so callers represent it out of band.
func Parse(k Kind, s string) (Datum, error) {
	v, err := parseValue(k, s)
	if err != nil {
		return Datum{}, errors.Wrapf(err, "invalid %s literal %q", k, s)
	}
	return Datum{Kind: k, Value: v}, nil
}

func parseValue(k Kind, s string) (any, error) {
	switch k {
	case KindBool:
		return parseBool(s)
	case KindInt16:
		v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 16)
		return int16(v), err
	case KindInt32:
		v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
		return int32(v), err
	case KindInt64:
		return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	case KindFloat32:
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
		return float32(v), err
	case KindFloat64:
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	case KindNumeric:
		return ParseNumeric(strings.TrimSpace(s))
	case KindChar:
		if s == "" {
			return nil, errors.New("empty string")
		}
		// Like the input converter, excess characters are dropped.
		return s[0], nil
	case KindBPChar, KindText, KindVarChar, KindName:
		return s, nil
	case KindBytea:
		return parseBytes(s)
	case KindOid, KindRegProc, KindRegProcedure, KindRegOper,
		KindRegOperator, KindRegClass, KindRegType, KindEnum:
		v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
		return Oid(v), err
	case KindItemPointer:
		return parseItemPointer(s)
	case KindTimestamp:
		t, err := parseTimeAny(s, timestampLayouts)
		if err != nil {
			return nil, err
		}
		return TimestampFromTime(t), nil
	case KindTimestampTz:
		t, err := parseTimeAny(s, timestampTzLayouts)
		if err != nil {
			return nil, err
		}
		return TimestampTzFromTime(t), nil
	case KindDate:
		t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		return DateFromTime(t), nil
	case KindTime:
		t, err := parseTimeAny(s, timeLayouts)
		if err != nil {
			return nil, err
		}
		return TimeOfDay(clockMicros(t)), nil
	case KindTimeTz:
		return parseTimeTz(s)
	case KindInterval:
		return parseInterval(s)
	case KindAbsTime:
		return parseAbsTime(s)
	case KindRelTime:
		if strings.EqualFold(strings.TrimSpace(s), "invalid") {
			return RelTime(AbsTimeInvalid), nil
		}
		v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
		return RelTime(v), err
	case KindTimeSpan:
		return parseTimeSpan(s)
	case KindInet, KindCidr:
		return parsePrefix(s)
	case KindMacAddr:
		hw, err := net.ParseMAC(strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		if len(hw) != 6 {
			return nil, errors.Errorf("%d-byte address, want 6", len(hw))
		}
		return hw, nil
	case KindBit, KindVarBit:
		return parseBits(s)
	case KindArray:
		b, err := parseBytes(s)
		if err != nil {
			return nil, err
		}
		return ArrayPayload(b), nil
	case KindOidVector:
		return parseOidVector(s)
	case KindMoney:
		return parseMoney(s)
	case KindUUID:
		return uuid.Parse(strings.TrimSpace(s))
	case KindComplex:
		return strconv.ParseComplex(strings.TrimSpace(s), 128)
	default:
		return nil, errors.WithStack(&UnhashableTypeError{Kind: k})
	}
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "t", "true", "yes", "on", "1":
		return true, nil
	case "f", "false", "no", "off", "0":
		return false, nil
	}
	return false, errors.New("not a boolean")
}

// parseBytes reads the hex form when the \x prefix is present and the
// raw bytes of the string otherwise.
func parseBytes(s string) ([]byte, error) {
	if strings.HasPrefix(s, `\x`) {
		return hex.DecodeString(s[2:])
	}
	return []byte(s), nil
}

func parseItemPointer(s string) (ItemPointer, error) {
	t := strings.TrimSpace(s)
	t = strings.TrimPrefix(t, "(")
	t = strings.TrimSuffix(t, ")")
	blockStr, offStr, ok := strings.Cut(t, ",")
	if !ok {
		return ItemPointer{}, errors.New("want (block,offset)")
	}
	block, err := strconv.ParseUint(strings.TrimSpace(blockStr), 10, 32)
	if err != nil {
		return ItemPointer{}, err
	}
	off, err := strconv.ParseUint(strings.TrimSpace(offStr), 10, 16)
	if err != nil {
		return ItemPointer{}, err
	}
	return ItemPointer{Block: uint32(block), Offset: uint16(off)}, nil
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

var timestampTzLayouts = []string{
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

var timeLayouts = []string{
	"15:04:05.999999999",
	"15:04",
}

var timeTzLayouts = []string{
	"15:04:05.999999999Z07:00",
	"15:04:05.999999999Z07",
	"15:04Z07:00",
	"15:04Z07",
}

func parseTimeAny(s string, layouts []string) (time.Time, error) {
	t := strings.TrimSpace(s)
	for _, l := range layouts {
		if parsed, err := time.Parse(l, t); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, errors.Errorf("unrecognized time syntax")
}

// clockMicros returns the time-of-day component in microseconds.
func clockMicros(t time.Time) int64 {
	h, m, s := t.Clock()
	return (int64(h)*3600+int64(m)*60+int64(s))*1_000_000 + int64(t.Nanosecond())/1_000
}

func parseTimeTz(s string) (TimeTz, error) {
	t, err := parseTimeAny(s, timeTzLayouts)
	if err != nil {
		return TimeTz{}, err
	}
	// Go reports the offset in seconds east of UTC; the stored zone
	// counts seconds west.
	_, east := t.Zone()
	return TimeTz{Micros: clockMicros(t), ZoneSecs: int32(-east)}, nil
}

// parseInterval reads the verbose interval form: any mix of
// "N year(s)", "N mon(s)", "N day(s)", "N hour(s)", "N min(s)",
// "N sec(s)" terms plus an optional trailing [-]HH:MM:SS[.ffffff]
// clock.
func parseInterval(s string) (Interval, error) {
	var ret Interval
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ret, errors.New("empty interval")
	}
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		if strings.Contains(f, ":") {
			if i != len(fields)-1 {
				return ret, errors.Errorf("clock part %q must come last", f)
			}
			micros, err := parseClock(f)
			if err != nil {
				return ret, err
			}
			ret.Micros += micros
			break
		}
		if i+1 >= len(fields) {
			return ret, errors.Errorf("number %q has no unit", f)
		}
		n, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return ret, err
		}
		unit := strings.ToLower(fields[i+1])
		if unit != "us" {
			unit = strings.TrimSuffix(unit, "s")
		}
		i++
		switch unit {
		case "year", "yr", "y":
			ret.Months += int32(n) * 12
		case "month", "mon":
			ret.Months += int32(n)
		case "week", "w":
			ret.Days += int32(n) * 7
		case "day", "d":
			ret.Days += int32(n)
		case "hour", "hr", "h":
			ret.Micros += n * 3_600_000_000
		case "minute", "min", "m":
			ret.Micros += n * 60_000_000
		case "second", "sec":
			ret.Micros += n * 1_000_000
		case "microsecond", "us":
			ret.Micros += n
		default:
			return ret, errors.Errorf("unknown unit %q", fields[i])
		}
	}
	return ret, nil
}

// parseClock reads [-]HH:MM:SS[.ffffff] into microseconds.
func parseClock(s string) (int64, error) {
	neg := strings.HasPrefix(s, "-")
	t, err := parseTimeAny(strings.TrimPrefix(s, "-"), timeLayouts)
	if err != nil {
		return 0, err
	}
	micros := clockMicros(t)
	if neg {
		micros = -micros
	}
	return micros, nil
}

// parseAbsTime accepts the word "invalid", raw Unix seconds, or a
// timestamp literal.
func parseAbsTime(s string) (AbsTime, error) {
	t := strings.TrimSpace(s)
	if strings.EqualFold(t, "invalid") {
		return AbsTime(AbsTimeInvalid), nil
	}
	if v, err := strconv.ParseInt(t, 10, 32); err == nil {
		return AbsTime(v), nil
	}
	parsed, err := parseTimeAny(t, timestampTzLayouts)
	if err != nil {
		return 0, err
	}
	secs := parsed.Unix()
	if secs != int64(int32(secs)) {
		return 0, errors.Errorf("out of abstime range")
	}
	return AbsTime(secs), nil
}

// parseTimeSpan reads ["start","end"] or start,end where each endpoint
// is an abstime literal. The bare word "invalid" is the invalid span.
func parseTimeSpan(s string) (TimeSpan, error) {
	t := strings.TrimSpace(s)
	if strings.EqualFold(t, "invalid") {
		return TimeSpan{}, nil
	}
	t = strings.TrimPrefix(t, "[")
	t = strings.TrimSuffix(t, "]")
	startStr, endStr, ok := strings.Cut(t, ",")
	if !ok {
		return TimeSpan{}, errors.New("want start,end")
	}
	start, err := parseAbsTime(strings.Trim(startStr, ` "`))
	if err != nil {
		return TimeSpan{}, err
	}
	end, err := parseAbsTime(strings.Trim(endStr, ` "`))
	if err != nil {
		return TimeSpan{}, err
	}
	return TimeSpan{Valid: true, Start: start, End: end}, nil
}

// parsePrefix reads CIDR notation, or a bare address as a full-width
// prefix.
func parsePrefix(s string) (netip.Prefix, error) {
	t := strings.TrimSpace(s)
	if p, err := netip.ParsePrefix(t); err == nil {
		return netip.PrefixFrom(p.Addr().Unmap(), p.Bits()), nil
	}
	addr, err := netip.ParseAddr(t)
	if err != nil {
		return netip.Prefix{}, err
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// parseBits reads a string of 0 and 1 characters, with or without the
// B'...' wrapper, into an MSB-first packed bit string.
func parseBits(s string) (BitString, error) {
	t := strings.TrimSpace(s)
	if len(t) >= 3 && (t[0] == 'b' || t[0] == 'B') && t[1] == '\'' && t[len(t)-1] == '\'' {
		t = t[2 : len(t)-1]
	}
	ret := BitString{Bits: len(t)}
	var cur byte
	for i := 0; i < len(t); i++ {
		cur <<= 1
		switch t[i] {
		case '1':
			cur |= 1
		case '0':
		default:
			return BitString{}, errors.Errorf("bad bit %q", t[i])
		}
		if i%8 == 7 {
			ret.Bytes = append(ret.Bytes, cur)
			cur = 0
		}
	}
	if pad := len(t) % 8; pad != 0 {
		ret.Bytes = append(ret.Bytes, cur<<(8-pad))
	}
	return ret, nil
}

func parseOidVector(s string) ([]Oid, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ','
	})
	ret := make([]Oid, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			return nil, err
		}
		ret = append(ret, Oid(v))
	}
	return ret, nil
}

// parseMoney reads an amount with optional currency sign and group
// separators into the smallest currency unit, rounding half away from
// zero past two fractional digits.
func parseMoney(s string) (Money, error) {
	t := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	neg := strings.HasPrefix(t, "-")
	t = strings.TrimPrefix(t, "-")
	t = strings.TrimPrefix(t, "$")
	intPart, fracPart, _ := strings.Cut(t, ".")
	if intPart == "" && fracPart == "" {
		return 0, errors.New("empty amount")
	}
	var units int64
	if intPart != "" {
		v, err := strconv.ParseInt(intPart, 10, 64)
		if err != nil {
			return 0, err
		}
		units = v
	}
	var cents int64
	for i := 0; i < len(fracPart); i++ {
		d := fracPart[i]
		if d < '0' || d > '9' {
			return 0, errors.Errorf("bad digit %q", d)
		}
		switch {
		case i == 0:
			cents += int64(d-'0') * 10
		case i == 1:
			cents += int64(d - '0')
		case i == 2 && d >= '5':
			cents++
		}
	}
	total := units*100 + cents
	if neg {
		total = -total
	}
	return Money(total), nil
}
