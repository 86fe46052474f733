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

// Package sqltype defines the closed set of SQL datatypes whose values
// can be routed by the distribution hash, the canonical byte form of
// each of those values, and the equality operators whose joins can
// reuse the resulting row placement.
//
// The canonical byte form is a wire contract: it decides which worker
// segment a row lands on, so it must never drift between releases or
// between processes. Two values that compare equal under their SQL
// equality operator always canonicalize to the same bytes, even when
// their in-memory representations differ (signed-zero floats,
// trailing-blank strings, equal-but-differently-scaled decimals).
// Multi-byte fields are encoded little-endian throughout; see the
// hasher package documentation for the cluster-homogeneity assumption
// behind that choice.
package sqltype

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Kind identifies one of the datatypes understood by the distribution
// hash. The set is closed: supporting a new datatype means adding a
// Kind constant, a row in the canonicalizer dispatch table, and a
// catalog entry.
//
// Types that are not members collapse before lookup: a domain type uses
// the Kind of its base type, every enum type uses KindEnum, and every
// array type uses KindArray.
type Kind uint8

// The distribution hash understands exactly these datatypes.
const (
	KindInvalid Kind = iota

	KindBool
	KindInt16
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindNumeric
	KindChar
	KindBPChar
	KindText
	KindVarChar
	KindBytea
	KindName
	KindOid
	KindRegProc
	KindRegProcedure
	KindRegOper
	KindRegOperator
	KindRegClass
	KindRegType
	KindEnum
	KindItemPointer
	KindTimestamp
	KindTimestampTz
	KindDate
	KindTime
	KindTimeTz
	KindInterval
	KindAbsTime
	KindRelTime
	KindTimeSpan
	KindInet
	KindCidr
	KindMacAddr
	KindBit
	KindVarBit
	KindArray
	KindOidVector
	KindMoney
	KindUUID
	KindComplex

	kindMax // Must be last.
)

// kindNames maps each Kind to the name the catalog uses for it. The
// reverse mapping, plus aliases, is built by init.
var kindNames = map[Kind]string{
	KindBool:         "bool",
	KindInt16:        "int2",
	KindInt32:        "int4",
	KindInt64:        "int8",
	KindFloat32:      "float4",
	KindFloat64:      "float8",
	KindNumeric:      "numeric",
	KindChar:         "char",
	KindBPChar:       "bpchar",
	KindText:         "text",
	KindVarChar:      "varchar",
	KindBytea:        "bytea",
	KindName:         "name",
	KindOid:          "oid",
	KindRegProc:      "regproc",
	KindRegProcedure: "regprocedure",
	KindRegOper:      "regoper",
	KindRegOperator:  "regoperator",
	KindRegClass:     "regclass",
	KindRegType:      "regtype",
	KindEnum:         "anyenum",
	KindItemPointer:  "tid",
	KindTimestamp:    "timestamp",
	KindTimestampTz:  "timestamptz",
	KindDate:         "date",
	KindTime:         "time",
	KindTimeTz:       "timetz",
	KindInterval:     "interval",
	KindAbsTime:      "abstime",
	KindRelTime:      "reltime",
	KindTimeSpan:     "tinterval",
	KindInet:         "inet",
	KindCidr:         "cidr",
	KindMacAddr:      "macaddr",
	KindBit:          "bit",
	KindVarBit:       "varbit",
	KindArray:        "anyarray",
	KindOidVector:    "oidvector",
	KindMoney:        "money",
	KindUUID:         "uuid",
	KindComplex:      "complex",
}

// kindAliases accepts the long-form or ANSI spellings of the names
// above. Keys are pre-lowered.
var kindAliases = map[string]Kind{
	"boolean":                     KindBool,
	"smallint":                    KindInt16,
	"int":                         KindInt32,
	"integer":                     KindInt32,
	"bigint":                      KindInt64,
	"real":                        KindFloat32,
	"double":                      KindFloat64,
	"double precision":            KindFloat64,
	"decimal":                     KindNumeric,
	"character":                   KindBPChar,
	"character varying":           KindVarChar,
	"timestamp without time zone": KindTimestamp,
	"timestamp with time zone":    KindTimestampTz,
	"time without time zone":      KindTime,
	"time with time zone":         KindTimeTz,
	"bit varying":                 KindVarBit,
}

var kindByName map[string]Kind

func init() {
	kindByName = make(map[string]Kind, len(kindNames)+len(kindAliases))
	for k, n := range kindNames {
		kindByName[n] = k
	}
	for n, k := range kindAliases {
		kindByName[n] = k
	}
}

// String returns the catalog name of the Kind.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "invalid"
}

// Hashable reports whether values of the Kind can be fed to the
// distribution hash. It is true for every member of the closed set, and
// by extension for any array type (which collapses to KindArray), any
// enum type (KindEnum), and any domain type whose base Kind is
// hashable.
func (k Kind) Hashable() bool {
	return k > KindInvalid && k < kindMax
}

// ParseKind resolves a SQL type name, or one of its common aliases, to
// a Kind. Names are matched case-insensitively; quoted "char" resolves
// to the single-byte char type.
func ParseKind(name string) (Kind, error) {
	lowered := strings.ToLower(strings.TrimSpace(name))
	lowered = strings.Trim(lowered, `"`)
	if k, ok := kindByName[lowered]; ok {
		return k, nil
	}
	return KindInvalid, errors.Errorf("unknown type name %q", name)
}

// Kinds returns every hashable Kind, ordered by catalog name. Used by
// the catalog command and the workload generator.
func Kinds() []Kind {
	ret := make([]Kind, 0, len(kindNames))
	for k := range kindNames {
		ret = append(ret, k)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].String() < ret[j].String() })
	return ret
}

// Aliases returns the alternate spellings that ParseKind accepts for
// the Kind, sorted.
func Aliases(k Kind) []string {
	var ret []string
	for n, match := range kindAliases {
		if match == k {
			ret = append(ret, n)
		}
	}
	sort.Strings(ret)
	return ret
}
