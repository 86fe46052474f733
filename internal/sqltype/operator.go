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
	"sort"
)

// Operator is a pg_operator OID. The planner asks, per join predicate,
// whether rows already placed by the distribution hash can satisfy the
// predicate without moving; Redistributable answers that.
type Operator uint32

// Equality operators over the hashable types.
const (
	OpInt48Eq       Operator = 15
	OpBoolEq        Operator = 91
	OpCharEq        Operator = 92
	OpNameEq        Operator = 93
	OpInt2Eq        Operator = 94
	OpInt4Eq        Operator = 96
	OpTextEq        Operator = 98
	OpTidEq         Operator = 387
	OpInt8Eq        Operator = 410
	OpInt84Eq       Operator = 416
	OpInt24Eq       Operator = 532
	OpInt42Eq       Operator = 533
	OpAbsTimeEq     Operator = 560
	OpRelTimeEq     Operator = 566
	OpOidEq         Operator = 607
	OpFloat4Eq      Operator = 620
	OpOidVectorEq   Operator = 649
	OpFloat8Eq      Operator = 670
	OpTimeSpanEq    Operator = 811
	OpMoneyEq       Operator = 900
	OpBPCharEq      Operator = 1054
	OpArrayEq       Operator = 1070
	OpDateEq        Operator = 1093
	OpTimeEq        Operator = 1108
	OpFloat48Eq     Operator = 1120
	OpFloat84Eq     Operator = 1130
	OpInetEq        Operator = 1201
	OpMacAddrEq     Operator = 1220
	OpTimestampTzEq Operator = 1320
	OpIntervalEq    Operator = 1330
	OpTimeTzEq      Operator = 1550
	OpNumericEq     Operator = 1752
	OpBitEq         Operator = 1784
	OpVarBitEq      Operator = 1804
	OpInt28Eq       Operator = 1862
	OpInt82Eq       Operator = 1868
	OpByteaEq       Operator = 1955
	OpTimestampEq   Operator = 2060
	OpUUIDEq        Operator = 2972
	OpComplexEq     Operator = 3469
)

// operatorCatalog is the closed set of equality operators the
// distribution layer reasons about. Everything absent from the table is
// non-redistributable, same as the three listed false entries; they
// stay in the table so the catalog can display why joins on them
// repartition.
var operatorCatalog = map[Operator]struct {
	name            string
	redistributable bool
}{
	OpInt2Eq:        {"int2eq", true},
	OpInt4Eq:        {"int4eq", true},
	OpInt8Eq:        {"int8eq", true},
	OpInt24Eq:       {"int24eq", true},
	OpInt28Eq:       {"int28eq", true},
	OpInt42Eq:       {"int42eq", true},
	OpInt48Eq:       {"int48eq", true},
	OpInt82Eq:       {"int82eq", true},
	OpInt84Eq:       {"int84eq", true},
	OpFloat4Eq:      {"float4eq", true},
	OpFloat8Eq:      {"float8eq", true},
	OpNumericEq:     {"numeric_eq", true},
	OpCharEq:        {"chareq", true},
	OpBPCharEq:      {"bpchareq", true},
	OpTextEq:        {"texteq", true},
	OpByteaEq:       {"byteaeq", true},
	OpNameEq:        {"nameeq", true},
	OpOidEq:         {"oideq", true},
	OpTidEq:         {"tideq", true},
	OpTimestampEq:   {"timestamp_eq", true},
	OpTimestampTzEq: {"timestamptz_eq", true},
	OpDateEq:        {"date_eq", true},
	OpTimeEq:        {"time_eq", true},
	OpTimeTzEq:      {"timetz_eq", true},
	OpIntervalEq:    {"interval_eq", true},
	OpAbsTimeEq:     {"abstimeeq", true},
	OpRelTimeEq:     {"reltimeeq", true},
	OpTimeSpanEq:    {"tintervaleq", true},
	OpInetEq:        {"network_eq", true},
	OpMacAddrEq:     {"macaddr_eq", true},
	OpBitEq:         {"biteq", true},
	OpVarBitEq:      {"varbiteq", true},
	OpBoolEq:        {"booleq", true},
	OpOidVectorEq:   {"oidvectoreq", true},
	OpMoneyEq:       {"cash_eq", true},
	OpUUIDEq:        {"uuid_eq", true},
	OpComplexEq:     {"complex_eq", true},

	// Array equality walks elements with type-specific semantics the
	// byte-level hash cannot reproduce, and the cross-width float
	// comparisons promote float4 to float8, whose canonical bytes
	// differ.
	OpArrayEq:   {"array_eq", false},
	OpFloat48Eq: {"float48eq", false},
	OpFloat84Eq: {"float84eq", false},
}

// String returns the pg_proc name of a cataloged operator, or the
// numeric OID otherwise.
func (o Operator) String() string {
	if ent, ok := operatorCatalog[o]; ok {
		return ent.name
	}
	return fmt.Sprintf("operator(%d)", uint32(o))
}

// Redistributable reports whether a join predicate using this operator
// can be satisfied by hash-placed rows without repartitioning. Unknown
// operators are conservatively non-redistributable.
func (o Operator) Redistributable() bool {
	return operatorCatalog[o].redistributable
}

// Operators returns the cataloged operators in OID order.
func Operators() []Operator {
	ret := make([]Operator, 0, len(operatorCatalog))
	for o := range operatorCatalog {
		ret = append(ret, o)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}
