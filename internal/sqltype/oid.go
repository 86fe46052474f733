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

// Oid is a PostgreSQL object identifier. It doubles as the datum value
// type for KindOid and the reg* kinds, and for the elements of a
// KindOidVector datum.
type Oid uint32

// kindOids maps each Kind to its pg_type OID.
var kindOids = map[Kind]Oid{
	KindBool:         16,
	KindBytea:        17,
	KindChar:         18,
	KindName:         19,
	KindInt64:        20,
	KindInt16:        21,
	KindInt32:        23,
	KindRegProc:      24,
	KindText:         25,
	KindOid:          26,
	KindItemPointer:  27,
	KindOidVector:    30,
	KindComplex:      195,
	KindFloat32:      700,
	KindFloat64:      701,
	KindAbsTime:      702,
	KindRelTime:      703,
	KindTimeSpan:     704,
	KindMoney:        790,
	KindMacAddr:      829,
	KindInet:         869,
	KindCidr:         650,
	KindBPChar:       1042,
	KindVarChar:      1043,
	KindDate:         1082,
	KindTime:         1083,
	KindTimestamp:    1114,
	KindTimestampTz:  1184,
	KindInterval:     1186,
	KindTimeTz:       1266,
	KindBit:          1560,
	KindVarBit:       1562,
	KindNumeric:      1700,
	KindRegProcedure: 2202,
	KindRegOper:      2203,
	KindRegOperator:  2204,
	KindRegClass:     2205,
	KindRegType:      2206,
	KindArray:        2277,
	KindUUID:         2950,
	KindEnum:         3500,
}

// arrayOids lists the one-dimensional array types over the member
// kinds. Values of any of them collapse to KindArray: array hashing
// works over the serialized array payload, so the element type never
// needs a dispatch row of its own.
var arrayOids = []Oid{
	196,  // _complex
	651,  // _cidr
	791,  // _money
	1000, // _bool
	1001, // _bytea
	1002, // _char
	1003, // _name
	1005, // _int2
	1007, // _int4
	1008, // _regproc
	1009, // _text
	1010, // _tid
	1013, // _oidvector
	1014, // _bpchar
	1015, // _varchar
	1016, // _int8
	1021, // _float4
	1022, // _float8
	1023, // _abstime
	1024, // _reltime
	1025, // _tinterval
	1028, // _oid
	1040, // _macaddr
	1041, // _inet
	1115, // _timestamp
	1182, // _date
	1183, // _time
	1185, // _timestamptz
	1187, // _interval
	1231, // _numeric
	1270, // _timetz
	1561, // _bit
	1563, // _varbit
	2207, // _regprocedure
	2208, // _regoper
	2209, // _regoperator
	2210, // _regclass
	2211, // _regtype
	2951, // _uuid
}

var oidKinds map[Oid]Kind

func init() {
	oidKinds = make(map[Oid]Kind, len(kindOids)+len(arrayOids))
	for k, o := range kindOids {
		oidKinds[o] = k
	}
	for _, o := range arrayOids {
		oidKinds[o] = KindArray
	}
}

// TypeOid returns the pg_type OID of the Kind, or 0 if the Kind is not
// a member of the hashable set.
func (k Kind) TypeOid() Oid {
	return kindOids[k]
}

// KindForOid resolves a pg_type OID to the Kind that hashes values of
// that type. Array types resolve to KindArray and the anyenum
// pseudo-type to KindEnum. The second return is false for types outside
// the hashable set; such a type cannot serve as a distribution column.
func KindForOid(o Oid) (Kind, bool) {
	k, ok := oidKinds[o]
	return k, ok
}
