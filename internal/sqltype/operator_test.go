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
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedistributable(t *testing.T) {
	a := assert.New(t)

	yes := []Operator{
		OpInt2Eq, OpInt4Eq, OpInt8Eq,
		OpInt24Eq, OpInt28Eq, OpInt42Eq, OpInt48Eq, OpInt82Eq, OpInt84Eq,
		OpFloat4Eq, OpFloat8Eq, OpNumericEq,
		OpCharEq, OpBPCharEq, OpTextEq, OpByteaEq, OpNameEq,
		OpOidEq, OpTidEq,
		OpTimestampEq, OpTimestampTzEq, OpDateEq, OpTimeEq, OpTimeTzEq,
		OpIntervalEq, OpAbsTimeEq, OpRelTimeEq, OpTimeSpanEq,
		OpInetEq, OpMacAddrEq, OpBitEq, OpVarBitEq,
		OpBoolEq, OpOidVectorEq, OpMoneyEq, OpUUIDEq, OpComplexEq,
	}
	for _, op := range yes {
		a.Truef(op.Redistributable(), "%s", op)
	}

	// Same-width float joins colocate but cross-width ones cannot:
	// the promoted operand's canonical bytes differ. Array equality is
	// elementwise, not bytewise.
	no := []Operator{OpArrayEq, OpFloat48Eq, OpFloat84Eq}
	for _, op := range no {
		a.Falsef(op.Redistributable(), "%s", op)
	}

	// Anything outside the catalog never colocates.
	a.False(Operator(0).Redistributable())
	a.False(Operator(9999).Redistributable())
	a.False(Operator(97).Redistributable()) // int48lt
}

func TestOperatorString(t *testing.T) {
	a := assert.New(t)
	a.Equal("int4eq", OpInt4Eq.String())
	a.Equal("texteq", OpTextEq.String())
	a.Equal("array_eq", OpArrayEq.String())
	a.Equal("network_eq", OpInetEq.String())
	a.Equal("operator(9999)", Operator(9999).String())
}

func TestOperators(t *testing.T) {
	a := assert.New(t)
	ops := Operators()
	a.Len(ops, 40)
	a.True(sort.SliceIsSorted(ops, func(i, j int) bool { return ops[i] < ops[j] }))
	a.Equal(OpInt48Eq, ops[0])
}
