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

// 32-bit FNV-1 parameters. The basis is the accumulator's initial
// value; the prime is the per-octet multiplier. Both are fixed by the
// wire contract.
const (
	fnvBasis uint32 = 0x811C9DC5
	fnvPrime uint32 = 0x01000193
)

// fnv1 folds buf into the accumulator one octet at a time: multiply by
// the prime mod 2^32, then xor the octet. The multiply is spelled as
// shifts and adds of the prime's set bits, which the reference
// implementation prefers on hardware with slow multipliers; TestFNV1
// pins it to the plain multiply.
func fnv1(hval uint32, buf []byte) uint32 {
	for _, b := range buf {
		hval += (hval << 1) + (hval << 4) + (hval << 7) + (hval << 8) + (hval << 24)
		hval ^= uint32(b)
	}
	return hval
}
