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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimestampConversions(t *testing.T) {
	a := assert.New(t)

	epoch := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	a.Equal(Timestamp(0), TimestampFromTime(epoch))
	a.Equal(epoch, Timestamp(0).Time())

	later := time.Date(2024, 6, 15, 12, 30, 45, 123456000, time.UTC)
	ts := TimestampFromTime(later)
	a.Equal(later, ts.Time())

	// Pre-epoch values stay exact.
	earlier := time.Date(1999, 12, 31, 23, 59, 59, 999999000, time.UTC)
	a.Equal(Timestamp(-1), TimestampFromTime(earlier))
	a.Equal(earlier, Timestamp(-1).Time())

	// An instant entered in any zone converts to the same value.
	inZone := later.In(time.FixedZone("west", -3*3600))
	a.Equal(TimestampTz(ts), TimestampTzFromTime(inZone))
}

func TestDateConversions(t *testing.T) {
	a := assert.New(t)

	a.Equal(Date(0), DateFromTime(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)))
	a.Equal(Date(1), DateFromTime(time.Date(2000, 1, 2, 0, 0, 0, 0, time.UTC)))
	a.Equal(Date(-1), DateFromTime(time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC)))
	// Mid-day instants truncate to their date.
	a.Equal(Date(-1), DateFromTime(time.Date(1999, 12, 31, 23, 0, 0, 0, time.UTC)))
	a.Equal(Date(10958), DateFromTime(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))

	a.Equal(time.Date(2000, 1, 2, 0, 0, 0, 0, time.UTC), Date(1).Time())
}

func TestFloorDiv(t *testing.T) {
	a := assert.New(t)
	a.Equal(int64(2), floorDiv(5, 2))
	a.Equal(int64(-3), floorDiv(-5, 2))
	a.Equal(int64(-1), floorDiv(-1, 86400))
	a.Equal(int64(0), floorDiv(0, 86400))
	a.Equal(int64(1), mod(-5, 2))
	a.Equal(int64(86399), mod(-1, 86400))
}
