// Copyright 2015 Google Inc. All Rights Reserved.
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

package hull

import "time"

// NullClock is a frozen timeutil.Clock: it always reports the Unix
// epoch, with a resolution of one nanosecond. It is handed to every
// guest instead of the real wall clock so that two runs of the same
// module under the same inputs observe identical timestamps.
type NullClock struct{}

// Now always returns the Unix epoch.
func (NullClock) Now() time.Time {
	return time.Unix(0, 0).UTC()
}

// Resolution is the granularity NullClock reports to a guest asking
// clock_res_get for the resolution of CLOCK_REALTIME/CLOCK_MONOTONIC.
const Resolution = time.Nanosecond
