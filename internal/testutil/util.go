// Licensed to Elasticsearch B.V. under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. Elasticsearch B.V. licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// This file contains commonly-used utility functions for testing.

package testutil

import (
	"flag"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/njcx/auditlogd/entry"
)

var SeedFlag = flag.Int64("seed", 0, "Randomization seed")

// SeedPRNG returns a *rand.Rand seeded from -seed, or from the current
// time if unset, logging the seed so a failing stress test can be
// reproduced with `go test ... -seed <value>`.
func SeedPRNG(t *testing.T) *rand.Rand {
	seed := *SeedFlag
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	t.Logf("reproduce test with `go test ... -seed %v`", seed)
	return rand.New(rand.NewSource(seed))
}

// GenerateEntries builds numEntries audit entries with payloads of
// varying size, for stress-testing the queue and writer pool under
// realistic size distributions rather than a single fixed payload.
func GenerateEntries(rng *rand.Rand, numEntries, maxPayloadSize int) []entry.Entry {
	entries := make([]entry.Entry, numEntries)
	actions := []entry.Action{entry.ActionCreate, entry.ActionRead, entry.ActionUpdate, entry.ActionDelete}
	for i := 0; i < numEntries; i++ {
		size := 1 + rng.Intn(maxPayloadSize)
		payload := make([]byte, size)
		rng.Read(payload)
		key := []byte(fmt.Sprintf("key-%d", i))
		entries[i] = entry.New(actions[rng.Intn(len(actions))], key, payload)
	}
	return entries
}
