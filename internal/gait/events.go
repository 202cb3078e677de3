// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gait

import "sort"

// finalContacts picks, for each stride minimum, the highest step peak
// before it and after the previous minimum. The first minimum has no lower
// bound. Minima without candidates yield no event.
func finalContacts(minima, stepPeaks []int, signalStep []float64) []int {
	fc := make([]int, 0, len(minima))
	lower := -1
	for _, m := range minima {
		best := -1
		for _, p := range stepPeaks {
			if p >= m {
				break
			}
			if p <= lower {
				continue
			}
			if best < 0 || signalStep[p] > signalStep[best] {
				best = p
			}
		}
		if best >= 0 {
			fc = append(fc, best)
		}
		lower = m
	}
	return fc
}

// upwardCrossings returns every k where x goes from below thr at k to
// above it at k+1. Samples exactly at thr break a crossing.
func upwardCrossings(x []float64, thr float64) []int {
	var out []int
	for k := 0; k+1 < len(x); k++ {
		if x[k] < thr && x[k+1] > thr {
			out = append(out, k)
		}
	}
	return out
}

// initialContacts takes, for each FC, the first crossing more than minDelay
// samples after it. The crossing must come before the next FC, except for
// the last two FCs which have no reliable successor. A crossing already
// claimed by an earlier FC is not emitted twice.
func initialContacts(fc, crossings []int, minDelay int) []int {
	ic := make([]int, 0, len(fc))
	for i, f := range fc {
		j := sort.SearchInts(crossings, f+minDelay+1)
		if j == len(crossings) {
			continue
		}
		c := crossings[j]
		if i < len(fc)-2 && c >= fc[i+1] {
			continue
		}
		if n := len(ic); n > 0 && c <= ic[n-1] {
			continue
		}
		ic = append(ic, c)
	}
	return ic
}
