// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gait

import "sort"

// PeakOptions filters the local maxima returned by a PeakFinder.
type PeakOptions struct {
	Height    float64 // minimum peak value, applied when UseHeight is set
	UseHeight bool
	Distance  int // minimum index spacing between kept peaks; <= 1 disables
}

// PeakFinder returns the ascending indices of local maxima in x.
type PeakFinder interface {
	FindPeaks(x []float64, opts PeakOptions) []int
}

// PeakPicker finds strict local maxima. A flat top counts once, at its
// middle sample (rounded down). The first and last samples are never peaks.
type PeakPicker struct{}

// FindPeaks implements PeakFinder.
func (PeakPicker) FindPeaks(x []float64, opts PeakOptions) []int {
	peaks := localMaxima(x)
	if opts.UseHeight {
		kept := peaks[:0]
		for _, p := range peaks {
			if x[p] >= opts.Height {
				kept = append(kept, p)
			}
		}
		peaks = kept
	}
	if opts.Distance > 1 && len(peaks) > 1 {
		peaks = selectByDistance(x, peaks, opts.Distance)
	}
	return peaks
}

func localMaxima(x []float64) []int {
	var peaks []int
	last := len(x) - 1
	i := 1
	for i < last {
		if x[i-1] < x[i] {
			ahead := i + 1
			for ahead < last && x[ahead] == x[i] {
				ahead++
			}
			if x[ahead] < x[i] {
				peaks = append(peaks, (i+ahead-1)/2)
				i = ahead
				continue
			}
		}
		i++
	}
	return peaks
}

// selectByDistance keeps the highest peaks first and drops any neighbour
// closer than distance to a kept one.
func selectByDistance(x []float64, peaks []int, distance int) []int {
	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return x[peaks[order[i]]] < x[peaks[order[j]]] })

	keep := make([]bool, len(peaks))
	for i := range keep {
		keep[i] = true
	}
	for i := len(order) - 1; i >= 0; i-- {
		j := order[i]
		if !keep[j] {
			continue
		}
		for k := j - 1; k >= 0 && peaks[j]-peaks[k] < distance; k-- {
			keep[k] = false
		}
		for k := j + 1; k < len(peaks) && peaks[k]-peaks[j] < distance; k++ {
			keep[k] = false
		}
	}

	out := make([]int, 0, len(peaks))
	for i, p := range peaks {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}
