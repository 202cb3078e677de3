// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gait

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// strideMinima returns the local minima of the stride-band signal.
func strideMinima(signalStride []float64, finder PeakFinder) []int {
	neg := make([]float64, len(signalStride))
	for i, v := range signalStride {
		neg[i] = -v
	}
	return finder.FindPeaks(neg, PeakOptions{})
}

// closePairs returns every i where minima[i+1] follows minima[i] by fewer
// than minGap samples.
func closePairs(minima []int, minGap int) []int {
	var pairs []int
	for i := 0; i+1 < len(minima); i++ {
		if minima[i+1]-minima[i] < minGap {
			pairs = append(pairs, i)
		}
	}
	return pairs
}

// mergeMinima resolves each close pair once, against the original minima,
// by dropping the minimum that bounds the quieter stretch of the high-pass
// signal hf: the interval between the two, or an equally long interval
// after the second.
func mergeMinima(minima, pairs []int, hf []float64) ([]int, error) {
	drop := make(map[int]bool, len(pairs))
	for _, i := range pairs {
		m1, m2 := minima[i], minima[i+1]
		end := m2 + (m2 - m1)
		if end > len(hf) {
			return nil, fmt.Errorf("%w: minima %d and %d need samples up to %d, signal has %d",
				ErrMergeWindowOutOfRange, m1, m2, end, len(hf))
		}
		between := stat.PopVariance(hf[m1:m2], nil)
		after := stat.PopVariance(hf[m2:end], nil)
		if between < after {
			drop[m1] = true
		} else {
			drop[m2] = true
		}
	}

	kept := make([]int, 0, len(minima))
	for _, m := range minima {
		if !drop[m] {
			kept = append(kept, m)
		}
	}
	return kept, nil
}
