// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gait

import "testing"

func TestPeakPicker(t *testing.T) {
	x := []float64{0, 1, 0, 2, 2, 2, 0, 3, 1}

	cases := []struct {
		name string
		x    []float64
		opts PeakOptions
		want []int
	}{
		{"local maxima with plateau middle", x, PeakOptions{}, []int{1, 4, 7}},
		{"height filter", x, PeakOptions{Height: 1.5, UseHeight: true}, []int{4, 7}},
		{"height is inclusive", x, PeakOptions{Height: 2, UseHeight: true}, []int{4, 7}},
		{"distance keeps the highest", x, PeakOptions{Height: 1.5, UseHeight: true, Distance: 4}, []int{7}},
		{"distance of one keeps all", x, PeakOptions{Distance: 1}, []int{1, 4, 7}},
		{"even plateau rounds down", []float64{0, 5, 5, 0}, PeakOptions{}, []int{1}},
		{"edges are never peaks", []float64{3, 1, 2, 1, 3}, PeakOptions{}, []int{2}},
		{"plateau reaching the end", []float64{0, 2, 2, 2}, PeakOptions{}, nil},
		{"monotonic", []float64{1, 2, 3, 4}, PeakOptions{}, nil},
		{"too short", []float64{1, 2}, PeakOptions{}, nil},
		{"equal heights keep the later", []float64{0, 1, 0, 1, 0}, PeakOptions{Distance: 3}, []int{3}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assertInts(t, PeakPicker{}.FindPeaks(c.x, c.opts), c.want)
		})
	}
}
