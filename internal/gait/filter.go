// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gait

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ZeroPhaseFilter filters a signal forward and backward so the output has
// the input's length and no phase lag.
type ZeroPhaseFilter interface {
	LowPass(x []float64, cutoff, sampleRate float64) ([]float64, error)
	HighPass(x []float64, cutoff, sampleRate float64) ([]float64, error)
}

// Butterworth is a digital Butterworth IIR filter of the given order,
// designed by bilinear transform and applied with filtfilt semantics
// (odd extension at both ends, steady-state initial conditions).
type Butterworth struct {
	Order int
}

// LowPass implements ZeroPhaseFilter.
func (b Butterworth) LowPass(x []float64, cutoff, sampleRate float64) ([]float64, error) {
	num, den, err := b.Design(cutoff, sampleRate, false)
	if err != nil {
		return nil, err
	}
	return filtfilt(num, den, x)
}

// HighPass implements ZeroPhaseFilter.
func (b Butterworth) HighPass(x []float64, cutoff, sampleRate float64) ([]float64, error) {
	num, den, err := b.Design(cutoff, sampleRate, true)
	if err != nil {
		return nil, err
	}
	return filtfilt(num, den, x)
}

// Design returns numerator and denominator coefficients, both of length
// Order+1 with den[0] == 1.
func (b Butterworth) Design(cutoff, sampleRate float64, highPass bool) (num, den []float64, err error) {
	n := b.Order
	if n < 1 {
		return nil, nil, fmt.Errorf("%w: filter order %d", ErrInvalidInput, n)
	}
	nyquist := sampleRate / 2
	if !(cutoff > 0) || !(cutoff < nyquist) {
		return nil, nil, fmt.Errorf("%w: %.4f Hz with sampling rate %g Hz", ErrCutoffOutOfRange, cutoff, sampleRate)
	}

	// Analog prototype poles on the left half of the unit circle.
	poles := make([]complex128, n)
	for i := range poles {
		m := float64(-n + 1 + 2*i)
		poles[i] = -cmplx.Exp(complex(0, math.Pi*m/float64(2*n)))
	}

	// Prewarp against a normalised sampling rate of 2.
	const fs2 = 4.0
	warped := fs2 * math.Tan(math.Pi*(cutoff/nyquist)/2)

	var zeros []complex128
	var gain float64
	if highPass {
		prod := complex(1, 0)
		for i, p := range poles {
			prod *= -p
			poles[i] = complex(warped, 0) / p
		}
		zeros = make([]complex128, n)
		gain = real(1 / prod)
	} else {
		for i, p := range poles {
			poles[i] = p * complex(warped, 0)
		}
		gain = math.Pow(warped, float64(n))
	}

	// Bilinear transform; zeros at infinity map to -1.
	numProd, denProd := complex(1, 0), complex(1, 0)
	zd := make([]complex128, n)
	pd := make([]complex128, n)
	for i := range n {
		z := complex(-1, 0)
		if i < len(zeros) {
			z = zeros[i]
			numProd *= fs2 - z
			z = (fs2 + z) / (fs2 - z)
		}
		zd[i] = z
		p := poles[i]
		denProd *= fs2 - p
		pd[i] = (fs2 + p) / (fs2 - p)
	}
	k := gain * real(numProd/denProd)

	num = realPoly(zd)
	floats.Scale(k, num)
	den = realPoly(pd)
	return num, den, nil
}

// realPoly expands prod(x - r) and keeps the real parts.
func realPoly(roots []complex128) []float64 {
	c := make([]complex128, len(roots)+1)
	c[0] = 1
	for i, r := range roots {
		for j := i + 1; j > 0; j-- {
			c[j] -= r * c[j-1]
		}
	}
	out := make([]float64, len(c))
	for i, v := range c {
		out[i] = real(v)
	}
	return out
}

// filterPadLength is the number of samples reflected at each end by
// filtfilt for a filter of the given order.
func filterPadLength(order int) int {
	return 3 * (order + 1)
}

func filtfilt(b, a []float64, x []float64) ([]float64, error) {
	edge := 3 * max(len(a), len(b))
	if len(x) <= edge {
		return nil, fmt.Errorf("%w: %d samples, need more than %d", ErrSignalTooShort, len(x), edge)
	}
	zi, err := lfilterZI(b, a)
	if err != nil {
		return nil, err
	}

	ext := oddExtend(x, edge)
	z := make([]float64, len(zi))

	floats.ScaleTo(z, ext[0], zi)
	y := lfilter(b, a, ext, z)

	reverse(y)
	floats.ScaleTo(z, y[0], zi)
	y = lfilter(b, a, y, z)
	reverse(y)

	return y[edge : len(y)-edge], nil
}

// oddExtend reflects edge samples about each endpoint.
func oddExtend(x []float64, edge int) []float64 {
	n := len(x)
	ext := make([]float64, 0, n+2*edge)
	for i := edge; i >= 1; i-- {
		ext = append(ext, 2*x[0]-x[i])
	}
	ext = append(ext, x...)
	for i := n - 2; i >= n-1-edge; i-- {
		ext = append(ext, 2*x[n-1]-x[i])
	}
	return ext
}

// lfilter applies the filter in transposed direct form II starting from
// state z, which is overwritten.
func lfilter(b, a []float64, x, z []float64) []float64 {
	n := len(a)
	y := make([]float64, len(x))
	for i, xi := range x {
		yi := b[0]*xi + z[0]
		for j := 1; j < n-1; j++ {
			z[j-1] = b[j]*xi + z[j] - a[j]*yi
		}
		z[n-2] = b[n-1]*xi - a[n-1]*yi
		y[i] = yi
	}
	return y
}

// lfilterZI returns the state for a unit step response in steady state.
func lfilterZI(b, a []float64) ([]float64, error) {
	m := len(a) - 1
	if m < 1 || len(b) != len(a) || a[0] != 1 {
		return nil, fmt.Errorf("%w: filter coefficients b=%d a=%d", ErrInvalidInput, len(b), len(a))
	}
	A := mat.NewDense(m, m, nil)
	rhs := mat.NewVecDense(m, nil)
	for i := range m {
		A.Set(i, i, 1)
		A.Set(i, 0, A.At(i, 0)+a[i+1])
		if i+1 < m {
			A.Set(i, i+1, A.At(i, i+1)-1)
		}
		rhs.SetVec(i, b[i+1]-a[i+1]*b[0])
	}
	var zi mat.VecDense
	if err := zi.SolveVec(A, rhs); err != nil {
		return nil, fmt.Errorf("filter initial conditions: %w", err)
	}
	return zi.RawVector().Data, nil
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
