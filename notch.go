// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package rhd

import "math"

// NotchBandwidth is the -3 dB bandwidth in Hz of the notch filter used by
// the acquisition software.
const NotchBandwidth = 10.0

// NotchFilter is a second-order IIR notch matching the acquisition software.
type NotchFilter struct {
	a  float64 // Gain normalisation
	b1 float64 // Feed-forward x[i-1] coefficient, b0 = b2 = 1
	a1 float64 // Feedback y[i-1] coefficient
	a2 float64 // Feedback y[i-2] coefficient
}

// NewNotchFilter returns a notch centred on notchHz for data sampled at sampleRate.
func NewNotchFilter(sampleRate, notchHz, bandwidth float64) NotchFilter {
	tStep := 1 / sampleRate
	fc := notchHz * tStep

	d := math.Exp(-2 * math.Pi * (bandwidth / 2) * tStep)
	b := (1 + d*d) * math.Cos(2*math.Pi*fc)

	return NotchFilter{
		a:  (1 + d*d) / 2,
		b1: -2 * math.Cos(2*math.Pi*fc),
		a1: -b,
		a2: d * d,
	}
}

// Apply filters samples in place. The delay line starts from the first two
// samples, which pass through unchanged.
func (f NotchFilter) Apply(samples []float64) {
	if len(samples) < 3 {
		return
	}

	x2, x1 := samples[0], samples[1]
	y2, y1 := samples[0], samples[1]
	for i := 2; i < len(samples); i++ {
		x := samples[i]
		y := f.a*x2 + f.a*f.b1*x1 + f.a*x - f.a2*y2 - f.a1*y1
		x2, x1 = x1, x
		y2, y1 = y1, y
		samples[i] = y
	}
}

// ApplyNotchFilter filters every channel of data independently, in place.
// NotchNone leaves the data untouched.
func ApplyNotchFilter(data [][]float64, sampleRate float64, mode NotchMode) {
	freq := mode.Frequency()
	if freq == 0 {
		return
	}

	f := NewNotchFilter(sampleRate, freq, NotchBandwidth)
	for _, ch := range data {
		f.Apply(ch)
	}
}
