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

// Scale converts a raw sample to physical units: (raw - ZeroOffset) * UnitsPerBit.
type Scale struct {
	UnitsPerBit float64
	ZeroOffset  int32
	Unit        string
}

// Apply converts one raw sample.
func (s Scale) Apply(raw int32) float64 {
	return float64(raw-s.ZeroOffset) * s.UnitsPerBit
}

// Raw is the inverse of Apply, rounded to the nearest code. Values beyond
// the int32 range saturate and NaN maps to ZeroOffset.
func (s Scale) Raw(value float64) int32 {
	code := value / s.UnitsPerBit
	if math.IsNaN(code) {
		return s.ZeroOffset
	}
	code = math.Round(code) + float64(s.ZeroOffset)
	return int32(math.Max(math.MinInt32, math.Min(math.MaxInt32, code)))
}

var (
	amplifierScale     = Scale{UnitsPerBit: 0.195, ZeroOffset: 32768, Unit: "uV"}
	auxInputScale      = Scale{UnitsPerBit: 37.4e-6, Unit: "V"}
	supplyVoltageScale = Scale{UnitsPerBit: 74.8e-6, Unit: "V"}
	tempSensorScale    = Scale{UnitsPerBit: 0.01, Unit: "degC"}

	boardADCScales = map[BoardMode]Scale{
		BoardModeUnipolar:   {UnitsPerBit: 50.354e-6, Unit: "V"},
		BoardModeBipolar:    {UnitsPerBit: 152.59e-6, ZeroOffset: 32768, Unit: "V"},
		BoardModeBipolar10V: {UnitsPerBit: 312.5e-6, ZeroOffset: 32768, Unit: "V"},
	}
)

// ScaleFor returns the conversion for an analog signal type. Digital signal
// types have no scale and return false.
func ScaleFor(t SignalType, mode BoardMode) (Scale, bool) {
	switch t {
	case Amplifier:
		return amplifierScale, true
	case AuxInput:
		return auxInputScale, true
	case SupplyVoltage:
		return supplyVoltageScale, true
	case TempSensor:
		return tempSensorScale, true
	case BoardADC:
		if s, ok := boardADCScales[mode]; ok {
			return s, true
		}
		return boardADCScales[BoardModeUnipolar], true
	default:
		return Scale{}, false
	}
}
