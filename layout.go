// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package rhd

// Layout describes the header fields and block geometry of one format
// variant. It is resolved once from the file version and passed along as data.
type Layout struct {
	Name                string
	SamplesPerBlock     int  // Amplifier samples per data block
	AuxCommandWords     int  // 16-bit words per sample skipped after amplifier data
	HasTempSensorCount  bool // Header stores the temperature sensor channel count
	SignedTimestamps    bool // Timestamps are int32 rather than uint32
	HasBoardMode        bool // Header stores the evaluation board mode
	HasReferenceChannel bool // Header stores the hardware reference channel
	NotchApplied        bool // The recording software already applied the notch filter to saved data
}

// AuxSamplesPerBlock is the number of auxiliary input samples per block.
// Auxiliary inputs are sampled at a quarter of the amplifier rate.
func (l Layout) AuxSamplesPerBlock() int {
	return l.SamplesPerBlock / 4
}

var layouts = []struct {
	since  Version
	layout Layout
}{
	{Version{1, 0}, Layout{Name: "v1.0", SamplesPerBlock: 60}},
	{Version{1, 1}, Layout{Name: "v1.1", SamplesPerBlock: 60, HasTempSensorCount: true}},
	{Version{1, 2}, Layout{Name: "v1.2", SamplesPerBlock: 60, HasTempSensorCount: true, SignedTimestamps: true}},
	{Version{1, 3}, Layout{Name: "v1.3", SamplesPerBlock: 60, HasTempSensorCount: true, SignedTimestamps: true, HasBoardMode: true}},
	{Version{2, 0}, Layout{Name: "v2", SamplesPerBlock: 128, HasTempSensorCount: true, SignedTimestamps: true, HasBoardMode: true, HasReferenceChannel: true}},
	{Version{3, 0}, Layout{Name: "v3", SamplesPerBlock: 128, HasTempSensorCount: true, SignedTimestamps: true, HasBoardMode: true, HasReferenceChannel: true, NotchApplied: true}},
}

// maxMajorVersion is the newest major version this package understands.
const maxMajorVersion = 3

// LayoutFor resolves the format variant for a version.
func LayoutFor(v Version) (Layout, error) {
	if v.Major < 1 || v.Major > maxMajorVersion || v.Minor < 0 {
		return Layout{}, &UnsupportedVersionError{Version: v}
	}

	var l Layout
	for _, candidate := range layouts {
		if v.AtLeast(candidate.since.Major, candidate.since.Minor) {
			l = candidate.layout
		}
	}
	return l, nil
}
