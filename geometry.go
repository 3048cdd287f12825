// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package rhd

import "fmt"

// Geometry is the shape of the data section.
type Geometry struct {
	BlockSize       int64 // Bytes per data block
	NumBlocks       int   // Complete blocks in the data section
	LeftoverBytes   int64 // Bytes after the last complete block
	SamplesPerBlock int
}

// HeaderOnly reports whether the file holds no data blocks at all. This is
// how the one-file-per-signal-type and one-file-per-channel storage modes
// save their .rhd file.
func (g Geometry) HeaderOnly() bool {
	return g.NumBlocks == 0 && g.LeftoverBytes == 0
}

// NumSamples returns the amplifier sample count across all complete blocks.
func (g Geometry) NumSamples() int {
	return g.NumBlocks * g.SamplesPerBlock
}

// BlockSize returns the number of bytes in one data block.
func (hdr *Header) BlockSize() int64 {
	n := int64(hdr.Layout.SamplesPerBlock)
	counts := hdr.Channels.Counts()

	// Timestamps.
	size := n * 4
	size += n * 2 * int64(counts.Amplifier)
	size += n * 2 * int64(hdr.Layout.AuxCommandWords)
	size += int64(hdr.Layout.AuxSamplesPerBlock()) * 2 * int64(counts.AuxInput)
	size += 2 * int64(counts.SupplyVoltage)
	size += 2 * int64(counts.TempSensor)
	size += n * 2 * int64(counts.BoardADC)
	// All digital lines share one 16-bit word per sample.
	if counts.BoardDigIn > 0 {
		size += n * 2
	}
	if counts.BoardDigOut > 0 {
		size += n * 2
	}
	return size
}

// ComputeGeometry derives the block count from the bytes following the
// header. A data section that is not a whole number of blocks returns the
// geometry of the complete blocks together with a *TruncatedFileError.
func ComputeGeometry(hdr *Header, remaining int64) (Geometry, error) {
	if remaining < 0 {
		return Geometry{}, fmt.Errorf("negative data section length %d", remaining)
	}

	g := Geometry{
		BlockSize:       hdr.BlockSize(),
		SamplesPerBlock: hdr.Layout.SamplesPerBlock,
	}
	g.NumBlocks = int(remaining / g.BlockSize)
	g.LeftoverBytes = remaining % g.BlockSize

	if g.LeftoverBytes != 0 {
		return g, &TruncatedFileError{CompleteBlocks: g.NumBlocks, LeftoverBytes: g.LeftoverBytes}
	}
	return g, nil
}
