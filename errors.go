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

// FormatError is returned when the source is not an RHD file or its header is malformed.
type FormatError struct {
	Magic  uint32 // Magic number found, valid only when Reason is empty
	Reason string
}

func (e *FormatError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid RHD header: %s", e.Reason)
	}
	return fmt.Sprintf("unrecognized magic number 0x%08x, not an RHD file", e.Magic)
}

// UnsupportedVersionError is returned for a file version outside the known variants.
type UnsupportedVersionError struct {
	Version Version
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported RHD file version %s", e.Version)
}

// TruncatedFileError is returned when the data section does not hold a whole
// number of blocks. The complete blocks can still be decoded with WithTruncatedData.
type TruncatedFileError struct {
	CompleteBlocks int   // Number of complete blocks available
	LeftoverBytes  int64 // Bytes after the last complete block
}

func (e *TruncatedFileError) Error() string {
	return fmt.Sprintf("truncated data section: %d complete blocks followed by %d leftover bytes",
		e.CompleteBlocks, e.LeftoverBytes)
}

// UnknownChannelTypeError is returned for an enabled channel with an unrecognized signal type.
type UnknownChannelTypeError struct {
	Channel    string
	SignalType SignalType
}

func (e *UnknownChannelTypeError) Error() string {
	return fmt.Sprintf("channel %q has unknown signal type %d", e.Channel, int16(e.SignalType))
}
