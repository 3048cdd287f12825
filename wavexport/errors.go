// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package wavexport

import "errors"

var (
	ErrNoChannels         = errors.New("signal has no channels")
	ErrInvalidSampleRate  = errors.New("sample rate must be a positive whole number of Hz")
	ErrMismatchedChannels = errors.New("channels have different lengths")
)
