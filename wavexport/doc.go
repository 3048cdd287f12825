// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package wavexport writes decoded analog signals as 16-bit PCM WAV files,
// one WAV channel per recording channel.
//
// Samples are converted back to the device's native codes, so amplifier data
// exported with its own scale is bit-exact with the raw recording.
package wavexport
