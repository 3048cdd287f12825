// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package rhd

import "go.uber.org/zap"

type options struct {
	logger         *zap.Logger
	notch          NotchMode
	hardwareNotch  bool
	allowTruncated bool
}

// Option configures Decode.
type Option func(*options)

func defaultOptions() *options {
	return &options{logger: zap.NewNop()}
}

// WithLogger sets the logger used to report the header summary and progress.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithNotchFilter applies the given notch filter to the amplifier data.
func WithNotchFilter(mode NotchMode) Option {
	return func(o *options) {
		o.notch = mode
		o.hardwareNotch = false
	}
}

// WithHardwareNotchFilter applies the notch filter recorded in the header,
// unless the recording software already applied it to the saved data.
func WithHardwareNotchFilter() Option {
	return func(o *options) {
		o.hardwareNotch = true
	}
}

// WithTruncatedData decodes the complete blocks of a truncated file instead
// of failing. Result.Truncation reports what was left over.
func WithTruncatedData() Option {
	return func(o *options) {
		o.allowTruncated = true
	}
}

// notchFor resolves the filter to apply for hdr.
func (o *options) notchFor(hdr *Header) NotchMode {
	if !o.hardwareNotch {
		return o.notch
	}
	if hdr.Layout.NotchApplied {
		return NotchNone
	}
	return hdr.NotchFilterMode
}
