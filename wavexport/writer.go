// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package wavexport

import (
	"fmt"
	"io"
	"math"

	"github.com/OpenPSG/rhd"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	bitDepth    = 16
	pcmFormat   = 1
	midScale    = 32768
	chunkFrames = 4096
	pcmMax      = math.MaxInt16
	pcmMin      = math.MinInt16
)

// Write encodes the channels of sig as a WAV file. scale converts the
// physical values back to device codes; codes are centred on mid-scale and
// clipped to the 16-bit range.
func Write(w io.WriteSeeker, sig rhd.AnalogSignal, sampleRate float64, scale rhd.Scale) error {
	numChannels := len(sig.Data)
	if numChannels == 0 {
		return ErrNoChannels
	}
	rate := int(math.Round(sampleRate))
	if rate <= 0 || float64(rate) != sampleRate {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRate, sampleRate)
	}

	frames := len(sig.Data[0])
	for _, ch := range sig.Data[1:] {
		if len(ch) != frames {
			return ErrMismatchedChannels
		}
	}

	enc := wav.NewEncoder(w, rate, bitDepth, numChannels, pcmFormat)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: numChannels, SampleRate: rate},
		SourceBitDepth: bitDepth,
		Data:           make([]int, min(frames, chunkFrames)*numChannels),
	}

	for start := 0; start < frames; start += chunkFrames {
		end := min(start+chunkFrames, frames)
		buf.Data = buf.Data[:(end-start)*numChannels]

		for i := start; i < end; i++ {
			frame := buf.Data[(i-start)*numChannels:]
			for ch := range sig.Data {
				frame[ch] = toPCM(sig.Data[ch][i], scale)
			}
		}

		if err := enc.Write(buf); err != nil {
			return fmt.Errorf("error writing samples: %w", err)
		}
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("error finalizing wav: %w", err)
	}
	return nil
}

// WriteAmplifier encodes the amplifier channels of res at their native resolution.
func WriteAmplifier(w io.WriteSeeker, res *rhd.Result) error {
	scale, _ := rhd.ScaleFor(rhd.Amplifier, res.Header.BoardMode)
	return Write(w, res.Amplifier, res.Header.Frequency.AmplifierSampleRate, scale)
}

func toPCM(v float64, scale rhd.Scale) int {
	code := int64(scale.Raw(v)) - midScale
	return int(max(pcmMin, min(pcmMax, code)))
}
