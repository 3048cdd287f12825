// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package rhd

import (
	"fmt"
	"math"

	"go.uber.org/multierr"
)

// maxDigitalLines is the width of the packed digital word.
const maxDigitalLines = 16

// index rebuilds the per-type channel lists from the signal groups and
// synthesises numTemp temperature sensor descriptors.
func (hdr *Header) index(numTemp int) error {
	var cl ChannelLists
	for gi := range hdr.Groups {
		g := &hdr.Groups[gi]
		if !g.Enabled {
			continue
		}
		for ci := range g.Channels {
			ch := &g.Channels[ci]
			ch.PortName = g.Name
			ch.PortPrefix = g.Prefix
			ch.PortNumber = gi + 1
			if !ch.Enabled {
				continue
			}

			switch ch.SignalType {
			case Amplifier:
				cl.Amplifier = append(cl.Amplifier, *ch)
			case AuxInput:
				cl.AuxInput = append(cl.AuxInput, *ch)
			case SupplyVoltage:
				cl.SupplyVoltage = append(cl.SupplyVoltage, *ch)
			case BoardADC:
				cl.BoardADC = append(cl.BoardADC, *ch)
			case BoardDigIn:
				cl.BoardDigIn = append(cl.BoardDigIn, *ch)
			case BoardDigOut:
				cl.BoardDigOut = append(cl.BoardDigOut, *ch)
			default:
				return &UnknownChannelTypeError{Channel: ch.NativeChannelName, SignalType: ch.SignalType}
			}
		}
	}

	for i := 0; i < numTemp; i++ {
		cl.TempSensor = append(cl.TempSensor, ChannelDescriptor{
			NativeChannelName: fmt.Sprintf("TEMP%d", i+1),
			CustomChannelName: fmt.Sprintf("TEMP%d", i+1),
			NativeOrder:       i,
			CustomOrder:       i,
			SignalType:        TempSensor,
			Enabled:           true,
		})
	}

	hdr.Channels = cl
	return nil
}

// setFrequencies derives the per-type sample rates from the amplifier rate.
func (hdr *Header) setFrequencies() {
	f := &hdr.Frequency
	f.AmplifierSampleRate = hdr.SampleRate
	f.AuxInputSampleRate = hdr.SampleRate / 4
	f.SupplyVoltageSampleRate = hdr.SampleRate / float64(hdr.Layout.SamplesPerBlock)
	f.BoardADCSampleRate = hdr.SampleRate
	f.BoardDigInSampleRate = hdr.SampleRate
	f.NotchFilterFrequency = hdr.NotchFilterMode.Frequency()
}

// Validate reports every structural problem with the header.
func (hdr *Header) Validate() error {
	var err error

	if math.IsNaN(hdr.SampleRate) || math.IsInf(hdr.SampleRate, 0) || hdr.SampleRate <= 0 {
		err = multierr.Append(err, fmt.Errorf("sample rate must be positive, got %v", hdr.SampleRate))
	}

	switch hdr.NotchFilterMode {
	case NotchNone, Notch50Hz, Notch60Hz:
	default:
		err = multierr.Append(err, fmt.Errorf("unknown notch filter mode %d", int16(hdr.NotchFilterMode)))
	}

	if hdr.Layout.SamplesPerBlock <= 0 || hdr.Layout.SamplesPerBlock%4 != 0 {
		err = multierr.Append(err, fmt.Errorf("invalid samples per block %d", hdr.Layout.SamplesPerBlock))
	}

	for _, list := range [][]ChannelDescriptor{hdr.Channels.BoardDigIn, hdr.Channels.BoardDigOut} {
		for _, ch := range list {
			if ch.NativeOrder < 0 || ch.NativeOrder >= maxDigitalLines {
				err = multierr.Append(err, fmt.Errorf("digital channel %q has bit position %d outside [0, %d)",
					ch.NativeChannelName, ch.NativeOrder, maxDigitalLines))
			}
		}
	}

	if !hdr.Layout.HasTempSensorCount && len(hdr.Channels.TempSensor) > 0 {
		err = multierr.Append(err, fmt.Errorf("version %s cannot record temperature sensor channels", hdr.Version))
	}

	return err
}
