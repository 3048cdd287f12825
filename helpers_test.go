// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package rhd_test

import (
	"bytes"
	"testing"

	"github.com/OpenPSG/rhd"
	"github.com/stretchr/testify/require"
)

// testHeader returns a header with every signal type enabled.
func testHeader(version rhd.Version) rhd.Header {
	hdr := rhd.Header{
		Version:         version,
		SampleRate:      20000,
		DSPEnabled:      true,
		NotchFilterMode: rhd.NotchNone,
		Notes:           [3]string{"session 1", "", "électrode µ"},
		Frequency: rhd.FrequencyParameters{
			DesiredDSPCutoffFrequency:     1,
			ActualDSPCutoffFrequency:      1.0009765625,
			DesiredLowerBandwidth:         0.5,
			ActualLowerBandwidth:          0.5,
			DesiredUpperBandwidth:         7500,
			ActualUpperBandwidth:          7500,
			DesiredImpedanceTestFrequency: 1000,
			ActualImpedanceTestFrequency:  1000,
		},
		Groups: []rhd.SignalGroup{
			{
				Name:    "Port A",
				Prefix:  "A",
				Enabled: true,
				Channels: []rhd.ChannelDescriptor{
					{
						NativeChannelName:           "A-000",
						CustomChannelName:           "CA1",
						NativeOrder:                 0,
						CustomOrder:                 0,
						SignalType:                  rhd.Amplifier,
						Enabled:                     true,
						ElectrodeImpedanceMagnitude: 125000,
						ElectrodeImpedancePhase:     -45,
						Trigger:                     rhd.SpikeTrigger{VoltageTriggerMode: 1, VoltageThreshold: -70},
					},
					{
						NativeChannelName: "A-001",
						CustomChannelName: "CA3",
						NativeOrder:       1,
						CustomOrder:       1,
						SignalType:        rhd.Amplifier,
						Enabled:           true,
						ChipChannel:       1,
					},
					{
						NativeChannelName: "A-002",
						CustomChannelName: "A-002",
						NativeOrder:       2,
						CustomOrder:       2,
						SignalType:        rhd.Amplifier,
						ChipChannel:       2,
					},
					{
						NativeChannelName: "A-AUX1",
						CustomChannelName: "AUX1",
						NativeOrder:       32,
						CustomOrder:       32,
						SignalType:        rhd.AuxInput,
						Enabled:           true,
						ChipChannel:       32,
					},
					{
						NativeChannelName: "A-VDD1",
						CustomChannelName: "VDD1",
						NativeOrder:       0,
						CustomOrder:       0,
						SignalType:        rhd.SupplyVoltage,
						Enabled:           true,
					},
				},
			},
			{
				Name:    "Board ADC Inputs",
				Prefix:  "ADC",
				Enabled: true,
				Channels: []rhd.ChannelDescriptor{
					{NativeChannelName: "ADC-00", CustomChannelName: "ADC-00", SignalType: rhd.BoardADC, Enabled: true},
				},
			},
			{
				Name:    "Board Digital Inputs",
				Prefix:  "DIN",
				Enabled: true,
				Channels: []rhd.ChannelDescriptor{
					{NativeChannelName: "DIN-00", CustomChannelName: "DIN-00", NativeOrder: 0, SignalType: rhd.BoardDigIn, Enabled: true},
					{NativeChannelName: "DIN-01", CustomChannelName: "DIN-01", NativeOrder: 1, SignalType: rhd.BoardDigIn, Enabled: true},
					{NativeChannelName: "DIN-02", CustomChannelName: "DIN-02", NativeOrder: 2, SignalType: rhd.BoardDigIn, Enabled: true},
				},
			},
			{
				Name:    "Board Digital Outputs",
				Prefix:  "DOUT",
				Enabled: true,
				Channels: []rhd.ChannelDescriptor{
					{NativeChannelName: "DOUT-00", CustomChannelName: "DOUT-00", NativeOrder: 0, SignalType: rhd.BoardDigOut, Enabled: true},
				},
			},
			{
				Name:   "Port B",
				Prefix: "B",
			},
		},
	}

	if version.AtLeast(1, 1) {
		hdr.Channels.TempSensor = make([]rhd.ChannelDescriptor, 1)
	}
	if version.AtLeast(2, 0) {
		hdr.ReferenceChannel = "A-000"
	}
	return hdr
}

// amplifierRaw is the raw amplifier code of channel ch at absolute sample s.
func amplifierRaw(ch, s int) uint16 {
	return uint16(32768 + (ch+1)*100 - s%200)
}

// testBlock fills block number i with a deterministic pattern.
func testBlock(hdr *rhd.Header, i int) *rhd.Block {
	b := rhd.NewBlock(hdr)
	n := hdr.Layout.SamplesPerBlock

	for k := range b.Timestamps {
		b.Timestamps[k] = int32(i*n + k)
	}
	for ch := range b.Amplifier {
		for k := range b.Amplifier[ch] {
			b.Amplifier[ch][k] = amplifierRaw(ch, i*n+k)
		}
	}
	for ch := range b.AuxInput {
		for k := range b.AuxInput[ch] {
			b.AuxInput[ch][k] = uint16(1000 + k)
		}
	}
	for ch := range b.SupplyVoltage {
		b.SupplyVoltage[ch] = 45000
	}
	for ch := range b.TempSensor {
		b.TempSensor[ch] = int16(2500 + i)
	}
	for ch := range b.BoardADC {
		for k := range b.BoardADC[ch] {
			b.BoardADC[ch][k] = uint16(k * 100)
		}
	}
	for k := range b.BoardDigIn {
		b.BoardDigIn[k] = uint16(k % 8)
	}
	for k := range b.BoardDigOut {
		b.BoardDigOut[k] = uint16(k % 2)
	}
	return b
}

// encode writes hdr and numBlocks test blocks to memory.
func encode(t *testing.T, hdr rhd.Header, numBlocks int) ([]byte, *rhd.Header) {
	t.Helper()

	var buf bytes.Buffer
	w, err := rhd.Create(&buf, hdr)
	require.NoError(t, err)

	for i := 0; i < numBlocks; i++ {
		require.NoError(t, w.WriteBlock(testBlock(w.Header(), i)))
	}
	require.NoError(t, w.Close())

	return buf.Bytes(), w.Header()
}
