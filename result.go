// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package rhd

// AnalogSignal is the scaled data of one signal type.
type AnalogSignal struct {
	Channels []ChannelDescriptor
	Unit     string      // Physical unit of Data
	Data     [][]float64 // [channel][sample]
	Time     []float64   // Seconds, aligned with every channel of Data
}

// DigitalSignal is the unpacked data of one digital port.
type DigitalSignal struct {
	Channels []ChannelDescriptor
	Data     [][]bool  // [channel][sample]
	Time     []float64 // Seconds
}

// Result is a decoded RHD file. Signal types without channels have empty
// Channels, Data and Time. Signal types sampled at the same rate share one
// Time slice.
type Result struct {
	Header        *Header
	HeaderOnly    bool                // No data blocks; samples live in separate files
	NumBlocks     int                 // Data blocks decoded
	Truncation    *TruncatedFileError // Set when a truncated file was accepted
	TimestampGaps int                 // Discontinuities in the sample timestamps
	NotchFilter   NotchMode           // Notch filter applied to Amplifier.Data
	Timestamps    []int64             // Sample index of every amplifier sample

	Amplifier     AnalogSignal // Microvolts
	AuxInput      AnalogSignal // Volts, a quarter of the amplifier rate
	SupplyVoltage AnalogSignal // Volts, one sample per block
	TempSensor    AnalogSignal // Degrees Celsius, one sample per block
	BoardADC      AnalogSignal // Volts
	BoardDigIn    DigitalSignal
	BoardDigOut   DigitalSignal
}

// SpikeTriggers returns the trigger settings of the amplifier channels.
func (r *Result) SpikeTriggers() []SpikeTrigger {
	triggers := make([]SpikeTrigger, len(r.Amplifier.Channels))
	for i, ch := range r.Amplifier.Channels {
		triggers[i] = ch.Trigger
	}
	return triggers
}

// Duration returns the recorded time span in seconds.
func (r *Result) Duration() float64 {
	if r.Header == nil || r.Header.SampleRate == 0 {
		return 0
	}
	return float64(len(r.Timestamps)) / r.Header.SampleRate
}

// buildResult assembles already computed pieces. d is nil for a header-only file.
func buildResult(hdr *Header, g Geometry, d *parsedData, notch NotchMode, truncation *TruncatedFileError) *Result {
	if d == nil {
		d = newSampleParser(hdr, 0).finish()
	}

	cl := &hdr.Channels
	return &Result{
		Header:        hdr,
		HeaderOnly:    g.HeaderOnly() && truncation == nil,
		NumBlocks:     g.NumBlocks,
		Truncation:    truncation,
		TimestampGaps: d.gaps,
		NotchFilter:   notch,
		Timestamps:    d.timestamps,

		Amplifier:     analog(cl.Amplifier, amplifierScale.Unit, d.amplifier, d.t),
		AuxInput:      analog(cl.AuxInput, auxInputScale.Unit, d.auxInput, d.tAux),
		SupplyVoltage: analog(cl.SupplyVoltage, supplyVoltageScale.Unit, d.supplyVoltage, d.tBlock),
		TempSensor:    analog(cl.TempSensor, tempSensorScale.Unit, d.tempSensor, d.tBlock),
		BoardADC:      analog(cl.BoardADC, boardADCUnit(hdr), d.boardADC, d.t),
		BoardDigIn:    digital(cl.BoardDigIn, d.boardDigIn, d.t),
		BoardDigOut:   digital(cl.BoardDigOut, d.boardDigOut, d.t),
	}
}

func boardADCUnit(hdr *Header) string {
	s, _ := ScaleFor(BoardADC, hdr.BoardMode)
	return s.Unit
}

func analog(channels []ChannelDescriptor, unit string, data [][]float64, t []float64) AnalogSignal {
	if len(channels) == 0 {
		return AnalogSignal{Channels: []ChannelDescriptor{}, Unit: unit, Data: [][]float64{}, Time: []float64{}}
	}
	return AnalogSignal{Channels: channels, Unit: unit, Data: data, Time: t}
}

func digital(channels []ChannelDescriptor, data [][]bool, t []float64) DigitalSignal {
	if len(channels) == 0 {
		return DigitalSignal{Channels: []ChannelDescriptor{}, Data: [][]bool{}, Time: []float64{}}
	}
	return DigitalSignal{Channels: channels, Data: data, Time: t}
}
