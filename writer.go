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
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"slices"

	"golang.org/x/text/encoding/unicode"
)

// Writer writes RHD files.
type Writer struct {
	w      *bufio.Writer
	hdr    *Header
	buf    []byte
	blocks int // Number of data blocks written so far.
}

// Create writes the header of hdr to w and returns a writer for its data
// blocks. The channel lists are rebuilt from hdr.Groups; only the length of
// hdr.Channels.TempSensor is taken from the caller.
func Create(w io.Writer, hdr Header) (*Writer, error) {
	groups := make([]SignalGroup, len(hdr.Groups))
	for i, g := range hdr.Groups {
		g.Channels = slices.Clone(g.Channels)
		groups[i] = g
	}
	hdr.Groups = groups

	var err error
	if hdr.Layout, err = LayoutFor(hdr.Version); err != nil {
		return nil, err
	}
	if err := hdr.index(len(hdr.Channels.TempSensor)); err != nil {
		return nil, err
	}
	hdr.setFrequencies()
	if err := hdr.Validate(); err != nil {
		return nil, fmt.Errorf("invalid header: %w", err)
	}

	rw := &Writer{
		w:   bufio.NewWriter(w),
		hdr: &hdr,
		buf: make([]byte, hdr.BlockSize()),
	}
	if err := rw.writeHeader(); err != nil {
		return nil, fmt.Errorf("error writing header: %w", err)
	}
	return rw, nil
}

// Header returns the header as it was written.
func (rw *Writer) Header() *Header {
	return rw.hdr
}

// WriteBlock writes a single data block.
func (rw *Writer) WriteBlock(b *Block) error {
	if err := b.checkShape(rw.hdr); err != nil {
		return fmt.Errorf("error writing data block %d: %w", rw.blocks, err)
	}

	encodeBlock(rw.buf, rw.hdr.Layout, b)
	if _, err := rw.w.Write(rw.buf); err != nil {
		return fmt.Errorf("error writing data block %d: %w", rw.blocks, err)
	}

	rw.blocks++
	return nil
}

// Close flushes any buffered data. It does not close the underlying writer.
func (rw *Writer) Close() error {
	return rw.w.Flush()
}

func (rw *Writer) writeValue(v any) error {
	return binary.Write(rw.w, binary.LittleEndian, v)
}

func (rw *Writer) writeQString(s string) error {
	if s == "" {
		return rw.writeValue(uint32(emptyQString))
	}

	b, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(s))
	if err != nil {
		return fmt.Errorf("error encoding string: %w", err)
	}
	if err := rw.writeValue(uint32(len(b))); err != nil {
		return err
	}
	_, err = rw.w.Write(b)
	return err
}

func (rw *Writer) writeHeader() error {
	hdr := rw.hdr
	f := hdr.Frequency

	if err := rw.writeValue(MagicNumber); err != nil {
		return err
	}
	if err := rw.writeValue(hdr.Version); err != nil {
		return err
	}

	fixed := fixedHeader{
		SampleRate:                    float32(hdr.SampleRate),
		DSPEnabled:                    boolToInt16(hdr.DSPEnabled),
		ActualDSPCutoffFrequency:      float32(f.ActualDSPCutoffFrequency),
		ActualLowerBandwidth:          float32(f.ActualLowerBandwidth),
		ActualUpperBandwidth:          float32(f.ActualUpperBandwidth),
		DesiredDSPCutoffFrequency:     float32(f.DesiredDSPCutoffFrequency),
		DesiredLowerBandwidth:         float32(f.DesiredLowerBandwidth),
		DesiredUpperBandwidth:         float32(f.DesiredUpperBandwidth),
		NotchFilterMode:               int16(hdr.NotchFilterMode),
		DesiredImpedanceTestFrequency: float32(f.DesiredImpedanceTestFrequency),
		ActualImpedanceTestFrequency:  float32(f.ActualImpedanceTestFrequency),
	}
	if err := rw.writeValue(fixed); err != nil {
		return err
	}

	for _, note := range hdr.Notes {
		if err := rw.writeQString(note); err != nil {
			return err
		}
	}

	if hdr.Layout.HasTempSensorCount {
		if err := rw.writeValue(int16(len(hdr.Channels.TempSensor))); err != nil {
			return err
		}
	}
	if hdr.Layout.HasBoardMode {
		if err := rw.writeValue(hdr.BoardMode); err != nil {
			return err
		}
	}
	if hdr.Layout.HasReferenceChannel {
		if err := rw.writeQString(hdr.ReferenceChannel); err != nil {
			return err
		}
	}

	if len(hdr.Groups) > math.MaxInt16 {
		return fmt.Errorf("too many signal groups: %d", len(hdr.Groups))
	}
	if err := rw.writeValue(int16(len(hdr.Groups))); err != nil {
		return err
	}
	for _, g := range hdr.Groups {
		if err := rw.writeGroup(g); err != nil {
			return err
		}
	}

	// Ensure all data is flushed to the underlying writer
	return rw.w.Flush()
}

func (rw *Writer) writeGroup(g SignalGroup) error {
	if err := rw.writeQString(g.Name); err != nil {
		return err
	}
	if err := rw.writeQString(g.Prefix); err != nil {
		return err
	}

	if len(g.Channels) > math.MaxInt16 {
		return fmt.Errorf("too many channels in signal group %q: %d", g.Name, len(g.Channels))
	}

	rec := groupRecord{Enabled: boolToInt16(g.Enabled), NumChannels: int16(len(g.Channels))}
	for _, ch := range g.Channels {
		if ch.SignalType == Amplifier {
			rec.NumAmplifierChannels++
		}
	}
	if err := rw.writeValue(rec); err != nil {
		return err
	}

	if !g.Enabled {
		return nil
	}
	for _, ch := range g.Channels {
		if err := rw.writeChannel(ch); err != nil {
			return err
		}
	}
	return nil
}

func (rw *Writer) writeChannel(ch ChannelDescriptor) error {
	if err := rw.writeQString(ch.NativeChannelName); err != nil {
		return err
	}
	if err := rw.writeQString(ch.CustomChannelName); err != nil {
		return err
	}

	return rw.writeValue(channelRecord{
		NativeOrder:           int16(ch.NativeOrder),
		CustomOrder:           int16(ch.CustomOrder),
		SignalType:            int16(ch.SignalType),
		Enabled:               boolToInt16(ch.Enabled),
		ChipChannel:           int16(ch.ChipChannel),
		BoardStream:           int16(ch.BoardStream),
		VoltageTriggerMode:    int16(ch.Trigger.VoltageTriggerMode),
		VoltageThreshold:      int16(ch.Trigger.VoltageThreshold),
		DigitalTriggerChannel: int16(ch.Trigger.DigitalTriggerChannel),
		DigitalEdgePolarity:   int16(ch.Trigger.DigitalEdgePolarity),
		ImpedanceMagnitude:    float32(ch.ElectrodeImpedanceMagnitude),
		ImpedancePhase:        float32(ch.ElectrodeImpedancePhase),
	})
}

func boolToInt16(b bool) int16 {
	if b {
		return 1
	}
	return 0
}
