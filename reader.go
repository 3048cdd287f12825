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
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
)

// emptyQString is the length marker of a null QString.
const emptyQString = 0xFFFFFFFF

// fixedHeader is the part of the header between the version and the notes.
type fixedHeader struct {
	SampleRate                    float32
	DSPEnabled                    int16
	ActualDSPCutoffFrequency      float32
	ActualLowerBandwidth          float32
	ActualUpperBandwidth          float32
	DesiredDSPCutoffFrequency     float32
	DesiredLowerBandwidth         float32
	DesiredUpperBandwidth         float32
	NotchFilterMode               int16
	DesiredImpedanceTestFrequency float32
	ActualImpedanceTestFrequency  float32
}

type groupRecord struct {
	Enabled              int16
	NumChannels          int16
	NumAmplifierChannels int16
}

type channelRecord struct {
	NativeOrder           int16
	CustomOrder           int16
	SignalType            int16
	Enabled               int16
	ChipChannel           int16
	BoardStream           int16
	VoltageTriggerMode    int16
	VoltageThreshold      int16
	DigitalTriggerChannel int16
	DigitalEdgePolarity   int16
	ImpedanceMagnitude    float32
	ImpedancePhase        float32
}

// cursor is the single owner of the stream position. It is handed first to
// the header parser and then to the block reader.
type cursor struct {
	r    *bufio.Reader
	pos  int64 // Bytes consumed so far
	size int64 // Total source length, -1 if unknown
}

func newCursor(r io.Reader, size int64) *cursor {
	return &cursor{r: bufio.NewReaderSize(r, 1<<16), size: size}
}

func (c *cursor) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.pos += int64(n)
	return n, err
}

// remaining returns the unread byte count, or -1 if the size is unknown.
func (c *cursor) remaining() int64 {
	if c.size < 0 {
		return -1
	}
	return c.size - c.pos
}

func (c *cursor) readValue(v any) error {
	return binary.Read(c, binary.LittleEndian, v)
}

func (c *cursor) qstring() (string, error) {
	var length uint32
	if err := c.readValue(&length); err != nil {
		return "", err
	}
	if length == emptyQString {
		return "", nil
	}
	if rem := c.remaining(); rem >= 0 && int64(length) > rem {
		return "", &FormatError{Reason: fmt.Sprintf("string length %d exceeds the %d bytes remaining", length, rem)}
	}
	if length%2 != 0 {
		return "", &FormatError{Reason: fmt.Sprintf("string length %d is not a whole number of UTF-16 code units", length)}
	}

	// Without a known size the buffer grows only with bytes actually read.
	var buf bytes.Buffer
	if c.size >= 0 {
		buf.Grow(int(length))
	}
	if _, err := io.CopyN(&buf, c, int64(length)); err != nil {
		if errors.Is(err, io.EOF) {
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}

	s, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("error decoding string: %w", err)
	}
	return string(s), nil
}

// ReadHeader reads and validates an RHD header. size is the total length of
// the source, or -1 if unknown.
func ReadHeader(r io.Reader, size int64) (*Header, error) {
	return readHeader(newCursor(r, size))
}

func readHeader(c *cursor) (*Header, error) {
	var magic uint32
	if err := c.readValue(&magic); err != nil {
		return nil, fmt.Errorf("error reading magic number: %w", err)
	}
	if magic != MagicNumber {
		return nil, &FormatError{Magic: magic}
	}

	hdr := &Header{}
	if err := c.readValue(&hdr.Version); err != nil {
		return nil, fmt.Errorf("error reading version: %w", err)
	}

	var err error
	hdr.Layout, err = LayoutFor(hdr.Version)
	if err != nil {
		return nil, err
	}

	var fixed fixedHeader
	if err := c.readValue(&fixed); err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}
	hdr.SampleRate = float64(fixed.SampleRate)
	hdr.DSPEnabled = fixed.DSPEnabled != 0
	hdr.NotchFilterMode = NotchMode(fixed.NotchFilterMode)
	hdr.Frequency = FrequencyParameters{
		ActualDSPCutoffFrequency:      float64(fixed.ActualDSPCutoffFrequency),
		ActualLowerBandwidth:          float64(fixed.ActualLowerBandwidth),
		ActualUpperBandwidth:          float64(fixed.ActualUpperBandwidth),
		DesiredDSPCutoffFrequency:     float64(fixed.DesiredDSPCutoffFrequency),
		DesiredLowerBandwidth:         float64(fixed.DesiredLowerBandwidth),
		DesiredUpperBandwidth:         float64(fixed.DesiredUpperBandwidth),
		DesiredImpedanceTestFrequency: float64(fixed.DesiredImpedanceTestFrequency),
		ActualImpedanceTestFrequency:  float64(fixed.ActualImpedanceTestFrequency),
	}

	for i := range hdr.Notes {
		if hdr.Notes[i], err = c.qstring(); err != nil {
			return nil, fmt.Errorf("error reading notes: %w", err)
		}
	}

	var numTemp int16
	if hdr.Layout.HasTempSensorCount {
		if err := c.readValue(&numTemp); err != nil {
			return nil, fmt.Errorf("error reading temperature sensor count: %w", err)
		}
		if numTemp < 0 {
			return nil, &FormatError{Reason: fmt.Sprintf("negative temperature sensor count %d", numTemp)}
		}
	}

	if hdr.Layout.HasBoardMode {
		if err := c.readValue(&hdr.BoardMode); err != nil {
			return nil, fmt.Errorf("error reading board mode: %w", err)
		}
	}

	if hdr.Layout.HasReferenceChannel {
		if hdr.ReferenceChannel, err = c.qstring(); err != nil {
			return nil, fmt.Errorf("error reading reference channel: %w", err)
		}
	}

	if hdr.Groups, err = readSignalGroups(c); err != nil {
		return nil, err
	}

	if err := hdr.index(int(numTemp)); err != nil {
		return nil, err
	}
	hdr.setFrequencies()

	if err := hdr.Validate(); err != nil {
		return nil, &FormatError{Reason: err.Error()}
	}

	return hdr, nil
}

func readSignalGroups(c *cursor) ([]SignalGroup, error) {
	var numGroups int16
	if err := c.readValue(&numGroups); err != nil {
		return nil, fmt.Errorf("error reading signal group count: %w", err)
	}
	if numGroups < 0 {
		return nil, &FormatError{Reason: fmt.Sprintf("negative signal group count %d", numGroups)}
	}

	groups := make([]SignalGroup, numGroups)
	for gi := range groups {
		g := &groups[gi]

		var err error
		if g.Name, err = c.qstring(); err != nil {
			return nil, fmt.Errorf("error reading signal group %d: %w", gi+1, err)
		}
		if g.Prefix, err = c.qstring(); err != nil {
			return nil, fmt.Errorf("error reading signal group %d: %w", gi+1, err)
		}

		var rec groupRecord
		if err := c.readValue(&rec); err != nil {
			return nil, fmt.Errorf("error reading signal group %d: %w", gi+1, err)
		}
		g.Enabled = rec.Enabled > 0

		// Channel records are only stored for enabled groups.
		if !g.Enabled || rec.NumChannels <= 0 {
			continue
		}

		g.Channels = make([]ChannelDescriptor, rec.NumChannels)
		for ci := range g.Channels {
			if err := readChannel(c, &g.Channels[ci]); err != nil {
				return nil, fmt.Errorf("error reading channel %d of signal group %q: %w", ci, g.Name, err)
			}
		}
	}

	return groups, nil
}

func readChannel(c *cursor, ch *ChannelDescriptor) error {
	var err error
	if ch.NativeChannelName, err = c.qstring(); err != nil {
		return err
	}
	if ch.CustomChannelName, err = c.qstring(); err != nil {
		return err
	}

	var rec channelRecord
	if err := c.readValue(&rec); err != nil {
		return err
	}

	ch.NativeOrder = int(rec.NativeOrder)
	ch.CustomOrder = int(rec.CustomOrder)
	ch.SignalType = SignalType(rec.SignalType)
	ch.Enabled = rec.Enabled != 0
	ch.ChipChannel = int(rec.ChipChannel)
	ch.BoardStream = int(rec.BoardStream)
	ch.ElectrodeImpedanceMagnitude = float64(rec.ImpedanceMagnitude)
	ch.ElectrodeImpedancePhase = float64(rec.ImpedancePhase)
	ch.Trigger = SpikeTrigger{
		VoltageTriggerMode:    int(rec.VoltageTriggerMode),
		VoltageThreshold:      int(rec.VoltageThreshold),
		DigitalTriggerChannel: int(rec.DigitalTriggerChannel),
		DigitalEdgePolarity:   int(rec.DigitalEdgePolarity),
	}
	return nil
}
