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
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func internalHeader(t *testing.T) *Header {
	t.Helper()

	hdr := &Header{
		Version:    Version{Major: 3, Minor: 0},
		SampleRate: 30000,
		Groups: []SignalGroup{{
			Name:    "Port A",
			Prefix:  "A",
			Enabled: true,
			Channels: []ChannelDescriptor{
				{NativeChannelName: "A-000", SignalType: Amplifier, Enabled: true},
				{NativeChannelName: "A-001", SignalType: Amplifier, Enabled: true},
				{NativeChannelName: "A-AUX1", SignalType: AuxInput, Enabled: true},
				{NativeChannelName: "A-AUX2", SignalType: AuxInput, Enabled: true},
				{NativeChannelName: "A-VDD1", SignalType: SupplyVoltage, Enabled: true},
				{NativeChannelName: "ADC-00", SignalType: BoardADC, Enabled: true},
				{NativeChannelName: "DIN-00", SignalType: BoardDigIn, Enabled: true},
				{NativeChannelName: "DIN-01", NativeOrder: 1, SignalType: BoardDigIn, Enabled: true},
				{NativeChannelName: "DIN-02", NativeOrder: 2, SignalType: BoardDigIn, Enabled: true},
				{NativeChannelName: "DOUT-15", NativeOrder: 15, SignalType: BoardDigOut, Enabled: true},
			},
		}},
	}

	var err error
	hdr.Layout, err = LayoutFor(hdr.Version)
	require.NoError(t, err)
	require.NoError(t, hdr.index(2))
	hdr.setFrequencies()
	require.NoError(t, hdr.Validate())
	return hdr
}

func randomBlock(hdr *Header, rng *rand.Rand) *Block {
	b := NewBlock(hdr)
	for i := range b.Timestamps {
		b.Timestamps[i] = rng.Int31() - rng.Int31()
	}
	for _, m := range [][][]uint16{b.Amplifier, b.AuxInput, b.BoardADC} {
		for _, ch := range m {
			for i := range ch {
				ch[i] = uint16(rng.Intn(1 << 16))
			}
		}
	}
	for i := range b.SupplyVoltage {
		b.SupplyVoltage[i] = uint16(rng.Intn(1 << 16))
	}
	for i := range b.TempSensor {
		b.TempSensor[i] = int16(rng.Intn(1<<16) - 1<<15)
	}
	for i := range b.BoardDigIn {
		b.BoardDigIn[i] = uint16(rng.Intn(1 << 16))
	}
	for i := range b.BoardDigOut {
		b.BoardDigOut[i] = uint16(rng.Intn(1 << 16))
	}
	return b
}

func TestBlockRoundTrip(t *testing.T) {
	hdr := internalHeader(t)
	rng := rand.New(rand.NewSource(1))

	want := randomBlock(hdr, rng)
	require.NoError(t, want.checkShape(hdr))

	buf := make([]byte, hdr.BlockSize())
	encodeBlock(buf, hdr.Layout, want)

	got := NewBlock(hdr)
	decodeBlock(buf, hdr.Layout, got)
	assert.Equal(t, want, got)
}

func TestBlockRoundTripWithAuxCommandWords(t *testing.T) {
	hdr := internalHeader(t)
	hdr.Layout.AuxCommandWords = 3
	rng := rand.New(rand.NewSource(2))

	want := randomBlock(hdr, rng)
	buf := make([]byte, hdr.BlockSize())
	for i := range buf {
		buf[i] = 0xAA
	}
	encodeBlock(buf, hdr.Layout, want)

	got := NewBlock(hdr)
	decodeBlock(buf, hdr.Layout, got)
	assert.Equal(t, want, got)

	// The skipped words sit right after the amplifier samples.
	n := hdr.Layout.SamplesPerBlock
	skipStart := n*4 + 2*n*2
	assert.Equal(t, make([]byte, n*2*3), buf[skipStart:skipStart+n*2*3])
}

func TestBlockReader(t *testing.T) {
	hdr := internalHeader(t)
	rng := rand.New(rand.NewSource(3))

	blocks := []*Block{randomBlock(hdr, rng), randomBlock(hdr, rng)}
	var data []byte
	for _, b := range blocks {
		buf := make([]byte, hdr.BlockSize())
		encodeBlock(buf, hdr.Layout, b)
		data = append(data, buf...)
	}
	// Half of a third block.
	data = append(data, make([]byte, hdr.BlockSize()/2)...)

	br := newBlockReader(newCursor(bytes.NewReader(data), int64(len(data))), hdr)
	for i, want := range blocks {
		got, err := br.next()
		require.NoError(t, err)
		assert.Equal(t, want, got, "block %d", i)
	}

	_, err := br.next()
	var truncated *TruncatedFileError
	require.ErrorAs(t, err, &truncated)
	assert.Equal(t, 2, truncated.CompleteBlocks)
	assert.Equal(t, hdr.BlockSize()/2, truncated.LeftoverBytes)
}

func TestUnpackDigital(t *testing.T) {
	channels := []ChannelDescriptor{{NativeOrder: 0}, {NativeOrder: 1}, {NativeOrder: 2}}
	dst := makeBoolMatrix(3, 1)

	unpackDigital(dst, 0, []uint16{0b0000000000000101}, channels)
	assert.Equal(t, [][]bool{{true}, {false}, {true}}, dst)
}

func TestSampleParserDigitalBitPosition(t *testing.T) {
	hdr := internalHeader(t)
	b := NewBlock(hdr)
	for i := range b.BoardDigOut {
		b.BoardDigOut[i] = 1 << 15
	}

	p := newSampleParser(hdr, 1)
	p.consume(b, 0)
	d := p.finish()

	require.Len(t, d.boardDigOut, 1)
	for _, v := range d.boardDigOut[0] {
		require.True(t, v)
	}
	for _, line := range d.boardDigIn {
		for _, v := range line {
			require.False(t, v)
		}
	}
}

func TestSampleParserTimeVectors(t *testing.T) {
	hdr := internalHeader(t)
	n := hdr.Layout.SamplesPerBlock

	p := newSampleParser(hdr, 2)
	for i := 0; i < 2; i++ {
		b := NewBlock(hdr)
		for k := range b.Timestamps {
			b.Timestamps[k] = int32(i*n + k)
		}
		p.consume(b, i)
	}
	d := p.finish()

	require.Len(t, d.t, 2*n)
	require.Len(t, d.tAux, 2*n/4)
	require.Len(t, d.tBlock, 2)
	assert.Equal(t, 0.0, d.tBlock[0])
	assert.InDelta(t, float64(n)/30000, d.tBlock[1], 1e-12)
	assert.InDelta(t, 4/30000.0, d.tAux[1], 1e-12)
	assert.Zero(t, d.gaps)
}
