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
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Block is one data block of raw samples. Analog matrices are indexed
// [channel][sample].
type Block struct {
	Timestamps    []int32    // One per amplifier sample; uint32 bit patterns before version 1.2
	Amplifier     [][]uint16 // SamplesPerBlock samples per channel
	AuxInput      [][]uint16 // SamplesPerBlock/4 samples per channel
	SupplyVoltage []uint16   // One sample per channel
	TempSensor    []int16    // One sample per channel
	BoardADC      [][]uint16 // SamplesPerBlock samples per channel
	BoardDigIn    []uint16   // One packed word per sample, empty without digital inputs
	BoardDigOut   []uint16   // One packed word per sample, empty without digital outputs
}

// NewBlock allocates a block shaped for hdr.
func NewBlock(hdr *Header) *Block {
	n := hdr.Layout.SamplesPerBlock
	counts := hdr.Channels.Counts()

	b := &Block{
		Timestamps:    make([]int32, n),
		Amplifier:     makeMatrix(counts.Amplifier, n),
		AuxInput:      makeMatrix(counts.AuxInput, hdr.Layout.AuxSamplesPerBlock()),
		SupplyVoltage: make([]uint16, counts.SupplyVoltage),
		TempSensor:    make([]int16, counts.TempSensor),
		BoardADC:      makeMatrix(counts.BoardADC, n),
	}
	if counts.BoardDigIn > 0 {
		b.BoardDigIn = make([]uint16, n)
	}
	if counts.BoardDigOut > 0 {
		b.BoardDigOut = make([]uint16, n)
	}
	return b
}

func makeMatrix(channels, samples int) [][]uint16 {
	m := make([][]uint16, channels)
	for i := range m {
		m[i] = make([]uint16, samples)
	}
	return m
}

// blockReader reads data blocks sequentially. It takes over the cursor from
// the header parser and is the only reader of the data section.
type blockReader struct {
	c     *cursor
	hdr   *Header
	buf   []byte
	block *Block
	read  int // Complete blocks read so far
}

func newBlockReader(c *cursor, hdr *Header) *blockReader {
	return &blockReader{
		c:     c,
		hdr:   hdr,
		buf:   make([]byte, hdr.BlockSize()),
		block: NewBlock(hdr),
	}
}

// next reads one block. The returned block is reused by the following call.
func (br *blockReader) next() (*Block, error) {
	n, err := io.ReadFull(br.c, br.buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &TruncatedFileError{CompleteBlocks: br.read, LeftoverBytes: int64(n)}
		}
		return nil, fmt.Errorf("error reading data block %d: %w", br.read, err)
	}

	decodeBlock(br.buf, br.hdr.Layout, br.block)
	br.read++
	return br.block, nil
}

// decodeBlock unpacks one raw block in on-disk order.
func decodeBlock(buf []byte, layout Layout, b *Block) {
	le := binary.LittleEndian
	off := 0

	u16 := func(dst []uint16) {
		for i := range dst {
			dst[i] = le.Uint16(buf[off:])
			off += 2
		}
	}

	for i := range b.Timestamps {
		b.Timestamps[i] = int32(le.Uint32(buf[off:]))
		off += 4
	}
	for _, ch := range b.Amplifier {
		u16(ch)
	}
	off += len(b.Timestamps) * 2 * layout.AuxCommandWords
	for _, ch := range b.AuxInput {
		u16(ch)
	}
	u16(b.SupplyVoltage)
	for i := range b.TempSensor {
		b.TempSensor[i] = int16(le.Uint16(buf[off:]))
		off += 2
	}
	for _, ch := range b.BoardADC {
		u16(ch)
	}
	u16(b.BoardDigIn)
	u16(b.BoardDigOut)
}

// encodeBlock is the inverse of decodeBlock.
func encodeBlock(buf []byte, layout Layout, b *Block) {
	le := binary.LittleEndian
	off := 0

	u16 := func(src []uint16) {
		for _, v := range src {
			le.PutUint16(buf[off:], v)
			off += 2
		}
	}

	for _, ts := range b.Timestamps {
		le.PutUint32(buf[off:], uint32(ts))
		off += 4
	}
	for _, ch := range b.Amplifier {
		u16(ch)
	}
	skip := len(b.Timestamps) * 2 * layout.AuxCommandWords
	clear(buf[off : off+skip])
	off += skip
	for _, ch := range b.AuxInput {
		u16(ch)
	}
	u16(b.SupplyVoltage)
	for _, v := range b.TempSensor {
		le.PutUint16(buf[off:], uint16(v))
		off += 2
	}
	for _, ch := range b.BoardADC {
		u16(ch)
	}
	u16(b.BoardDigIn)
	u16(b.BoardDigOut)
}

// checkShape verifies that b matches the geometry of hdr.
func (b *Block) checkShape(hdr *Header) error {
	n := hdr.Layout.SamplesPerBlock
	counts := hdr.Channels.Counts()

	if len(b.Timestamps) != n {
		return fmt.Errorf("expected %d timestamps, got %d", n, len(b.Timestamps))
	}
	if err := checkMatrix("amplifier", b.Amplifier, counts.Amplifier, n); err != nil {
		return err
	}
	if err := checkMatrix("aux input", b.AuxInput, counts.AuxInput, hdr.Layout.AuxSamplesPerBlock()); err != nil {
		return err
	}
	if err := checkMatrix("board ADC", b.BoardADC, counts.BoardADC, n); err != nil {
		return err
	}
	if len(b.SupplyVoltage) != counts.SupplyVoltage {
		return fmt.Errorf("expected %d supply voltage samples, got %d", counts.SupplyVoltage, len(b.SupplyVoltage))
	}
	if len(b.TempSensor) != counts.TempSensor {
		return fmt.Errorf("expected %d temperature samples, got %d", counts.TempSensor, len(b.TempSensor))
	}
	if want := digitalWords(counts.BoardDigIn, n); len(b.BoardDigIn) != want {
		return fmt.Errorf("expected %d digital input words, got %d", want, len(b.BoardDigIn))
	}
	if want := digitalWords(counts.BoardDigOut, n); len(b.BoardDigOut) != want {
		return fmt.Errorf("expected %d digital output words, got %d", want, len(b.BoardDigOut))
	}
	return nil
}

func checkMatrix(name string, m [][]uint16, channels, samples int) error {
	if len(m) != channels {
		return fmt.Errorf("expected %d %s channels, got %d", channels, name, len(m))
	}
	for i, ch := range m {
		if len(ch) != samples {
			return fmt.Errorf("expected %d samples for %s channel %d, got %d", samples, name, i, len(ch))
		}
	}
	return nil
}

func digitalWords(channels, samples int) int {
	if channels == 0 {
		return 0
	}
	return samples
}
