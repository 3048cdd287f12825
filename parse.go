// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package rhd

// parsedData holds the scaled samples of a whole file.
type parsedData struct {
	timestamps []int64
	t          []float64 // Sample-rate time vector
	tAux       []float64 // Every fourth sample time
	tBlock     []float64 // First sample time of each block

	amplifier     [][]float64
	auxInput      [][]float64
	supplyVoltage [][]float64
	tempSensor    [][]float64
	boardADC      [][]float64
	boardDigIn    [][]bool
	boardDigOut   [][]bool

	gaps int // Timestamp discontinuities
}

// sampleParser converts raw blocks into physical units as they are read, so
// that raw blocks never need to be retained.
type sampleParser struct {
	hdr    *Header
	layout Layout
	data   *parsedData

	amplifier, auxInput, supplyVoltage, tempSensor, boardADC Scale
}

func newSampleParser(hdr *Header, numBlocks int) *sampleParser {
	n := hdr.Layout.SamplesPerBlock
	numSamples := numBlocks * n
	counts := hdr.Channels.Counts()

	p := &sampleParser{
		hdr:    hdr,
		layout: hdr.Layout,
		data: &parsedData{
			timestamps:    make([]int64, numSamples),
			amplifier:     makeFloatMatrix(counts.Amplifier, numSamples),
			auxInput:      makeFloatMatrix(counts.AuxInput, numBlocks*hdr.Layout.AuxSamplesPerBlock()),
			supplyVoltage: makeFloatMatrix(counts.SupplyVoltage, numBlocks),
			tempSensor:    makeFloatMatrix(counts.TempSensor, numBlocks),
			boardADC:      makeFloatMatrix(counts.BoardADC, numSamples),
			boardDigIn:    makeBoolMatrix(counts.BoardDigIn, numSamples),
			boardDigOut:   makeBoolMatrix(counts.BoardDigOut, numSamples),
		},
	}
	p.amplifier, _ = ScaleFor(Amplifier, hdr.BoardMode)
	p.auxInput, _ = ScaleFor(AuxInput, hdr.BoardMode)
	p.supplyVoltage, _ = ScaleFor(SupplyVoltage, hdr.BoardMode)
	p.tempSensor, _ = ScaleFor(TempSensor, hdr.BoardMode)
	p.boardADC, _ = ScaleFor(BoardADC, hdr.BoardMode)
	return p
}

func makeFloatMatrix(channels, samples int) [][]float64 {
	m := make([][]float64, channels)
	for i := range m {
		m[i] = make([]float64, samples)
	}
	return m
}

func makeBoolMatrix(channels, samples int) [][]bool {
	m := make([][]bool, channels)
	for i := range m {
		m[i] = make([]bool, samples)
	}
	return m
}

// consume scales block number blockIndex into place.
func (p *sampleParser) consume(b *Block, blockIndex int) {
	n := p.layout.SamplesPerBlock
	start := blockIndex * n
	auxStart := blockIndex * p.layout.AuxSamplesPerBlock()
	d := p.data

	for i, ts := range b.Timestamps {
		if p.layout.SignedTimestamps {
			d.timestamps[start+i] = int64(ts)
		} else {
			d.timestamps[start+i] = int64(uint32(ts))
		}
	}

	scaleInto(d.amplifier, start, b.Amplifier, p.amplifier)
	scaleInto(d.auxInput, auxStart, b.AuxInput, p.auxInput)
	scaleInto(d.boardADC, start, b.BoardADC, p.boardADC)
	for ch, raw := range b.SupplyVoltage {
		d.supplyVoltage[ch][blockIndex] = p.supplyVoltage.Apply(int32(raw))
	}
	for ch, raw := range b.TempSensor {
		d.tempSensor[ch][blockIndex] = p.tempSensor.Apply(int32(raw))
	}

	unpackDigital(d.boardDigIn, start, b.BoardDigIn, p.hdr.Channels.BoardDigIn)
	unpackDigital(d.boardDigOut, start, b.BoardDigOut, p.hdr.Channels.BoardDigOut)
}

func scaleInto(dst [][]float64, start int, raw [][]uint16, s Scale) {
	for ch, samples := range raw {
		out := dst[ch][start : start+len(samples)]
		for i, v := range samples {
			out[i] = s.Apply(int32(v))
		}
	}
}

// unpackDigital splits packed words into one boolean line per channel, using
// the channel's native order as the bit position.
func unpackDigital(dst [][]bool, start int, words []uint16, channels []ChannelDescriptor) {
	for ch, desc := range channels {
		mask := uint16(1) << uint(desc.NativeOrder)
		out := dst[ch][start : start+len(words)]
		for i, w := range words {
			out[i] = w&mask != 0
		}
	}
}

// truncate drops the preallocated samples past the first numBlocks blocks.
func (p *sampleParser) truncate(numBlocks int) {
	n := numBlocks * p.layout.SamplesPerBlock
	nAux := numBlocks * p.layout.AuxSamplesPerBlock()
	d := p.data

	d.timestamps = d.timestamps[:n]
	trimFloat(d.amplifier, n)
	trimFloat(d.auxInput, nAux)
	trimFloat(d.supplyVoltage, numBlocks)
	trimFloat(d.tempSensor, numBlocks)
	trimFloat(d.boardADC, n)
	trimBool(d.boardDigIn, n)
	trimBool(d.boardDigOut, n)
}

func trimFloat(m [][]float64, samples int) {
	for i := range m {
		m[i] = m[i][:samples]
	}
}

func trimBool(m [][]bool, samples int) {
	for i := range m {
		m[i] = m[i][:samples]
	}
}

// finish builds the time vectors once every block has been consumed.
func (p *sampleParser) finish() *parsedData {
	d := p.data
	d.t = make([]float64, len(d.timestamps))
	for i, ts := range d.timestamps {
		d.t[i] = float64(ts) / p.hdr.SampleRate
	}
	for i := 1; i < len(d.timestamps); i++ {
		if d.timestamps[i]-d.timestamps[i-1] != 1 {
			d.gaps++
		}
	}

	d.tAux = decimate(d.t, 4)
	d.tBlock = decimate(d.t, p.layout.SamplesPerBlock)
	return d
}

func decimate(t []float64, step int) []float64 {
	out := make([]float64, 0, (len(t)+step-1)/step)
	for i := 0; i < len(t); i += step {
		out = append(out, t[i])
	}
	return out
}
