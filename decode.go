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
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// progressSteps is how many progress messages are logged while reading blocks.
const progressSteps = 10

// DecodeFile decodes the RHD file at name.
func DecodeFile(name string, opts ...Option) (*Result, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer f.Close()

	return Decode(f, -1, opts...)
}

// Decode decodes a whole RHD file from r, which must be positioned at the
// start of the file. size is the total length of the file; a negative size is
// measured by seeking r.
func Decode(r io.ReadSeeker, size int64, opts ...Option) (*Result, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger

	if size < 0 {
		var err error
		if size, err = measure(r); err != nil {
			return nil, err
		}
	}

	c := newCursor(r, size)
	hdr, err := readHeader(c)
	if err != nil {
		return nil, err
	}
	logHeaderSummary(logger, hdr)

	g, err := ComputeGeometry(hdr, c.remaining())
	var truncation *TruncatedFileError
	if err != nil {
		if !errors.As(err, &truncation) || !o.allowTruncated {
			return nil, err
		}
		logger.Warn("Data section is truncated, decoding complete blocks only",
			zap.Int("blocks", truncation.CompleteBlocks),
			zap.Int64("leftoverBytes", truncation.LeftoverBytes))
	}

	if g.NumBlocks == 0 {
		if g.HeaderOnly() {
			logger.Info("Header only file, data is stored in separate files")
		}
		return buildResult(hdr, g, nil, NotchNone, truncation), nil
	}

	logger.Info("Found data",
		zap.String("size", humanize.Bytes(uint64(int64(g.NumBlocks)*g.BlockSize))),
		zap.String("samples", humanize.Comma(int64(g.NumSamples()))),
		zap.Float64("seconds", float64(g.NumSamples())/hdr.SampleRate),
		zap.Float64("sampleRateKHz", hdr.SampleRate/1000))

	br := newBlockReader(c, hdr)
	parser := newSampleParser(hdr, g.NumBlocks)
	step := max(g.NumBlocks/progressSteps, 1)
	for i := 0; i < g.NumBlocks; i++ {
		block, err := br.next()
		if err != nil {
			if !errors.As(err, &truncation) || !o.allowTruncated {
				return nil, err
			}
			logger.Warn("Data ends before the declared size, decoding complete blocks only",
				zap.Int("blocks", truncation.CompleteBlocks),
				zap.Int64("leftoverBytes", truncation.LeftoverBytes))
			parser.truncate(truncation.CompleteBlocks)
			g.NumBlocks = truncation.CompleteBlocks
			g.LeftoverBytes = truncation.LeftoverBytes
			break
		}
		parser.consume(block, i)

		if (i+1)%step == 0 {
			logger.Debug("Reading data blocks", zap.Int("percent", (i+1)*100/g.NumBlocks))
		}
	}

	if truncation == nil {
		if err := checkEndOfFile(c); err != nil {
			return nil, err
		}
	}

	data := parser.finish()
	if data.gaps > 0 {
		logger.Warn("Timestamp discontinuities found", zap.Int("gaps", data.gaps))
	}

	notch := o.notchFor(hdr)
	if notch != NotchNone {
		logger.Info("Applying notch filter", zap.Stringer("mode", notch))
		ApplyNotchFilter(data.amplifier, hdr.SampleRate, notch)
	}

	return buildResult(hdr, g, data, notch, truncation), nil
}

// measure returns the length of r and rewinds it to where it was.
func measure(r io.Seeker) (int64, error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("error seeking: %w", err)
	}
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("error seeking: %w", err)
	}
	if _, err := r.Seek(pos, io.SeekStart); err != nil {
		return 0, fmt.Errorf("error seeking: %w", err)
	}
	return end - pos, nil
}

// checkEndOfFile verifies that the data section was consumed exactly.
func checkEndOfFile(c *cursor) error {
	var b [1]byte
	n, err := c.Read(b[:])
	if n == 0 && errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("error reading end of file: %w", err)
	}
	return fmt.Errorf("data section longer than declared: bytes remain after the last block")
}

func logHeaderSummary(logger *zap.Logger, hdr *Header) {
	counts := hdr.Channels.Counts()
	logger.Info("Read RHD header",
		zap.Stringer("version", hdr.Version),
		zap.String("layout", hdr.Layout.Name),
		zap.Float64("sampleRate", hdr.SampleRate),
		zap.Stringer("notchFilter", hdr.NotchFilterMode),
		zap.Int("amplifierChannels", counts.Amplifier),
		zap.Int("auxInputChannels", counts.AuxInput),
		zap.Int("supplyVoltageChannels", counts.SupplyVoltage),
		zap.Int("boardADCChannels", counts.BoardADC),
		zap.Int("boardDigInChannels", counts.BoardDigIn),
		zap.Int("boardDigOutChannels", counts.BoardDigOut),
		zap.Int("tempSensorChannels", counts.TempSensor))
}
