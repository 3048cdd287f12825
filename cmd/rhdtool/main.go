// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Command rhdtool inspects and converts RHD2000 recordings.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/OpenPSG/rhd"
	"github.com/OpenPSG/rhd/wavexport"
)

const (
	flagDebug          = "debug"
	flagNotch          = "notch"
	flagAllowTruncated = "allow-truncated"
	flagSignal         = "signal"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(out io.Writer) *cli.App {
	logger := zap.NewNop()

	decodeFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  flagNotch,
			Value: "none",
			Usage: "notch filter to apply to amplifier data: none, 50, 60 or hardware",
		},
		&cli.BoolFlag{
			Name:  flagAllowTruncated,
			Usage: "decode the complete blocks of a truncated file",
		},
	}

	decode := func(c *cli.Context) (*rhd.Result, error) {
		if c.NArg() < 1 {
			return nil, errors.New("missing input file")
		}
		opts, err := decodeOptions(c)
		if err != nil {
			return nil, err
		}
		return rhd.DecodeFile(c.Args().First(), append(opts, rhd.WithLogger(logger))...)
	}

	return &cli.App{
		Name:      "rhdtool",
		Usage:     "inspect and convert RHD2000 recordings",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if !c.Bool(flagDebug) {
				return nil
			}
			l, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		After: func(c *cli.Context) error {
			_ = logger.Sync()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "info",
				Usage:     "print the header and per-channel statistics",
				ArgsUsage: "FILE",
				Flags:     decodeFlags,
				Action: func(c *cli.Context) error {
					res, err := decode(c)
					if err != nil {
						return err
					}
					printInfo(c.App.Writer, res)
					return nil
				},
			},
			{
				Name:      "wav",
				Usage:     "export an analog signal as a 16-bit WAV file",
				ArgsUsage: "FILE OUTPUT",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  flagSignal,
						Value: "amplifier",
						Usage: "signal to export: amplifier, aux or adc",
					},
				}, decodeFlags...),
				Action: func(c *cli.Context) error {
					if c.NArg() < 2 {
						return errors.New("missing output file")
					}
					res, err := decode(c)
					if err != nil {
						return err
					}
					return exportWAV(c.Args().Get(1), c.String(flagSignal), res)
				},
			},
		},
	}
}

func decodeOptions(c *cli.Context) ([]rhd.Option, error) {
	var opts []rhd.Option
	switch notch := c.String(flagNotch); notch {
	case "", "none":
	case "50":
		opts = append(opts, rhd.WithNotchFilter(rhd.Notch50Hz))
	case "60":
		opts = append(opts, rhd.WithNotchFilter(rhd.Notch60Hz))
	case "hardware":
		opts = append(opts, rhd.WithHardwareNotchFilter())
	default:
		return nil, fmt.Errorf("unknown notch filter %q", notch)
	}
	if c.Bool(flagAllowTruncated) {
		opts = append(opts, rhd.WithTruncatedData())
	}
	return opts, nil
}

func exportWAV(name, signal string, res *rhd.Result) (err error) {
	var (
		sig  rhd.AnalogSignal
		kind rhd.SignalType
		rate float64
	)
	switch signal {
	case "amplifier":
		sig, kind, rate = res.Amplifier, rhd.Amplifier, res.Header.Frequency.AmplifierSampleRate
	case "aux":
		sig, kind, rate = res.AuxInput, rhd.AuxInput, res.Header.Frequency.AuxInputSampleRate
	case "adc":
		sig, kind, rate = res.BoardADC, rhd.BoardADC, res.Header.Frequency.BoardADCSampleRate
	default:
		return fmt.Errorf("unknown signal %q", signal)
	}
	scale, _ := rhd.ScaleFor(kind, res.Header.BoardMode)

	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return wavexport.Write(f, sig, rate, scale)
}

func printInfo(w io.Writer, res *rhd.Result) {
	hdr := res.Header
	fmt.Fprintf(w, "Version:        %s (%s layout)\n", hdr.Version, hdr.Layout.Name)
	fmt.Fprintf(w, "Sample rate:    %s S/s\n", humanize.Commaf(hdr.SampleRate))
	fmt.Fprintf(w, "Bandwidth:      %.2f Hz - %s Hz\n", hdr.Frequency.ActualLowerBandwidth,
		humanize.Commaf(hdr.Frequency.ActualUpperBandwidth))
	fmt.Fprintf(w, "Notch filter:   %s recorded, %s applied\n", hdr.NotchFilterMode, res.NotchFilter)
	if hdr.ReferenceChannel != "" {
		fmt.Fprintf(w, "Reference:      %s\n", hdr.ReferenceChannel)
	}
	for i, note := range hdr.Notes {
		if note != "" {
			fmt.Fprintf(w, "Note %d:         %s\n", i+1, note)
		}
	}

	switch {
	case res.HeaderOnly:
		fmt.Fprintln(w, "Data:           none, header only")
	default:
		fmt.Fprintf(w, "Data:           %s blocks, %.3f s\n", humanize.Comma(int64(res.NumBlocks)), res.Duration())
	}
	if res.Truncation != nil {
		fmt.Fprintf(w, "Truncated:      %s ignored\n", humanize.Bytes(uint64(res.Truncation.LeftoverBytes)))
	}
	if res.TimestampGaps > 0 {
		fmt.Fprintf(w, "Timestamp gaps: %d\n", res.TimestampGaps)
	}

	printAnalog(w, "Amplifier", res.Amplifier)
	printAnalog(w, "Aux input", res.AuxInput)
	printAnalog(w, "Supply voltage", res.SupplyVoltage)
	printAnalog(w, "Board ADC", res.BoardADC)
	printAnalog(w, "Temperature", res.TempSensor)
	printDigital(w, "Digital in", res.BoardDigIn)
	printDigital(w, "Digital out", res.BoardDigOut)
}

func printAnalog(w io.Writer, title string, sig rhd.AnalogSignal) {
	if len(sig.Channels) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s channels (%s):\n", title, sig.Unit)
	for i, ch := range sig.Channels {
		data := sig.Data[i]
		if len(data) == 0 {
			fmt.Fprintf(w, "  %-12s %-16s\n", ch.NativeChannelName, ch.CustomChannelName)
			continue
		}
		mean, std := stat.MeanStdDev(data, nil)
		fmt.Fprintf(w, "  %-12s %-16s min %12.4f  max %12.4f  mean %12.4f  std %12.4f\n",
			ch.NativeChannelName, ch.CustomChannelName, floats.Min(data), floats.Max(data), mean, std)
	}
}

func printDigital(w io.Writer, title string, sig rhd.DigitalSignal) {
	if len(sig.Channels) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s channels:\n", title)
	for i, ch := range sig.Channels {
		high := 0
		for _, v := range sig.Data[i] {
			if v {
				high++
			}
		}
		fmt.Fprintf(w, "  %-12s %-16s high for %d of %d samples\n",
			ch.NativeChannelName, ch.CustomChannelName, high, len(sig.Data[i]))
	}
}
