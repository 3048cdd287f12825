// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package rhd

import "fmt"

// MagicNumber identifies an RHD2000 data file.
const MagicNumber uint32 = 0xC6912702

// Version is the file format version written by the acquisition software.
type Version struct {
	Major int16
	Minor int16
}

// AtLeast reports whether v is the same as or newer than major.minor.
func (v Version) AtLeast(major, minor int16) bool {
	return v.Major > major || (v.Major == major && v.Minor >= minor)
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// NotchMode is the mains notch filter setting.
type NotchMode int16

const (
	NotchNone NotchMode = 0
	Notch50Hz NotchMode = 1
	Notch60Hz NotchMode = 2
)

// Frequency returns the notch centre frequency in Hz, or 0 when disabled.
func (m NotchMode) Frequency() float64 {
	switch m {
	case Notch50Hz:
		return 50
	case Notch60Hz:
		return 60
	default:
		return 0
	}
}

func (m NotchMode) String() string {
	switch m {
	case NotchNone:
		return "none"
	case Notch50Hz:
		return "50Hz"
	case Notch60Hz:
		return "60Hz"
	default:
		return fmt.Sprintf("NotchMode(%d)", int16(m))
	}
}

// SignalType is the category of a recorded channel.
type SignalType int16

const (
	Amplifier     SignalType = 0
	AuxInput      SignalType = 1
	SupplyVoltage SignalType = 2
	BoardADC      SignalType = 3
	BoardDigIn    SignalType = 4
	BoardDigOut   SignalType = 5
	// TempSensor channels are never stored as descriptors; the file only
	// records how many there are.
	TempSensor SignalType = 6
)

func (s SignalType) String() string {
	switch s {
	case Amplifier:
		return "amplifier"
	case AuxInput:
		return "aux input"
	case SupplyVoltage:
		return "supply voltage"
	case BoardADC:
		return "board ADC"
	case BoardDigIn:
		return "board digital in"
	case BoardDigOut:
		return "board digital out"
	case TempSensor:
		return "temperature sensor"
	default:
		return fmt.Sprintf("SignalType(%d)", int16(s))
	}
}

// BoardMode is the evaluation board mode, which selects the board ADC scaling.
type BoardMode int16

const (
	BoardModeUnipolar   BoardMode = 0
	BoardModeBipolar    BoardMode = 1  // +/-5V ADCs
	BoardModeBipolar10V BoardMode = 13 // +/-10.24V ADCs
)

// Header represents the RHD file header.
type Header struct {
	Version          Version             // Format version
	Layout           Layout              // Format variant resolved from Version
	SampleRate       float64             // Amplifier sample rate in Hz
	DSPEnabled       bool                // Whether the on-chip DSP offset removal filter was enabled
	Frequency        FrequencyParameters // Bandwidth and derived per-type sample rates
	NotchFilterMode  NotchMode           // Notch filter setting recorded by the acquisition software
	Notes            [3]string           // Free-form user notes
	BoardMode        BoardMode           // Evaluation board mode, 0 before version 1.3
	ReferenceChannel string              // Hardware reference channel name, version 2.0 and later
	Groups           []SignalGroup       // Signal groups (ports) in file order
	Channels         ChannelLists        // Enabled channels classified by signal type
}

// FrequencyParameters holds the recorded bandwidth settings.
type FrequencyParameters struct {
	AmplifierSampleRate           float64
	AuxInputSampleRate            float64
	SupplyVoltageSampleRate       float64
	BoardADCSampleRate            float64
	BoardDigInSampleRate          float64
	DesiredDSPCutoffFrequency     float64
	ActualDSPCutoffFrequency      float64
	DesiredLowerBandwidth         float64
	ActualLowerBandwidth          float64
	DesiredUpperBandwidth         float64
	ActualUpperBandwidth          float64
	NotchFilterFrequency          float64
	DesiredImpedanceTestFrequency float64
	ActualImpedanceTestFrequency  float64
}

// SignalGroup is one port or board section of the channel table.
type SignalGroup struct {
	Name     string              // Port name (e.g. "Port A")
	Prefix   string              // Port prefix (e.g. "A")
	Enabled  bool                // Disabled groups carry no channel records
	Channels []ChannelDescriptor // All channels of the group, enabled or not
}

// ChannelDescriptor identifies one channel and its position within block data.
type ChannelDescriptor struct {
	PortName                    string
	PortPrefix                  string
	PortNumber                  int // 1-based signal group index
	NativeChannelName           string
	CustomChannelName           string
	NativeOrder                 int // Bit position for digital channels
	CustomOrder                 int
	SignalType                  SignalType
	Enabled                     bool
	ChipChannel                 int
	BoardStream                 int     // Data stream the channel arrived on
	ElectrodeImpedanceMagnitude float64 // Ohms, zero unless impedance was measured
	ElectrodeImpedancePhase     float64 // Degrees
	Trigger                     SpikeTrigger
}

// HasImpedance reports whether an electrode impedance measurement was stored.
func (c ChannelDescriptor) HasImpedance() bool {
	return c.ElectrodeImpedanceMagnitude != 0
}

// SpikeTrigger is the spike scope trigger setting of a channel. Only
// amplifier channels use it.
type SpikeTrigger struct {
	VoltageTriggerMode    int
	VoltageThreshold      int // Microvolts
	DigitalTriggerChannel int
	DigitalEdgePolarity   int
}

// ChannelLists holds the enabled channels of every signal type, in file order.
type ChannelLists struct {
	Amplifier     []ChannelDescriptor
	AuxInput      []ChannelDescriptor
	SupplyVoltage []ChannelDescriptor
	BoardADC      []ChannelDescriptor
	BoardDigIn    []ChannelDescriptor
	BoardDigOut   []ChannelDescriptor
	TempSensor    []ChannelDescriptor
}

// Counts returns the number of enabled channels per signal type.
func (cl *ChannelLists) Counts() ChannelCounts {
	return ChannelCounts{
		Amplifier:     len(cl.Amplifier),
		AuxInput:      len(cl.AuxInput),
		SupplyVoltage: len(cl.SupplyVoltage),
		BoardADC:      len(cl.BoardADC),
		BoardDigIn:    len(cl.BoardDigIn),
		BoardDigOut:   len(cl.BoardDigOut),
		TempSensor:    len(cl.TempSensor),
	}
}

// ChannelCounts is the number of channels in each list.
type ChannelCounts struct {
	Amplifier     int
	AuxInput      int
	SupplyVoltage int
	BoardADC      int
	BoardDigIn    int
	BoardDigOut   int
	TempSensor    int
}
