/*
NAME
  upd7759.go

DESCRIPTION
  upd7759.go contains a decoder for the NEC uPD7759 ADPCM command-stream
  format used by speech ROMs.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package upd7759 decodes NEC uPD7759 ADPCM command streams into 16-bit PCM.
//
// A stream is a sequence of command bytes, each optionally followed by
// 4-bit sample data. Commands select end-of-message, a run of silence, or a
// block of ADPCM nibbles; block commands in the 0xC0-0xFF range carry a
// repeat count and the block is replayed with the codec state carried
// between plays.
package upd7759

import (
	"math"

	"github.com/pkg/errors"

	"github.com/hharte/voiceware/codec/pcm"
)

// Command byte ranges. All 256 values are covered.
const (
	cmdEnd         = 0x00 // end of message
	cmdSilenceMax  = 0x3f // 0x01-0x3f: emit 8*c zero samples
	cmdShortMax    = 0x7f // 0x40-0x7f: 256 nibbles of sample data
	cmdLongMax     = 0xbf // 0x80-0xbf: n+1 nibbles, n from next byte
	shortNibbles   = 256  // nibbles in a short block (128 bytes)
	silenceRun     = 8    // samples per unit of a silence command
	sampleShift    = 7    // output scaling of the predicted sample
	maxState       = 15
)

// stepTable gives the signed sample difference for each (state, nibble)
// pair. Values are those of the uPD7759 hardware.
var stepTable = [16][16]int16{
	{0, 0, 1, 2, 3, 5, 7, 10, 0, 0, -1, -2, -3, -5, -7, -10},
	{0, 1, 2, 3, 4, 6, 8, 13, 0, -1, -2, -3, -4, -6, -8, -13},
	{0, 1, 2, 4, 5, 7, 10, 15, 0, -1, -2, -4, -5, -7, -10, -15},
	{0, 1, 3, 4, 6, 9, 13, 19, 0, -1, -3, -4, -6, -9, -13, -19},
	{0, 2, 3, 5, 8, 11, 15, 23, 0, -2, -3, -5, -8, -11, -15, -23},
	{0, 2, 4, 7, 10, 14, 19, 29, 0, -2, -4, -7, -10, -14, -19, -29},
	{0, 3, 5, 8, 12, 16, 22, 33, 0, -3, -5, -8, -12, -16, -22, -33},
	{1, 4, 7, 10, 15, 20, 29, 43, -1, -4, -7, -10, -15, -20, -29, -43},
	{1, 4, 8, 13, 18, 25, 35, 53, -1, -4, -8, -13, -18, -25, -35, -53},
	{1, 6, 10, 16, 22, 31, 43, 64, -1, -6, -10, -16, -22, -31, -43, -64},
	{2, 7, 12, 19, 27, 37, 51, 76, -2, -7, -12, -19, -27, -37, -51, -76},
	{2, 9, 16, 24, 34, 46, 64, 96, -2, -9, -16, -24, -34, -46, -64, -96},
	{3, 11, 19, 29, 41, 57, 79, 117, -3, -11, -19, -29, -41, -57, -79, -117},
	{4, 13, 24, 36, 50, 69, 96, 143, -4, -13, -24, -36, -50, -69, -96, -143},
	{4, 16, 29, 44, 62, 85, 118, 175, -4, -16, -29, -44, -62, -85, -118, -175},
	{6, 20, 36, 54, 76, 104, 144, 214, -6, -20, -36, -54, -76, -104, -144, -214},
}

// stateTable gives the state index adjustment applied after each nibble.
var stateTable = [16]int8{-1, -1, 0, 0, 1, 2, 2, 3, -1, -1, 0, 0, 1, 2, 2, 3}

var (
	// ErrTruncated is returned when the stream ends before the
	// end-of-message command, while sample data is pending, or while a
	// block length byte is expected.
	ErrTruncated = errors.New("command stream truncated")

	// ErrUnknownCommand is returned for an unrecognised command byte.
	// The command ranges partition all 256 byte values, so a correct
	// dispatch cannot produce it; it exists so the decoder fails closed
	// rather than looping if the dispatch is ever broken.
	ErrUnknownCommand = errors.New("unknown command byte")
)

// Decoder holds the adaptive codec state: the current predicted sample and
// the index into the step table. The zero value is the reset state used at
// the start of each message.
type Decoder struct {
	sample int16
	state  int8
}

// NewDecoder returns a new Decoder in the reset state.
func NewDecoder() *Decoder { return &Decoder{} }

// decodeNibble runs a single 4-bit sample through the predictor and
// appends the scaled result to dst.
func (d *Decoder) decodeNibble(nib byte, dst *pcm.Buffer) error {
	diff := stepTable[d.state][nib&0x0f]

	next := int32(d.sample) + int32(diff)
	d.sample = clamp16(next)

	state := d.state + stateTable[nib&0x0f]
	if state < 0 {
		state = 0
	} else if state > maxState {
		state = maxState
	}
	d.state = state

	// The predictor works in a narrow range; shift up to 16-bit output
	// scale. The shift is computed in 32 bits and clamped since the
	// predicted sample may already sit near the int16 limits.
	return dst.Append(clamp16(int32(d.sample) << sampleShift))
}

// Decode consumes the command stream in src starting at off and appends the
// decoded samples to dst. It returns the offset just past the last byte
// consumed. On error, samples already decoded remain in dst.
func (d *Decoder) Decode(src []byte, off int, dst *pcm.Buffer) (int, error) {
	pos := off

	var (
		nibbles int // sample nibbles pending in the current block
		repeats int // additional plays of the current block
		blockStart   int
		blockNibbles int
	)

	for {
		if nibbles > 0 {
			if pos >= len(src) {
				return pos, errors.Wrapf(ErrTruncated, "sample data at offset 0x%x", pos)
			}
			b := src[pos]
			pos++

			// High nibble first, then low.
			err := d.decodeNibble(b>>4, dst)
			if err != nil {
				return pos, err
			}
			nibbles--
			if nibbles > 0 {
				err = d.decodeNibble(b&0x0f, dst)
				if err != nil {
					return pos, err
				}
				nibbles--
			}

			// A repeated block is replayed from its first data byte
			// against the evolving codec state.
			if nibbles == 0 && repeats > 0 {
				repeats--
				pos = blockStart
				nibbles = blockNibbles
			}
			continue
		}

		if pos >= len(src) {
			return pos, errors.Wrapf(ErrTruncated, "command byte at offset 0x%x", pos)
		}
		c := src[pos]
		pos++

		switch {
		case c == cmdEnd:
			return pos, nil
		case c <= cmdSilenceMax:
			err := dst.AppendSilence(int(c) * silenceRun)
			if err != nil {
				return pos, err
			}
		case c <= cmdShortMax:
			nibbles = shortNibbles
			repeats = 0
		case c <= cmdLongMax:
			if pos >= len(src) {
				return pos, errors.Wrapf(ErrTruncated, "block length at offset 0x%x", pos)
			}
			nibbles = int(src[pos]) + 1
			pos++
			repeats = 0
		case c >= 0xc0:
			if pos >= len(src) {
				return pos, errors.Wrapf(ErrTruncated, "block length at offset 0x%x", pos)
			}
			nibbles = int(src[pos]) + 1
			pos++
			repeats = int(c>>3) & 0x07
			blockStart = pos
			blockNibbles = nibbles
		default:
			return pos, errors.Wrapf(ErrUnknownCommand, "0x%02x at offset 0x%x", c, pos-1)
		}
	}
}

// clamp16 clamps a 32-bit value into the int16 range.
func clamp16(v int32) int16 {
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	default:
		return int16(v)
	}
}
