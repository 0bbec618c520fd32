/*
NAME
  pcm.go

DESCRIPTION
  pcm.go contains types for holding and describing pcm audio.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package pcm provides a growable buffer of PCM samples and descriptions
// of the formats the samples can be in.
package pcm

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// SampleFormat is the format that a PCM Buffer's samples can be in.
type SampleFormat int

// Used to represent an unknown format.
const (
	Unknown SampleFormat = -1
)

// Sample formats that we use.
const (
	S16_LE SampleFormat = iota
	// There are many more:
	// https://linux.die.net/man/1/arecord
	// https://trac.ffmpeg.org/wiki/audio%20types
)

// MaxBufSamples bounds Buffer growth. A decoder driven by corrupt input
// could otherwise be made to allocate without limit.
const MaxBufSamples = 32 << 20 // 64 MiB of 16-bit samples.

// ErrBufferLimit is returned when a Buffer would grow past MaxBufSamples.
var ErrBufferLimit = errors.New("pcm buffer exceeds sample limit")

// BufferFormat contains the format for a PCM Buffer.
type BufferFormat struct {
	SFormat  SampleFormat
	Rate     uint
	Channels uint
}

// Buffer contains 16-bit PCM samples and the format that they are in.
type Buffer struct {
	Format  BufferFormat
	Samples []int16
}

// Append adds a single sample to the buffer, limiting growth to
// MaxBufSamples.
func (b *Buffer) Append(s int16) error {
	if len(b.Samples) >= MaxBufSamples {
		return ErrBufferLimit
	}
	b.Samples = append(b.Samples, s)
	return nil
}

// AppendSilence adds n zero samples to the buffer.
func (b *Buffer) AppendSilence(n int) error {
	if len(b.Samples)+n > MaxBufSamples {
		return ErrBufferLimit
	}
	for i := 0; i < n; i++ {
		b.Samples = append(b.Samples, 0)
	}
	return nil
}

// Len returns the number of samples in the buffer.
func (b *Buffer) Len() int { return len(b.Samples) }

// Bytes returns the samples in little-endian byte form, the order used by
// S16_LE devices and by the wav data chunk.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, 2*len(b.Samples))
	for i, s := range b.Samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}

// DataSize takes audio attributes describing PCM audio data and returns the
// size of that data for a given period in seconds.
func DataSize(rate, channels, bitDepth uint, period float64) int {
	return int(float64(channels) * float64(rate) * float64(bitDepth/8) * period)
}
