/*
NAME
  wav.go

DESCRIPTION
  wav.go contains functions for writing wav files with LIST-INFO metadata.

AUTHOR
  David Sutton <davidsutton@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package wav provides a writer for RIFF/WAVE audio with embedded
// LIST-INFO metadata. Chunks are laid out in the order fmt, LIST, data.
package wav

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
)

// ConvertFormat converts the common name for a format in a string type to
// the specific integer required by the wav encoder.
var ConvertFormat = map[string]int{"pcm": PCMFormat}

const PCMFormat = 1 // PCMFormat defines the value for pcm audio as defined by the wav std.

var (
	errInvalidFormat   = errors.New("invalid or no format defined")
	errInvalidRate     = errors.New("invalid or no sample rate defined")
	errInvalidChannels = errors.New("invalid or no number of channels defined")
	errInvalidBitDepth = errors.New("invalid or no bit depth defined")

	// ErrDataTooLarge is returned when the data chunk size would not fit
	// in the 32-bit RIFF size field.
	ErrDataTooLarge = errors.New("wav data chunk exceeds 4GiB limit")
)

// Metadata defines the format of the audio.
type Metadata struct {
	AudioFormat int
	Channels    int
	SampleRate  int
	BitDepth    int
}

// Info holds the LIST-INFO tags embedded in the file. Comment is optional;
// the remaining fields are always written, in the order of the struct.
type Info struct {
	Album   string // IALB
	Artist  string // IART
	Title   string // INAM
	Track   string // ITRK
	Created string // ICRD
	Comment string // ICMT, omitted when empty
}

// WAV describes a wav file to be written.
type WAV struct {
	Metadata Metadata
	Info     Info
}

// infoChunks returns the INFO sub-chunks in on-disk order.
func (w *WAV) infoChunks() [][2]string {
	chunks := [][2]string{
		{"IALB", w.Info.Album},
		{"IART", w.Info.Artist},
		{"INAM", w.Info.Title},
		{"ITRK", w.Info.Track},
		{"ICRD", w.Info.Created},
	}
	if w.Info.Comment != "" {
		chunks = append(chunks, [2]string{"ICMT", w.Info.Comment})
	}
	return chunks
}

// subChunkSize returns the on-disk size of an INFO sub-chunk: id, size
// field, the string with its NUL terminator, and a pad byte to even length.
func subChunkSize(text string) uint32 {
	n := uint32(len(text)) + 1 // Include NUL terminator.
	if n%2 != 0 {
		n++
	}
	return 8 + n
}

// Encode writes the samples and metadata as a complete wav file to dst.
func (w *WAV) Encode(dst io.Writer, samples []int16) error {
	if w.Metadata.AudioFormat != PCMFormat {
		return errInvalidFormat
	}
	if w.Metadata.Channels == 0 {
		return errInvalidChannels
	}
	if w.Metadata.SampleRate == 0 {
		return errInvalidRate
	}
	if w.Metadata.BitDepth == 0 {
		return errInvalidBitDepth
	}

	bytesPerSample := uint32(w.Metadata.BitDepth / 8)
	dataSize := uint64(len(samples)) * uint64(bytesPerSample)
	if dataSize > math.MaxUint32 {
		return ErrDataTooLarge
	}
	paddedDataSize := uint32(dataSize)
	if paddedDataSize%2 != 0 {
		paddedDataSize++
	}

	// LIST data: the "INFO" type id plus each sub-chunk.
	listSize := uint32(4)
	for _, c := range w.infoChunks() {
		listSize += subChunkSize(c[1])
	}

	const fmtSize = 16
	riffSize := 4 + (8 + fmtSize) + (8 + listSize) + (8 + paddedDataSize)

	buf := make([]byte, 0, 12+8+fmtSize+8+listSize+8+paddedDataSize)
	buf = append(buf, "RIFF"...)
	buf = binary.LittleEndian.AppendUint32(buf, riffSize)
	buf = append(buf, "WAVE"...)

	buf = append(buf, "fmt "...)
	buf = binary.LittleEndian.AppendUint32(buf, fmtSize)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(w.Metadata.AudioFormat))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(w.Metadata.Channels))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(w.Metadata.SampleRate))
	byteRate := uint32(w.Metadata.SampleRate*w.Metadata.Channels) * bytesPerSample
	buf = binary.LittleEndian.AppendUint32(buf, byteRate)
	blockAlign := uint16(w.Metadata.Channels) * uint16(bytesPerSample)
	buf = binary.LittleEndian.AppendUint16(buf, blockAlign)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(w.Metadata.BitDepth))

	buf = append(buf, "LIST"...)
	buf = binary.LittleEndian.AppendUint32(buf, listSize)
	buf = append(buf, "INFO"...)
	for _, c := range w.infoChunks() {
		buf = append(buf, c[0]...)
		size := uint32(len(c[1])) + 1 // Include NUL terminator.
		buf = binary.LittleEndian.AppendUint32(buf, size)
		buf = append(buf, c[1]...)
		buf = append(buf, 0)
		if size%2 != 0 {
			buf = append(buf, 0)
		}
	}

	buf = append(buf, "data"...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(dataSize))
	for _, s := range samples {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(s))
	}
	if paddedDataSize != uint32(dataSize) {
		buf = append(buf, 0)
	}

	_, err := dst.Write(buf)
	return errors.Wrap(err, "writing wav")
}
