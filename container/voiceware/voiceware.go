/*
NAME
  voiceware.go

DESCRIPTION
  voiceware.go contains a walker over the message structure of Nortel
  Millennium VoiceWare audio ROMs.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package voiceware provides traversal of Nortel Millennium VoiceWare
// audio ROM images and the message mapping tables that name their contents.
//
// A ROM is a sequence of 128 KiB segments. Each segment starts with a
// one-byte last-message index and a four-byte magic sentinel, followed by a
// table of big-endian 16-bit word offsets, one per message. A message
// payload begins at twice its word offset from the segment start; its first
// byte selects the payload encoding.
package voiceware

import (
	"encoding/binary"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"
)

const (
	// SegmentSize is the fixed size of a ROM segment in bytes.
	SegmentSize = 131072

	// headerSize covers the last-message index byte and the magic.
	headerSize = 5
)

// Magic is the sentinel that follows the last-message index in every
// segment header.
var Magic = [4]byte{0x5a, 0xa5, 0x69, 0x55}

// Message payload modes.
const (
	ModeADPCM = 0x00
	ModePCM   = 0x40
)

var (
	// ErrNoSegments is returned when the ROM does not start with a valid
	// segment header.
	ErrNoSegments = errors.New("no valid segment header at start of ROM")

	// ErrTableBounds is returned when a segment's offset table runs past
	// the segment or the end of the ROM.
	ErrTableBounds = errors.New("offset table exceeds segment bounds")
)

// Record locates one message within the ROM.
type Record struct {
	Segment  int // Segment index.
	Index    int // Message index within the segment.
	Absolute int // Message index across all segments.
	Start    int // Segment-relative byte offset of the mode byte.
	End      int // Segment-relative byte offset of the next message, or SegmentSize.
}

// ByteRange returns the absolute byte range of the record's payload within
// a ROM of n bytes, with the high end clamped to n. The low end may be out
// of range for a corrupt offset table; callers must check.
func (r Record) ByteRange(n int) (lo, hi int) {
	lo = r.Segment*SegmentSize + r.Start
	hi = r.Segment*SegmentSize + r.End
	if hi > n {
		hi = n
	}
	return lo, hi
}

// Walker steps through the messages of a ROM image in segment order,
// in the manner of bufio.Scanner. Next advances to the following message;
// Record returns the current one. After Next returns false, Err reports
// the error that ended the walk, if any.
type Walker struct {
	rom []byte
	log logging.Logger

	seg   int
	table []uint16
	k     int
	abs   int
	rec   Record
	done  bool
	err   error
}

// NewWalker returns a Walker over rom.
func NewWalker(rom []byte, l logging.Logger) *Walker {
	return &Walker{rom: rom, log: l, seg: -1}
}

// Next advances to the next message record. It returns false when the ROM
// is exhausted or an error ends the walk.
func (w *Walker) Next() bool {
	if w.done {
		return false
	}
	for w.table == nil || w.k >= len(w.table) {
		if !w.nextSegment() {
			w.done = true
			return false
		}
	}

	off := 2 * int(w.table[w.k])
	end := SegmentSize
	if w.k+1 < len(w.table) {
		end = 2 * int(w.table[w.k+1])
	}
	w.rec = Record{
		Segment:  w.seg,
		Index:    w.k,
		Absolute: w.abs,
		Start:    off,
		End:      end,
	}
	w.k++
	w.abs++
	return true
}

// nextSegment loads the offset table of the following segment. It returns
// false at the end of the walkable ROM, setting w.err for fatal container
// damage.
func (w *Walker) nextSegment() bool {
	w.seg++
	w.k = 0
	w.table = nil

	start := w.seg * SegmentSize
	if start >= len(w.rom) {
		return false
	}
	w.log.Debug("processing segment", "segment", w.seg, "offset", start)

	if start+headerSize > len(w.rom) {
		if w.seg == 0 {
			w.err = errors.Wrap(ErrNoSegments, "ROM too small for a segment header")
			return false
		}
		w.log.Debug("incomplete segment data at end of ROM, stopping", "segment", w.seg)
		return false
	}

	last := w.rom[start]
	if [4]byte(w.rom[start+1:start+headerSize]) != Magic {
		if w.seg == 0 {
			w.err = errors.Wrap(ErrNoSegments, "bad magic in segment 0")
			return false
		}
		w.log.Debug("bad magic, assuming end of ROM data", "segment", w.seg)
		return false
	}

	n := int(last) + 1
	limit := len(w.rom) - start
	if limit > SegmentSize {
		limit = SegmentSize
	}
	if headerSize+2*n > limit {
		w.err = errors.Wrapf(ErrTableBounds, "segment %d, %d messages", w.seg, n)
		return false
	}

	w.table = make([]uint16, n)
	for k := 0; k < n; k++ {
		w.table[k] = binary.BigEndian.Uint16(w.rom[start+headerSize+2*k:])
	}
	w.log.Debug("segment header ok", "segment", w.seg, "messages", n)
	return true
}

// Record returns the record produced by the last call to Next.
func (w *Walker) Record() Record { return w.rec }

// Err returns the error, if any, that ended the walk.
func (w *Walker) Err() error { return w.err }
