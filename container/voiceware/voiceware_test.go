/*
NAME
  voiceware_test.go

DESCRIPTION
  voiceware_test.go contains tests for the VoiceWare ROM walker.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package voiceware

import (
	"encoding/binary"
	"io"
	"testing"

	"github.com/ausocean/utils/logging"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

func testLog() logging.Logger {
	return logging.New(logging.Error, io.Discard, true)
}

// segment builds a segment image with the given offset table, padded to
// size bytes.
func segment(table []uint16, size int) []byte {
	seg := make([]byte, size)
	seg[0] = byte(len(table) - 1)
	copy(seg[1:], Magic[:])
	for k, w := range table {
		binary.BigEndian.PutUint16(seg[headerSize+2*k:], w)
	}
	return seg
}

// collect drains a walker.
func collect(w *Walker) []Record {
	var recs []Record
	for w.Next() {
		recs = append(recs, w.Record())
	}
	return recs
}

func TestWalkSingleSegment(t *testing.T) {
	rom := segment([]uint16{3}, 16)
	w := NewWalker(rom, testLog())

	want := []Record{{Segment: 0, Index: 0, Absolute: 0, Start: 6, End: SegmentSize}}
	got := collect(w)
	if w.Err() != nil {
		t.Fatalf("unexpected error: %v", w.Err())
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected records (-want +got):\n%s", diff)
	}
}

func TestWalkMessageRanges(t *testing.T) {
	rom := segment([]uint16{8, 16}, 64)
	w := NewWalker(rom, testLog())

	want := []Record{
		{Segment: 0, Index: 0, Absolute: 0, Start: 16, End: 32},
		{Segment: 0, Index: 1, Absolute: 1, Start: 32, End: SegmentSize},
	}
	got := collect(w)
	if w.Err() != nil {
		t.Fatalf("unexpected error: %v", w.Err())
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected records (-want +got):\n%s", diff)
	}
}

// TestWalkSoftEnd checks that garbage after a full valid segment stops the
// walk without error.
func TestWalkSoftEnd(t *testing.T) {
	rom := segment([]uint16{3}, SegmentSize)
	junk := make([]byte, 32)
	for i := range junk {
		junk[i] = 0xff
	}
	rom = append(rom, junk...)

	w := NewWalker(rom, testLog())
	got := collect(w)
	if w.Err() != nil {
		t.Fatalf("unexpected error: %v", w.Err())
	}
	if len(got) != 1 {
		t.Errorf("got %d records, want 1", len(got))
	}
}

// TestWalkTwoSegments checks that absolute indices are contiguous across
// segments.
func TestWalkTwoSegments(t *testing.T) {
	rom := segment([]uint16{4, 8}, SegmentSize)
	rom = append(rom, segment([]uint16{3}, 32)...)

	w := NewWalker(rom, testLog())
	got := collect(w)
	if w.Err() != nil {
		t.Fatalf("unexpected error: %v", w.Err())
	}
	want := []Record{
		{Segment: 0, Index: 0, Absolute: 0, Start: 8, End: 16},
		{Segment: 0, Index: 1, Absolute: 1, Start: 16, End: SegmentSize},
		{Segment: 1, Index: 0, Absolute: 2, Start: 6, End: SegmentSize},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected records (-want +got):\n%s", diff)
	}
}

func TestWalkBadMagic(t *testing.T) {
	rom := []byte{0x00, 0xde, 0xad, 0xbe, 0xef, 0x00, 0x03}
	w := NewWalker(rom, testLog())
	if w.Next() {
		t.Error("walk produced a record from a ROM with bad magic")
	}
	if !errors.Is(w.Err(), ErrNoSegments) {
		t.Errorf("got err %v, want ErrNoSegments", w.Err())
	}
}

func TestWalkShortROM(t *testing.T) {
	w := NewWalker([]byte{0x00, 0x5a}, testLog())
	if w.Next() {
		t.Error("walk produced a record from a truncated ROM")
	}
	if !errors.Is(w.Err(), ErrNoSegments) {
		t.Errorf("got err %v, want ErrNoSegments", w.Err())
	}
}

// TestWalkTableOverrun checks that an offset table running past the end of
// the ROM is fatal.
func TestWalkTableOverrun(t *testing.T) {
	rom := make([]byte, 100)
	rom[0] = 0xff // 256 messages need 517 header bytes.
	copy(rom[1:], Magic[:])

	w := NewWalker(rom, testLog())
	if w.Next() {
		t.Error("walk produced a record from an overrunning table")
	}
	if !errors.Is(w.Err(), ErrTableBounds) {
		t.Errorf("got err %v, want ErrTableBounds", w.Err())
	}
}

func TestByteRange(t *testing.T) {
	r := Record{Segment: 1, Start: 6, End: SegmentSize}
	lo, hi := r.ByteRange(SegmentSize + 100)
	if lo != SegmentSize+6 {
		t.Errorf("got lo %d, want %d", lo, SegmentSize+6)
	}
	if hi != SegmentSize+100 {
		t.Errorf("got hi %d, want %d", hi, SegmentSize+100)
	}
}
