/*
NAME
  upd7759_test.go

DESCRIPTION
  upd7759_test.go contains tests for the uPD7759 ADPCM command-stream
  decoder.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package upd7759

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"pgregory.net/rapid"

	"github.com/hharte/voiceware/codec/pcm"
)

// decode runs a fresh decoder over src from offset 0.
func decode(t *testing.T, src []byte) (*pcm.Buffer, int, error) {
	t.Helper()
	var buf pcm.Buffer
	pos, err := NewDecoder().Decode(src, 0, &buf)
	return &buf, pos, err
}

func TestEndOfMessage(t *testing.T) {
	buf, pos, err := decode(t, []byte{0x00})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("got %d samples, want 0", buf.Len())
	}
	if pos != 1 {
		t.Errorf("got end position %d, want 1", pos)
	}
}

func TestSilence(t *testing.T) {
	buf, _, err := decode(t, []byte{0x05, 0x00})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Len() != 40 {
		t.Fatalf("got %d samples, want 40", buf.Len())
	}
	for i, s := range buf.Samples {
		if s != 0 {
			t.Errorf("sample %d is %d, want 0", i, s)
		}
	}
}

func TestShortBlock(t *testing.T) {
	src := make([]byte, 0, 130)
	src = append(src, 0x40)
	src = append(src, make([]byte, 128)...)
	src = append(src, 0x00)

	buf, _, err := decode(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Len() != 256 {
		t.Fatalf("got %d samples, want 256", buf.Len())
	}
	for i, s := range buf.Samples {
		if s != 0 {
			t.Errorf("sample %d is %d, want 0", i, s)
		}
	}
}

// TestLongBlock follows four nibbles through the predictor by hand.
func TestLongBlock(t *testing.T) {
	buf, _, err := decode(t, []byte{0x80, 0x03, 0x45, 0x67, 0x00})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int16{3 << 7, 9 << 7, 22 << 7, 51 << 7}
	if diff := cmp.Diff(want, buf.Samples); diff != "" {
		t.Errorf("unexpected samples (-want +got):\n%s", diff)
	}
}

// TestLongBlockOddCount checks that an odd nibble count consumes only the
// high nibble of the final byte.
func TestLongBlockOddCount(t *testing.T) {
	buf, pos, err := decode(t, []byte{0x80, 0x00, 0x4f, 0x00})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int16{3 << 7}
	if diff := cmp.Diff(want, buf.Samples); diff != "" {
		t.Errorf("unexpected samples (-want +got):\n%s", diff)
	}
	if pos != 4 {
		t.Errorf("got end position %d, want 4", pos)
	}
}

// TestRepeatNone checks that a repeat command with a zero repeat count is
// equivalent to a long block.
func TestRepeatNone(t *testing.T) {
	long, _, err := decode(t, []byte{0x80, 0x02, 0x45, 0x60, 0x00})
	if err != nil {
		t.Fatalf("unexpected error decoding long block: %v", err)
	}
	rep, _, err := decode(t, []byte{0xc0, 0x02, 0x45, 0x60, 0x00})
	if err != nil {
		t.Fatalf("unexpected error decoding repeat block: %v", err)
	}
	if diff := cmp.Diff(long.Samples, rep.Samples); diff != "" {
		t.Errorf("repeat r=0 differs from long block (-long +repeat):\n%s", diff)
	}
}

// TestRepeatOnce checks that r=1 plays the block twice with the codec state
// carried from the first play into the second.
func TestRepeatOnce(t *testing.T) {
	buf, _, err := decode(t, []byte{0xc8, 0x01, 0x44, 0x00})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// First play from state 0: diffs 3 then 4. Replay of the same byte
	// continues from state 2: diffs 5 then 6.
	want := []int16{3 << 7, 7 << 7, 12 << 7, 18 << 7}
	if diff := cmp.Diff(want, buf.Samples); diff != "" {
		t.Errorf("unexpected samples (-want +got):\n%s", diff)
	}
}

// TestRepeatFour checks the sample count for a higher repeat count.
func TestRepeatFour(t *testing.T) {
	// 0xe0: r = (0xe0>>3)&7 = 4, so five plays of a two-nibble block.
	buf, _, err := decode(t, []byte{0xe0, 0x01, 0x44, 0x00})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Len() != 10 {
		t.Errorf("got %d samples, want 10", buf.Len())
	}
}

func TestTruncation(t *testing.T) {
	tests := []struct {
		name string
		src  []byte
	}{
		{"empty stream", nil},
		{"missing block length", []byte{0x80}},
		{"missing repeat length", []byte{0xc8}},
		{"data pending", []byte{0x42}},
		{"data short", []byte{0x80, 0x05, 0x11}},
		{"no end command", []byte{0x01}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, _, err := decode(t, test.src)
			if !errors.Is(err, ErrTruncated) {
				t.Errorf("got err %v, want ErrTruncated", err)
			}
		})
	}
}

// TestDecodeOffset checks that decoding starts at the given offset and
// reports the position just past the end command.
func TestDecodeOffset(t *testing.T) {
	src := []byte{0xff, 0xff, 0x01, 0x00, 0xff}
	var buf pcm.Buffer
	pos, err := NewDecoder().Decode(src, 2, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Len() != 8 {
		t.Errorf("got %d samples, want 8", buf.Len())
	}
	if pos != 4 {
		t.Errorf("got end position %d, want 4", pos)
	}
}

// TestDecodeArbitrary drives the decoder with arbitrary bytes. Whatever the
// input, it must terminate without panicking and leave the codec state
// inside the table bounds.
func TestDecodeArbitrary(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		src := rapid.SliceOfN(rapid.Byte(), 0, 4096).Draw(t, "src")
		d := NewDecoder()
		var buf pcm.Buffer
		_, err := d.Decode(src, 0, &buf)
		if err != nil && !errors.Is(err, ErrTruncated) && !errors.Is(err, pcm.ErrBufferLimit) {
			t.Fatalf("unexpected error kind: %v", err)
		}
		if d.state < 0 || d.state > maxState {
			t.Fatalf("state %d outside [0,%d]", d.state, maxState)
		}
	})
}

// TestSilenceLeavesState checks that silence commands do not disturb the
// predictor.
func TestSilenceLeavesState(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := byte(rapid.IntRange(0x01, 0x3f).Draw(t, "c"))
		d := NewDecoder()
		var buf pcm.Buffer
		_, err := d.Decode([]byte{c, 0x00}, 0, &buf)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if buf.Len() != int(c)*8 {
			t.Fatalf("got %d samples, want %d", buf.Len(), int(c)*8)
		}
		if d.sample != 0 || d.state != 0 {
			t.Fatalf("silence moved codec state to (%d, %d)", d.sample, d.state)
		}
	})
}
