/*
NAME
  extract.go

DESCRIPTION
  extract.go contains the message dispatcher: it walks a VoiceWare ROM and
  routes each message to decoding, raw passthrough, or listing.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package extract turns the messages of a VoiceWare ROM into output files
// or a mapping-format listing.
package extract

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/hharte/voiceware/codec/pcm"
	"github.com/hharte/voiceware/codec/upd7759"
	"github.com/hharte/voiceware/codec/wav"
	"github.com/hharte/voiceware/container/voiceware"
)

// Album is the IALB tag written to every decoded message.
const Album = "Nortel Millennium VoiceWare"

// DefaultRate is the sample rate of VoiceWare speech.
const DefaultRate = 8000

// Listing alignment: filenames are padded with tabs toward a 40-column
// comment field, assuming 8-column tab stops.
const (
	listAlignWidth = 40
	listTabWidth   = 8
)

// ErrTargetNotFound is returned by Decode when the requested absolute
// message index does not exist in the ROM.
var ErrTargetNotFound = errors.New("target message index not found")

// Extractor dispatches the messages of one ROM image.
type Extractor struct {
	ROM  []byte              // The ROM image.
	Name string              // Base name of the ROM file, used as the artist tag.
	Map  *voiceware.MapTable // Optional message names, may be nil.
	Log  logging.Logger
	Sink Sink // Destination for decoded and raw audio.
	Rate int  // Output sample rate; DefaultRate if zero.
}

func (e *Extractor) rate() int {
	if e.Rate == 0 {
		return DefaultRate
	}
	return e.Rate
}

// nameFor resolves the output name and comment for a record, falling back
// to message_<segment>_<index> when the map has no entry.
func (e *Extractor) nameFor(rec voiceware.Record) (name, comment string) {
	m, ok := e.Map.Lookup(rec.Segment, rec.Index)
	if ok {
		return m.Name, m.Comment
	}
	return fmt.Sprintf("message_%d_%03d", rec.Segment, rec.Index), ""
}

// Decode walks the ROM and renders each message through the extractor's
// sink. If target is non-negative only the message with that absolute
// index is rendered, and ErrTargetNotFound is returned if the walk ends
// without reaching it. Per-message failures are logged and skipped;
// container damage ends the walk with an error.
func (e *Extractor) Decode(target int) error {
	w := voiceware.NewWalker(e.ROM, e.Log)
	found := false
	for w.Next() {
		rec := w.Record()
		if target >= 0 && rec.Absolute != target {
			continue
		}
		e.process(rec)
		if target >= 0 {
			found = true
			break
		}
	}
	err := w.Err()
	if err != nil {
		return err
	}
	if target >= 0 && !found {
		return errors.Wrapf(ErrTargetNotFound, "index %d", target)
	}
	return nil
}

// process renders a single message. Failures here are per-message: they
// are logged and the walk continues.
func (e *Extractor) process(rec voiceware.Record) {
	lo, hi := rec.ByteRange(len(e.ROM))
	if lo >= len(e.ROM) {
		e.Log.Warning("message start out of bounds, skipping",
			"absolute", rec.Absolute, "segment", rec.Segment, "index", rec.Index, "offset", lo)
		return
	}
	mode := e.ROM[lo]
	name, comment := e.nameFor(rec)

	e.Log.Info("processing message", "absolute", rec.Absolute,
		"segment", rec.Segment, "index", rec.Index, "mode", mode, "offset", lo)

	switch mode {
	case voiceware.ModeADPCM:
		buf := pcm.Buffer{Format: pcm.BufferFormat{
			SFormat:  pcm.S16_LE,
			Rate:     uint(e.rate()),
			Channels: 1,
		}}
		_, err := upd7759.NewDecoder().Decode(e.ROM, lo+1, &buf)
		if err != nil {
			e.Log.Error("decoding failed, no wav written",
				"absolute", rec.Absolute, "error", err.Error())
			return
		}
		if buf.Len() == 0 {
			e.Log.Info("message produced no samples, no wav written", "absolute", rec.Absolute)
			return
		}
		info := wav.Info{
			Album:   Album,
			Artist:  e.Name,
			Title:   name,
			Track:   strconv.Itoa(rec.Absolute),
			Created: time.Now().Format("2006-01-02"),
			Comment: comment,
		}
		err = e.Sink.WAV(name, info, &buf)
		if err != nil {
			e.Log.Error("writing wav failed", "absolute", rec.Absolute, "error", err.Error())
		}

	case voiceware.ModePCM:
		if hi <= lo {
			e.Log.Warning("no valid data range for raw message, skipping", "absolute", rec.Absolute)
			return
		}
		err := e.Sink.Raw(name, e.ROM[lo:hi])
		if err != nil {
			e.Log.Error("writing raw pcm failed", "absolute", rec.Absolute, "error", err.Error())
		}

	default:
		e.Log.Warning("unknown message mode, skipping",
			"mode", mode, "absolute", rec.Absolute, "offset", lo)
	}
}

// List walks the ROM and writes one mapping-format line per message to w,
// preceded by a header naming the ROM.
func (e *Extractor) List(w io.Writer) error {
	_, err := fmt.Fprintf(w, "# ROM: %s\n\n", e.Name)
	if err != nil {
		return errors.Wrap(err, "writing listing header")
	}
	walker := voiceware.NewWalker(e.ROM, e.Log)
	for walker.Next() {
		_, err = io.WriteString(w, e.listLine(walker.Record()))
		if err != nil {
			return errors.Wrap(err, "writing listing")
		}
	}
	return walker.Err()
}

// listLine formats one listing line: indices and name, tab padding toward
// the comment column, then the comment field. Raw PCM messages are marked
// unless the map comment already mentions it.
func (e *Extractor) listLine(rec voiceware.Record) string {
	lo, _ := rec.ByteRange(len(e.ROM))
	name, comment := e.nameFor(rec)

	var mode byte
	modeOK := lo < len(e.ROM)
	if modeOK {
		mode = e.ROM[lo]
	} else {
		e.Log.Warning("cannot read mode byte for list entry, offset out of bounds",
			"segment", rec.Segment, "index", rec.Index)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d\t%d\t%s", rec.Segment, rec.Index, name)

	stops := len(name) / listTabWidth
	targetStops := (listAlignWidth + listTabWidth - 1) / listTabWidth
	tabs := 1
	if stops < targetStops {
		tabs = targetStops - stops
	}
	b.WriteString(strings.Repeat("\t", tabs))

	b.WriteByte('#')
	tagged := false
	if modeOK && mode == voiceware.ModePCM && !strings.Contains(comment, "(PCM)") {
		b.WriteString(" (PCM)")
		tagged = true
	}
	if comment != "" {
		b.WriteByte(' ')
		b.WriteString(comment)
	} else if !tagged {
		b.WriteByte(' ')
	}
	b.WriteByte('\n')
	return b.String()
}
