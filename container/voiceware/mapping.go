/*
NAME
  mapping.go

DESCRIPTION
  mapping.go contains loading and lookup of VoiceWare message mapping
  files, which assign output names and comments to messages.

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
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// MapEntry names one message. Comment is empty when the map line carried
// none.
type MapEntry struct {
	Segment int
	Index   int
	Name    string
	Comment string
}

// MapTable is a set of MapEntry keyed by (segment, index). Adding an entry
// with a key already present replaces the earlier entry.
type MapTable struct {
	entries []MapEntry
}

// Add inserts e, replacing any entry with the same key.
func (t *MapTable) Add(e MapEntry) {
	for i, have := range t.entries {
		if have.Segment == e.Segment && have.Index == e.Index {
			t.entries[i] = e
			return
		}
	}
	t.entries = append(t.entries, e)
}

// Lookup returns the entry for the given message key.
func (t *MapTable) Lookup(segment, index int) (MapEntry, bool) {
	if t == nil {
		return MapEntry{}, false
	}
	for _, e := range t.entries {
		if e.Segment == segment && e.Index == index {
			return e, true
		}
	}
	return MapEntry{}, false
}

// Len returns the number of entries in the table.
func (t *MapTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// LoadMap reads a mapping file from path. See ParseMap for the format.
func LoadMap(path string) (*MapTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening mapping file")
	}
	defer f.Close()
	t, err := ParseMap(f)
	return t, errors.Wrapf(err, "mapping file %s", path)
}

// ParseMap parses a tab-delimited mapping. Each data line is
//
//	SegIdx<TAB>MsgIdxInSeg<TAB>FilenameBase[<TAB>Comment]
//
// with 0-based decimal indices. Blank lines and lines whose first
// non-whitespace character is '#' are skipped. Trailing whitespace is
// stripped from the filename base; the comment is stripped of surrounding
// whitespace and of a single leading '#'. A malformed line fails the whole
// parse and no table is returned.
func ParseMap(r io.Reader) (*MapTable, error) {
	var t MapTable
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimLeftFunc(sc.Text(), unicode.IsSpace)
		if text == "" || text[0] == '#' {
			continue
		}

		fields := strings.SplitN(text, "\t", 4)
		if len(fields) < 3 {
			return nil, errors.Errorf("line %d: missing tabs", line)
		}

		seg, err := strconv.Atoi(fields[0])
		if err != nil || seg < 0 {
			return nil, errors.Errorf("line %d: invalid segment index %q", line, fields[0])
		}
		idx, err := strconv.Atoi(fields[1])
		if err != nil || idx < 0 {
			return nil, errors.Errorf("line %d: invalid message index %q", line, fields[1])
		}

		e := MapEntry{
			Segment: seg,
			Index:   idx,
			Name:    strings.TrimRightFunc(fields[2], unicode.IsSpace),
		}
		if len(fields) == 4 {
			e.Comment = cleanComment(fields[3])
		}
		t.Add(e)
	}
	err := sc.Err()
	if err != nil {
		return nil, errors.Wrap(err, "reading mapping")
	}
	return &t, nil
}

// cleanComment strips surrounding whitespace and one leading '#' together
// with the whitespace that follows it.
func cleanComment(s string) string {
	s = strings.TrimRightFunc(s, unicode.IsSpace)
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	if strings.HasPrefix(s, "#") {
		s = strings.TrimLeftFunc(s[1:], unicode.IsSpace)
	}
	return s
}
