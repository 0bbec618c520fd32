/*
NAME
  sink.go

DESCRIPTION
  sink.go contains the output destinations for extracted messages.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package extract

import (
	"os"
	"path/filepath"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/hharte/voiceware/codec/pcm"
	"github.com/hharte/voiceware/codec/wav"
)

// Sink receives the rendered form of each message. base is the output
// name without an extension.
type Sink interface {
	// WAV receives a decoded message with its metadata.
	WAV(base string, info wav.Info, buf *pcm.Buffer) error

	// Raw receives the untouched payload of a raw PCM message.
	Raw(base string, data []byte) error
}

// FileSink writes messages into a directory, as <base>.wav for decoded
// audio and <base>.pcm for raw payloads.
type FileSink struct {
	Dir string // Destination directory; the working directory if empty.
	Log logging.Logger
}

func (s *FileSink) path(name string) string {
	if s.Dir == "" {
		return name
	}
	return filepath.Join(s.Dir, name)
}

// WAV encodes buf and info as a wav file.
func (s *FileSink) WAV(base string, info wav.Info, buf *pcm.Buffer) error {
	path := s.path(base + ".wav")
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating wav file")
	}

	w := wav.WAV{
		Metadata: wav.Metadata{
			AudioFormat: wav.PCMFormat,
			Channels:    int(buf.Format.Channels),
			SampleRate:  int(buf.Format.Rate),
			BitDepth:    16,
		},
		Info: info,
	}
	err = w.Encode(f, buf.Samples)
	cerr := f.Close()
	if err != nil {
		return errors.Wrapf(err, "encoding %s", path)
	}
	if cerr != nil {
		return errors.Wrapf(cerr, "closing %s", path)
	}
	s.Log.Info("wrote wav", "path", path, "samples", buf.Len())
	return nil
}

// Raw writes data as a pcm file.
func (s *FileSink) Raw(base string, data []byte) error {
	path := s.path(base + ".pcm")
	err := os.WriteFile(path, data, 0644)
	if err != nil {
		return errors.Wrap(err, "writing raw pcm file")
	}
	s.Log.Info("wrote raw pcm", "path", path, "bytes", len(data))
	return nil
}
