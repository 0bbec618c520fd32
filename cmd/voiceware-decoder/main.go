/*
NAME
  voiceware-decoder - decodes audio messages from Nortel Millennium
  VoiceWare ROM dumps.

AUTHORS
  Alan Noble <alan@ausocean.org>
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package voiceware-decoder is a command-line program for decoding the
// audio messages of a Nortel Millennium VoiceWare ROM image. Messages
// stored as uPD7759 ADPCM command streams are decoded to wav files with
// embedded metadata; raw PCM messages are saved unchanged. With --list the
// ROM contents are printed in mapping-file format instead.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ausocean/utils/logging"
	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/hharte/voiceware/container/voiceware"
	"github.com/hharte/voiceware/extract"
)

const progName = "voiceware-decoder"

// Build information, set via the linker.
var (
	version = "local"
	commit  = "local"
)

// Log rotation defaults for --log-file.
const (
	logMaxSize   = 500 // MB
	logMaxBackup = 10
	logMaxAge    = 28 // days
)

func main() {
	var (
		mapPath = pflag.StringP("map", "m", "", "path to a tab-delimited mapping file naming messages")
		target  = pflag.IntP("index", "i", -1, "decode only the message with this absolute index")
		list    = pflag.BoolP("list", "l", false, "list messages in mapping-file format instead of decoding")
		quiet   = pflag.BoolP("quiet", "q", false, "suppress informational output; overrides --verbose")
		verbose = pflag.BoolP("verbose", "v", false, "enable debugging output")
		outDir  = pflag.StringP("out-dir", "o", "", "directory for output files; the working directory if empty")
		logFile = pflag.String("log-file", "", "also write the log to this file, with rotation")
		showVer = pflag.Bool("version", false, "print version information and exit")
		help    = pflag.BoolP("help", "h", false, "display help text")
	)
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s <rom_filepath> [flags]\n", progName)
		fmt.Fprintf(os.Stderr, "Decodes Nortel Millennium VoiceWare ROM files (NEC uPD7759 ADPCM).\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		return
	}
	if *showVer {
		fmt.Printf("%s %s (%s)\n", progName, version, commit)
		return
	}

	// Quiet overrides verbose.
	level := int8(logging.Info)
	if *verbose {
		level = int8(logging.Debug)
	}
	if *quiet {
		level = int8(logging.Error)
	}

	var dst io.Writer = os.Stderr
	if *logFile != "" {
		dst = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   *logFile,
			MaxSize:    logMaxSize,
			MaxBackups: logMaxBackup,
			MaxAge:     logMaxAge,
		})
	}
	log := logging.New(level, dst, true)

	if pflag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "ERROR: exactly one input ROM filepath is required")
		pflag.Usage()
		os.Exit(1)
	}
	romPath := pflag.Arg(0)
	base := filepath.Base(romPath)

	if *list && *target >= 0 {
		log.Info("option --index ignored when --list is specified")
		*target = -1
	}

	log.Info("Nortel Millennium VoiceWare decoder", "version", version, "commit", commit)
	log.Info("input ROM", "path", romPath, "artist", base)

	var table *voiceware.MapTable
	if *mapPath != "" {
		log.Info("mapping file", "path", *mapPath)
		var err error
		table, err = voiceware.LoadMap(*mapPath)
		if err != nil {
			log.Error("could not load mappings", "error", err.Error())
			os.Exit(1)
		}
		log.Debug("loaded mappings", "count", table.Len())
	}

	rom, err := os.ReadFile(romPath)
	if err != nil {
		log.Error("could not read ROM file", "path", romPath, "error", err.Error())
		os.Exit(1)
	}
	if len(rom) == 0 {
		log.Error("ROM file is empty", "path", romPath)
		os.Exit(1)
	}
	log.Debug("ROM loaded", "bytes", len(rom))

	e := &extract.Extractor{
		ROM:  rom,
		Name: base,
		Map:  table,
		Log:  log,
		Sink: &extract.FileSink{Dir: *outDir, Log: log},
	}

	switch {
	case *list:
		log.Info("listing messages")
		out := io.Writer(os.Stdout)
		if *quiet {
			out = io.Discard
		}
		err = e.List(out)
	case *target >= 0:
		log.Info("decoding target message", "index", *target)
		err = e.Decode(*target)
	default:
		log.Info("decoding all messages")
		err = e.Decode(-1)
	}
	if err != nil {
		log.Error("processing failed", "error", err.Error())
		os.Exit(1)
	}
	log.Info("processing finished")
}
