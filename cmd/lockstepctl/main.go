// Command lockstepctl is a unified CLI for the lockstep engine.
//
// Usage:
//
//	lockstepctl <command> [options]
//
// Commands:
//
//	codec      Decode a hex-encoded stream of event records
//	simulate   Run a headless deterministic simulation over N frames
//	serve      Host a lockstep session and accept peer connections
package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"

	"github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/log"
)

var version = "dev"

type globalOptions struct {
	Version func() `short:"V" long:"version" description:"Print version and exit"`
	Verbose bool   `short:"v" long:"verbose" description:"Enable debug logging to stderr"`
}

// globals holds the parsed top-level flags. Subcommand Execute methods
// read globals.Verbose to decide whether to install the zerolog adapter;
// by the time go-flags invokes a subcommand's Execute, global options
// have already been parsed into this struct.
var globals globalOptions

func useVerboseLogging() {
	if !globals.Verbose {
		return
	}
	zlog := zerolog.New(os.Stderr).With().Timestamp().Logger()
	log.SetSink(log.NewZerologSink(zlog))
}

func main() {
	globals.Version = func() {
		fmt.Printf("lockstepctl %s\n", version)
		os.Exit(0)
	}

	parser := flags.NewParser(&globals, flags.Default)
	parser.Name = "lockstepctl"
	parser.LongDescription = "A toolkit for working with the lockstep engine's event stream and sessions"

	addCodecCommand(parser)
	addSimulateCommand(parser)
	addServeCommand(parser)

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
			if flagsErr.Type == flags.ErrCommandRequired {
				parser.WriteHelp(os.Stderr)
				os.Exit(1)
			}
		}
		os.Exit(1)
	}
}
