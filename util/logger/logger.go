package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/wiberlin/isds-bitcoin-prototype/interfaces"
)

var log = zerolog.Nop()

// Initialize sets the process-wide simulation logger. With a nil file the
// logger writes to stdout only; with printToConsole it tees to both.
func Initialize(file *os.File, printToConsole bool, level zerolog.Level) {
	var w io.Writer
	switch {
	case file == nil:
		w = zerolog.ConsoleWriter{Out: os.Stdout}
	case printToConsole:
		w = io.MultiWriter(file, zerolog.ConsoleWriter{Out: os.Stdout})
	default:
		w = file
	}
	log = zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func Log() *zerolog.Logger {
	return &log
}

// Sim logs one simulation-level line stamped with virtual time.
func Sim(now interfaces.SimSeconds, text string) {
	log.Info().Float64("simTime", float64(now)).Msg(text)
}

// HandlerFailed records a protocol-handler failure; per the error model the
// failure is logged with its context and otherwise ignored.
func HandlerFailed(now interfaces.SimSeconds, protocol string, node string, kind string, err error) {
	log.Warn().
		Float64("simTime", float64(now)).
		Str("protocol", protocol).
		Str("node", node).
		Str("event", kind).
		Err(err).
		Msg("protocol handler failed")
}

// CommandFailed records a failed topology command.
func CommandFailed(now interfaces.SimSeconds, command string, err error) {
	log.Warn().
		Float64("simTime", float64(now)).
		Str("command", command).
		Err(err).
		Msg("command failed")
}
