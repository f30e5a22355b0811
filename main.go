package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/habedi/cardidle/cmd"
	"github.com/habedi/cardidle/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const debugEnv = "DEBUG_CARDIDLE"

// main sets up logging and executes the root command.
func main() {
	configureLogLevelFromEnv()
	log.Logger = zerolog.New(newLogWriter(config.Dir())).With().Timestamp().Logger()
	cmd.Execute()
}

// configureLogLevelFromEnv enables debug logging when DEBUG_CARDIDLE is set to
// anything other than "", "0" or "false".
func configureLogLevelFromEnv() {
	switch os.Getenv(debugEnv) {
	case "", "0", "false":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// newLogWriter returns a rotating log file under dir. In debug mode the log is
// also written to stderr.
func newLogWriter(dir string) io.Writer {
	file := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "cardidle.log"),
		MaxSize:    5,
		MaxBackups: 3,
		MaxAge:     28,
	}
	if zerolog.GlobalLevel() > zerolog.DebugLevel {
		return file
	}
	return zerolog.MultiLevelWriter(file, zerolog.ConsoleWriter{Out: os.Stderr})
}
