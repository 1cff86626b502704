package utils

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitializeAppLog sets up logging to InfTrack.log plus a readable
// console stream.
func InitializeAppLog(debug bool) {
	logFile, err := os.OpenFile("InfTrack.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	var writer io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	if err == nil {
		writer = zerolog.MultiLevelWriter(writer, logFile)
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(writer).Level(level).With().Timestamp().Logger()
	log.Info().Msg("application started")
}
