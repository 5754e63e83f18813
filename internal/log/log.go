package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/slices"
)

// LogLevel is a pflag.Value naming a zerolog level.
type LogLevel string

const (
	TRACE    LogLevel = "trace"
	DEBUG    LogLevel = "debug"
	INFO     LogLevel = "info"
	WARN     LogLevel = "warn"
	ERROR    LogLevel = "error"
	DISABLED LogLevel = "disabled"
)

var Levels = []LogLevel{TRACE, DEBUG, INFO, WARN, ERROR, DISABLED}

// LogFile is the file opened by InitWithLogLevel, if any.
var LogFile *os.File

func (ll LogLevel) String() string {
	return string(ll)
}

func (ll *LogLevel) Set(v string) error {
	if !slices.Contains(Levels, LogLevel(v)) {
		return fmt.Errorf("must be one of %v", Levels)
	}
	*ll = LogLevel(v)
	return nil
}

func (ll LogLevel) Type() string {
	return "LogLevel"
}

// InitWithLogLevel points the global zerolog logger at stderr and, when
// logPath is set, also appends to that file.
func InitWithLogLevel(logLevel LogLevel, logPath string) error {
	level, err := strToLogLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to convert log level: %w", err)
	}

	writers := []io.Writer{
		&zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: zerolog.ConsoleWriter{Out: os.Stderr}},
			Level:  level,
		},
	}
	if logPath != "" {
		LogFile, err = os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0664)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, &zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: LogFile},
			Level:  level,
		})
	}

	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp().Logger()
	return nil
}

func strToLogLevel(ll LogLevel) (zerolog.Level, error) {
	if ll == DISABLED {
		return zerolog.Disabled, nil
	}
	if !slices.Contains(Levels, ll) {
		names := make([]string, 0, len(Levels))
		for _, l := range Levels {
			names = append(names, string(l))
		}
		return zerolog.NoLevel, fmt.Errorf("invalid log level (options: %s)", strings.Join(names, ", "))
	}
	return zerolog.ParseLevel(string(ll))
}
