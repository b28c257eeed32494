package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// NewLogger returns a zerolog logger at the given level ("debug", "info",
// ...). It writes human-readable console output when stdout is a terminal and
// JSON lines otherwise.
func NewLogger(level string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	zerolog.CallerMarshalFunc = shortCaller
	return New(out, level).With().Caller().Logger()
}

// New returns a timestamped logger writing to w. An unknown level falls back
// to info.
func New(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

func shortCaller(pc uintptr, file string, line int) string {
	short := file
	for i := len(file) - 1; i > 0; i-- {
		if file[i] == '/' {
			short = file[i+1:]
			break
		}
	}
	// pad for alignment
	return fmt.Sprintf("%-24s", fmt.Sprintf("%s:%d", short, line))
}
