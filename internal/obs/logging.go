// Package obs sets up the structured logger every subsystem uses. The
// teacher runs on TinyGo and logs with the builtin print/println under a
// build tag; this module never targets a microcontroller, so it carries a
// real structured logger instead (see SPEC_FULL.md §3.3).
package obs

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// NewChannelLogger returns a logger tagged with the owning channel, the way
// the teacher tags every HAL log line with its device ID.
func NewChannelLogger(w io.Writer, channel int) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return zerolog.New(w).With().Timestamp().Int("channel", channel).Logger()
}

// NewLogger returns an untagged base logger, e.g. for the arbiter or cmd
// entry point.
func NewLogger(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return zerolog.New(w).With().Timestamp().Logger()
}
