package testutil

import (
	"io"
	"log/slog"
)

// NopLogger keeps service constructors satisfied in tests without
// spraying JSON into the test output.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
