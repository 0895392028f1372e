package util

import (
	"io"
	"log/slog"
)

// CloseLogged closes c on a path that already returns another error, so a
// close failure is logged instead of returned.
func CloseLogged(log *slog.Logger, what string, c io.Closer) {
	if err := c.Close(); err != nil {
		log.Warn("close.failed", "what", what, "err", err)
	}
}
