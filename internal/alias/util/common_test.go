package util

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type closer struct{ err error }

func (c closer) Close() error { return c.err }

func TestCloseLogged(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	CloseLogged(log, "file", closer{})
	assert.Zero(t, buf.Len())

	CloseLogged(log, "file", closer{err: errors.New("boom")})
	assert.Contains(t, buf.String(), "close.failed")
	assert.Contains(t, buf.String(), "what=file")
	assert.Contains(t, buf.String(), "boom")
}
