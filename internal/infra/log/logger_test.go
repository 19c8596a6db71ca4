package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	prod := newLogger(&buf, "prod")
	prod.Debug().Msg("hidden")
	assert.Zero(t, buf.Len(), "debug is suppressed outside dev")

	dev := newLogger(&buf, "dev")
	dev.Debug().Msg("visible")
	assert.Contains(t, buf.String(), `"service":"webapp"`)
	assert.Contains(t, buf.String(), "visible")
}
