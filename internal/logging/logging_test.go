package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentLoggerUsesGlobalWriter(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, DEBUG)
	defer CloseLogger()

	l, err := NewLogger("mesher")
	require.NoError(t, err)

	l.Info("slot %d готов", 3)
	l.Trace("не должно попасть")

	out := buf.String()
	assert.Contains(t, out, "[INFO] [mesher] slot 3 готов")
	assert.NotContains(t, out, "не должно попасть")
}

func TestManagerReturnsSameLogger(t *testing.T) {
	a := GetComponentLogger("engine")
	b := GetComponentLogger("engine")
	assert.Same(t, a, b)
	assert.Contains(t, GetLoggerManager().ListComponents(), "engine")
	assert.NoError(t, GetLoggerManager().SetLogLevel("engine", WARN, WARN))
	assert.Error(t, GetLoggerManager().SetLogLevel("нет-такого", WARN, WARN))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("warning"))
	assert.Equal(t, INFO, ParseLevel("???"))
}

func TestNewLoggerRejectsEmptyName(t *testing.T) {
	_, err := NewLogger("")
	assert.Error(t, err)
}

func TestSetGlobalLevels(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, DEBUG)
	defer CloseLogger()

	SetGlobalLevels(ERROR, ERROR)
	Info("тихо")
	Error("громко")

	assert.NotContains(t, buf.String(), "тихо")
	assert.Contains(t, buf.String(), "громко")
}
