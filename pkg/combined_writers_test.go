package pkg

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestCombinedWriter_Write(t *testing.T) {
	logFile := &strings.Builder{}
	logFile.WriteString("rotated|")
	stdout := &strings.Builder{}

	cw := NewCombinedWriter(logFile, stdout)
	require.NotNil(t, cw)
	assert.Len(t, cw.Writers, 2)

	line1 := "level=info msg=\"charts refreshed\"\n"
	line2 := "level=warn msg=\"month bucket degraded\"\n"
	n, err := cw.Write([]byte(line1))
	require.NoError(t, err)
	assert.Equal(t, len(line1), n)
	n, err = cw.Write([]byte(line2))
	require.NoError(t, err)
	assert.Equal(t, len(line2), n)

	assert.Equal(t, "rotated|"+line1+line2, logFile.String())
	assert.Equal(t, line1+line2, stdout.String())
}

func TestCombinedWriter_Write_WithErrors(t *testing.T) {
	sb := &strings.Builder{}
	cw := NewCombinedWriter(&faultyWriter{msg: "disk full"}, sb, &faultyWriter{msg: "closed pipe"})

	msg := "a message"
	n, err := cw.Write([]byte(msg))
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.ErrorContains(t, err, "disk full")
	assert.ErrorContains(t, err, "closed pipe")

	// written only to the string builder
	assert.Equal(t, len(msg), n)
	assert.Equal(t, msg, sb.String())
}

type faultyWriter struct {
	msg string
}

func (fw *faultyWriter) Write([]byte) (int, error) {
	return 0, errors.New(fw.msg)
}
