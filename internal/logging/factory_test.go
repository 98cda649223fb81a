package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Formats(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{format: FormatText, want: "msg=hello"},
		{format: FormatJSON, want: `"msg":"hello"`},
		{format: FormatZerolog, want: `"message":"hello"`},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(tt.format, "info", &buf)
			require.NoError(t, err)

			l.Info(context.Background(), "hello")
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestNew_LevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(FormatZerolog, "warn", &buf)
	require.NoError(t, err)

	l.Info(context.Background(), "quiet")
	l.Warn(context.Background(), "loud")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestNew_RejectsUnknownInput(t *testing.T) {
	_, err := New("xml", "info", &bytes.Buffer{})
	require.Error(t, err)

	_, err = New(FormatText, "chatty", &bytes.Buffer{})
	require.Error(t, err)
}
