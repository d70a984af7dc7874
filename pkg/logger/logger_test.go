package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) []Entry {
	t.Helper()
	var out []Entry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e Entry
		require.NoError(t, json.Unmarshal([]byte(line), &e))
		out = append(out, e)
	}
	return out
}

func TestLogger_LevelAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Level: LevelInfo}).With(Component("registry"))

	l.Debug("hidden")
	l.Info("achievement unlocked", UserID("u1"), Achievement("math_novice"), Points(90))
	l.Warn("observer failed", Err(errors.New("boom")))

	entries := decode(t, &buf)
	require.Len(t, entries, 2)

	assert.Equal(t, "INFO", entries[0].Level)
	assert.Equal(t, "achievement unlocked", entries[0].Message)
	assert.Equal(t, "registry", entries[0].Fields["component"])
	assert.Equal(t, "math_novice", entries[0].Fields["achievement"])
	assert.Equal(t, float64(90), entries[0].Fields["points"])
	assert.Empty(t, entries[0].Caller)

	assert.Equal(t, "WARN", entries[1].Level)
	assert.Equal(t, "boom", entries[1].Fields["error"])
}

func TestLogger_Caller(t *testing.T) {
	var buf bytes.Buffer
	New(Options{Output: &buf, Level: LevelDebug, AddCaller: true}).Error("failed")

	entries := decode(t, &buf)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Caller, "logger_test.go:"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, LevelError, ParseLevel("ERROR"))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}

func TestContext(t *testing.T) {
	l := Nop()
	assert.Same(t, l, FromContext(WithContext(context.Background(), l)))
	assert.NotNil(t, FromContext(context.Background()))
}
