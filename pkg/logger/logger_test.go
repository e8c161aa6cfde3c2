package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entries(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m), sc.Text())
		out = append(out, m)
	}
	return out
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn", "json")

	log.Debug("hidden")
	log.Info("hidden")
	log.Warnf("balance low for %s", "u1")
	log.Error("fill failed", errors.New("lock timeout"))

	got := entries(t, &buf)
	require.Len(t, got, 2)
	assert.Equal(t, "warn", got[0]["level"])
	assert.Equal(t, "balance low for u1", got[0]["message"])
	assert.Equal(t, "error", got[1]["level"])
	assert.Equal(t, "lock timeout", got[1]["error"])
	assert.Contains(t, got[1], "time")
}

func TestChildLoggersCarryFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug", "json").WithComponent("order_filler")

	log.WithFields(map[string]interface{}{"order_id": 42, "symbol": "BTC"}).Info("order filled")
	log.WithField("user_id", "u7").Debug("scan")
	log.Info("idle")

	got := entries(t, &buf)
	require.Len(t, got, 3)
	for _, e := range got {
		assert.Equal(t, "order_filler", e["component"])
	}
	assert.EqualValues(t, 42, got[0]["order_id"])
	assert.Equal(t, "BTC", got[0]["symbol"])
	assert.Equal(t, "u7", got[1]["user_id"])
	assert.NotContains(t, got[2], "order_id")
}

func TestLevelsAreIndependent(t *testing.T) {
	var quiet, loud bytes.Buffer
	NewWithWriter(&quiet, "error", "json")
	l := NewWithWriter(&loud, "debug", "json")

	l.Debug("still visible")
	assert.Len(t, entries(t, &loud), 1)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"fatal":   zerolog.FatalLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestPrettyFormatIsNotJSON(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf, "info", "pretty").Info("market refreshed")

	assert.Contains(t, buf.String(), "market refreshed")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestNopAndGlobal(t *testing.T) {
	Nop().Error("dropped", errors.New("x"))

	first := GetLogger()
	require.NotNil(t, first)
	assert.Same(t, first, GetLogger())
}
