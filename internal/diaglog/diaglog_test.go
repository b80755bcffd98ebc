package diaglog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var fixed = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixed }

func TestLoggerAppendsToSink(t *testing.T) {
	var got []string
	sink := SinkFunc(func(_ context.Context, at time.Time, msg string) error {
		assert.Equal(t, fixed, at)
		got = append(got, msg)
		return nil
	})
	l := New(sink, nil, WithClock(clock))

	l.Log(context.Background(), "Received form submission")
	l.Logf(context.Background(), "Processing set %d", 2)

	assert.Equal(t, []string{"Received form submission", "Processing set 2"}, got)
}

func TestLoggerFallsBackOnSinkFailure(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sink := SinkFunc(func(context.Context, time.Time, string) error {
		return errors.New("quota exceeded")
	})
	l := New(sink, zap.New(core), WithClock(clock))

	assert.NotPanics(t, func() { l.Log(context.Background(), "hello") })

	warn := logs.FilterMessage("diagnostic sink failure").All()
	require.Len(t, warn, 1)
	assert.Equal(t, "hello", warn[0].ContextMap()["message"])
}

func TestLoggerWithoutSinkUsesProcessLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := New(nil, zap.New(core))
	l.Log(context.Background(), "only here")
	assert.Equal(t, 1, logs.FilterMessage("only here").Len())
	assert.Error(t, l.Probe(context.Background(), "x"))
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Log(context.Background(), "a")
		l.Logf(context.Background(), "b %d", 1)
	})
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriterSink(&buf)
	require.NoError(t, sink.Append(context.Background(), fixed, "first"))
	require.NoError(t, sink.Append(context.Background(), fixed, "second"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var e jsonlEntry
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &e))
	assert.Equal(t, "second", e.Message)
	assert.Equal(t, "2025-03-14T09:30:00Z", e.Timestamp)
}

func TestOpenJSONLCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "diag.jsonl")
	sink, f, err := OpenJSONL(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, sink.Append(context.Background(), fixed, "x"))
}

func TestXLSXSinkAppendsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diag.xlsx")
	sink := NewXLSXSink(path, "DebugLog")

	require.NoError(t, sink.Append(context.Background(), fixed, "one"))
	require.NoError(t, sink.Append(context.Background(), fixed, "two"))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("DebugLog")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"2025-03-14T09:30:00Z", "one"}, rows[0])
	assert.Equal(t, "two", rows[1][1])
}

func TestXLSXSinkAddsMissingSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diag.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	sink := NewXLSXSink(path, "")
	require.NoError(t, sink.Append(context.Background(), fixed, "created"))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("DebugLog")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "created", rows[0][1])
}
