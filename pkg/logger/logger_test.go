package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type line struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func lines(t *testing.T, buf *bytes.Buffer) []line {
	t.Helper()

	var out []line
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var l line
		require.NoError(t, json.Unmarshal([]byte(raw), &l))
		out = append(out, l)
	}
	return out
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "info")

	l.Debug("session created: %s", "s1")
	l.Info("model %s loaded", "voice.pth")
	l.Warn("archive upload failed")
	l.Error("session %s: conversion failed: %v", "s1", errors.New("boom"))

	got := lines(t, &buf)
	require.Len(t, got, 3)
	assert.Equal(t, line{"info", "model voice.pth loaded"}, got[0])
	assert.Equal(t, line{"warn", "archive upload failed"}, got[1])
	assert.Equal(t, line{"error", "session s1: conversion failed: boom"}, got[2])
}

func TestLogger_DebugEnabled(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "debug")

	l.Debug("session created: %s", "s1")

	got := lines(t, &buf)
	require.Len(t, got, 1)
	assert.Equal(t, line{"debug", "session created: s1"}, got[0])
}

func TestLogger_ErrorWithoutArgsKeepsPercent(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "info")

	l.Error(errors.New("100% broken"))
	l.Error("http - v1 - convert: %v", errors.New("clip 50%.wav rejected"))

	got := lines(t, &buf)
	require.Len(t, got, 2)
	assert.Equal(t, line{"error", "100% broken"}, got[0])
	assert.Equal(t, line{"error", "http - v1 - convert: clip 50%.wav rejected"}, got[1])
}
