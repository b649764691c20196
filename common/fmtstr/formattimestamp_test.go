package fmtstr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDefaultLayout(t *testing.T) {
	fs := NewTimestampFormatString("")
	ts := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "20260730_120000", fs.Run(ts))
}

func TestRunCustomLayout(t *testing.T) {
	fs := NewTimestampFormatString("2006-01-02")
	ts := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-07-30", fs.Run(ts))
}

func TestUnpackFromString(t *testing.T) {
	fs := &TimestampFormatString{}
	require.NoError(t, fs.Unpack("2006-01"))
	assert.Equal(t, "2006-01", fs.String())
}

func TestUnpackRejectsNonString(t *testing.T) {
	fs := &TimestampFormatString{}
	assert.Error(t, fs.Unpack(42))
}
