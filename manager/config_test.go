package manager

import (
	"testing"

	cfgpkg "github.com/elastic/elastic-agent-libs/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigFillsEverything(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, "audit", c.BaseFilename)
	assert.EqualValues(t, 64<<20, c.MaxSegmentSize)
	assert.Equal(t, 4096, c.QueueCapacity)
	assert.Equal(t, 2, c.NumWriterThreads)
}

func TestLoadConfigNilYieldsDefaults(t *testing.T) {
	c, err := LoadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)
}

func TestLoadConfigUnpacksAndFillsGaps(t *testing.T) {
	raw, err := cfgpkg.NewConfigFrom(map[string]interface{}{
		"base_path":      "/var/log/audit",
		"max_open_files": 16,
		"use_encryption": true,
	})
	require.NoError(t, err)

	c, err := LoadConfig(raw)
	require.NoError(t, err)

	assert.Equal(t, "/var/log/audit", c.BasePath)
	assert.Equal(t, 16, c.MaxOpenFiles)
	assert.True(t, c.UseEncryption)
	// Untouched fields still get WithDefaults' values.
	assert.Equal(t, "audit", c.BaseFilename)
	assert.Equal(t, 4096, c.QueueCapacity)
}
