package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amxpanel/icspcore/wire"
)

func TestDefaultConfigFillsEverything(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, "g5", c.Encoding)
	assert.Equal(t, 2000, c.FileChunkCap)
	assert.Equal(t, 10*time.Second, c.ReadWriteTimeout)
	assert.Equal(t, 3*time.Second, c.ResetDelay)
	assert.Equal(t, 15*time.Second, c.ReconnectDelay)
	assert.Equal(t, wire.OriginG5, c.Origin())
}

func TestValidRejectsUnknownEncoding(t *testing.T) {
	c := Config{Encoding: "g6"}
	require.Error(t, c.Valid())
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "panel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: 10.0.0.5:1319\nencoding: g4\n"), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5:1319", c.Addr)
	assert.Equal(t, wire.OriginG4, c.Origin())
	assert.Equal(t, 2000, c.FileChunkCap, "unspecified fields still default")
}
