package config

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerStatus(t *testing.T) {
	path := writeConfigFile(t, `
server:
  addr: ":8089"
`)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mgr, err := NewManager(path, logger)
	require.NoError(t, err)

	status := mgr.Status()
	assert.Equal(t, path, status.Path)
	assert.NotEmpty(t, status.Checksum)
	assert.False(t, status.LoadedAt.IsZero())
	assert.Equal(t, uint64(1), status.ReloadCount)
}

func TestManagerReloadUpdatesChecksum(t *testing.T) {
	path := writeConfigFile(t, `
server:
  addr: ":8089"
`)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mgr, err := NewManager(path, logger)
	require.NoError(t, err)

	before := mgr.Status()

	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
`), 0644))

	require.NoError(t, mgr.Reload())

	after := mgr.Status()
	assert.NotEqual(t, before.Checksum, after.Checksum)
	assert.Equal(t, before.ReloadCount+1, after.ReloadCount)
	assert.Equal(t, ":9090", mgr.Get().Server.Addr)
}

func TestManagerOnChange_InvokedOnReload(t *testing.T) {
	path := writeConfigFile(t, `
server:
  addr: ":8089"
`)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mgr, err := NewManager(path, logger)
	require.NoError(t, err)

	var observed string
	mgr.OnChange(func(cfg *Config) { observed = cfg.Server.Addr })

	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":6060"
`), 0644))
	require.NoError(t, mgr.Reload())

	assert.Equal(t, ":6060", observed)
}
