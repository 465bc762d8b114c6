package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"logsock/internal/shared/types"
)

func writeIni(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logsock.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadIni(t *testing.T) {
	path := writeIni(t, `
[common]
socket_path     = /run/logsock.socket
max_connections = 8
max_line_bytes  = 1024

[web]
web_port     = 9090
web_user     = admin
web_password = secret
history_size = 16

[log]
level = debug
`)

	cfg := new(types.Config)
	require.NoError(t, LoadIni(cfg, path))

	require.Equal(t, "/run/logsock.socket", cfg.SocketPath)
	require.Equal(t, 8, cfg.MaxConnections)
	require.Equal(t, 1024, cfg.MaxLineBytes)
	require.Equal(t, 9090, cfg.WebPort)
	require.Equal(t, "admin", cfg.WebUser)
	require.Equal(t, "secret", cfg.WebPassword)
	require.Equal(t, 16, cfg.HistorySize)
	require.Equal(t, "debug", cfg.Level)
}

func TestLoadIni_DefaultsFillGaps(t *testing.T) {
	path := writeIni(t, "[log]\nlevel = warn\n")

	cfg := new(types.Config)
	require.NoError(t, LoadIni(cfg, path))

	require.Equal(t, "/tmp/debug.socket", cfg.SocketPath)
	require.Equal(t, 64, cfg.MaxConnections)
	require.Equal(t, 64*1024, cfg.MaxLineBytes)
	require.Equal(t, 1024, cfg.HistorySize)
	require.Equal(t, "warn", cfg.Level)
}

func TestLoadIni_MissingFile(t *testing.T) {
	cfg := new(types.Config)
	err := LoadIni(cfg, filepath.Join(t.TempDir(), "nope.ini"))
	require.Error(t, err)
}

func TestLoadIni_EnvOverrides(t *testing.T) {
	path := writeIni(t, "[common]\nsocket_path = /tmp/from-ini.socket\n")
	t.Setenv("LOGSOCK_SOCKET_PATH", "/tmp/from-env.socket")
	t.Setenv("LOGSOCK_WEB_PORT", "7070")

	cfg := new(types.Config)
	require.NoError(t, LoadIni(cfg, path))

	require.Equal(t, "/tmp/from-env.socket", cfg.SocketPath)
	require.Equal(t, 7070, cfg.WebPort)
}

func TestLoadDefaults(t *testing.T) {
	cfg := new(types.Config)
	LoadDefaults(cfg)

	require.Equal(t, "/tmp/debug.socket", cfg.SocketPath)
	require.Equal(t, "info", cfg.Level)
	require.Equal(t, 0, cfg.WebPort)
}
