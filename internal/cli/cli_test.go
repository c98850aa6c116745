package cli

import (
	"bytes"
	"context"
	"ctchen222/tictactoe/internal/config"
	"ctchen222/tictactoe/internal/events"
	"ctchen222/tictactoe/internal/game"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	out, err := execute(t, "--help")

	require.NoError(t, err)
	assert.Contains(t, out, "serve")
	assert.Contains(t, out, "play")
	assert.Contains(t, out, "--log-level")
}

func TestPlayCmd_RunsTUI(t *testing.T) {
	called := false
	orig := runTUI
	runTUI = func() error {
		called = true
		return nil
	}
	t.Cleanup(func() { runTUI = orig })

	logFile := filepath.Join(t.TempDir(), "play.log")
	_, err := execute(t, "play", "--log-level", "debug", "--log-file", logFile)

	require.NoError(t, err)
	assert.True(t, called)
	_, err = os.Stat(logFile)
	assert.NoError(t, err)
}

func TestServeCmd_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: postgres\n"), 0o600))

	_, err := execute(t, "serve", "--config", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestOpenStore(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		wantBus any
	}{
		{name: "Memory", backend: config.StoreMemory, wantBus: &events.LocalBus{}},
		{name: "SQLite", backend: config.StoreSQLite, wantBus: &events.LocalBus{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			cfg := &config.Config{
				Store:  config.Store{Backend: tt.backend, SessionTTL: time.Hour},
				SQLite: config.SQLite{Path: filepath.Join(t.TempDir(), "sessions.db")},
			}

			repo, bus, closeStore, err := openStore(ctx, cfg)
			require.NoError(t, err)
			defer closeStore()

			assert.IsType(t, tt.wantBus, bus)
			require.NoError(t, repo.Create(ctx, "s1", game.NewGame()))
			_, err = repo.FindByID(ctx, "s1")
			assert.NoError(t, err)
		})
	}
}

func TestRunServe_StopsWithContext(t *testing.T) {
	cfg := &config.Config{
		LogLevel: "error",
		HTTP:     config.HTTP{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second},
		Store:    config.Store{Backend: config.StoreMemory, SessionTTL: time.Hour, SweepInterval: time.Minute},
		Session:  config.Session{CookieName: "ttt_session"},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	assert.NoError(t, runServe(ctx, cfg))
}
