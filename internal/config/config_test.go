package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesDocumentedValues(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "0.0.0.0", cfg.TCPHost)
	assert.Equal(t, 7777, cfg.TCPPort)
	assert.True(t, cfg.BluetoothEnabled)
	assert.Equal(t, 1, cfg.BluetoothChannel)
	assert.Equal(t, "MAGateway", cfg.ServiceName)
	assert.True(t, cfg.SimulatorEnabled)
	assert.Equal(t, 300.0, cfg.FieldLengthM)
	assert.Equal(t, 20.0, cfg.HeadlandLengthM)
	assert.Equal(t, 2.5, cfg.SpeedMps)
	assert.Equal(t, 2.0, cfg.SampleRateHz)
	assert.Equal(t, 8, cfg.PassesPerCycle)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tcp_port: 9000\nsimulator_enabled: false\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.TCPPort)
	assert.False(t, cfg.SimulatorEnabled)
	// Unreferenced fields keep their defaults.
	assert.Equal(t, "0.0.0.0", cfg.TCPHost)
	assert.Equal(t, 300.0, cfg.FieldLengthM)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tcp_port: [this is not valid"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestWatcherInvokesCallbackOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	w, err := NewWatcher(nil)
	require.NoError(t, err)
	defer w.Close()

	changed := make(chan struct{}, 1)
	require.NoError(t, w.Watch(path, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}))

	require.NoError(t, os.WriteFile(path, []byte(`{"role":"updated"}`), 0o644))

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watcher callback")
	}
}
