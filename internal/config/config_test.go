package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerAppliesDefaults(t *testing.T) {
	mgr, err := NewManager()
	require.NoError(t, err)

	cfg := mgr.GetConfig()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.NotEmpty(t, cfg.ExternalAPI.UniProt.BaseURL)
	assert.NotEmpty(t, cfg.ExternalAPI.ClinVar.BaseURL)
	assert.Equal(t, 8, cfg.Orchestrator.MaxWorkers)
}

func TestValidateRejectsBadPort(t *testing.T) {
	mgr, err := NewManager()
	require.NoError(t, err)

	mgr.config.Server.Port = 99999
	assert.Error(t, mgr.Validate())
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	mgr, err := NewManager()
	require.NoError(t, err)

	mgr.config.Logging.Level = "verbose"
	assert.Error(t, mgr.Validate())
}

func TestValidateAllowsZeroMaxWorkers(t *testing.T) {
	mgr, err := NewManager()
	require.NoError(t, err)

	mgr.config.Orchestrator.MaxWorkers = 0
	assert.NoError(t, mgr.Validate())
}

func TestNewManagerWithConfigFileReadsExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom_config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9091\n"), 0o644))

	mgr, err := NewManagerWithConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9091, mgr.GetConfig().Server.Port)
}
