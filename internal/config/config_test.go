package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "routines", cfg.Collection)
	assert.Equal(t, "recent", cfg.Sort)
	assert.Equal(t, 10*time.Second, cfg.GetAuthTimeout())
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.ProjectID = "habit-circuit"
	cfg.Sort = "popular"
	cfg.AuthTimeout = "3s"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "habit-circuit", loaded.ProjectID)
	assert.Equal(t, "popular", loaded.Sort)
	assert.Equal(t, 3*time.Second, loaded.GetAuthTimeout())
	require.NoError(t, loaded.Validate())
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("project_id: from-file\ncollection: a\n"), 0644))
	t.Setenv("ROUTINECTL_PROJECT_ID", "from-env")
	t.Setenv("ROUTINECTL_STATE", "/tmp/state.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.ProjectID)
	assert.Equal(t, "a", cfg.Collection)
	assert.Equal(t, "/tmp/state.db", cfg.StatePath)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("project_id: [unterminated"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.Validate())

	cfg.ProjectID = "p"
	cfg.Sort = "oldest"
	assert.Error(t, cfg.Validate())

	cfg.AuthTimeout = "soon"
	assert.Equal(t, 10*time.Second, cfg.GetAuthTimeout())
}
