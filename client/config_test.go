package client_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfd/shelfd/client"
)

func TestConfigFile_Profiles(t *testing.T) {
	t.Run("add and get", func(t *testing.T) {
		cfg := &client.ConfigFile{}

		err := cfg.AddProfile(client.Profile{Name: "local", Endpoint: "http://localhost:8008"})
		require.NoError(t, err)

		p, err := cfg.GetProfile("local")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8008", p.Endpoint)
	})

	t.Run("add duplicate fails", func(t *testing.T) {
		cfg := &client.ConfigFile{}
		require.NoError(t, cfg.AddProfile(client.Profile{Name: "local"}))

		err := cfg.AddProfile(client.Profile{Name: "local"})
		require.ErrorIs(t, err, client.ErrProfileExists)
	})

	t.Run("get missing profile", func(t *testing.T) {
		cfg := &client.ConfigFile{
			Profiles: []client.Profile{{Name: "local"}},
		}

		_, err := cfg.GetProfile("missing")
		require.ErrorIs(t, err, client.ErrProfileNotFound)
	})

	t.Run("no profiles", func(t *testing.T) {
		cfg := &client.ConfigFile{}

		_, err := cfg.GetProfile("")
		require.ErrorIs(t, err, client.ErrNoProfiles)
	})

	t.Run("default profile", func(t *testing.T) {
		cfg := &client.ConfigFile{
			Profiles: []client.Profile{
				{Name: "first"},
				{Name: "second", Default: true},
			},
		}

		p, err := cfg.GetProfile("")
		require.NoError(t, err)
		assert.Equal(t, "second", p.Name)
	})

	t.Run("first profile when no default", func(t *testing.T) {
		cfg := &client.ConfigFile{
			Profiles: []client.Profile{
				{Name: "first"},
				{Name: "second"},
			},
		}

		p, err := cfg.GetDefaultProfile()
		require.NoError(t, err)
		assert.Equal(t, "first", p.Name)
	})

	t.Run("set default clears others", func(t *testing.T) {
		cfg := &client.ConfigFile{
			Profiles: []client.Profile{
				{Name: "first", Default: true},
				{Name: "second"},
			},
		}

		require.NoError(t, cfg.SetDefault("second"))
		assert.False(t, cfg.Profiles[0].Default)
		assert.True(t, cfg.Profiles[1].Default)
	})

	t.Run("remove profile", func(t *testing.T) {
		cfg := &client.ConfigFile{
			Profiles: []client.Profile{
				{Name: "first"},
				{Name: "second"},
			},
		}

		require.NoError(t, cfg.RemoveProfile("first"))
		assert.Equal(t, []string{"second"}, cfg.ProfileNames())

		err := cfg.RemoveProfile("first")
		require.ErrorIs(t, err, client.ErrProfileNotFound)
	})
}

func TestConfigFile_SaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := &client.ConfigFile{
		Profiles: []client.Profile{
			{Name: "local", Endpoint: "http://localhost:8008", Username: "alice", Password: "secret", Default: true},
			{Name: "prod", Endpoint: "https://books.example.com", Username: "bob", Password: "hunter2"},
		},
	}

	require.NoError(t, cfg.Save(path))

	loaded, err := client.LoadConfigFile(path)
	require.NoError(t, err)
	require.Len(t, loaded.Profiles, 2)
	assert.Equal(t, *cfg, *loaded)
}

func TestLoadConfigFile_Missing(t *testing.T) {
	_, err := client.LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestMergeConfig(t *testing.T) {
	fileCfg := &client.Config{Endpoint: "http://file:8008", Username: "file-user"}
	envCfg := &client.Config{Username: "env-user"}
	flagCfg := &client.Config{Password: "flag-pass"}

	merged := client.MergeConfig(fileCfg, envCfg, flagCfg)

	assert.Equal(t, "http://file:8008", merged.Endpoint)
	assert.Equal(t, "env-user", merged.Username)
	assert.Equal(t, "flag-pass", merged.Password)
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := (&client.Config{}).WithDefaults()
	assert.Equal(t, client.DefaultEndpoint, cfg.Endpoint)

	cfg = (&client.Config{Endpoint: "http://other"}).WithDefaults()
	assert.Equal(t, "http://other", cfg.Endpoint)
}

func TestConfig_ValidateWithAuth(t *testing.T) {
	err := (&client.Config{}).ValidateWithAuth()
	require.ErrorIs(t, err, client.ErrUsernameRequired)

	err = (&client.Config{Username: "alice"}).ValidateWithAuth()
	require.ErrorIs(t, err, client.ErrPasswordRequired)

	err = (&client.Config{Username: "alice", Password: "secret"}).ValidateWithAuth()
	require.NoError(t, err)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("SHELFD_ENDPOINT", "http://env:8008")
	t.Setenv("SHELFD_USERNAME", "env-user")
	t.Setenv("SHELFD_PASSWORD", "env-pass")

	cfg := client.ConfigFromEnv()
	assert.Equal(t, "http://env:8008", cfg.Endpoint)
	assert.Equal(t, "env-user", cfg.Username)
	assert.Equal(t, "env-pass", cfg.Password)
}
