package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFrom_DefaultsWithoutEnvFile(t *testing.T) {
	cfg, err := LoadConfigFrom(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, 5*time.Second, cfg.Storage.Timeout)
	assert.Equal(t, "RID", cfg.Profile.IDPrefix)
	assert.Equal(t, 5, cfg.Profile.IDSuffixLength)
	assert.Equal(t, 5, cfg.Profile.IDMaxAttempts)
	assert.False(t, cfg.Profile.RequireAge)
	assert.True(t, cfg.Auth.LoginHistoryEnabled)
	assert.Equal(t, 300, cfg.QR.ImageSize)
	assert.Equal(t, 24*time.Hour, cfg.JWT.AccessExpiry)
}

func TestLoadConfigFrom_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "STORAGE_DRIVER=file\nSTORAGE_FILE_PATH=/tmp/rescue.json\nPROFILE_REQUIRE_AGE=true\nPROFILE_ID_PREFIX=RESCUE\nPROFILE_ID_SUFFIX_LENGTH=9\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("APP_PORT", "9090")
	t.Setenv("PROFILE_ID_SUFFIX_LENGTH", "7")

	cfg, err := LoadConfigFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, StorageFile, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/rescue.json", cfg.Storage.FilePath)
	assert.True(t, cfg.Profile.RequireAge)
	assert.Equal(t, "RESCUE", cfg.Profile.IDPrefix)
	assert.Equal(t, 7, cfg.Profile.IDSuffixLength)
}

func TestLoadConfigFrom_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "cassandra")

	_, err := LoadConfigFrom(filepath.Join(t.TempDir(), ".env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cassandra")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "file driver without path", mutate: func(c *Config) {
			c.Storage.Driver = StorageFile
			c.Storage.FilePath = ""
		}, wantErr: true},
		{name: "empty prefix", mutate: func(c *Config) { c.Profile.IDPrefix = "" }, wantErr: true},
		{name: "zero attempts", mutate: func(c *Config) { c.Profile.IDMaxAttempts = 0 }, wantErr: true},
		{name: "zero history limit", mutate: func(c *Config) { c.Auth.LoginHistoryLimit = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Storage: StorageConfig{Driver: StorageMemory},
				Auth:    AuthConfig{LoginHistoryLimit: 10},
				Profile: ProfileConfig{IDPrefix: "RID", IDMaxAttempts: 3},
				QR:      QRConfig{ImageSize: 300},
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
