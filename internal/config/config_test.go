package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"LOGINSYNC_CONFIG_PATH",
		"LOGINSYNC_DB_PATH",
		"LOGINSYNC_DB_ENCRYPTION_KEY",
		"LOGINSYNC_SYNC_COLLECTION",
		"LOGINSYNC_SYNC_REQUEST_TIMEOUT",
		"LOGINSYNC_LOG_LEVEL",
		"LOGINSYNC_LOG_FORMAT",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}

func dur(d Duration) time.Duration {
	return time.Duration(d)
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "data/logins.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "data/logins.db")
	}
	if cfg.Database.EncryptionKey != "" {
		t.Errorf("Database.EncryptionKey = %q, want empty", cfg.Database.EncryptionKey)
	}
	if cfg.Sync.CollectionName != "passwords" {
		t.Errorf("Sync.CollectionName = %q, want %q", cfg.Sync.CollectionName, "passwords")
	}
	if dur(cfg.Sync.RequestTimeout) != 30*time.Second {
		t.Errorf("Sync.RequestTimeout = %v, want 30s", dur(cfg.Sync.RequestTimeout))
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "json")
	}
}

func TestLoad_ValidationFailsOnEmptyCollectionName(t *testing.T) {
	clearEnv(t)
	os.Setenv("LOGINSYNC_SYNC_COLLECTION", "")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("sync:\n  collection_name: \"\"\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	os.Setenv("LOGINSYNC_CONFIG_PATH", configPath)

	_, err := Load()
	if err == nil {
		t.Error("Load() expected error for empty sync.collection_name, got nil")
	}
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	clearEnv(t)

	os.Setenv("LOGINSYNC_DB_PATH", "/custom/path.db")
	os.Setenv("LOGINSYNC_LOG_LEVEL", "debug")
	os.Setenv("LOGINSYNC_SYNC_COLLECTION", "bookmarks")
	os.Setenv("LOGINSYNC_SYNC_REQUEST_TIMEOUT", "2m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Sync.CollectionName != "bookmarks" {
		t.Errorf("Sync.CollectionName = %q, want %q", cfg.Sync.CollectionName, "bookmarks")
	}
	if dur(cfg.Sync.RequestTimeout) != 2*time.Minute {
		t.Errorf("Sync.RequestTimeout = %v, want 2m", dur(cfg.Sync.RequestTimeout))
	}
}

func TestLoad_EmptyEnvVarDoesNotOverride(t *testing.T) {
	clearEnv(t)
	os.Setenv("LOGINSYNC_DB_PATH", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "data/logins.db" {
		t.Errorf("Database.Path = %q, want default", cfg.Database.Path)
	}
}

func TestLoadFromFile_ValidYAML(t *testing.T) {
	clearEnv(t)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	yamlContent := `
database:
  path: /yaml/path.db
sync:
  collection_name: yaml-passwords
  request_timeout: 45s
log:
  level: warn
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Database.Path != "/yaml/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/yaml/path.db")
	}
	if cfg.Sync.CollectionName != "yaml-passwords" {
		t.Errorf("Sync.CollectionName = %q, want %q", cfg.Sync.CollectionName, "yaml-passwords")
	}
	if dur(cfg.Sync.RequestTimeout) != 45*time.Second {
		t.Errorf("Sync.RequestTimeout = %v, want 45s", dur(cfg.Sync.RequestTimeout))
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "warn")
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	yamlContent := `
database:
  path: /yaml/path.db
log:
  level: warn
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	os.Setenv("LOGINSYNC_CONFIG_PATH", configPath)
	os.Setenv("LOGINSYNC_DB_PATH", "/env/path.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/env/path.db" {
		t.Errorf("Database.Path = %q, want %q (env override)", cfg.Database.Path, "/env/path.db")
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want %q (from YAML)", cfg.Log.Level, "warn")
	}
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	clearEnv(t)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")
	invalidYAML := "database:\n  path: [not valid\n"
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadFromFile(configPath)
	if err == nil {
		t.Error("LoadFromFile() expected error for invalid YAML, got nil")
	}
}

func TestLoad_MissingConfigFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	os.Setenv("LOGINSYNC_CONFIG_PATH", "/nonexistent/path/config.yaml")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() should not error on missing file, got: %v", err)
	}

	if cfg.Database.Path != "data/logins.db" {
		t.Errorf("Database.Path = %q, want default", cfg.Database.Path)
	}
}

func TestLoadFromFile_InvalidDuration(t *testing.T) {
	clearEnv(t)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad_duration.yaml")
	yamlContent := "sync:\n  request_timeout: not_a_duration\n"
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadFromFile(configPath)
	if err == nil {
		t.Error("LoadFromFile() expected error for invalid duration, got nil")
	}
}

func TestLoad_EncryptionKeyIsEnvOnly(t *testing.T) {
	clearEnv(t)
	os.Setenv("LOGINSYNC_DB_ENCRYPTION_KEY", "a-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.EncryptionKey != "a-key" {
		t.Errorf("Database.EncryptionKey = %q, want %q", cfg.Database.EncryptionKey, "a-key")
	}
}
