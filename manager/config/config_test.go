package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolveTimeout(t *testing.T) {
	cfg := TimeoutConfig{
		Default:   150_000 * time.Millisecond,
		Resources: map[string]time.Duration{"myTable": 50 * time.Millisecond},
	}

	require.Equal(t, 50*time.Millisecond, cfg.Resolve("myTable"))
	require.Equal(t, 150_000*time.Millisecond, cfg.Resolve("other"))
	require.Equal(t, 150_000*time.Millisecond, cfg.Resolve(""))

	empty := TimeoutConfig{Default: time.Second}
	require.Equal(t, time.Second, empty.Resolve("myTable"))
}

func TestValidateTimeout(t *testing.T) {
	require.ErrorIs(t, TimeoutConfig{}.Validate(), ErrInvalidDefaultTimeout)
	require.ErrorIs(t, TimeoutConfig{Default: -time.Second}.Validate(), ErrInvalidDefaultTimeout)
	require.ErrorIs(t, TimeoutConfig{Default: time.Second, Resources: map[string]time.Duration{"a": 0}}.Validate(), ErrInvalidConfig)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	require.Equal(t, 10_000, cfg.Query.MaxDocsPerBatch)
	require.Equal(t, 16, cfg.Query.DenseGroupKeyBits)
	require.Equal(t, 15*time.Second, cfg.Timeout.Default)
	require.Equal(t, "lz4", cfg.Response.Compression)
}

func TestLoadFile(t *testing.T) {

	path := filepath.Join(t.TempDir(), "segquery.yaml")
	contents := `
query:
  workers: 3
timeout:
  default: 150000ms
  resources:
    myTable: 50ms
response:
  compression: zstd
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 3, cfg.Query.Workers)
	require.Equal(t, 10_000, cfg.Query.MaxDocsPerBatch)
	require.Equal(t, "zstd", cfg.Response.Compression)

	require.Equal(t, 50*time.Millisecond, cfg.Timeout.Resolve("myTable"))
	require.Equal(t, 150*time.Second, cfg.Timeout.Resolve("unknown"))
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SEGQUERY_TIMEOUT_DEFAULT", "30s")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, cfg.Timeout.Default)
}

func TestLoadRejectsInvalidDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeout:\n  default: 0s\n"), 0o644))

	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalidDefaultTimeout)
}
