package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modintegrator/internal/archive"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "modintegrator.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadDefaultsWithEnv(t *testing.T) {
	cfg, err := LoadWithEnv("", map[string]string{
		"MODINTEGRATOR_GAME_DIR": "/games/astro/Paks",
		"MODINTEGRATOR_MODS_DIR": "/home/me/Mods",
	})
	require.NoError(t, err)

	assert.Equal(t, "Astro", cfg.GameName)
	assert.Equal(t, DefaultMapPaths, cfg.MapPaths)
	assert.Equal(t, filepath.Join("/home/me/Mods", OutputName), cfg.Output)
	assert.Equal(t, archive.CompressionZstd, cfg.CompressionTag())
	assert.Equal(t, "modintegrator_log.txt", cfg.LogFile)
	assert.False(t, cfg.DedupeImports)
}

func TestLoadYAMLMergesOverDefaults(t *testing.T) {
	p := writeYAML(t, `
game_dir: /games/astro/Paks
mods_dir: /mods
compression: lz4
dedupe_imports: true
map_paths:
  - Astro/Content/Maps/Staging_T2.umap
log_file: null
`)
	cfg, err := LoadWithEnv(p, map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "Astro", cfg.GameName)
	assert.Equal(t, []string{"Astro/Content/Maps/Staging_T2.umap"}, cfg.MapPaths)
	assert.Equal(t, archive.CompressionLZ4, cfg.CompressionTag())
	assert.True(t, cfg.DedupeImports)
	assert.Empty(t, cfg.LogFile)
	assert.Equal(t, "/mods/"+OutputName, filepath.ToSlash(cfg.Output))
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	p := writeYAML(t, "game_dir: /a\nmods_dir: /b\noutput: /b/out.pak\n")
	cfg, err := LoadWithEnv(p, map[string]string{
		"MODINTEGRATOR_OUTPUT":         "/elsewhere/out.pak",
		"MODINTEGRATOR_MAP_PATHS":      "A.umap,B.umap",
		"MODINTEGRATOR_LOG_LEVEL":      "debug",
		"MODINTEGRATOR_DEDUPE_IMPORTS": "true",
	})
	require.NoError(t, err)

	assert.Equal(t, "/elsewhere/out.pak", cfg.Output)
	assert.Equal(t, []string{"A.umap", "B.umap"}, cfg.MapPaths)
	assert.True(t, cfg.DedupeImports)
	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadReportsEveryProblem(t *testing.T) {
	p := writeYAML(t, "game_name: ''\ncompression: brotli\nlog_level: loud\nmap_paths: []\n")
	_, err := LoadWithEnv(p, map[string]string{})
	require.Error(t, err)
	for _, want := range []string{"game_name", "game_dir", "mods_dir", "map_paths", "compression", "log_level"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadBadYAML(t *testing.T) {
	p := writeYAML(t, "game_dir: [unterminated\n")
	_, err := LoadWithEnv(p, map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse yaml")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadWithEnv(filepath.Join(t.TempDir(), "absent.yaml"), map[string]string{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadBadEnvValue(t *testing.T) {
	_, err := LoadWithEnv("", map[string]string{
		"MODINTEGRATOR_GAME_DIR":       "/a",
		"MODINTEGRATOR_MODS_DIR":       "/b",
		"MODINTEGRATOR_DEDUPE_IMPORTS": "sometimes",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}
