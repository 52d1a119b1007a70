package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmgilman/uiversion/internal/stamp"
)

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringP(KeyFile, "f", stamp.DefaultFile, "target file")
	flags.StringP(KeyPlaceholder, "p", stamp.DefaultPlaceholder, "placeholder token")
	require.NoError(t, flags.Parse(args))
	return flags
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoader_Load_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	loader := NewLoader("")
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "data/index.html", cfg.File)
	assert.Equal(t, "UI_VERSION_PLACEHOLDER", cfg.Placeholder)
	assert.Empty(t, loader.UsedFile())

	_, err = os.Stat(filepath.Join(dir, DefaultConfigFile))
	assert.ErrorIs(t, err, os.ErrNotExist, "default config must not be created")
}

func TestLoader_Load_DefaultFileInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfig(t, filepath.Join(dir, DefaultConfigFile), "file: web/index.html\nplaceholder: \"@@VERSION@@\"\n")

	loader := NewLoader("")
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "web/index.html", cfg.File)
	assert.Equal(t, "@@VERSION@@", cfg.Placeholder)
	assert.Equal(t, DefaultConfigFile, loader.UsedFile())
}

func TestLoader_Load_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(dir, "conf", "stamp.yaml")
		writeConfig(t, path, "file: ui/index.html\n")

		loader := NewLoader(path)
		cfg, err := loader.Load()
		require.NoError(t, err)

		assert.Equal(t, "ui/index.html", cfg.File)
		assert.Equal(t, stamp.DefaultPlaceholder, cfg.Placeholder)
		assert.Equal(t, path, loader.Path())
		assert.Equal(t, path, loader.UsedFile())
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := NewLoader(filepath.Join(dir, "nope.yaml")).Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read config")
	})
}

func TestLoader_Load_RejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfig(t, filepath.Join(dir, DefaultConfigFile), "fiel: typo.html\n")

	_, err := NewLoader("").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal config")
}

func TestLoader_Load_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfig(t, filepath.Join(dir, DefaultConfigFile), "file: [unterminated\n")

	_, err := NewLoader("").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoader_Load_EnvVarOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfig(t, filepath.Join(dir, DefaultConfigFile), "file: from-file.html\nplaceholder: FILE_TOKEN\n")
	t.Setenv("SET_UI_VERSION_FILE", "from-env.html")

	cfg, err := NewLoader("").Load()
	require.NoError(t, err)

	assert.Equal(t, "from-env.html", cfg.File)
	assert.Equal(t, "FILE_TOKEN", cfg.Placeholder)
}

func TestLoader_BindFlags(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("SET_UI_VERSION_FILE", "from-env.html")
	t.Setenv("SET_UI_VERSION_PLACEHOLDER", "ENV_TOKEN")

	t.Run("set flags win over env", func(t *testing.T) {
		loader := NewLoader("")
		require.NoError(t, loader.BindFlags(newFlagSet(t, "--file", "from-flag.html", "-p", "FLAG_TOKEN")))

		cfg, err := loader.Load()
		require.NoError(t, err)
		assert.Equal(t, "from-flag.html", cfg.File)
		assert.Equal(t, "FLAG_TOKEN", cfg.Placeholder)
	})

	t.Run("unset flags defer to env", func(t *testing.T) {
		loader := NewLoader("")
		require.NoError(t, loader.BindFlags(newFlagSet(t)))

		cfg, err := loader.Load()
		require.NoError(t, err)
		assert.Equal(t, "from-env.html", cfg.File)
		assert.Equal(t, "ENV_TOKEN", cfg.Placeholder)
	})

	t.Run("missing flags are skipped", func(t *testing.T) {
		loader := NewLoader("")
		require.NoError(t, loader.BindFlags(pflag.NewFlagSet("empty", pflag.ContinueOnError)))
	})
}

func TestLoader_Load_EmptyPlaceholderInvalid(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	loader := NewLoader("")
	require.NoError(t, loader.BindFlags(newFlagSet(t, "--placeholder", "")))

	_, err := loader.Load()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{File: "data/index.html", Placeholder: "X"}, false},
		{"missing file", Config{Placeholder: "X"}, true},
		{"missing placeholder", Config{File: "data/index.html"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConfig_YAML(t *testing.T) {
	cfg := Config{File: "data/index.html", Placeholder: "UI_VERSION_PLACEHOLDER"}

	out, err := cfg.YAML()
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, map[string]string{
		"file":        "data/index.html",
		"placeholder": "UI_VERSION_PLACEHOLDER",
	}, decoded)
}
