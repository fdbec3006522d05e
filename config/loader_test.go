package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoader(t *testing.T, cwd, home string, env map[string]string) *Loader {
	t.Helper()
	l := NewLoader(nil)
	l.getwd = func() (string, error) { return cwd, nil }
	l.home = func() (string, error) { return home, nil }
	l.getenv = func(k string) string { return env[k] }
	return l
}

func TestLoader_ProjectConfigInParent(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "02-requirements", "functional")
	require.NoError(t, os.MkdirAll(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ProjectConfigFile),
		[]byte("output:\n  dir: build/trace\n"), 0644))

	cfg, err := testLoader(t, sub, t.TempDir(), nil).Load("")
	require.NoError(t, err)

	assert.Equal(t, root, cfg.Corpus.BaseDir)
	assert.Equal(t, filepath.Join(root, "build", "trace"), cfg.OutputDir())
}

func TestLoader_UserThenProjectPrecedence(t *testing.T) {
	root := t.TempDir()
	home := t.TempDir()
	userPath := filepath.Join(home, UserConfigDir, UserConfigFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(userPath), 0755))
	require.NoError(t, os.WriteFile(userPath,
		[]byte("coverage:\n  min_test: 10\n  min_scenario: 20\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ProjectConfigFile),
		[]byte("coverage:\n  min_test: 30\n"), 0644))

	cfg, err := testLoader(t, root, home, nil).Load("")
	require.NoError(t, err)

	assert.Equal(t, 30.0, cfg.Coverage.MinTest)
	assert.Equal(t, 20.0, cfg.Coverage.MinScenario)
	assert.Equal(t, 80.0, cfg.Coverage.MinRequirement)
}

func TestLoader_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("corpus:\n  roots: [specs]\n"), 0644))

	cfg, err := testLoader(t, t.TempDir(), t.TempDir(), nil).Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"specs"}, cfg.Corpus.Roots)
	assert.Equal(t, dir, cfg.Corpus.BaseDir)

	_, err = testLoader(t, dir, t.TempDir(), nil).Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoader_InvalidProjectConfigIsSkipped(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ProjectConfigFile), []byte("corpus: [bad"), 0644))

	cfg, err := testLoader(t, root, t.TempDir(), nil).Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"."}, cfg.Corpus.Roots)
}

func TestLoader_Environment(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"unset", nil, false},
		{"spectrace toggle", map[string]string{EnvAllowEmpty: "1"}, true},
		{"legacy toggle", map[string]string{EnvAllowEmptyLegacy: "true"}, true},
		{"explicit false", map[string]string{EnvAllowEmpty: "false"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			cfg, err := testLoader(t, root, t.TempDir(), tt.env).Load("")
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Corpus.AllowEmpty)
		})
	}
}

func TestLoader_EnvironmentOverrides(t *testing.T) {
	root := t.TempDir()
	env := map[string]string{EnvNATSURL: "nats://env:4222", EnvOutputDir: "out"}

	cfg, err := testLoader(t, root, t.TempDir(), env).Load("")
	require.NoError(t, err)
	assert.Equal(t, "nats://env:4222", cfg.NATS.URL)
	assert.Equal(t, "out", cfg.Output.Dir)
}

func TestLoader_WriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), ProjectConfigFile)
	l := NewLoader(nil)

	require.NoError(t, l.WriteDefault(path, false))
	assert.Error(t, l.WriteDefault(path, false))
	assert.NoError(t, l.WriteDefault(path, true))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Corpus.Extensions, cfg.Corpus.Extensions)
}
