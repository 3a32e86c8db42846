package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asaidimu/go-influxql/influxql"
)

const cpuSpecYAML = `
measurements: [cpu]
fields: [mean(value)]
where:
  - {field: node, op: "=", value: node-1}
from: now() - 2d
to: now() - 1d
group_by: [node, time(1h)]
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes the CLI with a config file pointing the catalog into dir.
func run(t *testing.T, dir string, stdin string, args ...string) (string, error) {
	t.Helper()
	cfg := writeFile(t, dir, "config.yaml", "catalog: "+filepath.Join(dir, "catalog.db")+"\nlog_level: error\n")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", cfg}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestCompileCommand(t *testing.T) {
	dir := t.TempDir()
	specPath := writeFile(t, dir, "cpu.yaml", cpuSpecYAML)

	out, err := run(t, dir, "", "compile", specPath)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT mean(value) FROM cpu WHERE (time > now() - 2d AND time < now() - 1d) AND node = 'node-1' GROUP BY "node",time(1h)`+"\n",
		out)

	out, err = run(t, dir, "", "--strategy", "flat", "--syntax-check", "compile", specPath)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT mean(value) FROM cpu WHERE node = 'node-1' and time > now() - 2d and time < now() - 1d GROUP BY "node",time(1h)`+"\n",
		out)
}

func TestCompileCommand_JSONAndStdin(t *testing.T) {
	dir := t.TempDir()
	specPath := writeFile(t, dir, "cpu.json", `{"measurements":["cpu"],"fields":["f1","f2"],"where":[[{"field":"time","op":"<","value":"20d"}]]}`)

	out, err := run(t, dir, "", "compile", specPath)
	require.NoError(t, err)
	assert.Equal(t, "SELECT f1,f2 FROM cpu WHERE time < 20d\n", out)

	out, err = run(t, dir, "measurements: [mem]\n", "compile", "-")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM mem\n", out)
}

func TestCompileCommand_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "fields: [a]\n", "compile", "-")
	assert.ErrorIs(t, err, influxql.ErrNoMeasurements)

	_, err = run(t, dir, "measurements: [cpu]\ngroup_by: [time(1m)]\n", "compile", "-")
	assert.ErrorIs(t, err, influxql.ErrMissingTimeBoundForGroupByTime)

	_, err = run(t, dir, "", "--strategy", "nested", "compile", writeFile(t, dir, "ok.yaml", "measurements: [cpu]\n"))
	assert.Error(t, err)

	_, err = run(t, dir, "", "compile", filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestCatalogCommands(t *testing.T) {
	dir := t.TempDir()
	specPath := writeFile(t, dir, "cpu.yaml", cpuSpecYAML)

	out, err := run(t, dir, "", "catalog", "save", "cpu-hourly", specPath, "-d", "hourly cpu")
	require.NoError(t, err)
	assert.Contains(t, out, "saved cpu-hourly")

	out, err = run(t, dir, "", "--strategy", "flat", "catalog", "save", "mem", "-")
	require.Error(t, err)
	assert.Empty(t, out)

	out, err = run(t, dir, "", "catalog", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "cpu-hourly")
	assert.Contains(t, out, "grouped")
	assert.Contains(t, out, "hourly cpu")

	out, err = run(t, dir, "", "catalog", "get", "cpu-hourly")
	require.NoError(t, err)
	assert.Contains(t, out, "measurements:")
	assert.Contains(t, out, "time(1h)")

	out, err = run(t, dir, "", "catalog", "compile", "cpu-hourly")
	require.NoError(t, err)
	assert.Contains(t, out, `GROUP BY "node",time(1h)`)

	_, err = run(t, dir, "", "catalog", "delete", "cpu-hourly")
	require.NoError(t, err)

	_, err = run(t, dir, "", "catalog", "compile", "cpu-hourly")
	assert.Error(t, err)
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	fs := afero.NewOsFs()
	cfg, err := loadConfig(fs, newViper(fs), writeFile(t, dir, "empty.yaml", "{}\n"))
	require.NoError(t, err)
	assert.Equal(t, "grouped", cfg.Strategy)
	assert.Equal(t, "influxqlc.db", cfg.Catalog)
	assert.False(t, cfg.SyntaxCheck)

	_, err = loadConfig(fs, newViper(fs), filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger("debug")
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = newLogger("loud")
	assert.Error(t, err)
}

func TestReadSpec(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/specs/cpu.yaml", []byte(cpuSpecYAML), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/specs/cpu.JSON", []byte(`{"measurements":["cpu"],"to":"now()"}`), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/specs/broken.yaml", []byte("where: {field: a}\n"), 0o644))

	spec, err := readSpec(fs, "/specs/cpu.yaml", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"cpu"}, spec.Measurements)
	assert.Equal(t, []string{"node", "time(1h)"}, spec.GroupBy)
	require.Len(t, spec.Where, 1)

	spec, err = readSpec(fs, "/specs/cpu.JSON", nil)
	require.NoError(t, err)
	require.NotNil(t, spec.To)
	assert.Equal(t, "now()", *spec.To)

	spec, err = readSpec(fs, "-", strings.NewReader("measurements: [mem]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"mem"}, spec.Measurements)

	_, err = readSpec(fs, "/specs/broken.yaml", nil)
	assert.Error(t, err)

	_, err = readSpec(fs, "/specs/missing.yaml", nil)
	assert.Error(t, err)
}

func TestCompileCommand_MemFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/influxqlc.yaml", []byte("strategy: flat\nsyntax_check: true\nlog_level: error\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/specs/cpu.yaml", []byte(cpuSpecYAML), 0o644))

	root := newRootCmdWithFs(fs)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--config", "/etc/influxqlc.yaml", "compile", "/specs/cpu.yaml"})
	require.NoError(t, root.Execute())
	assert.Equal(t,
		`SELECT mean(value) FROM cpu WHERE node = 'node-1' and time > now() - 2d and time < now() - 1d GROUP BY "node",time(1h)`+"\n",
		out.String())
}

func TestLoadDotEnv(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, ".env", []byte("INFLUXQLC_CATALOG=/data/env.db\nINFLUXQLC_LOG_LEVEL=debug\n"), 0o644))
	t.Setenv("INFLUXQLC_LOG_LEVEL", "error")
	t.Cleanup(func() { _ = os.Unsetenv("INFLUXQLC_CATALOG") })

	cfg, err := loadConfig(fs, newViper(fs), "")
	require.NoError(t, err)
	assert.Equal(t, "/data/env.db", cfg.Catalog)
	assert.Equal(t, "error", cfg.LogLevel)

	require.NoError(t, loadDotEnv(afero.NewMemMapFs(), ".env"))

	broken := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(broken, ".env", []byte("INFLUXQLC_STRATEGY=\"flat\n"), 0o644))
	assert.Error(t, loadDotEnv(broken, ".env"))
}
