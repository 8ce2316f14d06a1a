package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"contractabi/internal/adapter/outbound/repository"
	"contractabi/internal/application/dto"
	"contractabi/internal/config"
	"contractabi/internal/version"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const counterContract = `// Counter contract
impl Counter {
    #[init]
    pub fn new(&mut self) {}

    pub fn get(&self) -> u64 { self.value }

    pub fn increment(&mut self, by: u64) {}

    #[private]
    fn bump(&mut self) {}
}
`

const brokenContract = `impl C {
    pub fn ok(&self) {}
    pub fn broken(&self, a: b: c) {}
}
`

// useTestConfig installs a default configuration for commands run without the root.
func useTestConfig(t *testing.T) *config.Config {
	t.Helper()
	loaded, err := loadConfig(viper.New(), "")
	require.NoError(t, err)

	previous := cfg
	cfg = loaded
	t.Cleanup(func() { cfg = previous })
	return loaded
}

func runCommand(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(t.Context())
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func decodeFunctions(t *testing.T, data []byte) []dto.FunctionDTO {
	t.Helper()
	var functions []dto.FunctionDTO
	require.NoError(t, json.Unmarshal(data, &functions))
	return functions
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	for _, name := range []string{"extract", "batch", "watch", "worker", "migrate", "version", "config", "abi"} {
		t.Run(name, func(t *testing.T) {
			found, _, err := rootCmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, found.Name())
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		loaded, err := loadConfig(viper.New(), "")
		require.NoError(t, err)
		assert.Equal(t, "json", loaded.Output.Format)
		assert.Equal(t, 4, loaded.Batch.Concurrency)
		assert.Equal(t, "abi", loaded.NATS.SubjectPrefix)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv("CONTRACTABI_OUTPUT_FORMAT", "yaml")
		t.Setenv("CONTRACTABI_EXTRACTION_STRICT", "true")

		loaded, err := loadConfig(viper.New(), "")
		require.NoError(t, err)
		assert.Equal(t, "yaml", loaded.Output.Format)
		assert.True(t, loaded.Extraction.Strict)
	})

	t.Run("config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "contractabi.yaml")
		writeFile(t, path, "batch:\n  concurrency: 9\nextraction:\n  include_selectors: true\n")

		loaded, err := loadConfig(viper.New(), path)
		require.NoError(t, err)
		assert.Equal(t, 9, loaded.Batch.Concurrency)
		assert.True(t, loaded.Extraction.IncludeSelectors)
	})

	t.Run("invalid config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "contractabi.yaml")
		writeFile(t, path, "output:\n  format: xml\n")

		_, err := loadConfig(viper.New(), path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "output.format must be json or yaml")
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := loadConfig(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestExtractCommand_WritesFileAndReport(t *testing.T) {
	useTestConfig(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "counter.rs")
	out := filepath.Join(dir, "counter.abi.json")
	writeFile(t, src, counterContract)

	stdout, stderr, err := runCommand(t, newExtractCmd(), "", "--file", src, "--out", out, "--selectors")
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	functions := decodeFunctions(t, data)
	require.Len(t, functions, 3)
	assert.Equal(t, "new", functions[0].Name)
	assert.Equal(t, "INIT", functions[0].FnType)
	assert.Equal(t, "increment", functions[2].Name)
	assert.Equal(t, []dto.ParamDTO{{Name: "by", Type: "u64"}}, functions[2].Params)
	assert.Regexp(t, `^0x[0-9a-f]{8}$`, functions[2].Selector)

	assert.Contains(t, stderr, "3 functions extracted, 1 private, 0 skipped due to parse errors")
	assert.Contains(t, stderr, "private  bump")
}

func TestExtractCommand_StdinToStdout(t *testing.T) {
	useTestConfig(t)

	stdout, stderr, err := runCommand(t, newExtractCmd(), brokenContract, "--quiet")
	require.NoError(t, err)
	assert.Empty(t, stderr)

	functions := decodeFunctions(t, []byte(stdout))
	require.Len(t, functions, 1)
	assert.Equal(t, "ok", functions[0].Name)
	assert.Empty(t, functions[0].Selector)
}

func TestExtractCommand_YAML(t *testing.T) {
	useTestConfig(t)

	stdout, _, err := runCommand(t, newExtractCmd(), counterContract, "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "- name: new\n")
	assert.Contains(t, stdout, "fn_type: WRITE")
}

func TestExtractCommand_Strict(t *testing.T) {
	useTestConfig(t)

	stdout, _, err := runCommand(t, newExtractCmd(), brokenContract, "--strict")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declarations skipped due to parse errors")
	assert.Empty(t, stdout)
}

func TestExtractCommand_ReportsSkipped(t *testing.T) {
	useTestConfig(t)

	_, stderr, err := runCommand(t, newExtractCmd(), brokenContract)
	require.NoError(t, err)
	assert.Contains(t, stderr, "1 functions extracted, 0 private, 1 skipped due to parse errors")
	assert.Contains(t, stderr, "skipped  fn broken (scope 0")
}

func TestBatchCommand(t *testing.T) {
	useTestConfig(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "counter.rs"), counterContract)
	writeFile(t, filepath.Join(dir, "src", "nested", "broken.rs"), brokenContract)
	outDir := filepath.Join(dir, "out")

	_, stderr, err := runCommand(t, newBatchCmd(), "", filepath.Join(dir, "src"), "--out-dir", outDir, "-c", "2")
	require.NoError(t, err)
	assert.Contains(t, stderr, "2 sources, 2 succeeded, 0 failed, 4 functions extracted, 1 skipped")

	data, err := os.ReadFile(filepath.Join(outDir, "nested", "broken.abi.json"))
	require.NoError(t, err)
	assert.Len(t, decodeFunctions(t, data), 1)
}

func TestBatchCommand_FailsWhenSourceFails(t *testing.T) {
	useTestConfig(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.rs"), counterContract)
	writeFile(t, filepath.Join(dir, "b.rs"), brokenContract)

	_, stderr, err := runCommand(t, newBatchCmd(), "", dir, "--strict")
	require.Error(t, err)
	assert.Equal(t, "1 of 2 sources failed", err.Error())
	assert.Contains(t, stderr, "b.rs: failed:")

	_, err = os.Stat(filepath.Join(dir, "a.abi.json"))
	assert.NoError(t, err)
}

func TestVersionCommand(t *testing.T) {
	version.SetBuildVars("v1.2.3", "abc123", "2026-01-02T03:04:05Z")
	t.Cleanup(version.ResetBuildVars)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "full", want: []string{"ContractABI CLI", "Version: v1.2.3", "Commit: abc123", "Built: 2026-01-02T03:04:05Z"}},
		{name: "short", args: []string{"--short"}, want: []string{"v1.2.3\n"}},
		{name: "json", args: []string{"--json"}, want: []string{`"version":"v1.2.3"`, `"commit":"abc123"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := runCommand(t, newVersionCmd(), "", tt.args...)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, stdout, want)
			}
		})
	}
}

func TestConfigDump_MasksPassword(t *testing.T) {
	loaded := useTestConfig(t)
	loaded.Database.Password = "hunter2"

	stdout, _, err := runCommand(t, newConfigCmd(), "", "dump")
	require.NoError(t, err)
	assert.Contains(t, stdout, "****")
	assert.NotContains(t, stdout, "hunter2")
	assert.Contains(t, stdout, "subject_prefix: abi")
}

func TestMigrateCommand_Print(t *testing.T) {
	useTestConfig(t)

	stdout, _, err := runCommand(t, newMigrateCmd(), "", "--print")
	require.NoError(t, err)
	assert.Contains(t, stdout, `CREATE SCHEMA IF NOT EXISTS "contractabi";`)
	assert.Contains(t, stdout, "contract_abis")
	assert.Contains(t, stdout, "abi_functions")
}

func TestABIGetCommand_InvalidID(t *testing.T) {
	useTestConfig(t)

	_, _, err := runCommand(t, newABICmd(), "", "get", "not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid ABI id "not-a-uuid"`)
}

func TestIsTransientConnectError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "database unreachable", err: fmt.Errorf("ping failed: %w", repository.ErrConnectionFailed), want: true},
		{name: "no NATS servers", err: fmt.Errorf("failed to connect to NATS: %w", nats.ErrNoServers), want: true},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "bad credentials", err: errors.New("password authentication failed")},
		{name: "invalid config", err: errors.New("host is required")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTransientConnectError(tt.err))
		})
	}
}
