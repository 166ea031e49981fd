package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/maxkimambo/gasrun/internal/config"
	"github.com/maxkimambo/gasrun/internal/demo"
	"github.com/maxkimambo/gasrun/internal/errors"
	"github.com/maxkimambo/gasrun/internal/logger"
	"github.com/maxkimambo/gasrun/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag to its default so package-level command
// state does not leak between tests.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the CLI against an isolated home and cache root.
func execute(t *testing.T, cache string, args ...string) (string, error) {
	t.Helper()
	return executeWithInput(t, cache, "", args...)
}

// executeWithInput is execute with stdin fed from input.
func executeWithInput(t *testing.T, cache, input string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, name := range []string{"GASRUN_CACHE_ROOT", "GASRUN_CODEC", "GASRUN_SCHEDULER_HOST", "GASRUN_SCHEDULER_PORT", "GASRUN_LOG_LEVEL", "LOG_MODE", "LOG_FORMAT"} {
		t.Setenv(name, "")
	}

	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--cache-root", cache, "--quiet"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseParam(t *testing.T) {
	tests := []struct {
		pair    string
		name    string
		value   interface{}
		wantErr bool
	}{
		{pair: "result=7", name: "result", value: 7},
		{pair: "branch_again=true", name: "branch_again", value: true},
		{pair: "ratio=0.5", name: "ratio", value: 0.5},
		{pair: "label=hello world", name: "label", value: "hello world"},
		{pair: "ids=[1, 2]", name: "ids", value: []interface{}{1, 2}},
		{pair: "opts={a: 1}", name: "opts", value: map[string]interface{}{"a": 1}},
		{pair: "empty=", name: "empty", value: ""},
		{pair: "nothing=~", name: "nothing", value: "~"},
		{pair: " spaced = 3 ", name: "spaced", value: 3},
		{pair: "noequals", wantErr: true},
		{pair: "=1", wantErr: true},
		{pair: "bad=[1,", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.pair, func(t *testing.T) {
			name, value, err := parseParam(tt.pair)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.value, value)
		})
	}
}

func TestParseParamsFileOrderAndOverride(t *testing.T) {
	file := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(file, []byte("zeta: 1\nalpha: [x, y]\nresult: 3\n"), 0o644))

	params, err := parseParams(file, []string{"result=9", "extra=on"})
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "result", "extra"}, params.Names())
	assert.Equal(t, 9, params.Int("result", 0))
	assert.Equal(t, "on", params.String("extra", ""))

	require.NoError(t, os.WriteFile(file, []byte("- not\n- a mapping\n"), 0o644))
	_, err = parseParams(file, nil)
	assert.Error(t, err)

	_, err = parseParams(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.Error(t, err)
}

func TestRunThenInspect(t *testing.T) {
	cache := t.TempDir()

	_, err := execute(t, cache, "run", "Root")
	require.NoError(t, err)

	out, err := execute(t, cache, "locate", "Branch", "--param", "result=7", "--param", "branch_again=true")
	require.NoError(t, err)
	path := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(path, filepath.Join(cache, "Branch", "Branch_")), path)
	assert.FileExists(t, path)

	out, err = execute(t, cache, "show", "Root")
	require.NoError(t, err)
	assert.Contains(t, out, "Root()")
	assert.Contains(t, out, `"We did it!"`)

	out, err = execute(t, cache, "show", "Branch", "--raw")
	require.NoError(t, err)
	assert.Equal(t, "42\n", out)

	out, err = execute(t, cache, "status", "Root")
	require.NoError(t, err)
	assert.Contains(t, out, "0 of 1 tasks need to run")
}

func TestStatusBeforeRun(t *testing.T) {
	out, err := execute(t, t.TempDir(), "status", "Root")
	require.NoError(t, err)
	assert.Contains(t, out, "Branch(result=42, branch_again=false)")
	assert.Contains(t, out, "4 of 4 tasks need to run")
}

func TestStatusDOT(t *testing.T) {
	out, err := execute(t, t.TempDir(), "status", "Root", "--format", "dot")
	require.NoError(t, err)
	assert.Contains(t, out, "digraph gasrun {")
	assert.Contains(t, out, " -> ")
	assert.NotContains(t, out, "tasks need to run")

	_, err = execute(t, t.TempDir(), "status", "Root", "--format", "svg")
	assert.ErrorIs(t, err, errors.ErrConfiguration)
}

func TestInvalidateRemovesOnlyTheTask(t *testing.T) {
	cache := t.TempDir()
	_, err := execute(t, cache, "run", "Root")
	require.NoError(t, err)

	_, err = execute(t, cache, "invalidate", "Root")
	require.NoError(t, err)

	_, err = execute(t, cache, "show", "Root")
	assert.ErrorIs(t, err, errors.ErrArtifactMissing)

	out, err := execute(t, cache, "status", "Root")
	require.NoError(t, err)
	assert.Contains(t, out, "1 of 3 tasks need to run")

	_, err = execute(t, cache, "invalidate", "Root")
	assert.NoError(t, err, "invalidating a missing artifact is a no-op")
}

func TestInvalidateDeps(t *testing.T) {
	cache := t.TempDir()
	_, err := execute(t, cache, "run", "Root")
	require.NoError(t, err)

	out, err := executeWithInput(t, cache, "no\n", "invalidate", "Root", "--deps")
	require.NoError(t, err)
	assert.Contains(t, out, "following 4 item(s)")

	out, err = execute(t, cache, "status", "Root")
	require.NoError(t, err)
	assert.Contains(t, out, "0 of 1 tasks need to run", "declined prompt deletes nothing")

	_, err = execute(t, cache, "invalidate", "Root", "--deps", "--yes")
	require.NoError(t, err)

	out, err = execute(t, cache, "status", "Root")
	require.NoError(t, err)
	assert.Contains(t, out, "4 of 4 tasks need to run")
}

func TestRunForce(t *testing.T) {
	cache := t.TempDir()
	_, err := execute(t, cache, "run", "Sum", "--param", "n=2")
	require.NoError(t, err)

	st := store.New(cache, store.JSONCodec{})
	before, err := st.ReadEnvelope(demo.NewSum(2))
	require.NoError(t, err)

	_, err = execute(t, cache, "run", "Sum", "--param", "n=2", "--force")
	require.NoError(t, err)

	after, err := st.ReadEnvelope(demo.NewSum(2))
	require.NoError(t, err)
	assert.True(t, after.WrittenAt.After(before.WrittenAt), "a forced run rewrites the artifact")

	out, err := execute(t, cache, "show", "Sum", "--param", "n=2", "--raw")
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)
}

func TestConfigLogLevel(t *testing.T) {
	resetFlags(rootCmd)
	t.Setenv("LOG_MODE", "")
	t.Setenv("LOG_FORMAT", "")
	t.Cleanup(func() { logger.Setup(false, false, false) })

	cfg := config.DefaultConfig()
	cfg.LogLevel = "warn"

	logger.SetupWithWriters(false, false, false, io.Discard, io.Discard)
	require.NoError(t, applyConfigLogLevel(cfg))
	assert.Equal(t, logrus.WarnLevel, logger.GetLogger().Level())

	verbose = true
	t.Cleanup(func() { verbose = false })
	logger.SetupWithWriters(true, false, false, io.Discard, io.Discard)
	require.NoError(t, applyConfigLogLevel(cfg))
	assert.Equal(t, logrus.DebugLevel, logger.GetLogger().Level(), "-v wins over log_level")
}

func TestRunTimeout(t *testing.T) {
	_, err := execute(t, t.TempDir(), "run", "Sleep", "--param", "duration=1h", "--timeout", "20ms")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrExecutionFailure)
}

func TestSubmitLocal(t *testing.T) {
	cache := t.TempDir()
	_, err := execute(t, cache, "submit", "Root", "--local", "--workers", "2")
	require.NoError(t, err)

	out, err := execute(t, cache, "show", "Root", "--raw")
	require.NoError(t, err)
	assert.Equal(t, "\"We did it!\"\n", out)
}

func TestSubmitRemoteUnreachable(t *testing.T) {
	t.Setenv("GASRUN_SCHEDULER_PORT", "")
	_, err := execute(t, t.TempDir(), "submit", "Root", "--host", "127.0.0.1", "--port", "1", "--config", writeConfig(t, "scheduler:\n  max_retries: 0\n  timeout: 1s\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSubmission)
}

func TestSweep(t *testing.T) {
	cache := t.TempDir()
	dir := filepath.Join(cache, "Branch")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	stale := filepath.Join(dir, "Branch_x.json.tmp-dead")
	require.NoError(t, os.WriteFile(stale, []byte("partial"), 0o644))
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	_, err := execute(t, cache, "sweep")
	require.NoError(t, err)
	assert.NoFileExists(t, stale)

	_, err = execute(t, cache, "sweep", "--max-age", "0s")
	assert.ErrorIs(t, err, errors.ErrConfiguration)
}

func TestUnknownKindAndBadParams(t *testing.T) {
	_, err := execute(t, t.TempDir(), "run", "Nope")
	assert.ErrorIs(t, err, errors.ErrInvalidParameters)

	assert.Equal(t, ExitUserError, ExitCode(err))

	_, err = execute(t, t.TempDir(), "run", "Branch", "--param", "result")
	assert.ErrorIs(t, err, errors.ErrInvalidParameters)
	assert.Contains(t, err.Error(), "Expected name=value")

	_, err = execute(t, t.TempDir(), "run", "Branch", "--param", "result=7.5")
	assert.ErrorIs(t, err, errors.ErrInvalidParameters)
	assert.Contains(t, err.Error(), "not a whole number")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, ExitUserError, ExitCode(errors.NewConfigurationError("codec", "unknown codec 'xml'")))
	assert.Equal(t, ExitFailure, ExitCode(errors.NewNoOutputError("Root_0")))
	assert.Equal(t, ExitFailure, ExitCode(os.ErrPermission))
}

func TestShowMissingSuggestsRun(t *testing.T) {
	_, err := execute(t, t.TempDir(), "show", "Root")
	assert.ErrorIs(t, err, errors.ErrArtifactMissing)
	assert.Equal(t, ExitFailure, ExitCode(err))
}

func TestProtobufCodecFromConfig(t *testing.T) {
	cache := t.TempDir()
	cfg := writeConfig(t, "codec: protobuf\n")

	_, err := execute(t, cache, "run", "Root", "--config", cfg)
	require.NoError(t, err)

	out, err := execute(t, cache, "locate", "Root", "--config", cfg)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), ".pb"))

	out, err = execute(t, cache, "show", "Root", "--raw", "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "\"We did it!\"\n", out)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gasrun.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}
