package testutil

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// GetBinaryPath returns the path to the gasrun binary for integration tests.
// It checks, in order, the current directory, the parent directory and
// ../bin, and returns "" when none has it.
func GetBinaryPath() string {
	for _, candidate := range []string{
		"gasrun",
		filepath.Join("..", "gasrun"),
		filepath.Join("..", "bin", "gasrun"),
	} {
		if _, err := os.Stat(candidate); err == nil {
			abs, err := filepath.Abs(candidate)
			if err != nil {
				return candidate
			}
			return abs
		}
	}
	return ""
}

// RequireBinary skips the test when the binary has not been built.
func RequireBinary(t *testing.T) string {
	t.Helper()
	path := GetBinaryPath()
	if path == "" {
		t.Skip("gasrun binary not found; build it first with 'go build -o gasrun main.go'")
	}
	return path
}

// Result is the outcome of one CLI invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run executes the binary with a scrubbed environment: HOME points at an
// empty directory so no user config is picked up.
func Run(ctx context.Context, t *testing.T, binary, home string, args ...string) Result {
	t.Helper()

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Env = []string{"HOME=" + home, "PATH=" + os.Getenv("PATH")}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	code := 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		code = exitErr.ExitCode()
	} else if err != nil {
		t.Fatalf("running %s: %v", binary, err)
	}

	res := Result{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: code}
	t.Logf("gasrun %v -> exit %d\nstdout:\n%s\nstderr:\n%s", args, code, res.Stdout, res.Stderr)
	return res
}
