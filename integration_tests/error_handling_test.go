package integration

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/maxkimambo/gasrun/integration_tests/internal/testutil"
	"github.com/stretchr/testify/require"
)

func TestErrorHandling(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	binary := testutil.RequireBinary(t)

	tests := []struct {
		name          string
		config        string
		args          []string
		expectedError string
		exitCode      int
	}{
		{
			name:          "unknown_task_kind",
			args:          []string{"run", "Nope"},
			expectedError: "Error [VALIDATION-001]",
			exitCode:      2,
		},
		{
			name:          "missing_artifact",
			args:          []string{"show", "Root"},
			expectedError: "Error [ARTIFACT-001]",
			exitCode:      1,
		},
		{
			name:          "invalid_codec",
			config:        "codec: xml\n",
			args:          []string{"run", "Root"},
			expectedError: "Error [CONFIGURATION-001]",
			exitCode:      2,
		},
		{
			name:          "unreachable_scheduler",
			config:        "scheduler:\n  host: 127.0.0.1\n  port: 1\n  max_retries: 0\n",
			args:          []string{"submit", "Root"},
			expectedError: "Check that the scheduler daemon is running",
			exitCode:      1,
		},
		{
			name:          "bad_parameter",
			args:          []string{"run", "Branch", "--param", "result"},
			expectedError: "Expected name=value",
			exitCode:      2,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			ws := testutil.SetupWorkspace(t)
			args := []string{"--cache-root", ws.Cache}
			if tt.config != "" {
				args = append(args, "--config", ws.WriteConfig(t, tt.config))
			}

			res := testutil.Run(ctx, t, binary, ws.Home, append(args, tt.args...)...)
			require.Equal(t, tt.exitCode, res.ExitCode, "unexpected exit code, stderr: %s", res.Stderr)
			require.True(t,
				strings.Contains(res.Stderr, tt.expectedError),
				"Expected error containing '%s' but got: %s", tt.expectedError, res.Stderr)
		})
	}
}
