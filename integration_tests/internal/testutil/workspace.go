package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Workspace is an isolated home directory and cache root for one test.
type Workspace struct {
	Dir   string
	Home  string
	Cache string
}

// SetupWorkspace creates a unique directory under tmp_integration_tests/
// holding an empty home and a cache root. It is removed when the test
// ends unless PRESERVE_CACHE=true.
func SetupWorkspace(t *testing.T) *Workspace {
	t.Helper()

	base, err := filepath.Abs(filepath.Join("..", "tmp_integration_tests"))
	require.NoError(t, err, "failed to resolve workspace root")

	suffix := make([]byte, 4)
	_, err = rand.Read(suffix)
	require.NoError(t, err, "failed to generate random suffix")

	name := fmt.Sprintf("%s-%s", strings.ReplaceAll(t.Name(), "/", "_"), hex.EncodeToString(suffix))
	ws := &Workspace{Dir: filepath.Join(base, name)}
	ws.Home = filepath.Join(ws.Dir, "home")
	ws.Cache = filepath.Join(ws.Dir, "cache")
	require.NoError(t, os.MkdirAll(ws.Home, 0o755))
	require.NoError(t, os.MkdirAll(ws.Cache, 0o755))

	t.Cleanup(func() {
		if os.Getenv("PRESERVE_CACHE") == "true" {
			t.Logf("PRESERVE_CACHE is set; cache kept in %s", ws.Cache)
			return
		}
		if err := os.RemoveAll(ws.Dir); err != nil {
			t.Logf("Warning: failed to clean up workspace %s: %v", ws.Dir, err)
		}
	})
	return ws
}

// WriteConfig writes a config file into the workspace and returns its path.
func (w *Workspace) WriteConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(w.Dir, "gasrun.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}
