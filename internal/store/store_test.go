package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/maxkimambo/gasrun/internal/config"
	"github.com/maxkimambo/gasrun/internal/errors"
	"github.com/maxkimambo/gasrun/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTask struct {
	task.BaseTask
}

func (f fakeTask) Run(ctx context.Context, rc task.RunContext) (task.Deps, error) {
	return nil, nil
}

func branch(result int) task.Task {
	return fakeTask{task.NewBaseTask("Branch", task.NewParams("result", result))}
}

func TestLocationLayout(t *testing.T) {
	s := New("/cache", JSONCodec{})
	b := branch(1)
	id, err := task.IdentityOf(b)
	require.NoError(t, err)

	path, err := s.Location(b)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/cache", "Branch", string(id)+".json"), path)

	ps := New("/cache", ProtoCodec{})
	ppath, err := ps.Location(b)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ppath, ".pb"))
}

func TestWriteReadRoundTrip(t *testing.T) {
	for _, codec := range []Codec{JSONCodec{}, ProtoCodec{}} {
		t.Run(codec.Name(), func(t *testing.T) {
			s := New(t.TempDir(), codec)
			b := branch(7)

			ok, err := s.Exists(b)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Write(b, map[string]interface{}{"value": 7, "label": "seven"}))

			ok, err = s.Exists(b)
			require.NoError(t, err)
			assert.True(t, ok)

			var out struct {
				Value int    `json:"value"`
				Label string `json:"label"`
			}
			require.NoError(t, s.Read(b, &out))
			assert.Equal(t, 7, out.Value)
			assert.Equal(t, "seven", out.Label)

			env, err := s.ReadEnvelope(b)
			require.NoError(t, err)
			assert.Equal(t, "Branch", env.Kind)
			assert.Equal(t, 7, env.Params.Int("result", 0))
			assert.False(t, env.WrittenAt.IsZero())
		})
	}
}

func TestWriteOverwrites(t *testing.T) {
	s := New(t.TempDir(), JSONCodec{})
	b := branch(1)

	require.NoError(t, s.Write(b, 1))
	require.NoError(t, s.Write(b, 2))

	var v int
	require.NoError(t, s.Read(b, &v))
	assert.Equal(t, 2, v)
}

func TestReadMissingVersusCorrupt(t *testing.T) {
	s := New(t.TempDir(), JSONCodec{})
	b := branch(3)

	var v int
	err := s.Read(b, &v)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrArtifactMissing)
	assert.NotErrorIs(t, err, errors.ErrArtifactCorrupt)

	path, err := s.Location(b)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	err = s.Read(b, &v)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrArtifactCorrupt)
	assert.NotErrorIs(t, err, errors.ErrArtifactMissing)
}

func TestReadRejectsForeignArtifact(t *testing.T) {
	s := New(t.TempDir(), JSONCodec{})
	one, two := branch(1), branch(2)
	require.NoError(t, s.Write(one, 1))

	src, err := s.Location(one)
	require.NoError(t, err)
	dst, err := s.Location(two)
	require.NoError(t, err)
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dst, data, 0o644))

	err = s.Read(two, nil)
	assert.ErrorIs(t, err, errors.ErrArtifactCorrupt)
}

func TestReadPayloadTypeMismatchIsCorrupt(t *testing.T) {
	s := New(t.TempDir(), JSONCodec{})
	b := branch(1)
	require.NoError(t, s.Write(b, "We did it!"))

	var n int
	assert.ErrorIs(t, s.Read(b, &n), errors.ErrArtifactCorrupt)
}

func TestDelete(t *testing.T) {
	s := New(t.TempDir(), JSONCodec{})
	b := branch(42)

	removed, err := s.Delete(b)
	require.NoError(t, err)
	assert.False(t, removed, "deleting an absent artifact is a no-op")

	require.NoError(t, s.Write(b, 42))
	removed, err = s.Delete(b)
	require.NoError(t, err)
	assert.True(t, removed)

	ok, err := s.Exists(b)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTempFilesDoNotCountAsArtifacts(t *testing.T) {
	s := New(t.TempDir(), JSONCodec{})
	b := branch(5)
	path, err := s.Location(b)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path+tempMarker+"abandoned", []byte("partial"), 0o644))

	ok, err := s.Exists(b)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConcurrentWritersLeaveOneCompleteArtifact(t *testing.T) {
	s := New(t.TempDir(), JSONCodec{})
	b := branch(9)

	const writers = 16
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.Write(b, fmt.Sprintf("writer-%02d", i))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var v string
	require.NoError(t, s.Read(b, &v))
	assert.True(t, strings.HasPrefix(v, "writer-"))

	path, err := s.Location(b)
	require.NoError(t, err)
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files should remain")
}

func TestSweepRemovesStaleTempFiles(t *testing.T) {
	root := t.TempDir()
	s := New(root, JSONCodec{})
	b := branch(1)
	require.NoError(t, s.Write(b, 1))

	path, err := s.Location(b)
	require.NoError(t, err)
	stale := path + tempMarker + "stale"
	fresh := path + tempMarker + "fresh"
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o644))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	removed, err := s.Sweep(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
	assert.FileExists(t, path)
}

func TestSweepMissingRoot(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "absent"), JSONCodec{})
	removed, err := s.Sweep(time.Minute)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.CacheRoot = t.TempDir()
	cfg.Codec = config.CodecProtobuf

	s, err := NewFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.CacheRoot, s.Root())
	assert.Equal(t, "pb", s.Codec().Ext())

	cfg.Codec = "xml"
	_, err = NewFromConfig(cfg)
	assert.ErrorIs(t, err, errors.ErrConfiguration)
}
