// Package store is the output store: a content-addressable artifact cache
// keyed by task identity, laid out as <root>/<kind>/<identity>.<ext>.
//
// Writes go to a uniquely named temporary file next to the final path and
// are then renamed into place, so readers never observe a partial artifact
// and racing writers of the same task leave one complete artifact behind.
// There are no locks; duplicate work is possible, corruption is not.
package store

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maxkimambo/gasrun/internal/config"
	"github.com/maxkimambo/gasrun/internal/errors"
	"github.com/maxkimambo/gasrun/internal/logger"
	"github.com/maxkimambo/gasrun/internal/task"
)

// tempMarker separates the final file name from the writer token.
const tempMarker = ".tmp-"

// Store persists task outputs under a cache root.
type Store struct {
	root  string
	codec Codec
	now   func() time.Time
}

// New creates a store rooted at root using codec.
func New(root string, codec Codec) *Store {
	if codec == nil {
		codec = JSONCodec{}
	}
	return &Store{root: root, codec: codec, now: time.Now}
}

// NewFromConfig creates a store from the cache_root and codec settings.
func NewFromConfig(cfg *config.Config) (*Store, error) {
	codec, err := CodecByName(cfg.Codec)
	if err != nil {
		return nil, errors.NewConfigurationError("codec", err.Error())
	}
	return New(cfg.CacheRoot, codec), nil
}

// Root returns the cache root directory.
func (s *Store) Root() string {
	return s.root
}

// Codec returns the codec used for artifacts.
func (s *Store) Codec() Codec {
	return s.codec
}

// LocationOf builds an artifact path from kind and identity without a task.
func (s *Store) LocationOf(kind string, id task.Identity) string {
	return filepath.Join(s.root, kind, string(id)+"."+s.codec.Ext())
}

// Location returns where t's artifact lives. It depends only on identity.
func (s *Store) Location(t task.Task) (string, error) {
	id, err := task.IdentityOf(t)
	if err != nil {
		return "", err
	}
	return s.LocationOf(t.Kind(), id), nil
}

// Exists reports whether the final artifact for t is present. Temporary
// files never count.
func (s *Store) Exists(t task.Task) (bool, error) {
	path, err := s.Location(t)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("checking artifact %s: %w", path, err)
	}
	return info.Mode().IsRegular(), nil
}

// Write encodes v and atomically publishes it as t's artifact.
func (s *Store) Write(t task.Task, v interface{}) error {
	id, err := task.IdentityOf(t)
	if err != nil {
		return err
	}
	path := s.LocationOf(t.Kind(), id)

	payload, err := json.Marshal(v)
	if err != nil {
		return errors.NewArtifactWriteError(string(id), path, fmt.Errorf("encode payload: %w", err))
	}
	data, err := s.codec.Marshal(&Envelope{
		Kind:      t.Kind(),
		Identity:  id,
		Params:    t.Params(),
		WrittenAt: s.now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		return errors.NewArtifactWriteError(string(id), path, err)
	}

	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return errors.NewArtifactWriteError(string(id), path, err)
	}

	logger.Op.WithFields(map[string]interface{}{
		"task": string(id),
		"path": path,
	}).Debug("Artifact written")
	return nil
}

// writeFileAtomic writes data to a temp file unique to this writer in the
// same directory as path, syncs it and renames it over path.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}

	tmpName := path + tempMarker + uuid.NewString()
	tmp, err := os.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		committed = true
		return err
	}
	committed = true
	return nil
}

// ReadEnvelope returns the decoded envelope of t's artifact.
func (s *Store) ReadEnvelope(t task.Task) (*Envelope, error) {
	id, err := task.IdentityOf(t)
	if err != nil {
		return nil, err
	}
	path := s.LocationOf(t.Kind(), id)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewArtifactMissingError(string(id), path)
		}
		return nil, fmt.Errorf("reading artifact %s: %w", path, err)
	}

	var env Envelope
	if err := s.codec.Unmarshal(data, &env); err != nil {
		return nil, errors.NewArtifactCorruptError(string(id), path, err)
	}
	if env.Identity != id {
		return nil, errors.NewArtifactCorruptError(string(id), path,
			fmt.Errorf("artifact belongs to %s", env.Identity))
	}
	return &env, nil
}

// Read decodes t's artifact payload into v. A missing artifact yields
// ErrArtifactMissing; an undecodable one ErrArtifactCorrupt.
func (s *Store) Read(t task.Task, v interface{}) error {
	env, err := s.ReadEnvelope(t)
	if err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		path := s.LocationOf(env.Kind, env.Identity)
		return errors.NewArtifactCorruptError(string(env.Identity), path, fmt.Errorf("decode payload: %w", err))
	}
	return nil
}

// Delete removes t's artifact. It reports whether a file was removed;
// deleting an absent artifact is not an error.
func (s *Store) Delete(t task.Task) (bool, error) {
	id, err := task.IdentityOf(t)
	if err != nil {
		return false, err
	}
	path := s.LocationOf(t.Kind(), id)

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.NewArtifactDeleteError(string(id), path, err)
	}
	return true, nil
}

// Sweep removes temporary files older than maxAge left behind by writers
// that were interrupted before renaming. It returns the number removed.
func (s *Store) Sweep(maxAge time.Duration) (int, error) {
	cutoff := s.now().Add(-maxAge)
	removed := 0

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == s.root {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || !strings.Contains(d.Name(), tempMarker) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if os.IsNotExist(err) {
				return nil // renamed or removed by its writer meanwhile
			}
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		removed++
		logger.Op.WithFields(map[string]interface{}{"path": path}).Debug("Removed stale temp file")
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("sweeping %s: %w", s.root, err)
	}
	return removed, nil
}
