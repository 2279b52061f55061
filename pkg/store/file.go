package store

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/agentstation/pricemap/pkg/constants"
	"github.com/agentstation/pricemap/pkg/errors"
	"github.com/agentstation/pricemap/pkg/pricing"
)

// Load reads the persisted catalog, if any, and makes it active.
// It reports false with a nil error when no file exists.
func (s *Store) Load() (bool, error) {
	if s.path == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errors.WrapIO("stat", s.path, err)
	}

	cat, err := ReadFile(s.path)
	if err != nil {
		return false, err
	}

	s.catalog.Store(cat)
	modified := info.ModTime().UTC()
	s.updateStatus(func(st *Status) {
		st.setCatalog(cat)
		if !cat.IsEmpty() {
			st.LastSuccessAt = &modified
		}
	})

	s.logger.Info().Int("records", cat.Len()).Str("path", s.path).Msg("Loaded persisted catalog")
	return true, nil
}

// ReadFile decodes a catalog file.
func ReadFile(path string) (*pricing.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	var cat pricing.Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, errors.WrapParse("json", path, err)
	}
	return &cat, nil
}

// persist writes catalog to s.path through a temp file and rename, so the
// file on disk is always a complete catalog.
func (s *Store) persist(catalog *pricing.Catalog) error {
	if s.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return errors.NewMergeError("encode", s.path, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.NewMergeError("persist", s.path, errors.WrapIO("create", dir, err))
	}

	tmp, err := os.CreateTemp(dir, ".pricing-*.json")
	if err != nil {
		return errors.NewMergeError("persist", s.path, errors.WrapIO("create", "temp file", err))
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.NewMergeError("persist", s.path, errors.WrapIO("write", tmpPath, err))
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.NewMergeError("persist", s.path, errors.WrapIO("sync", tmpPath, err))
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.NewMergeError("persist", s.path, errors.WrapIO("close", tmpPath, err))
	}
	if err := os.Chmod(tmpPath, constants.FilePermissions); err != nil {
		cleanup()
		return errors.NewMergeError("persist", s.path, errors.WrapIO("chmod", tmpPath, err))
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		cleanup()
		return errors.NewMergeError("persist", s.path, errors.WrapIO("move", s.path, err))
	}
	return nil
}
