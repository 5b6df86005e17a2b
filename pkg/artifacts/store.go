// Package artifacts stores the files a run produces under one directory per run.
package artifacts

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Store writes artifacts beneath a single directory. Writes are atomic: a reader never sees
// a partially written file.
type Store struct {
	dir string
}

// NewStore creates dir if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create artifact dir %s", dir)
	}
	return &Store{dir: dir}, nil
}

// Open returns a Store over an existing directory without creating it.
func Open(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "open artifact dir %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("%s is not a directory", dir)
	}
	return &Store{dir: dir}, nil
}

// NewRunStore returns a Store for root/runID.
func NewRunStore(root, runID string) (*Store, error) {
	return NewStore(filepath.Join(root, runID))
}

// Dir is the store's directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path resolves a key to its file path.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, filepath.FromSlash(key))
}

// Put copies r to key through a temp file and a rename.
func (s *Store) Put(ctx context.Context, key string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full := s.Path(key)
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	cleanup := func(cause error, msg string) error {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(cause, msg)
	}

	if _, err := io.Copy(tmp, r); err != nil {
		return cleanup(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "chmod %s", key)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "rename to %s", full)
	}
	return nil
}

// WriteBytes stores data at key and returns the file path.
func (s *Store) WriteBytes(ctx context.Context, key string, data []byte) (string, error) {
	if err := s.Put(ctx, key, bytes.NewReader(data)); err != nil {
		return "", err
	}
	return s.Path(key), nil
}

// WriteJSON stores an indented JSON document at key.
func (s *Store) WriteJSON(ctx context.Context, key string, value any) (string, error) {
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", errors.Wrapf(err, "encode %s", key)
	}
	return s.WriteBytes(ctx, key, payload)
}

// List returns the slash-separated keys under prefix in lexical order.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var keys []string
	err := filepath.WalkDir(s.Path(prefix), func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, errors.Wrapf(err, "list %s", prefix)
	}
	sort.Strings(keys)
	return keys, nil
}

// SafeName turns a group name into a single path element.
func SafeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}
