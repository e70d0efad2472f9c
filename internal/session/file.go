// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package session

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// fileDocument is the on-disk layout of a FileArea.
type fileDocument struct {
	Values map[string]string `yaml:"values"`
}

// FileArea is a durable Area persisted as a YAML file.
// The file is re-read on every call so that external edits or deletion
// are observed.
type FileArea struct {
	mu   sync.Mutex
	path string
}

// NewFileArea creates a FileArea backed by path. The file does not need to exist.
func NewFileArea(path string) (*FileArea, error) {
	if path == "" {
		return nil, oops.Code("SESSION_FILE_PATH_EMPTY").Errorf("session file path cannot be empty")
	}
	return &FileArea{path: path}, nil
}

// Path returns the backing file path.
func (a *FileArea) Path() string {
	return a.path
}

// Get returns the value for key.
func (a *FileArea) Get(_ context.Context, key string) (string, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	doc, err := a.load()
	if err != nil {
		return "", false, err
	}
	v, ok := doc.Values[key]
	return v, ok, nil
}

// Set stores value under key.
func (a *FileArea) Set(_ context.Context, key, value string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	doc, err := a.load()
	if err != nil {
		return err
	}
	doc.Values[key] = value
	return a.save(doc)
}

// Remove deletes key. The file is deleted once it holds no values.
func (a *FileArea) Remove(_ context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	doc, err := a.load()
	if err != nil {
		return err
	}
	if _, ok := doc.Values[key]; !ok {
		return nil
	}
	delete(doc.Values, key)
	if len(doc.Values) == 0 {
		if err := os.Remove(a.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return oops.Code("SESSION_FILE_WRITE_FAILED").
				With("path", a.path).
				Wrap(err)
		}
		return nil
	}
	return a.save(doc)
}

func (a *FileArea) load() (*fileDocument, error) {
	doc := &fileDocument{Values: make(map[string]string)}

	data, err := os.ReadFile(a.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, oops.Code("SESSION_FILE_READ_FAILED").
			With("path", a.path).
			Wrap(err)
	}

	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, oops.Code("SESSION_FILE_CORRUPT").
			With("path", a.path).
			Wrap(err)
	}
	if doc.Values == nil {
		doc.Values = make(map[string]string)
	}
	return doc, nil
}

// save writes doc to a temp file in the same directory and renames it into place.
func (a *FileArea) save(doc *fileDocument) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return oops.Code("SESSION_FILE_WRITE_FAILED").With("path", a.path).Wrap(err)
	}

	dir := filepath.Dir(a.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return oops.Code("SESSION_FILE_WRITE_FAILED").With("path", a.path).Wrap(err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.yaml")
	if err != nil {
		return oops.Code("SESSION_FILE_WRITE_FAILED").With("path", a.path).Wrap(err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }() //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close() //nolint:errcheck // write error takes precedence
		return oops.Code("SESSION_FILE_WRITE_FAILED").With("path", a.path).Wrap(err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close() //nolint:errcheck // chmod error takes precedence
		return oops.Code("SESSION_FILE_WRITE_FAILED").With("path", a.path).Wrap(err)
	}
	if err := tmp.Close(); err != nil {
		return oops.Code("SESSION_FILE_WRITE_FAILED").With("path", a.path).Wrap(err)
	}
	if err := os.Rename(tmpName, a.path); err != nil {
		return oops.Code("SESSION_FILE_WRITE_FAILED").With("path", a.path).Wrap(err)
	}
	return nil
}
