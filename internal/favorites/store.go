// Copyright (c) 2025 ToeiRei
// Acekeeper - Sequel Ace favorites backup tool
// This source code is licensed under the MIT license found in the LICENSE file.

package favorites

import "github.com/acekeeper/acekeeper/internal/model"

// FileStore binds the package functions to one favorites file so callers
// can take the file location as an injected dependency.
type FileStore struct {
	Path string
}

// Load reads the favorites file.
func (s FileStore) Load() ([]model.FavoriteRecord, error) {
	return Load(s.Path)
}

// Write replaces the favorites file with the given records.
func (s FileStore) Write(records []model.FavoriteRecord) error {
	return Write(s.Path, records)
}

// Archive copies the current favorites file aside, returning the archive
// path or "" when the file does not exist yet.
func (s FileStore) Archive() (string, error) {
	return Archive(s.Path)
}

// Clear resets the favorites file to an empty root.
func (s FileStore) Clear() error {
	return Clear(s.Path)
}
