// Copyright (c) 2025 ToeiRei
// Acekeeper - Sequel Ace favorites backup tool
// This source code is licensed under the MIT license found in the LICENSE file.

package sink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

const (
	compressedExt = ".json.zst"
	plainExt      = ".json"
	indexFile     = ".acekeeper-index.json"
)

// FileSink stores backups as zstd-compressed JSON files in a directory.
// Plain .json files dropped into the directory by hand are readable too.
// A sidecar index remembers the ID and creation time per title.
type FileSink struct {
	Dir string

	now func() time.Time
}

// NewFileSink returns a sink rooted at dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{Dir: dir, now: time.Now}
}

type indexEntry struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
}

// Create writes content to <title>.json.zst and records it in the index.
// An existing backup under the same title is overwritten.
func (s *FileSink) Create(title string, content []byte) (string, error) {
	if err := os.MkdirAll(s.Dir, 0700); err != nil {
		return "", &StoreError{Op: "create", Err: err}
	}

	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		return "", &StoreError{Op: "create", Err: fmt.Errorf("create zstd writer: %w", err)}
	}
	if _, err := zw.Write(content); err != nil {
		_ = zw.Close()
		return "", &StoreError{Op: "create", Err: fmt.Errorf("compress backup: %w", err)}
	}
	if err := zw.Close(); err != nil {
		return "", &StoreError{Op: "create", Err: fmt.Errorf("flush zstd writer: %w", err)}
	}

	// Backups may hold passwords even though the keychain is the canonical
	// store, so keep them owner-readable only.
	if err := os.WriteFile(s.path(title, compressedExt), buf.Bytes(), 0600); err != nil {
		return "", &StoreError{Op: "create", Err: err}
	}

	id := uuid.NewString()
	index, _ := s.readIndex()
	index[title] = indexEntry{ID: id, CreatedAt: s.clock().UTC().Format(time.RFC3339)}
	if err := s.writeIndex(index); err != nil {
		return "", &StoreError{Op: "create", Err: err}
	}
	return id, nil
}

// Get returns the decompressed content stored under title.
func (s *FileSink) Get(title string) ([]byte, error) {
	data, err := os.ReadFile(s.path(title, compressedExt))
	if os.IsNotExist(err) {
		// Fall back to an uncompressed document.
		plain, plainErr := os.ReadFile(s.path(title, plainExt))
		if plainErr == nil {
			return plain, nil
		}
		entries, _ := s.List()
		return nil, &NotFoundError{Title: title, Available: titles(entries)}
	}
	if err != nil {
		return nil, &StoreError{Op: "get", Err: err}
	}

	zr, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, &StoreError{Op: "get", Err: fmt.Errorf("create zstd reader: %w", err)}
	}
	defer zr.Close()
	content, err := io.ReadAll(zr)
	if err != nil {
		return nil, &StoreError{Op: "get", Err: fmt.Errorf("decompress backup: %w", err)}
	}
	return content, nil
}

// List scans the directory for backup files, newest first.
func (s *FileSink) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.Dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	index, _ := s.readIndex()

	var entries []Entry
	for _, de := range dirEntries {
		if de.IsDir() || de.Name() == indexFile {
			continue
		}
		var title string
		switch {
		case strings.HasSuffix(de.Name(), compressedExt):
			title = unescapeTitle(strings.TrimSuffix(de.Name(), compressedExt))
		case strings.HasSuffix(de.Name(), plainExt):
			title = unescapeTitle(strings.TrimSuffix(de.Name(), plainExt))
		default:
			continue
		}

		entry := Entry{Title: title}
		if meta, ok := index[title]; ok {
			entry.ID = meta.ID
			entry.CreatedAt = meta.CreatedAt
		} else if info, err := de.Info(); err == nil {
			entry.CreatedAt = info.ModTime().UTC().Format(time.RFC3339)
		}
		entries = append(entries, entry)
	}

	sortNewestFirst(entries)
	return entries, nil
}

func (s *FileSink) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *FileSink) path(title, ext string) string {
	return filepath.Join(s.Dir, escapeTitle(title)+ext)
}

// escapeTitle makes a backup title safe as a file name. The only character
// that cannot appear in a POSIX file name is the path separator.
func escapeTitle(title string) string {
	return strings.ReplaceAll(title, "/", "⁄")
}

func unescapeTitle(name string) string {
	return strings.ReplaceAll(name, "⁄", "/")
}

func (s *FileSink) readIndex() (map[string]indexEntry, error) {
	index := map[string]indexEntry{}
	data, err := os.ReadFile(filepath.Join(s.Dir, indexFile))
	if err != nil {
		return index, err
	}
	if err := json.Unmarshal(data, &index); err != nil {
		return map[string]indexEntry{}, err
	}
	return index, nil
}

func (s *FileSink) writeIndex(index map[string]indexEntry) error {
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.Dir, indexFile), data, 0600)
}
