// Copyright (c) 2025 ToeiRei
// Acekeeper - Sequel Ace favorites backup tool
// This source code is licensed under the MIT license found in the LICENSE file.

// package sink abstracts where backup documents are kept: a local directory
// of compressed JSON files, or 1Password secure notes driven through the op
// CLI. The document payload is identical for every sink.
package sink

import (
	"fmt"
	"sort"
	"strings"
)

// Entry describes one stored backup.
type Entry struct {
	ID        string
	Title     string
	CreatedAt string
}

// Sink stores and retrieves backup documents by title.
type Sink interface {
	// Create stores content under title and returns the sink-assigned ID.
	Create(title string, content []byte) (string, error)
	// Get returns the content stored under title, or a *NotFoundError.
	Get(title string) ([]byte, error)
	// List returns all stored backups, newest first.
	List() ([]Entry, error)
}

// NotFoundError reports a missing backup title, carrying the available
// alternatives when they were cheap to collect.
type NotFoundError struct {
	Title     string
	Available []string
}

func (e *NotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("backup %q not found", e.Title)
	}
	return fmt.Sprintf("backup %q not found; available: %s", e.Title, strings.Join(e.Available, ", "))
}

// StoreError reports a transport or authorization failure talking to the
// sink service.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("backup sink %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Latest returns the most recent entry, or a *NotFoundError when the sink
// is empty.
func Latest(s Sink) (Entry, error) {
	entries, err := s.List()
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, &NotFoundError{Title: "(latest)"}
	}
	return entries[0], nil
}

// sortNewestFirst orders entries by creation time descending, falling back
// to the title (which embeds a timestamp for default titles).
func sortNewestFirst(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].CreatedAt != entries[j].CreatedAt {
			return entries[i].CreatedAt > entries[j].CreatedAt
		}
		return entries[i].Title > entries[j].Title
	})
}

// titles projects entries to their titles, for NotFoundError reporting.
func titles(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Title)
	}
	return out
}
