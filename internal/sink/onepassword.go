// Copyright (c) 2025 ToeiRei
// Acekeeper - Sequel Ace favorites backup tool
// This source code is licensed under the MIT license found in the LICENSE file.

package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Tag attached to every backup item so List can find them regardless of
// title.
const onePasswordTag = "sequel-ace-backup"

// OnePasswordSink stores backups as Secure Notes in a 1Password vault via
// the op CLI. Every call is a blocking external-process invocation that may
// require the user to authorize the CLI.
type OnePasswordSink struct {
	Vault string
	// Timeout bounds each op invocation. Zero means DefaultOpTimeout.
	Timeout time.Duration

	// runner allows tests to intercept process execution.
	runner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// DefaultOpTimeout allows for the op CLI's own unlock prompt.
const DefaultOpTimeout = 2 * time.Minute

// NewOnePasswordSink returns a sink writing to the named vault.
func NewOnePasswordSink(vault string) *OnePasswordSink {
	return &OnePasswordSink{Vault: vault}
}

// CheckAuth verifies the op CLI is installed and signed in. Called once per
// command rather than per item so the failure mode is a single clear error.
func (s *OnePasswordSink) CheckAuth() error {
	out, err := s.run("account", "list")
	if err != nil {
		return &StoreError{Op: "auth", Err: fmt.Errorf("op CLI unavailable or not signed in (run: op signin): %w", err)}
	}
	if strings.TrimSpace(string(out)) == "" {
		return &StoreError{Op: "auth", Err: fmt.Errorf("op CLI has no signed-in account (run: op signin)")}
	}
	return nil
}

type opItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt string    `json:"created_at"`
	Fields    []opField `json:"fields"`
}

type opField struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// Create stores content as a new Secure Note and returns its item ID.
func (s *OnePasswordSink) Create(title string, content []byte) (string, error) {
	out, err := s.run("item", "create",
		"--category", "Secure Note",
		"--title", title,
		"--vault", s.Vault,
		"--tags", onePasswordTag,
		"--format", "json",
		"notesPlain="+string(content))
	if err != nil {
		return "", &StoreError{Op: "create", Err: fmt.Errorf("%v: %s", err, strings.TrimSpace(string(out)))}
	}

	var item opItem
	if err := json.Unmarshal(out, &item); err != nil {
		return "", &StoreError{Op: "create", Err: fmt.Errorf("parse op response: %w", err)}
	}
	if item.ID == "" {
		return "", &StoreError{Op: "create", Err: fmt.Errorf("op response carried no item id")}
	}
	return item.ID, nil
}

// Get retrieves the note content stored under title.
func (s *OnePasswordSink) Get(title string) ([]byte, error) {
	out, err := s.run("item", "get", title,
		"--vault", s.Vault,
		"--format", "json")
	if err != nil {
		if strings.Contains(string(out), "isn't an item") {
			entries, _ := s.List()
			return nil, &NotFoundError{Title: title, Available: titles(entries)}
		}
		return nil, &StoreError{Op: "get", Err: fmt.Errorf("%v: %s", err, strings.TrimSpace(string(out)))}
	}

	var item opItem
	if err := json.Unmarshal(out, &item); err != nil {
		return nil, &StoreError{Op: "get", Err: fmt.Errorf("parse op response: %w", err)}
	}
	for _, field := range item.Fields {
		if field.ID == "notesPlain" && field.Value != "" {
			return []byte(field.Value), nil
		}
	}
	return nil, &StoreError{Op: "get", Err: fmt.Errorf("item %q carries no backup payload", title)}
}

// List returns the tagged backup items in the vault, newest first.
func (s *OnePasswordSink) List() ([]Entry, error) {
	out, err := s.run("item", "list",
		"--vault", s.Vault,
		"--tags", onePasswordTag,
		"--format", "json")
	if err != nil {
		return nil, &StoreError{Op: "list", Err: fmt.Errorf("%v: %s", err, strings.TrimSpace(string(out)))}
	}

	var items []opItem
	if err := json.Unmarshal(out, &items); err != nil {
		return nil, &StoreError{Op: "list", Err: fmt.Errorf("parse op response: %w", err)}
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, Entry{ID: item.ID, Title: item.Title, CreatedAt: item.CreatedAt})
	}
	sortNewestFirst(entries)
	return entries, nil
}

func (s *OnePasswordSink) run(args ...string) ([]byte, error) {
	timeout := s.Timeout
	if timeout == 0 {
		timeout = DefaultOpTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if s.runner != nil {
		return s.runner(ctx, "op", args...)
	}
	return exec.CommandContext(ctx, "op", args...).CombinedOutput()
}
