// Copyright (c) 2025 ToeiRei
// Acekeeper - Sequel Ace favorites backup tool
// This source code is licensed under the MIT license found in the LICENSE file.

package keychain

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/acekeeper/acekeeper/internal/logging"
)

// security(1) exits with 44 (errSecItemNotFound) when no matching item
// exists.
const securityNotFoundExit = 44

// SecurityStore is the production Store backed by the macOS security(1)
// command-line tool. Each call is a blocking external-process invocation
// which may trigger an interactive keychain authorization prompt, so calls
// are bounded by Timeout rather than left open-ended.
type SecurityStore struct {
	// TrustedApps are executable paths granted read access to entries
	// written by Set, so Sequel Ace can use restored passwords without a
	// prompt per connection.
	TrustedApps []string
	// Timeout bounds each security(1) invocation. Zero means DefaultTimeout.
	Timeout time.Duration

	// runner allows tests to intercept process execution.
	runner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// DefaultTimeout is generous because a call may sit behind a user-facing
// keychain prompt.
const DefaultTimeout = 2 * time.Minute

// NewSecurityStore returns a SecurityStore granting the given application
// binaries access to written entries.
func NewSecurityStore(trustedApps ...string) *SecurityStore {
	return &SecurityStore{TrustedApps: trustedApps}
}

func (s *SecurityStore) run(args ...string) ([]byte, error) {
	timeout := s.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if s.runner != nil {
		return s.runner(ctx, "security", args...)
	}
	return exec.CommandContext(ctx, "security", args...).CombinedOutput()
}

// Get retrieves the secret under key via find-generic-password.
func (s *SecurityStore) Get(key LookupKey) (string, error) {
	out, err := s.run("find-generic-password",
		"-s", key.Service,
		"-a", key.Account,
		"-w")
	if err != nil {
		if isNotFound(err, out) {
			return "", ErrNotFound
		}
		return "", &StoreError{Op: "get", Err: fmt.Errorf("%v: %s", err, strings.TrimSpace(string(out)))}
	}
	// -w prints the raw password followed by a newline.
	return strings.TrimSuffix(string(out), "\n"), nil
}

// Set upserts the secret under key via add-generic-password. The existing
// entry is deleted first: -U alone updates the value but keeps the old
// access-control list, which would leave stale trust grants in place.
func (s *SecurityStore) Set(key LookupKey, secret string) error {
	if out, err := s.run("delete-generic-password",
		"-s", key.Service,
		"-a", key.Account); err != nil && !isNotFound(err, out) {
		logging.Debugf("keychain: pre-delete for %s: %v", key, err)
	}

	args := []string{
		"add-generic-password",
		"-s", key.Service,
		"-a", key.Account,
		"-w", secret,
	}
	for _, app := range s.TrustedApps {
		args = append(args, "-T", app)
	}
	args = append(args, "-T", "", "-U")

	if out, err := s.run(args...); err != nil {
		return &StoreError{Op: "set", Err: fmt.Errorf("%v: %s", err, strings.TrimSpace(string(out)))}
	}
	return nil
}

// Delete removes the secret under key via delete-generic-password.
func (s *SecurityStore) Delete(key LookupKey) error {
	out, err := s.run("delete-generic-password",
		"-s", key.Service,
		"-a", key.Account)
	if err != nil {
		if isNotFound(err, out) {
			return ErrNotFound
		}
		return &StoreError{Op: "delete", Err: fmt.Errorf("%v: %s", err, strings.TrimSpace(string(out)))}
	}
	return nil
}

// isNotFound distinguishes "no such item" from real failures. The exit code
// is authoritative; the message check covers shells and wrappers that do not
// preserve it.
func isNotFound(err error, out []byte) bool {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == securityNotFoundExit {
		return true
	}
	return strings.Contains(string(out), "could not be found")
}
