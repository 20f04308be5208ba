// Copyright (c) 2025 ToeiRei
// Acekeeper - Sequel Ace favorites backup tool
// This source code is licensed under the MIT license found in the LICENSE file.

// package keychain talks to the credential store holding Sequel Ace's saved
// passwords. The store is addressed by a composite key derived from favorite
// identity; derivation must match what Sequel Ace itself looks up, or
// restored secrets become unreachable by the app.
package keychain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no secret exists under a lookup key.
// It is an expected state, not a failure.
var ErrNotFound = errors.New("keychain: item not found")

// StoreError indicates a transport or authorization failure talking to the
// credential store, as opposed to a merely absent secret.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("keychain %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Store is the narrow interface over the OS credential store. The production
// implementation shells out to security(1); tests use MemoryStore.
type Store interface {
	// Get returns the secret under key, or ErrNotFound.
	Get(key LookupKey) (string, error)
	// Set upserts the secret under key. Existing entries under the same
	// key are replaced, never duplicated.
	Set(key LookupKey, secret string) error
	// Delete removes the secret under key. Deleting an absent key returns
	// ErrNotFound.
	Delete(key LookupKey) error
}
