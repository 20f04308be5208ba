// Copyright (c) 2025 ToeiRei
// Acekeeper - Sequel Ace favorites backup tool
// This source code is licensed under the MIT license found in the LICENSE file.

package keychain

// MemoryStore is an in-memory Store used by tests and dry runs. FailOn lets
// tests inject transport failures for specific keys.
type MemoryStore struct {
	Secrets map[LookupKey]string
	// FailOn maps keys to the error every operation on them returns.
	FailOn map[LookupKey]error

	SetCalls    []LookupKey
	DeleteCalls []LookupKey
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Secrets: map[LookupKey]string{},
		FailOn:  map[LookupKey]error{},
	}
}

// Get returns the stored secret or ErrNotFound.
func (m *MemoryStore) Get(key LookupKey) (string, error) {
	if err, ok := m.FailOn[key]; ok {
		return "", err
	}
	secret, ok := m.Secrets[key]
	if !ok {
		return "", ErrNotFound
	}
	return secret, nil
}

// Set upserts the secret, mirroring the keychain's overwrite semantics.
func (m *MemoryStore) Set(key LookupKey, secret string) error {
	if err, ok := m.FailOn[key]; ok {
		return err
	}
	m.Secrets[key] = secret
	m.SetCalls = append(m.SetCalls, key)
	return nil
}

// Delete removes the secret, returning ErrNotFound when absent.
func (m *MemoryStore) Delete(key LookupKey) error {
	if err, ok := m.FailOn[key]; ok {
		return err
	}
	m.DeleteCalls = append(m.DeleteCalls, key)
	if _, ok := m.Secrets[key]; !ok {
		return ErrNotFound
	}
	delete(m.Secrets, key)
	return nil
}
