// Copyright (c) 2025 ToeiRei
// Acekeeper - Sequel Ace favorites backup tool
// This source code is licensed under the MIT license found in the LICENSE file.

package keychain

import (
	"errors"
	"fmt"

	"github.com/acekeeper/acekeeper/internal/model"
)

// Resolver matches favorites to their credential-store secrets. A favorite
// resolves to zero, one or two credentials: the database password, plus the
// SSH tunnel password for tunnel favorites.
type Resolver struct {
	Store Store
}

// ResolveFailure records a favorite whose credential lookup hit a store
// failure during a skip-and-continue run.
type ResolveFailure struct {
	FavoriteID string
	Role       model.CredentialRole
	Err        error
}

func (f ResolveFailure) Error() string {
	return fmt.Sprintf("favorite %s (%s): %v", f.FavoriteID, f.Role, f.Err)
}

// Resolve looks up the secrets for a single favorite. An absent secret
// yields a not-found marker; a store failure aborts the record and is
// returned as the error.
func (r *Resolver) Resolve(f model.FavoriteRecord) ([]model.ResolvedCredential, error) {
	creds := make([]model.ResolvedCredential, 0, 2)

	cred, err := r.lookup(f.ID, model.RoleDatabase, DatabaseKey(f))
	if err != nil {
		return nil, err
	}
	creds = append(creds, cred)

	if key, ok := SSHKey(f); ok {
		cred, err := r.lookup(f.ID, model.RoleSSH, key)
		if err != nil {
			return nil, err
		}
		creds = append(creds, cred)
	}

	return creds, nil
}

// ResolveAll resolves credentials for every favorite, in order. With
// skipErrors set, a store failure on one favorite is recorded and the run
// continues; otherwise the first failure aborts the whole resolution.
func (r *Resolver) ResolveAll(records []model.FavoriteRecord, skipErrors bool) (map[string][]model.ResolvedCredential, []ResolveFailure, error) {
	byID := make(map[string][]model.ResolvedCredential, len(records))
	var failures []ResolveFailure

	for _, f := range records {
		creds, err := r.Resolve(f)
		if err != nil {
			if !skipErrors {
				return nil, nil, err
			}
			var rf ResolveFailure
			if errors.As(err, &rf) {
				failures = append(failures, rf)
			} else {
				failures = append(failures, ResolveFailure{FavoriteID: f.ID, Err: err})
			}
			continue
		}
		byID[f.ID] = creds
	}

	return byID, failures, nil
}

func (r *Resolver) lookup(favoriteID string, role model.CredentialRole, key LookupKey) (model.ResolvedCredential, error) {
	secret, err := r.Store.Get(key)
	switch {
	case err == nil:
		return model.ResolvedCredential{FavoriteID: favoriteID, Role: role, Found: true, Secret: secret}, nil
	case errors.Is(err, ErrNotFound):
		return model.ResolvedCredential{FavoriteID: favoriteID, Role: role, Found: false}, nil
	default:
		return model.ResolvedCredential{}, ResolveFailure{FavoriteID: favoriteID, Role: role, Err: err}
	}
}

// KeyFor derives the lookup key for a credential of the given role. It
// returns ok=false when the favorite cannot carry that role.
func KeyFor(f model.FavoriteRecord, role model.CredentialRole) (LookupKey, bool) {
	switch role {
	case model.RoleDatabase:
		return DatabaseKey(f), true
	case model.RoleSSH:
		return SSHKey(f)
	default:
		return LookupKey{}, false
	}
}

// StoreCredential writes one found credential back under its derived key.
// Not-found markers are a no-op.
func (r *Resolver) StoreCredential(f model.FavoriteRecord, cred model.ResolvedCredential) error {
	if !cred.Found {
		return nil
	}
	key, ok := KeyFor(f, cred.Role)
	if !ok {
		return fmt.Errorf("favorite %s cannot hold a %s credential", f.ID, cred.Role)
	}
	return r.Store.Set(key, cred.Secret)
}

// DeleteAll removes every secret derivable from the favorite. It returns the
// number of entries actually deleted; absent entries are not an error.
func (r *Resolver) DeleteAll(f model.FavoriteRecord) (int, error) {
	deleted := 0

	keys := []LookupKey{DatabaseKey(f)}
	if key, ok := SSHKey(f); ok {
		keys = append(keys, key)
	}

	for _, key := range keys {
		err := r.Store.Delete(key)
		switch {
		case err == nil:
			deleted++
		case errors.Is(err, ErrNotFound):
			// nothing to delete
		default:
			return deleted, err
		}
	}
	return deleted, nil
}
