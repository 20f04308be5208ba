// Copyright (c) 2025 ToeiRei
// Acekeeper - Sequel Ace favorites backup tool
// This source code is licensed under the MIT license found in the LICENSE file.

package keychain

import (
	"fmt"

	"github.com/acekeeper/acekeeper/internal/model"
)

// Keychain naming used by Sequel Ace itself. These strings are a contract
// with the external app: change them and restored passwords become invisible
// to it.
const (
	servicePrefix    = "Sequel Ace : "
	sshServicePrefix = "Sequel Ace SSHTunnel : "
)

// LookupKey addresses one secret in the credential store.
type LookupKey struct {
	Service string
	Account string
}

// String renders the key for logs and summaries. It never contains secret
// material.
func (k LookupKey) String() string {
	return fmt.Sprintf("%s / %s", k.Service, k.Account)
}

// DatabaseKey derives the lookup key for the favorite's database password.
// Sequel Ace stores it under service "Sequel Ace : <name> (<id>)" and
// account "<user>@<host>/<database>", with a trailing slash when the
// favorite has no default database.
func DatabaseKey(f model.FavoriteRecord) LookupKey {
	return LookupKey{
		Service: fmt.Sprintf("%s%s (%s)", servicePrefix, f.Name, f.ID),
		Account: fmt.Sprintf("%s@%s/%s", f.User, f.Host, f.Database),
	}
}

// SSHKey derives the lookup key for the favorite's SSH tunnel password.
// It returns ok=false for favorites that are not SSH tunnels or that lack
// tunnel coordinates.
func SSHKey(f model.FavoriteRecord) (LookupKey, bool) {
	if !f.IsTunnel() || f.SSHUser == "" || f.SSHHost == "" {
		return LookupKey{}, false
	}
	return LookupKey{
		Service: fmt.Sprintf("%s%s (%s)", sshServicePrefix, f.Name, f.ID),
		Account: fmt.Sprintf("%s@%s", f.SSHUser, f.SSHHost),
	}, true
}
