// Copyright (c) 2025 ToeiRei
// Acekeeper - Sequel Ace favorites backup tool
// This source code is licensed under the MIT license found in the LICENSE file.

// package model defines the core data structures shared across Acekeeper.
// These are plain structs with no behavior beyond formatting helpers; all
// transformation logic lives in the favorites, keychain and backup packages.
package model

import "fmt"

// ConnectionKind distinguishes how a favorite reaches its database.
type ConnectionKind string

const (
	// KindStandard is a direct TCP/IP (or socket) connection.
	KindStandard ConnectionKind = "standard"
	// KindSSHTunnel routes the connection through an intermediate SSH host.
	KindSSHTunnel ConnectionKind = "ssh-tunnel"
)

// CredentialRole identifies which secret of a favorite a credential holds.
type CredentialRole string

const (
	// RoleDatabase is the database user's password.
	RoleDatabase CredentialRole = "database"
	// RoleSSH is the SSH tunnel user's password.
	RoleSSH CredentialRole = "ssh"
)

// FavoriteRecord is one saved connection from the Sequel Ace favorites file.
// Records are value types; transformations return new records rather than
// mutating in place.
type FavoriteRecord struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Kind     ConnectionKind `json:"kind"`
	Host     string         `json:"host"`
	User     string         `json:"user"`
	Database string         `json:"database,omitempty"`
	SSHHost  string         `json:"ssh_host,omitempty"`
	SSHUser  string         `json:"ssh_user,omitempty"`
	// Extra holds every source field this tool does not model, so a
	// backup/restore cycle never drops keys Sequel Ace cares about.
	Extra map[string]any `json:"extra,omitempty"`
}

// String returns the user@host representation of the favorite.
func (f FavoriteRecord) String() string {
	return fmt.Sprintf("%s@%s", f.User, f.Host)
}

// IsTunnel reports whether the favorite connects through an SSH tunnel.
func (f FavoriteRecord) IsTunnel() bool {
	return f.Kind == KindSSHTunnel
}

// ResolvedCredential is the outcome of looking up one secret for a favorite.
// A missing secret is a recorded state, not an error, so restores can tell
// "never saved" apart from "failed to read".
type ResolvedCredential struct {
	FavoriteID string         `json:"-"`
	Role       CredentialRole `json:"role"`
	Found      bool           `json:"found"`
	Secret     string         `json:"secret,omitempty"`
}

// BackupFavorite pairs a favorite with the credentials resolved for it
// inside a backup document.
type BackupFavorite struct {
	FavoriteRecord
	Credentials []ResolvedCredential `json:"credentials"`
}

// BackupDocument is the portable backup artifact. It is produced once per
// backup run, immutable afterwards, and consumed wholesale by restore.
type BackupDocument struct {
	Version   int              `json:"version"`
	CreatedAt string           `json:"created_at"`
	Favorites []BackupFavorite `json:"favorites"`
}

// RunRecord summarizes one backup/restore/clear run for the local history.
type RunRecord struct {
	ID          int
	Timestamp   string
	Command     string
	Target      string
	Favorites   int
	Credentials int
	Failures    int
	Details     string
}
