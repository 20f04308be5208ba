// Copyright (c) 2025 ToeiRei
// Acekeeper - Sequel Ace favorites backup tool
// This source code is licensed under the MIT license found in the LICENSE file.

// package backup encodes and decodes the portable backup document: one
// versioned JSON payload holding favorites and their resolved credentials.
// The same document format is used whether the sink is a local file or a
// 1Password secure note.
package backup

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/acekeeper/acekeeper/internal/model"
)

// Version is the current backup document format version.
const Version = 1

// FormatError reports a backup document with an unrecognized version or a
// structure violating the document invariants.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("backup document: %s", e.Reason)
}

// Encode merges favorites and their resolved credentials into a backup
// document. It is pure and total: favorites without resolved credentials get
// an empty credential list, never a hole.
func Encode(records []model.FavoriteRecord, credsByID map[string][]model.ResolvedCredential, now time.Time) *model.BackupDocument {
	favorites := make([]model.BackupFavorite, 0, len(records))
	for _, record := range records {
		creds := credsByID[record.ID]
		if creds == nil {
			creds = []model.ResolvedCredential{}
		}
		favorites = append(favorites, model.BackupFavorite{
			FavoriteRecord: record,
			Credentials:    creds,
		})
	}
	return &model.BackupDocument{
		Version:   Version,
		CreatedAt: now.UTC().Format(time.RFC3339),
		Favorites: favorites,
	}
}

// Marshal renders the document as indented JSON.
func Marshal(doc *model.BackupDocument) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// Decode parses and validates a backup document. Unknown versions and
// structural violations yield a FormatError.
func Decode(raw []byte) (*model.BackupDocument, error) {
	var doc model.BackupDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &FormatError{Reason: fmt.Sprintf("not valid JSON: %v", err)}
	}
	if err := Validate(&doc); err != nil {
		return nil, err
	}
	// FavoriteID is implicit in the JSON nesting; rebind it so consumers can
	// pass credentials around independently of their favorite.
	for i := range doc.Favorites {
		for j := range doc.Favorites[i].Credentials {
			doc.Favorites[i].Credentials[j].FavoriteID = doc.Favorites[i].ID
		}
	}
	return &doc, nil
}

// Validate checks the document invariants: a known version, a unique
// non-empty identifier per favorite, known credential roles, and tunnel
// coordinates on every ssh-tunnel favorite.
func Validate(doc *model.BackupDocument) error {
	if doc.Version != Version {
		return &FormatError{Reason: fmt.Sprintf("unsupported version %d", doc.Version)}
	}

	seen := make(map[string]bool, len(doc.Favorites))
	for i, fav := range doc.Favorites {
		if fav.ID == "" {
			return &FormatError{Reason: fmt.Sprintf("favorite %d has no identifier", i)}
		}
		if seen[fav.ID] {
			return &FormatError{Reason: fmt.Sprintf("duplicate favorite identifier %q", fav.ID)}
		}
		seen[fav.ID] = true

		switch fav.Kind {
		case model.KindStandard:
			if fav.SSHHost != "" || fav.SSHUser != "" {
				return &FormatError{Reason: fmt.Sprintf("standard favorite %q carries SSH fields", fav.ID)}
			}
		case model.KindSSHTunnel:
			if fav.SSHHost == "" || fav.SSHUser == "" {
				return &FormatError{Reason: fmt.Sprintf("ssh-tunnel favorite %q lacks tunnel coordinates", fav.ID)}
			}
		default:
			return &FormatError{Reason: fmt.Sprintf("favorite %q has unknown kind %q", fav.ID, fav.Kind)}
		}

		for _, cred := range fav.Credentials {
			if cred.Role != model.RoleDatabase && cred.Role != model.RoleSSH {
				return &FormatError{Reason: fmt.Sprintf("favorite %q has credential with unknown role %q", fav.ID, cred.Role)}
			}
			if cred.Role == model.RoleSSH && fav.Kind != model.KindSSHTunnel {
				return &FormatError{Reason: fmt.Sprintf("standard favorite %q carries an ssh credential", fav.ID)}
			}
		}
	}
	return nil
}

// Records extracts the plain favorite records from a document, in order.
func Records(doc *model.BackupDocument) []model.FavoriteRecord {
	records := make([]model.FavoriteRecord, 0, len(doc.Favorites))
	for _, fav := range doc.Favorites {
		records = append(records, fav.FavoriteRecord)
	}
	return records
}
