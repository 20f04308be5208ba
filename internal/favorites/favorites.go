// Copyright (c) 2025 ToeiRei
// Acekeeper - Sequel Ace favorites backup tool
// This source code is licensed under the MIT license found in the LICENSE file.

// package favorites reads and writes the Sequel Ace Favorites.plist. The
// loader lifts the fields Acekeeper models into FavoriteRecord and carries
// everything else verbatim in Extra, so a backup/restore cycle never drops
// keys this tool does not understand.
package favorites

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"howett.net/plist"

	"github.com/acekeeper/acekeeper/internal/model"
)

// Plist structure constants used by Sequel Ace.
const (
	rootKey        = "Favorites Root"
	childrenKey    = "Children"
	rootNameValue  = "Favorites Root"
	isExpandedKey  = "IsExpanded"
	rootNameKey    = "Name"
	archiveSuffix  = ".backup"
	favoritesPerms = 0644
)

// ParseError reports a favorites source that is absent, unreadable or
// structurally invalid.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("favorites: %v", e.Err)
	}
	return fmt.Sprintf("favorites %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Load reads and parses the favorites plist at path.
func Load(path string) ([]model.FavoriteRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	records, err := Parse(data)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return records, nil
}

// Parse decodes a favorites plist (XML or binary) into ordered records.
// Source ordering is preserved and no deduplication happens.
func Parse(data []byte) ([]model.FavoriteRecord, error) {
	var doc map[string]any
	if _, err := plist.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode plist: %w", err)
	}

	root, ok := doc[rootKey].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("missing %q dictionary", rootKey)
	}
	children, ok := root[childrenKey].([]any)
	if !ok {
		// An empty favorites file has no Children array.
		if _, present := root[childrenKey]; !present {
			return []model.FavoriteRecord{}, nil
		}
		return nil, fmt.Errorf("%q is not an array", childrenKey)
	}

	records := make([]model.FavoriteRecord, 0, len(children))
	for i, child := range children {
		fields, ok := child.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("favorite %d is not a dictionary", i)
		}
		record, err := recordFromFields(fields)
		if err != nil {
			return nil, fmt.Errorf("favorite %d: %w", i, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// recordFromFields lifts the modeled keys out of a favorite dictionary and
// keeps the rest in Extra. The source "type" stays in Extra untouched; the
// connection kind is derived from the presence of SSH coordinates so an
// inconsistent type value cannot produce a tunnel without a tunnel host.
func recordFromFields(fields map[string]any) (model.FavoriteRecord, error) {
	var record model.FavoriteRecord

	id, ok := fields["id"]
	if !ok {
		return record, fmt.Errorf("missing required key %q", "id")
	}
	record.ID = stringify(id)
	if record.ID == "" {
		return record, fmt.Errorf("key %q has unsupported type %T", "id", id)
	}

	var err error
	if record.Name, err = stringField(fields, "name"); err != nil {
		return record, err
	}
	if record.Host, err = stringField(fields, "host"); err != nil {
		return record, err
	}
	if record.User, err = stringField(fields, "user"); err != nil {
		return record, err
	}
	if record.Database, err = stringField(fields, "database"); err != nil {
		return record, err
	}
	if record.SSHHost, err = stringField(fields, "sshHost"); err != nil {
		return record, err
	}
	if record.SSHUser, err = stringField(fields, "sshUser"); err != nil {
		return record, err
	}

	if record.SSHHost != "" && record.SSHUser != "" {
		record.Kind = model.KindSSHTunnel
	} else {
		record.Kind = model.KindStandard
	}

	extra := make(map[string]any)
	for key, value := range fields {
		switch key {
		case "id", "name", "host", "user", "database", "sshHost", "sshUser":
			// Modeled above. An explicitly empty string stays in Extra:
			// Render skips empty optional fields, so this is the only way
			// the key survives a round-trip.
			if s, ok := value.(string); ok && s == "" {
				extra[key] = s
			}
		default:
			extra[key] = value
		}
	}
	if len(extra) > 0 {
		record.Extra = extra
	}

	return record, nil
}

// stringField returns the named field as a string, tolerating absence but
// not non-string values.
func stringField(fields map[string]any, key string) (string, error) {
	value, ok := fields[key]
	if !ok {
		return "", nil
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("key %q has type %T, want string", key, value)
	}
	return s, nil
}

// stringify renders the favorite identifier, which Sequel Ace stores as an
// integer but this tool models as a string.
func stringify(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case int64:
		return strconv.FormatInt(n, 10)
	case uint64:
		return strconv.FormatUint(n, 10)
	case int:
		return strconv.Itoa(n)
	case float64:
		return strconv.FormatInt(int64(n), 10)
	default:
		return ""
	}
}

// Render serializes records back into the plist structure Sequel Ace reads.
func Render(records []model.FavoriteRecord) ([]byte, error) {
	children := make([]any, 0, len(records))
	for _, record := range records {
		children = append(children, fieldsFromRecord(record))
	}
	doc := map[string]any{
		rootKey: map[string]any{
			childrenKey:   children,
			isExpandedKey: true,
			rootNameKey:   rootNameValue,
		},
	}
	data, err := plist.MarshalIndent(doc, plist.XMLFormat, "\t")
	if err != nil {
		return nil, fmt.Errorf("encode plist: %w", err)
	}
	return data, nil
}

// fieldsFromRecord is the inverse of recordFromFields. A numeric identifier
// is written back as an integer to match what the app itself writes.
func fieldsFromRecord(record model.FavoriteRecord) map[string]any {
	fields := make(map[string]any, len(record.Extra)+8)
	for key, value := range record.Extra {
		fields[key] = value
	}

	if n, err := strconv.ParseInt(record.ID, 10, 64); err == nil {
		fields["id"] = n
	} else {
		fields["id"] = record.ID
	}
	fields["name"] = record.Name
	fields["host"] = record.Host
	fields["user"] = record.User
	if record.Database != "" {
		fields["database"] = record.Database
	}
	if record.SSHHost != "" {
		fields["sshHost"] = record.SSHHost
	}
	if record.SSHUser != "" {
		fields["sshUser"] = record.SSHUser
	}
	return fields
}

// Write serializes records to the favorites file, creating the directory if
// needed.
func Write(path string, records []model.FavoriteRecord) error {
	data, err := Render(records)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create favorites directory: %w", err)
	}
	return os.WriteFile(path, data, favoritesPerms)
}

// Archive copies the current favorites file aside before it is overwritten.
// It returns the archive path, or "" when there is nothing to archive.
func Archive(path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read favorites for archive: %w", err)
	}
	archivePath := path + archiveSuffix
	if err := os.WriteFile(archivePath, data, favoritesPerms); err != nil {
		return "", fmt.Errorf("write favorites archive: %w", err)
	}
	return archivePath, nil
}

// Clear overwrites the favorites file with an empty Favorites Root.
func Clear(path string) error {
	return Write(path, nil)
}
