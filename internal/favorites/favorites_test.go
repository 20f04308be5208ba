// Copyright (c) 2025 ToeiRei
// Acekeeper - Sequel Ace favorites backup tool
// This source code is licensed under the MIT license found in the LICENSE file.

package favorites

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"howett.net/plist"

	"github.com/acekeeper/acekeeper/internal/model"
)

const sampleFavorites = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Favorites Root</key>
	<dict>
		<key>Children</key>
		<array>
			<dict>
				<key>id</key>
				<integer>7</integer>
				<key>name</key>
				<string>Prod</string>
				<key>host</key>
				<string>db.example.com</string>
				<key>user</key>
				<string>alice</string>
				<key>database</key>
				<string>orders</string>
				<key>port</key>
				<string>3306</string>
				<key>colorIndex</key>
				<integer>2</integer>
			</dict>
			<dict>
				<key>id</key>
				<integer>9</integer>
				<key>name</key>
				<string>Via Jump</string>
				<key>host</key>
				<string>10.0.0.5</string>
				<key>user</key>
				<string>alice</string>
				<key>sshHost</key>
				<string>jump.example.com</string>
				<key>sshUser</key>
				<string>tunneluser</string>
				<key>type</key>
				<integer>2</integer>
			</dict>
		</array>
		<key>IsExpanded</key>
		<true/>
		<key>Name</key>
		<string>Favorites Root</string>
	</dict>
</dict>
</plist>
`

func TestParse(t *testing.T) {
	records, err := Parse([]byte(sampleFavorites))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("parsed %d records, want 2", len(records))
	}

	prod := records[0]
	if prod.ID != "7" || prod.Name != "Prod" || prod.Kind != model.KindStandard {
		t.Errorf("first record = %+v, want id 7 / Prod / standard", prod)
	}
	if prod.Host != "db.example.com" || prod.User != "alice" || prod.Database != "orders" {
		t.Errorf("first record connection fields wrong: %+v", prod)
	}
	if prod.Extra["port"] != "3306" {
		t.Errorf("unmodeled key port not preserved: %v", prod.Extra)
	}

	jump := records[1]
	if jump.Kind != model.KindSSHTunnel {
		t.Errorf("second record kind = %s, want ssh-tunnel", jump.Kind)
	}
	if jump.SSHHost != "jump.example.com" || jump.SSHUser != "tunneluser" {
		t.Errorf("ssh fields wrong: %+v", jump)
	}
	if _, ok := jump.Extra["type"]; !ok {
		t.Error("source type field not carried in Extra")
	}
}

func TestKindInference(t *testing.T) {
	tests := []struct {
		name    string
		sshHost string
		sshUser string
		want    model.ConnectionKind
	}{
		{"both ssh fields", "jump.example.com", "tunneluser", model.KindSSHTunnel},
		{"host only", "jump.example.com", "", model.KindStandard},
		{"user only", "", "tunneluser", model.KindStandard},
		{"neither", "", "", model.KindStandard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := map[string]any{
				"id":   int64(1),
				"name": "x",
				"host": "h",
				"user": "u",
			}
			if tt.sshHost != "" {
				fields["sshHost"] = tt.sshHost
			}
			if tt.sshUser != "" {
				fields["sshUser"] = tt.sshUser
			}
			record, err := recordFromFields(fields)
			if err != nil {
				t.Fatalf("recordFromFields() error = %v", err)
			}
			if record.Kind != tt.want {
				t.Errorf("kind = %s, want %s", record.Kind, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not a plist", "this is not a plist"},
		{"missing root", `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0"><dict><key>Other</key><string>x</string></dict></plist>`},
		{"favorite missing id", `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0"><dict><key>Favorites Root</key><dict><key>Children</key><array><dict><key>name</key><string>x</string></dict></array></dict></dict></plist>`},
		{"host wrong type", `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0"><dict><key>Favorites Root</key><dict><key>Children</key><array><dict><key>id</key><integer>1</integer><key>host</key><integer>5</integer></dict></array></dict></dict></plist>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("Parse() error = nil, want parse failure")
			}
		})
	}
}

func TestLoadMissingFileIsParseError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.plist"))
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("Load() error = %v, want *ParseError", err)
	}
}

func TestRoundTrip(t *testing.T) {
	original, err := Parse([]byte(sampleFavorites))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	rendered, err := Render(original)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	reparsed, err := Parse(rendered)
	if err != nil {
		t.Fatalf("Parse(Render()) error = %v", err)
	}

	if !reflect.DeepEqual(reparsed, original) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", reparsed, original)
	}
}

func TestRoundTripKeepsExplicitlyEmptyKeys(t *testing.T) {
	source := `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Favorites Root</key>
	<dict>
		<key>Children</key>
		<array>
			<dict>
				<key>id</key>
				<integer>3</integer>
				<key>name</key>
				<string>NoDB</string>
				<key>host</key>
				<string>db.example.com</string>
				<key>user</key>
				<string>bob</string>
				<key>database</key>
				<string></string>
				<key>sshHost</key>
				<string></string>
			</dict>
		</array>
	</dict>
</dict>
</plist>
`
	records, err := Parse([]byte(source))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	record := records[0]
	if record.Database != "" || record.Kind != model.KindStandard {
		t.Fatalf("record = %+v, want empty database and standard kind", record)
	}

	rendered, err := Render(records)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	var doc map[string]any
	if _, err := plist.Unmarshal(rendered, &doc); err != nil {
		t.Fatalf("reparse rendered plist: %v", err)
	}
	child := doc[rootKey].(map[string]any)[childrenKey].([]any)[0].(map[string]any)
	for _, key := range []string{"database", "sshHost"} {
		value, present := child[key]
		if !present {
			t.Errorf("empty %q key dropped on round-trip", key)
			continue
		}
		if value != "" {
			t.Errorf("%q = %v, want empty string", key, value)
		}
	}

	reparsed, err := Parse(rendered)
	if err != nil {
		t.Fatalf("Parse(Render()) error = %v", err)
	}
	if !reflect.DeepEqual(reparsed, records) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", reparsed, records)
	}
}

func TestWriteArchiveClear(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Favorites.plist")

	records, err := Parse([]byte(sampleFavorites))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if err := Write(path, records); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	archivePath, err := Archive(path)
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	if archivePath != path+".backup" {
		t.Errorf("archive path = %q", archivePath)
	}
	if _, err := os.Stat(archivePath); err != nil {
		t.Fatalf("archive file missing: %v", err)
	}

	if err := Clear(path); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	cleared, err := Load(path)
	if err != nil {
		t.Fatalf("Load() after Clear error = %v", err)
	}
	if len(cleared) != 0 {
		t.Errorf("cleared favorites still has %d records", len(cleared))
	}

	// The archive still holds the pre-clear state.
	archived, err := Load(archivePath)
	if err != nil {
		t.Fatalf("Load(archive) error = %v", err)
	}
	if len(archived) != 2 {
		t.Errorf("archive holds %d records, want 2", len(archived))
	}
}

func TestArchiveMissingFile(t *testing.T) {
	archivePath, err := Archive(filepath.Join(t.TempDir(), "absent.plist"))
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	if archivePath != "" {
		t.Errorf("archive path = %q, want empty", archivePath)
	}
}
