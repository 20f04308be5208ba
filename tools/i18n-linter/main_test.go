// Copyright (c) 2025 ToeiRei
// Acekeeper - Sequel Ace favorites backup tool
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLocaleKeysFlat(t *testing.T) {
	tmp := t.TempDir()
	file := filepath.Join(tmp, "en.yaml")
	body := "backup.cli_starting: \"Backing up...\"\nlist.cli_none: \"No backups found.\"\n"
	if err := os.WriteFile(file, []byte(body), 0o600); err != nil {
		t.Fatalf("write locale: %v", err)
	}

	keys, err := localeKeys(file)
	if err != nil {
		t.Fatalf("localeKeys: %v", err)
	}
	want := map[string]struct{}{"backup.cli_starting": {}, "list.cli_none": {}}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("keys = %v, want %v", keys, want)
	}
}

func TestLocaleKeysNested(t *testing.T) {
	tmp := t.TempDir()
	file := filepath.Join(tmp, "en.yaml")
	body := "clear:\n  cli_warning: \"Careful\"\n  cli_success: \"Done\"\n"
	if err := os.WriteFile(file, []byte(body), 0o600); err != nil {
		t.Fatalf("write locale: %v", err)
	}

	keys, err := localeKeys(file)
	if err != nil {
		t.Fatalf("localeKeys: %v", err)
	}
	if _, ok := keys["clear.cli_warning"]; !ok {
		t.Errorf("nested key not flattened: %v", keys)
	}
}

func TestUsedKeysFindsCalls(t *testing.T) {
	tmp := t.TempDir()
	src := `package x
func f() { _ = i18n.T("backup.cli_starting"); _ = i18n.T("list.cli_none", 3) }
`
	if err := os.WriteFile(filepath.Join(tmp, "x.go"), []byte(src), 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}
	// Test files must not count as usage.
	if err := os.WriteFile(filepath.Join(tmp, "x_test.go"), []byte(`package x
func g() { _ = i18n.T("only.in.test") }
`), 0o600); err != nil {
		t.Fatalf("write test source: %v", err)
	}

	keys, err := usedKeys(tmp)
	if err != nil {
		t.Fatalf("usedKeys: %v", err)
	}
	if _, ok := keys["backup.cli_starting"]; !ok {
		t.Errorf("missing used key, got %v", keys)
	}
	if _, ok := keys["only.in.test"]; ok {
		t.Errorf("test-only key counted: %v", keys)
	}
}

func TestDifference(t *testing.T) {
	a := map[string]struct{}{"a": {}, "b": {}, "c": {}}
	b := map[string]struct{}{"b": {}}
	if got := difference(a, b); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Errorf("difference = %v", got)
	}
	if got := difference(b, a); got != nil {
		t.Errorf("expected nil for subset, got %v", got)
	}
}
