// Copyright (c) 2025 ToeiRei
// Acekeeper - Sequel Ace favorites backup tool
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"strings"
	"testing"

	"github.com/acekeeper/acekeeper/internal/sink"
)

func TestRenderBackupListFormatsTimestamps(t *testing.T) {
	entries := []sink.Entry{
		{Title: "nightly", CreatedAt: "2025-10-14T12:00:05Z"},
		{Title: "undated", CreatedAt: ""},
	}

	out := renderBackupList(entries)
	if !strings.Contains(out, "nightly") || !strings.Contains(out, "undated") {
		t.Fatalf("titles missing from output: %s", out)
	}
	if !strings.Contains(out, "2025-10-14 12:00:05") {
		t.Errorf("RFC3339 timestamp not reformatted for display: %s", out)
	}
	if strings.Contains(out, "2025-10-14T12:00:05Z") {
		t.Errorf("raw RFC3339 value leaked into output: %s", out)
	}
}

func TestDisplayTimePassesThroughUnparseable(t *testing.T) {
	if got := displayTime("yesterday-ish"); got != "yesterday-ish" {
		t.Errorf("displayTime(unparseable) = %q", got)
	}
	if got := displayTime(""); got != "" {
		t.Errorf("displayTime(empty) = %q", got)
	}
}
