// Copyright (c) 2025 ToeiRei
// Acekeeper - Sequel Ace favorites backup tool
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/acekeeper/acekeeper/internal/config"
	"github.com/acekeeper/acekeeper/internal/favorites"
	"github.com/acekeeper/acekeeper/internal/keychain"
	"github.com/acekeeper/acekeeper/internal/sink"
)

const testFavorites = `<?xml version="1.0" encoding="UTF-8"?>
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
			</dict>
		</array>
	</dict>
</dict>
</plist>
`

// prodKey is where Sequel Ace keeps the password of the fixture favorite.
var prodKey = keychain.LookupKey{
	Service: "Sequel Ace : Prod (7)",
	Account: "alice@db.example.com/orders",
}

// setupFakeServices wires the command globals to a temp favorites file, an
// in-memory keychain and a file sink in a temp dir, mirroring what
// setupDefaultServices builds in production.
func setupFakeServices(t *testing.T) *keychain.MemoryStore {
	t.Helper()

	tmp := t.TempDir()
	favPath := filepath.Join(tmp, "Favorites.plist")
	if err := os.WriteFile(favPath, []byte(testFavorites), 0o600); err != nil {
		t.Fatalf("write favorites: %v", err)
	}

	mem := keychain.NewMemoryStore()
	mem.Secrets[prodKey] = "s3cret"

	appFavs = favorites.FileStore{Path: favPath}
	appResolver = &keychain.Resolver{Store: mem}
	appSink = sink.NewFileSink(filepath.Join(tmp, "backups"))
	appConfig = config.Config{
		Sink:        "file",
		HistoryPath: filepath.Join(tmp, "history.db"),
	}

	// Reset flag state shared between tests.
	backupTitle, restoreTitle, showTitle = "", "", ""
	noArchive, skipBackup, assumeYes, skipErrors = false, false, false, false
	historyLimit = 20

	return mem
}

// runCommand invokes the command's RunE directly with captured stdout.
func runCommand(t *testing.T, cmd *cobra.Command) (string, error) {
	t.Helper()

	oldOut := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	defer func() { os.Stdout = oldOut }()

	cmd.SetContext(context.Background())
	err := cmd.RunE(cmd, nil)

	w.Close()
	out, _ := io.ReadAll(r)
	return string(out), err
}

func TestBackupListShowFlow(t *testing.T) {
	setupFakeServices(t)

	backupTitle = "flow test"
	out, err := runCommand(t, backupCmd)
	if err != nil {
		t.Fatalf("backup failed: %v", err)
	}
	if !strings.Contains(out, "flow test") {
		t.Errorf("backup output missing title: %s", out)
	}

	out, err = runCommand(t, listCmd)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "flow test") {
		t.Errorf("list output missing backup: %s", out)
	}

	showTitle = "flow test"
	out, err = runCommand(t, showCmd)
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(out, "Prod") || !strings.Contains(out, "db.example.com") {
		t.Errorf("show output missing favorite: %s", out)
	}
	if strings.Contains(out, "s3cret") {
		t.Fatalf("show output leaked a secret: %s", out)
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	mem := setupFakeServices(t)

	backupTitle = "pre restore"
	if _, err := runCommand(t, backupCmd); err != nil {
		t.Fatalf("backup failed: %v", err)
	}

	// Lose the keychain entry, then restore it from the backup.
	delete(mem.Secrets, prodKey)

	restoreTitle = "pre restore"
	out, err := runCommand(t, restoreCmd)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if !strings.Contains(out, "1") {
		t.Errorf("restore output missing counts: %s", out)
	}
	if got := mem.Secrets[prodKey]; got != "s3cret" {
		t.Errorf("secret not restored, got %q", got)
	}
}

func TestListEmptySink(t *testing.T) {
	setupFakeServices(t)

	out, err := runCommand(t, listCmd)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "No backups found.") {
		t.Errorf("expected empty message, got: %s", out)
	}
}

func TestClearRefusedWithoutConfirmation(t *testing.T) {
	mem := setupFakeServices(t)

	// stdin is not a terminal under test, so without --yes the clear must
	// cancel itself.
	out, err := runCommand(t, clearCmd)
	if err != nil {
		t.Fatalf("clear errored: %v", err)
	}
	if !strings.Contains(out, "Aborted") {
		t.Errorf("expected cancellation, got: %s", out)
	}
	// The doomed favorites are listed before the confirmation.
	if !strings.Contains(out, "Prod (alice@db.example.com)") {
		t.Errorf("expected favorite listing before confirmation, got: %s", out)
	}
	if len(mem.Secrets) != 1 {
		t.Errorf("secrets were deleted despite cancellation")
	}
}

func TestClearWithYesDeletesEverything(t *testing.T) {
	mem := setupFakeServices(t)

	assumeYes = true
	out, err := runCommand(t, clearCmd)
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if !strings.Contains(out, "Safety backup stored") {
		t.Errorf("expected pre-clear backup notice, got: %s", out)
	}
	if len(mem.Secrets) != 0 {
		t.Errorf("keychain entries remain: %v", mem.Secrets)
	}

	records, err := appFavs.Load()
	if err != nil {
		t.Fatalf("reload favorites: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("favorites remain after clear: %d", len(records))
	}
}

func TestVersionCommand(t *testing.T) {
	oldOut := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	SetVersion("9.9.9-test")
	versionCmd.Run(versionCmd, nil)

	w.Close()
	os.Stdout = oldOut
	out, _ := io.ReadAll(r)
	if !strings.Contains(string(out), "9.9.9-test") {
		t.Errorf("version output = %q", out)
	}
}
