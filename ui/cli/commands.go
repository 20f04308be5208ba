// Copyright (c) 2025 ToeiRei
// Acekeeper - Sequel Ace favorites backup tool
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/acekeeper/acekeeper/internal/core"
	"github.com/acekeeper/acekeeper/internal/history"
	"github.com/acekeeper/acekeeper/internal/i18n"
	"github.com/acekeeper/acekeeper/internal/keychain"
	"github.com/acekeeper/acekeeper/internal/logging"
)

// consoleReporter prints per-favorite progress lines from the core
// operations.
type consoleReporter struct{}

func (consoleReporter) Reportf(format string, args ...any) {
	fmt.Printf("  "+format+"\n", args...)
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create a backup of favorites and their passwords",
	Long: `Reads the Sequel Ace favorites, extracts each favorite's passwords from the
macOS Keychain and stores everything as one backup document in the configured
sink.

Passwords are only included when Sequel Ace saved them to the keychain. In
Sequel Ace, edit each favorite and enable "Save password in keychain" to make
sure its password ends up in backups.

Examples:
  acekeeper backup
  acekeeper backup --title "Before laptop swap"
  acekeeper --sink 1password --vault Shared backup`,
	Args:    cobra.NoArgs,
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(i18n.T("backup.cli_starting"))
		result, err := core.RunBackup(cmd.Context(), appFavs, appResolver, appSink, core.BackupOptions{
			Title:           backupTitle,
			SkipStoreErrors: skipErrors,
		}, consoleReporter{})
		if err != nil {
			return err
		}

		recordRun("backup", appConfig.Sink, result.Favorites, result.CredentialsFound, len(result.Failures), failureDetails(result.Failures))

		fmt.Println(i18n.T("backup.cli_success", result.Title))
		fmt.Println(i18n.T("backup.cli_summary", result.Favorites, result.CredentialsFound, result.ItemID))
		for _, failure := range result.Failures {
			logging.Warnf("%s", failure.Error())
		}
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore favorites and passwords from a backup",
	Long: `Fetches a backup document from the configured sink, rewrites the Sequel Ace
favorites file and writes every saved password back into the macOS Keychain.

The current favorites file is archived to Favorites.plist.backup first unless
--no-archive is given. If one password fails to restore, the rest are still
attempted and a summary names the favorites to retry.

Examples:
  acekeeper restore
  acekeeper restore --title "Sequel Ace Backup - 2025-10-14 12:00:00"`,
	Args:    cobra.NoArgs,
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		quitSequelAce()

		fmt.Println(i18n.T("restore.cli_starting"))
		result, err := core.RunRestore(cmd.Context(), appFavs, appResolver, appSink, core.RestoreOptions{
			Title:     restoreTitle,
			NoArchive: noArchive,
		}, consoleReporter{})
		if err != nil {
			return err
		}

		recordRun("restore", appConfig.Sink, result.Favorites, result.CredentialsRestored, len(result.Failed), credentialFailureDetails(result.Failed))

		fmt.Println(i18n.T("restore.cli_success", result.Favorites, result.CredentialsRestored))
		if len(result.Failed) > 0 {
			fmt.Println(i18n.T("restore.cli_failures", len(result.Failed)))
			for _, failure := range result.Failed {
				fmt.Printf("    %s\n", failure.Error())
			}
		}
		fmt.Println(i18n.T("restore.cli_keychain_note"))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List all backups in the configured sink",
	Args:    cobra.NoArgs,
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := core.RunList(cmd.Context(), appSink)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println(i18n.T("list.cli_none"))
			return nil
		}
		fmt.Println(i18n.T("list.cli_found", len(entries)))
		fmt.Println(renderBackupList(entries))
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:     "show",
	Short:   "Show the favorites inside a backup",
	Long:    `Displays the favorites stored in a backup, with password presence per favorite. No secret values are ever printed.`,
	Args:    cobra.NoArgs,
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, title, err := core.RunShow(cmd.Context(), appSink, showTitle)
		if err != nil {
			return err
		}
		fmt.Println(i18n.T("show.cli_header", title, doc.CreatedAt))
		fmt.Println(renderDocument(doc))
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all Sequel Ace favorites and their passwords",
	Long: `Deletes every keychain password belonging to the current favorites, then
resets the favorites file itself. A safety backup is stored first unless
--skip-backup is given.

The operation must be confirmed by typing DELETE, or by passing --yes in
scripts. It cannot be undone except by restoring a backup.`,
	Args:    cobra.NoArgs,
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		current, err := appFavs.Load()
		if err != nil {
			return err
		}
		if len(current) == 0 {
			fmt.Println(i18n.T("clear.cli_nothing"))
			return nil
		}

		fmt.Println(i18n.T("clear.cli_warning", len(current)))
		for _, record := range current {
			fmt.Printf("  - %s (%s)\n", record.Name, record.String())
		}
		if !confirmClear() {
			fmt.Println(i18n.T("clear.cli_cancelled"))
			return nil
		}

		quitSequelAce()

		result, err := core.RunClear(cmd.Context(), appFavs, appResolver, appSink, core.ClearOptions{
			Confirmed:  true,
			SkipBackup: skipBackup,
		}, consoleReporter{})
		if err != nil {
			return err
		}

		recordRun("clear", appConfig.Sink, result.Favorites, result.CredentialsDeleted, len(result.Failed), credentialFailureDetails(result.Failed))

		if result.PreClear != nil {
			fmt.Println(i18n.T("clear.cli_backup_taken", result.PreClear.Title))
		}
		fmt.Println(i18n.T("clear.cli_success", result.Favorites, result.CredentialsDeleted))
		for _, failure := range result.Failed {
			logging.Warnf("%s", failure.Error())
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:     "history",
	Short:   "Show recent backup/restore/clear runs",
	Args:    cobra.NoArgs,
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.Open(appConfig.HistoryPath)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		runs, err := store.Recent(historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println(i18n.T("history.cli_none"))
			return nil
		}
		fmt.Println(renderHistory(runs))
		return nil
	},
}

// confirmClear obtains the destructive-operation confirmation. Scripts pass
// --yes; interactive users must type DELETE.
func confirmClear() bool {
	if assumeYes {
		return true
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		logging.Errorf("%s", i18n.T("clear.cli_need_tty"))
		return false
	}

	fmt.Print(i18n.T("clear.cli_confirm_prompt"))
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	return strings.TrimSpace(scanner.Text()) == "DELETE"
}

func failureDetails(failures []keychain.ResolveFailure) string {
	parts := make([]string, 0, len(failures))
	for _, f := range failures {
		parts = append(parts, f.Error())
	}
	return strings.Join(parts, "; ")
}

func credentialFailureDetails(failures []core.CredentialFailure) string {
	parts := make([]string, 0, len(failures))
	for _, f := range failures {
		parts = append(parts, f.Error())
	}
	return strings.Join(parts, "; ")
}
