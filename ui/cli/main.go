// Copyright (c) 2025 ToeiRei
// Acekeeper - Sequel Ace favorites backup tool
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface for Acekeeper using the Cobra
// library. It defines the root command, the subcommands (backup, restore,
// list, show, clear, history), global flags and the shared service setup.

package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/acekeeper/acekeeper/internal/config"
	"github.com/acekeeper/acekeeper/internal/core"
	"github.com/acekeeper/acekeeper/internal/favorites"
	"github.com/acekeeper/acekeeper/internal/history"
	"github.com/acekeeper/acekeeper/internal/i18n"
	"github.com/acekeeper/acekeeper/internal/keychain"
	"github.com/acekeeper/acekeeper/internal/logging"
	"github.com/acekeeper/acekeeper/internal/model"
	"github.com/acekeeper/acekeeper/internal/sink"
)

var version = "dev" // this will be set by the linker

// SetVersion lets the entrypoint pass the build-time version through.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var (
	cfgFile     string
	appConfig   config.Config
	appFavs     core.FavoritesStore
	appResolver *keychain.Resolver
	appSink     sink.Sink
)

// Per-command flag targets.
var (
	backupTitle  string
	restoreTitle string
	showTitle    string
	noArchive    bool
	skipBackup   bool
	assumeYes    bool
	skipErrors   bool
	historyLimit int
)

var rootCmd = &cobra.Command{
	Use:   "acekeeper",
	Short: "Backup and restore Sequel Ace favorites including keychain passwords",
	Long: `Acekeeper backs up your Sequel Ace connection favorites together with the
passwords Sequel Ace keeps in the macOS Keychain, and restores them onto the
same or a different machine.

Backups are single JSON documents stored either as local files or as Secure
Notes in a 1Password vault (via the op CLI). The document format is the same
for both sinks, so a backup made against one can be restored from the other.`,
	SilenceUsage: true,
}

// Execute runs the root command. It is the single entry point used by main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to an explicit config file")
	rootCmd.PersistentFlags().String("sink", "", "Backup destination: file or 1password")
	rootCmd.PersistentFlags().String("vault", "", "1Password vault for backups")
	rootCmd.PersistentFlags().String("backup_dir", "", "Directory for file-based backups")
	rootCmd.PersistentFlags().String("language", "", "UI language (en, de)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	backupCmd.Flags().StringVar(&backupTitle, "title", "", "Custom title for the backup")
	backupCmd.Flags().BoolVar(&skipErrors, "skip-errors", false, "Continue past per-favorite keychain failures")
	restoreCmd.Flags().StringVarP(&restoreTitle, "title", "f", "", "Title of the backup to restore (defaults to most recent)")
	restoreCmd.Flags().BoolVar(&noArchive, "no-archive", false, "Do not archive the current favorites file first")
	showCmd.Flags().StringVarP(&showTitle, "title", "f", "", "Title of the backup to show (defaults to most recent)")
	clearCmd.Flags().BoolVar(&skipBackup, "skip-backup", false, "Skip the pre-clear safety backup (dangerous)")
	clearCmd.Flags().BoolVar(&assumeYes, "yes", false, "Skip the interactive confirmation (for scripts)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of runs to show")

	rootCmd.AddCommand(
		backupCmd,
		restoreCmd,
		listCmd,
		showCmd,
		clearCmd,
		historyCmd,
		versionCmd,
	)
}

// setupDefaultServices loads configuration and constructs the favorites
// store, the keychain resolver and the backup sink used by every command.
func setupDefaultServices(cmd *cobra.Command, args []string) error {
	var optionalConfigPath *string
	if cfgFile != "" {
		optionalConfigPath = &cfgFile
	}

	home, _ := os.UserHomeDir()
	defaults := map[string]any{
		"sink":         "file",
		"vault":        "Private",
		"backup_dir":   filepath.Join(home, ".acekeeper", "backups"),
		"history_path": filepath.Join(home, ".acekeeper", "history.db"),
		"app_binary":   config.DefaultAppBinary(),
		"language":     "en",
	}

	var err error
	appConfig, err = config.LoadConfig[config.Config](cmd, defaults, optionalConfigPath)
	if errors.As(err, &viper.ConfigFileNotFoundError{}) {
		// First run, or the config file was deleted. Persist the defaults so
		// the user has a file to edit.
		if writeErr := config.WriteConfigFile(&appConfig, false); writeErr != nil {
			logging.Warnf("could not write default config file: %v", writeErr)
		} else {
			logging.Infof("wrote a default config file, edit it to change sinks or paths")
		}
	} else if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	i18n.SetLang(appConfig.Language)
	logging.SetDebug(appConfig.Debug)

	favoritesPath := appConfig.FavoritesPath
	if favoritesPath == "" {
		favoritesPath = config.DefaultFavoritesPath()
	}
	appFavs = favorites.FileStore{Path: favoritesPath}
	appResolver = &keychain.Resolver{
		Store: keychain.NewSecurityStore(appConfig.AppBinary, "/usr/bin/security"),
	}

	switch appConfig.Sink {
	case "", "file":
		appSink = sink.NewFileSink(appConfig.BackupDir)
	case "1password":
		op := sink.NewOnePasswordSink(appConfig.Vault)
		if err := op.CheckAuth(); err != nil {
			return err
		}
		appSink = op
	default:
		return fmt.Errorf("unknown sink %q (expected file or 1password)", appConfig.Sink)
	}

	logging.Debugf("services ready: sink=%s favorites=%s", appConfig.Sink, favoritesPath)
	return nil
}

// recordRun appends the run to the local history. History is best-effort:
// failures are logged, never surfaced as command errors.
func recordRun(command, target string, favoritesCount, credentials, failures int, details string) {
	store, err := history.Open(appConfig.HistoryPath)
	if err != nil {
		logging.Debugf("history unavailable: %v", err)
		return
	}
	defer func() { _ = store.Close() }()

	if err := store.Record(model.RunRecord{
		Command: command, Target: target, Favorites: favoritesCount,
		Credentials: credentials, Failures: failures, Details: details,
	}); err != nil {
		logging.Debugf("could not record run: %v", err)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the Acekeeper version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("acekeeper %s\n", version)
	},
}
