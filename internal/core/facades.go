// Copyright (c) 2025 ToeiRei
// Acekeeper - Sequel Ace favorites backup tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package core wires the loader, the credential resolver, the codec and the
// sinks into the backup/restore/clear operations. Functions here operate
// via small interfaces and return results instead of printing, so the CLI
// stays a thin shell and tests run entirely on in-memory fakes.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/acekeeper/acekeeper/internal/backup"
	"github.com/acekeeper/acekeeper/internal/keychain"
	"github.com/acekeeper/acekeeper/internal/model"
	"github.com/acekeeper/acekeeper/internal/sink"
)

// TitlePrefix starts every default backup title, mirroring what Sequel Ace
// users already have in their vaults from the original tooling.
const TitlePrefix = "Sequel Ace Backup"

// ErrNotConfirmed guards the clear operation: the caller must have obtained
// an explicit confirmation before invoking it.
var ErrNotConfirmed = errors.New("clear operation not confirmed")

// FavoritesStore abstracts the favorites configuration file.
type FavoritesStore interface {
	Load() ([]model.FavoriteRecord, error)
	Write(records []model.FavoriteRecord) error
	Archive() (string, error)
	Clear() error
}

// Reporter receives human-readable progress lines during an operation.
// A nil Reporter is valid and silences progress output.
type Reporter interface {
	Reportf(format string, args ...any)
}

func reportf(rep Reporter, format string, args ...any) {
	if rep != nil {
		rep.Reportf(format, args...)
	}
}

// CredentialFailure records one credential write or delete that failed
// during a run that continued past it.
type CredentialFailure struct {
	FavoriteID string
	Role       model.CredentialRole
	Err        error
}

func (f CredentialFailure) Error() string {
	return fmt.Sprintf("favorite %s (%s): %v", f.FavoriteID, f.Role, f.Err)
}

// DefaultBackupTitle names an ad-hoc backup after its creation time.
func DefaultBackupTitle(now time.Time) string {
	return fmt.Sprintf("%s - %s", TitlePrefix, now.Format("2006-01-02 15:04:05"))
}

// PreClearTitle names the safety backup taken before a clear.
func PreClearTitle(now time.Time) string {
	return fmt.Sprintf("%s - Pre-Clear - %s", TitlePrefix, now.Format("2006-01-02 15:04:05"))
}

// BackupOptions controls a backup run.
type BackupOptions struct {
	// Title for the stored backup; empty derives one from Now.
	Title string
	// SkipStoreErrors continues past per-favorite credential store
	// failures instead of aborting the whole backup.
	SkipStoreErrors bool
	// Now stamps the document; zero means time.Now.
	Now time.Time
}

// BackupResult summarizes a completed backup.
type BackupResult struct {
	Title            string
	ItemID           string
	Favorites        int
	CredentialsFound int
	Failures         []keychain.ResolveFailure
}

// RunBackup loads favorites, resolves their credentials and stores one
// backup document in the sink.
func RunBackup(ctx context.Context, favs FavoritesStore, resolver *keychain.Resolver, snk sink.Sink, opts BackupOptions, rep Reporter) (*BackupResult, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	title := opts.Title
	if title == "" {
		title = DefaultBackupTitle(now)
	}

	records, err := favs.Load()
	if err != nil {
		return nil, err
	}
	reportf(rep, "found %d favorites", len(records))

	credsByID, failures, err := resolver.ResolveAll(records, opts.SkipStoreErrors)
	if err != nil {
		return nil, err
	}

	found := 0
	for _, record := range records {
		for _, cred := range credsByID[record.ID] {
			if cred.Found {
				found++
				reportf(rep, "extracted %s password for %s", cred.Role, record.Name)
			} else {
				reportf(rep, "no %s password saved for %s", cred.Role, record.Name)
			}
		}
	}

	raw, err := backup.Marshal(backup.Encode(records, credsByID, now))
	if err != nil {
		return nil, fmt.Errorf("encode backup document: %w", err)
	}
	itemID, err := snk.Create(title, raw)
	if err != nil {
		return nil, err
	}

	return &BackupResult{
		Title:            title,
		ItemID:           itemID,
		Favorites:        len(records),
		CredentialsFound: found,
		Failures:         failures,
	}, nil
}

// RestoreOptions controls a restore run.
type RestoreOptions struct {
	// Title of the backup to restore; empty restores the most recent one.
	Title string
	// NoArchive skips archiving the current favorites file first.
	NoArchive bool
}

// RestoreResult summarizes a completed restore, including which credential
// writes failed so the user can re-run selectively.
type RestoreResult struct {
	Title               string
	ArchivePath         string
	Favorites           int
	CredentialsRestored int
	Failed              []CredentialFailure
}

// RunRestore fetches a backup document from the sink, rewrites the
// favorites file and writes every found credential back to the store.
// A single credential failure does not abort the run: favorites without
// secrets still beat no favorites at all.
func RunRestore(ctx context.Context, favs FavoritesStore, resolver *keychain.Resolver, snk sink.Sink, opts RestoreOptions, rep Reporter) (*RestoreResult, error) {
	title := opts.Title
	if title == "" {
		latest, err := sink.Latest(snk)
		if err != nil {
			return nil, err
		}
		title = latest.Title
		reportf(rep, "no backup selected, using most recent: %s", title)
	}

	raw, err := snk.Get(title)
	if err != nil {
		return nil, err
	}
	doc, err := backup.Decode(raw)
	if err != nil {
		return nil, err
	}

	result := &RestoreResult{Title: title, Favorites: len(doc.Favorites)}

	if !opts.NoArchive {
		archivePath, err := favs.Archive()
		if err != nil {
			return nil, err
		}
		result.ArchivePath = archivePath
		if archivePath != "" {
			reportf(rep, "archived current favorites to %s", archivePath)
		}
	}

	if err := favs.Write(backup.Records(doc)); err != nil {
		return nil, err
	}
	reportf(rep, "restored %d favorites", len(doc.Favorites))

	// Credential writes happen in favorites order so the failure report is
	// positionally meaningful.
	for _, fav := range doc.Favorites {
		for _, cred := range fav.Credentials {
			if !cred.Found {
				continue
			}
			if err := resolver.StoreCredential(fav.FavoriteRecord, cred); err != nil {
				result.Failed = append(result.Failed, CredentialFailure{
					FavoriteID: fav.ID, Role: cred.Role, Err: err,
				})
				reportf(rep, "failed to restore %s password for %s", cred.Role, fav.Name)
				continue
			}
			result.CredentialsRestored++
			reportf(rep, "restored %s password for %s", cred.Role, fav.Name)
		}
	}

	return result, nil
}

// ClearOptions controls a clear run.
type ClearOptions struct {
	// Confirmed must be set by the caller after an explicit confirmation.
	Confirmed bool
	// SkipBackup skips the pre-clear safety backup.
	SkipBackup bool
	// Now stamps the pre-clear backup; zero means time.Now.
	Now time.Time
}

// ClearResult summarizes a completed clear.
type ClearResult struct {
	Favorites          int
	CredentialsDeleted int
	Failed             []CredentialFailure
	PreClear           *BackupResult
}

// RunClear deletes every derived credential for the current favorites and
// resets the favorites file. It refuses to run unconfirmed and, unless
// skipped, stores a pre-clear backup first so the operation stays
// recoverable.
func RunClear(ctx context.Context, favs FavoritesStore, resolver *keychain.Resolver, snk sink.Sink, opts ClearOptions, rep Reporter) (*ClearResult, error) {
	if !opts.Confirmed {
		return nil, ErrNotConfirmed
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	records, err := favs.Load()
	if err != nil {
		return nil, err
	}
	result := &ClearResult{Favorites: len(records)}
	if len(records) == 0 {
		reportf(rep, "no favorites to clear")
		return result, nil
	}

	if !opts.SkipBackup {
		pre, err := RunBackup(ctx, favs, resolver, snk, BackupOptions{
			Title:           PreClearTitle(now),
			SkipStoreErrors: true,
			Now:             now,
		}, rep)
		if err != nil {
			return nil, fmt.Errorf("pre-clear backup failed, aborting clear: %w", err)
		}
		result.PreClear = pre
	}

	for _, record := range records {
		deleted, err := resolver.DeleteAll(record)
		result.CredentialsDeleted += deleted
		if err != nil {
			result.Failed = append(result.Failed, CredentialFailure{FavoriteID: record.ID, Err: err})
			reportf(rep, "failed to delete passwords for %s", record.Name)
			continue
		}
		if deleted > 0 {
			reportf(rep, "deleted passwords for %s", record.Name)
		}
	}

	if err := favs.Clear(); err != nil {
		return nil, err
	}
	reportf(rep, "cleared favorites file")

	return result, nil
}

// RunShow fetches and decodes a backup document for display. An empty title
// selects the most recent backup.
func RunShow(ctx context.Context, snk sink.Sink, title string) (*model.BackupDocument, string, error) {
	if title == "" {
		latest, err := sink.Latest(snk)
		if err != nil {
			return nil, "", err
		}
		title = latest.Title
	}
	raw, err := snk.Get(title)
	if err != nil {
		return nil, "", err
	}
	doc, err := backup.Decode(raw)
	if err != nil {
		return nil, "", err
	}
	return doc, title, nil
}

// RunList returns the stored backups, newest first.
func RunList(ctx context.Context, snk sink.Sink) ([]sink.Entry, error) {
	return snk.List()
}
