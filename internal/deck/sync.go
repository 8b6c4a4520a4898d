// Package deck reconciles deck sources into the card store.
package deck

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/conorfennell/recall/internal/cardid"
	"github.com/conorfennell/recall/internal/domain"
	"github.com/conorfennell/recall/internal/parser"
	"github.com/conorfennell/recall/internal/storage"
)

type cardStore interface {
	GetAllSources(ctx context.Context) ([]storage.Source, error)
	UpsertCard(ctx context.Context, deck string, sourceID int64, position int, card domain.Card) (bool, error)
	CardIDsBySource(ctx context.Context, sourceID int64) ([]string, error)
	UpdateSourceLastScanned(ctx context.Context, sourceID int64, at time.Time) error
}

type repoSyncer interface {
	Sync(ctx context.Context, url, localPath string) error
}

// Report summarizes the reconciliation of one source.
type Report struct {
	SourceID int64    `json:"source_id"`
	Deck     string   `json:"deck"`
	Parsed   int      `json:"parsed"`
	Inserted int      `json:"inserted"`
	Retired  int      `json:"retired"`
	Errors   []string `json:"errors,omitempty"`
}

// Syncer walks every source and upserts the cards it finds.
type Syncer struct {
	store    cardStore
	git      repoSyncer
	reposDir string
	log      *slog.Logger
	now      func() time.Time
}

// NewSyncer creates a Syncer. Git sources are cloned below reposDir.
func NewSyncer(store cardStore, git repoSyncer, reposDir string, log *slog.Logger, now func() time.Time) *Syncer {
	return &Syncer{store: store, git: git, reposDir: reposDir, log: log, now: now}
}

// Run reconciles all sources. A failing source is logged and skipped.
func (s *Syncer) Run(ctx context.Context) ([]Report, error) {
	s.log.InfoContext(ctx, "starting sync for all sources")
	sources, err := s.store.GetAllSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("get sources: %w", err)
	}
	if len(sources) == 0 {
		s.log.InfoContext(ctx, "no sources configured")
		return nil, nil
	}

	var reports []Report
	for _, source := range sources {
		s.log.InfoContext(ctx, "syncing source", "id", source.ID, "deck", source.Deck, "type", source.Type, "path", source.Path)

		dir := source.Path
		if source.Type == storage.SourceGit {
			dir, err = GitURLToLocalPath(s.reposDir, source.Path)
			if err != nil {
				s.log.ErrorContext(ctx, "cannot map git url to a local path", "url", source.Path, "error", err)
				continue
			}
			if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
				s.log.ErrorContext(ctx, "failed to create repos directory", "path", dir, "error", err)
				continue
			}
			if err := s.git.Sync(ctx, source.Path, dir); err != nil {
				s.log.ErrorContext(ctx, "error syncing git repo", "url", source.Path, "error", err)
				continue
			}
		}

		report, err := s.Reconcile(ctx, source, dir)
		if err != nil {
			s.log.ErrorContext(ctx, "reconciliation failed", "source_id", source.ID, "error", err)
			continue
		}
		reports = append(reports, report)
	}
	s.log.InfoContext(ctx, "sync complete", "sources", len(reports))
	return reports, nil
}

// Reconcile parses every markdown file below dir into source's deck.
// Cards that disappeared from the source are counted as retired but kept.
func (s *Syncer) Reconcile(ctx context.Context, source storage.Source, dir string) (Report, error) {
	report := Report{SourceID: source.ID, Deck: source.Deck}

	before, err := s.store.CardIDsBySource(ctx, source.ID)
	if err != nil {
		return report, fmt.Errorf("get cards for source %d: %w", source.ID, err)
	}

	found := make(map[string]bool)
	position := 0
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		cards, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("parsing %s: %v", path, parseErr))
		}
		for _, card := range cards {
			card.ID = cardid.ID(card)
			if found[card.ID] {
				continue
			}
			found[card.ID] = true
			report.Parsed++

			inserted, err := s.store.UpsertCard(ctx, source.Deck, source.ID, position, card)
			position++
			if err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("upsert %s: %v", card.ID, err))
				continue
			}
			if inserted {
				report.Inserted++
				s.log.DebugContext(ctx, "new card", "deck", source.Deck, "card_id", card.ID)
			}
		}
		return nil
	})
	if walkErr != nil {
		return report, fmt.Errorf("walk %s: %w", dir, walkErr)
	}

	for _, id := range before {
		if !found[id] {
			report.Retired++
			s.log.InfoContext(ctx, "card no longer in source, keeping its history", "deck", source.Deck, "card_id", id)
		}
	}

	if err := s.store.UpdateSourceLastScanned(ctx, source.ID, s.now()); err != nil {
		s.log.WarnContext(ctx, "failed to update last scanned for source", "source_id", source.ID, "error", err)
	}

	s.log.InfoContext(ctx, "reconciliation complete",
		"deck", source.Deck,
		"path", dir,
		"parsed_cards", report.Parsed,
		"inserted", report.Inserted,
		"retired", report.Retired,
		"errors", len(report.Errors),
	)
	return report, nil
}

// SourceType guesses whether path names a git repository or a local directory.
func SourceType(path string) string {
	if strings.HasSuffix(path, ".git") || strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://") {
		return storage.SourceGit
	}
	return storage.SourceLocal
}

// GitURLToLocalPath maps an https or scp-style git URL to a directory below baseDir.
func GitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		// scp-like syntax: git@host:owner/repo.git
		if user, rest, ok := strings.Cut(repoURL, "@"); ok && user != "" {
			if host, repoPath, ok := strings.Cut(rest, ":"); ok && host != "" && repoPath != "" {
				return filepath.Join(baseDir, host, strings.TrimSuffix(repoPath, ".git")), nil
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return filepath.Join(baseDir, parsedURL.Host, sanitizedPath), nil
}
