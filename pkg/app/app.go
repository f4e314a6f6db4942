// Package app wires the corpus store, the target lists and the automaton
// cache into the operations exposed by the command line.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/japaniel/wordcoverage/pkg/article"
	"github.com/japaniel/wordcoverage/pkg/automaton"
	"github.com/japaniel/wordcoverage/pkg/config"
	"github.com/japaniel/wordcoverage/pkg/corpus"
	"github.com/japaniel/wordcoverage/pkg/coverage"
	"github.com/japaniel/wordcoverage/pkg/db"
	"github.com/japaniel/wordcoverage/pkg/ingest"
	"github.com/japaniel/wordcoverage/pkg/snapshot"
	"github.com/japaniel/wordcoverage/pkg/wordlist"
)

// App holds the long-lived resources of one process.
type App struct {
	cfg        *config.Config
	db         *sql.DB
	snapshots  *snapshot.Store // nil when the cache is disabled
	downloader *wordlist.Downloader
	logger     *slog.Logger
}

// New opens the corpus store and, unless disabled, the snapshot cache.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := db.Open(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}

	a := &App{
		cfg:        cfg,
		db:         conn,
		downloader: wordlist.NewDownloader(logger),
		logger:     logger,
	}
	a.downloader.Client.Timeout = cfg.Wordlists.DownloadTimeout

	if !cfg.Snapshot.Disabled {
		store, err := snapshot.Open(cfg.Snapshot.Path)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("open snapshot cache: %w", err)
		}
		store.Logger = logger
		a.snapshots = store
	}
	return a, nil
}

// Close releases the store and the cache.
func (a *App) Close() error {
	var errs []error
	if a.snapshots != nil {
		errs = append(errs, a.snapshots.Close())
	}
	errs = append(errs, a.db.Close())
	return errors.Join(errs...)
}

// Coverage is the outcome of one stats run.
type Coverage struct {
	RunID       string             `json:"run_id"`
	GeneratedAt time.Time          `json:"generated_at"`
	Timezone    string             `json:"timezone"`
	Entries     int                `json:"entries"`
	Reports     []*coverage.Report `json:"reports"`
}

type target struct {
	list *wordlist.List
	auto *automaton.Automaton
}

type loadFunc func(path string) (*wordlist.List, error)

// Stats loads the corpus and both target lists concurrently, then tracks
// coverage for each list. Any failure aborts the run without a report.
func (a *App) Stats(ctx context.Context) (*Coverage, error) {
	runID := uuid.NewString()
	log := a.logger.With("run_id", runID)
	start := time.Now()

	var (
		entries      []coverage.Entry
		levels, freq target
	)
	wl := a.cfg.Wordlists

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		loader := &corpus.Loader{
			DB:     a.db,
			Fields: corpus.SearchFields(a.cfg.SearchFields),
			Logger: log,
		}
		var err error
		entries, err = loader.Load(gctx)
		if err != nil {
			return fmt.Errorf("load corpus: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		levels, err = a.loadTarget(gctx, log, wl.LevelsPath, wl.LevelsURL, wordlist.LoadLevels)
		return err
	})
	g.Go(func() error {
		var err error
		freq, err = a.loadTarget(gctx, log, wl.FrequencyPath, wl.FrequencyURL, wordlist.LoadFrequency)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if a.snapshots != nil {
		caseFold := !a.cfg.Stats.CaseSensitive
		n, err := a.snapshots.Prune(snapshot.Key(levels.list, caseFold), snapshot.Key(freq.list, caseFold))
		if err != nil {
			log.Warn("failed to prune snapshots", "error", err)
		} else if n > 0 {
			log.Debug("pruned stale snapshots", "count", n)
		}
	}

	reports, err := a.track(ctx, entries, []target{levels, freq})
	if err != nil {
		return nil, err
	}

	log.Info("coverage computed", "entries", len(entries), "duration", time.Since(start))
	return &Coverage{
		RunID:       runID,
		GeneratedAt: time.Now(),
		Timezone:    a.cfg.Stats.Location().String(),
		Entries:     len(entries),
		Reports:     reports,
	}, nil
}

func (a *App) loadTarget(ctx context.Context, log *slog.Logger, path, url string, load loadFunc) (target, error) {
	if err := a.downloader.Ensure(ctx, path, url); err != nil {
		return target{}, err
	}
	list, err := load(path)
	if err != nil {
		return target{}, fmt.Errorf("load %s: %w", path, err)
	}

	caseFold := !a.cfg.Stats.CaseSensitive
	if a.snapshots == nil {
		return target{list: list, auto: snapshot.Build(list, caseFold)}, nil
	}
	auto, hit, err := a.snapshots.GetOrBuild(list, caseFold)
	if err != nil {
		return target{}, fmt.Errorf("automaton for %s: %w", list.Name, err)
	}
	log.Debug("automaton ready", "list", list.Name, "words", auto.Len(), "cached", hit)
	return target{list: list, auto: auto}, nil
}

// track runs one coverage pass per target on the worker pool. Each job owns
// its CreditSet, so the passes share nothing but the read-only entries.
func (a *App) track(ctx context.Context, entries []coverage.Entry, targets []target) ([]*coverage.Report, error) {
	loc := a.cfg.Stats.Location()
	reports := make([]*coverage.Report, len(targets))

	var (
		mu   sync.Mutex
		errs []error
	)
	pool := ingest.NewWorkerPool(a.cfg.Stats.Workers, len(targets))
	pool.OnError = func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}
	pool.Start(ctx)

	for i, t := range targets {
		err := pool.SubmitCtx(ctx, func(ctx context.Context) error {
			res, err := coverage.Track(entries, t.auto, t.list.Classifier)
			if err != nil {
				return fmt.Errorf("track %s: %w", t.list.Name, err)
			}
			r, err := coverage.NewReport(t.list.Name, res, t.list.Classifier, loc)
			if err != nil {
				return fmt.Errorf("report %s: %w", t.list.Name, err)
			}
			reports[i] = r
			return nil
		})
		if err != nil {
			pool.Close()
			return nil, err
		}
	}
	pool.Close()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return reports, nil
}

// Import loads a JSONL corpus export into the store.
func (a *App) Import(ctx context.Context, r io.Reader) (ingest.Stats, error) {
	im := ingest.NewImporter(a.db)
	im.Workers = a.cfg.Import.Workers
	im.BatchSize = a.cfg.Import.BatchSize
	im.Logger = a.logger
	return im.Import(ctx, r)
}

// AddArticle fetches a page and stores its sentences as studied notes.
func (a *App) AddArticle(ctx context.Context, url string) (*article.Article, int, error) {
	art, err := article.NewFetcher(a.cfg.Article.Timeout, a.logger).Fetch(ctx, url)
	if err != nil {
		return nil, 0, err
	}
	t := article.Target{Deck: a.cfg.Article.Deck, Model: a.cfg.Article.Model, Field: a.cfg.Article.Field}
	n, err := article.Capture(ctx, a.db, article.Records(art, t, time.Now()))
	if err != nil {
		return art, n, err
	}
	a.logger.Info("article captured", "url", url, "title", art.Title, "notes", n)
	return art, n, nil
}

// Fields lists the deck/model pairs in the store and the fields they carry.
func (a *App) Fields(ctx context.Context) ([]db.DeckModel, error) {
	return db.DeckModels(ctx, a.db)
}
