package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/conorfennell/recall/internal/admission"
	"github.com/conorfennell/recall/internal/attempts"
	"github.com/conorfennell/recall/internal/confidence"
	"github.com/conorfennell/recall/internal/config"
	"github.com/conorfennell/recall/internal/deck"
	"github.com/conorfennell/recall/internal/gitsource"
	"github.com/conorfennell/recall/internal/logging"
	"github.com/conorfennell/recall/internal/scheduler"
	"github.com/conorfennell/recall/internal/selector"
	"github.com/conorfennell/recall/internal/storage"
	"github.com/conorfennell/recall/internal/study"
	"github.com/conorfennell/recall/internal/web"
)

const usage = `Usage: recall [flags] <command>

Commands:
  serve                          run the HTTP API
  sync                           reconcile every deck source
  add-source <deck> <path|url>   register a local directory or git repository
  due <deck>                     list the cards due now

Flags:
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "recall:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("recall", pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	config.Flags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}
	log := logging.New(cfg.Log, os.Stderr)

	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no command given")
	}

	db, err := storage.Open(cfg.DB, log)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	log.Debug("database opened", "path", cfg.DB)

	loc := cfg.Location()
	now := func() time.Time { return time.Now().In(loc) }
	syncer := deck.NewSyncer(db, gitsource.New(log), cfg.ReposDir, log, now)
	svc := study.NewService(log, db, study.ClockFunc(now), nil, studyOptions(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "serve":
		return serve(ctx, cfg, log, web.NewServer(svc, db, syncer, log), syncer)
	case "sync":
		return runSync(ctx, syncer)
	case "add-source":
		if len(rest) != 2 {
			return errors.New("usage: recall add-source <deck> <path|url>")
		}
		return addSource(ctx, db, log, rest[0], rest[1])
	case "due":
		if len(rest) != 1 {
			return errors.New("usage: recall due <deck>")
		}
		return printDue(ctx, db, svc, rest[0])
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func studyOptions(cfg *config.Config) study.Options {
	sched := scheduler.DefaultParams()
	sched.IntroOffsets = cfg.Scheduler.IntroOffsets
	return study.Options{
		Scheduler: sched,
		Attempts: attempts.Policy{
			Cooldown:   cfg.Attempts.Cooldown,
			HistoryCap: cfg.Attempts.HistoryCap,
			Window:     cfg.Attempts.Window,
		},
		Admission: admission.Policy{
			NewPerDay:   cfg.Admission.NewPerDay,
			StruggleCap: cfg.Admission.StruggleCap,
		},
		Selector: selector.Options{
			Cap:         cfg.Session.Cap,
			GroupByTier: cfg.Session.GroupByTier,
		},
		Display:  confidence.DefaultDisplayRules(),
		Location: cfg.Location(),
	}
}

func serve(ctx context.Context, cfg *config.Config, log *slog.Logger, handler http.Handler, syncer *deck.Syncer) error {
	if _, err := syncer.Run(ctx); err != nil {
		log.Error("initial sync failed", "error", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runSync(ctx context.Context, syncer *deck.Syncer) error {
	reports, err := syncer.Run(ctx)
	if err != nil {
		return err
	}
	for _, r := range reports {
		fmt.Printf("source %d (%s): %d cards, %d new, %d retired\n", r.SourceID, r.Deck, r.Parsed, r.Inserted, r.Retired)
		for _, e := range r.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	return nil
}

func addSource(ctx context.Context, db *storage.DB, log *slog.Logger, deckName, path string) error {
	existing, err := db.FindSourceByPath(ctx, path)
	if err != nil {
		return err
	}
	if existing != nil {
		fmt.Printf("source %s already registered for deck %s\n", path, existing.Deck)
		return nil
	}

	sourceType := deck.SourceType(path)
	id, err := db.InsertSource(ctx, deckName, path, sourceType)
	if err != nil {
		return fmt.Errorf("add source: %w", err)
	}
	log.Info("source added", "id", id, "deck", deckName, "path", path, "type", sourceType)
	fmt.Printf("added %s source %d for deck %s; run `recall sync` to load its cards\n", sourceType, id, deckName)
	return nil
}

func printDue(ctx context.Context, db *storage.DB, svc *study.Service, deckName string) error {
	sel, err := svc.Due(ctx, deckName)
	if err != nil {
		return err
	}
	if len(sel.Items) == 0 {
		fmt.Println("nothing due")
		return nil
	}
	for _, it := range sel.Items {
		front := it.Schedule.CardID
		if card, err := db.GetCard(ctx, deckName, it.Schedule.CardID); err == nil && card != nil {
			front = card.Front
		}
		fmt.Printf("%-12s %3d%%  due %s  %s\n", it.Tier, it.Accuracy, it.Schedule.DueDate.Format(time.DateOnly), front)
	}
	if sel.Queued > 0 {
		fmt.Printf("%d more queued\n", sel.Queued)
	}
	return nil
}
