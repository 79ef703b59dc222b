package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/campusmatch/campusmatch/internal/config"
	"github.com/campusmatch/campusmatch/internal/scheduler"
	"github.com/campusmatch/campusmatch/internal/store"
	"github.com/campusmatch/campusmatch/pkg/feed"
	"github.com/campusmatch/campusmatch/pkg/match"
	"github.com/campusmatch/campusmatch/pkg/server"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func buildServer(cfg *config.Config, db store.Store, port int) *server.Server {
	if port == 0 {
		port = cfg.Server.Port
	}
	engine := match.NewEngine(cfg.Scoring.Weights)
	return server.New(db, engine, cfg.Scoring.CandidateLimit, cfg.Scoring.DefaultLimit, port)
}

func buildImporter(cfg *config.Config, db store.Store) *feed.Importer {
	feeds := make([]feed.Feed, len(cfg.Feeds))
	for i, f := range cfg.Feeds {
		feeds[i] = feed.Feed{
			Name:      f.Name,
			URL:       f.URL,
			OwnerID:   f.OwnerID,
			MaxPeople: f.MaxPeople,
		}
	}
	return feed.NewImporter(db, feeds)
}

func runRecommend(userID int64, limit int, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	srv := buildServer(cfg, db, 0)
	recs, err := srv.RecommendForUser(context.Background(), userID, limit)
	if err != nil {
		return fmt.Errorf("recommend for user %d: %w", userID, err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	}

	if len(recs) == 0 {
		fmt.Println("no joinable activities for this user (try importing or creating some first)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tSEATS\tTITLE\tWHY")
	for _, rec := range recs {
		fmt.Fprintf(w, "%.1f\t%d/%d\t%s\t%s\n",
			rec.Score,
			rec.Activity.CurrentPeople, rec.Activity.MaxPeople,
			rec.Activity.Title,
			strings.Join(rec.Reasons, "; "))
	}
	return w.Flush()
}

func runImport() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if len(cfg.Feeds) == 0 {
		return fmt.Errorf("no feeds configured")
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	importer := buildImporter(cfg, db)
	n, err := importer.ImportAll(context.Background())
	if err != nil {
		return fmt.Errorf("import feeds: %w", err)
	}

	fmt.Fprintf(os.Stderr, "imported %d activities from %d feeds\n", n, len(cfg.Feeds))
	return nil
}

func runServe(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	srv := buildServer(cfg, db, port)
	return srv.ListenAndServe()
}

func runDaemon(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	importer := buildImporter(cfg, db)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(db, importer,
		cfg.Schedule.ParseImportInterval(),
		cfg.Schedule.ParseExpireInterval(),
		cfg.Schedule.MaxAgeDays,
	)

	// Start scheduler in background.
	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "scheduler error: %v\n", err)
		}
	}()

	srv := buildServer(cfg, db, port)
	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nshutting down...")
	}()

	return srv.ListenAndServe()
}
