package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/kostadinov1/gym-backend/internal/config"
	"github.com/kostadinov1/gym-backend/internal/importer"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8000", "GymTrack server URL")
	email := flag.String("email", "", "account email (or GYMTRACK_EMAIL)")
	password := flag.String("password", "", "account password (or GYMTRACK_PASSWORD)")
	token := flag.String("token", "", "bearer token instead of email/password (or GYMTRACK_TOKEN)")
	routine := flag.String("routine", "", "log every session against this routine instead of matching titles")
	tz := flag.String("tz", "Local", "time zone of the export's timestamps")
	stateDir := flag.String("state-dir", defaultStateDir(), "directory for the import state database")
	envPath := flag.String("env", ".env", "optional .env file")
	dryRun := flag.Bool("dry-run", false, "parse and resolve without writing anything")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Usage: gymtrack-import [flags] export.csv|dir ...\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := config.LoadDotEnv(*envPath); err != nil {
		log.Error("failed to load env file", "error", err)
		os.Exit(1)
	}
	if *password == "" {
		*password = os.Getenv("GYMTRACK_PASSWORD")
	}
	if *token == "" {
		*token = os.Getenv("GYMTRACK_TOKEN")
	}
	if *email == "" {
		*email = os.Getenv("GYMTRACK_EMAIL")
	}

	loc, err := time.LoadLocation(*tz)
	if err != nil {
		log.Error("invalid time zone", "tz", *tz, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := importer.NewClient(*serverURL)
	switch {
	case *token != "":
		client.SetToken(*token)
	case *email != "" && *password != "":
		if err := client.Login(ctx, *email, *password); err != nil {
			log.Error("login failed", "error", err)
			os.Exit(1)
		}
		log.Info("logged in", "email", *email)
	default:
		log.Error("either -token or -email and -password are required")
		os.Exit(1)
	}

	state, err := importer.OpenStateDB(*stateDir)
	if err != nil {
		log.Error("failed to open state db", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	if *dryRun {
		log.Info("DRY RUN mode: nothing will be sent to the server")
	}

	imp := importer.New(client, state, importer.Options{
		Routine:  *routine,
		Location: loc,
		DryRun:   *dryRun,
	}, log)

	stats, err := imp.Run(ctx, flag.Args())
	printStats(log, stats)
	if err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}
	if stats.FilesErrored > 0 {
		os.Exit(2)
	}
	log.Info("import complete")
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".gymtrack-import"
	}
	return filepath.Join(dir, "gymtrack-import")
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	log.Info("import stats",
		"files_total", stats.FilesTotal,
		"files_imported", stats.FilesImported,
		"files_skipped", stats.FilesSkipped,
		"files_errored", stats.FilesErrored,
		"sessions_logged", stats.SessionsLogged,
		"sessions_skipped", stats.SessionsSkipped,
		"sets_logged", stats.SetsLogged,
		"exercises_created", stats.ExercisesCreated,
	)
}
