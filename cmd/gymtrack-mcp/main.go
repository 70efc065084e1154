package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/kostadinov1/gym-backend/internal/config"
	"github.com/kostadinov1/gym-backend/internal/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "GymTrack server URL (or GYMTRACK_URL)")
	token := flag.String("token", "", "bearer token (or GYMTRACK_TOKEN)")
	envPath := flag.String("env", ".env", "optional .env file")
	flag.Parse()

	// stdout carries the protocol
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := config.LoadDotEnv(*envPath); err != nil {
		log.Error("failed to load env file", "error", err)
		os.Exit(1)
	}
	if *serverURL == "" {
		*serverURL = os.Getenv("GYMTRACK_URL")
	}
	if *token == "" {
		*token = os.Getenv("GYMTRACK_TOKEN")
	}
	if *serverURL == "" || *token == "" {
		fmt.Fprintf(os.Stderr, "Usage: gymtrack-mcp -server https://gym.example -token <bearer token>\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	s := mcp.New(mcp.NewHTTPClient(*serverURL, *token), Version, log)
	log.Info("mcp stdio server starting", "server", *serverURL)
	if err := server.ServeStdio(s); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
