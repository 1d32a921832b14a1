package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"crossref/internal/config"
	"crossref/internal/game"
	"crossref/internal/logger"
	"crossref/internal/world"
)

var defaultScenes = []string{"assets/scenes/A.json", "assets/scenes/B.json"}

func main() {
	// Change working directory to executable location for deployed builds.
	// Skip this for "go run" which puts the binary in a temp directory.
	if execPath, err := os.Executable(); err == nil {
		execDir := filepath.Dir(execPath)
		if !strings.Contains(execDir, "go-build") {
			os.Chdir(execDir)
		}
	}

	configPath := flag.String("config", "crossref.yaml", "path to the config file")
	editorMode := flag.Bool("editor", false, "reconcile identities through the mapping store")
	flag.Parse()

	if err := run(*configPath, *editorMode, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string, editorMode bool, scenes []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if editorMode {
		cfg.Editor = true
	}
	if len(scenes) == 0 {
		scenes = cfg.Scenes
	}
	if len(scenes) == 0 {
		scenes = defaultScenes
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	w, err := world.New(cfg, log)
	if err != nil {
		return err
	}
	g := game.New(cfg, w)
	if err := g.LoadScenes(scenes); err != nil {
		return err
	}
	log.Info("starting", "scenes", scenes, "editor", cfg.Editor, "registered", w.Registry().Len())
	g.Run()
	return nil
}
