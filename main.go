// kora - a terminal client for the KoraGPT chat backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/koragpt/kora-tui/internal/api"
	"github.com/koragpt/kora-tui/internal/auth"
	"github.com/koragpt/kora-tui/internal/cli"
	"github.com/koragpt/kora-tui/internal/config"
	"github.com/koragpt/kora-tui/internal/storage"
	"github.com/koragpt/kora-tui/internal/ui"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const logFileName = "kora.log"

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdLogin:
		exitOnError(cli.HandleLogin(args))
	case cli.CmdLogout:
		exitOnError(cli.HandleLogout(args))
	case cli.CmdStatus:
		exitOnError(cli.HandleStatus(args))
	case cli.CmdConfig:
		exitOnError(cli.HandleConfig(args))
	case cli.CmdVersion:
		cli.HandleVersion(args)
	case cli.CmdHelp:
		cli.HandleHelp()
	default:
		runTUI(args)
	}
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runTUI starts the full-screen interface.
func runTUI(args cli.Args) {
	cfg, err := loadConfig(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	config.SetGlobal(cfg)

	dir, err := config.Dir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := config.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the TUI; route the standard logger to a file.
	logFile := setupLogging(dir)
	if logFile != nil {
		defer logFile.Close()
	}

	client := api.NewClientWithConfig(&api.ClientConfig{
		BaseURL:   cfg.Server.URL,
		Timeout:   cfg.Server.Timeout(),
		UserAgent: "kora/" + Version,
	})

	store := auth.NewStore(client, dir)
	store.Restore()

	// The cache is an accelerator. Failure to open it degrades to
	// network-only operation rather than blocking startup.
	cache, err := storage.Open(dir)
	if err != nil {
		log.Printf("open cache: %v (continuing without local cache)", err)
		cache = nil
	}
	if cache != nil {
		defer cache.Close()
	}

	program := tea.NewProgram(
		ui.New(client, store, cache, cfg),
		tea.WithAltScreen(),
	)

	// Hot-reload config edits into the running program.
	watcher := startConfigWatcher(args, program)
	if watcher != nil {
		defer watcher.Close()
	}

	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration honoring the --config and --server flags.
func loadConfig(args cli.Args) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if args.ServerURL != "" {
		cfg.Server.URL = args.ServerURL
	}
	return cfg, nil
}

// setupLogging points the standard logger at ~/.kora/kora.log. Returns nil
// when the file cannot be opened, in which case logging is discarded rather
// than corrupting the TUI.
func setupLogging(dir string) *os.File {
	path := filepath.Join(dir, logFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		log.SetOutput(os.Stderr)
		return nil
	}
	log.SetOutput(f)
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	return f
}

// startConfigWatcher watches the config file and pushes reloads into the
// program. Watch failures are logged and the TUI runs without hot reload.
func startConfigWatcher(args cli.Args, program *tea.Program) *config.Watcher {
	path := args.ConfigPath
	if path == "" {
		var err error
		path, err = config.Path()
		if err != nil {
			log.Printf("config watcher disabled: %v", err)
			return nil
		}
	}

	watcher, err := config.NewWatcher(path, 500*time.Millisecond, func(cfg *config.Config) {
		program.Send(ui.ConfigReloadedMsg{Config: cfg})
	})
	if err != nil {
		log.Printf("config watcher disabled: %v", err)
		return nil
	}
	if err := watcher.Watch(); err != nil {
		log.Printf("config watcher disabled: %v", err)
		watcher.Close()
		return nil
	}
	return watcher
}
