// lumi - A luminous AI chat companion for the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/lumi-chat/internal/cli"
	"github.com/jeranaias/lumi-chat/internal/config"
	"github.com/jeranaias/lumi-chat/internal/index"
	"github.com/jeranaias/lumi-chat/internal/model"
	"github.com/jeranaias/lumi-chat/internal/provider"
	"github.com/jeranaias/lumi-chat/internal/router"
	"github.com/jeranaias/lumi-chat/internal/server"
	"github.com/jeranaias/lumi-chat/internal/store"
	"github.com/jeranaias/lumi-chat/internal/storage"
	"github.com/jeranaias/lumi-chat/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	args, err := cli.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n%s", err, cli.Usage())
		os.Exit(2)
	}

	// Commands with no app state
	switch args.Command {
	case cli.CmdHelp:
		fmt.Print(cli.Usage())
		return
	case cli.CmdVersion:
		if err := cli.HandleVersionCommand(args); err != nil {
			fatal(err)
		}
		return
	}

	app, cleanup, err := buildApp(args)
	if err != nil {
		fatal(err)
	}
	defer cleanup()

	switch args.Command {
	case cli.CmdTUI:
		runTUI(args, app)
	case cli.CmdChat:
		if err := cli.HandleChatCommand(args, app); err != nil {
			fatal(err)
		}
	case cli.CmdAsk:
		if err := cli.HandleAskCommand(args, app); err != nil {
			fatal(err)
		}
	case cli.CmdSession:
		if err := cli.HandleSessionCommand(args, app); err != nil {
			fatal(err)
		}
	case cli.CmdExport:
		if err := cli.HandleExportCommand(args, app); err != nil {
			fatal(err)
		}
	case cli.CmdConfig:
		if err := cli.HandleConfigCommand(args, app); err != nil {
			fatal(err)
		}
	case cli.CmdServe:
		if err := runServe(app); err != nil {
			fatal(err)
		}
	default:
		runTUI(args, app)
	}
}

// buildApp wires the persistent pieces every stateful command shares:
// config, the slot file, the in-memory store, the search index, and the
// provider chain. The returned cleanup closes the index and watcher.
func buildApp(args cli.Args) (*cli.Deps, func(), error) {
	// Global falls back to defaults on a broken config file, so a bad
	// TOML edit never bricks the CLI.
	cfg := config.Global()

	log.SetFlags(0)
	if args.Quiet && !args.Verbose {
		log.SetOutput(io.Discard)
	}

	dataDir, err := cfg.DataDir()
	if err != nil {
		return nil, nil, fmt.Errorf("resolving data dir: %w", err)
	}

	slot, err := storage.NewSessionStoreAt(filepath.Join(dataDir, storage.DefaultFileName))
	if err != nil {
		return nil, nil, fmt.Errorf("opening session store: %w", err)
	}

	sessions := store.NewFromSessions(slot.Load())

	// Search index is an accelerator: failure to open degrades to the
	// store's linear scan.
	var idx *index.MessageIndex
	if cfg.Features.Search {
		idx, err = index.Open(filepath.Join(dataDir, "index.db"))
		if err != nil {
			log.Printf("search index unavailable: %v", err)
		} else if err := idx.Sync(sessions.All()); err != nil {
			log.Printf("search index sync: %v", err)
		}
	}

	sessions.OnChange(func(all []*model.Session) {
		if err := slot.Save(all); err != nil {
			log.Printf("save: %v", err)
		}
		if idx != nil {
			if err := idx.Sync(all); err != nil {
				log.Printf("index sync: %v", err)
			}
		}
	})

	var watcher *storage.SlotWatcher
	if cfg.Storage.WatchSlot {
		watcher, err = storage.NewSlotWatcher(slot, func() {
			log.Printf("slot file changed on disk")
		})
		if err != nil {
			log.Printf("slot watcher unavailable: %v", err)
		} else if err := watcher.Watch(); err != nil {
			log.Printf("slot watcher: %v", err)
			watcher = nil
		}
	}

	chain := router.New(cfg.API.UseRealAPI, buildProviders(cfg)...)

	cleanup := func() {
		if watcher != nil {
			watcher.Close()
		}
		if idx != nil {
			idx.Close()
		}
	}

	return &cli.Deps{
		Config: cfg,
		Store:  sessions,
		Chain:  chain,
		Index:  idx,
	}, cleanup, nil
}

// buildProviders orders the chain by the configured primary.
func buildProviders(cfg *config.Config) []router.KeyedProvider {
	gemini := provider.NewGeminiClient(cfg.API.GeminiKey)
	deepseek := provider.NewDeepSeekClient(cfg.API.DeepSeekKey)

	if cfg.API.PrimaryProvider == "deepseek" {
		return []router.KeyedProvider{deepseek, gemini}
	}
	return []router.KeyedProvider{gemini, deepseek}
}

// runTUI starts the full-screen interface.
func runTUI(args cli.Args, app *cli.Deps) {
	if !cli.IsTTY() {
		fatal(fmt.Errorf("the TUI requires a terminal (try `lumi ask \"question\"` or `lumi serve`)"))
	}

	m := chat.New(app.Config, app.Store, app.Chain)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fatal(err)
	}
}

// runServe runs the local HTTP API until interrupted.
func runServe(app *cli.Deps) error {
	srv := server.New(app.Config.Server.Port, app.Store, app.Chain)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Printf("received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
