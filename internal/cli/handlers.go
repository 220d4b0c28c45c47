// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// handlers.go - Non-interactive command handlers for the lumi CLI.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/lumi-chat/internal/config"
	"github.com/jeranaias/lumi-chat/internal/export"
	"github.com/jeranaias/lumi-chat/internal/index"
	"github.com/jeranaias/lumi-chat/internal/model"
	"github.com/jeranaias/lumi-chat/internal/router"
	"github.com/jeranaias/lumi-chat/internal/store"
)

// Deps bundles the collaborators the command handlers run against. The
// composition root builds one and dispatches to a handler.
type Deps struct {
	Config *config.Config
	Store  *store.Store
	Chain  *router.Router

	// Index is the optional search accelerator; nil degrades to the
	// store's linear search.
	Index *index.MessageIndex
}

// search runs a query through the index when available, falling back
// to the store on any index fault.
func (d *Deps) search(query string) []*model.Session {
	if d.Index != nil && strings.TrimSpace(query) != "" {
		if ids, err := d.Index.Search(query); err == nil {
			keep := make(map[string]bool, len(ids))
			for _, id := range ids {
				keep[id] = true
			}
			var out []*model.Session
			for _, sess := range d.Store.Sessions() {
				if keep[sess.ID] {
					out = append(out, sess)
				}
			}
			return out
		}
	}
	return d.Store.Search(query)
}

// =============================================================================
// SESSION COMMANDS
// =============================================================================

// HandleSessionCommand dispatches `lumi session <subcommand>`.
func HandleSessionCommand(args Args, deps *Deps) error {
	switch args.Subcommand {
	case "list":
		return sessionList(args, deps)
	case "search":
		if len(args.Raw) == 0 {
			return fmt.Errorf("search requires a query")
		}
		return sessionSearch(args, deps, strings.Join(args.Raw, " "))
	case "delete":
		return withSessionID(args, "delete", deps.Store.Delete)
	case "delete-all":
		deps.Store.DeleteAll()
		fmt.Println("All conversations deleted.")
		return nil
	case "pin":
		return withSessionID(args, "pin", deps.Store.Pin)
	case "unpin":
		return withSessionID(args, "unpin", deps.Store.Unpin)
	case "archive":
		return withSessionID(args, "archive", deps.Store.Archive)
	case "unarchive":
		return withSessionID(args, "unarchive", deps.Store.Unarchive)
	default:
		return fmt.Errorf("unknown session subcommand: %s", args.Subcommand)
	}
}

func withSessionID(args Args, verb string, op func(id string) error) error {
	if len(args.Raw) == 0 {
		return fmt.Errorf("%s requires a session id", verb)
	}
	id := args.Raw[0]
	if err := op(id); err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", verb, id)
	return nil
}

func sessionList(args Args, deps *Deps) error {
	sessions := deps.Store.Sessions()
	if args.JSON {
		return json.NewEncoder(os.Stdout).Encode(sessions)
	}
	if len(sessions) == 0 {
		fmt.Println("No conversations yet.")
		return nil
	}

	currentID := deps.Store.CurrentID()
	for _, sess := range sessions {
		marker := " "
		if sess.ID == currentID {
			marker = "*"
		}
		pin := " "
		if sess.IsPinned {
			pin = "★"
		}
		fmt.Printf("%s %s %s  %s  %s\n",
			marker, pin,
			highlight(sess.Title),
			dim(fmt.Sprintf("%d msgs", sess.MessageCount())),
			dim(sess.ID),
		)
	}
	return nil
}

func sessionSearch(args Args, deps *Deps, query string) error {
	results := deps.search(query)
	if args.JSON {
		return json.NewEncoder(os.Stdout).Encode(results)
	}
	if len(results) == 0 {
		fmt.Printf("No conversations match %q.\n", query)
		return nil
	}
	for _, sess := range results {
		fmt.Printf("%s  %s  %s\n", highlight(sess.Title), dim(sess.Preview(60)), dim(sess.ID))
	}
	return nil
}

// =============================================================================
// EXPORT COMMAND
// =============================================================================

// HandleExportCommand exports one session (by id argument) or all.
func HandleExportCommand(args Args, deps *Deps) error {
	if !deps.Config.Features.ChatExport {
		return fmt.Errorf("chat export is disabled in config")
	}
	exporter := pickExporter(args)

	if len(args.Raw) > 0 {
		id := args.Raw[0]
		sess := deps.Store.Get(id)
		if sess == nil {
			return &store.NotFoundError{ID: id}
		}
		path, err := export.ExportSessionToFile(sess, exporter, nil)
		if err != nil {
			return err
		}
		fmt.Println("Exported to", path)
		return nil
	}

	path, err := export.ExportAllToFile(deps.Store.All(), exporter, nil)
	if err != nil {
		return err
	}
	fmt.Println("Exported to", path)
	return nil
}

func pickExporter(args Args) export.Exporter {
	for _, a := range args.Raw {
		if a == "--markdown" || a == "-m" {
			return export.NewMarkdownExporter()
		}
	}
	return export.NewJSONExporter()
}

// =============================================================================
// ASK COMMAND
// =============================================================================

// HandleAskCommand answers one question and exits. The exchange is
// recorded as a new conversation like any other.
func HandleAskCommand(args Args, deps *Deps) error {
	sess := deps.Store.NewSession()
	if err := deps.Store.AppendMessage(sess.ID, model.NewUserMessage(args.Query)); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), deps.Config.Timeout())
	defer cancel()

	reply, err := deps.Chain.Send(ctx, args.Query)
	if err != nil {
		return err
	}
	if err := deps.Store.AppendMessage(sess.ID, model.NewAssistantMessage(reply.Text)); err != nil {
		return err
	}

	if !args.Quiet && reply.Source == router.SourceDemo {
		fmt.Fprintln(os.Stderr, dim("(demo reply — no live provider configured)"))
	}
	fmt.Println(reply.Text)
	return nil
}

// =============================================================================
// CONFIG COMMAND
// =============================================================================

// HandleConfigCommand shows config state.
func HandleConfigCommand(args Args, deps *Deps) error {
	switch args.Subcommand {
	case "show":
		return configShow(args, deps)
	case "path":
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	default:
		return fmt.Errorf("unknown config subcommand: %s", args.Subcommand)
	}
}

func configShow(args Args, deps *Deps) error {
	cfg := deps.Config
	safe := map[string]any{
		"app":              cfg.App.Name,
		"use_real_api":     cfg.API.UseRealAPI,
		"primary_provider": cfg.API.PrimaryProvider,
		"gemini_key":       maskKey(cfg.API.GeminiKey),
		"deepseek_key":     maskKey(cfg.API.DeepSeekKey),
		"theme":            cfg.UI.Theme,
		"server_port":      cfg.Server.Port,
	}
	if args.JSON {
		return json.NewEncoder(os.Stdout).Encode(safe)
	}
	for _, k := range []string{"app", "use_real_api", "primary_provider", "gemini_key", "deepseek_key", "theme", "server_port"} {
		fmt.Printf("%-18s %v\n", k, safe[k])
	}
	return nil
}

// maskKey keeps enough of a credential to recognize it, no more.
func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + strings.Repeat("*", 4)
}

// =============================================================================
// VERSION COMMAND
// =============================================================================

// HandleVersionCommand prints build information.
func HandleVersionCommand(args Args) error {
	if args.JSON {
		return json.NewEncoder(os.Stdout).Encode(map[string]string{
			"version": Version,
			"commit":  GitCommit,
			"built":   BuildDate,
		})
	}
	fmt.Printf("lumi %s (%s, built %s)\n", Version, GitCommit, BuildDate)
	return nil
}
