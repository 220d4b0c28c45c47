// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode chat REPL for the lumi CLI.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/lumi-chat/internal/export"
	"github.com/jeranaias/lumi-chat/internal/model"
	"github.com/jeranaias/lumi-chat/internal/router"
)

// historyFileName stores REPL input history under the data dir.
const historyFileName = "chat_history"

// slashCommands drive liner's tab completion.
var slashCommands = []string{
	"/new", "/list", "/switch", "/search", "/pin", "/archive",
	"/export", "/delete", "/help", "/quit",
}

// HandleChatCommand runs the interactive line-mode chat loop.
func HandleChatCommand(args Args, deps *Deps) error {
	if !IsTTY() {
		return fmt.Errorf("chat requires an interactive terminal (try `lumi ask` for piped input)")
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(func(l string) []string {
		if !strings.HasPrefix(l, "/") {
			return nil
		}
		var out []string
		for _, c := range slashCommands {
			if strings.HasPrefix(c, l) {
				out = append(out, c)
			}
		}
		return out
	})

	historyPath := loadHistory(line, deps)
	defer saveHistory(line, historyPath)

	printWelcome(deps)

	for {
		input, err := line.Prompt("you> ")
		if err != nil {
			if err == liner.ErrPromptAborted {
				fmt.Println(dim("(interrupted — /quit to exit)"))
				continue
			}
			// io.EOF on ctrl+d
			fmt.Println()
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			quit, err := handleSlashCommand(input, deps)
			if err != nil {
				fmt.Println(errorLine("error: " + err.Error()))
			}
			if quit {
				return nil
			}
			continue
		}

		if err := processMessage(deps, input); err != nil {
			fmt.Println(errorLine("error: " + err.Error()))
		}
	}
}

// processMessage runs one chat turn: append, orchestrate, print.
func processMessage(deps *Deps, input string) error {
	sessionID := currentOrNewSession(deps)
	if err := deps.Store.AppendMessage(sessionID, model.NewUserMessage(input)); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), deps.Config.Timeout())
	defer cancel()

	reply, err := deps.Chain.Send(ctx, input)
	if err != nil {
		return err
	}
	if err := deps.Store.AppendMessage(sessionID, model.NewAssistantMessage(reply.Text)); err != nil {
		return err
	}

	label := "lumi"
	if reply.Source == router.SourceDemo {
		label = "lumi (demo)"
	}
	fmt.Printf("%s %s\n\n", highlight(label+">"), reply.Text)
	return nil
}

func currentOrNewSession(deps *Deps) string {
	if cur := deps.Store.Current(); cur != nil {
		return cur.ID
	}
	return deps.Store.NewSession().ID
}

// handleSlashCommand executes a /command. Returns true to quit.
func handleSlashCommand(input string, deps *Deps) (bool, error) {
	fields := strings.Fields(input)
	cmd, rest := fields[0], fields[1:]

	switch cmd {
	case "/quit", "/exit", "/q":
		return true, nil

	case "/help":
		printChatHelp()

	case "/new":
		sess := deps.Store.NewSession()
		fmt.Println(dim("Started " + sess.ID))

	case "/list":
		return false, sessionList(Args{}, deps)

	case "/switch":
		if len(rest) == 0 {
			return false, fmt.Errorf("/switch requires a session id")
		}
		if err := deps.Store.SetCurrent(rest[0]); err != nil {
			return false, err
		}
		fmt.Println(dim("Switched to " + rest[0]))

	case "/search":
		if len(rest) == 0 {
			return false, fmt.Errorf("/search requires a query")
		}
		return false, sessionSearch(Args{}, deps, strings.Join(rest, " "))

	case "/pin":
		return false, flagCurrent(deps, deps.Store.Pin, "Pinned")

	case "/archive":
		if err := flagCurrent(deps, deps.Store.Archive, "Archived"); err != nil {
			return false, err
		}
		deps.Store.ClearCurrent()

	case "/export":
		if !deps.Config.Features.ChatExport {
			return false, fmt.Errorf("chat export is disabled in config")
		}
		cur := deps.Store.Current()
		if cur == nil {
			return false, export.ErrNothingToExport
		}
		path, err := export.ExportSessionToFile(cur, export.NewJSONExporter(), nil)
		if err != nil {
			return false, err
		}
		fmt.Println(dim("Exported to " + path))

	case "/delete":
		cur := deps.Store.Current()
		if cur == nil {
			return false, fmt.Errorf("no current conversation")
		}
		if err := deps.Store.Delete(cur.ID); err != nil {
			return false, err
		}
		fmt.Println(dim("Deleted " + cur.ID))

	default:
		return false, fmt.Errorf("unknown command %s (try /help)", cmd)
	}
	return false, nil
}

func flagCurrent(deps *Deps, op func(id string) error, verb string) error {
	cur := deps.Store.Current()
	if cur == nil {
		return fmt.Errorf("no current conversation")
	}
	if err := op(cur.ID); err != nil {
		return err
	}
	fmt.Println(dim(verb + " " + cur.Title))
	return nil
}

// =============================================================================
// HISTORY
// =============================================================================

func loadHistory(line *liner.State, deps *Deps) string {
	dir, err := deps.Config.DataDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(dir, historyFileName)
	if f, err := os.Open(path); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	return path
}

func saveHistory(line *liner.State, path string) {
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return
	}
	if f, err := os.Create(path); err == nil {
		line.WriteHistory(f)
		f.Close()
	}
}

// =============================================================================
// OUTPUT
// =============================================================================

func printWelcome(deps *Deps) {
	fmt.Println(highlight(deps.Config.App.Name) + "  " + dim(deps.Config.App.Tagline))
	fmt.Println(deps.Config.App.WelcomeMessage)
	if !deps.Config.API.UseRealAPI {
		fmt.Println(dim("Demo mode: replies are canned. Set LUMI_USE_REAL_API=true and an API key for live answers."))
	}
	fmt.Println(dim("Type /help for commands."))
	fmt.Println()
}

func printChatHelp() {
	fmt.Print(`Commands:
  /new              Start a new conversation
  /list             List conversations
  /switch <id>      Switch to a conversation
  /search <query>   Search conversations
  /pin              Pin the current conversation
  /archive          Archive the current conversation
  /export           Export the current conversation to JSON
  /delete           Delete the current conversation
  /quit             Exit
`)
}
