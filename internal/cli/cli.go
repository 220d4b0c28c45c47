// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command handlers for lumi.
package cli

import (
	"fmt"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdAsk
	CmdSession
	CmdExport
	CmdConfig
	CmdServe
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	Command Command

	// Global flags
	Quiet   bool
	Verbose bool
	JSON    bool

	// Command-specific
	Query      string
	Subcommand string

	// Raw args remaining after flag parsing
	Raw []string
}

const usageText = `lumi - your luminous AI chat companion

Lumi keeps multi-session chat conversations on your machine, answers
through configurable AI providers, and degrades gracefully to canned
replies when no provider is reachable.

Usage:
  lumi                         Start the chat TUI (default)
  lumi chat                    Line-mode chat (REPL)
  lumi ask "question"          Ask a single question and exit
  lumi session <subcommand>    Manage conversations
  lumi export [id]             Export one or all conversations
  lumi config [show|path]      Configuration
  lumi serve                   Run the local HTTP API
  lumi version                 Show version
  lumi help                    Show this help

Session subcommands:
  list                         List visible conversations
  search <query>               Search titles and message content
  delete <id>                  Delete one conversation
  delete-all                   Delete every conversation
  pin <id> / unpin <id>        Pin or unpin
  archive <id> / unarchive <id> Hide or restore a conversation

Flags:
  -q, --quiet                  Suppress non-essential output
  -v, --verbose                Verbose logging
  --json                       Machine-readable output

Environment:
  LUMI_USE_REAL_API            Enable live providers (true/false)
  LUMI_PRIMARY_API             Primary provider (gemini|deepseek)
  LUMI_GEMINI_API_KEY          Google AI Studio key (AIza...)
  LUMI_DEEPSEEK_API_KEY        DeepSeek key
  LUMI_DATA_DIR                Data directory (default ~/.lumi)
`

// Usage returns the help text.
func Usage() string { return usageText }

// Parse interprets command-line arguments (without the program name).
func Parse(argv []string) (Args, error) {
	args := Args{Command: CmdTUI}

	var rest []string
	for _, a := range argv {
		switch a {
		case "-q", "--quiet":
			args.Quiet = true
		case "-v", "--verbose":
			args.Verbose = true
		case "--json":
			args.JSON = true
		case "-h", "--help":
			args.Command = CmdHelp
			return args, nil
		default:
			if strings.HasPrefix(a, "-") {
				return args, fmt.Errorf("unknown flag: %s", a)
			}
			rest = append(rest, a)
		}
	}
	if len(rest) == 0 {
		return args, nil
	}

	cmd, rest := rest[0], rest[1:]
	switch cmd {
	case "chat":
		args.Command = CmdChat
	case "ask":
		args.Command = CmdAsk
		if len(rest) == 0 {
			return args, fmt.Errorf("ask requires a question")
		}
		args.Query = strings.Join(rest, " ")
		rest = nil
	case "session", "sessions":
		args.Command = CmdSession
		if len(rest) > 0 {
			args.Subcommand = rest[0]
			rest = rest[1:]
		} else {
			args.Subcommand = "list"
		}
	case "export":
		args.Command = CmdExport
	case "config":
		args.Command = CmdConfig
		if len(rest) > 0 {
			args.Subcommand = rest[0]
			rest = rest[1:]
		} else {
			args.Subcommand = "show"
		}
	case "serve":
		args.Command = CmdServe
	case "version", "-V", "--version":
		args.Command = CmdVersion
	case "help":
		args.Command = CmdHelp
	default:
		return args, fmt.Errorf("unknown command: %s", cmd)
	}

	args.Raw = rest
	return args, nil
}
