// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides argument parsing and the non-TUI command handlers.
package cli

import (
	"fmt"
	"os"
	"runtime"
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
	CmdLogin
	CmdLogout
	CmdStatus
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	ServerURL  string // --server overrides config
	ConfigPath string // --config points at an alternate config file
	Quiet      bool
	JSON       bool

	// Command-specific
	Username   string
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `kora - terminal client for the KoraGPT chat backend

Usage:
  kora                      Start the chat TUI (default)
  kora login [username]     Sign in and store the session
  kora logout               Drop the stored session
  kora status, s            Show backend and session status
  kora config [show|set|path]
                            Configuration management
  kora version              Show version information
  kora help                 Show this help

Config Commands:
  kora config show          Print the active configuration
  kora config path          Print the config file location
  kora config set KEY VAL   Set a config value and save
                            Keys: server.url, server.timeout_secs,
                                  chat.default_provider, chat.default_model,
                                  ui.theme

Global Flags:
  --server URL    Override the backend URL for this invocation
  --config PATH   Use an alternate config file
  -q, --quiet     Minimal output
  --json          Output in JSON format where supported

Examples:
  kora                              Start the TUI
  kora login alice                  Sign in as alice
  kora status                       Check backend reachability and session
  kora config set ui.theme light    Switch to the light theme
  kora --server http://host:8080    Point the TUI at another backend

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("kora version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
	fmt.Printf("  Go version: %s\n", runtime.Version())
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	args := os.Args[1:]

	remaining, parsedArgs := parseGlobalFlags(args)

	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "login":
		if len(remaining) > 0 {
			parsedArgs.Username = remaining[0]
		}
		return CmdLogin, parsedArgs

	case "logout":
		return CmdLogout, parsedArgs

	case "status", "s":
		return CmdStatus, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// Unknown command, default to TUI
		parsedArgs.Raw = append([]string{cmd}, remaining...)
		return CmdTUI, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "--json":
			parsedArgs.JSON = true
		case "--server":
			if i+1 < len(args) {
				i++
				parsedArgs.ServerURL = args[i]
			}
		case "--config":
			if i+1 < len(args) {
				i++
				parsedArgs.ConfigPath = args[i]
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--server="):
				parsedArgs.ServerURL = strings.TrimPrefix(arg, "--server=")
			case strings.HasPrefix(arg, "--config="):
				parsedArgs.ConfigPath = strings.TrimPrefix(arg, "--config=")
			default:
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
		if len(remaining) > 1 {
			args.ConfigKey = remaining[1]
		}
		if len(remaining) > 2 {
			args.ConfigVal = remaining[2]
		}
	}
}

// HandleVersion handles the "version" command.
func HandleVersion(args Args) {
	if args.JSON {
		fmt.Printf("{\"version\":%q,\"git_commit\":%q,\"build_date\":%q,\"go_version\":%q}\n",
			Version, GitCommit, BuildDate, runtime.Version())
		return
	}
	PrintVersion()
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}
