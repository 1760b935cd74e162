// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - the config show/set/path command.

package cli

import (
	"fmt"
	"strconv"

	"github.com/koragpt/kora-tui/internal/config"
)

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "", "show":
		return configShow(args)
	case "path":
		return configPath()
	case "set":
		return configSet(args)
	default:
		return fmt.Errorf("unknown config subcommand %q (want show, set or path)", args.Subcommand)
	}
}

func configShow(args Args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	fmt.Printf("server.url              = %s\n", cfg.Server.URL)
	fmt.Printf("server.timeout_secs     = %d\n", cfg.Server.TimeoutSecs)
	fmt.Printf("poll.chat_list_secs     = %d\n", cfg.Poll.ChatListSecs)
	fmt.Printf("poll.transcript_secs    = %d\n", cfg.Poll.TranscriptSecs)
	fmt.Printf("poll.error_backoff_secs = %d\n", cfg.Poll.ErrorBackoffSecs)
	fmt.Printf("chat.default_provider   = %s\n", cfg.Chat.DefaultProvider)
	fmt.Printf("chat.default_model      = %s\n", cfg.Chat.DefaultModel)
	fmt.Printf("chat.require_model      = %t\n", cfg.Chat.RequireModel)
	fmt.Printf("ui.theme                = %s\n", cfg.UI.Theme)
	fmt.Printf("ui.markdown             = %t\n", cfg.UI.Markdown)
	fmt.Printf("ui.sidebar_width        = %d\n", cfg.UI.SidebarWidth)
	return nil
}

func configPath() error {
	path, err := config.Path()
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func configSet(args Args) error {
	if args.ConfigKey == "" || args.ConfigVal == "" {
		return fmt.Errorf("usage: kora config set KEY VALUE")
	}

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	if err := applyConfigKey(cfg, args.ConfigKey, args.ConfigVal); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	if !args.Quiet {
		fmt.Printf("Set %s = %s\n", args.ConfigKey, args.ConfigVal)
	}
	return nil
}

func applyConfigKey(cfg *config.Config, key, val string) error {
	switch key {
	case "server.url":
		cfg.Server.URL = val
	case "server.timeout_secs":
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%s must be an integer", key)
		}
		cfg.Server.TimeoutSecs = n
	case "poll.chat_list_secs":
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%s must be an integer", key)
		}
		cfg.Poll.ChatListSecs = n
	case "poll.transcript_secs":
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%s must be an integer", key)
		}
		cfg.Poll.TranscriptSecs = n
	case "poll.error_backoff_secs":
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%s must be an integer", key)
		}
		cfg.Poll.ErrorBackoffSecs = n
	case "chat.default_provider":
		cfg.Chat.DefaultProvider = val
	case "chat.default_model":
		cfg.Chat.DefaultModel = val
	case "chat.require_model":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("%s must be true or false", key)
		}
		cfg.Chat.RequireModel = b
	case "ui.theme":
		cfg.UI.Theme = val
	case "ui.markdown":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("%s must be true or false", key)
		}
		cfg.UI.Markdown = b
	case "ui.sidebar_width":
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%s must be an integer", key)
		}
		cfg.UI.SidebarWidth = n
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}
