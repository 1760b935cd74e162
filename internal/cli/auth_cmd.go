// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth_cmd.go - login, logout and status commands.

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/koragpt/kora-tui/internal/api"
)

// HandleLogin handles the "login" command: prompts for credentials, signs in
// and persists the session for the TUI and later invocations.
func HandleLogin(args Args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	client := newClient(cfg)
	store, err := newStore(client)
	if err != nil {
		return err
	}

	username := strings.TrimSpace(args.Username)
	if username == "" {
		fmt.Print("Username: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read username: %w", err)
		}
		username = strings.TrimSpace(line)
	}
	if username == "" {
		return fmt.Errorf("username is required")
	}

	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("password is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout())
	defer cancel()

	user, err := store.Login(ctx, api.Credentials{Username: username, Password: password})
	if err != nil {
		if api.IsAuth(err) {
			return fmt.Errorf("invalid username or password")
		}
		return fmt.Errorf("login failed: %w", err)
	}

	if !args.Quiet {
		fmt.Printf("Signed in as %s (%s)\n", user.Username, client.BaseURL())
	}
	return nil
}

// HandleLogout handles the "logout" command.
func HandleLogout(args Args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	client := newClient(cfg)
	store, err := newStore(client)
	if err != nil {
		return err
	}

	if !store.Authenticated() {
		if !args.Quiet {
			fmt.Println("No session to drop")
		}
		return nil
	}

	username := store.Username()
	store.Logout()
	if !args.Quiet {
		fmt.Printf("Signed out %s\n", username)
	}
	return nil
}

// HandleStatus handles the "status" command: reports the configured backend,
// whether it answers, and the stored session.
func HandleStatus(args Args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	client := newClient(cfg)
	store, err := newStore(client)
	if err != nil {
		return err
	}

	reachable := backendReachable(client)

	if args.JSON {
		fmt.Printf("{\"server\":%q,\"reachable\":%t,\"authenticated\":%t,\"username\":%q}\n",
			client.BaseURL(), reachable, store.Authenticated(), store.Username())
		return nil
	}

	fmt.Printf("Server:    %s\n", client.BaseURL())
	if reachable {
		fmt.Println("Backend:   reachable")
	} else {
		fmt.Println("Backend:   unreachable")
	}
	if store.Authenticated() {
		fmt.Printf("Session:   signed in as %s\n", store.Username())
	} else {
		fmt.Println("Session:   not signed in")
	}
	return nil
}

// backendReachable probes the backend with a cheap unauthenticated request.
// Any HTTP answer counts; only transport failures mean unreachable.
func backendReachable(client *api.Client) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.ListModels(ctx, "OpenAI")
	if err == nil {
		return true
	}
	var clientErr *api.ClientError
	if errors.As(err, &clientErr) {
		switch clientErr.Type {
		case api.ErrTypeConnection, api.ErrTypeTimeout:
			return false
		}
		// Auth/NotFound/InvalidResponse all prove the server answered.
		return true
	}
	return false
}

// readPassword reads a password without echo when stdin is a terminal, with a
// plain line read as fallback for pipes.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
