package main

import (
	"chat-sync/internal"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
	exitUsage   = 64
)

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, stack *internal.ClientStack, args []string) error
}

var commands = []command{
	{"register", "create an account and sign in", registerCmd},
	{"login", "sign in with an existing account", loginCmd},
	{"logout", "forget the stored credential", logoutCmd},
	{"profile", "show the signed in member", profileCmd},
	{"messages", "print the message history", messagesCmd},
	{"send", "post a message", sendCmd},
	{"watch", "follow the feed until interrupted", watchCmd},
}

func main() {
	code, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "chat: %v\n", err)
	}
	os.Exit(code)
}

func run(args []string) (int, error) {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		usage()
		return exitOK, nil
	}
	cmd, ok := find(args[0])
	if !ok {
		usage()
		return exitUsage, fmt.Errorf("unknown command %q", args[0])
	}

	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.ClientConfig
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Client stack, session restored from the credential store
	stack, err := internal.NewClientStack(config, log)
	if err != nil {
		return exitConfig, err
	}
	defer func() { _ = stack.Close() }()

	// 3. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.run(ctx, stack, args[1:]); err != nil {
		if isUsage(err) {
			return exitUsage, err
		}
		return exitRuntime, err
	}
	return exitOK, nil
}

func find(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: chat <command> [flags]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Environment: CHAT_API_URL, CREDENTIAL_PATH, OPERATION_TIMEOUT, POLL_INTERVAL, LOG_LEVEL")
}
