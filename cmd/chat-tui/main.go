package main

import (
	"chat-sync/internal"
	"chat-sync/runtime"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Netflix/go-env"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chat-tui: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	var logOutput string
	flags := pflag.NewFlagSet("chat-tui", pflag.ContinueOnError)
	flags.StringVar(&logOutput, "log-output", "", "write JSON log records to this file")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return exitOK, nil
		}
		return exitConfig, err
	}

	_ = godotenv.Load()
	var config internal.ClientConfig
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	// The terminal belongs to the UI, logs go to a file or nowhere.
	log := slog.New(slog.DiscardHandler)
	if logOutput != "" {
		file, err := os.OpenFile(logOutput, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return exitConfig, fmt.Errorf("open log output: %w", err)
		}
		defer file.Close()
		log = slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	stack, err := internal.NewClientStack(config, log)
	if err != nil {
		return exitConfig, err
	}
	defer func() { _ = stack.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	program := tea.NewProgram(newModel(ctx, stack.Session, stack.Controller), tea.WithAltScreen())
	unsubscribe := stack.Controller.Subscribe(func(e runtime.Event) { program.Send(eventMsg(e)) })
	defer unsubscribe()

	stopPolling := stack.KeepPolling(ctx)
	defer stopPolling()

	if _, err := program.Run(); err != nil {
		return exitRuntime, err
	}
	return exitOK, nil
}
