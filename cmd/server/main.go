package main

import (
	"chat-sync/auth"
	"chat-sync/internal"
	"chat-sync/moderation"
	"chat-sync/repositories"
	"chat-sync/server"
	"chat-sync/services"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"golang.org/x/sync/errgroup"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run owns every resource so deferred cleanup happens before the exit code
// is handed to the OS.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.ServerConfig
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}
	byLanguage, err := moderation.ParseLanguageWords(config.CensoredWordsByLang)
	if err != nil {
		return exitConfig, fmt.Errorf("CENSORED_WORDS_BY_LANG: %w", err)
	}
	moderator, err := moderation.NewLanguageModerator(moderation.ParseWords(config.CensoredWords), byLanguage, charReplacement)
	if err != nil {
		return exitConfig, fmt.Errorf("moderation setup failed: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	members, err := repositories.NewMemberRepository(db)
	if err != nil {
		return exitRuntime, err
	}
	defer func() { _ = members.Close() }()
	messages, err := repositories.NewMessageRepository(db, log)
	if err != nil {
		return exitRuntime, err
	}
	defer func() { _ = messages.Close() }()

	// 3. Services & HTTP
	accounts := services.NewAccountService(members, auth.NewTokenIssuer(config.TokenSecret, config.TokenDuration), log)
	chat := services.NewChatService(messages, moderator, log)
	httpServer := &http.Server{
		Addr:              config.Address(),
		Handler:           server.NewServer(accounts, chat, log).Router(),
		ReadHeaderTimeout: config.ReadTimeout,
	}

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Starting HTTP server", "address", config.Address())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.Info("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownGrace)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return exitRuntime, err
	}
	log.Info("Server stopped cleanly")
	return exitOK, nil
}
