package e2e

import (
	"chat-sync/auth"
	"chat-sync/internal"
	"chat-sync/repositories"
	"chat-sync/server"
	"chat-sync/services"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

type BaseHTTPSuite struct {
	suite.Suite
	Config  Config
	backend *httptest.Server
	cleanup []func()
}

// SetupSuite loads the environment and, unless a backend is given, starts
// one on a throwaway badger directory.
func (s *BaseHTTPSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.APIURL != "" {
		return
	}

	log := s.logger()
	db, err := badger.Open(badger.DefaultOptions(s.T().TempDir()).WithLoggingLevel(badger.ERROR))
	s.Require().NoError(err)
	members, err := repositories.NewMemberRepository(db)
	s.Require().NoError(err)
	messages, err := repositories.NewMessageRepository(db, log)
	s.Require().NoError(err)

	accounts := services.NewAccountService(members, auth.NewTokenIssuer("e2e-secret", time.Hour), log)
	s.backend = httptest.NewServer(server.NewServer(accounts, services.NewChatService(messages, nil, log), log).Router())
	s.Config.APIURL = s.backend.URL
	s.cleanup = append(s.cleanup, func() {
		s.backend.Close()
		_ = members.Close()
		_ = messages.Close()
		_ = db.Close()
	})
}

func (s *BaseHTTPSuite) TearDownSuite() {
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		s.cleanup[i]()
	}
}

func (s *BaseHTTPSuite) logger() *slog.Logger {
	if s.Config.DebugHTTP {
		return logs.GetLoggerFromLevel(slog.LevelDebug)
	}
	return logs.GetLoggerFromLevel(slog.LevelError)
}

// Client starts a client process whose credential lives under
// credentialPath. Two calls with the same path behave like a restart.
func (s *BaseHTTPSuite) Client(name, credentialPath string) *internal.ClientStack {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	stack, err := internal.NewClientStack(internal.ClientConfig{
		APIURL:           s.Config.APIURL,
		CredentialPath:   credentialPath,
		OperationTimeout: 5 * time.Second,
		PollInterval:     50 * time.Millisecond,
		RestartInterval:  50 * time.Millisecond,
	}, s.logger())
	s.Require().NoError(err)
	return stack
}
