package internal

import (
	"fmt"
	"net/url"
	"time"
)

// ServerConfig drives cmd/server.
type ServerConfig struct {
	Host           string        `env:"HOST,default=localhost"`
	Port           int           `env:"PORT,default=8000"`
	BadgerFilepath string        `env:"BADGER_FILEPATH,required=true"`
	TokenSecret    string        `env:"TOKEN_SECRET,required=true"`
	TokenDuration  time.Duration `env:"TOKEN_DURATION,default=24h"`
	ReadTimeout    time.Duration `env:"READ_TIMEOUT,default=10s"`
	ShutdownGrace  time.Duration `env:"SHUTDOWN_GRACE,default=5s"`
	LogLevel       string        `env:"LOG_LEVEL,default=INFO"`
	// CensoredWords is a comma separated list masked in posted messages.
	CensoredWords string `env:"CENSORED_WORDS"`
	// CensoredWordsByLang adds lists for a detected language: "fr=a,b;en=c".
	CensoredWordsByLang string `env:"CENSORED_WORDS_BY_LANG"`
	CharReplacement     string `env:"CHARACTER_REPLACEMENT,default=*"`
}

func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}

// ClientConfig drives cmd/chat and cmd/chat-tui. Without CREDENTIAL_PATH
// the credential only lives as long as the process.
type ClientConfig struct {
	APIURL           string        `env:"CHAT_API_URL,default=http://localhost:8000"`
	CredentialPath   string        `env:"CREDENTIAL_PATH"`
	OperationTimeout time.Duration `env:"OPERATION_TIMEOUT,default=10s"`
	PollInterval     time.Duration `env:"POLL_INTERVAL,default=5s"`
	RestartInterval  time.Duration `env:"RESTART_INTERVAL,default=1s"`
	MergeByID        bool          `env:"MERGE_BY_ID,default=false"`
	LogLevel         string        `env:"LOG_LEVEL,default=WARN"`
}

// Validate rejects values the environment parser accepts but the client
// cannot use.
func (c ClientConfig) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("CHAT_API_URL must be an http(s) URL, got %q", c.APIURL)
	}
	if c.OperationTimeout <= 0 {
		return fmt.Errorf("OPERATION_TIMEOUT must be positive, got %s", c.OperationTimeout)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	return nil
}
