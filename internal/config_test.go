package internal

import (
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestClientConfig(t *testing.T) {
	t.Run("should apply defaults", func(t *testing.T) {
		req := require.New(t)
		var config ClientConfig

		_, err := env.UnmarshalFromEnviron(&config)

		req.NoError(err)
		req.Equal("http://localhost:8000", config.APIURL)
		req.Equal(10*time.Second, config.OperationTimeout)
		req.NoError(config.Validate())
	})

	t.Run("should read overrides from the environment", func(t *testing.T) {
		req := require.New(t)
		t.Setenv("CHAT_API_URL", "https://chat.example.com")
		t.Setenv("POLL_INTERVAL", "2s")
		t.Setenv("MERGE_BY_ID", "true")
		var config ClientConfig

		_, err := env.UnmarshalFromEnviron(&config)

		req.NoError(err)
		req.Equal(2*time.Second, config.PollInterval)
		req.True(config.MergeByID)
		req.NoError(config.Validate())
	})

	t.Run("should reject a non http url", func(t *testing.T) {
		req := require.New(t)
		config := ClientConfig{APIURL: "ftp://host", OperationTimeout: time.Second, PollInterval: time.Second}

		req.Error(config.Validate())
	})
}

func TestServerConfig(t *testing.T) {
	t.Run("should require a token secret", func(t *testing.T) {
		req := require.New(t)
		t.Setenv("BADGER_FILEPATH", t.TempDir())
		var config ServerConfig

		_, err := env.UnmarshalFromEnviron(&config)

		req.Error(err)
	})

	t.Run("should build the listen address", func(t *testing.T) {
		req := require.New(t)
		t.Setenv("BADGER_FILEPATH", t.TempDir())
		t.Setenv("TOKEN_SECRET", "s3cret")
		t.Setenv("PORT", "9000")
		var config ServerConfig

		_, err := env.UnmarshalFromEnviron(&config)

		req.NoError(err)
		req.Equal("localhost:9000", config.Address())
		req.Equal(24*time.Hour, config.TokenDuration)
	})
}

func TestCharacterRune(t *testing.T) {
	t.Run("should accept a single character", func(t *testing.T) {
		req := require.New(t)
		r, err := CharacterRune("€")
		req.NoError(err)
		req.Equal('€', r)
	})

	t.Run("should reject anything longer", func(t *testing.T) {
		req := require.New(t)
		_, err := CharacterRune("**")
		req.Error(err)
	})
}
