package auth

import (
	"chat-sync/errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "secret1"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("wrongpass", hash)
	req.NoError(err)
	req.False(match)

	_, err = ComparePassword(password, "plain")
	req.Error(err)
}

func TestTokenIssuer(t *testing.T) {
	t.Run("should round trip the member id and token id", func(t *testing.T) {
		req := require.New(t)
		issuer := NewTokenIssuer("test-secret", time.Hour)

		token, tokenID, err := issuer.GenerateToken(42)
		req.NoError(err)

		claims, err := issuer.ValidateToken(token)
		req.NoError(err)
		req.Equal(int64(42), claims.MemberID)
		req.Equal(tokenID, claims.ID)
	})

	t.Run("should reject a token signed with another secret", func(t *testing.T) {
		req := require.New(t)
		token, _, err := NewTokenIssuer("one", time.Hour).GenerateToken(1)
		req.NoError(err)

		_, err = NewTokenIssuer("two", time.Hour).ValidateToken(token)

		req.ErrorIs(err, errors.ErrInvalidToken)
	})

	t.Run("should reject an expired token", func(t *testing.T) {
		req := require.New(t)
		issuer := NewTokenIssuer("test-secret", -time.Minute)
		token, _, err := issuer.GenerateToken(1)
		req.NoError(err)

		_, err = issuer.ValidateToken(token)

		req.ErrorIs(err, errors.ErrInvalidToken)
	})
}

func TestRegistrationValidation(t *testing.T) {
	tests := []struct {
		name       string
		req        RegisterRequest
		wantFields []string
	}{
		{"Valid request", RegisterRequest{"alice", "secret1"}, nil},
		{"Username too short", RegisterRequest{"al", "secret1"}, []string{"username"}},
		{"Username too long", RegisterRequest{strings.Repeat("a", 51), "secret1"}, []string{"username"}},
		{"Password too short", RegisterRequest{"alice", "12345"}, []string{"password"}},
		{"Both missing", RegisterRequest{}, []string{"username", "password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			fields := Validate(tt.req)
			if tt.wantFields == nil {
				req.Nil(fields)
				return
			}
			req.Len(fields, len(tt.wantFields))
			for _, f := range tt.wantFields {
				req.Contains(fields, f)
			}
		})
	}
}

func TestMessageValidation_CountsCodePoints(t *testing.T) {
	req := require.New(t)

	req.Nil(Validate(PostMessageRequest{Text: strings.Repeat("é", 1000)}))
	req.Contains(Validate(PostMessageRequest{Text: strings.Repeat("é", 1001)}), "text")
	req.Contains(Validate(PostMessageRequest{Text: ""}), "text")
}
