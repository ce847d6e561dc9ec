package services

import (
	"chat-sync/auth"
	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/mocks"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAccountService_Register(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)

	t.Run("should create the member and issue a token", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockIMemberRepository(ctrl)
		svc := NewAccountService(repo, tokens, log)

		repo.EXPECT().CreateMember("alice", gomock.Not("secret1")).
			Return(domain.Member{ID: 1, Username: "alice"}, nil)
		repo.EXPECT().UpdateTokenID(int64(1), gomock.Any()).Return(nil)

		grant, err := svc.Register("alice", "secret1")

		req.NoError(err)
		req.NotEmpty(grant.Token)
		req.Equal("alice", grant.Member.Username)
		req.NotEmpty(grant.Member.TokenID)
	})

	t.Run("should report field errors before touching the repository", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockIMemberRepository(ctrl)
		repo.EXPECT().CreateMember(gomock.Any(), gomock.Any()).Times(0)
		svc := NewAccountService(repo, tokens, log)

		_, err := svc.Register("al", "123")

		req.ErrorIs(err, errors.ErrValidationFailed)
		var authErr *errors.AuthError
		req.ErrorAs(err, &authErr)
		req.Contains(authErr.FieldMessages, "username")
		req.Contains(authErr.FieldMessages, "password")
	})

	t.Run("should turn a taken username into a field error", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockIMemberRepository(ctrl)
		svc := NewAccountService(repo, tokens, log)

		repo.EXPECT().CreateMember("alice", gomock.Any()).Return(domain.Member{}, errors.ErrUserAlreadyExists)

		_, err := svc.Register("alice", "secret1")

		var authErr *errors.AuthError
		req.ErrorAs(err, &authErr)
		req.Equal(errors.AuthValidationFailed, authErr.Kind)
		req.Equal([]string{"A user with that username already exists."}, authErr.FieldMessages["username"])
	})
}

func TestAccountService_Login(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)
	member := domain.Member{ID: 4, Username: "alice", PasswordHash: hash}

	t.Run("should issue a token for matching credentials", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockIMemberRepository(ctrl)
		svc := NewAccountService(repo, tokens, log)

		repo.EXPECT().GetByUsername("alice").Return(member, nil)
		repo.EXPECT().UpdateTokenID(int64(4), gomock.Any()).Return(nil)

		grant, err := svc.Login("alice", "secret1")

		req.NoError(err)
		req.NotEmpty(grant.Token)
	})

	t.Run("should answer the same for a wrong password and an unknown user", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockIMemberRepository(ctrl)
		svc := NewAccountService(repo, tokens, log)

		repo.EXPECT().GetByUsername("alice").Return(member, nil)
		repo.EXPECT().GetByUsername("ghost").Return(domain.Member{}, errors.ErrUserNotFound)

		_, wrongPassword := svc.Login("alice", "secret2")
		_, unknown := svc.Login("ghost", "secret1")

		req.ErrorIs(wrongPassword, errors.ErrInvalidCredentials)
		req.ErrorIs(unknown, errors.ErrInvalidCredentials)
		req.Equal(wrongPassword.Error(), unknown.Error())
	})
}

func TestAccountService_Authenticate(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)

	t.Run("should accept only the latest token of a member", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockIMemberRepository(ctrl)
		svc := NewAccountService(repo, tokens, log)

		older, _, err := tokens.GenerateToken(2)
		req.NoError(err)
		latest, latestID, err := tokens.GenerateToken(2)
		req.NoError(err)
		repo.EXPECT().GetByID(int64(2)).Return(domain.Member{ID: 2, Username: "bob", TokenID: latestID}, nil).Times(2)

		member, err := svc.Authenticate(latest)
		req.NoError(err)
		req.Equal("bob", member.Username)

		_, err = svc.Authenticate(older)
		req.ErrorIs(err, errors.ErrInvalidToken)
	})

	t.Run("should reject a token signed with another secret", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockIMemberRepository(ctrl)
		repo.EXPECT().GetByID(gomock.Any()).Times(0)
		svc := NewAccountService(repo, tokens, log)

		forged, _, err := auth.NewTokenIssuer("other", time.Hour).GenerateToken(2)
		req.NoError(err)

		_, err = svc.Authenticate(forged)
		req.ErrorIs(err, errors.ErrInvalidToken)
	})
}
