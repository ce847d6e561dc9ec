//go:generate go run go.uber.org/mock/mockgen -source=account_service.go -destination=../mocks/mock_account_service.go -package=mocks
package services

import (
	"chat-sync/auth"
	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/repositories"
	stderrors "errors"
	"fmt"
	"log/slog"
)

const (
	msgValidation         = "Validation error"
	msgInvalidCredentials = "Invalid credentials"
)

// IAccountService is the backend side of register, login and bearer
// authentication.
type IAccountService interface {
	Register(username, password string) (domain.AuthGrant, error)
	Login(username, password string) (domain.AuthGrant, error)
	Authenticate(token string) (domain.Member, error)
}

type AccountService struct {
	members repositories.IMemberRepository
	tokens  *auth.TokenIssuer
	log     *slog.Logger
}

func NewAccountService(members repositories.IMemberRepository, tokens *auth.TokenIssuer, log *slog.Logger) *AccountService {
	return &AccountService{members: members, tokens: tokens, log: log}
}

func (s *AccountService) Register(username, password string) (domain.AuthGrant, error) {
	// 1. Validate before any expensive cryptographic operation.
	if fields := auth.Validate(auth.RegisterRequest{Username: username, Password: password}); fields != nil {
		return domain.AuthGrant{}, errors.ValidationFailed(msgValidation, fields)
	}

	// 2. Hash in the service layer, the repository never sees plain passwords.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return domain.AuthGrant{}, fmt.Errorf("hashing failed: %w", err)
	}

	member, err := s.members.CreateMember(username, hashedPassword)
	if stderrors.Is(err, errors.ErrUserAlreadyExists) {
		return domain.AuthGrant{}, errors.ValidationFailed(msgValidation, map[string][]string{
			"username": {"A user with that username already exists."},
		})
	}
	if err != nil {
		return domain.AuthGrant{}, err
	}

	s.log.Info("Member registered", "member_id", member.ID, "username", member.Username)
	return s.issue(member)
}

func (s *AccountService) Login(username, password string) (domain.AuthGrant, error) {
	if fields := auth.Validate(auth.LoginRequest{Username: username, Password: password}); fields != nil {
		return domain.AuthGrant{}, errors.ValidationFailed(msgValidation, fields)
	}

	member, err := s.members.GetByUsername(username)
	if err != nil {
		// Same answer for unknown users and wrong passwords.
		return domain.AuthGrant{}, errors.InvalidCredentials(msgInvalidCredentials)
	}

	match, err := auth.ComparePassword(password, member.PasswordHash)
	if err != nil || !match {
		return domain.AuthGrant{}, errors.InvalidCredentials(msgInvalidCredentials)
	}

	return s.issue(member)
}

// issue signs a new token and makes it the only one accepted for member.
func (s *AccountService) issue(member domain.Member) (domain.AuthGrant, error) {
	token, tokenID, err := s.tokens.GenerateToken(member.ID)
	if err != nil {
		return domain.AuthGrant{}, err
	}
	if err := s.members.UpdateTokenID(member.ID, tokenID); err != nil {
		return domain.AuthGrant{}, fmt.Errorf("store token id: %w", err)
	}
	member.TokenID = tokenID
	return domain.AuthGrant{Token: token, Member: member}, nil
}

func (s *AccountService) Authenticate(token string) (domain.Member, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return domain.Member{}, err
	}
	member, err := s.members.GetByID(claims.MemberID)
	if err != nil {
		return domain.Member{}, errors.ErrInvalidToken
	}
	if member.TokenID != claims.ID {
		return domain.Member{}, errors.ErrInvalidToken
	}
	return member, nil
}
