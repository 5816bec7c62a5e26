//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	stderrors "errors"
	"fmt"
	"groupchat/auth"
	"groupchat/errors"
	"groupchat/repositories"
	"log/slog"
)

type IAuthService interface {
	Register(nickname, password string) error
	Login(nickname, password string) (Token, error)
}

type Token string

func (t Token) String() string {
	return string(t)
}

type AuthService struct {
	log      *slog.Logger
	accounts repositories.IAccountRepository
	tokens   *auth.TokenIssuer
	hasher   *auth.PasswordHasher
}

func NewAuthService(log *slog.Logger, accounts repositories.IAccountRepository, tokens *auth.TokenIssuer,
	hasher *auth.PasswordHasher) IAuthService {
	return &AuthService{log: log, accounts: accounts, tokens: tokens, hasher: hasher}
}

func (s *AuthService) Register(nickname, password string) error {
	valReq := auth.RegisterRequest{Nickname: nickname, Password: password}

	// 1. Validate before any expensive cryptographic operation
	if err := auth.ValidateRegister(&valReq); err != nil {
		return err
	}

	// 2. Hash here so the repository never sees plain passwords
	hashedPassword, err := s.hasher.Hash(valReq.Password)
	if err != nil {
		return fmt.Errorf("hashing failed: %w", err)
	}

	// 3. Persist, ErrNicknameTaken propagates on duplicates
	if err := s.accounts.CreateAccount(valReq.Nickname, hashedPassword); err != nil {
		return err
	}
	s.log.Info("Account registered", "nickname", valReq.Nickname)
	return nil
}

func (s *AuthService) Login(nickname, password string) (Token, error) {
	valReq := auth.LoginRequest{Nickname: nickname, Password: password}
	if err := auth.ValidateLogin(&valReq); err != nil {
		return "", err
	}

	// 1. Unknown nickname and wrong password look the same to the caller
	account, err := s.accounts.GetAccount(valReq.Nickname)
	if stderrors.Is(err, errors.ErrAccountNotFound) {
		return "", errors.ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	// 2. Compare the provided password with the stored hash
	match, err := s.hasher.Compare(valReq.Password, account.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	// 3. Issue the session token
	token, err := s.tokens.Generate(account.Nickname)
	if err != nil {
		return "", err
	}
	return Token(token), nil
}
