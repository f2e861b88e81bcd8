package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/cashout/internal/domain/errors"
	"github.com/polkiloo/cashout/internal/domain/model"
	"github.com/polkiloo/cashout/internal/domain/repository"
	pkgAuth "github.com/polkiloo/cashout/internal/pkg/auth"
)

type accountOpener interface {
	Open(ctx context.Context, accountID, currency string) (*model.Account, error)
}

// AuthUseCase handles user lifecycle and token management.
type AuthUseCase struct {
	users    repository.UserRepository
	accounts accountOpener
	hasher   pkgAuth.PasswordHasher
	tokens   pkgAuth.Strategy
}

// NewAuthUseCase constructs AuthUseCase.
func NewAuthUseCase(users repository.UserRepository, accounts *AccountUseCase, hasher pkgAuth.PasswordHasher, strategy pkgAuth.Strategy) *AuthUseCase {
	return &AuthUseCase{users: users, accounts: accounts, hasher: hasher, tokens: strategy}
}

// Register creates a user together with an empty account in currency and returns auth token.
func (u *AuthUseCase) Register(ctx context.Context, login, password, currency string) (*model.User, string, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, "", domainErrors.ErrInvalidCredentials
	}

	code, err := NormalizeCurrency(currency)
	if err != nil {
		return nil, "", err
	}

	hash, err := u.hasher.Hash(password)
	if err != nil {
		return nil, "", err
	}

	switch _, err := u.users.GetByLogin(ctx, login); {
	case err == nil:
		return nil, "", domainErrors.ErrAlreadyExists
	case !errors.Is(err, domainErrors.ErrNotFound):
		return nil, "", err
	}

	// Every stored holder must point at an existing account.
	account, err := u.accounts.Open(ctx, uuid.NewString(), code)
	if err != nil {
		return nil, "", err
	}

	usr, err := u.users.Create(ctx, model.User{
		Login:        login,
		PasswordHash: hash,
		AccountID:    account.ID,
	})
	if err != nil {
		if errors.Is(err, domainErrors.ErrAlreadyExists) {
			return nil, "", domainErrors.ErrAlreadyExists
		}
		return nil, "", err
	}

	token, err := u.tokens.IssueToken(principalOf(usr))
	if err != nil {
		return nil, "", err
	}

	return usr, token, nil
}

// Authenticate validates credentials and returns auth token.
func (u *AuthUseCase) Authenticate(ctx context.Context, login, password string) (*model.User, string, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, "", domainErrors.ErrInvalidCredentials
	}

	usr, err := u.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, "", domainErrors.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := u.hasher.Compare(usr.PasswordHash, password); err != nil {
		return nil, "", domainErrors.ErrInvalidCredentials
	}

	token, err := u.tokens.IssueToken(principalOf(usr))
	if err != nil {
		return nil, "", err
	}

	return usr, token, nil
}

// EnsureReviewer creates the reviewer user unless the login is already taken.
func (u *AuthUseCase) EnsureReviewer(ctx context.Context, login, password string) (*model.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, domainErrors.ErrInvalidCredentials
	}

	existing, err := u.users.GetByLogin(ctx, login)
	if err == nil {
		if !existing.Reviewer {
			return nil, domainErrors.ErrAlreadyExists
		}
		return existing, nil
	}
	if !errors.Is(err, domainErrors.ErrNotFound) {
		return nil, err
	}

	hash, err := u.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	usr, err := u.users.Create(ctx, model.User{Login: login, PasswordHash: hash, Reviewer: true})
	if errors.Is(err, domainErrors.ErrAlreadyExists) {
		return u.users.GetByLogin(ctx, login)
	}
	return usr, err
}

// ParseToken extracts the caller identity from provided token.
func (u *AuthUseCase) ParseToken(token string) (model.Principal, error) {
	if token == "" {
		return model.Principal{}, pkgAuth.ErrInvalidToken
	}
	return u.tokens.ParseToken(token)
}

func principalOf(usr *model.User) model.Principal {
	return model.Principal{UserID: usr.ID, AccountID: usr.AccountID, Reviewer: usr.Reviewer}
}
