package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abdasg25/BioPass/core"
	"github.com/abdasg25/BioPass/ports"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AccountService handles signup, password login and account lookup.
type AccountService struct {
	users     ports.UserStore
	tokenizer ports.Tokenizer

	now func() time.Time
}

// NewAccountService creates a new account service
func NewAccountService(users ports.UserStore, tokenizer ports.Tokenizer) *AccountService {
	return &AccountService{
		users:     users,
		tokenizer: tokenizer,
		now:       time.Now,
	}
}

// Signup registers a new account and returns it with a login token.
func (s *AccountService) Signup(ctx context.Context, username, email, password string) (*core.User, string, error) {
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, "", core.ErrEmailAlreadyRegistered
	} else if !errors.Is(err, core.ErrUserNotFound) {
		return nil, "", fmt.Errorf("check email: %w", err)
	}

	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return nil, "", core.ErrUsernameTaken
	} else if !errors.Is(err, core.ErrUserNotFound) {
		return nil, "", fmt.Errorf("check username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &core.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokenizer.MintLoginToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("mint login token: %w", err)
	}
	return user, token, nil
}

// Login checks email/password and returns the account with a login token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, email, password string) (*core.User, string, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil, "", core.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", core.ErrInvalidCredentials
	}

	token, err := s.tokenizer.MintLoginToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("mint login token: %w", err)
	}
	return user, token, nil
}

// UserInfo returns the account a completed QR poll points at.
func (s *AccountService) UserInfo(ctx context.Context, userID string) (*core.User, error) {
	return s.users.GetUser(ctx, userID)
}
