package service

import (
	"context"
	"time"

	"github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/domain"
	"github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/dto"
	autherror "github.com/AnthoniusHendriyanto/blogger-auth/internal/errors"
	"github.com/google/uuid"
)

// UserService covers the account operations outside the login flow.
type UserService struct {
	users  domain.CredentialStore
	hasher domain.PasswordHasher
	now    func() time.Time
}

func NewUserService(users domain.CredentialStore, hasher domain.PasswordHasher) *UserService {
	return &UserService{
		users:  users,
		hasher: hasher,
		now:    time.Now,
	}
}

// CreateByAdmin creates an already confirmed account. No e-mail is sent.
func (s *UserService) CreateByAdmin(ctx context.Context, input dto.RegisterInput) (*dto.UserOutput, error) {
	byLogin, err := s.users.FindByLogin(ctx, input.Login)
	if err != nil {
		return nil, err
	}
	if byLogin != nil {
		return nil, autherror.ErrLoginTaken
	}

	byEmail, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if byEmail != nil {
		return nil, autherror.ErrEmailTaken
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		ID:                uuid.NewString(),
		Login:             input.Login,
		Email:             input.Email,
		PasswordHash:      hash,
		CreatedAt:         s.now().UTC(),
		EmailConfirmation: domain.EmailConfirmation{IsConfirmed: true},
	}

	if err := s.users.Create(ctx, account); err != nil {
		return nil, err
	}

	return &dto.UserOutput{
		ID:        account.ID,
		Login:     account.Login,
		Email:     account.Email,
		CreatedAt: account.CreatedAt,
	}, nil
}

func (s *UserService) GetMe(ctx context.Context, userID string) (*dto.MeOutput, error) {
	account, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, autherror.ErrUserNotFound
	}

	return &dto.MeOutput{
		Email:  account.Email,
		Login:  account.Login,
		UserID: account.ID,
	}, nil
}
