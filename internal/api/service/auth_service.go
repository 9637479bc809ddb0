package service

import (
	"context"
	"errors"

	"kointos-backend/internal/api/dto"
	"kointos-backend/internal/api/repository"
	"kointos-backend/internal/auth"
	"kointos-backend/internal/entity"
	"kointos-backend/pkg/config"
	"kointos-backend/pkg/errs"
	"kointos-backend/pkg/logger"
)

// AuthService defines the interface of the identity service.
type AuthService interface {
	SignUp(ctx context.Context, req *dto.CredentialsRequest) (*dto.IdentityResponse, error)
	SignIn(ctx context.Context, req *dto.CredentialsRequest) (*dto.TokenResponse, error)
	Me(ctx context.Context, subject string) (*dto.IdentityResponse, error)
}

// NewAuthService creates a new identity service.
func NewAuthService(cfg config.Auth, identities repository.IdentityRepository, tokens *auth.TokenIssuer, log *logger.Logger) AuthService {
	return &authService{
		cfg:        cfg,
		identities: identities,
		tokens:     tokens,
		logger:     log,
	}
}

type authService struct {
	cfg        config.Auth
	identities repository.IdentityRepository
	tokens     *auth.TokenIssuer
	logger     *logger.Logger
}

// SignUp registers a new email identity. New identities belong to no group.
func (s *authService) SignUp(ctx context.Context, req *dto.CredentialsRequest) (*dto.IdentityResponse, error) {
	if !s.cfg.LoginWith.Email {
		return nil, errs.ErrLoginDisabled
	}
	email := auth.NormalizeEmail(req.Email)

	_, err := s.identities.FindByEmail(ctx, email)
	if err == nil {
		return nil, errs.ErrAlreadyExists
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	identity := &entity.Identity{Email: email, PasswordHash: hash}
	if err := s.identities.Create(ctx, identity); err != nil {
		s.logger.Error("Failed to create identity", logger.ErrorField(err))
		return nil, err
	}

	s.logger.Info("Identity registered", logger.StringField("sub", identity.ID))
	return toIdentityResponse(identity), nil
}

// SignIn verifies credentials and issues an access token.
func (s *authService) SignIn(ctx context.Context, req *dto.CredentialsRequest) (*dto.TokenResponse, error) {
	if !s.cfg.LoginWith.Email {
		return nil, errs.ErrLoginDisabled
	}

	identity, err := s.identities.FindByEmail(ctx, auth.NormalizeEmail(req.Email))
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(identity.PasswordHash, req.Password); err != nil {
		s.logger.Warn("Sign-in rejected", logger.StringField("sub", identity.ID))
		return nil, err
	}

	token, expiresAt, err := s.tokens.Issue(identity)
	if err != nil {
		return nil, err
	}
	return &dto.TokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: expiresAt}, nil
}

// Me returns the identity behind subject.
func (s *authService) Me(ctx context.Context, subject string) (*dto.IdentityResponse, error) {
	identity, err := s.identities.FindByID(ctx, subject)
	if err != nil {
		return nil, err
	}
	return toIdentityResponse(identity), nil
}

func toIdentityResponse(identity *entity.Identity) *dto.IdentityResponse {
	return &dto.IdentityResponse{ID: identity.ID, Email: identity.Email, Groups: identity.Groups}
}
