package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"taskflow/internal/auth"
	"taskflow/internal/domain"
	"taskflow/internal/repository"
	"taskflow/internal/revocation"
	"taskflow/internal/storage"
)

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = domain.Unauthenticated("invalid credentials")
	// ErrUserAlreadyExists is returned when attempting to register with an existing email.
	ErrUserAlreadyExists = domain.Conflict("user already exists")
	// ErrUnauthorized is returned when a request carries no usable access token.
	ErrUnauthorized = domain.Unauthenticated("unauthorized request")
)

// RegisterInput holds a registration form. AvatarPath points at the uploaded file on
// local disk.
type RegisterInput struct {
	FullName   string
	Email      string
	Password   string
	AvatarPath string
}

// Session is the result of a successful registration or login. User is sanitized.
type Session struct {
	User   *domain.User
	Tokens auth.TokenPair
}

// UserService describes user lifecycle and session operations.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Logout(ctx context.Context, userID string, access *auth.Claims) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// Authenticate validates an access token and resolves the user it was issued to.
	Authenticate(ctx context.Context, accessToken string) (*domain.User, *auth.Claims, error)
}

type userService struct {
	users   repository.UserRepository
	relay   storage.MediaRelay
	tokens  *auth.Issuer
	revoked revocation.Store
	logger  *logrus.Logger
}

func NewUserService(users repository.UserRepository, relay storage.MediaRelay, tokens *auth.Issuer, revoked revocation.Store, logger *logrus.Logger) UserService {
	if revoked == nil {
		revoked = revocation.Noop{}
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &userService{
		users:   users,
		relay:   relay,
		tokens:  tokens,
		revoked: revoked,
		logger:  logger,
	}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	fields := struct {
		FullName string `json:"fullname" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}{
		FullName: strings.TrimSpace(in.FullName),
		Email:    domain.NormalizeEmail(in.Email),
		Password: in.Password,
	}
	if fields.FullName == "" || fields.Email == "" || strings.TrimSpace(fields.Password) == "" {
		return nil, domain.Validation("all fields are required")
	}
	if err := validateStruct(fields); err != nil {
		return nil, err
	}

	_, err := s.users.GetByEmail(ctx, fields.Email)
	switch {
	case err == nil:
		return nil, ErrUserAlreadyExists
	case !errors.Is(err, repository.ErrNotFound):
		return nil, domain.Internal("failed to look up user", err)
	}

	if strings.TrimSpace(in.AvatarPath) == "" {
		return nil, domain.Validation("avatar is required")
	}

	avatarURL, err := s.relay.Upload(ctx, in.AvatarPath)
	if err != nil {
		return nil, domain.Internal("error while uploading avatar", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(fields.Password), bcrypt.DefaultCost)
	if err != nil {
		s.discardAvatar(ctx, avatarURL)
		return nil, domain.Internal("failed to hash password", err)
	}

	user := &domain.User{
		FullName:     fields.FullName,
		Email:        fields.Email,
		PasswordHash: string(hash),
		Avatar:       avatarURL,
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.discardAvatar(ctx, avatarURL)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, domain.Internal("error while creating user", err)
	}

	s.logger.WithField("user_id", user.ID).Info("user registered")
	return s.issueSession(ctx, user)
}

func (s *userService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.Validation("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, domain.Internal("failed to look up user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueSession(ctx, user)
}

func (s *userService) Logout(ctx context.Context, userID string, access *auth.Claims) error {
	if err := s.users.SetRefreshToken(ctx, userID, ""); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnauthorized
		}
		return domain.Internal("failed to clear session", err)
	}

	if access != nil && access.ID != "" && access.ExpiresAt != nil {
		if err := s.revoked.Revoke(ctx, access.ID, access.ExpiresAt.Time); err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Warn("revoke access token")
		}
	}
	return nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound("user not found")
		}
		return nil, domain.Internal("failed to look up user", err)
	}
	return user.Sanitized(), nil
}

func (s *userService) Authenticate(ctx context.Context, accessToken string) (*domain.User, *auth.Claims, error) {
	if accessToken == "" {
		return nil, nil, ErrUnauthorized
	}

	claims, err := s.tokens.ParseAccess(accessToken)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, nil, domain.Unauthenticated("access token expired")
		}
		return nil, nil, domain.Unauthenticated("invalid access token")
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.WithError(err).Warn("check token revocation")
	} else if revoked {
		return nil, nil, domain.Unauthenticated("access token revoked")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, domain.Unauthenticated("invalid access token")
		}
		return nil, nil, domain.Internal("failed to look up user", err)
	}

	return user.Sanitized(), claims, nil
}

// issueSession mints a token pair and persists the refresh token on the user record,
// replacing any previous one.
func (s *userService) issueSession(ctx context.Context, user *domain.User) (*Session, error) {
	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, domain.Internal("something went wrong while generating tokens", err)
	}
	if err := s.users.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, domain.Internal("something went wrong while generating tokens", err)
	}
	return &Session{User: user.Sanitized(), Tokens: pair}, nil
}

func (s *userService) discardAvatar(ctx context.Context, url string) {
	if err := s.relay.Delete(ctx, url); err != nil {
		s.logger.WithError(err).WithField("avatar", url).Warn("discard uploaded avatar")
	}
}
