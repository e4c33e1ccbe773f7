package auth

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/comit-io/galaxyapi/internal/apperrors"
	"github.com/comit-io/galaxyapi/internal/models"
)

// Authenticator verifies directory credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*models.DirectoryUser, error)
}

// RevocationStore remembers revoked token ids until they expire.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type AuthService struct {
	authenticator Authenticator
	builder       *ContextBuilder
	jwtManager    *JWTManager
	revocations   RevocationStore
	log           *logrus.Logger
}

func NewAuthService(authenticator Authenticator, builder *ContextBuilder, jwtManager *JWTManager, revocations RevocationStore, log *logrus.Logger) *AuthService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AuthService{
		authenticator: authenticator,
		builder:       builder,
		jwtManager:    jwtManager,
		revocations:   revocations,
		log:           log,
	}
}

// Login checks the password against the directory and issues a token
// carrying the user's freshly built authorization profile.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	user, err := s.authenticator.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, *user)
}

// Renew issues a new token with a rebuilt profile and revokes the old one.
func (s *AuthService) Renew(ctx context.Context, claims *Claims) (*models.LoginResponse, error) {
	resp, err := s.issue(ctx, claims.User())
	if apperrors.KindOf(err) == apperrors.KindNotFound {
		return nil, apperrors.Unauthorized("AuthService.Renew", "user is no longer in the directory")
	}
	if err != nil {
		return nil, err
	}
	if err := s.revoke(ctx, claims); err != nil {
		return nil, err
	}
	return resp, nil
}

// Logout revokes the token until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, claims *Claims) error {
	return s.revoke(ctx, claims)
}

// Validate parses the token and rejects revoked ones.
func (s *AuthService) Validate(ctx context.Context, token string) (*Claims, error) {
	const op = "AuthService.Validate"

	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, apperrors.Unauthorized(op, err.Error())
	}
	if s.revocations == nil || claims.ID == "" {
		return claims, nil
	}
	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperrors.Upstream(op, err)
	}
	if revoked {
		return nil, apperrors.Unauthorized(op, "token has been revoked")
	}
	return claims, nil
}

func (s *AuthService) issue(ctx context.Context, user models.DirectoryUser) (*models.LoginResponse, error) {
	profile, err := s.builder.Build(ctx, user.Username)
	if err != nil {
		return nil, err
	}
	token, claims, err := s.jwtManager.GenerateToken(user, profile)
	if err != nil {
		return nil, apperrors.Internal("AuthService.issue", err)
	}

	s.log.WithFields(logrus.Fields{
		"username": user.Username,
		"groups":   len(profile.Groups),
		"is_admin": profile.IsAdmin,
	}).Info("Issued session token")

	return &models.LoginResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Unix(),
		User:      user,
		Profile:   profile,
	}, nil
}

func (s *AuthService) revoke(ctx context.Context, claims *Claims) error {
	if s.revocations == nil || claims.ID == "" {
		return nil
	}
	until := time.Now().Add(s.jwtManager.TokenDuration())
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	if err := s.revocations.Revoke(ctx, claims.ID, until); err != nil {
		return apperrors.Upstream("AuthService.revoke", err)
	}
	return nil
}
