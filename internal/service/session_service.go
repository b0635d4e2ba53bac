package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/dims-api/internal/models"
	appErrors "github.com/noah-isme/dims-api/pkg/errors"
)

type sessionDirectory interface {
	GetByID(ctx context.Context, id string) (*models.DirectoryUser, error)
}

type visitToucher interface {
	Touch(ctx context.Context, viewerID string) (*time.Time, error)
}

// SessionConfig defines how simulated-identity tokens are signed.
type SessionConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// SessionService signs a directory user in without a password and issues a
// short-lived HS256 token carrying the viewer identity.
type SessionService struct {
	directory sessionDirectory
	visits    visitToucher
	validator *validator.Validate
	logger    *zap.Logger
	config    SessionConfig
	now       func() time.Time
}

// NewSessionService constructs a SessionService. visits may be nil.
func NewSessionService(directory sessionDirectory, visits visitToucher, validate *validator.Validate, logger *zap.Logger, config SessionConfig) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.TTL <= 0 {
		config.TTL = 12 * time.Hour
	}
	return &SessionService{directory: directory, visits: visits, validator: validate, logger: logger, config: config, now: time.Now}
}

// SignIn resolves the picked directory user and issues a token. The visit
// clock is advanced so the next board load flags items since the previous visit.
func (s *SessionService) SignIn(ctx context.Context, req models.SessionRequest) (*models.SessionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	if !req.AcceptedTerms {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, "invalid session payload", []string{"accepted_terms: the terms of use must be accepted"})
	}

	user, err := s.directory.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unknown directory user")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve directory user")
	}

	viewer := user.Viewer()
	token, issuedAt, err := s.issue(viewer)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign session token")
	}

	if s.visits != nil {
		if _, err := s.visits.Touch(ctx, viewer.ID); err != nil {
			s.logger.Warn("failed to record visit", zap.String("viewer_id", viewer.ID), zap.Error(err))
		}
	}

	s.logger.Info("session issued", zap.String("viewer_id", viewer.ID), zap.String("role", string(viewer.Role)))
	return &models.SessionResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.TTL.Seconds()),
		Viewer:      viewer,
		IssuedAt:    issuedAt,
	}, nil
}

// ValidateToken parses and validates a session token returning the claims.
func (s *SessionService) ValidateToken(tokenString string) (*models.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid || !claims.Role.Valid() || claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

func (s *SessionService) issue(viewer models.Viewer) (string, time.Time, error) {
	issuedAt := s.now().UTC()
	claims := &models.SessionClaims{
		UserID: viewer.ID,
		Name:   viewer.Name,
		Role:   viewer.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   viewer.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.TTL)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, issuedAt, nil
}
