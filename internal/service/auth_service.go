package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ShaheerAzam/backend/internal/models"
	appErrors "github.com/ShaheerAzam/backend/pkg/errors"
)

type authAccountRepository interface {
	FindAdminByEmail(ctx context.Context, email string) (*models.Admin, error)
	FindTutorByEmail(ctx context.Context, email string) (*models.Tutor, error)
	FindStudentByEmail(ctx context.Context, email string) (*models.Student, error)
	FindAdminByID(ctx context.Context, id string) (*models.Admin, error)
	FindTutorByID(ctx context.Context, id string) (*models.Tutor, error)
	FindStudentByID(ctx context.Context, id string) (*models.Student, error)
	UpdatePassword(ctx context.Context, role models.UserRole, id, passwordHash string, updatedAt time.Time) error
}

type authNotifier interface {
	PasswordReset(role models.UserRole, email, fullName, tempPassword string)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	Issuer             string
}

// AuthService provides authentication use cases for all three account types.
// Tokens are stateless JWTs; refresh tokens carry a token_use claim so they
// cannot be replayed as access tokens.
type AuthService struct {
	accounts  authAccountRepository
	notifier  authNotifier
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	nowFn     func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(accounts authAccountRepository, notifier authNotifier, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{
		accounts:  accounts,
		notifier:  notifier,
		validator: validate,
		logger:    logger,
		config:    config,
		nowFn:     func() time.Time { return time.Now().UTC() },
	}
}

// Login authenticates against the table matching the requested user type and
// returns an access/refresh token pair.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	info, passwordHash, err := s.lookupByEmail(ctx, req.UserType, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	accessToken, err := s.signToken(info, models.TokenUseAccess, s.config.AccessTokenExpiry)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	refreshToken, err := s.signToken(info, models.TokenUseRefresh, s.config.RefreshTokenExpiry)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
	}

	s.logger.Info("login", zap.String("role", string(info.Role)), zap.String("user_id", info.ID))

	return &models.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:     s.nowFn(),
		User:         *info,
	}, nil
}

// RefreshToken exchanges a valid refresh token for a new token pair. The
// account is re-read so revoked or deleted accounts stop refreshing.
func (s *AuthService) RefreshToken(ctx context.Context, req models.RefreshTokenRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid refresh payload")
	}

	claims, err := s.parseToken(req.RefreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenUse != models.TokenUseRefresh {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token is not a refresh token")
	}

	info, _, err := s.lookupByID(ctx, claims.Role, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "associated account no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}

	accessToken, err := s.signToken(info, models.TokenUseAccess, s.config.AccessTokenExpiry)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	newRefresh, err := s.signToken(info, models.TokenUseRefresh, s.config.RefreshTokenExpiry)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
	}

	return &models.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		ExpiresIn:    int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:     s.nowFn(),
		User:         *info,
	}, nil
}

// ResetPassword rotates the account's password to a random temporary one and
// emails it to the account holder. Responds identically whether or not the
// email exists, so the endpoint cannot be used to probe accounts.
func (s *AuthService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reset password payload")
	}

	info, _, err := s.lookupByEmail(ctx, req.UserType, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Info("password reset requested for unknown email", zap.String("role", string(req.UserType)))
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch account")
	}

	tempPassword, err := generateTempPassword()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	if err := s.accounts.UpdatePassword(ctx, info.Role, info.ID, string(hash), s.nowFn()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}

	if s.notifier != nil {
		s.notifier.PasswordReset(info.Role, info.Email, info.FullName, tempPassword)
	}
	s.logger.Info("password reset", zap.String("role", string(info.Role)), zap.String("user_id", info.ID))
	return nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenUse != models.TokenUseAccess {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token is not an access token")
	}
	return claims, nil
}

func (s *AuthService) parseToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) signToken(info *models.UserInfo, tokenUse string, expiry time.Duration) (string, error) {
	issuedAt := s.nowFn()
	claims := &models.JWTClaims{
		UserID:   info.ID,
		Role:     info.Role,
		Email:    info.Email,
		FullName: info.FullName,
		TokenUse: tokenUse,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   info.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.AccessTokenSecret))
}

func (s *AuthService) lookupByEmail(ctx context.Context, role models.UserRole, email string) (*models.UserInfo, string, error) {
	switch role {
	case models.RoleAdmin:
		admin, err := s.accounts.FindAdminByEmail(ctx, email)
		if err != nil {
			return nil, "", err
		}
		return &models.UserInfo{ID: admin.ID, Email: admin.Email, FullName: admin.FullName, Role: models.RoleAdmin}, admin.PasswordHash, nil
	case models.RoleTutor:
		tutor, err := s.accounts.FindTutorByEmail(ctx, email)
		if err != nil {
			return nil, "", err
		}
		return &models.UserInfo{ID: tutor.ID, Email: tutor.Email, FullName: tutor.FullName, Role: models.RoleTutor}, tutor.PasswordHash, nil
	case models.RoleStudent:
		student, err := s.accounts.FindStudentByEmail(ctx, email)
		if err != nil {
			return nil, "", err
		}
		return &models.UserInfo{ID: student.ID, Email: student.Email, FullName: student.FullName, Role: models.RoleStudent}, student.PasswordHash, nil
	default:
		return nil, "", fmt.Errorf("unknown role %q", role)
	}
}

func (s *AuthService) lookupByID(ctx context.Context, role models.UserRole, id string) (*models.UserInfo, string, error) {
	switch role {
	case models.RoleAdmin:
		admin, err := s.accounts.FindAdminByID(ctx, id)
		if err != nil {
			return nil, "", err
		}
		return &models.UserInfo{ID: admin.ID, Email: admin.Email, FullName: admin.FullName, Role: models.RoleAdmin}, admin.PasswordHash, nil
	case models.RoleTutor:
		tutor, err := s.accounts.FindTutorByID(ctx, id)
		if err != nil {
			return nil, "", err
		}
		return &models.UserInfo{ID: tutor.ID, Email: tutor.Email, FullName: tutor.FullName, Role: models.RoleTutor}, tutor.PasswordHash, nil
	case models.RoleStudent:
		student, err := s.accounts.FindStudentByID(ctx, id)
		if err != nil {
			return nil, "", err
		}
		return &models.UserInfo{ID: student.ID, Email: student.Email, FullName: student.FullName, Role: models.RoleStudent}, student.PasswordHash, nil
	default:
		return nil, "", fmt.Errorf("unknown role %q", role)
	}
}

func generateTempPassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
