package service

import (
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/noteduco342/groupmeet-backend/internal/apperr"
	"github.com/noteduco342/groupmeet-backend/internal/cache"
	"github.com/noteduco342/groupmeet-backend/internal/config"
	"github.com/noteduco342/groupmeet-backend/internal/models"
	"github.com/noteduco342/groupmeet-backend/internal/repository"
	"github.com/noteduco342/groupmeet-backend/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the payload of a session token.
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type AuthService struct {
	userRepo    repository.UserRepositoryInterface
	revokedRepo repository.RevokedTokenRepositoryInterface
	tokens      *cache.TokenCache
	cfg         config.AuthConfig
	log         *slog.Logger
	now         func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepositoryInterface,
	revokedRepo repository.RevokedTokenRepositoryInterface,
	tokens *cache.TokenCache,
	cfg config.AuthConfig,
	log *slog.Logger,
) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 60 * time.Minute
	}
	return &AuthService{
		userRepo:    userRepo,
		revokedRepo: revokedRepo,
		tokens:      tokens,
		cfg:         cfg,
		log:         log,
		now:         time.Now,
	}
}

type RegisterInput struct {
	Username        string `json:"username" form:"username" validate:"notblank"`
	Email           string `json:"email" form:"email" validate:"notblank,email"`
	Password        string `json:"password" form:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword" validate:"required"`
	FirstName       string `json:"firstName" form:"firstName" validate:"notblank,max=80"`
	LastName        string `json:"lastName" form:"lastName" validate:"notblank,max=80"`
}

type LoginResult struct {
	Token     string    `json:"token"`
	UserID    uint      `json:"user_id,string"`
	Username  string    `json:"username"`
	Admin     bool      `json:"admin"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *AuthService) Register(input RegisterInput) (*models.User, error) {
	input.Username = validation.NormalizeUsername(input.Username)
	input.Email = validation.NormalizeEmail(input.Email)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)

	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if !validation.ValidateUsername(input.Username) {
		return nil, apperr.Validation("invalid_username", "Username must be 3-32 letters, digits or underscores")
	}
	if !validation.ValidatePassword(input.Password, s.cfg.PasswordMinLength) {
		return nil, apperr.Validation("weak_password", "Password is too short")
	}
	if input.Password != input.ConfirmPassword {
		return nil, apperr.Validation("password_mismatch", "Passwords do not match, please check the passwords entered")
	}

	if _, err := s.userRepo.FindByUsername(input.Username); err == nil {
		return nil, apperr.Validation("username_taken", "Username already taken")
	}
	if _, err := s.userRepo.FindByEmail(input.Email); err == nil {
		return nil, apperr.Validation("email_taken", "Email already in use")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal("hash_failed", err)
	}

	user := &models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         models.RoleUser,
	}
	if err := s.userRepo.Create(user); err != nil {
		// Lost a race with a concurrent registration.
		if isDuplicate(err) {
			return nil, apperr.Validation("account_taken", "Username or email already in use")
		}
		return nil, apperr.Internal("db_failed", err)
	}

	s.log.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func (s *AuthService) Login(username, password string) (*LoginResult, error) {
	user, err := s.userRepo.FindByUsername(validation.NormalizeUsername(username))
	if err != nil || user == nil {
		s.log.Info("login failed", "username", username, "reason", "unknown user")
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Info("login failed", "username", username, "reason", "bad password")
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.generateToken(user)
	if err != nil {
		return nil, apperr.Internal("token_failed", err)
	}

	s.log.Info("login", "user_id", user.ID)
	return &LoginResult{
		Token:     token,
		UserID:    user.ID,
		Username:  user.Username,
		Admin:     user.IsAdmin(),
		ExpiresAt: expiresAt,
	}, nil
}

func (s *AuthService) generateToken(user *models.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.TokenTTL)
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	return signed, expiresAt, err
}

// ParseToken validates signature and expiry only.
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method == nil || token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.ID == "" || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate resolves a token to its claims. Revoked tokens, tokens of
// deleted users and tokens issued before the last password change are
// rejected.
func (s *AuthService) Authenticate(tokenString string) (*Claims, error) {
	claims, err := s.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}

	revoked, err := s.isRevoked(claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, lookupErr(err, ErrInvalidToken)
	}
	if !issuedAfter(claims, user.TokensValidAfter) {
		return nil, ErrInvalidToken
	}
	claims.Role = user.Role
	return claims, nil
}

func (s *AuthService) isRevoked(jti string) (bool, error) {
	if revoked, known := s.tokens.IsRevoked(jti); known {
		return revoked, nil
	}
	revoked, err := s.revokedRepo.IsRevoked(jti)
	if err != nil {
		return false, apperr.Internal("db_failed", err)
	}
	return revoked, nil
}

// issuedAfter compares at second precision, which is what iat carries.
func issuedAfter(claims *Claims, validAfter *time.Time) bool {
	if validAfter == nil {
		return true
	}
	if claims.IssuedAt == nil {
		return false
	}
	return !claims.IssuedAt.Time.Before(validAfter.Truncate(time.Second))
}

// Logout blacklists the token until it expires. Repeating it is harmless.
func (s *AuthService) Logout(claims *Claims) error {
	if claims == nil || claims.ID == "" {
		return ErrInvalidToken
	}
	expiresAt := s.now().Add(s.cfg.TokenTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	row := &models.RevokedToken{JTI: claims.ID, UserID: claims.UserID, ExpiresAt: expiresAt}
	if err := s.revokedRepo.Create(row); err != nil {
		return apperr.Internal("db_failed", err)
	}
	if err := s.tokens.Revoke(claims.ID, expiresAt); err != nil {
		s.log.Warn("revoked token not cached", "user_id", claims.UserID, "error", err)
	}

	s.log.Info("logout", "user_id", claims.UserID)
	return nil
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" form:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" form:"newPassword" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword" validate:"required"`
}

func (s *AuthService) ChangePassword(userID uint, input ChangePasswordInput) error {
	if err := validation.Struct(input); err != nil {
		return err
	}
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return lookupErr(err, ErrUserNotFound)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.CurrentPassword)); err != nil {
		return apperr.Validation("wrong_password", "Current password is incorrect")
	}
	if !validation.ValidatePassword(input.NewPassword, s.cfg.PasswordMinLength) {
		return apperr.Validation("weak_password", "Password is too short")
	}
	if input.NewPassword != input.ConfirmPassword {
		return apperr.Validation("password_mismatch", "Passwords do not match, please check the passwords entered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Internal("hash_failed", err)
	}
	changedAt := s.now()
	user.PasswordHash = string(hashed)
	user.TokensValidAfter = &changedAt
	if err := s.userRepo.Update(user); err != nil {
		return apperr.Internal("db_failed", err)
	}
	s.log.Info("password changed", "user_id", userID)
	return nil
}

// PruneRevoked drops blacklist rows for tokens that have expired anyway.
func (s *AuthService) PruneRevoked() (int64, error) {
	n, err := s.revokedRepo.DeleteExpired(s.now())
	if err != nil {
		return 0, apperr.Internal("db_failed", err)
	}
	return n, nil
}
