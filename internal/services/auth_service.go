package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/blacklisthub/blacklisthub-backend/internal/apperrors"
	"github.com/blacklisthub/blacklisthub-backend/internal/models"
	"github.com/blacklisthub/blacklisthub-backend/internal/repositories"
	"github.com/blacklisthub/blacklisthub-backend/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles contributor accounts and session tokens
type AuthService struct {
	userRepo repositories.UserRepository
	tokens   *jwt.SessionTokenService
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repositories.UserRepository, tokens *jwt.SessionTokenService, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{userRepo: userRepo, tokens: tokens, logger: logger, now: time.Now}
}

// Login verifies the credentials and issues a session token
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, invalidCredentials()
		}
		return nil, storeError(err, "user")
	}
	if user.Disabled {
		return nil, invalidCredentials()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("login rejected", "username", user.Username)
		return nil, invalidCredentials()
	}

	token, err := s.tokens.Issue(user.ID.Hex(), user.Username, string(user.Role))
	if err != nil {
		return nil, err
	}
	s.logger.Info("login succeeded", "username", user.Username, "role", user.Role)
	return &models.LoginResponse{Token: token, User: user}, nil
}

// VerifyToken resolves a session token to the actor it was issued for
func (s *AuthService) VerifyToken(token string) (*models.Actor, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired session")
	}
	role := models.Role(claims.Role)
	if !role.Valid() {
		return nil, apperrors.Unauthorized("invalid or expired session")
	}
	return &models.Actor{UID: claims.UID, Username: claims.Username, Role: role}, nil
}

// TokenTTL is the lifetime of issued session tokens
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

// CreateUser adds a contributor account. Only admins may create accounts and
// only a super_admin may create another super_admin.
func (s *AuthService) CreateUser(ctx context.Context, req *models.CreateUserRequest, actor *models.Actor) (*models.User, error) {
	if actor == nil {
		return nil, apperrors.Unauthorized("authentication required")
	}
	if !actor.Role.IsAdmin() {
		return nil, apperrors.Permission("role %s cannot create accounts", actor.Role)
	}
	if !req.Role.Valid() {
		return nil, apperrors.Validation("invalid role: %s", req.Role)
	}
	if req.Role == models.RoleSuperAdmin && actor.Role != models.RoleSuperAdmin {
		return nil, apperrors.Permission("only a super_admin can create super_admin accounts")
	}

	user, err := s.createUser(ctx, strings.TrimSpace(req.Username), req.Password, req.Role)
	if err != nil {
		return nil, err
	}
	s.logger.Info("account created", "username", user.Username, "role", user.Role, "by", actor.Username)
	return user, nil
}

// EnsureBootstrapAdmin creates a super_admin when the user store is empty
func (s *AuthService) EnsureBootstrapAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return storeError(err, "users")
	}
	if count > 0 {
		return nil
	}
	if _, err := s.createUser(ctx, username, password, models.RoleSuperAdmin); err != nil {
		return err
	}
	s.logger.Info("bootstrap super_admin created", "username", username)
	return nil
}

func (s *AuthService) createUser(ctx context.Context, username, password string, role models.Role) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Validation("password cannot be hashed: %v", err)
	}
	now := s.now().UTC()
	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, apperrors.Validation("username %s is already taken", username)
		}
		return nil, storeError(err, "user")
	}
	return user, nil
}

func invalidCredentials() error {
	return &apperrors.Error{Kind: apperrors.ErrInvalidCredentials, Message: "invalid username or password"}
}
