package service

import (
	"context"
	"time"

	"github.com/liyxianren/mmyq/core/cache"
	"github.com/liyxianren/mmyq/core/config"
	"github.com/liyxianren/mmyq/core/constants"
	"github.com/liyxianren/mmyq/core/errors"
	"github.com/liyxianren/mmyq/core/logger"
	"github.com/liyxianren/mmyq/core/utils"
	"github.com/liyxianren/mmyq/modules/auth/dto"
	"github.com/liyxianren/mmyq/modules/auth/entity"
	"github.com/liyxianren/mmyq/modules/auth/repository"
)

// AuthService handles registration and sessions for users and admins.
type AuthService struct {
	users  repository.UserRepositoryInterface
	admins repository.AdminRepositoryInterface
	cache  cache.TokenCache
	cfg    config.VenueConfig
}

// AuthServiceInterface defines the service contract.
type AuthServiceInterface interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, *errors.AppError)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, *errors.AppError)
	AdminLogin(ctx context.Context, req *dto.AdminLoginRequest) (*dto.AdminLoginResponse, *errors.AppError)
	Logout(ctx context.Context, token string) *errors.AppError
	Users() repository.UserRepositoryInterface
}

func NewAuthService(users repository.UserRepositoryInterface, admins repository.AdminRepositoryInterface, tokenCache cache.TokenCache, cfg config.VenueConfig) AuthServiceInterface {
	return &AuthService{users: users, admins: admins, cache: tokenCache, cfg: cfg}
}

// Users exposes the user repository to the admin module, which reviews
// accounts but owns no user storage of its own.
func (s *AuthService) Users() repository.UserRepositoryInterface { return s.users }

// Register creates a new group account in pending state.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, *errors.AppError) {
	if req.GroupType == "" || req.GroupName == "" || req.Password == "" || req.ConfirmPassword == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "all fields are required", nil)
	}
	if !s.cfg.ValidGroup(req.GroupType) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "unknown group", nil)
	}
	if req.Password != req.ConfirmPassword {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "password confirmation does not match", nil)
	}
	if len(req.Password) < constants.DefaultPasswordMinLength {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "password must be at least 6 characters", nil)
	}

	existing, err := s.users.FindByGroupName(ctx, req.GroupName)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to check group name", err)
	}
	if existing != nil {
		return nil, errors.NewAppError(errors.ErrAlreadyExists, "group name already exists", nil)
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to hash password", err)
	}

	created, err := s.users.CreateUser(ctx, &entity.User{
		GroupType:    req.GroupType,
		GroupName:    req.GroupName,
		PasswordHash: hash,
		Status:       entity.UserStatusPending,
	})
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to create user", err)
	}

	logger.Info("AuthService:Register:Done", "user_id", created.ID, "group_name", created.GroupName)
	resp := dto.ToUserResponse(created)
	return &resp, nil
}

// Login authenticates an approved user and issues a session token.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, *errors.AppError) {
	if req.GroupName == "" || req.Password == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "group name and password are required", nil)
	}

	user, err := s.users.FindByGroupName(ctx, req.GroupName)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load user", err)
	}
	if user == nil || !utils.CheckPassword(user.PasswordHash, req.Password) {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "wrong group name or password", nil)
	}
	if !user.IsApproved() {
		return nil, errors.NewAppError(errors.ErrForbidden, "account is "+string(user.Status), nil)
	}

	token, err := utils.GenerateToken(user.ID, utils.RoleUser, user.GroupName)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to issue token", err)
	}

	logger.Info("AuthService:Login:Done", "user_id", user.ID, "group_name", user.GroupName)
	return &dto.LoginResponse{Token: token, User: dto.ToUserResponse(user)}, nil
}

// AdminLogin authenticates an administrator and issues an admin token.
func (s *AuthService) AdminLogin(ctx context.Context, req *dto.AdminLoginRequest) (*dto.AdminLoginResponse, *errors.AppError) {
	if req.Username == "" || req.Password == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "username and password are required", nil)
	}

	admin, err := s.admins.FindAdminByUsername(ctx, req.Username)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load admin", err)
	}
	if admin == nil || !utils.CheckPassword(admin.PasswordHash, req.Password) {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "wrong username or password", nil)
	}

	token, err := utils.GenerateToken(admin.ID, utils.RoleAdmin, "")
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to issue token", err)
	}

	logger.Info("AuthService:AdminLogin:Done", "admin_id", admin.ID, "username", admin.Username)
	return &dto.AdminLoginResponse{Token: token, ID: admin.ID, Username: admin.Username}, nil
}

// Logout revokes a session token by blacklisting its jti for the token's
// remaining lifetime.
func (s *AuthService) Logout(ctx context.Context, token string) *errors.AppError {
	claims, err := utils.ValidateAndParseToken(token)
	if err != nil {
		// an invalid or expired token needs no revocation
		return nil
	}

	ttl := time.Duration(0)
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if err := s.cache.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to revoke token", err)
	}

	logger.Info("AuthService:Logout:Done", "subject_id", claims.SubjectID, "role", claims.Role)
	return nil
}
