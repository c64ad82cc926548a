package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liyxianren/mmyq/core/config"
	"github.com/liyxianren/mmyq/core/errors"
	"github.com/liyxianren/mmyq/core/utils"
	"github.com/liyxianren/mmyq/modules/auth/dto"
	"github.com/liyxianren/mmyq/modules/auth/entity"
)

type mockUserRepo struct {
	createUserFn        func(ctx context.Context, user *entity.User) (*entity.User, error)
	findByGroupNameFn   func(ctx context.Context, groupName string) (*entity.User, error)
	findByIDFn          func(ctx context.Context, id int64) (*entity.User, error)
	listUsersFn         func(ctx context.Context, status *entity.UserStatus) ([]entity.User, error)
	batchUpdateStatusFn func(ctx context.Context, ids []int64, status entity.UserStatus) ([]int64, error)
	batchDeleteFn       func(ctx context.Context, ids []int64) ([]int64, error)
	updatePasswordFn    func(ctx context.Context, id int64, passwordHash string) (bool, error)
	statsFn             func(ctx context.Context, groups []string) (*entity.UserStats, error)
}

func (m *mockUserRepo) CreateUser(ctx context.Context, user *entity.User) (*entity.User, error) {
	return m.createUserFn(ctx, user)
}
func (m *mockUserRepo) FindByGroupName(ctx context.Context, groupName string) (*entity.User, error) {
	return m.findByGroupNameFn(ctx, groupName)
}
func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockUserRepo) ListUsers(ctx context.Context, status *entity.UserStatus) ([]entity.User, error) {
	return m.listUsersFn(ctx, status)
}
func (m *mockUserRepo) BatchUpdateStatus(ctx context.Context, ids []int64, status entity.UserStatus) ([]int64, error) {
	return m.batchUpdateStatusFn(ctx, ids, status)
}
func (m *mockUserRepo) BatchDelete(ctx context.Context, ids []int64) ([]int64, error) {
	return m.batchDeleteFn(ctx, ids)
}
func (m *mockUserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) (bool, error) {
	return m.updatePasswordFn(ctx, id, passwordHash)
}
func (m *mockUserRepo) Stats(ctx context.Context, groups []string) (*entity.UserStats, error) {
	return m.statsFn(ctx, groups)
}

type mockAdminRepo struct {
	findByUsernameFn func(ctx context.Context, username string) (*entity.Admin, error)
	findByIDFn       func(ctx context.Context, id int64) (*entity.Admin, error)
}

func (m *mockAdminRepo) FindAdminByUsername(ctx context.Context, username string) (*entity.Admin, error) {
	return m.findByUsernameFn(ctx, username)
}
func (m *mockAdminRepo) FindAdminByID(ctx context.Context, id int64) (*entity.Admin, error) {
	return m.findByIDFn(ctx, id)
}

type mockTokenCache struct {
	blacklisted map[string]time.Duration
}

func (m *mockTokenCache) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if m.blacklisted == nil {
		m.blacklisted = map[string]time.Duration{}
	}
	m.blacklisted[jti] = ttl
	return nil
}
func (m *mockTokenCache) IsTokenBlacklisted(ctx context.Context, jti string) (bool, error) {
	_, ok := m.blacklisted[jti]
	return ok, nil
}
func (m *mockTokenCache) Close() error { return nil }

func testConfig() config.VenueConfig {
	return config.VenueConfig{Groups: []string{"alpha", "beta"}}
}

func setTestJWTConfig(t *testing.T) {
	t.Helper()
	config.Set(&config.Config{JWT: config.JWTConfig{Secret: "test-secret", TTLHours: 1}})
	t.Cleanup(func() { config.Set(nil) })
}

func registerReq() *dto.RegisterRequest {
	return &dto.RegisterRequest{
		GroupType:       "alpha",
		GroupName:       "team-rocket",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func TestRegisterCreatesPendingUser(t *testing.T) {
	var created *entity.User
	users := &mockUserRepo{
		findByGroupNameFn: func(ctx context.Context, groupName string) (*entity.User, error) {
			return nil, nil
		},
		createUserFn: func(ctx context.Context, user *entity.User) (*entity.User, error) {
			created = user
			out := *user
			out.ID = 7
			out.CreatedAt = time.Now()
			return &out, nil
		},
	}
	svc := NewAuthService(users, &mockAdminRepo{}, &mockTokenCache{}, testConfig())

	resp, appErr := svc.Register(context.Background(), registerReq())
	require.Nil(t, appErr)

	assert.Equal(t, entity.UserStatusPending, created.Status)
	assert.True(t, utils.CheckPassword(created.PasswordHash, "secret1"))
	assert.Equal(t, int64(7), resp.ID)
	assert.Equal(t, "pending", resp.Status)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, &mockAdminRepo{}, &mockTokenCache{}, testConfig())
	ctx := context.Background()

	mutate := func(f func(r *dto.RegisterRequest)) *dto.RegisterRequest {
		r := registerReq()
		f(r)
		return r
	}
	cases := []struct {
		name string
		req  *dto.RegisterRequest
	}{
		{"empty fields", mutate(func(r *dto.RegisterRequest) { r.GroupName = "" })},
		{"unknown group", mutate(func(r *dto.RegisterRequest) { r.GroupType = "gamma" })},
		{"confirm mismatch", mutate(func(r *dto.RegisterRequest) { r.ConfirmPassword = "other1" })},
		{"too short", mutate(func(r *dto.RegisterRequest) { r.Password = "abc"; r.ConfirmPassword = "abc" })},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, appErr := svc.Register(ctx, tc.req)
			require.NotNil(t, appErr)
			assert.Equal(t, errors.ErrInvalidInput, appErr.Code)
		})
	}
}

func TestRegisterDuplicateGroupName(t *testing.T) {
	users := &mockUserRepo{
		findByGroupNameFn: func(ctx context.Context, groupName string) (*entity.User, error) {
			return &entity.User{ID: 1, GroupName: groupName}, nil
		},
	}
	svc := NewAuthService(users, &mockAdminRepo{}, &mockTokenCache{}, testConfig())

	_, appErr := svc.Register(context.Background(), registerReq())
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrAlreadyExists, appErr.Code)
}

func approvedUser(t *testing.T, password string) *entity.User {
	t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)
	return &entity.User{
		ID:           3,
		GroupType:    "alpha",
		GroupName:    "team-rocket",
		PasswordHash: hash,
		Status:       entity.UserStatusApproved,
		CreatedAt:    time.Now(),
	}
}

func TestLoginIssuesToken(t *testing.T) {
	setTestJWTConfig(t)
	user := approvedUser(t, "secret1")
	users := &mockUserRepo{
		findByGroupNameFn: func(ctx context.Context, groupName string) (*entity.User, error) {
			return user, nil
		},
	}
	svc := NewAuthService(users, &mockAdminRepo{}, &mockTokenCache{}, testConfig())

	resp, appErr := svc.Login(context.Background(), &dto.LoginRequest{GroupName: "team-rocket", Password: "secret1"})
	require.Nil(t, appErr)
	require.NotEmpty(t, resp.Token)

	claims, err := utils.ValidateAndParseToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(3), claims.SubjectID)
	assert.Equal(t, utils.RoleUser, claims.Role)
	assert.Equal(t, "team-rocket", claims.GroupName)
	assert.NotEmpty(t, claims.ID)
}

func TestLoginWrongPassword(t *testing.T) {
	user := approvedUser(t, "secret1")
	users := &mockUserRepo{
		findByGroupNameFn: func(ctx context.Context, groupName string) (*entity.User, error) {
			return user, nil
		},
	}
	svc := NewAuthService(users, &mockAdminRepo{}, &mockTokenCache{}, testConfig())

	_, appErr := svc.Login(context.Background(), &dto.LoginRequest{GroupName: "team-rocket", Password: "nope"})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrUnauthorized, appErr.Code)
}

func TestLoginUnapprovedUser(t *testing.T) {
	user := approvedUser(t, "secret1")
	user.Status = entity.UserStatusPending
	users := &mockUserRepo{
		findByGroupNameFn: func(ctx context.Context, groupName string) (*entity.User, error) {
			return user, nil
		},
	}
	svc := NewAuthService(users, &mockAdminRepo{}, &mockTokenCache{}, testConfig())

	_, appErr := svc.Login(context.Background(), &dto.LoginRequest{GroupName: "team-rocket", Password: "secret1"})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)
	assert.Contains(t, appErr.Message, "pending")
}

func TestAdminLogin(t *testing.T) {
	setTestJWTConfig(t)
	hash, err := utils.HashPassword("admin-pass")
	require.NoError(t, err)
	admins := &mockAdminRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*entity.Admin, error) {
			return &entity.Admin{ID: 1, Username: username, PasswordHash: hash}, nil
		},
	}
	svc := NewAuthService(&mockUserRepo{}, admins, &mockTokenCache{}, testConfig())

	resp, appErr := svc.AdminLogin(context.Background(), &dto.AdminLoginRequest{Username: "root", Password: "admin-pass"})
	require.Nil(t, appErr)

	claims, err := utils.ValidateAndParseToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, utils.RoleAdmin, claims.Role)
	assert.Equal(t, int64(1), claims.SubjectID)
}

func TestLogoutBlacklistsJTI(t *testing.T) {
	setTestJWTConfig(t)
	token, err := utils.GenerateToken(3, utils.RoleUser, "team-rocket")
	require.NoError(t, err)
	claims, err := utils.ValidateAndParseToken(token)
	require.NoError(t, err)

	cache := &mockTokenCache{}
	svc := NewAuthService(&mockUserRepo{}, &mockAdminRepo{}, cache, testConfig())

	appErr := svc.Logout(context.Background(), token)
	require.Nil(t, appErr)

	blacklisted, err := cache.IsTokenBlacklisted(context.Background(), claims.ID)
	require.NoError(t, err)
	assert.True(t, blacklisted)
	assert.Greater(t, cache.blacklisted[claims.ID], time.Duration(0))
}

func TestLogoutIgnoresInvalidToken(t *testing.T) {
	setTestJWTConfig(t)
	cache := &mockTokenCache{}
	svc := NewAuthService(&mockUserRepo{}, &mockAdminRepo{}, cache, testConfig())

	appErr := svc.Logout(context.Background(), "not-a-token")
	require.Nil(t, appErr)
	assert.Empty(t, cache.blacklisted)
}
