package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liyxianren/mmyq/core/errors"
	"github.com/liyxianren/mmyq/modules/auth/dto"
	"github.com/liyxianren/mmyq/modules/auth/repository"
)

type mockAuthService struct {
	registerFn   func(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, *errors.AppError)
	loginFn      func(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, *errors.AppError)
	adminLoginFn func(ctx context.Context, req *dto.AdminLoginRequest) (*dto.AdminLoginResponse, *errors.AppError)
	logoutFn     func(ctx context.Context, token string) *errors.AppError
}

func (m *mockAuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, *errors.AppError) {
	return m.registerFn(ctx, req)
}
func (m *mockAuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, *errors.AppError) {
	return m.loginFn(ctx, req)
}
func (m *mockAuthService) AdminLogin(ctx context.Context, req *dto.AdminLoginRequest) (*dto.AdminLoginResponse, *errors.AppError) {
	return m.adminLoginFn(ctx, req)
}
func (m *mockAuthService) Logout(ctx context.Context, token string) *errors.AppError {
	return m.logoutFn(ctx, token)
}
func (m *mockAuthService) Users() repository.UserRepositoryInterface { return nil }

func doJSON(t *testing.T, handler echo.HandlerFunc, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestRegisterEndpoint(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, *errors.AppError) {
			assert.Equal(t, "team-rocket", req.GroupName)
			return &dto.UserResponse{ID: 1, GroupName: req.GroupName, Status: "pending"}, nil
		},
	}
	ctrl := NewAuthController(svc)

	rec := doJSON(t, ctrl.Register, http.MethodPost, "/api/v1/auth/register",
		`{"group_type":"alpha","group_name":"team-rocket","password":"secret1","confirm_password":"secret1"}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data dto.UserResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "pending", body.Data.Status)
}

func TestRegisterEndpointConflict(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, *errors.AppError) {
			return nil, errors.NewAppError(errors.ErrAlreadyExists, "group name already exists", nil)
		},
	}
	ctrl := NewAuthController(svc)

	rec := doJSON(t, ctrl.Register, http.MethodPost, "/api/v1/auth/register",
		`{"group_type":"alpha","group_name":"taken","password":"secret1","confirm_password":"secret1"}`, nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already exists")
}

func TestLoginEndpointUnauthorized(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, *errors.AppError) {
			return nil, errors.NewAppError(errors.ErrUnauthorized, "wrong group name or password", nil)
		},
	}
	ctrl := NewAuthController(svc)

	rec := doJSON(t, ctrl.Login, http.MethodPost, "/api/v1/auth/login",
		`{"group_name":"team-rocket","password":"bad"}`, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutEndpointRequiresHeader(t *testing.T) {
	ctrl := NewAuthController(&mockAuthService{})

	rec := doJSON(t, ctrl.Logout, http.MethodPost, "/api/v1/auth/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutEndpointPassesToken(t *testing.T) {
	var got string
	svc := &mockAuthService{
		logoutFn: func(ctx context.Context, token string) *errors.AppError {
			got = token
			return nil
		},
	}
	ctrl := NewAuthController(svc)

	rec := doJSON(t, ctrl.Logout, http.MethodPost, "/api/v1/auth/logout", "",
		map[string]string{echo.HeaderAuthorization: "Bearer some.jwt.token"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "some.jwt.token", got)
}
