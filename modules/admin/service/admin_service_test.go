package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liyxianren/mmyq/core/errors"
	"github.com/liyxianren/mmyq/core/utils"
	"github.com/liyxianren/mmyq/modules/admin/dto"
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

func TestBatchUserActionReportsPerID(t *testing.T) {
	users := &mockUserRepo{
		batchUpdateStatusFn: func(ctx context.Context, ids []int64, status entity.UserStatus) ([]int64, error) {
			assert.Equal(t, entity.UserStatusApproved, status)
			// id 2 no longer exists
			return []int64{1, 3}, nil
		},
	}
	svc := NewAdminService(users, nil, nil)

	resp, appErr := svc.BatchUserAction(context.Background(), &dto.BatchUserActionRequest{
		Action:  dto.ActionApprove,
		UserIDs: []int64{1, 2, 3},
	})
	require.Nil(t, appErr)
	require.Len(t, resp.Results, 3)

	assert.Equal(t, dto.UserActionResult{UserID: 1, Applied: true}, resp.Results[0])
	assert.Equal(t, dto.UserActionResult{UserID: 2, Applied: false}, resp.Results[1])
	assert.Equal(t, dto.UserActionResult{UserID: 3, Applied: true}, resp.Results[2])
}

func TestBatchUserActionDelete(t *testing.T) {
	var deleted []int64
	users := &mockUserRepo{
		batchDeleteFn: func(ctx context.Context, ids []int64) ([]int64, error) {
			deleted = ids
			return ids, nil
		},
	}
	svc := NewAdminService(users, nil, nil)

	resp, appErr := svc.BatchUserAction(context.Background(), &dto.BatchUserActionRequest{
		Action:  dto.ActionDelete,
		UserIDs: []int64{4, 5},
	})
	require.Nil(t, appErr)
	assert.Equal(t, []int64{4, 5}, deleted)
	for _, r := range resp.Results {
		assert.True(t, r.Applied)
	}
}

func TestBatchUserActionValidation(t *testing.T) {
	svc := NewAdminService(&mockUserRepo{}, nil, nil)
	ctx := context.Background()

	_, appErr := svc.BatchUserAction(ctx, &dto.BatchUserActionRequest{Action: dto.ActionApprove})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidInput, appErr.Code)

	_, appErr = svc.BatchUserAction(ctx, &dto.BatchUserActionRequest{Action: "promote", UserIDs: []int64{1}})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidInput, appErr.Code)
}

func TestListUsersRejectsUnknownStatus(t *testing.T) {
	svc := NewAdminService(&mockUserRepo{}, nil, nil)

	_, appErr := svc.ListUsers(context.Background(), "frozen")
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidInput, appErr.Code)
}

func TestListUsersFiltersByStatus(t *testing.T) {
	users := &mockUserRepo{
		listUsersFn: func(ctx context.Context, status *entity.UserStatus) ([]entity.User, error) {
			require.NotNil(t, status)
			assert.Equal(t, entity.UserStatusPending, *status)
			return []entity.User{{ID: 1, GroupName: "team-rocket", Status: entity.UserStatusPending}}, nil
		},
	}
	svc := NewAdminService(users, nil, nil)

	resp, appErr := svc.ListUsers(context.Background(), "pending")
	require.Nil(t, appErr)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "team-rocket", resp.Users[0].GroupName)
}

func TestResetUserPassword(t *testing.T) {
	var storedHash string
	users := &mockUserRepo{
		updatePasswordFn: func(ctx context.Context, id int64, passwordHash string) (bool, error) {
			storedHash = passwordHash
			return true, nil
		},
	}
	svc := NewAdminService(users, nil, nil)

	appErr := svc.ResetUserPassword(context.Background(), 3, &dto.ResetPasswordRequest{NewPassword: "new-secret"})
	require.Nil(t, appErr)
	assert.True(t, utils.CheckPassword(storedHash, "new-secret"))
}

func TestResetUserPasswordNotFound(t *testing.T) {
	users := &mockUserRepo{
		updatePasswordFn: func(ctx context.Context, id int64, passwordHash string) (bool, error) {
			return false, nil
		},
	}
	svc := NewAdminService(users, nil, nil)

	appErr := svc.ResetUserPassword(context.Background(), 404, &dto.ResetPasswordRequest{NewPassword: "new-secret"})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)
}

func TestResetUserPasswordTooShort(t *testing.T) {
	svc := NewAdminService(&mockUserRepo{}, nil, nil)

	appErr := svc.ResetUserPassword(context.Background(), 3, &dto.ResetPasswordRequest{NewPassword: "abc"})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidInput, appErr.Code)
}
