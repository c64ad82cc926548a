package service

import (
	"context"

	"github.com/liyxianren/mmyq/core/constants"
	"github.com/liyxianren/mmyq/core/errors"
	"github.com/liyxianren/mmyq/core/logger"
	"github.com/liyxianren/mmyq/core/utils"
	"github.com/liyxianren/mmyq/modules/admin/dto"
	authdto "github.com/liyxianren/mmyq/modules/auth/dto"
	"github.com/liyxianren/mmyq/modules/auth/entity"
	authrepo "github.com/liyxianren/mmyq/modules/auth/repository"
	venueservice "github.com/liyxianren/mmyq/modules/venue/service"
)

// AdminService covers the review side of the system. It owns no storage; it
// works through the user repository and the venue service.
type AdminService struct {
	users  authrepo.UserRepositoryInterface
	venues venueservice.VenueServiceInterface
	groups []string
}

type AdminServiceInterface interface {
	ListUsers(ctx context.Context, status string) (*dto.UserListResponse, *errors.AppError)
	BatchUserAction(ctx context.Context, req *dto.BatchUserActionRequest) (*dto.BatchUserActionResponse, *errors.AppError)
	ResetUserPassword(ctx context.Context, userID int64, req *dto.ResetPasswordRequest) *errors.AppError
	Dashboard(ctx context.Context) (*dto.DashboardResponse, *errors.AppError)
}

func NewAdminService(users authrepo.UserRepositoryInterface, venues venueservice.VenueServiceInterface, groups []string) AdminServiceInterface {
	return &AdminService{users: users, venues: venues, groups: groups}
}

// ListUsers returns accounts, optionally filtered by review status.
func (s *AdminService) ListUsers(ctx context.Context, status string) (*dto.UserListResponse, *errors.AppError) {
	var filter *entity.UserStatus
	if status != "" {
		st := entity.UserStatus(status)
		switch st {
		case entity.UserStatusPending, entity.UserStatusApproved, entity.UserStatusRejected:
			filter = &st
		default:
			return nil, errors.NewAppError(errors.ErrInvalidInput, "unknown status filter", nil)
		}
	}

	users, err := s.users.ListUsers(ctx, filter)
	if err != nil {
		logger.Error("AdminService:ListUsers:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to list users", err)
	}

	resp := &dto.UserListResponse{Users: make([]authdto.UserResponse, 0, len(users)), Total: len(users)}
	for i := range users {
		resp.Users = append(resp.Users, authdto.ToUserResponse(&users[i]))
	}
	return resp, nil
}

// BatchUserAction applies approve, reject or delete to a set of accounts and
// reports the outcome per id. Ids that no longer exist are reported with
// Applied=false rather than failing the whole batch.
func (s *AdminService) BatchUserAction(ctx context.Context, req *dto.BatchUserActionRequest) (*dto.BatchUserActionResponse, *errors.AppError) {
	if len(req.UserIDs) == 0 {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "user_ids must not be empty", nil)
	}

	var affected []int64
	var err error
	switch req.Action {
	case dto.ActionApprove:
		affected, err = s.users.BatchUpdateStatus(ctx, req.UserIDs, entity.UserStatusApproved)
	case dto.ActionReject:
		affected, err = s.users.BatchUpdateStatus(ctx, req.UserIDs, entity.UserStatusRejected)
	case dto.ActionDelete:
		affected, err = s.users.BatchDelete(ctx, req.UserIDs)
	default:
		return nil, errors.NewAppError(errors.ErrInvalidInput, "unknown action", nil)
	}
	if err != nil {
		logger.Error("AdminService:BatchUserAction:Error", "error", err, "action", req.Action)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to apply user action", err)
	}

	applied := make(map[int64]bool, len(affected))
	for _, id := range affected {
		applied[id] = true
	}
	resp := &dto.BatchUserActionResponse{Action: req.Action}
	for _, id := range req.UserIDs {
		resp.Results = append(resp.Results, dto.UserActionResult{UserID: id, Applied: applied[id]})
	}

	logger.Info("AdminService:BatchUserAction:Done", "action", req.Action, "requested", len(req.UserIDs), "applied", len(affected))
	return resp, nil
}

// ResetUserPassword replaces an account password with an admin-chosen one.
func (s *AdminService) ResetUserPassword(ctx context.Context, userID int64, req *dto.ResetPasswordRequest) *errors.AppError {
	if len(req.NewPassword) < constants.DefaultPasswordMinLength {
		return errors.NewAppError(errors.ErrInvalidInput, "password must be at least 6 characters", nil)
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to hash password", err)
	}

	updated, err := s.users.UpdatePassword(ctx, userID, hash)
	if err != nil {
		logger.Error("AdminService:ResetUserPassword:Error", "error", err, "user_id", userID)
		return errors.NewAppError(errors.ErrInternalServer, "failed to update password", err)
	}
	if !updated {
		return errors.NewAppError(errors.ErrNotFound, "user not found", nil)
	}
	return nil
}

// Dashboard aggregates the counters and queues an admin lands on.
func (s *AdminService) Dashboard(ctx context.Context) (*dto.DashboardResponse, *errors.AppError) {
	stats, err := s.users.Stats(ctx, s.groups)
	if err != nil {
		logger.Error("AdminService:Dashboard:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load user stats", err)
	}

	pendingStatus := entity.UserStatusPending
	pendingUsers, err := s.users.ListUsers(ctx, &pendingStatus)
	if err != nil {
		logger.Error("AdminService:Dashboard:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to list pending users", err)
	}

	pendingApprovals, appErr := s.venues.GetPendingSubmissions(ctx)
	if appErr != nil {
		return nil, appErr
	}
	recent, appErr := s.venues.GetRecentSubmissions(ctx, 10)
	if appErr != nil {
		return nil, appErr
	}

	resp := &dto.DashboardResponse{
		Users:             stats,
		PendingApprovals:  pendingApprovals,
		RecentSubmissions: recent,
	}
	for i := range pendingUsers {
		resp.PendingUsers = append(resp.PendingUsers, authdto.ToUserResponse(&pendingUsers[i]))
	}
	return resp, nil
}
