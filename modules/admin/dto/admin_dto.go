package dto

import (
	authdto "github.com/liyxianren/mmyq/modules/auth/dto"
	"github.com/liyxianren/mmyq/modules/auth/entity"
	venuedto "github.com/liyxianren/mmyq/modules/venue/dto"
)

// Batch user actions.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionDelete  = "delete"
)

type BatchUserActionRequest struct {
	Action  string  `json:"action"`
	UserIDs []int64 `json:"user_ids"`
}

// UserActionResult reports the outcome for one requested id. Applied is
// false for ids that no longer exist, which keeps retried batches safe.
type UserActionResult struct {
	UserID  int64 `json:"user_id"`
	Applied bool  `json:"applied"`
}

type BatchUserActionResponse struct {
	Action  string             `json:"action"`
	Results []UserActionResult `json:"results"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

type DashboardResponse struct {
	Users             *entity.UserStats             `json:"users"`
	PendingUsers      []authdto.UserResponse        `json:"pending_users"`
	PendingApprovals  []venuedto.SubmissionResponse `json:"pending_approvals"`
	RecentSubmissions []venuedto.SubmissionResponse `json:"recent_submissions"`
}

type UserListResponse struct {
	Users []authdto.UserResponse `json:"users"`
	Total int                    `json:"total"`
}
