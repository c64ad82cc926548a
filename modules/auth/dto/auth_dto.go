package dto

import (
	"github.com/liyxianren/mmyq/modules/auth/entity"
)

type RegisterRequest struct {
	GroupType       string `json:"group_type"`
	GroupName       string `json:"group_name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type LoginRequest struct {
	GroupName string `json:"group_name"`
	Password  string `json:"password"`
}

type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID        int64  `json:"id"`
	GroupType string `json:"group_type"`
	GroupName string `json:"group_name"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type AdminLoginResponse struct {
	Token    string `json:"token"`
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

func ToUserResponse(u *entity.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		GroupType: u.GroupType,
		GroupName: u.GroupName,
		Status:    string(u.Status),
		CreatedAt: u.CreatedAt.Format("2006-01-02 15:04"),
	}
}
