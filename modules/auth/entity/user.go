package entity

import "time"

// UserStatus is the review state of a group account. Only approved users can
// log in and hold venue bookings.
type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"
	UserStatusApproved UserStatus = "approved"
	UserStatusRejected UserStatus = "rejected"
)

// User is a registered group account.
type User struct {
	ID           int64      `db:"id" json:"id"`
	GroupType    string     `db:"group_type" json:"group_type"`
	GroupName    string     `db:"group_name" json:"group_name"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Status       UserStatus `db:"status" json:"status"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

func (u *User) IsApproved() bool { return u.Status == UserStatusApproved }

// UserStats counts accounts per review state and per group.
type UserStats struct {
	Total    int            `json:"total"`
	Pending  int            `json:"pending"`
	Approved int            `json:"approved"`
	Rejected int            `json:"rejected"`
	ByGroup  map[string]int `json:"by_group"`
}
