package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/liyxianren/mmyq/core/database"
	"github.com/liyxianren/mmyq/core/logger"
	"github.com/liyxianren/mmyq/modules/auth/entity"
)

// UserRepository handles user database operations.
type UserRepository struct {
	DB database.IDatabase
}

func NewUserRepository(db database.IDatabase) *UserRepository {
	return &UserRepository{DB: db}
}

// UserRepositoryInterface defines the repository contract.
type UserRepositoryInterface interface {
	CreateUser(ctx context.Context, user *entity.User) (*entity.User, error)
	FindByGroupName(ctx context.Context, groupName string) (*entity.User, error)
	FindByID(ctx context.Context, id int64) (*entity.User, error)
	ListUsers(ctx context.Context, status *entity.UserStatus) ([]entity.User, error)
	BatchUpdateStatus(ctx context.Context, ids []int64, status entity.UserStatus) ([]int64, error)
	BatchDelete(ctx context.Context, ids []int64) ([]int64, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) (bool, error)
	Stats(ctx context.Context, groups []string) (*entity.UserStats, error)
}

const userColumns = `id, group_type, group_name, password_hash, status, created_at`

func (r *UserRepository) CreateUser(ctx context.Context, user *entity.User) (*entity.User, error) {
	var created entity.User
	err := r.DB.GetContext(ctx, &created, `
		INSERT INTO users (group_type, group_name, password_hash, status)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns+`
	`, user.GroupType, user.GroupName, user.PasswordHash, user.Status)
	if err != nil {
		logger.Error("UserRepository:CreateUser:Error", "error", err, "group_name", user.GroupName)
		return nil, err
	}
	return &created, nil
}

func (r *UserRepository) FindByGroupName(ctx context.Context, groupName string) (*entity.User, error) {
	var user entity.User
	err := r.DB.GetContext(ctx, &user,
		`SELECT `+userColumns+` FROM users WHERE group_name = $1`, groupName)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("UserRepository:FindByGroupName:Error", "error", err)
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	var user entity.User
	err := r.DB.GetContext(ctx, &user,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("UserRepository:FindByID:Error", "error", err, "id", id)
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) ListUsers(ctx context.Context, status *entity.UserStatus) ([]entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	args := []any{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	var users []entity.User
	if err := r.DB.SelectContext(ctx, &users, query, args...); err != nil {
		logger.Error("UserRepository:ListUsers:Error", "error", err)
		return nil, err
	}
	return users, nil
}

// BatchUpdateStatus sets the status for every listed id and returns the ids
// whose row was actually touched, so callers can report per-id outcomes.
func (r *UserRepository) BatchUpdateStatus(ctx context.Context, ids []int64, status entity.UserStatus) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var affected []int64
	err := r.DB.SelectContext(ctx, &affected, `
		UPDATE users SET status = $1 WHERE id = ANY($2) RETURNING id
	`, status, pq.Array(ids))
	if err != nil {
		logger.Error("UserRepository:BatchUpdateStatus:Error", "error", err, "status", status)
		return nil, err
	}
	return affected, nil
}

// BatchDelete removes the listed users permanently; submissions and bookings
// follow through the foreign key cascades.
func (r *UserRepository) BatchDelete(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var affected []int64
	err := r.DB.SelectContext(ctx, &affected, `
		DELETE FROM users WHERE id = ANY($1) RETURNING id
	`, pq.Array(ids))
	if err != nil {
		logger.Error("UserRepository:BatchDelete:Error", "error", err)
		return nil, err
	}
	return affected, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		logger.Error("UserRepository:UpdatePassword:Error", "error", err, "id", id)
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *UserRepository) Stats(ctx context.Context, groups []string) (*entity.UserStats, error) {
	stats := &entity.UserStats{ByGroup: make(map[string]int, len(groups))}

	var rows []struct {
		Status entity.UserStatus `db:"status"`
		Count  int               `db:"count"`
	}
	err := r.DB.SelectContext(ctx, &rows,
		`SELECT status, COUNT(*) AS count FROM users GROUP BY status`)
	if err != nil {
		logger.Error("UserRepository:Stats:Error", "error", err)
		return nil, err
	}
	for _, row := range rows {
		stats.Total += row.Count
		switch row.Status {
		case entity.UserStatusPending:
			stats.Pending = row.Count
		case entity.UserStatusApproved:
			stats.Approved = row.Count
		case entity.UserStatusRejected:
			stats.Rejected = row.Count
		}
	}

	var groupRows []struct {
		GroupType string `db:"group_type"`
		Count     int    `db:"count"`
	}
	err = r.DB.SelectContext(ctx, &groupRows,
		`SELECT group_type, COUNT(*) AS count FROM users GROUP BY group_type`)
	if err != nil {
		logger.Error("UserRepository:Stats:Groups:Error", "error", err)
		return nil, err
	}
	for _, g := range groups {
		stats.ByGroup[g] = 0
	}
	for _, row := range groupRows {
		stats.ByGroup[row.GroupType] = row.Count
	}
	return stats, nil
}
