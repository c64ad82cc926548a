package repository

import (
	"context"
	"database/sql"

	"github.com/liyxianren/mmyq/core/database"
	"github.com/liyxianren/mmyq/core/logger"
	"github.com/liyxianren/mmyq/modules/auth/entity"
)

// AdminRepository handles admin account lookups.
type AdminRepository struct {
	DB database.IDatabase
}

func NewAdminRepository(db database.IDatabase) *AdminRepository {
	return &AdminRepository{DB: db}
}

type AdminRepositoryInterface interface {
	FindAdminByUsername(ctx context.Context, username string) (*entity.Admin, error)
	FindAdminByID(ctx context.Context, id int64) (*entity.Admin, error)
}

func (r *AdminRepository) FindAdminByUsername(ctx context.Context, username string) (*entity.Admin, error) {
	var admin entity.Admin
	err := r.DB.GetContext(ctx, &admin,
		`SELECT id, username, password_hash, created_at FROM admins WHERE username = $1`, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("AdminRepository:FindAdminByUsername:Error", "error", err)
		return nil, err
	}
	return &admin, nil
}

func (r *AdminRepository) FindAdminByID(ctx context.Context, id int64) (*entity.Admin, error) {
	var admin entity.Admin
	err := r.DB.GetContext(ctx, &admin,
		`SELECT id, username, password_hash, created_at FROM admins WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("AdminRepository:FindAdminByID:Error", "error", err, "id", id)
		return nil, err
	}
	return &admin, nil
}
