package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/liyxianren/mmyq/core/cache"
	"github.com/liyxianren/mmyq/core/config"
	"github.com/liyxianren/mmyq/core/database"
	"github.com/liyxianren/mmyq/core/middleware"
	"github.com/liyxianren/mmyq/modules/auth/controller"
	"github.com/liyxianren/mmyq/modules/auth/repository"
	"github.com/liyxianren/mmyq/modules/auth/router"
	"github.com/liyxianren/mmyq/modules/auth/service"
)

// Init wires the auth module and returns its service so the admin module
// can reuse the user repository for account review.
func Init(e *echo.Echo, db database.IDatabase, mw *middleware.Middleware, tokens cache.TokenCache, cfg config.VenueConfig) service.AuthServiceInterface {
	userRepo := repository.NewUserRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	svc := service.NewAuthService(userRepo, adminRepo, tokens, cfg)
	ctrl := controller.NewAuthController(svc)
	router.RegisterRoutes(e, ctrl, mw)
	return svc
}
