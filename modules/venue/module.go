package venue

import (
	"github.com/labstack/echo/v4"

	"github.com/liyxianren/mmyq/core/config"
	"github.com/liyxianren/mmyq/core/database"
	"github.com/liyxianren/mmyq/core/middleware"
	"github.com/liyxianren/mmyq/core/storage"
	"github.com/liyxianren/mmyq/modules/venue/controller"
	"github.com/liyxianren/mmyq/modules/venue/repository"
	"github.com/liyxianren/mmyq/modules/venue/router"
	"github.com/liyxianren/mmyq/modules/venue/service"
)

// Init initializes the venue module and registers its routes. The returned
// service is shared with the admin module.
func Init(e *echo.Echo, db database.IDatabase, mw *middleware.Middleware, store storage.ObjectStorage, cfg *config.Config) service.VenueServiceInterface {
	repo := repository.NewVenueRepository(db)
	svc := service.NewVenueService(repo, cfg.Venue)
	ctrl := controller.NewVenueController(svc, store, cfg.Upload)
	rtr := router.NewVenueRouter(ctrl)

	rtr.Setup(e, mw)
	return svc
}
