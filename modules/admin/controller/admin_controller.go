package controller

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/liyxianren/mmyq/core/controller"
	"github.com/liyxianren/mmyq/core/errors"
	"github.com/liyxianren/mmyq/modules/admin/dto"
	"github.com/liyxianren/mmyq/modules/admin/service"
	cleanupdto "github.com/liyxianren/mmyq/modules/cleanup/dto"
	cleanupservice "github.com/liyxianren/mmyq/modules/cleanup/service"
	venuedto "github.com/liyxianren/mmyq/modules/venue/dto"
	venueservice "github.com/liyxianren/mmyq/modules/venue/service"
)

// AdminController exposes the review surface: account approval, booking
// approval, venue migration and retention cleanup.
type AdminController struct {
	controller.BaseController
	AdminService   service.AdminServiceInterface
	VenueService   venueservice.VenueServiceInterface
	CleanupService cleanupservice.CleanupServiceInterface
}

func NewAdminController(admin service.AdminServiceInterface, venues venueservice.VenueServiceInterface, cleanup cleanupservice.CleanupServiceInterface) *AdminController {
	return &AdminController{
		BaseController: controller.NewBaseController(),
		AdminService:   admin,
		VenueService:   venues,
		CleanupService: cleanup,
	}
}

func (c *AdminController) pathID(ctx echo.Context) (int64, *echo.HTTPError) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, c.BadRequest(errors.ErrInvalidInput, "invalid id")
	}
	return id, nil
}

// ListUsers handles GET /admin/users
// @Summary List accounts, optionally filtered by review status
// @Tags Admin
// @Security BearerAuth
// @Param status query string false "pending|approved|rejected"
// @Success 200 {object} dto.UserListResponse
// @Router /admin/users [get]
func (c *AdminController) ListUsers(ctx echo.Context) error {
	resp, appErr := c.AdminService.ListUsers(ctx.Request().Context(), ctx.QueryParam("status"))
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, resp, "Users retrieved")
}

// BatchUserAction handles POST /admin/users/actions
// @Summary Approve, reject or delete a batch of accounts
// @Tags Admin
// @Security BearerAuth
// @Param request body dto.BatchUserActionRequest true "Action and ids"
// @Success 200 {object} dto.BatchUserActionResponse
// @Router /admin/users/actions [post]
func (c *AdminController) BatchUserAction(ctx echo.Context) error {
	var req dto.BatchUserActionRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}
	resp, appErr := c.AdminService.BatchUserAction(ctx.Request().Context(), &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, resp, "Action applied")
}

// ResetUserPassword handles POST /admin/users/:id/password
// @Summary Reset an account password
// @Tags Admin
// @Security BearerAuth
// @Router /admin/users/{id}/password [post]
func (c *AdminController) ResetUserPassword(ctx echo.Context) error {
	id, httpErr := c.pathID(ctx)
	if httpErr != nil {
		return httpErr
	}
	var req dto.ResetPasswordRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}
	if appErr := c.AdminService.ResetUserPassword(ctx.Request().Context(), id, &req); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Password updated")
}

// Dashboard handles GET /admin/dashboard
// @Summary Review queue counters and recent activity
// @Tags Admin
// @Security BearerAuth
// @Success 200 {object} dto.DashboardResponse
// @Router /admin/dashboard [get]
func (c *AdminController) Dashboard(ctx echo.Context) error {
	resp, appErr := c.AdminService.Dashboard(ctx.Request().Context())
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, resp, "Dashboard retrieved")
}

// PendingSubmissions handles GET /admin/submissions/pending
// @Summary List bookings awaiting approval
// @Tags Admin
// @Security BearerAuth
// @Router /admin/submissions/pending [get]
func (c *AdminController) PendingSubmissions(ctx echo.Context) error {
	resp, appErr := c.VenueService.GetPendingSubmissions(ctx.Request().Context())
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, resp, "Pending submissions retrieved")
}

// GetSubmission handles GET /admin/submissions/:id
// @Summary Fetch one booking with its venues
// @Tags Admin
// @Security BearerAuth
// @Router /admin/submissions/{id} [get]
func (c *AdminController) GetSubmission(ctx echo.Context) error {
	id, httpErr := c.pathID(ctx)
	if httpErr != nil {
		return httpErr
	}
	resp, appErr := c.VenueService.GetSubmission(ctx.Request().Context(), id)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, resp, "Submission retrieved")
}

// ApproveSubmission handles POST /admin/submissions/:id/approve
// @Summary Approve a pending booking
// @Tags Admin
// @Security BearerAuth
// @Router /admin/submissions/{id}/approve [post]
func (c *AdminController) ApproveSubmission(ctx echo.Context) error {
	id, httpErr := c.pathID(ctx)
	if httpErr != nil {
		return httpErr
	}
	if appErr := c.VenueService.ApproveSubmission(ctx.Request().Context(), id); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Submission approved")
}

// DeleteSubmission handles DELETE /admin/submissions/:id
// @Summary Soft delete a booking and free its venues
// @Tags Admin
// @Security BearerAuth
// @Router /admin/submissions/{id} [delete]
func (c *AdminController) DeleteSubmission(ctx echo.Context) error {
	id, httpErr := c.pathID(ctx)
	if httpErr != nil {
		return httpErr
	}
	if appErr := c.VenueService.DeleteSubmission(ctx.Request().Context(), id); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Submission deleted")
}

// VenuesByDate handles GET /admin/venues
// @Summary All bookings for a date, including unapproved ones
// @Tags Admin
// @Security BearerAuth
// @Param date query string true "YYYY-MM-DD"
// @Router /admin/venues [get]
func (c *AdminController) VenuesByDate(ctx echo.Context) error {
	resp, appErr := c.VenueService.GetDateOverview(ctx.Request().Context(), ctx.QueryParam("date"))
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, resp, "Venues retrieved")
}

// ExchangeList handles GET /admin/venues/exchange
// @Summary Recent bookings with owner contact for exchange coordination
// @Tags Admin
// @Security BearerAuth
// @Router /admin/venues/exchange [get]
func (c *AdminController) ExchangeList(ctx echo.Context) error {
	resp, appErr := c.VenueService.GetExchangeList(ctx.Request().Context())
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, resp, "Exchange list retrieved")
}

// GetVenue handles GET /admin/venues/:id
// @Summary One venue booking with its submission and owner
// @Tags Admin
// @Security BearerAuth
// @Router /admin/venues/{id} [get]
func (c *AdminController) GetVenue(ctx echo.Context) error {
	id, httpErr := c.pathID(ctx)
	if httpErr != nil {
		return httpErr
	}
	resp, appErr := c.VenueService.GetVenueInfo(ctx.Request().Context(), id)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, resp, "Venue retrieved")
}

// DeleteVenue handles DELETE /admin/venues/:id
// @Summary Remove a single venue from a booking
// @Tags Admin
// @Security BearerAuth
// @Router /admin/venues/{id} [delete]
func (c *AdminController) DeleteVenue(ctx echo.Context) error {
	id, httpErr := c.pathID(ctx)
	if httpErr != nil {
		return httpErr
	}
	if appErr := c.VenueService.DeleteVenue(ctx.Request().Context(), id); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Venue deleted")
}

// MigrateVenue handles POST /admin/venues/migrate
// @Summary Move a booking to another venue, slot or date
// @Tags Admin
// @Security BearerAuth
// @Param request body venuedto.MigrateVenueRequest true "Migration target"
// @Success 200 {object} venuedto.MigrateVenueResponse
// @Router /admin/venues/migrate [post]
func (c *AdminController) MigrateVenue(ctx echo.Context) error {
	var req venuedto.MigrateVenueRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}
	resp, appErr := c.VenueService.MigrateVenue(ctx.Request().Context(), &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, resp, resp.Message)
}

// RunCleanup handles POST /admin/cleanup
// @Summary Purge bookings past the retention window
// @Tags Admin
// @Security BearerAuth
// @Param request body cleanupdto.CleanupRequest true "Window and dry run flag"
// @Success 200 {object} cleanupdto.CleanupResult
// @Router /admin/cleanup [post]
func (c *AdminController) RunCleanup(ctx echo.Context) error {
	var req cleanupdto.CleanupRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}
	resp, appErr := c.CleanupService.Run(ctx.Request().Context(), &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, resp, "Cleanup finished")
}

// CleanupStats handles GET /admin/cleanup/stats
// @Summary Preview how much data each retention window covers
// @Tags Admin
// @Security BearerAuth
// @Success 200 {object} cleanupdto.CleanupStatsResponse
// @Router /admin/cleanup/stats [get]
func (c *AdminController) CleanupStats(ctx echo.Context) error {
	resp, appErr := c.CleanupService.Stats(ctx.Request().Context())
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, resp, "Cleanup stats retrieved")
}
