package controller

import (
	"fmt"
	"mime/multipart"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/liyxianren/mmyq/core/config"
	"github.com/liyxianren/mmyq/core/controller"
	"github.com/liyxianren/mmyq/core/errors"
	"github.com/liyxianren/mmyq/core/logger"
	"github.com/liyxianren/mmyq/core/middleware"
	"github.com/liyxianren/mmyq/core/storage"
	"github.com/liyxianren/mmyq/modules/venue/dto"
	"github.com/liyxianren/mmyq/modules/venue/service"
)

// VenueController handles the user-facing venue HTTP requests.
type VenueController struct {
	controller.BaseController
	VenueService service.VenueServiceInterface
	Storage      storage.ObjectStorage
	UploadCfg    config.UploadConfig
}

func NewVenueController(svc service.VenueServiceInterface, store storage.ObjectStorage, uploadCfg config.UploadConfig) *VenueController {
	return &VenueController{
		BaseController: controller.NewBaseController(),
		VenueService:   svc,
		Storage:        store,
		UploadCfg:      uploadCfg,
	}
}

// GetAvailability handles GET /venues/availability
// @Summary Venue availability
// @Description Available and occupied venue numbers for a date and time slot
// @Tags Venue
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param time_slot query string true "Time slot key"
// @Success 200 {object} dto.AvailabilityResponse
// @Failure 400 {object} errors.AppError
// @Router /venues/availability [get]
func (c *VenueController) GetAvailability(ctx echo.Context) error {
	date := ctx.QueryParam("date")
	timeSlot := ctx.QueryParam("time_slot")
	if date == "" || timeSlot == "" {
		return c.BadRequest(errors.ErrInvalidInput, "date and time_slot are required")
	}

	result, appErr := c.VenueService.GetAvailability(ctx.Request().Context(), date, timeSlot)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Success")
}

// GetSummary handles GET /venues/summary
// @Summary Public venue summary
// @Description Approved bookings for a date grouped by time slot
// @Tags Venue
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} dto.SummaryResponse
// @Router /venues/summary [get]
func (c *VenueController) GetSummary(ctx echo.Context) error {
	date := ctx.QueryParam("date")
	if date == "" {
		return c.BadRequest(errors.ErrInvalidInput, "date is required")
	}

	result, appErr := c.VenueService.GetSummary(ctx.Request().Context(), date)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Success")
}

// CreateSubmission handles POST /private/submissions
// @Summary Submit venue bookings
// @Description Create a submission with one or more venue bookings (multipart)
// @Tags Venue
// @Security BearerAuth
// @Accept mpfd
// @Produce json
// @Success 200 {object} dto.SubmissionResponse
// @Failure 400 {object} errors.AppError
// @Failure 409 {object} errors.AppError
// @Router /private/submissions [post]
func (c *VenueController) CreateSubmission(ctx echo.Context) error {
	claims, ok := middleware.ClaimsFromContext(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "user not authenticated")
	}

	req, appErr := c.parseSubmissionForm(ctx)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	result, appErr := c.VenueService.CreateSubmission(ctx.Request().Context(), claims.SubjectID, req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Submission created successfully")
}

// parseSubmissionForm reads the indexed multipart fields
// (venues[i][number], venues[i][time_slot], ...) and stores any screenshots,
// so the service only ever sees filename references.
func (c *VenueController) parseSubmissionForm(ctx echo.Context) (*dto.CreateSubmissionRequest, *errors.AppError) {
	req := &dto.CreateSubmissionRequest{
		VenueDate:        ctx.FormValue("venue_date"),
		RegistrationName: ctx.FormValue("registration_name"),
	}

	var files map[string][]*multipart.FileHeader
	if form, err := ctx.MultipartForm(); err == nil && form != nil {
		files = form.File
	}

	for i := 0; ; i++ {
		numberStr := ctx.FormValue(fmt.Sprintf("venues[%d][number]", i))
		if numberStr == "" {
			break
		}
		number, err := strconv.Atoi(numberStr)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "venue number must be numeric", err)
		}

		venue := dto.VenueRequest{
			Number:      number,
			TimeSlot:    ctx.FormValue(fmt.Sprintf("venues[%d][time_slot]", i)),
			PlusOneName: ctx.FormValue(fmt.Sprintf("venues[%d][plus_one_name]", i)),
		}

		if headers := files[fmt.Sprintf("venues[%d][screenshot]", i)]; len(headers) > 0 {
			name, appErr := c.saveScreenshot(ctx, headers[0])
			if appErr != nil {
				return nil, appErr
			}
			venue.Screenshot = name
		}
		req.Venues = append(req.Venues, venue)
	}
	return req, nil
}

func (c *VenueController) saveScreenshot(ctx echo.Context, header *multipart.FileHeader) (string, *errors.AppError) {
	if _, err := storage.ValidateUpload(c.UploadCfg, header.Filename, header.Size); err != nil {
		return "", errors.NewAppError(errors.ErrInvalidInput, err.Error(), err)
	}
	src, err := header.Open()
	if err != nil {
		return "", errors.NewAppError(errors.ErrInternalServer, "failed to read upload", err)
	}
	defer src.Close()

	name, err := c.Storage.Save(ctx.Request().Context(), header.Filename,
		header.Header.Get("Content-Type"), src, header.Size)
	if err != nil {
		logger.Error("VenueController:saveScreenshot:Error", "error", err, "filename", header.Filename)
		return "", errors.NewAppError(errors.ErrInternalServer, "failed to store screenshot", err)
	}
	return name, nil
}

// GetMySubmissions handles GET /private/submissions
// @Summary My submissions
// @Description Active submissions of the authenticated user
// @Tags Venue
// @Security BearerAuth
// @Produce json
// @Success 200 {array} dto.SubmissionResponse
// @Router /private/submissions [get]
func (c *VenueController) GetMySubmissions(ctx echo.Context) error {
	claims, ok := middleware.ClaimsFromContext(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "user not authenticated")
	}

	result, appErr := c.VenueService.GetMySubmissions(ctx.Request().Context(), claims.SubjectID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Success")
}
