package task

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/liyxianren/mmyq/core/logger"
	"github.com/liyxianren/mmyq/modules/cleanup/dto"
	"github.com/liyxianren/mmyq/modules/cleanup/service"
)

// Handler runs the retention cleanup as a background task.
type Handler struct {
	svc service.CleanupServiceInterface
}

func NewHandler(svc service.CleanupServiceInterface) *Handler {
	return &Handler{svc: svc}
}

// HandleCleanupExpired purges bookings past the configured retention window.
func (h *Handler) HandleCleanupExpired(ctx context.Context, t *asynq.Task) error {
	result, appErr := h.svc.Run(ctx, &dto.CleanupRequest{})
	if appErr != nil {
		logger.Error("CleanupTask:HandleCleanupExpired:Error", "error", appErr)
		return appErr
	}
	logger.Info("CleanupTask:HandleCleanupExpired:Done",
		"cutoff", result.Cutoff,
		"submissions", result.SubmissionsRemoved,
		"files", result.FilesRemoved,
	)
	return nil
}
