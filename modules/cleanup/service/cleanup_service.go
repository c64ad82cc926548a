package service

import (
	"context"
	"time"

	"github.com/liyxianren/mmyq/core/config"
	"github.com/liyxianren/mmyq/core/errors"
	"github.com/liyxianren/mmyq/core/logger"
	"github.com/liyxianren/mmyq/core/storage"
	"github.com/liyxianren/mmyq/modules/cleanup/dto"
	"github.com/liyxianren/mmyq/modules/cleanup/repository"
)

var statsWindows = []int{1, 3, 7, 30}

// CleanupService purges venue bookings past the retention window together
// with their uploaded screenshots.
type CleanupService struct {
	repo  repository.CleanupRepositoryInterface
	store storage.ObjectStorage
	cfg   config.VenueConfig
	now   func() time.Time
}

type CleanupServiceInterface interface {
	Run(ctx context.Context, req *dto.CleanupRequest) (*dto.CleanupResult, *errors.AppError)
	Stats(ctx context.Context) (*dto.CleanupStatsResponse, *errors.AppError)
}

func NewCleanupService(repo repository.CleanupRepositoryInterface, store storage.ObjectStorage, cfg config.VenueConfig) CleanupServiceInterface {
	return &CleanupService{repo: repo, store: store, cfg: cfg, now: time.Now}
}

func newCleanupServiceAt(repo repository.CleanupRepositoryInterface, store storage.ObjectStorage, cfg config.VenueConfig, now func() time.Time) *CleanupService {
	return &CleanupService{repo: repo, store: store, cfg: cfg, now: now}
}

func (s *CleanupService) cutoff(daysOld int) time.Time {
	if daysOld <= 0 {
		daysOld = s.cfg.RetentionDays
	}
	y, m, d := s.now().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return today.AddDate(0, 0, -daysOld)
}

// Run deletes every submission whose booking date is older than the window.
// Screenshot files and database rows are removed independently; a file that
// fails to delete is reported but does not keep the rows alive.
func (s *CleanupService) Run(ctx context.Context, req *dto.CleanupRequest) (*dto.CleanupResult, *errors.AppError) {
	if req == nil {
		req = &dto.CleanupRequest{}
	}
	if req.DaysOld < 0 {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "days_old must not be negative", nil)
	}

	cutoff := s.cutoff(req.DaysOld)
	expired, err := s.repo.ExpiredSubmissions(ctx, cutoff)
	if err != nil {
		logger.Error("CleanupService:Run:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to list expired submissions", err)
	}

	result := &dto.CleanupResult{
		DryRun: req.DryRun,
		Cutoff: cutoff.Format("2006-01-02"),
	}
	ids := make([]int64, 0, len(expired))
	var files []string
	for _, sub := range expired {
		ids = append(ids, sub.ID)
		result.VenuesRemoved += sub.VenueCount
		files = append(files, sub.Screenshots...)
	}
	result.SubmissionsRemoved = len(ids)

	if req.DryRun {
		result.FilesRemoved = len(files)
		return result, nil
	}

	for _, name := range files {
		if err := s.store.Delete(ctx, name); err != nil {
			logger.Warn("CleanupService:Run:FileDeleteFailed", "file", name, "error", err)
			result.FailedFiles = append(result.FailedFiles, name)
			continue
		}
		result.FilesRemoved++
	}

	removed, err := s.repo.DeleteSubmissions(ctx, ids)
	if err != nil {
		logger.Error("CleanupService:Run:DeleteError", "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to delete expired submissions", err)
	}
	result.SubmissionsRemoved = int(removed)

	logger.Info("CleanupService:Run:Done",
		"cutoff", result.Cutoff,
		"submissions", result.SubmissionsRemoved,
		"venues", result.VenuesRemoved,
		"files", result.FilesRemoved,
		"failed_files", len(result.FailedFiles),
	)
	return result, nil
}

// Stats previews how many bookings fall outside each retention window.
func (s *CleanupService) Stats(ctx context.Context) (*dto.CleanupStatsResponse, *errors.AppError) {
	resp := &dto.CleanupStatsResponse{RetentionDays: s.cfg.RetentionDays}
	for _, days := range statsWindows {
		subs, venues, err := s.repo.CountOlderThan(ctx, s.cutoff(days))
		if err != nil {
			logger.Error("CleanupService:Stats:Error", "error", err, "days_old", days)
			return nil, errors.NewAppError(errors.ErrInternalServer, "failed to count expired submissions", err)
		}
		resp.Buckets = append(resp.Buckets, dto.RetentionBucket{
			DaysOld:     days,
			Submissions: subs,
			Venues:      venues,
		})
	}
	return resp, nil
}
