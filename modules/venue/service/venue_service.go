package service

import (
	"context"
	"fmt"
	"time"

	"github.com/liyxianren/mmyq/core/config"
	"github.com/liyxianren/mmyq/core/errors"
	"github.com/liyxianren/mmyq/core/logger"
	"github.com/liyxianren/mmyq/modules/venue/dto"
	"github.com/liyxianren/mmyq/modules/venue/entity"
	"github.com/liyxianren/mmyq/modules/venue/repository"
)

// VenueService owns venue allocation: occupancy, availability, submission
// creation and admin review, plus migration of single bookings.
type VenueService struct {
	repo repository.VenueRepositoryInterface
	cfg  config.VenueConfig

	// now is swappable so the approval cutoff is testable.
	now func() time.Time
}

// VenueServiceInterface defines the service contract.
type VenueServiceInterface interface {
	GetAvailability(ctx context.Context, dateStr, timeSlot string) (*dto.AvailabilityResponse, *errors.AppError)
	CreateSubmission(ctx context.Context, userID int64, req *dto.CreateSubmissionRequest) (*dto.SubmissionResponse, *errors.AppError)
	GetMySubmissions(ctx context.Context, userID int64) ([]dto.SubmissionResponse, *errors.AppError)
	GetSummary(ctx context.Context, dateStr string) (*dto.SummaryResponse, *errors.AppError)
	GetDateOverview(ctx context.Context, dateStr string) ([]dto.VenueDetailResponse, *errors.AppError)
	GetPendingSubmissions(ctx context.Context) ([]dto.SubmissionResponse, *errors.AppError)
	GetSubmission(ctx context.Context, id int64) (*dto.SubmissionResponse, *errors.AppError)
	GetRecentSubmissions(ctx context.Context, limit int) ([]dto.SubmissionResponse, *errors.AppError)
	ApproveSubmission(ctx context.Context, id int64) *errors.AppError
	DeleteSubmission(ctx context.Context, id int64) *errors.AppError
	DeleteVenue(ctx context.Context, id int64) *errors.AppError
	GetVenueInfo(ctx context.Context, venueID int64) (*dto.VenueDetailResponse, *errors.AppError)
	GetExchangeList(ctx context.Context) ([]dto.SubmissionResponse, *errors.AppError)
	MigrateVenue(ctx context.Context, req *dto.MigrateVenueRequest) (*dto.MigrateVenueResponse, *errors.AppError)
}

func NewVenueService(repo repository.VenueRepositoryInterface, cfg config.VenueConfig) VenueServiceInterface {
	return &VenueService{repo: repo, cfg: cfg, now: time.Now}
}

// newVenueServiceAt is used by tests to pin the clock.
func newVenueServiceAt(repo repository.VenueRepositoryInterface, cfg config.VenueConfig, now func() time.Time) *VenueService {
	return &VenueService{repo: repo, cfg: cfg, now: now}
}

func (s *VenueService) parseDate(dateStr string) (time.Time, *errors.AppError) {
	d, err := time.Parse(entity.DateFormat, dateStr)
	if err != nil {
		return time.Time{}, errors.NewAppError(errors.ErrInvalidInput, "invalid date format, expected YYYY-MM-DD", err)
	}
	return d, nil
}

// GetAvailability returns the occupied venue numbers for a date and slot and
// their complement within [1, max].
func (s *VenueService) GetAvailability(ctx context.Context, dateStr, timeSlot string) (*dto.AvailabilityResponse, *errors.AppError) {
	date, appErr := s.parseDate(dateStr)
	if appErr != nil {
		return nil, appErr
	}
	if !s.cfg.ValidSlot(timeSlot) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "unknown time slot", nil)
	}

	occupied, err := s.repo.OccupiedNumbers(ctx, date, timeSlot)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load occupancy", err)
	}

	taken := make(map[int]bool, len(occupied))
	for _, n := range occupied {
		taken[n] = true
	}
	available := make([]int, 0, s.cfg.MaxNumber)
	for n := 1; n <= s.cfg.MaxNumber; n++ {
		if !taken[n] {
			available = append(available, n)
		}
	}
	if occupied == nil {
		occupied = []int{}
	}
	return &dto.AvailabilityResponse{Available: available, Occupied: occupied}, nil
}

// CreateSubmission validates and persists a submission with its bookings as
// one atomic unit. Conflicts name the offending number and slot.
func (s *VenueService) CreateSubmission(ctx context.Context, userID int64, req *dto.CreateSubmissionRequest) (*dto.SubmissionResponse, *errors.AppError) {
	if req.RegistrationName == "" || req.VenueDate == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "venue date and registration name are required", nil)
	}
	date, appErr := s.parseDate(req.VenueDate)
	if appErr != nil {
		return nil, appErr
	}
	if len(req.Venues) == 0 {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "at least one venue is required", nil)
	}

	venues := make([]entity.Venue, 0, len(req.Venues))
	for _, v := range req.Venues {
		if v.Number < 1 || v.Number > s.cfg.MaxNumber {
			return nil, errors.NewAppError(errors.ErrInvalidInput,
				fmt.Sprintf("venue number must be between 1 and %d", s.cfg.MaxNumber), nil)
		}
		if !s.cfg.ValidSlot(v.TimeSlot) {
			return nil, errors.NewAppError(errors.ErrInvalidInput,
				fmt.Sprintf("unknown time slot %q", v.TimeSlot), nil)
		}
		booking := entity.Venue{VenueNumber: v.Number, TimeSlot: v.TimeSlot}
		if v.PlusOneName != "" {
			name := v.PlusOneName
			booking.PlusOneName = &name
		}
		if v.Screenshot != "" {
			shot := v.Screenshot
			booking.Screenshot = &shot
		}
		venues = append(venues, booking)
	}

	// pre-check occupancy so most conflicts fail fast with a friendly error;
	// the repository re-checks inside the transaction for correctness
	if appErr := s.checkConflicts(ctx, date, venues); appErr != nil {
		return nil, appErr
	}

	sub := &entity.VenueSubmission{
		UserID:           userID,
		VenueDate:        date,
		RegistrationName: req.RegistrationName,
		IsFreeSubmission: len(venues) >= s.cfg.FreeVenueCount,
		Status:           entity.SubmissionStatusActive,
		ApprovalStatus:   s.approvalStatusNow(),
	}

	created, err := s.repo.CreateSubmission(ctx, sub, venues)
	if err != nil {
		if conflict, ok := err.(*repository.ConflictError); ok {
			return nil, s.conflictError(conflict.VenueNumber, conflict.TimeSlot)
		}
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to create submission", err)
	}

	logger.Info("VenueService:CreateSubmission:Done",
		"submission_id", created.ID,
		"user_id", userID,
		"venues", len(venues),
		"is_free", created.IsFreeSubmission,
		"approval_status", created.ApprovalStatus,
	)
	return dto.ToSubmissionResponse(created), nil
}

func (s *VenueService) checkConflicts(ctx context.Context, date time.Time, venues []entity.Venue) *errors.AppError {
	occupiedBySlot := make(map[string]map[int]bool)
	for _, v := range venues {
		taken, ok := occupiedBySlot[v.TimeSlot]
		if !ok {
			numbers, err := s.repo.OccupiedNumbers(ctx, date, v.TimeSlot)
			if err != nil {
				return errors.NewAppError(errors.ErrInternalServer, "failed to load occupancy", err)
			}
			taken = make(map[int]bool, len(numbers))
			for _, n := range numbers {
				taken[n] = true
			}
			occupiedBySlot[v.TimeSlot] = taken
		}
		if taken[v.VenueNumber] {
			return s.conflictError(v.VenueNumber, v.TimeSlot)
		}
		// a submission must not collide with itself either
		taken[v.VenueNumber] = true
	}
	return nil
}

func (s *VenueService) conflictError(number int, slot string) *errors.AppError {
	return errors.NewAppError(errors.ErrConflict,
		fmt.Sprintf("venue %d is already occupied for %s", number, s.cfg.SlotLabel(slot)), nil)
}

// approvalStatusNow applies the cutoff rule: submissions at or after the
// configured hour need admin approval before they appear in summaries.
func (s *VenueService) approvalStatusNow() entity.ApprovalStatus {
	if s.now().Hour() >= s.cfg.ApprovalCutoffHr {
		return entity.ApprovalStatusPending
	}
	return entity.ApprovalStatusApproved
}

func (s *VenueService) GetMySubmissions(ctx context.Context, userID int64) ([]dto.SubmissionResponse, *errors.AppError) {
	subs, err := s.repo.GetSubmissionsByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load submissions", err)
	}
	return toSubmissionResponses(subs), nil
}

// GetSummary groups the approved bookings of a date by configured time slot.
func (s *VenueService) GetSummary(ctx context.Context, dateStr string) (*dto.SummaryResponse, *errors.AppError) {
	date, appErr := s.parseDate(dateStr)
	if appErr != nil {
		return nil, appErr
	}

	infos, err := s.repo.VenuesByDate(ctx, date, true)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load summary", err)
	}

	bySlot := make(map[string][]dto.VenueDetailResponse)
	for i := range infos {
		bySlot[infos[i].TimeSlot] = append(bySlot[infos[i].TimeSlot], dto.ToVenueDetailResponse(&infos[i]))
	}

	resp := &dto.SummaryResponse{Date: dateStr, Slots: make([]dto.SlotSummary, 0, len(s.cfg.TimeSlots))}
	for _, slot := range s.cfg.TimeSlots {
		venues := bySlot[slot.Key]
		if venues == nil {
			venues = []dto.VenueDetailResponse{}
		}
		resp.Slots = append(resp.Slots, dto.SlotSummary{
			Key:    slot.Key,
			Label:  slot.Label,
			Count:  len(venues),
			Venues: venues,
		})
	}
	return resp, nil
}

// GetDateOverview lists every booking of a date, pending ones included.
func (s *VenueService) GetDateOverview(ctx context.Context, dateStr string) ([]dto.VenueDetailResponse, *errors.AppError) {
	date, appErr := s.parseDate(dateStr)
	if appErr != nil {
		return nil, appErr
	}
	infos, err := s.repo.VenuesByDate(ctx, date, false)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load overview", err)
	}
	out := make([]dto.VenueDetailResponse, 0, len(infos))
	for i := range infos {
		out = append(out, dto.ToVenueDetailResponse(&infos[i]))
	}
	return out, nil
}

func (s *VenueService) GetPendingSubmissions(ctx context.Context) ([]dto.SubmissionResponse, *errors.AppError) {
	subs, err := s.repo.GetPendingSubmissions(ctx)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load pending submissions", err)
	}
	return toSubmissionResponses(subs), nil
}

func (s *VenueService) GetSubmission(ctx context.Context, id int64) (*dto.SubmissionResponse, *errors.AppError) {
	sub, err := s.repo.GetSubmissionByID(ctx, id)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load submission", err)
	}
	if sub == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "submission not found", nil)
	}
	return dto.ToSubmissionResponse(sub), nil
}

func (s *VenueService) GetRecentSubmissions(ctx context.Context, limit int) ([]dto.SubmissionResponse, *errors.AppError) {
	subs, err := s.repo.GetAllActive(ctx, nil)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load submissions", err)
	}
	if limit > 0 && len(subs) > limit {
		subs = subs[:limit]
	}
	return toSubmissionResponses(subs), nil
}

func (s *VenueService) ApproveSubmission(ctx context.Context, id int64) *errors.AppError {
	ok, err := s.repo.ApproveSubmission(ctx, id)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to approve submission", err)
	}
	if !ok {
		return errors.NewAppError(errors.ErrNotFound, "submission not found", nil)
	}
	return nil
}

func (s *VenueService) DeleteSubmission(ctx context.Context, id int64) *errors.AppError {
	ok, err := s.repo.SoftDeleteSubmission(ctx, id)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to delete submission", err)
	}
	if !ok {
		return errors.NewAppError(errors.ErrNotFound, "submission not found or already deleted", nil)
	}
	return nil
}

func (s *VenueService) DeleteVenue(ctx context.Context, id int64) *errors.AppError {
	ok, err := s.repo.DeleteVenue(ctx, id)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to delete venue", err)
	}
	if !ok {
		return errors.NewAppError(errors.ErrNotFound, "venue not found", nil)
	}
	return nil
}

func (s *VenueService) GetVenueInfo(ctx context.Context, venueID int64) (*dto.VenueDetailResponse, *errors.AppError) {
	info, err := s.repo.GetVenueInfo(ctx, venueID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load venue", err)
	}
	if info == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "venue not found", nil)
	}
	detail := dto.ToVenueDetailResponse(info)
	return &detail, nil
}

const exchangeListLimit = 50

func (s *VenueService) GetExchangeList(ctx context.Context) ([]dto.SubmissionResponse, *errors.AppError) {
	subs, err := s.repo.ExchangeList(ctx, exchangeListLimit)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load exchange list", err)
	}
	return toSubmissionResponses(subs), nil
}

// MigrateVenue reassigns a booking to a new number, slot and date, refusing
// to displace any other active booking.
func (s *VenueService) MigrateVenue(ctx context.Context, req *dto.MigrateVenueRequest) (*dto.MigrateVenueResponse, *errors.AppError) {
	if req.VenueID == 0 {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "venue_id is required", nil)
	}
	if req.NewVenueNumber < 1 || req.NewVenueNumber > s.cfg.MaxNumber {
		return nil, errors.NewAppError(errors.ErrInvalidInput,
			fmt.Sprintf("venue number must be between 1 and %d", s.cfg.MaxNumber), nil)
	}
	if !s.cfg.ValidSlot(req.NewTimeSlot) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "unknown time slot", nil)
	}
	newDate, appErr := s.parseDate(req.NewVenueDate)
	if appErr != nil {
		return nil, appErr
	}

	result, err := s.repo.MigrateVenue(ctx, req.VenueID, req.NewVenueNumber, req.NewTimeSlot, newDate)
	if err != nil {
		if conflict, ok := err.(*repository.ConflictError); ok {
			return nil, errors.NewAppError(errors.ErrConflict,
				fmt.Sprintf("destination occupied: venue %d at %s on %s is booked by %s (%s)",
					conflict.VenueNumber, s.cfg.SlotLabel(conflict.TimeSlot),
					conflict.VenueDate.Format(entity.DateFormat),
					conflict.OccupantRegistration, conflict.OccupantGroup), nil)
		}
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to migrate venue", err)
	}
	if result == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "venue not found", nil)
	}

	before := result.Before
	from := dto.VenueLocation{
		VenueNumber: before.VenueNumber,
		TimeSlot:    before.TimeSlot,
		SlotLabel:   s.cfg.SlotLabel(before.TimeSlot),
		VenueDate:   before.VenueDate.Format(entity.DateFormat),
	}
	to := dto.VenueLocation{
		VenueNumber: req.NewVenueNumber,
		TimeSlot:    req.NewTimeSlot,
		SlotLabel:   s.cfg.SlotLabel(req.NewTimeSlot),
		VenueDate:   newDate.Format(entity.DateFormat),
	}
	msg := fmt.Sprintf("venue of %s (%s) moved from %d (%s, %s) to %d (%s, %s)",
		before.GroupName, before.RegistrationName,
		from.VenueNumber, from.SlotLabel, from.VenueDate,
		to.VenueNumber, to.SlotLabel, to.VenueDate)

	logger.Info("VenueService:MigrateVenue:Done", "venue_id", req.VenueID, "message", msg)
	return &dto.MigrateVenueResponse{Message: msg, From: from, To: to}, nil
}

func toSubmissionResponses(subs []entity.VenueSubmission) []dto.SubmissionResponse {
	out := make([]dto.SubmissionResponse, 0, len(subs))
	for i := range subs {
		out = append(out, *dto.ToSubmissionResponse(&subs[i]))
	}
	return out
}
