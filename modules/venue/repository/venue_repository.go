package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/liyxianren/mmyq/core/database"
	"github.com/liyxianren/mmyq/core/logger"
	"github.com/liyxianren/mmyq/modules/venue/entity"
)

// ConflictError reports that a requested (number, slot, date) is already held
// by another active booking.
type ConflictError struct {
	VenueNumber          int
	TimeSlot             string
	VenueDate            time.Time
	OccupantRegistration string
	OccupantGroup        string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("venue %d is already occupied for slot %s on %s",
		e.VenueNumber, e.TimeSlot, e.VenueDate.Format(entity.DateFormat))
}

// MigrateResult carries the pre-migration state of the moved booking.
type MigrateResult struct {
	Before          entity.VenueInfo
	NewSubmissionID int64
}

// VenueRepository handles submission and booking database operations.
type VenueRepository struct {
	DB database.IDatabase
}

func NewVenueRepository(db database.IDatabase) *VenueRepository {
	return &VenueRepository{DB: db}
}

// VenueRepositoryInterface defines the repository contract.
type VenueRepositoryInterface interface {
	OccupiedNumbers(ctx context.Context, date time.Time, timeSlot string) ([]int, error)
	CreateSubmission(ctx context.Context, sub *entity.VenueSubmission, venues []entity.Venue) (*entity.VenueSubmission, error)
	GetSubmissionByID(ctx context.Context, id int64) (*entity.VenueSubmission, error)
	GetSubmissionsByUser(ctx context.Context, userID int64) ([]entity.VenueSubmission, error)
	GetAllActive(ctx context.Context, date *time.Time) ([]entity.VenueSubmission, error)
	GetPendingSubmissions(ctx context.Context) ([]entity.VenueSubmission, error)
	ApproveSubmission(ctx context.Context, id int64) (bool, error)
	SoftDeleteSubmission(ctx context.Context, id int64) (bool, error)
	DeleteVenue(ctx context.Context, id int64) (bool, error)
	GetVenueInfo(ctx context.Context, venueID int64) (*entity.VenueInfo, error)
	VenuesByDate(ctx context.Context, date time.Time, approvedOnly bool) ([]entity.VenueInfo, error)
	ExchangeList(ctx context.Context, limit int) ([]entity.VenueSubmission, error)
	MigrateVenue(ctx context.Context, venueID int64, newNumber int, newSlot string, newDate time.Time) (*MigrateResult, error)
}

const submissionColumns = `vs.id, vs.user_id, vs.venue_date, vs.registration_name,
	vs.is_free_submission, vs.upload_time, vs.status, vs.approval_status`

// lockSlot serializes writers touching the same (date, slot) pair for the
// duration of the transaction, closing the check-then-insert race.
func lockSlot(ctx context.Context, tx *sqlx.Tx, date time.Time, timeSlot string) error {
	key := date.Format(entity.DateFormat) + "|" + timeSlot
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key)
	return err
}

func occupiedNumbers(ctx context.Context, q database.Queryer, date time.Time, timeSlot string) ([]int, error) {
	query := `
		SELECT v.venue_number
		FROM venues v
		JOIN venue_submissions vs ON v.submission_id = vs.id
		JOIN users u ON vs.user_id = u.id
		WHERE vs.venue_date = $1 AND v.time_slot = $2
		      AND vs.status = 'active' AND u.status = 'approved'
		ORDER BY v.venue_number
	`
	var numbers []int
	err := sqlx.SelectContext(ctx, q, &numbers, query, date, timeSlot)
	if err != nil {
		return nil, err
	}
	return numbers, nil
}

// OccupiedNumbers returns the venue numbers held for a date and slot by
// active submissions of approved users.
func (r *VenueRepository) OccupiedNumbers(ctx context.Context, date time.Time, timeSlot string) ([]int, error) {
	numbers, err := occupiedNumbers(ctx, r.DB.SQLx(), date, timeSlot)
	if err != nil {
		logger.Error("VenueRepository:OccupiedNumbers:Error", "error", err)
		return nil, err
	}
	return numbers, nil
}

// CreateSubmission persists a submission header and its bookings as one
// transaction. Every requested (date, slot) pair is advisory-locked and the
// occupancy re-checked inside the transaction; a losing writer gets a
// *ConflictError instead of a double booking.
func (r *VenueRepository) CreateSubmission(ctx context.Context, sub *entity.VenueSubmission, venues []entity.Venue) (*entity.VenueSubmission, error) {
	tx, err := r.DB.BeginTxx(ctx)
	if err != nil {
		logger.Error("VenueRepository:CreateSubmission:Begin:Error", "error", err)
		return nil, err
	}
	defer tx.Rollback()

	slots := distinctSlots(venues)
	for _, slot := range slots {
		if err := lockSlot(ctx, tx, sub.VenueDate, slot); err != nil {
			logger.Error("VenueRepository:CreateSubmission:Lock:Error", "error", err)
			return nil, err
		}
	}

	for _, slot := range slots {
		occupied, err := occupiedNumbers(ctx, tx, sub.VenueDate, slot)
		if err != nil {
			logger.Error("VenueRepository:CreateSubmission:Occupancy:Error", "error", err)
			return nil, err
		}
		taken := make(map[int]bool, len(occupied))
		for _, n := range occupied {
			taken[n] = true
		}
		for _, v := range venues {
			if v.TimeSlot == slot && taken[v.VenueNumber] {
				return nil, &ConflictError{
					VenueNumber: v.VenueNumber,
					TimeSlot:    slot,
					VenueDate:   sub.VenueDate,
				}
			}
		}
	}

	var created entity.VenueSubmission
	err = tx.GetContext(ctx, &created, `
		INSERT INTO venue_submissions (user_id, venue_date, registration_name, is_free_submission, status, approval_status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, venue_date, registration_name, is_free_submission, upload_time, status, approval_status
	`, sub.UserID, sub.VenueDate, sub.RegistrationName, sub.IsFreeSubmission, sub.Status, sub.ApprovalStatus)
	if err != nil {
		logger.Error("VenueRepository:CreateSubmission:InsertHeader:Error", "error", err)
		return nil, err
	}

	for i := range venues {
		venues[i].SubmissionID = created.ID
		err = tx.GetContext(ctx, &venues[i].ID, `
			INSERT INTO venues (submission_id, venue_number, time_slot, plus_one_name, venue_screenshot)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, created.ID, venues[i].VenueNumber, venues[i].TimeSlot, venues[i].PlusOneName, venues[i].Screenshot)
		if err != nil {
			logger.Error("VenueRepository:CreateSubmission:InsertVenue:Error", "error", err)
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		logger.Error("VenueRepository:CreateSubmission:Commit:Error", "error", err)
		return nil, err
	}

	created.Venues = venues
	return &created, nil
}

func distinctSlots(venues []entity.Venue) []string {
	seen := make(map[string]bool)
	var slots []string
	for _, v := range venues {
		if !seen[v.TimeSlot] {
			seen[v.TimeSlot] = true
			slots = append(slots, v.TimeSlot)
		}
	}
	// stable lock order avoids deadlocks between concurrent submissions
	sort.Strings(slots)
	return slots
}

func (r *VenueRepository) GetSubmissionByID(ctx context.Context, id int64) (*entity.VenueSubmission, error) {
	query := `
		SELECT ` + submissionColumns + `, u.group_name, u.group_type
		FROM venue_submissions vs
		JOIN users u ON vs.user_id = u.id
		WHERE vs.id = $1
	`
	var sub entity.VenueSubmission
	err := r.DB.GetContext(ctx, &sub, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("VenueRepository:GetSubmissionByID:Error", "error", err, "id", id)
		return nil, err
	}
	if err := r.loadVenues(ctx, []*entity.VenueSubmission{&sub}); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *VenueRepository) GetSubmissionsByUser(ctx context.Context, userID int64) ([]entity.VenueSubmission, error) {
	query := `
		SELECT ` + submissionColumns + `
		FROM venue_submissions vs
		WHERE vs.user_id = $1 AND vs.status = 'active'
		ORDER BY vs.venue_date DESC, vs.upload_time DESC
	`
	var subs []entity.VenueSubmission
	if err := r.DB.SelectContext(ctx, &subs, query, userID); err != nil {
		logger.Error("VenueRepository:GetSubmissionsByUser:Error", "error", err, "user_id", userID)
		return nil, err
	}
	if err := r.loadVenuesSlice(ctx, subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *VenueRepository) GetAllActive(ctx context.Context, date *time.Time) ([]entity.VenueSubmission, error) {
	query := `
		SELECT ` + submissionColumns + `, u.group_name, u.group_type
		FROM venue_submissions vs
		JOIN users u ON vs.user_id = u.id
		WHERE vs.status = 'active' AND u.status = 'approved'
	`
	args := []any{}
	if date != nil {
		query += ` AND vs.venue_date = $1`
		args = append(args, *date)
	}
	query += ` ORDER BY vs.venue_date DESC, vs.upload_time DESC`

	var subs []entity.VenueSubmission
	if err := r.DB.SelectContext(ctx, &subs, query, args...); err != nil {
		logger.Error("VenueRepository:GetAllActive:Error", "error", err)
		return nil, err
	}
	if err := r.loadVenuesSlice(ctx, subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *VenueRepository) GetPendingSubmissions(ctx context.Context) ([]entity.VenueSubmission, error) {
	query := `
		SELECT ` + submissionColumns + `, u.group_name, u.group_type
		FROM venue_submissions vs
		JOIN users u ON vs.user_id = u.id
		WHERE vs.status = 'active' AND vs.approval_status = 'pending' AND u.status = 'approved'
		ORDER BY vs.upload_time ASC
	`
	var subs []entity.VenueSubmission
	if err := r.DB.SelectContext(ctx, &subs, query); err != nil {
		logger.Error("VenueRepository:GetPendingSubmissions:Error", "error", err)
		return nil, err
	}
	if err := r.loadVenuesSlice(ctx, subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *VenueRepository) ApproveSubmission(ctx context.Context, id int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE venue_submissions SET approval_status = 'approved' WHERE id = $1`, id)
	if err != nil {
		logger.Error("VenueRepository:ApproveSubmission:Error", "error", err, "id", id)
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *VenueRepository) SoftDeleteSubmission(ctx context.Context, id int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE venue_submissions SET status = 'deleted' WHERE id = $1 AND status = 'active'`, id)
	if err != nil {
		logger.Error("VenueRepository:SoftDeleteSubmission:Error", "error", err, "id", id)
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *VenueRepository) DeleteVenue(ctx context.Context, id int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM venues WHERE id = $1`, id)
	if err != nil {
		logger.Error("VenueRepository:DeleteVenue:Error", "error", err, "id", id)
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

const venueInfoColumns = `v.id, v.submission_id, v.venue_number, v.time_slot,
	v.plus_one_name, v.venue_screenshot,
	vs.venue_date, vs.registration_name, vs.is_free_submission, vs.upload_time,
	u.id AS user_id, u.group_name, u.group_type`

func (r *VenueRepository) GetVenueInfo(ctx context.Context, venueID int64) (*entity.VenueInfo, error) {
	query := `
		SELECT ` + venueInfoColumns + `
		FROM venues v
		JOIN venue_submissions vs ON v.submission_id = vs.id
		JOIN users u ON vs.user_id = u.id
		WHERE v.id = $1
	`
	var info entity.VenueInfo
	err := r.DB.GetContext(ctx, &info, query, venueID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("VenueRepository:GetVenueInfo:Error", "error", err, "venue_id", venueID)
		return nil, err
	}
	return &info, nil
}

// VenuesByDate lists every booking on a date with submission and owner
// context. With approvedOnly the pending submissions are excluded, which is
// what the public summary uses.
func (r *VenueRepository) VenuesByDate(ctx context.Context, date time.Time, approvedOnly bool) ([]entity.VenueInfo, error) {
	query := `
		SELECT ` + venueInfoColumns + `
		FROM venues v
		JOIN venue_submissions vs ON v.submission_id = vs.id
		JOIN users u ON vs.user_id = u.id
		WHERE vs.venue_date = $1 AND vs.status = 'active' AND u.status = 'approved'
	`
	if approvedOnly {
		query += ` AND vs.approval_status = 'approved'`
	}
	query += ` ORDER BY v.time_slot ASC, v.venue_number ASC`

	var infos []entity.VenueInfo
	if err := r.DB.SelectContext(ctx, &infos, query, date); err != nil {
		logger.Error("VenueRepository:VenuesByDate:Error", "error", err, "date", date)
		return nil, err
	}
	return infos, nil
}

// ExchangeList returns the most recent approved submissions, each with its
// bookings as structured records.
func (r *VenueRepository) ExchangeList(ctx context.Context, limit int) ([]entity.VenueSubmission, error) {
	query := `
		SELECT ` + submissionColumns + `, u.group_name, u.group_type
		FROM venue_submissions vs
		JOIN users u ON vs.user_id = u.id
		WHERE vs.status = 'active' AND vs.approval_status = 'approved'
		ORDER BY vs.venue_date DESC, vs.upload_time DESC
		LIMIT $1
	`
	var subs []entity.VenueSubmission
	if err := r.DB.SelectContext(ctx, &subs, query, limit); err != nil {
		logger.Error("VenueRepository:ExchangeList:Error", "error", err)
		return nil, err
	}
	if err := r.loadVenuesSlice(ctx, subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// MigrateVenue reassigns a booking to a new number, slot and date. The whole
// operation runs in one advisory-locked transaction: the destination is
// conflict-checked, then the booking is updated in place (same date) or
// re-parented to the owner's matching submission on the destination date,
// creating one when none exists. Returns (nil, nil) when the booking is
// unknown.
func (r *VenueRepository) MigrateVenue(ctx context.Context, venueID int64, newNumber int, newSlot string, newDate time.Time) (*MigrateResult, error) {
	tx, err := r.DB.BeginTxx(ctx)
	if err != nil {
		logger.Error("VenueRepository:MigrateVenue:Begin:Error", "error", err)
		return nil, err
	}
	defer tx.Rollback()

	if err := lockSlot(ctx, tx, newDate, newSlot); err != nil {
		logger.Error("VenueRepository:MigrateVenue:Lock:Error", "error", err)
		return nil, err
	}

	var before entity.VenueInfo
	err = tx.GetContext(ctx, &before, `
		SELECT `+venueInfoColumns+`
		FROM venues v
		JOIN venue_submissions vs ON v.submission_id = vs.id
		JOIN users u ON vs.user_id = u.id
		WHERE v.id = $1
		FOR UPDATE OF v
	`, venueID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("VenueRepository:MigrateVenue:Load:Error", "error", err, "venue_id", venueID)
		return nil, err
	}

	// the conflict check runs before any write, so a conflicting migration
	// rolls back with both bookings untouched
	conflict, err := destinationOccupant(ctx, tx, venueID, newNumber, newSlot, newDate)
	if err != nil {
		logger.Error("VenueRepository:MigrateVenue:ConflictCheck:Error", "error", err)
		return nil, err
	}
	if conflict != nil {
		return nil, conflict
	}

	targetID, err := targetSubmission(ctx, tx, &before, newDate)
	if err != nil {
		logger.Error("VenueRepository:MigrateVenue:TargetSubmission:Error", "error", err)
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE venues SET venue_number = $1, time_slot = $2, submission_id = $3 WHERE id = $4
	`, newNumber, newSlot, targetID, venueID)
	if err != nil {
		logger.Error("VenueRepository:MigrateVenue:Move:Error", "error", err)
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		logger.Error("VenueRepository:MigrateVenue:Commit:Error", "error", err)
		return nil, err
	}
	return &MigrateResult{Before: before, NewSubmissionID: targetID}, nil
}

// migrateTx is the slice of sqlx.Tx the migration helpers need.
type migrateTx interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// destinationOccupant reports the active booking already holding the
// destination (number, slot, date), excluding the booking being moved.
// Returns nil when the destination is free.
func destinationOccupant(ctx context.Context, tx migrateTx, venueID int64, newNumber int, newSlot string, newDate time.Time) (*ConflictError, error) {
	var occupant struct {
		ID               int64  `db:"id"`
		RegistrationName string `db:"registration_name"`
		GroupName        string `db:"group_name"`
	}
	err := tx.GetContext(ctx, &occupant, `
		SELECT v.id, vs.registration_name, u.group_name
		FROM venues v
		JOIN venue_submissions vs ON v.submission_id = vs.id
		JOIN users u ON vs.user_id = u.id
		WHERE v.venue_number = $1 AND v.time_slot = $2 AND vs.venue_date = $3
		      AND v.id <> $4 AND vs.status = 'active'
		LIMIT 1
	`, newNumber, newSlot, newDate, venueID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ConflictError{
		VenueNumber:          newNumber,
		TimeSlot:             newSlot,
		VenueDate:            newDate,
		OccupantRegistration: occupant.RegistrationName,
		OccupantGroup:        occupant.GroupName,
	}, nil
}

// targetSubmission resolves the submission the moved booking lands on. A
// same-date move keeps its current submission. A cross-date move re-parents
// to the owner's active submission with the same registration name on the
// destination date; when none exists a new one is created, copying the
// registration name and free flag.
func targetSubmission(ctx context.Context, tx migrateTx, before *entity.VenueInfo, newDate time.Time) (int64, error) {
	if before.VenueDate.Format(entity.DateFormat) == newDate.Format(entity.DateFormat) {
		return before.SubmissionID, nil
	}

	var targetID int64
	err := tx.GetContext(ctx, &targetID, `
		SELECT vs.id
		FROM venue_submissions vs
		WHERE vs.user_id = $1 AND vs.venue_date = $2
		      AND vs.registration_name = $3 AND vs.status = 'active'
		LIMIT 1
	`, before.UserID, newDate, before.RegistrationName)
	if err == sql.ErrNoRows {
		err = tx.GetContext(ctx, &targetID, `
			INSERT INTO venue_submissions (user_id, venue_date, registration_name, is_free_submission, status, approval_status)
			VALUES ($1, $2, $3, $4, 'active', 'approved')
			RETURNING id
		`, before.UserID, newDate, before.RegistrationName, before.IsFreeSubmission)
	}
	if err != nil {
		return 0, err
	}
	return targetID, nil
}

func (r *VenueRepository) loadVenuesSlice(ctx context.Context, subs []entity.VenueSubmission) error {
	ptrs := make([]*entity.VenueSubmission, len(subs))
	for i := range subs {
		ptrs[i] = &subs[i]
	}
	return r.loadVenues(ctx, ptrs)
}

func (r *VenueRepository) loadVenues(ctx context.Context, subs []*entity.VenueSubmission) error {
	if len(subs) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(subs))
	byID := make(map[int64]*entity.VenueSubmission, len(subs))
	for _, s := range subs {
		ids = append(ids, s.ID)
		byID[s.ID] = s
		s.Venues = []entity.Venue{}
	}

	var venues []entity.Venue
	err := r.DB.SelectContext(ctx, &venues, `
		SELECT id, submission_id, venue_number, time_slot, plus_one_name, venue_screenshot
		FROM venues
		WHERE submission_id = ANY($1)
		ORDER BY time_slot ASC, venue_number ASC
	`, pq.Array(ids))
	if err != nil {
		logger.Error("VenueRepository:loadVenues:Error", "error", err)
		return err
	}
	for _, v := range venues {
		if s, ok := byID[v.SubmissionID]; ok {
			s.Venues = append(s.Venues, v)
		}
	}
	return nil
}
