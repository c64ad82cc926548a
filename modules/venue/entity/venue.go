package entity

import "time"

// SubmissionStatus is the lifecycle state of a submission. Deleted
// submissions stay in the table (soft delete) until retention cleanup.
type SubmissionStatus string

const (
	SubmissionStatusActive  SubmissionStatus = "active"
	SubmissionStatusDeleted SubmissionStatus = "deleted"
)

// ApprovalStatus controls whether a submission appears in public summaries.
// Submissions made after the configured cutoff hour start out pending.
type ApprovalStatus string

const (
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusPending  ApprovalStatus = "pending"
)

// DateFormat is the wire format for venue dates.
const DateFormat = "2006-01-02"

// VenueSubmission groups one user's bookings for a single date under one
// registration name.
type VenueSubmission struct {
	ID               int64            `db:"id" json:"id"`
	UserID           int64            `db:"user_id" json:"user_id"`
	VenueDate        time.Time        `db:"venue_date" json:"venue_date"`
	RegistrationName string           `db:"registration_name" json:"registration_name"`
	IsFreeSubmission bool             `db:"is_free_submission" json:"is_free_submission"`
	UploadTime       time.Time        `db:"upload_time" json:"upload_time"`
	Status           SubmissionStatus `db:"status" json:"status"`
	ApprovalStatus   ApprovalStatus   `db:"approval_status" json:"approval_status"`

	// Joined from users where the query includes the owner.
	GroupName string `db:"group_name" json:"group_name,omitempty"`
	GroupType string `db:"group_type" json:"group_type,omitempty"`

	Venues []Venue `db:"-" json:"venues,omitempty"`
}

// Venue is one (number, time slot) booking inside a submission.
type Venue struct {
	ID           int64   `db:"id" json:"id"`
	SubmissionID int64   `db:"submission_id" json:"submission_id"`
	VenueNumber  int     `db:"venue_number" json:"venue_number"`
	TimeSlot     string  `db:"time_slot" json:"time_slot"`
	PlusOneName  *string `db:"plus_one_name" json:"plus_one_name,omitempty"`
	Screenshot   *string `db:"venue_screenshot" json:"screenshot,omitempty"`
}

// VenueInfo is a booking joined with its submission and owner, used by the
// admin views and by migration.
type VenueInfo struct {
	ID               int64     `db:"id" json:"id"`
	SubmissionID     int64     `db:"submission_id" json:"submission_id"`
	VenueNumber      int       `db:"venue_number" json:"venue_number"`
	TimeSlot         string    `db:"time_slot" json:"time_slot"`
	PlusOneName      *string   `db:"plus_one_name" json:"plus_one_name,omitempty"`
	Screenshot       *string   `db:"venue_screenshot" json:"screenshot,omitempty"`
	VenueDate        time.Time `db:"venue_date" json:"venue_date"`
	RegistrationName string    `db:"registration_name" json:"registration_name"`
	IsFreeSubmission bool      `db:"is_free_submission" json:"is_free_submission"`
	UploadTime       time.Time `db:"upload_time" json:"upload_time"`
	UserID           int64     `db:"user_id" json:"user_id"`
	GroupName        string    `db:"group_name" json:"group_name"`
	GroupType        string    `db:"group_type" json:"group_type"`
}

// VenueCount reports how many bookings a submission carries.
func (s *VenueSubmission) VenueCount() int { return len(s.Venues) }

// IsMultiVenue reports whether the submission groups more than one booking.
func (s *VenueSubmission) IsMultiVenue() bool { return len(s.Venues) > 1 }

// TotalPlusOnes counts bookings carrying a plus-one name.
func (s *VenueSubmission) TotalPlusOnes() int {
	n := 0
	for _, v := range s.Venues {
		if v.PlusOneName != nil && *v.PlusOneName != "" {
			n++
		}
	}
	return n
}
