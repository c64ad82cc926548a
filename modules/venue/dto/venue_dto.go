package dto

import (
	"github.com/liyxianren/mmyq/modules/venue/entity"
)

// VenueRequest is one requested booking inside a submission. Screenshot is a
// storage reference produced by the upload handler, never file bytes.
type VenueRequest struct {
	Number      int    `json:"number" form:"number"`
	TimeSlot    string `json:"time_slot" form:"time_slot"`
	PlusOneName string `json:"plus_one_name" form:"plus_one_name"`
	Screenshot  string `json:"screenshot"`
}

type CreateSubmissionRequest struct {
	VenueDate        string         `json:"venue_date" form:"venue_date"`
	RegistrationName string         `json:"registration_name" form:"registration_name"`
	Venues           []VenueRequest `json:"venues"`
}

type VenueResponse struct {
	ID          int64  `json:"id"`
	VenueNumber int    `json:"venue_number"`
	TimeSlot    string `json:"time_slot"`
	PlusOneName string `json:"plus_one_name,omitempty"`
	Screenshot  string `json:"screenshot,omitempty"`
}

type SubmissionResponse struct {
	ID               int64           `json:"id"`
	UserID           int64           `json:"user_id"`
	VenueDate        string          `json:"venue_date"`
	RegistrationName string          `json:"registration_name"`
	IsFreeSubmission bool            `json:"is_free_submission"`
	UploadTime       string          `json:"upload_time"`
	Status           string          `json:"status"`
	ApprovalStatus   string          `json:"approval_status"`
	GroupName        string          `json:"group_name,omitempty"`
	GroupType        string          `json:"group_type,omitempty"`
	Venues           []VenueResponse `json:"venues"`
}

type AvailabilityResponse struct {
	Available []int `json:"available"`
	Occupied  []int `json:"occupied"`
}

// VenueDetailResponse is one booking with its submission and owner context,
// used in summaries and admin overviews.
type VenueDetailResponse struct {
	VenueID          int64  `json:"venue_id"`
	SubmissionID     int64  `json:"submission_id"`
	VenueNumber      int    `json:"venue_number"`
	TimeSlot         string `json:"time_slot"`
	PlusOneName      string `json:"plus_one_name,omitempty"`
	Screenshot       string `json:"screenshot,omitempty"`
	VenueDate        string `json:"venue_date"`
	RegistrationName string `json:"registration_name"`
	IsFreeSubmission bool   `json:"is_free_submission"`
	UploadTime       string `json:"upload_time,omitempty"`
	UserID           int64  `json:"user_id"`
	GroupName        string `json:"group_name"`
	GroupType        string `json:"group_type"`
}

type SlotSummary struct {
	Key    string                `json:"key"`
	Label  string                `json:"label"`
	Count  int                   `json:"count"`
	Venues []VenueDetailResponse `json:"venues"`
}

type SummaryResponse struct {
	Date  string        `json:"date"`
	Slots []SlotSummary `json:"slots"`
}

type MigrateVenueRequest struct {
	VenueID        int64  `json:"venue_id"`
	NewVenueNumber int    `json:"new_venue_number"`
	NewTimeSlot    string `json:"new_time_slot"`
	NewVenueDate   string `json:"new_venue_date"`
}

type VenueLocation struct {
	VenueNumber int    `json:"venue_number"`
	TimeSlot    string `json:"time_slot"`
	SlotLabel   string `json:"slot_label"`
	VenueDate   string `json:"venue_date"`
}

type MigrateVenueResponse struct {
	Message string        `json:"message"`
	From    VenueLocation `json:"from"`
	To      VenueLocation `json:"to"`
}

func ToVenueResponse(v *entity.Venue) VenueResponse {
	r := VenueResponse{
		ID:          v.ID,
		VenueNumber: v.VenueNumber,
		TimeSlot:    v.TimeSlot,
	}
	if v.PlusOneName != nil {
		r.PlusOneName = *v.PlusOneName
	}
	if v.Screenshot != nil {
		r.Screenshot = *v.Screenshot
	}
	return r
}

func ToSubmissionResponse(s *entity.VenueSubmission) *SubmissionResponse {
	resp := &SubmissionResponse{
		ID:               s.ID,
		UserID:           s.UserID,
		VenueDate:        s.VenueDate.Format(entity.DateFormat),
		RegistrationName: s.RegistrationName,
		IsFreeSubmission: s.IsFreeSubmission,
		UploadTime:       s.UploadTime.Format("2006-01-02 15:04"),
		Status:           string(s.Status),
		ApprovalStatus:   string(s.ApprovalStatus),
		GroupName:        s.GroupName,
		GroupType:        s.GroupType,
		Venues:           make([]VenueResponse, 0, len(s.Venues)),
	}
	for i := range s.Venues {
		resp.Venues = append(resp.Venues, ToVenueResponse(&s.Venues[i]))
	}
	return resp
}

func ToVenueDetailResponse(v *entity.VenueInfo) VenueDetailResponse {
	r := VenueDetailResponse{
		VenueID:          v.ID,
		SubmissionID:     v.SubmissionID,
		VenueNumber:      v.VenueNumber,
		TimeSlot:         v.TimeSlot,
		VenueDate:        v.VenueDate.Format(entity.DateFormat),
		RegistrationName: v.RegistrationName,
		IsFreeSubmission: v.IsFreeSubmission,
		UserID:           v.UserID,
		GroupName:        v.GroupName,
		GroupType:        v.GroupType,
	}
	if !v.UploadTime.IsZero() {
		r.UploadTime = v.UploadTime.Format("2006-01-02 15:04")
	}
	if v.PlusOneName != nil {
		r.PlusOneName = *v.PlusOneName
	}
	if v.Screenshot != nil {
		r.Screenshot = *v.Screenshot
	}
	return r
}
