package dto

import (
	"time"

	"github.com/campuslink/campuslink-api/internal/models"
)

// CreateEventRequest is the payload for submitting a new event. Events always
// enter the workflow as pending.
type CreateEventRequest struct {
	Title                string     `json:"title" validate:"required,max=200"`
	Description          string     `json:"description" validate:"required"`
	Organizer            string     `json:"organizer" validate:"required,max=200"`
	Location             string     `json:"location" validate:"required,max=200"`
	StartDateTime        time.Time  `json:"start_datetime" validate:"required"`
	EndDateTime          time.Time  `json:"end_datetime" validate:"required"`
	Category             string     `json:"category" validate:"required,max=100"`
	EventType            string     `json:"event_type" validate:"required,oneof=UNIVERSITY CLUB"`
	RegistrationRequired bool       `json:"registration_required"`
	RegistrationDeadline *time.Time `json:"registration_deadline"`
	MaxAttendees         int        `json:"max_attendees" validate:"min=0"`
	Tags                 []string   `json:"tags" validate:"max=10"`
	ContactEmail         string     `json:"contact_email" validate:"omitempty,email"`
	ContactPhone         string     `json:"contact_phone" validate:"omitempty,max=30"`
	IsPublic             *bool      `json:"is_public"`
}

// UpdateEventRequest is a partial edit; nil fields stay untouched.
// IsApproved is honored only for admins: false returns the event to pending,
// true approves in place.
type UpdateEventRequest struct {
	Title                *string    `json:"title" validate:"omitempty,max=200"`
	Description          *string    `json:"description"`
	Organizer            *string    `json:"organizer" validate:"omitempty,max=200"`
	Location             *string    `json:"location" validate:"omitempty,max=200"`
	StartDateTime        *time.Time `json:"start_datetime"`
	EndDateTime          *time.Time `json:"end_datetime"`
	Category             *string    `json:"category" validate:"omitempty,max=100"`
	RegistrationRequired *bool      `json:"registration_required"`
	RegistrationDeadline *time.Time `json:"registration_deadline"`
	MaxAttendees         *int       `json:"max_attendees" validate:"omitempty,min=0"`
	Tags                 []string   `json:"tags" validate:"omitempty,max=10"`
	ContactEmail         *string    `json:"contact_email" validate:"omitempty,email"`
	ContactPhone         *string    `json:"contact_phone" validate:"omitempty,max=30"`
	IsPublic             *bool      `json:"is_public"`
	IsApproved           *bool      `json:"is_approved"`
}

// RejectEventRequest carries the admin's rejection reason.
type RejectEventRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// EventFeedbackRequest is an admin note for the event creator.
type EventFeedbackRequest struct {
	Message string `json:"message" validate:"required,max=1000"`
}

// RecordViewRequest carries the viewing platform tag, if any.
type RecordViewRequest struct {
	Platform string `json:"platform" validate:"omitempty,max=50"`
}

// ViewResult reports whether the view was counted or deduplicated.
type ViewResult struct {
	Counted   bool `json:"counted"`
	ViewCount int  `json:"viewCount"`
}

// AttendanceResult reflects the attendee list after a register/unregister.
type AttendanceResult struct {
	IsAttending   bool `json:"isAttending"`
	AttendeeCount int  `json:"attendeeCount"`
}

// EventView is an event shaped for the requesting user.
type EventView struct {
	ID                   string                 `json:"id"`
	Title                string                 `json:"title"`
	Description          string                 `json:"description"`
	Organizer            string                 `json:"organizer"`
	Location             string                 `json:"location"`
	StartDateTime        time.Time              `json:"start_datetime"`
	EndDateTime          time.Time              `json:"end_datetime"`
	Category             string                 `json:"category"`
	EventType            string                 `json:"event_type"`
	CreatedBy            string                 `json:"created_by"`
	Status               string                 `json:"status"`
	RejectionReason      *string                `json:"rejection_reason,omitempty"`
	RegistrationRequired bool                   `json:"registration_required"`
	RegistrationDeadline *time.Time             `json:"registration_deadline,omitempty"`
	MaxAttendees         int                    `json:"max_attendees"`
	Tags                 []string               `json:"tags"`
	ImageURL             *string                `json:"image_url,omitempty"`
	ContactEmail         string                 `json:"contact_email"`
	ContactPhone         string                 `json:"contact_phone"`
	IsPublic             bool                   `json:"is_public"`
	AttendeeCount        int                    `json:"attendee_count"`
	IsAttending          bool                   `json:"is_attending"`
	ViewCount            int                    `json:"view_count"`
	AdminFeedback        []models.EventFeedback `json:"admin_feedback,omitempty"`
	CreatedAt            time.Time              `json:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at"`
}

// NewEventView shapes an event for the given user. The admin feedback thread
// rides along only for the creator and admins; the rejection reason is shown
// to the same audience.
func NewEventView(e *models.Event, userID string, privileged bool, imageURL *string) EventView {
	view := EventView{
		ID:                   e.ID,
		Title:                e.Title,
		Description:          e.Description,
		Organizer:            e.Organizer,
		Location:             e.Location,
		StartDateTime:        e.StartDateTime,
		EndDateTime:          e.EndDateTime,
		Category:             e.Category,
		EventType:            string(e.EventType),
		CreatedBy:            e.CreatedBy,
		Status:               string(e.Status),
		RegistrationRequired: e.RegistrationRequired,
		RegistrationDeadline: e.RegistrationDeadline,
		MaxAttendees:         e.MaxAttendees,
		Tags:                 e.Tags,
		ImageURL:             imageURL,
		ContactEmail:         e.ContactEmail,
		ContactPhone:         e.ContactPhone,
		IsPublic:             e.IsPublic,
		AttendeeCount:        len(e.Attendees),
		IsAttending:          e.IsAttending(userID),
		ViewCount:            e.ViewCount,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
	if privileged {
		view.RejectionReason = e.RejectionReason
		view.AdminFeedback = e.AdminFeedback
	}
	return view
}
