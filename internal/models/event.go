package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// EventStatus is the explicit approval state of an event. Exactly one state
// holds at any instant; the approve/reject transitions clear the other
// side's fields.
type EventStatus string

const (
	EventStatusPending  EventStatus = "PENDING"
	EventStatusApproved EventStatus = "APPROVED"
	EventStatusRejected EventStatus = "REJECTED"
)

// EventType distinguishes university-wide events from club events.
type EventType string

const (
	EventTypeUniversity EventType = "UNIVERSITY"
	EventTypeClub       EventType = "CLUB"
)

// ValidEventType reports whether the type is a known value.
func ValidEventType(t EventType) bool {
	return t == EventTypeUniversity || t == EventTypeClub
}

// EventView records one deduplicated view of an event.
type EventView struct {
	UserID   string    `json:"userId"`
	ViewedAt time.Time `json:"viewedAt"`
	Platform string    `json:"platform"`
}

// ViewList is the JSONB-persisted view log.
type ViewList []EventView

func (v ViewList) Value() (driver.Value, error) {
	if v == nil {
		v = ViewList{}
	}
	return json.Marshal(v)
}

func (v *ViewList) Scan(src interface{}) error {
	return scanJSON(src, v)
}

// EventFeedback is an admin note attached to an event, readable by the
// creator independently of the approval workflow.
type EventFeedback struct {
	ID      string    `json:"id"`
	Message string    `json:"message"`
	SentBy  string    `json:"sentBy"`
	SentAt  time.Time `json:"sentAt"`
	IsRead  bool      `json:"isRead"`
}

// FeedbackList is the JSONB-persisted ordered feedback thread.
type FeedbackList []EventFeedback

func (f FeedbackList) Value() (driver.Value, error) {
	if f == nil {
		f = FeedbackList{}
	}
	return json.Marshal(f)
}

func (f *FeedbackList) Scan(src interface{}) error {
	return scanJSON(src, f)
}

// Event is a university or club event moving through the
// pending/approved/rejected workflow. Views and admin feedback persist as
// JSONB columns on the event row.
type Event struct {
	ID                   string         `db:"id" json:"id"`
	Title                string         `db:"title" json:"title"`
	Description          string         `db:"description" json:"description"`
	Organizer            string         `db:"organizer" json:"organizer"`
	Location             string         `db:"location" json:"location"`
	StartDateTime        time.Time      `db:"start_datetime" json:"start_datetime"`
	EndDateTime          time.Time      `db:"end_datetime" json:"end_datetime"`
	Category             string         `db:"category" json:"category"`
	EventType            EventType      `db:"event_type" json:"event_type"`
	CreatedBy            string         `db:"created_by" json:"created_by"`
	Status               EventStatus    `db:"status" json:"status"`
	ApprovedBy           *string        `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt           *time.Time     `db:"approved_at" json:"approved_at,omitempty"`
	RejectedBy           *string        `db:"rejected_by" json:"rejected_by,omitempty"`
	RejectedAt           *time.Time     `db:"rejected_at" json:"rejected_at,omitempty"`
	RejectionReason      *string        `db:"rejection_reason" json:"rejection_reason,omitempty"`
	RegistrationRequired bool           `db:"registration_required" json:"registration_required"`
	RegistrationDeadline *time.Time     `db:"registration_deadline" json:"registration_deadline,omitempty"`
	MaxAttendees         int            `db:"max_attendees" json:"max_attendees"`
	Tags                 pq.StringArray `db:"tags" json:"tags"`
	ImagePath            *string        `db:"image_path" json:"image_path,omitempty"`
	ContactEmail         string         `db:"contact_email" json:"contact_email"`
	ContactPhone         string         `db:"contact_phone" json:"contact_phone"`
	IsPublic             bool           `db:"is_public" json:"is_public"`
	Attendees            pq.StringArray `db:"attendees" json:"attendees"`
	Views                ViewList       `db:"views" json:"views"`
	ViewCount            int            `db:"view_count" json:"view_count"`
	AdminFeedback        FeedbackList   `db:"admin_feedback" json:"admin_feedback"`
	CreatedAt            time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at" json:"updated_at"`
}

// IsApproved is kept for API compatibility with the dashboard clients.
func (e *Event) IsApproved() bool {
	return e.Status == EventStatusApproved
}

// Approve transitions the event to APPROVED, clearing any rejection fields.
// Returns false when the event is already approved.
func (e *Event) Approve(adminID string, now time.Time) bool {
	if e.Status == EventStatusApproved {
		return false
	}
	e.Status = EventStatusApproved
	e.ApprovedBy = &adminID
	e.ApprovedAt = &now
	e.RejectedBy = nil
	e.RejectedAt = nil
	e.RejectionReason = nil
	return true
}

// Reject transitions the event to REJECTED, clearing any approval fields.
// Returns false when the event is already rejected.
func (e *Event) Reject(adminID, reason string, now time.Time) bool {
	if e.Status == EventStatusRejected {
		return false
	}
	if reason == "" {
		reason = "No reason provided"
	}
	e.Status = EventStatusRejected
	e.RejectedBy = &adminID
	e.RejectedAt = &now
	e.RejectionReason = &reason
	e.ApprovedBy = nil
	e.ApprovedAt = nil
	return true
}

// ClearApproval returns an event to PENDING, used when a creator edit
// explicitly un-approves.
func (e *Event) ClearApproval() {
	e.Status = EventStatusPending
	e.ApprovedBy = nil
	e.ApprovedAt = nil
	e.RejectedBy = nil
	e.RejectedAt = nil
	e.RejectionReason = nil
}

// RecordView appends a view unless the same user viewed within the dedup
// window. The stored count always equals the view log length.
func (e *Event) RecordView(userID, platform string, now time.Time, window time.Duration) bool {
	for _, view := range e.Views {
		if view.UserID == userID && now.Sub(view.ViewedAt) < window {
			return false
		}
	}
	e.Views = append(e.Views, EventView{UserID: userID, ViewedAt: now, Platform: platform})
	e.ViewCount = len(e.Views)
	return true
}

// AddFeedback appends an unread admin note.
func (e *Event) AddFeedback(message, adminID string, now time.Time) EventFeedback {
	entry := EventFeedback{
		ID:      uuid.NewString(),
		Message: message,
		SentBy:  adminID,
		SentAt:  now,
		IsRead:  false,
	}
	e.AdminFeedback = append(e.AdminFeedback, entry)
	return entry
}

// MarkFeedbackRead flags the matching entry; returns false when absent.
func (e *Event) MarkFeedbackRead(feedbackID string) bool {
	for i := range e.AdminFeedback {
		if e.AdminFeedback[i].ID == feedbackID {
			e.AdminFeedback[i].IsRead = true
			return true
		}
	}
	return false
}

// IsAttending reports whether the user is on the attendee list.
func (e *Event) IsAttending(userID string) bool {
	for _, id := range e.Attendees {
		if id == userID {
			return true
		}
	}
	return false
}

// EventFilter captures list query criteria.
type EventFilter struct {
	Status    string
	EventType string
	Category  string
	CreatedBy string
	Upcoming  bool
	Page      int
	PageSize  int
}
