package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApproveClearsRejectionState(t *testing.T) {
	now := time.Now()
	e := &Event{Status: EventStatusPending}
	require.True(t, e.Reject("admin-1", "incomplete", now))
	require.Equal(t, EventStatusRejected, e.Status)

	require.True(t, e.Approve("admin-2", now))
	assert.Equal(t, EventStatusApproved, e.Status)
	assert.Equal(t, "admin-2", *e.ApprovedBy)
	assert.Nil(t, e.RejectedBy)
	assert.Nil(t, e.RejectedAt)
	assert.Nil(t, e.RejectionReason)
}

func TestApproveTwiceFails(t *testing.T) {
	now := time.Now()
	e := &Event{Status: EventStatusPending}
	require.True(t, e.Approve("admin-1", now))
	assert.False(t, e.Approve("admin-2", now))
	assert.Equal(t, "admin-1", *e.ApprovedBy)
}

func TestRejectTwiceFails(t *testing.T) {
	now := time.Now()
	e := &Event{Status: EventStatusPending}
	require.True(t, e.Reject("admin-1", "spam", now))
	assert.False(t, e.Reject("admin-2", "again", now))
	assert.Equal(t, "spam", *e.RejectionReason)
}

func TestRejectDefaultsReason(t *testing.T) {
	now := time.Now()
	e := &Event{Status: EventStatusPending}
	require.True(t, e.Reject("admin-1", "", now))
	assert.Equal(t, "No reason provided", *e.RejectionReason)
}

func TestRecordViewDeduplicatesWithinWindow(t *testing.T) {
	now := time.Now()
	e := &Event{}

	assert.True(t, e.RecordView("u1", "web", now, time.Hour))
	assert.False(t, e.RecordView("u1", "web", now.Add(30*time.Minute), time.Hour))
	assert.Equal(t, 1, e.ViewCount)

	assert.True(t, e.RecordView("u1", "web", now.Add(61*time.Minute), time.Hour))
	assert.Equal(t, 2, e.ViewCount)

	assert.True(t, e.RecordView("u2", "mobile", now, time.Hour))
	assert.Equal(t, 3, e.ViewCount)
}

func TestFeedbackThread(t *testing.T) {
	now := time.Now()
	e := &Event{}
	entry := e.AddFeedback("please add a venue", "admin-1", now)
	require.Len(t, e.AdminFeedback, 1)
	assert.False(t, e.AdminFeedback[0].IsRead)

	assert.True(t, e.MarkFeedbackRead(entry.ID))
	assert.True(t, e.AdminFeedback[0].IsRead)
	assert.False(t, e.MarkFeedbackRead("missing"))
}

func TestIsAttending(t *testing.T) {
	e := &Event{Attendees: []string{"u1", "u2"}}
	assert.True(t, e.IsAttending("u1"))
	assert.False(t, e.IsAttending("u3"))
}
