package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslink/campuslink-api/internal/models"
)

func eventRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "description", "organizer", "location", "start_datetime", "end_datetime",
		"category", "event_type", "created_by", "status", "approved_by", "approved_at",
		"rejected_by", "rejected_at", "rejection_reason", "registration_required",
		"registration_deadline", "max_attendees", "tags", "image_path", "contact_email",
		"contact_phone", "is_public", "attendees", "views", "view_count", "admin_feedback",
		"created_at", "updated_at",
	}).AddRow(
		"e1", "Tech Talk", "An evening talk", "CS Club", "Hall A", now, now.Add(2*time.Hour),
		"Technology", string(models.EventTypeClub), "u1", string(models.EventStatusPending), nil, nil,
		nil, nil, nil, false,
		nil, 100, "{tech}", nil, "club@campus.edu",
		"", true, "{}", []byte(`[]`), 0, []byte(`[]`),
		now, now,
	)
}

func TestFindEventByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM events WHERE id = \\$1 LIMIT 1").
		WithArgs("e1").
		WillReturnRows(eventRows(now))

	e, err := repo.FindByID(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "Tech Talk", e.Title)
	assert.Equal(t, models.EventStatusPending, e.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEvent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec("INSERT INTO events").WillReturnResult(sqlmock.NewResult(1, 1))

	e := &models.Event{
		Title:       "Career Fair",
		Description: "Annual fair",
		Organizer:   "Career Center",
		Location:    "Main Hall",
		EventType:   models.EventTypeUniversity,
		CreatedBy:   "u1",
		Status:      models.EventStatusPending,
	}
	err := repo.Create(context.Background(), e)
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEventPersistsWorkflowState(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec("UPDATE events SET").WillReturnResult(sqlmock.NewResult(0, 1))

	now := time.Now()
	e := &models.Event{ID: "e1", Title: "t", Status: models.EventStatusPending}
	require.True(t, e.Approve("admin-1", now))
	err := repo.Update(context.Background(), e)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEvent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM events WHERE id = $1")).
		WithArgs("e1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), "e1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPendingEvents(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM events WHERE status = \\$1 ORDER BY created_at ASC").
		WithArgs(string(models.EventStatusPending)).
		WillReturnRows(eventRows(now))

	events, err := repo.ListPending(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
