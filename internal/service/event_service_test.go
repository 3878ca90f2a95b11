package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuslink/campuslink-api/internal/dto"
	"github.com/campuslink/campuslink-api/internal/models"
	appErrors "github.com/campuslink/campuslink-api/pkg/errors"
)

type mockEventRepo struct {
	events    map[string]*models.Event
	deleted   []string
	auditLogs []*models.AuditLog
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{events: make(map[string]*models.Event)}
}

func (m *mockEventRepo) Create(ctx context.Context, e *models.Event) error {
	m.events[e.ID] = e
	return nil
}

func (m *mockEventRepo) FindByID(ctx context.Context, id string) (*models.Event, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return e, nil
}

func (m *mockEventRepo) Update(ctx context.Context, e *models.Event) error {
	m.events[e.ID] = e
	return nil
}

func (m *mockEventRepo) Delete(ctx context.Context, id string) error {
	delete(m.events, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockEventRepo) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	var out []models.Event
	for _, e := range m.events {
		if filter.Status != "" && string(e.Status) != filter.Status {
			continue
		}
		out = append(out, *e)
	}
	return out, len(out), nil
}

func (m *mockEventRepo) ListPending(ctx context.Context) ([]models.Event, error) {
	var out []models.Event
	for _, e := range m.events {
		if e.Status == models.EventStatusPending {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockEventRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

type mockUserLookup struct {
	users map[string]*models.User
}

func (m *mockUserLookup) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

type mockImageStore struct {
	deleted []string
}

func (m *mockImageStore) Delete(path string) error {
	m.deleted = append(m.deleted, path)
	return nil
}

func clubClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, FullName: "Club", Role: models.RoleClub, Verified: true}
}

func newEventService(repo *mockEventRepo, users *mockUserLookup, images *mockImageStore, mail mailQueue) *EventService {
	var lookup eventUserLookup
	if users != nil {
		lookup = users
	}
	var store imageStore
	if images != nil {
		store = images
	}
	return NewEventService(repo, lookup, store, nil, mail, validator.New(), zap.NewNop(), EventConfig{
		ViewDedupWindow: time.Hour,
		NotifyCreator:   true,
	})
}

func seedEvent(repo *mockEventRepo, status models.EventStatus) *models.Event {
	e := &models.Event{
		ID:            "e1",
		Title:         "Tech Talk",
		Description:   "An evening talk",
		Organizer:     "CS Club",
		Location:      "Hall A",
		StartDateTime: time.Now().Add(24 * time.Hour),
		EndDateTime:   time.Now().Add(26 * time.Hour),
		EventType:     models.EventTypeClub,
		CreatedBy:     "creator-1",
		Status:        status,
		Attendees:     []string{},
		Views:         models.ViewList{},
		AdminFeedback: models.FeedbackList{},
	}
	repo.events[e.ID] = e
	return e
}

func TestEventCreateStartsPending(t *testing.T) {
	repo := newMockEventRepo()
	svc := newEventService(repo, nil, nil, nil)

	start := time.Now().Add(24 * time.Hour)
	view, err := svc.Create(context.Background(), clubClaims("creator-1"), dto.CreateEventRequest{
		Title:         "Hackathon",
		Description:   "48 hours of code",
		Organizer:     "CS Club",
		Location:      "Lab 3",
		StartDateTime: start,
		EndDateTime:   start.Add(48 * time.Hour),
		Category:      "Technology",
		EventType:     "CLUB",
	})
	require.NoError(t, err)
	assert.Equal(t, string(models.EventStatusPending), view.Status)
}

func TestEventCreateRejectsPastStart(t *testing.T) {
	repo := newMockEventRepo()
	svc := newEventService(repo, nil, nil, nil)

	start := time.Now().Add(-time.Hour)
	_, err := svc.Create(context.Background(), clubClaims("creator-1"), dto.CreateEventRequest{
		Title:         "Hackathon",
		Description:   "48 hours of code",
		Organizer:     "CS Club",
		Location:      "Lab 3",
		StartDateTime: start,
		EndDateTime:   start.Add(48 * time.Hour),
		Category:      "Technology",
		EventType:     "CLUB",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEventCreateRejectsInvertedDates(t *testing.T) {
	repo := newMockEventRepo()
	svc := newEventService(repo, nil, nil, nil)

	start := time.Now().Add(24 * time.Hour)
	_, err := svc.Create(context.Background(), clubClaims("creator-1"), dto.CreateEventRequest{
		Title:         "Hackathon",
		Description:   "48 hours of code",
		Organizer:     "CS Club",
		Location:      "Lab 3",
		StartDateTime: start,
		EndDateTime:   start.Add(-time.Hour),
		Category:      "Technology",
		EventType:     "CLUB",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEventCreateRejectsLateRegistrationDeadline(t *testing.T) {
	repo := newMockEventRepo()
	svc := newEventService(repo, nil, nil, nil)

	start := time.Now().Add(24 * time.Hour)
	for _, deadline := range []time.Time{start, start.Add(time.Hour)} {
		deadline := deadline
		_, err := svc.Create(context.Background(), clubClaims("creator-1"), dto.CreateEventRequest{
			Title:                "Hackathon",
			Description:          "48 hours of code",
			Organizer:            "CS Club",
			Location:             "Lab 3",
			StartDateTime:        start,
			EndDateTime:          start.Add(48 * time.Hour),
			Category:             "Technology",
			EventType:            "CLUB",
			RegistrationRequired: true,
			RegistrationDeadline: &deadline,
		})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestEventUpdateRejectsStartBehindDeadline(t *testing.T) {
	repo := newMockEventRepo()
	e := seedEvent(repo, models.EventStatusPending)
	deadline := e.StartDateTime.Add(-time.Hour)
	e.RegistrationRequired = true
	e.RegistrationDeadline = &deadline
	svc := newEventService(repo, nil, nil, nil)

	earlier := deadline.Add(-30 * time.Minute)
	_, err := svc.Update(context.Background(), clubClaims("creator-1"), "e1", dto.UpdateEventRequest{StartDateTime: &earlier})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEventUpdateRejectsLateDeadline(t *testing.T) {
	repo := newMockEventRepo()
	e := seedEvent(repo, models.EventStatusPending)
	svc := newEventService(repo, nil, nil, nil)

	late := e.StartDateTime.Add(time.Hour)
	_, err := svc.Update(context.Background(), clubClaims("creator-1"), "e1", dto.UpdateEventRequest{RegistrationDeadline: &late})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEventApproveNotifiesCreator(t *testing.T) {
	repo := newMockEventRepo()
	seedEvent(repo, models.EventStatusPending)
	users := &mockUserLookup{users: map[string]*models.User{
		"creator-1": {ID: "creator-1", Email: "club@campus.edu", FullName: "Club"},
	}}
	mail := &mockMailQueue{}
	svc := newEventService(repo, users, nil, mail)

	view, err := svc.Approve(context.Background(), adminClaims("admin-1"), "e1")
	require.NoError(t, err)
	assert.Equal(t, string(models.EventStatusApproved), view.Status)
	require.Len(t, mail.jobs, 1)
	assert.Equal(t, MailJobEventStatus, mail.jobs[0].Type)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionEventApprove, repo.auditLogs[0].Action)
}

func TestEventApproveTwiceConflicts(t *testing.T) {
	repo := newMockEventRepo()
	seedEvent(repo, models.EventStatusApproved)
	svc := newEventService(repo, nil, nil, nil)

	_, err := svc.Approve(context.Background(), adminClaims("admin-1"), "e1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyApproved.Code, appErrors.FromError(err).Code)
}

func TestEventRejectThenApprove(t *testing.T) {
	repo := newMockEventRepo()
	seedEvent(repo, models.EventStatusPending)
	svc := newEventService(repo, nil, nil, nil)

	view, err := svc.Reject(context.Background(), adminClaims("admin-1"), "e1", dto.RejectEventRequest{Reason: "needs a venue"})
	require.NoError(t, err)
	assert.Equal(t, string(models.EventStatusRejected), view.Status)
	require.NotNil(t, view.RejectionReason)
	assert.Equal(t, "needs a venue", *view.RejectionReason)

	view, err = svc.Approve(context.Background(), adminClaims("admin-1"), "e1")
	require.NoError(t, err)
	assert.Equal(t, string(models.EventStatusApproved), view.Status)
	assert.Nil(t, view.RejectionReason)
}

func TestEventRejectTwiceConflicts(t *testing.T) {
	repo := newMockEventRepo()
	seedEvent(repo, models.EventStatusRejected)
	svc := newEventService(repo, nil, nil, nil)

	_, err := svc.Reject(context.Background(), adminClaims("admin-1"), "e1", dto.RejectEventRequest{Reason: "again"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyRejected.Code, appErrors.FromError(err).Code)
}

func TestEventGetHidesPendingFromStrangers(t *testing.T) {
	repo := newMockEventRepo()
	seedEvent(repo, models.EventStatusPending)
	svc := newEventService(repo, nil, nil, nil)

	_, err := svc.Get(context.Background(), studentClaims("stranger", "S"), "e1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	view, err := svc.Get(context.Background(), clubClaims("creator-1"), "e1")
	require.NoError(t, err)
	assert.Equal(t, string(models.EventStatusPending), view.Status)
}

func TestEventRecordViewDedup(t *testing.T) {
	repo := newMockEventRepo()
	seedEvent(repo, models.EventStatusApproved)
	svc := newEventService(repo, nil, nil, nil)

	res, err := svc.RecordView(context.Background(), studentClaims("u1", "One"), "e1", dto.RecordViewRequest{Platform: "web"})
	require.NoError(t, err)
	assert.True(t, res.Counted)
	assert.Equal(t, 1, res.ViewCount)

	res, err = svc.RecordView(context.Background(), studentClaims("u1", "One"), "e1", dto.RecordViewRequest{Platform: "web"})
	require.NoError(t, err)
	assert.False(t, res.Counted)
	assert.Equal(t, 1, res.ViewCount)

	res, err = svc.RecordView(context.Background(), studentClaims("u2", "Two"), "e1", dto.RecordViewRequest{Platform: "mobile"})
	require.NoError(t, err)
	assert.True(t, res.Counted)
	assert.Equal(t, 2, res.ViewCount)
}

func TestEventFeedbackReadableByCreatorOnly(t *testing.T) {
	repo := newMockEventRepo()
	seedEvent(repo, models.EventStatusPending)
	svc := newEventService(repo, nil, nil, nil)

	entry, err := svc.SendFeedback(context.Background(), adminClaims("admin-1"), "e1", dto.EventFeedbackRequest{Message: "add a budget"})
	require.NoError(t, err)
	assert.False(t, entry.IsRead)

	err = svc.MarkFeedbackRead(context.Background(), studentClaims("stranger", "S"), "e1", entry.ID)
	require.Error(t, err)

	require.NoError(t, svc.MarkFeedbackRead(context.Background(), clubClaims("creator-1"), "e1", entry.ID))
	assert.True(t, repo.events["e1"].AdminFeedback[0].IsRead)
}

func TestEventRegisterLifecycle(t *testing.T) {
	repo := newMockEventRepo()
	e := seedEvent(repo, models.EventStatusApproved)
	e.MaxAttendees = 1
	svc := newEventService(repo, nil, nil, nil)

	res, err := svc.Register(context.Background(), studentClaims("u1", "One"), "e1")
	require.NoError(t, err)
	assert.True(t, res.IsAttending)
	assert.Equal(t, 1, res.AttendeeCount)

	_, err = svc.Register(context.Background(), studentClaims("u1", "One"), "e1")
	require.Error(t, err)

	_, err = svc.Register(context.Background(), studentClaims("u2", "Two"), "e1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	res, err = svc.Unregister(context.Background(), studentClaims("u1", "One"), "e1")
	require.NoError(t, err)
	assert.False(t, res.IsAttending)
	assert.Equal(t, 0, res.AttendeeCount)
}

func TestEventUpdateApprovedRequiresAdmin(t *testing.T) {
	repo := newMockEventRepo()
	seedEvent(repo, models.EventStatusApproved)
	svc := newEventService(repo, nil, nil, nil)

	title := "Renamed"
	_, err := svc.Update(context.Background(), clubClaims("creator-1"), "e1", dto.UpdateEventRequest{Title: &title})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	view, err := svc.Update(context.Background(), adminClaims("admin-1"), "e1", dto.UpdateEventRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", view.Title)
}

func TestEventDeleteReleasesImage(t *testing.T) {
	repo := newMockEventRepo()
	e := seedEvent(repo, models.EventStatusApproved)
	img := "events/e1/banner.png"
	e.ImagePath = &img
	images := &mockImageStore{}
	svc := newEventService(repo, nil, images, nil)

	require.NoError(t, svc.Delete(context.Background(), clubClaims("creator-1"), "e1"))
	assert.Equal(t, []string{"e1"}, repo.deleted)
	assert.Equal(t, []string{img}, images.deleted)
}
