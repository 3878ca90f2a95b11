package handler

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuslink/campuslink-api/internal/middleware"
	"github.com/campuslink/campuslink-api/internal/models"
	"github.com/campuslink/campuslink-api/internal/service"
	"github.com/campuslink/campuslink-api/pkg/storage"
)

type eventRepoStub struct {
	events map[string]*models.Event
}

func newEventRepoStub() *eventRepoStub {
	return &eventRepoStub{events: make(map[string]*models.Event)}
}

func (s *eventRepoStub) Create(ctx context.Context, e *models.Event) error {
	s.events[e.ID] = e
	return nil
}

func (s *eventRepoStub) FindByID(ctx context.Context, id string) (*models.Event, error) {
	e, ok := s.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return e, nil
}

func (s *eventRepoStub) Update(ctx context.Context, e *models.Event) error {
	s.events[e.ID] = e
	return nil
}

func (s *eventRepoStub) Delete(ctx context.Context, id string) error {
	delete(s.events, id)
	return nil
}

func (s *eventRepoStub) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	var out []models.Event
	for _, e := range s.events {
		out = append(out, *e)
	}
	return out, len(out), nil
}

func (s *eventRepoStub) ListPending(ctx context.Context) ([]models.Event, error) {
	return nil, nil
}

func (s *eventRepoStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	return nil
}

func newEventTestHandler(t *testing.T, repo *eventRepoStub) *EventHandler {
	t.Helper()
	svc := service.NewEventService(repo, nil, nil, nil, nil, validator.New(), zap.NewNop(), service.EventConfig{})
	uploads, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	return NewEventHandler(svc, service.NewExportService(repo, nil, zap.NewNop()), uploads, signer)
}

func TestEventHandlerGetHidesPendingFromStrangers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newEventRepoStub()
	repo.events["e1"] = &models.Event{
		ID:            "e1",
		Title:         "Tech Talk",
		CreatedBy:     "creator-1",
		Status:        models.EventStatusPending,
		StartDateTime: time.Now().Add(24 * time.Hour),
		EndDateTime:   time.Now().Add(26 * time.Hour),
	}

	handler := newEventTestHandler(t, repo)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/events/e1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "e1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "stranger", Role: models.RoleStudent, Verified: true})

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestEventHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newEventTestHandler(t, newEventRepoStub())
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/events", bytes.NewReader([]byte(`{`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleClub, Verified: true})

	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEventHandlerRecordViewRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newEventTestHandler(t, newEventRepoStub())
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/events/e1/view", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "e1"}}

	handler.RecordView(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEventHandlerImageRejectsBadToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newEventTestHandler(t, newEventRepoStub())
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/events/e1/image?token=garbage", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "e1"}}

	handler.Image(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
