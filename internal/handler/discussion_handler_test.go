package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuslink/campuslink-api/internal/dto"
	"github.com/campuslink/campuslink-api/internal/middleware"
	"github.com/campuslink/campuslink-api/internal/models"
	"github.com/campuslink/campuslink-api/internal/service"
)

type discussionRepoStub struct {
	discussions map[string]*models.Discussion
}

func newDiscussionRepoStub() *discussionRepoStub {
	return &discussionRepoStub{discussions: make(map[string]*models.Discussion)}
}

func (s *discussionRepoStub) Create(ctx context.Context, d *models.Discussion) error {
	if d.ID == "" {
		d.ID = "d-new"
	}
	s.discussions[d.ID] = d
	return nil
}

func (s *discussionRepoStub) FindByID(ctx context.Context, id string) (*models.Discussion, error) {
	d, ok := s.discussions[id]
	if !ok || d.IsDeleted {
		return nil, sql.ErrNoRows
	}
	return d, nil
}

func (s *discussionRepoStub) Update(ctx context.Context, d *models.Discussion) error {
	s.discussions[d.ID] = d
	return nil
}

func (s *discussionRepoStub) IncrementViews(ctx context.Context, id string) error {
	if d, ok := s.discussions[id]; ok {
		d.ViewCount++
	}
	return nil
}

func (s *discussionRepoStub) List(ctx context.Context, filter models.DiscussionFilter) ([]models.Discussion, int, error) {
	var out []models.Discussion
	for _, d := range s.discussions {
		if !d.IsDeleted {
			out = append(out, *d)
		}
	}
	return out, len(out), nil
}

func (s *discussionRepoStub) ListReported(ctx context.Context) ([]models.Discussion, error) {
	return nil, nil
}

func (s *discussionRepoStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	return nil
}

func newDiscussionTestHandler(repo *discussionRepoStub) *DiscussionHandler {
	svc := service.NewDiscussionService(repo, nil, validator.New(), zap.NewNop(), service.DiscussionConfig{})
	return NewDiscussionHandler(svc)
}

func TestDiscussionHandlerGetReturnsCommentTree(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newDiscussionRepoStub()
	d := &models.Discussion{
		ID:         "d1",
		Title:      "Library hours",
		Content:    "Are they changing?",
		AuthorID:   "author-1",
		AuthorName: "Author",
		Category:   models.CategoryGeneral,
		Likes:      models.LikeList{},
		Comments:   models.CommentList{},
		Reports:    models.ReportList{},
	}
	root := d.AddComment("Top comment", "u1", "User One", nil, time.Now())
	d.AddComment("Nested reply", "u2", "User Two", &root.ID, time.Now())
	repo.discussions[d.ID] = d

	handler := newDiscussionTestHandler(repo)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/discussions/d1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "d1"}}

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Top comment")
	assert.Contains(t, w.Body.String(), "Nested reply")
}

func TestDiscussionHandlerAddCommentRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newDiscussionTestHandler(newDiscussionRepoStub())
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.AddCommentRequest{Content: "hi"})
	req, _ := http.NewRequest(http.MethodPost, "/discussions/d1/comments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "d1"}}

	handler.AddComment(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDiscussionHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newDiscussionTestHandler(newDiscussionRepoStub())
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/discussions", bytes.NewReader([]byte(`not json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleStudent, Verified: true})

	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDiscussionHandlerModerateRejectsUnknownAction(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newDiscussionTestHandler(newDiscussionRepoStub())
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.ModerateDiscussionRequest{Action: "promote"})
	req, _ := http.NewRequest(http.MethodPut, "/discussions/d1/moderate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "d1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin, Verified: true})

	handler.Moderate(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
