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

func discussionRows(now time.Time) *sqlmock.Rows {
	comments := []byte(`[{"id":"c1","content":"first","authorId":"u2","authorName":"Other","likes":[],"reports":[],"isReported":false,"isDeleted":false,"replies":[]}]`)
	return sqlmock.NewRows([]string{"id", "title", "content", "author_id", "author_name", "category", "tags", "likes", "comments", "view_count", "is_reported", "reports", "is_deleted", "is_pinned", "is_locked", "created_at", "updated_at"}).
		AddRow("d1", "Exam schedule", "When is it?", "u1", "Author", string(models.CategoryAcademic), "{exams}", []byte(`[]`), comments, 3, false, []byte(`[]`), false, false, false, now, now)
}

func TestFindDiscussionByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDiscussionRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM discussions WHERE id = \\$1 AND is_deleted = FALSE LIMIT 1").
		WithArgs("d1").
		WillReturnRows(discussionRows(now))

	d, err := repo.FindByID(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "Exam schedule", d.Title)
	require.Len(t, d.Comments, 1)
	assert.Equal(t, "c1", d.Comments[0].ID)
	assert.Equal(t, []string{"exams"}, []string(d.Tags))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDiscussion(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDiscussionRepository(db)

	mock.ExpectExec("INSERT INTO discussions").WillReturnResult(sqlmock.NewResult(1, 1))

	d := &models.Discussion{
		Title:      "Lost keycard",
		Content:    "Seen near the library",
		AuthorID:   "u1",
		AuthorName: "Author",
		Category:   models.CategoryGeneral,
		Likes:      models.LikeList{},
		Comments:   models.CommentList{},
		Reports:    models.ReportList{},
	}
	err := repo.Create(context.Background(), d)
	require.NoError(t, err)
	assert.NotEmpty(t, d.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateDiscussionPersistsTree(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDiscussionRepository(db)

	mock.ExpectExec("UPDATE discussions SET").WillReturnResult(sqlmock.NewResult(0, 1))

	now := time.Now()
	d := &models.Discussion{ID: "d1", Title: "t", Content: "c", Category: models.CategoryGeneral}
	d.AddComment("reply", "u2", "Other", nil, now)
	err := repo.Update(context.Background(), d)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementDiscussionViews(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDiscussionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE discussions SET view_count = view_count + 1 WHERE id = $1")).
		WithArgs("d1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.IncrementViews(context.Background(), "d1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListDiscussionsFiltersByCategory(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDiscussionRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM discussions WHERE is_deleted = FALSE AND category = \\$1 ORDER BY is_pinned DESC, created_at DESC LIMIT 20 OFFSET 0").
		WithArgs(string(models.CategoryAcademic)).
		WillReturnRows(discussionRows(now))

	countRows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM discussions WHERE is_deleted = FALSE AND category = \\$1").
		WithArgs(string(models.CategoryAcademic)).
		WillReturnRows(countRows)

	discussions, total, err := repo.List(context.Background(), models.DiscussionFilter{Category: string(models.CategoryAcademic)})
	require.NoError(t, err)
	assert.Len(t, discussions, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
