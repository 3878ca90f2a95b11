package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campuslink/campuslink-api/internal/models"
)

const discussionColumns = `id, title, content, author_id, author_name, category, tags, likes, comments, view_count, is_reported, reports, is_deleted, is_pinned, is_locked, created_at, updated_at`

// DiscussionRepository provides database access for discussions. Each
// discussion row carries its full comment tree, likes, and reports as JSONB,
// so reads and writes stay single-row.
type DiscussionRepository struct {
	db *sqlx.DB
}

// NewDiscussionRepository creates a new instance of DiscussionRepository.
func NewDiscussionRepository(db *sqlx.DB) *DiscussionRepository {
	return &DiscussionRepository{db: db}
}

// Create inserts a new discussion.
func (r *DiscussionRepository) Create(ctx context.Context, d *models.Discussion) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	if d.Tags == nil {
		d.Tags = pq.StringArray{}
	}

	const query = `INSERT INTO discussions (id, title, content, author_id, author_name, category, tags, likes, comments, view_count, is_reported, reports, is_deleted, is_pinned, is_locked, created_at, updated_at) VALUES (:id, :title, :content, :author_id, :author_name, :category, :tags, :likes, :comments, :view_count, :is_reported, :reports, :is_deleted, :is_pinned, :is_locked, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("create discussion: %w", err)
	}
	return nil
}

// FindByID returns a non-deleted discussion with its full comment tree.
func (r *DiscussionRepository) FindByID(ctx context.Context, id string) (*models.Discussion, error) {
	query := `SELECT ` + discussionColumns + ` FROM discussions WHERE id = $1 AND is_deleted = FALSE LIMIT 1`
	var d models.Discussion
	if err := r.db.GetContext(ctx, &d, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find discussion by id: %w", err)
	}
	return &d, nil
}

// Update writes the whole mutable state of a discussion back, comment tree
// included.
func (r *DiscussionRepository) Update(ctx context.Context, d *models.Discussion) error {
	d.UpdatedAt = time.Now().UTC()
	const query = `UPDATE discussions SET title = :title, content = :content, category = :category, tags = :tags, likes = :likes, comments = :comments, is_reported = :is_reported, reports = :reports, is_deleted = :is_deleted, is_pinned = :is_pinned, is_locked = :is_locked, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("update discussion: %w", err)
	}
	return nil
}

// IncrementViews bumps the view counter without rewriting the row.
func (r *DiscussionRepository) IncrementViews(ctx context.Context, id string) error {
	const query = `UPDATE discussions SET view_count = view_count + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("increment discussion views: %w", err)
	}
	return nil
}

// List returns non-deleted discussions matching the filter, pinned first,
// with total count.
func (r *DiscussionRepository) List(ctx context.Context, filter models.DiscussionFilter) ([]models.Discussion, int, error) {
	baseQuery := `FROM discussions WHERE is_deleted = FALSE`
	var conditions []string
	var args []interface{}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Tag != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(tags)", len(args)+1))
		args = append(args, filter.Tag)
	}
	if filter.AuthorID != "" {
		conditions = append(conditions, fmt.Sprintf("author_id = $%d", len(args)+1))
		args = append(args, filter.AuthorID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(content) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY is_pinned DESC, created_at DESC LIMIT %d OFFSET %d", discussionColumns, baseQuery, pageSize, offset)

	var discussions []models.Discussion
	if err := r.db.SelectContext(ctx, &discussions, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list discussions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count discussions: %w", err)
	}

	return discussions, total, nil
}

// ListReported returns discussions flagged by at least one report.
func (r *DiscussionRepository) ListReported(ctx context.Context) ([]models.Discussion, error) {
	query := `SELECT ` + discussionColumns + ` FROM discussions WHERE is_deleted = FALSE AND is_reported = TRUE ORDER BY updated_at DESC`
	var discussions []models.Discussion
	if err := r.db.SelectContext(ctx, &discussions, query); err != nil {
		return nil, fmt.Errorf("list reported discussions: %w", err)
	}
	return discussions, nil
}

// CreateAuditLog stores an audit log entry.
func (r *DiscussionRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, user_id, action, resource, resource_id, old_values, new_values, ip_address, user_agent, created_at) VALUES (:id, :user_id, :action, :resource, :resource_id, :old_values, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}
