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

const eventColumns = `id, title, description, organizer, location, start_datetime, end_datetime, category, event_type, created_by, status, approved_by, approved_at, rejected_by, rejected_at, rejection_reason, registration_required, registration_deadline, max_attendees, tags, image_path, contact_email, contact_phone, is_public, attendees, views, view_count, admin_feedback, created_at, updated_at`

// EventRepository provides database access for events. Views, attendees, and
// admin feedback live on the event row.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new instance of EventRepository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event.
func (r *EventRepository) Create(ctx context.Context, e *models.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	if e.Tags == nil {
		e.Tags = pq.StringArray{}
	}
	if e.Attendees == nil {
		e.Attendees = pq.StringArray{}
	}

	const query = `INSERT INTO events (id, title, description, organizer, location, start_datetime, end_datetime, category, event_type, created_by, status, approved_by, approved_at, rejected_by, rejected_at, rejection_reason, registration_required, registration_deadline, max_attendees, tags, image_path, contact_email, contact_phone, is_public, attendees, views, view_count, admin_feedback, created_at, updated_at) VALUES (:id, :title, :description, :organizer, :location, :start_datetime, :end_datetime, :category, :event_type, :created_by, :status, :approved_by, :approved_at, :rejected_by, :rejected_at, :rejection_reason, :registration_required, :registration_deadline, :max_attendees, :tags, :image_path, :contact_email, :contact_phone, :is_public, :attendees, :views, :view_count, :admin_feedback, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, e); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// FindByID returns an event by identifier.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 LIMIT 1`
	var e models.Event
	if err := r.db.GetContext(ctx, &e, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find event by id: %w", err)
	}
	return &e, nil
}

// Update writes the whole mutable state of an event back.
func (r *EventRepository) Update(ctx context.Context, e *models.Event) error {
	e.UpdatedAt = time.Now().UTC()
	const query = `UPDATE events SET title = :title, description = :description, organizer = :organizer, location = :location, start_datetime = :start_datetime, end_datetime = :end_datetime, category = :category, event_type = :event_type, status = :status, approved_by = :approved_by, approved_at = :approved_at, rejected_by = :rejected_by, rejected_at = :rejected_at, rejection_reason = :rejection_reason, registration_required = :registration_required, registration_deadline = :registration_deadline, max_attendees = :max_attendees, tags = :tags, image_path = :image_path, contact_email = :contact_email, contact_phone = :contact_phone, is_public = :is_public, attendees = :attendees, views = :views, view_count = :view_count, admin_feedback = :admin_feedback, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, e); err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

// Delete removes an event row permanently.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM events WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// List returns events matching the filter with total count. Soonest-starting
// events come first.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	baseQuery := `FROM events WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.EventType != "" {
		conditions = append(conditions, fmt.Sprintf("event_type = $%d", len(args)+1))
		args = append(args, filter.EventType)
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.CreatedBy != "" {
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", len(args)+1))
		args = append(args, filter.CreatedBy)
	}
	if filter.Upcoming {
		conditions = append(conditions, fmt.Sprintf("end_datetime >= $%d", len(args)+1))
		args = append(args, time.Now().UTC())
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY start_datetime ASC LIMIT %d OFFSET %d", eventColumns, baseQuery, pageSize, offset)

	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	return events, total, nil
}

// ListPending returns pending events for the approval queue, oldest first.
func (r *EventRepository) ListPending(ctx context.Context) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE status = $1 ORDER BY created_at ASC`
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, models.EventStatusPending); err != nil {
		return nil, fmt.Errorf("list pending events: %w", err)
	}
	return events, nil
}

// CreateAuditLog stores an audit log entry.
func (r *EventRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
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
