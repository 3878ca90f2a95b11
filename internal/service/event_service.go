package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/campuslink/campuslink-api/internal/dto"
	"github.com/campuslink/campuslink-api/internal/models"
	appErrors "github.com/campuslink/campuslink-api/pkg/errors"
	"github.com/campuslink/campuslink-api/pkg/jobs"
)

type eventRepository interface {
	Create(ctx context.Context, e *models.Event) error
	FindByID(ctx context.Context, id string) (*models.Event, error)
	Update(ctx context.Context, e *models.Event) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
	ListPending(ctx context.Context) ([]models.Event, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type eventUserLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type imageStore interface {
	Delete(path string) error
}

type imageSigner interface {
	Generate(resourceID, relPath string) (string, time.Time, error)
}

// EventConfig tunes event behaviour.
type EventConfig struct {
	ViewDedupWindow time.Duration
	NotifyCreator   bool
	ImageURLPrefix  string
}

// EventService provides the event lifecycle: submission, the approval
// workflow, views, attendance, and the admin feedback thread.
type EventService struct {
	repo      eventRepository
	users     eventUserLookup
	images    imageStore
	signer    imageSigner
	mail      mailQueue
	validator *validator.Validate
	logger    *zap.Logger
	config    EventConfig
}

// NewEventService constructs an EventService. Users, images, signer, and mail
// are optional collaborators; missing ones disable the matching side effects.
func NewEventService(repo eventRepository, users eventUserLookup, images imageStore, signer imageSigner, mail mailQueue, validate *validator.Validate, logger *zap.Logger, config EventConfig) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.ViewDedupWindow <= 0 {
		config.ViewDedupWindow = time.Hour
	}
	if config.ImageURLPrefix == "" {
		config.ImageURLPrefix = "/api/v1/events"
	}
	return &EventService{repo: repo, users: users, images: images, signer: signer, mail: mail, validator: validate, logger: logger, config: config}
}

// Create submits a new event. Every event enters the workflow pending, even
// when an admin submits it.
func (s *EventService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateEventRequest) (*dto.EventView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	if !req.StartDateTime.After(time.Now()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "event must start in the future")
	}
	if !req.EndDateTime.After(req.StartDateTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}
	if req.RegistrationDeadline != nil && !req.RegistrationDeadline.Before(req.StartDateTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "registration deadline must be before the event start")
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	e := &models.Event{
		ID:                   uuid.NewString(),
		Title:                req.Title,
		Description:          req.Description,
		Organizer:            req.Organizer,
		Location:             req.Location,
		StartDateTime:        req.StartDateTime,
		EndDateTime:          req.EndDateTime,
		Category:             req.Category,
		EventType:            models.EventType(req.EventType),
		CreatedBy:            claims.UserID,
		Status:               models.EventStatusPending,
		RegistrationRequired: req.RegistrationRequired,
		RegistrationDeadline: req.RegistrationDeadline,
		MaxAttendees:         req.MaxAttendees,
		Tags:                 pq.StringArray(req.Tags),
		ContactEmail:         req.ContactEmail,
		ContactPhone:         req.ContactPhone,
		IsPublic:             isPublic,
		Attendees:            pq.StringArray{},
		Views:                models.ViewList{},
		AdminFeedback:        models.FeedbackList{},
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}

	view := dto.NewEventView(e, claims.UserID, true, s.imageURL(e))
	return &view, nil
}

// Get returns a single event. Pending and rejected events are visible only
// to their creator and admins.
func (s *EventService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*dto.EventView, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	privileged := s.canManage(claims, e.CreatedBy)
	if !e.IsApproved() && !privileged {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
	}
	view := dto.NewEventView(e, claims.UserID, privileged, s.imageURL(e))
	return &view, nil
}

// List returns events matching the filter. Non-admins see approved events
// only, unless listing their own submissions.
func (s *EventService) List(ctx context.Context, claims *models.JWTClaims, filter models.EventFilter) ([]dto.EventView, *models.Pagination, error) {
	if claims.Role != models.RoleAdmin && filter.CreatedBy != claims.UserID {
		filter.Status = string(models.EventStatusApproved)
	}

	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}

	views := make([]dto.EventView, 0, len(events))
	for i := range events {
		privileged := s.canManage(claims, events[i].CreatedBy)
		views = append(views, dto.NewEventView(&events[i], claims.UserID, privileged, s.imageURL(&events[i])))
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return views, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// ListPending returns the approval queue, oldest submissions first.
func (s *EventService) ListPending(ctx context.Context, claims *models.JWTClaims) ([]dto.EventView, error) {
	events, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending events")
	}
	views := make([]dto.EventView, 0, len(events))
	for i := range events {
		views = append(views, dto.NewEventView(&events[i], claims.UserID, true, s.imageURL(&events[i])))
	}
	return views, nil
}

// Update applies creator or admin edits. Once approved, an event is editable
// by admins only; the is_approved flag itself is honored only for admins.
func (s *EventService) Update(ctx context.Context, claims *models.JWTClaims, id string, req dto.UpdateEventRequest) (*dto.EventView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event update payload")
	}

	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canManage(claims, e.CreatedBy) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the creator or an admin can edit this event")
	}
	if e.IsApproved() && claims.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "approved events can only be edited by an admin")
	}

	if req.Title != nil {
		e.Title = *req.Title
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.Organizer != nil {
		e.Organizer = *req.Organizer
	}
	if req.Location != nil {
		e.Location = *req.Location
	}
	if req.StartDateTime != nil {
		e.StartDateTime = *req.StartDateTime
	}
	if req.EndDateTime != nil {
		e.EndDateTime = *req.EndDateTime
	}
	if !e.EndDateTime.After(e.StartDateTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}
	if req.Category != nil {
		e.Category = *req.Category
	}
	if req.RegistrationRequired != nil {
		e.RegistrationRequired = *req.RegistrationRequired
	}
	if req.RegistrationDeadline != nil {
		e.RegistrationDeadline = req.RegistrationDeadline
	}
	if e.RegistrationDeadline != nil && !e.RegistrationDeadline.Before(e.StartDateTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "registration deadline must be before the event start")
	}
	if req.MaxAttendees != nil {
		e.MaxAttendees = *req.MaxAttendees
	}
	if req.Tags != nil {
		e.Tags = pq.StringArray(req.Tags)
	}
	if req.ContactEmail != nil {
		e.ContactEmail = *req.ContactEmail
	}
	if req.ContactPhone != nil {
		e.ContactPhone = *req.ContactPhone
	}
	if req.IsPublic != nil {
		e.IsPublic = *req.IsPublic
	}
	if req.IsApproved != nil && claims.Role == models.RoleAdmin {
		if *req.IsApproved {
			e.Approve(claims.UserID, time.Now().UTC())
		} else {
			e.ClearApproval()
		}
	}

	if err := s.repo.Update(ctx, e); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}

	view := dto.NewEventView(e, claims.UserID, true, s.imageURL(e))
	return &view, nil
}

// Approve transitions a pending or rejected event to approved and notifies
// the creator. Approving twice is a client error.
func (s *EventService) Approve(ctx context.Context, claims *models.JWTClaims, id string) (*dto.EventView, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !e.Approve(claims.UserID, time.Now().UTC()) {
		return nil, appErrors.Clone(appErrors.ErrAlreadyApproved, "")
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist approval")
	}

	s.notifyCreator(ctx, e, string(models.EventStatusApproved), "")
	s.audit(ctx, claims.UserID, models.AuditActionEventApprove, e.ID)

	view := dto.NewEventView(e, claims.UserID, true, s.imageURL(e))
	return &view, nil
}

// Reject transitions a pending or approved event to rejected with a reason
// and notifies the creator. Rejecting twice is a client error.
func (s *EventService) Reject(ctx context.Context, claims *models.JWTClaims, id string, req dto.RejectEventRequest) (*dto.EventView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rejection payload")
	}

	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !e.Reject(claims.UserID, req.Reason, time.Now().UTC()) {
		return nil, appErrors.Clone(appErrors.ErrAlreadyRejected, "")
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist rejection")
	}

	reason := ""
	if e.RejectionReason != nil {
		reason = *e.RejectionReason
	}
	s.notifyCreator(ctx, e, string(models.EventStatusRejected), reason)
	s.audit(ctx, claims.UserID, models.AuditActionEventReject, e.ID)

	view := dto.NewEventView(e, claims.UserID, true, s.imageURL(e))
	return &view, nil
}

// RecordView counts a view unless the caller already viewed inside the dedup
// window. Deduplicated calls succeed without counting.
func (s *EventService) RecordView(ctx context.Context, claims *models.JWTClaims, id string, req dto.RecordViewRequest) (*dto.ViewResult, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	counted := e.RecordView(claims.UserID, req.Platform, time.Now().UTC(), s.config.ViewDedupWindow)
	if counted {
		if err := s.repo.Update(ctx, e); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist view")
		}
	}
	return &dto.ViewResult{Counted: counted, ViewCount: e.ViewCount}, nil
}

// SendFeedback appends an admin note to the event's feedback thread,
// independent of the approval decision.
func (s *EventService) SendFeedback(ctx context.Context, claims *models.JWTClaims, id string, req dto.EventFeedbackRequest) (*models.EventFeedback, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload")
	}

	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	entry := e.AddFeedback(req.Message, claims.UserID, time.Now().UTC())
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist feedback")
	}
	return &entry, nil
}

// MarkFeedbackRead flags one feedback entry as read; event creator only.
func (s *EventService) MarkFeedbackRead(ctx context.Context, claims *models.JWTClaims, id, feedbackID string) error {
	e, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if e.CreatedBy != claims.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the event creator can read feedback")
	}
	if !e.MarkFeedbackRead(feedbackID) {
		return appErrors.Clone(appErrors.ErrNotFound, "feedback entry not found")
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist feedback state")
	}
	return nil
}

// Register adds the caller to the attendee list of an approved event.
func (s *EventService) Register(ctx context.Context, claims *models.JWTClaims, id string) (*dto.AttendanceResult, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !e.IsApproved() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "event is not open for registration")
	}
	if e.RegistrationDeadline != nil && time.Now().UTC().After(*e.RegistrationDeadline) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "registration deadline has passed")
	}
	if e.IsAttending(claims.UserID) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "already registered for this event")
	}
	if e.MaxAttendees > 0 && len(e.Attendees) >= e.MaxAttendees {
		return nil, appErrors.Clone(appErrors.ErrConflict, "event is full")
	}

	e.Attendees = append(e.Attendees, claims.UserID)
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist registration")
	}
	return &dto.AttendanceResult{IsAttending: true, AttendeeCount: len(e.Attendees)}, nil
}

// Unregister removes the caller from the attendee list.
func (s *EventService) Unregister(ctx context.Context, claims *models.JWTClaims, id string) (*dto.AttendanceResult, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !e.IsAttending(claims.UserID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "not registered for this event")
	}

	attendees := make(pq.StringArray, 0, len(e.Attendees)-1)
	for _, uid := range e.Attendees {
		if uid != claims.UserID {
			attendees = append(attendees, uid)
		}
	}
	e.Attendees = attendees
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist unregistration")
	}
	return &dto.AttendanceResult{IsAttending: false, AttendeeCount: len(e.Attendees)}, nil
}

// AttachImage stores an uploaded image path on the event, releasing any
// previous image; creator or admin only.
func (s *EventService) AttachImage(ctx context.Context, claims *models.JWTClaims, id, path string) error {
	e, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !s.canManage(claims, e.CreatedBy) {
		return appErrors.Clone(appErrors.ErrForbidden, "only the creator or an admin can change the event image")
	}

	old := e.ImagePath
	e.ImagePath = &path
	if err := s.repo.Update(ctx, e); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist event image")
	}
	s.releaseImage(old)
	return nil
}

// Delete permanently removes an event and its image; creator or admin only.
func (s *EventService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	e, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !s.canManage(claims, e.CreatedBy) {
		return appErrors.Clone(appErrors.ErrForbidden, "only the creator or an admin can delete this event")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}

	s.releaseImage(e.ImagePath)
	s.audit(ctx, claims.UserID, models.AuditActionEventDelete, id)
	return nil
}

func (s *EventService) load(ctx context.Context, id string) (*models.Event, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return e, nil
}

func (s *EventService) canManage(claims *models.JWTClaims, creatorID string) bool {
	return claims.Role == models.RoleAdmin || claims.UserID == creatorID
}

func (s *EventService) notifyCreator(ctx context.Context, e *models.Event, status, reason string) {
	if !s.config.NotifyCreator || s.mail == nil || s.users == nil {
		return
	}
	creator, err := s.users.FindByID(ctx, e.CreatedBy)
	if err != nil {
		s.logger.Warn("failed to load event creator for notification", zap.String("event_id", e.ID), zap.Error(err))
		return
	}
	if err := s.mail.Enqueue(jobs.Job{
		ID:   uuid.NewString(),
		Type: MailJobEventStatus,
		Payload: MailJob{
			Kind:   MailJobEventStatus,
			Email:  creator.Email,
			Name:   creator.FullName,
			Title:  e.Title,
			Status: status,
			Reason: reason,
		},
	}); err != nil {
		s.logger.Warn("failed to enqueue event status mail", zap.Error(err))
	}
}

// imageURL returns a signed, expiring download link for the event image,
// or nil when there is no image or no signer.
func (s *EventService) imageURL(e *models.Event) *string {
	if s.signer == nil || e.ImagePath == nil || *e.ImagePath == "" {
		return nil
	}
	token, _, err := s.signer.Generate(e.ID, *e.ImagePath)
	if err != nil {
		s.logger.Warn("failed to sign event image url", zap.String("event_id", e.ID), zap.Error(err))
		return nil
	}
	url := fmt.Sprintf("%s/%s/image?token=%s", s.config.ImageURLPrefix, e.ID, token)
	return &url
}

func (s *EventService) releaseImage(path *string) {
	if path == nil || *path == "" || s.images == nil {
		return
	}
	if err := s.images.Delete(*path); err != nil {
		s.logger.Warn("failed to delete event image", zap.String("path", *path), zap.Error(err))
	}
}

func (s *EventService) audit(ctx context.Context, actorID, action, resourceID string) {
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "events",
		ResourceID: &resourceID,
	}); err != nil {
		s.logger.Warn("failed to record event audit log", zap.Error(err))
	}
}
