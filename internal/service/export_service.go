package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campuslink/campuslink-api/internal/models"
	appErrors "github.com/campuslink/campuslink-api/pkg/errors"
	"github.com/campuslink/campuslink-api/pkg/export"
)

// ExportFormat selects the attendee roster output format.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult carries the rendered document and its suggested file name.
type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportService renders attendee rosters for event organizers.
type ExportService struct {
	events eventRepository
	users  eventUserLookup
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(events eventRepository, users eventUserLookup, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		events: events,
		users:  users,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// AttendeeRoster renders the attendee list of an event; creator or admin only.
func (s *ExportService) AttendeeRoster(ctx context.Context, claims *models.JWTClaims, eventID string, format ExportFormat) (*ExportResult, error) {
	e, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
	}
	if claims.Role != models.RoleAdmin && claims.UserID != e.CreatedBy {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the creator or an admin can export attendees")
	}

	dataset := export.Dataset{
		Headers: []string{"#", "Name", "Email"},
		Rows:    make([]map[string]string, 0, len(e.Attendees)),
	}
	for i, attendeeID := range e.Attendees {
		row := map[string]string{"#": fmt.Sprintf("%d", i+1), "Name": attendeeID, "Email": ""}
		if s.users != nil {
			if user, err := s.users.FindByID(ctx, attendeeID); err == nil {
				row["Name"] = user.FullName
				row["Email"] = user.Email
			} else {
				s.logger.Warn("attendee lookup failed during export", zap.String("user_id", attendeeID), zap.Error(err))
			}
		}
		dataset.Rows = append(dataset.Rows, row)
	}

	stamp := time.Now().UTC().Format("20060102")
	switch format {
	case ExportFormatPDF:
		data, err := s.pdf.Render(dataset, fmt.Sprintf("Attendees - %s", e.Title))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf roster")
		}
		return &ExportResult{
			FileName:    fmt.Sprintf("attendees-%s-%s.pdf", e.ID, stamp),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	case ExportFormatCSV:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv roster")
		}
		return &ExportResult{
			FileName:    fmt.Sprintf("attendees-%s-%s.csv", e.ID, stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}
