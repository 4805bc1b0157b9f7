package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/tutorpulse/reliability-api/internal/models"
	appErrors "github.com/tutorpulse/reliability-api/pkg/errors"
	"github.com/tutorpulse/reliability-api/pkg/export"
)

// Export formats accepted by the risk roster report.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// ExportService renders the high-risk tutor roster for operators.
type ExportService struct {
	tutors TutorDirectory
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewExportService constructs an export service.
func NewExportService(tutors TutorDirectory, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		tutors: tutors,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// RiskRoster renders the high-risk tutors in the requested format and returns
// the payload, a suggested filename, and the content type.
func (s *ExportService) RiskRoster(ctx context.Context, format string) ([]byte, string, string, error) {
	entries, _, err := s.tutors.List(ctx, models.TutorFilter{
		RiskStatus: models.RiskStatusHighRisk,
		SortBy:     "reschedule_rate_30d",
		SortOrder:  "desc",
		Limit:      1000,
	})
	if err != nil {
		return nil, "", "", err
	}

	dataset := export.Dataset{
		Headers: []string{"tutor_id", "name", "reschedule_rate_30d", "total_sessions_30d", "tutor_reschedules_30d", "last_calculated_at"},
		Rows:    make([]map[string]string, 0, len(entries)),
	}
	for _, entry := range entries {
		rate := ""
		if entry.RescheduleRate30d != nil {
			rate = strconv.FormatFloat(*entry.RescheduleRate30d, 'f', 2, 64)
		}
		calculated := ""
		if entry.LastCalculatedAt != nil {
			calculated = entry.LastCalculatedAt.UTC().Format(time.RFC3339)
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"tutor_id":              entry.Tutor.ID,
			"name":                  entry.Tutor.Name,
			"reschedule_rate_30d":   rate,
			"total_sessions_30d":    strconv.Itoa(entry.TotalSessions30d),
			"tutor_reschedules_30d": strconv.Itoa(entry.TutorReschedules30d),
			"last_calculated_at":    calculated,
		})
	}

	stamp := time.Now().UTC().Format("20060102")
	switch format {
	case ExportFormatCSV, "":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", "", fmt.Errorf("render risk roster csv: %w", err)
		}
		return payload, fmt.Sprintf("risk-roster-%s.csv", stamp), "text/csv", nil
	case ExportFormatPDF:
		payload, err := s.pdf.Render(dataset, "High-Risk Tutor Roster")
		if err != nil {
			return nil, "", "", fmt.Errorf("render risk roster pdf: %w", err)
		}
		return payload, fmt.Sprintf("risk-roster-%s.pdf", stamp), "application/pdf", nil
	default:
		return nil, "", "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("format must be csv or pdf; got %q", format))
	}
}
