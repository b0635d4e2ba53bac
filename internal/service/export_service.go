package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/dims-api/internal/dto"
	"github.com/noah-isme/dims-api/internal/models"
	appErrors "github.com/noah-isme/dims-api/pkg/errors"
	"github.com/noah-isme/dims-api/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type receiptSource interface {
	Receipts(ctx context.Context, viewer models.Viewer, id string) (*dto.ReceiptRoster, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders read-receipt rosters for download.
type ExportService struct {
	receipts receiptSource
	csv      datasetRenderer
	pdf      datasetRenderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers use pkg/export defaults.
func NewExportService(receipts receiptSource, logger *zap.Logger, csv, pdf datasetRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{receipts: receipts, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// ExportReceipts renders the receipt roster of id as csv or pdf.
func (s *ExportService) ExportReceipts(ctx context.Context, viewer models.Viewer, id, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	var renderer datasetRenderer
	contentType := ""
	switch format {
	case ExportFormatCSV:
		renderer, contentType = s.csv, "text/csv"
	case ExportFormatPDF:
		renderer, contentType = s.pdf, "application/pdf"
	default:
		return nil, appErrors.WithDetails(appErrors.ErrValidation, "unsupported export format", []string{"format: must be one of csv, pdf"})
	}

	roster, err := s.receipts.Receipts(ctx, viewer, id)
	if err != nil {
		return nil, err
	}

	payload, err := renderer.Render(receiptDataset(roster))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Info("receipts exported", zap.String("viewer_id", viewer.ID), zap.String("circular_id", id), zap.String("format", format))
	return &ExportFile{
		Filename:    fmt.Sprintf("receipts_%s_%s.%s", sanitizeFilename(roster.CircularID), s.now().UTC().Format("20060102_150405"), format),
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

func receiptDataset(roster *dto.ReceiptRoster) export.Dataset {
	rows := make([][]string, 0, len(roster.Receipts))
	for _, r := range roster.Receipts {
		audience := "yes"
		if !r.InAudience {
			audience = "no"
		}
		role := ""
		if r.Role != "" {
			role = r.Role.Label()
		}
		rows = append(rows, []string{r.Name, role, r.Unit, r.Status, audience})
	}
	return export.Dataset{
		Title: "Read receipts: " + roster.Title,
		Summary: []string{
			fmt.Sprintf("Category: %s", roster.Category),
			fmt.Sprintf("Acknowledged: %d of %d recipients", roster.AcknowledgedCount, roster.TotalRecipients),
			fmt.Sprintf("Directory audience: %d", roster.AudienceSize),
		},
		Headers: []string{"Name", "Role", "Unit", "Status", "In audience"},
		Rows:    rows,
	}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
