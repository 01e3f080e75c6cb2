package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abhiroy829429/AI-Proctoring-System/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	reportSummarySheet = "Summary"
	reportEventsSheet  = "Events"
)

// ReportService renders a session's record and event log as a spreadsheet for
// post-exam review.
type ReportService interface {
	SessionReport(ctx context.Context, sessionID string) (*excelize.File, error)
}

type reportService struct {
	sessions SessionService
	logger   *slog.Logger
}

func NewReportService(sessions SessionService, logger *slog.Logger) ReportService {
	return &reportService{
		sessions: sessions,
		logger:   logger,
	}
}

func (s *reportService) SessionReport(ctx context.Context, sessionID string) (*excelize.File, error) {
	detail, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	file := excelize.NewFile()
	if err := file.SetSheetName(file.GetSheetName(0), reportSummarySheet); err != nil {
		return nil, fmt.Errorf("failed to prepare report: %w", err)
	}

	if err := s.writeSummary(file, detail); err != nil {
		return nil, err
	}
	if err := s.writeEvents(file, detail.Events); err != nil {
		return nil, err
	}

	s.logger.Info("Generated session report",
		"session_id", sessionID,
		"event_count", len(detail.Events))

	return file, nil
}

func (s *reportService) writeSummary(file *excelize.File, detail *SessionDetail) error {
	session := detail.Session

	rows := [][]interface{}{
		{"Session ID", session.SessionID},
		{"Candidate", session.CandidateName},
		{"Exam", session.ExamID},
		{"Status", string(session.Status)},
		{"Started", session.StartTime.Format(time.RFC3339)},
		{"Ended", formatOptionalTime(session.EndTime)},
		{"Duration (s)", formatOptionalInt(session.Duration)},
		{"Events logged", len(detail.Events)},
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
		if err := file.SetSheetRow(reportSummarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
	}

	return nil
}

func (s *reportService) writeEvents(file *excelize.File, events []*models.Event) error {
	if _, err := file.NewSheet(reportEventsSheet); err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}

	header := []interface{}{"ID", "Type", "Timestamp", "Severity", "Source", "Details"}
	if err := file.SetSheetRow(reportEventsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}

	for i, event := range events {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
		row := []interface{}{
			event.ID,
			string(event.Type),
			event.Timestamp.Format(time.RFC3339),
			string(event.Severity),
			string(event.Source),
			fmt.Sprintf("%v", map[string]interface{}(event.Details)),
		}
		if err := file.SetSheetRow(reportEventsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
	}

	return nil
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatOptionalInt(v *int) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
