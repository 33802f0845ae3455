package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/siga-dev/siga-api/internal/models"
	appErrors "github.com/siga-dev/siga-api/pkg/errors"
	"github.com/siga-dev/siga-api/pkg/export"
)

type transcriptLister interface {
	ByStudent(ctx context.Context, studentID string) ([]models.TranscriptEntry, error)
}

type studentGetter interface {
	GetByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

type sectionRosterReader interface {
	GetByID(ctx context.Context, id string) (*models.SectionDetail, error)
}

type rosterReader interface {
	ListActiveBySection(ctx context.Context, sectionID string) ([]models.EnrollmentDetail, error)
}

// ReportFormat selects the export encoding.
type ReportFormat string

const (
	FormatPDF ReportFormat = "pdf"
	FormatCSV ReportFormat = "csv"
)

// Report is a rendered export with its download metadata.
type Report struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReportService renders transcript and roster exports as PDF or CSV.
type ReportService struct {
	transcripts transcriptLister
	students    studentGetter
	sections    sectionRosterReader
	enrollments rosterReader
	logger      *zap.Logger
}

// NewReportService constructs ReportService.
func NewReportService(transcripts transcriptLister, students studentGetter, sections sectionRosterReader,
	enrollments rosterReader, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		transcripts: transcripts,
		students:    students,
		sections:    sections,
		enrollments: enrollments,
		logger:      logger,
	}
}

// Transcript renders the student's academic record.
func (s *ReportService) Transcript(ctx context.Context, studentID string, format ReportFormat) (*Report, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	entries, err := s.transcripts.ByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, len(entries))
	for i, entry := range entries {
		final := "-"
		if entry.FinalGrade != nil {
			final = strconv.FormatFloat(*entry.FinalGrade, 'f', 2, 64)
		}
		rows[i] = []string{
			entry.PeriodLabel,
			entry.CourseCode,
			entry.CourseName,
			strconv.Itoa(entry.CourseCredits),
			final,
			string(entry.Outcome),
		}
	}
	table := export.Table{
		Title:   fmt.Sprintf("Academic Record - %s (%s)", student.FullName, student.Document),
		Columns: []string{"Period", "Code", "Course", "Credits", "Final Grade", "Outcome"},
		Rows:    rows,
	}
	return s.render(table, fmt.Sprintf("transcript_%s", student.Document), format)
}

// SectionRoster renders the active-enrollment list of a section.
func (s *ReportService) SectionRoster(ctx context.Context, sectionID string, format ReportFormat) (*Report, error) {
	section, err := s.sections.GetByID(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	roster, err := s.enrollments.ListActiveBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	rows := make([][]string, len(roster))
	for i, enrollment := range roster {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			enrollment.StudentName,
			enrollment.EnrolledAt.Format("2006-01-02"),
		}
	}
	table := export.Table{
		Title:   fmt.Sprintf("Roster %s %s - %s", section.CourseCode, section.DisplayName(), section.PeriodLabel),
		Columns: []string{"#", "Student", "Enrolled At"},
		Rows:    rows,
	}
	filename := fmt.Sprintf("roster_%s_%s_%s", section.CourseCode, section.DisplayName(), section.PeriodLabel)
	return s.render(table, filename, format)
}

func (s *ReportService) render(table export.Table, filename string, format ReportFormat) (*Report, error) {
	switch format {
	case FormatCSV:
		data, err := export.CSV(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &Report{Filename: filename + ".csv", ContentType: "text/csv", Data: data}, nil
	case FormatPDF, "":
		data, err := export.PDF(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &Report{Filename: filename + ".pdf", ContentType: "application/pdf", Data: data}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}
}
