package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/siga-dev/siga-api/internal/models"
)

// TranscriptRepository reads and appends the permanent completed-course
// ledger. Rows are written by period closure (or admin correction) and are
// never updated or deleted here.
type TranscriptRepository struct {
	db *sqlx.DB
}

// NewTranscriptRepository constructs the repository.
func NewTranscriptRepository(db *sqlx.DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

// ListByStudent returns the student's ledger with course context, newest
// period first.
func (r *TranscriptRepository) ListByStudent(ctx context.Context, studentID string) ([]models.TranscriptEntry, error) {
	const query = `SELECT t.id, t.student_id, t.course_id, t.period_label, t.final_grade, t.outcome, t.recorded_at,
        c.code AS course_code, c.name AS course_name, c.credits AS course_credits
        FROM transcript_records t
        JOIN courses c ON c.id = t.course_id
        WHERE t.student_id = $1
        ORDER BY t.period_label DESC, c.code ASC`
	var entries []models.TranscriptEntry
	if err := r.db.SelectContext(ctx, &entries, query, studentID); err != nil {
		return nil, fmt.Errorf("list transcript: %w", err)
	}
	return entries, nil
}

// PassedCourseCodes returns the codes of every course the student has
// passed; the eligibility engine matches requisite tokens against these.
func (r *TranscriptRepository) PassedCourseCodes(ctx context.Context, studentID string) ([]string, error) {
	const query = `SELECT c.code
        FROM transcript_records t
        JOIN courses c ON c.id = t.course_id
        WHERE t.student_id = $1 AND t.outcome = $2`
	var codes []string
	if err := r.db.SelectContext(ctx, &codes, query, studentID, models.OutcomePassed); err != nil {
		return nil, fmt.Errorf("list passed codes: %w", err)
	}
	return codes, nil
}

// HasPassed reports whether the student passed the given course.
func (r *TranscriptRepository) HasPassed(ctx context.Context, studentID, courseID string) (bool, error) {
	const query = `SELECT 1 FROM transcript_records WHERE student_id = $1 AND course_id = $2 AND outcome = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, courseID, models.OutcomePassed); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check passed course: %w", err)
	}
	return true, nil
}

// Create appends one ledger row (administrative correction path; closure
// writes its rows inside the closure transaction).
func (r *TranscriptRepository) Create(ctx context.Context, record *models.TranscriptRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now().UTC()
	}
	const query = `INSERT INTO transcript_records (id, student_id, course_id, period_label, final_grade, outcome, recorded_at)
        VALUES (:id, :student_id, :course_id, :period_label, :final_grade, :outcome, :recorded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create transcript record: %w", err)
	}
	return nil
}
