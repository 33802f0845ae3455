package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/siga-dev/siga-api/internal/models"
)

// ClosureRepository executes the storage side of period closure: the
// archival read and the single transaction that archives, purges and rolls
// the active period forward.
type ClosureRepository struct {
	db *sqlx.DB
}

// NewClosureRepository constructs the repository.
func NewClosureRepository(db *sqlx.DB) *ClosureRepository {
	return &ClosureRepository{db: db}
}

// FinalGrades gathers every active enrollment of the period's active
// sections together with its latest FINAL assessment value. Upserts keep
// one row per slot; ordering by updated_at preserves last-write-wins for
// any legacy duplicates.
func (r *ClosureRepository) FinalGrades(ctx context.Context, periodID string) ([]models.SectionFinal, error) {
	const query = `SELECT e.id AS enrollment_id, e.student_id, s.course_id,
        (SELECT g.value FROM grades g
         WHERE g.enrollment_id = e.id AND g.assessment = $2
         ORDER BY g.updated_at DESC LIMIT 1) AS final_grade
        FROM enrollments e
        JOIN sections s ON s.id = e.section_id
        WHERE s.period_id = $1 AND s.status = $3 AND e.status = $4
        ORDER BY e.id ASC`
	var finals []models.SectionFinal
	if err := r.db.SelectContext(ctx, &finals, query, periodID,
		models.AssessmentFinal, models.SectionStatusActive, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("gather final grades: %w", err)
	}
	return finals, nil
}

// Close archives the period in one transaction: transcript rows are
// inserted, then grades, enrollments and sections of the period are
// deleted in dependency order, the successor period is created when
// missing, and the active flag moves from the closed period to the
// successor. Any failure rolls the whole sequence back.
func (r *ClosureRepository) Close(ctx context.Context, period *models.Period, nextLabel string, records []models.TranscriptRecord) (*models.Period, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin closure tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()

	const recordQuery = `INSERT INTO transcript_records (id, student_id, course_id, period_label, final_grade, outcome, recorded_at)
        VALUES (:id, :student_id, :course_id, :period_label, :final_grade, :outcome, :recorded_at)`
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
		if records[i].RecordedAt.IsZero() {
			records[i].RecordedAt = now
		}
		if _, err = tx.NamedExecContext(ctx, recordQuery, records[i]); err != nil {
			return nil, fmt.Errorf("archive transcript record: %w", err)
		}
	}

	// Dependency order: grades before enrollments before sections.
	if _, err = tx.ExecContext(ctx, `DELETE FROM grades WHERE enrollment_id IN
        (SELECT e.id FROM enrollments e JOIN sections s ON s.id = e.section_id WHERE s.period_id = $1)`, period.ID); err != nil {
		return nil, fmt.Errorf("purge period grades: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM enrollments WHERE section_id IN
        (SELECT id FROM sections WHERE period_id = $1)`, period.ID); err != nil {
		return nil, fmt.Errorf("purge period enrollments: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM sections WHERE period_id = $1`, period.ID); err != nil {
		return nil, fmt.Errorf("purge period sections: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO periods (id, label, is_active, created_at, updated_at)
        VALUES ($1, $2, FALSE, $3, $3) ON CONFLICT (label) DO NOTHING`, uuid.NewString(), nextLabel, now); err != nil {
		return nil, fmt.Errorf("ensure successor period: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `UPDATE periods SET is_active = FALSE, updated_at = $2 WHERE id = $1`, period.ID, now); err != nil {
		return nil, fmt.Errorf("deactivate closed period: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE periods SET is_active = TRUE, updated_at = $2 WHERE label = $1`, nextLabel, now); err != nil {
		return nil, fmt.Errorf("activate successor period: %w", err)
	}

	var next models.Period
	if err = tx.GetContext(ctx, &next, `SELECT id, label, is_active, created_at, updated_at FROM periods WHERE label = $1`, nextLabel); err != nil {
		return nil, fmt.Errorf("load successor period: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit closure tx: %w", err)
	}
	return &next, nil
}
