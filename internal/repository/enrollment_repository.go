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

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentDetailSelect = `SELECT e.id, e.student_id, e.section_id, e.enrolled_at, e.status,
        s.course_id, c.code AS course_code, c.name AS course_name, c.credits AS course_credits,
        s.number AS section_number, p.label AS period_label, u.full_name AS student_name
        FROM enrollments e
        JOIN sections s ON s.id = e.section_id
        JOIN courses c ON c.id = s.course_id
        JOIN periods p ON p.id = s.period_id
        JOIN students st ON st.id = e.student_id
        JOIN users u ON u.id = st.user_id`

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, section_id, enrolled_at, status FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindDetailByID returns an enrollment with course/section context.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	query := enrollmentDetailSelect + " WHERE e.id = $1"
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsActive checks if the student already holds an active enrollment in
// the section.
func (r *EnrollmentRepository) ExistsActive(ctx context.Context, studentID, sectionID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND section_id = $2 AND status = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, sectionID, models.EnrollmentStatusActive); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active enrollment: %w", err)
	}
	return true, nil
}

// ListActiveByStudent returns the student's active enrollments with
// course/section context, most recent first.
func (r *EnrollmentRepository) ListActiveByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	query := enrollmentDetailSelect + " WHERE e.student_id = $1 AND e.status = $2 ORDER BY e.enrolled_at DESC"
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}

// ListActiveByStudentAndPeriod scopes the student's active enrollments to
// one period; the eligibility engine counts these as committed credits.
func (r *EnrollmentRepository) ListActiveByStudentAndPeriod(ctx context.Context, studentID, periodID string) ([]models.EnrollmentDetail, error) {
	query := enrollmentDetailSelect + " WHERE e.student_id = $1 AND s.period_id = $2 AND e.status = $3 ORDER BY e.enrolled_at ASC"
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID, periodID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list period enrollments: %w", err)
	}
	return enrollments, nil
}

// ListActiveBySection returns active enrollments for one section.
func (r *EnrollmentRepository) ListActiveBySection(ctx context.Context, sectionID string) ([]models.EnrollmentDetail, error) {
	query := enrollmentDetailSelect + " WHERE e.section_id = $1 AND e.status = $2 ORDER BY u.full_name ASC"
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, sectionID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list section enrollments: %w", err)
	}
	return enrollments, nil
}

// CreateWithSemester inserts the enrollment and pins the student's current
// semester in the same transaction, mirroring the fact that committing a
// selection also declares "this is the semester the student now takes".
func (r *EnrollmentRepository) CreateWithSemester(ctx context.Context, enrollment *models.Enrollment, semester int) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusActive
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enroll tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO enrollments (id, student_id, section_id, enrolled_at, status)
        VALUES (:id, :student_id, :section_id, :enrolled_at, :status)`
	if _, err = tx.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}

	if semester > 0 {
		if _, err = tx.ExecContext(ctx, `UPDATE students SET semester = $2, updated_at = $3 WHERE id = $1`,
			enrollment.StudentID, semester, time.Now().UTC()); err != nil {
			return fmt.Errorf("update student semester: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit enroll tx: %w", err)
	}
	return nil
}

// Delete withdraws an enrollment: its grade entries go first, then the
// enrollment row, in one transaction. Transcript records are untouched.
func (r *EnrollmentRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin withdraw tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM grades WHERE enrollment_id = $1`, id); err != nil {
		return fmt.Errorf("delete enrollment grades: %w", err)
	}

	var res sql.Result
	if res, err = tx.ExecContext(ctx, `DELETE FROM enrollments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	affected, affErr := res.RowsAffected()
	if affErr == nil && affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit withdraw tx: %w", err)
	}
	return nil
}
