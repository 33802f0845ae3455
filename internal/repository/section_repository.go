package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/siga-dev/siga-api/internal/models"
)

// SectionRepository handles persistence of per-period course offerings.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

const sectionDetailSelect = `SELECT s.id, s.course_id, s.period_id, s.number, s.professor_id, s.room, s.capacity, s.status,
        s.created_at, s.updated_at,
        c.code AS course_code, c.name AS course_name, c.credits AS course_credits,
        p.label AS period_label, pu.full_name AS professor_name,
        (SELECT COUNT(*) FROM enrollments e WHERE e.section_id = s.id AND e.status = 'ACTIVE') AS enrolled_count
        FROM sections s
        JOIN courses c ON c.id = s.course_id
        JOIN periods p ON p.id = s.period_id
        LEFT JOIN professors pr ON pr.id = s.professor_id
        LEFT JOIN users pu ON pu.id = pr.user_id`

// List returns section details filtered by the provided criteria.
func (r *SectionRepository) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("s.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.PeriodID != "" {
		conditions = append(conditions, fmt.Sprintf("s.period_id = $%d", len(args)+1))
		args = append(args, filter.PeriodID)
	}
	if filter.ProfessorID != "" {
		conditions = append(conditions, fmt.Sprintf("s.professor_id = $%d", len(args)+1))
		args = append(args, filter.ProfessorID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("%s%s ORDER BY c.code ASC, s.number ASC LIMIT %d OFFSET %d", sectionDetailSelect, clause, size, offset)

	var sections []models.SectionDetail
	if err := r.db.SelectContext(ctx, &sections, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sections: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM sections s" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sections: %w", err)
	}
	return sections, total, nil
}

// FindByID returns a section by its ID.
func (r *SectionRepository) FindByID(ctx context.Context, id string) (*models.Section, error) {
	const query = `SELECT id, course_id, period_id, number, professor_id, room, capacity, status, created_at, updated_at
        FROM sections WHERE id = $1`
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// FindDetailByID returns a section with contextual info.
func (r *SectionRepository) FindDetailByID(ctx context.Context, id string) (*models.SectionDetail, error) {
	query := sectionDetailSelect + " WHERE s.id = $1"
	var detail models.SectionDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListAvailable returns the active sections offered for a course within a
// period, the set a student picks from when enrolling.
func (r *SectionRepository) ListAvailable(ctx context.Context, courseID, periodID string) ([]models.SectionDetail, error) {
	query := sectionDetailSelect + " WHERE s.course_id = $1 AND s.period_id = $2 AND s.status = $3 ORDER BY s.number ASC"
	var sections []models.SectionDetail
	if err := r.db.SelectContext(ctx, &sections, query, courseID, periodID, models.SectionStatusActive); err != nil {
		return nil, fmt.Errorf("list available sections: %w", err)
	}
	return sections, nil
}

// ListByProfessor returns the sections taught by a professor with live
// active-enrollment counts.
func (r *SectionRepository) ListByProfessor(ctx context.Context, professorID, periodID string) ([]models.SectionDetail, error) {
	query := sectionDetailSelect + " WHERE s.professor_id = $1"
	args := []interface{}{professorID}
	if periodID != "" {
		query += " AND s.period_id = $2"
		args = append(args, periodID)
	}
	query += " ORDER BY c.code ASC, s.number ASC"
	var sections []models.SectionDetail
	if err := r.db.SelectContext(ctx, &sections, query, args...); err != nil {
		return nil, fmt.Errorf("list professor sections: %w", err)
	}
	return sections, nil
}

// ExistsByKey checks the (course, number, period) uniqueness invariant.
func (r *SectionRepository) ExistsByKey(ctx context.Context, courseID string, number int, periodID, excludeID string) (bool, error) {
	query := "SELECT 1 FROM sections WHERE course_id = $1 AND number = $2 AND period_id = $3"
	args := []interface{}{courseID, number, periodID}
	if excludeID != "" {
		query += fmt.Sprintf(" AND id <> $%d", len(args)+1)
		args = append(args, excludeID)
	}
	query += " LIMIT 1"
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check section uniqueness: %w", err)
	}
	return true, nil
}

// Create persists a new section record.
func (r *SectionRepository) Create(ctx context.Context, section *models.Section) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	if section.Capacity <= 0 {
		section.Capacity = models.DefaultSectionCapacity
	}
	if section.Status == "" {
		section.Status = models.SectionStatusActive
	}
	now := time.Now().UTC()
	if section.CreatedAt.IsZero() {
		section.CreatedAt = now
	}
	section.UpdatedAt = now

	const query = `INSERT INTO sections (id, course_id, period_id, number, professor_id, room, capacity, status, created_at, updated_at)
        VALUES (:id, :course_id, :period_id, :number, :professor_id, :room, :capacity, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// Update modifies instructor assignment, room, capacity or status.
func (r *SectionRepository) Update(ctx context.Context, section *models.Section) error {
	section.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sections SET professor_id = :professor_id, room = :room, capacity = :capacity,
        status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("update section: %w", err)
	}
	return nil
}

// Delete removes a section permanently.
func (r *SectionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sections WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	return nil
}

// CountActiveEnrollments returns the live enrollment count for a section.
func (r *SectionRepository) CountActiveEnrollments(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE section_id = $1 AND status = 'ACTIVE'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count section enrollments: %w", err)
	}
	return count, nil
}
