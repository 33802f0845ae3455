package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/siga-dev/siga-api/internal/models"
)

// ProfessorRepository handles persistence of professors and their users.
type ProfessorRepository struct {
	db *sqlx.DB
}

// NewProfessorRepository constructs the repository.
func NewProfessorRepository(db *sqlx.DB) *ProfessorRepository {
	return &ProfessorRepository{db: db}
}

const professorDetailSelect = `SELECT pr.id, pr.user_id, pr.program, pr.hired_at, pr.created_at, pr.updated_at,
        u.document, u.full_name, u.email, u.active
        FROM professors pr
        JOIN users u ON u.id = pr.user_id`

// List returns professors filtered by the provided criteria.
func (r *ProfessorRepository) List(ctx context.Context, filter models.ProfessorFilter) ([]models.ProfessorDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Program != "" {
		conditions = append(conditions, fmt.Sprintf("pr.program = $%d", len(args)+1))
		args = append(args, filter.Program)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(u.full_name ILIKE $%d OR u.document ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
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

	query := fmt.Sprintf("%s%s ORDER BY u.full_name ASC LIMIT %d OFFSET %d", professorDetailSelect, clause, size, offset)

	var professors []models.ProfessorDetail
	if err := r.db.SelectContext(ctx, &professors, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list professors: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM professors pr JOIN users u ON u.id = pr.user_id" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count professors: %w", err)
	}
	return professors, total, nil
}

// FindByID returns a professor with its user row.
func (r *ProfessorRepository) FindByID(ctx context.Context, id string) (*models.ProfessorDetail, error) {
	query := professorDetailSelect + " WHERE pr.id = $1"
	var professor models.ProfessorDetail
	if err := r.db.GetContext(ctx, &professor, query, id); err != nil {
		return nil, err
	}
	return &professor, nil
}

// FindByUserID resolves the professor owning the given user.
func (r *ProfessorRepository) FindByUserID(ctx context.Context, userID string) (*models.ProfessorDetail, error) {
	query := professorDetailSelect + " WHERE pr.user_id = $1"
	var professor models.ProfessorDetail
	if err := r.db.GetContext(ctx, &professor, query, userID); err != nil {
		return nil, err
	}
	return &professor, nil
}

// CreateWithUser persists the user row and the professor row in one
// transaction.
func (r *ProfessorRepository) CreateWithUser(ctx context.Context, user *models.User, professor *models.Professor) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if professor.ID == "" {
		professor.ID = uuid.NewString()
	}
	professor.UserID = user.ID
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	professor.CreatedAt, professor.UpdatedAt = now, now
	if professor.HiredAt.IsZero() {
		professor.HiredAt = now
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create professor tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const userQuery = `INSERT INTO users (id, document, email, password_hash, full_name, role, active, created_at, updated_at)
        VALUES (:id, :document, :email, :password_hash, :full_name, :role, :active, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, userQuery, user); err != nil {
		return fmt.Errorf("create professor user: %w", err)
	}

	const professorQuery = `INSERT INTO professors (id, user_id, program, hired_at, created_at, updated_at)
        VALUES (:id, :user_id, :program, :hired_at, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, professorQuery, professor); err != nil {
		return fmt.Errorf("create professor: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create professor tx: %w", err)
	}
	return nil
}

// Update modifies program and hire date for a professor.
func (r *ProfessorRepository) Update(ctx context.Context, professor *models.Professor) error {
	professor.UpdatedAt = time.Now().UTC()
	const query = `UPDATE professors SET program = :program, hired_at = :hired_at, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, professor); err != nil {
		return fmt.Errorf("update professor: %w", err)
	}
	return nil
}

// Delete removes the professor and its owning user in one transaction.
func (r *ProfessorRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete professor tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var userID string
	if err = tx.GetContext(ctx, &userID, `SELECT user_id FROM professors WHERE id = $1`, id); err != nil {
		return fmt.Errorf("load professor user: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE sections SET professor_id = NULL WHERE professor_id = $1`, id); err != nil {
		return fmt.Errorf("unassign professor sections: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM professors WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete professor: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("delete professor user: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete professor tx: %w", err)
	}
	return nil
}
