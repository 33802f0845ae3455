package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/siga-dev/siga-api/internal/models"
	appErrors "github.com/siga-dev/siga-api/pkg/errors"
)

type mockStudentRepo struct {
	details     map[string]models.StudentDetail
	createErr   error
	createdUser *models.User
	updated     *models.Student
	deleted     []string
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	out := make([]models.StudentDetail, 0, len(m.details))
	for _, d := range m.details {
		out = append(out, d)
	}
	return out, len(out), nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if d, ok := m.details[id]; ok {
		return &d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error) {
	for _, d := range m.details {
		if d.UserID == userID {
			found := d
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) CreateWithUser(ctx context.Context, user *models.User, student *models.Student) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = "new-user"
	student.ID = "new-student"
	student.UserID = user.ID
	m.createdUser = user
	if m.details == nil {
		m.details = make(map[string]models.StudentDetail)
	}
	m.details[student.ID] = models.StudentDetail{
		Student:  *student,
		Document: user.Document,
		FullName: user.FullName,
		Email:    user.Email,
		Active:   user.Active,
	}
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	d := m.details[student.ID]
	d.Student = *student
	m.details[student.ID] = d
	m.updated = student
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id string) error {
	delete(m.details, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func newStudentService(repo *mockStudentRepo) *StudentService {
	return NewStudentService(repo, nil, nil)
}

func validStudentRequest() CreateStudentRequest {
	return CreateStudentRequest{
		Document: "1102334455",
		Email:    "Ana.Perez@Example.edu",
		FullName: "Ana Pérez",
		Password: "secret-pass",
		Program:  "Ingeniería de Sistemas",
		Semester: 1,
	}
}

func TestStudentCreate(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := newStudentService(repo)

	detail, err := svc.Create(context.Background(), validStudentRequest())
	require.NoError(t, err)
	assert.Equal(t, "Ana Pérez", detail.FullName)
	assert.Equal(t, 1, detail.Semester)

	require.NotNil(t, repo.createdUser)
	assert.Equal(t, models.RoleStudent, repo.createdUser.Role)
	assert.True(t, repo.createdUser.Active)
	assert.Equal(t, "ana.perez@example.edu", repo.createdUser.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.createdUser.PasswordHash), []byte("secret-pass")))
}

func TestStudentCreateRejectsShortPassword(t *testing.T) {
	svc := newStudentService(&mockStudentRepo{})

	req := validStudentRequest()
	req.Password = "short"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestStudentCreateMapsUniqueViolation(t *testing.T) {
	repo := &mockStudentRepo{createErr: &pq.Error{Code: "23505"}}
	svc := newStudentService(repo)

	_, err := svc.Create(context.Background(), validStudentRequest())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrDuplicateKey))
}

func TestStudentUpdatePlacement(t *testing.T) {
	repo := &mockStudentRepo{details: map[string]models.StudentDetail{
		"s1": {Student: models.Student{ID: "s1", UserID: "u1", Program: "Ingeniería de Sistemas", Semester: 2}},
	}}
	svc := newStudentService(repo)

	five := 5
	detail, err := svc.Update(context.Background(), "s1", UpdateStudentRequest{Semester: &five})
	require.NoError(t, err)
	assert.Equal(t, 5, detail.Semester)
	assert.Equal(t, "Ingeniería de Sistemas", detail.Program)
}

func TestStudentGetByUserID(t *testing.T) {
	repo := &mockStudentRepo{details: map[string]models.StudentDetail{
		"s1": {Student: models.Student{ID: "s1", UserID: "u1"}},
	}}
	svc := newStudentService(repo)

	detail, err := svc.GetByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "s1", detail.ID)

	_, err = svc.GetByUserID(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestStudentDeleteMissing(t *testing.T) {
	svc := newStudentService(&mockStudentRepo{})

	err := svc.Delete(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
