package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siga-dev/siga-api/internal/models"
	appErrors "github.com/siga-dev/siga-api/pkg/errors"
)

type mockCourseRepo struct {
	courses      map[string]models.Course
	sectionCount map[string]int
	created      *models.Course
	updated      *models.Course
	deleted      []string
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	out := make([]models.Course, 0, len(m.courses))
	for _, c := range m.courses {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) ListByProgramSemester(ctx context.Context, program string, semester int) ([]models.Course, error) {
	var out []models.Course
	for _, c := range m.courses {
		if c.Program == program && c.Semester == semester {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCourseRepo) ExistsByKey(ctx context.Context, code, program string, semester int, excludeID string) (bool, error) {
	for id, c := range m.courses {
		if c.Code == code && c.Program == program && c.Semester == semester && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = "new-course"
	}
	if m.courses == nil {
		m.courses = make(map[string]models.Course)
	}
	m.courses[course.ID] = *course
	m.created = course
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error {
	m.courses[course.ID] = *course
	m.updated = course
	return nil
}

func (m *mockCourseRepo) Delete(ctx context.Context, id string) error {
	delete(m.courses, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockCourseRepo) CountSections(ctx context.Context, id string) (int, error) {
	return m.sectionCount[id], nil
}

func newCourseService(repo *mockCourseRepo) *CourseService {
	return NewCourseService(repo, nil, nil)
}

func validCourseRequest() CreateCourseRequest {
	return CreateCourseRequest{
		Code:       "mat101",
		Name:       "Matemáticas I",
		Credits:    4,
		Requisites: " MAT100/CO-FIS101 ",
		Program:    "Ingeniería de Sistemas",
		Semester:   1,
	}
}

func TestCourseCreateNormalizesCode(t *testing.T) {
	repo := &mockCourseRepo{}
	svc := newCourseService(repo)

	course, err := svc.Create(context.Background(), validCourseRequest())
	require.NoError(t, err)
	assert.Equal(t, "MAT101", course.Code)
	assert.Equal(t, "MAT100/CO-FIS101", course.Requisites)
}

func TestCourseCreateRejectsDuplicateKey(t *testing.T) {
	repo := &mockCourseRepo{courses: map[string]models.Course{
		"c1": {ID: "c1", Code: "MAT101", Program: "Ingeniería de Sistemas", Semester: 1},
	}}
	svc := newCourseService(repo)

	_, err := svc.Create(context.Background(), validCourseRequest())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrDuplicateKey))
}

func TestCourseCreateValidatesCredits(t *testing.T) {
	svc := newCourseService(&mockCourseRepo{})

	req := validCourseRequest()
	req.Credits = 13
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestCourseUpdateMovesSemester(t *testing.T) {
	repo := &mockCourseRepo{courses: map[string]models.Course{
		"c1": {ID: "c1", Code: "MAT101", Name: "Matemáticas I", Credits: 4, Program: "Ingeniería de Sistemas", Semester: 1},
		"c2": {ID: "c2", Code: "MAT101", Name: "Matemáticas I", Credits: 4, Program: "Ingeniería de Sistemas", Semester: 2},
	}}
	svc := newCourseService(repo)

	three := 3
	course, err := svc.Update(context.Background(), "c1", UpdateCourseRequest{Semester: &three})
	require.NoError(t, err)
	assert.Equal(t, 3, course.Semester)

	two := 2
	_, err = svc.Update(context.Background(), "c1", UpdateCourseRequest{Semester: &two})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrDuplicateKey))
}

func TestCourseDeleteBlockedBySections(t *testing.T) {
	repo := &mockCourseRepo{
		courses:      map[string]models.Course{"c1": {ID: "c1", Code: "MAT101"}},
		sectionCount: map[string]int{"c1": 2},
	}
	svc := newCourseService(repo)

	err := svc.Delete(context.Background(), "c1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrPreconditionFailed))
	assert.Empty(t, repo.deleted)
}

func TestCourseCurriculum(t *testing.T) {
	repo := &mockCourseRepo{courses: map[string]models.Course{
		"c1": {ID: "c1", Code: "MAT101", Program: "Ingeniería de Sistemas", Semester: 1},
		"c2": {ID: "c2", Code: "FIS201", Program: "Ingeniería de Sistemas", Semester: 2},
	}}
	svc := newCourseService(repo)

	courses, err := svc.Curriculum(context.Background(), "Ingeniería de Sistemas", 1)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "MAT101", courses[0].Code)

	_, err = svc.Curriculum(context.Background(), "", 1)
	require.Error(t, err)
}
