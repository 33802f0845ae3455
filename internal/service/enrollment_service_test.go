package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/siga-dev/siga-api/internal/models"
	"github.com/siga-dev/siga-api/pkg/database"
	appErrors "github.com/siga-dev/siga-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	enrollments map[string]models.Enrollment
	details     map[string]models.EnrollmentDetail
	active      map[string]bool
	byPeriod    []models.EnrollmentDetail
	byStudent   []models.EnrollmentDetail
	created     *models.Enrollment
	createErr   error
	createCalls int
	deleted     []string
	semesterSet int
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	if d, ok := m.details[id]; ok {
		return &d, nil
	}
	if e, ok := m.enrollments[id]; ok {
		return &models.EnrollmentDetail{Enrollment: e}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) ExistsActive(ctx context.Context, studentID, sectionID string) (bool, error) {
	return m.active[studentID+"/"+sectionID], nil
}

func (m *mockEnrollmentRepo) ListActiveByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	return m.byStudent, nil
}

func (m *mockEnrollmentRepo) ListActiveByStudentAndPeriod(ctx context.Context, studentID, periodID string) ([]models.EnrollmentDetail, error) {
	return m.byPeriod, nil
}

func (m *mockEnrollmentRepo) CreateWithSemester(ctx context.Context, enrollment *models.Enrollment, semester int) error {
	m.createCalls++
	if m.createErr != nil {
		return m.createErr
	}
	if enrollment.ID == "" {
		enrollment.ID = "new-enroll"
	}
	if m.enrollments == nil {
		m.enrollments = make(map[string]models.Enrollment)
	}
	m.enrollments[enrollment.ID] = *enrollment
	m.created = enrollment
	m.semesterSet = semester
	return nil
}

func (m *mockEnrollmentRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.enrollments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.enrollments, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockStudentReader struct {
	students map[string]*models.StudentDetail
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockCurriculumReader struct {
	courses []models.Course
}

func (m *mockCurriculumReader) ListByProgramSemester(ctx context.Context, program string, semester int) ([]models.Course, error) {
	return m.courses, nil
}

type mockSectionReader struct {
	sections map[string]*models.SectionDetail
}

func (m *mockSectionReader) FindDetailByID(ctx context.Context, id string) (*models.SectionDetail, error) {
	if s, ok := m.sections[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockPeriodReader struct {
	periods map[string]*models.Period
	active  *models.Period
}

func (m *mockPeriodReader) FindByID(ctx context.Context, id string) (*models.Period, error) {
	if p, ok := m.periods[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPeriodReader) FindActive(ctx context.Context) (*models.Period, error) {
	if m.active == nil {
		return nil, sql.ErrNoRows
	}
	return m.active, nil
}

type mockPassedSetReader struct {
	passed map[string][]string
	byPair map[string]bool
}

func (m *mockPassedSetReader) PassedCourseCodes(ctx context.Context, studentID string) ([]string, error) {
	return m.passed[studentID], nil
}

func (m *mockPassedSetReader) HasPassed(ctx context.Context, studentID, courseID string) (bool, error) {
	return m.byPair[studentID+"/"+courseID], nil
}

type mockGradeReader struct {
	grades map[string][]models.Grade
}

func (m *mockGradeReader) FetchByEnrollments(ctx context.Context, enrollmentIDs []string) (map[string][]models.Grade, error) {
	result := make(map[string][]models.Grade)
	for _, id := range enrollmentIDs {
		if g, ok := m.grades[id]; ok {
			result[id] = g
		}
	}
	return result, nil
}

type mockAuditLogger struct {
	logs []models.AuditLog
}

func (m *mockAuditLogger) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, *log)
	return nil
}

func course(code string, credits int, requisites string) models.Course {
	return models.Course{ID: "course-" + code, Code: code, Name: code, Credits: credits, Requisites: requisites, Program: "Informática", Semester: 2}
}

func newEligibilityService(repo *mockEnrollmentRepo, passed *mockPassedSetReader, courses []models.Course) *EnrollmentService {
	students := &mockStudentReader{students: map[string]*models.StudentDetail{
		"s1": {Student: models.Student{ID: "s1", Program: "Informática", Semester: 2}},
	}}
	periods := &mockPeriodReader{active: &models.Period{ID: "p1", Label: "2025-1", IsActive: true}}
	return NewEnrollmentService(repo, students, &mockCurriculumReader{courses: courses}, &mockSectionReader{},
		periods, passed, &mockGradeReader{}, &mockAuditLogger{}, validator.New(), zap.NewNop(), 33, database.DefaultRetryPolicy())
}

func stateFor(t *testing.T, view *models.EligibilityView, code string) models.EligibilityState {
	t.Helper()
	for _, ce := range view.Courses {
		if ce.Course.Code == code {
			return ce.State
		}
	}
	t.Fatalf("course %s not in view", code)
	return ""
}

func TestEligibilityNoRequisitesIsEligible(t *testing.T) {
	svc := newEligibilityService(&mockEnrollmentRepo{}, &mockPassedSetReader{}, []models.Course{course("A101", 4, "")})

	view, err := svc.Eligibility(context.Background(), EligibilityRequest{StudentID: "s1", Semester: 2})
	require.NoError(t, err)
	assert.Equal(t, models.EligibilityEligible, stateFor(t, view, "A101"))
}

func TestEligibilityCompletedDominates(t *testing.T) {
	passed := &mockPassedSetReader{passed: map[string][]string{"s1": {"A101"}}}
	// Even with an unmet requisite, a passed course reports COMPLETED.
	svc := newEligibilityService(&mockEnrollmentRepo{}, passed, []models.Course{course("A101", 4, "Z999")})

	view, err := svc.Eligibility(context.Background(), EligibilityRequest{StudentID: "s1", Semester: 2})
	require.NoError(t, err)
	assert.Equal(t, models.EligibilityCompleted, stateFor(t, view, "A101"))
}

func TestEligibilityAlreadySelected(t *testing.T) {
	repo := &mockEnrollmentRepo{byPeriod: []models.EnrollmentDetail{
		{Enrollment: models.Enrollment{ID: "e1"}, CourseCode: "A101", CourseCredits: 4},
	}}
	svc := newEligibilityService(repo, &mockPassedSetReader{}, []models.Course{course("A101", 4, "")})

	view, err := svc.Eligibility(context.Background(), EligibilityRequest{StudentID: "s1", Semester: 2})
	require.NoError(t, err)
	assert.Equal(t, models.EligibilityAlreadySelected, stateFor(t, view, "A101"))
	assert.Equal(t, 4, view.CreditsCommitted)
}

func TestEligibilityStrictPrerequisiteBlocks(t *testing.T) {
	svc := newEligibilityService(&mockEnrollmentRepo{}, &mockPassedSetReader{}, []models.Course{course("B201", 4, "A101")})

	view, err := svc.Eligibility(context.Background(), EligibilityRequest{StudentID: "s1", Semester: 2})
	require.NoError(t, err)
	assert.Equal(t, models.EligibilityPrerequisitesUnmet, stateFor(t, view, "B201"))
}

func TestEligibilityPrerequisiteUnlockedAfterPass(t *testing.T) {
	passed := &mockPassedSetReader{passed: map[string][]string{"s1": {"A101"}}}
	svc := newEligibilityService(&mockEnrollmentRepo{}, passed, []models.Course{course("B201", 4, "A101")})

	view, err := svc.Eligibility(context.Background(), EligibilityRequest{StudentID: "s1", Semester: 2})
	require.NoError(t, err)
	assert.Equal(t, models.EligibilityEligible, stateFor(t, view, "B201"))
}

func TestEligibilityCorequisiteSatisfiedBySelection(t *testing.T) {
	courses := []models.Course{course("FIS102", 4, ""), course("LAB102", 2, "CO-FIS102")}
	svc := newEligibilityService(&mockEnrollmentRepo{}, &mockPassedSetReader{}, courses)

	// Without FIS102 in the selection the corequisite blocks.
	view, err := svc.Eligibility(context.Background(), EligibilityRequest{StudentID: "s1", Semester: 2})
	require.NoError(t, err)
	assert.Equal(t, models.EligibilityPrerequisitesUnmet, stateFor(t, view, "LAB102"))

	// Picking FIS102 in the same session satisfies it.
	view, err = svc.Eligibility(context.Background(), EligibilityRequest{StudentID: "s1", Semester: 2, Selected: []string{"FIS102"}})
	require.NoError(t, err)
	assert.Equal(t, models.EligibilityEligible, stateFor(t, view, "LAB102"))
}

func TestEligibilityCreditCeiling(t *testing.T) {
	repo := &mockEnrollmentRepo{byPeriod: []models.EnrollmentDetail{
		{Enrollment: models.Enrollment{ID: "e1"}, CourseCode: "X100", CourseCredits: 30},
	}}
	courses := []models.Course{course("A101", 4, ""), course("C301", 3, "")}
	svc := newEligibilityService(repo, &mockPassedSetReader{}, courses)

	view, err := svc.Eligibility(context.Background(), EligibilityRequest{StudentID: "s1", Semester: 2})
	require.NoError(t, err)
	// 30 of 33 credits committed leaves room for 3, not 4.
	assert.Equal(t, models.EligibilityCreditLimitExceeded, stateFor(t, view, "A101"))
	assert.Equal(t, models.EligibilityEligible, stateFor(t, view, "C301"))
	assert.Equal(t, 33, view.CreditCeiling)
}

func TestEligibilitySelectionCountsTowardsCeiling(t *testing.T) {
	courses := []models.Course{course("A101", 20, ""), course("B202", 20, "")}
	svc := newEligibilityService(&mockEnrollmentRepo{}, &mockPassedSetReader{}, courses)

	view, err := svc.Eligibility(context.Background(), EligibilityRequest{StudentID: "s1", Semester: 2, Selected: []string{"A101"}})
	require.NoError(t, err)
	assert.Equal(t, models.EligibilityAlreadySelected, stateFor(t, view, "A101"))
	assert.Equal(t, models.EligibilityCreditLimitExceeded, stateFor(t, view, "B202"))
}

func newEnrollService(repo *mockEnrollmentRepo, passed *mockPassedSetReader, sections *mockSectionReader, audit *mockAuditLogger) *EnrollmentService {
	students := &mockStudentReader{students: map[string]*models.StudentDetail{
		"s1": {Student: models.Student{ID: "s1", Program: "Informática", Semester: 2}},
	}}
	periods := &mockPeriodReader{active: &models.Period{ID: "p1", Label: "2025-1", IsActive: true}}
	return NewEnrollmentService(repo, students, &mockCurriculumReader{}, sections, periods, passed,
		&mockGradeReader{}, audit, validator.New(), zap.NewNop(), 33, database.DefaultRetryPolicy())
}

func activeSection(id, courseID, periodID string) *models.SectionDetail {
	return &models.SectionDetail{
		Section:    models.Section{ID: id, CourseID: courseID, PeriodID: periodID, Number: 1, Status: models.SectionStatusActive},
		CourseCode: "A101",
	}
}

func TestEnrollSuccessPinsSemester(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	sections := &mockSectionReader{sections: map[string]*models.SectionDetail{"sec1": activeSection("sec1", "c1", "p1")}}
	audit := &mockAuditLogger{}
	svc := newEnrollService(repo, &mockPassedSetReader{}, sections, audit)

	detail, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", SectionID: "sec1", Semester: 2})
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, models.EnrollmentStatusActive, repo.created.Status)
	assert.Equal(t, 2, repo.semesterSet)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionEnroll, audit.logs[0].Action)
}

func TestEnrollRejectsAlreadyPassedCourse(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	sections := &mockSectionReader{sections: map[string]*models.SectionDetail{"sec1": activeSection("sec1", "c1", "p1")}}
	passed := &mockPassedSetReader{byPair: map[string]bool{"s1/c1": true}}
	svc := newEnrollService(repo, passed, sections, &mockAuditLogger{})

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", SectionID: "sec1", Semester: 2})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrAlreadyPassed))
	assert.Zero(t, repo.createCalls)
}

func TestEnrollRejectsDuplicate(t *testing.T) {
	repo := &mockEnrollmentRepo{active: map[string]bool{"s1/sec1": true}}
	sections := &mockSectionReader{sections: map[string]*models.SectionDetail{"sec1": activeSection("sec1", "c1", "p1")}}
	svc := newEnrollService(repo, &mockPassedSetReader{}, sections, &mockAuditLogger{})

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", SectionID: "sec1", Semester: 2})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrDuplicateEnrollment))
}

func TestEnrollRejectsSectionOutsideActivePeriod(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	sections := &mockSectionReader{sections: map[string]*models.SectionDetail{"sec1": activeSection("sec1", "c1", "old-period")}}
	svc := newEnrollService(repo, &mockPassedSetReader{}, sections, &mockAuditLogger{})

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", SectionID: "sec1", Semester: 2})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrPreconditionFailed))
}

func TestEnrollUnknownSection(t *testing.T) {
	svc := newEnrollService(&mockEnrollmentRepo{}, &mockPassedSetReader{}, &mockSectionReader{}, &mockAuditLogger{})

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", SectionID: "missing", Semester: 2})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestWithdrawDeletesAndAudits(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", StudentID: "s1", SectionID: "sec1", Status: models.EnrollmentStatusActive},
	}}
	audit := &mockAuditLogger{}
	svc := newEnrollService(repo, &mockPassedSetReader{}, &mockSectionReader{}, audit)

	require.NoError(t, svc.Withdraw(context.Background(), "e1"))
	assert.Equal(t, []string{"e1"}, repo.deleted)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionWithdraw, audit.logs[0].Action)
}

func TestWithdrawMissingEnrollment(t *testing.T) {
	svc := newEnrollService(&mockEnrollmentRepo{}, &mockPassedSetReader{}, &mockSectionReader{}, &mockAuditLogger{})

	err := svc.Withdraw(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestListEnrolledAttachesGrades(t *testing.T) {
	repo := &mockEnrollmentRepo{byStudent: []models.EnrollmentDetail{
		{Enrollment: models.Enrollment{ID: "e1"}, CourseCode: "A101"},
		{Enrollment: models.Enrollment{ID: "e2"}, CourseCode: "B201"},
	}}
	grades := &mockGradeReader{grades: map[string][]models.Grade{
		"e1": {{EnrollmentID: "e1", Assessment: models.AssessmentPartial1, Value: 15}},
	}}
	students := &mockStudentReader{students: map[string]*models.StudentDetail{"s1": {Student: models.Student{ID: "s1"}}}}
	periods := &mockPeriodReader{active: &models.Period{ID: "p1", Label: "2025-1"}}
	svc := NewEnrollmentService(repo, students, &mockCurriculumReader{}, &mockSectionReader{}, periods,
		&mockPassedSetReader{}, grades, &mockAuditLogger{}, validator.New(), zap.NewNop(), 33, database.DefaultRetryPolicy())

	courses, err := svc.ListEnrolled(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Len(t, courses[0].Grades, 1)
	assert.Empty(t, courses[1].Grades)
}
