package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/siga-dev/siga-api/internal/models"
	"github.com/siga-dev/siga-api/pkg/database"
	appErrors "github.com/siga-dev/siga-api/pkg/errors"
)

type enrollmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	ExistsActive(ctx context.Context, studentID, sectionID string) (bool, error)
	ListActiveByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
	ListActiveByStudentAndPeriod(ctx context.Context, studentID, periodID string) ([]models.EnrollmentDetail, error)
	CreateWithSemester(ctx context.Context, enrollment *models.Enrollment, semester int) error
	Delete(ctx context.Context, id string) error
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

type curriculumReader interface {
	ListByProgramSemester(ctx context.Context, program string, semester int) ([]models.Course, error)
}

type sectionReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.SectionDetail, error)
}

type activePeriodReader interface {
	FindByID(ctx context.Context, id string) (*models.Period, error)
	FindActive(ctx context.Context) (*models.Period, error)
}

type passedSetReader interface {
	PassedCourseCodes(ctx context.Context, studentID string) ([]string, error)
	HasPassed(ctx context.Context, studentID, courseID string) (bool, error)
}

type gradeReader interface {
	FetchByEnrollments(ctx context.Context, enrollmentIDs []string) (map[string][]models.Grade, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// EligibilityRequest scopes one eligibility query. Selected carries the
// course codes the student is picking in the current enrollment session
// but has not committed yet.
type EligibilityRequest struct {
	StudentID string   `json:"student_id" validate:"required"`
	PeriodID  string   `json:"period_id"`
	Semester  int      `json:"semester" validate:"required,min=1"`
	Selected  []string `json:"selected"`
}

// EnrollRequest describes one enrollment command.
type EnrollRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	SectionID string `json:"section_id" validate:"required"`
	Semester  int    `json:"semester" validate:"required,min=1"`
}

// EnrollmentService implements the enrollment engine: eligibility
// classification, the enrollment command and withdrawal.
type EnrollmentService struct {
	repo        enrollmentRepository
	students    studentReader
	courses     curriculumReader
	sections    sectionReader
	periods     activePeriodReader
	transcripts passedSetReader
	grades      gradeReader
	audit       auditLogger
	validator   *validator.Validate
	logger      *zap.Logger
	maxCredits  int
	retry       database.RetryPolicy
}

// NewEnrollmentService constructs EnrollmentService. maxCredits bounds the
// per-period credit load (33 in production).
func NewEnrollmentService(repo enrollmentRepository, students studentReader, courses curriculumReader,
	sections sectionReader, periods activePeriodReader, transcripts passedSetReader, grades gradeReader,
	audit auditLogger, validate *validator.Validate, logger *zap.Logger, maxCredits int, retry database.RetryPolicy) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxCredits <= 0 {
		maxCredits = 33
	}
	return &EnrollmentService{
		repo:        repo,
		students:    students,
		courses:     courses,
		sections:    sections,
		periods:     periods,
		transcripts: transcripts,
		grades:      grades,
		audit:       audit,
		validator:   validate,
		logger:      logger,
		maxCredits:  maxCredits,
		retry:       retry,
	}
}

// Eligibility classifies every course of the student's program at the
// requested semester. States are mutually exclusive and evaluated in a
// fixed order: COMPLETED, ALREADY_SELECTED, PREREQUISITES_UNMET,
// CREDIT_LIMIT_EXCEEDED, ELIGIBLE.
func (s *EnrollmentService) Eligibility(ctx context.Context, req EligibilityRequest) (*models.EligibilityView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid eligibility query")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	period, err := s.resolvePeriod(ctx, req.PeriodID)
	if err != nil {
		return nil, err
	}

	courses, err := s.courses.ListByProgramSemester(ctx, student.Program, req.Semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load curriculum")
	}

	passedCodes, err := s.transcripts.PassedCourseCodes(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load passed courses")
	}
	passed := make(map[string]struct{}, len(passedCodes))
	for _, code := range passedCodes {
		passed[code] = struct{}{}
	}

	committed, err := s.repo.ListActiveByStudentAndPeriod(ctx, student.ID, period.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	// The session selection set: codes picked now plus codes already
	// committed for the open period. Both read as "taken this period"
	// for corequisite satisfaction and the ALREADY_SELECTED state.
	selected := make(map[string]struct{}, len(req.Selected)+len(committed))
	creditsUsed := 0
	for _, enrollment := range committed {
		selected[enrollment.CourseCode] = struct{}{}
		creditsUsed += enrollment.CourseCredits
	}
	curriculumByCode := make(map[string]models.Course, len(courses))
	for _, course := range courses {
		curriculumByCode[course.Code] = course
	}
	for _, code := range req.Selected {
		if _, dup := selected[code]; dup {
			continue
		}
		selected[code] = struct{}{}
		if course, ok := curriculumByCode[code]; ok {
			creditsUsed += course.Credits
		}
	}

	remaining := s.maxCredits - creditsUsed

	view := &models.EligibilityView{
		StudentID:        student.ID,
		PeriodID:         period.ID,
		Semester:         req.Semester,
		CreditCeiling:    s.maxCredits,
		CreditsCommitted: creditsUsed,
		Courses:          make([]models.CourseEligibility, 0, len(courses)),
	}
	for _, course := range courses {
		state := classifyCourse(course, passed, selected, remaining)
		view.Courses = append(view.Courses, models.CourseEligibility{Course: course, State: state})
	}
	return view, nil
}

// classifyCourse applies the eligibility ladder to a single course.
func classifyCourse(course models.Course, passed, selected map[string]struct{}, remainingCredits int) models.EligibilityState {
	if _, ok := passed[course.Code]; ok {
		return models.EligibilityCompleted
	}
	if _, ok := selected[course.Code]; ok {
		return models.EligibilityAlreadySelected
	}
	for _, requisite := range course.RequisiteList() {
		if requisite.Corequisite {
			// A corequisite counts as satisfied when passed earlier or
			// taken concurrently in this session.
			if _, ok := passed[requisite.Code]; ok {
				continue
			}
			if _, ok := selected[requisite.Code]; ok {
				continue
			}
			return models.EligibilityPrerequisitesUnmet
		}
		if _, ok := passed[requisite.Code]; !ok {
			return models.EligibilityPrerequisitesUnmet
		}
	}
	if course.Credits > remainingCredits {
		return models.EligibilityCreditLimitExceeded
	}
	return models.EligibilityEligible
}

// Enroll registers a student into a section of the active period and pins
// the student's current semester to the session's semester.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	section, err := s.sections.FindDetailByID(ctx, req.SectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	if section.Status != models.SectionStatusActive {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "section is not active")
	}

	active, err := s.periods.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no active period")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active period")
	}
	if section.PeriodID != active.ID {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "section does not belong to the active period")
	}

	alreadyPassed, err := s.transcripts.HasPassed(ctx, req.StudentID, section.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course history")
	}
	if alreadyPassed {
		return nil, appErrors.Clone(appErrors.ErrAlreadyPassed, fmt.Sprintf("course %s already passed", section.CourseCode))
	}

	exists, err := s.repo.ExistsActive(ctx, req.StudentID, req.SectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicateEnrollment, "student already enrolled in this section")
	}

	enrollment := &models.Enrollment{
		StudentID:  req.StudentID,
		SectionID:  req.SectionID,
		EnrolledAt: time.Now().UTC(),
		Status:     models.EnrollmentStatusActive,
	}
	err = database.WithRetry(ctx, s.retry, func(ctx context.Context) error {
		return s.repo.CreateWithSemester(ctx, enrollment, req.Semester)
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicateEnrollment, "student already enrolled in this section")
		}
		if appErrors.Is(err, appErrors.ErrTransientStorage) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &req.StudentID,
		Action:     models.AuditActionEnroll,
		Resource:   "enrollment",
		ResourceID: &enrollment.ID,
		Detail:     []byte(fmt.Sprintf(`{"section_id":"%s","semester":%d}`, req.SectionID, req.Semester)),
	})

	detail, err := s.repo.FindDetailByID(ctx, enrollment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment detail")
	}
	return detail, nil
}

// Withdraw removes an enrollment and its grade entries. Credits freed by
// the withdrawal count towards subsequent eligibility queries.
func (s *EnrollmentService) Withdraw(ctx context.Context, id string) error {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	err = database.WithRetry(ctx, s.retry, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		if appErrors.Is(err, appErrors.ErrTransientStorage) {
			return err
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to withdraw enrollment")
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &enrollment.StudentID,
		Action:     models.AuditActionWithdraw,
		Resource:   "enrollment",
		ResourceID: &id,
	})
	return nil
}

// ListEnrolled returns the student's active enrollments with their
// assessment entries, the current-courses projection.
func (s *EnrollmentService) ListEnrolled(ctx context.Context, studentID string) ([]models.EnrolledCourse, error) {
	enrollments, err := s.repo.ListActiveByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	ids := make([]string, len(enrollments))
	for i, enrollment := range enrollments {
		ids[i] = enrollment.ID
	}
	grades, err := s.grades.FetchByEnrollments(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}
	result := make([]models.EnrolledCourse, len(enrollments))
	for i, enrollment := range enrollments {
		result[i] = models.EnrolledCourse{EnrollmentDetail: enrollment, Grades: grades[enrollment.ID]}
	}
	return result, nil
}

func (s *EnrollmentService) resolvePeriod(ctx context.Context, periodID string) (*models.Period, error) {
	var (
		period *models.Period
		err    error
	)
	if periodID != "" {
		period, err = s.periods.FindByID(ctx, periodID)
	} else {
		period, err = s.periods.FindActive(ctx)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}
	return period, nil
}

func (s *EnrollmentService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to create enrollment audit", zap.Error(err))
	}
}
