package models

// EligibilityState classifies one course for a student's enrollment
// session. States are mutually exclusive; evaluation order is COMPLETED,
// ALREADY_SELECTED, PREREQUISITES_UNMET, CREDIT_LIMIT_EXCEEDED, ELIGIBLE.
type EligibilityState string

const (
	EligibilityEligible            EligibilityState = "ELIGIBLE"
	EligibilityCompleted           EligibilityState = "COMPLETED"
	EligibilityAlreadySelected     EligibilityState = "ALREADY_SELECTED"
	EligibilityPrerequisitesUnmet  EligibilityState = "PREREQUISITES_UNMET"
	EligibilityCreditLimitExceeded EligibilityState = "CREDIT_LIMIT_EXCEEDED"
)

// CourseEligibility pairs a curriculum course with its computed state.
type CourseEligibility struct {
	Course Course           `json:"course"`
	State  EligibilityState `json:"state"`
}

// EligibilityView is the full response for one eligibility query.
type EligibilityView struct {
	StudentID        string              `json:"student_id"`
	PeriodID         string              `json:"period_id"`
	Semester         int                 `json:"semester"`
	CreditCeiling    int                 `json:"credit_ceiling"`
	CreditsCommitted int                 `json:"credits_committed"`
	Courses          []CourseEligibility `json:"courses"`
}
