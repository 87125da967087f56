package enums

// ApplicationStatus maps to the application_status_enum enum in Postgres.
type ApplicationStatus string

const (
	ApplicationStatusPending     ApplicationStatus = "PENDING"
	ApplicationStatusUnderReview ApplicationStatus = "UNDER_REVIEW"
	ApplicationStatusAccepted    ApplicationStatus = "ACCEPTED"
	ApplicationStatusRejected    ApplicationStatus = "REJECTED"
)

// IsValid reports whether the value matches the canonical application status enum.
func (s ApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusUnderReview,
		ApplicationStatusAccepted, ApplicationStatusRejected:
		return true
	}
	return false
}
