package enums

import "fmt"

// JobStatus maps to the job_status_enum enum in Postgres.
type JobStatus string

const (
	JobStatusOpen      JobStatus = "OPEN"
	JobStatusAssigned  JobStatus = "ASSIGNED"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusApproved  JobStatus = "APPROVED"
	JobStatusRejected  JobStatus = "REJECTED"
	JobStatusCancelled JobStatus = "CANCELLED"
)

var validJobStatuses = []JobStatus{
	JobStatusOpen,
	JobStatusAssigned,
	JobStatusCompleted,
	JobStatusApproved,
	JobStatusRejected,
	JobStatusCancelled,
}

// IsValid reports whether the value matches the canonical job status enum.
func (s JobStatus) IsValid() bool {
	for _, candidate := range validJobStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseJobStatus converts raw input into JobStatus.
func ParseJobStatus(value string) (JobStatus, error) {
	for _, candidate := range validJobStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid job status %q", value)
}
