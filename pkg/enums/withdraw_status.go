package enums

import "fmt"

// WithdrawStatus maps to the withdraw_status_enum enum in Postgres.
//
// PENDING -> PROCESSING -> APPROVED -> SENT
//                       -> REJECTED
// PROCESSING -> PENDING (unlock) is the only backward edge.
// SENT and REJECTED are terminal.
type WithdrawStatus string

const (
	WithdrawStatusPending    WithdrawStatus = "PENDING"
	WithdrawStatusProcessing WithdrawStatus = "PROCESSING"
	WithdrawStatusApproved   WithdrawStatus = "APPROVED"
	WithdrawStatusRejected   WithdrawStatus = "REJECTED"
	WithdrawStatusSent       WithdrawStatus = "SENT"
)

var validWithdrawStatuses = []WithdrawStatus{
	WithdrawStatusPending,
	WithdrawStatusProcessing,
	WithdrawStatusApproved,
	WithdrawStatusRejected,
	WithdrawStatusSent,
}

// IsValid reports whether the value matches the canonical withdraw status enum.
func (s WithdrawStatus) IsValid() bool {
	for _, candidate := range validWithdrawStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s WithdrawStatus) IsTerminal() bool {
	return s == WithdrawStatusRejected || s == WithdrawStatusSent
}

// ParseWithdrawStatus converts raw input into WithdrawStatus.
func ParseWithdrawStatus(value string) (WithdrawStatus, error) {
	for _, candidate := range validWithdrawStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid withdraw status %q", value)
}
