package enums

import "fmt"

// WalletStatus maps to the wallet_status_enum enum in Postgres.
type WalletStatus string

const (
	WalletStatusActive    WalletStatus = "ACTIVE"
	WalletStatusSuspended WalletStatus = "SUSPENDED"
	WalletStatusClosed    WalletStatus = "CLOSED"
)

var validWalletStatuses = []WalletStatus{
	WalletStatusActive,
	WalletStatusSuspended,
	WalletStatusClosed,
}

// IsValid reports whether the value matches the canonical wallet status enum.
func (s WalletStatus) IsValid() bool {
	for _, candidate := range validWalletStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseWalletStatus converts raw input into WalletStatus.
func ParseWalletStatus(value string) (WalletStatus, error) {
	for _, candidate := range validWalletStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet status %q", value)
}
