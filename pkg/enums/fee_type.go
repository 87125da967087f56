package enums

import "fmt"

// FeeType maps to the fee_type_enum enum in Postgres.
type FeeType string

const (
	FeeTypePercentage FeeType = "PERCENTAGE"
	FeeTypeFixed      FeeType = "FIXED"
)

// IsValid reports whether the value matches the canonical fee type enum.
func (t FeeType) IsValid() bool {
	return t == FeeTypePercentage || t == FeeTypeFixed
}

// ParseFeeType converts raw input into FeeType.
func ParseFeeType(value string) (FeeType, error) {
	switch FeeType(value) {
	case FeeTypePercentage:
		return FeeTypePercentage, nil
	case FeeTypeFixed:
		return FeeTypeFixed, nil
	}
	return "", fmt.Errorf("invalid fee type %q", value)
}
