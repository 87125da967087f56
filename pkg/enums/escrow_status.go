package enums

// EscrowStatus maps to the escrow_status_enum enum in Postgres.
// RELEASED is terminal.
type EscrowStatus string

const (
	EscrowStatusHeld     EscrowStatus = "HELD"
	EscrowStatusReleased EscrowStatus = "RELEASED"
)

// IsValid reports whether the value matches the canonical escrow status enum.
func (s EscrowStatus) IsValid() bool {
	return s == EscrowStatusHeld || s == EscrowStatusReleased
}
