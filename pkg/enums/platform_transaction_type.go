package enums

// PlatformTransactionType maps to the platform_transaction_type_enum enum in Postgres.
type PlatformTransactionType string

const (
	PlatformTransactionTypeEscrowFee   PlatformTransactionType = "ESCROW_FEE"
	PlatformTransactionTypeWithdrawFee PlatformTransactionType = "WITHDRAW_FEE"
)

// IsValid reports whether the value matches the canonical platform transaction type enum.
func (t PlatformTransactionType) IsValid() bool {
	return t == PlatformTransactionTypeEscrowFee || t == PlatformTransactionTypeWithdrawFee
}
