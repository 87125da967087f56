package enums

// TransactionStatus maps to the transaction_status_enum enum in Postgres.
// A COMPLETED transaction is never mutated again for the same business
// event; it is the idempotency anchor for gateway callbacks.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
)

// IsValid reports whether the value matches the canonical transaction status enum.
func (s TransactionStatus) IsValid() bool {
	return s == TransactionStatusPending || s == TransactionStatusCompleted
}
