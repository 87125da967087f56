package db

import (
	"errors"
	"testing"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{
			name:       "postgres message with constraint",
			err:        errors.New(`duplicate key value violates unique constraint "idx_wallets_user_id"`),
			constraint: "user_id",
			want:       true,
		},
		{
			name:       "sqlite message with column",
			err:        errors.New("UNIQUE constraint failed: wallets.user_id"),
			constraint: "user_id",
			want:       true,
		},
		{
			name:       "unique violation on a different constraint",
			err:        errors.New(`duplicate key value violates unique constraint "idx_fees_name"`),
			constraint: "user_id",
			want:       false,
		},
		{
			name:       "constraint mentioned without a unique violation",
			err:        errors.New("null value in column user_id"),
			constraint: "user_id",
			want:       false,
		},
		{
			name: "any unique violation when no constraint given",
			err:  errors.New(`duplicate key value violates unique constraint "idx_fees_name"`),
			want: true,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUniqueViolation(tc.err, tc.constraint); got != tc.want {
				t.Fatalf("IsUniqueViolation() = %v, want %v", got, tc.want)
			}
		})
	}
}
