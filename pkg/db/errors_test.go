package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolationPgx(t *testing.T) {
	err := &pgconn.PgError{Code: "23505", ConstraintName: "uq_payment_transactions_order_success"}

	if !IsUniqueViolation(err, "") {
		t.Fatal("expected unique violation without constraint filter")
	}
	if !IsUniqueViolation(err, "uq_payment_transactions_order_success") {
		t.Fatal("expected unique violation with matching constraint")
	}
	if IsUniqueViolation(err, "other_constraint") {
		t.Fatal("expected mismatch on different constraint")
	}
}

func TestIsUniqueViolationOtherPgCode(t *testing.T) {
	err := &pgconn.PgError{Code: "23503"}
	if IsUniqueViolation(err, "") {
		t.Fatal("foreign key violation must not count as unique violation")
	}
}

func TestIsUniqueViolationSQLiteMessage(t *testing.T) {
	err := fmt.Errorf("insert: %w", errors.New("UNIQUE constraint failed: payment_transactions.order_id"))
	if !IsUniqueViolation(err, "") {
		t.Fatal("expected sqlite unique constraint message to match")
	}
}

func TestIsUniqueViolationNil(t *testing.T) {
	if IsUniqueViolation(nil, "") {
		t.Fatal("nil error is not a violation")
	}
}
