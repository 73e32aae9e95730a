package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestDumpExtractsPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "ux_payments_external_ref",
		TableName:      "payments",
		Message:        "duplicate key value violates unique constraint",
	}
	err := Wrap(CodeDependency, fmt.Errorf("insert payment: %w", pgErr), "record payment")

	dump := Dump(err)
	if dump.Code != CodeDependency {
		t.Fatalf("unexpected code %s", dump.Code)
	}
	if dump.PGCode != "23505" || dump.PGConstraint != "ux_payments_external_ref" {
		t.Fatalf("postgres fields not extracted: %+v", dump)
	}
	if len(dump.Chain) != 3 {
		t.Fatalf("expected 3 chain entries, got %d", len(dump.Chain))
	}
}

func TestDumpIncludesReason(t *testing.T) {
	dump := Dump(Reject(CodeValidation, ReasonEmptyCart, "cart is empty"))
	if dump.Reason != ReasonEmptyCart {
		t.Fatalf("expected reason %q got %q", ReasonEmptyCart, dump.Reason)
	}
	if dump.PGCode != "" {
		t.Fatalf("expected no postgres code")
	}
}
