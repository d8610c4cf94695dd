package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestConstraintHelpers(t *testing.T) {
	fk := fmt.Errorf("insert attachment: %w", &pgconn.PgError{Code: "23503"})
	uniq := &pgconn.PgError{Code: "23505"}

	if !IsForeignKeyViolation(fk) {
		t.Fatalf("expected wrapped FK violation to match")
	}
	if IsForeignKeyViolation(uniq) {
		t.Fatalf("unique violation must not match FK")
	}
	if !IsUniqueViolation(uniq) {
		t.Fatalf("expected unique violation to match")
	}
	if IsUniqueViolation(errors.New("boom")) {
		t.Fatalf("plain error must not match")
	}

	badUUID := fmt.Errorf("lookup report owner: %w", &pgconn.PgError{Code: "22P02"})
	if !IsInvalidTextRepresentation(badUUID) {
		t.Fatalf("expected wrapped 22P02 to match")
	}
	if IsInvalidTextRepresentation(fk) {
		t.Fatalf("FK violation must not match invalid text representation")
	}
}
