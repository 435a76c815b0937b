package repo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"marketfund/internal/domain"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"lock not available", &pgconn.PgError{Code: "55P03"}, domain.ErrLockTimeout},
		{"deadlock", fmt.Errorf("update: %w", &pgconn.PgError{Code: "40P01"}), domain.ErrLockTimeout},
		{"foreign key", &pgconn.PgError{Code: "23503"}, domain.ErrNotFound},
		{"check violation", &pgconn.PgError{Code: "23514"}, domain.ErrInvalidRequest},
		{"numeric overflow", &pgconn.PgError{Code: "22003"}, domain.ErrInvalidRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := mapError(tc.err)
			if !errors.Is(got, tc.want) {
				t.Fatalf("mapError() = %v, want %v", got, tc.want)
			}
			var pgErr *pgconn.PgError
			if !errors.As(got, &pgErr) {
				t.Fatalf("driver error no longer reachable")
			}
		})
	}

	plain := errors.New("conn refused")
	if got := mapError(plain); got != plain {
		t.Fatalf("unmapped error changed: %v", got)
	}
	if mapError(nil) != nil {
		t.Fatalf("nil should stay nil")
	}
}

func TestSortedUnique(t *testing.T) {
	got := sortedUnique([]string{"b", "a", "b", "c", "a"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("sortedUnique() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sortedUnique() = %v, want %v", got, want)
		}
	}
}
