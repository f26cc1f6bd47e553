package postgres

import (
	"database/sql"
	"fmt"
	"reflect"
	"testing"
	"time"

	inspection "seismic-network/internal/inspection/domain"
)

// stubScan returns a scan function that assigns the given column values in
// order, the way a row produced by the Get/ListEligible SELECT would.
func stubScan(values ...any) func(dest ...any) error {
	return func(dest ...any) error {
		if len(dest) != len(values) {
			return fmt.Errorf("scan: %d destinations, want %d", len(dest), len(values))
		}
		for i, value := range values {
			reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(value))
		}
		return nil
	}
}

func TestScanOrderClosedRow(t *testing.T) {
	art := time.FixedZone("ART", -3*60*60)
	emitted := time.Date(2024, 1, 1, 5, 0, 0, 0, art)
	completed := time.Date(2024, 1, 1, 6, 30, 0, 0, art)
	closed := time.Date(2024, 1, 1, 7, 0, 0, 0, art)

	order, err := scanOrder(stubScan(
		1,
		emitted,
		sql.NullTime{Time: completed, Valid: true},
		"closed",
		sql.NullTime{Time: closed, Valid: true},
		sql.NullString{String: "all checked", Valid: true},
		"ST-01",
		"emp-1",
		"Juan",
		"Pérez",
		"juan.perez@example.com",
		"+54 11 5555 0001",
		"inspection_responsible",
	))
	if err != nil {
		t.Fatalf("scan order: %v", err)
	}
	if order.Number != 1 {
		t.Fatalf("number = %d, want 1", order.Number)
	}
	if order.Status != inspection.StatusClosed {
		t.Fatalf("status = %q, want %q", order.Status, inspection.StatusClosed)
	}
	if !order.EmittedAt.Equal(emitted) || order.EmittedAt.Location() != time.UTC {
		t.Fatalf("emitted at = %v, want %v in UTC", order.EmittedAt, emitted)
	}
	if !order.CompletedAt.Equal(completed) || order.CompletedAt.Location() != time.UTC {
		t.Fatalf("completed at = %v, want %v in UTC", order.CompletedAt, completed)
	}
	if !order.ClosedAt.Equal(closed) || order.ClosedAt.Location() != time.UTC {
		t.Fatalf("closed at = %v, want %v in UTC", order.ClosedAt, closed)
	}
	if order.ClosureObservation != "all checked" {
		t.Fatalf("observation = %q, want %q", order.ClosureObservation, "all checked")
	}
	if order.StationCode != "ST-01" {
		t.Fatalf("station code = %q, want ST-01", order.StationCode)
	}
	if order.Responsible.ID != "emp-1" || order.Responsible.Surname != "Pérez" {
		t.Fatalf("responsible = %+v, want emp-1 Pérez", order.Responsible)
	}
	if order.Responsible.Role != "inspection_responsible" {
		t.Fatalf("responsible role = %q", order.Responsible.Role)
	}
}

func TestScanOrderOpenRowNulls(t *testing.T) {
	emitted := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)

	order, err := scanOrder(stubScan(
		7,
		emitted,
		sql.NullTime{},
		"in_progress",
		sql.NullTime{},
		sql.NullString{},
		"ST-02",
		"emp-2",
		"Ana",
		"Gómez",
		"ana.gomez@example.com",
		"",
		"inspection_responsible",
	))
	if err != nil {
		t.Fatalf("scan order: %v", err)
	}
	if order.Status != inspection.StatusInProgress {
		t.Fatalf("status = %q, want %q", order.Status, inspection.StatusInProgress)
	}
	if !order.CompletedAt.IsZero() {
		t.Fatalf("completed at = %v, want zero", order.CompletedAt)
	}
	if !order.ClosedAt.IsZero() {
		t.Fatalf("closed at = %v, want zero", order.ClosedAt)
	}
	if order.ClosureObservation != "" {
		t.Fatalf("observation = %q, want empty", order.ClosureObservation)
	}
}

func TestScanOrderPropagatesError(t *testing.T) {
	_, err := scanOrder(func(dest ...any) error {
		return sql.ErrNoRows
	})
	if err != sql.ErrNoRows {
		t.Fatalf("err = %v, want sql.ErrNoRows", err)
	}
}
