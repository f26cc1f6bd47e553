package masterdata

import (
	"context"
	"errors"
	"strings"
)

const (
	RoleInspectionResponsible = "inspection_responsible"
	RoleRepairResponsible     = "repair_responsible"
	RoleNetworkOperator       = "network_operator"
)

// Employee represents a member of the seismic network staff.
type Employee struct {
	ID      string
	Name    string
	Surname string
	Email   string
	Phone   string
	Role    string
}

// Validate checks employee invariants.
func (e Employee) Validate() error {
	if e.ID == "" {
		return errors.New("employee: empty id")
	}
	if e.Name == "" {
		return errors.New("employee: empty name")
	}
	if e.Surname == "" {
		return errors.New("employee: empty surname")
	}
	return nil
}

// IsRepairResponsible reports whether the employee receives repair
// notifications.
func (e Employee) IsRepairResponsible() bool {
	return e.Role == RoleRepairResponsible
}

// SameIdentity compares two employees by name and surname, case-insensitively.
// Records loaded through different paths may represent the same person with
// distinct instances.
func (e Employee) SameIdentity(other Employee) bool {
	return strings.EqualFold(e.Name, other.Name) &&
		strings.EqualFold(e.Surname, other.Surname)
}

// FullName returns "Name Surname" for display and audit entries.
func (e Employee) FullName() string {
	return strings.TrimSpace(e.Name + " " + e.Surname)
}

// EmployeeRepository manages employee persistence.
type EmployeeRepository interface {
	Get(ctx context.Context, id string) (*Employee, error)
	ListByRole(ctx context.Context, role string) ([]Employee, error)
	Save(ctx context.Context, employee *Employee) error
}
