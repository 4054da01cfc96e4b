package machine

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for machines.
type Repository interface {
	// FindByID retrieves a machine by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Machine, error)

	// FindByOperatorID retrieves all machines owned by an operator.
	FindByOperatorID(ctx context.Context, operatorID uuid.UUID) ([]*Machine, error)

	// ListAvailable retrieves available machines with pagination (farmer browse).
	ListAvailable(ctx context.Context, page, limit int) ([]*Machine, int64, error)

	// Save persists a new machine.
	Save(ctx context.Context, m *Machine) error

	// Update persists changes to an existing machine.
	Update(ctx context.Context, m *Machine) error

	// Delete removes a machine.
	Delete(ctx context.Context, id uuid.UUID) error
}
