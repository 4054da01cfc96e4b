package booking

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for booking aggregates.
type Repository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByRef retrieves a booking by its human-readable reference.
	FindByRef(ctx context.Context, ref string) (*Booking, error)

	// FindByFarmerID retrieves bookings created by a farmer with pagination.
	FindByFarmerID(ctx context.Context, farmerID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// FindByOperatorID retrieves bookings targeted at an operator with pagination.
	FindByOperatorID(ctx context.Context, operatorID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// ListByFarmerID retrieves a farmer's full booking set (for derived aggregates).
	ListByFarmerID(ctx context.Context, farmerID uuid.UUID) ([]*Booking, error)

	// ListByOperatorID retrieves an operator's full booking set (for derived aggregates).
	ListByOperatorID(ctx context.Context, operatorID uuid.UUID) ([]*Booking, error)

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// CountByPhase returns booking counts grouped by phase (admin).
	CountByPhase(ctx context.Context) (map[string]int64, error)

	// SumPaidAmountPaise returns the platform-wide sum of settled booking
	// amounts (admin revenue figure, recomputed per read).
	SumPaidAmountPaise(ctx context.Context) (int64, error)

	// Save persists a new booking.
	Save(ctx context.Context, b *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, b *Booking) error
}
