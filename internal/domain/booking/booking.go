package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/agrirent/service-booking/internal/domain/machine"
	"github.com/agrirent/service-booking/internal/platform/domain"
	"github.com/google/uuid"
)

const bookingRefChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Booking is the aggregate root for the rental lifecycle. Every mutation
// goes through a phase-checked method; failures leave the aggregate
// exactly as it was.
type Booking struct {
	id          uuid.UUID
	bookingRef  string
	farmerID    uuid.UUID
	operatorID  uuid.UUID
	machineID   uuid.UUID
	area        string
	scheduledAt time.Time
	phase       Phase

	// rate snapshot taken at creation so a later machine edit cannot
	// change what an in-flight booking bills
	rateUnit  machine.RateUnit
	ratePaise int64

	estimatedAmountPaise int64
	finalAmountPaise     *int64
	currency             string
	paymentMode          *PaymentMode

	startTime     *time.Time
	startLocation *GeoPoint
	endTime       *time.Time
	endLocation   *GeoPoint

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateBookingRef creates a reference in the format "BK-XXXXXX".
func generateBookingRef() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingRefChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking ref: %w", err)
		}
		result[i] = bookingRefChars[n.Int64()]
	}
	return "BK-" + string(result), nil
}

// NewBooking creates a Booking in the pending phase, targeted at the
// operator who owns the machine.
func NewBooking(
	farmerID uuid.UUID,
	operatorID uuid.UUID,
	machineID uuid.UUID,
	area string,
	scheduledAt time.Time,
	rateUnit machine.RateUnit,
	ratePaise int64,
	estimatedAmountPaise int64,
) (*Booking, error) {
	if farmerID == uuid.Nil {
		return nil, domain.NewValidationError("farmer ID is required")
	}
	if operatorID == uuid.Nil {
		return nil, domain.NewValidationError("operator ID is required")
	}
	if machineID == uuid.Nil {
		return nil, domain.NewValidationError("machine ID is required")
	}
	if area == "" {
		return nil, domain.NewValidationError("area is required")
	}
	if scheduledAt.IsZero() {
		return nil, domain.NewValidationError("scheduled time is required")
	}
	if !rateUnit.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid rate unit: %s", rateUnit))
	}
	if estimatedAmountPaise <= 0 {
		return nil, domain.NewValidationError("estimated amount must be positive")
	}

	ref, err := generateBookingRef()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:                   uuid.New(),
		bookingRef:           ref,
		farmerID:             farmerID,
		operatorID:           operatorID,
		machineID:            machineID,
		area:                 area,
		scheduledAt:          scheduledAt,
		phase:                PhasePending,
		rateUnit:             rateUnit,
		ratePaise:            ratePaise,
		estimatedAmountPaise: estimatedAmountPaise,
		currency:             domain.CurrencyINR,
		version:              1,
		createdAt:            now,
		updatedAt:            now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingRef string,
	farmerID uuid.UUID,
	operatorID uuid.UUID,
	machineID uuid.UUID,
	area string,
	scheduledAt time.Time,
	phase Phase,
	rateUnit machine.RateUnit,
	ratePaise int64,
	estimatedAmountPaise int64,
	finalAmountPaise *int64,
	currency string,
	paymentMode *PaymentMode,
	startTime *time.Time,
	startLocation *GeoPoint,
	endTime *time.Time,
	endLocation *GeoPoint,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:                   id,
		bookingRef:           bookingRef,
		farmerID:             farmerID,
		operatorID:           operatorID,
		machineID:            machineID,
		area:                 area,
		scheduledAt:          scheduledAt,
		phase:                phase,
		rateUnit:             rateUnit,
		ratePaise:            ratePaise,
		estimatedAmountPaise: estimatedAmountPaise,
		finalAmountPaise:     finalAmountPaise,
		currency:             currency,
		paymentMode:          paymentMode,
		startTime:            startTime,
		startLocation:        startLocation,
		endTime:              endTime,
		endLocation:          endLocation,
		version:              version,
		createdAt:            createdAt,
		updatedAt:            updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingRef returns the human-readable reference shown to both parties.
func (b *Booking) BookingRef() string { return b.bookingRef }

// FarmerID returns the creating farmer's user ID.
func (b *Booking) FarmerID() uuid.UUID { return b.farmerID }

// OperatorID returns the targeted operator's user ID.
func (b *Booking) OperatorID() uuid.UUID { return b.operatorID }

// MachineID returns the rented machine's ID.
func (b *Booking) MachineID() uuid.UUID { return b.machineID }

// Area returns the scope of work as stated by the farmer.
func (b *Booking) Area() string { return b.area }

// ScheduledAt returns the requested start time.
func (b *Booking) ScheduledAt() time.Time { return b.scheduledAt }

// Phase returns the current lifecycle phase.
func (b *Booking) Phase() Phase { return b.phase }

// RateUnit returns the billing basis snapshotted at creation.
func (b *Booking) RateUnit() machine.RateUnit { return b.rateUnit }

// RatePaise returns the machine rate snapshotted at creation.
func (b *Booking) RatePaise() int64 { return b.ratePaise }

// EstimatedAmountPaise returns the amount estimated at creation.
func (b *Booking) EstimatedAmountPaise() int64 { return b.estimatedAmountPaise }

// FinalAmountPaise returns the amount finalized at completion, or nil.
func (b *Booking) FinalAmountPaise() *int64 { return b.finalAmountPaise }

// AmountPaise returns the finalized amount once the job is completed,
// otherwise the creation-time estimate.
func (b *Booking) AmountPaise() int64 {
	if b.finalAmountPaise != nil {
		return *b.finalAmountPaise
	}
	return b.estimatedAmountPaise
}

// Currency returns the currency code.
func (b *Booking) Currency() string { return b.currency }

// PaymentMode returns how the booking was settled, or nil if unpaid.
func (b *Booking) PaymentMode() *PaymentMode { return b.paymentMode }

// StartTime returns when the operator started the job, or nil.
func (b *Booking) StartTime() *time.Time { return b.startTime }

// StartLocation returns the location stamp recorded at job start, or nil.
func (b *Booking) StartLocation() *GeoPoint { return b.startLocation }

// EndTime returns when the operator finished the job, or nil.
func (b *Booking) EndTime() *time.Time { return b.endTime }

// EndLocation returns the location stamp recorded at job finish, or nil.
func (b *Booking) EndLocation() *GeoPoint { return b.endLocation }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// requireOperator rejects any actor other than the targeted operator.
func (b *Booking) requireOperator(actorID uuid.UUID) error {
	if actorID != b.operatorID {
		return domain.NewForbiddenError("booking is not assigned to this operator")
	}
	return nil
}

// Accept transitions the booking from pending to assigned.
func (b *Booking) Accept(actorID uuid.UUID) error {
	if err := b.requireOperator(actorID); err != nil {
		return err
	}
	if !b.phase.CanTransitionTo(PhaseAssigned) {
		return domain.NewInvalidStateError(string(b.phase), string(PhaseAssigned))
	}
	b.phase = PhaseAssigned
	b.updatedAt = time.Now().UTC()
	return nil
}

// Reject transitions the booking from pending to the terminal rejected phase.
func (b *Booking) Reject(actorID uuid.UUID) error {
	if err := b.requireOperator(actorID); err != nil {
		return err
	}
	if !b.phase.CanTransitionTo(PhaseRejected) {
		return domain.NewInvalidStateError(string(b.phase), string(PhaseRejected))
	}
	b.phase = PhaseRejected
	b.updatedAt = time.Now().UTC()
	return nil
}

// Start transitions the booking from assigned to in_progress, stamping the
// start time and location exactly once.
func (b *Booking) Start(actorID uuid.UUID, at time.Time, location GeoPoint) error {
	if err := b.requireOperator(actorID); err != nil {
		return err
	}
	if !b.phase.CanTransitionTo(PhaseInProgress) {
		return domain.NewInvalidStateError(string(b.phase), string(PhaseInProgress))
	}
	at = at.UTC()
	b.phase = PhaseInProgress
	b.startTime = &at
	b.startLocation = &location
	b.updatedAt = at
	return nil
}

// Finish transitions the booking from in_progress to completed_unpaid,
// stamping the end time and location and finalizing the amount from the
// elapsed duration.
func (b *Booking) Finish(actorID uuid.UUID, at time.Time, location GeoPoint) error {
	if err := b.requireOperator(actorID); err != nil {
		return err
	}
	if !b.phase.CanTransitionTo(PhaseCompletedUnpaid) {
		return domain.NewInvalidStateError(string(b.phase), string(PhaseCompletedUnpaid))
	}
	at = at.UTC()
	if b.startTime != nil && at.Before(*b.startTime) {
		return domain.NewValidationError("end time cannot be before start time")
	}

	final := FinalAmountPaise(b.rateUnit, b.ratePaise, b.estimatedAmountPaise, at.Sub(*b.startTime))
	b.phase = PhaseCompletedUnpaid
	b.endTime = &at
	b.endLocation = &location
	b.finalAmountPaise = &final
	b.updatedAt = at
	return nil
}

// ConfirmPayment settles a completed booking. Only the creating farmer may
// confirm, and only while payment is pending.
func (b *Booking) ConfirmPayment(actorID uuid.UUID, mode PaymentMode) error {
	if actorID != b.farmerID {
		return domain.NewForbiddenError("booking was not created by this farmer")
	}
	if !mode.IsValid() {
		return domain.NewValidationError(fmt.Sprintf("invalid payment mode: %s", mode))
	}
	if !b.phase.CanTransitionTo(PhaseCompletedPaid) {
		return domain.NewInvalidStateError(string(b.phase), string(PhaseCompletedPaid))
	}
	b.phase = PhaseCompletedPaid
	b.paymentMode = &mode
	b.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
