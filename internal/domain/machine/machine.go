package machine

import (
	"fmt"
	"time"

	"github.com/agrirent/service-booking/internal/platform/domain"
	"github.com/google/uuid"
)

// MachineType classifies a piece of rentable equipment.
type MachineType string

const (
	TypeTractor   MachineType = "Tractor"
	TypeHarvester MachineType = "Harvester"
	TypeRotavator MachineType = "Rotavator"
	TypeSprayer   MachineType = "Sprayer"
	TypeThresher  MachineType = "Thresher"
	TypeOther     MachineType = "Other"
)

// IsValid returns true if the machine type is recognized.
func (t MachineType) IsValid() bool {
	switch t {
	case TypeTractor, TypeHarvester, TypeRotavator, TypeSprayer, TypeThresher, TypeOther:
		return true
	}
	return false
}

// RateUnit is the billing basis for a machine's rate.
type RateUnit string

const (
	RatePerHour RateUnit = "PerHour"
	RatePerAcre RateUnit = "PerAcre"
)

// IsValid returns true if the rate unit is recognized.
func (u RateUnit) IsValid() bool {
	return u == RatePerHour || u == RatePerAcre
}

// ParseRateUnit converts a string to a RateUnit, returning an error if invalid.
func ParseRateUnit(s string) (RateUnit, error) {
	unit := RateUnit(s)
	if !unit.IsValid() {
		return "", fmt.Errorf("invalid rate unit: %s", s)
	}
	return unit, nil
}

// Machine is a piece of equipment an operator offers for rent. The booking
// lifecycle reads its rate and availability; CRUD stays with the operator.
type Machine struct {
	id          uuid.UUID
	operatorID  uuid.UUID
	machineType MachineType
	ratePaise   int64
	rateUnit    RateUnit
	isAvailable bool
	createdAt   time.Time
	updatedAt   time.Time
}

// NewMachine creates a Machine owned by the given operator, available by default.
func NewMachine(operatorID uuid.UUID, machineType MachineType, ratePaise int64, rateUnit RateUnit) (*Machine, error) {
	if operatorID == uuid.Nil {
		return nil, domain.NewValidationError("operator ID is required")
	}
	if !machineType.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid machine type: %s", machineType))
	}
	if ratePaise <= 0 {
		return nil, domain.NewValidationError("rate must be positive")
	}
	if !rateUnit.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid rate unit: %s", rateUnit))
	}

	now := time.Now().UTC()
	return &Machine{
		id:          uuid.New(),
		operatorID:  operatorID,
		machineType: machineType,
		ratePaise:   ratePaise,
		rateUnit:    rateUnit,
		isAvailable: true,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructMachine rebuilds a Machine from persistence data (no validation).
func ReconstructMachine(
	id uuid.UUID,
	operatorID uuid.UUID,
	machineType MachineType,
	ratePaise int64,
	rateUnit RateUnit,
	isAvailable bool,
	createdAt time.Time,
	updatedAt time.Time,
) *Machine {
	return &Machine{
		id:          id,
		operatorID:  operatorID,
		machineType: machineType,
		ratePaise:   ratePaise,
		rateUnit:    rateUnit,
		isAvailable: isAvailable,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// ID returns the machine's unique identifier.
func (m *Machine) ID() uuid.UUID { return m.id }

// OperatorID returns the owning operator's user ID.
func (m *Machine) OperatorID() uuid.UUID { return m.operatorID }

// Type returns the machine type.
func (m *Machine) Type() MachineType { return m.machineType }

// RatePaise returns the rate in paise per rate unit.
func (m *Machine) RatePaise() int64 { return m.ratePaise }

// RateUnit returns the billing basis.
func (m *Machine) RateUnit() RateUnit { return m.rateUnit }

// IsAvailable returns true if the machine can currently be booked.
func (m *Machine) IsAvailable() bool { return m.isAvailable }

// CreatedAt returns the creation timestamp.
func (m *Machine) CreatedAt() time.Time { return m.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (m *Machine) UpdatedAt() time.Time { return m.updatedAt }

// UpdateDetails changes the machine's type and rate.
func (m *Machine) UpdateDetails(machineType MachineType, ratePaise int64, rateUnit RateUnit) error {
	if !machineType.IsValid() {
		return domain.NewValidationError(fmt.Sprintf("invalid machine type: %s", machineType))
	}
	if ratePaise <= 0 {
		return domain.NewValidationError("rate must be positive")
	}
	if !rateUnit.IsValid() {
		return domain.NewValidationError(fmt.Sprintf("invalid rate unit: %s", rateUnit))
	}
	m.machineType = machineType
	m.ratePaise = ratePaise
	m.rateUnit = rateUnit
	m.updatedAt = time.Now().UTC()
	return nil
}

// SetAvailability marks the machine available or offline.
func (m *Machine) SetAvailability(available bool) {
	m.isAvailable = available
	m.updatedAt = time.Now().UTC()
}
