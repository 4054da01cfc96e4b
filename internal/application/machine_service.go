package application

import (
	"context"
	"fmt"
	"time"

	machineDomain "github.com/agrirent/service-booking/internal/domain/machine"
	"github.com/agrirent/service-booking/internal/platform/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MachineRequest holds the data for creating or updating a machine.
type MachineRequest struct {
	MachineType string `json:"machine_type" binding:"required"`
	RatePaise   int64  `json:"rate_paise" binding:"required"`
	RateUnit    string `json:"rate_unit" binding:"required"`
}

// MachineDTO is the response representation of a machine.
type MachineDTO struct {
	ID          uuid.UUID `json:"id"`
	OperatorID  uuid.UUID `json:"operator_id"`
	MachineType string    `json:"machine_type"`
	RatePaise   int64     `json:"rate_paise"`
	RateUnit    string    `json:"rate_unit"`
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MachineService handles the operator's machine catalogue.
type MachineService struct {
	repo   machineDomain.Repository
	logger *zap.Logger
}

// NewMachineService creates a new MachineService.
func NewMachineService(repo machineDomain.Repository, logger *zap.Logger) *MachineService {
	return &MachineService{repo: repo, logger: logger}
}

// AddMachine registers a new machine for the operator.
func (s *MachineService) AddMachine(ctx context.Context, operatorID uuid.UUID, req MachineRequest) (*MachineDTO, error) {
	rateUnit, err := machineDomain.ParseRateUnit(req.RateUnit)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	m, err := machineDomain.NewMachine(operatorID, machineDomain.MachineType(req.MachineType), req.RatePaise, rateUnit)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to save machine: %w", err)
	}

	s.logger.Info("machine added",
		zap.String("machine_id", m.ID().String()),
		zap.String("operator_id", operatorID.String()),
	)

	result := toMachineDTO(m)
	return &result, nil
}

// GetOperatorMachines lists all machines owned by the operator.
func (s *MachineService) GetOperatorMachines(ctx context.Context, operatorID uuid.UUID) ([]MachineDTO, error) {
	machines, err := s.repo.FindByOperatorID(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	return toMachineDTOs(machines), nil
}

// ListAvailableMachines lists bookable machines for farmers to browse.
func (s *MachineService) ListAvailableMachines(ctx context.Context, page, limit int) (*domain.PaginatedResult[MachineDTO], error) {
	machines, total, err := s.repo.ListAvailable(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toMachineDTOs(machines), total, page, limit)
	return &result, nil
}

// UpdateMachine changes a machine's type and rate. Owner only.
func (s *MachineService) UpdateMachine(ctx context.Context, operatorID, machineID uuid.UUID, req MachineRequest) (*MachineDTO, error) {
	m, err := s.ownedMachine(ctx, operatorID, machineID)
	if err != nil {
		return nil, err
	}

	rateUnit, err := machineDomain.ParseRateUnit(req.RateUnit)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	if err := m.UpdateDetails(machineDomain.MachineType(req.MachineType), req.RatePaise, rateUnit); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to update machine: %w", err)
	}

	result := toMachineDTO(m)
	return &result, nil
}

// DeleteMachine removes a machine from the catalogue. Owner only.
func (s *MachineService) DeleteMachine(ctx context.Context, operatorID, machineID uuid.UUID) error {
	if _, err := s.ownedMachine(ctx, operatorID, machineID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, machineID); err != nil {
		return fmt.Errorf("failed to delete machine: %w", err)
	}
	return nil
}

// SetAvailability marks a machine available or offline. Owner only.
func (s *MachineService) SetAvailability(ctx context.Context, operatorID, machineID uuid.UUID, available bool) (*MachineDTO, error) {
	m, err := s.ownedMachine(ctx, operatorID, machineID)
	if err != nil {
		return nil, err
	}

	m.SetAvailability(available)
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to update machine availability: %w", err)
	}

	result := toMachineDTO(m)
	return &result, nil
}

func (s *MachineService) ownedMachine(ctx context.Context, operatorID, machineID uuid.UUID) (*machineDomain.Machine, error) {
	m, err := s.repo.FindByID(ctx, machineID)
	if err != nil {
		return nil, err
	}
	if m.OperatorID() != operatorID {
		return nil, domain.NewForbiddenError("machine does not belong to this operator")
	}
	return m, nil
}

func toMachineDTO(m *machineDomain.Machine) MachineDTO {
	return MachineDTO{
		ID:          m.ID(),
		OperatorID:  m.OperatorID(),
		MachineType: string(m.Type()),
		RatePaise:   m.RatePaise(),
		RateUnit:    string(m.RateUnit()),
		IsAvailable: m.IsAvailable(),
		CreatedAt:   m.CreatedAt(),
		UpdatedAt:   m.UpdatedAt(),
	}
}

func toMachineDTOs(machines []*machineDomain.Machine) []MachineDTO {
	dtos := make([]MachineDTO, len(machines))
	for i, m := range machines {
		dtos[i] = toMachineDTO(m)
	}
	return dtos
}
