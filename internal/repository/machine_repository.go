package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	machineDomain "github.com/agrirent/service-booking/internal/domain/machine"
	"github.com/agrirent/service-booking/internal/platform/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MachineModel is the GORM model for the machines table.
type MachineModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OperatorID  uuid.UUID `gorm:"type:uuid;index;not null"`
	MachineType string    `gorm:"not null;size:30"`
	RatePaise   int64     `gorm:"not null"`
	RateUnit    string    `gorm:"not null;size:10"`
	IsAvailable bool      `gorm:"not null;default:true;index"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (MachineModel) TableName() string {
	return "machines"
}

// GormMachineRepository is the GORM-based implementation of machine.Repository.
type GormMachineRepository struct {
	db *gorm.DB
}

// NewGormMachineRepository creates a new GormMachineRepository.
func NewGormMachineRepository(db *gorm.DB) *GormMachineRepository {
	return &GormMachineRepository{db: db}
}

// FindByID retrieves a machine by its unique identifier.
func (r *GormMachineRepository) FindByID(ctx context.Context, id uuid.UUID) (*machineDomain.Machine, error) {
	var model MachineModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Machine", id.String())
		}
		return nil, fmt.Errorf("failed to find machine by ID: %w", err)
	}
	return toDomainMachine(&model), nil
}

// FindByOperatorID retrieves all machines owned by an operator.
func (r *GormMachineRepository) FindByOperatorID(ctx context.Context, operatorID uuid.UUID) ([]*machineDomain.Machine, error) {
	var models []MachineModel
	if err := r.db.WithContext(ctx).
		Where("operator_id = ?", operatorID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find operator machines: %w", err)
	}
	return toDomainMachines(models), nil
}

// ListAvailable retrieves available machines with pagination.
func (r *GormMachineRepository) ListAvailable(ctx context.Context, page, limit int) ([]*machineDomain.Machine, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&MachineModel{}).Where("is_available = ?", true).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count available machines: %w", err)
	}

	var models []MachineModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("is_available = ?", true).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list available machines: %w", err)
	}

	return toDomainMachines(models), total, nil
}

// Save persists a new machine.
func (r *GormMachineRepository) Save(ctx context.Context, m *machineDomain.Machine) error {
	if err := r.db.WithContext(ctx).Create(toMachineModel(m)).Error; err != nil {
		return fmt.Errorf("failed to save machine: %w", err)
	}
	return nil
}

// Update persists changes to an existing machine.
func (r *GormMachineRepository) Update(ctx context.Context, m *machineDomain.Machine) error {
	model := toMachineModel(m)
	result := r.db.WithContext(ctx).
		Model(&MachineModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"machine_type": model.MachineType,
			"rate_paise":   model.RatePaise,
			"rate_unit":    model.RateUnit,
			"is_available": model.IsAvailable,
			"updated_at":   model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update machine: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Machine", model.ID.String())
	}
	return nil
}

// Delete removes a machine.
func (r *GormMachineRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&MachineModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete machine: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Machine", id.String())
	}
	return nil
}

// --- Conversion Helpers ---

func toMachineModel(m *machineDomain.Machine) *MachineModel {
	return &MachineModel{
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

func toDomainMachine(m *MachineModel) *machineDomain.Machine {
	return machineDomain.ReconstructMachine(
		m.ID,
		m.OperatorID,
		machineDomain.MachineType(m.MachineType),
		m.RatePaise,
		machineDomain.RateUnit(m.RateUnit),
		m.IsAvailable,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

func toDomainMachines(models []MachineModel) []*machineDomain.Machine {
	machines := make([]*machineDomain.Machine, len(models))
	for i := range models {
		machines[i] = toDomainMachine(&models[i])
	}
	return machines
}
