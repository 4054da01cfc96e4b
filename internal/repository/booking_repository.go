package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingDomain "github.com/agrirent/service-booking/internal/domain/booking"
	machineDomain "github.com/agrirent/service-booking/internal/domain/machine"
	"github.com/agrirent/service-booking/internal/platform/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingModel is the GORM model for the bookings table. The lifecycle
// phase is stored as a single column so status and payment state cannot
// drift apart.
type BookingModel struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingRef           string     `gorm:"uniqueIndex;not null;size:20"`
	FarmerID             uuid.UUID  `gorm:"type:uuid;index;not null"`
	OperatorID           uuid.UUID  `gorm:"type:uuid;index;not null"`
	MachineID            uuid.UUID  `gorm:"type:uuid;index;not null"`
	Area                 string     `gorm:"not null;size:200"`
	ScheduledAt          time.Time  `gorm:"not null"`
	Phase                string     `gorm:"not null;size:30;index"`
	RateUnit             string     `gorm:"not null;size:10"`
	RatePaise            int64      `gorm:"not null"`
	EstimatedAmountPaise int64      `gorm:"not null"`
	FinalAmountPaise     *int64     `gorm:""`
	Currency             string     `gorm:"not null;size:3;default:'INR'"`
	PaymentMode          *string    `gorm:"size:10"`
	StartTime            *time.Time `gorm:""`
	StartLatitude        *float64   `gorm:""`
	StartLongitude       *float64   `gorm:""`
	EndTime              *time.Time `gorm:""`
	EndLatitude          *float64   `gorm:""`
	EndLongitude         *float64   `gorm:""`
	Version              int64      `gorm:"not null;default:1"`
	CreatedAt            time.Time  `gorm:"not null"`
	UpdatedAt            time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of booking.Repository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByRef retrieves a booking by its human-readable reference.
func (r *GormBookingRepository) FindByRef(ctx context.Context, ref string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("booking_ref = ?", ref).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", ref)
		}
		return nil, fmt.Errorf("failed to find booking by ref: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByFarmerID retrieves bookings created by a farmer with pagination.
func (r *GormBookingRepository) FindByFarmerID(ctx context.Context, farmerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPaged(ctx, "farmer_id = ?", farmerID, page, limit)
}

// FindByOperatorID retrieves bookings targeted at an operator with pagination.
func (r *GormBookingRepository) FindByOperatorID(ctx context.Context, operatorID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPaged(ctx, "operator_id = ?", operatorID, page, limit)
}

func (r *GormBookingRepository) findPaged(ctx context.Context, cond string, arg uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Where(cond, arg).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where(cond, arg).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// ListByFarmerID retrieves a farmer's full booking set.
func (r *GormBookingRepository) ListByFarmerID(ctx context.Context, farmerID uuid.UUID) ([]*bookingDomain.Booking, error) {
	return r.listAllFor(ctx, "farmer_id = ?", farmerID)
}

// ListByOperatorID retrieves an operator's full booking set.
func (r *GormBookingRepository) ListByOperatorID(ctx context.Context, operatorID uuid.UUID) ([]*bookingDomain.Booking, error) {
	return r.listAllFor(ctx, "operator_id = ?", operatorID)
}

func (r *GormBookingRepository) listAllFor(ctx context.Context, cond string, arg uuid.UUID) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where(cond, arg).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toDomainBookings(models)
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
// Two concurrent transitions on the same booking race on the version
// column; the loser's write matches zero rows and surfaces as a conflict.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// IncrementVersion was called before Update, so the row must still
	// hold the previous version.
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"phase":                  model.Phase,
			"final_amount_paise":     model.FinalAmountPaise,
			"payment_mode":           model.PaymentMode,
			"start_time":             model.StartTime,
			"start_latitude":         model.StartLatitude,
			"start_longitude":        model.StartLongitude,
			"end_time":               model.EndTime,
			"end_latitude":           model.EndLatitude,
			"end_longitude":          model.EndLongitude,
			"version":                model.Version,
			"updated_at":             model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// CountByPhase returns booking counts grouped by phase (admin).
func (r *GormBookingRepository) CountByPhase(ctx context.Context) (map[string]int64, error) {
	type phaseCount struct {
		Phase string
		Count int64
	}
	var results []phaseCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("phase, count(*) as count").
		Group("phase").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by phase: %w", err)
	}

	counts := make(map[string]int64)
	for _, pc := range results {
		counts[pc.Phase] = pc.Count
	}
	return counts, nil
}

// SumPaidAmountPaise returns the sum of settled booking amounts.
func (r *GormBookingRepository) SumPaidAmountPaise(ctx context.Context) (int64, error) {
	var sum *int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("sum(final_amount_paise)").
		Where("phase = ?", string(bookingDomain.PhaseCompletedPaid)).
		Scan(&sum).Error; err != nil {
		return 0, fmt.Errorf("failed to sum paid amounts: %w", err)
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	var mode *string
	if bk.PaymentMode() != nil {
		m := string(*bk.PaymentMode())
		mode = &m
	}

	model := &BookingModel{
		ID:                   bk.ID(),
		BookingRef:           bk.BookingRef(),
		FarmerID:             bk.FarmerID(),
		OperatorID:           bk.OperatorID(),
		MachineID:            bk.MachineID(),
		Area:                 bk.Area(),
		ScheduledAt:          bk.ScheduledAt(),
		Phase:                string(bk.Phase()),
		RateUnit:             string(bk.RateUnit()),
		RatePaise:            bk.RatePaise(),
		EstimatedAmountPaise: bk.EstimatedAmountPaise(),
		FinalAmountPaise:     bk.FinalAmountPaise(),
		Currency:             bk.Currency(),
		PaymentMode:          mode,
		StartTime:            bk.StartTime(),
		EndTime:              bk.EndTime(),
		Version:              bk.Version(),
		CreatedAt:            bk.CreatedAt(),
		UpdatedAt:            bk.UpdatedAt(),
	}

	if loc := bk.StartLocation(); loc != nil {
		model.StartLatitude = &loc.Latitude
		model.StartLongitude = &loc.Longitude
	}
	if loc := bk.EndLocation(); loc != nil {
		model.EndLatitude = &loc.Latitude
		model.EndLongitude = &loc.Longitude
	}
	return model
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	phase, err := bookingDomain.ParsePhase(m.Phase)
	if err != nil {
		return nil, err
	}

	var mode *bookingDomain.PaymentMode
	if m.PaymentMode != nil {
		parsed, err := bookingDomain.ParsePaymentMode(*m.PaymentMode)
		if err != nil {
			return nil, err
		}
		mode = &parsed
	}

	var startLoc, endLoc *bookingDomain.GeoPoint
	if m.StartLatitude != nil && m.StartLongitude != nil {
		startLoc = &bookingDomain.GeoPoint{Latitude: *m.StartLatitude, Longitude: *m.StartLongitude}
	}
	if m.EndLatitude != nil && m.EndLongitude != nil {
		endLoc = &bookingDomain.GeoPoint{Latitude: *m.EndLatitude, Longitude: *m.EndLongitude}
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.BookingRef,
		m.FarmerID,
		m.OperatorID,
		m.MachineID,
		m.Area,
		m.ScheduledAt,
		phase,
		machineDomain.RateUnit(m.RateUnit),
		m.RatePaise,
		m.EstimatedAmountPaise,
		m.FinalAmountPaise,
		m.Currency,
		mode,
		m.StartTime,
		startLoc,
		m.EndTime,
		endLoc,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
