package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingDomain "github.com/agrirent/service-booking/internal/domain/booking"
	machineDomain "github.com/agrirent/service-booking/internal/domain/machine"
	"github.com/agrirent/service-booking/internal/events"
	"github.com/agrirent/service-booking/internal/platform/domain"
	"github.com/agrirent/service-booking/internal/platform/kafka"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPublisher publishes CloudEvents to a topic. Satisfied by kafka.Producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	MachineID   uuid.UUID `json:"machine_id" binding:"required"`
	Area        string    `json:"area" binding:"required"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

// BookingDTO is the response representation of a booking. Status and
// payment status are the legacy wire pair derived from the single phase.
type BookingDTO struct {
	ID                   uuid.UUID               `json:"id"`
	BookingRef           string                  `json:"booking_ref"`
	FarmerID             uuid.UUID               `json:"farmer_id"`
	OperatorID           uuid.UUID               `json:"operator_id"`
	MachineID            uuid.UUID               `json:"machine_id"`
	Area                 string                  `json:"area"`
	ScheduledAt          time.Time               `json:"scheduled_at"`
	Status               string                  `json:"status"`
	PaymentStatus        string                  `json:"payment_status"`
	PaymentMode          *string                 `json:"payment_mode,omitempty"`
	AmountPaise          int64                   `json:"amount_paise"`
	EstimatedAmountPaise int64                   `json:"estimated_amount_paise"`
	FinalAmountPaise     *int64                  `json:"final_amount_paise,omitempty"`
	Currency             string                  `json:"currency"`
	StartTime            *time.Time              `json:"start_time,omitempty"`
	StartLocation        *bookingDomain.GeoPoint `json:"start_location,omitempty"`
	EndTime              *time.Time              `json:"end_time,omitempty"`
	EndLocation          *bookingDomain.GeoPoint `json:"end_location,omitempty"`
	Version              int64                   `json:"version"`
	CreatedAt            time.Time               `json:"created_at"`
	UpdatedAt            time.Time               `json:"updated_at"`
}

// BookingService is the application service orchestrating the booking lifecycle.
type BookingService struct {
	repo        bookingDomain.Repository
	machineRepo machineDomain.Repository
	pricing     bookingDomain.PricingStrategy
	producer    EventPublisher
	logger      *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.Repository,
	machineRepo machineDomain.Repository,
	pricing bookingDomain.PricingStrategy,
	producer EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:        repo,
		machineRepo: machineRepo,
		pricing:     pricing,
		producer:    producer,
		logger:      logger,
	}
}

// CreateBooking creates a pending booking for the given farmer, targeting
// the operator who owns the requested machine. The amount is estimated
// from the machine's rate at this moment.
func (s *BookingService) CreateBooking(ctx context.Context, farmerID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	m, err := s.machineRepo.FindByID(ctx, req.MachineID)
	if err != nil {
		return nil, err
	}
	if !m.IsAvailable() {
		return nil, domain.NewValidationError("machine is not available for booking")
	}

	estimate, err := s.pricing.Estimate(bookingDomain.PricingParams{
		RateUnit:  m.RateUnit(),
		RatePaise: m.RatePaise(),
		Area:      req.Area,
	})
	if err != nil {
		return nil, err
	}

	bk, err := bookingDomain.NewBooking(
		farmerID,
		m.OperatorID(),
		m.ID(),
		req.Area,
		req.ScheduledAt,
		m.RateUnit(),
		m.RatePaise(),
		estimate,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, bk); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	evt := events.BookingRequestedEvent{
		BookingID:       bk.ID(),
		BookingRef:      bk.BookingRef(),
		FarmerID:        bk.FarmerID(),
		OperatorID:      bk.OperatorID(),
		MachineID:       bk.MachineID(),
		Area:            bk.Area(),
		ScheduledAt:     bk.ScheduledAt(),
		EstimatedAmount: bk.EstimatedAmountPaise(),
		Currency:        bk.Currency(),
		OccurredAt:      time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingRequested, evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// DecideBooking applies the targeted operator's accept or reject decision
// to a pending booking.
func (s *BookingService) DecideBooking(ctx context.Context, operatorID, bookingID uuid.UUID, action string) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var accepted bool
	switch action {
	case "accept":
		err = bk.Accept(operatorID)
		accepted = true
	case "reject":
		err = bk.Reject(operatorID)
	default:
		return nil, domain.NewValidationError(fmt.Sprintf("unknown decision action: %s", action))
	}
	if err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	eventType := events.BookingRejected
	if accepted {
		eventType = events.BookingAccepted
	}
	evt := events.BookingDecidedEvent{
		BookingID:  bk.ID(),
		BookingRef: bk.BookingRef(),
		FarmerID:   bk.FarmerID(),
		OperatorID: bk.OperatorID(),
		Accepted:   accepted,
		OccurredAt: time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, eventType, evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// StartJob transitions an assigned booking to in_progress. The device
// location is resolved inside the transition boundary: a failed resolution
// aborts the transition and the booking stays assigned.
func (s *BookingService) StartJob(ctx context.Context, operatorID, bookingID uuid.UUID, resolver bookingDomain.LocationResolver) (*BookingDTO, error) {
	return s.trackJob(ctx, operatorID, bookingID, resolver, true)
}

// FinishJob transitions an in_progress booking to completed with payment
// pending, finalizing the amount from the elapsed duration. Location
// resolution follows the same abort-on-failure rule as StartJob.
func (s *BookingService) FinishJob(ctx context.Context, operatorID, bookingID uuid.UUID, resolver bookingDomain.LocationResolver) (*BookingDTO, error) {
	return s.trackJob(ctx, operatorID, bookingID, resolver, false)
}

func (s *BookingService) trackJob(ctx context.Context, operatorID, bookingID uuid.UUID, resolver bookingDomain.LocationResolver, start bool) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	loc, err := resolver.Resolve(ctx)
	if err != nil {
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		action := "finish"
		if start {
			action = "start"
		}
		return nil, domain.NewUnavailableError(fmt.Sprintf("location required to %s job: %v", action, err))
	}

	now := time.Now().UTC()
	if start {
		err = bk.Start(operatorID, now, loc)
	} else {
		err = bk.Finish(operatorID, now, loc)
	}
	if err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	eventType := events.BookingJobFinished
	if start {
		eventType = events.BookingJobStarted
	}
	evt := events.JobTrackedEvent{
		BookingID:  bk.ID(),
		BookingRef: bk.BookingRef(),
		OperatorID: bk.OperatorID(),
		Latitude:   loc.Latitude,
		Longitude:  loc.Longitude,
		TrackedAt:  now,
		OccurredAt: time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, eventType, evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// ConfirmPayment settles a completed booking, looked up by its reference.
// Only the creating farmer may confirm.
func (s *BookingService) ConfirmPayment(ctx context.Context, farmerID uuid.UUID, bookingRef, paymentMode string) (*BookingDTO, error) {
	mode, err := bookingDomain.ParsePaymentMode(paymentMode)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	bk, err := s.repo.FindByRef(ctx, bookingRef)
	if err != nil {
		return nil, err
	}

	if err := bk.ConfirmPayment(farmerID, mode); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	evt := events.PaymentConfirmedEvent{
		BookingID:   bk.ID(),
		BookingRef:  bk.BookingRef(),
		FarmerID:    bk.FarmerID(),
		OperatorID:  bk.OperatorID(),
		AmountPaise: bk.AmountPaise(),
		Currency:    bk.Currency(),
		PaymentMode: string(mode),
		OccurredAt:  time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingPaymentConfirmed, evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// GetBooking retrieves a single booking, visible only to its two parties
// and admins.
func (s *BookingService) GetBooking(ctx context.Context, actorID uuid.UUID, isAdmin bool, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && actorID != bk.FarmerID() && actorID != bk.OperatorID() {
		return nil, domain.NewForbiddenError("booking does not involve this user")
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// GetFarmerBookings retrieves paginated bookings created by a farmer.
func (s *BookingService) GetFarmerBookings(ctx context.Context, farmerID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.FindByFarmerID(ctx, farmerID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// GetOperatorJobs retrieves paginated bookings targeted at an operator.
func (s *BookingService) GetOperatorJobs(ctx context.Context, operatorID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.FindByOperatorID(ctx, operatorID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// GetOperatorEarnings recomputes the operator's earnings figures over
// their full booking set.
func (s *BookingService) GetOperatorEarnings(ctx context.Context, operatorID uuid.UUID) (*bookingDomain.EarningsSummary, error) {
	bookings, err := s.repo.ListByOperatorID(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	summary := bookingDomain.Summarize(bookings)
	return &summary, nil
}

// GetFarmerDues recomputes the farmer's dues figures over their full
// booking set. PendingAmountPaise is what the farmer still owes.
func (s *BookingService) GetFarmerDues(ctx context.Context, farmerID uuid.UUID) (*bookingDomain.EarningsSummary, error) {
	bookings, err := s.repo.ListByFarmerID(ctx, farmerID)
	if err != nil {
		return nil, err
	}
	summary := bookingDomain.Summarize(bookings)
	return &summary, nil
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByPhase       map[string]int64 `json:"by_phase"`
	RevenuePaise  int64            `json:"revenue_paise"`
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toBookingDTOs(bookings), total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByPhase(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	revenue, err := s.repo.SumPaidAmountPaise(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute revenue: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByPhase:       counts,
		RevenuePaise:  revenue,
	}, nil
}

// --- Helpers ---

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	var mode *string
	if bk.PaymentMode() != nil {
		m := string(*bk.PaymentMode())
		mode = &m
	}

	return BookingDTO{
		ID:                   bk.ID(),
		BookingRef:           bk.BookingRef(),
		FarmerID:             bk.FarmerID(),
		OperatorID:           bk.OperatorID(),
		MachineID:            bk.MachineID(),
		Area:                 bk.Area(),
		ScheduledAt:          bk.ScheduledAt(),
		Status:               bk.Phase().Status(),
		PaymentStatus:        bk.Phase().PaymentStatus(),
		PaymentMode:          mode,
		AmountPaise:          bk.AmountPaise(),
		EstimatedAmountPaise: bk.EstimatedAmountPaise(),
		FinalAmountPaise:     bk.FinalAmountPaise(),
		Currency:             bk.Currency(),
		StartTime:            bk.StartTime(),
		StartLocation:        bk.StartLocation(),
		EndTime:              bk.EndTime(),
		EndLocation:          bk.EndLocation(),
		Version:              bk.Version(),
		CreatedAt:            bk.CreatedAt(),
		UpdatedAt:            bk.UpdatedAt(),
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}

func (s *BookingService) publishEvent(ctx context.Context, topic, eventType string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent("service-booking", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishEvent(ctx, topic, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
