package application

import (
	"context"
	"testing"
	"time"

	bookingDomain "github.com/agrirent/service-booking/internal/domain/booking"
	machineDomain "github.com/agrirent/service-booking/internal/domain/machine"
	"github.com/agrirent/service-booking/internal/events"
	"github.com/agrirent/service-booking/internal/platform/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type bookingServiceFixture struct {
	service    *BookingService
	repo       *fakeBookingRepo
	machines   *fakeMachineRepo
	publisher  *capturingPublisher
	farmerID   uuid.UUID
	operatorID uuid.UUID
	machineID  uuid.UUID
}

func newBookingServiceFixture(t *testing.T, rateUnit machineDomain.RateUnit, ratePaise int64) *bookingServiceFixture {
	t.Helper()

	repo := newFakeBookingRepo()
	machines := newFakeMachineRepo()
	publisher := &capturingPublisher{}
	operatorID := uuid.New()

	m, err := machineDomain.NewMachine(operatorID, machineDomain.TypeTractor, ratePaise, rateUnit)
	require.NoError(t, err)
	require.NoError(t, machines.Save(context.Background(), m))

	return &bookingServiceFixture{
		service: NewBookingService(
			repo,
			machines,
			bookingDomain.NewStandardPricingStrategy(),
			publisher,
			zap.NewNop(),
		),
		repo:       repo,
		machines:   machines,
		publisher:  publisher,
		farmerID:   uuid.New(),
		operatorID: operatorID,
		machineID:  m.ID(),
	}
}

func (f *bookingServiceFixture) createBooking(t *testing.T) *BookingDTO {
	t.Helper()
	dto, err := f.service.CreateBooking(context.Background(), f.farmerID, CreateBookingRequest{
		MachineID:   f.machineID,
		Area:        "2 acres",
		ScheduledAt: time.Now().UTC().Add(time.Hour),
	})
	require.NoError(t, err)
	return dto
}

func TestBookingService_FullLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newBookingServiceFixture(t, machineDomain.RatePerHour, 30000)

	// farmer books a ₹300/hr tractor: estimate is one hour
	dto := f.createBooking(t)
	assert.Equal(t, "pending", dto.Status)
	assert.Equal(t, "unset", dto.PaymentStatus)
	assert.Equal(t, f.operatorID, dto.OperatorID)
	assert.Equal(t, int64(30000), dto.AmountPaise)

	dto, err := f.service.DecideBooking(ctx, f.operatorID, dto.ID, "accept")
	require.NoError(t, err)
	assert.Equal(t, "assigned", dto.Status)

	dto, err = f.service.StartJob(ctx, f.operatorID, dto.ID, bookingDomain.ResolverFor(18.52, 73.85))
	require.NoError(t, err)
	assert.Equal(t, "in_progress", dto.Status)
	require.NotNil(t, dto.StartTime)
	require.NotNil(t, dto.StartLocation)
	assert.Equal(t, 18.52, dto.StartLocation.Latitude)

	dto, err = f.service.FinishJob(ctx, f.operatorID, dto.ID, bookingDomain.ResolverFor(18.53, 73.86))
	require.NoError(t, err)
	assert.Equal(t, "completed", dto.Status)
	assert.Equal(t, "pending", dto.PaymentStatus)
	require.NotNil(t, dto.EndTime)
	require.NotNil(t, dto.FinalAmountPaise)
	assert.Equal(t, int64(30000), *dto.FinalAmountPaise)

	// dues visible to the farmer, earnings still pending for the operator
	dues, err := f.service.GetFarmerDues(ctx, f.farmerID)
	require.NoError(t, err)
	assert.Equal(t, int64(30000), dues.PendingAmountPaise)
	assert.Equal(t, int64(0), dues.TotalEarningsPaise)

	dto, err = f.service.ConfirmPayment(ctx, f.farmerID, dto.BookingRef, "UPI")
	require.NoError(t, err)
	assert.Equal(t, "paid", dto.PaymentStatus)
	require.NotNil(t, dto.PaymentMode)
	assert.Equal(t, "UPI", *dto.PaymentMode)

	earnings, err := f.service.GetOperatorEarnings(ctx, f.operatorID)
	require.NoError(t, err)
	assert.Equal(t, int64(30000), earnings.TotalEarningsPaise)
	assert.Equal(t, int64(0), earnings.PendingAmountPaise)
	assert.Equal(t, 1, earnings.PaidJobs)

	assert.Equal(t, []string{
		events.BookingRequested,
		events.BookingAccepted,
		events.BookingJobStarted,
		events.BookingJobFinished,
		events.BookingPaymentConfirmed,
	}, f.publisher.types())
}

func TestBookingService_RejectFlow(t *testing.T) {
	ctx := context.Background()
	f := newBookingServiceFixture(t, machineDomain.RatePerHour, 30000)
	dto := f.createBooking(t)

	dto, err := f.service.DecideBooking(ctx, f.operatorID, dto.ID, "reject")
	require.NoError(t, err)
	assert.Equal(t, "rejected", dto.Status)

	// rejected is terminal
	var appErr *domain.AppError
	_, err = f.service.StartJob(ctx, f.operatorID, dto.ID, bookingDomain.ResolverFor(18.52, 73.85))
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.CodeInvalidState, appErr.Code)

	_, err = f.service.ConfirmPayment(ctx, f.farmerID, dto.BookingRef, "Cash")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.CodeInvalidState, appErr.Code)

	// a rejected booking never contributes to dues
	dues, err := f.service.GetFarmerDues(ctx, f.farmerID)
	require.NoError(t, err)
	assert.Zero(t, dues.PendingAmountPaise)
}

func TestBookingService_DecideUnknownAction(t *testing.T) {
	ctx := context.Background()
	f := newBookingServiceFixture(t, machineDomain.RatePerHour, 30000)
	dto := f.createBooking(t)

	var appErr *domain.AppError
	_, err := f.service.DecideBooking(ctx, f.operatorID, dto.ID, "approve")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.CodeValidation, appErr.Code)
}

func TestBookingService_DecideWrongOperator(t *testing.T) {
	ctx := context.Background()
	f := newBookingServiceFixture(t, machineDomain.RatePerHour, 30000)
	dto := f.createBooking(t)

	var appErr *domain.AppError
	_, err := f.service.DecideBooking(ctx, uuid.New(), dto.ID, "accept")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.CodeForbidden, appErr.Code)

	// booking untouched
	kept, err := f.service.GetBooking(ctx, f.farmerID, false, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "pending", kept.Status)
}

func TestBookingService_StartWithoutLocationAborts(t *testing.T) {
	ctx := context.Background()
	f := newBookingServiceFixture(t, machineDomain.RatePerHour, 30000)
	dto := f.createBooking(t)

	_, err := f.service.DecideBooking(ctx, f.operatorID, dto.ID, "accept")
	require.NoError(t, err)

	var appErr *domain.AppError
	_, err = f.service.StartJob(ctx, f.operatorID, dto.ID, failingResolver{})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.CodeUnavailable, appErr.Code)

	// the transition did not happen and no stamp was recorded
	kept, err := f.service.GetBooking(ctx, f.operatorID, false, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "assigned", kept.Status)
	assert.Nil(t, kept.StartTime)
	assert.Nil(t, kept.StartLocation)
}

func TestBookingService_StartWithInvalidCoordinates(t *testing.T) {
	ctx := context.Background()
	f := newBookingServiceFixture(t, machineDomain.RatePerHour, 30000)
	dto := f.createBooking(t)

	_, err := f.service.DecideBooking(ctx, f.operatorID, dto.ID, "accept")
	require.NoError(t, err)

	var appErr *domain.AppError
	_, err = f.service.StartJob(ctx, f.operatorID, dto.ID, bookingDomain.ResolverFor(0, 0))
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.CodeUnavailable, appErr.Code)
}

func TestBookingService_CreateWithUnavailableMachine(t *testing.T) {
	ctx := context.Background()
	f := newBookingServiceFixture(t, machineDomain.RatePerHour, 30000)

	m, err := f.machines.FindByID(ctx, f.machineID)
	require.NoError(t, err)
	m.SetAvailability(false)
	require.NoError(t, f.machines.Update(ctx, m))

	var appErr *domain.AppError
	_, err = f.service.CreateBooking(ctx, f.farmerID, CreateBookingRequest{
		MachineID:   f.machineID,
		Area:        "2 acres",
		ScheduledAt: time.Now().UTC().Add(time.Hour),
	})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.CodeValidation, appErr.Code)
}

func TestBookingService_CreateWithUnknownMachine(t *testing.T) {
	ctx := context.Background()
	f := newBookingServiceFixture(t, machineDomain.RatePerHour, 30000)

	var appErr *domain.AppError
	_, err := f.service.CreateBooking(ctx, f.farmerID, CreateBookingRequest{
		MachineID:   uuid.New(),
		Area:        "2 acres",
		ScheduledAt: time.Now().UTC().Add(time.Hour),
	})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.CodeNotFound, appErr.Code)
}

func TestBookingService_PerAcreEstimate(t *testing.T) {
	f := newBookingServiceFixture(t, machineDomain.RatePerAcre, 50000)
	dto := f.createBooking(t)
	assert.Equal(t, int64(100000), dto.AmountPaise)
}

func TestBookingService_ConflictSurfaces(t *testing.T) {
	ctx := context.Background()
	f := newBookingServiceFixture(t, machineDomain.RatePerHour, 30000)
	dto := f.createBooking(t)

	f.repo.updateErr = domain.NewConflictError("booking was modified by another transaction")

	var appErr *domain.AppError
	_, err := f.service.DecideBooking(ctx, f.operatorID, dto.ID, "accept")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.CodeConflict, appErr.Code)
}

func TestBookingService_ConfirmPaymentWrongFarmer(t *testing.T) {
	ctx := context.Background()
	f := newBookingServiceFixture(t, machineDomain.RatePerHour, 30000)
	dto := f.createBooking(t)

	_, err := f.service.DecideBooking(ctx, f.operatorID, dto.ID, "accept")
	require.NoError(t, err)
	_, err = f.service.StartJob(ctx, f.operatorID, dto.ID, bookingDomain.ResolverFor(18.52, 73.85))
	require.NoError(t, err)
	_, err = f.service.FinishJob(ctx, f.operatorID, dto.ID, bookingDomain.ResolverFor(18.53, 73.86))
	require.NoError(t, err)

	var appErr *domain.AppError
	_, err = f.service.ConfirmPayment(ctx, uuid.New(), dto.BookingRef, "Cash")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.CodeForbidden, appErr.Code)
}

func TestBookingService_ConfirmPaymentInvalidMode(t *testing.T) {
	ctx := context.Background()
	f := newBookingServiceFixture(t, machineDomain.RatePerHour, 30000)
	dto := f.createBooking(t)

	var appErr *domain.AppError
	_, err := f.service.ConfirmPayment(ctx, f.farmerID, dto.BookingRef, "Barter")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.CodeValidation, appErr.Code)
}

func TestBookingService_GetBookingVisibility(t *testing.T) {
	ctx := context.Background()
	f := newBookingServiceFixture(t, machineDomain.RatePerHour, 30000)
	dto := f.createBooking(t)

	_, err := f.service.GetBooking(ctx, f.farmerID, false, dto.ID)
	require.NoError(t, err)
	_, err = f.service.GetBooking(ctx, f.operatorID, false, dto.ID)
	require.NoError(t, err)
	_, err = f.service.GetBooking(ctx, uuid.New(), true, dto.ID)
	require.NoError(t, err)

	var appErr *domain.AppError
	_, err = f.service.GetBooking(ctx, uuid.New(), false, dto.ID)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.CodeForbidden, appErr.Code)
}

func TestBookingService_Stats(t *testing.T) {
	ctx := context.Background()
	f := newBookingServiceFixture(t, machineDomain.RatePerHour, 30000)

	dto := f.createBooking(t)
	_, err := f.service.DecideBooking(ctx, f.operatorID, dto.ID, "accept")
	require.NoError(t, err)
	_, err = f.service.StartJob(ctx, f.operatorID, dto.ID, bookingDomain.ResolverFor(18.52, 73.85))
	require.NoError(t, err)
	_, err = f.service.FinishJob(ctx, f.operatorID, dto.ID, bookingDomain.ResolverFor(18.53, 73.86))
	require.NoError(t, err)
	_, err = f.service.ConfirmPayment(ctx, f.farmerID, dto.BookingRef, "Cash")
	require.NoError(t, err)

	f.createBooking(t)

	stats, err := f.service.GetBookingStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalBookings)
	assert.Equal(t, int64(1), stats.ByPhase["completed_paid"])
	assert.Equal(t, int64(1), stats.ByPhase["pending"])
	assert.Equal(t, int64(30000), stats.RevenuePaise)
}
