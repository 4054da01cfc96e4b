package application

import (
	"context"
	"errors"
	"sync"

	bookingDomain "github.com/agrirent/service-booking/internal/domain/booking"
	machineDomain "github.com/agrirent/service-booking/internal/domain/machine"
	"github.com/agrirent/service-booking/internal/platform/domain"
	"github.com/agrirent/service-booking/internal/platform/kafka"
	"github.com/google/uuid"
)

// fakeBookingRepo is an in-memory booking repository for service tests.
type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookingDomain.Booking
	saveErr  error
	// updateErr, when set, is returned by Update without persisting,
	// standing in for a lost optimistic-lock race.
	updateErr error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*bookingDomain.Booking)}
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bk, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("booking", id.String())
	}
	return bk, nil
}

func (r *fakeBookingRepo) FindByRef(_ context.Context, ref string) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, bk := range r.bookings {
		if bk.BookingRef() == ref {
			return bk, nil
		}
	}
	return nil, domain.NewNotFoundError("booking", ref)
}

func (r *fakeBookingRepo) FindByFarmerID(ctx context.Context, farmerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	all, err := r.ListByFarmerID(ctx, farmerID)
	return all, int64(len(all)), err
}

func (r *fakeBookingRepo) FindByOperatorID(ctx context.Context, operatorID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	all, err := r.ListByOperatorID(ctx, operatorID)
	return all, int64(len(all)), err
}

func (r *fakeBookingRepo) ListByFarmerID(_ context.Context, farmerID uuid.UUID) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.FarmerID() == farmerID {
			out = append(out, bk)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) ListByOperatorID(_ context.Context, operatorID uuid.UUID) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.OperatorID() == operatorID {
			out = append(out, bk)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) ListAll(_ context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		out = append(out, bk)
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) CountByPhase(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, bk := range r.bookings {
		counts[bk.Phase().String()]++
	}
	return counts, nil
}

func (r *fakeBookingRepo) SumPaidAmountPaise(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int64
	for _, bk := range r.bookings {
		if bk.Phase() == bookingDomain.PhaseCompletedPaid {
			sum += bk.AmountPaise()
		}
	}
	return sum, nil
}

func (r *fakeBookingRepo) Save(_ context.Context, b *bookingDomain.Booking) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[b.ID()] = b
	return nil
}

func (r *fakeBookingRepo) Update(_ context.Context, b *bookingDomain.Booking) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[b.ID()]; !ok {
		return domain.NewNotFoundError("booking", b.ID().String())
	}
	r.bookings[b.ID()] = b
	return nil
}

// fakeMachineRepo is an in-memory machine repository for service tests.
type fakeMachineRepo struct {
	mu       sync.Mutex
	machines map[uuid.UUID]*machineDomain.Machine
}

func newFakeMachineRepo() *fakeMachineRepo {
	return &fakeMachineRepo{machines: make(map[uuid.UUID]*machineDomain.Machine)}
}

func (r *fakeMachineRepo) FindByID(_ context.Context, id uuid.UUID) (*machineDomain.Machine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.machines[id]
	if !ok {
		return nil, domain.NewNotFoundError("machine", id.String())
	}
	return m, nil
}

func (r *fakeMachineRepo) FindByOperatorID(_ context.Context, operatorID uuid.UUID) ([]*machineDomain.Machine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*machineDomain.Machine
	for _, m := range r.machines {
		if m.OperatorID() == operatorID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMachineRepo) ListAvailable(_ context.Context, page, limit int) ([]*machineDomain.Machine, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*machineDomain.Machine
	for _, m := range r.machines {
		if m.IsAvailable() {
			out = append(out, m)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeMachineRepo) Save(_ context.Context, m *machineDomain.Machine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.machines[m.ID()] = m
	return nil
}

func (r *fakeMachineRepo) Update(_ context.Context, m *machineDomain.Machine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.machines[m.ID()]; !ok {
		return domain.NewNotFoundError("machine", m.ID().String())
	}
	r.machines[m.ID()] = m
	return nil
}

func (r *fakeMachineRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.machines[id]; !ok {
		return domain.NewNotFoundError("machine", id.String())
	}
	delete(r.machines, id)
	return nil
}

// capturingPublisher records published events instead of hitting a broker.
type capturingPublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
}

func (p *capturingPublisher) PublishEvent(_ context.Context, _ string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// failingResolver simulates a device that cannot produce a location fix.
type failingResolver struct{}

func (failingResolver) Resolve(context.Context) (bookingDomain.GeoPoint, error) {
	return bookingDomain.GeoPoint{}, errors.New("gps timeout")
}
