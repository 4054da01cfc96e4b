package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics this service produces to and consumes from.
const (
	TopicBookingEvents = "booking.events"
	TopicPaymentEvents = "payment.events"
)

// Event types published on booking.events.
const (
	BookingRequested        = "booking.requested"
	BookingAccepted         = "booking.accepted"
	BookingRejected         = "booking.rejected"
	BookingJobStarted       = "booking.job_started"
	BookingJobFinished      = "booking.job_finished"
	BookingPaymentConfirmed = "booking.payment_confirmed"
)

// Event types consumed from payment.events.
const (
	PaymentCaptured = "payment.captured"
)

// BookingRequestedEvent is published when a farmer creates a booking.
type BookingRequestedEvent struct {
	BookingID       uuid.UUID `json:"booking_id"`
	BookingRef      string    `json:"booking_ref"`
	FarmerID        uuid.UUID `json:"farmer_id"`
	OperatorID      uuid.UUID `json:"operator_id"`
	MachineID       uuid.UUID `json:"machine_id"`
	Area            string    `json:"area"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	EstimatedAmount int64     `json:"estimated_amount_paise"`
	Currency        string    `json:"currency"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// BookingDecidedEvent is published when an operator accepts or rejects.
type BookingDecidedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	BookingRef string    `json:"booking_ref"`
	FarmerID   uuid.UUID `json:"farmer_id"`
	OperatorID uuid.UUID `json:"operator_id"`
	Accepted   bool      `json:"accepted"`
	OccurredAt time.Time `json:"occurred_at"`
}

// JobTrackedEvent is published when a job is started or finished, carrying
// the location stamp recorded at that moment.
type JobTrackedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	BookingRef string    `json:"booking_ref"`
	OperatorID uuid.UUID `json:"operator_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	TrackedAt  time.Time `json:"tracked_at"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PaymentConfirmedEvent is published when a completed booking is settled.
type PaymentConfirmedEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	BookingRef  string    `json:"booking_ref"`
	FarmerID    uuid.UUID `json:"farmer_id"`
	OperatorID  uuid.UUID `json:"operator_id"`
	AmountPaise int64     `json:"amount_paise"`
	Currency    string    `json:"currency"`
	PaymentMode string    `json:"payment_mode"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// PaymentCapturedEvent arrives from the online payment gateway when it
// captures a farmer's payment for a completed booking.
type PaymentCapturedEvent struct {
	PaymentID  uuid.UUID `json:"payment_id"`
	BookingRef string    `json:"booking_ref"`
	FarmerID   uuid.UUID `json:"farmer_id"`
	Amount     int64     `json:"amount_paise"`
	Currency   string    `json:"currency"`
	OccurredAt time.Time `json:"occurred_at"`
}
