package booking

import "fmt"

// Phase is the single lifecycle state of a booking. Payment settlement is
// folded into the completed phases so that combinations like a rejected
// booking with a recorded payment cannot be represented.
type Phase string

const (
	PhasePending         Phase = "pending"
	PhaseAssigned        Phase = "assigned"
	PhaseInProgress      Phase = "in_progress"
	PhaseCompletedUnpaid Phase = "completed_unpaid"
	PhaseCompletedPaid   Phase = "completed_paid"
	PhaseRejected        Phase = "rejected"
)

// validTransitions defines the state machine for booking phase transitions.
var validTransitions = map[Phase][]Phase{
	PhasePending:         {PhaseAssigned, PhaseRejected},
	PhaseAssigned:        {PhaseInProgress},
	PhaseInProgress:      {PhaseCompletedUnpaid},
	PhaseCompletedUnpaid: {PhaseCompletedPaid},
	PhaseCompletedPaid:   {},
	PhaseRejected:        {},
}

// IsValid returns true if the phase is a recognized lifecycle phase.
func (p Phase) IsValid() bool {
	_, exists := validTransitions[p]
	return exists
}

// CanTransitionTo returns true if a transition from this phase to the target is allowed.
func (p Phase) CanTransitionTo(target Phase) bool {
	allowed, exists := validTransitions[p]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this phase.
func (p Phase) IsTerminal() bool {
	allowed, exists := validTransitions[p]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// Status returns the job status half of the legacy wire pair.
func (p Phase) Status() string {
	switch p {
	case PhaseCompletedUnpaid, PhaseCompletedPaid:
		return "completed"
	default:
		return string(p)
	}
}

// PaymentStatus returns the payment half of the legacy wire pair. It is
// meaningful only once the job is completed.
func (p Phase) PaymentStatus() string {
	switch p {
	case PhaseCompletedUnpaid:
		return "pending"
	case PhaseCompletedPaid:
		return "paid"
	default:
		return "unset"
	}
}

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// ParsePhase converts a string to a Phase, returning an error if invalid.
func ParsePhase(s string) (Phase, error) {
	phase := Phase(s)
	if !phase.IsValid() {
		return "", fmt.Errorf("invalid booking phase: %s", s)
	}
	return phase, nil
}

// PaymentMode is how the farmer settled a completed booking.
type PaymentMode string

const (
	PaymentModeCash   PaymentMode = "Cash"
	PaymentModeUPI    PaymentMode = "UPI"
	PaymentModeOnline PaymentMode = "Online"
)

// IsValid returns true if the payment mode is recognized.
func (m PaymentMode) IsValid() bool {
	switch m {
	case PaymentModeCash, PaymentModeUPI, PaymentModeOnline:
		return true
	}
	return false
}

// ParsePaymentMode converts a string to a PaymentMode, returning an error if invalid.
func ParsePaymentMode(s string) (PaymentMode, error) {
	mode := PaymentMode(s)
	if !mode.IsValid() {
		return "", fmt.Errorf("invalid payment mode: %s", s)
	}
	return mode, nil
}
