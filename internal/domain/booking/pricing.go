package booking

import (
	"strconv"
	"strings"
	"time"

	"github.com/agrirent/service-booking/internal/domain/machine"
	"github.com/agrirent/service-booking/internal/platform/domain"
)

// PricingParams holds the inputs for estimating a booking amount.
type PricingParams struct {
	RateUnit  machine.RateUnit
	RatePaise int64
	Area      string
}

// PricingStrategy defines the interface for estimating booking amounts at creation.
type PricingStrategy interface {
	// Estimate returns the estimated amount in paise for the given parameters.
	Estimate(params PricingParams) (int64, error)
}

// StandardPricingStrategy implements the marketplace's default estimation.
//
// Per-acre machines are estimated from the acreage the farmer stated in the
// free-text area field. Per-hour machines are estimated at one hour; the
// authoritative amount is recomputed from actual hours when the job
// finishes (see FinalAmountPaise).
type StandardPricingStrategy struct{}

// NewStandardPricingStrategy creates a new StandardPricingStrategy.
func NewStandardPricingStrategy() *StandardPricingStrategy {
	return &StandardPricingStrategy{}
}

// Estimate computes the estimated amount in paise.
func (s *StandardPricingStrategy) Estimate(params PricingParams) (int64, error) {
	if params.RatePaise <= 0 {
		return 0, domain.NewValidationError("machine rate must be positive")
	}

	switch params.RateUnit {
	case machine.RatePerAcre:
		acres := parseAcres(params.Area)
		return int64(float64(params.RatePaise) * acres), nil
	case machine.RatePerHour:
		return params.RatePaise, nil
	default:
		return 0, domain.NewValidationError("unknown rate unit: " + string(params.RateUnit))
	}
}

// FinalAmountPaise computes the amount owed once a job has finished.
// Per-hour machines bill elapsed time rounded up to whole hours; per-acre
// machines keep the creation-time estimate.
func FinalAmountPaise(rateUnit machine.RateUnit, ratePaise, estimatedPaise int64, elapsed time.Duration) int64 {
	if rateUnit != machine.RatePerHour {
		return estimatedPaise
	}

	hours := int64(elapsed / time.Hour)
	if elapsed%time.Hour != 0 || hours == 0 {
		hours++
	}
	return hours * ratePaise
}

// parseAcres extracts the first numeric token from the free-text area field
// ("2 acres", "1.5 acre plot"). When no figure is stated, one acre is assumed.
func parseAcres(area string) float64 {
	for _, token := range strings.Fields(area) {
		if v, err := strconv.ParseFloat(token, 64); err == nil && v > 0 {
			return v
		}
	}
	return 1.0
}
