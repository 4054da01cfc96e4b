package booking

// EarningsSummary holds the derived money figures for one actor's booking
// set. It is recomputed on every read and never stored, so it cannot go
// stale after a transition.
type EarningsSummary struct {
	TotalEarningsPaise int64 `json:"total_earnings_paise"`
	PendingAmountPaise int64 `json:"pending_amount_paise"`
	PaidJobs           int   `json:"paid_jobs"`
	PendingJobs        int   `json:"pending_jobs"`
}

// Summarize computes the earnings figures over a booking set: total
// earnings over settled bookings, pending dues over completed-but-unpaid
// ones. Bookings in any other phase contribute nothing.
func Summarize(bookings []*Booking) EarningsSummary {
	var summary EarningsSummary
	for _, b := range bookings {
		switch b.Phase() {
		case PhaseCompletedPaid:
			summary.TotalEarningsPaise += b.AmountPaise()
			summary.PaidJobs++
		case PhaseCompletedUnpaid:
			summary.PendingAmountPaise += b.AmountPaise()
			summary.PendingJobs++
		}
	}
	return summary
}
