package skonto

import "time"

// EdgeCase explains why a discount cannot be applied the normal way.
type EdgeCase string

const (
	EdgeCaseNone           EdgeCase = ""
	EdgeCaseExpired        EdgeCase = "skonto_expired"
	EdgeCasePayByCashToday EdgeCase = "pay_by_cash_today"
	EdgeCasePayByCashOnly  EdgeCase = "pay_by_cash_only"
	EdgeCaseLastDay        EdgeCase = "skonto_last_day"
)

// Classify maps a due date and payment method to an edge case. Priority:
// expired, cash due today, cash, due today, none. Dates are compared by
// calendar day.
func Classify(dueDate time.Time, method PaymentMethod, today time.Time) EdgeCase {
	due, now := DateOnly(dueDate), DateOnly(today)
	switch {
	case due.Before(now):
		return EdgeCaseExpired
	case method == PaymentMethodCash && due.Equal(now):
		return EdgeCasePayByCashToday
	case method == PaymentMethodCash:
		return EdgeCasePayByCashOnly
	case due.Equal(now):
		return EdgeCaseLastDay
	default:
		return EdgeCaseNone
	}
}

// DefaultActive reports whether the discount starts switched on for an edge
// case.
func DefaultActive(ec EdgeCase) bool {
	return ec != EdgeCaseExpired && ec != EdgeCasePayByCashOnly
}
