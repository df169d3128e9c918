package skonto

import (
	"time"

	"github.com/shopspring/decimal"
)

// Screen is the editable discount state of one review. It keeps Data, the
// activation toggle and the current edge case consistent with each other.
type Screen struct {
	data     Data
	active   bool
	edgeCase EdgeCase
	today    time.Time
}

// NewScreen classifies data against today and switches the discount on or
// off by default.
func NewScreen(data Data, today time.Time) *Screen {
	ec := Classify(data.DueDate, data.PaymentMethod, today)
	return &Screen{data: data, active: DefaultActive(ec), edgeCase: ec, today: DateOnly(today)}
}

// RestoreScreen rebuilds a screen with a previously chosen activation.
func RestoreScreen(data Data, active bool, today time.Time) *Screen {
	s := NewScreen(data, today)
	s.active = active
	return s
}

func (s *Screen) Data() Data         { return s.data }
func (s *Screen) Active() bool       { return s.active }
func (s *Screen) EdgeCase() EdgeCase { return s.edgeCase }

// SetActive switches the discount on or off.
func (s *Screen) SetActive(active bool) {
	s.active = active
}

// SetSkontoAmount edits the discounted amount. Percentage and saved amount
// follow it.
func (s *Screen) SetSkontoAmount(value decimal.Decimal) {
	s.data = s.data.WithSkontoAmount(value)
}

// SetFullAmount edits the full amount with the percentage held.
func (s *Screen) SetFullAmount(value decimal.Decimal) {
	s.data = s.data.WithFullAmount(value)
}

// SetDueDate edits the due date, recounts the remaining days and
// re-classifies the edge case.
func (s *Screen) SetDueDate(due time.Time) {
	s.data = s.data.WithDueDate(due, s.today)
	s.edgeCase = Classify(s.data.DueDate, s.data.PaymentMethod, s.today)
}

// SavedAmount is what the discount saves.
func (s *Screen) SavedAmount() decimal.Decimal {
	return s.data.SavedAmount()
}

// TotalAmount is the amount to pay given the toggle.
func (s *Screen) TotalAmount() Amount {
	if s.active {
		return s.data.SkontoAmountToPay
	}
	return s.data.FullAmountToPay
}
