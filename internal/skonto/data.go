// Package skonto models early-payment discounts (Skonto): the discount data
// read from extractions, its validation, the edge-case classifier and the
// editable screen state.
package skonto

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"payreview/internal/money"
)

// Field names inside a skontoDiscounts row.
const (
	FieldDueDate                        = "skontoDueDate"
	FieldDueDateCalculated              = "skontoDueDateCalculated"
	FieldAmountToPay                    = "skontoAmountToPay"
	FieldAmountToPayCalculated          = "skontoAmountToPayCalculated"
	FieldRemainingDays                  = "skontoRemainingDays"
	FieldPercentageDiscounted           = "skontoPercentageDiscounted"
	FieldPercentageDiscountedCalculated = "skontoPercentageDiscountedCalculated"
	FieldAmountDiscounted               = "skontoAmountDiscounted"
	FieldAmountDiscountedCalculated     = "skontoAmountDiscountedCalculated"
	FieldPaymentMethod                  = "skontoPaymentMethod"
)

// DateLayout is the wire format of due dates.
const DateLayout = "2006-01-02"

// PaymentMethod is the payment rail a discount is tied to.
type PaymentMethod string

const (
	PaymentMethodUnspecified PaymentMethod = "Unspecified"
	PaymentMethodCash        PaymentMethod = "Cash"
	PaymentMethodPayPal      PaymentMethod = "PayPal"
	PaymentMethodGiroPay     PaymentMethod = "GiroPay"
	PaymentMethodTransfer    PaymentMethod = "Transfer"
	PaymentMethodCard        PaymentMethod = "Card"
	PaymentMethodDirectDebit PaymentMethod = "DirectDebit"
)

var paymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodPayPal,
	PaymentMethodGiroPay,
	PaymentMethodTransfer,
	PaymentMethodCard,
	PaymentMethodDirectDebit,
}

// ParsePaymentMethod maps a wire value to a PaymentMethod, ignoring case.
// Unknown values are Unspecified.
func ParsePaymentMethod(s string) PaymentMethod {
	s = strings.TrimSpace(s)
	for _, m := range paymentMethods {
		if strings.EqualFold(s, string(m)) {
			return m
		}
	}
	return PaymentMethodUnspecified
}

// Amount is a monetary value with its currency.
type Amount struct {
	Value        decimal.Decimal `json:"value"`
	CurrencyCode string          `json:"currency_code"`
}

// String renders the amount in the "<amount>:<currency>" wire format.
func (a Amount) String() string {
	return money.FormatPrice(a.Value, a.CurrencyCode)
}

// Data is one early-payment discount offer.
type Data struct {
	PercentageDiscounted decimal.Decimal `json:"percentage_discounted"`
	SkontoAmountToPay    Amount          `json:"skonto_amount_to_pay"`
	FullAmountToPay      Amount          `json:"full_amount_to_pay"`
	AmountDiscounted     *Amount         `json:"amount_discounted,omitempty"`
	RemainingDays        int             `json:"remaining_days"`
	DueDate              time.Time       `json:"due_date"`
	PaymentMethod        PaymentMethod   `json:"payment_method"`
}

// WithSkontoAmount returns a copy with the discounted amount set to value and
// the percentage recomputed against the full amount. The percentage is 100
// when the full amount is zero.
func (d Data) WithSkontoAmount(value decimal.Decimal) Data {
	d.SkontoAmountToPay.Value = value
	d.PercentageDiscounted = percentageOf(value, d.FullAmountToPay.Value)
	d.refreshAmountDiscounted()
	return d
}

// WithFullAmount returns a copy with the full amount set to value. The
// percentage is held and the discounted amount follows it.
func (d Data) WithFullAmount(value decimal.Decimal) Data {
	d.FullAmountToPay.Value = value
	factor := decimal.NewFromInt(1).Sub(d.PercentageDiscounted.Div(money.Hundred))
	d.SkontoAmountToPay.Value = value.Mul(factor).Round(2)
	d.refreshAmountDiscounted()
	return d
}

// WithDueDate returns a copy with a new due date and the remaining days
// counted from today.
func (d Data) WithDueDate(due, today time.Time) Data {
	d.DueDate = DateOnly(due)
	d.RemainingDays = DaysBetween(today, due)
	return d
}

// SavedAmount is the difference between the full and discounted amounts,
// never negative.
func (d Data) SavedAmount() decimal.Decimal {
	return money.NonNegative(d.FullAmountToPay.Value.Sub(d.SkontoAmountToPay.Value))
}

func (d *Data) refreshAmountDiscounted() {
	if d.AmountDiscounted == nil {
		return
	}
	d.AmountDiscounted = &Amount{Value: d.SavedAmount(), CurrencyCode: d.AmountDiscounted.CurrencyCode}
}

func percentageOf(skontoAmount, fullAmount decimal.Decimal) decimal.Decimal {
	if fullAmount.IsZero() {
		return money.Hundred
	}
	p := money.Hundred.Mul(decimal.NewFromInt(1).Sub(skontoAmount.Div(fullAmount))).Round(2)
	return money.Clamp(p, decimal.Zero, money.Hundred)
}

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the absolute number of calendar days between a and b.
func DaysBetween(a, b time.Time) int {
	days := int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}
