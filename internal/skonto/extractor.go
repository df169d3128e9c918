package skonto

import (
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"payreview/internal/domain"
	"payreview/internal/money"
)

// Extract builds Data from the first skontoDiscounts row. It fails with the
// same errors as Validate when a mandatory field is missing. The full amount
// comes from the amountToPay extraction; when that is unusable it is derived
// from the discounted amount and percentage.
func Extract(extractions map[string]domain.Extraction, compounds map[string]domain.CompoundExtraction) (*Data, error) {
	if err := Validate(compounds); err != nil {
		return nil, err
	}
	row := compounds[domain.CompoundSkontoDiscounts].Rows[0]

	dueRaw, _ := lookup(row, FieldDueDate, FieldDueDateCalculated)
	amountRaw, _ := lookup(row, FieldAmountToPay, FieldAmountToPayCalculated)
	daysRaw, _ := lookup(row, FieldRemainingDays)
	pctRaw, _ := lookup(row, FieldPercentageDiscounted, FieldPercentageDiscountedCalculated)

	skontoAmount, currency := money.PriceOrZero(amountRaw.Value)
	percentage, err := money.ParsePercentage(pctRaw.Value)
	if err != nil {
		percentage = decimal.Zero
	}

	full, fullCurrency := decimal.Zero, ""
	if e, ok := extractions[domain.ExtractionAmountToPay]; ok {
		full, fullCurrency = money.PriceOrZero(e.Value)
	}
	if full.IsZero() && percentage.LessThan(money.Hundred) {
		factor := decimal.NewFromInt(1).Sub(percentage.Div(money.Hundred))
		full = skontoAmount.Div(factor).Round(2)
	}
	if currency == "" {
		currency = fullCurrency
	}
	if currency == "" {
		currency = money.DefaultCurrency
	}

	data := &Data{
		PercentageDiscounted: percentage,
		SkontoAmountToPay:    Amount{Value: skontoAmount, CurrencyCode: currency},
		FullAmountToPay:      Amount{Value: full, CurrencyCode: currency},
		RemainingDays:        money.ParseQuantity(daysRaw.Value),
		DueDate:              parseDate(dueRaw.Value),
		PaymentMethod:        PaymentMethodUnspecified,
	}
	if e, ok := lookup(row, FieldAmountDiscounted, FieldAmountDiscountedCalculated); ok {
		v, c := money.PriceOrZero(e.Value)
		if c == "" {
			c = currency
		}
		data.AmountDiscounted = &Amount{Value: v, CurrencyCode: c}
	}
	if e, ok := lookup(row, FieldPaymentMethod); ok {
		data.PaymentMethod = ParsePaymentMethod(e.Value)
	}
	return data, nil
}

// parseDate reads a YYYY-MM-DD date. Malformed dates become the zero time,
// which classifies as expired.
func parseDate(s string) time.Time {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}

// UpdateExtractions writes data back into every skontoDiscounts row. The
// plain field name is preferred over its Calculated variant; a field whose
// value did not change keeps its original string. Other compounds pass
// through untouched.
func UpdateExtractions(compounds map[string]domain.CompoundExtraction, data Data) map[string]domain.CompoundExtraction {
	out := make(map[string]domain.CompoundExtraction, len(compounds))
	for k, v := range compounds {
		out[k] = v
	}
	c, ok := compounds[domain.CompoundSkontoDiscounts]
	if !ok {
		return out
	}

	rows := make([]map[string]domain.Extraction, len(c.Rows))
	for i, src := range c.Rows {
		row := domain.CloneRow(src)
		writeField(row, money.FormatPercentage(data.PercentageDiscounted), samePercentage(data.PercentageDiscounted),
			FieldPercentageDiscounted, FieldPercentageDiscountedCalculated)
		writeField(row, data.SkontoAmountToPay.String(), sameAmount(data.SkontoAmountToPay),
			FieldAmountToPay, FieldAmountToPayCalculated)
		writeField(row, strconv.Itoa(data.RemainingDays), sameInt(data.RemainingDays),
			FieldRemainingDays)
		writeField(row, formatDate(data.DueDate), sameDate(data.DueDate),
			FieldDueDate, FieldDueDateCalculated)
		if data.AmountDiscounted != nil && hasKey(row, FieldAmountDiscounted, FieldAmountDiscountedCalculated) {
			writeField(row, data.AmountDiscounted.String(), sameAmount(*data.AmountDiscounted),
				FieldAmountDiscounted, FieldAmountDiscountedCalculated)
		}
		rows[i] = row
	}
	out[domain.CompoundSkontoDiscounts] = domain.CompoundExtraction{Name: c.Name, Rows: rows}
	return out
}

// writeField sets the key lookup reads from: the first of names with a
// non-blank value, else the first existing key, else it inserts names[0].
func writeField(row map[string]domain.Extraction, value string, same func(string) bool, names ...string) {
	key, ok := filledKey(row, names...)
	if !ok {
		key, ok = existingKey(row, names...)
	}
	if !ok {
		row[names[0]] = domain.Extraction{Name: names[0], Value: value, Entity: entityFor(names[0])}
		return
	}
	if e := row[key]; !same(e.Value) {
		row[key] = e.WithValue(value)
	}
}

func filledKey(row map[string]domain.Extraction, names ...string) (string, bool) {
	return lo.Find(names, func(n string) bool {
		e, ok := row[n]
		return ok && strings.TrimSpace(e.Value) != ""
	})
}

func existingKey(row map[string]domain.Extraction, names ...string) (string, bool) {
	return lo.Find(names, func(n string) bool {
		_, ok := row[n]
		return ok
	})
}

func hasKey(row map[string]domain.Extraction, names ...string) bool {
	_, ok := existingKey(row, names...)
	return ok
}

func entityFor(field string) string {
	switch field {
	case FieldDueDate:
		return "date"
	case FieldRemainingDays, FieldPercentageDiscounted:
		return "numeric"
	default:
		return "amount"
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func samePercentage(p decimal.Decimal) func(string) bool {
	return func(s string) bool {
		v, err := money.ParsePercentage(s)
		return err == nil && v.Equal(p)
	}
}

func sameAmount(a Amount) func(string) bool {
	return func(s string) bool {
		v, c, err := money.ParsePrice(s)
		return err == nil && v.Equal(a.Value) && (c == "" || c == a.CurrencyCode)
	}
}

func sameInt(n int) func(string) bool {
	return func(s string) bool {
		return money.ParseQuantity(s) == n
	}
}

func sameDate(t time.Time) func(string) bool {
	return func(s string) bool {
		v := parseDate(s)
		return v.Equal(t)
	}
}
