package skonto_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payreview/internal/domain"
	"payreview/internal/skonto"
)

var today = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func skontoRow(values map[string]string) map[string]domain.Extraction {
	row := make(map[string]domain.Extraction, len(values))
	for k, v := range values {
		row[k] = domain.Extraction{Name: k, Value: v, Entity: "text"}
	}
	return row
}

func fullRow() map[string]string {
	return map[string]string{
		skonto.FieldDueDate:              "2026-03-20",
		skonto.FieldAmountToPay:          "97.00:EUR",
		skonto.FieldRemainingDays:        "10",
		skonto.FieldPercentageDiscounted: "3",
		skonto.FieldPaymentMethod:        "PayPal",
	}
}

func compoundsWith(rows ...map[string]string) map[string]domain.CompoundExtraction {
	c := domain.CompoundExtraction{Name: domain.CompoundSkontoDiscounts}
	for _, r := range rows {
		c.Rows = append(c.Rows, skontoRow(r))
	}
	return map[string]domain.CompoundExtraction{domain.CompoundSkontoDiscounts: c}
}

func amountToPay(v string) map[string]domain.Extraction {
	return map[string]domain.Extraction{
		domain.ExtractionAmountToPay: {Name: domain.ExtractionAmountToPay, Value: v, Entity: "amount"},
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, skonto.Validate(compoundsWith(fullRow())))
	})

	t.Run("compound_missing", func(t *testing.T) {
		err := skonto.Validate(map[string]domain.CompoundExtraction{})
		assert.True(t, errors.Is(err, skonto.ErrSkontoMissing))
	})

	t.Run("due_date_missing_is_not_skonto_missing", func(t *testing.T) {
		row := fullRow()
		delete(row, skonto.FieldDueDate)
		err := skonto.Validate(compoundsWith(row))
		require.Error(t, err)
		assert.True(t, errors.Is(err, skonto.ErrDueDateMissing))
		assert.False(t, errors.Is(err, skonto.ErrSkontoMissing))

		var verr *skonto.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, 0, verr.Row)
		assert.Equal(t, skonto.FieldDueDate, verr.Field)
	})

	t.Run("calculated_due_date_accepted", func(t *testing.T) {
		row := fullRow()
		delete(row, skonto.FieldDueDate)
		row[skonto.FieldDueDateCalculated] = "2026-03-20"
		assert.NoError(t, skonto.Validate(compoundsWith(row)))
	})

	t.Run("blank_value_counts_as_missing", func(t *testing.T) {
		row := fullRow()
		row[skonto.FieldAmountToPay] = "  "
		err := skonto.Validate(compoundsWith(row))
		assert.True(t, errors.Is(err, skonto.ErrAmountToPayMissing))
	})

	t.Run("first_failure_wins", func(t *testing.T) {
		row := fullRow()
		delete(row, skonto.FieldRemainingDays)
		delete(row, skonto.FieldPercentageDiscounted)
		err := skonto.Validate(compoundsWith(row))
		assert.True(t, errors.Is(err, skonto.ErrRemainingDaysMissing))
	})

	t.Run("percentage_missing_in_second_row", func(t *testing.T) {
		second := fullRow()
		delete(second, skonto.FieldPercentageDiscounted)
		err := skonto.Validate(compoundsWith(fullRow(), second))

		var verr *skonto.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.ErrorIs(t, err, skonto.ErrPercentageDiscountedMissing)
		assert.Equal(t, 1, verr.Row)
	})
}

func TestValidateOptional(t *testing.T) {
	row := fullRow()
	delete(row, skonto.FieldPaymentMethod)
	errs := skonto.ValidateOptional(compoundsWith(row))
	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs[0], skonto.ErrAmountDiscountedMissing)
	assert.ErrorIs(t, errs[1], skonto.ErrPaymentMethodMissing)
}

func TestExtract(t *testing.T) {
	t.Run("reads_first_row", func(t *testing.T) {
		second := fullRow()
		second[skonto.FieldAmountToPay] = "50.00:EUR"
		data, err := skonto.Extract(amountToPay("100.00:EUR"), compoundsWith(fullRow(), second))
		require.NoError(t, err)

		assert.Equal(t, "97.00:EUR", data.SkontoAmountToPay.String())
		assert.Equal(t, "100.00:EUR", data.FullAmountToPay.String())
		assert.True(t, data.PercentageDiscounted.Equal(decimal.NewFromInt(3)))
		assert.Equal(t, 10, data.RemainingDays)
		assert.Equal(t, "2026-03-20", data.DueDate.Format(skonto.DateLayout))
		assert.Equal(t, skonto.PaymentMethodPayPal, data.PaymentMethod)
		assert.Nil(t, data.AmountDiscounted)
	})

	t.Run("full_amount_derived_without_amount_to_pay", func(t *testing.T) {
		data, err := skonto.Extract(nil, compoundsWith(fullRow()))
		require.NoError(t, err)
		assert.Equal(t, "100.00:EUR", data.FullAmountToPay.String())
	})

	t.Run("malformed_due_date_is_zero", func(t *testing.T) {
		row := fullRow()
		row[skonto.FieldDueDate] = "20.03.2026"
		data, err := skonto.Extract(amountToPay("100.00:EUR"), compoundsWith(row))
		require.NoError(t, err)
		assert.True(t, data.DueDate.IsZero())
		assert.Equal(t, skonto.EdgeCaseExpired, skonto.Classify(data.DueDate, data.PaymentMethod, today))
	})

	t.Run("missing_field_fails", func(t *testing.T) {
		row := fullRow()
		delete(row, skonto.FieldAmountToPay)
		_, err := skonto.Extract(amountToPay("100.00:EUR"), compoundsWith(row))
		assert.ErrorIs(t, err, skonto.ErrAmountToPayMissing)
	})
}

func TestUpdateExtractions(t *testing.T) {
	t.Run("round_trip_keeps_values", func(t *testing.T) {
		row := fullRow()
		row[skonto.FieldAmountDiscounted] = "3.00:EUR"
		in := compoundsWith(row)
		in["lineItems"] = domain.CompoundExtraction{Name: "lineItems"}

		data, err := skonto.Extract(amountToPay("100.00:EUR"), in)
		require.NoError(t, err)
		out := skonto.UpdateExtractions(in, *data)

		assert.Equal(t, in, out)
	})

	t.Run("edited_values_written", func(t *testing.T) {
		in := compoundsWith(fullRow())
		data, err := skonto.Extract(amountToPay("100.00:EUR"), in)
		require.NoError(t, err)

		edited := data.WithFullAmount(decimal.NewFromInt(200)).
			WithDueDate(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), today)
		out := skonto.UpdateExtractions(in, edited)

		got := out[domain.CompoundSkontoDiscounts].Rows[0]
		assert.Equal(t, "194.00:EUR", got[skonto.FieldAmountToPay].Value)
		assert.Equal(t, "3", got[skonto.FieldPercentageDiscounted].Value)
		assert.Equal(t, "2026-03-15", got[skonto.FieldDueDate].Value)
		assert.Equal(t, "5", got[skonto.FieldRemainingDays].Value)

		// source untouched
		assert.Equal(t, "97.00:EUR", in[domain.CompoundSkontoDiscounts].Rows[0][skonto.FieldAmountToPay].Value)
	})

	t.Run("prefers_plain_over_calculated", func(t *testing.T) {
		row := fullRow()
		row[skonto.FieldAmountToPayCalculated] = "97.00:EUR"
		in := compoundsWith(row)
		data, err := skonto.Extract(amountToPay("100.00:EUR"), in)
		require.NoError(t, err)

		out := skonto.UpdateExtractions(in, data.WithSkontoAmount(decimal.NewFromInt(95)))
		got := out[domain.CompoundSkontoDiscounts].Rows[0]
		assert.Equal(t, "95.00:EUR", got[skonto.FieldAmountToPay].Value)
		assert.Equal(t, "97.00:EUR", got[skonto.FieldAmountToPayCalculated].Value)
		assert.Equal(t, "5.00", got[skonto.FieldPercentageDiscounted].Value)
	})

	t.Run("calculated_only_is_updated_in_place", func(t *testing.T) {
		row := fullRow()
		delete(row, skonto.FieldDueDate)
		row[skonto.FieldDueDateCalculated] = "2026-03-20"
		in := compoundsWith(row)
		data, err := skonto.Extract(amountToPay("100.00:EUR"), in)
		require.NoError(t, err)

		out := skonto.UpdateExtractions(in, data.WithDueDate(time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC), today))
		got := out[domain.CompoundSkontoDiscounts].Rows[0]
		assert.Equal(t, "2026-03-12", got[skonto.FieldDueDateCalculated].Value)
		_, hasPlain := got[skonto.FieldDueDate]
		assert.False(t, hasPlain)
	})

	t.Run("blank_plain_with_calculated_round_trip", func(t *testing.T) {
		row := fullRow()
		row[skonto.FieldDueDate] = ""
		row[skonto.FieldDueDateCalculated] = "2030-01-10"
		in := compoundsWith(row)

		data, err := skonto.Extract(amountToPay("100.00:EUR"), in)
		require.NoError(t, err)
		assert.Equal(t, "2030-01-10", data.DueDate.Format(skonto.DateLayout))

		out := skonto.UpdateExtractions(in, *data)
		assert.Equal(t, in, out)
	})

	t.Run("blank_plain_edit_goes_to_calculated", func(t *testing.T) {
		row := fullRow()
		row[skonto.FieldDueDate] = " "
		row[skonto.FieldDueDateCalculated] = "2026-03-20"
		in := compoundsWith(row)
		data, err := skonto.Extract(amountToPay("100.00:EUR"), in)
		require.NoError(t, err)

		out := skonto.UpdateExtractions(in, data.WithDueDate(time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC), today))
		got := out[domain.CompoundSkontoDiscounts].Rows[0]
		assert.Equal(t, "2026-03-12", got[skonto.FieldDueDateCalculated].Value)
		assert.Equal(t, " ", got[skonto.FieldDueDate].Value)
	})
}

func TestData_BidirectionalEdit(t *testing.T) {
	base := skonto.Data{
		FullAmountToPay:   skonto.Amount{Value: decimal.NewFromInt(100), CurrencyCode: "EUR"},
		SkontoAmountToPay: skonto.Amount{Value: decimal.NewFromInt(100), CurrencyCode: "EUR"},
	}

	t.Run("skonto_amount_sets_percentage", func(t *testing.T) {
		d := base.WithSkontoAmount(decimal.NewFromInt(97))
		assert.True(t, d.PercentageDiscounted.Equal(decimal.NewFromInt(3)))
		assert.Equal(t, "3.00", d.SavedAmount().StringFixed(2))

		d = d.WithFullAmount(decimal.NewFromInt(200))
		assert.Equal(t, "194.00", d.SkontoAmountToPay.Value.StringFixed(2))
		assert.True(t, d.PercentageDiscounted.Equal(decimal.NewFromInt(3)))
	})

	t.Run("percentage_clamped", func(t *testing.T) {
		d := base.WithSkontoAmount(decimal.NewFromInt(150))
		assert.True(t, d.PercentageDiscounted.IsZero())
		assert.True(t, d.SavedAmount().IsZero())

		d = base.WithSkontoAmount(decimal.NewFromInt(-10))
		assert.True(t, d.PercentageDiscounted.Equal(decimal.NewFromInt(100)))
	})

	t.Run("zero_full_amount_is_hundred_percent", func(t *testing.T) {
		d := base.WithFullAmount(decimal.Zero).WithSkontoAmount(decimal.NewFromInt(5))
		assert.True(t, d.PercentageDiscounted.Equal(decimal.NewFromInt(100)))
	})

	t.Run("full_amount_rounds_half_up", func(t *testing.T) {
		d := base.WithSkontoAmount(decimal.NewFromInt(97)).WithFullAmount(decimal.RequireFromString("10.50"))
		// 10.50 * 0.97 = 10.185
		assert.Equal(t, "10.19", d.SkontoAmountToPay.Value.StringFixed(2))
	})

	t.Run("amount_discounted_follows", func(t *testing.T) {
		withDiscounted := base
		withDiscounted.AmountDiscounted = &skonto.Amount{Value: decimal.Zero, CurrencyCode: "EUR"}
		d := withDiscounted.WithSkontoAmount(decimal.NewFromInt(90))
		require.NotNil(t, d.AmountDiscounted)
		assert.Equal(t, "10.00:EUR", d.AmountDiscounted.String())
		assert.Equal(t, "0.00:EUR", withDiscounted.AmountDiscounted.String())
	})
}

func TestClassify(t *testing.T) {
	yesterday := today.AddDate(0, 0, -1)
	tomorrow := today.AddDate(0, 0, 1)

	tests := []struct {
		name   string
		due    time.Time
		method skonto.PaymentMethod
		want   skonto.EdgeCase
		active bool
	}{
		{"expired", yesterday, skonto.PaymentMethodUnspecified, skonto.EdgeCaseExpired, false},
		{"expired_beats_cash", yesterday, skonto.PaymentMethodCash, skonto.EdgeCaseExpired, false},
		{"cash_today", today, skonto.PaymentMethodCash, skonto.EdgeCasePayByCashToday, true},
		{"cash_only", tomorrow, skonto.PaymentMethodCash, skonto.EdgeCasePayByCashOnly, false},
		{"last_day", today, skonto.PaymentMethodTransfer, skonto.EdgeCaseLastDay, true},
		{"last_day_other_time_of_day", time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC), skonto.PaymentMethodCard, skonto.EdgeCaseLastDay, true},
		{"none", tomorrow, skonto.PaymentMethodPayPal, skonto.EdgeCaseNone, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := skonto.Classify(tt.due, tt.method, today)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.active, skonto.DefaultActive(got))
		})
	}
}

func TestParsePaymentMethod(t *testing.T) {
	assert.Equal(t, skonto.PaymentMethodCash, skonto.ParsePaymentMethod("cash"))
	assert.Equal(t, skonto.PaymentMethodDirectDebit, skonto.ParsePaymentMethod(" DirectDebit "))
	assert.Equal(t, skonto.PaymentMethodUnspecified, skonto.ParsePaymentMethod("cheque"))
}

func TestScreen(t *testing.T) {
	data := skonto.Data{
		PercentageDiscounted: decimal.NewFromInt(3),
		FullAmountToPay:      skonto.Amount{Value: decimal.NewFromInt(100), CurrencyCode: "EUR"},
		SkontoAmountToPay:    skonto.Amount{Value: decimal.NewFromInt(97), CurrencyCode: "EUR"},
		DueDate:              today.AddDate(0, 0, 5),
		RemainingDays:        5,
		PaymentMethod:        skonto.PaymentMethodTransfer,
	}

	t.Run("defaults_active", func(t *testing.T) {
		s := skonto.NewScreen(data, today)
		assert.True(t, s.Active())
		assert.Equal(t, skonto.EdgeCaseNone, s.EdgeCase())
		assert.Equal(t, "97.00:EUR", s.TotalAmount().String())

		s.SetActive(false)
		assert.Equal(t, "100.00:EUR", s.TotalAmount().String())
	})

	t.Run("expired_defaults_off", func(t *testing.T) {
		expired := data
		expired.DueDate = today.AddDate(0, 0, -1)
		s := skonto.NewScreen(expired, today)
		assert.False(t, s.Active())
		assert.Equal(t, skonto.EdgeCaseExpired, s.EdgeCase())
	})

	t.Run("restore_keeps_choice", func(t *testing.T) {
		expired := data
		expired.DueDate = today.AddDate(0, 0, -1)
		s := skonto.RestoreScreen(expired, true, today)
		assert.True(t, s.Active())
	})

	t.Run("due_date_reclassifies", func(t *testing.T) {
		s := skonto.NewScreen(data, today)
		s.SetDueDate(today)
		assert.Equal(t, skonto.EdgeCaseLastDay, s.EdgeCase())
		assert.Equal(t, 0, s.Data().RemainingDays)

		s.SetDueDate(today.AddDate(0, 0, -4))
		assert.Equal(t, skonto.EdgeCaseExpired, s.EdgeCase())
		assert.Equal(t, 4, s.Data().RemainingDays)
	})

	t.Run("amount_edits", func(t *testing.T) {
		s := skonto.NewScreen(data, today)
		s.SetSkontoAmount(decimal.NewFromInt(90))
		assert.Equal(t, "10.00", s.Data().PercentageDiscounted.StringFixed(2))
		assert.Equal(t, "10.00", s.SavedAmount().StringFixed(2))

		s.SetFullAmount(decimal.NewFromInt(50))
		assert.Equal(t, "45.00", s.Data().SkontoAmountToPay.Value.StringFixed(2))
	})
}
