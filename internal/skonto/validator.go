package skonto

import (
	"errors"
	"fmt"
	"strings"

	"payreview/internal/domain"
)

var (
	ErrSkontoMissing               = errors.New("skonto discounts are missing")
	ErrDueDateMissing              = errors.New("skonto due date is missing")
	ErrAmountToPayMissing          = errors.New("skonto amount to pay is missing")
	ErrRemainingDaysMissing        = errors.New("skonto remaining days are missing")
	ErrPercentageDiscountedMissing = errors.New("skonto percentage discounted is missing")
	ErrAmountDiscountedMissing     = errors.New("skonto amount discounted is missing")
	ErrPaymentMethodMissing        = errors.New("skonto payment method is missing")
)

// ValidationError reports which check failed and where. It unwraps to one of
// the Err*Missing sentinels.
type ValidationError struct {
	Err   error
	Row   int
	Field string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s (row %d, field %s)", e.Err.Error(), e.Row, e.Field)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// rowRule checks that every skonto row carries one of its field names.
type rowRule struct {
	err    error
	fields []string
}

func (r rowRule) check(c domain.CompoundExtraction) error {
	for i, row := range c.Rows {
		if !hasAny(row, r.fields...) {
			return &ValidationError{Err: r.err, Row: i, Field: r.fields[0]}
		}
	}
	return nil
}

var mandatoryRules = []rowRule{
	{err: ErrDueDateMissing, fields: []string{FieldDueDate, FieldDueDateCalculated}},
	{err: ErrAmountToPayMissing, fields: []string{FieldAmountToPay, FieldAmountToPayCalculated}},
	{err: ErrRemainingDaysMissing, fields: []string{FieldRemainingDays}},
	{err: ErrPercentageDiscountedMissing, fields: []string{FieldPercentageDiscounted, FieldPercentageDiscountedCalculated}},
}

var optionalRules = []rowRule{
	{err: ErrAmountDiscountedMissing, fields: []string{FieldAmountDiscounted, FieldAmountDiscountedCalculated}},
	{err: ErrPaymentMethodMissing, fields: []string{FieldPaymentMethod}},
}

// Validate runs the mandatory checks in order and returns the first failure,
// or nil when the discount flow can be offered.
func Validate(compounds map[string]domain.CompoundExtraction) error {
	c, ok := compounds[domain.CompoundSkontoDiscounts]
	if !ok || len(c.Rows) == 0 {
		return &ValidationError{Err: ErrSkontoMissing}
	}
	for _, r := range mandatoryRules {
		if err := r.check(c); err != nil {
			return err
		}
	}
	return nil
}

// ValidateOptional reports missing optional fields. These never block the
// discount flow.
func ValidateOptional(compounds map[string]domain.CompoundExtraction) []error {
	c, ok := compounds[domain.CompoundSkontoDiscounts]
	if !ok {
		return nil
	}
	var errs []error
	for _, r := range optionalRules {
		if err := r.check(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func hasAny(row map[string]domain.Extraction, names ...string) bool {
	_, ok := lookup(row, names...)
	return ok
}

// lookup returns the first of names present in row with a non-blank value.
func lookup(row map[string]domain.Extraction, names ...string) (domain.Extraction, bool) {
	for _, n := range names {
		if e, ok := row[n]; ok && strings.TrimSpace(e.Value) != "" {
			return e, true
		}
	}
	return domain.Extraction{}, false
}
