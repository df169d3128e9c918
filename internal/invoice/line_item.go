package invoice

import (
	"strconv"

	"github.com/shopspring/decimal"

	"payreview/internal/domain"
	"payreview/internal/money"
)

// Field names inside a lineItems row.
const (
	FieldDescription  = "description"
	FieldQuantity     = "quantity"
	FieldGrossPrice   = "baseGross"
	FieldReturnReason = "returnReason"
)

// LineItem is one invoice row. ID is the source row index, or "" for rows
// the user added.
type LineItem struct {
	ID            string `json:"id"`
	Description   string `json:"description"`
	Quantity      int    `json:"quantity"`
	RawGrossPrice string `json:"raw_gross_price"`
}

// GrossPrice is the unit price; 0 when the raw price is malformed.
func (l LineItem) GrossPrice() decimal.Decimal {
	amount, _ := money.PriceOrZero(l.RawGrossPrice)
	return amount
}

// Currency is the currency of the raw price, or "" when unknown.
func (l LineItem) Currency() string {
	_, currency := money.PriceOrZero(l.RawGrossPrice)
	return currency
}

// TotalGrossPrice is unit price times quantity.
func (l LineItem) TotalGrossPrice() decimal.Decimal {
	return l.GrossPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// WithGrossPrice returns a copy with the unit price replaced.
func (l LineItem) WithGrossPrice(amount decimal.Decimal, currency string) LineItem {
	l.RawGrossPrice = money.FormatPrice(amount, currency)
	return l
}

// SelectableLineItem is a LineItem in a review. Ref addresses the row within
// its invoice: the source row index for extracted rows, "u<n>" for rows the
// user added.
type SelectableLineItem struct {
	Ref         string               `json:"ref"`
	LineItem    LineItem             `json:"line_item"`
	Selected    bool                 `json:"selected"`
	AddedByUser bool                 `json:"added_by_user"`
	Reason      *domain.ReturnReason `json:"reason,omitempty"`
}

func lineItemFromRow(index int, row map[string]domain.Extraction) LineItem {
	return LineItem{
		ID:            strconv.Itoa(index),
		Description:   row[FieldDescription].Value,
		Quantity:      money.ParseQuantity(row[FieldQuantity].Value),
		RawGrossPrice: row[FieldGrossPrice].Value,
	}
}
