package invoice

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"payreview/internal/domain"
	"payreview/internal/money"
	"payreview/internal/skonto"
)

// UpdatedLineItemExtractions serializes the reviewed rows into the lineItems
// compound extraction. Source rows keep their position: excluded or removed
// rows get quantity "0", edited fields are overwritten and a returnReason is
// added when one was given. User rows are appended. Other compound
// extractions pass through unchanged. The invoice is not modified, so calling
// it twice yields the same result.
func (inv *DigitalInvoice) UpdatedLineItemExtractions() map[string]domain.CompoundExtraction {
	out := lo.Assign(inv.compounds)
	src, hasSource := inv.compounds[domain.CompoundLineItems]
	userRows := lo.Filter(inv.items, func(it SelectableLineItem, _ int) bool { return it.AddedByUser })
	if !hasSource && len(userRows) == 0 {
		return out
	}

	rows := make([]map[string]domain.Extraction, 0, len(src.Rows)+len(userRows))
	for i, srcRow := range src.Rows {
		row := domain.CloneRow(srcRow)
		orig := inv.originals[i]
		current, ok := inv.Item(orig.ID)
		if !ok {
			setField(row, FieldQuantity, "numeric", "0", sameQuantity(0))
			rows = append(rows, row)
			continue
		}
		writeLineItem(row, current)
		rows = append(rows, row)
	}
	for _, it := range userRows {
		row := make(map[string]domain.Extraction, 4)
		writeLineItem(row, it)
		rows = append(rows, row)
	}

	name := src.Name
	if name == "" {
		name = domain.CompoundLineItems
	}
	out[domain.CompoundLineItems] = domain.CompoundExtraction{Name: name, Rows: rows}
	return out
}

func writeLineItem(row map[string]domain.Extraction, it SelectableLineItem) {
	qty := it.LineItem.Quantity
	if !it.Selected {
		qty = 0
	}
	setField(row, FieldDescription, "text", it.LineItem.Description, func(s string) bool { return s == it.LineItem.Description })
	setField(row, FieldQuantity, "numeric", money.FormatQuantity(qty), sameQuantity(qty))
	setField(row, FieldGrossPrice, "amount", grossWireValue(it.LineItem), samePrice(it.LineItem))
	if it.Reason != nil {
		setField(row, FieldReturnReason, "text", it.Reason.ID, func(s string) bool { return s == it.Reason.ID })
	}
}

// setField overwrites name when its current value differs, or inserts it.
func setField(row map[string]domain.Extraction, name, entity, value string, same func(string) bool) {
	if e, ok := row[name]; ok {
		if !same(e.Value) {
			row[name] = e.WithValue(value)
		}
		return
	}
	row[name] = domain.Extraction{Name: name, Value: value, Entity: entity}
}

func sameQuantity(q int) func(string) bool {
	return func(s string) bool { return money.ParseQuantity(s) == q }
}

func samePrice(li LineItem) func(string) bool {
	return func(s string) bool {
		if s == li.RawGrossPrice {
			return true
		}
		amount, currency, err := money.ParsePrice(s)
		return err == nil && amount.Equal(li.GrossPrice()) && currency == li.Currency()
	}
}

func grossWireValue(li LineItem) string {
	if _, _, err := money.ParsePrice(li.RawGrossPrice); err != nil {
		return money.FormatPrice(decimal.Zero, li.Currency())
	}
	return li.RawGrossPrice
}

// UpdatedAmountToPayExtraction sets amountToPay to the payable amount in the
// currency of the first line item, inserting it when absent.
func (inv *DigitalInvoice) UpdatedAmountToPayExtraction() map[string]domain.Extraction {
	out := lo.Assign(inv.extractions)
	value := money.FormatPrice(inv.AmountToPay(), inv.Currency())
	if e, ok := out[domain.ExtractionAmountToPay]; ok {
		out[domain.ExtractionAmountToPay] = e.WithValue(value)
	} else {
		out[domain.ExtractionAmountToPay] = domain.Extraction{
			Name:   domain.ExtractionAmountToPay,
			Value:  value,
			Entity: "amount",
		}
	}
	return out
}

// Feedback is the full reviewed extraction set: rewritten line items,
// discount rows when an offer exists and the final amountToPay.
func (inv *DigitalInvoice) Feedback() domain.FeedbackPayload {
	compounds := inv.UpdatedLineItemExtractions()
	if data, ok := inv.SkontoData(); ok {
		compounds = skonto.UpdateExtractions(compounds, data)
	}
	return domain.FeedbackPayload{
		Extractions:         inv.UpdatedAmountToPayExtraction(),
		CompoundExtractions: compounds,
	}
}
