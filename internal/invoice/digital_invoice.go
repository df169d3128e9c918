// Package invoice holds the review aggregate: the selectable line items of
// one invoice, its addons and discount state, and the payable total derived
// from them.
package invoice

import (
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"payreview/internal/domain"
	"payreview/internal/money"
	"payreview/internal/skonto"
)

const userRefPrefix = "u"

// DigitalInvoice is owned by a single review session and is not safe for
// concurrent use. Operations never fail on malformed data; bad prices count
// as zero.
type DigitalInvoice struct {
	extractions   map[string]domain.Extraction
	compounds     map[string]domain.CompoundExtraction
	returnReasons []domain.ReturnReason

	originals   []LineItem
	items       []SelectableLineItem
	addons      []Addon
	amountToPay decimal.Decimal
	nextUserRef int

	skonto       *skonto.Data
	skontoActive bool
}

// Snapshot is the persisted review state an invoice can be rebuilt from.
type Snapshot struct {
	Rows        []SelectableLineItem `json:"rows"`
	NextUserRef int                  `json:"next_user_ref"`
}

// New builds the aggregate. When savedRows is non-nil it replaces the rows
// derived from the lineItems compound extraction.
func New(
	extractions map[string]domain.Extraction,
	compounds map[string]domain.CompoundExtraction,
	returnReasons []domain.ReturnReason,
	savedRows []SelectableLineItem,
) *DigitalInvoice {
	inv := &DigitalInvoice{
		extractions:   lo.Assign(extractions),
		compounds:     lo.Assign(compounds),
		returnReasons: returnReasons,
	}

	for i, row := range compounds[domain.CompoundLineItems].Rows {
		inv.originals = append(inv.originals, lineItemFromRow(i, row))
	}

	if savedRows != nil {
		inv.items = append([]SelectableLineItem{}, savedRows...)
	} else {
		inv.items = lo.Map(inv.originals, func(li LineItem, _ int) SelectableLineItem {
			return SelectableLineItem{Ref: li.ID, LineItem: li, Selected: true}
		})
	}
	for _, it := range inv.items {
		if n, ok := userRefNumber(it.Ref); ok && n >= inv.nextUserRef {
			inv.nextUserRef = n + 1
		}
	}

	if e, ok := extractions[domain.ExtractionAmountToPay]; ok {
		inv.amountToPay, _ = money.PriceOrZero(e.Value)
	}
	inv.addons = AddonsFrom(extractions, inv.Currency())
	return inv
}

// FromSnapshot rebuilds an invoice from persisted state.
func FromSnapshot(
	extractions map[string]domain.Extraction,
	compounds map[string]domain.CompoundExtraction,
	returnReasons []domain.ReturnReason,
	snap Snapshot,
) *DigitalInvoice {
	rows := snap.Rows
	if rows == nil {
		rows = []SelectableLineItem{}
	}
	inv := New(extractions, compounds, returnReasons, rows)
	inv.nextUserRef = max(inv.nextUserRef, snap.NextUserRef)
	return inv
}

// Snapshot captures the rows so the invoice can be restored later.
func (inv *DigitalInvoice) Snapshot() Snapshot {
	return Snapshot{Rows: inv.Items(), NextUserRef: inv.nextUserRef}
}

func userRefNumber(ref string) (int, bool) {
	if !strings.HasPrefix(ref, userRefPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(ref[len(userRefPrefix):])
	return n, err == nil
}

// Items returns a copy of the current rows in display order.
func (inv *DigitalInvoice) Items() []SelectableLineItem {
	return append([]SelectableLineItem{}, inv.items...)
}

// Item returns the row addressed by ref.
func (inv *DigitalInvoice) Item(ref string) (SelectableLineItem, bool) {
	return lo.Find(inv.items, func(it SelectableLineItem) bool { return it.Ref == ref })
}

func (inv *DigitalInvoice) Addons() []Addon {
	return append([]Addon{}, inv.addons...)
}

func (inv *DigitalInvoice) ReturnReasons() []domain.ReturnReason {
	return append([]domain.ReturnReason{}, inv.returnReasons...)
}

// FullAmount is the extracted amountToPay the total is anchored on.
func (inv *DigitalInvoice) FullAmount() decimal.Decimal {
	return inv.amountToPay
}

// Currency is the currency of the first line item, or EUR.
func (inv *DigitalInvoice) Currency() string {
	if len(inv.items) > 0 {
		if c := inv.items[0].LineItem.Currency(); c != "" {
			return c
		}
	}
	return money.DefaultCurrency
}

func (inv *DigitalInvoice) indexOf(ref string) int {
	_, i, _ := lo.FindIndexOf(inv.items, func(it SelectableLineItem) bool { return it.Ref == ref })
	return i
}

// SelectLineItem includes a row and clears its return reason. It reports
// whether the row exists.
func (inv *DigitalInvoice) SelectLineItem(ref string) bool {
	i := inv.indexOf(ref)
	if i < 0 {
		return false
	}
	inv.items[i].Selected = true
	inv.items[i].Reason = nil
	inv.resyncSkonto()
	return true
}

// DeselectLineItem excludes a row. A nil reason means none was given.
func (inv *DigitalInvoice) DeselectLineItem(ref string, reason *domain.ReturnReason) bool {
	i := inv.indexOf(ref)
	if i < 0 {
		return false
	}
	inv.items[i].Selected = false
	inv.items[i].Reason = reason
	inv.resyncSkonto()
	return true
}

// UpdateLineItem replaces the row with the same Ref. Rows with an unknown or
// empty Ref are appended as user rows and get a fresh Ref. The stored row is
// returned.
func (inv *DigitalInvoice) UpdateLineItem(item SelectableLineItem) SelectableLineItem {
	item.LineItem.Quantity = max(item.LineItem.Quantity, 0)
	if item.Selected {
		item.Reason = nil
	}

	if i := inv.indexOf(item.Ref); item.Ref != "" && i >= 0 {
		current := inv.items[i]
		item.LineItem.ID = current.LineItem.ID
		item.AddedByUser = current.AddedByUser
		inv.items[i] = item
	} else {
		item.Ref = userRefPrefix + strconv.Itoa(inv.nextUserRef)
		inv.nextUserRef++
		item.LineItem.ID = ""
		item.AddedByUser = true
		inv.items = append(inv.items, item)
	}
	inv.resyncSkonto()
	return item
}

// RemoveLineItem drops the row if present.
func (inv *DigitalInvoice) RemoveLineItem(ref string) {
	i := inv.indexOf(ref)
	if i < 0 {
		return
	}
	inv.items = append(inv.items[:i], inv.items[i+1:]...)
	inv.resyncSkonto()
}

// NewLineItem returns an empty selected row in the invoice currency. Pass it
// to UpdateLineItem once its fields are set.
func (inv *DigitalInvoice) NewLineItem() SelectableLineItem {
	return SelectableLineItem{
		LineItem: LineItem{
			RawGrossPrice: money.FormatPrice(decimal.Zero, inv.Currency()),
		},
		Selected:    true,
		AddedByUser: true,
	}
}

// SelectedCount is the number of selected units.
func (inv *DigitalInvoice) SelectedCount() int {
	return lo.SumBy(inv.items, func(it SelectableLineItem) int {
		if !it.Selected {
			return 0
		}
		return it.LineItem.Quantity
	})
}

// TotalCount is the number of units over all rows.
func (inv *DigitalInvoice) TotalCount() int {
	return lo.SumBy(inv.items, func(it SelectableLineItem) int { return it.LineItem.Quantity })
}

// TotalPrice is the payable total without discount. With a positive
// extracted amountToPay it is derived from that amount by subtracting
// excluded rows and adding price edits and user rows; otherwise it is the
// extracted amount itself. Once every extracted row is excluded the
// extracted amount no longer applies and only selected user rows count.
// Never negative.
func (inv *DigitalInvoice) TotalPrice() decimal.Decimal {
	if !inv.amountToPay.IsPositive() {
		return money.NonNegative(inv.amountToPay)
	}
	if inv.originalsExcluded() {
		return money.NonNegative(inv.userRowsTotal())
	}

	total := inv.amountToPay
	for _, orig := range inv.originals {
		current, ok := inv.Item(orig.ID)
		switch {
		case !ok || !current.Selected:
			total = total.Sub(orig.TotalGrossPrice())
		case !current.AddedByUser:
			total = total.Add(current.LineItem.TotalGrossPrice().Sub(orig.TotalGrossPrice()))
		}
	}
	return money.NonNegative(total.Add(inv.userRowsTotal()))
}

// originalsExcluded reports whether the invoice has extracted rows and none
// of them is still selected. Quantities play no part: a selected row with
// zero units is still part of the invoice.
func (inv *DigitalInvoice) originalsExcluded() bool {
	if len(inv.originals) == 0 {
		return false
	}
	return lo.NoneBy(inv.originals, func(orig LineItem) bool {
		current, ok := inv.Item(orig.ID)
		return ok && current.Selected && !current.AddedByUser
	})
}

func (inv *DigitalInvoice) userRowsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range inv.items {
		if it.AddedByUser && it.Selected {
			total = total.Add(it.LineItem.TotalGrossPrice())
		}
	}
	return total
}

// AmountToPay is the single payable amount: the discounted amount while the
// discount is active, TotalPrice otherwise.
func (inv *DigitalInvoice) AmountToPay() decimal.Decimal {
	if inv.SkontoEnabled() {
		return money.NonNegative(inv.skonto.SkontoAmountToPay.Value)
	}
	return inv.TotalPrice()
}

// AttachSkonto sets the discount offer and whether it is applied.
func (inv *DigitalInvoice) AttachSkonto(data skonto.Data, active bool) {
	inv.skonto = &data
	inv.skontoActive = active
}

// SkontoData returns the discount offer, if any.
func (inv *DigitalInvoice) SkontoData() (skonto.Data, bool) {
	if inv.skonto == nil {
		return skonto.Data{}, false
	}
	return *inv.skonto, true
}

// SetSkontoActive toggles the discount. It has no effect without an offer.
func (inv *DigitalInvoice) SetSkontoActive(active bool) {
	if inv.skonto != nil {
		inv.skontoActive = active
	}
}

// SkontoEnabled reports whether the discount is currently applied.
func (inv *DigitalInvoice) SkontoEnabled() bool {
	return inv.skonto != nil && inv.skontoActive
}

// resyncSkonto moves the discount's full amount to the new line item total,
// holding the percentage.
func (inv *DigitalInvoice) resyncSkonto() {
	if inv.skonto == nil {
		return
	}
	updated := inv.skonto.WithFullAmount(inv.TotalPrice())
	inv.skonto = &updated
}
