package invoice_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payreview/internal/domain"
	"payreview/internal/invoice"
	"payreview/internal/skonto"
)

func ext(name, value string) domain.Extraction {
	return domain.Extraction{Name: name, Value: value, Entity: "text"}
}

func row(description, quantity, gross string) map[string]domain.Extraction {
	return map[string]domain.Extraction{
		invoice.FieldDescription: ext(invoice.FieldDescription, description),
		invoice.FieldQuantity:    ext(invoice.FieldQuantity, quantity),
		invoice.FieldGrossPrice:  ext(invoice.FieldGrossPrice, gross),
	}
}

func fixture(amountToPay string, rows ...map[string]domain.Extraction) (map[string]domain.Extraction, map[string]domain.CompoundExtraction) {
	extractions := map[string]domain.Extraction{
		"iban": ext("iban", "DE89370400440532013000"),
	}
	if amountToPay != "" {
		extractions[domain.ExtractionAmountToPay] = ext(domain.ExtractionAmountToPay, amountToPay)
	}
	compounds := map[string]domain.CompoundExtraction{
		domain.CompoundLineItems: {Name: domain.CompoundLineItems, Rows: rows},
		"otherCompound":          {Name: "otherCompound", Rows: []map[string]domain.Extraction{{"x": ext("x", "1")}}},
	}
	return extractions, compounds
}

func threeItems() *invoice.DigitalInvoice {
	e, c := fixture("100.00:EUR",
		row("Widget", "2", "25.00:EUR"),
		row("Gadget", "1", "30.00:EUR"),
		row("Cable", "4", "5.00:EUR"),
	)
	return invoice.New(e, c, nil, nil)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2))
}

func TestNew(t *testing.T) {
	inv := threeItems()

	items := inv.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "0", items[0].Ref)
	assert.Equal(t, "0", items[0].LineItem.ID)
	assert.Equal(t, "Widget", items[0].LineItem.Description)
	assert.Equal(t, 2, items[0].LineItem.Quantity)
	assert.True(t, items[0].Selected)
	assert.False(t, items[0].AddedByUser)
	assert.Equal(t, "EUR", inv.Currency())
	assertAmount(t, "100.00", inv.FullAmount())
	assert.Equal(t, 7, inv.SelectedCount())
	assert.Equal(t, 7, inv.TotalCount())
}

func TestNew_MissingAmountToPay(t *testing.T) {
	e, c := fixture("", row("Widget", "1", "10.00:EUR"))
	inv := invoice.New(e, c, nil, nil)
	assert.True(t, inv.FullAmount().IsZero())
	assert.True(t, inv.TotalPrice().IsZero())

	e, c = fixture("n/a:EUR", row("Widget", "1", "10.00:EUR"))
	inv = invoice.New(e, c, nil, nil)
	assert.True(t, inv.TotalPrice().IsZero())
}

func TestNew_NegativeAmountToPayFloored(t *testing.T) {
	e, c := fixture("-5.00:EUR", row("Widget", "1", "10.00:EUR"))
	inv := invoice.New(e, c, nil, nil)
	assertAmount(t, "0.00", inv.AmountToPay())
}

func TestScenarioA_DeselectOnlyItem(t *testing.T) {
	e, c := fixture("100.00:EUR", row("Widget", "2", "25.00:EUR"))
	inv := invoice.New(e, c, nil, nil)

	assertAmount(t, "100.00", inv.TotalPrice())

	require.True(t, inv.DeselectLineItem("0", nil))
	assertAmount(t, "0.00", inv.TotalPrice())
	assert.Equal(t, 0, inv.SelectedCount())
	assert.Equal(t, 2, inv.TotalCount())

	require.True(t, inv.SelectLineItem("0"))
	assertAmount(t, "100.00", inv.TotalPrice())
}

func TestScenarioE_ZeroQuantityStored(t *testing.T) {
	inv := threeItems()
	item, ok := inv.Item("1")
	require.True(t, ok)

	item.LineItem.Quantity = 0
	stored := inv.UpdateLineItem(item)

	assert.Equal(t, 0, stored.LineItem.Quantity)
	got, _ := inv.Item("1")
	assert.Equal(t, 0, got.LineItem.Quantity)
	// 100 - 30 for the zeroed row
	assertAmount(t, "70.00", inv.TotalPrice())
}

func TestTotalPrice_ZeroUnitsKeepAnchor(t *testing.T) {
	t.Run("untouched_missing_quantity", func(t *testing.T) {
		e, c := fixture("100.00:EUR", row("Widget", "", "25.00:EUR"))
		inv := invoice.New(e, c, nil, nil)

		assert.Equal(t, 0, inv.SelectedCount())
		assertAmount(t, "100.00", inv.TotalPrice())
		assertAmount(t, "100.00", inv.AmountToPay())
	})

	t.Run("single_row_quantity_zero", func(t *testing.T) {
		e, c := fixture("100.00:EUR", row("Widget", "2", "25.00:EUR"))
		inv := invoice.New(e, c, nil, nil)

		item, _ := inv.Item("0")
		item.LineItem.Quantity = 0
		inv.UpdateLineItem(item)
		// 100 + (0 - 50)
		assertAmount(t, "50.00", inv.TotalPrice())
	})
}

func TestTotalPrice_AllExtractedRowsExcluded(t *testing.T) {
	e, c := fixture("100.00:EUR",
		row("Widget", "2", "25.00:EUR"),
		row("Gadget", "1", "30.00:EUR"),
	)
	inv := invoice.New(e, c, nil, nil)

	inv.DeselectLineItem("0", nil)
	inv.RemoveLineItem("1")
	assertAmount(t, "0.00", inv.TotalPrice())

	added := inv.NewLineItem()
	added.LineItem.Quantity = 1
	added.LineItem = added.LineItem.WithGrossPrice(decimal.NewFromInt(10), "EUR")
	inv.UpdateLineItem(added)
	assertAmount(t, "10.00", inv.TotalPrice())

	inv.SelectLineItem("0")
	// 100 - 30 for the removed row + 10 for the user row
	assertAmount(t, "80.00", inv.TotalPrice())
}

func TestTotalPrice_DifferenceBased(t *testing.T) {
	inv := threeItems()

	t.Run("deselect_subtracts_original_gross", func(t *testing.T) {
		inv.DeselectLineItem("1", nil)
		assertAmount(t, "70.00", inv.TotalPrice())
	})

	t.Run("price_edit_adds_delta", func(t *testing.T) {
		item, _ := inv.Item("0")
		item.LineItem = item.LineItem.WithGrossPrice(decimal.NewFromInt(30), "EUR")
		inv.UpdateLineItem(item)
		// 70 + (60 - 50)
		assertAmount(t, "80.00", inv.TotalPrice())
	})

	t.Run("quantity_edit_adds_delta", func(t *testing.T) {
		item, _ := inv.Item("2")
		item.LineItem.Quantity = 2
		inv.UpdateLineItem(item)
		// 80 + (10 - 20)
		assertAmount(t, "70.00", inv.TotalPrice())
	})

	t.Run("user_row_adds_gross", func(t *testing.T) {
		added := inv.NewLineItem()
		added.LineItem.Description = "Extra"
		added.LineItem.Quantity = 3
		added.LineItem = added.LineItem.WithGrossPrice(decimal.RequireFromString("2.50"), "EUR")
		stored := inv.UpdateLineItem(added)

		assert.Equal(t, "u0", stored.Ref)
		assert.Equal(t, "", stored.LineItem.ID)
		assert.True(t, stored.AddedByUser)
		assertAmount(t, "77.50", inv.TotalPrice())
	})

	t.Run("deselected_user_row_not_counted", func(t *testing.T) {
		inv.DeselectLineItem("u0", nil)
		assertAmount(t, "70.00", inv.TotalPrice())
	})

	t.Run("edited_then_deselected_subtracts_original", func(t *testing.T) {
		inv.DeselectLineItem("0", nil)
		// 70 - (60 - 50) - 50
		assertAmount(t, "10.00", inv.TotalPrice())
	})
}

func TestTotalPrice_NeverNegative(t *testing.T) {
	e, c := fixture("10.00:EUR",
		row("Widget", "1", "50.00:EUR"),
		row("Gadget", "1", "5.00:EUR"),
	)
	inv := invoice.New(e, c, nil, nil)

	inv.DeselectLineItem("0", nil)
	assertAmount(t, "0.00", inv.TotalPrice())

	item, _ := inv.Item("1")
	item.LineItem = item.LineItem.WithGrossPrice(decimal.NewFromInt(1), "EUR")
	inv.UpdateLineItem(item)
	assert.False(t, inv.AmountToPay().IsNegative())
}

func TestRemoveLineItem(t *testing.T) {
	inv := threeItems()

	inv.RemoveLineItem("2")
	assert.Len(t, inv.Items(), 2)
	assertAmount(t, "80.00", inv.TotalPrice())

	inv.RemoveLineItem("2")
	inv.RemoveLineItem("missing")
	assert.Len(t, inv.Items(), 2)
}

func TestUpdateLineItem_UnknownRefAppends(t *testing.T) {
	inv := threeItems()
	inv.RemoveLineItem("2")

	stored := inv.UpdateLineItem(invoice.SelectableLineItem{
		Ref:      "2",
		LineItem: invoice.LineItem{ID: "2", Description: "Back", Quantity: 1, RawGrossPrice: "1.00:EUR"},
		Selected: true,
	})
	assert.Equal(t, "u0", stored.Ref)
	assert.Empty(t, stored.LineItem.ID)
	assert.True(t, stored.AddedByUser)
}

func TestUpdateLineItem_KeepsIdentity(t *testing.T) {
	inv := threeItems()
	stored := inv.UpdateLineItem(invoice.SelectableLineItem{
		Ref:         "0",
		LineItem:    invoice.LineItem{ID: "bogus", Description: "Renamed", Quantity: -2, RawGrossPrice: "25.00:EUR"},
		Selected:    true,
		AddedByUser: true,
		Reason:      &domain.ReturnReason{ID: "r1"},
	})
	assert.Equal(t, "0", stored.LineItem.ID)
	assert.False(t, stored.AddedByUser)
	assert.Equal(t, 0, stored.LineItem.Quantity)
	assert.Nil(t, stored.Reason)
}

func TestSelectDeselect_Reason(t *testing.T) {
	inv := threeItems()
	reason := &domain.ReturnReason{ID: "damaged", LocalizedLabel: "Damaged"}

	require.True(t, inv.DeselectLineItem("1", reason))
	item, _ := inv.Item("1")
	assert.False(t, item.Selected)
	assert.Equal(t, reason, item.Reason)

	require.True(t, inv.SelectLineItem("1"))
	item, _ = inv.Item("1")
	assert.True(t, item.Selected)
	assert.Nil(t, item.Reason)

	assert.False(t, inv.SelectLineItem("9"))
	assert.False(t, inv.DeselectLineItem("9", nil))
}

func TestNewLineItem(t *testing.T) {
	t.Run("currency_of_first_row", func(t *testing.T) {
		e, c := fixture("10.00:USD", row("Widget", "1", "10.00:USD"))
		inv := invoice.New(e, c, nil, nil)
		item := inv.NewLineItem()
		assert.Equal(t, "0.00:USD", item.LineItem.RawGrossPrice)
		assert.Equal(t, 0, item.LineItem.Quantity)
		assert.Empty(t, item.Ref)
	})

	t.Run("eur_without_rows", func(t *testing.T) {
		e, c := fixture("10.00:USD")
		inv := invoice.New(e, c, nil, nil)
		assert.Equal(t, "0.00:EUR", inv.NewLineItem().LineItem.RawGrossPrice)
	})
}

func TestMalformedPriceCountsAsZero(t *testing.T) {
	e, c := fixture("100.00:EUR",
		row("Widget", "2", "25.00:EUR"),
		row("Broken", "1", "garbage"),
	)
	inv := invoice.New(e, c, nil, nil)
	inv.DeselectLineItem("1", nil)
	assertAmount(t, "100.00", inv.TotalPrice())
}

func TestSnapshotRestore(t *testing.T) {
	inv := threeItems()
	inv.DeselectLineItem("1", &domain.ReturnReason{ID: "wrong"})
	added := inv.NewLineItem()
	added.LineItem.Quantity = 1
	added.LineItem = added.LineItem.WithGrossPrice(decimal.NewFromInt(4), "EUR")
	inv.UpdateLineItem(added)
	inv.RemoveLineItem("u0")

	snap := inv.Snapshot()
	e, c := fixture("100.00:EUR",
		row("Widget", "2", "25.00:EUR"),
		row("Gadget", "1", "30.00:EUR"),
		row("Cable", "4", "5.00:EUR"),
	)
	restored := invoice.FromSnapshot(e, c, nil, snap)

	assert.Equal(t, inv.Items(), restored.Items())
	assert.True(t, inv.TotalPrice().Equal(restored.TotalPrice()))

	next := restored.UpdateLineItem(restored.NewLineItem())
	assert.Equal(t, "u1", next.Ref)
}

func TestAddons(t *testing.T) {
	t.Run("derived_in_order", func(t *testing.T) {
		e, c := fixture("100.00:EUR", row("Widget", "1", "100.00:EUR"))
		e["shipment-addon"] = ext("shipment-addon", "4.99:EUR")
		e["discount-addon"] = ext("discount-addon", "-5.00:EUR")
		e["giftcard-addon"] = ext("giftcard-addon", "oops")
		inv := invoice.New(e, c, nil, nil)

		addons := inv.Addons()
		require.Len(t, addons, 2)
		assert.Equal(t, invoice.AddonDiscount, addons[0].Category)
		assert.Equal(t, "-5", addons[0].Amount.String())
		assert.Equal(t, invoice.AddonShipment, addons[1].Category)
	})

	t.Run("synthetic_other_charges", func(t *testing.T) {
		e, c := fixture("100.00:EUR", row("Widget", "1", "100.00:EUR"))
		addons := invoice.New(e, c, nil, nil).Addons()
		require.Len(t, addons, 1)
		assert.Equal(t, invoice.AddonOtherCharges, addons[0].Category)
		assert.True(t, addons[0].Amount.IsZero())
		assert.Equal(t, "EUR", addons[0].Currency)
	})
}

func TestSkontoToggle(t *testing.T) {
	inv := threeItems()
	data := skonto.Data{
		PercentageDiscounted: decimal.NewFromInt(3),
		FullAmountToPay:      skonto.Amount{Value: decimal.NewFromInt(100), CurrencyCode: "EUR"},
		SkontoAmountToPay:    skonto.Amount{Value: decimal.NewFromInt(97), CurrencyCode: "EUR"},
		DueDate:              time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}

	inv.SetSkontoActive(true)
	assert.False(t, inv.SkontoEnabled())

	inv.AttachSkonto(data, true)
	for i := 0; i < 3; i++ {
		assertAmount(t, "97.00", inv.AmountToPay())
		inv.SetSkontoActive(false)
		assertAmount(t, "100.00", inv.AmountToPay())
		inv.SetSkontoActive(true)
	}
}

func TestSkontoFollowsLineItems(t *testing.T) {
	inv := threeItems()
	inv.AttachSkonto(skonto.Data{
		PercentageDiscounted: decimal.NewFromInt(3),
		FullAmountToPay:      skonto.Amount{Value: decimal.NewFromInt(100), CurrencyCode: "EUR"},
		SkontoAmountToPay:    skonto.Amount{Value: decimal.NewFromInt(97), CurrencyCode: "EUR"},
	}, true)

	inv.DeselectLineItem("1", nil)

	data, ok := inv.SkontoData()
	require.True(t, ok)
	assertAmount(t, "70.00", data.FullAmountToPay.Value)
	assertAmount(t, "67.90", data.SkontoAmountToPay.Value)
	assertAmount(t, "67.90", inv.AmountToPay())

	inv.SelectLineItem("1")
	assertAmount(t, "97.00", inv.AmountToPay())
}
