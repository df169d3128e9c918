package invoice

import (
	"github.com/shopspring/decimal"

	"payreview/internal/domain"
	"payreview/internal/money"
)

// AddonCategory is a charge or discount that is not a line item.
type AddonCategory string

const (
	AddonDiscount       AddonCategory = "discount"
	AddonGiftCard       AddonCategory = "giftcard"
	AddonOtherDiscounts AddonCategory = "other-discounts"
	AddonOtherCharges   AddonCategory = "other-charges"
	AddonShipment       AddonCategory = "shipment"
)

const addonSuffix = "-addon"

// addonCategories is the scan order of known addon extractions.
var addonCategories = []AddonCategory{
	AddonDiscount,
	AddonGiftCard,
	AddonOtherDiscounts,
	AddonOtherCharges,
	AddonShipment,
}

// ExtractionName is the name of the extraction carrying this category.
func (c AddonCategory) ExtractionName() string {
	return string(c) + addonSuffix
}

type Addon struct {
	Category AddonCategory   `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// AddonsFrom derives addons from extractions. Addons whose amount cannot be
// parsed are dropped. When nothing matches, a zero other-charges addon is
// returned so the addon row always exists.
func AddonsFrom(extractions map[string]domain.Extraction, fallbackCurrency string) []Addon {
	var addons []Addon
	for _, c := range addonCategories {
		e, ok := extractions[c.ExtractionName()]
		if !ok {
			continue
		}
		amount, currency, err := money.ParsePrice(e.Value)
		if err != nil {
			continue
		}
		if currency == "" {
			currency = fallbackCurrency
		}
		addons = append(addons, Addon{Category: c, Amount: amount, Currency: currency})
	}
	if len(addons) == 0 {
		addons = append(addons, Addon{Category: AddonOtherCharges, Amount: decimal.Zero, Currency: fallbackCurrency})
	}
	return addons
}
