package service

import (
	"time"

	"github.com/google/uuid"

	"payreview/internal/domain"
	"payreview/internal/invoice"
	"payreview/internal/skonto"
)

// ReviewView is what clients see of a review session. Amounts are fixed
// two-decimal strings.
type ReviewView struct {
	ID            uuid.UUID             `json:"id"`
	Status        domain.SessionStatus  `json:"status"`
	Version       int                   `json:"version"`
	Currency      string                `json:"currency"`
	LineItems     []LineItemView        `json:"line_items"`
	Addons        []AddonView           `json:"addons"`
	ReturnReasons []domain.ReturnReason `json:"return_reasons"`
	SelectedCount int                   `json:"selected_count"`
	TotalCount    int                   `json:"total_count"`
	TotalPrice    string                `json:"total_price"`
	AmountToPay   string                `json:"amount_to_pay"`
	Skonto        *SkontoView           `json:"skonto,omitempty"`
	SkontoError   string                `json:"skonto_error,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	ClosedAt      *time.Time            `json:"closed_at,omitempty"`
}

// LineItemView is one reviewed row.
type LineItemView struct {
	Ref             string               `json:"ref"`
	ID              string               `json:"id"`
	Description     string               `json:"description"`
	Quantity        int                  `json:"quantity"`
	GrossPrice      string               `json:"gross_price"`
	TotalGrossPrice string               `json:"total_gross_price"`
	Currency        string               `json:"currency"`
	Selected        bool                 `json:"selected"`
	AddedByUser     bool                 `json:"added_by_user"`
	Reason          *domain.ReturnReason `json:"reason,omitempty"`
}

// AddonView is a non line item amount of the invoice.
type AddonView struct {
	Category invoice.AddonCategory `json:"category"`
	Amount   string                `json:"amount"`
	Currency string                `json:"currency"`
}

// SkontoView is the discount offer with its current state.
type SkontoView struct {
	Active               bool                 `json:"active"`
	EdgeCase             skonto.EdgeCase      `json:"edge_case,omitempty"`
	PercentageDiscounted string               `json:"percentage_discounted"`
	SkontoAmountToPay    string               `json:"skonto_amount_to_pay"`
	FullAmountToPay      string               `json:"full_amount_to_pay"`
	SavedAmount          string               `json:"saved_amount"`
	Currency             string               `json:"currency"`
	DueDate              string               `json:"due_date,omitempty"`
	RemainingDays        int                  `json:"remaining_days"`
	PaymentMethod        skonto.PaymentMethod `json:"payment_method"`
}

func (s *reviewService) view(session *domain.ReviewSession, inv *invoice.DigitalInvoice) *ReviewView {
	v := &ReviewView{
		ID:            session.ID,
		Status:        session.Status,
		Version:       session.Version,
		Currency:      inv.Currency(),
		ReturnReasons: inv.ReturnReasons(),
		SelectedCount: inv.SelectedCount(),
		TotalCount:    inv.TotalCount(),
		TotalPrice:    inv.TotalPrice().StringFixed(2),
		AmountToPay:   inv.AmountToPay().StringFixed(2),
		SkontoError:   session.SkontoError,
		CreatedAt:     session.CreatedAt,
		ClosedAt:      session.ClosedAt,
	}
	if !s.reviewCfg.ReturnReasonsEnabled {
		v.ReturnReasons = []domain.ReturnReason{}
	}

	v.LineItems = make([]LineItemView, 0, len(inv.Items()))
	for _, it := range inv.Items() {
		v.LineItems = append(v.LineItems, LineItemView{
			Ref:             it.Ref,
			ID:              it.LineItem.ID,
			Description:     it.LineItem.Description,
			Quantity:        it.LineItem.Quantity,
			GrossPrice:      it.LineItem.GrossPrice().StringFixed(2),
			TotalGrossPrice: it.LineItem.TotalGrossPrice().StringFixed(2),
			Currency:        it.LineItem.Currency(),
			Selected:        it.Selected,
			AddedByUser:     it.AddedByUser,
			Reason:          it.Reason,
		})
	}

	for _, a := range inv.Addons() {
		v.Addons = append(v.Addons, AddonView{Category: a.Category, Amount: a.Amount.StringFixed(2), Currency: a.Currency})
	}

	if data, ok := inv.SkontoData(); ok {
		sv := &SkontoView{
			Active:               inv.SkontoEnabled(),
			PercentageDiscounted: data.PercentageDiscounted.StringFixed(2),
			SkontoAmountToPay:    data.SkontoAmountToPay.Value.StringFixed(2),
			FullAmountToPay:      data.FullAmountToPay.Value.StringFixed(2),
			SavedAmount:          data.SavedAmount().StringFixed(2),
			Currency:             data.SkontoAmountToPay.CurrencyCode,
			RemainingDays:        data.RemainingDays,
			PaymentMethod:        data.PaymentMethod,
		}
		if session.IsOpen() {
			sv.EdgeCase = skonto.Classify(data.DueDate, data.PaymentMethod, s.today())
		}
		if !data.DueDate.IsZero() {
			sv.DueDate = data.DueDate.Format(skonto.DateLayout)
		}
		v.Skonto = sv
	}
	return v
}
