package domain

// Well-known extraction names shared by the review engine.
const (
	ExtractionAmountToPay   = "amountToPay"
	CompoundLineItems       = "lineItems"
	CompoundSkontoDiscounts = "skontoDiscounts"
)

// Box is the bounding box of an extraction on its source page.
type Box struct {
	PageNo int     `json:"page"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Extraction is one named field produced by the extraction backend.
// Values are treated as immutable; use WithValue to override one for feedback.
type Extraction struct {
	Name       string       `json:"name"`
	Value      string       `json:"value"`
	Entity     string       `json:"entity"`
	Box        *Box         `json:"box,omitempty"`
	Candidates []Extraction `json:"candidates,omitempty"`
}

// WithValue returns a copy of the extraction carrying value. Box, entity and
// candidates are kept.
func (e Extraction) WithValue(value string) Extraction {
	e.Value = value
	return e
}

// CompoundExtraction is an ordered list of extraction rows, e.g. one row per
// line item. The row index is significant.
type CompoundExtraction struct {
	Name string                  `json:"name"`
	Rows []map[string]Extraction `json:"rows"`
}

// Field returns the extraction named name in row i.
func (c CompoundExtraction) Field(i int, name string) (Extraction, bool) {
	if i < 0 || i >= len(c.Rows) {
		return Extraction{}, false
	}
	e, ok := c.Rows[i][name]
	return e, ok
}

// CloneRow returns a shallow copy of a row map so it can be rewritten without
// touching the source.
func CloneRow(row map[string]Extraction) map[string]Extraction {
	out := make(map[string]Extraction, len(row)+1)
	for k, v := range row {
		out[k] = v
	}
	return out
}

// ReturnReason is a selectable reason for deselecting a line item.
type ReturnReason struct {
	ID             string `json:"id"`
	LocalizedLabel string `json:"localized_label"`
}

// FeedbackPayload is the reviewed extraction set handed to the feedback
// collaborator. It has the same shape as the extraction input.
type FeedbackPayload struct {
	Extractions         map[string]Extraction         `json:"extractions"`
	CompoundExtractions map[string]CompoundExtraction `json:"compound_extractions"`
}
