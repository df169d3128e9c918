package handler

import (
	"payreview/internal/domain"
)

// Swagger type definitions for API documentation.
// These types are used by swag to generate OpenAPI documentation and double
// as the request bodies the handlers bind.

// --- Request Types ---

// CreateReviewRequest represents the create review session request body.
type CreateReviewRequest struct {
	Extractions         map[string]domain.Extraction         `json:"extractions"`
	CompoundExtractions map[string]domain.CompoundExtraction `json:"compound_extractions"`
	ReturnReasons       []domain.ReturnReason                `json:"return_reasons"`
}

// LineItemRequest represents the add/update line item request body. Omitted
// fields are left unchanged.
type LineItemRequest struct {
	Description *string `json:"description" example:"USB-C cable"`
	Quantity    *string `json:"quantity" example:"2"`
	GrossPrice  *string `json:"gross_price" example:"12.99:EUR"`
	Selected    *bool   `json:"selected" example:"true"`
}

// DeselectRequest represents the deselect line item request body.
type DeselectRequest struct {
	ReasonID string `json:"reason_id" example:"damaged"`
}

// SkontoRequest represents the skonto update request body. Omitted fields
// are left unchanged.
type SkontoRequest struct {
	Active       *bool   `json:"active" example:"true"`
	SkontoAmount *string `json:"skonto_amount" example:"97.00"`
	FullAmount   *string `json:"full_amount" example:"100.00"`
	DueDate      *string `json:"due_date" example:"2026-03-20"`
}

// --- Response Types ---

// ErrorResponse represents a failed API response.
type ErrorResponse struct {
	Success bool     `json:"success" example:"false"`
	Error   APIError `json:"error"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}
