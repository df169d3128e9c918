package handler

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"payreview/internal/domain"
	"payreview/internal/export"
	"payreview/internal/middleware"
	"payreview/internal/service"
)

// ReviewHandler handles review session endpoints.
type ReviewHandler struct {
	reviewService service.ReviewService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewService service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// Create handles POST /api/v1/reviews
// @Summary      Start a review session
// @Description  Builds the line item review and skonto offer from an extraction result
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Param        body body CreateReviewRequest true "Extraction result"
// @Success      201 {object} APIResponse{data=service.ReviewView}
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reviews [post]
func (h *ReviewHandler) Create(c *gin.Context) {
	tenantID, err := middleware.GetTenantID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant context")
		return
	}

	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid extraction payload")
		return
	}

	view, err := h.reviewService.Create(c.Request.Context(), &service.CreateReviewInput{
		TenantID:            tenantID,
		Extractions:         req.Extractions,
		CompoundExtractions: req.CompoundExtractions,
		ReturnReasons:       req.ReturnReasons,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, view)
}

// Get handles GET /api/v1/reviews/:id
// @Summary      Get a review session
// @Tags         reviews
// @Produce      json
// @Param        id path string true "Session UUID"
// @Success      200 {object} APIResponse{data=service.ReviewView}
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reviews/{id} [get]
func (h *ReviewHandler) Get(c *gin.Context) {
	tenantID, sessionID, ok := sessionContext(c)
	if !ok {
		return
	}

	view, err := h.reviewService.Get(c.Request.Context(), tenantID, sessionID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, view)
}

// AddLineItem handles POST /api/v1/reviews/:id/line-items
// @Summary      Add a line item
// @Tags         line-items
// @Accept       json
// @Produce      json
// @Param        id path string true "Session UUID"
// @Param        body body LineItemRequest true "Line item fields"
// @Success      201 {object} APIResponse{data=service.ReviewView}
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reviews/{id}/line-items [post]
func (h *ReviewHandler) AddLineItem(c *gin.Context) {
	tenantID, sessionID, ok := sessionContext(c)
	if !ok {
		return
	}

	var req LineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid line item")
		return
	}

	view, err := h.reviewService.AddLineItem(c.Request.Context(), tenantID, sessionID, lineItemInput(&req))
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, view)
}

// UpdateLineItem handles PUT /api/v1/reviews/:id/line-items/:itemId
// @Summary      Update a line item
// @Tags         line-items
// @Accept       json
// @Produce      json
// @Param        id path string true "Session UUID"
// @Param        itemId path string true "Line item ref"
// @Param        body body LineItemRequest true "Changed fields"
// @Success      200 {object} APIResponse{data=service.ReviewView}
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reviews/{id}/line-items/{itemId} [put]
func (h *ReviewHandler) UpdateLineItem(c *gin.Context) {
	tenantID, sessionID, ok := sessionContext(c)
	if !ok {
		return
	}

	var req LineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid line item")
		return
	}

	view, err := h.reviewService.UpdateLineItem(c.Request.Context(), tenantID, sessionID, c.Param("itemId"), lineItemInput(&req))
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, view)
}

// RemoveLineItem handles DELETE /api/v1/reviews/:id/line-items/:itemId
// @Summary      Remove a line item
// @Tags         line-items
// @Produce      json
// @Param        id path string true "Session UUID"
// @Param        itemId path string true "Line item ref"
// @Success      200 {object} APIResponse{data=service.ReviewView}
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reviews/{id}/line-items/{itemId} [delete]
func (h *ReviewHandler) RemoveLineItem(c *gin.Context) {
	tenantID, sessionID, ok := sessionContext(c)
	if !ok {
		return
	}

	view, err := h.reviewService.RemoveLineItem(c.Request.Context(), tenantID, sessionID, c.Param("itemId"))
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, view)
}

// SelectLineItem handles POST /api/v1/reviews/:id/line-items/:itemId/select
// @Summary      Select a line item
// @Tags         line-items
// @Produce      json
// @Param        id path string true "Session UUID"
// @Param        itemId path string true "Line item ref"
// @Success      200 {object} APIResponse{data=service.ReviewView}
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reviews/{id}/line-items/{itemId}/select [post]
func (h *ReviewHandler) SelectLineItem(c *gin.Context) {
	tenantID, sessionID, ok := sessionContext(c)
	if !ok {
		return
	}

	view, err := h.reviewService.SelectLineItem(c.Request.Context(), tenantID, sessionID, c.Param("itemId"))
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, view)
}

// DeselectLineItem handles POST /api/v1/reviews/:id/line-items/:itemId/deselect
// @Summary      Deselect a line item
// @Description  Excludes the item from payment, optionally with a return reason
// @Tags         line-items
// @Accept       json
// @Produce      json
// @Param        id path string true "Session UUID"
// @Param        itemId path string true "Line item ref"
// @Param        body body DeselectRequest false "Return reason"
// @Success      200 {object} APIResponse{data=service.ReviewView}
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reviews/{id}/line-items/{itemId}/deselect [post]
func (h *ReviewHandler) DeselectLineItem(c *gin.Context) {
	tenantID, sessionID, ok := sessionContext(c)
	if !ok {
		return
	}

	var req DeselectRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid deselect request")
			return
		}
	}

	view, err := h.reviewService.DeselectLineItem(c.Request.Context(), tenantID, sessionID, c.Param("itemId"), req.ReasonID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, view)
}

// UpdateSkonto handles PUT /api/v1/reviews/:id/skonto
// @Summary      Update the skonto discount
// @Description  Toggles the discount and edits its amounts or due date
// @Tags         skonto
// @Accept       json
// @Produce      json
// @Param        id path string true "Session UUID"
// @Param        body body SkontoRequest true "Changed fields"
// @Success      200 {object} APIResponse{data=service.ReviewView}
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reviews/{id}/skonto [put]
func (h *ReviewHandler) UpdateSkonto(c *gin.Context) {
	tenantID, sessionID, ok := sessionContext(c)
	if !ok {
		return
	}

	var req SkontoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid skonto update")
		return
	}

	view, err := h.reviewService.UpdateSkonto(c.Request.Context(), tenantID, sessionID, &service.SkontoInput{
		Active:       req.Active,
		SkontoAmount: req.SkontoAmount,
		FullAmount:   req.FullAmount,
		DueDate:      req.DueDate,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, view)
}

// Pay handles POST /api/v1/reviews/:id/pay
// @Summary      Pay and close a review
// @Description  Closes the session and returns the reviewed extractions sent as feedback
// @Tags         reviews
// @Produce      json
// @Param        id path string true "Session UUID"
// @Success      200 {object} APIResponse{data=service.PayResult}
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reviews/{id}/pay [post]
func (h *ReviewHandler) Pay(c *gin.Context) {
	tenantID, sessionID, ok := sessionContext(c)
	if !ok {
		return
	}

	result, err := h.reviewService.Pay(c.Request.Context(), tenantID, sessionID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}

// Cancel handles POST /api/v1/reviews/:id/cancel
// @Summary      Cancel a review
// @Tags         reviews
// @Produce      json
// @Param        id path string true "Session UUID"
// @Success      200 {object} APIResponse{data=service.ReviewView}
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reviews/{id}/cancel [post]
func (h *ReviewHandler) Cancel(c *gin.Context) {
	tenantID, sessionID, ok := sessionContext(c)
	if !ok {
		return
	}

	view, err := h.reviewService.Cancel(c.Request.Context(), tenantID, sessionID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, view)
}

// Feedback handles GET /api/v1/reviews/:id/feedback
// @Summary      Feedback delivery status
// @Description  Reports whether the paid session's feedback reached the archive, with a download link once it has
// @Tags         reviews
// @Produce      json
// @Param        id path string true "Session UUID"
// @Success      200 {object} APIResponse{data=service.FeedbackStatusView}
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reviews/{id}/feedback [get]
func (h *ReviewHandler) Feedback(c *gin.Context) {
	tenantID, sessionID, ok := sessionContext(c)
	if !ok {
		return
	}

	status, err := h.reviewService.FeedbackStatus(c.Request.Context(), tenantID, sessionID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, status)
}

// Export handles GET /api/v1/reviews/:id/export
// @Summary      Export reviewed line items
// @Tags         reviews
// @Produce      text/csv
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        id path string true "Session UUID"
// @Param        format query string false "csv or xlsx" default(csv)
// @Success      200 {file} file
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reviews/{id}/export [get]
func (h *ReviewHandler) Export(c *gin.Context) {
	tenantID, sessionID, ok := sessionContext(c)
	if !ok {
		return
	}

	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		HandleError(c, err)
		return
	}

	view, err := h.reviewService.Get(c.Request.Context(), tenantID, sessionID)
	if err != nil {
		HandleError(c, err)
		return
	}

	// Render before writing headers so a failure still yields a JSON error.
	var buf bytes.Buffer
	if err := export.Write(&buf, format, view); err != nil {
		HandleError(c, err)
		return
	}

	filename := export.BuildFilename(sessionID.String(), format, time.Now())
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, domain.ExportContentTypes[format], buf.Bytes())
}

func lineItemInput(req *LineItemRequest) *service.LineItemInput {
	return &service.LineItemInput{
		Description: req.Description,
		Quantity:    req.Quantity,
		GrossPrice:  req.GrossPrice,
		Selected:    req.Selected,
	}
}
