package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"payreview/internal/config"
	"payreview/internal/domain"
	"payreview/internal/invoice"
	"payreview/internal/money"
	"payreview/internal/port"
	"payreview/internal/skonto"
)

// CreateReviewInput is the DTO for starting a review session.
type CreateReviewInput struct {
	TenantID            uuid.UUID
	Extractions         map[string]domain.Extraction
	CompoundExtractions map[string]domain.CompoundExtraction
	ReturnReasons       []domain.ReturnReason
}

// LineItemInput carries the line item fields a client changes. Nil fields
// are left as they are.
type LineItemInput struct {
	Description *string
	Quantity    *string
	GrossPrice  *string
	Selected    *bool
}

// SkontoInput carries discount edits. Nil fields are left as they are.
type SkontoInput struct {
	Active       *bool
	SkontoAmount *string
	FullAmount   *string
	DueDate      *string
}

// PayResult is the closed session together with the feedback it produced.
type PayResult struct {
	Review   *ReviewView            `json:"review"`
	Feedback domain.FeedbackPayload `json:"feedback"`
}

// FeedbackStatusView reports the delivery state of a paid session's feedback.
type FeedbackStatusView struct {
	Submission  *domain.FeedbackSubmission `json:"submission"`
	DownloadURL string                     `json:"download_url,omitempty"`
}

// ReviewService defines the review session contract.
type ReviewService interface {
	Create(ctx context.Context, input *CreateReviewInput) (*ReviewView, error)
	Get(ctx context.Context, tenantID, sessionID uuid.UUID) (*ReviewView, error)
	SelectLineItem(ctx context.Context, tenantID, sessionID uuid.UUID, ref string) (*ReviewView, error)
	DeselectLineItem(ctx context.Context, tenantID, sessionID uuid.UUID, ref, reasonID string) (*ReviewView, error)
	UpdateLineItem(ctx context.Context, tenantID, sessionID uuid.UUID, ref string, input *LineItemInput) (*ReviewView, error)
	AddLineItem(ctx context.Context, tenantID, sessionID uuid.UUID, input *LineItemInput) (*ReviewView, error)
	RemoveLineItem(ctx context.Context, tenantID, sessionID uuid.UUID, ref string) (*ReviewView, error)
	UpdateSkonto(ctx context.Context, tenantID, sessionID uuid.UUID, input *SkontoInput) (*ReviewView, error)
	Pay(ctx context.Context, tenantID, sessionID uuid.UUID) (*PayResult, error)
	Cancel(ctx context.Context, tenantID, sessionID uuid.UUID) (*ReviewView, error)
	FeedbackStatus(ctx context.Context, tenantID, sessionID uuid.UUID) (*FeedbackStatusView, error)
}

type reviewService struct {
	sessionRepo  port.ReviewSessionRepository
	feedbackRepo port.FeedbackRepository
	storage      port.ObjectStorage
	s3Cfg        config.S3Config
	reviewCfg    config.ReviewConfig
	now          func() time.Time
}

// NewReviewService creates a new ReviewService implementation. storage may be
// nil, in which case feedback download links are not offered.
func NewReviewService(
	sessionRepo port.ReviewSessionRepository,
	feedbackRepo port.FeedbackRepository,
	storage port.ObjectStorage,
	cfg *config.Config,
) ReviewService {
	return NewReviewServiceWithClock(sessionRepo, feedbackRepo, storage, cfg, time.Now)
}

// NewReviewServiceWithClock is NewReviewService with an injectable clock for
// the discount due-date logic.
func NewReviewServiceWithClock(
	sessionRepo port.ReviewSessionRepository,
	feedbackRepo port.FeedbackRepository,
	storage port.ObjectStorage,
	cfg *config.Config,
	now func() time.Time,
) ReviewService {
	return &reviewService{
		sessionRepo:  sessionRepo,
		feedbackRepo: feedbackRepo,
		storage:      storage,
		s3Cfg:        cfg.S3,
		reviewCfg:    cfg.Review,
		now:          now,
	}
}

func (s *reviewService) today() time.Time {
	return skonto.DateOnly(s.now())
}

func (s *reviewService) Create(ctx context.Context, input *CreateReviewInput) (*ReviewView, error) {
	if len(input.Extractions) == 0 && len(input.CompoundExtractions) == 0 {
		return nil, domain.ErrInvalidExtractions
	}
	extractions := lo.Assign(input.Extractions)
	compounds := lo.Assign(input.CompoundExtractions)
	if _, ok := compounds[domain.CompoundLineItems]; !ok {
		compounds[domain.CompoundLineItems] = domain.CompoundExtraction{Name: domain.CompoundLineItems}
	}
	reasons := input.ReturnReasons
	if reasons == nil {
		reasons = []domain.ReturnReason{}
	}

	inv := invoice.New(extractions, compounds, reasons, nil)

	var skontoErr string
	switch data, err := skonto.Extract(extractions, compounds); {
	case err == nil:
		screen := skonto.NewScreen(*data, s.today())
		inv.AttachSkonto(screen.Data(), screen.Active())
	case errors.Is(err, skonto.ErrSkontoMissing):
	default:
		skontoErr = err.Error()
		log.Info().Err(err).Stringer("tenant_id", input.TenantID).Msg("reviewService.Create: skonto offer ignored")
	}

	session := &domain.ReviewSession{
		ID:          uuid.New(),
		TenantID:    input.TenantID,
		Status:      domain.SessionStatusOpen,
		SkontoError: skontoErr,
	}
	var err error
	if session.Extractions, err = json.Marshal(extractions); err != nil {
		return nil, fmt.Errorf("encoding extractions: %w", err)
	}
	if session.CompoundExtractions, err = json.Marshal(compounds); err != nil {
		return nil, fmt.Errorf("encoding compound extractions: %w", err)
	}
	if session.ReturnReasons, err = json.Marshal(reasons); err != nil {
		return nil, fmt.Errorf("encoding return reasons: %w", err)
	}
	if err := storeInvoice(session, inv); err != nil {
		return nil, err
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("creating review session: %w", err)
	}
	log.Info().
		Stringer("tenant_id", session.TenantID).
		Stringer("session_id", session.ID).
		Int("line_items", len(inv.Items())).
		Bool("skonto", inv.SkontoEnabled()).
		Msg("reviewService.Create: session opened")
	return s.view(session, inv), nil
}

func (s *reviewService) Get(ctx context.Context, tenantID, sessionID uuid.UUID) (*ReviewView, error) {
	session, err := s.sessionRepo.GetByID(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	inv, err := loadInvoice(session)
	if err != nil {
		return nil, err
	}
	return s.view(session, inv), nil
}

func (s *reviewService) SelectLineItem(ctx context.Context, tenantID, sessionID uuid.UUID, ref string) (*ReviewView, error) {
	return s.mutate(ctx, tenantID, sessionID, func(inv *invoice.DigitalInvoice) error {
		if !inv.SelectLineItem(ref) {
			return domain.ErrLineItemNotFound
		}
		return nil
	})
}

func (s *reviewService) DeselectLineItem(ctx context.Context, tenantID, sessionID uuid.UUID, ref, reasonID string) (*ReviewView, error) {
	return s.mutate(ctx, tenantID, sessionID, func(inv *invoice.DigitalInvoice) error {
		reason, err := s.returnReason(inv, reasonID)
		if err != nil {
			return err
		}
		if !inv.DeselectLineItem(ref, reason) {
			return domain.ErrLineItemNotFound
		}
		return nil
	})
}

// returnReason resolves reasonID against the session's reasons. Reasons are
// dropped when the feature is switched off.
func (s *reviewService) returnReason(inv *invoice.DigitalInvoice, reasonID string) (*domain.ReturnReason, error) {
	if reasonID == "" || !s.reviewCfg.ReturnReasonsEnabled {
		return nil, nil
	}
	reason, ok := lo.Find(inv.ReturnReasons(), func(r domain.ReturnReason) bool { return r.ID == reasonID })
	if !ok {
		return nil, domain.ErrInvalidReturnReason
	}
	return &reason, nil
}

func (s *reviewService) UpdateLineItem(ctx context.Context, tenantID, sessionID uuid.UUID, ref string, input *LineItemInput) (*ReviewView, error) {
	return s.mutate(ctx, tenantID, sessionID, func(inv *invoice.DigitalInvoice) error {
		item, ok := inv.Item(ref)
		if !ok {
			return domain.ErrLineItemNotFound
		}
		item, err := applyLineItemInput(item, input, inv.Currency())
		if err != nil {
			return err
		}
		inv.UpdateLineItem(item)
		return nil
	})
}

func (s *reviewService) AddLineItem(ctx context.Context, tenantID, sessionID uuid.UUID, input *LineItemInput) (*ReviewView, error) {
	return s.mutate(ctx, tenantID, sessionID, func(inv *invoice.DigitalInvoice) error {
		item := inv.NewLineItem()
		item.LineItem.Quantity = money.MinQuantityInput
		item, err := applyLineItemInput(item, input, inv.Currency())
		if err != nil {
			return err
		}
		inv.UpdateLineItem(item)
		return nil
	})
}

func (s *reviewService) RemoveLineItem(ctx context.Context, tenantID, sessionID uuid.UUID, ref string) (*ReviewView, error) {
	return s.mutate(ctx, tenantID, sessionID, func(inv *invoice.DigitalInvoice) error {
		if _, ok := inv.Item(ref); !ok {
			return domain.ErrLineItemNotFound
		}
		inv.RemoveLineItem(ref)
		return nil
	})
}

func applyLineItemInput(item invoice.SelectableLineItem, input *LineItemInput, currency string) (invoice.SelectableLineItem, error) {
	if input == nil {
		return item, nil
	}
	if input.Description != nil {
		item.LineItem.Description = strings.TrimSpace(*input.Description)
	}
	if input.Quantity != nil {
		item.LineItem.Quantity = money.ParseQuantityInput(*input.Quantity)
	}
	if input.GrossPrice != nil {
		amount, cur, err := parseGrossPrice(*input.GrossPrice)
		if err != nil {
			return item, err
		}
		if cur == "" {
			cur = item.LineItem.Currency()
		}
		if cur == "" {
			cur = currency
		}
		item.LineItem = item.LineItem.WithGrossPrice(amount, cur)
	}
	if input.Selected != nil {
		item.Selected = *input.Selected
	}
	return item, nil
}

// parseGrossPrice accepts the wire format "12.50:EUR" as well as plain
// user-typed amounts like "12,50 €".
func parseGrossPrice(raw string) (decimal.Decimal, string, error) {
	if strings.Contains(raw, ":") {
		amount, cur, err := money.ParsePrice(raw)
		if err != nil {
			return decimal.Zero, "", fmt.Errorf("%w: gross price %q", domain.ErrInvalidInput, raw)
		}
		return amount, cur, nil
	}
	amount, err := money.ParseAmount(raw)
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("%w: gross price %q", domain.ErrInvalidInput, raw)
	}
	if amount.IsNegative() {
		return decimal.Zero, "", fmt.Errorf("%w: gross price must not be negative", domain.ErrInvalidInput)
	}
	return amount, "", nil
}

func (s *reviewService) UpdateSkonto(ctx context.Context, tenantID, sessionID uuid.UUID, input *SkontoInput) (*ReviewView, error) {
	return s.mutate(ctx, tenantID, sessionID, func(inv *invoice.DigitalInvoice) error {
		data, ok := inv.SkontoData()
		if !ok {
			return domain.ErrSkontoUnavailable
		}
		screen := skonto.RestoreScreen(data, inv.SkontoEnabled(), s.today())

		if input.FullAmount != nil {
			v, err := money.ParseAmount(*input.FullAmount)
			if err != nil || v.IsNegative() {
				return fmt.Errorf("%w: full amount %q", domain.ErrInvalidInput, *input.FullAmount)
			}
			screen.SetFullAmount(v)
		}
		if input.SkontoAmount != nil {
			v, err := money.ParseAmount(*input.SkontoAmount)
			if err != nil || v.IsNegative() {
				return fmt.Errorf("%w: skonto amount %q", domain.ErrInvalidInput, *input.SkontoAmount)
			}
			screen.SetSkontoAmount(v)
		}
		if input.DueDate != nil {
			due, err := time.Parse(skonto.DateLayout, strings.TrimSpace(*input.DueDate))
			if err != nil {
				return fmt.Errorf("%w: due date %q", domain.ErrInvalidInput, *input.DueDate)
			}
			screen.SetDueDate(due)
		}
		if input.Active != nil {
			screen.SetActive(*input.Active)
		}

		inv.AttachSkonto(screen.Data(), screen.Active())
		return nil
	})
}

func (s *reviewService) Pay(ctx context.Context, tenantID, sessionID uuid.UUID) (*PayResult, error) {
	session, inv, err := s.loadOpen(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	feedback := inv.Feedback()
	payload, err := json.Marshal(feedback)
	if err != nil {
		return nil, fmt.Errorf("encoding feedback: %w", err)
	}

	now := s.now().UTC()
	session.Status = domain.SessionStatusPaid
	session.ClosedAt = &now
	submission := &domain.FeedbackSubmission{
		ID:        uuid.New(),
		TenantID:  session.TenantID,
		SessionID: session.ID,
		Payload:   payload,
		Status:    domain.FeedbackStatusPending,
	}
	if err := s.sessionRepo.Close(ctx, session, submission); err != nil {
		return nil, fmt.Errorf("closing review session: %w", err)
	}

	log.Info().
		Stringer("tenant_id", tenantID).
		Stringer("session_id", sessionID).
		Str("amount_to_pay", inv.AmountToPay().StringFixed(2)).
		Bool("skonto", inv.SkontoEnabled()).
		Msg("reviewService.Pay: session paid, feedback queued")
	return &PayResult{Review: s.view(session, inv), Feedback: feedback}, nil
}

func (s *reviewService) Cancel(ctx context.Context, tenantID, sessionID uuid.UUID) (*ReviewView, error) {
	session, inv, err := s.loadOpen(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	session.Status = domain.SessionStatusCancelled
	session.ClosedAt = &now
	if err := s.sessionRepo.Close(ctx, session, nil); err != nil {
		return nil, fmt.Errorf("closing review session: %w", err)
	}
	log.Info().Stringer("session_id", sessionID).Msg("reviewService.Cancel: session cancelled")
	return s.view(session, inv), nil
}

func (s *reviewService) FeedbackStatus(ctx context.Context, tenantID, sessionID uuid.UUID) (*FeedbackStatusView, error) {
	submission, err := s.feedbackRepo.GetBySession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	out := &FeedbackStatusView{Submission: submission}
	if submission.Status != domain.FeedbackStatusDelivered || submission.ObjectKey == "" || s.storage == nil {
		return out, nil
	}

	url, err := s.storage.GetPresignedURL(ctx, s.s3Cfg.Bucket, submission.ObjectKey, s.s3Cfg.PresignExpiry)
	if err != nil {
		// The status is still useful without a link.
		log.Warn().Err(err).Stringer("session_id", sessionID).Msg("reviewService.FeedbackStatus: presigning failed")
		return out, nil
	}
	out.DownloadURL = url
	return out, nil
}

// mutate loads an open session, applies fn to its invoice and saves the
// result under optimistic locking.
func (s *reviewService) mutate(
	ctx context.Context,
	tenantID, sessionID uuid.UUID,
	fn func(inv *invoice.DigitalInvoice) error,
) (*ReviewView, error) {
	session, inv, err := s.loadOpen(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(inv); err != nil {
		return nil, err
	}
	if err := storeInvoice(session, inv); err != nil {
		return nil, err
	}
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		if errors.Is(err, domain.ErrSessionConflict) {
			log.Warn().Stringer("session_id", sessionID).Int("version", session.Version).Msg("reviewService: concurrent edit rejected")
			return nil, err
		}
		return nil, fmt.Errorf("updating review session: %w", err)
	}
	return s.view(session, inv), nil
}

func (s *reviewService) loadOpen(ctx context.Context, tenantID, sessionID uuid.UUID) (*domain.ReviewSession, *invoice.DigitalInvoice, error) {
	session, err := s.sessionRepo.GetByID(ctx, tenantID, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if !session.IsOpen() {
		return nil, nil, domain.ErrSessionClosed
	}
	inv, err := loadInvoice(session)
	if err != nil {
		return nil, nil, err
	}
	return session, inv, nil
}

// loadInvoice rebuilds the aggregate from the session's stored snapshots.
func loadInvoice(session *domain.ReviewSession) (*invoice.DigitalInvoice, error) {
	var (
		extractions map[string]domain.Extraction
		compounds   map[string]domain.CompoundExtraction
		reasons     []domain.ReturnReason
		snap        invoice.Snapshot
	)
	if err := decode(session.Extractions, &extractions); err != nil {
		return nil, fmt.Errorf("decoding extractions of session %s: %w", session.ID, err)
	}
	if err := decode(session.CompoundExtractions, &compounds); err != nil {
		return nil, fmt.Errorf("decoding compound extractions of session %s: %w", session.ID, err)
	}
	if err := decode(session.ReturnReasons, &reasons); err != nil {
		return nil, fmt.Errorf("decoding return reasons of session %s: %w", session.ID, err)
	}
	if err := decode(session.LineItems, &snap); err != nil {
		return nil, fmt.Errorf("decoding line items of session %s: %w", session.ID, err)
	}

	inv := invoice.FromSnapshot(extractions, compounds, reasons, snap)
	if hasJSON(session.SkontoData) {
		var data skonto.Data
		if err := json.Unmarshal(session.SkontoData, &data); err != nil {
			return nil, fmt.Errorf("decoding skonto data of session %s: %w", session.ID, err)
		}
		inv.AttachSkonto(data, session.SkontoActive)
	}
	return inv, nil
}

// storeInvoice writes the aggregate's mutable state back onto the session.
func storeInvoice(session *domain.ReviewSession, inv *invoice.DigitalInvoice) error {
	rows, err := json.Marshal(inv.Snapshot())
	if err != nil {
		return fmt.Errorf("encoding line items: %w", err)
	}
	session.LineItems = rows

	data, ok := inv.SkontoData()
	if !ok {
		session.SkontoData = nil
		session.SkontoActive = false
		return nil
	}
	if session.SkontoData, err = json.Marshal(data); err != nil {
		return fmt.Errorf("encoding skonto data: %w", err)
	}
	session.SkontoActive = inv.SkontoEnabled()
	return nil
}

func decode(raw json.RawMessage, v any) error {
	if !hasJSON(raw) {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func hasJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
