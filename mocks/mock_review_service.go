package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"payreview/internal/service"
)

// MockReviewService is a mock implementation of service.ReviewService.
type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) view(args mock.Arguments) (*service.ReviewView, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReviewView), args.Error(1)
}

func (m *MockReviewService) Create(ctx context.Context, input *service.CreateReviewInput) (*service.ReviewView, error) {
	return m.view(m.Called(ctx, input))
}

func (m *MockReviewService) Get(ctx context.Context, tenantID, sessionID uuid.UUID) (*service.ReviewView, error) {
	return m.view(m.Called(ctx, tenantID, sessionID))
}

func (m *MockReviewService) SelectLineItem(ctx context.Context, tenantID, sessionID uuid.UUID, ref string) (*service.ReviewView, error) {
	return m.view(m.Called(ctx, tenantID, sessionID, ref))
}

func (m *MockReviewService) DeselectLineItem(ctx context.Context, tenantID, sessionID uuid.UUID, ref, reasonID string) (*service.ReviewView, error) {
	return m.view(m.Called(ctx, tenantID, sessionID, ref, reasonID))
}

func (m *MockReviewService) UpdateLineItem(ctx context.Context, tenantID, sessionID uuid.UUID, ref string, input *service.LineItemInput) (*service.ReviewView, error) {
	return m.view(m.Called(ctx, tenantID, sessionID, ref, input))
}

func (m *MockReviewService) AddLineItem(ctx context.Context, tenantID, sessionID uuid.UUID, input *service.LineItemInput) (*service.ReviewView, error) {
	return m.view(m.Called(ctx, tenantID, sessionID, input))
}

func (m *MockReviewService) RemoveLineItem(ctx context.Context, tenantID, sessionID uuid.UUID, ref string) (*service.ReviewView, error) {
	return m.view(m.Called(ctx, tenantID, sessionID, ref))
}

func (m *MockReviewService) UpdateSkonto(ctx context.Context, tenantID, sessionID uuid.UUID, input *service.SkontoInput) (*service.ReviewView, error) {
	return m.view(m.Called(ctx, tenantID, sessionID, input))
}

func (m *MockReviewService) Pay(ctx context.Context, tenantID, sessionID uuid.UUID) (*service.PayResult, error) {
	args := m.Called(ctx, tenantID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PayResult), args.Error(1)
}

func (m *MockReviewService) Cancel(ctx context.Context, tenantID, sessionID uuid.UUID) (*service.ReviewView, error) {
	return m.view(m.Called(ctx, tenantID, sessionID))
}

func (m *MockReviewService) FeedbackStatus(ctx context.Context, tenantID, sessionID uuid.UUID) (*service.FeedbackStatusView, error) {
	args := m.Called(ctx, tenantID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FeedbackStatusView), args.Error(1)
}
