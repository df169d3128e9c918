package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"payreview/internal/domain"
)

// MockFeedbackRepo is a mock implementation of port.FeedbackRepository.
type MockFeedbackRepo struct {
	mock.Mock
}

func (m *MockFeedbackRepo) GetBySession(ctx context.Context, tenantID, sessionID uuid.UUID) (*domain.FeedbackSubmission, error) {
	args := m.Called(ctx, tenantID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeedbackSubmission), args.Error(1)
}

func (m *MockFeedbackRepo) ClaimPending(ctx context.Context, limit int) ([]domain.FeedbackSubmission, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FeedbackSubmission), args.Error(1)
}

func (m *MockFeedbackRepo) MarkDelivered(ctx context.Context, id uuid.UUID, objectKey string) error {
	args := m.Called(ctx, id, objectKey)
	return args.Error(0)
}

func (m *MockFeedbackRepo) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, final bool) error {
	args := m.Called(ctx, id, errMsg, final)
	return args.Error(0)
}
