package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"payreview/internal/domain"
)

// MockReviewSessionRepo is a mock implementation of port.ReviewSessionRepository.
type MockReviewSessionRepo struct {
	mock.Mock
}

func (m *MockReviewSessionRepo) Create(ctx context.Context, session *domain.ReviewSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockReviewSessionRepo) GetByID(ctx context.Context, tenantID, sessionID uuid.UUID) (*domain.ReviewSession, error) {
	args := m.Called(ctx, tenantID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReviewSession), args.Error(1)
}

func (m *MockReviewSessionRepo) Update(ctx context.Context, session *domain.ReviewSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockReviewSessionRepo) Close(ctx context.Context, session *domain.ReviewSession, feedback *domain.FeedbackSubmission) error {
	args := m.Called(ctx, session, feedback)
	return args.Error(0)
}
