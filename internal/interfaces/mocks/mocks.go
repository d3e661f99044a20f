// Package mocks provides testify mocks for the service interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"berean/backend/internal/model"
	"berean/backend/internal/service"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockChatService is a mock implementation of interfaces.ChatService.
type MockChatService struct {
	mock.Mock
}

func NewMockChatService(t testingT) *MockChatService {
	m := &MockChatService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockChatService) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Conversation), args.Error(1)
}

func (m *MockChatService) GetConversation(ctx context.Context, conversationID string) (*model.Conversation, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *MockChatService) DeleteConversation(ctx context.Context, conversationID string) error {
	args := m.Called(ctx, conversationID)
	return args.Error(0)
}

func (m *MockChatService) HandleNewMessage(ctx context.Context, req *service.CreateMessageRequest, streamChan chan<- model.StreamResponse) {
	m.Called(ctx, req, streamChan)
}

// MockCompareService is a mock implementation of interfaces.CompareService.
type MockCompareService struct {
	mock.Mock
}

func NewMockCompareService(t testingT) *MockCompareService {
	m := &MockCompareService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCompareService) ListComparisons(ctx context.Context) ([]model.ComparisonSession, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ComparisonSession), args.Error(1)
}

func (m *MockCompareService) GetComparison(ctx context.Context, comparisonID string) (*model.ComparisonSession, error) {
	args := m.Called(ctx, comparisonID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ComparisonSession), args.Error(1)
}

func (m *MockCompareService) DeleteComparison(ctx context.Context, comparisonID string) error {
	args := m.Called(ctx, comparisonID)
	return args.Error(0)
}

func (m *MockCompareService) HandleCompare(ctx context.Context, req *service.CompareRequest, eventChan chan<- model.CompareEvent) {
	m.Called(ctx, req, eventChan)
}

// MockSettingsService is a mock implementation of interfaces.SettingsService.
type MockSettingsService struct {
	mock.Mock
}

func NewMockSettingsService(t testingT) *MockSettingsService {
	m := &MockSettingsService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSettingsService) Get(ctx context.Context) (*service.Settings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Settings), args.Error(1)
}

func (m *MockSettingsService) Save(ctx context.Context, settings *service.Settings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}
