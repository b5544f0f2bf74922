package github

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockAPIClient is a mock implementation of APIClient for testing
type MockAPIClient struct {
	mock.Mock
}

func (m *MockAPIClient) GetIssue(ctx context.Context, repo RepoRef, number int) (*Issue, error) {
	args := m.Called(ctx, repo, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Issue), args.Error(1)
}

func (m *MockAPIClient) ListIssuesPage(ctx context.Context, repo RepoRef, since time.Time, page int) ([]Issue, int, error) {
	args := m.Called(ctx, repo, since, page)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]Issue), args.Int(1), args.Error(2)
}

func (m *MockAPIClient) CreateIssue(ctx context.Context, repo RepoRef, issue NewIssue) (*Issue, error) {
	args := m.Called(ctx, repo, issue)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Issue), args.Error(1)
}

func (m *MockAPIClient) UpdateIssue(ctx context.Context, repo RepoRef, number int, patch IssuePatch) (*Issue, error) {
	args := m.Called(ctx, repo, number, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Issue), args.Error(1)
}

func (m *MockAPIClient) Authenticated(ctx context.Context) (*TokenInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TokenInfo), args.Error(1)
}
