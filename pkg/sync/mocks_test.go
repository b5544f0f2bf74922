package sync

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"wondoner-github/pkg/github"
)

// MockIssueFetcher is a mock implementation of IssueFetcher for testing
type MockIssueFetcher struct {
	mock.Mock
}

func (m *MockIssueFetcher) Fetch(ctx context.Context, repo github.RepoRef, since time.Time) ([]github.Issue, error) {
	args := m.Called(ctx, repo, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]github.Issue), args.Error(1)
}

// MockAPIClient is a mock implementation of github.APIClient for testing
type MockAPIClient struct {
	mock.Mock
}

func (m *MockAPIClient) GetIssue(ctx context.Context, repo github.RepoRef, number int) (*github.Issue, error) {
	args := m.Called(ctx, repo, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*github.Issue), args.Error(1)
}

func (m *MockAPIClient) ListIssuesPage(ctx context.Context, repo github.RepoRef, since time.Time, page int) ([]github.Issue, int, error) {
	args := m.Called(ctx, repo, since, page)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]github.Issue), args.Int(1), args.Error(2)
}

func (m *MockAPIClient) CreateIssue(ctx context.Context, repo github.RepoRef, issue github.NewIssue) (*github.Issue, error) {
	args := m.Called(ctx, repo, issue)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*github.Issue), args.Error(1)
}

func (m *MockAPIClient) UpdateIssue(ctx context.Context, repo github.RepoRef, number int, patch github.IssuePatch) (*github.Issue, error) {
	args := m.Called(ctx, repo, number, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*github.Issue), args.Error(1)
}

func (m *MockAPIClient) Authenticated(ctx context.Context) (*github.TokenInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*github.TokenInfo), args.Error(1)
}

// MockTaskRepository is a mock implementation of TaskRepository for testing
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) ListTasks(ctx context.Context, repo github.RepoRef) ([]Task, error) {
	args := m.Called(ctx, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Task), args.Error(1)
}

func (m *MockTaskRepository) UpsertTask(ctx context.Context, task Task) (int64, error) {
	args := m.Called(ctx, task)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) CloseTask(ctx context.Context, ref int64) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

// MockCheckpointStore is a mock implementation of CheckpointStore for testing
type MockCheckpointStore struct {
	mock.Mock
}

func (m *MockCheckpointStore) Load(ctx context.Context, repo github.RepoRef) (Checkpoint, error) {
	args := m.Called(ctx, repo)
	return args.Get(0).(Checkpoint), args.Error(1)
}

func (m *MockCheckpointStore) Save(ctx context.Context, cp Checkpoint) error {
	args := m.Called(ctx, cp)
	return args.Error(0)
}
