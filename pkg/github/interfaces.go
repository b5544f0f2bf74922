package github

import (
	"context"
	"time"
)

// APIClient defines the interface for GitHub issue operations.
// All implementations must respect the shared rate limit budget.
type APIClient interface {
	// GetIssue fetches a single issue by repository and number
	GetIssue(ctx context.Context, repo RepoRef, number int) (*Issue, error)

	// ListIssuesPage fetches one page of issues updated at or after since
	// (zero since means everything), sorted by update time ascending.
	// Page 0 requests the first page; the returned int is the next page
	// to request, or 0 when there are no more pages.
	ListIssuesPage(ctx context.Context, repo RepoRef, since time.Time, page int) ([]Issue, int, error)

	// CreateIssue creates a new issue in the repository
	CreateIssue(ctx context.Context, repo RepoRef, issue NewIssue) (*Issue, error)

	// UpdateIssue applies a partial update to an existing issue
	UpdateIssue(ctx context.Context, repo RepoRef, number int, patch IssuePatch) (*Issue, error)

	// Authenticated verifies the credential and returns the token's login
	Authenticated(ctx context.Context) (*TokenInfo, error)
}
