package github

import (
	"context"
	"fmt"
	"time"
)

// FetchError wraps a transport failure with the repository and page
// index where it occurred
type FetchError struct {
	Repo RepoRef
	Page int
	Err  error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed for %s (page %d): %v", e.Repo, e.Page, e.Err)
}

// Unwrap returns the underlying error
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher retrieves the full or incremental issue set for a repository,
// following pagination until the API reports no more pages.
type Fetcher struct {
	client APIClient
}

// NewFetcher creates a new issue fetcher on top of the given client
func NewFetcher(client APIClient) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch returns all issues of repo updated at or after since (zero since
// fetches everything). The result is de-duplicated by issue ID: GitHub's
// page boundaries can shift under concurrent remote edits, so the same
// issue may appear on two adjacent pages.
func (f *Fetcher) Fetch(ctx context.Context, repo RepoRef, since time.Time) ([]Issue, error) {
	var issues []Issue
	seen := make(map[int64]bool)

	page := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, &FetchError{Repo: repo, Page: page, Err: err}
		}

		pageIssues, nextPage, err := f.client.ListIssuesPage(ctx, repo, since, page)
		if err != nil {
			return nil, &FetchError{Repo: repo, Page: page, Err: err}
		}

		for _, issue := range pageIssues {
			if seen[issue.ID] {
				continue
			}
			seen[issue.ID] = true
			issues = append(issues, issue)
		}

		if nextPage == 0 {
			break
		}
		page = nextPage
	}

	return issues, nil
}
