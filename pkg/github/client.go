package github

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
)

const issuesPerPage = 100

// Client implements the APIClient interface using the GitHub REST API.
// Every call waits on the shared rate limiter before dispatch and feeds
// the response's rate headers back into it.
type Client struct {
	client      *github.Client
	rateLimiter RateLimiter
	retry       *RetryConfig
}

// NewClient creates a new GitHub API client with the provided token
func NewClient(token string, rateLimiter RateLimiter) *Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(context.Background(), ts)

	return NewClientFrom(github.NewClient(tc), rateLimiter)
}

// NewClientFrom wraps an existing go-github client. Used by tests to
// point the client at a local HTTP server.
func NewClientFrom(gh *github.Client, rateLimiter RateLimiter) *Client {
	if rateLimiter == nil {
		rateLimiter = NewRateLimiter(nil)
	}
	return &Client{
		client:      gh,
		rateLimiter: rateLimiter,
		retry:       DefaultRetryConfig(),
	}
}

// execute runs one API call through the rate limiter and records the
// returned rate budget
func (c *Client) execute(ctx context.Context, operation func() (*github.Response, error)) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait failed: %w", err)
	}

	resp, err := operation()

	if resp != nil && resp.Rate.Limit != 0 {
		c.rateLimiter.UpdateLimits(resp.Rate.Remaining, resp.Rate.Reset.Time)
	}

	return err
}

// GetIssue fetches a single issue by repository and number
func (c *Client) GetIssue(ctx context.Context, repo RepoRef, number int) (*Issue, error) {
	var issue *github.Issue

	err := WithRetry(func() error {
		return c.execute(ctx, func() (*github.Response, error) {
			var resp *github.Response
			var err error
			issue, resp, err = c.client.Issues.Get(ctx, repo.Owner, repo.Name, number)
			if err != nil {
				return resp, WrapError(err, fmt.Sprintf("issue %s#%d", repo, number))
			}
			return resp, nil
		})
	}, c.retry)

	if err != nil {
		return nil, err
	}

	return convertIssue(issue, repo), nil
}

// ListIssuesPage fetches one page of issues updated at or after since
func (c *Client) ListIssuesPage(ctx context.Context, repo RepoRef, since time.Time, page int) ([]Issue, int, error) {
	opts := &github.IssueListByRepoOptions{
		State:     "all",
		Sort:      "updated",
		Direction: "asc",
		ListOptions: github.ListOptions{
			Page:    page,
			PerPage: issuesPerPage,
		},
	}
	if !since.IsZero() {
		opts.Since = since
	}

	var issues []Issue
	var nextPage int

	err := WithRetry(func() error {
		issues = nil // Reset on retry
		nextPage = 0

		return c.execute(ctx, func() (*github.Response, error) {
			ghIssues, resp, err := c.client.Issues.ListByRepo(ctx, repo.Owner, repo.Name, opts)
			if err != nil {
				return resp, WrapError(err, fmt.Sprintf("issues for %s", repo))
			}

			for _, ghIssue := range ghIssues {
				// The issues endpoint also returns pull requests
				if ghIssue.IsPullRequest() {
					continue
				}
				issues = append(issues, *convertIssue(ghIssue, repo))
			}

			nextPage = resp.NextPage
			return resp, nil
		})
	}, c.retry)

	if err != nil {
		return nil, 0, err
	}

	return issues, nextPage, nil
}

// CreateIssue creates a new issue in the repository
func (c *Client) CreateIssue(ctx context.Context, repo RepoRef, issue NewIssue) (*Issue, error) {
	req := &github.IssueRequest{
		Title: github.String(issue.Title),
		Body:  github.String(issue.Body),
	}
	if len(issue.Labels) > 0 {
		req.Labels = &issue.Labels
	}
	if len(issue.Assignees) > 0 {
		req.Assignees = &issue.Assignees
	}

	var created *github.Issue

	err := WithRetry(func() error {
		return c.execute(ctx, func() (*github.Response, error) {
			var resp *github.Response
			var err error
			created, resp, err = c.client.Issues.Create(ctx, repo.Owner, repo.Name, req)
			if err != nil {
				return resp, WrapError(err, fmt.Sprintf("issue in %s", repo))
			}
			return resp, nil
		})
	}, c.retry)

	if err != nil {
		return nil, err
	}

	return convertIssue(created, repo), nil
}

// UpdateIssue applies a partial update to an existing issue
func (c *Client) UpdateIssue(ctx context.Context, repo RepoRef, number int, patch IssuePatch) (*Issue, error) {
	req := &github.IssueRequest{
		Title:     patch.Title,
		Body:      patch.Body,
		State:     patch.State,
		Labels:    patch.Labels,
		Assignees: patch.Assignees,
	}

	var updated *github.Issue

	err := WithRetry(func() error {
		return c.execute(ctx, func() (*github.Response, error) {
			var resp *github.Response
			var err error
			updated, resp, err = c.client.Issues.Edit(ctx, repo.Owner, repo.Name, number, req)
			if err != nil {
				return resp, WrapError(err, fmt.Sprintf("issue %s#%d", repo, number))
			}
			return resp, nil
		})
	}, c.retry)

	if err != nil {
		return nil, err
	}

	return convertIssue(updated, repo), nil
}

// Authenticated verifies the credential and returns the token's login
func (c *Client) Authenticated(ctx context.Context) (*TokenInfo, error) {
	var info *TokenInfo

	err := WithRetry(func() error {
		return c.execute(ctx, func() (*github.Response, error) {
			user, resp, err := c.client.Users.Get(ctx, "")
			if err != nil {
				return resp, WrapError(err, "authenticated user")
			}

			info = &TokenInfo{Login: user.GetLogin()}
			if resp != nil {
				if scopeHeader := resp.Header.Get("X-OAuth-Scopes"); scopeHeader != "" {
					info.Scopes = append(info.Scopes, splitAndTrim(scopeHeader, ",")...)
				}
			}
			return resp, nil
		})
	}, c.retry)

	if err != nil {
		return nil, err
	}

	return info, nil
}

// convertIssue converts a GitHub API issue to our internal type
func convertIssue(issue *github.Issue, repo RepoRef) *Issue {
	out := &Issue{
		ID:        issue.GetID(),
		Number:    issue.GetNumber(),
		Title:     issue.GetTitle(),
		Body:      issue.GetBody(),
		State:     issue.GetState(),
		HTMLURL:   issue.GetHTMLURL(),
		CreatedAt: issue.GetCreatedAt().Time,
		UpdatedAt: issue.GetUpdatedAt().Time,
		Repo:      repo,
	}

	for _, label := range issue.Labels {
		out.Labels = append(out.Labels, label.GetName())
	}
	for _, assignee := range issue.Assignees {
		out.Assignees = append(out.Assignees, assignee.GetLogin())
	}

	return out
}

// splitAndTrim splits s on sep and trims whitespace, dropping empties
func splitAndTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
