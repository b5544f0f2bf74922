package github

import (
	"fmt"
	"strings"
	"time"
)

// RepoRef identifies a repository by owner and name
type RepoRef struct {
	Owner string `json:"owner" yaml:"owner"`
	Name  string `json:"name" yaml:"name"`
}

// String returns the "owner/name" form of the reference
func (r RepoRef) String() string {
	return r.Owner + "/" + r.Name
}

// IsZero reports whether the reference is empty
func (r RepoRef) IsZero() bool {
	return r.Owner == "" && r.Name == ""
}

// ParseRepoRef parses an "owner/name" string into a RepoRef
func ParseRepoRef(s string) (RepoRef, error) {
	s = strings.Trim(s, "/")
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RepoRef{}, fmt.Errorf("invalid repository reference %q: expected owner/name", s)
	}
	return RepoRef{Owner: parts[0], Name: parts[1]}, nil
}

// Issue state values as reported by the GitHub API
const (
	IssueStateOpen   = "open"
	IssueStateClosed = "closed"
)

// Issue represents one GitHub issue.
// ID is globally unique across repositories; Number only within Repo.
type Issue struct {
	ID        int64     `json:"id"`
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	State     string    `json:"state"`
	Labels    []string  `json:"labels"`
	Assignees []string  `json:"assignees"`
	HTMLURL   string    `json:"html_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Repo      RepoRef   `json:"repo"`
}

// NewIssue describes an issue to be created
type NewIssue struct {
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Labels    []string `json:"labels,omitempty"`
	Assignees []string `json:"assignees,omitempty"`
}

// IssuePatch describes a partial update to an existing issue.
// Nil fields are left untouched on the remote side.
type IssuePatch struct {
	Title     *string   `json:"title,omitempty"`
	Body      *string   `json:"body,omitempty"`
	State     *string   `json:"state,omitempty"`
	Labels    *[]string `json:"labels,omitempty"`
	Assignees *[]string `json:"assignees,omitempty"`
}

// IsEmpty reports whether the patch carries no changes
func (p IssuePatch) IsEmpty() bool {
	return p.Title == nil && p.Body == nil && p.State == nil && p.Labels == nil && p.Assignees == nil
}

// TokenInfo contains information about a validated GitHub token
type TokenInfo struct {
	Login  string   `json:"login"`
	Scopes []string `json:"scopes"`
}
