// Package github provides the GitHub-facing half of the Wondoner issue
// sync plugin: a rate-limited API client for issue operations, a
// paginating issue fetcher, and a structured error taxonomy with retry
// classification.
//
// The package includes:
// - APIClient interface for GitHub issue operations
// - RateLimiter arbitrating the shared API budget across repositories
// - Fetcher for incremental, de-duplicated issue retrieval
// - Error types distinguishing retryable from fatal failures
package github
