package sync

import (
	"context"
	"fmt"
	"time"

	"wondoner-github/pkg/github"
)

// TaskStatus is the host-side task state mapped to the issue state
type TaskStatus string

const (
	TaskStatusOpen TaskStatus = "open"
	TaskStatusDone TaskStatus = "done"
)

// StatusFromIssueState maps a GitHub issue state to a task status
func StatusFromIssueState(state string) TaskStatus {
	if state == github.IssueStateClosed {
		return TaskStatusDone
	}
	return TaskStatusOpen
}

// IssueStateFromStatus maps a task status back to a GitHub issue state
func IssueStateFromStatus(status TaskStatus) string {
	if status == TaskStatusDone {
		return github.IssueStateClosed
	}
	return github.IssueStateOpen
}

// Task is the host's task representation as seen by the sync engine.
// ExternalRef links back to the originating issue ID when the task was
// sourced from sync; zero means the task is host-native.
type Task struct {
	Ref         int64          `json:"ref"`
	Repo        github.RepoRef `json:"repo"`
	ExternalRef int64          `json:"external_ref"`
	Title       string         `json:"title"`
	Body        string         `json:"body"`
	Status      TaskStatus     `json:"status"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Dirty       bool           `json:"dirty"`
}

// Checkpoint is the per-repository persisted sync cursor. It only
// advances after a cycle commits with zero conflicts and zero failures.
type Checkpoint struct {
	Repo         github.RepoRef `json:"repo"`
	LastSyncedAt time.Time      `json:"last_synced_at"`
	Cursor       string         `json:"cursor"`
}

// CycleState tracks where a repository's sync cycle is
type CycleState string

const (
	StateIdle        CycleState = "idle"
	StateFetching    CycleState = "fetching"
	StateReconciling CycleState = "reconciling"
	StateApplying    CycleState = "applying"
	StateCommitting  CycleState = "committing"
	StateFailed      CycleState = "failed"
)

// ItemError records a per-item apply failure with the offending issue
type ItemError struct {
	IssueID int64  `json:"issue_id"`
	Op      string `json:"op"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e ItemError) Error() string {
	return fmt.Sprintf("%s failed for issue %d: %v", e.Op, e.IssueID, e.Err)
}

// Outcome is the result of one sync cycle for one repository. A cycle
// always produces an Outcome, even under partial failure.
type Outcome struct {
	Repo       github.RepoRef `json:"repo"`
	State      CycleState     `json:"state"`
	Created    int            `json:"created"`
	Updated    int            `json:"updated"`
	Closed     int            `json:"closed"`
	Skipped    int            `json:"skipped"`
	Conflicted int            `json:"conflicted"`
	Failed     int            `json:"failed"`
	Errors     []ItemError    `json:"errors,omitempty"`
	Committed  bool           `json:"committed"`
	Duration   time.Duration  `json:"duration"`
}

// Clean reports whether the cycle finished without conflicts or failures
func (o *Outcome) Clean() bool {
	return o.State != StateFailed && o.Conflicted == 0 && o.Failed == 0
}

// TaskRepository is the host-owned task store capability. The engine
// assumes eventual consistency but not transactional atomicity across
// calls; UpsertTask must be idempotent keyed by (repo, external ref).
type TaskRepository interface {
	// ListTasks returns all tasks linked to the repository
	ListTasks(ctx context.Context, repo github.RepoRef) ([]Task, error)

	// UpsertTask inserts or updates a task and returns its ref
	UpsertTask(ctx context.Context, task Task) (int64, error)

	// CloseTask marks a task as done without deleting it
	CloseTask(ctx context.Context, ref int64) error
}

// CheckpointStore persists per-repository sync cursors. The storage
// medium is owned by the host.
type CheckpointStore interface {
	// Load returns the checkpoint for repo, or a zero checkpoint if the
	// repository has never been synced
	Load(ctx context.Context, repo github.RepoRef) (Checkpoint, error)

	// Save persists the checkpoint, replacing any previous one
	Save(ctx context.Context, cp Checkpoint) error
}

// TaskFromIssue maps a remote issue to a clean (non-dirty) local task
func TaskFromIssue(issue github.Issue) Task {
	return Task{
		Repo:        issue.Repo,
		ExternalRef: issue.ID,
		Title:       issue.Title,
		Body:        issue.Body,
		Status:      StatusFromIssueState(issue.State),
		UpdatedAt:   issue.UpdatedAt,
		Dirty:       false,
	}
}

// PatchFromTask builds the remote update payload for a dirty local task
func PatchFromTask(task Task) github.IssuePatch {
	state := IssueStateFromStatus(task.Status)
	return github.IssuePatch{
		Title: &task.Title,
		Body:  &task.Body,
		State: &state,
	}
}
