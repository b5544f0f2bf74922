package sync

import (
	"sort"

	"wondoner-github/pkg/github"
)

// ActionType represents the kind of change the engine decided on
type ActionType string

const (
	ActionCreateLocal  ActionType = "create_local"
	ActionUpdateLocal  ActionType = "update_local"
	ActionUpdateRemote ActionType = "update_remote"
	ActionCloseLocal   ActionType = "close_local"
	ActionConflict     ActionType = "conflict"
	ActionNoOp         ActionType = "noop"
)

// Action is one reconciliation decision. Issue is set for every action
// derived from a remote issue; Task for every action touching an
// existing local task.
type Action struct {
	Type   ActionType    `json:"type"`
	Issue  *github.Issue `json:"issue,omitempty"`
	Task   *Task         `json:"task,omitempty"`
	Reason string        `json:"reason,omitempty"`
}

// ReasonBothChanged marks a true double-edit conflict
const ReasonBothChanged = "both-changed"

// Engine computes the action sequence that converges the local task set
// with the remote issue set. It performs no I/O and never returns an
// error: data-level problems are encoded as Conflict actions.
type Engine struct {
	resolver ConflictResolver
}

// NewEngine creates a reconciliation engine with the given conflict
// resolver. A nil resolver surfaces conflicts to the caller.
func NewEngine(resolver ConflictResolver) *Engine {
	if resolver == nil {
		resolver = SurfaceResolver{}
	}
	return &Engine{resolver: resolver}
}

// Reconcile diffs remote issues against local tasks and returns the
// ordered action sequence. Ordering is ascending by issue ID (external
// ref for local-only tasks), so identical inputs always produce an
// identical sequence.
//
// fullSnapshot reports whether remote covers the repository's complete
// issue set. Only then can a task whose external ref no longer resolves
// be treated as remotely deleted; an incremental fetch proves nothing
// by absence.
func (e *Engine) Reconcile(remote []github.Issue, local []Task, cp Checkpoint, fullSnapshot bool) []Action {
	issuesByID := make(map[int64]github.Issue, len(remote))
	for _, issue := range remote {
		issuesByID[issue.ID] = issue
	}

	tasksByRef := make(map[int64]Task)
	for _, task := range local {
		if task.ExternalRef != 0 {
			tasksByRef[task.ExternalRef] = task
		}
	}

	// Collect the union of keys so the walk order is deterministic
	keys := make([]int64, 0, len(issuesByID)+len(tasksByRef))
	for id := range issuesByID {
		keys = append(keys, id)
	}
	for ref := range tasksByRef {
		if _, ok := issuesByID[ref]; !ok {
			keys = append(keys, ref)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	actions := make([]Action, 0, len(keys))
	for _, key := range keys {
		issue, hasIssue := issuesByID[key]
		task, hasTask := tasksByRef[key]

		switch {
		case hasIssue && hasTask:
			actions = append(actions, e.reconcilePair(issue, task, cp))
		case hasIssue:
			issueCopy := issue
			actions = append(actions, Action{Type: ActionCreateLocal, Issue: &issueCopy})
		default:
			// Deletion is never inferred destructively: close, don't delete
			if fullSnapshot && task.Status != TaskStatusDone {
				taskCopy := task
				actions = append(actions, Action{Type: ActionCloseLocal, Task: &taskCopy, Reason: "remote-gone"})
			} else {
				taskCopy := task
				actions = append(actions, Action{Type: ActionNoOp, Task: &taskCopy})
			}
		}
	}

	return actions
}

// reconcilePair decides the action for an issue/task pair linked by
// external ref
func (e *Engine) reconcilePair(issue github.Issue, task Task, cp Checkpoint) Action {
	issueCopy := issue
	taskCopy := task

	// Equal timestamps mean the last write was our own push: the dirty
	// flag only clears after a successful remote update, so this is
	// convergence, not a conflict.
	if issue.UpdatedAt.Equal(task.UpdatedAt) {
		return Action{Type: ActionNoOp, Issue: &issueCopy, Task: &taskCopy}
	}

	remoteChanged := issue.UpdatedAt.After(cp.LastSyncedAt)

	if remoteChanged && task.Dirty {
		// True double-edit: picking a winner silently would lose data
		// either way, so hand the pair to the resolver strategy
		return e.resolver.Resolve(issueCopy, taskCopy)
	}

	if issue.UpdatedAt.After(task.UpdatedAt) && !task.Dirty {
		return Action{Type: ActionUpdateLocal, Issue: &issueCopy, Task: &taskCopy}
	}

	if task.Dirty {
		return Action{Type: ActionUpdateRemote, Issue: &issueCopy, Task: &taskCopy}
	}

	return Action{Type: ActionNoOp, Issue: &issueCopy, Task: &taskCopy}
}
