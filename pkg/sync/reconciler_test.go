package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wondoner-github/pkg/github"
)

var testRepo = github.RepoRef{Owner: "acme", Name: "widgets"}

func makeIssue(id int64, number int, title string, updatedAt time.Time) github.Issue {
	return github.Issue{
		ID:        id,
		Number:    number,
		Title:     title,
		State:     github.IssueStateOpen,
		UpdatedAt: updatedAt,
		Repo:      testRepo,
	}
}

func makeTask(ref, externalRef int64, title string, updatedAt time.Time, dirty bool) Task {
	return Task{
		Ref:         ref,
		Repo:        testRepo,
		ExternalRef: externalRef,
		Title:       title,
		Status:      TaskStatusOpen,
		UpdatedAt:   updatedAt,
		Dirty:       dirty,
	}
}

func TestReconcile_RemoteOnlyCreatesLocal(t *testing.T) {
	engine := NewEngine(nil)
	now := time.Now().UTC()

	issue := makeIssue(42, 7, "New bug report", now)
	actions := engine.Reconcile([]github.Issue{issue}, nil, Checkpoint{Repo: testRepo}, true)

	require.Len(t, actions, 1)
	assert.Equal(t, ActionCreateLocal, actions[0].Type)
	assert.Equal(t, int64(42), actions[0].Issue.ID)
	assert.Nil(t, actions[0].Task)
}

func TestReconcile_RemoteNewerUpdatesCleanLocal(t *testing.T) {
	engine := NewEngine(nil)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	issue := makeIssue(42, 7, "Retitled remotely", base.Add(time.Hour))
	task := makeTask(1, 42, "Old title", base, false)
	cp := Checkpoint{Repo: testRepo, LastSyncedAt: base}

	actions := engine.Reconcile([]github.Issue{issue}, []Task{task}, cp, false)

	require.Len(t, actions, 1)
	assert.Equal(t, ActionUpdateLocal, actions[0].Type)
	assert.Equal(t, "Retitled remotely", actions[0].Issue.Title)
	assert.Equal(t, int64(1), actions[0].Task.Ref)
}

func TestReconcile_DirtyLocalUpdatesRemote(t *testing.T) {
	engine := NewEngine(nil)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// The remote side did not move past the checkpoint; only the local
	// task carries an unpushed edit.
	issue := makeIssue(42, 7, "Original title", base)
	task := makeTask(1, 42, "Edited locally", base.Add(time.Minute), true)
	cp := Checkpoint{Repo: testRepo, LastSyncedAt: base}

	actions := engine.Reconcile([]github.Issue{issue}, []Task{task}, cp, false)

	require.Len(t, actions, 1)
	assert.Equal(t, ActionUpdateRemote, actions[0].Type)
	assert.Equal(t, "Edited locally", actions[0].Task.Title)
}

func TestReconcile_BothChangedSurfacesConflict(t *testing.T) {
	engine := NewEngine(nil)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	issue := makeIssue(42, 7, "Remote edit", base.Add(time.Hour))
	task := makeTask(1, 42, "Local edit", base.Add(30*time.Minute), true)
	cp := Checkpoint{Repo: testRepo, LastSyncedAt: base}

	actions := engine.Reconcile([]github.Issue{issue}, []Task{task}, cp, false)

	require.Len(t, actions, 1)
	assert.Equal(t, ActionConflict, actions[0].Type)
	assert.Equal(t, ReasonBothChanged, actions[0].Reason)
	assert.NotNil(t, actions[0].Issue)
	assert.NotNil(t, actions[0].Task)
}

func TestReconcile_EqualTimestampsConverge(t *testing.T) {
	engine := NewEngine(nil)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ts := base.Add(time.Hour)

	// Identical timestamps mean the last write was our own push. Even a
	// lingering dirty flag must not produce a conflict.
	issue := makeIssue(42, 7, "Same", ts)
	task := makeTask(1, 42, "Same", ts, true)
	cp := Checkpoint{Repo: testRepo, LastSyncedAt: base}

	actions := engine.Reconcile([]github.Issue{issue}, []Task{task}, cp, false)

	require.Len(t, actions, 1)
	assert.Equal(t, ActionNoOp, actions[0].Type)
}

func TestReconcile_UnchangedPairIsNoOp(t *testing.T) {
	engine := NewEngine(nil)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	issue := makeIssue(42, 7, "Stable", base)
	task := makeTask(1, 42, "Stable", base.Add(-time.Minute), false)
	cp := Checkpoint{Repo: testRepo, LastSyncedAt: base}

	actions := engine.Reconcile([]github.Issue{issue}, []Task{task}, cp, false)

	require.Len(t, actions, 1)
	assert.Equal(t, ActionNoOp, actions[0].Type)
}

func TestReconcile_LocalOnlyClosedOnFullSnapshot(t *testing.T) {
	engine := NewEngine(nil)
	now := time.Now().UTC()

	task := makeTask(9, 77, "Remote deleted this", now, false)

	actions := engine.Reconcile(nil, []Task{task}, Checkpoint{Repo: testRepo, LastSyncedAt: now}, true)

	require.Len(t, actions, 1)
	assert.Equal(t, ActionCloseLocal, actions[0].Type)
	assert.Equal(t, int64(9), actions[0].Task.Ref)
	assert.Equal(t, "remote-gone", actions[0].Reason)
}

func TestReconcile_LocalOnlySkippedOnIncrementalFetch(t *testing.T) {
	engine := NewEngine(nil)
	now := time.Now().UTC()

	// An incremental fetch only returns issues updated since the
	// checkpoint; absence proves nothing, so the task stays open.
	task := makeTask(9, 77, "Quiet issue", now, false)

	actions := engine.Reconcile(nil, []Task{task}, Checkpoint{Repo: testRepo, LastSyncedAt: now}, false)

	require.Len(t, actions, 1)
	assert.Equal(t, ActionNoOp, actions[0].Type)
}

func TestReconcile_AlreadyDoneTaskNotClosedAgain(t *testing.T) {
	engine := NewEngine(nil)
	now := time.Now().UTC()

	task := makeTask(9, 77, "Finished", now, false)
	task.Status = TaskStatusDone

	actions := engine.Reconcile(nil, []Task{task}, Checkpoint{Repo: testRepo, LastSyncedAt: now}, true)

	require.Len(t, actions, 1)
	assert.Equal(t, ActionNoOp, actions[0].Type)
}

func TestReconcile_HostNativeTasksIgnored(t *testing.T) {
	engine := NewEngine(nil)
	now := time.Now().UTC()

	// A task with no external ref was never sourced from an issue and is
	// outside the sync set entirely.
	native := Task{Ref: 3, Repo: testRepo, Title: "Grocery list", UpdatedAt: now}

	actions := engine.Reconcile(nil, []Task{native}, Checkpoint{Repo: testRepo}, true)

	assert.Empty(t, actions)
}

func TestReconcile_DeterministicOrdering(t *testing.T) {
	engine := NewEngine(nil)
	now := time.Now().UTC()

	issues := []github.Issue{
		makeIssue(30, 3, "c", now),
		makeIssue(10, 1, "a", now),
		makeIssue(20, 2, "b", now),
	}
	tasks := []Task{
		makeTask(5, 50, "local only", now, false),
	}
	cp := Checkpoint{Repo: testRepo, LastSyncedAt: now.Add(-time.Hour)}

	first := engine.Reconcile(issues, tasks, cp, true)
	second := engine.Reconcile(issues, tasks, cp, true)

	require.Len(t, first, 4)
	assert.Equal(t, first, second)

	// Ascending by issue ID, local-only ref last
	assert.Equal(t, int64(10), first[0].Issue.ID)
	assert.Equal(t, int64(20), first[1].Issue.ID)
	assert.Equal(t, int64(30), first[2].Issue.ID)
	assert.Equal(t, int64(50), first[3].Task.ExternalRef)
}

func TestReconcile_MixedBatch(t *testing.T) {
	engine := NewEngine(nil)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cp := Checkpoint{Repo: testRepo, LastSyncedAt: base}

	issues := []github.Issue{
		makeIssue(1, 1, "brand new", base.Add(time.Hour)),
		makeIssue(2, 2, "remote moved", base.Add(time.Hour)),
		makeIssue(3, 3, "untouched", base.Add(-time.Hour)),
	}
	tasks := []Task{
		makeTask(11, 2, "stale local", base.Add(-time.Hour), false),
		makeTask(12, 3, "push me", base.Add(time.Minute), true),
		makeTask(13, 4, "gone remotely", base, false),
	}

	actions := engine.Reconcile(issues, tasks, cp, true)

	require.Len(t, actions, 4)
	assert.Equal(t, ActionCreateLocal, actions[0].Type)
	assert.Equal(t, ActionUpdateLocal, actions[1].Type)
	assert.Equal(t, ActionUpdateRemote, actions[2].Type)
	assert.Equal(t, ActionCloseLocal, actions[3].Type)
}

func TestReconcile_ConflictUsesInjectedResolver(t *testing.T) {
	engine := NewEngine(RemoteWinsResolver{})
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	issue := makeIssue(42, 7, "Remote edit", base.Add(time.Hour))
	task := makeTask(1, 42, "Local edit", base.Add(30*time.Minute), true)
	cp := Checkpoint{Repo: testRepo, LastSyncedAt: base}

	actions := engine.Reconcile([]github.Issue{issue}, []Task{task}, cp, false)

	require.Len(t, actions, 1)
	assert.Equal(t, ActionUpdateLocal, actions[0].Type)
	assert.Equal(t, ReasonBothChanged, actions[0].Reason)
}

func TestReconcile_EmptyInputs(t *testing.T) {
	engine := NewEngine(nil)

	actions := engine.Reconcile(nil, nil, Checkpoint{Repo: testRepo}, true)

	assert.Empty(t, actions)
}
