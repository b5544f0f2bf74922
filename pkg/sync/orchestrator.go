package sync

import (
	"context"
	"fmt"
	"time"

	"wondoner-github/pkg/github"
)

// IssueFetcher retrieves the issue set for one repository. Implemented
// by github.Fetcher; stubbed in tests.
type IssueFetcher interface {
	Fetch(ctx context.Context, repo github.RepoRef, since time.Time) ([]github.Issue, error)
}

// OrchestratorConfig tunes cycle behavior
type OrchestratorConfig struct {
	// CycleTimeout is the wall-clock budget for one repository's cycle.
	// Zero means no timeout.
	CycleTimeout time.Duration

	// FullSnapshot forces a full (non-incremental) fetch every cycle.
	// First syncs of a repository are always full.
	FullSnapshot bool
}

// DefaultOrchestratorConfig returns the default orchestrator configuration
func DefaultOrchestratorConfig() *OrchestratorConfig {
	return &OrchestratorConfig{
		CycleTimeout: 10 * time.Minute,
	}
}

// Orchestrator drives sync cycles across repositories. Repositories
// share nothing but the transport's rate budget, so cycles run
// concurrently up to the limiter's slot count with per-repo failure
// isolation.
type Orchestrator struct {
	fetcher     IssueFetcher
	client      github.APIClient
	tasks       TaskRepository
	checkpoints CheckpointStore
	engine      *Engine
	rateLimiter github.RateLimiter
	config      *OrchestratorConfig
}

// NewOrchestrator creates a sync orchestrator
func NewOrchestrator(
	fetcher IssueFetcher,
	client github.APIClient,
	tasks TaskRepository,
	checkpoints CheckpointStore,
	engine *Engine,
	rateLimiter github.RateLimiter,
	config *OrchestratorConfig,
) *Orchestrator {
	if engine == nil {
		engine = NewEngine(nil)
	}
	if rateLimiter == nil {
		rateLimiter = github.NewRateLimiter(nil)
	}
	if config == nil {
		config = DefaultOrchestratorConfig()
	}
	return &Orchestrator{
		fetcher:     fetcher,
		client:      client,
		tasks:       tasks,
		checkpoints: checkpoints,
		engine:      engine,
		rateLimiter: rateLimiter,
		config:      config,
	}
}

// repoJob represents one repository sync job
type repoJob struct {
	repo github.RepoRef
}

// repoResult carries one finished outcome back to the collector
type repoResult struct {
	outcome Outcome
}

// SyncAll runs one sync cycle for every repository and returns one
// Outcome per repository. A failed repository never blocks or fails its
// siblings; the aggregate is never all-or-nothing.
func (o *Orchestrator) SyncAll(ctx context.Context, repos []github.RepoRef) []Outcome {
	if len(repos) == 0 {
		return nil
	}

	numWorkers := o.rateLimiter.Stats().MaxConcurrentSlots
	if numWorkers <= 0 || numWorkers > len(repos) {
		numWorkers = len(repos)
	}

	jobChan := make(chan repoJob, len(repos))
	resultChan := make(chan repoResult, len(repos))

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for i := 0; i < numWorkers; i++ {
		go o.worker(workerCtx, jobChan, resultChan)
	}

	for _, repo := range repos {
		jobChan <- repoJob{repo: repo}
	}
	close(jobChan)

	outcomes := make([]Outcome, 0, len(repos))
	for range repos {
		res := <-resultChan
		outcomes = append(outcomes, res.outcome)
	}

	// Deterministic result order regardless of completion order
	byRepo := make(map[github.RepoRef]Outcome, len(outcomes))
	for _, oc := range outcomes {
		byRepo[oc.Repo] = oc
	}
	ordered := make([]Outcome, 0, len(repos))
	for _, repo := range repos {
		ordered = append(ordered, byRepo[repo])
	}
	return ordered
}

// worker processes repository jobs until the channel closes
func (o *Orchestrator) worker(ctx context.Context, jobs <-chan repoJob, results chan<- repoResult) {
	for job := range jobs {
		if err := o.rateLimiter.AcquireSlot(ctx); err != nil {
			results <- repoResult{outcome: failedOutcome(job.repo, fmt.Errorf("failed to acquire concurrency slot: %w", err))}
			continue
		}

		outcome := o.SyncRepo(ctx, job.repo)
		o.rateLimiter.ReleaseSlot()

		results <- repoResult{outcome: outcome}
	}
}

// SyncRepo runs one full cycle for a single repository:
// Fetching -> Reconciling -> Applying -> Committing, or Failed on an
// unrecoverable error in any phase.
func (o *Orchestrator) SyncRepo(ctx context.Context, repo github.RepoRef) Outcome {
	start := time.Now()

	if o.config.CycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.CycleTimeout)
		defer cancel()
	}

	outcome := Outcome{Repo: repo, State: StateFetching}

	cp, err := o.checkpoints.Load(ctx, repo)
	if err != nil {
		return finish(failedOutcome(repo, fmt.Errorf("failed to load checkpoint: %w", err)), start)
	}

	fullSnapshot := o.config.FullSnapshot || cp.LastSyncedAt.IsZero()
	since := cp.LastSyncedAt
	if fullSnapshot {
		since = time.Time{}
	}

	issues, err := o.fetcher.Fetch(ctx, repo, since)
	if err != nil {
		return finish(failedOutcome(repo, err), start)
	}

	tasks, err := o.tasks.ListTasks(ctx, repo)
	if err != nil {
		return finish(failedOutcome(repo, fmt.Errorf("failed to list local tasks: %w", err)), start)
	}

	outcome.State = StateReconciling
	actions := o.engine.Reconcile(issues, tasks, cp, fullSnapshot)

	outcome.State = StateApplying
	for _, action := range actions {
		// Cooperative cancellation between actions: whatever already
		// applied stays applied, the checkpoint simply won't advance
		if err := ctx.Err(); err != nil {
			outcome.Failed++
			outcome.Errors = append(outcome.Errors, ItemError{IssueID: actionIssueID(action), Op: string(action.Type), Err: err})
			break
		}

		o.applyAction(ctx, action, &outcome)
	}

	outcome.State = StateCommitting
	if outcome.Conflicted == 0 && outcome.Failed == 0 {
		next := Checkpoint{Repo: repo, LastSyncedAt: maxUpdatedAt(cp.LastSyncedAt, issues)}
		if err := o.checkpoints.Save(ctx, next); err != nil {
			return finish(failedOutcome(repo, fmt.Errorf("failed to commit checkpoint: %w", err)), start)
		}
		outcome.Committed = true
	}

	outcome.State = StateIdle
	return finish(outcome, start)
}

// Plan computes the action sequence for a repository without applying
// anything. Used by dry runs.
func (o *Orchestrator) Plan(ctx context.Context, repo github.RepoRef) ([]Action, error) {
	cp, err := o.checkpoints.Load(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	fullSnapshot := o.config.FullSnapshot || cp.LastSyncedAt.IsZero()
	since := cp.LastSyncedAt
	if fullSnapshot {
		since = time.Time{}
	}

	issues, err := o.fetcher.Fetch(ctx, repo, since)
	if err != nil {
		return nil, err
	}

	tasks, err := o.tasks.ListTasks(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to list local tasks: %w", err)
	}

	return o.engine.Reconcile(issues, tasks, cp, fullSnapshot), nil
}

// applyAction executes one action, recording the result in the outcome.
// Per-action failures never abort the cycle: siblings still apply.
func (o *Orchestrator) applyAction(ctx context.Context, action Action, outcome *Outcome) {
	switch action.Type {
	case ActionCreateLocal:
		task := TaskFromIssue(*action.Issue)
		if _, err := o.tasks.UpsertTask(ctx, task); err != nil {
			o.recordFailure(outcome, action, err)
			return
		}
		outcome.Created++

	case ActionUpdateLocal:
		task := TaskFromIssue(*action.Issue)
		task.Ref = action.Task.Ref
		if _, err := o.tasks.UpsertTask(ctx, task); err != nil {
			o.recordFailure(outcome, action, err)
			return
		}
		outcome.Updated++

	case ActionUpdateRemote:
		patch := PatchFromTask(*action.Task)
		updated, err := o.client.UpdateIssue(ctx, action.Issue.Repo, action.Issue.Number, patch)
		if err != nil {
			o.recordFailure(outcome, action, err)
			return
		}
		// Write the remote's accepted state back so the local timestamp
		// matches and the dirty flag clears
		task := TaskFromIssue(*updated)
		task.Ref = action.Task.Ref
		if _, err := o.tasks.UpsertTask(ctx, task); err != nil {
			o.recordFailure(outcome, action, err)
			return
		}
		outcome.Updated++

	case ActionCloseLocal:
		if err := o.tasks.CloseTask(ctx, action.Task.Ref); err != nil {
			o.recordFailure(outcome, action, err)
			return
		}
		outcome.Closed++

	case ActionConflict:
		outcome.Conflicted++
		outcome.Errors = append(outcome.Errors, ItemError{
			IssueID: actionIssueID(action),
			Op:      string(ActionConflict),
			Err:     fmt.Errorf("conflict (%s): issue %s#%d and local task %d both changed", action.Reason, action.Issue.Repo, action.Issue.Number, action.Task.Ref),
		})

	case ActionNoOp:
		outcome.Skipped++
	}
}

// recordFailure notes a per-action apply failure
func (o *Orchestrator) recordFailure(outcome *Outcome, action Action, err error) {
	outcome.Failed++
	outcome.Errors = append(outcome.Errors, ItemError{
		IssueID: actionIssueID(action),
		Op:      string(action.Type),
		Err:     err,
	})
}

// actionIssueID returns the best identity for an action's error record
func actionIssueID(action Action) int64 {
	if action.Issue != nil {
		return action.Issue.ID
	}
	if action.Task != nil {
		return action.Task.ExternalRef
	}
	return 0
}

// failedOutcome builds a Failed outcome for an unrecoverable cycle error
func failedOutcome(repo github.RepoRef, err error) Outcome {
	return Outcome{
		Repo:   repo,
		State:  StateFailed,
		Failed: 1,
		Errors: []ItemError{{Op: "cycle", Err: err}},
	}
}

// finish stamps the cycle duration on the outcome
func finish(outcome Outcome, start time.Time) Outcome {
	outcome.Duration = time.Since(start)
	return outcome
}

// maxUpdatedAt returns the newest update time among the fetched issues,
// never going backwards from the previous checkpoint
func maxUpdatedAt(previous time.Time, issues []github.Issue) time.Time {
	latest := previous
	for _, issue := range issues {
		if issue.UpdatedAt.After(latest) {
			latest = issue.UpdatedAt
		}
	}
	return latest
}
