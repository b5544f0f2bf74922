// Package plugin exposes the Wondoner host-facing capability set:
// configure, sync, health check, plus single-task get/update addressed
// by "owner/repo/number" source IDs.
package plugin

import (
	"context"
	"fmt"
	"time"

	"wondoner-github/pkg/github"
	"wondoner-github/pkg/sync"
)

// SourceName identifies this integration to the host
const SourceName = "github"

// Settings is the opaque configuration the host hands to Configure
type Settings struct {
	Token            string
	Repos            []github.RepoRef
	PollInterval     time.Duration
	ConflictStrategy string
	Concurrency      int
	CycleTimeout     time.Duration
	FullSnapshot     bool
}

// Health reports the result of a health check
type Health struct {
	OK     bool   `json:"ok"`
	Login  string `json:"login,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// TaskChanges is a partial update to a task. Nil fields are unchanged.
type TaskChanges struct {
	Title  *string
	Body   *string
	Status *sync.TaskStatus
}

// clientFactory builds an API client for a token; replaced in tests
type clientFactory func(token string, rl github.RateLimiter) github.APIClient

// Plugin implements the host plugin capability set on top of the sync
// orchestrator. The task repository and checkpoint store are supplied
// by the host at construction.
type Plugin struct {
	tasks       sync.TaskRepository
	checkpoints sync.CheckpointStore

	settings    Settings
	client      github.APIClient
	rateLimiter github.RateLimiter
	orch        *sync.Orchestrator

	newClient clientFactory
	injected  bool
}

// New creates an unconfigured plugin bound to the host's stores
func New(tasks sync.TaskRepository, checkpoints sync.CheckpointStore) *Plugin {
	return &Plugin{
		tasks:       tasks,
		checkpoints: checkpoints,
		newClient: func(token string, rl github.RateLimiter) github.APIClient {
			return github.NewClient(token, rl)
		},
	}
}

// NewWithClient creates a plugin with an injected API client, bypassing
// token authentication. Used by tests and embedded hosts.
func NewWithClient(tasks sync.TaskRepository, checkpoints sync.CheckpointStore, client github.APIClient) *Plugin {
	p := New(tasks, checkpoints)
	p.newClient = func(string, github.RateLimiter) github.APIClient { return client }
	p.injected = true
	return p
}

// Configure validates the settings and builds the sync pipeline.
// Must be called before Sync, HealthCheck, GetTask or UpdateTask.
func (p *Plugin) Configure(settings Settings) error {
	// An injected client carries its own credential
	if settings.Token == "" && !p.injected {
		return fmt.Errorf("GitHub token is required")
	}

	resolver, err := sync.ResolverForStrategy(settings.ConflictStrategy)
	if err != nil {
		return err
	}

	rlConfig := github.DefaultRateLimiterConfig()
	if settings.Concurrency > 0 {
		rlConfig.ConcurrencyLimit = settings.Concurrency
	}
	p.rateLimiter = github.NewRateLimiter(rlConfig)

	p.client = p.newClient(settings.Token, p.rateLimiter)

	orchConfig := sync.DefaultOrchestratorConfig()
	if settings.CycleTimeout > 0 {
		orchConfig.CycleTimeout = settings.CycleTimeout
	}
	orchConfig.FullSnapshot = settings.FullSnapshot

	p.orch = sync.NewOrchestrator(
		github.NewFetcher(p.client),
		p.client,
		p.tasks,
		p.checkpoints,
		sync.NewEngine(resolver),
		p.rateLimiter,
		orchConfig,
	)

	p.settings = settings
	return nil
}

// Sync runs one cycle for the given repositories (the configured set
// when repos is empty) and returns one outcome per repository. Partial
// failure is reported in the outcomes, never as an error for the whole
// batch.
func (p *Plugin) Sync(ctx context.Context, repos []github.RepoRef) ([]sync.Outcome, error) {
	if p.orch == nil {
		return nil, fmt.Errorf("plugin not configured: call Configure first")
	}

	if len(repos) == 0 {
		repos = p.settings.Repos
	}
	if len(repos) == 0 {
		return nil, fmt.Errorf("no repositories configured")
	}

	return p.orch.SyncAll(ctx, repos), nil
}

// Plan returns the actions one cycle would apply for a repository,
// without applying them
func (p *Plugin) Plan(ctx context.Context, repo github.RepoRef) ([]sync.Action, error) {
	if p.orch == nil {
		return nil, fmt.Errorf("plugin not configured: call Configure first")
	}
	return p.orch.Plan(ctx, repo)
}

// HealthCheck verifies the credential against the API
func (p *Plugin) HealthCheck(ctx context.Context) Health {
	if p.client == nil {
		return Health{OK: false, Detail: "plugin not configured"}
	}

	info, err := p.client.Authenticated(ctx)
	if err != nil {
		return Health{OK: false, Detail: err.Error()}
	}

	return Health{OK: true, Login: info.Login}
}

// GetTask fetches a single issue addressed by source ID and maps it to
// a task value. Returns nil without error when the issue does not exist.
func (p *Plugin) GetTask(ctx context.Context, sourceID string) (*sync.Task, error) {
	if p.client == nil {
		return nil, fmt.Errorf("plugin not configured: call Configure first")
	}

	repo, number, err := ParseSourceID(sourceID)
	if err != nil {
		return nil, err
	}

	issue, err := p.client.GetIssue(ctx, repo, number)
	if err != nil {
		if github.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	task := sync.TaskFromIssue(*issue)
	return &task, nil
}

// UpdateTask applies a partial change set to the issue addressed by
// source ID and returns the resulting task state. A change set with no
// mappable fields returns the current state unchanged.
func (p *Plugin) UpdateTask(ctx context.Context, sourceID string, changes TaskChanges) (*sync.Task, error) {
	if p.client == nil {
		return nil, fmt.Errorf("plugin not configured: call Configure first")
	}

	repo, number, err := ParseSourceID(sourceID)
	if err != nil {
		return nil, err
	}

	patch := github.IssuePatch{
		Title: changes.Title,
		Body:  changes.Body,
	}
	if changes.Status != nil {
		state := sync.IssueStateFromStatus(*changes.Status)
		patch.State = &state
	}

	if patch.IsEmpty() {
		task, err := p.GetTask(ctx, sourceID)
		if err != nil {
			return nil, err
		}
		if task == nil {
			return nil, fmt.Errorf("task %s not found for update", sourceID)
		}
		return task, nil
	}

	issue, err := p.client.UpdateIssue(ctx, repo, number, patch)
	if err != nil {
		return nil, err
	}

	task := sync.TaskFromIssue(*issue)
	return &task, nil
}
