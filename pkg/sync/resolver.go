package sync

import (
	"fmt"

	"wondoner-github/pkg/github"
)

// ConflictResolver decides what to do with a pair that changed on both
// sides since the last committed checkpoint. Strategies are injectable
// without changing the engine.
type ConflictResolver interface {
	// Resolve returns the action to take for a double-edited pair
	Resolve(issue github.Issue, task Task) Action

	// Name returns the strategy identifier used in configuration
	Name() string
}

// Conflict strategy identifiers accepted in configuration
const (
	StrategySurface    = "surface"
	StrategyRemoteWins = "remote-wins"
	StrategyLocalWins  = "local-wins"
	StrategyMerge      = "merge"
)

// ResolverForStrategy returns the resolver for a configured strategy name
func ResolverForStrategy(name string) (ConflictResolver, error) {
	switch name {
	case "", StrategySurface:
		return SurfaceResolver{}, nil
	case StrategyRemoteWins:
		return RemoteWinsResolver{}, nil
	case StrategyLocalWins:
		return LocalWinsResolver{}, nil
	case StrategyMerge:
		return MergeResolver{}, nil
	default:
		return nil, fmt.Errorf("unknown conflict strategy %q: expected one of surface, remote-wins, local-wins, merge", name)
	}
}

// SurfaceResolver emits the conflict to the caller and applies nothing.
// This is the default: a true double-edit is the one case where data
// loss is possible either way.
type SurfaceResolver struct{}

// Resolve returns a Conflict action
func (SurfaceResolver) Resolve(issue github.Issue, task Task) Action {
	return Action{Type: ActionConflict, Issue: &issue, Task: &task, Reason: ReasonBothChanged}
}

// Name returns the strategy identifier
func (SurfaceResolver) Name() string { return StrategySurface }

// RemoteWinsResolver overwrites the local task with the remote issue
type RemoteWinsResolver struct{}

// Resolve returns an UpdateLocal action
func (RemoteWinsResolver) Resolve(issue github.Issue, task Task) Action {
	return Action{Type: ActionUpdateLocal, Issue: &issue, Task: &task, Reason: ReasonBothChanged}
}

// Name returns the strategy identifier
func (RemoteWinsResolver) Name() string { return StrategyRemoteWins }

// LocalWinsResolver pushes the local task's fields to the remote issue
type LocalWinsResolver struct{}

// Resolve returns an UpdateRemote action
func (LocalWinsResolver) Resolve(issue github.Issue, task Task) Action {
	return Action{Type: ActionUpdateRemote, Issue: &issue, Task: &task, Reason: ReasonBothChanged}
}

// Name returns the strategy identifier
func (LocalWinsResolver) Name() string { return StrategyLocalWins }

// MergeResolver combines both sides field-wise: title and body from the
// dirty local edit, state from the remote since GitHub is the system of
// record for issue state. The merged result is pushed remote; the local
// side converges when the returned issue is applied back.
type MergeResolver struct{}

// Resolve returns an UpdateRemote action carrying the merged task
func (MergeResolver) Resolve(issue github.Issue, task Task) Action {
	merged := task
	merged.Status = StatusFromIssueState(issue.State)
	return Action{Type: ActionUpdateRemote, Issue: &issue, Task: &merged, Reason: ReasonBothChanged}
}

// Name returns the strategy identifier
func (MergeResolver) Name() string { return StrategyMerge }
