package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"wondoner-github/pkg/config"
	"wondoner-github/pkg/github"
	"wondoner-github/pkg/plugin"
	"wondoner-github/pkg/store"
	tasksync "wondoner-github/pkg/sync"
)

var (
	syncConfigPath string
	syncRepos      []string
	syncDryRun     bool
	syncFull       bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync cycle for the configured repositories",
	Long: `Run one bidirectional sync cycle. For each repository the plugin
fetches issues updated since the last checkpoint, reconciles them
against the local task store, applies the resulting actions, and
commits a new checkpoint when the cycle finishes cleanly.

Use --dry-run to print the planned actions without applying anything.
Use --full to force a full (non-incremental) fetch.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVarP(&syncConfigPath, "config", "c", "", "path to the configuration file")
	syncCmd.Flags().StringSliceVarP(&syncRepos, "repo", "r", nil, "limit the cycle to specific owner/name repositories")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "print planned actions without applying them")
	syncCmd.Flags().BoolVar(&syncFull, "full", false, "force a full fetch instead of an incremental one")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg, cfgPath, err := loadConfig(syncConfigPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	repos, err := resolveRepos(cfg, syncRepos)
	if err != nil {
		return err
	}

	token, err := github.NewAuthManager().ResolveToken(cfg.GitHub.Token)
	if err != nil {
		return err
	}

	dbPath := cfg.Sync.DatabasePath
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath(cfgPath)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = st.Close()
	}()

	p := plugin.New(st, st)
	if err := p.Configure(plugin.Settings{
		Token:            token,
		Repos:            repos,
		PollInterval:     time.Duration(cfg.Sync.PollInterval),
		ConflictStrategy: cfg.Sync.ConflictStrategy,
		Concurrency:      cfg.Sync.Concurrency,
		CycleTimeout:     time.Duration(cfg.Sync.CycleTimeout),
		FullSnapshot:     syncFull,
	}); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if syncDryRun {
		return printPlans(ctx, p, repos)
	}

	outcomes, err := p.Sync(ctx, repos)
	if err != nil {
		return err
	}

	printOutcomes(outcomes)

	for _, outcome := range outcomes {
		if !outcome.Clean() {
			os.Exit(1)
		}
	}
	return nil
}

func printPlans(ctx context.Context, p *plugin.Plugin, repos []github.RepoRef) error {
	for _, repo := range repos {
		actions, err := p.Plan(ctx, repo)
		if err != nil {
			color.Red("✗ %s: %v", repo, err)
			continue
		}

		fmt.Printf("%s:\n", color.CyanString(repo.String()))
		changes := 0
		for _, action := range actions {
			if action.Type == tasksync.ActionNoOp {
				continue
			}
			changes++
			switch action.Type {
			case tasksync.ActionConflict:
				color.Yellow("  ! conflict   issue #%d (%s)", action.Issue.Number, action.Reason)
			case tasksync.ActionCreateLocal:
				color.Green("  + create     issue #%d %q", action.Issue.Number, action.Issue.Title)
			case tasksync.ActionUpdateLocal:
				fmt.Printf("  ~ pull       issue #%d %q\n", action.Issue.Number, action.Issue.Title)
			case tasksync.ActionUpdateRemote:
				fmt.Printf("  ~ push       task %d -> issue #%d\n", action.Task.Ref, action.Issue.Number)
			case tasksync.ActionCloseLocal:
				fmt.Printf("  - close      task %d (remote gone)\n", action.Task.Ref)
			}
		}
		if changes == 0 {
			fmt.Println("  nothing to do")
		}
	}
	return nil
}

func printOutcomes(outcomes []tasksync.Outcome) {
	for _, outcome := range outcomes {
		name := outcome.Repo.String()
		switch {
		case outcome.State == tasksync.StateFailed:
			color.Red("✗ %s: cycle failed", name)
		case outcome.Conflicted > 0:
			color.Yellow("! %s: %d conflicts, checkpoint not advanced", name, outcome.Conflicted)
		default:
			color.Green("✓ %s", name)
		}

		fmt.Printf("  created %d, updated %d, closed %d, skipped %d, conflicts %d, failed %d (%.1fs)\n",
			outcome.Created, outcome.Updated, outcome.Closed, outcome.Skipped,
			outcome.Conflicted, outcome.Failed, outcome.Duration.Seconds())

		for _, itemErr := range outcome.Errors {
			fmt.Fprintf(os.Stderr, "  error: %v\n", itemErr)
		}
	}
}

// loadConfig loads the configuration from the flag path or the default
// location, returning the path actually used
func loadConfig(flagPath string) (*config.Config, string, error) {
	path := flagPath
	if path == "" {
		var err error
		path, err = config.GetConfigPath()
		if err != nil {
			return nil, "", err
		}
	}

	cfg, err := config.LoadConfigFromPath(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// resolveRepos returns the repositories to act on: the --repo filter
// when given, the configured set otherwise
func resolveRepos(cfg *config.Config, filter []string) ([]github.RepoRef, error) {
	if len(filter) == 0 {
		return cfg.Repos()
	}

	configured := make(map[string]bool)
	for _, repo := range cfg.GitHub.Repositories {
		configured[repo] = true
	}

	refs := make([]github.RepoRef, 0, len(filter))
	for _, repo := range filter {
		ref, err := github.ParseRepoRef(repo)
		if err != nil {
			return nil, err
		}
		if !configured[ref.String()] {
			return nil, fmt.Errorf("repository %s is not in the configured set", ref)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
