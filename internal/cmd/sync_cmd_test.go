package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wondoner-github/pkg/config"
	"wondoner-github/pkg/github"
)

func TestSyncCmd_Flags(t *testing.T) {
	for _, name := range []string{"config", "repo", "dry-run", "full"} {
		assert.NotNil(t, syncCmd.Flags().Lookup(name), "missing flag %s", name)
	}
}

func TestLoadConfig_FlagPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "github.yaml")
	content := `github:
  repositories:
    - acme/widgets
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, usedPath, err := loadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, path, usedPath)
	assert.Equal(t, []string{"acme/widgets"}, cfg.GitHub.Repositories)
}

func TestLoadConfig_EnvDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "github.yaml")
	t.Setenv("WONDONER_GITHUB_CONFIG", path)

	_, usedPath, err := loadConfig("")

	require.NoError(t, err)
	assert.Equal(t, path, usedPath)
}

func TestResolveRepos_DefaultsToConfigured(t *testing.T) {
	cfg := &config.Config{
		GitHub: config.GitHubConfig{Repositories: []string{"acme/widgets", "acme/gadgets"}},
	}

	repos, err := resolveRepos(cfg, nil)

	require.NoError(t, err)
	assert.Equal(t, []github.RepoRef{
		{Owner: "acme", Name: "widgets"},
		{Owner: "acme", Name: "gadgets"},
	}, repos)
}

func TestResolveRepos_FilterSubset(t *testing.T) {
	cfg := &config.Config{
		GitHub: config.GitHubConfig{Repositories: []string{"acme/widgets", "acme/gadgets"}},
	}

	repos, err := resolveRepos(cfg, []string{"acme/gadgets"})

	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "gadgets", repos[0].Name)
}

func TestResolveRepos_RejectsUnconfigured(t *testing.T) {
	cfg := &config.Config{
		GitHub: config.GitHubConfig{Repositories: []string{"acme/widgets"}},
	}

	_, err := resolveRepos(cfg, []string{"acme/other"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in the configured set")
}

func TestResolveRepos_RejectsMalformedFilter(t *testing.T) {
	cfg := &config.Config{
		GitHub: config.GitHubConfig{Repositories: []string{"acme/widgets"}},
	}

	_, err := resolveRepos(cfg, []string{"not-a-repo"})

	assert.Error(t, err)
}
