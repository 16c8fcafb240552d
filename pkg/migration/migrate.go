package migration

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/krrrr38/gitlab-issues-2-github/pkg/config"
	githubClient "github.com/krrrr38/gitlab-issues-2-github/pkg/github"
	gitlabClient "github.com/krrrr38/gitlab-issues-2-github/pkg/gitlab"
	"github.com/krrrr38/gitlab-issues-2-github/pkg/logger"
	"golang.org/x/oauth2"
)

// Migrate authenticates to both platforms, resolves the GitLab project and the GitHub repository,
// then runs the label and issue migration. Each step's effects on GitHub are final.
func Migrate(ctx context.Context, cfg config.GlobalConfig, mc config.MigrateConfig, out io.Writer) (*Summary, error) {
	gl, err := gitlabClient.NewClient(cfg.GitLabToken, cfg.GitLabURL)
	if err != nil {
		return nil, err
	}
	gh, err := NewGitHubClient(cfg)
	if err != nil {
		return nil, err
	}

	source, err := gitlabClient.OpenProject(ctx, gl, cfg.GitLabProject)
	if err != nil {
		return nil, err
	}
	dest, err := githubClient.OpenRepository(ctx, gh, cfg.GitHubRepo)
	if err != nil {
		return nil, err
	}

	logRateLimit(ctx, gh, "before")
	defer logRateLimit(ctx, gh, "after")

	logger.Info("Migration started...", "gitlab", source.Path(), "github", dest.FullName())
	m := NewMigrator(source, dest, NewRetryPolicy(mc), NewMigrationOptions(mc), out)
	return m.Run(ctx)
}

// NewGitHubClient authenticates with a token, or as a GitHub App installation
func NewGitHubClient(cfg config.GlobalConfig) (*githubClient.Client, error) {
	if cfg.GitHubToken == "" && !cfg.UsesGitHubApp() {
		return nil, config.ErrMissingGitHubCredentials
	}

	if cfg.GitHubURL == "" {
		if cfg.GitHubToken != "" {
			return githubClient.NewClientByPAT(cfg.GitHubToken), nil
		}
		return githubClient.NewClientByApp(cfg.GitHubAppID, cfg.GitHubAppInstallationID, cfg.GitHubAppPrivateKey)
	}

	if cfg.GitHubToken == "" {
		return nil, errors.New("GitHub App authentication is not supported with --github-url")
	}
	httpClient := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.GitHubToken}))
	base := strings.TrimSuffix(cfg.GitHubURL, "/")
	return githubClient.NewEnterpriseClient(httpClient, base+"/", base+"/api/graphql")
}

func logRateLimit(ctx context.Context, gh *githubClient.Client, when string) {
	limit, err := gh.RateLimit(ctx)
	if err != nil {
		logger.Warn("Failed to get GitHub rate limit", "error", err)
		return
	}
	logger.Info("GitHub rate limit "+when+" migration",
		"limit", limit.Limit,
		"remaining", limit.Remaining,
		"reset_at", limit.ResetAt.Format(time.RFC3339))
}
