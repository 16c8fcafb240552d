package cmd

import (
	"github.com/krrrr38/gitlab-issues-2-github/pkg/config"
	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gitlab-issues-2-github",
		Short: "Migrate GitLab issues to GitHub",
		Long: `Migrate GitLab issues to GitHub.
This tool performs:
- Creation of GitLab labels missing on GitHub
- Migration of issues with their labels and closed state
- Migration of issue comments, with upload links and mentions pointing back to GitLab`,
		SilenceErrors: true,
	}

	// Global flags. Every flag can also be set by its upper-cased env name, e.g. GITHUB_TOKEN.
	flags := rootCmd.PersistentFlags()
	flags.String(config.KeyGitLabToken, "", "GitLab access token, optional (or set GITLAB_TOKEN env)")
	flags.String(config.KeyGitLabURL, config.DefaultGitLabURL, "GitLab URL")
	flags.String(config.KeyGitLabRepo, "", "GitLab repository name with namespace (or set GITLAB_REPO env)")
	flags.String(config.KeyGitHubToken, "", "GitHub access token (or set GITHUB_TOKEN env)")
	flags.String(config.KeyGitHubURL, "", "GitHub Enterprise URL, empty for github.com")
	flags.Int(config.KeyGitHubAppID, 0, "GitHub APP ID (or set GITHUB_APP_ID env)")
	flags.Int(config.KeyGitHubAppInstallationID, 0, "GitHub APP Installation ID (or set GITHUB_APP_INSTALLATION_ID env)")
	flags.String(config.KeyGitHubAppPrivateKey, "", "GitHub APP private key (or set GITHUB_APP_PRIVATE_KEY env)")
	flags.Bool(config.KeyGitHubAppPrivateKeyAsFile, false, "GitHub APP private key as file")
	flags.String(config.KeyGitHubRepo, "", "GitHub repository name with owner, e.g. octo/repo (or set GITHUB_REPO env)")
	flags.String(config.KeyLogLevel, config.DefaultLogLevel, "Log level (debug, info, warn, error, fatal)")
	flags.String("config", "", "Config file keyed like the flags (yaml, toml or json)")
	flags.String("env-file", ".env", "File of KEY=VALUE lines loaded into the environment when present")

	rootCmd.AddCommand(NewMigrateCommand())

	return rootCmd
}
