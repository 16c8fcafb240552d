package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/krrrr38/gitlab-issues-2-github/pkg/config"
	"github.com/krrrr38/gitlab-issues-2-github/pkg/logger"
	"github.com/krrrr38/gitlab-issues-2-github/pkg/migration"
	"github.com/krrrr38/gitlab-issues-2-github/pkg/retry"
	"github.com/spf13/cobra"
)

// ErrAborted is returned when the operator declines the confirmation prompt
var ErrAborted = errors.New("aborted")

func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "migrate",
		Short:        "Migrate labels, issues and comments of a GitLab project to a GitHub repository",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, migrateConfig, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runMigration(cmd, cfg, migrateConfig)
		},
	}

	// Migrate command specific flags
	flags := cmd.Flags()
	flags.Duration(config.KeyPace, retry.DefaultPace, "Wait before every GitHub write")
	flags.Duration(config.KeyRetryDelay, retry.DefaultInitialBackoff, "Wait after the first failed GitHub write")
	flags.Duration(config.KeyRetryStep, retry.DefaultBackoffStep, "Extra wait added after each further failure")
	flags.Int(config.KeyRetryAttempts, retry.Unbounded, "Max attempts per GitHub write, 0 retries until success")
	flags.Bool(config.KeyRetryTransientOnly, false, "Only retry rate limits, server and network errors")
	flags.StringSlice(config.KeyExcludeLabel, nil, "GitLab label not to migrate (repeatable)")
	flags.IntSlice(config.KeyIssueIDs, nil, "Filter specific GitLab issue IIDs to migrate")
	flags.Bool(config.KeyRewriteReferences, false, "Rewrite #N and !N references into links to GitLab")
	flags.BoolP(config.KeyYes, "y", false, "Do not ask for confirmation")

	return cmd
}

func loadConfig(cmd *cobra.Command) (config.GlobalConfig, config.MigrateConfig, error) {
	if err := loadEnvFile(cmd); err != nil {
		return config.GlobalConfig{}, config.MigrateConfig{}, err
	}

	v, err := config.NewViper(cmd.Flags())
	if err != nil {
		return config.GlobalConfig{}, config.MigrateConfig{}, err
	}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if err := config.ReadConfigFile(v, path); err != nil {
			return config.GlobalConfig{}, config.MigrateConfig{}, err
		}
	}

	cfg, err := config.LoadGlobal(v)
	if err != nil {
		return cfg, config.MigrateConfig{}, err
	}
	migrateConfig, err := config.LoadMigrate(v)
	if err != nil {
		return cfg, migrateConfig, err
	}

	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		return cfg, migrateConfig, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, migrateConfig, err
	}
	if err := migrateConfig.Validate(); err != nil {
		return cfg, migrateConfig, err
	}
	return cfg, migrateConfig, nil
}

// loadEnvFile loads the env file. A missing default .env is not an error.
func loadEnvFile(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("env-file")
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("env-file") {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func runMigration(cmd *cobra.Command, cfg config.GlobalConfig, migrateConfig config.MigrateConfig) error {
	out := cmd.OutOrStdout()

	printBanner(out, cfg)
	if !migrateConfig.AssumeYes {
		ok, err := confirm(cmd.InOrStdin(), out, "Do you want to continue?")
		if err != nil {
			return err
		}
		if !ok {
			return ErrAborted
		}
		fmt.Fprintln(out)
	}

	// Writes already sent to GitHub stay there; an interrupt only stops the process
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalChan)
	go func() {
		if _, ok := <-signalChan; ok {
			logger.Info("Received interrupt signal, shutting down...")
			os.Exit(1)
		}
	}()

	start := time.Now()
	summary, err := migration.Migrate(context.Background(), cfg, migrateConfig, out)
	elapsed := time.Since(start)
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	color.New(color.FgGreen).Fprintf(out, "Migrated %d labels, %d issues (%d closed), %d comments\n",
		summary.Labels, summary.Issues, summary.Closed, summary.Comments)
	fmt.Fprintf(out, "Execution time: %s\n", elapsed.Round(time.Millisecond))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Done.")
	return nil
}

func printBanner(out io.Writer, cfg config.GlobalConfig) {
	label := color.New(color.FgCyan)
	fmt.Fprintln(out)
	label.Fprintf(out, "  > GitLab Repo: %s\n", cfg.GitLabProject)
	label.Fprintf(out, "  > GitHub Repo: %s\n", cfg.GitHubRepo)
	label.Fprintf(out, "  > GitLab Token: %s\n", maskToken(cfg.GitLabToken))
	if cfg.GitHubToken != "" {
		label.Fprintf(out, "  > GitHub Token: %s\n", maskToken(cfg.GitHubToken))
	} else {
		label.Fprintf(out, "  > GitHub App: %d (installation %d)\n", cfg.GitHubAppID, cfg.GitHubAppInstallationID)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Moving issues from '%s' to '%s'...\n", cfg.GitLabProject, cfg.GitHubRepo)
	fmt.Fprintln(out)
}

func maskToken(token string) string {
	if token == "" {
		return "(none)"
	}
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-4)
}

func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	color.New(color.FgYellow).Fprintf(out, "%s [y/N]: ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
