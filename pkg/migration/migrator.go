package migration

import (
	"context"
	"fmt"
	"io"

	"github.com/krrrr38/gitlab-issues-2-github/pkg/logger"
	"github.com/krrrr38/gitlab-issues-2-github/pkg/model"
	"github.com/krrrr38/gitlab-issues-2-github/pkg/retry"
)

// Source is the GitLab project issues are read from
type Source interface {
	WebURL() string
	ListLabels(ctx context.Context) ([]model.Label, error)
	ListIssues(ctx context.Context) ([]model.Issue, error)
	ListParticipants(ctx context.Context, issueIID int) ([]model.Participant, error)
	ListComments(ctx context.Context, issueIID int) ([]model.Comment, error)
}

// Destination is the GitHub repository issues are written to
type Destination interface {
	ListLabels(ctx context.Context) ([]string, error)
	CreateLabel(ctx context.Context, label model.Label) error
	CreateIssue(ctx context.Context, issue model.NewIssue) (model.CreatedIssue, error)
	CloseIssue(ctx context.Context, number int) error
	CreateComment(ctx context.Context, number int, body string) error
}

// Summary counts what a run created on GitHub
type Summary struct {
	Labels   int
	Issues   int
	Closed   int
	Comments int
	Skipped  int
}

// Migrator moves labels, issues and comments from a Source to a Destination
type Migrator struct {
	source Source
	dest   Destination
	policy retry.Policy
	opts   *MigrationOptions
	out    io.Writer
}

// NewMigrator creates a Migrator printing progress lines to out
func NewMigrator(source Source, dest Destination, policy retry.Policy, opts *MigrationOptions, out io.Writer) *Migrator {
	if opts == nil {
		opts = &MigrationOptions{}
	}
	if out == nil {
		out = io.Discard
	}
	return &Migrator{
		source: source,
		dest:   dest,
		policy: policy,
		opts:   opts,
		out:    out,
	}
}

// Run reconciles labels, then migrates issues with their comments.
// The first error aborts the run and leaves what was already created on GitHub.
func (m *Migrator) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}

	if err := m.MigrateLabels(ctx, summary); err != nil {
		return summary, fmt.Errorf("failed to migrate labels: %w", err)
	}
	if err := m.MigrateIssues(ctx, summary); err != nil {
		return summary, fmt.Errorf("failed to migrate issues: %w", err)
	}

	logger.Info("Migration completed",
		"labels", summary.Labels,
		"issues", summary.Issues,
		"closed", summary.Closed,
		"comments", summary.Comments,
		"skipped", summary.Skipped)
	return summary, nil
}

func (m *Migrator) progress(format string, args ...interface{}) {
	fmt.Fprintf(m.out, format+"\n", args...)
}

func (m *Migrator) createLabel(ctx context.Context, label model.Label) error {
	_, err := retry.Wrap(m.policy, "create label "+label.Name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, m.dest.CreateLabel(ctx, label)
	})(ctx)
	return err
}

func (m *Migrator) createIssue(ctx context.Context, issue model.NewIssue) (model.CreatedIssue, error) {
	return retry.Wrap(m.policy, "create issue", func(ctx context.Context) (model.CreatedIssue, error) {
		return m.dest.CreateIssue(ctx, issue)
	})(ctx)
}

func (m *Migrator) closeIssue(ctx context.Context, number int) error {
	_, err := retry.Wrap(m.policy, fmt.Sprintf("close issue #%d", number), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, m.dest.CloseIssue(ctx, number)
	})(ctx)
	return err
}

func (m *Migrator) createComment(ctx context.Context, number int, body string) error {
	_, err := retry.Wrap(m.policy, fmt.Sprintf("create comment on #%d", number), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, m.dest.CreateComment(ctx, number, body)
	})(ctx)
	return err
}
