package migration

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/krrrr38/gitlab-issues-2-github/pkg/logger"
	"github.com/krrrr38/gitlab-issues-2-github/pkg/model"
	"github.com/krrrr38/gitlab-issues-2-github/pkg/transform"
	"github.com/krrrr38/gitlab-issues-2-github/pkg/utils"
)

// MigrateIssues recreates every non-confidential GitLab issue on GitHub in IID order
func (m *Migrator) MigrateIssues(ctx context.Context, summary *Summary) error {
	issues, err := m.source.ListIssues(ctx)
	if err != nil {
		return err
	}
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].IID < issues[j].IID
	})

	for _, issue := range issues {
		if issue.Confidential {
			logger.Debug("Skipping confidential issue", "iid", issue.IID)
			summary.Skipped++
			continue
		}
		if !m.opts.isTargetIssue(issue.IID) {
			continue
		}

		if err := m.migrateIssue(ctx, issue, summary); err != nil {
			return fmt.Errorf("failed to migrate issue #%d: %w", issue.IID, err)
		}
	}
	return nil
}

func (m *Migrator) migrateIssue(ctx context.Context, issue model.Issue, summary *Summary) error {
	logger.Info("Move issue", "iid", issue.IID, "title", issue.Title)
	m.progress("  * Move issue #%d", issue.IID)

	participants, err := m.source.ListParticipants(ctx, issue.IID)
	if err != nil {
		return err
	}

	// 書き換えで本文が伸びるため、切り詰めは書き換えの後に行う
	description := m.rewrite(issue.Description, participants)
	description = utils.TruncateText(description, utils.MaxIssueBodyLength-utils.FooterReserve)
	body := transform.IssueFooter(description, issue.WebURL)

	created, err := m.createIssue(ctx, model.NewIssue{
		Title:  utils.TruncateText(issue.Title, utils.MaxIssueTitleLength),
		Body:   body,
		Labels: issueLabels(issue.Labels),
	})
	if err != nil {
		return err
	}
	logger.Info("New issue created", "iid", issue.IID, "number", created.Number, "url", created.URL)
	summary.Issues++

	if issue.Closed() {
		if err := m.closeIssue(ctx, created.Number); err != nil {
			return err
		}
		summary.Closed++
	}

	return m.migrateComments(ctx, issue, participants, created.Number, summary)
}

// migrateComments copies notes in the order GitLab lists them.
// Mentions are resolved against the participants of the whole issue.
func (m *Migrator) migrateComments(ctx context.Context, issue model.Issue, participants []model.Participant, number int, summary *Summary) error {
	comments, err := m.source.ListComments(ctx, issue.IID)
	if err != nil {
		return err
	}

	for _, comment := range comments {
		if comment.Confidential || comment.System {
			continue
		}

		logger.Info("Move comment", "iid", issue.IID, "note", comment.ID)
		m.progress("    * Move comment %d", comment.ID)

		body := m.rewrite(comment.Body, participants)
		body = utils.TruncateText(body, utils.MaxCommentLength-utils.FooterReserve)
		body = transform.CommentFooter(body, transform.NoteURL(issue.WebURL, comment.ID))

		if err := m.createComment(ctx, number, body); err != nil {
			return fmt.Errorf("failed to migrate comment %d: %w", comment.ID, err)
		}
		summary.Comments++
	}
	return nil
}

func (m *Migrator) rewrite(text string, participants []model.Participant) string {
	text = transform.RewriteUploadLinks(text, m.source.WebURL())
	if m.opts.RewriteReferences {
		text = transform.RewriteReferences(text, m.source.WebURL())
	}
	return transform.RewriteMentions(text, participants)
}

// issueLabels lower-cases the GitLab labels and appends the marker label
func issueLabels(labels []string) []string {
	ret := make([]string, 0, len(labels)+1)
	seen := make(map[string]struct{}, len(labels)+1)
	for _, l := range append(append([]string{}, labels...), model.MarkerLabel.Name) {
		name := strings.ToLower(l)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		ret = append(ret, name)
	}
	return ret
}
