package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	githublib "github.com/google/go-github/v70/github"
	"github.com/krrrr38/gitlab-issues-2-github/pkg/logger"
	"github.com/krrrr38/gitlab-issues-2-github/pkg/model"
)

const perPage = 100

// ErrRepositoryNotFound is returned when the destination repository does not exist or is not visible
var ErrRepositoryNotFound = errors.New("GitHub repository not found")

// Repository is a resolved GitHub repository receiving the migrated issues
type Repository struct {
	client *Client
	owner  string
	repo   string
}

// SplitFullName splits "owner/repo"
func SplitFullName(fullName string) (string, string, error) {
	owner, repo, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("invalid GitHub repository %q, expected owner/repo", fullName)
	}
	return owner, repo, nil
}

// OpenRepository resolves a repository by its "owner/repo" name
func OpenRepository(ctx context.Context, client *Client, fullName string) (*Repository, error) {
	owner, repo, err := SplitFullName(fullName)
	if err != nil {
		return nil, err
	}

	r, resp, err := client.GetInner().Repositories.Get(ctx, owner, repo)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrRepositoryNotFound, fullName)
		}
		return nil, fmt.Errorf("failed to get GitHub repository %s: %w", fullName, err)
	}
	logger.Debug("Resolved GitHub repository", "repo", r.GetFullName(), "url", r.GetHTMLURL())
	return &Repository{client: client, owner: owner, repo: repo}, nil
}

// FullName is "owner/repo"
func (r *Repository) FullName() string {
	return r.owner + "/" + r.repo
}

// ListLabels retrieves the names of all labels of the repository
func (r *Repository) ListLabels(ctx context.Context) ([]string, error) {
	var names []string
	opts := &githublib.ListOptions{PerPage: perPage, Page: 1}
	for {
		labels, resp, err := r.client.GetInner().Issues.ListLabels(ctx, r.owner, r.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list GitHub labels: %w", err)
		}
		for _, l := range labels {
			names = append(names, l.GetName())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return names, nil
}

// CreateLabel creates a label
func (r *Repository) CreateLabel(ctx context.Context, label model.Label) error {
	logger.Debug("Creating GitHub label",
		"repo", r.FullName(),
		"name", label.Name,
		"color", label.Color,
		"description", label.Description)

	_, resp, err := r.client.GetInner().Issues.CreateLabel(ctx, r.owner, r.repo, &githublib.Label{
		Name:        githublib.String(label.Name),
		Color:       githublib.String(label.Color),
		Description: githublib.String(label.Description),
	})
	if err != nil {
		return withRequestID(fmt.Errorf("failed to create GitHub label %q: %w", label.Name, err), resp)
	}
	return nil
}

// CreateIssue creates an open issue
func (r *Repository) CreateIssue(ctx context.Context, issue model.NewIssue) (model.CreatedIssue, error) {
	logger.Debug("Creating GitHub issue",
		"repo", r.FullName(),
		"title", issue.Title,
		"labels", issue.Labels)

	labels := issue.Labels
	created, resp, err := r.client.GetInner().Issues.Create(ctx, r.owner, r.repo, &githublib.IssueRequest{
		Title:  githublib.String(issue.Title),
		Body:   githublib.String(issue.Body),
		Labels: &labels,
	})
	if err != nil {
		return model.CreatedIssue{}, withRequestID(fmt.Errorf("failed to create GitHub issue: %w", err), resp)
	}
	return model.CreatedIssue{Number: created.GetNumber(), URL: created.GetHTMLURL()}, nil
}

// CloseIssue closes an issue
func (r *Repository) CloseIssue(ctx context.Context, number int) error {
	logger.Debug("Closing GitHub issue", "repo", r.FullName(), "number", number)

	_, resp, err := r.client.GetInner().Issues.Edit(ctx, r.owner, r.repo, number, &githublib.IssueRequest{
		State: githublib.String("closed"),
	})
	if err != nil {
		return withRequestID(fmt.Errorf("failed to close GitHub issue #%d: %w", number, err), resp)
	}
	return nil
}

// CreateComment comments on an issue
func (r *Repository) CreateComment(ctx context.Context, number int, body string) error {
	logger.Debug("Creating GitHub issue comment", "repo", r.FullName(), "number", number)

	_, resp, err := r.client.GetInner().Issues.CreateComment(ctx, r.owner, r.repo, number, &githublib.IssueComment{
		Body: githublib.String(body),
	})
	if err != nil {
		return withRequestID(fmt.Errorf("failed to comment on GitHub issue #%d: %w", number, err), resp)
	}
	return nil
}

func withRequestID(err error, resp *githublib.Response) error {
	if resp == nil || resp.Response == nil {
		return err
	}
	if id := resp.Header.Get("x-github-request-id"); id != "" {
		return fmt.Errorf("%w, x-github-request-id: %s", err, id)
	}
	return err
}
